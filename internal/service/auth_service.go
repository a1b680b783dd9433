package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"pasteleria/internal/auth"
	"pasteleria/internal/models"
	"pasteleria/internal/repository"
	"pasteleria/internal/util"

	"go.uber.org/zap"
)

// AuthService registers users and issues access tokens
type AuthService struct {
	repo   repository.Repository
	hasher *auth.PasswordHasher
	tokens *auth.TokenManager
	logger *zap.Logger
}

// NewAuthService creates an auth service
func NewAuthService(repo repository.Repository, hasher *auth.PasswordHasher, tokens *auth.TokenManager) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, tokens: tokens, logger: util.Component("auth")}
}

// RegisterRequest is a customer sign-up
type RegisterRequest struct {
	Name     string `json:"name" form:"nombre" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Phone    string `json:"phone" form:"telefono"`
	Address  string `json:"address" form:"direccion"`
}

// LoginRequest carries credentials
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register creates a customer account
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	return s.createUser(ctx, req, models.RoleCustomer)
}

func (s *AuthService) createUser(ctx context.Context, req RegisterRequest, role string) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalidArg("name is required")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, invalidArg("invalid email address")
	}
	if len(req.Password) < 8 || len(req.Password) > 72 {
		return nil, invalidArg("password must be between 8 and 72 bytes")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        strings.ToLower(addr.Address),
		PasswordHash: hash,
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		Role:         role,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("role", role))
	return user, nil
}

// Login verifies credentials and issues a token carrying the user's role
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.logger.Info("Failed login", zap.Int64("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(auth.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResponse{Token: token, ExpiresAt: expires, User: user}, nil
}

// EnsureAdmin creates the admin account if no user owns email yet
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	_, err = s.createUser(ctx, RegisterRequest{Name: "Administrador", Email: email, Password: password}, models.RoleAdmin)
	return err
}
