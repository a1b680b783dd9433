package store

import (
	"context"

	"pasteleria/internal/models"
)

// CreateUser inserts a user. A taken email yields repository.ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, phone, address, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := s.q.QueryRowxContext(ctx, query,
		u.Name, u.Email, u.PasswordHash, u.Phone, u.Address, u.Role).Scan(&u.ID, &u.CreatedAt)
	return mapWriteErr(err)
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.get(ctx, &u, "SELECT * FROM users WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.get(ctx, &u, "SELECT * FROM users WHERE LOWER(email) = LOWER($1)", email); err != nil {
		return nil, err
	}
	return &u, nil
}
