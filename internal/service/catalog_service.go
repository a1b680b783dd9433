package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pasteleria/internal/models"
	"pasteleria/internal/repository"
	"pasteleria/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CatalogService serves the product catalog with a read-through cache
type CatalogService struct {
	repo      repository.Repository
	cache     Cache
	cacheTTL  time.Duration
	publisher EventPublisher
	group     singleflight.Group
	logger    *zap.Logger
}

// NewCatalogService creates a catalog service. cache may be nil.
func NewCatalogService(repo repository.Repository, cache Cache, cacheTTL time.Duration, publisher EventPublisher) *CatalogService {
	return &CatalogService{
		repo:      repo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		publisher: publisher,
		logger:    util.Component("catalog"),
	}
}

// ProductInput is the admin payload for creating or updating a product
type ProductInput struct {
	Name        string          `json:"name" form:"name" binding:"required"`
	Description string          `json:"description" form:"description"`
	Price       decimal.Decimal `json:"price" form:"price"`
	Stock       int             `json:"stock" form:"stock"`
	Category    string          `json:"category" form:"category"`
	ImageURL    string          `json:"image_url" form:"image_url"`
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalidArg("product name is required")
	}
	if in.Price.IsNegative() {
		return invalidArg("price must be >= 0")
	}
	if in.Stock < 0 {
		return invalidArg("stock must be >= 0")
	}
	return nil
}

func productCacheKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

// ListProducts lists the catalog, optionally filtered by category or search text
func (s *CatalogService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	filter.Category = strings.TrimSpace(filter.Category)
	filter.Search = strings.TrimSpace(filter.Search)

	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// ListCategories returns the distinct product categories
func (s *CatalogService) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// GetProduct returns a product, consulting the cache first. Concurrent misses
// for the same id share one database read.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct")
	defer span.End()

	key := productCacheKey(id)
	if s.cache != nil {
		var cached models.Product
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("Product cache read failed", zap.Int64("product_id", id), zap.Error(err))
		}
		if hit {
			util.CacheRequestsTotal.WithLabelValues("hit").Inc()
			return &cached, nil
		}
		util.CacheRequestsTotal.WithLabelValues("miss").Inc()
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		p, err := s.repo.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.SetJSON(ctx, key, p, s.cacheTTL); err != nil {
				s.logger.Warn("Product cache write failed", zap.Int64("product_id", id), zap.Error(err))
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, notFoundOr(err, "product", id, "get product")
	}

	p := *v.(*models.Product)
	return &p, nil
}

// CreateProduct adds a product to the catalog
func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price.Round(2),
		Stock:       in.Stock,
		Category:    strings.TrimSpace(in.Category),
		ImageURL:    in.ImageURL,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
	s.productChanged(ctx, p.ID, models.ProductActionCreated)
	return p, nil
}

// UpdateProduct replaces the mutable fields of a product
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	if err := in.validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "product", id, "get product")
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price.Round(2)
	p.Stock = in.Stock
	p.Category = strings.TrimSpace(in.Category)
	p.ImageURL = in.ImageURL

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, notFoundOr(err, "product", id, "update product")
	}

	s.InvalidateProducts(ctx, id)
	s.productChanged(ctx, id, models.ProductActionUpdated)
	return p, nil
}

// DeleteProduct removes a product from the catalog
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer span.End()

	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return notFoundOr(err, "product", id, "delete product")
	}

	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	s.InvalidateProducts(ctx, id)
	s.productChanged(ctx, id, models.ProductActionDeleted)
	return nil
}

// InvalidateProducts drops cached copies of the given products
func (s *CatalogService) InvalidateProducts(ctx context.Context, ids ...int64) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productCacheKey(id)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("Product cache invalidation failed", zap.Int64s("product_ids", ids), zap.Error(err))
	}
}

func (s *CatalogService) productChanged(ctx context.Context, id int64, action string) {
	event := &models.ProductChangedEvent{ProductID: id, Action: action}
	if err := s.publisher.PublishProductChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish ProductChanged event", zap.Int64("product_id", id), zap.Error(err))
	}
}
