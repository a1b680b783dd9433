package service

import (
	"context"
	"errors"
	"fmt"

	"pasteleria/internal/models"
	"pasteleria/internal/repository"
	"pasteleria/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxLineQuantity is the most units of one product a cart line may hold
const MaxLineQuantity = 999

// CartService manages the per-customer shopping cart
type CartService struct {
	repo   repository.Repository
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(repo repository.Repository) *CartService {
	return &CartService{repo: repo, logger: util.Component("cart")}
}

// CartItemRequest is the payload of add and update
type CartItemRequest struct {
	ProductID int64 `json:"product_id" form:"productoId" binding:"required"`
	Quantity  int   `json:"quantity" form:"cantidad"`
}

// GetOrCreateCart returns the customer's cart, creating an empty one on first access
func (s *CartService) GetOrCreateCart(ctx context.Context, customerID int64) (*models.CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.GetOrCreateCart")
	defer span.End()

	cart, err := s.ensureCart(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return buildCartView(ctx, s.repo, cart)
}

// AddItem puts quantity units of a product in the cart. An existing line is
// incremented and repriced at the current catalog price; stock is checked at
// checkout, not here.
func (s *CartService) AddItem(ctx context.Context, customerID, productID int64, quantity int) (*models.CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if quantity < 1 {
		return nil, invalidArg("quantity must be at least 1")
	}
	if quantity > MaxLineQuantity {
		return nil, invalidArg("quantity must be at most %d", MaxLineQuantity)
	}

	cart, err := s.ensureCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	var view *models.CartView
	err = s.repo.WithinTx(ctx, func(tx repository.Repository) error {
		product, err := tx.GetProduct(ctx, productID)
		if err != nil {
			return notFoundOr(err, "product", productID, "get product")
		}

		line, err := tx.GetCartLine(ctx, cart.ID, productID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			line = &models.CartLine{
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  quantity,
				UnitPrice: product.Price,
				Subtotal:  lineSubtotal(product.Price, quantity),
			}
			if err := tx.CreateCartLine(ctx, line); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return fmt.Errorf("%w: cart changed concurrently, retry", ErrConflict)
				}
				return fmt.Errorf("failed to add cart line: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to get cart line: %w", err)
		default:
			if line.Quantity+quantity > MaxLineQuantity {
				return invalidArg("quantity must be at most %d per product", MaxLineQuantity)
			}
			line.Quantity += quantity
			line.UnitPrice = product.Price
			line.Subtotal = lineSubtotal(line.UnitPrice, line.Quantity)
			if err := tx.UpdateCartLine(ctx, line); err != nil {
				return fmt.Errorf("failed to update cart line: %w", err)
			}
		}

		view, err = buildCartView(ctx, tx, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	util.CartMutationsTotal.WithLabelValues("add").Inc()
	s.logger.Debug("Cart item added",
		zap.Int64("customer_id", customerID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity))
	return view, nil
}

// UpdateItemQuantity sets the quantity of an existing line. A quantity of
// zero or less removes the line. The line keeps the price it was added at.
func (s *CartService) UpdateItemQuantity(ctx context.Context, customerID, productID int64, quantity int) (*models.CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.UpdateItemQuantity")
	defer span.End()

	if quantity > MaxLineQuantity {
		return nil, invalidArg("quantity must be at most %d", MaxLineQuantity)
	}

	view, err := s.mutateLine(ctx, customerID, productID, func(tx repository.Repository, line *models.CartLine) error {
		if quantity <= 0 {
			return tx.DeleteCartLine(ctx, line.ID)
		}
		line.Quantity = quantity
		line.Subtotal = lineSubtotal(line.UnitPrice, quantity)
		return tx.UpdateCartLine(ctx, line)
	})
	if err != nil {
		return nil, err
	}

	util.CartMutationsTotal.WithLabelValues("update").Inc()
	return view, nil
}

// RemoveItem deletes the line holding productID
func (s *CartService) RemoveItem(ctx context.Context, customerID, productID int64) (*models.CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveItem")
	defer span.End()

	view, err := s.mutateLine(ctx, customerID, productID, func(tx repository.Repository, line *models.CartLine) error {
		return tx.DeleteCartLine(ctx, line.ID)
	})
	if err != nil {
		return nil, err
	}

	util.CartMutationsTotal.WithLabelValues("remove").Inc()
	return view, nil
}

// Clear empties the customer's cart
func (s *CartService) Clear(ctx context.Context, customerID int64) error {
	ctx, span := util.StartSpan(ctx, "CartService.Clear")
	defer span.End()

	cart, err := s.repo.GetCartByCustomer(ctx, customerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get cart: %w", err)
	}
	if err := s.repo.ClearCart(ctx, cart.ID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	util.CartMutationsTotal.WithLabelValues("clear").Inc()
	return nil
}

func (s *CartService) mutateLine(
	ctx context.Context,
	customerID, productID int64,
	mutate func(tx repository.Repository, line *models.CartLine) error,
) (*models.CartView, error) {
	cart, err := s.ensureCart(ctx, customerID)
	if err != nil {
		return nil, err
	}

	var view *models.CartView
	err = s.repo.WithinTx(ctx, func(tx repository.Repository) error {
		line, err := tx.GetCartLine(ctx, cart.ID, productID)
		if err != nil {
			return notFoundOr(err, "cart line for product", productID, "get cart line")
		}
		if err := mutate(tx, line); err != nil {
			return notFoundOr(err, "cart line for product", productID, "update cart line")
		}
		view, err = buildCartView(ctx, tx, cart)
		return err
	})
	return view, err
}

// ensureCart returns the customer's cart, creating it if needed. A lost
// creation race falls back to reading the winner's cart.
func (s *CartService) ensureCart(ctx context.Context, customerID int64) (*models.Cart, error) {
	cart, err := s.repo.GetCartByCustomer(ctx, customerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	cart = &models.Cart{CustomerID: customerID}
	if err := s.repo.CreateCart(ctx, cart); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			if cart, err = s.repo.GetCartByCustomer(ctx, customerID); err == nil {
				return cart, nil
			}
		}
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	s.logger.Debug("Cart created", zap.Int64("customer_id", customerID), zap.Int64("cart_id", cart.ID))
	return cart, nil
}

func buildCartView(ctx context.Context, repo repository.Repository, cart *models.Cart) (*models.CartView, error) {
	lines, err := repo.ListCartLines(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}

	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	products, err := repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	view := &models.CartView{
		CartID:     cart.ID,
		CustomerID: cart.CustomerID,
		Items:      make([]models.CartItemView, 0, len(lines)),
		Total:      decimal.Zero,
	}
	for _, l := range lines {
		p := byID[l.ProductID]
		view.Items = append(view.Items, models.CartItemView{
			CartLine:    l,
			ProductName: p.Name,
			ImageURL:    p.ImageURL,
		})
		view.ItemCount += l.Quantity
		view.Total = view.Total.Add(l.Subtotal)
	}
	return view, nil
}

func lineSubtotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}
