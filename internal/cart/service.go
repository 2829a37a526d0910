package cart

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

const cartItemProductIndex = "idx_cart_items_cart_product"

// Service exposes the server-side cart operations. Every method returns the
// full cart representation after the change.
type Service interface {
	Get(ctx context.Context, userID int64) (*types.CartResponse, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*types.CartResponse, error)
	UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*types.CartResponse, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (*types.CartResponse, error)
	Clear(ctx context.Context, userID int64) (*types.CartResponse, error)
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
}

// NewService builds a cart service backed by the provided repositories.
func NewService(repo CartRepository, tx txRunner, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

func (s *service) Get(ctx context.Context, userID int64) (*types.CartResponse, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptyResponse(), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return buildResponse(cart), nil
}

func (s *service) AddItem(ctx context.Context, userID, productID int64, quantity int) (*types.CartResponse, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if productID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id must be greater than 0")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	prod, err := s.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	cart, err := s.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.addLine(ctx, cart.ID, prod, quantity)
	if db.IsUniqueViolation(err, cartItemProductIndex) {
		// a concurrent add created the line after our read; the retry increments it
		err = s.addLine(ctx, cart.ID, prod, quantity)
	}
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*types.CartResponse, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart item not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		item, err := txRepo.FindItem(ctx, cart.ID, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Cart item not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}
		if !item.Product.IsActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Product is not available")
		}
		if err := checkStock(&item.Product, quantity); err != nil {
			return err
		}
		if err := txRepo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID int64) (*types.CartResponse, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptyResponse(), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID int64) (*types.CartResponse, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	cart, err := s.ensureCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItems(ctx, cart.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return s.Get(ctx, userID)
}

// addLine increments the cart's line for prod or creates it. A create that
// loses a race keeps the unique violation in its error chain so the caller
// can retry in a fresh transaction.
func (s *service) addLine(ctx context.Context, cartID int64, prod *models.Product, quantity int) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		existing, err := txRepo.FindItemByProduct(ctx, cartID, prod.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
		}

		requested := quantity
		if existing != nil {
			requested += existing.Quantity
		}
		if err := checkStock(prod, requested); err != nil {
			return err
		}

		if existing != nil {
			if err := txRepo.UpdateItemQuantity(ctx, existing.ID, requested); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
			}
			return nil
		}
		if err := txRepo.CreateItem(ctx, &models.CartItem{CartID: cartID, ProductID: prod.ID, Quantity: quantity}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart item")
		}
		return nil
	})
}

// ensureCart returns the user's cart, creating it on first use. A concurrent
// create surfaces as a unique violation and is resolved by re-reading.
func (s *service) ensureCart(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	created, err := s.repo.Create(ctx, &models.Cart{UserID: userID})
	if err == nil {
		return created, nil
	}
	if !db.IsUniqueViolation(err, "") {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	cart, err = s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
	}
	return cart, nil
}

func (s *service) loadProduct(ctx context.Context, productID int64) (*models.Product, error) {
	prod, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !prod.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Product is not available")
	}
	return prod, nil
}

func checkStock(prod *models.Product, requested int) error {
	if requested > prod.Stock {
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("Insufficient stock. Only %d available", prod.Stock)).
			WithDetails(map[string]any{"product_id": prod.ID, "available": prod.Stock, "requested": requested})
	}
	return nil
}

func requireUser(userID int64) error {
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}
