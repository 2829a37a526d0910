package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

// Service exposes catalog reads and the seed-time create path.
type Service struct {
	repo *Repository
}

func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &Service{repo: repo}, nil
}

// CreateInput describes a new catalog product.
type CreateInput struct {
	Name            string
	Photo           string
	Price           decimal.Decimal
	DiscountPercent int
	Stock           int
	Inactive        bool
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*types.Product, error) {
	name := strings.TrimSpace(input.Name)
	switch {
	case name == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case input.Price.IsNegative():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	case input.DiscountPercent < 0 || input.DiscountPercent > 100:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_percent must be between 0 and 100")
	case input.Stock < 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}

	model := &models.Product{
		Name:            name,
		Price:           input.Price.Round(2),
		DiscountPercent: input.DiscountPercent,
		Stock:           input.Stock,
		IsActive:        !input.Inactive,
	}
	if photo := strings.TrimSpace(input.Photo); photo != "" {
		model.Photo = &photo
	}

	created, err := s.repo.Create(ctx, model)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	listing := ToListing(created)
	return &listing, nil
}

// List returns every active product.
func (s *Service) List(ctx context.Context) ([]types.Product, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	out := make([]types.Product, 0, len(rows))
	for i := range rows {
		out = append(out, ToListing(&rows[i]))
	}
	return out, nil
}

// Get returns an active product or a not-found error.
func (s *Service) Get(ctx context.Context, id int64) (*types.Product, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !row.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	listing := ToListing(row)
	return &listing, nil
}

// Empty reports whether the catalog has no products yet.
func (s *Service) Empty(ctx context.Context) (bool, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}
