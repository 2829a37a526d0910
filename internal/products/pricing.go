package product

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/money"
	"github.com/angelmondragon/storefront/pkg/types"
)

// FinalPrice is the unit price after the product's percentage discount.
func FinalPrice(p *models.Product) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return money.Discounted(p.Price, p.DiscountPercent)
}

// ToListing renders the storefront view of a product.
func ToListing(p *models.Product) types.Product {
	final := FinalPrice(p)
	out := types.Product{
		ID:                  p.ID,
		Name:                p.Name,
		Price:               money.NewAmount(p.Price),
		DiscountPercent:     p.DiscountPercent,
		FinalPrice:          money.NewAmount(final),
		FormattedFinalPrice: money.Format(final),
		Stock:               p.Stock,
	}
	if p.Photo != nil {
		out.Photo = *p.Photo
	}
	return out
}

// ToSnapshot renders the product fields denormalized onto a cart line.
func ToSnapshot(p *models.Product) types.ProductSnapshot {
	final := FinalPrice(p)
	out := types.ProductSnapshot{
		ID:                  p.ID,
		Name:                p.Name,
		FinalPrice:          money.NewAmount(final),
		FormattedFinalPrice: money.Format(final),
	}
	if p.Photo != nil {
		out.Photo = *p.Photo
	}
	return out
}
