package cart

import (
	"github.com/shopspring/decimal"

	product "github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/money"
	"github.com/angelmondragon/storefront/pkg/types"
)

// emptyResponse is returned for users that never stored a cart.
func emptyResponse() *types.CartResponse {
	return &types.CartResponse{
		Cart:           nil,
		ItemsCount:     0,
		Total:          money.NewAmount(decimal.Zero),
		FormattedTotal: money.Format(decimal.Zero),
	}
}

// buildResponse renders the wire view of a stored cart and its totals.
func buildResponse(cart *models.Cart) *types.CartResponse {
	if cart == nil {
		return emptyResponse()
	}

	items := make([]types.CartItem, 0, len(cart.Items))
	total := decimal.Zero
	count := 0
	for i := range cart.Items {
		line := &cart.Items[i]
		final := product.FinalPrice(&line.Product)
		total = total.Add(final.Mul(decimal.NewFromInt(int64(line.Quantity))))
		count += line.Quantity
		items = append(items, types.CartItem{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Product:   product.ToSnapshot(&line.Product),
		})
	}

	return &types.CartResponse{
		Cart: &types.Cart{
			ID:     cart.ID,
			UserID: cart.UserID,
			Items:  items,
		},
		ItemsCount:     count,
		Total:          money.NewAmount(total),
		FormattedTotal: money.Format(total),
	}
}
