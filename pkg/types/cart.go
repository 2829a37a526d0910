package types

import "github.com/angelmondragon/storefront/pkg/money"

// CartResponse is the envelope returned by every cart endpoint. Totals are
// computed and formatted by the server; clients display them as-is.
type CartResponse struct {
	Cart           *Cart        `json:"cart"`
	ItemsCount     int          `json:"items_count"`
	Total          money.Amount `json:"total"`
	FormattedTotal string       `json:"formatted_total"`
}

// Cart is the server-owned aggregate tied to the authenticated session.
type Cart struct {
	ID     int64      `json:"id"`
	UserID int64      `json:"user_id"`
	Items  []CartItem `json:"items"`
}

// CartItem is one product line of a cart.
type CartItem struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   ProductSnapshot `json:"product"`
}

// ProductSnapshot carries the product display data denormalized onto a cart line.
type ProductSnapshot struct {
	ID                  int64        `json:"id"`
	Name                string       `json:"name"`
	Photo               string       `json:"photo,omitempty"`
	FinalPrice          money.Amount `json:"final_price"`
	FormattedFinalPrice string       `json:"formatted_final_price"`
}

// AddCartItemRequest is the body of POST /cart/items.
type AddCartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"gt=0"`
	Quantity  int   `json:"quantity" validate:"min=1"`
}

// UpdateCartItemRequest is the body of PUT /cart/items/{id}.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=1"`
}

// Clone returns a deep copy so callers cannot alias another holder's items.
func (r *CartResponse) Clone() *CartResponse {
	if r == nil {
		return nil
	}
	out := *r
	if r.Cart != nil {
		cart := *r.Cart
		if r.Cart.Items != nil {
			cart.Items = make([]CartItem, len(r.Cart.Items))
			copy(cart.Items, r.Cart.Items)
		}
		out.Cart = &cart
	}
	return &out
}
