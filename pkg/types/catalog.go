package types

import "github.com/angelmondragon/storefront/pkg/money"

// Product is the storefront listing view of a catalog entry.
type Product struct {
	ID                  int64        `json:"id"`
	Name                string       `json:"name"`
	Photo               string       `json:"photo,omitempty"`
	Price               money.Amount `json:"price"`
	DiscountPercent     int          `json:"discount_percent"`
	FinalPrice          money.Amount `json:"final_price"`
	FormattedFinalPrice string       `json:"formatted_final_price"`
	Stock               int          `json:"stock"`
}

// LoginRequest is the body of POST /auth/session.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionInfo describes the caller's authentication state.
type SessionInfo struct {
	Authenticated bool   `json:"authenticated"`
	UserID        int64  `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
}
