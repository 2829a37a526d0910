package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	cartsvc "github.com/angelmondragon/storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

const cartItemParam = "itemId"

// CartFetch returns the caller's cart.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := cartCaller(w, r, svc, logg)
		if !ok {
			return
		}
		writeCart(w, r, logg)(svc.Get(r.Context(), userID))
	}
}

// CartAddItem adds a product line or increments the existing one.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := cartCaller(w, r, svc, logg)
		if !ok {
			return
		}

		var body types.AddCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, logg)(svc.AddItem(r.Context(), userID, body.ProductID, body.Quantity))
	}
}

// CartUpdateItem sets the quantity of one line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := cartCaller(w, r, svc, logg)
		if !ok {
			return
		}

		itemID, err := validators.PathID(r, cartItemParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body types.UpdateCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, logg)(svc.UpdateItem(r.Context(), userID, itemID, body.Quantity))
	}
}

// CartRemoveItem deletes one line.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := cartCaller(w, r, svc, logg)
		if !ok {
			return
		}

		itemID, err := validators.PathID(r, cartItemParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, logg)(svc.RemoveItem(r.Context(), userID, itemID))
	}
}

// CartClear removes every line.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := cartCaller(w, r, svc, logg)
		if !ok {
			return
		}
		writeCart(w, r, logg)(svc.Clear(r.Context(), userID))
	}
}

func cartCaller(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) (int64, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return 0, false
	}
	userID := middleware.UserIDFromContext(r.Context())
	if userID == 0 {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return 0, false
	}
	return userID, true
}

func writeCart(w http.ResponseWriter, r *http.Request, logg *logger.Logger) func(*types.CartResponse, error) {
	return func(resp *types.CartResponse, err error) {
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
