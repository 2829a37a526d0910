package cartstore

import (
	"context"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/types"
)

type action struct {
	name     string
	success  string
	fallback string
	// resetOnFailure drops the cart instead of keeping the prior snapshot.
	resetOnFailure bool
	// quietUnauthorized suppresses the error notification for missing sessions.
	quietUnauthorized bool
}

var (
	actionFetch = action{
		name:              "fetch",
		fallback:          "Failed to load cart",
		resetOnFailure:    true,
		quietUnauthorized: true,
	}
	actionAdd = action{
		name:     "add",
		success:  "Added to cart",
		fallback: "Failed to add item to cart",
	}
	actionUpdate = action{
		name:     "update",
		fallback: "Failed to update cart",
	}
	actionRemove = action{
		name:     "remove",
		success:  "Item removed from cart",
		fallback: "Failed to remove item from cart",
	}
	actionClear = action{
		name:     "clear",
		success:  "Cart cleared",
		fallback: "Failed to clear cart",
	}
)

// RefreshCart re-fetches the cart. On failure the cart is reset to empty
// rather than left stale.
func (s *Store) RefreshCart(ctx context.Context) bool {
	return s.run(ctx, actionFetch, func(ctx context.Context) (*types.CartResponse, error) {
		return s.api.GetCart(ctx)
	})
}

// AddItem adds quantity units of productID. A zero quantity adds one.
func (s *Store) AddItem(ctx context.Context, productID int64, quantity int) bool {
	return s.run(ctx, actionAdd, func(ctx context.Context) (*types.CartResponse, error) {
		return s.api.AddToCart(ctx, productID, quantity)
	})
}

// UpdateItem sets a line's quantity. Quantities below one never reach the API.
func (s *Store) UpdateItem(ctx context.Context, cartItemID int64, quantity int) bool {
	if quantity < 1 {
		ctx = s.logg.WithFields(s.logg.WithAction(ctx, "cart."+actionUpdate.name), map[string]any{
			"cart_item_id": cartItemID,
			"quantity":     quantity,
		})
		s.logg.Warn(ctx, "cart.update.rejected_quantity")
		s.metrics.Observe(actionUpdate.name, metrics.OutcomeSkipped, 0)
		return false
	}
	return s.run(ctx, actionUpdate, func(ctx context.Context) (*types.CartResponse, error) {
		return s.api.UpdateCartItem(ctx, cartItemID, quantity)
	})
}

// RemoveItem deletes a cart line.
func (s *Store) RemoveItem(ctx context.Context, cartItemID int64) bool {
	return s.run(ctx, actionRemove, func(ctx context.Context) (*types.CartResponse, error) {
		return s.api.RemoveCartItem(ctx, cartItemID)
	})
}

// EmptyCart clears every line.
func (s *Store) EmptyCart(ctx context.Context) bool {
	return s.run(ctx, actionClear, func(ctx context.Context) (*types.CartResponse, error) {
		return s.api.ClearCart(ctx)
	})
}

// run performs one API call and folds its result into the state. It never
// returns the error; failures are logged and turned into notifications.
func (s *Store) run(ctx context.Context, act action, call func(context.Context) (*types.CartResponse, error)) bool {
	ctx = s.logg.WithAction(ctx, "cart."+act.name)

	seq := s.begin()
	start := time.Now()
	resp, err := call(ctx)
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.Observe(act.name, metrics.OutcomeFailure, elapsed)
		s.fail(ctx, act, seq, err)
		return false
	}

	s.metrics.Observe(act.name, metrics.OutcomeSuccess, elapsed)
	s.succeed(ctx, seq, resp)
	if act.success != "" && s.notifier != nil {
		s.notifier.Success(ctx, act.success)
	}
	return true
}

func (s *Store) begin() uint64 {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.inflight++
	s.loading = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.broadcast(snap)
	return seq
}

// end must be called with s.mu held.
func (s *Store) end() {
	s.inflight--
	if s.guardStale {
		s.loading = s.inflight > 0
		return
	}
	s.loading = false
}

func (s *Store) succeed(ctx context.Context, seq uint64, resp *types.CartResponse) {
	s.mu.Lock()
	stale := s.guardStale && seq < s.applied
	if !stale {
		s.applied = seq
		s.resp = resp.Clone()
	}
	s.end()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if stale {
		s.metrics.IncStale()
		s.logg.Debug(s.logg.WithField(ctx, "seq", seq), "cart.response.stale_discarded")
	}
	s.broadcast(snap)
}

func (s *Store) fail(ctx context.Context, act action, seq uint64, err error) {
	s.mu.Lock()
	if act.resetOnFailure && !(s.guardStale && seq < s.applied) {
		s.applied = seq
		s.resp = nil
	}
	s.end()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.broadcast(snap)

	unauthorized := pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized)
	if unauthorized && act.quietUnauthorized {
		s.logg.Info(ctx, "cart."+act.name+".unauthenticated")
		return
	}

	dump := pkgerrors.Dump(err)
	s.logg.Error(s.logg.WithFields(ctx, map[string]any{
		"error_code":  dump.Code,
		"error_chain": dump.Chain,
	}), "cart."+act.name+".failed", err)

	if s.notifier != nil {
		s.notifier.Error(ctx, userMessage(err, act.fallback))
	}
}

// userMessage passes business rejections through verbatim and falls back to
// a per-action message for everything else.
func userMessage(err error, fallback string) string {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Message() == "" {
		return fallback
	}
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeConflict,
		pkgerrors.CodeStateConflict:
		return typed.Message()
	}
	return fallback
}
