// Package cartstore owns the storefront's view of the shopping cart for the
// lifetime of a session. Every mutation is a single round trip to the cart
// API; local state is only ever replaced with the server's response.
package cartstore

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/storefront/pkg/events"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/money"
	"github.com/angelmondragon/storefront/pkg/types"
)

// EmptyFormattedTotal is displayed when there is no cart to show.
const EmptyFormattedTotal = "$ 0"

var errStoreClosed = errors.New("cart store closed")

// CartAPI is the cart REST surface the store depends on.
type CartAPI interface {
	GetCart(ctx context.Context) (*types.CartResponse, error)
	AddToCart(ctx context.Context, productID int64, quantity int) (*types.CartResponse, error)
	UpdateCartItem(ctx context.Context, cartItemID int64, quantity int) (*types.CartResponse, error)
	RemoveCartItem(ctx context.Context, cartItemID int64) (*types.CartResponse, error)
	ClearCart(ctx context.Context) (*types.CartResponse, error)
}

// Notifier surfaces transient messages to the user.
type Notifier interface {
	Success(ctx context.Context, text string)
	Error(ctx context.Context, text string)
}

// Snapshot is a read-only copy of the store state.
type Snapshot struct {
	Cart           *types.Cart
	Loading        bool
	ItemsCount     int
	Total          money.Amount
	FormattedTotal string
}

// Option configures a Store.
type Option func(*Store)

// WithStaleResponseGuard numbers every call and drops responses that are
// older than one already applied. Without it the last response to arrive wins.
func WithStaleResponseGuard() Option {
	return func(s *Store) {
		s.guardStale = true
	}
}

// WithMetrics records call outcomes.
func WithMetrics(m *metrics.CartMetrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// Store holds the current cart snapshot and exposes the cart mutators.
type Store struct {
	api        CartAPI
	bus        *events.Bus
	notifier   Notifier
	logg       *logger.Logger
	metrics    *metrics.CartMetrics
	guardStale bool

	mu       sync.Mutex
	resp     *types.CartResponse
	loading  bool
	inflight int
	issued   uint64
	applied  uint64

	subs    map[uint64]func(Snapshot)
	nextSub uint64

	busUnsub func()
	started  bool
	closed   bool
}

// New builds a store. bus and notifier may be nil.
func New(api CartAPI, bus *events.Bus, notifier Notifier, logg *logger.Logger, opts ...Option) (*Store, error) {
	if api == nil {
		return nil, errors.New("cart api required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Store{
		api:      api,
		bus:      bus,
		notifier: notifier,
		logg:     logg,
		subs:     make(map[uint64]func(Snapshot)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Start fetches the cart, listens for authentication flips and announces
// itself on the auth-state topic.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errStoreClosed
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	if s.bus != nil {
		s.busUnsub = s.bus.Subscribe(events.TopicAuthenticationChanged, func(ctx context.Context, _ any) {
			s.RefreshCart(ctx)
		})
	}
	s.mu.Unlock()

	s.RefreshCart(ctx)
	s.bus.Publish(ctx, events.TopicAuthStateChanged, nil)
	return nil
}

// Close detaches every subscriber and emits the auth-state signal once more.
func (s *Store) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsub := s.busUnsub
	s.busUnsub = nil
	s.subs = make(map[uint64]func(Snapshot))
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	s.bus.Publish(ctx, events.TopicAuthStateChanged, nil)
}

// Subscribe calls fn with a fresh snapshot after every state change.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Cart() *types.Cart {
	return s.Snapshot().Cart
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) ItemsCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resp == nil {
		return 0
	}
	return s.resp.ItemsCount
}

func (s *Store) Total() money.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resp == nil {
		return money.Amount{}
	}
	return s.resp.Total
}

func (s *Store) FormattedTotal() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resp == nil {
		return EmptyFormattedTotal
	}
	return s.resp.FormattedTotal
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Loading:        s.loading,
		FormattedTotal: EmptyFormattedTotal,
	}
	if s.resp == nil {
		return snap
	}
	clone := s.resp.Clone()
	snap.Cart = clone.Cart
	snap.ItemsCount = clone.ItemsCount
	snap.Total = clone.Total
	snap.FormattedTotal = clone.FormattedTotal
	return snap
}

func (s *Store) broadcast(snap Snapshot) {
	s.mu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
