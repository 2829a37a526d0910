package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront/internal/cartstore"
	"github.com/angelmondragon/storefront/pkg/events"
	"github.com/angelmondragon/storefront/pkg/money"
	"github.com/angelmondragon/storefront/pkg/types"
)

type fakeAPI struct {
	loginErr error
	logins   int
	logouts  int
}

func (f *fakeAPI) Login(_ context.Context, email, _ string) (*types.SessionInfo, error) {
	f.logins++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &types.SessionInfo{Authenticated: true, Email: email}, nil
}

func (f *fakeAPI) Logout(context.Context) error {
	f.logouts++
	return nil
}

func (f *fakeAPI) ListProducts(context.Context) ([]types.Product, error) {
	return []types.Product{{ID: 1, Name: "Mug", FormattedFinalPrice: "$20", Stock: 4}, {ID: 2, Name: "Lamp", DiscountPercent: 10, FormattedFinalPrice: "$1,125", Stock: 1}}, nil
}

type fakeStore struct {
	calls []string
	snap  cartstore.Snapshot
}

func (f *fakeStore) record(call string) bool {
	f.calls = append(f.calls, call)
	return true
}

func (f *fakeStore) RefreshCart(context.Context) bool {
	return f.record("refresh")
}

func (f *fakeStore) AddItem(_ context.Context, id int64, qty int) bool {
	return f.record(fmt.Sprintf("add %d %d", id, qty))
}

func (f *fakeStore) UpdateItem(_ context.Context, id int64, qty int) bool {
	return f.record(fmt.Sprintf("update %d %d", id, qty))
}

func (f *fakeStore) RemoveItem(_ context.Context, id int64) bool {
	return f.record(fmt.Sprintf("remove %d", id))
}

func (f *fakeStore) EmptyCart(context.Context) bool {
	return f.record("clear")
}

func (f *fakeStore) Snapshot() cartstore.Snapshot {
	return f.snap
}

func newShell() (*shell, *fakeAPI, *fakeStore, *bytes.Buffer, *int) {
	api := &fakeAPI{}
	store := &fakeStore{}
	out := &bytes.Buffer{}
	bus := events.NewBus()
	signals := 0
	bus.Subscribe(events.TopicAuthStateChanged, func(context.Context, any) { signals++ })
	return &shell{api: api, store: store, bus: bus, out: out}, api, store, out, &signals
}

func TestShellDispatchesCartCommands(t *testing.T) {
	sh, _, store, _, _ := newShell()
	ctx := context.Background()

	for _, line := range []string{"add 7", "add 3 2", "update 5 4", "remove 5", "clear", "refresh", "", "   "} {
		if sh.execute(ctx, line) {
			t.Fatalf("%q should not quit", line)
		}
	}
	want := []string{"add 7 1", "add 3 2", "update 5 4", "remove 5", "clear", "refresh"}
	if strings.Join(store.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected calls %v", store.calls)
	}
}

func TestShellUpdateZeroReachesStore(t *testing.T) {
	sh, _, store, _, _ := newShell()
	sh.execute(context.Background(), "update 5 0")
	if len(store.calls) != 1 || store.calls[0] != "update 5 0" {
		t.Fatalf("expected the store to decide on quantity 0, got %v", store.calls)
	}
}

func TestShellRejectsBadArguments(t *testing.T) {
	sh, _, store, out, _ := newShell()
	ctx := context.Background()

	for _, line := range []string{"add", "add x", "add -1", "update 1", "remove", "login only-email"} {
		sh.execute(ctx, line)
	}
	if len(store.calls) != 0 {
		t.Fatalf("expected no store calls, got %v", store.calls)
	}
	if !strings.Contains(out.String(), "usage: add <product_id> [qty]") || !strings.Contains(out.String(), `invalid id "x"`) {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestShellLoginPublishesAuthSignal(t *testing.T) {
	sh, api, _, out, signals := newShell()
	ctx := context.Background()

	sh.execute(ctx, "login shopper@example.com secret")
	if api.logins != 1 || *signals != 1 {
		t.Fatalf("expected one login and one signal, got %d/%d", api.logins, *signals)
	}
	if !strings.Contains(out.String(), "signed in as shopper@example.com") {
		t.Fatalf("unexpected output %q", out.String())
	}

	sh.execute(ctx, "logout")
	if api.logouts != 1 || *signals != 2 {
		t.Fatalf("expected logout signal, got %d/%d", api.logouts, *signals)
	}

	api.loginErr = errors.New("bad credentials")
	sh.execute(ctx, "login shopper@example.com nope")
	if *signals != 2 {
		t.Fatalf("failed login must not signal")
	}
}

func TestShellQuitAndUnknown(t *testing.T) {
	sh, _, _, out, _ := newShell()
	if !sh.execute(context.Background(), "QUIT") {
		t.Fatal("expected quit")
	}
	sh.execute(context.Background(), "dance")
	if !strings.Contains(out.String(), `unknown command "dance"`) {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestShellShowAndProducts(t *testing.T) {
	sh, _, store, out, _ := newShell()
	ctx := context.Background()

	store.snap = cartstore.Snapshot{FormattedTotal: "$ 0"}
	sh.execute(ctx, "show")
	if !strings.Contains(out.String(), "cart is empty (total $ 0)") {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	store.snap = cartstore.Snapshot{
		Cart:           &types.Cart{Items: []types.CartItem{{ID: 9, Quantity: 2, Product: types.ProductSnapshot{Name: "Mug", FormattedFinalPrice: "$20"}}}},
		ItemsCount:     2,
		Total:          money.MustParse("40"),
		FormattedTotal: "$40",
	}
	sh.execute(ctx, "show")
	if !strings.Contains(out.String(), "Mug") || !strings.Contains(out.String(), "2 items, total $40") {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	sh.execute(ctx, "products")
	if !strings.Contains(out.String(), "$1,125 (-10%)") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestBadge(t *testing.T) {
	if got := badge(cartstore.Snapshot{Loading: true}); got != "[cart] updating..." {
		t.Fatalf("unexpected badge %q", got)
	}
	if got := badge(cartstore.Snapshot{ItemsCount: 2, FormattedTotal: "$40"}); got != "[cart] 2 items | $40" {
		t.Fatalf("unexpected badge %q", got)
	}
}
