package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/angelmondragon/storefront/internal/cartstore"
	"github.com/angelmondragon/storefront/pkg/events"
	"github.com/angelmondragon/storefront/pkg/types"
)

type storefrontAPI interface {
	Login(ctx context.Context, email, password string) (*types.SessionInfo, error)
	Logout(ctx context.Context) error
	ListProducts(ctx context.Context) ([]types.Product, error)
}

type cartStore interface {
	RefreshCart(ctx context.Context) bool
	AddItem(ctx context.Context, productID int64, quantity int) bool
	UpdateItem(ctx context.Context, cartItemID int64, quantity int) bool
	RemoveItem(ctx context.Context, cartItemID int64) bool
	EmptyCart(ctx context.Context) bool
	Snapshot() cartstore.Snapshot
}

const helpText = `commands:
  login <email> <password>   open a session
  logout                     close the session
  products                   list the catalog
  show                       print the cart
  add <product_id> [qty]     add a product (qty defaults to 1)
  update <item_id> <qty>     set a line quantity
  remove <item_id>           remove a line
  clear                      empty the cart
  refresh                    reload the cart
  quit                       exit`

type shell struct {
	api   storefrontAPI
	store cartStore
	bus   *events.Bus
	out   io.Writer
}

// execute runs one command line and reports whether the shell should exit.
func (s *shell) execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
	case "login":
		if len(args) != 2 {
			s.usage("login <email> <password>")
			return false
		}
		info, err := s.api.Login(ctx, args[0], args[1])
		if err != nil {
			fmt.Fprintln(s.out, "login failed:", err)
			return false
		}
		fmt.Fprintf(s.out, "signed in as %s\n", info.Email)
		s.bus.Publish(ctx, events.TopicAuthStateChanged, nil)
	case "logout":
		if err := s.api.Logout(ctx); err != nil {
			fmt.Fprintln(s.out, "logout failed:", err)
			return false
		}
		fmt.Fprintln(s.out, "signed out")
		s.bus.Publish(ctx, events.TopicAuthStateChanged, nil)
	case "products":
		s.products(ctx)
	case "show":
		s.show()
	case "add":
		if len(args) < 1 || len(args) > 2 {
			s.usage("add <product_id> [qty]")
			return false
		}
		id, ok := s.parseID(args[0])
		if !ok {
			return false
		}
		qty := 1
		if len(args) == 2 {
			if qty, ok = s.parseInt(args[1]); !ok {
				return false
			}
		}
		s.store.AddItem(ctx, id, qty)
	case "update":
		if len(args) != 2 {
			s.usage("update <item_id> <qty>")
			return false
		}
		id, ok := s.parseID(args[0])
		if !ok {
			return false
		}
		qty, ok := s.parseInt(args[1])
		if !ok {
			return false
		}
		s.store.UpdateItem(ctx, id, qty)
	case "remove":
		if len(args) != 1 {
			s.usage("remove <item_id>")
			return false
		}
		if id, ok := s.parseID(args[0]); ok {
			s.store.RemoveItem(ctx, id)
		}
	case "clear":
		s.store.EmptyCart(ctx)
	case "refresh":
		s.store.RefreshCart(ctx)
	default:
		fmt.Fprintf(s.out, "unknown command %q (try help)\n", cmd)
	}
	return false
}

func (s *shell) products(ctx context.Context) {
	list, err := s.api.ListProducts(ctx)
	if err != nil {
		fmt.Fprintln(s.out, "could not load products:", err)
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK")
	for _, p := range list {
		price := p.FormattedFinalPrice
		if p.DiscountPercent > 0 {
			price = fmt.Sprintf("%s (-%d%%)", price, p.DiscountPercent)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", p.ID, p.Name, price, p.Stock)
	}
	_ = tw.Flush()
}

func (s *shell) show() {
	snap := s.store.Snapshot()
	if snap.Cart == nil || len(snap.Cart.Items) == 0 {
		fmt.Fprintf(s.out, "cart is empty (total %s)\n", snap.FormattedTotal)
		return
	}
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tPRODUCT\tQTY\tPRICE")
	for _, item := range snap.Cart.Items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", item.ID, item.Product.Name, item.Quantity, item.Product.FormattedFinalPrice)
	}
	_ = tw.Flush()
	fmt.Fprintf(s.out, "%d items, total %s\n", snap.ItemsCount, snap.FormattedTotal)
}

func (s *shell) usage(text string) {
	fmt.Fprintln(s.out, "usage:", text)
}

func (s *shell) parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(s.out, "invalid id %q\n", raw)
		return 0, false
	}
	return id, true
}

func (s *shell) parseInt(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Fprintf(s.out, "invalid number %q\n", raw)
		return 0, false
	}
	return n, true
}

// badge renders the one-line cart summary printed after each state change.
func badge(snap cartstore.Snapshot) string {
	if snap.Loading {
		return "[cart] updating..."
	}
	return fmt.Sprintf("[cart] %d items | %s", snap.ItemsCount, snap.FormattedTotal)
}
