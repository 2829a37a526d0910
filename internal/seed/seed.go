// Package seed loads a demo shopper and catalog into an empty database.
package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	product "github.com/angelmondragon/storefront/internal/products"
	"github.com/angelmondragon/storefront/internal/users"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const (
	DemoEmail    = "demo@storefront.local"
	DemoPassword = "storefront-demo"
)

var demoCatalog = []product.CreateInput{
	{Name: "Ceramic Mug", Photo: "/images/mug.jpg", Price: decimal.RequireFromString("20"), Stock: 25},
	{Name: "Desk Lamp", Photo: "/images/lamp.jpg", Price: decimal.RequireFromString("1250"), DiscountPercent: 10, Stock: 5},
	{Name: "Notebook", Photo: "/images/notebook.jpg", Price: decimal.RequireFromString("7.50"), Stock: 100},
	{Name: "Wool Throw", Price: decimal.RequireFromString("89.99"), DiscountPercent: 25, Stock: 3},
	{Name: "Espresso Cups (set of 2)", Price: decimal.RequireFromString("34"), Stock: 0},
}

// MaybeRunDemo seeds demo data when the flag is on and the catalog is empty.
func MaybeRunDemo(ctx context.Context, cfg *config.Config, logg *logger.Logger, usersSvc *users.Service, productsSvc *product.Service) error {
	if !cfg.FeatureFlags.SeedDemo {
		return nil
	}
	return Run(ctx, logg, usersSvc, productsSvc)
}

// Run inserts the demo shopper and catalog. It is a no-op on a non-empty catalog.
func Run(ctx context.Context, logg *logger.Logger, usersSvc *users.Service, productsSvc *product.Service) error {
	empty, err := productsSvc.Empty(ctx)
	if err != nil {
		return fmt.Errorf("checking catalog: %w", err)
	}
	if !empty {
		logg.Debug(ctx, "demo seed skipped; catalog not empty")
		return nil
	}

	if _, err := usersSvc.Register(ctx, DemoEmail, "Demo Shopper", DemoPassword); err != nil && !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		return fmt.Errorf("seeding demo user: %w", err)
	}

	for _, input := range demoCatalog {
		if _, err := productsSvc.Create(ctx, input); err != nil {
			return fmt.Errorf("seeding product %q: %w", input.Name, err)
		}
	}

	logg.Info(logg.WithFields(ctx, map[string]any{"email": DemoEmail, "products": len(demoCatalog)}), "demo data seeded")
	return nil
}
