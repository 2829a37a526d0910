package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/pkg/db/dbtest"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/money"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t).DB()))
	require.NoError(t, err)
	return svc
}

func TestFinalPriceAppliesDiscount(t *testing.T) {
	cases := []struct {
		price    string
		discount int
		want     string
	}{
		{"20", 0, "20"},
		{"50", 10, "45"},
		{"19.99", 15, "16.99"},
		{"10", 100, "0"},
	}
	for _, tc := range cases {
		got := FinalPrice(&models.Product{Price: decimal.RequireFromString(tc.price), DiscountPercent: tc.discount})
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "%s at %d%%: got %s", tc.price, tc.discount, got)
	}
}

func TestCreateAndListActive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	empty, err := svc.Empty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	lamp, err := svc.Create(ctx, CreateInput{Name: " Desk Lamp ", Price: decimal.RequireFromString("1250"), DiscountPercent: 10, Stock: 4, Photo: "lamp.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", lamp.Name)
	assert.Equal(t, "$1,125", lamp.FormattedFinalPrice)
	assert.Equal(t, "lamp.jpg", lamp.Photo)

	_, err = svc.Create(ctx, CreateInput{Name: "Retired", Price: decimal.RequireFromString("5"), Stock: 1, Inactive: true})
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, lamp.ID, list[0].ID)
	assert.True(t, list[0].Price.Equal(money.MustParse("1250")))
}

func TestCreateValidates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, input := range []CreateInput{
		{Name: "", Price: decimal.NewFromInt(1)},
		{Name: "x", Price: decimal.NewFromInt(-1)},
		{Name: "x", Price: decimal.NewFromInt(1), DiscountPercent: 101},
		{Name: "x", Price: decimal.NewFromInt(1), Stock: -1},
	} {
		_, err := svc.Create(ctx, input)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "input %+v: %v", input, err)
	}
}

func TestGetHidesInactiveAndMissing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	retired, err := svc.Create(ctx, CreateInput{Name: "Retired", Price: decimal.NewFromInt(5), Inactive: true})
	require.NoError(t, err)

	for _, id := range []int64{retired.ID, 9999} {
		_, err := svc.Get(ctx, id)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
	}
}
