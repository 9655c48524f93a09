package production_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/candleworks/generic"
	"github.com/warp/candleworks/generic/store"
	"github.com/warp/candleworks/inventory"
	"github.com/warp/candleworks/production"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestCoordinator(t *testing.T) (*production.Coordinator, *inventory.Ledger, *inventory.Catalog) {
	t.Helper()
	s := store.NewMemory()
	stock := inventory.NewLedger(s, nil)
	catalog := inventory.NewCatalog(s, stock, nil)
	clock := fixedClock{t: time.Date(2025, time.May, 2, 8, 0, 0, 0, time.UTC)}
	return production.NewCoordinator(s, stock, clock, nil), stock, catalog
}

func addProduct(t *testing.T, catalog *inventory.Catalog, code string) generic.Product {
	t.Helper()
	p, err := catalog.Add(context.Background(), inventory.ProductInput{Code: code, Material: generic.MaterialBrown, Price: dec("2")})
	require.NoError(t, err)
	return p
}

func requireStock(t *testing.T, stock *inventory.Ledger, productID, want string) {
	t.Helper()
	q, err := stock.QuantityFor(context.Background(), productID)
	require.NoError(t, err)
	assert.True(t, q.Equal(dec(want)), "stock: want %s, got %s", want, q)
}

// =============================================================================
// MUTATIONS
// =============================================================================

func TestCoordinator_CreateAddsStockAndDeleteTakesItBack(t *testing.T) {
	// GIVEN: Product P with no stock
	// WHEN: 120 are produced and the production is then deleted
	// THEN: stock goes 0 -> 120 -> 0

	prod, stock, catalog := newTestCoordinator(t)
	ctx := context.Background()
	p := addProduct(t, catalog, "P")

	run, err := prod.Create(ctx, production.Request{ProductID: p.ID, Quantity: dec("120")})
	require.NoError(t, err)
	assert.Equal(t, "2025-05-02", run.Date.String(), "date defaults to today")
	requireStock(t, stock, p.ID, "120")

	require.NoError(t, prod.Delete(ctx, run.ID))
	requireStock(t, stock, p.ID, "0")

	assert.ErrorIs(t, prod.Delete(ctx, run.ID), generic.ErrNotFound)
}

func TestCoordinator_CreateRejectsSecondRunSameDay(t *testing.T) {
	prod, stock, catalog := newTestCoordinator(t)
	ctx := context.Background()
	p := addProduct(t, catalog, "P")
	day := generic.MustParseDate("2025-04-30")

	_, err := prod.Create(ctx, production.Request{ProductID: p.ID, Date: day, Quantity: dec("10")})
	require.NoError(t, err)

	_, err = prod.Create(ctx, production.Request{ProductID: p.ID, Date: day, Quantity: dec("5")})
	assert.ErrorIs(t, err, generic.ErrAlreadyExists)
	requireStock(t, stock, p.ID, "10")

	_, err = prod.Create(ctx, production.Request{ProductID: p.ID, Date: day.AddDays(1), Quantity: dec("5")})
	require.NoError(t, err)
	requireStock(t, stock, p.ID, "15")
}

func TestCoordinator_EditSameProductAppliesDelta(t *testing.T) {
	prod, stock, catalog := newTestCoordinator(t)
	ctx := context.Background()
	p := addProduct(t, catalog, "P")

	_, err := stock.Adjust(ctx, p.ID, dec("7"))
	require.NoError(t, err)
	run, err := prod.Create(ctx, production.Request{ProductID: p.ID, Quantity: dec("10")})
	require.NoError(t, err)
	requireStock(t, stock, p.ID, "17")

	edited, err := prod.Edit(ctx, run.ID, production.Request{ProductID: p.ID, Quantity: dec("4")})
	require.NoError(t, err)
	assert.Equal(t, run.Date, edited.Date)
	requireStock(t, stock, p.ID, "11")

	_, err = prod.Edit(ctx, run.ID, production.Request{ProductID: p.ID, Quantity: dec("4")})
	require.NoError(t, err)
	requireStock(t, stock, p.ID, "11")
}

func TestCoordinator_EditMovesStockToNewProduct(t *testing.T) {
	// GIVEN: 10 of P produced
	// WHEN: The production is re-attributed to Q with quantity 12
	// THEN: P loses 10 and Q gains 12

	prod, stock, catalog := newTestCoordinator(t)
	ctx := context.Background()
	p := addProduct(t, catalog, "P")
	q := addProduct(t, catalog, "Q")

	run, err := prod.Create(ctx, production.Request{ProductID: p.ID, Quantity: dec("10")})
	require.NoError(t, err)

	_, err = prod.Edit(ctx, run.ID, production.Request{ProductID: q.ID, Quantity: dec("12")})
	require.NoError(t, err)
	requireStock(t, stock, p.ID, "0")
	requireStock(t, stock, q.ID, "12")
}

func TestCoordinator_EditRejectsTakenDateAndProduct(t *testing.T) {
	prod, stock, catalog := newTestCoordinator(t)
	ctx := context.Background()
	p := addProduct(t, catalog, "P")
	day1 := generic.MustParseDate("2025-04-01")
	day2 := generic.MustParseDate("2025-04-02")

	_, err := prod.Create(ctx, production.Request{ProductID: p.ID, Date: day1, Quantity: dec("1")})
	require.NoError(t, err)
	second, err := prod.Create(ctx, production.Request{ProductID: p.ID, Date: day2, Quantity: dec("2")})
	require.NoError(t, err)

	_, err = prod.Edit(ctx, second.ID, production.Request{ProductID: p.ID, Date: day1, Quantity: dec("9")})
	assert.ErrorIs(t, err, generic.ErrAlreadyExists)
	requireStock(t, stock, p.ID, "3")

	_, err = prod.Edit(ctx, "ghost", production.Request{ProductID: p.ID, Quantity: dec("1")})
	assert.ErrorIs(t, err, generic.ErrNotFound)
	_, err = prod.Edit(ctx, second.ID, production.Request{ProductID: "ghost", Quantity: dec("1")})
	assert.ErrorIs(t, err, generic.ErrNotFound)
	_, err = prod.Create(ctx, production.Request{ProductID: p.ID, Quantity: dec("-1")})
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
}

// =============================================================================
// QUERIES
// =============================================================================

func TestCoordinator_Queries(t *testing.T) {
	prod, _, catalog := newTestCoordinator(t)
	ctx := context.Background()
	p := addProduct(t, catalog, "P")
	q := addProduct(t, catalog, "Q")

	for _, d := range []string{"2025-04-01", "2025-04-03", "2025-04-02"} {
		_, err := prod.Create(ctx, production.Request{ProductID: p.ID, Date: generic.MustParseDate(d), Quantity: dec("1")})
		require.NoError(t, err)
	}
	_, err := prod.Create(ctx, production.Request{ProductID: q.ID, Date: generic.MustParseDate("2025-04-02"), Quantity: dec("1")})
	require.NoError(t, err)

	byProduct, err := prod.ByProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, byProduct, 3)
	assert.Equal(t, "2025-04-03", byProduct[0].Date.String(), "newest first")
	assert.Equal(t, "2025-04-01", byProduct[2].Date.String())

	byDate, err := prod.ByDate(ctx, generic.MustParseDate("2025-04-02"))
	require.NoError(t, err)
	assert.Len(t, byDate, 2)

	ranged, err := prod.ByDateRange(ctx, generic.MustParseDate("2025-04-02"), generic.MustParseDate("2025-04-03"))
	require.NoError(t, err)
	assert.Len(t, ranged, 3)

	_, err = prod.ByDateRange(ctx, generic.MustParseDate("2025-04-03"), generic.MustParseDate("2025-04-01"))
	assert.ErrorIs(t, err, generic.ErrInvalidInput)

	one, err := prod.ByDateAndProduct(ctx, generic.MustParseDate("2025-04-02"), q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, one.ProductID)

	_, err = prod.ByDateAndProduct(ctx, generic.MustParseDate("2025-04-09"), q.ID)
	assert.ErrorIs(t, err, generic.ErrNotFound)
	_, err = prod.ByProduct(ctx, "ghost")
	assert.ErrorIs(t, err, generic.ErrNotFound)

	all, err := prod.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
