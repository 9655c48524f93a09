package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/candleworks/generic"
	"github.com/warp/candleworks/generic/store"
	"github.com/warp/candleworks/inventory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestInventory(t *testing.T) (*inventory.Catalog, *inventory.Ledger, generic.Store) {
	t.Helper()
	s := store.NewMemory()
	ledger := inventory.NewLedger(s, nil)
	return inventory.NewCatalog(s, ledger, nil), ledger, s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func candle(code string) inventory.ProductInput {
	return inventory.ProductInput{Code: code, Material: generic.MaterialWhite, Price: dec("10.00")}
}

// =============================================================================
// LEDGER
// =============================================================================

func TestLedger_AdjustAllowsNegativeStock(t *testing.T) {
	// GIVEN: A product with 5 in stock
	// WHEN: 8 are taken out
	// THEN: stock is -3, nothing is refused

	catalog, ledger, _ := newTestInventory(t)
	ctx := context.Background()

	p, err := catalog.Add(ctx, candle("C-1"))
	require.NoError(t, err)
	_, err = ledger.Adjust(ctx, p.ID, dec("5"))
	require.NoError(t, err)

	rec, err := ledger.Adjust(ctx, p.ID, dec("-8"))
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(dec("-3")), "got %s", rec.Quantity)

	q, err := ledger.QuantityFor(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, q.Equal(dec("-3")))
}

func TestLedger_MissingStorage(t *testing.T) {
	_, ledger, _ := newTestInventory(t)
	ctx := context.Background()

	_, err := ledger.QuantityFor(ctx, "nope")
	assert.ErrorIs(t, err, generic.ErrNotFound)

	_, err = ledger.Adjust(ctx, "nope", dec("1"))
	assert.ErrorIs(t, err, generic.ErrNotFound)

	assert.ErrorIs(t, ledger.Retire(ctx, "nope"), generic.ErrNotFound)
}

func TestLedger_InitiateTwiceIsAlreadyExists(t *testing.T) {
	catalog, ledger, _ := newTestInventory(t)
	ctx := context.Background()

	p, err := catalog.Add(ctx, candle("C-1"))
	require.NoError(t, err)

	_, err = ledger.Initiate(ctx, p.ID)
	assert.ErrorIs(t, err, generic.ErrAlreadyExists, "Add already created the record")
}

func TestLedger_SetAndRemove(t *testing.T) {
	catalog, ledger, _ := newTestInventory(t)
	ctx := context.Background()

	p, err := catalog.Add(ctx, candle("C-1"))
	require.NoError(t, err)
	rec, err := ledger.RecordFor(ctx, p.ID)
	require.NoError(t, err)

	rec, err = ledger.Set(ctx, rec.ID, dec("42.5"))
	require.NoError(t, err)
	assert.Equal(t, "42.5", rec.Quantity.String())

	require.NoError(t, ledger.Remove(ctx, rec.ID))
	_, err = ledger.Record(ctx, rec.ID)
	assert.ErrorIs(t, err, generic.ErrNotFound)

	_, err = ledger.Open(ctx, p.ID, dec("7"))
	require.NoError(t, err)
	q, err := ledger.QuantityFor(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, q.Equal(dec("7")))
}

func TestLedger_RecordsByMaterialAndCode(t *testing.T) {
	catalog, ledger, _ := newTestInventory(t)
	ctx := context.Background()

	_, err := catalog.Add(ctx, candle("C-1"))
	require.NoError(t, err)
	_, err = catalog.Add(ctx, inventory.ProductInput{Code: "C-1", Material: generic.MaterialPure, Price: dec("12")})
	require.NoError(t, err)

	white := generic.MaterialWhite
	recs, err := ledger.Records(ctx, generic.StorageFilter{Material: &white})
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	recs, err = ledger.Records(ctx, generic.StorageFilter{Code: "C-1"})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	_, err = ledger.Records(ctx, generic.StorageFilter{Code: "none"})
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

// =============================================================================
// CATALOG
// =============================================================================

func TestCatalog_AddCreatesZeroStorage(t *testing.T) {
	catalog, ledger, _ := newTestInventory(t)
	ctx := context.Background()

	p, err := catalog.Add(ctx, candle("C-1"))
	require.NoError(t, err)

	q, err := ledger.QuantityFor(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, q.IsZero())

	_, err = catalog.Add(ctx, candle("C-1"))
	assert.ErrorIs(t, err, generic.ErrAlreadyExists)
}

func TestCatalog_AddRevivesSoftDeleted(t *testing.T) {
	// GIVEN: White/C-1 soft-deleted with 4 in stock
	// WHEN: White/C-1 is added again at a new price
	// THEN: the same product comes back with the new price and its stock

	catalog, ledger, _ := newTestInventory(t)
	ctx := context.Background()

	p, err := catalog.Add(ctx, candle("C-1"))
	require.NoError(t, err)
	_, err = ledger.Adjust(ctx, p.ID, dec("4"))
	require.NoError(t, err)
	require.NoError(t, catalog.SoftDelete(ctx, p.ID))

	_, err = catalog.Get(ctx, p.ID)
	assert.ErrorIs(t, err, generic.ErrNotFound, "soft-deleted products are hidden")

	in := candle("C-1")
	in.Price = dec("11.50")
	revived, err := catalog.Add(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, p.ID, revived.ID)
	assert.False(t, revived.Deleted)
	assert.Equal(t, "11.5", revived.Price.String())

	q, err := ledger.QuantityFor(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, q.Equal(dec("4")))
}

func TestCatalog_EditRejectsCollision(t *testing.T) {
	catalog, _, _ := newTestInventory(t)
	ctx := context.Background()

	a, err := catalog.Add(ctx, candle("A"))
	require.NoError(t, err)
	_, err = catalog.Add(ctx, candle("B"))
	require.NoError(t, err)

	_, err = catalog.Edit(ctx, a.ID, candle("B"))
	assert.ErrorIs(t, err, generic.ErrAlreadyExists)

	in := candle("A")
	in.Price = dec("15")
	edited, err := catalog.Edit(ctx, a.ID, in)
	require.NoError(t, err)
	assert.True(t, edited.Price.Equal(dec("15")))

	_, err = catalog.Edit(ctx, "missing", in)
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestCatalog_HardDelete(t *testing.T) {
	catalog, ledger, s := newTestInventory(t)
	ctx := context.Background()

	p, err := catalog.Add(ctx, candle("C-1"))
	require.NoError(t, err)

	require.NoError(t, s.Productions().Save(ctx, generic.Production{
		ID: "prod-1", ProductID: p.ID, Date: generic.MustParseDate("2025-01-01"), Quantity: dec("1"),
	}))
	assert.ErrorIs(t, catalog.HardDelete(ctx, p.ID), generic.ErrInUse)

	require.NoError(t, s.Productions().Delete(ctx, "prod-1"))
	require.NoError(t, catalog.HardDelete(ctx, p.ID))

	_, err = s.Products().Get(ctx, p.ID)
	assert.ErrorIs(t, err, generic.ErrNotFound)
	_, err = ledger.RecordFor(ctx, p.ID)
	assert.ErrorIs(t, err, generic.ErrNotFound, "storage retired with the product")
}

func TestCatalog_Lookups(t *testing.T) {
	catalog, _, _ := newTestInventory(t)
	ctx := context.Background()

	_, err := catalog.All(ctx)
	assert.ErrorIs(t, err, generic.ErrNotFound)

	_, err = catalog.Add(ctx, candle("C-1"))
	require.NoError(t, err)
	brown, err := catalog.Add(ctx, inventory.ProductInput{Code: "C-2", Material: generic.MaterialBrown, Price: dec("3"), ByWeight: true})
	require.NoError(t, err)

	all, err := catalog.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byMat, err := catalog.ByMaterial(ctx, generic.MaterialBrown)
	require.NoError(t, err)
	require.Len(t, byMat, 1)
	assert.True(t, byMat[0].ByWeight)

	byCode, err := catalog.ByCode(ctx, "C-1")
	require.NoError(t, err)
	assert.Len(t, byCode, 1)

	got, err := catalog.Specific(ctx, generic.MaterialBrown, "C-2")
	require.NoError(t, err)
	assert.Equal(t, brown.ID, got.ID)

	_, err = catalog.Specific(ctx, generic.MaterialPure, "C-2")
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestCatalog_AddValidates(t *testing.T) {
	catalog, _, _ := newTestInventory(t)
	ctx := context.Background()

	_, err := catalog.Add(ctx, inventory.ProductInput{Material: generic.MaterialWhite, Price: dec("1")})
	assert.ErrorIs(t, err, generic.ErrInvalidInput, "code required")

	_, err = catalog.Add(ctx, inventory.ProductInput{Code: "X", Material: "Gold", Price: dec("1")})
	assert.ErrorIs(t, err, generic.ErrInvalidInput, "unknown material")

	_, err = catalog.Add(ctx, inventory.ProductInput{Code: "X", Material: generic.MaterialWhite, Price: dec("-1")})
	assert.ErrorIs(t, err, generic.ErrInvalidInput, "negative price")
}
