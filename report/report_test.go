package report_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/candleworks/generic"
	"github.com/warp/candleworks/generic/store"
	"github.com/warp/candleworks/report"
)

func seed(t *testing.T) generic.Store {
	t.Helper()
	s := store.NewMemory()
	ctx := context.Background()
	d := decimal.RequireFromString

	require.NoError(t, s.Products().Save(ctx, generic.Product{ID: "p1", Code: "C-1", Material: generic.MaterialWhite, Price: d("10")}))
	require.NoError(t, s.Products().Save(ctx, generic.Product{ID: "p2", Code: "B-7", Material: generic.MaterialBrown, Price: d("3.5"), ByWeight: true}))
	require.NoError(t, s.Storage().Save(ctx, generic.StorageRecord{ID: "s1", ProductID: "p1", Quantity: d("45")}))
	require.NoError(t, s.Storage().Save(ctx, generic.StorageRecord{ID: "s2", ProductID: "p2", Quantity: d("2.5")}))
	require.NoError(t, s.Customers().Save(ctx, generic.Customer{ID: "c1", Name: "Kiosk"}))
	require.NoError(t, s.Sales().Save(ctx, generic.Sale{
		ID: "x1", CustomerID: "c1", ProductID: "p1", Date: generic.MustParseDate("2025-02-01"), Quantity: d("5"), Cost: d("50"),
	}))
	return s
}

func readRows(t *testing.T, buf *bytes.Buffer, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestStorageWorkbook(t *testing.T) {
	s := seed(t)
	var buf bytes.Buffer

	require.NoError(t, report.StorageWorkbook(context.Background(), s, &buf))

	rows := readRows(t, &buf, "Storage")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Material", "Code", "Unit", "Price", "Quantity", "Deleted"}, rows[0])
	assert.Equal(t, "Brown", rows[1][0], "ordered by material then code")
	assert.Equal(t, "kg", rows[1][2])
	assert.Equal(t, "2.5", rows[1][4])
	assert.Equal(t, "C-1", rows[2][1])
	assert.Equal(t, "45", rows[2][4])
}

func TestSalesWorkbook(t *testing.T) {
	s := seed(t)
	var buf bytes.Buffer

	require.NoError(t, report.SalesWorkbook(context.Background(), s, generic.SaleFilter{CustomerID: "c1"}, &buf))

	rows := readRows(t, &buf, "Sales")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2025-02-01", "Kiosk", "White", "C-1", "5", "50"}, rows[1])
}
