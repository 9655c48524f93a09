// Package report renders storage and sales as XLSX workbooks.
package report

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/warp/candleworks/generic"
)

// ContentType is the MIME type of the workbooks written here.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StorageWorkbook writes one row per storage record with its product.
func StorageWorkbook(ctx context.Context, s generic.Store, w io.Writer) error {
	records, err := s.Storage().Find(ctx, generic.StorageFilter{})
	if err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}
	products, err := productIndex(ctx, s)
	if err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		p := products[r.ProductID]
		rows = append(rows, []interface{}{
			string(p.Material),
			p.Code,
			unit(p),
			p.Price.InexactFloat64(),
			r.Quantity.InexactFloat64(),
			p.Deleted,
		})
	}
	header := []interface{}{"Material", "Code", "Unit", "Price", "Quantity", "Deleted"}
	return writeSheet(w, "Storage", header, rows)
}

// SalesWorkbook writes the sales matching f, oldest first, with customer
// and product names resolved.
func SalesWorkbook(ctx context.Context, s generic.Store, f generic.SaleFilter, w io.Writer) error {
	sales, err := s.Sales().Find(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to load sales: %w", err)
	}
	products, err := productIndex(ctx, s)
	if err != nil {
		return err
	}
	customers, err := s.Customers().List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load customers: %w", err)
	}
	names := make(map[string]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}

	rows := make([][]interface{}, 0, len(sales))
	for _, sale := range sales {
		p := products[sale.ProductID]
		rows = append(rows, []interface{}{
			sale.Date.String(),
			names[sale.CustomerID],
			string(p.Material),
			p.Code,
			sale.Quantity.InexactFloat64(),
			sale.Cost.InexactFloat64(),
		})
	}
	header := []interface{}{"Date", "Customer", "Material", "Code", "Quantity", "Cost"}
	return writeSheet(w, "Sales", header, rows)
}

func productIndex(ctx context.Context, s generic.Store) (map[string]generic.Product, error) {
	products, err := s.Products().Find(ctx, generic.ProductFilter{IncludeDeleted: true})
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	index := make(map[string]generic.Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}
	return index, nil
}

func unit(p generic.Product) string {
	if p.ByWeight {
		return "kg"
	}
	return "pcs"
}

func writeSheet(w io.Writer, name string, header []interface{}, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(sheet, name); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
