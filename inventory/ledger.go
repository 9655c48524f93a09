/*
Package inventory owns product stock and the product catalog.

STOCK MODEL:
  Every product has exactly one StorageRecord holding a signed quantity.
  Adjust applies a delta without floor or ceiling: a sale larger than the
  stock leaves a negative quantity (a backorder) rather than failing.

CALLERS:
  - sales.Coordinator:      Adjust(product, -quantity) and its reversal
  - production.Coordinator: Adjust(product, +quantity) and its reversal
  - Catalog:                Initiate on product creation, Retire on hard delete

Every mutation runs through Store.WithTx, so when called with a context that
already carries a transaction it becomes part of the caller's atomic unit.
*/
package inventory

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/warp/candleworks/generic"
)

// Ledger reads and adjusts stock quantities.
type Ledger struct {
	store generic.Store
	log   *slog.Logger
}

func NewLedger(store generic.Store, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{store: store, log: log.With("component", "inventory")}
}

// QuantityFor returns the product's stock, NotFound without a storage record.
func (l *Ledger) QuantityFor(ctx context.Context, productID string) (decimal.Decimal, error) {
	rec, err := l.store.Storage().ByProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return rec.Quantity, nil
}

// Adjust writes current + delta and returns the updated record.
func (l *Ledger) Adjust(ctx context.Context, productID string, delta decimal.Decimal) (generic.StorageRecord, error) {
	var rec generic.StorageRecord
	err := l.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		rec, err = l.store.Storage().ByProduct(ctx, productID)
		if err != nil {
			return err
		}
		rec.Quantity = rec.Quantity.Add(delta)
		return l.store.Storage().Save(ctx, rec)
	})
	if err != nil {
		return generic.StorageRecord{}, err
	}
	if rec.Quantity.IsNegative() {
		l.log.Warn("stock below zero", "product_id", productID, "quantity", rec.Quantity.String())
	}
	return rec, nil
}

// Initiate creates the zero-quantity record of a new product.
func (l *Ledger) Initiate(ctx context.Context, productID string) (generic.StorageRecord, error) {
	return l.Open(ctx, productID, decimal.Zero)
}

// Open creates the product's storage record with an initial quantity.
func (l *Ledger) Open(ctx context.Context, productID string, quantity decimal.Decimal) (generic.StorageRecord, error) {
	rec := generic.StorageRecord{ID: generic.NewID(), ProductID: productID, Quantity: quantity}
	err := l.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := l.store.Products().Get(ctx, productID); err != nil {
			return err
		}
		_, err := l.store.Storage().ByProduct(ctx, productID)
		if err == nil {
			return generic.AlreadyExists("storage for product", productID)
		}
		if !generic.IsNotFound(err) {
			return err
		}
		return l.store.Storage().Save(ctx, rec)
	})
	if err != nil {
		return generic.StorageRecord{}, err
	}
	l.log.Info("storage opened", "product_id", productID, "quantity", quantity.String())
	return rec, nil
}

// Retire deletes the storage record of a product being hard-deleted.
func (l *Ledger) Retire(ctx context.Context, productID string) error {
	return l.store.WithTx(ctx, func(ctx context.Context) error {
		rec, err := l.store.Storage().ByProduct(ctx, productID)
		if err != nil {
			return err
		}
		return l.remove(ctx, rec.ID)
	})
}

// Set overwrites the quantity of a storage record (manual stock correction).
func (l *Ledger) Set(ctx context.Context, storageID string, quantity decimal.Decimal) (generic.StorageRecord, error) {
	var rec generic.StorageRecord
	err := l.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		rec, err = l.store.Storage().Get(ctx, storageID)
		if err != nil {
			return err
		}
		rec.Quantity = quantity
		return l.store.Storage().Save(ctx, rec)
	})
	if err != nil {
		return generic.StorageRecord{}, err
	}
	l.log.Info("storage corrected", "storage_id", storageID, "quantity", quantity.String())
	return rec, nil
}

// Remove deletes a storage record by its own ID.
func (l *Ledger) Remove(ctx context.Context, storageID string) error {
	return l.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := l.store.Storage().Get(ctx, storageID); err != nil {
			return err
		}
		return l.remove(ctx, storageID)
	})
}

func (l *Ledger) remove(ctx context.Context, storageID string) error {
	if err := l.store.Storage().Delete(ctx, storageID); err != nil {
		return err
	}
	if _, err := l.store.Storage().Get(ctx, storageID); !generic.IsNotFound(err) {
		l.log.Error("storage still present after delete", "storage_id", storageID)
		return &generic.ConsistencyError{Entity: "storage", ID: storageID, Op: "delete"}
	}
	return nil
}

func (l *Ledger) RecordFor(ctx context.Context, productID string) (generic.StorageRecord, error) {
	return l.store.Storage().ByProduct(ctx, productID)
}

func (l *Ledger) Record(ctx context.Context, storageID string) (generic.StorageRecord, error) {
	return l.store.Storage().Get(ctx, storageID)
}

// Records lists storage by product material and/or code, NotFound when empty.
func (l *Ledger) Records(ctx context.Context, f generic.StorageFilter) ([]generic.StorageRecord, error) {
	recs, err := l.store.Storage().Find(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, generic.NotFound("storage", "matching filter")
	}
	return recs, nil
}
