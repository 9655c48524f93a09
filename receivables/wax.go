package receivables

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/warp/candleworks/generic"
)

// =============================================================================
// RETURNED WAX
// =============================================================================

// Value per kilogram of wax brought back by a customer.
var (
	PureWaxPerKg  = decimal.RequireFromString("3.20")
	OtherWaxPerKg = decimal.RequireFromString("0.70")
)

// WaxValue prices returned wax by material and weight.
func WaxValue(m generic.Material, weightKg decimal.Decimal) decimal.Decimal {
	if m == generic.MaterialPure {
		return weightKg.Mul(PureWaxPerKg)
	}
	return weightKg.Mul(OtherWaxPerKg)
}

// WaxInput describes a return. A zero ReturnDate means today.
type WaxInput struct {
	CustomerID string
	ReturnDate generic.Date
	Material   generic.Material
	Weight     decimal.Decimal
	Note       string
}

// ReturnedWaxLog records wax handed back by customers.
type ReturnedWaxLog struct {
	store generic.Store
	clock generic.Clock
	log   *slog.Logger
}

func NewReturnedWaxLog(store generic.Store, clock generic.Clock, log *slog.Logger) *ReturnedWaxLog {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &ReturnedWaxLog{store: store, clock: clock, log: log.With("component", "returned-wax")}
}

// Record stores the return valued at the per-kilogram rate. It does not
// change the customer's balance.
func (w *ReturnedWaxLog) Record(ctx context.Context, in WaxInput) (generic.ReturnedWax, error) {
	material, err := generic.ParseMaterial(string(in.Material))
	if err != nil {
		return generic.ReturnedWax{}, err
	}
	if !in.Weight.IsPositive() {
		return generic.ReturnedWax{}, generic.Invalid("weight", "must be greater than zero")
	}
	date := in.ReturnDate
	if date.IsZero() {
		date = generic.DateOf(w.clock.Now())
	}

	rec := generic.ReturnedWax{
		ID:         generic.NewID(),
		CustomerID: in.CustomerID,
		ReturnDate: date,
		Material:   material,
		Weight:     in.Weight,
		Value:      WaxValue(material, in.Weight),
		Note:       in.Note,
	}
	err = w.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := w.store.Customers().Get(ctx, in.CustomerID); err != nil {
			return err
		}
		return w.store.ReturnedWax().Save(ctx, rec)
	})
	if err != nil {
		return generic.ReturnedWax{}, err
	}
	w.log.Info("returned wax recorded", "customer_id", rec.CustomerID, "material", rec.Material, "value", rec.Value.String())
	return rec, nil
}

func (w *ReturnedWaxLog) All(ctx context.Context) ([]generic.ReturnedWax, error) {
	return w.store.ReturnedWax().List(ctx)
}

func (w *ReturnedWaxLog) Delete(ctx context.Context, id string) error {
	return w.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := w.store.ReturnedWax().Get(ctx, id); err != nil {
			return err
		}
		return w.store.ReturnedWax().Delete(ctx, id)
	})
}
