/*
Package production records daily production runs and the stock they add.

EFFECTS:
  create:            stock(product) += quantity
  delete:            stock(product) -= quantity
  edit, same product:  stock(product) += new - old
  edit, new product:   stock(old) -= old quantity, stock(new) += new quantity

  (date, product) identifies a production: a second run of the same product
  on the same day is AlreadyExists, on create and on edit.

Every mutation and its stock adjustments run in one Store.WithTx.
*/
package production

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/warp/candleworks/generic"
	"github.com/warp/candleworks/inventory"
)

// Request describes a production to create or the new state of one being
// edited. A zero Date means today.
type Request struct {
	ProductID string
	Date      generic.Date
	Quantity  decimal.Decimal
}

func (r Request) validate() error {
	if r.ProductID == "" {
		return generic.Invalid("product_id", "is required")
	}
	if !r.Quantity.IsPositive() {
		return generic.Invalid("quantity", "must be greater than zero")
	}
	return nil
}

type Coordinator struct {
	store generic.Store
	stock *inventory.Ledger
	clock generic.Clock
	log   *slog.Logger
}

func NewCoordinator(store generic.Store, stock *inventory.Ledger, clock generic.Clock, log *slog.Logger) *Coordinator {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{store: store, stock: stock, clock: clock, log: log.With("component", "production")}
}

func (c *Coordinator) dateOrToday(d generic.Date) generic.Date {
	if d.IsZero() {
		return generic.DateOf(c.clock.Now())
	}
	return d
}

// ensureFree fails with AlreadyExists when another production than selfID
// already covers (date, product).
func (c *Coordinator) ensureFree(ctx context.Context, date generic.Date, productID, selfID string) error {
	existing, err := c.store.Productions().ByDateAndProduct(ctx, date, productID)
	if generic.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID == selfID {
		return nil
	}
	return generic.AlreadyExists("production", productID+" on "+date.String())
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Create stores the production and adds its quantity to the product's stock.
func (c *Coordinator) Create(ctx context.Context, req Request) (generic.Production, error) {
	if err := req.validate(); err != nil {
		return generic.Production{}, err
	}

	p := generic.Production{
		ID:        generic.NewID(),
		ProductID: req.ProductID,
		Date:      c.dateOrToday(req.Date),
		Quantity:  req.Quantity,
	}
	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := c.store.Products().Get(ctx, p.ProductID); err != nil {
			return err
		}
		if err := c.ensureFree(ctx, p.Date, p.ProductID, ""); err != nil {
			return err
		}
		if err := c.store.Productions().Save(ctx, p); err != nil {
			return err
		}
		_, err := c.stock.Adjust(ctx, p.ProductID, p.Quantity)
		return err
	})
	if err != nil {
		return generic.Production{}, err
	}

	c.log.Info("production created", "production_id", p.ID, "product_id", p.ProductID,
		"date", p.Date.String(), "quantity", p.Quantity.String())
	return p, nil
}

// Edit replaces the production's product, date and quantity and moves stock
// accordingly.
func (c *Coordinator) Edit(ctx context.Context, id string, req Request) (generic.Production, error) {
	if err := req.validate(); err != nil {
		return generic.Production{}, err
	}

	var p generic.Production
	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		old, err := c.store.Productions().Get(ctx, id)
		if err != nil {
			return err
		}
		if _, err := c.store.Products().Get(ctx, req.ProductID); err != nil {
			return err
		}

		p = old
		p.ProductID = req.ProductID
		p.Quantity = req.Quantity
		if !req.Date.IsZero() {
			p.Date = req.Date
		}
		if err := c.ensureFree(ctx, p.Date, p.ProductID, id); err != nil {
			return err
		}

		if old.ProductID != p.ProductID {
			if _, err := c.stock.Adjust(ctx, old.ProductID, old.Quantity.Neg()); err != nil {
				return err
			}
			if _, err := c.stock.Adjust(ctx, p.ProductID, p.Quantity); err != nil {
				return err
			}
		} else if !old.Quantity.Equal(p.Quantity) {
			if _, err := c.stock.Adjust(ctx, p.ProductID, p.Quantity.Sub(old.Quantity)); err != nil {
				return err
			}
		}
		return c.store.Productions().Save(ctx, p)
	})
	if err != nil {
		return generic.Production{}, err
	}

	c.log.Info("production edited", "production_id", p.ID, "product_id", p.ProductID, "quantity", p.Quantity.String())
	return p, nil
}

// Delete takes the production's quantity back out of stock and removes it.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		p, err := c.store.Productions().Get(ctx, id)
		if err != nil {
			return err
		}
		if _, err := c.stock.Adjust(ctx, p.ProductID, p.Quantity.Neg()); err != nil {
			return err
		}
		if err := c.store.Productions().Delete(ctx, id); err != nil {
			return err
		}
		if _, err := c.store.Productions().Get(ctx, id); !generic.IsNotFound(err) {
			c.log.Error("production still present after delete", "production_id", id)
			return &generic.ConsistencyError{Entity: "production", ID: id, Op: "delete"}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.log.Info("production deleted", "production_id", id)
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

func (c *Coordinator) Get(ctx context.Context, id string) (generic.Production, error) {
	return c.store.Productions().Get(ctx, id)
}

func (c *Coordinator) All(ctx context.Context) ([]generic.Production, error) {
	return c.store.Productions().Find(ctx, generic.ProductionFilter{})
}

// ByProduct lists the product's productions, newest first.
func (c *Coordinator) ByProduct(ctx context.Context, productID string) ([]generic.Production, error) {
	if _, err := c.store.Products().Get(ctx, productID); err != nil {
		return nil, err
	}
	found, err := c.store.Productions().Find(ctx, generic.ProductionFilter{ProductID: productID})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(found)-1; i < j; i, j = i+1, j-1 {
		found[i], found[j] = found[j], found[i]
	}
	return found, nil
}

func (c *Coordinator) ByDate(ctx context.Context, date generic.Date) ([]generic.Production, error) {
	return c.store.Productions().Find(ctx, generic.ProductionFilter{Date: &date})
}

// ByDateAndProduct returns the single production of a product on a day.
func (c *Coordinator) ByDateAndProduct(ctx context.Context, date generic.Date, productID string) (generic.Production, error) {
	if _, err := c.store.Products().Get(ctx, productID); err != nil {
		return generic.Production{}, err
	}
	return c.store.Productions().ByDateAndProduct(ctx, date, productID)
}

// ByDateRange lists productions with from <= date <= to.
func (c *Coordinator) ByDateRange(ctx context.Context, from, to generic.Date) ([]generic.Production, error) {
	if to.Before(from) {
		return nil, generic.Invalid("to", "is before from")
	}
	return c.store.Productions().Find(ctx, generic.ProductionFilter{From: &from, To: &to})
}
