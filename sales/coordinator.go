/*
Package sales records sales and keeps customer debt and product stock in
step with them.

EFFECTS OF A SALE:
  create:  debt(customer) += cost      stock(product) -= quantity
  reverse: debt(customer) -= cost      stock(product) += quantity

  cost is the explicit override when given, quantity * product.Price
  otherwise.

ATOMICITY:
  Each Coordinator method runs inside one Store.WithTx. The receivables and
  inventory ledgers are called with the transaction context, so the Sale,
  the Customer balance and the StorageRecord are written together or not
  at all.

EDIT:
  The old effects are reversed first, then the new customer and product are
  resolved and the forward effects are applied on freshly read balances.
  When old and new customer or product coincide the second adjustment sees
  the first one.

SEE ALSO:
  - inventory/ledger.go: stock adjustments
  - receivables/ledger.go: debt adjustments
*/
package sales

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/warp/candleworks/generic"
	"github.com/warp/candleworks/inventory"
	"github.com/warp/candleworks/receivables"
)

// Request describes a sale to create or the new state of one being edited.
// A nil Cost means quantity * product price. A zero Date means today.
type Request struct {
	CustomerID string
	ProductID  string
	Date       generic.Date
	Quantity   decimal.Decimal
	Cost       *decimal.Decimal
}

func (r Request) validate() error {
	if r.CustomerID == "" {
		return generic.Invalid("customer_id", "is required")
	}
	if r.ProductID == "" {
		return generic.Invalid("product_id", "is required")
	}
	if !r.Quantity.IsPositive() {
		return generic.Invalid("quantity", "must be greater than zero")
	}
	if r.Cost != nil && r.Cost.IsNegative() {
		return generic.Invalid("cost", "must not be negative")
	}
	return nil
}

// Coordinator is the only writer of sales.
type Coordinator struct {
	store generic.Store
	stock *inventory.Ledger
	debts *receivables.Ledger
	clock generic.Clock
	log   *slog.Logger
}

func NewCoordinator(store generic.Store, stock *inventory.Ledger, debts *receivables.Ledger, clock generic.Clock, log *slog.Logger) *Coordinator {
	if clock == nil {
		clock = generic.SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{store: store, stock: stock, debts: debts, clock: clock, log: log.With("component", "sales")}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Create charges the customer, takes the quantity out of stock and stores the sale.
func (c *Coordinator) Create(ctx context.Context, req Request) (generic.Sale, error) {
	if err := req.validate(); err != nil {
		return generic.Sale{}, err
	}

	var sale generic.Sale
	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		sale = generic.Sale{ID: generic.NewID()}
		if err := c.apply(ctx, &sale, req); err != nil {
			return err
		}
		return c.store.Sales().Save(ctx, sale)
	})
	if err != nil {
		return generic.Sale{}, err
	}

	c.log.Info("sale created", "sale_id", sale.ID, "customer_id", sale.CustomerID,
		"product_id", sale.ProductID, "quantity", sale.Quantity.String(), "cost", sale.Cost.String())
	return sale, nil
}

// Edit reverses the stored sale's effects and applies the request in its place.
func (c *Coordinator) Edit(ctx context.Context, id string, req Request) (generic.Sale, error) {
	if err := req.validate(); err != nil {
		return generic.Sale{}, err
	}

	var sale generic.Sale
	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		old, err := c.store.Sales().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := c.reverse(ctx, old); err != nil {
			return err
		}

		sale = generic.Sale{ID: old.ID}
		if req.Date.IsZero() {
			req.Date = old.Date
		}
		if err := c.apply(ctx, &sale, req); err != nil {
			return err
		}
		return c.store.Sales().Save(ctx, sale)
	})
	if err != nil {
		return generic.Sale{}, err
	}

	c.log.Info("sale edited", "sale_id", sale.ID, "quantity", sale.Quantity.String(), "cost", sale.Cost.String())
	return sale, nil
}

// Delete reverses the sale's effects and removes it.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		sale, err := c.store.Sales().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := c.reverse(ctx, sale); err != nil {
			return err
		}
		if err := c.store.Sales().Delete(ctx, id); err != nil {
			return err
		}
		if _, err := c.store.Sales().Get(ctx, id); !generic.IsNotFound(err) {
			c.log.Error("sale still present after delete", "sale_id", id)
			return &generic.ConsistencyError{Entity: "sale", ID: id, Op: "delete"}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.log.Info("sale deleted", "sale_id", id)
	return nil
}

// apply resolves the request's customer and product, fills sale and books
// the forward effects. Soft-deleted products can still be sold.
func (c *Coordinator) apply(ctx context.Context, sale *generic.Sale, req Request) error {
	product, err := c.store.Products().Get(ctx, req.ProductID)
	if err != nil {
		return err
	}
	if _, err := c.store.Customers().Get(ctx, req.CustomerID); err != nil {
		return err
	}

	cost := req.Quantity.Mul(product.Price)
	if req.Cost != nil {
		cost = *req.Cost
	}
	date := req.Date
	if date.IsZero() {
		date = generic.DateOf(c.clock.Now())
	}

	sale.CustomerID = req.CustomerID
	sale.ProductID = product.ID
	sale.Date = date
	sale.Quantity = req.Quantity
	sale.Cost = cost

	if _, err := c.debts.Adjust(ctx, sale.CustomerID, cost); err != nil {
		return err
	}
	_, err = c.stock.Adjust(ctx, sale.ProductID, req.Quantity.Neg())
	return err
}

func (c *Coordinator) reverse(ctx context.Context, sale generic.Sale) error {
	if _, err := c.debts.Adjust(ctx, sale.CustomerID, sale.Cost.Neg()); err != nil {
		return err
	}
	_, err := c.stock.Adjust(ctx, sale.ProductID, sale.Quantity)
	return err
}

// =============================================================================
// QUERIES
// =============================================================================

func (c *Coordinator) Get(ctx context.Context, id string) (generic.Sale, error) {
	return c.store.Sales().Get(ctx, id)
}

func (c *Coordinator) All(ctx context.Context) ([]generic.Sale, error) {
	return c.store.Sales().Find(ctx, generic.SaleFilter{})
}

func (c *Coordinator) ByCustomer(ctx context.Context, customerID string) ([]generic.Sale, error) {
	return c.ByAll(ctx, customerID, "", nil)
}

func (c *Coordinator) ByProduct(ctx context.Context, productID string) ([]generic.Sale, error) {
	return c.ByAll(ctx, "", productID, nil)
}

func (c *Coordinator) ByDate(ctx context.Context, date generic.Date) ([]generic.Sale, error) {
	return c.ByAll(ctx, "", "", &date)
}

func (c *Coordinator) ByCustomerAndProduct(ctx context.Context, customerID, productID string) ([]generic.Sale, error) {
	return c.ByAll(ctx, customerID, productID, nil)
}

func (c *Coordinator) ByCustomerAndDate(ctx context.Context, customerID string, date generic.Date) ([]generic.Sale, error) {
	return c.ByAll(ctx, customerID, "", &date)
}

func (c *Coordinator) ByProductAndDate(ctx context.Context, productID string, date generic.Date) ([]generic.Sale, error) {
	return c.ByAll(ctx, "", productID, &date)
}

// ByAll filters on every non-empty argument. A customer or product ID that
// does not resolve is NotFound; an empty result is not an error.
func (c *Coordinator) ByAll(ctx context.Context, customerID, productID string, date *generic.Date) ([]generic.Sale, error) {
	if customerID != "" {
		if _, err := c.store.Customers().Get(ctx, customerID); err != nil {
			return nil, err
		}
	}
	if productID != "" {
		if _, err := c.store.Products().Get(ctx, productID); err != nil {
			return nil, err
		}
	}
	return c.store.Sales().Find(ctx, generic.SaleFilter{CustomerID: customerID, ProductID: productID, Date: date})
}
