package receivables

import (
	"context"
	"log/slog"
	"strings"

	"github.com/warp/candleworks/generic"
)

// CustomerInput carries the editable fields of a customer.
type CustomerInput struct {
	Name  string
	Phone string
}

// Customers is the customer directory. Names are unique.
type Customers struct {
	store generic.Store
	log   *slog.Logger
}

func NewCustomers(store generic.Store, log *slog.Logger) *Customers {
	if log == nil {
		log = slog.Default()
	}
	return &Customers{store: store, log: log.With("component", "customers")}
}

func (c *Customers) nameTaken(ctx context.Context, name, selfID string) (bool, error) {
	same, err := c.store.Customers().ByName(ctx, name)
	if err != nil {
		return false, err
	}
	for _, other := range same {
		if other.ID != selfID {
			return true, nil
		}
	}
	return false, nil
}

func (c *Customers) Add(ctx context.Context, in CustomerInput) (generic.Customer, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return generic.Customer{}, generic.Invalid("name", "is required")
	}

	customer := generic.Customer{ID: generic.NewID(), Name: in.Name, Phone: in.Phone}
	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		taken, err := c.nameTaken(ctx, in.Name, "")
		if err != nil {
			return err
		}
		if taken {
			return generic.AlreadyExists("customer", in.Name)
		}
		return c.store.Customers().Save(ctx, customer)
	})
	if err != nil {
		return generic.Customer{}, err
	}
	c.log.Info("customer added", "customer_id", customer.ID, "name", customer.Name)
	return customer, nil
}

// Edit changes name and phone; the debt balance is kept as is.
func (c *Customers) Edit(ctx context.Context, id string, in CustomerInput) (generic.Customer, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return generic.Customer{}, generic.Invalid("name", "is required")
	}

	var customer generic.Customer
	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		customer, err = c.store.Customers().Get(ctx, id)
		if err != nil {
			return err
		}
		taken, err := c.nameTaken(ctx, in.Name, id)
		if err != nil {
			return err
		}
		if taken {
			return generic.AlreadyExists("customer", in.Name)
		}
		customer.Name, customer.Phone = in.Name, in.Phone
		return c.store.Customers().Save(ctx, customer)
	})
	if err != nil {
		return generic.Customer{}, err
	}
	return customer, nil
}

// Delete removes a customer without sales or returned wax on record.
func (c *Customers) Delete(ctx context.Context, id string) error {
	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := c.store.Customers().Get(ctx, id); err != nil {
			return err
		}

		sales, err := c.store.Sales().Find(ctx, generic.SaleFilter{CustomerID: id})
		if err != nil {
			return err
		}
		if len(sales) > 0 {
			return &generic.InUseError{Entity: "customer", ID: id, ReferencedBy: "sales"}
		}
		wax, err := c.store.ReturnedWax().ByCustomer(ctx, id)
		if err != nil {
			return err
		}
		if len(wax) > 0 {
			return &generic.InUseError{Entity: "customer", ID: id, ReferencedBy: "returned wax"}
		}

		if err := c.store.Customers().Delete(ctx, id); err != nil {
			return err
		}
		if _, err := c.store.Customers().Get(ctx, id); !generic.IsNotFound(err) {
			c.log.Error("customer still present after delete", "customer_id", id)
			return &generic.ConsistencyError{Entity: "customer", ID: id, Op: "delete"}
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.log.Info("customer deleted", "customer_id", id)
	return nil
}

func (c *Customers) Get(ctx context.Context, id string) (generic.Customer, error) {
	return c.store.Customers().Get(ctx, id)
}

// All returns every customer, NotFound when there are none.
func (c *Customers) All(ctx context.Context) ([]generic.Customer, error) {
	customers, err := c.store.Customers().List(ctx)
	if err != nil {
		return nil, err
	}
	if len(customers) == 0 {
		return nil, generic.NotFound("customers", "")
	}
	return customers, nil
}

func (c *Customers) ByName(ctx context.Context, name string) (generic.Customer, error) {
	found, err := c.store.Customers().ByName(ctx, name)
	if err != nil {
		return generic.Customer{}, err
	}
	if len(found) == 0 {
		return generic.Customer{}, generic.NotFound("customer", "named "+name)
	}
	return found[0], nil
}

// ByPhone returns the first customer (by name) with that phone number.
func (c *Customers) ByPhone(ctx context.Context, phone string) (generic.Customer, error) {
	found, err := c.store.Customers().ByPhone(ctx, phone)
	if err != nil {
		return generic.Customer{}, err
	}
	if len(found) == 0 {
		return generic.Customer{}, generic.NotFound("customer", "with phone "+phone)
	}
	return found[0], nil
}
