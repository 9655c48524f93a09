package inventory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/candleworks/generic"
)

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Code     string
	Material generic.Material
	Price    decimal.Decimal
	ByWeight bool
}

// normalize validates the input and canonicalizes the material name.
func (in *ProductInput) normalize() error {
	in.Code = strings.TrimSpace(in.Code)
	if in.Code == "" {
		return generic.Invalid("code", "is required")
	}
	m, err := generic.ParseMaterial(string(in.Material))
	if err != nil {
		return err
	}
	in.Material = m
	if in.Price.IsNegative() {
		return generic.Invalid("price", "must not be negative")
	}
	return nil
}

// Catalog manages products. (Material, Code) identifies a product: a
// soft-deleted product is revived rather than duplicated.
type Catalog struct {
	store  generic.Store
	ledger *Ledger
	log    *slog.Logger
}

func NewCatalog(store generic.Store, ledger *Ledger, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{store: store, ledger: ledger, log: log.With("component", "catalog")}
}

// Add creates a product with an empty storage record, or revives a
// soft-deleted product with the same material and code.
func (c *Catalog) Add(ctx context.Context, in ProductInput) (generic.Product, error) {
	if err := in.normalize(); err != nil {
		return generic.Product{}, err
	}

	var product generic.Product
	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		existing, err := c.store.Products().ByMaterialAndCode(ctx, in.Material, in.Code)
		switch {
		case err == nil && !existing.Deleted:
			return generic.AlreadyExists("product", string(in.Material)+"/"+in.Code)
		case err == nil:
			product = existing
			product.Deleted = false
			product.Price = in.Price
			product.ByWeight = in.ByWeight
			if err := c.store.Products().Save(ctx, product); err != nil {
				return err
			}
			c.log.Info("product revived", "product_id", product.ID, "material", product.Material, "code", product.Code)
			// a revived product keeps its storage; recreate it if it was retired
			_, err = c.ledger.RecordFor(ctx, product.ID)
			if generic.IsNotFound(err) {
				_, err = c.ledger.Initiate(ctx, product.ID)
			}
			return err
		case !generic.IsNotFound(err):
			return err
		}

		product = generic.Product{
			ID:       generic.NewID(),
			Code:     in.Code,
			Material: in.Material,
			Price:    in.Price,
			ByWeight: in.ByWeight,
		}
		if err := c.store.Products().Save(ctx, product); err != nil {
			return err
		}
		_, err = c.ledger.Initiate(ctx, product.ID)
		return err
	})
	if err != nil {
		return generic.Product{}, err
	}
	return product, nil
}

// Edit updates a live product. Changing (material, code) onto another
// product's pair is AlreadyExists.
func (c *Catalog) Edit(ctx context.Context, id string, in ProductInput) (generic.Product, error) {
	if err := in.normalize(); err != nil {
		return generic.Product{}, err
	}

	var product generic.Product
	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		product, err = c.Get(ctx, id)
		if err != nil {
			return err
		}
		other, err := c.store.Products().ByMaterialAndCode(ctx, in.Material, in.Code)
		if err == nil && other.ID != id {
			return generic.AlreadyExists("product", string(in.Material)+"/"+in.Code)
		}
		if err != nil && !generic.IsNotFound(err) {
			return err
		}
		product.Code, product.Material, product.Price, product.ByWeight = in.Code, in.Material, in.Price, in.ByWeight
		return c.store.Products().Save(ctx, product)
	})
	if err != nil {
		return generic.Product{}, err
	}
	return product, nil
}

// SoftDelete hides the product; its storage, sales and productions stay.
func (c *Catalog) SoftDelete(ctx context.Context, id string) error {
	return c.store.WithTx(ctx, func(ctx context.Context) error {
		product, err := c.Get(ctx, id)
		if err != nil {
			return err
		}
		product.Deleted = true
		if err := c.store.Products().Save(ctx, product); err != nil {
			return err
		}
		c.log.Info("product soft-deleted", "product_id", id)
		return nil
	})
}

// HardDelete removes the product and its storage record. Products with
// sales or productions on record are InUse.
func (c *Catalog) HardDelete(ctx context.Context, id string) error {
	return c.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := c.store.Products().Get(ctx, id); err != nil {
			return err
		}

		sold, err := c.store.Sales().Find(ctx, generic.SaleFilter{ProductID: id})
		if err != nil {
			return err
		}
		if len(sold) > 0 {
			return &generic.InUseError{Entity: "product", ID: id, ReferencedBy: "sales"}
		}
		made, err := c.store.Productions().Find(ctx, generic.ProductionFilter{ProductID: id})
		if err != nil {
			return err
		}
		if len(made) > 0 {
			return &generic.InUseError{Entity: "product", ID: id, ReferencedBy: "productions"}
		}

		if err := c.ledger.Retire(ctx, id); err != nil && !generic.IsNotFound(err) {
			return err
		}
		if err := c.store.Products().Delete(ctx, id); err != nil {
			return err
		}
		if _, err := c.store.Products().Get(ctx, id); !generic.IsNotFound(err) {
			c.log.Error("product still present after delete", "product_id", id)
			return &generic.ConsistencyError{Entity: "product", ID: id, Op: "delete"}
		}
		c.log.Info("product deleted", "product_id", id)
		return nil
	})
}

// Get returns a live product; soft-deleted products are NotFound.
func (c *Catalog) Get(ctx context.Context, id string) (generic.Product, error) {
	p, err := c.store.Products().Get(ctx, id)
	if err != nil {
		return generic.Product{}, err
	}
	if p.Deleted {
		return generic.Product{}, generic.NotFound("product", id)
	}
	return p, nil
}

func (c *Catalog) All(ctx context.Context) ([]generic.Product, error) {
	return c.find(ctx, generic.ProductFilter{})
}

func (c *Catalog) ByMaterial(ctx context.Context, m generic.Material) ([]generic.Product, error) {
	return c.find(ctx, generic.ProductFilter{Material: &m})
}

func (c *Catalog) ByCode(ctx context.Context, code string) ([]generic.Product, error) {
	return c.find(ctx, generic.ProductFilter{Code: code})
}

// Specific returns the live product with the given material and code.
func (c *Catalog) Specific(ctx context.Context, m generic.Material, code string) (generic.Product, error) {
	p, err := c.store.Products().ByMaterialAndCode(ctx, m, code)
	if err != nil {
		return generic.Product{}, err
	}
	if p.Deleted {
		return generic.Product{}, generic.NotFound("product", string(m)+"/"+code)
	}
	return p, nil
}

// Find lists live products matching the filter, NotFound when empty.
func (c *Catalog) Find(ctx context.Context, f generic.ProductFilter) ([]generic.Product, error) {
	f.IncludeDeleted = false
	return c.find(ctx, f)
}

func (c *Catalog) find(ctx context.Context, f generic.ProductFilter) ([]generic.Product, error) {
	products, err := c.store.Products().Find(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, generic.NotFound("products", "matching filter")
	}
	return products, nil
}
