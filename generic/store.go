/*
store.go - Persistence contract for the workshop records

PURPOSE:
  Defines the interface between the business components and the database.
  Components never see SQL or maps: they call the per-entity repositories
  below and group multi-record mutations with Store.WithTx.

KEY INTERFACES:
  Store:            repository accessors + WithTx
  WorkerRepository, LeaveRepository, ProductRepository, StorageRepository,
  CustomerRepository, SaleRepository, ProductionRepository,
  ReturnedWaxRepository, ResetRepository

TRANSACTIONS:
  WithTx runs fn inside one transaction carried by the context passed to fn.
  Every repository call made with that context joins the transaction, and a
  nested WithTx with that context joins it as well. If fn returns an error
  nothing fn wrote is kept.

  Writers are serialized for the lifetime of the transaction, so a
  read-compute-save sequence inside WithTx cannot lose an update to a
  concurrent writer.

LOOKUP CONTRACT:
  - Get(id) returns a *NotFoundError when the record is missing
  - Find/List return an empty slice (never an error) when nothing matches
  - Save inserts or replaces by ID; uniqueness violations surface as
    *AlreadyExistsError
  - Delete of a missing ID is not an error; callers verify with Get

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for tests and dev runs

SEE ALSO:
  - types.go: the records
  - errors.go: error kinds
*/
package generic

import "context"

// =============================================================================
// STORE - Aggregate of repositories with transaction support
// =============================================================================

// Store gives access to every repository and the transaction boundary.
type Store interface {
	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	Workers() WorkerRepository
	Leaves() LeaveRepository
	Products() ProductRepository
	Storage() StorageRepository
	Customers() CustomerRepository
	Sales() SaleRepository
	Productions() ProductionRepository
	ReturnedWax() ReturnedWaxRepository
	Resets() ResetRepository

	// Reset clears all data (for demo scenarios).
	Reset(ctx context.Context) error
}

// =============================================================================
// WORKFORCE
// =============================================================================

type WorkerFilter struct {
	FirstName string
	LastName  string
	Phone     string
}

// Matches reports whether w satisfies every non-empty field of the filter.
func (f WorkerFilter) Matches(w Worker) bool {
	return (f.FirstName == "" || f.FirstName == w.FirstName) &&
		(f.LastName == "" || f.LastName == w.LastName) &&
		(f.Phone == "" || f.Phone == w.Phone)
}

type WorkerRepository interface {
	Get(ctx context.Context, id string) (Worker, error)
	List(ctx context.Context) ([]Worker, error)
	Find(ctx context.Context, filter WorkerFilter) ([]Worker, error)
	Count(ctx context.Context) (int, error)
	Save(ctx context.Context, w Worker) error
	Delete(ctx context.Context, id string) error

	// ResetLeaveDays sets every worker's counter to zero and returns how
	// many workers were touched.
	ResetLeaveDays(ctx context.Context) (int, error)
}

type LeaveRepository interface {
	Get(ctx context.Context, id string) (Leave, error)
	List(ctx context.Context) ([]Leave, error)
	Save(ctx context.Context, l Leave) error
	Delete(ctx context.Context, id string) error

	// Overlapping returns leaves with start <= p.End AND end >= p.Start.
	Overlapping(ctx context.Context, p Period) ([]Leave, error)
	ByWorker(ctx context.Context, workerID string) ([]Leave, error)
	DeleteByWorker(ctx context.Context, workerID string) error
}

// ResetRepository remembers which policy years already had their counters reset.
type ResetRepository interface {
	// Last returns the most recent reset, NotFound when none was recorded.
	Last(ctx context.Context) (LeaveReset, error)
	// Record fails with AlreadyExists when the period was already recorded.
	Record(ctx context.Context, r LeaveReset) error
}

// =============================================================================
// CATALOG & STOCK
// =============================================================================

type ProductFilter struct {
	Material       *Material
	Code           string
	IncludeDeleted bool
}

func (f ProductFilter) Matches(p Product) bool {
	if p.Deleted && !f.IncludeDeleted {
		return false
	}
	if f.Material != nil && *f.Material != p.Material {
		return false
	}
	return f.Code == "" || f.Code == p.Code
}

type ProductRepository interface {
	Get(ctx context.Context, id string) (Product, error)
	// ByMaterialAndCode includes soft-deleted products.
	ByMaterialAndCode(ctx context.Context, material Material, code string) (Product, error)
	Find(ctx context.Context, filter ProductFilter) ([]Product, error)
	Save(ctx context.Context, p Product) error
	Delete(ctx context.Context, id string) error
}

// StorageFilter selects storage records through their product.
type StorageFilter struct {
	Material *Material
	Code     string
}

type StorageRepository interface {
	Get(ctx context.Context, id string) (StorageRecord, error)
	ByProduct(ctx context.Context, productID string) (StorageRecord, error)
	Find(ctx context.Context, filter StorageFilter) ([]StorageRecord, error)
	Save(ctx context.Context, r StorageRecord) error
	Delete(ctx context.Context, id string) error
}

// =============================================================================
// RECEIVABLES
// =============================================================================

type CustomerRepository interface {
	Get(ctx context.Context, id string) (Customer, error)
	List(ctx context.Context) ([]Customer, error)
	ByName(ctx context.Context, name string) ([]Customer, error)
	ByPhone(ctx context.Context, phone string) ([]Customer, error)
	Save(ctx context.Context, c Customer) error
	Delete(ctx context.Context, id string) error
}

type ReturnedWaxRepository interface {
	Get(ctx context.Context, id string) (ReturnedWax, error)
	List(ctx context.Context) ([]ReturnedWax, error)
	ByCustomer(ctx context.Context, customerID string) ([]ReturnedWax, error)
	Save(ctx context.Context, r ReturnedWax) error
	Delete(ctx context.Context, id string) error
}

// =============================================================================
// HISTORY
// =============================================================================

// SaleFilter combines any of customer, product and date. Empty fields match all.
type SaleFilter struct {
	CustomerID string
	ProductID  string
	Date       *Date
}

func (f SaleFilter) Matches(s Sale) bool {
	return (f.CustomerID == "" || f.CustomerID == s.CustomerID) &&
		(f.ProductID == "" || f.ProductID == s.ProductID) &&
		(f.Date == nil || f.Date.Equal(s.Date))
}

type SaleRepository interface {
	Get(ctx context.Context, id string) (Sale, error)
	// Find returns matches ordered by date, oldest first.
	Find(ctx context.Context, filter SaleFilter) ([]Sale, error)
	Save(ctx context.Context, s Sale) error
	Delete(ctx context.Context, id string) error
}

// ProductionFilter selects productions by product, exact date or an
// inclusive date range.
type ProductionFilter struct {
	ProductID string
	Date      *Date
	From      *Date
	To        *Date
}

func (f ProductionFilter) Matches(p Production) bool {
	if f.ProductID != "" && f.ProductID != p.ProductID {
		return false
	}
	if f.Date != nil && !f.Date.Equal(p.Date) {
		return false
	}
	if f.From != nil && p.Date.Before(*f.From) {
		return false
	}
	return f.To == nil || !p.Date.After(*f.To)
}

type ProductionRepository interface {
	Get(ctx context.Context, id string) (Production, error)
	ByDateAndProduct(ctx context.Context, date Date, productID string) (Production, error)
	// Find returns matches ordered by date, oldest first.
	Find(ctx context.Context, filter ProductionFilter) ([]Production, error)
	Save(ctx context.Context, p Production) error
	Delete(ctx context.Context, id string) error
}
