/*
Package sqlite provides a SQLite-backed implementation of generic.Store.

PURPOSE:
  Persists workers, leaves, products, storage, customers, sales, productions
  and returned wax. The schema lives in versioned migrations embedded in the
  binary and applied with golang-migrate on New().

KEY TABLES:
  workers, leaves, leave_resets   workforce and yearly counter resets
  products, storage               catalog and one stock counter per product
  customers, returned_wax         receivables
  sales, productions              history records

CONSTRAINTS:
  - UNIQUE(material, code) on products
  - UNIQUE(product_id) on storage
  - UNIQUE(product_id, date) on productions
  - foreign keys from leaves/storage/sales/productions/returned_wax
  Driver errors are translated: UNIQUE -> generic.AlreadyExistsError,
  FOREIGN KEY on delete -> generic.InUseError.

TRANSACTIONS:
  WithTx begins a *sql.Tx and stores it in the context; every repository
  call picks the tx from the context when present. The pool is limited to
  one connection and writers take a mutex, so there is a single writer at
  a time.

ENCODING:
  Decimals are TEXT (decimal.Decimal implements driver.Valuer/sql.Scanner),
  dates are TEXT in YYYY-MM-DD so range comparisons work lexically.

USAGE:
  store, err := sqlite.New("./candleworks.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
  - cmd/migrate: running the same migrations by hand
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mattn/go-sqlite3"

	"github.com/warp/candleworks/generic"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsSource exposes the embedded migrations to golang-migrate.
func MigrationsSource() (source.Driver, error) {
	return iofs.New(migrationsFS, "migrations")
}

// Store implements generic.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

var _ generic.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: ":memory:" databases are per-connection, and SQLite
	// has a single writer anyway.
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := MigrationsSource()
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	drv, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// m.Close() would close db as well; the store owns it.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{ s *Store }

func (s *Store) txFrom(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{s}).(*sql.Tx)
	return tx, ok
}

// q returns the transaction carried by ctx, or the pool.
func (s *Store) q(ctx context.Context) queryer {
	if tx, ok := s.txFrom(ctx); ok {
		return tx
	}
	return s.db
}

// exec runs a single write, serialized with running transactions.
func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if tx, ok := s.txFrom(ctx); ok {
		return tx.ExecContext(ctx, query, args...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.ExecContext(ctx, query, args...)
}

// WithTx executes fn within a database transaction. A ctx that already
// carries a transaction joins it.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := s.txFrom(ctx); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{s}, sqlTx)); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{"productions", "sales", "returned_wax", "customers", "storage",
		"products", "leave_resets", "leaves", "workers"}
	return s.WithTx(ctx, func(ctx context.Context) error {
		for _, table := range tables {
			if _, err := s.q(ctx).ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Workers() generic.WorkerRepository          { return workers{s} }
func (s *Store) Leaves() generic.LeaveRepository            { return leaves{s} }
func (s *Store) Products() generic.ProductRepository        { return products{s} }
func (s *Store) Storage() generic.StorageRepository         { return storage{s} }
func (s *Store) Customers() generic.CustomerRepository      { return customers{s} }
func (s *Store) Sales() generic.SaleRepository              { return sales{s} }
func (s *Store) Productions() generic.ProductionRepository  { return productions{s} }
func (s *Store) ReturnedWax() generic.ReturnedWaxRepository { return returnedWax{s} }
func (s *Store) Resets() generic.ResetRepository            { return resets{s} }

// =============================================================================
// WORKERS
// =============================================================================

type workers struct{ s *Store }

const workerColumns = "id, first_name, last_name, phone, leave_days_accrued"

func scanWorker(row interface{ Scan(...any) error }) (generic.Worker, error) {
	var w generic.Worker
	err := row.Scan(&w.ID, &w.FirstName, &w.LastName, &w.Phone, &w.LeaveDaysAccrued)
	return w, err
}

func (r workers) Get(ctx context.Context, id string) (generic.Worker, error) {
	w, err := scanWorker(r.s.q(ctx).QueryRowContext(ctx,
		"SELECT "+workerColumns+" FROM workers WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return w, generic.NotFound("worker", id)
	}
	if err != nil {
		return w, fmt.Errorf("failed to get worker: %w", err)
	}
	return w, nil
}

func (r workers) List(ctx context.Context) ([]generic.Worker, error) {
	return r.Find(ctx, generic.WorkerFilter{})
}

func (r workers) Find(ctx context.Context, f generic.WorkerFilter) ([]generic.Worker, error) {
	query := `
		SELECT ` + workerColumns + ` FROM workers
		WHERE (? = '' OR first_name = ?)
		  AND (? = '' OR last_name = ?)
		  AND (? = '' OR phone = ?)
		ORDER BY last_name, first_name, id
	`
	return queryAll(ctx, r.s, scanWorker, query,
		f.FirstName, f.FirstName, f.LastName, f.LastName, f.Phone, f.Phone)
}

func (r workers) Count(ctx context.Context) (int, error) {
	var n int
	err := r.s.q(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM workers").Scan(&n)
	return n, err
}

func (r workers) Save(ctx context.Context, w generic.Worker) error {
	query := `
		INSERT INTO workers (id, first_name, last_name, phone, leave_days_accrued, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			phone = excluded.phone,
			leave_days_accrued = excluded.leave_days_accrued
	`
	_, err := r.s.exec(ctx, query, w.ID, w.FirstName, w.LastName, w.Phone, w.LeaveDaysAccrued,
		time.Now().UTC().Format(time.RFC3339))
	return translate(err, "worker", w.ID, opSave)
}

func (r workers) Delete(ctx context.Context, id string) error {
	_, err := r.s.exec(ctx, "DELETE FROM workers WHERE id = ?", id)
	return translate(err, "worker", id, opDelete)
}

func (r workers) ResetLeaveDays(ctx context.Context) (int, error) {
	res, err := r.s.exec(ctx, "UPDATE workers SET leave_days_accrued = 0")
	if err != nil {
		return 0, fmt.Errorf("failed to reset leave days: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// =============================================================================
// LEAVES
// =============================================================================

type leaves struct{ s *Store }

const leaveColumns = "id, worker_id, start_date, end_date"

func scanLeave(row interface{ Scan(...any) error }) (generic.Leave, error) {
	var (
		l          generic.Leave
		start, end string
	)
	if err := row.Scan(&l.ID, &l.WorkerID, &start, &end); err != nil {
		return l, err
	}
	var err error
	if l.StartDate, err = generic.ParseDate(start); err != nil {
		return l, err
	}
	l.EndDate, err = generic.ParseDate(end)
	return l, err
}

func (r leaves) Get(ctx context.Context, id string) (generic.Leave, error) {
	l, err := scanLeave(r.s.q(ctx).QueryRowContext(ctx,
		"SELECT "+leaveColumns+" FROM leaves WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return l, generic.NotFound("leave", id)
	}
	if err != nil {
		return l, fmt.Errorf("failed to get leave: %w", err)
	}
	return l, nil
}

func (r leaves) List(ctx context.Context) ([]generic.Leave, error) {
	return queryAll(ctx, r.s, scanLeave,
		"SELECT "+leaveColumns+" FROM leaves ORDER BY start_date, id")
}

func (r leaves) Save(ctx context.Context, l generic.Leave) error {
	query := `
		INSERT INTO leaves (id, worker_id, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			worker_id = excluded.worker_id,
			start_date = excluded.start_date,
			end_date = excluded.end_date
	`
	_, err := r.s.exec(ctx, query, l.ID, l.WorkerID, l.StartDate.String(), l.EndDate.String(),
		time.Now().UTC().Format(time.RFC3339))
	return translate(err, "leave", l.ID, opSave)
}

func (r leaves) Delete(ctx context.Context, id string) error {
	_, err := r.s.exec(ctx, "DELETE FROM leaves WHERE id = ?", id)
	return translate(err, "leave", id, opDelete)
}

func (r leaves) Overlapping(ctx context.Context, p generic.Period) ([]generic.Leave, error) {
	return queryAll(ctx, r.s, scanLeave,
		"SELECT "+leaveColumns+" FROM leaves WHERE start_date <= ? AND end_date >= ? ORDER BY start_date, id",
		p.End.String(), p.Start.String())
}

func (r leaves) ByWorker(ctx context.Context, workerID string) ([]generic.Leave, error) {
	return queryAll(ctx, r.s, scanLeave,
		"SELECT "+leaveColumns+" FROM leaves WHERE worker_id = ? ORDER BY start_date, id", workerID)
}

func (r leaves) DeleteByWorker(ctx context.Context, workerID string) error {
	_, err := r.s.exec(ctx, "DELETE FROM leaves WHERE worker_id = ?", workerID)
	return translate(err, "leaves of worker", workerID, opDelete)
}

type resets struct{ s *Store }

func (r resets) Last(ctx context.Context) (generic.LeaveReset, error) {
	var (
		reset            generic.LeaveReset
		period, resetAt string
	)
	err := r.s.q(ctx).QueryRowContext(ctx,
		"SELECT period_start, workers, reset_at FROM leave_resets ORDER BY period_start DESC LIMIT 1",
	).Scan(&period, &reset.Workers, &resetAt)
	if errors.Is(err, sql.ErrNoRows) {
		return reset, generic.NotFound("leave reset", "")
	}
	if err != nil {
		return reset, fmt.Errorf("failed to get last leave reset: %w", err)
	}
	if reset.PeriodStart, err = generic.ParseDate(period); err != nil {
		return reset, err
	}
	reset.ResetAt, _ = time.Parse(time.RFC3339, resetAt)
	return reset, nil
}

func (r resets) Record(ctx context.Context, reset generic.LeaveReset) error {
	_, err := r.s.exec(ctx,
		"INSERT INTO leave_resets (period_start, workers, reset_at) VALUES (?, ?, ?)",
		reset.PeriodStart.String(), reset.Workers, reset.ResetAt.UTC().Format(time.RFC3339))
	return translate(err, "leave reset", reset.PeriodStart.String(), opSave)
}

// =============================================================================
// PRODUCTS & STORAGE
// =============================================================================

type products struct{ s *Store }

const productColumns = "id, code, material, price, by_weight, deleted"

func scanProduct(row interface{ Scan(...any) error }) (generic.Product, error) {
	var (
		p        generic.Product
		material string
	)
	err := row.Scan(&p.ID, &p.Code, &material, &p.Price, &p.ByWeight, &p.Deleted)
	p.Material = generic.Material(material)
	return p, err
}

func (r products) Get(ctx context.Context, id string) (generic.Product, error) {
	p, err := scanProduct(r.s.q(ctx).QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, generic.NotFound("product", id)
	}
	if err != nil {
		return p, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r products) ByMaterialAndCode(ctx context.Context, material generic.Material, code string) (generic.Product, error) {
	p, err := scanProduct(r.s.q(ctx).QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE material = ? AND code = ?", string(material), code))
	if errors.Is(err, sql.ErrNoRows) {
		return p, generic.NotFound("product", string(material)+"/"+code)
	}
	if err != nil {
		return p, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r products) Find(ctx context.Context, f generic.ProductFilter) ([]generic.Product, error) {
	query := `
		SELECT ` + productColumns + ` FROM products
		WHERE (? OR deleted = 0)
		  AND (? = '' OR material = ?)
		  AND (? = '' OR code = ?)
		ORDER BY material, code, id
	`
	material := materialArg(f.Material)
	return queryAll(ctx, r.s, scanProduct, query,
		f.IncludeDeleted, material, material, f.Code, f.Code)
}

func (r products) Save(ctx context.Context, p generic.Product) error {
	query := `
		INSERT INTO products (id, code, material, price, by_weight, deleted)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			material = excluded.material,
			price = excluded.price,
			by_weight = excluded.by_weight,
			deleted = excluded.deleted
	`
	_, err := r.s.exec(ctx, query, p.ID, p.Code, string(p.Material), p.Price, p.ByWeight, p.Deleted)
	return translate(err, "product", string(p.Material)+"/"+p.Code, opSave)
}

func (r products) Delete(ctx context.Context, id string) error {
	_, err := r.s.exec(ctx, "DELETE FROM products WHERE id = ?", id)
	return translate(err, "product", id, opDelete)
}

type storage struct{ s *Store }

func scanStorage(row interface{ Scan(...any) error }) (generic.StorageRecord, error) {
	var rec generic.StorageRecord
	err := row.Scan(&rec.ID, &rec.ProductID, &rec.Quantity)
	return rec, err
}

func (r storage) Get(ctx context.Context, id string) (generic.StorageRecord, error) {
	rec, err := scanStorage(r.s.q(ctx).QueryRowContext(ctx,
		"SELECT id, product_id, quantity FROM storage WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return rec, generic.NotFound("storage", id)
	}
	if err != nil {
		return rec, fmt.Errorf("failed to get storage: %w", err)
	}
	return rec, nil
}

func (r storage) ByProduct(ctx context.Context, productID string) (generic.StorageRecord, error) {
	rec, err := scanStorage(r.s.q(ctx).QueryRowContext(ctx,
		"SELECT id, product_id, quantity FROM storage WHERE product_id = ?", productID))
	if errors.Is(err, sql.ErrNoRows) {
		return rec, generic.NotFound("storage for product", productID)
	}
	if err != nil {
		return rec, fmt.Errorf("failed to get storage: %w", err)
	}
	return rec, nil
}

func (r storage) Find(ctx context.Context, f generic.StorageFilter) ([]generic.StorageRecord, error) {
	query := `
		SELECT s.id, s.product_id, s.quantity
		FROM storage s JOIN products p ON p.id = s.product_id
		WHERE (? = '' OR p.material = ?)
		  AND (? = '' OR p.code = ?)
		ORDER BY p.material, p.code, s.id
	`
	material := materialArg(f.Material)
	return queryAll(ctx, r.s, scanStorage, query, material, material, f.Code, f.Code)
}

func (r storage) Save(ctx context.Context, rec generic.StorageRecord) error {
	query := `
		INSERT INTO storage (id, product_id, quantity)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			product_id = excluded.product_id,
			quantity = excluded.quantity
	`
	_, err := r.s.exec(ctx, query, rec.ID, rec.ProductID, rec.Quantity)
	return translate(err, "storage for product", rec.ProductID, opSave)
}

func (r storage) Delete(ctx context.Context, id string) error {
	_, err := r.s.exec(ctx, "DELETE FROM storage WHERE id = ?", id)
	return translate(err, "storage", id, opDelete)
}

// =============================================================================
// CUSTOMERS & RETURNED WAX
// =============================================================================

type customers struct{ s *Store }

const customerColumns = "id, name, phone, debt"

func scanCustomer(row interface{ Scan(...any) error }) (generic.Customer, error) {
	var c generic.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Debt)
	return c, err
}

func (r customers) Get(ctx context.Context, id string) (generic.Customer, error) {
	c, err := scanCustomer(r.s.q(ctx).QueryRowContext(ctx,
		"SELECT "+customerColumns+" FROM customers WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, generic.NotFound("customer", id)
	}
	if err != nil {
		return c, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

func (r customers) List(ctx context.Context) ([]generic.Customer, error) {
	return queryAll(ctx, r.s, scanCustomer,
		"SELECT "+customerColumns+" FROM customers ORDER BY name, id")
}

func (r customers) ByName(ctx context.Context, name string) ([]generic.Customer, error) {
	return queryAll(ctx, r.s, scanCustomer,
		"SELECT "+customerColumns+" FROM customers WHERE name = ? ORDER BY name, id", name)
}

func (r customers) ByPhone(ctx context.Context, phone string) ([]generic.Customer, error) {
	return queryAll(ctx, r.s, scanCustomer,
		"SELECT "+customerColumns+" FROM customers WHERE phone = ? ORDER BY name, id", phone)
}

func (r customers) Save(ctx context.Context, c generic.Customer) error {
	query := `
		INSERT INTO customers (id, name, phone, debt)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			debt = excluded.debt
	`
	_, err := r.s.exec(ctx, query, c.ID, c.Name, c.Phone, c.Debt)
	return translate(err, "customer", c.ID, opSave)
}

func (r customers) Delete(ctx context.Context, id string) error {
	_, err := r.s.exec(ctx, "DELETE FROM customers WHERE id = ?", id)
	return translate(err, "customer", id, opDelete)
}

type returnedWax struct{ s *Store }

const waxColumns = "id, customer_id, return_date, material, weight, value, note"

func scanWax(row interface{ Scan(...any) error }) (generic.ReturnedWax, error) {
	var (
		w              generic.ReturnedWax
		date, material string
	)
	if err := row.Scan(&w.ID, &w.CustomerID, &date, &material, &w.Weight, &w.Value, &w.Note); err != nil {
		return w, err
	}
	w.Material = generic.Material(material)
	var err error
	w.ReturnDate, err = generic.ParseDate(date)
	return w, err
}

func (r returnedWax) Get(ctx context.Context, id string) (generic.ReturnedWax, error) {
	w, err := scanWax(r.s.q(ctx).QueryRowContext(ctx,
		"SELECT "+waxColumns+" FROM returned_wax WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return w, generic.NotFound("returned wax", id)
	}
	if err != nil {
		return w, fmt.Errorf("failed to get returned wax: %w", err)
	}
	return w, nil
}

func (r returnedWax) List(ctx context.Context) ([]generic.ReturnedWax, error) {
	return queryAll(ctx, r.s, scanWax,
		"SELECT "+waxColumns+" FROM returned_wax ORDER BY return_date, id")
}

func (r returnedWax) ByCustomer(ctx context.Context, customerID string) ([]generic.ReturnedWax, error) {
	return queryAll(ctx, r.s, scanWax,
		"SELECT "+waxColumns+" FROM returned_wax WHERE customer_id = ? ORDER BY return_date, id", customerID)
}

func (r returnedWax) Save(ctx context.Context, w generic.ReturnedWax) error {
	query := `
		INSERT INTO returned_wax (id, customer_id, return_date, material, weight, value, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			customer_id = excluded.customer_id,
			return_date = excluded.return_date,
			material = excluded.material,
			weight = excluded.weight,
			value = excluded.value,
			note = excluded.note
	`
	_, err := r.s.exec(ctx, query, w.ID, w.CustomerID, w.ReturnDate.String(), string(w.Material),
		w.Weight, w.Value, w.Note)
	return translate(err, "returned wax", w.ID, opSave)
}

func (r returnedWax) Delete(ctx context.Context, id string) error {
	_, err := r.s.exec(ctx, "DELETE FROM returned_wax WHERE id = ?", id)
	return translate(err, "returned wax", id, opDelete)
}

// =============================================================================
// SALES & PRODUCTIONS
// =============================================================================

type sales struct{ s *Store }

const saleColumns = "id, customer_id, product_id, date, quantity, cost"

func scanSale(row interface{ Scan(...any) error }) (generic.Sale, error) {
	var (
		sale generic.Sale
		date string
	)
	if err := row.Scan(&sale.ID, &sale.CustomerID, &sale.ProductID, &date, &sale.Quantity, &sale.Cost); err != nil {
		return sale, err
	}
	var err error
	sale.Date, err = generic.ParseDate(date)
	return sale, err
}

func (r sales) Get(ctx context.Context, id string) (generic.Sale, error) {
	sale, err := scanSale(r.s.q(ctx).QueryRowContext(ctx,
		"SELECT "+saleColumns+" FROM sales WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return sale, generic.NotFound("sale", id)
	}
	if err != nil {
		return sale, fmt.Errorf("failed to get sale: %w", err)
	}
	return sale, nil
}

func (r sales) Find(ctx context.Context, f generic.SaleFilter) ([]generic.Sale, error) {
	query := `
		SELECT ` + saleColumns + ` FROM sales
		WHERE (? = '' OR customer_id = ?)
		  AND (? = '' OR product_id = ?)
		  AND (? = '' OR date = ?)
		ORDER BY date, id
	`
	date := dateArg(f.Date)
	return queryAll(ctx, r.s, scanSale, query,
		f.CustomerID, f.CustomerID, f.ProductID, f.ProductID, date, date)
}

func (r sales) Save(ctx context.Context, sale generic.Sale) error {
	query := `
		INSERT INTO sales (id, customer_id, product_id, date, quantity, cost)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			customer_id = excluded.customer_id,
			product_id = excluded.product_id,
			date = excluded.date,
			quantity = excluded.quantity,
			cost = excluded.cost
	`
	_, err := r.s.exec(ctx, query, sale.ID, sale.CustomerID, sale.ProductID, sale.Date.String(),
		sale.Quantity, sale.Cost)
	return translate(err, "sale", sale.ID, opSave)
}

func (r sales) Delete(ctx context.Context, id string) error {
	_, err := r.s.exec(ctx, "DELETE FROM sales WHERE id = ?", id)
	return translate(err, "sale", id, opDelete)
}

type productions struct{ s *Store }

const productionColumns = "id, product_id, date, quantity"

func scanProduction(row interface{ Scan(...any) error }) (generic.Production, error) {
	var (
		p    generic.Production
		date string
	)
	if err := row.Scan(&p.ID, &p.ProductID, &date, &p.Quantity); err != nil {
		return p, err
	}
	var err error
	p.Date, err = generic.ParseDate(date)
	return p, err
}

func (r productions) Get(ctx context.Context, id string) (generic.Production, error) {
	p, err := scanProduction(r.s.q(ctx).QueryRowContext(ctx,
		"SELECT "+productionColumns+" FROM productions WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, generic.NotFound("production", id)
	}
	if err != nil {
		return p, fmt.Errorf("failed to get production: %w", err)
	}
	return p, nil
}

func (r productions) ByDateAndProduct(ctx context.Context, date generic.Date, productID string) (generic.Production, error) {
	p, err := scanProduction(r.s.q(ctx).QueryRowContext(ctx,
		"SELECT "+productionColumns+" FROM productions WHERE date = ? AND product_id = ?",
		date.String(), productID))
	if errors.Is(err, sql.ErrNoRows) {
		return p, generic.NotFound("production", date.String()+"/"+productID)
	}
	if err != nil {
		return p, fmt.Errorf("failed to get production: %w", err)
	}
	return p, nil
}

func (r productions) Find(ctx context.Context, f generic.ProductionFilter) ([]generic.Production, error) {
	query := `
		SELECT ` + productionColumns + ` FROM productions
		WHERE (? = '' OR product_id = ?)
		  AND (? = '' OR date = ?)
		  AND (? = '' OR date >= ?)
		  AND (? = '' OR date <= ?)
		ORDER BY date, id
	`
	date, from, to := dateArg(f.Date), dateArg(f.From), dateArg(f.To)
	return queryAll(ctx, r.s, scanProduction, query,
		f.ProductID, f.ProductID, date, date, from, from, to, to)
}

func (r productions) Save(ctx context.Context, p generic.Production) error {
	query := `
		INSERT INTO productions (id, product_id, date, quantity)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			product_id = excluded.product_id,
			date = excluded.date,
			quantity = excluded.quantity
	`
	_, err := r.s.exec(ctx, query, p.ID, p.ProductID, p.Date.String(), p.Quantity)
	return translate(err, "production", p.Date.String()+"/"+p.ProductID, opSave)
}

func (r productions) Delete(ctx context.Context, id string) error {
	_, err := r.s.exec(ctx, "DELETE FROM productions WHERE id = ?", id)
	return translate(err, "production", id, opDelete)
}

// =============================================================================
// HELPERS
// =============================================================================

func queryAll[T any](ctx context.Context, s *Store, scan func(interface{ Scan(...any) error }) (T, error), query string, args ...any) ([]T, error) {
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func materialArg(m *generic.Material) string {
	if m == nil {
		return ""
	}
	return string(*m)
}

func dateArg(d *generic.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

type op int

const (
	opSave op = iota
	opDelete
)

// translate maps constraint failures onto the generic error kinds.
func translate(err error, entity, key string, o op) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return generic.AlreadyExists(entity, key)
		case sqlite3.ErrConstraintForeignKey:
			if o == opDelete {
				return &generic.InUseError{Entity: entity, ID: key, ReferencedBy: "other records"}
			}
			return generic.Invalid(entity, "references a record that does not exist")
		case sqlite3.ErrConstraintCheck:
			return generic.Invalid(entity, strings.TrimPrefix(sqliteErr.Error(), "CHECK constraint failed: "))
		}
	}
	verb := "save"
	if o == opDelete {
		verb = "delete"
	}
	return fmt.Errorf("failed to %s %s: %w", verb, entity, err)
}
