// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/candleworks/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps every record in maps guarded by one RWMutex. A transaction
// holds the write lock until fn returns and restores a snapshot on error.
type Memory struct {
	mu   sync.RWMutex
	data tables
}

type tables struct {
	workers     map[string]generic.Worker
	leaves      map[string]generic.Leave
	products    map[string]generic.Product
	storage     map[string]generic.StorageRecord
	customers   map[string]generic.Customer
	sales       map[string]generic.Sale
	productions map[string]generic.Production
	wax         map[string]generic.ReturnedWax
	resets      map[string]generic.LeaveReset
}

func newTables() tables {
	return tables{
		workers:     make(map[string]generic.Worker),
		leaves:      make(map[string]generic.Leave),
		products:    make(map[string]generic.Product),
		storage:     make(map[string]generic.StorageRecord),
		customers:   make(map[string]generic.Customer),
		sales:       make(map[string]generic.Sale),
		productions: make(map[string]generic.Production),
		wax:         make(map[string]generic.ReturnedWax),
		resets:      make(map[string]generic.LeaveReset),
	}
}

func (t tables) clone() tables {
	return tables{
		workers:     copyMap(t.workers),
		leaves:      copyMap(t.leaves),
		products:    copyMap(t.products),
		storage:     copyMap(t.storage),
		customers:   copyMap(t.customers),
		sales:       copyMap(t.sales),
		productions: copyMap(t.productions),
		wax:         copyMap(t.wax),
		resets:      copyMap(t.resets),
	}
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func NewMemory() *Memory {
	return &Memory{data: newTables()}
}

var _ generic.Store = (*Memory)(nil)

// txKey marks a context that already holds this store's write lock.
type txKey struct{ m *Memory }

func (m *Memory) inTx(ctx context.Context) bool {
	held, _ := ctx.Value(txKey{m}).(bool)
	return held
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.inTx(ctx) {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	if err := fn(context.WithValue(ctx, txKey{m}, true)); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

func (m *Memory) read(ctx context.Context, fn func(t *tables)) {
	if !m.inTx(ctx) {
		m.mu.RLock()
		defer m.mu.RUnlock()
	}
	fn(&m.data)
}

func (m *Memory) write(ctx context.Context, fn func(t *tables) error) error {
	if !m.inTx(ctx) {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	return fn(&m.data)
}

// Reset clears all data (for testing/demo).
func (m *Memory) Reset(ctx context.Context) error {
	return m.write(ctx, func(t *tables) error {
		*t = newTables()
		return nil
	})
}

func (m *Memory) Workers() generic.WorkerRepository          { return memWorkers{m} }
func (m *Memory) Leaves() generic.LeaveRepository            { return memLeaves{m} }
func (m *Memory) Products() generic.ProductRepository        { return memProducts{m} }
func (m *Memory) Storage() generic.StorageRepository         { return memStorage{m} }
func (m *Memory) Customers() generic.CustomerRepository      { return memCustomers{m} }
func (m *Memory) Sales() generic.SaleRepository              { return memSales{m} }
func (m *Memory) Productions() generic.ProductionRepository  { return memProductions{m} }
func (m *Memory) ReturnedWax() generic.ReturnedWaxRepository { return memWax{m} }
func (m *Memory) Resets() generic.ResetRepository            { return memResets{m} }

// get looks a record up by ID under the read lock.
func get[V any](m *Memory, ctx context.Context, table func(*tables) map[string]V, entity, id string) (V, error) {
	var (
		v  V
		ok bool
	)
	m.read(ctx, func(t *tables) { v, ok = table(t)[id] })
	if !ok {
		return v, generic.NotFound(entity, id)
	}
	return v, nil
}

// filter collects the matching records and sorts them with less.
func filter[V any](m *Memory, ctx context.Context, table func(*tables) map[string]V, keep func(V) bool, less func(a, b V) bool) []V {
	out := []V{}
	m.read(ctx, func(t *tables) {
		for _, v := range table(t) {
			if keep == nil || keep(v) {
				out = append(out, v)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// =============================================================================
// WORKERS & LEAVES
// =============================================================================

type memWorkers struct{ m *Memory }

func workersOf(t *tables) map[string]generic.Worker { return t.workers }

func workerLess(a, b generic.Worker) bool {
	if a.LastName != b.LastName {
		return a.LastName < b.LastName
	}
	if a.FirstName != b.FirstName {
		return a.FirstName < b.FirstName
	}
	return a.ID < b.ID
}

func (r memWorkers) Get(ctx context.Context, id string) (generic.Worker, error) {
	return get(r.m, ctx, workersOf, "worker", id)
}

func (r memWorkers) List(ctx context.Context) ([]generic.Worker, error) {
	return filter(r.m, ctx, workersOf, nil, workerLess), nil
}

func (r memWorkers) Find(ctx context.Context, f generic.WorkerFilter) ([]generic.Worker, error) {
	return filter(r.m, ctx, workersOf, f.Matches, workerLess), nil
}

func (r memWorkers) Count(ctx context.Context) (int, error) {
	var n int
	r.m.read(ctx, func(t *tables) { n = len(t.workers) })
	return n, nil
}

func (r memWorkers) Save(ctx context.Context, w generic.Worker) error {
	return r.m.write(ctx, func(t *tables) error {
		t.workers[w.ID] = w
		return nil
	})
}

func (r memWorkers) Delete(ctx context.Context, id string) error {
	return r.m.write(ctx, func(t *tables) error {
		for _, l := range t.leaves {
			if l.WorkerID == id {
				return &generic.InUseError{Entity: "worker", ID: id, ReferencedBy: "leaves"}
			}
		}
		delete(t.workers, id)
		return nil
	})
}

func (r memWorkers) ResetLeaveDays(ctx context.Context) (int, error) {
	var n int
	err := r.m.write(ctx, func(t *tables) error {
		for id, w := range t.workers {
			w.LeaveDaysAccrued = 0
			t.workers[id] = w
		}
		n = len(t.workers)
		return nil
	})
	return n, err
}

type memLeaves struct{ m *Memory }

func leavesOf(t *tables) map[string]generic.Leave { return t.leaves }

func leaveLess(a, b generic.Leave) bool {
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.Before(b.StartDate)
	}
	return a.ID < b.ID
}

func (r memLeaves) Get(ctx context.Context, id string) (generic.Leave, error) {
	return get(r.m, ctx, leavesOf, "leave", id)
}

func (r memLeaves) List(ctx context.Context) ([]generic.Leave, error) {
	return filter(r.m, ctx, leavesOf, nil, leaveLess), nil
}

func (r memLeaves) Save(ctx context.Context, l generic.Leave) error {
	return r.m.write(ctx, func(t *tables) error {
		if _, ok := t.workers[l.WorkerID]; !ok {
			return generic.NotFound("worker", l.WorkerID)
		}
		t.leaves[l.ID] = l
		return nil
	})
}

func (r memLeaves) Delete(ctx context.Context, id string) error {
	return r.m.write(ctx, func(t *tables) error {
		delete(t.leaves, id)
		return nil
	})
}

func (r memLeaves) Overlapping(ctx context.Context, p generic.Period) ([]generic.Leave, error) {
	return filter(r.m, ctx, leavesOf, func(l generic.Leave) bool { return l.Period().Overlaps(p) }, leaveLess), nil
}

func (r memLeaves) ByWorker(ctx context.Context, workerID string) ([]generic.Leave, error) {
	return filter(r.m, ctx, leavesOf, func(l generic.Leave) bool { return l.WorkerID == workerID }, leaveLess), nil
}

func (r memLeaves) DeleteByWorker(ctx context.Context, workerID string) error {
	return r.m.write(ctx, func(t *tables) error {
		for id, l := range t.leaves {
			if l.WorkerID == workerID {
				delete(t.leaves, id)
			}
		}
		return nil
	})
}

type memResets struct{ m *Memory }

func (r memResets) Last(ctx context.Context) (generic.LeaveReset, error) {
	var (
		last  generic.LeaveReset
		found bool
	)
	r.m.read(ctx, func(t *tables) {
		for _, reset := range t.resets {
			if !found || reset.PeriodStart.After(last.PeriodStart) {
				last, found = reset, true
			}
		}
	})
	if !found {
		return last, generic.NotFound("leave reset", "")
	}
	return last, nil
}

func (r memResets) Record(ctx context.Context, reset generic.LeaveReset) error {
	return r.m.write(ctx, func(t *tables) error {
		key := reset.PeriodStart.String()
		if _, ok := t.resets[key]; ok {
			return generic.AlreadyExists("leave reset", key)
		}
		t.resets[key] = reset
		return nil
	})
}

// =============================================================================
// PRODUCTS & STORAGE
// =============================================================================

type memProducts struct{ m *Memory }

func productsOf(t *tables) map[string]generic.Product { return t.products }

func productLess(a, b generic.Product) bool {
	if a.Material != b.Material {
		return a.Material < b.Material
	}
	if a.Code != b.Code {
		return a.Code < b.Code
	}
	return a.ID < b.ID
}

func (r memProducts) Get(ctx context.Context, id string) (generic.Product, error) {
	return get(r.m, ctx, productsOf, "product", id)
}

func (r memProducts) ByMaterialAndCode(ctx context.Context, material generic.Material, code string) (generic.Product, error) {
	var (
		found generic.Product
		ok    bool
	)
	r.m.read(ctx, func(t *tables) {
		for _, p := range t.products {
			if p.Material == material && p.Code == code {
				found, ok = p, true
				return
			}
		}
	})
	if !ok {
		return found, generic.NotFound("product", string(material)+"/"+code)
	}
	return found, nil
}

func (r memProducts) Find(ctx context.Context, f generic.ProductFilter) ([]generic.Product, error) {
	return filter(r.m, ctx, productsOf, f.Matches, productLess), nil
}

func (r memProducts) Save(ctx context.Context, p generic.Product) error {
	return r.m.write(ctx, func(t *tables) error {
		for _, other := range t.products {
			if other.ID != p.ID && other.Material == p.Material && other.Code == p.Code {
				return generic.AlreadyExists("product", string(p.Material)+"/"+p.Code)
			}
		}
		t.products[p.ID] = p
		return nil
	})
}

func (r memProducts) Delete(ctx context.Context, id string) error {
	return r.m.write(ctx, func(t *tables) error {
		for _, s := range t.storage {
			if s.ProductID == id {
				return &generic.InUseError{Entity: "product", ID: id, ReferencedBy: "storage"}
			}
		}
		for _, s := range t.sales {
			if s.ProductID == id {
				return &generic.InUseError{Entity: "product", ID: id, ReferencedBy: "sales"}
			}
		}
		for _, p := range t.productions {
			if p.ProductID == id {
				return &generic.InUseError{Entity: "product", ID: id, ReferencedBy: "productions"}
			}
		}
		delete(t.products, id)
		return nil
	})
}

type memStorage struct{ m *Memory }

func storageOf(t *tables) map[string]generic.StorageRecord { return t.storage }

func (r memStorage) Get(ctx context.Context, id string) (generic.StorageRecord, error) {
	return get(r.m, ctx, storageOf, "storage", id)
}

func (r memStorage) ByProduct(ctx context.Context, productID string) (generic.StorageRecord, error) {
	var (
		found generic.StorageRecord
		ok    bool
	)
	r.m.read(ctx, func(t *tables) {
		for _, s := range t.storage {
			if s.ProductID == productID {
				found, ok = s, true
				return
			}
		}
	})
	if !ok {
		return found, generic.NotFound("storage for product", productID)
	}
	return found, nil
}

func (r memStorage) Find(ctx context.Context, f generic.StorageFilter) ([]generic.StorageRecord, error) {
	var out []generic.StorageRecord
	var products map[string]generic.Product
	r.m.read(ctx, func(t *tables) {
		products = copyMap(t.products)
		for _, s := range t.storage {
			p := products[s.ProductID]
			if f.Material != nil && *f.Material != p.Material {
				continue
			}
			if f.Code != "" && f.Code != p.Code {
				continue
			}
			out = append(out, s)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := products[out[i].ProductID], products[out[j].ProductID]
		if a.ID == b.ID {
			return out[i].ID < out[j].ID
		}
		return productLess(a, b)
	})
	if out == nil {
		out = []generic.StorageRecord{}
	}
	return out, nil
}

func (r memStorage) Save(ctx context.Context, s generic.StorageRecord) error {
	return r.m.write(ctx, func(t *tables) error {
		if _, ok := t.products[s.ProductID]; !ok {
			return generic.NotFound("product", s.ProductID)
		}
		for _, other := range t.storage {
			if other.ID != s.ID && other.ProductID == s.ProductID {
				return generic.AlreadyExists("storage for product", s.ProductID)
			}
		}
		t.storage[s.ID] = s
		return nil
	})
}

func (r memStorage) Delete(ctx context.Context, id string) error {
	return r.m.write(ctx, func(t *tables) error {
		delete(t.storage, id)
		return nil
	})
}

// =============================================================================
// CUSTOMERS & RETURNED WAX
// =============================================================================

type memCustomers struct{ m *Memory }

func customersOf(t *tables) map[string]generic.Customer { return t.customers }

func customerLess(a, b generic.Customer) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}

func (r memCustomers) Get(ctx context.Context, id string) (generic.Customer, error) {
	return get(r.m, ctx, customersOf, "customer", id)
}

func (r memCustomers) List(ctx context.Context) ([]generic.Customer, error) {
	return filter(r.m, ctx, customersOf, nil, customerLess), nil
}

func (r memCustomers) ByName(ctx context.Context, name string) ([]generic.Customer, error) {
	return filter(r.m, ctx, customersOf, func(c generic.Customer) bool { return c.Name == name }, customerLess), nil
}

func (r memCustomers) ByPhone(ctx context.Context, phone string) ([]generic.Customer, error) {
	return filter(r.m, ctx, customersOf, func(c generic.Customer) bool { return c.Phone == phone }, customerLess), nil
}

func (r memCustomers) Save(ctx context.Context, c generic.Customer) error {
	return r.m.write(ctx, func(t *tables) error {
		t.customers[c.ID] = c
		return nil
	})
}

func (r memCustomers) Delete(ctx context.Context, id string) error {
	return r.m.write(ctx, func(t *tables) error {
		for _, s := range t.sales {
			if s.CustomerID == id {
				return &generic.InUseError{Entity: "customer", ID: id, ReferencedBy: "sales"}
			}
		}
		for _, w := range t.wax {
			if w.CustomerID == id {
				return &generic.InUseError{Entity: "customer", ID: id, ReferencedBy: "returned wax"}
			}
		}
		delete(t.customers, id)
		return nil
	})
}

type memWax struct{ m *Memory }

func waxOf(t *tables) map[string]generic.ReturnedWax { return t.wax }

func waxLess(a, b generic.ReturnedWax) bool {
	if !a.ReturnDate.Equal(b.ReturnDate) {
		return a.ReturnDate.Before(b.ReturnDate)
	}
	return a.ID < b.ID
}

func (r memWax) Get(ctx context.Context, id string) (generic.ReturnedWax, error) {
	return get(r.m, ctx, waxOf, "returned wax", id)
}

func (r memWax) List(ctx context.Context) ([]generic.ReturnedWax, error) {
	return filter(r.m, ctx, waxOf, nil, waxLess), nil
}

func (r memWax) ByCustomer(ctx context.Context, customerID string) ([]generic.ReturnedWax, error) {
	return filter(r.m, ctx, waxOf, func(w generic.ReturnedWax) bool { return w.CustomerID == customerID }, waxLess), nil
}

func (r memWax) Save(ctx context.Context, w generic.ReturnedWax) error {
	return r.m.write(ctx, func(t *tables) error {
		if _, ok := t.customers[w.CustomerID]; !ok {
			return generic.NotFound("customer", w.CustomerID)
		}
		t.wax[w.ID] = w
		return nil
	})
}

func (r memWax) Delete(ctx context.Context, id string) error {
	return r.m.write(ctx, func(t *tables) error {
		delete(t.wax, id)
		return nil
	})
}

// =============================================================================
// SALES & PRODUCTIONS
// =============================================================================

type memSales struct{ m *Memory }

func salesOf(t *tables) map[string]generic.Sale { return t.sales }

func saleLess(a, b generic.Sale) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.ID < b.ID
}

func (r memSales) Get(ctx context.Context, id string) (generic.Sale, error) {
	return get(r.m, ctx, salesOf, "sale", id)
}

func (r memSales) Find(ctx context.Context, f generic.SaleFilter) ([]generic.Sale, error) {
	return filter(r.m, ctx, salesOf, f.Matches, saleLess), nil
}

func (r memSales) Save(ctx context.Context, s generic.Sale) error {
	return r.m.write(ctx, func(t *tables) error {
		if _, ok := t.customers[s.CustomerID]; !ok {
			return generic.NotFound("customer", s.CustomerID)
		}
		if _, ok := t.products[s.ProductID]; !ok {
			return generic.NotFound("product", s.ProductID)
		}
		t.sales[s.ID] = s
		return nil
	})
}

func (r memSales) Delete(ctx context.Context, id string) error {
	return r.m.write(ctx, func(t *tables) error {
		delete(t.sales, id)
		return nil
	})
}

type memProductions struct{ m *Memory }

func productionsOf(t *tables) map[string]generic.Production { return t.productions }

func productionLess(a, b generic.Production) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.ID < b.ID
}

func (r memProductions) Get(ctx context.Context, id string) (generic.Production, error) {
	return get(r.m, ctx, productionsOf, "production", id)
}

func (r memProductions) ByDateAndProduct(ctx context.Context, date generic.Date, productID string) (generic.Production, error) {
	matches := filter(r.m, ctx, productionsOf, func(p generic.Production) bool {
		return p.ProductID == productID && p.Date.Equal(date)
	}, productionLess)
	if len(matches) == 0 {
		return generic.Production{}, generic.NotFound("production", date.String()+"/"+productID)
	}
	return matches[0], nil
}

func (r memProductions) Find(ctx context.Context, f generic.ProductionFilter) ([]generic.Production, error) {
	return filter(r.m, ctx, productionsOf, f.Matches, productionLess), nil
}

func (r memProductions) Save(ctx context.Context, p generic.Production) error {
	return r.m.write(ctx, func(t *tables) error {
		if _, ok := t.products[p.ProductID]; !ok {
			return generic.NotFound("product", p.ProductID)
		}
		for _, other := range t.productions {
			if other.ID != p.ID && other.ProductID == p.ProductID && other.Date.Equal(p.Date) {
				return generic.AlreadyExists("production", p.Date.String()+"/"+p.ProductID)
			}
		}
		t.productions[p.ID] = p
		return nil
	})
}

func (r memProductions) Delete(ctx context.Context, id string) error {
	return r.m.write(ctx, func(t *tables) error {
		delete(t.productions, id)
		return nil
	})
}
