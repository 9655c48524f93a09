/*
handlers.go - HTTP API handlers for the candle workshop

PURPOSE:
  Exposes the workshop components over REST. Handlers parse the request,
  call one component operation, and serialize the result. No business rule
  lives here.

ENDPOINTS:
  Workers & leaves:
    GET/POST        /api/workers                list (?first_name&last_name&phone) / register
    GET/PUT/DELETE  /api/workers/{id}
    GET             /api/workers/{id}/leaves
    GET/POST        /api/leaves                 list (?date) / add
    GET             /api/leaves/today
    PUT/DELETE      /api/leaves/{id}
    POST            /api/admin/leave-reset

  Catalog & storage:
    GET/POST        /api/products               list (?material&code) / add
    GET             /api/products/specific      ?material&code
    GET/PUT/DELETE  /api/products/{id}          DELETE is a soft delete
    DELETE          /api/products/{id}/hard
    GET/POST        /api/storage                list (?material&code) / open
    GET             /api/storage/export
    GET             /api/storage/product/{productId}
    PUT/DELETE      /api/storage/{id}

  Customers, sales, production:
    GET/POST        /api/customers              list (?name | ?phone) / add
    GET/PUT/DELETE  /api/customers/{id}
    GET             /api/customers/{id}/balance
    GET/POST        /api/sales                  list (?customer_id&product_id&date) / create
    GET             /api/sales/export
    GET/PUT/DELETE  /api/sales/{id}
    GET/POST        /api/productions            list (?product_id&date | ?from&to) / create
    GET/PUT/DELETE  /api/productions/{id}
    GET/POST        /api/returned-wax
    DELETE          /api/returned-wax/{id}

ERROR HANDLING:
  Component errors go through writeDomainError (errors.go), which maps the
  error kind to the status code. Empty list queries are NotFound (404),
  except for sales, productions and returned wax which answer [].

SEE ALSO:
  - dto.go: request/response shapes
  - scenarios.go: demo data loaders
  - server.go: router and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/warp/candleworks/generic"
	"github.com/warp/candleworks/inventory"
	"github.com/warp/candleworks/production"
	"github.com/warp/candleworks/receivables"
	"github.com/warp/candleworks/report"
	"github.com/warp/candleworks/sales"
	"github.com/warp/candleworks/timeoff"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Options configures the components a Handler builds.
type Options struct {
	Clock      generic.Clock
	PolicyYear generic.PolicyYear
	// AllowSelfOverlap lets a worker book leaves overlapping their own.
	AllowSelfOverlap bool
	Logger           *slog.Logger
	Metrics          *Metrics
}

// Handler holds the workshop components behind the HTTP endpoints.
type Handler struct {
	store generic.Store
	clock generic.Clock
	log   *slog.Logger

	roster     *timeoff.Roster
	leaves     *timeoff.Scheduler
	catalog    *inventory.Catalog
	stock      *inventory.Ledger
	customers  *receivables.Customers
	debts      *receivables.Ledger
	wax        *receivables.ReturnedWaxLog
	sales      *sales.Coordinator
	production *production.Coordinator
	metrics    *Metrics

	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires every component on top of store.
func NewHandler(store generic.Store, opts Options) *Handler {
	if opts.Clock == nil {
		opts.Clock = generic.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	log := opts.Logger

	leaveOpts := []timeoff.Option{
		timeoff.WithClock(opts.Clock),
		timeoff.WithPolicyYear(opts.PolicyYear),
		timeoff.WithSelfOverlapRejection(!opts.AllowSelfOverlap),
		timeoff.WithLogger(log),
	}
	stock := inventory.NewLedger(store, log)
	debts := receivables.NewLedger(store, log)

	return &Handler{
		store:      store,
		clock:      opts.Clock,
		log:        log.With("component", "api"),
		roster:     timeoff.NewRoster(store, leaveOpts...),
		leaves:     timeoff.NewScheduler(store, leaveOpts...),
		catalog:    inventory.NewCatalog(store, stock, log),
		stock:      stock,
		customers:  receivables.NewCustomers(store, log),
		debts:      debts,
		wax:        receivables.NewReturnedWaxLog(store, opts.Clock, log),
		sales:      sales.NewCoordinator(store, stock, debts, opts.Clock, log),
		production: production.NewCoordinator(store, stock, opts.Clock, log),
		metrics:    opts.Metrics,
	}
}

// Scheduler exposes the leave scheduler for the periodic reset job.
func (h *Handler) Scheduler() *timeoff.Scheduler {
	return h.leaves
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return generic.Invalid("body", err.Error())
	}
	return nil
}

func parseMaterialParam(r *http.Request) (*generic.Material, error) {
	raw := r.URL.Query().Get("material")
	if raw == "" {
		return nil, nil
	}
	m, err := generic.ParseMaterial(raw)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func parseDateParam(r *http.Request, name string) (*generic.Date, error) {
	d, err := parseOptionalDate(r.URL.Query().Get(name))
	if err != nil {
		return nil, generic.Invalid(name, err.Error())
	}
	if d.IsZero() {
		return nil, nil
	}
	return &d, nil
}

// =============================================================================
// WORKERS
// =============================================================================

// ListWorkers returns all workers, or those matching the query filters.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := generic.WorkerFilter{FirstName: q.Get("first_name"), LastName: q.Get("last_name"), Phone: q.Get("phone")}

	var (
		workers []generic.Worker
		err     error
	)
	if f == (generic.WorkerFilter{}) {
		workers, err = h.roster.All(r.Context())
	} else {
		workers, err = h.roster.Find(r.Context(), f)
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(workers, toWorkerDTO))
}

func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req WorkerRequest
	if err := decode(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	worker, err := h.roster.Register(r.Context(), timeoff.WorkerInput(req))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkerDTO(worker))
}

func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := h.roster.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(worker))
}

func (h *Handler) UpdateWorker(w http.ResponseWriter, r *http.Request) {
	var req WorkerRequest
	if err := decode(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	worker, err := h.roster.Edit(r.Context(), chi.URLParam(r, "id"), timeoff.WorkerInput(req))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(worker))
}

// DeleteWorker removes the worker together with their leaves.
func (h *Handler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	if err := h.roster.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListWorkerLeaves(w http.ResponseWriter, r *http.Request) {
	leaves, err := h.leaves.LeavesForWorker(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(leaves, toLeaveDTO))
}

// =============================================================================
// LEAVES
// =============================================================================

func (h *Handler) leaveRequest(r *http.Request, id string) (timeoff.LeaveRequest, error) {
	var body LeaveRequest
	if err := decode(r, &body); err != nil {
		return timeoff.LeaveRequest{}, err
	}
	start, err := generic.ParseDate(body.StartDate)
	if err != nil {
		return timeoff.LeaveRequest{}, err
	}
	end, err := generic.ParseDate(body.EndDate)
	if err != nil {
		return timeoff.LeaveRequest{}, err
	}
	return timeoff.LeaveRequest{ID: id, WorkerID: body.WorkerID, StartDate: start, EndDate: end}, nil
}

// ListLeaves returns every leave, or the leaves covering ?date.
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, "date")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	var leaves []generic.Leave
	if date != nil {
		leaves, err = h.leaves.LeavesOnDate(r.Context(), *date)
	} else {
		leaves, err = h.leaves.All(r.Context())
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(leaves, toLeaveDTO))
}

func (h *Handler) LeavesToday(w http.ResponseWriter, r *http.Request) {
	leaves, err := h.leaves.LeavesToday(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(leaves, toLeaveDTO))
}

// CreateLeave books a leave if the staffing policy allows it.
// POST /api/leaves
func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	req, err := h.leaveRequest(r, "")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	leave, err := h.leaves.Add(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveDTO(leave))
}

func (h *Handler) UpdateLeave(w http.ResponseWriter, r *http.Request) {
	req, err := h.leaveRequest(r, chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	leave, err := h.leaves.Edit(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(leave))
}

func (h *Handler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	if err := h.leaves.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TriggerLeaveReset zeroes every worker's leave counter right away.
// POST /api/admin/leave-reset
func (h *Handler) TriggerLeaveReset(w http.ResponseWriter, r *http.Request) {
	n, err := h.leaves.ResetAllLeaveCounters(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.metrics.LeaveResets.Inc()
	writeJSON(w, http.StatusOK, ResetResultDTO{Workers: n})
}

// =============================================================================
// PRODUCTS
// =============================================================================

func (in ProductRequest) input() inventory.ProductInput {
	return inventory.ProductInput{
		Code:     in.Code,
		Material: generic.Material(in.Material),
		Price:    in.Price,
		ByWeight: in.ByWeight,
	}
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	material, err := parseMaterialParam(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	products, err := h.catalog.Find(r.Context(), generic.ProductFilter{Material: material, Code: r.URL.Query().Get("code")})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(products, toProductDTO))
}

// SpecificProduct looks a live product up by ?material&code.
func (h *Handler) SpecificProduct(w http.ResponseWriter, r *http.Request) {
	material, err := parseMaterialParam(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	code := r.URL.Query().Get("code")
	if material == nil || code == "" {
		h.writeDomainError(w, r, generic.Invalid("query", "material and code are required"))
		return
	}
	p, err := h.catalog.Specific(r.Context(), *material, code)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decode(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	p, err := h.catalog.Add(r.Context(), req.input())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductDTO(p))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decode(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	p, err := h.catalog.Edit(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductDTO(p))
}

func (h *Handler) SoftDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.SoftDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HardDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.HardDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// STORAGE
// =============================================================================

func (h *Handler) ListStorage(w http.ResponseWriter, r *http.Request) {
	material, err := parseMaterialParam(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	recs, err := h.stock.Records(r.Context(), generic.StorageFilter{Material: material, Code: r.URL.Query().Get("code")})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(recs, toStorageDTO))
}

func (h *Handler) StorageForProduct(w http.ResponseWriter, r *http.Request) {
	rec, err := h.stock.RecordFor(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStorageDTO(rec))
}

// OpenStorage creates the storage record of a product that has none.
func (h *Handler) OpenStorage(w http.ResponseWriter, r *http.Request) {
	var req OpenStorageRequest
	if err := decode(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	rec, err := h.stock.Open(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStorageDTO(rec))
}

// SetStorage overwrites a storage quantity (manual stock count).
func (h *Handler) SetStorage(w http.ResponseWriter, r *http.Request) {
	var req SetStorageRequest
	if err := decode(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	rec, err := h.stock.Set(r.Context(), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStorageDTO(rec))
}

func (h *Handler) DeleteStorage(w http.ResponseWriter, r *http.Request) {
	if err := h.stock.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ExportStorage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.StorageWorkbook(r.Context(), h.store, &buf); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeWorkbook(w, "storage", &buf)
}

func (h *Handler) writeWorkbook(w http.ResponseWriter, name string, buf *bytes.Buffer) {
	filename := fmt.Sprintf("%s_%s.xlsx", name, h.clock.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// =============================================================================
// CUSTOMERS
// =============================================================================

// ListCustomers returns all customers, or the one matching ?name or ?phone.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	var (
		customers []generic.Customer
		err       error
	)
	switch {
	case q.Get("name") != "":
		var c generic.Customer
		c, err = h.customers.ByName(ctx, q.Get("name"))
		customers = []generic.Customer{c}
	case q.Get("phone") != "":
		var c generic.Customer
		c, err = h.customers.ByPhone(ctx, q.Get("phone"))
		customers = []generic.Customer{c}
	default:
		customers, err = h.customers.All(ctx)
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(customers, toCustomerDTO))
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := decode(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	c, err := h.customers.Add(r.Context(), receivables.CustomerInput(req))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerDTO(c))
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.customers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(c))
}

func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := decode(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	c, err := h.customers.Edit(r.Context(), chi.URLParam(r, "id"), receivables.CustomerInput(req))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCustomerDTO(c))
}

func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CustomerBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	bal, err := h.debts.BalanceFor(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceDTO{CustomerID: id, Balance: bal})
}

// =============================================================================
// RETURNED WAX
// =============================================================================

func (h *Handler) ListReturnedWax(w http.ResponseWriter, r *http.Request) {
	recs, err := h.wax.All(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(recs, toReturnedWaxDTO))
}

func (h *Handler) CreateReturnedWax(w http.ResponseWriter, r *http.Request) {
	var req ReturnedWaxRequest
	if err := decode(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	date, err := parseOptionalDate(req.ReturnDate)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	rec, err := h.wax.Record(r.Context(), receivables.WaxInput{
		CustomerID: req.CustomerID,
		ReturnDate: date,
		Material:   generic.Material(req.Material),
		Weight:     req.Weight,
		Note:       req.Note,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReturnedWaxDTO(rec))
}

func (h *Handler) DeleteReturnedWax(w http.ResponseWriter, r *http.Request) {
	if err := h.wax.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SALES
// =============================================================================

func saleRequest(r *http.Request) (sales.Request, error) {
	var body SaleRequest
	if err := decode(r, &body); err != nil {
		return sales.Request{}, err
	}
	date, err := parseOptionalDate(body.Date)
	if err != nil {
		return sales.Request{}, err
	}
	return sales.Request{
		CustomerID: body.CustomerID,
		ProductID:  body.ProductID,
		Date:       date,
		Quantity:   body.Quantity,
		Cost:       body.Cost,
	}, nil
}

// ListSales filters on any combination of ?customer_id, ?product_id and ?date.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, "date")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	q := r.URL.Query()
	found, err := h.sales.ByAll(r.Context(), q.Get("customer_id"), q.Get("product_id"), date)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(found, toSaleDTO))
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	s, err := h.sales.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleDTO(s))
}

// CreateSale charges the customer and takes the quantity out of stock.
// POST /api/sales
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	req, err := saleRequest(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	s, err := h.sales.Create(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.metrics.SalesRecorded.WithLabelValues("create").Inc()
	writeJSON(w, http.StatusCreated, toSaleDTO(s))
}

func (h *Handler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	req, err := saleRequest(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	s, err := h.sales.Edit(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.metrics.SalesRecorded.WithLabelValues("edit").Inc()
	writeJSON(w, http.StatusOK, toSaleDTO(s))
}

func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.sales.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.metrics.SalesRecorded.WithLabelValues("delete").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// ExportSales streams the sales matching the list filters as XLSX.
func (h *Handler) ExportSales(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, "date")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	q := r.URL.Query()
	f := generic.SaleFilter{CustomerID: q.Get("customer_id"), ProductID: q.Get("product_id"), Date: date}

	var buf bytes.Buffer
	if err := report.SalesWorkbook(r.Context(), h.store, f, &buf); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeWorkbook(w, "sales", &buf)
}

// =============================================================================
// PRODUCTIONS
// =============================================================================

func productionRequest(r *http.Request) (production.Request, error) {
	var body ProductionRequest
	if err := decode(r, &body); err != nil {
		return production.Request{}, err
	}
	date, err := parseOptionalDate(body.Date)
	if err != nil {
		return production.Request{}, err
	}
	return production.Request{ProductID: body.ProductID, Date: date, Quantity: body.Quantity}, nil
}

// ListProductions supports ?from&to (inclusive range) or any of
// ?product_id and ?date.
func (h *Handler) ListProductions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := strings.TrimSpace(r.URL.Query().Get("product_id"))

	date, err := parseDateParam(r, "date")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	from, err := parseDateParam(r, "from")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	var found []generic.Production
	switch {
	case from != nil || to != nil:
		if from == nil || to == nil {
			err = generic.Invalid("query", "from and to go together")
			break
		}
		found, err = h.production.ByDateRange(ctx, *from, *to)
	case productID != "" && date != nil:
		var p generic.Production
		p, err = h.production.ByDateAndProduct(ctx, *date, productID)
		found = []generic.Production{p}
	case productID != "":
		found, err = h.production.ByProduct(ctx, productID)
	case date != nil:
		found, err = h.production.ByDate(ctx, *date)
	default:
		found, err = h.production.All(ctx)
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(found, toProductionDTO))
}

func (h *Handler) GetProduction(w http.ResponseWriter, r *http.Request) {
	p, err := h.production.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductionDTO(p))
}

func (h *Handler) CreateProduction(w http.ResponseWriter, r *http.Request) {
	req, err := productionRequest(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	p, err := h.production.Create(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductionDTO(p))
}

func (h *Handler) UpdateProduction(w http.ResponseWriter, r *http.Request) {
	req, err := productionRequest(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	p, err := h.production.Edit(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductionDTO(p))
}

func (h *Handler) DeleteProduction(w http.ResponseWriter, r *http.Request) {
	if err := h.production.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
