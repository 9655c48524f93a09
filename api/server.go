/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, the middleware stack and the route table.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  unique ID per request for tracing
  2. Logger:     request logging
  3. Recoverer:  panic recovery (500 instead of crash)
  4. CORS:       cross-origin requests for the shop frontend
  5. Metrics:    Prometheus request counters (when enabled)

ROUTE GROUPS:
  /api/workers, /api/leaves      workforce and leave bookings
  /api/products, /api/storage    catalog and stock
  /api/customers, /api/sales     receivables and sales history
  /api/productions               production history
  /api/returned-wax              wax brought back by customers
  /api/scenarios                 demo data
  /api/admin                     manual leave counter reset
  /health, /metrics              probes

SECURITY NOTE:
  No authentication middleware. Run behind a trusted network.

SEE ALSO:
  - handlers.go: handler implementations
  - cmd/server/main.go: server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions tunes the router. A nil Metrics disables /metrics and the
// request counters.
type RouterOptions struct {
	AllowedOrigins []string
	Metrics        *Metrics
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.CreateWorker)
			r.Get("/{id}", h.GetWorker)
			r.Put("/{id}", h.UpdateWorker)
			r.Delete("/{id}", h.DeleteWorker)
			r.Get("/{id}/leaves", h.ListWorkerLeaves)
		})

		r.Route("/leaves", func(r chi.Router) {
			r.Get("/", h.ListLeaves)
			r.Post("/", h.CreateLeave)
			r.Get("/today", h.LeavesToday)
			r.Put("/{id}", h.UpdateLeave)
			r.Delete("/{id}", h.DeleteLeave)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/specific", h.SpecificProduct)
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.SoftDeleteProduct)
			r.Delete("/{id}/hard", h.HardDeleteProduct)
		})

		r.Route("/storage", func(r chi.Router) {
			r.Get("/", h.ListStorage)
			r.Post("/", h.OpenStorage)
			r.Get("/export", h.ExportStorage)
			r.Get("/product/{productId}", h.StorageForProduct)
			r.Put("/{id}", h.SetStorage)
			r.Delete("/{id}", h.DeleteStorage)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.ListCustomers)
			r.Post("/", h.CreateCustomer)
			r.Get("/{id}", h.GetCustomer)
			r.Put("/{id}", h.UpdateCustomer)
			r.Delete("/{id}", h.DeleteCustomer)
			r.Get("/{id}/balance", h.CustomerBalance)
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.CreateSale)
			r.Get("/export", h.ExportSales)
			r.Get("/{id}", h.GetSale)
			r.Put("/{id}", h.UpdateSale)
			r.Delete("/{id}", h.DeleteSale)
		})

		r.Route("/productions", func(r chi.Router) {
			r.Get("/", h.ListProductions)
			r.Post("/", h.CreateProduction)
			r.Get("/{id}", h.GetProduction)
			r.Put("/{id}", h.UpdateProduction)
			r.Delete("/{id}", h.DeleteProduction)
		})

		r.Route("/returned-wax", func(r chi.Router) {
			r.Get("/", h.ListReturnedWax)
			r.Post("/", h.CreateReturnedWax)
			r.Delete("/{id}", h.DeleteReturnedWax)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/leave-reset", h.TriggerLeaveReset)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
