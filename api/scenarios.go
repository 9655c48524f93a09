/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Populates the store with a small, realistic workshop so the API can be
  explored without typing in a catalog first. Loaders go through the same
  components as the HTTP handlers, so seeded data obeys every business rule.

AVAILABLE SCENARIOS:
  workshop: 3 workers, 3 products with stock, 2 customers
  empty:    clean store

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Register workers
 3. Add products, then bring their storage to the opening stock
 4. Add customers

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "workshop"}

NOTE:
  Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: component wiring
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/warp/candleworks/generic"
	"github.com/warp/candleworks/inventory"
	"github.com/warp/candleworks/receivables"
	"github.com/warp/candleworks/timeoff"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "workshop",
		Name:        "Workshop",
		Description: "Three workers, a small candle catalog with stock, two shop customers",
	},
	{
		ID:          "empty",
		Name:        "Empty",
		Description: "No data at all",
	},
}

func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the loaded scenario, or null.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario wipes the store and seeds the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decode(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "workshop":
		load = h.loadWorkshopScenario
	case "empty":
		load = func(context.Context) error { return nil }
	default:
		h.writeDomainError(w, r, generic.NotFound("scenario", req.ScenarioID))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}
	h.currentScenario = req.ScenarioID
	h.log.Info("scenario loaded", "scenario", req.ScenarioID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadWorkshopScenario(ctx context.Context) error {
	workers := []timeoff.WorkerInput{
		{FirstName: "Anna", LastName: "Kovacs", Phone: "+36 20 111 2233"},
		{FirstName: "Bela", LastName: "Nagy", Phone: "+36 30 444 5566"},
		{FirstName: "Csilla", LastName: "Szabo", Phone: "+36 70 777 8899"},
	}
	for _, in := range workers {
		if _, err := h.roster.Register(ctx, in); err != nil {
			return err
		}
	}

	d := decimal.RequireFromString
	products := []struct {
		in    inventory.ProductInput
		stock decimal.Decimal
	}{
		{inventory.ProductInput{Code: "T-40", Material: generic.MaterialWhite, Price: d("10.00")}, d("50")},
		{inventory.ProductInput{Code: "G-12", Material: generic.MaterialBrown, Price: d("4.50")}, d("120")},
		{inventory.ProductInput{Code: "BULK", Material: generic.MaterialPure, Price: d("8.20"), ByWeight: true}, d("35.5")},
	}
	for _, p := range products {
		created, err := h.catalog.Add(ctx, p.in)
		if err != nil {
			return err
		}
		if _, err := h.stock.Adjust(ctx, created.ID, p.stock); err != nil {
			return err
		}
	}

	customers := []receivables.CustomerInput{
		{Name: "Corner Gift Shop", Phone: "+36 1 234 5678"},
		{Name: "St. Stephen Parish", Phone: "+36 1 876 5432"},
	}
	for _, in := range customers {
		if _, err := h.customers.Add(ctx, in); err != nil {
			return err
		}
	}
	return nil
}
