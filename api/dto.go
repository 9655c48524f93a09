/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON shapes of the REST surface, kept apart from the generic records so
  field names can change without touching the stores.

NAMING CONVENTION:
  - *DTO:     response types returned to clients
  - *Request: request body types from clients

AMOUNTS AND DATES:
  Money and quantities are decimal.Decimal and travel as JSON strings
  ("12.50"); numbers are accepted on input. Dates are "YYYY-MM-DD".

VALIDATION:
  DTOs are pure data carriers. Field rules live in the business packages;
  handlers only parse dates and map the request onto their input types.
*/
package api

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/candleworks/generic"
)

// =============================================================================
// WORKFORCE
// =============================================================================

type WorkerDTO struct {
	ID               string `json:"id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Phone            string `json:"phone"`
	LeaveDaysAccrued int    `json:"leave_days_accrued"`
}

type WorkerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type LeaveDTO struct {
	ID           string `json:"id"`
	WorkerID     string `json:"worker_id"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	DurationDays int    `json:"duration_days"`
}

// LeaveRequest is the body of POST /api/leaves and PUT /api/leaves/{id}.
// On PUT an empty worker_id keeps the current worker.
type LeaveRequest struct {
	WorkerID  string `json:"worker_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type ResetResultDTO struct {
	Workers int `json:"workers"`
}

func toWorkerDTO(w generic.Worker) WorkerDTO {
	return WorkerDTO{
		ID:               w.ID,
		FirstName:        w.FirstName,
		LastName:         w.LastName,
		Phone:            w.Phone,
		LeaveDaysAccrued: w.LeaveDaysAccrued,
	}
}

func toLeaveDTO(l generic.Leave) LeaveDTO {
	return LeaveDTO{
		ID:           l.ID,
		WorkerID:     l.WorkerID,
		StartDate:    l.StartDate.String(),
		EndDate:      l.EndDate.String(),
		DurationDays: l.DurationDays(),
	}
}

// =============================================================================
// CATALOG & STOCK
// =============================================================================

type ProductDTO struct {
	ID       string          `json:"id"`
	Code     string          `json:"code"`
	Material string          `json:"material"`
	Price    decimal.Decimal `json:"price"`
	ByWeight bool            `json:"by_weight"`
	Deleted  bool            `json:"deleted,omitempty"`
}

type ProductRequest struct {
	Code     string          `json:"code"`
	Material string          `json:"material"`
	Price    decimal.Decimal `json:"price"`
	ByWeight bool            `json:"by_weight"`
}

type StorageDTO struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type OpenStorageRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type SetStorageRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

func toProductDTO(p generic.Product) ProductDTO {
	return ProductDTO{
		ID:       p.ID,
		Code:     p.Code,
		Material: string(p.Material),
		Price:    p.Price,
		ByWeight: p.ByWeight,
		Deleted:  p.Deleted,
	}
}

func toStorageDTO(s generic.StorageRecord) StorageDTO {
	return StorageDTO{ID: s.ID, ProductID: s.ProductID, Quantity: s.Quantity}
}

// =============================================================================
// RECEIVABLES
// =============================================================================

type CustomerDTO struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Phone string          `json:"phone"`
	Debt  decimal.Decimal `json:"debt"`
}

type CustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type BalanceDTO struct {
	CustomerID string          `json:"customer_id"`
	Balance    decimal.Decimal `json:"balance"`
}

type ReturnedWaxDTO struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	ReturnDate string          `json:"return_date"`
	Material   string          `json:"material"`
	Weight     decimal.Decimal `json:"weight"`
	Value      decimal.Decimal `json:"value"`
	Note       string          `json:"note,omitempty"`
}

// ReturnedWaxRequest leaves return_date empty for today.
type ReturnedWaxRequest struct {
	CustomerID string          `json:"customer_id"`
	ReturnDate string          `json:"return_date"`
	Material   string          `json:"material"`
	Weight     decimal.Decimal `json:"weight"`
	Note       string          `json:"note"`
}

func toCustomerDTO(c generic.Customer) CustomerDTO {
	return CustomerDTO{ID: c.ID, Name: c.Name, Phone: c.Phone, Debt: c.DebtOrZero()}
}

func toReturnedWaxDTO(r generic.ReturnedWax) ReturnedWaxDTO {
	return ReturnedWaxDTO{
		ID:         r.ID,
		CustomerID: r.CustomerID,
		ReturnDate: r.ReturnDate.String(),
		Material:   string(r.Material),
		Weight:     r.Weight,
		Value:      r.Value,
		Note:       r.Note,
	}
}

// =============================================================================
// HISTORY
// =============================================================================

type SaleDTO struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	ProductID  string          `json:"product_id"`
	Date       string          `json:"date"`
	Quantity   decimal.Decimal `json:"quantity"`
	Cost       decimal.Decimal `json:"cost"`
}

// SaleRequest omits cost to charge quantity * price.
type SaleRequest struct {
	CustomerID string           `json:"customer_id"`
	ProductID  string           `json:"product_id"`
	Date       string           `json:"date"`
	Quantity   decimal.Decimal  `json:"quantity"`
	Cost       *decimal.Decimal `json:"cost,omitempty"`
}

type ProductionDTO struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Date      string          `json:"date"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type ProductionRequest struct {
	ProductID string          `json:"product_id"`
	Date      string          `json:"date"`
	Quantity  decimal.Decimal `json:"quantity"`
}

func toSaleDTO(s generic.Sale) SaleDTO {
	return SaleDTO{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		ProductID:  s.ProductID,
		Date:       s.Date.String(),
		Quantity:   s.Quantity,
		Cost:       s.Cost,
	}
}

func toProductionDTO(p generic.Production) ProductionDTO {
	return ProductionDTO{ID: p.ID, ProductID: p.ProductID, Date: p.Date.String(), Quantity: p.Quantity}
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the body of every non-2xx response. Absent and Total are
// set when the staffing policy declined a leave.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Absent  *int   `json:"absent,omitempty"`
	Total   *int   `json:"total,omitempty"`
}

// =============================================================================
// HELPERS
// =============================================================================

func mapSlice[T, D any](items []T, conv func(T) D) []D {
	out := make([]D, len(items))
	for i, it := range items {
		out[i] = conv(it)
	}
	return out
}

// parseOptionalDate returns the zero Date for an empty string.
func parseOptionalDate(s string) (generic.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return generic.Date{}, nil
	}
	return generic.ParseDate(s)
}
