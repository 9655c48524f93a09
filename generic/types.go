/*
Package generic provides the shared model of the workshop engine.

PURPOSE:
  Every business component (leave scheduling, inventory, receivables,
  sales, production) works on the records defined here and talks to
  persistence through the Store contract in store.go. Keeping the model in
  one package lets the stores implement all repositories without importing
  the components that use them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Worker / Leave: staff and their absence intervals
  - Product / StorageRecord: catalog entries and their single stock counter
  - Customer: buyer with a running debt balance
  - Sale / Production: history records that move stock and debt
  - ReturnedWax: wax handed back by a customer, valued per kilogram

DESIGN PRINCIPLES:
  1. Precision: money and quantities use decimal.Decimal
  2. References by ID: records point at each other with string IDs that are
     resolved through the store at operation time, never embedded
  3. Explicit optionals: an unset debt is decimal.NullDecimal, read through
     Customer.DebtOrZero

SEE ALSO:
  - store.go: repository contracts
  - errors.go: error kinds
  - time.go, period.go: Date and Period
*/
package generic

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// MustParseDecimal parses a decimal literal, falling back to zero.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// WORKFORCE
// =============================================================================

// Worker is a member of staff. LeaveDaysAccrued is maintained exclusively by
// the leave scheduler.
type Worker struct {
	ID               string
	FirstName        string
	LastName         string
	Phone            string
	LeaveDaysAccrued int
}

func (w Worker) FullName() string {
	return strings.TrimSpace(w.FirstName + " " + w.LastName)
}

// Leave is a contiguous absence of one worker, both ends inclusive.
type Leave struct {
	ID        string
	WorkerID  string
	StartDate Date
	EndDate   Date
}

func (l Leave) Period() Period {
	return Period{Start: l.StartDate, End: l.EndDate}
}

// DurationDays is endDate - startDate + 1.
func (l Leave) DurationDays() int {
	return l.Period().DurationDays()
}

// LeaveReset records one yearly reset of the leave counters.
type LeaveReset struct {
	PeriodStart Date
	Workers     int
	ResetAt     time.Time
}

// =============================================================================
// CATALOG & STOCK
// =============================================================================

// Material is the wax a product is made of.
type Material string

const (
	MaterialBrown Material = "Brown"
	MaterialWhite Material = "White"
	MaterialPure  Material = "Pure"
)

// ParseMaterial accepts the material names case-insensitively.
func ParseMaterial(s string) (Material, error) {
	for _, m := range []Material{MaterialBrown, MaterialWhite, MaterialPure} {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", Invalid("material", fmt.Sprintf("%q is not one of Brown, White, Pure", s))
}

// Product is a catalog entry. (Material, Code) is unique; Deleted hides the
// product from listings without dropping its history.
type Product struct {
	ID       string
	Code     string
	Material Material
	Price    decimal.Decimal // per kilogram when ByWeight, per piece otherwise
	ByWeight bool
	Deleted  bool
}

// StorageRecord is the one stock counter of a product. Quantity may go
// negative: sales are never refused for lack of stock.
type StorageRecord struct {
	ID        string
	ProductID string
	Quantity  decimal.Decimal
}

// =============================================================================
// RECEIVABLES
// =============================================================================

// Customer buys on credit. Debt is the running signed balance of charges
// from sales net of reversals; an unset debt reads as zero.
type Customer struct {
	ID    string
	Name  string
	Phone string
	Debt  decimal.NullDecimal
}

// DebtOrZero is the only place an unset balance becomes zero.
func (c Customer) DebtOrZero() decimal.Decimal {
	if !c.Debt.Valid {
		return decimal.Zero
	}
	return c.Debt.Decimal
}

// ReturnedWax is wax a customer brought back.
type ReturnedWax struct {
	ID         string
	CustomerID string
	ReturnDate Date
	Material   Material
	Weight     decimal.Decimal
	Value      decimal.Decimal
	Note       string
}

// =============================================================================
// HISTORY
// =============================================================================

// Sale charges a customer and takes stock out of a product's storage.
type Sale struct {
	ID         string
	CustomerID string
	ProductID  string
	Date       Date
	Quantity   decimal.Decimal
	Cost       decimal.Decimal
}

// Production puts stock into a product's storage. (Date, ProductID) is unique.
type Production struct {
	ID        string
	ProductID string
	Date      Date
	Quantity  decimal.Decimal
}
