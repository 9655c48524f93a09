/*
Package receivables tracks what customers owe.

BALANCE MODEL:
  Customer.Debt is a running signed balance. A customer that never bought
  anything has no balance at all (NULL); Ledger reads it as zero and every
  write makes it explicit, so "unset" never leaks past this package.

  Sales charge +cost on create and -cost on reversal. Returned wax is
  recorded with its value but does not move the balance.
*/
package receivables

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/warp/candleworks/generic"
)

// Ledger reads and adjusts customer balances.
type Ledger struct {
	store generic.Store
	log   *slog.Logger
}

func NewLedger(store generic.Store, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{store: store, log: log.With("component", "receivables")}
}

// BalanceFor returns the customer's debt, zero when none was ever recorded.
func (l *Ledger) BalanceFor(ctx context.Context, customerID string) (decimal.Decimal, error) {
	c, err := l.store.Customers().Get(ctx, customerID)
	if err != nil {
		return decimal.Zero, err
	}
	return c.DebtOrZero(), nil
}

// Adjust sets balance = current (or zero) + delta and returns the new balance.
func (l *Ledger) Adjust(ctx context.Context, customerID string, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := l.store.WithTx(ctx, func(ctx context.Context) error {
		c, err := l.store.Customers().Get(ctx, customerID)
		if err != nil {
			return err
		}
		balance = c.DebtOrZero().Add(delta)
		c.Debt = decimal.NewNullDecimal(balance)
		return l.store.Customers().Save(ctx, c)
	})
	if err != nil {
		return decimal.Zero, err
	}
	l.log.Debug("debt adjusted", "customer_id", customerID, "delta", delta.String(), "balance", balance.String())
	return balance, nil
}
