package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/candleworks/generic"
	"github.com/warp/candleworks/generic/store"
	"github.com/warp/candleworks/inventory"
	"github.com/warp/candleworks/receivables"
	"github.com/warp/candleworks/store/sqlite"
	"github.com/warp/candleworks/timeoff"
)

// eachStore runs the test against both Store implementations so they stay
// interchangeable.
func eachStore(t *testing.T, test func(t *testing.T, s generic.Store)) {
	t.Run("memory", func(t *testing.T) {
		test(t, store.NewMemory())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := sqlite.New(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		test(t, s)
	})
}

var d = decimal.RequireFromString

func TestWithTx_RollbackOnError(t *testing.T) {
	eachStore(t, func(t *testing.T, s generic.Store) {
		ctx := context.Background()
		boom := errors.New("boom")

		// GIVEN: A nested transaction whose outer function fails
		err := s.WithTx(ctx, func(ctx context.Context) error {
			if err := s.Workers().Save(ctx, generic.Worker{ID: "w1", FirstName: "A", LastName: "B"}); err != nil {
				return err
			}
			if err := s.WithTx(ctx, func(ctx context.Context) error {
				return s.Customers().Save(ctx, generic.Customer{ID: "c1", Name: "Shop"})
			}); err != nil {
				return err
			}
			return boom
		})

		// THEN: Neither write survives
		assert.ErrorIs(t, err, boom)
		_, err = s.Workers().Get(ctx, "w1")
		assert.True(t, generic.IsNotFound(err))
		_, err = s.Customers().Get(ctx, "c1")
		assert.True(t, generic.IsNotFound(err))
	})
}

func TestWithTx_Commit(t *testing.T) {
	eachStore(t, func(t *testing.T, s generic.Store) {
		ctx := context.Background()
		require.NoError(t, s.WithTx(ctx, func(ctx context.Context) error {
			return s.Workers().Save(ctx, generic.Worker{ID: "w1", FirstName: "A", LastName: "B", LeaveDaysAccrued: 2})
		}))

		w, err := s.Workers().Get(ctx, "w1")
		require.NoError(t, err)
		assert.Equal(t, 2, w.LeaveDaysAccrued)

		n, err := s.Workers().Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestLeaves_OverlappingIsInclusive(t *testing.T) {
	eachStore(t, func(t *testing.T, s generic.Store) {
		ctx := context.Background()
		require.NoError(t, s.Workers().Save(ctx, generic.Worker{ID: "w1", FirstName: "A", LastName: "B"}))
		require.NoError(t, s.Leaves().Save(ctx, generic.Leave{
			ID: "l1", WorkerID: "w1", StartDate: generic.MustParseDate("2025-01-01"), EndDate: generic.MustParseDate("2025-01-03"),
		}))

		tests := []struct {
			from, to string
			want     int
		}{
			{"2025-01-03", "2025-01-05", 1},
			{"2024-12-30", "2025-01-01", 1},
			{"2025-01-02", "2025-01-02", 1},
			{"2025-01-04", "2025-01-09", 0},
			{"2024-12-01", "2024-12-31", 0},
		}
		for _, tc := range tests {
			got, err := s.Leaves().Overlapping(ctx, generic.Period{Start: generic.MustParseDate(tc.from), End: generic.MustParseDate(tc.to)})
			require.NoError(t, err)
			assert.Len(t, got, tc.want, "%s..%s", tc.from, tc.to)
		}
	})
}

func TestProducts_UniqueMaterialAndCode(t *testing.T) {
	eachStore(t, func(t *testing.T, s generic.Store) {
		ctx := context.Background()
		require.NoError(t, s.Products().Save(ctx, generic.Product{ID: "p1", Code: "T-40", Material: generic.MaterialWhite, Price: d("10")}))

		err := s.Products().Save(ctx, generic.Product{ID: "p2", Code: "T-40", Material: generic.MaterialWhite, Price: d("11")})
		assert.ErrorIs(t, err, generic.ErrAlreadyExists)

		require.NoError(t, s.Products().Save(ctx, generic.Product{ID: "p3", Code: "T-40", Material: generic.MaterialBrown, Price: d("9")}))

		white := generic.MaterialWhite
		found, err := s.Products().Find(ctx, generic.ProductFilter{Material: &white})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.True(t, d("10").Equal(found[0].Price))
	})
}

func TestDelete_ReferencedRecordIsInUse(t *testing.T) {
	eachStore(t, func(t *testing.T, s generic.Store) {
		ctx := context.Background()
		require.NoError(t, s.Products().Save(ctx, generic.Product{ID: "p1", Code: "T-40", Material: generic.MaterialWhite, Price: d("10")}))
		require.NoError(t, s.Customers().Save(ctx, generic.Customer{ID: "c1", Name: "Shop"}))
		require.NoError(t, s.Sales().Save(ctx, generic.Sale{
			ID: "s1", CustomerID: "c1", ProductID: "p1", Date: generic.MustParseDate("2025-03-01"), Quantity: d("1"), Cost: d("10"),
		}))

		assert.ErrorIs(t, s.Customers().Delete(ctx, "c1"), generic.ErrInUse)
		assert.ErrorIs(t, s.Products().Delete(ctx, "p1"), generic.ErrInUse)

		require.NoError(t, s.Sales().Delete(ctx, "s1"))
		assert.NoError(t, s.Customers().Delete(ctx, "c1"))
		assert.NoError(t, s.Products().Delete(ctx, "p1"))
	})
}

func TestCustomers_DebtRoundTrip(t *testing.T) {
	eachStore(t, func(t *testing.T, s generic.Store) {
		ctx := context.Background()
		require.NoError(t, s.Customers().Save(ctx, generic.Customer{ID: "c1", Name: "Shop"}))

		c, err := s.Customers().Get(ctx, "c1")
		require.NoError(t, err)
		assert.True(t, c.DebtOrZero().IsZero(), "unset debt reads as zero")

		debt := d("12.35")
		c.Debt = decimal.NewNullDecimal(debt)
		require.NoError(t, s.Customers().Save(ctx, c))

		c, err = s.Customers().Get(ctx, "c1")
		require.NoError(t, err)
		assert.True(t, debt.Equal(c.DebtOrZero()))
	})
}

func TestProductions_FindByRange(t *testing.T) {
	eachStore(t, func(t *testing.T, s generic.Store) {
		ctx := context.Background()
		require.NoError(t, s.Products().Save(ctx, generic.Product{ID: "p1", Code: "G-12", Material: generic.MaterialBrown, Price: d("4.5")}))
		for i, day := range []string{"2025-03-09", "2025-03-01", "2025-03-05"} {
			require.NoError(t, s.Productions().Save(ctx, generic.Production{
				ID: string(rune('a' + i)), ProductID: "p1", Date: generic.MustParseDate(day), Quantity: d("10"),
			}))
		}

		err := s.Productions().Save(ctx, generic.Production{ID: "dup", ProductID: "p1", Date: generic.MustParseDate("2025-03-05"), Quantity: d("1")})
		assert.ErrorIs(t, err, generic.ErrAlreadyExists)

		from, to := generic.MustParseDate("2025-03-01"), generic.MustParseDate("2025-03-05")
		got, err := s.Productions().Find(ctx, generic.ProductionFilter{From: &from, To: &to})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "2025-03-01", got[0].Date.String(), "oldest first")
		assert.Equal(t, "2025-03-05", got[1].Date.String())

		p, err := s.Productions().ByDateAndProduct(ctx, generic.MustParseDate("2025-03-09"), "p1")
		require.NoError(t, err)
		assert.Equal(t, "a", p.ID)
	})
}

func TestResets_RecordOncePerPeriod(t *testing.T) {
	eachStore(t, func(t *testing.T, s generic.Store) {
		ctx := context.Background()
		_, err := s.Resets().Last(ctx)
		assert.True(t, generic.IsNotFound(err))

		at := time.Date(2025, time.January, 1, 0, 5, 0, 0, time.UTC)
		require.NoError(t, s.Resets().Record(ctx, generic.LeaveReset{PeriodStart: generic.StartOfYear(2025), Workers: 3, ResetAt: at}))
		err = s.Resets().Record(ctx, generic.LeaveReset{PeriodStart: generic.StartOfYear(2025), ResetAt: at})
		assert.ErrorIs(t, err, generic.ErrAlreadyExists)

		last, err := s.Resets().Last(ctx)
		require.NoError(t, err)
		assert.Equal(t, "2025-01-01", last.PeriodStart.String())
		assert.Equal(t, 3, last.Workers)
	})
}

func TestReset_ClearsEverything(t *testing.T) {
	eachStore(t, func(t *testing.T, s generic.Store) {
		ctx := context.Background()
		require.NoError(t, s.Workers().Save(ctx, generic.Worker{ID: "w1", FirstName: "A", LastName: "B"}))
		require.NoError(t, s.Customers().Save(ctx, generic.Customer{ID: "c1", Name: "Shop"}))

		require.NoError(t, s.Reset(ctx))

		workers, err := s.Workers().List(ctx)
		require.NoError(t, err)
		assert.Empty(t, workers)
		customers, err := s.Customers().List(ctx)
		require.NoError(t, err)
		assert.Empty(t, customers)
	})
}

func TestConcurrentAdjust_NoLostUpdates(t *testing.T) {
	const n = 50

	eachStore(t, func(t *testing.T, s generic.Store) {
		ctx := context.Background()
		stock := inventory.NewLedger(s, nil)
		debts := receivables.NewLedger(s, nil)

		// GIVEN: A product with 10 in stock and a customer owing 5
		require.NoError(t, s.Products().Save(ctx, generic.Product{ID: "p1", Code: "T-40", Material: generic.MaterialWhite, Price: d("10")}))
		require.NoError(t, s.Storage().Save(ctx, generic.StorageRecord{ID: "st1", ProductID: "p1", Quantity: d("10")}))
		require.NoError(t, s.Customers().Save(ctx, generic.Customer{ID: "c1", Name: "Shop", Debt: decimal.NewNullDecimal(d("5"))}))

		// WHEN: n goroutines each add 1 to both at the same time
		var wg sync.WaitGroup
		errs := make(chan error, 2*n)
		for i := 0; i < n; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, err := stock.Adjust(ctx, "p1", decimal.NewFromInt(1))
				errs <- err
			}()
			go func() {
				defer wg.Done()
				_, err := debts.Adjust(ctx, "c1", d("1.10"))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		// THEN: Every increment is reflected exactly once
		qty, err := stock.QuantityFor(ctx, "p1")
		require.NoError(t, err)
		assert.True(t, d("60").Equal(qty), "stock is %s", qty)

		balance, err := debts.BalanceFor(ctx, "c1")
		require.NoError(t, err)
		assert.True(t, d("60").Equal(balance), "debt is %s", balance)
	})
}

func TestConcurrentResetAndAdd_CountersNeverPartial(t *testing.T) {
	const workers = 20

	eachStore(t, func(t *testing.T, s generic.Store) {
		ctx := context.Background()
		sched := timeoff.NewScheduler(s)

		// GIVEN: Workers whose leaves never overlap, lasting 1 to 5 days each
		start := generic.MustParseDate("2025-01-01")
		want := make(map[string]int, workers)
		reqs := make([]timeoff.LeaveRequest, 0, workers)
		for i := 0; i < workers; i++ {
			id := fmt.Sprintf("w%02d", i)
			require.NoError(t, s.Workers().Save(ctx, generic.Worker{ID: id, FirstName: id, LastName: "Worker"}))
			days := i%5 + 1
			from := generic.DateOf(start.Time.AddDate(0, 0, 6*i))
			reqs = append(reqs, timeoff.LeaveRequest{
				WorkerID:  id,
				StartDate: from,
				EndDate:   generic.DateOf(from.Time.AddDate(0, 0, days-1)),
			})
			want[id] = days
		}

		// WHEN: The leaves are booked while counters are being reset
		var wg sync.WaitGroup
		errs := make(chan error, 2*workers)
		for _, req := range reqs {
			req := req
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, err := sched.Add(ctx, req)
				errs <- err
			}()
			go func() {
				defer wg.Done()
				_, err := sched.ResetAllLeaveCounters(ctx)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		// THEN: Each counter was either wiped or holds the whole leave
		all, err := s.Workers().List(ctx)
		require.NoError(t, err)
		require.Len(t, all, workers)
		for _, w := range all {
			assert.Contains(t, []int{0, want[w.ID]}, w.LeaveDaysAccrued, "worker %s", w.ID)
		}
		booked, err := s.Leaves().List(ctx)
		require.NoError(t, err)
		assert.Len(t, booked, workers)
	})
}
