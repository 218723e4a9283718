// Package report derives read-only views from a ledger snapshot: current
// balance, running-balance history, per-description breakdowns, and the
// header totals. Every function here is pure; nothing is cached between
// calls, so views can never drift from the ledger.
package report

import (
	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// BalancePoint is one step of the running-balance series. Index 0 carries
// the starting balance; index n the balance after the n-th transaction.
type BalancePoint struct {
	Index   int
	Date    core.Date
	Balance decimal.Decimal
}

// CurrentBalance returns the starting balance minus everything spent, or
// zero for an uninitialized ledger. Negative balances are valid and are
// returned as-is; flagging overdrafts is the caller's concern.
func CurrentBalance(snap core.Snapshot) decimal.Decimal {
	if !snap.Initialized {
		return decimal.Zero
	}
	return snap.InitialBalance.Sub(snap.TotalSpent())
}

// RunningBalanceSeries returns the balance after each transaction, in ledger
// order, preceded by a starting point that carries the initial balance dated
// to the first transaction's day. With no transactions the series is nil:
// a chart with a single stationary point tells the reader nothing, so the
// no-data case is reported as no series rather than a degenerate one.
func RunningBalanceSeries(snap core.Snapshot) []BalancePoint {
	if len(snap.Transactions) == 0 {
		return nil
	}

	points := make([]BalancePoint, 0, len(snap.Transactions)+1)
	points = append(points, BalancePoint{
		Index:   0,
		Date:    snap.Transactions[0].OccurredOn,
		Balance: snap.InitialBalance,
	})

	running := snap.InitialBalance
	for i, tx := range snap.Transactions {
		running = running.Sub(tx.Amount)
		points = append(points, BalancePoint{
			Index:   i + 1,
			Date:    tx.OccurredOn,
			Balance: running,
		})
	}
	return points
}
