package report

import (
	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// Totals is the compact summary shown alongside the ledger: what the session
// started with, what went out, and what is left.
type Totals struct {
	Initialized    bool
	InitialBalance decimal.Decimal
	TotalSpent     decimal.Decimal
	CurrentBalance decimal.Decimal
	// RemainingRatio is CurrentBalance/InitialBalance clamped to [0, 1],
	// suitable for a progress indicator. Zero when uninitialized or when
	// the balance has gone negative.
	RemainingRatio float64
}

// Summarize computes the header totals for a snapshot.
func Summarize(snap core.Snapshot) Totals {
	t := Totals{
		Initialized:    snap.Initialized,
		InitialBalance: decimal.Zero,
		TotalSpent:     decimal.Zero,
		CurrentBalance: decimal.Zero,
	}
	if !snap.Initialized {
		return t
	}

	t.InitialBalance = snap.InitialBalance
	t.TotalSpent = snap.TotalSpent()
	t.CurrentBalance = t.InitialBalance.Sub(t.TotalSpent)

	if t.InitialBalance.Cmp(decimal.Zero) > 0 {
		ratio, _ := t.CurrentBalance.Div(t.InitialBalance).Float64()
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
		t.RemainingRatio = ratio
	}
	return t
}

// History returns the transactions most recent first, the order the ledger
// table displays them in. The snapshot slice is left untouched.
func History(snap core.Snapshot) []core.Transaction {
	if len(snap.Transactions) == 0 {
		return nil
	}
	out := make([]core.Transaction, len(snap.Transactions))
	for i, tx := range snap.Transactions {
		out[len(out)-1-i] = tx
	}
	return out
}
