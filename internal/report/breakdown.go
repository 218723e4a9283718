package report

import (
	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// DescriptionTotal is the amount spent under one description label.
type DescriptionTotal struct {
	Description string
	Total       decimal.Decimal
	Count       int
}

// BreakdownByDescription groups transactions by their exact description
// string (case-sensitive, no trimming) and sums each group. Groups appear in
// first-seen order. With fewer than two distinct descriptions the breakdown
// is nil: a single-slice pie chart carries no information, so that case is
// reported as not applicable.
func BreakdownByDescription(snap core.Snapshot) []DescriptionTotal {
	totals := make(map[string]int)
	var groups []DescriptionTotal

	for _, tx := range snap.Transactions {
		if idx, ok := totals[tx.Description]; ok {
			groups[idx].Total = groups[idx].Total.Add(tx.Amount)
			groups[idx].Count++
			continue
		}
		totals[tx.Description] = len(groups)
		groups = append(groups, DescriptionTotal{
			Description: tx.Description,
			Total:       tx.Amount,
			Count:       1,
		})
	}

	if len(groups) < 2 {
		return nil
	}
	return groups
}
