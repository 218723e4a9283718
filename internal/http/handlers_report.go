package http

import (
	"net/http"

	"cashflow/internal/core"
	"cashflow/internal/ledger"
	"cashflow/internal/report"
)

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request, led *ledger.Ledger) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	s.countQuery()
	snap := led.Snapshot()

	txs := make([]transactionJSON, 0, len(snap.Transactions))
	for _, tx := range snap.Transactions {
		txs = append(txs, s.toTransactionJSON(tx))
	}

	NewJSONResponse().
		Data(map[string]interface{}{
			"initialized":     snap.Initialized,
			"initial_balance": core.FormatAmount(snap.InitialBalance),
			"transactions":    txs,
		}).
		Write(w)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, led *ledger.Ledger) {
	s.countQuery()
	history := report.History(led.Snapshot())

	txs := make([]transactionJSON, 0, len(history))
	for _, tx := range history {
		txs = append(txs, s.toTransactionJSON(tx))
	}

	NewJSONResponse().
		Data(map[string]interface{}{
			"transactions": txs,
			"count":        len(txs),
		}).
		Write(w)
}

func (s *Server) handleBalanceSeries(w http.ResponseWriter, r *http.Request, led *ledger.Ledger) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	s.countQuery()
	series := report.RunningBalanceSeries(led.Snapshot())

	// No transactions means no series at all, not a one-point one; the
	// client renders "no chart" for this case.
	if series == nil {
		NewJSONResponse().
			Data(map[string]interface{}{"available": false}).
			Write(w)
		return
	}

	type pointJSON struct {
		Index   int    `json:"index"`
		Date    string `json:"date"`
		Balance string `json:"balance"`
	}
	points := make([]pointJSON, 0, len(series))
	for _, p := range series {
		points = append(points, pointJSON{
			Index:   p.Index,
			Date:    p.Date.String(),
			Balance: core.FormatAmount(p.Balance),
		})
	}

	NewJSONResponse().
		Data(map[string]interface{}{
			"available": true,
			"points":    points,
		}).
		Write(w)
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request, led *ledger.Ledger) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	s.countQuery()
	groups := report.BreakdownByDescription(led.Snapshot())

	// Fewer than two distinct descriptions makes a meaningless chart; the
	// client shows a hint instead.
	if groups == nil {
		NewJSONResponse().
			Data(map[string]interface{}{"available": false}).
			Write(w)
		return
	}

	type groupJSON struct {
		Description    string `json:"description"`
		Total          string `json:"total"`
		FormattedTotal string `json:"formatted_total"`
		Count          int    `json:"count"`
	}
	out := make([]groupJSON, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupJSON{
			Description:    g.Description,
			Total:          core.FormatAmount(g.Total),
			FormattedTotal: formatCurrency(s.currency, g.Total),
			Count:          g.Count,
		})
	}

	NewJSONResponse().
		Data(map[string]interface{}{
			"available": true,
			"groups":    out,
		}).
		Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, led *ledger.Ledger) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	s.countQuery()
	totals := report.Summarize(led.Snapshot())

	NewJSONResponse().
		Data(map[string]interface{}{
			"initialized":               totals.Initialized,
			"initial_balance":           core.FormatAmount(totals.InitialBalance),
			"total_spent":               core.FormatAmount(totals.TotalSpent),
			"current_balance":           core.FormatAmount(totals.CurrentBalance),
			"formatted_initial_balance": formatCurrency(s.currency, totals.InitialBalance),
			"formatted_total_spent":     formatCurrency(s.currency, totals.TotalSpent),
			"formatted_current_balance": formatCurrency(s.currency, totals.CurrentBalance),
			"remaining_ratio":           totals.RemainingRatio,
		}).
		Write(w)
}
