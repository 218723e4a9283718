package http

import (
	"net/http"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/ledger"
	"cashflow/internal/log"
	"cashflow/internal/report"
)

// transactionJSON is the wire form of a ledger transaction. Amounts travel
// as fixed two-decimal strings; floats would lose the decimal semantics.
type transactionJSON struct {
	ID              string `json:"id"`
	Amount          string `json:"amount"`
	FormattedAmount string `json:"formatted_amount"`
	Description     string `json:"description"`
	RecordedAt      string `json:"recorded_at"`
	OccurredOn      string `json:"occurred_on"`
	Time            string `json:"time"`
}

func (s *Server) toTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:              tx.ID,
		Amount:          core.FormatAmount(tx.Amount),
		FormattedAmount: formatCurrency(s.currency, tx.Amount),
		Description:     tx.Description,
		RecordedAt:      tx.RecordedAt.Format(time.RFC3339),
		OccurredOn:      tx.OccurredOn.String(),
		Time:            tx.RecordedAt.Format("15:04:05"),
	}
}

// handleBalance dispatches POST (set starting balance) and GET (current
// balance) on /balance.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request, led *ledger.Ledger) {
	switch r.Method {
	case http.MethodPost:
		s.handleSetBalance(w, r, led)
	case http.MethodGet:
		s.handleCurrentBalance(w, r, led)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleSetBalance(w http.ResponseWriter, r *http.Request, led *ledger.Ledger) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to parse request body",
			log.FieldError, err,
			log.FieldOperation, log.OpSetBalance)
		NewJSONResponse().
			Status(http.StatusBadRequest).
			Error("bad_request", "Malformed request body").
			Write(w)
		return
	}

	amount, err := core.ParseAmount(parser.Get("amount"))
	if err != nil {
		writeCommandError(w, err)
		return
	}

	if err := led.SetInitialBalance(amount); err != nil {
		writeCommandError(w, err)
		return
	}
	s.countCommand()

	s.logger.InfoContext(r.Context(), "Starting balance set",
		log.FieldOperation, log.OpSetBalance,
		log.FieldAmount, core.FormatAmount(amount))

	NewJSONResponse().
		Status(http.StatusCreated).
		Data(map[string]interface{}{
			"initial_balance":           core.FormatAmount(amount),
			"formatted_initial_balance": formatCurrency(s.currency, amount),
			"message":                   "Initial balance set successfully",
		}).
		Write(w)
}

func (s *Server) handleCurrentBalance(w http.ResponseWriter, r *http.Request, led *ledger.Ledger) {
	s.countQuery()
	snap := led.Snapshot()
	balance := report.CurrentBalance(snap)

	NewJSONResponse().
		Data(map[string]interface{}{
			"initialized":       snap.Initialized,
			"balance":           core.FormatAmount(balance),
			"formatted_balance": formatCurrency(s.currency, balance),
			"negative":          balance.Sign() < 0,
		}).
		Write(w)
}

// handleExpenses dispatches POST (record an expense) and GET (transaction
// history, most recent first) on /expenses.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request, led *ledger.Ledger) {
	switch r.Method {
	case http.MethodPost:
		s.handleAddExpense(w, r, led)
	case http.MethodGet:
		s.handleHistory(w, r, led)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request, led *ledger.Ledger) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to parse request body",
			log.FieldError, err,
			log.FieldOperation, log.OpAddExpense)
		NewJSONResponse().
			Status(http.StatusBadRequest).
			Error("bad_request", "Malformed request body").
			Write(w)
		return
	}

	amount, err := core.ParseAmount(parser.Get("amount"))
	if err != nil {
		writeCommandError(w, err)
		return
	}
	description := parser.Get("description")

	tx, err := led.AddExpense(amount, description)
	if err != nil {
		writeCommandError(w, err)
		return
	}
	s.countCommand()

	balance := report.CurrentBalance(led.Snapshot())

	// Mirror the balance state back so the client can warn without a
	// second round trip.
	warning := ""
	switch balance.Sign() {
	case -1:
		warning = "You've exceeded your initial balance"
	case 0:
		warning = "You've spent all your money"
	}

	s.logger.InfoContext(r.Context(), "Expense recorded",
		log.FieldOperation, log.OpAddExpense,
		log.FieldTransactionID, tx.ID,
		log.FieldDescription, tx.Description,
		log.FieldAmount, core.FormatAmount(tx.Amount),
		log.FieldBalance, core.FormatAmount(balance))

	NewJSONResponse().
		Status(http.StatusCreated).
		Data(map[string]interface{}{
			"transaction":       s.toTransactionJSON(tx),
			"balance":           core.FormatAmount(balance),
			"formatted_balance": formatCurrency(s.currency, balance),
			"warning":           warning,
		}).
		Write(w)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, led *ledger.Ledger) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}

	led.Reset()
	s.countCommand()

	s.logger.InfoContext(r.Context(), "Ledger reset",
		log.FieldOperation, log.OpReset)

	NewJSONResponse().
		Data(map[string]interface{}{
			"message": "All data reset successfully",
		}).
		Write(w)
}
