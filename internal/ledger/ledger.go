// Package ledger implements the authoritative store for one session's
// cash-flow state: the starting balance and the ordered expense log.
package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cashflow/internal/core"
)

// Ledger holds the starting balance and the append-only transaction log for
// a single session. Commands are serialized by the mutex; derived views are
// computed elsewhere from a Snapshot, never from live internals.
type Ledger struct {
	mu             sync.Mutex
	initialized    bool
	initialBalance decimal.Decimal
	transactions   []core.Transaction

	now   func() time.Time
	newID func() string
}

// New creates an uninitialized ledger. No expense can be recorded until a
// starting balance is committed with SetInitialBalance.
func New() *Ledger {
	return &Ledger{
		initialBalance: decimal.Zero,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// SetInitialBalance commits the starting balance and marks the ledger
// initialized. The balance can be set exactly once per session; callers must
// Reset before setting it again.
func (l *Ledger) SetInitialBalance(amount decimal.Decimal) error {
	if err := core.ValidateAmount(amount); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return core.ErrAlreadyInitialized
	}
	l.initialBalance = amount
	l.initialized = true
	return nil
}

// AddExpense appends a transaction for the given amount. A blank description
// falls back to core.DefaultDescription; one past the length cap is rejected
// with core.ErrDescriptionTooLong. The transaction is stamped with the
// current wall-clock time and calendar date; backdating is not supported.
func (l *Ledger) AddExpense(amount decimal.Decimal, description string) (core.Transaction, error) {
	if err := core.ValidateAmount(amount); err != nil {
		return core.Transaction{}, err
	}
	if description == "" {
		description = core.DefaultDescription
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return core.Transaction{}, core.ErrNotInitialized
	}

	now := l.now()
	tx := core.Transaction{
		ID:          l.newID(),
		Amount:      amount,
		Description: description,
		RecordedAt:  now,
		OccurredOn:  core.DateOf(now),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	l.transactions = append(l.transactions, tx)
	return tx, nil
}

// Reset discards all state and returns the ledger to its freshly-created,
// uninitialized form. It always succeeds and is atomic: no reader can ever
// observe a partially cleared ledger.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.initialized = false
	l.initialBalance = decimal.Zero
	l.transactions = nil
}

// Snapshot returns an immutable copy of the ledger state. The returned
// transaction slice is detached; mutating it does not touch the ledger.
func (l *Ledger) Snapshot() core.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	txs := make([]core.Transaction, len(l.transactions))
	copy(txs, l.transactions)
	return core.Snapshot{
		Initialized:    l.initialized,
		InitialBalance: l.initialBalance,
		Transactions:   txs,
	}
}
