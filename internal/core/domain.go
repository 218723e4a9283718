package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDescription labels expenses recorded without a description.
const DefaultDescription = "General Expense"

const maxDescriptionLen = 200

type (
	// Date is a calendar date with no time-of-day component.
	Date struct {
		time.Time
	}

	// Transaction is a single recorded expense. Transactions are immutable
	// once created and are never deleted individually.
	Transaction struct {
		ID          string
		Amount      decimal.Decimal
		Description string
		RecordedAt  time.Time
		OccurredOn  Date
	}

	// Snapshot is a read-only view of ledger state. The transaction slice
	// is a copy; consumers can hold it without racing the ledger.
	Snapshot struct {
		Initialized    bool
		InitialBalance decimal.Decimal
		Transactions   []Transaction
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrNotInitialized     = errors.New("ledger not initialized")
	ErrAlreadyInitialized = errors.New("ledger already initialized")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// ValidateAmount rejects zero and negative amounts. Only expenses exist in
// this model; credits are not representable.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.Cmp(decimal.Zero) <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if t.Description == "" {
		return errors.New("empty description")
	}
	if len(t.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if t.RecordedAt.IsZero() {
		return errors.New("recorded-at cannot be zero")
	}
	return t.OccurredOn.Validate()
}

// TotalSpent sums all transaction amounts in the snapshot.
func (s Snapshot) TotalSpent() decimal.Decimal {
	total := decimal.Zero
	for _, t := range s.Transactions {
		total = total.Add(t.Amount)
	}
	return total
}
