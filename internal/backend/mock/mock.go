// Package mock is the sentinel "mock" module: a fixed three-entry history
// used to exercise callers without a bank.
package mock

import (
	"context"
	"time"

	"github.com/flarebyte/bankpull/internal/backend"
	"github.com/flarebyte/bankpull/internal/transaction"
	"github.com/shopspring/decimal"
)

// Name is the bank argument selecting this module.
const Name = "mock"

// Backend ignores credentials entirely.
type Backend struct {
	now func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithNow overrides the clock used for "today".
func WithNow(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// New returns the mock backend.
func New(opts ...Option) *Backend {
	b := &Backend{now: time.Now}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Accounts returns the single mock account.
func (b *Backend) Accounts(context.Context) ([]transaction.Account, error) {
	return []transaction.Account{{ID: Name, Label: "MOCK ACCOUNT", Currency: "EUR"}}, nil
}

// History returns the fixed sample dataset.
func (b *Backend) History(context.Context, transaction.Account) ([]transaction.Transaction, error) {
	return Transactions(b.now()), nil
}

// Transactions returns the sample entries relative to today.
func Transactions(today time.Time) []transaction.Transaction {
	d := transaction.FormatDate(today)
	yesterday := transaction.FormatDate(today.AddDate(0, 0, -1))
	return []transaction.Transaction{
		{
			Date:     d,
			Amount:   decimal.RequireFromString("-45.50"),
			Label:    "MOCK GROCERY STORE",
			Category: transaction.StringPtr("Food"),
		},
		{
			Date:     d,
			Amount:   decimal.RequireFromString("-12.00"),
			Label:    "MOCK NETFLIX",
			Category: transaction.StringPtr("Entertainment"),
		},
		{
			Date:     yesterday,
			Amount:   decimal.RequireFromString("1500.00"),
			Label:    "MOCK SALARY",
			Category: transaction.StringPtr("Income"),
		},
	}
}

func init() {
	backend.Register(backend.Module{
		Name:         Name,
		Description:  "Fixed sample transactions, no network access",
		Capabilities: []string{backend.CapBank},
		New: func(backend.Config) (backend.Backend, error) {
			return New(), nil
		},
	})
}
