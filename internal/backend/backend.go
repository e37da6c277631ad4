// Package backend defines the bank module contract and the fetch loop that
// walks a module's accounts and their history.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/flarebyte/bankpull/internal/transaction"
)

// Capability names reported by modules.
const (
	CapBank = "bank"
)

var (
	// ErrUnknownModule is returned when no module has the requested name.
	ErrUnknownModule = errors.New("unknown module")
	// ErrBuild wraps failures to instantiate a backend.
	ErrBuild = errors.New("backend build failed")
	// ErrFetch wraps failures while iterating accounts or history.
	ErrFetch = errors.New("backend fetch failed")
	// ErrMissingConfig is returned by modules lacking a required key.
	ErrMissingConfig = errors.New("missing required config")
)

// Error carries a failure class next to the underlying cause. Its message
// is only Msg and the cause; the class is reachable through errors.Is.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error { return []error{e.Kind, e.Err} }

func fetchError(err error) error {
	return &Error{Kind: ErrFetch, Msg: "error fetching data", Err: err}
}

// Config is the flat key/value config a module is built from.
type Config map[string]string

// Get returns the first non-empty value among keys.
func (c Config) Get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(c[k]); v != "" {
			return v
		}
	}
	return ""
}

// Require is Get that fails when every key is empty.
func (c Config) Require(keys ...string) (string, error) {
	if v := c.Get(keys...); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(keys, "|"))
}

// Merge returns a copy of c overlaid with over.
func (c Config) Merge(over Config) Config {
	out := make(Config, len(c)+len(over))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Backend is an instantiated module able to list accounts.
type Backend interface {
	Accounts(ctx context.Context) ([]transaction.Account, error)
}

// HistoryProvider is implemented by backends with the bank capability.
type HistoryProvider interface {
	History(ctx context.Context, account transaction.Account) ([]transaction.Transaction, error)
}

// Fetch builds the named module and returns the history of all its
// accounts. Accounts are iterated first so backends can open their session.
func Fetch(ctx context.Context, name string, cfg Config) ([]transaction.Transaction, error) {
	b, err := Build(name, cfg)
	if err != nil {
		return nil, &Error{Kind: ErrBuild, Msg: fmt.Sprintf("failed to build backend '%s'", name), Err: err}
	}
	return collect(ctx, b)
}

func collect(ctx context.Context, b Backend) ([]transaction.Transaction, error) {
	out := []transaction.Transaction{}
	accounts, err := b.Accounts(ctx)
	if err != nil {
		return nil, fetchError(err)
	}
	hp, ok := b.(HistoryProvider)
	if !ok {
		return out, nil
	}
	for _, a := range accounts {
		if err := ctx.Err(); err != nil {
			return nil, fetchError(err)
		}
		trs, err := hp.History(ctx, a)
		if err != nil {
			return nil, fetchError(err)
		}
		out = append(out, trs...)
	}
	return out, nil
}
