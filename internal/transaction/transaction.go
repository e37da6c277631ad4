// Package transaction holds the records bankpull prints: bank accounts and
// the ledger entries fetched from them.
package transaction

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the only date format emitted in transaction records.
const DateLayout = "2006-01-02"

// Account is one bank account exposed by a backend.
type Account struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Currency string `json:"currency,omitempty"`
}

// Transaction is a single ledger entry. Amount is signed: negative values
// leave the account.
type Transaction struct {
	Date     string
	Amount   decimal.Decimal
	Label    string
	RawLabel *string
	Category *string
	ID       *string
}

// wire keeps the JSON field order stable.
type wire struct {
	Date     string      `json:"date"`
	Amount   json.Number `json:"amount"`
	Label    string      `json:"label"`
	RawLabel *string     `json:"raw_label,omitempty"`
	Category *string     `json:"category,omitempty"`
	ID       *string     `json:"id,omitempty"`
}

// MarshalJSON writes the amount as a JSON number rather than the quoted
// string decimal.Decimal produces by default. Labels are not HTML-escaped.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(wire{
		Date:     t.Date,
		Amount:   json.Number(t.Amount.String()),
		Label:    t.Label,
		RawLabel: t.RawLabel,
		Category: t.Category,
		ID:       t.ID,
	})
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON accepts the shape produced by MarshalJSON.
func (t *Transaction) UnmarshalJSON(b []byte) error {
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	amount := decimal.Zero
	if w.Amount != "" {
		d, err := decimal.NewFromString(w.Amount.String())
		if err != nil {
			return err
		}
		amount = d
	}
	*t = Transaction{
		Date:     w.Date,
		Amount:   amount,
		Label:    w.Label,
		RawLabel: w.RawLabel,
		Category: w.Category,
		ID:       w.ID,
	}
	return nil
}

// FormatDate renders d in DateLayout.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string, or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
