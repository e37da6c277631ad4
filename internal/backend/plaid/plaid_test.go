package plaid

import (
	"errors"
	"testing"

	"github.com/flarebyte/bankpull/internal/backend"
	"github.com/shopspring/decimal"
)

func TestEntryToTransaction_FlipsSign(t *testing.T) {
	got := entry{
		ID:       "tx_1",
		Date:     "2026-02-15",
		Amount:   12.5,
		Name:     "Netflix",
		Original: "NETFLIX.COM 866-579-7172",
		Category: "ENTERTAINMENT",
	}.toTransaction()
	if !got.Amount.Equal(decimal.RequireFromString("-12.5")) {
		t.Fatalf("unexpected amount: %s", got.Amount)
	}
	if got.Label != "Netflix" || got.RawLabel == nil || *got.RawLabel != "NETFLIX.COM 866-579-7172" {
		t.Fatalf("unexpected labels: %+v", got)
	}
	if got.Category == nil || *got.Category != "Entertainment" {
		t.Fatalf("unexpected category: %v", got.Category)
	}
	if got.ID == nil || *got.ID != "tx_1" {
		t.Fatalf("unexpected id: %v", got.ID)
	}
}

func TestEntryToTransaction_IncomeAndFallbacks(t *testing.T) {
	got := entry{Date: "2026-02-10", Amount: -1500, Merchant: "ACME Corp"}.toTransaction()
	if !got.Amount.Equal(decimal.RequireFromString("1500")) {
		t.Fatalf("unexpected amount: %s", got.Amount)
	}
	if got.Label != "ACME Corp" {
		t.Fatalf("expected merchant fallback, got %q", got.Label)
	}
	if got.RawLabel != nil || got.Category != nil || got.ID != nil {
		t.Fatalf("expected absent optional fields: %+v", got)
	}
}

func TestCategoryName(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"FOOD_AND_DRINK": "Food and drink",
		"INCOME":         "Income",
	}
	for in, want := range cases {
		if got := categoryName(in); got != want {
			t.Fatalf("categoryName(%q): want %q got %q", in, want, got)
		}
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(backend.Config{"login": "client", "password": "secret"})
	if !errors.Is(err, backend.ErrMissingConfig) {
		t.Fatalf("expected missing access_token, got %v", err)
	}
	_, err = New(backend.Config{"access_token": "tok"})
	if !errors.Is(err, backend.ErrMissingConfig) {
		t.Fatalf("expected missing client id, got %v", err)
	}
}

func TestNew_InvalidEnvironment(t *testing.T) {
	_, err := New(backend.Config{"login": "c", "password": "s", "access_token": "t", "environment": "staging"})
	if err == nil || err.Error() != "invalid Plaid environment: staging" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_Sandbox(t *testing.T) {
	b, err := New(backend.Config{"username": "c", "secret": "s", "access_token": "t"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if b.accessToken != "t" || b.client == nil {
		t.Fatalf("unexpected backend: %+v", b)
	}
}
