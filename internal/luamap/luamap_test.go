package luamap

import (
	"context"
	"strings"
	"testing"

	"github.com/flarebyte/bankpull/internal/transaction"
	"github.com/shopspring/decimal"
)

func sample() []transaction.Transaction {
	return []transaction.Transaction{
		{Date: "2026-02-15", Amount: decimal.RequireFromString("-45.50"), Label: "MOCK GROCERY STORE", Category: transaction.StringPtr("Food")},
		{Date: "2026-02-15", Amount: decimal.RequireFromString("-12.00"), Label: "MOCK NETFLIX"},
		{Date: "2026-02-14", Amount: decimal.RequireFromString("1500.00"), Label: "MOCK SALARY", ID: transaction.StringPtr("s1")},
	}
}

func mustNew(t *testing.T, code string, opts Options) *Mapper {
	t.Helper()
	m, err := New(code, opts)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return m
}

func TestApply_FilterExpression(t *testing.T) {
	m := mustNew(t, "tx.amount < 0", Options{})
	got, err := m.Apply(context.Background(), sample())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(got) != 2 || got[0].Label != "MOCK GROCERY STORE" || got[1].Label != "MOCK NETFLIX" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if got[0].Amount.String() != "-45.5" {
		t.Fatalf("amount changed: %s", got[0].Amount)
	}
}

func TestApply_OverrideFields(t *testing.T) {
	code := `
if tx.category == nil then
  return { category = "Uncategorized", label = string.lower(tx.label) }
end
return true`
	got, err := mustNew(t, code, Options{}).Apply(context.Background(), sample())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(got))
	}
	if transaction.Deref(got[0].Category) != "Food" || got[0].Label != "MOCK GROCERY STORE" {
		t.Fatalf("unexpected first: %+v", got[0])
	}
	if transaction.Deref(got[1].Category) != "Uncategorized" || got[1].Label != "mock netflix" {
		t.Fatalf("unexpected second: %+v", got[1])
	}
	if transaction.Deref(got[2].ID) != "s1" {
		t.Fatalf("id lost: %+v", got[2])
	}
}

func TestApply_AmountOverride(t *testing.T) {
	got, err := mustNew(t, `{ amount = tx.amount * 2, id = "" }`, Options{}).Apply(context.Background(), sample()[2:])
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !got[0].Amount.Equal(decimal.RequireFromString("3000")) {
		t.Fatalf("unexpected amount: %s", got[0].Amount)
	}
	if got[0].ID != nil {
		t.Fatalf("expected id cleared, got %q", *got[0].ID)
	}
}

func TestApply_Errors(t *testing.T) {
	cases := map[string]string{
		`"nope"`:                 returnTypeMismatch,
		`{ label = 5 }`:          `field "label" must be a string`,
		`{ amount = "x1" }`:      `field "amount"`,
		`error("boom")`:          "boom",
		`return io.open("f")`:    "transaction 0",
		`return dofile("x.lua")`: "transaction 0",
	}
	for code, want := range cases {
		_, err := mustNew(t, code, Options{}).Apply(context.Background(), sample())
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("%s: expected error containing %q, got %v", code, want, err)
		}
	}
}

func TestApply_Timeout(t *testing.T) {
	m := mustNew(t, "while true do end return true", Options{TimeoutMs: 10})
	_, err := m.Apply(context.Background(), sample())
	if err == nil || err.Error() != "lua map: transaction 0: sandbox timeout" {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestApply_DeterministicRandom(t *testing.T) {
	code := `{ category = tostring(math.random(1, 1000000)) }`
	m := mustNew(t, code, Options{})
	a, err := m.Apply(context.Background(), sample())
	if err != nil {
		t.Fatalf("run1: %v", err)
	}
	b, err := m.Apply(context.Background(), sample())
	if err != nil {
		t.Fatalf("run2: %v", err)
	}
	for i := range a {
		if *a[i].Category != *b[i].Category {
			t.Fatalf("random not deterministic at %d: %s vs %s", i, *a[i].Category, *b[i].Category)
		}
	}
}

func TestNew_CompileErrors(t *testing.T) {
	if _, err := New("   ", Options{}); err == nil {
		t.Fatalf("expected empty script error")
	}
	if _, err := New("return (", Options{}); err == nil || !strings.HasPrefix(err.Error(), "lua map: ") {
		t.Fatalf("expected syntax error, got %v", err)
	}
}
