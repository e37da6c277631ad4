package transaction

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMarshal_AmountIsNumberAndOptionalKeysOmitted(t *testing.T) {
	tr := Transaction{
		Date:     "2026-02-15",
		Amount:   decimal.RequireFromString("-45.50"),
		Label:    "MOCK GROCERY STORE",
		Category: StringPtr("Food"),
	}
	b, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"date":"2026-02-15","amount":-45.5,"label":"MOCK GROCERY STORE","category":"Food"}`
	if string(b) != want {
		t.Fatalf("unexpected JSON\nwant: %s\n got: %s", want, string(b))
	}
}

func TestMarshal_AllFields(t *testing.T) {
	tr := Transaction{
		Date:     "2026-02-10",
		Amount:   decimal.RequireFromString("1500"),
		Label:    "Transferencia Recibida",
		RawLabel: StringPtr("TRANSF RECIBIDA 0001"),
		Category: StringPtr("Income"),
		ID:       StringPtr("tx-1"),
	}
	b, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"date":"2026-02-10","amount":1500,"label":"Transferencia Recibida","raw_label":"TRANSF RECIBIDA 0001","category":"Income","id":"tx-1"}`
	if string(b) != want {
		t.Fatalf("unexpected JSON\nwant: %s\n got: %s", want, string(b))
	}
}

func TestUnmarshal_ReadsNumberAmount(t *testing.T) {
	var tr Transaction
	if err := json.Unmarshal([]byte(`{"date":"2026-01-01","amount":-2.71,"label":"x"}`), &tr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !tr.Amount.Equal(decimal.RequireFromString("-2.71")) {
		t.Fatalf("unexpected amount: %s", tr.Amount)
	}
	if !tr.Amount.IsNegative() {
		t.Fatalf("expected expense")
	}
	if tr.Category != nil || tr.ID != nil {
		t.Fatalf("expected absent optional fields")
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2026, 2, 5, 23, 59, 0, 0, time.UTC)
	if got := FormatDate(d); got != "2026-02-05" {
		t.Fatalf("unexpected date: %s", got)
	}
}
