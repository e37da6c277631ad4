package statement

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flarebyte/bankpull/internal/backend"
	"github.com/flarebyte/bankpull/internal/transaction"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var sampleRows = [][]string{
	{},
	{"", "", "Últimos movimientos"},
	{"", "", "Fecha de generación del informe: 15/02/2026"},
	{},
	{"F.Valor", "Fecha", "Concepto", "Movimiento", "Importe", "Divisa", "Disponible", "Divisa", "Observaciones"},
	{"15/02/2026", "16/02/2026", "Supermercado Test", "Pago con tarjeta", "-2.71", "EUR", "3649.51", "EUR", "REF-123 SUPERMERCADO TEST"},
	{"15/02/2026", "16/02/2026", "Gasolinera Test", "Pago con tarjeta", "-16.06", "EUR", "3652.22", "EUR", "REF-456 GASOLINERA TEST"},
	{"14/02/2026", "16/02/2026", "Electronics Store", "Pago con tarjeta", "-92.32", "EUR", "3668.28", "EUR", "REF-789 ELECTRONICS"},
	{"10/02/2026", "11/02/2026", "Transferencia Recibida", "Transferencia Favor", "1500.00", "EUR", "5000.00", "EUR", "NOMINA FEBRERO"},
	{"14/02/2026", "16/02/2026", "Bizum", "Enviado: cena", " -13.00", "EUR", "3833.8", "EUR", "ENVIADO: Cena amigos"},
}

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
}

func writeXLSX(t *testing.T, p string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, r := range rows {
		vals := make([]any, len(r))
		for j, c := range r {
			vals[j] = c
		}
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", ref, &vals); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestParseRows_Sample(t *testing.T) {
	rows := parseRows(sampleRows)
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	if rows[0].Date != "2026-02-15" || !rows[0].Amount.Equal(decimal.RequireFromString("-2.71")) || rows[0].Label != "Supermercado Test" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[3].Date != "2026-02-10" || !rows[3].Amount.Equal(decimal.RequireFromString("1500")) || rows[3].Label != "Transferencia Recibida" {
		t.Fatalf("unexpected income row: %+v", rows[3])
	}
	if rows[4].Notes != "ENVIADO: Cena amigos" || !rows[4].Amount.Equal(decimal.RequireFromString("-13")) {
		t.Fatalf("unexpected bizum row: %+v", rows[4])
	}
}

func TestParseRows_EmptyInput(t *testing.T) {
	if got := parseRows(nil); len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
}

func TestParseRows_FallbackDateAndLabel(t *testing.T) {
	rows := parseRows([][]string{
		{"F.Valor", "Fecha", "Concepto", "Importe"},
		{"", "3/1/2026", "", "10"},
		{"bad", "", "Skipped", "1"},
		{"01/01/2026", "", "No amount", "abc"},
	})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %+v", rows)
	}
	if rows[0].Date != "2026-01-03" || rows[0].Label != defaultLabel {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
}

func TestFindHeaderRow_NoHeaders(t *testing.T) {
	if got := findHeaderRow([][]string{{"a", "b"}, {"c"}}); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"-2.71":     "-2.71",
		"-1.234,56": "-1234.56",
		"1,234.56":  "1234.56",
		"12,34":     "12.34",
		"€ 15,00":   "15",
		"$3.50":     "3.5",
	}
	for in, want := range cases {
		got, ok := parseAmount(in)
		if !ok || !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("parseAmount(%q): want %s got %s (ok=%v)", in, want, got, ok)
		}
	}
	if _, ok := parseAmount("n/a"); ok {
		t.Fatalf("expected failure for n/a")
	}
}

func TestParseDate(t *testing.T) {
	if got, ok := parseDate("5/2/2026"); !ok || got != "2026-02-05" {
		t.Fatalf("unexpected: %s %v", got, ok)
	}
	for _, in := range []string{"2026-02-05", "05/02/26", "", "1/2/3/4"} {
		if _, ok := parseDate(in); ok {
			t.Fatalf("expected %q to be rejected", in)
		}
	}
}

func TestReadCSV_SemicolonAndBOM(t *testing.T) {
	in := "\xef\xbb\xbfF.Valor;Fecha;Concepto;Importe;Divisa\n15/02/2026;16/02/2026;Cafe;-1,50;EUR\n"
	cells, err := readCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	rows := parseRows(cells)
	if len(rows) != 1 || !rows[0].Amount.Equal(decimal.RequireFromString("-1.5")) || rows[0].Label != "Cafe" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestFetch_XLSXFile(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "bbva_test.xlsx")
	writeXLSX(t, p, sampleRows)

	got, err := backend.Fetch(context.Background(), Name, backend.Config{"path": p})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 transactions, got %d", len(got))
	}
	if got[0].Date != "2026-02-15" || got[0].Label != "Supermercado Test" {
		t.Fatalf("unexpected first transaction: %+v", got[0])
	}
	if transaction.Deref(got[0].RawLabel) != "REF-123 SUPERMERCADO TEST" {
		t.Fatalf("unexpected raw label: %v", got[0].RawLabel)
	}
	if got[0].ID == nil || *got[0].ID == *got[1].ID {
		t.Fatalf("expected distinct ids")
	}

	again, err := backend.Fetch(context.Background(), Name, backend.Config{"path": p})
	if err != nil {
		t.Fatalf("fetch again: %v", err)
	}
	if *again[0].ID != *got[0].ID {
		t.Fatalf("expected stable ids across runs")
	}
}

func TestFetch_DirectoryHonorsGitignore(t *testing.T) {
	d := t.TempDir()
	csv := "F.Valor,Fecha,Concepto,Importe,Divisa\n01/03/2026,01/03/2026,Cafe,-1.20,EUR\n"
	writeFile(t, filepath.Join(d, "2026", "march.csv"), csv)
	writeFile(t, filepath.Join(d, "old", "feb.csv"), csv)
	writeFile(t, filepath.Join(d, "notes.txt"), "ignore me")
	writeFile(t, filepath.Join(d, ".gitignore"), "old/\n")

	b, err := New(backend.Config{"path": d})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	accounts, err := b.Accounts(context.Background())
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	if len(accounts) != 1 || accounts[0].ID != "2026/march.csv" || accounts[0].Label != "march" {
		t.Fatalf("unexpected accounts: %+v", accounts)
	}

	b, err = New(backend.Config{"path": d, "no_gitignore": "true"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	accounts, err = b.Accounts(context.Background())
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	if len(accounts) != 2 || accounts[1].ID != "old/feb.csv" {
		t.Fatalf("unexpected accounts without gitignore: %+v", accounts)
	}
}

func TestNew_MissingPath(t *testing.T) {
	_, err := New(backend.Config{})
	if !errors.Is(err, backend.ErrMissingConfig) {
		t.Fatalf("expected ErrMissingConfig, got %v", err)
	}
	_, err = New(backend.Config{"path": filepath.Join(t.TempDir(), "nope.csv")})
	if err == nil || !strings.HasPrefix(err.Error(), "statement path:") {
		t.Fatalf("unexpected error: %v", err)
	}
}
