package statement

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Column headers of a BBVA account export.
const (
	colValueDate = "F.Valor"
	colDate      = "Fecha"
	colConcept   = "Concepto"
	colAmount    = "Importe"
	colCurrency  = "Divisa"
	colNotes     = "Observaciones"
)

const (
	headerScanRows   = 20
	headerMinMatches = 3
	defaultLabel     = "Imported Transaction"
)

var requiredHeaders = []string{colValueDate, colDate, colConcept, colAmount, colCurrency}

// row is one parsed statement line.
type row struct {
	Index    int
	Date     string
	Amount   decimal.Decimal
	Label    string
	Notes    string
	Currency string
}

// readCSV returns the cells of a CSV export. The delimiter is guessed from
// the first line: exports from Spanish locales use ';'.
func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	first := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		first = data[:i]
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		cr.Comma = ';'
	}
	return cr.ReadAll()
}

// readXLSX returns the formatted cells of the first sheet.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

func trimCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

// findHeaderRow returns the first row among the leading rows holding at
// least three of the expected headers, or 0 when none does.
func findHeaderRow(rows [][]string) int {
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		cells := trimCells(rows[i])
		matches := 0
		for _, h := range requiredHeaders {
			if indexOf(cells, h) >= 0 {
				matches++
			}
		}
		if matches >= headerMinMatches {
			return i
		}
	}
	return 0
}

func indexOf(cells []string, name string) int {
	for i, c := range cells {
		if c == name {
			return i
		}
	}
	return -1
}

func cell(r []string, idx int) string {
	if idx < 0 || idx >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[idx])
}

// parseRows maps raw cells to statement rows. Lines without a valid date
// or amount are skipped.
func parseRows(rows [][]string) []row {
	if len(rows) == 0 {
		return nil
	}
	h := findHeaderRow(rows)
	headers := trimCells(rows[h])
	valueDateIdx := indexOf(headers, colValueDate)
	dateIdx := indexOf(headers, colDate)
	conceptIdx := indexOf(headers, colConcept)
	amountIdx := indexOf(headers, colAmount)
	currencyIdx := indexOf(headers, colCurrency)
	notesIdx := indexOf(headers, colNotes)

	var out []row
	for i := h + 1; i < len(rows); i++ {
		r := rows[i]
		if len(r) == 0 {
			continue
		}
		rawDate := cell(r, valueDateIdx)
		if rawDate == "" {
			rawDate = cell(r, dateIdx)
		}
		date, ok := parseDate(rawDate)
		if !ok {
			continue
		}
		amount, ok := parseAmount(cell(r, amountIdx))
		if !ok {
			continue
		}
		label := cell(r, conceptIdx)
		if label == "" {
			label = defaultLabel
		}
		out = append(out, row{
			Index:    i,
			Date:     date,
			Amount:   amount,
			Label:    label,
			Notes:    cell(r, notesIdx),
			Currency: cell(r, currencyIdx),
		})
	}
	return out
}

// parseDate converts DD/MM/YYYY to YYYY-MM-DD.
func parseDate(s string) (string, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return "", false
	}
	day, month, year := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])
	if len(year) != 4 || day == "" || month == "" || len(day) > 2 || len(month) > 2 {
		return "", false
	}
	return year + "-" + pad2(month) + "-" + pad2(day), true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// parseAmount accepts "-2.71", "-1.234,56", "1,234.56" and "12,34",
// with optional currency symbols. The last separator is the decimal one
// when both appear.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.NewReplacer("€", "", "$", "", " ", "").Replace(s))
	if s == "" {
		return decimal.Decimal{}, false
	}
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
