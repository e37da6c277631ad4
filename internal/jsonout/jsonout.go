// Package jsonout renders command results on stdout.
package jsonout

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/flarebyte/bankpull/internal/transaction"
)

// ErrorEnvelope is the document printed in place of a result on failure.
type ErrorEnvelope struct {
	Error string `json:"error"`
}

func encodeJSONCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJSONPretty(v any) ([]byte, error) {
	b, err := encodeJSONCompact(v)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimRight(b, "\n"), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// WriteValue writes v as one JSON document followed by a newline.
func WriteValue(w io.Writer, v any, pretty bool) error {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = encodeJSONPretty(v)
	} else {
		b, err = encodeJSONCompact(v)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// WriteTransactions writes txs as a JSON array; nil is written as [].
func WriteTransactions(w io.Writer, txs []transaction.Transaction, pretty bool) error {
	if txs == nil {
		txs = []transaction.Transaction{}
	}
	return WriteValue(w, txs, pretty)
}

// WriteError writes {"error": msg} with msg collapsed to a single line.
func WriteError(w io.Writer, msg string, pretty bool) error {
	return WriteValue(w, ErrorEnvelope{Error: SingleLine(msg)}, pretty)
}

// SingleLine collapses runs of whitespace, including newlines, to one space.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
