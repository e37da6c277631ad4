// Package store imports fetched transactions into postgres.
package store

import (
	"context"
	"fmt"

	"github.com/flarebyte/bankpull/internal/transaction"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Execer is the subset of *pgxpool.Pool and pgx.Tx the store needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Result counts the outcome of an import.
type Result struct {
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
}

// Store writes transactions through an Execer.
type Store struct {
	db Execer
}

// New returns a store backed by db.
func New(db Execer) *Store {
	return &Store{db: db}
}

// Connect opens a pool and checks the connection.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS bank_transactions (
	id BIGSERIAL PRIMARY KEY,
	transaction_id TEXT UNIQUE,
	module TEXT NOT NULL,
	date DATE NOT NULL,
	amount NUMERIC(14, 2) NOT NULL,
	label TEXT NOT NULL,
	raw_label TEXT,
	category TEXT,
	imported_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const indexSQL = `
CREATE INDEX IF NOT EXISTS bank_transactions_dedup_idx
	ON bank_transactions (module, date, amount, label)`

// A row is a duplicate when its backend id was already stored or when the
// same module already holds an entry with equal date, amount and label.
// Both guards always apply.
const insertSQL = `
INSERT INTO bank_transactions (transaction_id, module, date, amount, label, raw_label, category)
SELECT $1::text, $2::text, $3::date, $4::numeric, $5::text, $6::text, $7::text
WHERE NOT EXISTS (
	SELECT 1 FROM bank_transactions
	WHERE module = $2::text AND date = $3::date AND amount = $4::numeric AND label = $5::text
)
ON CONFLICT (transaction_id) DO NOTHING`

// EnsureSchema creates the table and its lookup index when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, q := range []string{schemaSQL, indexSQL} {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return fmt.Errorf("store: schema: %w", err)
		}
	}
	return nil
}

// Import inserts txs for module, skipping duplicates.
func (s *Store) Import(ctx context.Context, module string, txs []transaction.Transaction) (Result, error) {
	var res Result
	for i, t := range txs {
		tag, err := s.db.Exec(ctx, insertSQL,
			t.ID,
			module,
			t.Date,
			t.Amount.String(),
			t.Label,
			t.RawLabel,
			t.Category,
		)
		if err != nil {
			return res, fmt.Errorf("store: transaction %d: %w", i, err)
		}
		if tag.RowsAffected() == 1 {
			res.Imported++
		} else {
			res.Duplicates++
		}
	}
	return res, nil
}
