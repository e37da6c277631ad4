// Package statement is the "bbva" module: transactions read from BBVA
// account exports (CSV or XLSX) stored on disk. The config key "path" names
// one export or a directory searched for them.
package statement

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/flarebyte/bankpull/internal/backend"
	"github.com/flarebyte/bankpull/internal/transaction"
	"github.com/google/uuid"
)

// Name is the bank argument selecting this module.
const Name = "bbva"

// idSpace namespaces the deterministic ids given to statement rows.
var idSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/flarebyte/bankpull/statement"))

// Backend reads exports below root.
type Backend struct {
	root        string
	single      string
	noGitignore bool
}

// New builds the backend. path must exist.
func New(cfg backend.Config) (*Backend, error) {
	p, err := cfg.Require("path")
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("statement path: %w", err)
	}
	noGit, _ := strconv.ParseBool(cfg.Get("no_gitignore"))
	b := &Backend{root: abs, noGitignore: noGit}
	if !st.IsDir() {
		b.root = filepath.Dir(abs)
		b.single = filepath.Base(abs)
	}
	return b, nil
}

// Accounts returns one account per export file, identified by its path
// relative to the configured directory.
func (b *Backend) Accounts(context.Context) ([]transaction.Account, error) {
	var files []string
	if b.single != "" {
		files = []string{b.single}
	} else {
		found, err := discover(b.root, b.noGitignore)
		if err != nil {
			return nil, err
		}
		files = found
	}
	out := make([]transaction.Account, 0, len(files))
	for _, f := range files {
		out = append(out, transaction.Account{
			ID:    f,
			Label: strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)),
		})
	}
	return out, nil
}

// History parses the export behind account.
func (b *Backend) History(ctx context.Context, account transaction.Account) ([]transaction.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := filepath.Join(b.root, filepath.FromSlash(account.ID))
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var cells [][]string
	switch strings.ToLower(filepath.Ext(p)) {
	case ".xlsx":
		cells, err = readXLSX(f)
	default:
		cells, err = readCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", account.ID, err)
	}
	rows := parseRows(cells)
	out := make([]transaction.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toTransaction(account.ID))
	}
	return out, nil
}

func (r row) toTransaction(accountID string) transaction.Transaction {
	key := strings.Join([]string{accountID, strconv.Itoa(r.Index), r.Date, r.Amount.String(), r.Label}, "\x00")
	id := uuid.NewSHA1(idSpace, []byte(key)).String()
	return transaction.Transaction{
		Date:     r.Date,
		Amount:   r.Amount,
		Label:    r.Label,
		RawLabel: transaction.StringPtr(r.Notes),
		ID:       &id,
	}
}

func init() {
	backend.Register(backend.Module{
		Name:         Name,
		Description:  "BBVA account statement exports (CSV or XLSX) read from disk",
		Capabilities: []string{backend.CapBank},
		ConfigKeys:   []string{"path", "no_gitignore"},
		EnvKeys: map[string]string{
			"path": "BBVA_STATEMENTS",
		},
		New: func(cfg backend.Config) (backend.Backend, error) {
			return New(cfg)
		},
	})
}
