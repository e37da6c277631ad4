// Package plaid is the "plaid" module: accounts and transaction history of
// one Plaid item, read with the official plaid-go client.
package plaid

import (
	"context"
	"fmt"
	"strings"

	"github.com/flarebyte/bankpull/internal/backend"
	"github.com/flarebyte/bankpull/internal/transaction"
	"github.com/plaid/plaid-go/v41/plaid"
	"github.com/shopspring/decimal"
)

// Name is the bank argument selecting this module.
const Name = "plaid"

const (
	syncPageSize = 500
	maxSyncPages = 200
)

// Backend reads a single item identified by its access token.
type Backend struct {
	client      *plaid.APIClient
	accessToken string

	// history is filled by the first History call; transactions/sync is
	// not filterable per account so all pages are read once.
	history map[string][]transaction.Transaction
}

// NewClient configures an API client the way the Plaid quickstart does.
func NewClient(clientID, secret, env string) (*plaid.APIClient, error) {
	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	configuration.AddDefaultHeader("PLAID-SECRET", secret)

	switch strings.ToLower(env) {
	case "", "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	default:
		if strings.HasPrefix(env, "http://") || strings.HasPrefix(env, "https://") {
			configuration.UseEnvironment(plaid.Environment(env))
			break
		}
		return nil, fmt.Errorf("invalid Plaid environment: %s", env)
	}
	return plaid.NewAPIClient(configuration), nil
}

// New builds the backend from module config. login/username carry the
// client id and password the secret.
func New(cfg backend.Config) (*Backend, error) {
	clientID, err := cfg.Require("client_id", "login", "username")
	if err != nil {
		return nil, err
	}
	secret, err := cfg.Require("secret", "password")
	if err != nil {
		return nil, err
	}
	token, err := cfg.Require("access_token")
	if err != nil {
		return nil, err
	}
	client, err := NewClient(clientID, secret, cfg.Get("environment"))
	if err != nil {
		return nil, err
	}
	return &Backend{client: client, accessToken: token}, nil
}

// Accounts lists the accounts of the item.
func (b *Backend) Accounts(ctx context.Context) ([]transaction.Account, error) {
	req := plaid.NewAccountsGetRequest(b.accessToken)
	resp, _, err := b.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*req).Execute()
	if err != nil {
		return nil, describe(err)
	}
	accounts := resp.GetAccounts()
	out := make([]transaction.Account, 0, len(accounts))
	for _, acc := range accounts {
		balances := acc.GetBalances()
		out = append(out, transaction.Account{
			ID:       acc.GetAccountId(),
			Label:    acc.GetName(),
			Currency: balances.GetIsoCurrencyCode(),
		})
	}
	return out, nil
}

// History returns the account's entries from a full transactions/sync walk.
func (b *Backend) History(ctx context.Context, account transaction.Account) ([]transaction.Transaction, error) {
	if b.history == nil {
		h, err := b.sync(ctx)
		if err != nil {
			return nil, err
		}
		b.history = h
	}
	return b.history[account.ID], nil
}

func (b *Backend) sync(ctx context.Context) (map[string][]transaction.Transaction, error) {
	out := map[string][]transaction.Transaction{}
	cursor := ""
	for page := 0; page < maxSyncPages; page++ {
		req := plaid.NewTransactionsSyncRequest(b.accessToken)
		req.SetCount(syncPageSize)
		if cursor != "" {
			req.SetCursor(cursor)
		}
		resp, _, err := b.client.PlaidApi.TransactionsSync(ctx).TransactionsSyncRequest(*req).Execute()
		if err != nil {
			return nil, describe(err)
		}
		for _, t := range resp.GetAdded() {
			e := entryFromPlaid(t)
			out[e.AccountID] = append(out[e.AccountID], e.toTransaction())
		}
		if !resp.GetHasMore() {
			return out, nil
		}
		cursor = resp.GetNextCursor()
	}
	return nil, fmt.Errorf("transactions sync did not finish after %d pages", maxSyncPages)
}

// entry is the subset of a Plaid transaction bankpull keeps.
type entry struct {
	ID          string
	AccountID   string
	Date        string
	Amount      float64
	Name        string
	Original    string
	Category    string
	Merchant    string
	CurrencyISO string
}

func entryFromPlaid(t plaid.Transaction) entry {
	pfc := t.GetPersonalFinanceCategory()
	return entry{
		ID:          t.GetTransactionId(),
		AccountID:   t.GetAccountId(),
		Date:        t.GetDate(),
		Amount:      t.GetAmount(),
		Name:        t.GetName(),
		Original:    t.GetOriginalDescription(),
		Category:    pfc.GetPrimary(),
		Merchant:    t.GetMerchantName(),
		CurrencyISO: t.GetIsoCurrencyCode(),
	}
}

// toTransaction flips the sign: Plaid reports money leaving the account as
// a positive amount.
func (e entry) toTransaction() transaction.Transaction {
	label := e.Name
	if label == "" {
		label = e.Merchant
	}
	return transaction.Transaction{
		Date:     e.Date,
		Amount:   decimal.NewFromFloat(e.Amount).Neg(),
		Label:    label,
		RawLabel: transaction.StringPtr(e.Original),
		Category: transaction.StringPtr(categoryName(e.Category)),
		ID:       transaction.StringPtr(e.ID),
	}
}

// categoryName turns FOOD_AND_DRINK into "Food and drink".
func categoryName(primary string) string {
	if primary == "" {
		return ""
	}
	s := strings.ToLower(strings.ReplaceAll(primary, "_", " "))
	return strings.ToUpper(s[:1]) + s[1:]
}

// describe surfaces the Plaid error code when the API returned one.
func describe(err error) error {
	perr, perrErr := plaid.ToPlaidError(err)
	if perrErr != nil || perr.ErrorCode == "" {
		return err
	}
	return fmt.Errorf("%s: %s", perr.ErrorCode, perr.ErrorMessage)
}

func init() {
	backend.Register(backend.Module{
		Name:         Name,
		Description:  "Plaid item accounts and transactions (transactions/sync)",
		Capabilities: []string{backend.CapBank},
		ConfigKeys:   []string{"login", "password", "access_token", "environment"},
		EnvKeys: map[string]string{
			"client_id":   "PLAID_CLIENT_ID",
			"secret":      "PLAID_SECRET",
			"environment": "PLAID_ENV",
		},
		New: func(cfg backend.Config) (backend.Backend, error) {
			return New(cfg)
		},
	})
}
