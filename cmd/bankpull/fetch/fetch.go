package fetch

import (
	"context"
	"io"
	"os"

	"github.com/flarebyte/bankpull/internal/backend"
	_ "github.com/flarebyte/bankpull/internal/backend/all"
	"github.com/flarebyte/bankpull/internal/backend/mock"
	"github.com/flarebyte/bankpull/internal/categorize"
	"github.com/flarebyte/bankpull/internal/config"
	"github.com/flarebyte/bankpull/internal/credentials"
	"github.com/flarebyte/bankpull/internal/jsonout"
	"github.com/flarebyte/bankpull/internal/luamap"
	"github.com/flarebyte/bankpull/internal/transaction"
	"github.com/spf13/cobra"
)

// NewCmd returns the `bankpull fetch <bank>` command.
func NewCmd() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "fetch <bank>",
		Short: "Fetch transactions; credentials are read as JSON on stdin",
		Long: "Fetch transactions from a bank module, or fixed sample data for \"mock\".\n" +
			"Credentials are a JSON object on stdin, e.g. {\"username\":\"u\",\"password\":\"p\"}.\n" +
			"The result is a JSON array of transactions, or {\"error\": \"...\"}.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), args[0], *opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	BindFlags(cmd, opts)
	return cmd
}

// Run fetches bank with the credentials on stdin and prints the result. Every
// failure after the flags were accepted is printed as an error document.
func Run(ctx context.Context, bank string, o Options, stdin io.Reader, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := o.Resolve(stderr)
	if err != nil {
		return err
	}
	creds, err := ReadCredentials(stdin, stdout, s)
	if err != nil {
		return err
	}
	txs, err := Transactions(ctx, bank, s, creds)
	if err != nil {
		return Fail(stdout, s, err)
	}
	return jsonout.WriteTransactions(stdout, txs, s.Pretty)
}

// ReadCredentials decodes stdin. On failure the error document is printed and
// the returned error carries exit code 1.
func ReadCredentials(stdin io.Reader, stdout io.Writer, s Settings) (credentials.Credentials, error) {
	if stdin == nil {
		stdin = os.Stdin
	}
	creds, err := credentials.Read(stdin)
	if err != nil {
		s.Log.Debug().Err(err).Msg("reading credentials")
		if werr := jsonout.WriteError(stdout, err.Error(), s.Pretty); werr != nil {
			return credentials.Credentials{}, werr
		}
		return credentials.Credentials{}, evaluateFetchExit(err, true, s.StrictExit)
	}
	return creds, nil
}

// Fail prints err as an error document and returns the exit error, if any.
func Fail(stdout io.Writer, s Settings, err error) error {
	s.Log.Warn().Err(err).Msg("fetch failed")
	if werr := jsonout.WriteError(stdout, err.Error(), s.Pretty); werr != nil {
		return werr
	}
	return evaluateFetchExit(err, false, s.StrictExit)
}

// Transactions returns the post-processed history of bank.
func Transactions(ctx context.Context, bank string, s Settings, creds credentials.Credentials) ([]transaction.Transaction, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	var txs []transaction.Transaction
	if bank == mock.Name {
		s.Log.Debug().Msg("returning mock data")
		txs = mock.Transactions(s.Now())
	} else {
		cfg := moduleConfig(bank, s, creds)
		s.Log.Debug().Str("module", bank).Int("configKeys", len(cfg)).Msg("building backend")
		var err error
		txs, err = backend.Fetch(ctx, bank, cfg)
		if err != nil {
			return nil, err
		}
	}
	s.Log.Debug().Int("count", len(txs)).Msg("fetched")
	return postProcess(ctx, s, txs)
}

// moduleConfig layers the config file defaults, then the module's
// environment variables, then the credentials.
func moduleConfig(bank string, s Settings, creds credentials.Credentials) backend.Config {
	cfg := backend.Config{}.Merge(s.File.BackendDefaults(bank))
	if m, ok := backend.Lookup(bank); ok {
		env := backend.Config{}
		for key, name := range m.EnvKeys {
			if v := config.Getenv(name, ""); v != "" {
				env[key] = v
			}
		}
		cfg = cfg.Merge(env)
	}
	return cfg.Merge(creds.BackendConfig())
}

func postProcess(ctx context.Context, s Settings, txs []transaction.Transaction) ([]transaction.Transaction, error) {
	if s.RulesPath != "" {
		rules, err := categorize.Load(s.RulesPath)
		if err != nil {
			return nil, err
		}
		txs = rules.Apply(txs)
	}
	if s.MapInline != "" {
		m, err := luamap.New(s.MapInline, luamap.Options{TimeoutMs: s.LuaTimeoutMs})
		if err != nil {
			return nil, err
		}
		txs, err = m.Apply(ctx, txs)
		if err != nil {
			return nil, err
		}
	}
	return txs, nil
}
