package ingest

import (
	"context"
	"errors"
	"io"

	"github.com/flarebyte/bankpull/cmd/bankpull/fetch"
	"github.com/flarebyte/bankpull/internal/config"
	"github.com/flarebyte/bankpull/internal/jsonout"
	"github.com/flarebyte/bankpull/internal/store"
	"github.com/spf13/cobra"
)

// connectFunc opens the database; replaced in tests.
type connectFunc func(ctx context.Context, url string) (store.Execer, func(), error)

func connectPool(ctx context.Context, url string) (store.Execer, func(), error) {
	pool, err := store.Connect(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return pool, pool.Close, nil
}

var errNoDatabaseURL = errors.New("missing database url: set --database-url or " + config.DatabaseURLEnv)

// NewCmd returns the `bankpull ingest <bank>` command.
func NewCmd() *cobra.Command {
	opts := &fetch.Options{}
	var databaseURL string
	cmd := &cobra.Command{
		Use:           "ingest <bank>",
		Short:         "Fetch transactions and store them in postgres, skipping duplicates",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], *opts, databaseURL, connectPool, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	fetch.BindFlags(cmd, opts)
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (default: $"+config.DatabaseURLEnv+")")
	return cmd
}

func run(ctx context.Context, bank string, o fetch.Options, databaseURL string, connect connectFunc, stdin io.Reader, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := o.Resolve(stderr)
	if err != nil {
		return err
	}
	creds, err := fetch.ReadCredentials(stdin, stdout, s)
	if err != nil {
		return err
	}
	if databaseURL == "" {
		databaseURL = config.Getenv(config.DatabaseURLEnv, "")
	}
	if databaseURL == "" {
		return fetch.Fail(stdout, s, errNoDatabaseURL)
	}
	txs, err := fetch.Transactions(ctx, bank, s, creds)
	if err != nil {
		return fetch.Fail(stdout, s, err)
	}

	db, closeDB, err := connect(ctx, databaseURL)
	if err != nil {
		return fetch.Fail(stdout, s, err)
	}
	defer closeDB()
	st := store.New(db)
	if err := st.EnsureSchema(ctx); err != nil {
		return fetch.Fail(stdout, s, err)
	}
	res, err := st.Import(ctx, bank, txs)
	if err != nil {
		return fetch.Fail(stdout, s, err)
	}
	s.Log.Debug().Int("imported", res.Imported).Int("duplicates", res.Duplicates).Msg("ingest done")
	return jsonout.WriteValue(stdout, res, s.Pretty)
}
