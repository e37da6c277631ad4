package root

import (
	"github.com/flarebyte/bankpull/cmd/bankpull/fetch"
	"github.com/flarebyte/bankpull/cmd/bankpull/ingest"
	"github.com/flarebyte/bankpull/cmd/bankpull/modules"
	"github.com/flarebyte/bankpull/cmd/bankpull/rules"
	"github.com/flarebyte/bankpull/cmd/bankpull/version"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for bankpull. `bankpull <bank>` is
// shorthand for `bankpull fetch <bank>`.
func NewRootCmd() *cobra.Command {
	opts := &fetch.Options{}
	cmd := &cobra.Command{
		Use:   "bankpull [bank]",
		Short: "CLI: fetch bank transactions as JSON, credentials read on stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Show help when neither a bank nor a subcommand is provided.
			if len(args) == 0 {
				return cmd.Help()
			}
			return fetch.Run(cmd.Context(), args[0], *opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	fetch.BindFlags(cmd, opts)

	// Subcommands
	cmd.AddCommand(version.VersionCmd)
	cmd.AddCommand(fetch.NewCmd())
	cmd.AddCommand(ingest.NewCmd())
	cmd.AddCommand(modules.Cmd)
	cmd.AddCommand(rules.Cmd)

	return cmd
}

// Execute runs the root command with provided args.
func Execute(args []string) error {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}
