package version

import (
	"fmt"

	"github.com/flarebyte/bankpull/internal/buildinfo"
	"github.com/flarebyte/bankpull/internal/jsonout"
	"github.com/spf13/cobra"
)

var (
	flagShort bool
	flagJSON  bool
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if flagShort {
			_, err := fmt.Fprintln(out, buildinfo.Current().Version)
			return err
		}
		if !flagJSON {
			_, err := fmt.Fprintf(out, "bankpull %s\n", buildinfo.Summary())
			return err
		}

		// JSON goes to stdout, a human friendly line to stderr.
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "bankpull version: %s\n", buildinfo.Summary())
		return jsonout.WriteValue(out, buildinfo.Current(), true)
	},
}

func init() {
	VersionCmd.Flags().BoolVar(&flagShort, "short", false, "Print only the version string")
	VersionCmd.Flags().BoolVar(&flagJSON, "json", false, "Print detailed JSON version info")
}
