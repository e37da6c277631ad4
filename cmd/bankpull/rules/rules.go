package rules

import (
	"errors"
	"fmt"
	"io"

	"github.com/flarebyte/bankpull/internal/categorize"
	"github.com/flarebyte/bankpull/internal/jsonout"
	"github.com/spf13/cobra"
)

var (
	flagRules    string
	flagLabel    string
	flagCategory string
)

// Cmd groups the rules subcommands.
var Cmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the categorization rules file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// LearnCmd implements `bankpull rules learn`.
var LearnCmd = &cobra.Command{
	Use:           "learn",
	Short:         "Record that a transaction label belongs to a category",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return learn(cmd.OutOrStdout(), flagRules, flagLabel, flagCategory)
	},
}

func learn(w io.Writer, path, label, category string) error {
	if path == "" {
		return errors.New("missing required flag: --rules")
	}
	if category == "" {
		return errors.New("missing required flag: --category")
	}
	r, err := categorize.Load(path)
	if err != nil {
		return err
	}
	rule, ok := r.Learn(label, category)
	if !ok {
		return fmt.Errorf("label %q is too short to learn from", label)
	}
	if err := r.Save(path); err != nil {
		return err
	}
	return jsonout.WriteValue(w, map[string]string{
		"pattern":  rule.Pattern,
		"match":    string(rule.Match),
		"category": rule.Category,
	}, false)
}

func init() {
	LearnCmd.Flags().StringVar(&flagRules, "rules", "", "Path to the YAML rules file (created when missing)")
	LearnCmd.Flags().StringVar(&flagLabel, "label", "", "Transaction label to learn from")
	LearnCmd.Flags().StringVar(&flagCategory, "category", "", "Category to assign")
	Cmd.AddCommand(LearnCmd)
}
