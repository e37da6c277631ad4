package modules

import (
	"io"
	"sort"

	"github.com/flarebyte/bankpull/internal/backend"
	_ "github.com/flarebyte/bankpull/internal/backend/all"
	"github.com/flarebyte/bankpull/internal/buildinfo"
	"github.com/flarebyte/bankpull/internal/jsonout"
	"github.com/spf13/cobra"
)

var (
	flagQuery  string
	flagPretty bool
)

// moduleView is the diagnostic shape of one registered module.
type moduleView struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Capabilities []string `json:"capabilities"`
	ConfigKeys   []string `json:"config_keys,omitempty"`
	EnvKeys      []string `json:"env_keys,omitempty"`
}

type listing struct {
	Version string       `json:"version"`
	Modules []moduleView `json:"modules"`
	Query   *string      `json:"query,omitempty"`
	Matches *[]string    `json:"matches,omitempty"`
}

// Cmd implements `bankpull modules`.
var Cmd = &cobra.Command{
	Use:           "modules",
	Short:         "List installed bank modules and search them by name",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var query *string
		if cmd.Flags().Changed("query") {
			query = &flagQuery
		}
		return writeListing(cmd.OutOrStdout(), query, flagPretty)
	},
}

func writeListing(w io.Writer, query *string, pretty bool) error {
	out := listing{Version: buildinfo.Summary(), Modules: []moduleView{}}
	for _, m := range backend.Modules() {
		out.Modules = append(out.Modules, view(m))
	}
	if query != nil {
		out.Query = query
		matches := []string{}
		for _, m := range backend.Search(*query) {
			matches = append(matches, m.Name)
		}
		out.Matches = &matches
	}
	return jsonout.WriteValue(w, out, pretty)
}

func view(m backend.Module) moduleView {
	v := moduleView{
		Name:         m.Name,
		Description:  m.Description,
		Capabilities: append([]string{}, m.Capabilities...),
		ConfigKeys:   m.ConfigKeys,
	}
	for _, env := range m.EnvKeys {
		v.EnvKeys = append(v.EnvKeys, env)
	}
	sort.Strings(v.EnvKeys)
	return v
}

func init() {
	Cmd.Flags().StringVarP(&flagQuery, "query", "q", "", "Case-insensitive substring matched against module names")
	Cmd.Flags().BoolVar(&flagPretty, "pretty", false, "Indent the JSON output")
}
