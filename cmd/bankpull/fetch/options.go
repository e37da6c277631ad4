package fetch

import (
	"io"
	"path/filepath"
	"time"

	"github.com/flarebyte/bankpull/internal/config"
	"github.com/flarebyte/bankpull/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Options are the flags shared by every command that fetches.
type Options struct {
	ConfigPath string
	EnvFile    string
	Pretty     bool
	StrictExit bool
	Timeout    time.Duration
	RulesPath  string
	MapInline  string
	Verbose    bool
	// Now overrides the clock of the mock data; nil means time.Now.
	Now func() time.Time
}

// BindFlags registers the fetch flags on cmd.
func BindFlags(cmd *cobra.Command, o *Options) {
	f := cmd.Flags()
	f.StringVarP(&o.ConfigPath, "config", "c", "", "Path to config file (.cue)")
	f.StringVar(&o.EnvFile, "env-file", "", "Path to a dotenv file (default: ./.env when present)")
	f.BoolVar(&o.Pretty, "pretty", false, "Indent the JSON output")
	f.BoolVar(&o.StrictExit, "strict-exit", false, "Exit with code 3 when the backend fails")
	f.DurationVar(&o.Timeout, "timeout", 0, "Bound the whole fetch (0: no limit)")
	f.StringVar(&o.RulesPath, "rules", "", "YAML rules file used to fill missing categories")
	f.StringVar(&o.MapInline, "map", "", "Lua snippet applied to each transaction")
	f.BoolVarP(&o.Verbose, "verbose", "v", false, "Debug logs on stderr")
}

// Settings are the options merged with the config file.
type Settings struct {
	Pretty       bool
	StrictExit   bool
	Timeout      time.Duration
	RulesPath    string
	MapInline    string
	LuaTimeoutMs int
	File         config.Config
	Now          func() time.Time
	Log          zerolog.Logger
}

// Resolve loads the dotenv and config files. Flags win over the config
// file; boolean flags can only switch a setting on.
func (o Options) Resolve(stderr io.Writer) (Settings, error) {
	s := Settings{
		Pretty:     o.Pretty,
		StrictExit: o.StrictExit,
		Timeout:    o.Timeout,
		RulesPath:  o.RulesPath,
		MapInline:  o.MapInline,
		Now:        o.Now,
		Log:        logging.New(stderr, o.Verbose),
	}
	if s.Now == nil {
		s.Now = time.Now
	}
	if err := config.LoadDotEnv(o.EnvFile); err != nil {
		if o.EnvFile != "" {
			return Settings{}, err
		}
		// ./.env is picked up implicitly; a broken one must not hide the result.
		s.Log.Warn().Err(err).Msg("ignoring unreadable ./.env")
	}
	if o.ConfigPath == "" {
		return s, nil
	}
	c, err := config.Load(o.ConfigPath)
	if err != nil {
		return Settings{}, err
	}
	s.Pretty = s.Pretty || c.Output.Pretty
	s.StrictExit = s.StrictExit || c.Fetch.StrictExit
	if s.Timeout == 0 && c.Fetch.HasTimeoutMs {
		s.Timeout = time.Duration(c.Fetch.TimeoutMs) * time.Millisecond
	}
	if s.RulesPath == "" && c.Categorize.HasRules {
		s.RulesPath = c.Categorize.Rules
		if !filepath.IsAbs(s.RulesPath) {
			s.RulesPath = filepath.Join(filepath.Dir(o.ConfigPath), s.RulesPath)
		}
	}
	if s.MapInline == "" && c.Map.HasInline {
		s.MapInline = c.Map.Inline
	}
	if c.Lua.HasTimeoutMs {
		s.LuaTimeoutMs = c.Lua.TimeoutMs
		if s.LuaTimeoutMs == 0 {
			s.LuaTimeoutMs = -1
		}
	}
	s.File = c
	s.Log.Debug().Str("config", o.ConfigPath).Str("configVersion", c.ConfigVersion).Msg("config loaded")
	return s, nil
}
