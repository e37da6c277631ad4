package config

import (
	"fmt"

	"cuelang.org/go/cue"
)

// Config is the optional bankpull configuration file. Every section is
// optional; Has* flags record which values were present.
type Config struct {
	ConfigVersion string
	Output        Output
	Fetch         Fetch
	// Backends holds per-module default config values, keyed by module name.
	Backends   map[string]map[string]string
	Categorize Categorize
	Map        Map
	Lua        Lua
}

// Output holds optional output.* fields.
type Output struct {
	Pretty    bool
	HasPretty bool
}

// Fetch holds optional fetch.* fields.
type Fetch struct {
	TimeoutMs     int
	StrictExit    bool
	HasTimeoutMs  bool
	HasStrictExit bool
}

// Categorize holds the optional rules file location.
type Categorize struct {
	Rules    string
	HasRules bool
}

// Map holds an optional inline Lua transform.
type Map struct {
	Inline    string
	HasInline bool
}

// Lua holds optional sandbox settings.
type Lua struct {
	TimeoutMs    int
	HasTimeoutMs bool
}

// Load validates and extracts the configuration at path.
// Required fields:
//   - configVersion: string, one of SupportedConfigVersions
func Load(path string) (Config, error) {
	v, err := compileCUE(path)
	if err != nil {
		return Config{}, err
	}
	if err := requireStringField(v, "configVersion"); err != nil {
		return Config{}, err
	}
	var c Config
	if err := v.LookupPath(cue.ParsePath("configVersion")).Decode(&c.ConfigVersion); err != nil {
		return Config{}, fmt.Errorf("invalid value for configVersion: %v", err)
	}
	if !IsSupportedConfigVersion(c.ConfigVersion) {
		return Config{}, fmt.Errorf("unsupported configVersion: %q (supported: %s)", c.ConfigVersion, SupportedConfigVersionsCSV())
	}

	if ov := v.LookupPath(cue.ParsePath("output")); ov.Exists() {
		c.Output.HasPretty = lookupBool(ov, "pretty", &c.Output.Pretty)
	}

	if fv := v.LookupPath(cue.ParsePath("fetch")); fv.Exists() {
		c.Fetch.HasTimeoutMs = lookupInt(fv, "timeoutMs", &c.Fetch.TimeoutMs)
		if c.Fetch.HasTimeoutMs && c.Fetch.TimeoutMs < 0 {
			return Config{}, fmt.Errorf("invalid value for fetch.timeoutMs: must be >= 0")
		}
		c.Fetch.HasStrictExit = lookupBool(fv, "strictExit", &c.Fetch.StrictExit)
	}

	backends, err := parseBackends(v)
	if err != nil {
		return Config{}, err
	}
	c.Backends = backends

	if cv := v.LookupPath(cue.ParsePath("categorize")); cv.Exists() {
		c.Categorize.HasRules = lookupString(cv, "rules", &c.Categorize.Rules)
	}
	if mv := v.LookupPath(cue.ParsePath("map")); mv.Exists() {
		c.Map.HasInline = lookupString(mv, "inline", &c.Map.Inline)
	}
	if lv := v.LookupPath(cue.ParsePath("lua")); lv.Exists() {
		c.Lua.HasTimeoutMs = lookupInt(lv, "timeoutMs", &c.Lua.TimeoutMs)
		if c.Lua.HasTimeoutMs && c.Lua.TimeoutMs < 0 {
			return Config{}, fmt.Errorf("invalid value for lua.timeoutMs: must be >= 0")
		}
	}
	return c, nil
}

// parseBackends decodes backends.<module>.<key>: string.
func parseBackends(v cue.Value) (map[string]map[string]string, error) {
	bv := v.LookupPath(cue.ParsePath("backends"))
	if !bv.Exists() {
		return nil, nil
	}
	if bv.Kind() != cue.StructKind {
		return nil, fmt.Errorf("invalid type for field: backends (expected struct)")
	}
	var out map[string]map[string]string
	if err := bv.Decode(&out); err != nil {
		return nil, fmt.Errorf("invalid value for backends: %v", err)
	}
	return out, nil
}

// BackendDefaults returns the configured values for module, or nil.
func (c Config) BackendDefaults(module string) map[string]string {
	return c.Backends[module]
}
