package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// compileCUE loads and compiles a CUE file at the given path.
func compileCUE(path string) (cue.Value, error) {
	if filepath.Ext(path) != ".cue" {
		return cue.Value{}, errors.New("unsupported config format: expected .cue")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to read config: %w", err)
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("invalid config: %v", err)
	}
	return v, nil
}

func requireStringField(v cue.Value, name string) error {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return fmt.Errorf("missing required field: %s", name)
	}
	if f.Kind() != cue.StringKind {
		return fmt.Errorf("invalid type for field: %s (expected string)", name)
	}
	return nil
}

// lookupString decodes parent.name into dst when it is a string and reports
// whether it did.
func lookupString(parent cue.Value, name string, dst *string) bool {
	f := parent.LookupPath(cue.ParsePath(name))
	if !f.Exists() || f.Kind() != cue.StringKind {
		return false
	}
	return f.Decode(dst) == nil
}

func lookupBool(parent cue.Value, name string, dst *bool) bool {
	f := parent.LookupPath(cue.ParsePath(name))
	if !f.Exists() || f.Kind() != cue.BoolKind {
		return false
	}
	return f.Decode(dst) == nil
}

func lookupInt(parent cue.Value, name string, dst *int) bool {
	f := parent.LookupPath(cue.ParsePath(name))
	if !f.Exists() || f.Kind() != cue.IntKind {
		return false
	}
	return f.Decode(dst) == nil
}
