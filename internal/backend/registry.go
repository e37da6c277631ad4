package backend

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds a backend instance from its module config.
type Factory func(cfg Config) (Backend, error)

// Module describes one installable backend.
type Module struct {
	Name         string
	Description  string
	Capabilities []string
	// ConfigKeys lists the config keys the module reads, for diagnostics.
	ConfigKeys []string
	// EnvKeys maps config keys to environment variables used as defaults.
	EnvKeys map[string]string
	New     Factory
}

var (
	mu       sync.RWMutex
	registry = map[string]Module{}
)

// Register adds a module. Registering the same name twice replaces the
// earlier entry.
func Register(m Module) {
	mu.Lock()
	defer mu.Unlock()
	registry[m.Name] = m
}

// Unregister removes a module; used by tests that install throwaway modules.
func Unregister(name string) {
	mu.Lock()
	defer mu.Unlock()
	delete(registry, name)
}

// Lookup returns the module registered under name.
func Lookup(name string) (Module, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := registry[name]
	return m, ok
}

// Modules returns every registered module sorted by name.
func Modules() []Module {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Module, 0, len(registry))
	for _, m := range registry {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Search returns the modules whose name contains query.
func Search(query string) []Module {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Module
	for _, m := range Modules() {
		if q == "" || strings.Contains(strings.ToLower(m.Name), q) {
			out = append(out, m)
		}
	}
	return out
}

// Build instantiates the named module.
func Build(name string, cfg Config) (Backend, error) {
	m, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, name)
	}
	if m.New == nil {
		return nil, fmt.Errorf("module %s has no factory", name)
	}
	b, err := m.New(cfg)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("could not create backend for %s", name)
	}
	return b, nil
}
