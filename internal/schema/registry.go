package schema

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]*Schema)
	registryMu sync.RWMutex
)

// Register adds a schema to the process-wide registry.
// Panics if a schema with the same name is already registered.
func Register(s *Schema) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[s.Name]; exists {
		panic(fmt.Sprintf("schema already registered: %s", s.Name))
	}
	if s.Source == "" {
		s.Source = "builtin"
	}
	registry[s.Name] = s
}

// Get returns a registered schema by dataset name.
func Get(name string) (*Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	s, ok := registry[name]
	return s, ok
}

// All returns all registered schemas sorted by name.
func All() []*Schema {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]*Schema, 0, len(registry))
	for _, s := range registry {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Names returns the registered dataset names, sorted.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name
	}
	return names
}

// Count returns the number of registered schemas.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered schemas.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]*Schema)
}

// Catalog resolves dataset names against schemas loaded from files first
// and the registry second.
type Catalog struct {
	loaded map[string]*Schema
}

// NewCatalog builds a catalog over the given loaded schemas. A later
// schema with the same name replaces an earlier one.
func NewCatalog(loaded ...*Schema) *Catalog {
	c := &Catalog{loaded: make(map[string]*Schema, len(loaded))}
	for _, s := range loaded {
		c.loaded[s.Name] = s
	}
	return c
}

// Get returns the schema for a dataset name.
func (c *Catalog) Get(name string) (*Schema, bool) {
	if c != nil {
		if s, ok := c.loaded[name]; ok {
			return s, true
		}
	}
	return Get(name)
}

// Lookup is Get returning ErrUnknownDataset when nothing matches.
func (c *Catalog) Lookup(name string) (*Schema, error) {
	s, ok := c.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, name)
	}
	return s, nil
}

// All returns every resolvable schema sorted by name.
func (c *Catalog) All() []*Schema {
	merged := make(map[string]*Schema)
	for _, s := range All() {
		merged[s.Name] = s
	}
	if c != nil {
		for name, s := range c.loaded {
			merged[name] = s
		}
	}
	result := make([]*Schema, 0, len(merged))
	for _, s := range merged {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
