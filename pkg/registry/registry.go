package registry

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/Warky-Devs/TableSpec/pkg/common"
	"github.com/Warky-Devs/TableSpec/pkg/tablespec"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrTableExists   = errors.New("table already registered")
)

// TableFactory builds the definition of a table for one request, so
// definitions can depend on the caller.
type TableFactory func(r *http.Request) (*tablespec.Definition, error)

// Static wraps an already built definition.
func Static(def *tablespec.Definition) TableFactory {
	return func(*http.Request) (*tablespec.Definition, error) { return def, nil }
}

// TableRegistry maps table names to their factories.
type TableRegistry struct {
	tables map[string]TableFactory
	mutex  sync.RWMutex
}

// Global default registry instance
var defaultRegistry = NewTableRegistry()

// NewTableRegistry creates a new table registry
func NewTableRegistry() *TableRegistry {
	return &TableRegistry{
		tables: make(map[string]TableFactory),
	}
}

func (r *TableRegistry) Register(name string, factory TableFactory) error {
	if !common.IsValidIdentifier(name) {
		return fmt.Errorf("table name %q is not a valid identifier", name)
	}
	if factory == nil {
		return fmt.Errorf("table %s: factory cannot be nil", name)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.tables[name]; exists {
		return fmt.Errorf("%w: %s", ErrTableExists, name)
	}
	r.tables[name] = factory
	return nil
}

// Definition runs the factory of name for r.
func (r *TableRegistry) Definition(name string, req *http.Request) (*tablespec.Definition, error) {
	r.mutex.RLock()
	factory, exists := r.tables[name]
	r.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	def, err := factory(req)
	if err != nil {
		return nil, fmt.Errorf("build table %s: %w", name, err)
	}
	return def, nil
}

// Names returns the registered table names, sorted.
func (r *TableRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Global convenience functions using the default registry

// Register registers a table with the default global registry
func Register(name string, factory TableFactory) error {
	return defaultRegistry.Register(name, factory)
}

// Definition builds a table from the default global registry
func Definition(name string, req *http.Request) (*tablespec.Definition, error) {
	return defaultRegistry.Definition(name, req)
}

// Names lists the tables of the default global registry
func Names() []string {
	return defaultRegistry.Names()
}

// Default returns the global registry.
func Default() *TableRegistry {
	return defaultRegistry
}
