package tablestore

import (
	"sort"

	"github.com/puzpuzpuz/xsync/v4"
)

// Registry keeps one store per table prefix, so several tables on a page
// never share state.
type Registry struct {
	stores *xsync.Map[string, *Store]
}

func NewRegistry() *Registry {
	return &Registry{stores: xsync.NewMap[string, *Store]()}
}

// Use returns the store of prefix, creating it on first use.
func (r *Registry) Use(prefix string) *Store {
	store, _ := r.stores.Compute(prefix, func(old *Store, loaded bool) (*Store, xsync.ComputeOp) {
		if loaded {
			return old, xsync.CancelOp
		}
		return New(), xsync.UpdateOp
	})
	return store
}

// Lookup returns the store of prefix without creating it.
func (r *Registry) Lookup(prefix string) (*Store, bool) {
	return r.stores.Load(prefix)
}

// Drop forgets the store of prefix.
func (r *Registry) Drop(prefix string) {
	r.stores.Delete(prefix)
}

// Prefixes lists the prefixes with a store, sorted.
func (r *Registry) Prefixes() []string {
	prefixes := make([]string, 0, r.stores.Size())
	r.stores.Range(func(prefix string, _ *Store) bool {
		prefixes = append(prefixes, prefix)
		return true
	})
	sort.Strings(prefixes)
	return prefixes
}
