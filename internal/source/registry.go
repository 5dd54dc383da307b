package source

import (
	"fmt"
	"sort"

	"github.com/ozgurerrdem/persona-watch/internal/apperr"
)

// Registry holds adapters keyed by name.
type Registry struct {
	adapters map[string]Adapter
	order    []string
}

func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(a Adapter) error {
	name := a.Name()
	if name == "" {
		return fmt.Errorf("adapter without a name")
	}
	if _, dup := r.adapters[name]; dup {
		return fmt.Errorf("adapter %q registered twice", name)
	}
	r.adapters[name] = a
	r.order = append(r.order, name)
	return nil
}

// All returns every adapter in registration order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.adapters[name])
	}
	return out
}

// ByNames resolves a caller-selected subset. No names means all adapters; any
// unknown name fails the whole lookup with *apperr.UnknownAdapterError.
func (r *Registry) ByNames(names ...string) ([]Adapter, error) {
	if len(names) == 0 {
		return r.All(), nil
	}

	var unknown []string
	seen := make(map[string]struct{}, len(names))
	out := make([]Adapter, 0, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		a, ok := r.adapters[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		out = append(out, a)
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &apperr.UnknownAdapterError{Names: unknown}
	}
	return out, nil
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Len() int {
	return len(r.order)
}
