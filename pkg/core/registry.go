package core

import (
	"fmt"
	"sync"

	"github.com/asaidimu/filterable/pkg/logger"
)

// Origin tells how a filter got into the registry.
type Origin int

const (
	OriginField Origin = iota + 1
	OriginNegatedField
	OriginCustom
)

func (o Origin) String() string {
	switch o {
	case OriginField:
		return "field"
	case OriginNegatedField:
		return "negated_field"
	case OriginCustom:
		return "custom"
	default:
		return "unknown"
	}
}

type registryEntry[Q any] struct {
	fn     FilterFunc[Q]
	origin Origin
}

// Registry maps filter names to filter functions for one model.
type Registry[Q any] struct {
	model   string
	filters map[string]registryEntry[Q]
	order    []string
	reserved []KeyMatcher
	logger   logger.Logger
	mu       sync.RWMutex // protects filters, order and reserved
}

// NewRegistry creates an empty registry for the named model. The entry
// points of Model and the or-key are reserved from the start.
func NewRegistry[Q any](model string, log logger.Logger) *Registry[Q] {
	return &Registry[Q]{
		model:    model,
		filters:  make(map[string]registryEntry[Q]),
		reserved: []KeyMatcher{isModelMethod, ExactOrKey},
		logger:   log,
	}
}

// Reserve keeps names matched by match from being taken by custom filters.
func (r *Registry[Q]) Reserve(match KeyMatcher) {
	if match == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.reserved = append(r.reserved, match)
}

func (r *Registry[Q]) isReserved(name string) bool {
	for _, match := range r.reserved {
		if match(name) {
			return true
		}
	}

	return false
}

// Model returns the name of the model the registry belongs to.
func (r *Registry[Q]) Model() string {
	return r.model
}

// RegisterFieldFilters installs "<field>" and "not_<field>" for every field.
// Registering the same field again overwrites its entries.
func (r *Registry[Q]) RegisterFieldFilters(adapter Adapter[Q], fields []Field) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, field := range fields {
		name := field.Name
		r.put(name, registryEntry[Q]{
			fn: func(q Q, args ...any) (Q, error) {
				if len(args) != 1 {
					var zero Q
					return zero, fmt.Errorf("%w: filter %q takes 1 argument, got %d", ErrArity, name, len(args))
				}
				return adapter.Narrow(q, name, args[0])
			},
			origin: OriginField,
		})
		r.put(NegatedName(name), registryEntry[Q]{
			fn: func(q Q, args ...any) (Q, error) {
				if len(args) != 1 {
					var zero Q
					return zero, fmt.Errorf("%w: filter %q takes 1 argument, got %d", ErrArity, NegatedName(name), len(args))
				}
				return adapter.NegateNarrow(q, name, args[0])
			},
			origin: OriginNegatedField,
		})
	}

	r.logger.Debug().
		Str("model", r.model).
		Int("fields", len(fields)).
		Msg("registered field filters")
}

// RegisterCustom installs a user-defined filter. A zero result from body is
// replaced with the query the filter was invoked against. When methods is
// not empty every result is decorated with them through the adapter.
//
// A reserved name is rejected with a *NameConflictError unless a filter is
// already registered under it, in which case that filter is replaced.
func (r *Registry[Q]) RegisterCustom(adapter Adapter[Q], name string, body FilterFunc[Q], methods Extensions[Q]) error {
	if name == "" {
		return ErrInvalidFilterName
	}
	if body == nil {
		return fmt.Errorf("%w: filter %q", ErrInvalidFilterBody, name)
	}

	ext := make(Extensions[Q], len(methods))
	for method, fn := range methods {
		ext[method] = fn
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.filters[name]; !exists && r.isReserved(name) {
		return &NameConflictError{Model: r.model, Name: name}
	}

	r.put(name, registryEntry[Q]{
		fn: func(q Q, args ...any) (Q, error) {
			scope, err := body(q, args...)
			if err != nil {
				return scope, err
			}
			if isZero(scope) {
				scope = q
			}
			if len(ext) > 0 {
				scope = adapter.Extend(scope, ext)
			}
			return scope, nil
		},
		origin: OriginCustom,
	})

	r.logger.Debug().
		Str("model", r.model).
		Str("filter", name).
		Int("extensions", len(ext)).
		Msg("registered custom filter")

	return nil
}

func (r *Registry[Q]) put(name string, entry registryEntry[Q]) {
	if _, exists := r.filters[name]; !exists {
		r.order = append(r.order, name)
	}
	r.filters[name] = entry
}

// Resolve looks a filter up by name.
func (r *Registry[Q]) Resolve(name string) (FilterFunc[Q], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.filters[name]
	if !ok {
		return nil, &UnknownFilterError{Model: r.model, Name: name}
	}

	return entry.fn, nil
}

// Has reports whether name is registered.
func (r *Registry[Q]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.filters[name]
	return ok
}

// Origin returns how name was registered, or 0 when it is unknown.
func (r *Registry[Q]) Origin(name string) Origin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filters[name].origin
}

// Names lists registered filters in registration order.
func (r *Registry[Q]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)

	return names
}
