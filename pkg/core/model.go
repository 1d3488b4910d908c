package core

import (
	"context"
	"fmt"

	"github.com/asaidimu/filterable/pkg/logger"
)

type options struct {
	logger  logger.Logger
	isOrKey KeyMatcher
}

type Option func(*options)

func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithOrKeyMatcher selects how conjunction keys introducing a disjunction
// are recognized. The default is ExactOrKey.
func WithOrKeyMatcher(m KeyMatcher) Option {
	return func(o *options) {
		if m != nil {
			o.isOrKey = m
		}
	}
}

// Model is a filterable model: its schema, its filter registry and the
// compiler evaluating predicates against it.
type Model[Q any] struct {
	schema   Schema
	adapter  Adapter[Q]
	fields   []Field
	registry *Registry[Q]
	compiler *Compiler[Q]
	isOrKey  KeyMatcher
	logger   logger.Logger
}

// NewModel reads the schema's fields once and registers a field filter and
// a negated field filter for each of them.
func NewModel[Q any](ctx context.Context, schema Schema, adapter Adapter[Q], opts ...Option) (*Model[Q], error) {
	o := options{
		logger:  logger.Nop(),
		isOrKey: ExactOrKey,
	}
	for _, opt := range opts {
		opt(&o)
	}

	fields, err := schema.Fields(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list fields of model %q: %w", schema.Name(), err)
	}

	registry := NewRegistry[Q](schema.Name(), o.logger)
	registry.Reserve(o.isOrKey)
	registry.Reserve(schema.HasMethod)
	registry.RegisterFieldFilters(adapter, fields)

	return &Model[Q]{
		schema:   schema,
		adapter:  adapter,
		fields:   fields,
		registry: registry,
		compiler: NewCompiler(adapter, registry, o.isOrKey),
		isOrKey:  o.isOrKey,
		logger:   o.logger,
	}, nil
}

func (m *Model[Q]) Name() string {
	return m.schema.Name()
}

// Fields returns the fields discovered when the model was built.
func (m *Model[Q]) Fields() []Field {
	out := make([]Field, len(m.fields))
	copy(out, m.fields)

	return out
}

// Filters lists every registered filter name.
func (m *Model[Q]) Filters() []string {
	return m.registry.Names()
}

// Registry returns the model's filter registry. Custom filters registered
// through it are held to the same reserved names as DefineFilter.
func (m *Model[Q]) Registry() *Registry[Q] {
	return m.registry
}

// All returns the unfiltered base query.
func (m *Model[Q]) All() Q {
	return m.adapter.All()
}

// Filter compiles predicates against the base query. It accepts a single
// conjunction unit, a sequence of units, or units given positionally; the
// last two are equivalent disjunctions.
func (m *Model[Q]) Filter(predicates ...any) (Q, error) {
	return m.FilterFrom(m.adapter.All(), predicates...)
}

// FilterFrom is Filter starting from an already narrowed query.
func (m *Model[Q]) FilterFrom(base Q, predicates ...any) (Q, error) {
	q, err := m.compiler.Compile(base, predicates...)
	if err != nil {
		m.logger.Debug().
			Err(err).
			Str("model", m.Name()).
			Msg("filter compilation failed")
		return q, err
	}

	return q, nil
}

// Plan returns the condition tree predicates compile to.
func (m *Model[Q]) Plan(predicates ...any) (*QueryFilter, error) {
	return m.compiler.Plan(predicates...)
}

// Apply invokes a single filter by name on the base query.
func (m *Model[Q]) Apply(name string, args ...any) (Q, error) {
	return m.ApplyTo(m.adapter.All(), name, args...)
}

// ApplyTo invokes a single filter by name on q.
func (m *Model[Q]) ApplyTo(q Q, name string, args ...any) (Q, error) {
	fn, err := m.registry.Resolve(name)
	if err != nil {
		var zero Q
		return zero, err
	}

	return fn(q, args...)
}
