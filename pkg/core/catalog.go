package core

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/asaidimu/filterable/pkg/logger"
)

// Catalog holds the filterable models of a process, one per model name.
type Catalog[Q any] struct {
	models map[string]*Model[Q]
	logger logger.Logger
	mu     sync.RWMutex
}

func NewCatalog[Q any](log logger.Logger) *Catalog[Q] {
	return &Catalog[Q]{
		models: make(map[string]*Model[Q]),
		logger: log,
	}
}

// Register builds a model for schema and stores it. Registering a name twice
// returns the existing model together with ErrModelAlreadyRegistered.
func (c *Catalog[Q]) Register(ctx context.Context, schema Schema, adapter Adapter[Q], opts ...Option) (*Model[Q], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := schema.Name()
	if existing, ok := c.models[name]; ok {
		c.logger.Warn().
			Str("model", name).
			Msg("model is registered more than once")
		return existing, fmt.Errorf("%w: %q", ErrModelAlreadyRegistered, name)
	}

	model, err := NewModel(ctx, schema, adapter, append([]Option{WithLogger(c.logger)}, opts...)...)
	if err != nil {
		return nil, err
	}
	c.models[name] = model

	c.logger.Info().
		Str("model", name).
		Int("filters", len(model.Filters())).
		Msg("registered filterable model")

	return model, nil
}

// MustRegister is Register panicking on error.
func (c *Catalog[Q]) MustRegister(ctx context.Context, schema Schema, adapter Adapter[Q], opts ...Option) *Model[Q] {
	model, err := c.Register(ctx, schema, adapter, opts...)
	if err != nil {
		panic(err)
	}

	return model
}

func (c *Catalog[Q]) Lookup(name string) (*Model[Q], error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	model, ok := c.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrModelNotFound, name)
	}

	return model, nil
}

// Models lists registered model names, sorted.
func (c *Catalog[Q]) Models() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.models))
	for name := range c.models {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
