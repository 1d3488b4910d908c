package core

import "context"

// FilterFunc narrows q. Field filters take exactly one argument, custom
// filters take whatever their body accepts.
type FilterFunc[Q any] func(q Q, args ...any) (Q, error)

// Extension is a supplemental method attached to the result of a custom filter.
type Extension[Q any] func(q Q, args ...any) (Q, error)

// Extensions maps method names to supplemental methods.
type Extensions[Q any] map[string]Extension[Q]

// Schema describes the model a registry is built for.
type Schema interface {
	// Name identifies the model in errors and logs.
	Name() string

	// Fields lists the model's columns. It is called once, when the model
	// is built.
	Fields(ctx context.Context) ([]Field, error)

	// HasMethod reports whether name is already taken by the underlying
	// query layer. Custom filters cannot shadow such names.
	HasMethod(name string) bool
}

// Adapter wraps the persistence layer. Q is the composed query value; it
// must behave as an immutable value: every method returns a new Q and leaves
// its inputs untouched.
type Adapter[Q any] interface {
	// All returns the unfiltered base query.
	All() Q

	// Narrow restricts q to rows where field equals value. A slice value
	// means inclusion, nil means IS NULL.
	Narrow(q Q, field string, value any) (Q, error)

	// NegateNarrow restricts q to rows where field differs from value. A
	// slice value means exclusion, nil means IS NOT NULL.
	NegateNarrow(q Q, field string, value any) (Q, error)

	// And merges b into a with AND semantics.
	And(a, b Q) (Q, error)

	// Or combines a and b with OR semantics.
	Or(a, b Q) (Q, error)

	// Extend returns q decorated with the given methods. The decoration
	// belongs to the returned value and anything derived from it only.
	Extend(q Q, methods Extensions[Q]) Q
}
