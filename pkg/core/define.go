package core

import (
	"fmt"
)

// DefineFilter registers a custom filter under name.
//
// body may be a FilterFunc[Q] or one of these function shapes:
//
//	func(Q, ...any) (Q, error)
//	func(Q, any) (Q, error)
//	func(Q, any) Q
//	func(Q) Q               arguments are ignored
//
// The filter runs against the query it is applied to; returning the zero
// value keeps that query unchanged. methods, when given, are attached to
// every result of the filter and to queries derived from it.
//
// A name already used by the model (one of its entry points, a method of
// the query layer, or the or-key) is rejected with a *NameConflictError,
// unless it is already a registered filter, in which case it is replaced.
func (m *Model[Q]) DefineFilter(name string, body any, methods Extensions[Q]) error {
	fn, err := filterBody[Q](body)
	if err != nil {
		return fmt.Errorf("%w: filter %q on model %q", err, name, m.Name())
	}

	return m.registry.RegisterCustom(m.adapter, name, fn, methods)
}

// MustDefineFilter is DefineFilter panicking on error, for model setup code.
func (m *Model[Q]) MustDefineFilter(name string, body any, methods Extensions[Q]) {
	if err := m.DefineFilter(name, body, methods); err != nil {
		panic(err)
	}
}

func filterBody[Q any](body any) (FilterFunc[Q], error) {
	switch fn := body.(type) {
	case FilterFunc[Q]:
		if fn != nil {
			return fn, nil
		}
	case func(Q, ...any) (Q, error):
		if fn != nil {
			return fn, nil
		}
	case func(Q, any) (Q, error):
		if fn != nil {
			return func(q Q, args ...any) (Q, error) {
				if len(args) != 1 {
					var zero Q
					return zero, fmt.Errorf("%w: takes 1 argument, got %d", ErrArity, len(args))
				}
				return fn(q, args[0])
			}, nil
		}
	case func(Q, any) Q:
		if fn != nil {
			return func(q Q, args ...any) (Q, error) {
				if len(args) != 1 {
					var zero Q
					return zero, fmt.Errorf("%w: takes 1 argument, got %d", ErrArity, len(args))
				}
				return fn(q, args[0]), nil
			}, nil
		}
	case func(Q) Q:
		if fn != nil {
			return func(q Q, _ ...any) (Q, error) {
				return fn(q), nil
			}, nil
		}
	}

	return nil, ErrInvalidFilterBody
}
