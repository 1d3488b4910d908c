package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPredicateShape  = errors.New("invalid predicate shape")
	ErrUnknownFilter          = errors.New("unknown filter")
	ErrNameConflict           = errors.New("filter name conflict")
	ErrInvalidFilterBody      = errors.New("filter body must be callable")
	ErrInvalidFilterName      = errors.New("filter name cannot be empty")
	ErrArity                  = errors.New("wrong number of filter arguments")
	ErrModelAlreadyRegistered = errors.New("model already registered")
	ErrModelNotFound          = errors.New("model not found")
)

// PredicateShapeError reports a predicate that is neither a conjunction unit
// nor a sequence of them. Path locates the offending value, e.g. "[1].or[0]".
type PredicateShapeError struct {
	Path   string
	Value  any
	Reason string
}

func (e *PredicateShapeError) Error() string {
	path := e.Path
	if path == "" {
		path = "<root>"
	}

	return fmt.Sprintf("%s at %s: %s (got %T)", ErrInvalidPredicateShape, path, e.Reason, e.Value)
}

func (e *PredicateShapeError) Unwrap() error { return ErrInvalidPredicateShape }

// UnknownFilterError reports a predicate key or a direct invocation naming a
// filter the model does not have.
type UnknownFilterError struct {
	Model string
	Name  string
}

func (e *UnknownFilterError) Error() string {
	return fmt.Sprintf("%s %q on model %q", ErrUnknownFilter, e.Name, e.Model)
}

func (e *UnknownFilterError) Unwrap() error { return ErrUnknownFilter }

// NameConflictError reports a custom filter whose name is reserved by the
// model or its query layer.
type NameConflictError struct {
	Model string
	Name  string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("you tried to define a filter named %q on the model %q, but the model already defines a method with the same name", e.Name, e.Model)
}

func (e *NameConflictError) Unwrap() error { return ErrNameConflict }
