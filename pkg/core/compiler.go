package core

import (
	"fmt"
	"sort"
)

// Compiler turns predicate structures into composed queries.
//
// Grammar:
//
//	predicate   := conjunction | sequence
//	sequence    := [ (conjunction | sequence)... ]    nested sequences are flattened
//	conjunction := { name: value | or-key: sequence ... }
//
// A sequence is a disjunction evaluated left to right: ((u0 OR u1) OR u2).
// Within a conjunction each filter narrows the accumulated result, and every
// or-key group is evaluated from the base query and AND-merged in place.
type Compiler[Q any] struct {
	adapter  Adapter[Q]
	registry *Registry[Q]
	isOrKey  KeyMatcher
}

// NewCompiler creates a compiler. A nil matcher means ExactOrKey.
func NewCompiler[Q any](adapter Adapter[Q], registry *Registry[Q], isOrKey KeyMatcher) *Compiler[Q] {
	if isOrKey == nil {
		isOrKey = ExactOrKey
	}

	return &Compiler[Q]{
		adapter:  adapter,
		registry: registry,
		isOrKey:  isOrKey,
	}
}

// Compile evaluates predicates against base.
func (c *Compiler[Q]) Compile(base Q, predicates ...any) (Q, error) {
	plan, err := c.Plan(predicates...)
	if err != nil {
		var zero Q
		return zero, err
	}

	return c.Evaluate(base, plan)
}

// Plan validates predicates and builds the condition tree without invoking
// any filter. Every referenced name must be registered.
func (c *Compiler[Q]) Plan(predicates ...any) (*QueryFilter, error) {
	var top any
	switch len(predicates) {
	case 0:
		return nil, &PredicateShapeError{Reason: "no predicate given"}
	case 1:
		top = predicates[0]
	default:
		top = predicates
	}

	var (
		plan *QueryFilter
		err  error
	)
	if conj, ok := asConjunction(top); ok {
		plan, err = c.parseConjunction(conj, "")
	} else if seq, ok := asSequence(top); ok {
		plan, err = c.parseDisjunction(seq, "")
	} else {
		err = &PredicateShapeError{Value: top, Reason: "expected a conjunction unit or a sequence of them"}
	}
	if err != nil {
		return nil, err
	}

	for _, name := range plan.Names() {
		if !c.registry.Has(name) {
			return nil, &UnknownFilterError{Model: c.registry.Model(), Name: name}
		}
	}

	return plan, nil
}

func (c *Compiler[Q]) parseConjunction(conj Conjunction, path string) (*QueryFilter, error) {
	group := &FilterGroup{
		Operator:   LogicalOperatorAnd,
		Conditions: make([]QueryFilter, 0, len(conj)),
	}

	for _, term := range conj {
		if !c.isOrKey(term.Key) {
			group.Conditions = append(group.Conditions, QueryFilter{
				Condition: &FilterCondition{Name: term.Key, Value: term.Value},
			})
			continue
		}

		termPath := joinPath(path, term.Key)
		seq, ok := asSequence(term.Value)
		if !ok {
			return nil, &PredicateShapeError{
				Path:   termPath,
				Value:  term.Value,
				Reason: "or value must be a sequence of conjunction units",
			}
		}

		sub, err := c.parseDisjunction(seq, termPath)
		if err != nil {
			return nil, err
		}
		group.Conditions = append(group.Conditions, *sub)
	}

	return &QueryFilter{Group: group}, nil
}

func (c *Compiler[Q]) parseDisjunction(seq []any, path string) (*QueryFilter, error) {
	units := flatten(seq)
	if len(units) == 0 {
		return nil, &PredicateShapeError{Path: path, Value: seq, Reason: "sequence must hold at least one conjunction unit"}
	}

	group := &FilterGroup{
		Operator:   LogicalOperatorOr,
		Conditions: make([]QueryFilter, 0, len(units)),
	}

	for i, unit := range units {
		unitPath := fmt.Sprintf("%s[%d]", path, i)
		conj, ok := asConjunction(unit)
		if !ok {
			return nil, &PredicateShapeError{Path: unitPath, Value: unit, Reason: "expected a conjunction unit"}
		}

		sub, err := c.parseConjunction(conj, unitPath)
		if err != nil {
			return nil, err
		}
		group.Conditions = append(group.Conditions, *sub)
	}

	return &QueryFilter{Group: group}, nil
}

// Evaluate runs a plan produced by Plan against base.
func (c *Compiler[Q]) Evaluate(base Q, plan *QueryFilter) (Q, error) {
	if plan == nil {
		var zero Q
		return zero, &PredicateShapeError{Reason: "nil plan"}
	}

	return c.evalUnit(base, *plan)
}

func (c *Compiler[Q]) evalUnit(base Q, f QueryFilter) (Q, error) {
	switch {
	case f.Group != nil && f.Group.Operator == LogicalOperatorOr:
		return c.evalOr(base, f.Group)
	case f.Group != nil:
		return c.evalAnd(base, f.Group)
	case f.Condition != nil:
		return c.evalAnd(base, &FilterGroup{Operator: LogicalOperatorAnd, Conditions: []QueryFilter{f}})
	default:
		var zero Q
		return zero, &PredicateShapeError{Value: f, Reason: "empty filter node"}
	}
}

func (c *Compiler[Q]) evalAnd(base Q, group *FilterGroup) (Q, error) {
	result := base

	for _, node := range group.Conditions {
		var (
			narrowed Q
			err      error
		)

		if node.Condition != nil {
			var fn FilterFunc[Q]
			fn, err = c.registry.Resolve(node.Condition.Name)
			if err != nil {
				return result, err
			}
			narrowed, err = fn(result, node.Condition.Value)
		} else {
			narrowed, err = c.evalUnit(base, node)
		}
		if err != nil {
			return result, err
		}

		result, err = c.adapter.And(result, narrowed)
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

func (c *Compiler[Q]) evalOr(base Q, group *FilterGroup) (Q, error) {
	var result Q

	for i, unit := range group.Conditions {
		q, err := c.evalUnit(base, unit)
		if err != nil {
			return result, err
		}

		if i == 0 {
			result = q
			continue
		}

		result, err = c.adapter.Or(result, q)
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

func asConjunction(v any) (Conjunction, bool) {
	switch t := v.(type) {
	case Conjunction:
		return t, true
	case Term:
		return Conjunction{t}, true
	case map[string]any:
		if t == nil {
			return nil, false
		}

		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		conj := make(Conjunction, 0, len(keys))
		for _, k := range keys {
			conj = append(conj, Term{Key: k, Value: t[k]})
		}
		return conj, true
	default:
		return nil, false
	}
}

func asSequence(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case Disjunction:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, true
	case []Conjunction:
		return asSequence(Disjunction(t))
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, true
	default:
		return nil, false
	}
}

// flatten splices nested sequences into seq, at any depth.
func flatten(seq []any) []any {
	out := make([]any, 0, len(seq))
	for _, item := range seq {
		if nested, ok := asSequence(item); ok {
			out = append(out, flatten(nested)...)
			continue
		}
		out = append(out, item)
	}

	return out
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}

	return path + "." + key
}
