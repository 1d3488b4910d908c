package core

// LogicalOperator for combining conditions.
type LogicalOperator string

const (
	LogicalOperatorAnd LogicalOperator = "and"
	LogicalOperatorOr  LogicalOperator = "or"
)

// FilterValue is whatever a filter receives: a scalar, a slice for inclusion
// tests, nil, or arbitrary arguments of a custom filter.
type FilterValue any

// Field describes one column of a model.
type Field struct {
	Name string
	Type string // as reported by the schema, informational only
}

// Term is one key/value pair of a conjunction unit.
type Term struct {
	Key   string
	Value FilterValue
}

// Conjunction is an ordered conjunction unit. Every term is AND-combined,
// except the or-key whose value holds a Disjunction.
type Conjunction []Term

// Disjunction is an ordered list of conjunction units combined with OR.
type Disjunction []Conjunction

// Where starts a conjunction unit.
func Where(key string, value FilterValue) Conjunction {
	return Conjunction{{Key: key, Value: value}}
}

// And returns a copy of c with one more term appended.
func (c Conjunction) And(key string, value FilterValue) Conjunction {
	out := make(Conjunction, len(c), len(c)+1)
	copy(out, c)

	return append(out, Term{Key: key, Value: value})
}

// Or appends an "or" term holding the given units.
func (c Conjunction) Or(units ...Conjunction) Conjunction {
	return c.And(OrKey, Disjunction(units))
}

// AnyOf builds a disjunction unit.
func AnyOf(units ...Conjunction) Disjunction {
	return Disjunction(units)
}

// FilterCondition is a single named filter applied to a value.
type FilterCondition struct {
	Name  string      // registered filter name
	Value FilterValue // argument handed to the filter
}

// FilterGroup combines multiple conditions with a logical operator.
type FilterGroup struct {
	Operator   LogicalOperator
	Conditions []QueryFilter
}

// QueryFilter represents a filter condition or a group of conditions.
type QueryFilter struct {
	Condition *FilterCondition `json:",omitempty"`
	Group     *FilterGroup     `json:",omitempty"`
}

// Names returns every filter name referenced by the tree, in evaluation order.
func (f *QueryFilter) Names() []string {
	var names []string
	f.walk(func(c *FilterCondition) {
		names = append(names, c.Name)
	})

	return names
}

func (f *QueryFilter) walk(fn func(*FilterCondition)) {
	if f == nil {
		return
	}
	if f.Condition != nil {
		fn(f.Condition)
	}
	if f.Group != nil {
		for i := range f.Group.Conditions {
			f.Group.Conditions[i].walk(fn)
		}
	}
}
