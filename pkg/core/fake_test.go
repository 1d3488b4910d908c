package core_test

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/asaidimu/filterable/pkg/core"
)

var errBadValue = errors.New("bad value")

// badValue makes the fake adapter fail, like a driver rejecting a value.
type badValue struct{}

// fakeQuery renders conditions as text. Conditions are kept as a list so
// that merges can detect the prefix two queries share.
type fakeQuery struct {
	conds   []string
	methods core.Extensions[fakeQuery]
}

func (q fakeQuery) String() string {
	if len(q.conds) == 0 {
		return "TRUE"
	}

	return strings.Join(q.conds, " AND ")
}

func (q fakeQuery) with(cond string) fakeQuery {
	conds := make([]string, len(q.conds), len(q.conds)+1)
	copy(conds, q.conds)

	return fakeQuery{conds: append(conds, cond), methods: q.methods}
}

func (q fakeQuery) Call(name string, args ...any) (fakeQuery, error) {
	fn, ok := q.methods[name]
	if !ok {
		return q, fmt.Errorf("undefined method %q", name)
	}

	return fn(q, args...)
}

func (q fakeQuery) HasMethod(name string) bool {
	_, ok := q.methods[name]
	return ok
}

type fakeAdapter struct {
	narrows atomic.Int64
	merges  atomic.Int64
}

func (a *fakeAdapter) All() fakeQuery {
	return fakeQuery{}
}

func (a *fakeAdapter) Narrow(q fakeQuery, field string, value any) (fakeQuery, error) {
	a.narrows.Add(1)

	switch v := value.(type) {
	case badValue:
		return q, errBadValue
	case nil:
		return q.with(field + " IS NULL"), nil
	default:
		if isList(v) {
			return q.with(fmt.Sprintf("%s IN %v", field, v)), nil
		}
		return q.with(fmt.Sprintf("%s = %v", field, v)), nil
	}
}

func (a *fakeAdapter) NegateNarrow(q fakeQuery, field string, value any) (fakeQuery, error) {
	a.narrows.Add(1)

	switch v := value.(type) {
	case badValue:
		return q, errBadValue
	case nil:
		return q.with(field + " IS NOT NULL"), nil
	default:
		if isList(v) {
			return q.with(fmt.Sprintf("%s NOT IN %v", field, v)), nil
		}
		return q.with(fmt.Sprintf("%s != %v", field, v)), nil
	}
}

func (a *fakeAdapter) And(x, y fakeQuery) (fakeQuery, error) {
	a.merges.Add(1)

	p := sharedPrefix(x.conds, y.conds)
	conds := append(append([]string{}, x.conds...), y.conds[p:]...)

	return fakeQuery{conds: conds, methods: mergeMethods(x.methods, y.methods)}, nil
}

func (a *fakeAdapter) Or(x, y fakeQuery) (fakeQuery, error) {
	a.merges.Add(1)

	p := sharedPrefix(x.conds, y.conds)
	conds := append([]string{}, x.conds[:p]...)
	if p < len(x.conds) && p < len(y.conds) {
		conds = append(conds, "("+group(x.conds[p:])+" OR "+group(y.conds[p:])+")")
	}

	return fakeQuery{conds: conds, methods: mergeMethods(x.methods, y.methods)}, nil
}

func (a *fakeAdapter) Extend(q fakeQuery, methods core.Extensions[fakeQuery]) fakeQuery {
	q.methods = mergeMethods(q.methods, methods)
	return q
}

func group(conds []string) string {
	if len(conds) == 1 {
		return conds[0]
	}

	return "(" + strings.Join(conds, " AND ") + ")"
}

func sharedPrefix(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}

	return n
}

func mergeMethods(a, b core.Extensions[fakeQuery]) core.Extensions[fakeQuery] {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}

	out := make(core.Extensions[fakeQuery], len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)

	return out
}

func isList(v any) bool {
	kind := reflect.TypeOf(v).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

type fakeSchema struct {
	name    string
	fields  []core.Field
	methods map[string]bool
	err     error
}

func (s *fakeSchema) Name() string { return s.name }

func (s *fakeSchema) Fields(context.Context) ([]core.Field, error) {
	return s.fields, s.err
}

func (s *fakeSchema) HasMethod(name string) bool { return s.methods[name] }

func orderSchema() *fakeSchema {
	return &fakeSchema{
		name: "orders",
		fields: []core.Field{
			{Name: "status", Type: "TEXT"},
			{Name: "total", Type: "INTEGER"},
			{Name: "origin", Type: "TEXT"},
		},
		methods: map[string]bool{"where": true, "group_by": true},
	}
}

func newOrderModel(opts ...core.Option) (*core.Model[fakeQuery], *fakeAdapter) {
	adapter := &fakeAdapter{}
	model, err := core.NewModel[fakeQuery](context.Background(), orderSchema(), adapter, opts...)
	if err != nil {
		panic(err)
	}

	return model, adapter
}
