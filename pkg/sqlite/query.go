package sqlite

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/asaidimu/filterable/pkg/core"
)

var (
	ErrUndefinedMethod = errors.New("undefined query method")
	ErrTableMismatch   = errors.New("cannot merge queries on different tables")
	ErrIncompatibleOr  = errors.New("cannot OR queries that add different non-WHERE clauses")
)

type clauseKind int

const (
	kindColumns clauseKind = iota
	kindWhere
	kindJoin
	kindGroupBy
	kindHaving
	kindOrderBy
	kindLimit
	kindOffset
)

// clause is one link of a query's history. Links are never mutated once
// published, so queries sharing a prefix share the links themselves.
type clause struct {
	kind clauseKind
	pred sq.Sqlizer
	text string
	list []string
	args []any
	n    uint64
	prev *clause
}

// Query is an immutable SELECT over one table. Every method returns a new
// Query; the receiver stays valid and unchanged.
type Query struct {
	table   string
	tail    *clause
	methods core.Extensions[Query]
}

func quoteIdentifier(s string) string {
	escapedS := strings.ReplaceAll(s, `"`, `""`)
	return `"` + escapedS + `"`
}

// From starts a query selecting every column of table.
func From(table string) Query {
	return Query{table: table}
}

func (q Query) Table() string {
	return q.table
}

func (q Query) push(c clause) Query {
	c.prev = q.tail
	q.tail = &c
	return q
}

// Select replaces the selected columns. Columns are raw SQL expressions.
func (q Query) Select(columns ...string) Query {
	return q.push(clause{kind: kindColumns, list: slices.Clone(columns)})
}

// Where ANDs pred onto the query.
func (q Query) Where(pred sq.Sqlizer) Query {
	return q.push(clause{kind: kindWhere, pred: pred})
}

// WhereExpr ANDs a raw SQL condition with bound arguments onto the query.
func (q Query) WhereExpr(sql string, args ...any) Query {
	return q.Where(sq.Expr(sql, args...))
}

func (q Query) Join(join string, args ...any) Query {
	return q.push(clause{kind: kindJoin, text: join, args: slices.Clone(args)})
}

func (q Query) GroupBy(columns ...string) Query {
	return q.push(clause{kind: kindGroupBy, list: slices.Clone(columns)})
}

func (q Query) Having(pred sq.Sqlizer) Query {
	return q.push(clause{kind: kindHaving, pred: pred})
}

func (q Query) OrderBy(orderBys ...string) Query {
	return q.push(clause{kind: kindOrderBy, list: slices.Clone(orderBys)})
}

func (q Query) Limit(n uint64) Query {
	return q.push(clause{kind: kindLimit, n: n})
}

func (q Query) Offset(n uint64) Query {
	return q.push(clause{kind: kindOffset, n: n})
}

// clauses returns the query's history, oldest first.
func (q Query) clauses() []*clause {
	return chain(q.tail, nil)
}

// chain collects links from tail back to (excluding) stop, oldest first.
func chain(tail, stop *clause) []*clause {
	var out []*clause
	for c := tail; c != nil && c != stop; c = c.prev {
		out = append(out, c)
	}
	slices.Reverse(out)

	return out
}

// Conditions returns the WHERE predicates in the order they were added.
func (q Query) Conditions() []sq.Sqlizer {
	var preds []sq.Sqlizer
	for _, c := range q.clauses() {
		if c.kind == kindWhere {
			preds = append(preds, c.pred)
		}
	}

	return preds
}

// Builder renders the query into a squirrel SelectBuilder.
func (q Query) Builder() sq.SelectBuilder {
	columns := []string{"*"}
	for _, c := range q.clauses() {
		if c.kind == kindColumns && len(c.list) > 0 {
			columns = c.list
		}
	}

	builder := sq.Select(columns...).From(quoteIdentifier(q.table))

	for _, c := range q.clauses() {
		switch c.kind {
		case kindWhere:
			builder = builder.Where(c.pred)
		case kindJoin:
			builder = builder.Join(c.text, c.args...)
		case kindGroupBy:
			builder = builder.GroupBy(c.list...)
		case kindHaving:
			builder = builder.Having(c.pred)
		case kindOrderBy:
			builder = builder.OrderBy(c.list...)
		case kindLimit:
			builder = builder.Limit(c.n)
		case kindOffset:
			builder = builder.Offset(c.n)
		}
	}

	return builder
}

func (q Query) ToSql() (string, []any, error) {
	return q.Builder().ToSql()
}

// String renders the SQL text, for logs and debugging.
func (q Query) String() string {
	sql, _, err := q.ToSql()
	if err != nil {
		return fmt.Sprintf("<invalid query: %v>", err)
	}

	return sql
}

// Call invokes a supplemental method attached by a custom filter.
func (q Query) Call(name string, args ...any) (Query, error) {
	fn, ok := q.methods[name]
	if !ok {
		return q, fmt.Errorf("%w %q on query over %q", ErrUndefinedMethod, name, q.table)
	}

	return fn(q, args...)
}

func (q Query) HasMethod(name string) bool {
	_, ok := q.methods[name]
	return ok
}

// Methods lists supplemental method names, sorted.
func (q Query) Methods() []string {
	return slices.Sorted(maps.Keys(q.methods))
}

func (q Query) withMethods(methods core.Extensions[Query]) Query {
	q.methods = mergeMethods(q.methods, methods)
	return q
}

func mergeMethods(a, b core.Extensions[Query]) core.Extensions[Query] {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}

	out := make(core.Extensions[Query], len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)

	return out
}

// divergence finds the last link a and b share and the links each added
// after it, oldest first.
func divergence(a, b *clause) (common *clause, aOnly, bOnly []*clause) {
	seen := make(map[*clause]struct{})
	for c := a; c != nil; c = c.prev {
		seen[c] = struct{}{}
	}

	for c := b; c != nil; c = c.prev {
		if _, ok := seen[c]; ok {
			common = c
			break
		}
	}

	return common, chain(a, common), chain(b, common)
}

// and merges b into a. Links of b that a already has are not repeated, so
// merging a query with one derived from it yields the derived query.
func and(a, b Query) (Query, error) {
	if a.table != b.table {
		return a, fmt.Errorf("%w: %q and %q", ErrTableMismatch, a.table, b.table)
	}

	common, _, bOnly := divergence(a.tail, b.tail)
	switch common {
	case a.tail:
		b.methods = mergeMethods(a.methods, b.methods)
		return b, nil
	case b.tail:
		return a.withMethods(b.methods), nil
	}

	out := a
	for _, c := range bOnly {
		out = out.push(*c)
	}

	return out.withMethods(b.methods), nil
}

// or keeps what a and b share and ORs the WHERE conditions each added on
// top of it. Joins, grouping, ordering and paging added on top of the shared
// part must be the same on both sides, otherwise ErrIncompatibleOr is
// returned. When one side adds no condition the disjunction is unrestricted
// and no condition is added.
func or(a, b Query) (Query, error) {
	if a.table != b.table {
		return a, fmt.Errorf("%w: %q and %q", ErrTableMismatch, a.table, b.table)
	}

	common, aOnly, bOnly := divergence(a.tail, b.tail)

	aWhere, aOther := splitWhere(aOnly)
	bWhere, bOther := splitWhere(bOnly)
	if !sameClauses(aOther, bOther) {
		return a, fmt.Errorf("%w on %q", ErrIncompatibleOr, a.table)
	}

	out := Query{table: a.table, tail: common, methods: mergeMethods(a.methods, b.methods)}
	for _, c := range aOther {
		out = out.push(*c)
	}

	if len(aWhere) > 0 && len(bWhere) > 0 {
		out = out.Where(sq.Or{conjunction(aWhere), conjunction(bWhere)})
	}

	return out, nil
}

// sameClauses reports whether a and b render the same clauses in the same
// order.
func sameClauses(a, b []*clause) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !sameClause(a[i], b[i]) {
			return false
		}
	}

	return true
}

func sameClause(a, b *clause) bool {
	if a == b {
		return true
	}
	if a.kind != b.kind || a.text != b.text || a.n != b.n {
		return false
	}
	if !slices.Equal(a.list, b.list) || !reflect.DeepEqual(a.args, b.args) {
		return false
	}
	if (a.pred == nil) != (b.pred == nil) {
		return false
	}
	if a.pred == nil {
		return true
	}

	aSQL, aArgs, aErr := a.pred.ToSql()
	bSQL, bArgs, bErr := b.pred.ToSql()
	if aErr != nil || bErr != nil {
		return false
	}

	return aSQL == bSQL && reflect.DeepEqual(aArgs, bArgs)
}

func splitWhere(links []*clause) (where []sq.Sqlizer, other []*clause) {
	for _, c := range links {
		if c.kind == kindWhere {
			where = append(where, c.pred)
			continue
		}
		other = append(other, c)
	}

	return where, other
}

func conjunction(preds []sq.Sqlizer) sq.Sqlizer {
	if len(preds) == 1 {
		return preds[0]
	}

	return sq.And(preds)
}
