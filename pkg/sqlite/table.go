package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	sq "github.com/Masterminds/squirrel"
	"github.com/asaidimu/filterable/pkg/core"
)

var (
	ErrTableNotFound    = errors.New("table not found")
	ErrUnsupportedValue = errors.New("unsupported filter value")
)

// queryMethods are the Query methods, spelled the way filter names are.
var queryMethods = map[string]struct{}{
	"builder":    {},
	"call":       {},
	"conditions": {},
	"from":       {},
	"group_by":   {},
	"has_method": {},
	"having":     {},
	"join":       {},
	"limit":      {},
	"methods":    {},
	"offset":     {},
	"order_by":   {},
	"select":     {},
	"string":     {},
	"table":      {},
	"to_sql":     {},
	"where":      {},
	"where_expr": {},
}

// Table is the schema and query adapter of one SQLite table.
type Table struct {
	db   *sql.DB
	name string
}

var (
	_ core.Schema         = (*Table)(nil)
	_ core.Adapter[Query] = (*Table)(nil)
)

func NewTable(db *sql.DB, name string) *Table {
	return &Table{db: db, name: name}
}

// NewModel builds a filterable model over table.
func NewModel(ctx context.Context, db *sql.DB, table string, opts ...core.Option) (*core.Model[Query], error) {
	t := NewTable(db, table)
	return core.NewModel[Query](ctx, t, t, opts...)
}

func (t *Table) Name() string {
	return t.name
}

// Fields lists the table's columns in declaration order.
func (t *Table) Fields(ctx context.Context) ([]core.Field, error) {
	rows, err := t.db.QueryContext(ctx, "SELECT name, type FROM pragma_table_info(?) ORDER BY cid", t.name)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %q: %w", t.name, err)
	}
	defer rows.Close()

	var fields []core.Field
	for rows.Next() {
		var field core.Field
		if err := rows.Scan(&field.Name, &field.Type); err != nil {
			return nil, fmt.Errorf("failed to scan column of %q: %w", t.name, err)
		}
		fields = append(fields, field)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning columns of %q: %w", t.name, err)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrTableNotFound, t.name)
	}

	return fields, nil
}

func (t *Table) HasMethod(name string) bool {
	_, ok := queryMethods[name]
	return ok
}

func (t *Table) All() Query {
	return From(t.name)
}

// Narrow adds "table"."field" = value. A slice value renders IN, nil renders IS NULL.
func (t *Table) Narrow(q Query, field string, value any) (Query, error) {
	if err := checkValue(field, value); err != nil {
		return q, err
	}

	return q.Where(sq.Eq{t.column(field): value}), nil
}

// NegateNarrow adds "table"."field" <> value. A slice value renders NOT IN, nil
// renders IS NOT NULL.
func (t *Table) NegateNarrow(q Query, field string, value any) (Query, error) {
	if err := checkValue(field, value); err != nil {
		return q, err
	}

	return q.Where(sq.NotEq{t.column(field): value}), nil
}

// column qualifies field with the table name so it stays unambiguous once
// a custom filter joins another table.
func (t *Table) column(field string) string {
	return quoteIdentifier(t.name) + "." + quoteIdentifier(field)
}

func (t *Table) And(a, b Query) (Query, error) {
	return and(a, b)
}

func (t *Table) Or(a, b Query) (Query, error) {
	return or(a, b)
}

func (t *Table) Extend(q Query, methods core.Extensions[Query]) Query {
	return q.withMethods(methods)
}

func checkValue(field string, value any) error {
	if value == nil {
		return nil
	}

	switch value.(type) {
	case core.Conjunction, core.Disjunction, core.Term:
		return fmt.Errorf("%w: predicate given as the value of %q", ErrUnsupportedValue, field)
	}

	if reflect.TypeOf(value).Kind() == reflect.Map {
		return fmt.Errorf("%w: object given as the value of %q", ErrUnsupportedValue, field)
	}

	return nil
}
