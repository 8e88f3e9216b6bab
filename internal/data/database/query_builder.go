// Package database builds parameterized list queries for the data layer.
package database

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ConditionType is the SQL comparison operator of a Condition.
type ConditionType string

const (
	Equal       ConditionType = "="
	NotEqual    ConditionType = "!="
	GreaterThan ConditionType = ">"
	LessThan    ConditionType = "<"
)

// unsetLimit marks Limit and Offset as not provided.
const unsetLimit = -1

// Condition is a single WHERE predicate. Either a field comparison or a raw
// SQL fragment with its own placeholders.
type Condition struct {
	Field  string
	Type   ConditionType
	Value  any
	raw    string
	params []any
}

// WhereCond builds a sanitized field comparison.
func WhereCond(field string, condType ConditionType, value any) Condition {
	return Condition{Field: field, Type: condType, Value: value}
}

// WhereRawCond builds a raw SQL predicate. Placeholders are numbered $1..$n
// relative to params and are renumbered when the query is assembled. The
// fragment itself is trusted; only use it with literal SQL.
func WhereRawCond(rawQuery string, params ...any) Condition {
	return Condition{raw: rawQuery, params: params}
}

// ListQueryOptions describes a SELECT over a single table.
type ListQueryOptions struct {
	Table      string
	Columns    []string
	Conditions []Condition
	OrderBy    string
	OrderDir   string
	Limit      int
	Offset     int
}

// ListQueryOption mutates ListQueryOptions.
type ListQueryOption func(*ListQueryOptions)

// NewListQueryOptions applies the given options over a bare table query.
func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{
		Table:  table,
		Limit:  unsetLimit,
		Offset: unsetLimit,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the selected columns. Defaults to * when absent.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

// WithCondition appends a WHERE predicate. Predicates are AND-joined.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, cond) }
}

// WithOrderBy sets the ordering column and direction ("ASC" or "DESC").
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = column
		o.OrderDir = direction
	}
}

// WithLimit sets the row limit. Zero is a valid (empty) limit.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the row offset.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

// BuildListQuery assembles the query and its positional arguments. Table,
// column and order-by identifiers are quoted via pgx.
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var query strings.Builder
	query.WriteString("SELECT ")
	if len(options.Columns) == 0 {
		query.WriteString("*")
	} else {
		quoted := make([]string, len(options.Columns))
		for i, col := range options.Columns {
			quoted[i] = quoteIdent(col)
		}
		query.WriteString(strings.Join(quoted, ", "))
	}
	query.WriteString(" FROM ")
	query.WriteString(quoteIdent(options.Table))

	var args []any
	predicates := make([]string, 0, len(options.Conditions))
	for _, cond := range options.Conditions {
		sql, condArgs := renderCondition(cond, len(args)+1)
		if sql == "" {
			continue
		}
		predicates = append(predicates, sql)
		args = append(args, condArgs...)
	}
	if len(predicates) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(predicates, " AND "))
	}

	if options.OrderBy != "" {
		query.WriteString(" ORDER BY ")
		query.WriteString(quoteIdent(options.OrderBy))
		if dir := strings.ToUpper(options.OrderDir); dir == "ASC" || dir == "DESC" {
			query.WriteString(" ")
			query.WriteString(dir)
		}
	}
	if options.Limit != unsetLimit {
		query.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)+1))
		args = append(args, options.Limit)
	}
	if options.Offset != unsetLimit {
		query.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)+1))
		args = append(args, options.Offset)
	}

	return query.String(), args
}

// renderCondition emits the SQL for one predicate with placeholders starting
// at nextParam.
func renderCondition(cond Condition, nextParam int) (string, []any) {
	if cond.raw != "" {
		return renumberRaw(cond.raw, cond.params, nextParam)
	}
	if cond.Field == "" {
		return "", nil
	}
	return fmt.Sprintf("%s %s $%d", quoteIdent(cond.Field), cond.Type, nextParam), []any{cond.Value}
}

// renumberRaw shifts a raw fragment's $1..$n placeholders so they continue the
// surrounding query's numbering.
func renumberRaw(raw string, params []any, nextParam int) (string, []any) {
	shifted := placeholderPattern.ReplaceAllStringFunc(raw, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil || n < 1 || n > len(params) {
			return m
		}
		return fmt.Sprintf("$%d", nextParam+n-1)
	})
	return shifted, params
}

// quoteIdent quotes a possibly qualified identifier like "trackers.name".
func quoteIdent(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}
