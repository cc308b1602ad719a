package warehouse

import (
	"fmt"
	"strconv"
	"strings"
)

// SelectBuilder is a small typed model of one analytical query: selected
// expressions, optional CTEs and joins, AND-combined predicates with numbered
// bound parameters, grouping, ordering, and a row cap. It renders to SQL with
// every value bound and every identifier supplied by the caller from the
// resolved schema set or configuration, never from request input.
type SelectBuilder struct {
	from    string
	ctes    []string
	columns []string
	joins   []string
	where   []string
	groupBy []string
	orderBy []string
	limit   int
	args    []any
}

// NewSelect starts a query over the given FROM clause. The clause must already
// be sanitized (see SchemaCache.Table / QuoteIdent).
func NewSelect(from string) *SelectBuilder {
	return &SelectBuilder{from: from}
}

// With adds a named CTE whose body was rendered against this builder's
// parameters (bind through Bind so numbering stays consistent).
func (b *SelectBuilder) With(name, body string) *SelectBuilder {
	b.ctes = append(b.ctes, fmt.Sprintf("%s AS (%s)", name, body))
	return b
}

// Column adds a projected expression under an output alias.
func (b *SelectBuilder) Column(expr, alias string) *SelectBuilder {
	b.columns = append(b.columns, fmt.Sprintf("%s AS %s", expr, alias))
	return b
}

// ColumnRaw adds a projection without aliasing, e.g. "s.*".
func (b *SelectBuilder) ColumnRaw(expr string) *SelectBuilder {
	b.columns = append(b.columns, expr)
	return b
}

// Join appends a join clause.
func (b *SelectBuilder) Join(clause string) *SelectBuilder {
	b.joins = append(b.joins, clause)
	return b
}

// Bind registers a value as a query parameter and returns its placeholder.
func (b *SelectBuilder) Bind(value any) string {
	b.args = append(b.args, value)
	return "$" + strconv.Itoa(len(b.args))
}

// Where adds a predicate; all predicates combine with AND.
func (b *SelectBuilder) Where(predicate string) *SelectBuilder {
	b.where = append(b.where, predicate)
	return b
}

// GroupBy adds a grouping key.
func (b *SelectBuilder) GroupBy(key string) *SelectBuilder {
	b.groupBy = append(b.groupBy, key)
	return b
}

// OrderBy adds an ordering term, e.g. "bookings DESC".
func (b *SelectBuilder) OrderBy(term string) *SelectBuilder {
	b.orderBy = append(b.orderBy, term)
	return b
}

// Limit caps the number of returned rows; zero means no cap.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

// SQL renders the query.
func (b *SelectBuilder) SQL() string {
	var sb strings.Builder
	if len(b.ctes) > 0 {
		sb.WriteString("WITH ")
		sb.WriteString(strings.Join(b.ctes, ", "))
		sb.WriteString(" ")
	}
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.from)
	for _, join := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(join)
	}
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	if len(b.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}
	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.Itoa(b.limit))
	}
	return sb.String()
}

// Args returns the bound parameters in placeholder order.
func (b *SelectBuilder) Args() []any {
	return b.args
}
