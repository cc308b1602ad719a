package warehouse

import "fmt"

// numericLiteral matches values the warehouse can cast to NUMERIC. The sales
// sheets feed the same logical field as INT, FLOAT, or free-form text
// depending on upload batch, so anything else must degrade to NULL instead of
// failing the query.
const numericLiteral = `^-?[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?$`

// NumericExpr is a numeric projection of a logical field: either resolved to a
// physical column or explicitly absent. Absence renders a constant zero so a
// missing optional column degrades instead of erroring.
type NumericExpr struct {
	column   string
	resolved bool
}

// ResolvedNumeric describes a numeric read of a physical column.
func ResolvedNumeric(column string) NumericExpr {
	return NumericExpr{column: column, resolved: true}
}

// AbsentNumeric describes a logical field with no backing column.
func AbsentNumeric() NumericExpr {
	return NumericExpr{}
}

// Resolved reports whether the expression reads a real column.
func (e NumericExpr) Resolved() bool { return e.resolved }

// Column returns the backing physical column, empty when absent.
func (e NumericExpr) Column() string { return e.column }

// SQL renders the expression. A resolved column goes through the guarded
// double cast: to text, blank treated as absent, then to NUMERIC only when the
// text looks numeric, yielding NULL (never an error) otherwise. This mirrors
// how the source data is stored and must not be simplified to a direct cast.
func (e NumericExpr) SQL() string {
	if !e.resolved {
		return "CAST(0 AS NUMERIC)"
	}
	ident := QuoteIdent(e.column)
	return fmt.Sprintf(
		"CASE WHEN NULLIF(BTRIM(CAST(%s AS TEXT)), '') ~ '%s' THEN CAST(BTRIM(CAST(%s AS TEXT)) AS NUMERIC) END",
		ident, numericLiteral, ident,
	)
}

// Zero renders the expression with NULLs collapsed to 0, for row-level values
// and summands.
func (e NumericExpr) Zero() string {
	if !e.resolved {
		return "CAST(0 AS NUMERIC)"
	}
	return fmt.Sprintf("COALESCE(%s, 0)", e.SQL())
}

// Sum renders a SUM aggregate over the zero-collapsed expression.
func (e NumericExpr) Sum() string {
	return fmt.Sprintf("SUM(%s)", e.Zero())
}

// Avg renders an AVG aggregate. NULLs stay NULL here so unparseable rows do
// not drag the average toward zero; an absent column averages to zero.
func (e NumericExpr) Avg() string {
	return fmt.Sprintf("AVG(%s)", e.SQL())
}

// TextExpr is the string counterpart: a resolved column reads as text with
// NULL collapsed to the empty string, an absent one renders the empty string
// directly.
type TextExpr struct {
	column   string
	resolved bool
}

// ResolvedText describes a text read of a physical column.
func ResolvedText(column string) TextExpr {
	return TextExpr{column: column, resolved: true}
}

// AbsentText describes a text field with no backing column.
func AbsentText() TextExpr {
	return TextExpr{}
}

// Resolved reports whether the expression reads a real column.
func (e TextExpr) Resolved() bool { return e.resolved }

// SQL renders the expression.
func (e TextExpr) SQL() string {
	if !e.resolved {
		return "''"
	}
	return fmt.Sprintf("COALESCE(CAST(%s AS TEXT), '')", QuoteIdent(e.column))
}
