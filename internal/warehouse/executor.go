// Package warehouse implements the schema-adaptive query layer: runtime column
// discovery, candidate column selection, safe numeric expressions, and a typed
// select model rendered to parameterized SQL for the analytical store.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/forestscape/soldmis/internal/platform/httpx"
)

// Row is one result row keyed by output column name.
type Row map[string]any

// Executor runs a read-only parameterized query and returns all rows.
type Executor interface {
	Query(ctx context.Context, sql string, args []any) ([]Row, error)
}

// PoolExecutor is the pgxpool-backed Executor.
type PoolExecutor struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPoolExecutor wraps a connection pool with query logging.
func NewPoolExecutor(pool *pgxpool.Pool, logger *slog.Logger) *PoolExecutor {
	return &PoolExecutor{pool: pool, logger: logger}
}

// Query executes sql with bound args and materializes every row into a Row map.
// Field names come from the result descriptions, which is what lets the unit
// lookup run SELECT * without a compiled row type.
func (e *PoolExecutor) Query(ctx context.Context, sql string, args []any) ([]Row, error) {
	queryID := uuid.NewString()
	start := time.Now()

	rows, err := e.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, classifyQueryError(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := make([]Row, 0, 8)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, classifyQueryError(err)
		}
		row := make(Row, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyQueryError(err)
	}

	if e.logger != nil {
		e.logger.Debug("warehouse query",
			slog.String("query_id", queryID),
			slog.Duration("elapsed", time.Since(start)),
			slog.Int("rows", len(out)),
		)
	}
	return out, nil
}

// classifyQueryError maps driver errors onto the gateway taxonomy. Identifier
// errors mean the live schema no longer matches what was resolved; everything
// else is an upstream execution failure.
func classifyQueryError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: no rows", httpx.ErrUpstreamQuery)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42P01", "42703", "42501": // undefined_table, undefined_column, insufficient_privilege
			return fmt.Errorf("%w: %s", httpx.ErrSchemaMismatch, pgErr.Message)
		}
		return fmt.Errorf("%w: %s (%s)", httpx.ErrUpstreamQuery, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("%w: %v", httpx.ErrUpstreamQuery, err)
}

// Float coerces a driver value to float64, normalizing NULL and failed
// conversions to 0. The warehouse stores numerics inconsistently typed, so
// string and byte forms go through decimal parsing rather than Atoi-style
// shortcuts.
func Float(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return val
	case float32:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case int16:
		return float64(val)
	case int:
		return float64(val)
	case uint64:
		return float64(val)
	case uint32:
		return float64(val)
	case decimal.Decimal:
		return val.InexactFloat64()
	case pgtype.Numeric:
		return numericToDecimal(val).InexactFloat64()
	case string:
		return parseDecimal(val).InexactFloat64()
	case []byte:
		return parseDecimal(string(val)).InexactFloat64()
	default:
		return 0
	}
}

// Int coerces a driver value to int64 with the same null-to-zero policy.
func Int(v any) int64 {
	switch val := v.(type) {
	case nil:
		return 0
	case int64:
		return val
	case int32:
		return int64(val)
	case int16:
		return int64(val)
	case int:
		return int64(val)
	case uint64:
		return int64(val)
	case uint32:
		return int64(val)
	case float64:
		return int64(val)
	case float32:
		return int64(val)
	case pgtype.Numeric:
		return numericToDecimal(val).IntPart()
	default:
		return 0
	}
}

// String coerces a driver value to its string form, normalizing NULL to "".
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02")
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Decimal coerces a driver value to an exact decimal for lossless accumulation.
func Decimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return val
	case pgtype.Numeric:
		return numericToDecimal(val)
	case float64:
		return decimal.NewFromFloat(val)
	case float32:
		return decimal.NewFromFloat32(val)
	case int64:
		return decimal.NewFromInt(val)
	case int32:
		return decimal.NewFromInt(int64(val))
	case int:
		return decimal.NewFromInt(int64(val))
	case string:
		return parseDecimal(val)
	case []byte:
		return parseDecimal(string(val))
	default:
		return decimal.Zero
	}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
