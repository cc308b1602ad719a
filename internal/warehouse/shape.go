package warehouse

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// JSONValue converts a driver value into something the JSON encoder renders
// cleanly: NULL becomes the empty string, numeric kinds become float64, dates
// become YYYY-MM-DD. Used for SELECT * records where column types are only
// known at runtime.
func JSONValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		return val
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02")
	case float64, float32, int64, int32, int16, int, uint64, uint32:
		return Float(val)
	case pgtype.Numeric:
		return Float(val)
	case decimal.Decimal:
		return val.InexactFloat64()
	default:
		return String(val)
	}
}
