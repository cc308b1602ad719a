package soldmis

// ReportRequest carries the mandatory date range and optional filters shared
// by every reporting operation. Dates are validated for presence only;
// malformed values are rejected by the warehouse, not locally.
type ReportRequest struct {
	From    string `validate:"required"`
	To      string `validate:"required"`
	Filters Filters
}

// BreakdownRequest adds the grouping dimension.
type BreakdownRequest struct {
	ReportRequest
	GroupBy string
}

// UnitRequest looks up a single unit record.
type UnitRequest struct {
	UnitNo string `validate:"required"`
}

// ReceivablesRequest adds the threshold and row cap.
type ReceivablesRequest struct {
	ReportRequest
	MinReceivable float64
	Limit         int
}

// BookingsRequest adds the sold-only toggle and row cap.
type BookingsRequest struct {
	ReportRequest
	SoldOnly bool
	Limit    int
}

const (
	defaultLimit = 200
	maxLimit     = 1000
)

// clampLimit enforces the 1..1000 row cap, substituting the default for the
// zero value.
func clampLimit(n int) int {
	if n == 0 {
		n = defaultLimit
	}
	if n < 1 {
		return 1
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}
