package soldmis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forestscape/soldmis/internal/platform/httpx"
	"github.com/forestscape/soldmis/internal/warehouse"
)

// fakeExec serves catalog introspection from a static schema map and everything
// else from a queued result list. Safe for the payments fan-out.
type fakeExec struct {
	mu      sync.Mutex
	schemas map[string][]string
	results []fakeResult
	queries []executedQuery
}

type fakeResult struct {
	rows []warehouse.Row
	err  error
}

type executedQuery struct {
	sql  string
	args []any
}

func (f *fakeExec) Query(_ context.Context, sql string, args []any) ([]warehouse.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.Contains(sql, "information_schema.columns") {
		table, _ := args[1].(string)
		cols, ok := f.schemas[table]
		if !ok {
			return nil, nil
		}
		rows := make([]warehouse.Row, 0, len(cols))
		for _, col := range cols {
			rows = append(rows, warehouse.Row{"column_name": col})
		}
		return rows, nil
	}
	f.queries = append(f.queries, executedQuery{sql: sql, args: args})
	if len(f.results) == 0 {
		return nil, fmt.Errorf("unexpected query: %s", sql)
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next.rows, next.err
}

func (f *fakeExec) queue(rows []warehouse.Row, err error) {
	f.results = append(f.results, fakeResult{rows: rows, err: err})
}

func (f *fakeExec) executed() []executedQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]executedQuery, len(f.queries))
	copy(out, f.queries)
	return out
}

var fullSalesColumns = []string{
	"BOOKING_DATE", "DATE", "UNIT_NO", "CUSTOMER_NAME", "Cluster", "SOURCE",
	"UNIT_TYPE", "SALE_AGREEMENT_STATUS", "LOAN_STATUS", "SOLD_UNSOLD_ID",
	"SALE_AGREEMENT", "GROSS_SOLD_SALE_VALUE", "GROSS_AMOUNT_RECEIVED",
	"PENDING_DEMAND", "RECEIVABLES", "PER_SFT_PRICE",
	"APPROVED_PRICE_INVENTORY_VALUE",
}

func newTestService(t *testing.T, exec *fakeExec) *Service {
	t.Helper()
	schema := warehouse.NewSchemaCache(exec, "analytics")
	return NewService(exec, schema, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), Options{
		SalesTable:        "sales",
		PaymentsTable:     "payments",
		DefaultDateColumn: "DATE",
		SoldStatusColumns: []string{"SOLD_UNSOLD_ID", "SOLD_UNSOLD", "SOLD_STATUS", "STATUS"},
	})
}

func rangeReq(filters Filters) ReportRequest {
	return ReportRequest{From: "2024-01-01", To: "2024-03-31", Filters: filters}
}

func TestSummary(t *testing.T) {
	exec := &fakeExec{schemas: map[string][]string{"sales": fullSalesColumns}}
	exec.queue([]warehouse.Row{{
		"bookings":              int64(3),
		"gross_sale_value":      1500.0,
		"sale_value":            1400.0,
		"gross_amount_received": 600.0,
		"pending_demand":        200.0,
		"receivables":           800.0,
		"avg_per_sft_price":     95.5,
	}}, nil)
	svc := newTestService(t, exec)

	resp, err := svc.Summary(context.Background(), rangeReq(nil))
	require.NoError(t, err)

	assert.Equal(t, int64(3), resp.Totals.Bookings)
	assert.Equal(t, 1500.0, resp.Totals.GrossSaleValue)
	assert.Equal(t, 800.0, resp.Totals.Receivables)
	assert.Equal(t, "2024-01-01", resp.From)
	assert.Equal(t, "BOOKING_DATE", resp.DateColUsed, "BOOKING_DATE outranks DATE")
	assert.Empty(t, resp.Filters)

	queries := exec.executed()
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0].sql, `"BOOKING_DATE" BETWEEN $1 AND $2`)
	assert.Equal(t, []any{"2024-01-01", "2024-03-31"}, queries[0].args)
}

func TestSummaryMissingRange(t *testing.T) {
	svc := newTestService(t, &fakeExec{schemas: map[string][]string{"sales": fullSalesColumns}})

	_, err := svc.Summary(context.Background(), ReportRequest{From: "2024-01-01"})
	assert.ErrorIs(t, err, httpx.ErrMissingParameter)

	_, err = svc.Summary(context.Background(), ReportRequest{})
	assert.ErrorIs(t, err, httpx.ErrMissingParameter)
}

func TestSummaryAbsentValueColumnsDegrade(t *testing.T) {
	exec := &fakeExec{schemas: map[string][]string{
		"sales": {"DATE", "UNIT_NO"},
	}}
	exec.queue([]warehouse.Row{{"bookings": int64(2)}}, nil)
	svc := newTestService(t, exec)

	resp, err := svc.Summary(context.Background(), rangeReq(nil))
	require.NoError(t, err)

	assert.Equal(t, int64(2), resp.Totals.Bookings)
	assert.Zero(t, resp.Totals.GrossSaleValue)
	assert.Zero(t, resp.Totals.AvgPerSftPrice)
	assert.Equal(t, "DATE", resp.DateColUsed)

	queries := exec.executed()
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0].sql, "SUM(CAST(0 AS NUMERIC))", "missing value columns render constant zero")
}

func TestSummarySchemaUnavailable(t *testing.T) {
	svc := newTestService(t, &fakeExec{schemas: map[string][]string{}})

	_, err := svc.Summary(context.Background(), rangeReq(nil))
	assert.ErrorIs(t, err, httpx.ErrSchemaUnavailable)
}

func TestSummaryFilterApplication(t *testing.T) {
	exec := &fakeExec{schemas: map[string][]string{"sales": fullSalesColumns}}
	exec.queue([]warehouse.Row{{"bookings": int64(1)}}, nil)
	svc := newTestService(t, exec)

	resp, err := svc.Summary(context.Background(), rangeReq(Filters{"cluster": "Willow", "source": "WEB"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"cluster": "Willow", "source": "WEB"}, resp.Filters)

	queries := exec.executed()
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0].sql, `UPPER(CAST("Cluster" AS TEXT)) = UPPER($3)`)
	assert.Contains(t, queries[0].sql, `UPPER(CAST("SOURCE" AS TEXT)) = UPPER($4)`)
	assert.Contains(t, queries[0].args, "Willow")
	assert.Contains(t, queries[0].args, "WEB")
}

func TestSummaryFilterEchoedWhenColumnMissing(t *testing.T) {
	exec := &fakeExec{schemas: map[string][]string{
		"sales": {"DATE", "UNIT_NO", "Cluster"},
	}}
	exec.queue([]warehouse.Row{{"bookings": int64(1)}}, nil)
	svc := newTestService(t, exec)

	resp, err := svc.Summary(context.Background(), rangeReq(Filters{"loan_status": "APPROVED"}))
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", resp.Filters["loan_status"], "ignored filters are still echoed")

	queries := exec.executed()
	require.Len(t, queries, 1)
	assert.NotContains(t, queries[0].sql, "LOAN_STATUS", "missing filter column must not reach the query")
}

func TestBreakdownUnknownGroupBy(t *testing.T) {
	svc := newTestService(t, &fakeExec{schemas: map[string][]string{"sales": fullSalesColumns}})

	_, err := svc.Breakdown(context.Background(), BreakdownRequest{
		ReportRequest: rangeReq(nil), GroupBy: "CITY",
	})
	require.ErrorIs(t, err, httpx.ErrInvalidParameter)
	assert.Contains(t, err.Error(), "Cluster, UNIT_TYPE, SOURCE, SALE_AGREEMENT_STATUS, LOAN_STATUS")
}

func TestBreakdownGroupColumnMissing(t *testing.T) {
	svc := newTestService(t, &fakeExec{schemas: map[string][]string{
		"sales": {"DATE", "UNIT_NO"},
	}})

	_, err := svc.Breakdown(context.Background(), BreakdownRequest{
		ReportRequest: rangeReq(nil), GroupBy: "LOAN_STATUS",
	})
	assert.ErrorIs(t, err, httpx.ErrSchemaMismatch)
}

func TestBreakdownRows(t *testing.T) {
	exec := &fakeExec{schemas: map[string][]string{"sales": fullSalesColumns}}
	exec.queue([]warehouse.Row{
		{"key": "Willow", "bookings": int64(5), "sale_value": 500.0, "gross_amount_received": 250.0, "pending_demand": 50.0, "receivables": 200.0},
		{"key": "UNKNOWN", "bookings": int64(2), "sale_value": 120.0, "gross_amount_received": 60.0, "pending_demand": 20.0, "receivables": 40.0},
	}, nil)
	svc := newTestService(t, exec)

	resp, err := svc.Breakdown(context.Background(), BreakdownRequest{
		ReportRequest: rangeReq(nil), GroupBy: "Cluster",
	})
	require.NoError(t, err)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "Willow", resp.Rows[0].Key)
	assert.Equal(t, int64(5), resp.Rows[0].Bookings)
	assert.Equal(t, "UNKNOWN", resp.Rows[1].Key)
	assert.Equal(t, "Cluster", resp.GroupBy)

	queries := exec.executed()
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0].sql, `COALESCE(CAST("Cluster" AS TEXT), 'UNKNOWN') AS key`)
	assert.Contains(t, queries[0].sql, "GROUP BY key")
	assert.Contains(t, queries[0].sql, "ORDER BY bookings DESC")
}

func TestUnitRequiresParam(t *testing.T) {
	svc := newTestService(t, &fakeExec{schemas: map[string][]string{"sales": fullSalesColumns}})

	_, err := svc.Unit(context.Background(), UnitRequest{})
	assert.ErrorIs(t, err, httpx.ErrMissingParameter)
}

func TestUnitNotFound(t *testing.T) {
	exec := &fakeExec{schemas: map[string][]string{"sales": fullSalesColumns}}
	exec.queue(nil, nil)
	svc := newTestService(t, exec)

	_, err := svc.Unit(context.Background(), UnitRequest{UnitNo: "Z-999"})
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUnitFound(t *testing.T) {
	exec := &fakeExec{schemas: map[string][]string{"sales": fullSalesColumns}}
	exec.queue([]warehouse.Row{{
		"UNIT_NO":       "A-101",
		"CUSTOMER_NAME": "R. Iyer",
		"RECEIVABLES":   450.5,
		"LOAN_STATUS":   nil,
	}}, nil)
	svc := newTestService(t, exec)

	resp, err := svc.Unit(context.Background(), UnitRequest{UnitNo: "a-101"})
	require.NoError(t, err)
	assert.Equal(t, "a-101", resp.UnitNo)
	assert.Equal(t, "R. Iyer", resp.Record["CUSTOMER_NAME"])
	assert.Equal(t, "", resp.Record["LOAN_STATUS"], "NULLs shape to empty strings")

	queries := exec.executed()
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0].sql, "SELECT * FROM")
	assert.Contains(t, queries[0].sql, "LIMIT 50")
	assert.Contains(t, queries[0].sql, `UPPER(CAST("UNIT_NO" AS TEXT)) = UPPER($1)`)
}

func TestPaymentsNoPaymentColumns(t *testing.T) {
	exec := &fakeExec{schemas: map[string][]string{
		"sales":    fullSalesColumns,
		"payments": {"DATE", "UNIT_NO"},
	}}
	svc := newTestService(t, exec)

	resp, err := svc.Payments(context.Background(), rangeReq(nil))
	require.NoError(t, err)

	assert.Zero(t, resp.Totals.PaymentsTotal)
	assert.Zero(t, resp.Totals.UnitsWithPayments)
	require.Len(t, resp.ByPaymentIndex, paymentColumnCount, "all twenty indices are always reported")
	for i, entry := range resp.ByPaymentIndex {
		assert.Equal(t, i+1, entry.PaymentIndex)
		assert.Zero(t, entry.Total)
	}
	assert.Empty(t, exec.executed(), "no payment column present means no aggregation query")
}

func TestPaymentsSingleColumn(t *testing.T) {
	exec := &fakeExec{schemas: map[string][]string{
		"sales":    fullSalesColumns,
		"payments": {"DATE", "UNIT_NO", "PAYMENT_3"},
	}}
	exec.queue([]warehouse.Row{{"payments_total": 750.0, "units_with_payments": int64(2)}}, nil)
	exec.queue([]warehouse.Row{{"total": 750.0}}, nil)
	svc := newTestService(t, exec)

	resp, err := svc.Payments(context.Background(), rangeReq(nil))
	require.NoError(t, err)

	assert.Equal(t, 750.0, resp.Totals.PaymentsTotal)
	assert.Equal(t, int64(2), resp.Totals.UnitsWithPayments)
	require.Len(t, resp.ByPaymentIndex, paymentColumnCount)
	assert.Equal(t, 750.0, resp.ByPaymentIndex[2].Total)
	assert.Zero(t, resp.ByPaymentIndex[0].Total)
	assert.Zero(t, resp.ByPaymentIndex[19].Total)

	queries := exec.executed()
	require.Len(t, queries, 2)
	assert.Contains(t, queries[0].sql, "COUNT(DISTINCT CASE WHEN (")
	assert.Contains(t, queries[1].sql, `SUM(COALESCE(CASE WHEN NULLIF(BTRIM(CAST("PAYMENT_3" AS TEXT)), '')`)
}

func TestReceivables(t *testing.T) {
	exec := &fakeExec{schemas: map[string][]string{"sales": fullSalesColumns}}
	exec.queue([]warehouse.Row{
		{"unit_no": "A-101", "customer_name": "R. Iyer", "cluster": "Willow", "unit_type": "3BHK",
			"source": "WEB", "sale_agreement_status": "SIGNED", "receivables": 900.25,
			"pending_demand": 100.0, "gross_amount_received": 400.0},
		{"unit_no": "B-204", "customer_name": "S. Rao", "cluster": "Fern", "unit_type": "2BHK",
			"source": "REFERRAL", "sale_agreement_status": "PENDING", "receivables": 600.75,
			"pending_demand": 0.0, "gross_amount_received": 150.0},
	}, nil)
	svc := newTestService(t, exec)

	resp, err := svc.Receivables(context.Background(), ReceivablesRequest{
		ReportRequest: rangeReq(nil), MinReceivable: 500, Limit: 10,
	})
	require.NoError(t, err)

	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "A-101", resp.Rows[0].UnitNo)
	assert.Equal(t, 900.25, resp.Rows[0].Receivables)
	assert.Equal(t, 1501.0, resp.TotalReceivablesInList, "sum covers the returned page only")

	queries := exec.executed()
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0].sql, "ORDER BY receivables DESC")
	assert.Contains(t, queries[0].sql, "LIMIT 10")
	assert.Contains(t, queries[0].args, 500.0)
}

func TestReceivablesMissingLoadBearingColumns(t *testing.T) {
	svc := newTestService(t, &fakeExec{schemas: map[string][]string{
		"sales": {"DATE", "CUSTOMER_NAME"},
	}})

	_, err := svc.Receivables(context.Background(), ReceivablesRequest{ReportRequest: rangeReq(nil)})
	assert.ErrorIs(t, err, httpx.ErrSchemaMismatch)
}

func TestReceivablesLimitClamped(t *testing.T) {
	exec := &fakeExec{schemas: map[string][]string{"sales": fullSalesColumns}}
	exec.queue(nil, nil)
	svc := newTestService(t, exec)

	_, err := svc.Receivables(context.Background(), ReceivablesRequest{
		ReportRequest: rangeReq(nil), MinReceivable: 1, Limit: 5000,
	})
	require.NoError(t, err)

	queries := exec.executed()
	require.Len(t, queries, 1)
	assert.Contains(t, queries[0].sql, "LIMIT 1000")
}

func TestBookingsWithPaymentsJoin(t *testing.T) {
	exec := &fakeExec{schemas: map[string][]string{
		"sales":    fullSalesColumns,
		"payments": {"DATE", "UNIT_NO", "PAYMENT_1", "PAYMENT_2"},
	}}
	exec.queue([]warehouse.Row{{
		"cluster": "Willow", "unit_no": "A-101", "customer_name": "R. Iyer", "source": "WEB",
		"approved_price": 90.0, "gross_price": 100.0,
		"payments_received_in_period": 25.0, "discount": 10.0,
	}}, nil)
	svc := newTestService(t, exec)

	resp, err := svc.Bookings(context.Background(), BookingsRequest{
		ReportRequest: rangeReq(nil), SoldOnly: true, Limit: 100,
	})
	require.NoError(t, err)

	require.Len(t, resp.Rows, 1)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, 10.0, resp.Rows[0].Discount)
	assert.Equal(t, 25.0, resp.Rows[0].PaymentsReceivedInPeriod)
	assert.Equal(t, true, resp.Filters["sold_only"])

	queries := exec.executed()
	require.Len(t, queries, 1)
	sql := queries[0].sql
	assert.Contains(t, sql, `UPPER(CAST("SOLD_UNSOLD_ID" AS TEXT)) = 'SOLD'`)
	assert.Contains(t, sql, "payments_agg")
	assert.Contains(t, sql, "LEFT JOIN payments_agg p ON UPPER(s.unit_no) = UPPER(p.unit_no)")
	assert.Contains(t, sql, "(s.gross_price - s.approved_price) AS discount")
	assert.Contains(t, sql, "ORDER BY approved_price DESC")
}

func TestBookingsWithoutPaymentColumns(t *testing.T) {
	exec := &fakeExec{schemas: map[string][]string{
		"sales":    fullSalesColumns,
		"payments": {"DATE", "UNIT_NO"},
	}}
	exec.queue([]warehouse.Row{{
		"cluster": "Fern", "unit_no": "B-204", "customer_name": "S. Rao", "source": "REFERRAL",
		"approved_price": 80.0, "gross_price": 80.0,
		"payments_received_in_period": 0.0, "discount": 0.0,
	}}, nil)
	svc := newTestService(t, exec)

	resp, err := svc.Bookings(context.Background(), BookingsRequest{
		ReportRequest: rangeReq(nil), SoldOnly: false,
	})
	require.NoError(t, err)
	assert.Equal(t, false, resp.Filters["sold_only"])

	queries := exec.executed()
	require.Len(t, queries, 1)
	sql := queries[0].sql
	assert.NotContains(t, sql, "payments_agg", "missing payment columns skip the join entirely")
	assert.Contains(t, sql, "CAST(0 AS NUMERIC) AS payments_received_in_period")
	assert.NotContains(t, sql, "= 'SOLD'")
	assert.Contains(t, sql, "LIMIT 200", "zero limit takes the default")
}

func TestBookingsSoldOnlyInertWithoutStatusColumn(t *testing.T) {
	cols := []string{"BOOKING_DATE", "UNIT_NO", "CUSTOMER_NAME", "Cluster", "SOURCE",
		"APPROVED_PRICE_INVENTORY_VALUE", "GROSS_SOLD_SALE_VALUE"}
	exec := &fakeExec{schemas: map[string][]string{
		"sales":    cols,
		"payments": {"DATE", "UNIT_NO"},
	}}
	exec.queue(nil, nil)
	svc := newTestService(t, exec)

	_, err := svc.Bookings(context.Background(), BookingsRequest{
		ReportRequest: rangeReq(nil), SoldOnly: true,
	})
	require.NoError(t, err)

	queries := exec.executed()
	require.Len(t, queries, 1)
	assert.NotContains(t, queries[0].sql, "'SOLD'", "sold_only is inert when no status column resolves")
}

func TestWarmSchema(t *testing.T) {
	exec := &fakeExec{schemas: map[string][]string{
		"sales":    fullSalesColumns,
		"payments": {"DATE", "UNIT_NO", "PAYMENT_1"},
	}}
	svc := newTestService(t, exec)
	require.NoError(t, svc.WarmSchema(context.Background()))

	missing := &fakeExec{schemas: map[string][]string{"sales": fullSalesColumns}}
	svc = newTestService(t, missing)
	assert.ErrorIs(t, svc.WarmSchema(context.Background()), httpx.ErrSchemaUnavailable)
}

func TestFilterKey(t *testing.T) {
	assert.Equal(t, "-", filterKey(nil))
	assert.Equal(t, "cluster=Willow;source=WEB", filterKey(Filters{"source": "WEB", "cluster": "Willow"}))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 200, clampLimit(0))
	assert.Equal(t, 1, clampLimit(-5))
	assert.Equal(t, 1000, clampLimit(4000))
	assert.Equal(t, 50, clampLimit(50))
}
