package soldmis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/forestscape/soldmis/internal/platform/httpx"
	"github.com/forestscape/soldmis/internal/warehouse"
)

// perIndexConcurrency bounds the payments fan-out so one request cannot
// monopolize the pool.
const perIndexConcurrency = 4

// Options carries the table and column configuration for the reporting service.
type Options struct {
	SalesTable        string
	PaymentsTable     string
	DefaultDateColumn string
	// SoldStatusColumns is the ordered candidate list for the sold/unsold
	// status column; it is configuration, not a hard-coded guess, because the
	// deployments disagree on its name.
	SoldStatusColumns []string
}

// Service executes the sold-MIS reporting operations against the warehouse.
type Service struct {
	exec     warehouse.Executor
	schema   *warehouse.SchemaCache
	cache    *Cache
	logger   *slog.Logger
	validate *validator.Validate
	opts     Options
}

// NewService wires the executor, schema cache, and optional response cache.
func NewService(exec warehouse.Executor, schema *warehouse.SchemaCache, cache *Cache, logger *slog.Logger, opts Options) *Service {
	return &Service{
		exec:     exec,
		schema:   schema,
		cache:    cache,
		logger:   logger,
		validate: validator.New(),
		opts:     opts,
	}
}

// WarmSchema resolves both tables once so catalog misconfiguration surfaces at
// startup, and warns when sold_only would be inert because no sold-status
// candidate resolves.
func (s *Service) WarmSchema(ctx context.Context) error {
	if _, err := s.schema.Columns(ctx, s.opts.SalesTable); err != nil {
		return err
	}
	if _, err := s.schema.Columns(ctx, s.opts.PaymentsTable); err != nil {
		return err
	}
	_, ok, err := s.schema.Pick(ctx, s.opts.SalesTable, s.opts.SoldStatusColumns...)
	if err != nil {
		return err
	}
	if !ok && s.logger != nil {
		s.logger.Warn("no sold-status column detected; sold_only will have no effect",
			slog.String("table", s.opts.SalesTable),
			slog.String("candidates", strings.Join(s.opts.SoldStatusColumns, ",")),
		)
	}
	return nil
}

// Summary returns the single aggregate row over the sales table.
func (s *Service) Summary(ctx context.Context, req ReportRequest) (*SummaryResponse, error) {
	if err := s.requireRange(req); err != nil {
		return nil, err
	}
	table := s.opts.SalesTable

	dateCol, err := s.dateColumn(ctx, table, salesDateCandidates)
	if err != nil {
		return nil, err
	}
	saleValue, err := s.numericField(ctx, table, saleValueCandidates...)
	if err != nil {
		return nil, err
	}
	grossSale, err := s.numericField(ctx, table, grossSaleCandidates...)
	if err != nil {
		return nil, err
	}
	received, err := s.numericField(ctx, table, grossReceivedCandidates...)
	if err != nil {
		return nil, err
	}
	pending, err := s.numericField(ctx, table, pendingDemandCandidates...)
	if err != nil {
		return nil, err
	}
	receivables, err := s.numericField(ctx, table, receivablesCandidates...)
	if err != nil {
		return nil, err
	}
	perSft, err := s.numericField(ctx, table, perSftCandidates...)
	if err != nil {
		return nil, err
	}

	b := warehouse.NewSelect(s.schema.Table(table))
	b.Column("COUNT(1)", "bookings")
	b.Column(grossSale.Sum(), "gross_sale_value")
	b.Column(saleValue.Sum(), "sale_value")
	b.Column(received.Sum(), "gross_amount_received")
	b.Column(pending.Sum(), "pending_demand")
	b.Column(receivables.Sum(), "receivables")
	b.Column(perSft.Avg(), "avg_per_sft_price")
	b.Where(s.dateRange(b, dateCol, req))

	echo, err := s.applyFilters(ctx, table, req.Filters, b)
	if err != nil {
		return nil, err
	}

	key, err := s.cacheKey(ctx, "summary", req.From, req.To, filterKey(req.Filters))
	if err != nil {
		return nil, err
	}
	var out SummaryResponse
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		rows, err := s.exec.Query(ctx, b.SQL(), b.Args())
		if err != nil {
			return nil, err
		}
		resp := SummaryResponse{From: req.From, To: req.To, Filters: echo, DateColUsed: dateCol}
		if len(rows) > 0 {
			row := rows[0]
			resp.Totals = SummaryTotals{
				Bookings:            warehouse.Int(row["bookings"]),
				GrossSaleValue:      warehouse.Float(row["gross_sale_value"]),
				SaleValue:           warehouse.Float(row["sale_value"]),
				GrossAmountReceived: warehouse.Float(row["gross_amount_received"]),
				PendingDemand:       warehouse.Float(row["pending_demand"]),
				Receivables:         warehouse.Float(row["receivables"]),
				AvgPerSftPrice:      warehouse.Float(row["avg_per_sft_price"]),
			}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Breakdown groups bookings by one of the allowed categorical dimensions.
func (s *Service) Breakdown(ctx context.Context, req BreakdownRequest) (*BreakdownResponse, error) {
	if err := s.requireRange(req.ReportRequest); err != nil {
		return nil, err
	}
	table := s.opts.SalesTable

	var dim *groupDimension
	for i := range groupDimensions {
		if groupDimensions[i].name == req.GroupBy {
			dim = &groupDimensions[i]
			break
		}
	}
	if dim == nil {
		return nil, fmt.Errorf("%w: group_by must be one of %s",
			httpx.ErrInvalidParameter, strings.Join(GroupDimensionNames(), ", "))
	}

	dateCol, err := s.dateColumn(ctx, table, salesDateCandidates)
	if err != nil {
		return nil, err
	}
	groupCol, ok, err := s.schema.Pick(ctx, table, dim.candidates...)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no column for group_by=%s in table %s",
			httpx.ErrSchemaMismatch, dim.name, table)
	}
	saleValue, err := s.numericField(ctx, table, saleValueCandidates...)
	if err != nil {
		return nil, err
	}
	received, err := s.numericField(ctx, table, grossReceivedCandidates...)
	if err != nil {
		return nil, err
	}
	pending, err := s.numericField(ctx, table, pendingDemandCandidates...)
	if err != nil {
		return nil, err
	}
	receivables, err := s.numericField(ctx, table, receivablesCandidates...)
	if err != nil {
		return nil, err
	}

	b := warehouse.NewSelect(s.schema.Table(table))
	b.Column(fmt.Sprintf("COALESCE(CAST(%s AS TEXT), 'UNKNOWN')", warehouse.QuoteIdent(groupCol)), "key")
	b.Column("COUNT(1)", "bookings")
	b.Column(saleValue.Sum(), "sale_value")
	b.Column(received.Sum(), "gross_amount_received")
	b.Column(pending.Sum(), "pending_demand")
	b.Column(receivables.Sum(), "receivables")
	b.Where(s.dateRange(b, dateCol, req.ReportRequest))

	echo, err := s.applyFilters(ctx, table, req.Filters, b)
	if err != nil {
		return nil, err
	}
	b.GroupBy("key")
	b.OrderBy("bookings DESC")

	key, err := s.cacheKey(ctx, "breakdown", req.GroupBy, req.From, req.To, filterKey(req.Filters))
	if err != nil {
		return nil, err
	}
	var out BreakdownResponse
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		rows, err := s.exec.Query(ctx, b.SQL(), b.Args())
		if err != nil {
			return nil, err
		}
		resp := BreakdownResponse{
			From: req.From, To: req.To, GroupBy: req.GroupBy,
			Filters: echo, DateColUsed: dateCol,
			Rows: make([]BreakdownRow, 0, len(rows)),
		}
		for _, row := range rows {
			resp.Rows = append(resp.Rows, BreakdownRow{
				Key:                 warehouse.String(row["key"]),
				Bookings:            warehouse.Int(row["bookings"]),
				SaleValue:           warehouse.Float(row["sale_value"]),
				GrossAmountReceived: warehouse.Float(row["gross_amount_received"]),
				PendingDemand:       warehouse.Float(row["pending_demand"]),
				Receivables:         warehouse.Float(row["receivables"]),
			})
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Unit returns the first record matching the unit number, with all stored
// columns. The unit column is load-bearing: its absence is a schema mismatch,
// not a silent empty result.
func (s *Service) Unit(ctx context.Context, req UnitRequest) (*UnitResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: unit_no query param is required", httpx.ErrMissingParameter)
	}
	table := s.opts.SalesTable

	unitCol, ok, err := s.schema.Pick(ctx, table, unitCandidates...)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: UNIT_NO not found in table %s", httpx.ErrSchemaMismatch, table)
	}

	b := warehouse.NewSelect(s.schema.Table(table))
	b.ColumnRaw("*")
	b.Where(fmt.Sprintf("UPPER(CAST(%s AS TEXT)) = UPPER(%s)", warehouse.QuoteIdent(unitCol), b.Bind(req.UnitNo)))
	b.Limit(50)

	rows, err := s.exec.Query(ctx, b.SQL(), b.Args())
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: unit %s", httpx.ErrNotFound, req.UnitNo)
	}

	record := make(map[string]any, len(rows[0]))
	for name, value := range rows[0] {
		record[name] = warehouse.JSONValue(value)
	}
	return &UnitResponse{UnitNo: req.UnitNo, Record: record}, nil
}

// Payments sums the indexed payment columns over the range, both as a grand
// total and per index. All twenty indices are always reported; absent columns
// carry zero totals without issuing a query.
func (s *Service) Payments(ctx context.Context, req ReportRequest) (*PaymentsResponse, error) {
	if err := s.requireRange(req); err != nil {
		return nil, err
	}
	table := s.opts.PaymentsTable

	dateCol, err := s.dateColumn(ctx, table, payDateCandidates)
	if err != nil {
		return nil, err
	}
	unitCol, ok, err := s.schema.Pick(ctx, table, unitCandidates...)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: UNIT_NO not found in table %s", httpx.ErrSchemaMismatch, table)
	}

	present := make(map[int]string, paymentColumnCount)
	for i := 1; i <= paymentColumnCount; i++ {
		col, ok, err := s.schema.Pick(ctx, table, paymentColumn(i))
		if err != nil {
			return nil, err
		}
		if ok {
			present[i] = col
		}
	}

	baseQuery := func() (*warehouse.SelectBuilder, map[string]string, error) {
		b := warehouse.NewSelect(s.schema.Table(table))
		b.Where(s.dateRange(b, dateCol, req))
		echo, err := s.applyFilters(ctx, table, req.Filters, b)
		if err != nil {
			return nil, nil, err
		}
		return b, echo, nil
	}

	totalsBuilder, echo, err := baseQuery()
	if err != nil {
		return nil, err
	}
	var sumExpr string
	if len(present) > 0 {
		terms := make([]string, 0, len(present))
		for i := 1; i <= paymentColumnCount; i++ {
			if col, ok := present[i]; ok {
				terms = append(terms, warehouse.ResolvedNumeric(col).Zero())
			}
		}
		sumExpr = strings.Join(terms, " + ")
		totalsBuilder.Column(fmt.Sprintf("SUM(%s)", sumExpr), "payments_total")
		totalsBuilder.Column(fmt.Sprintf(
			"COUNT(DISTINCT CASE WHEN (%s) > 0 THEN CAST(%s AS TEXT) END)",
			sumExpr, warehouse.QuoteIdent(unitCol),
		), "units_with_payments")
	}

	key, err := s.cacheKey(ctx, "payments", req.From, req.To, filterKey(req.Filters))
	if err != nil {
		return nil, err
	}
	var out PaymentsResponse
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		resp := PaymentsResponse{From: req.From, To: req.To, Filters: echo, DateColUsed: dateCol}

		if len(present) > 0 {
			rows, err := s.exec.Query(ctx, totalsBuilder.SQL(), totalsBuilder.Args())
			if err != nil {
				return nil, err
			}
			if len(rows) > 0 {
				resp.Totals = PaymentsTotals{
					PaymentsTotal:     warehouse.Float(rows[0]["payments_total"]),
					UnitsWithPayments: warehouse.Int(rows[0]["units_with_payments"]),
				}
			}
		}

		var indexTotals [paymentColumnCount]float64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(perIndexConcurrency)
		for i := 1; i <= paymentColumnCount; i++ {
			col, ok := present[i]
			if !ok {
				continue
			}
			idx := i
			g.Go(func() error {
				b, _, err := baseQuery()
				if err != nil {
					return err
				}
				b.Column(warehouse.ResolvedNumeric(col).Sum(), "total")
				rows, err := s.exec.Query(gctx, b.SQL(), b.Args())
				if err != nil {
					return err
				}
				if len(rows) > 0 {
					indexTotals[idx-1] = warehouse.Float(rows[0]["total"])
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		resp.ByPaymentIndex = make([]PaymentIndexTotal, 0, paymentColumnCount)
		for i := 1; i <= paymentColumnCount; i++ {
			resp.ByPaymentIndex = append(resp.ByPaymentIndex, PaymentIndexTotal{
				PaymentIndex: i,
				Total:        indexTotals[i-1],
			})
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Receivables lists units at or above the receivables threshold, ordered by
// descending receivables, capped at the requested limit.
func (s *Service) Receivables(ctx context.Context, req ReceivablesRequest) (*ReceivablesResponse, error) {
	if err := s.requireRange(req.ReportRequest); err != nil {
		return nil, err
	}
	table := s.opts.SalesTable
	limit := clampLimit(req.Limit)

	dateCol, err := s.dateColumn(ctx, table, salesDateCandidates)
	if err != nil {
		return nil, err
	}
	unitCol, unitOK, err := s.schema.Pick(ctx, table, unitCandidates...)
	if err != nil {
		return nil, err
	}
	recvCol, recvOK, err := s.schema.Pick(ctx, table, receivablesCandidates...)
	if err != nil {
		return nil, err
	}
	if !unitOK || !recvOK {
		return nil, fmt.Errorf("%w: UNIT_NO/RECEIVABLES missing in table %s", httpx.ErrSchemaMismatch, table)
	}
	customer, err := s.textField(ctx, table, customerCandidates...)
	if err != nil {
		return nil, err
	}
	cluster, err := s.textField(ctx, table, clusterCandidates...)
	if err != nil {
		return nil, err
	}
	unitType, err := s.textField(ctx, table, unitTypeCandidates...)
	if err != nil {
		return nil, err
	}
	source, err := s.textField(ctx, table, sourceCandidates...)
	if err != nil {
		return nil, err
	}
	saStatus, err := s.textField(ctx, table, saleAgrStatusCandidates...)
	if err != nil {
		return nil, err
	}
	pending, err := s.numericField(ctx, table, pendingDemandCandidates...)
	if err != nil {
		return nil, err
	}
	received, err := s.numericField(ctx, table, grossReceivedCandidates...)
	if err != nil {
		return nil, err
	}
	recv := warehouse.ResolvedNumeric(recvCol)

	b := warehouse.NewSelect(s.schema.Table(table))
	b.Column(fmt.Sprintf("CAST(%s AS TEXT)", warehouse.QuoteIdent(unitCol)), "unit_no")
	b.Column(customer.SQL(), "customer_name")
	b.Column(cluster.SQL(), "cluster")
	b.Column(unitType.SQL(), "unit_type")
	b.Column(source.SQL(), "source")
	b.Column(saStatus.SQL(), "sale_agreement_status")
	b.Column(recv.Zero(), "receivables")
	b.Column(pending.Zero(), "pending_demand")
	b.Column(received.Zero(), "gross_amount_received")
	b.Where(s.dateRange(b, dateCol, req.ReportRequest))
	b.Where(fmt.Sprintf("%s >= %s", recv.Zero(), b.Bind(req.MinReceivable)))

	echo, err := s.applyFilters(ctx, table, req.Filters, b)
	if err != nil {
		return nil, err
	}
	b.OrderBy("receivables DESC")
	b.Limit(limit)

	key, err := s.cacheKey(ctx, "receivables", req.From, req.To,
		strconv.FormatFloat(req.MinReceivable, 'f', -1, 64), strconv.Itoa(limit), filterKey(req.Filters))
	if err != nil {
		return nil, err
	}
	var out ReceivablesResponse
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		rows, err := s.exec.Query(ctx, b.SQL(), b.Args())
		if err != nil {
			return nil, err
		}
		resp := ReceivablesResponse{
			From: req.From, To: req.To, Filters: echo, DateColUsed: dateCol,
			Rows: make([]ReceivablesRow, 0, len(rows)),
		}
		pageTotal := decimal.Zero
		for _, row := range rows {
			pageTotal = pageTotal.Add(warehouse.Decimal(row["receivables"]))
			resp.Rows = append(resp.Rows, ReceivablesRow{
				UnitNo:              warehouse.String(row["unit_no"]),
				CustomerName:        warehouse.String(row["customer_name"]),
				Cluster:             warehouse.String(row["cluster"]),
				UnitType:            warehouse.String(row["unit_type"]),
				Source:              warehouse.String(row["source"]),
				SaleAgreementStatus: warehouse.String(row["sale_agreement_status"]),
				Receivables:         warehouse.Float(row["receivables"]),
				PendingDemand:       warehouse.Float(row["pending_demand"]),
				GrossAmountReceived: warehouse.Float(row["gross_amount_received"]),
			})
		}
		// Page-local sum over the returned rows only.
		resp.TotalReceivablesInList = pageTotal.InexactFloat64()
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Bookings joins a per-unit payments-in-period aggregate onto the sales rows
// and derives the discount as gross price minus approved price.
func (s *Service) Bookings(ctx context.Context, req BookingsRequest) (*BookingsResponse, error) {
	if err := s.requireRange(req.ReportRequest); err != nil {
		return nil, err
	}
	sales := s.opts.SalesTable
	payments := s.opts.PaymentsTable
	limit := clampLimit(req.Limit)

	dateCol, err := s.dateColumn(ctx, sales, salesDateCandidates)
	if err != nil {
		return nil, err
	}
	unitCol, ok, err := s.schema.Pick(ctx, sales, unitCandidates...)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: UNIT_NO missing in table %s", httpx.ErrSchemaMismatch, sales)
	}
	soldCol, soldOK, err := s.schema.Pick(ctx, sales, s.opts.SoldStatusColumns...)
	if err != nil {
		return nil, err
	}
	approved, err := s.numericField(ctx, sales, approvedPriceCandidates...)
	if err != nil {
		return nil, err
	}
	gross, err := s.numericField(ctx, sales, grossPriceCandidates...)
	if err != nil {
		return nil, err
	}
	customer, err := s.textField(ctx, sales, customerCandidates...)
	if err != nil {
		return nil, err
	}
	cluster, err := s.textField(ctx, sales, clusterCandidates...)
	if err != nil {
		return nil, err
	}
	source, err := s.textField(ctx, sales, sourceCandidates...)
	if err != nil {
		return nil, err
	}

	payDateCol, payDateOK, err := s.schema.Pick(ctx, payments, payDateCandidates...)
	if err != nil {
		return nil, err
	}
	payUnitCol, payUnitOK, err := s.schema.Pick(ctx, payments, unitCandidates...)
	if err != nil {
		return nil, err
	}
	presentPay := make([]string, 0, paymentColumnCount)
	for i := 1; i <= paymentColumnCount; i++ {
		col, ok, err := s.schema.Pick(ctx, payments, paymentColumn(i))
		if err != nil {
			return nil, err
		}
		if ok {
			presentPay = append(presentPay, col)
		}
	}
	canJoin := payDateOK && payUnitOK && len(presentPay) > 0

	b := warehouse.NewSelect("sales_rows s")
	fromArg := b.Bind(req.From)
	toArg := b.Bind(req.To)

	salesWhere := []string{fmt.Sprintf("%s BETWEEN %s AND %s", warehouse.QuoteIdent(dateCol), fromArg, toArg)}
	if req.SoldOnly && soldOK {
		salesWhere = append(salesWhere, fmt.Sprintf("UPPER(CAST(%s AS TEXT)) = 'SOLD'", warehouse.QuoteIdent(soldCol)))
	}
	predicates, echo, err := filterPredicates(ctx, s.schema, sales, req.Filters, b.Bind)
	if err != nil {
		return nil, err
	}
	salesWhere = append(salesWhere, predicates...)

	salesCols := []string{
		fmt.Sprintf("%s AS cluster", cluster.SQL()),
		fmt.Sprintf("CAST(%s AS TEXT) AS unit_no", warehouse.QuoteIdent(unitCol)),
		fmt.Sprintf("%s AS customer_name", customer.SQL()),
		fmt.Sprintf("%s AS source", source.SQL()),
		fmt.Sprintf("%s AS approved_price", approved.Zero()),
		fmt.Sprintf("%s AS gross_price", gross.Zero()),
	}
	b.With("sales_rows", fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(salesCols, ", "), s.schema.Table(sales), strings.Join(salesWhere, " AND ")))

	paymentsSelect := "CAST(0 AS NUMERIC)"
	if canJoin {
		terms := make([]string, 0, len(presentPay))
		for _, col := range presentPay {
			terms = append(terms, warehouse.ResolvedNumeric(col).Zero())
		}
		b.With("payments_agg", fmt.Sprintf(
			"SELECT CAST(%s AS TEXT) AS unit_no, SUM(%s) AS paid FROM %s WHERE %s BETWEEN %s AND %s GROUP BY unit_no",
			warehouse.QuoteIdent(payUnitCol), strings.Join(terms, " + "),
			s.schema.Table(payments), warehouse.QuoteIdent(payDateCol), fromArg, toArg))
		b.Join("LEFT JOIN payments_agg p ON UPPER(s.unit_no) = UPPER(p.unit_no)")
		paymentsSelect = "COALESCE(p.paid, 0)"
	}

	b.ColumnRaw("s.*")
	b.Column(paymentsSelect, "payments_received_in_period")
	b.Column("(s.gross_price - s.approved_price)", "discount")
	b.OrderBy("approved_price DESC")
	b.Limit(limit)

	key, err := s.cacheKey(ctx, "bookings", req.From, req.To,
		strconv.FormatBool(req.SoldOnly), strconv.Itoa(limit), filterKey(req.Filters))
	if err != nil {
		return nil, err
	}
	var out BookingsResponse
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		rows, err := s.exec.Query(ctx, b.SQL(), b.Args())
		if err != nil {
			return nil, err
		}
		resp := BookingsResponse{
			From: req.From, To: req.To, DateColUsed: dateCol,
			Filters: map[string]any{"sold_only": req.SoldOnly},
			Rows:    make([]BookingsRow, 0, len(rows)),
		}
		for name, value := range echo {
			resp.Filters[name] = value
		}
		for _, row := range rows {
			resp.Rows = append(resp.Rows, BookingsRow{
				Cluster:                  warehouse.String(row["cluster"]),
				UnitNo:                   warehouse.String(row["unit_no"]),
				CustomerName:             warehouse.String(row["customer_name"]),
				Source:                   warehouse.String(row["source"]),
				ApprovedPrice:            warehouse.Float(row["approved_price"]),
				GrossPrice:               warehouse.Float(row["gross_price"]),
				PaymentsReceivedInPeriod: warehouse.Float(row["payments_received_in_period"]),
				Discount:                 warehouse.Float(row["discount"]),
			})
		}
		resp.Count = len(resp.Rows)
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) requireRange(req ReportRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: from and to (YYYY-MM-DD) query params are required", httpx.ErrMissingParameter)
	}
	return nil
}

// dateRange renders the mandatory inclusive date predicate with bound values.
func (s *Service) dateRange(b *warehouse.SelectBuilder, dateCol string, req ReportRequest) string {
	return fmt.Sprintf("%s BETWEEN %s AND %s", warehouse.QuoteIdent(dateCol), b.Bind(req.From), b.Bind(req.To))
}

// dateColumn resolves the date column, appending the configured default as the
// last candidate. No match is a schema mismatch: the date predicate is
// load-bearing on every endpoint.
func (s *Service) dateColumn(ctx context.Context, table string, candidates []string) (string, error) {
	list := append(append([]string{}, candidates...), s.opts.DefaultDateColumn)
	col, ok, err := s.schema.Pick(ctx, table, list...)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: no date column among %s in table %s",
			httpx.ErrSchemaMismatch, strings.Join(list, ", "), table)
	}
	return col, nil
}

func (s *Service) numericField(ctx context.Context, table string, candidates ...string) (warehouse.NumericExpr, error) {
	col, ok, err := s.schema.Pick(ctx, table, candidates...)
	if err != nil {
		return warehouse.AbsentNumeric(), err
	}
	if !ok {
		return warehouse.AbsentNumeric(), nil
	}
	return warehouse.ResolvedNumeric(col), nil
}

func (s *Service) textField(ctx context.Context, table string, candidates ...string) (warehouse.TextExpr, error) {
	col, ok, err := s.schema.Pick(ctx, table, candidates...)
	if err != nil {
		return warehouse.AbsentText(), err
	}
	if !ok {
		return warehouse.AbsentText(), nil
	}
	return warehouse.ResolvedText(col), nil
}

func (s *Service) applyFilters(ctx context.Context, table string, filters Filters, b *warehouse.SelectBuilder) (map[string]string, error) {
	predicates, echo, err := filterPredicates(ctx, s.schema, table, filters, b.Bind)
	if err != nil {
		return nil, err
	}
	for _, predicate := range predicates {
		b.Where(predicate)
	}
	return echo, nil
}

func (s *Service) cacheKey(ctx context.Context, parts ...string) (string, error) {
	all := append([]string{"soldmis"}, parts...)
	return s.cache.BuildKey(ctx, all...)
}

// filterKey renders the requested filters deterministically for cache keys.
func filterKey(filters Filters) string {
	if len(filters) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(filters))
	for name := range filters {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, name := range keys {
		pairs = append(pairs, name+"="+filters[name])
	}
	return strings.Join(pairs, ";")
}
