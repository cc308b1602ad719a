package soldmis

// SummaryTotals is the single aggregate row of the summary endpoint.
type SummaryTotals struct {
	Bookings            int64   `json:"bookings"`
	GrossSaleValue      float64 `json:"gross_sale_value"`
	SaleValue           float64 `json:"sale_value"`
	GrossAmountReceived float64 `json:"gross_amount_received"`
	PendingDemand       float64 `json:"pending_demand"`
	Receivables         float64 `json:"receivables"`
	AvgPerSftPrice      float64 `json:"avg_per_sft_price"`
}

// SummaryResponse echoes the resolved range and filters alongside the totals.
type SummaryResponse struct {
	From        string            `json:"from"`
	To          string            `json:"to"`
	Filters     map[string]string `json:"filters"`
	DateColUsed string            `json:"date_col_used"`
	Totals      SummaryTotals     `json:"totals"`
}

// BreakdownRow is one realized group, ordered by descending booking count.
type BreakdownRow struct {
	Key                 string  `json:"key"`
	Bookings            int64   `json:"bookings"`
	SaleValue           float64 `json:"sale_value"`
	GrossAmountReceived float64 `json:"gross_amount_received"`
	PendingDemand       float64 `json:"pending_demand"`
	Receivables         float64 `json:"receivables"`
}

// BreakdownResponse lists realized groups only; empty groups do not appear.
type BreakdownResponse struct {
	From        string            `json:"from"`
	To          string            `json:"to"`
	GroupBy     string            `json:"group_by"`
	Filters     map[string]string `json:"filters"`
	DateColUsed string            `json:"date_col_used"`
	Rows        []BreakdownRow    `json:"rows"`
}

// UnitResponse returns the first matching record with all stored columns.
type UnitResponse struct {
	UnitNo string         `json:"unit_no"`
	Record map[string]any `json:"record"`
}

// PaymentsTotals aggregates the present payment columns over the range.
type PaymentsTotals struct {
	PaymentsTotal     float64 `json:"payments_total"`
	UnitsWithPayments int64   `json:"units_with_payments"`
}

// PaymentIndexTotal is one indexed payment column's total. All twenty indices
// are always reported; absent columns carry a zero total.
type PaymentIndexTotal struct {
	PaymentIndex int     `json:"payment_index"`
	Total        float64 `json:"total"`
}

// PaymentsResponse carries the grand total plus the per-index breakdown.
type PaymentsResponse struct {
	From           string              `json:"from"`
	To             string              `json:"to"`
	Filters        map[string]string   `json:"filters"`
	DateColUsed    string              `json:"date_col_used"`
	Totals         PaymentsTotals      `json:"totals"`
	ByPaymentIndex []PaymentIndexTotal `json:"by_payment_index"`
}

// ReceivablesRow is one unit at or above the receivables threshold.
type ReceivablesRow struct {
	UnitNo              string  `json:"unit_no"`
	CustomerName        string  `json:"customer_name"`
	Cluster             string  `json:"cluster"`
	UnitType            string  `json:"unit_type"`
	Source              string  `json:"source"`
	SaleAgreementStatus string  `json:"sale_agreement_status"`
	Receivables         float64 `json:"receivables"`
	PendingDemand       float64 `json:"pending_demand"`
	GrossAmountReceived float64 `json:"gross_amount_received"`
}

// ReceivablesResponse lists qualifying rows. TotalReceivablesInList sums the
// returned (capped) page only, not the full population.
type ReceivablesResponse struct {
	From                   string            `json:"from"`
	To                     string            `json:"to"`
	Filters                map[string]string `json:"filters"`
	DateColUsed            string            `json:"date_col_used"`
	TotalReceivablesInList float64           `json:"total_receivables_in_list"`
	Rows                   []ReceivablesRow  `json:"rows"`
}

// BookingsRow is one sales row joined with its payments received in period.
type BookingsRow struct {
	Cluster                  string  `json:"cluster"`
	UnitNo                   string  `json:"unit_no"`
	CustomerName             string  `json:"customer_name"`
	Source                   string  `json:"source"`
	ApprovedPrice            float64 `json:"approved_price"`
	GrossPrice               float64 `json:"gross_price"`
	PaymentsReceivedInPeriod float64 `json:"payments_received_in_period"`
	Discount                 float64 `json:"discount"`
}

// BookingsResponse echoes sold_only alongside the regular filters.
type BookingsResponse struct {
	From        string         `json:"from"`
	To          string         `json:"to"`
	Filters     map[string]any `json:"filters"`
	DateColUsed string         `json:"date_col_used"`
	Count       int            `json:"count"`
	Rows        []BookingsRow  `json:"rows"`
}
