package soldmis

import (
	"context"
	"fmt"

	"github.com/forestscape/soldmis/internal/warehouse"
)

// Filters maps recognized logical filter names to the caller-supplied values.
type Filters map[string]string

type filterSpec struct {
	param      string
	candidates []string
}

var filterSpecs = []filterSpec{
	{param: "cluster", candidates: clusterCandidates},
	{param: "source", candidates: sourceCandidates},
	{param: "unit_type", candidates: unitTypeCandidates},
	{param: "sale_agreement_status", candidates: saleAgrStatusCandidates},
	{param: "loan_status", candidates: loanStatusCandidates},
	{param: "unit_no", candidates: unitCandidates},
}

// FilterParams lists the recognized filter parameter names in a stable order.
func FilterParams() []string {
	params := make([]string, 0, len(filterSpecs))
	for _, spec := range filterSpecs {
		params = append(params, spec.param)
	}
	return params
}

// filterPredicates turns the requested filters into equality predicates
// against table. A filter is applied only when one of its candidate columns
// exists; every requested filter is echoed regardless, so callers can detect
// filters that were silently ignored. Matches are case-insensitive and exact;
// values are bound through bind, never interpolated.
func filterPredicates(ctx context.Context, schema *warehouse.SchemaCache, table string, filters Filters, bind func(any) string) ([]string, map[string]string, error) {
	echo := make(map[string]string)
	var predicates []string
	for _, spec := range filterSpecs {
		value := filters[spec.param]
		if value == "" {
			continue
		}
		echo[spec.param] = value
		column, ok, err := schema.Pick(ctx, table, spec.candidates...)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}
		predicates = append(predicates, fmt.Sprintf(
			"UPPER(CAST(%s AS TEXT)) = UPPER(%s)",
			warehouse.QuoteIdent(column), bind(value),
		))
	}
	return predicates, echo, nil
}
