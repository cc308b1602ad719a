// Package soldmis implements the sold-MIS reporting operations: summary,
// breakdown, unit lookup, payments, receivables, and bookings over the sales
// and payments warehouse tables.
package soldmis

import "fmt"

// Candidate physical column lists per logical field. The same logical field is
// stored under different names across table versions; first match wins.
var (
	salesDateCandidates = []string{"BOOKING_DATE", "Booking Date", "DATE"}
	payDateCandidates   = []string{"DATE"}

	saleValueCandidates     = []string{"SALE_AGREEMENT", "SALE_VALUE", "APPROVED_PRICE_INVENTORY_VALUE"}
	grossSaleCandidates     = []string{"GROSS_SOLD_SALE_VALUE", "GROSS_SALE_VALUE_WITHOUT_GST"}
	perSftCandidates        = []string{"PER_SFT_PRICE"}
	approvedPriceCandidates = []string{"APPROVED_PRICE_INVENTORY_VALUE", "SALE_AGREEMENT", "SALE_VALUE", "SALE_PRICE"}
	grossPriceCandidates    = []string{"GROSS_SOLD_SALE_VALUE", "GROSS_SALE_VALUE_WITHOUT_GST", "LIST_PRICE"}

	unitCandidates          = []string{"UNIT_NO"}
	customerCandidates      = []string{"CUSTOMER_NAME"}
	clusterCandidates       = []string{"Cluster", "CLUSTER"}
	sourceCandidates        = []string{"SOURCE"}
	unitTypeCandidates      = []string{"UNIT_TYPE"}
	saleAgrStatusCandidates = []string{"SALE_AGREEMENT_STATUS"}
	loanStatusCandidates    = []string{"LOAN_STATUS"}

	receivablesCandidates   = []string{"RECEIVABLES"}
	pendingDemandCandidates = []string{"PENDING_DEMAND"}
	grossReceivedCandidates = []string{"GROSS_AMOUNT_RECEIVED"}
)

// paymentColumnCount is fixed by the sheet layout: PAYMENT_1..PAYMENT_20.
const paymentColumnCount = 20

func paymentColumn(i int) string {
	return fmt.Sprintf("PAYMENT_%d", i)
}

// groupDimension is one allowed breakdown axis.
type groupDimension struct {
	name       string
	candidates []string
}

var groupDimensions = []groupDimension{
	{name: "Cluster", candidates: clusterCandidates},
	{name: "UNIT_TYPE", candidates: unitTypeCandidates},
	{name: "SOURCE", candidates: sourceCandidates},
	{name: "SALE_AGREEMENT_STATUS", candidates: saleAgrStatusCandidates},
	{name: "LOAN_STATUS", candidates: loanStatusCandidates},
}

// GroupDimensionNames lists the allowed group_by values in declaration order.
func GroupDimensionNames() []string {
	names := make([]string, 0, len(groupDimensions))
	for _, dim := range groupDimensions {
		names = append(names, dim.name)
	}
	return names
}
