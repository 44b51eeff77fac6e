package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterAndSortDefaultOrder(t *testing.T) {
	out := FilterAndSort(testInvoices(), ListQuery{}, testNow)

	require.Len(t, out, 3)
	// Due-date ascending by default.
	assert.Equal(t, []string{"10", "12", "11"}, ids(out))
}

func TestFilterAndSortBySearchTerm(t *testing.T) {
	out := FilterAndSort(testInvoices(), ListQuery{Search: "condominio"}, testNow)

	require.Len(t, out, 2)
	for _, inv := range out {
		assert.Equal(t, "Condominio", inv.Supplier)
	}

	out = FilterAndSort(testInvoices(), ListQuery{Search: "F-0010"}, testNow)
	require.Len(t, out, 1)
	assert.Equal(t, "10", out[0].ID)

	out = FilterAndSort(testInvoices(), ListQuery{Search: "extraordinaria"}, testNow)
	require.Len(t, out, 1)
	assert.Equal(t, "12", out[0].ID)
}

func TestFilterAndSortByStatus(t *testing.T) {
	out := FilterAndSort(testInvoices(), ListQuery{Status: StatusOverdue}, testNow)
	assert.Equal(t, []string{"10", "12"}, ids(out))

	out = FilterAndSort(testInvoices(), ListQuery{Status: StatusPending}, testNow)
	assert.Equal(t, []string{"11"}, ids(out))
}

func TestFilterAndSortByAmountDesc(t *testing.T) {
	out := FilterAndSort(testInvoices(), ListQuery{SortBy: SortByAmount, SortOrder: OrderDesc}, testNow)
	assert.Equal(t, []string{"10", "11", "12"}, ids(out))
}

func TestFilterAndSortBySupplier(t *testing.T) {
	out := FilterAndSort(testInvoices(), ListQuery{SortBy: SortBySupplier}, testNow)
	assert.Equal(t, "Aguas del Este", out[0].Supplier)
}

func TestFilterAndSortStableOnEqualKeys(t *testing.T) {
	invoices := []Invoice{
		{ID: "1", Amount: 10, DueDate: "2025-06-01"},
		{ID: "2", Amount: 10, DueDate: "2025-06-01"},
		{ID: "3", Amount: 10, DueDate: "2025-06-01"},
	}

	out := FilterAndSort(invoices, ListQuery{SortBy: SortByAmount, SortOrder: OrderDesc}, testNow)
	assert.Equal(t, []string{"1", "2", "3"}, ids(out))
}

func TestFilterAndSortDoesNotMutateInput(t *testing.T) {
	invoices := testInvoices()
	_ = FilterAndSort(invoices, ListQuery{SortBy: SortByAmount, SortOrder: OrderDesc}, testNow)
	assert.Equal(t, []string{"10", "11", "12"}, ids(invoices))
}

func ids(invoices []Invoice) []string {
	out := make([]string, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, inv.ID)
	}
	return out
}
