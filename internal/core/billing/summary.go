package billing

import "time"

// PaymentSummary is the derived view over the selected invoices.
// Invariants: OverdueCount+PendingCount == len(SelectedInvoices) and
// TotalAmount == sum of the selected amounts.
type PaymentSummary struct {
	SelectedInvoices []Invoice `json:"selectedInvoices"`
	TotalAmount      float64   `json:"totalAmount"`
	OverdueCount     int       `json:"overdueCount"`
	PendingCount     int       `json:"pendingCount"`
}

// Summarize recomputes the payment summary from scratch. Selected invoices
// keep the order of the underlying invoice list, not selection order.
func Summarize(invoices []Invoice, selected map[string]bool, now time.Time) PaymentSummary {
	summary := PaymentSummary{SelectedInvoices: []Invoice{}}
	for _, inv := range invoices {
		if !selected[inv.ID] {
			continue
		}
		summary.SelectedInvoices = append(summary.SelectedInvoices, inv)
		summary.TotalAmount += inv.Amount
		if inv.Status(now) == StatusOverdue {
			summary.OverdueCount++
		} else {
			summary.PendingCount++
		}
	}
	return summary
}
