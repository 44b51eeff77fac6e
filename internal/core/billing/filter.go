package billing

import (
	"sort"
	"strings"
	"time"
)

// Sort criteria for invoice listings.
const (
	SortByDueDate  = "dueDate"
	SortByAmount   = "amount"
	SortBySupplier = "supplier"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListQuery holds the search/filter/sort criteria for an invoice listing.
// Zero values mean "no restriction" (and due-date ascending order).
type ListQuery struct {
	Search    string
	Status    string // overdue | pending | ""
	SortBy    string // dueDate | amount | supplier
	SortOrder string // asc | desc
}

// FilterAndSort derives a filtered, sorted view of the invoice list. The
// input slice is never mutated and the result is always a fresh slice.
func FilterAndSort(invoices []Invoice, q ListQuery, now time.Time) []Invoice {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	filtered := make([]Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if search != "" &&
			!strings.Contains(strings.ToLower(inv.InvoiceNumber), search) &&
			!strings.Contains(strings.ToLower(inv.Supplier), search) &&
			!strings.Contains(strings.ToLower(inv.Description), search) {
			continue
		}
		if q.Status != "" && inv.Status(now) != q.Status {
			continue
		}
		filtered = append(filtered, inv)
	}

	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = SortByDueDate
	}
	desc := q.SortOrder == OrderDesc

	sort.SliceStable(filtered, func(a, b int) bool {
		var less bool
		switch sortBy {
		case SortByAmount:
			less = filtered[a].Amount < filtered[b].Amount
		case SortBySupplier:
			less = strings.ToLower(filtered[a].Supplier) < strings.ToLower(filtered[b].Supplier)
		default:
			less = filtered[a].Due().Before(filtered[b].Due())
		}
		if desc {
			return !less && !equalKey(filtered[a], filtered[b], sortBy)
		}
		return less
	})

	return filtered
}

func equalKey(a, b Invoice, sortBy string) bool {
	switch sortBy {
	case SortByAmount:
		return a.Amount == b.Amount
	case SortBySupplier:
		return strings.EqualFold(a.Supplier, b.Supplier)
	default:
		return a.Due().Equal(b.Due())
	}
}
