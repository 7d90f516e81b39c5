// Package projection filters, searches, sorts and summarises exhibit
// collections. Every function works on copies; inputs are never reordered.
package projection

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"exhibitcore/pkg/domain"
)

// Field names a sortable exhibit attribute.
type Field string

// Sortable fields use the exhibit JSON names.
const (
	FieldDateReceived     Field = "dateReceived"
	FieldSerialNumber     Field = "serialNumber"
	FieldStation          Field = "station"
	FieldCollectionStatus Field = "collectionStatus"
)

// Order is the sort direction.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Sort selects the ordering of a projection.
type Sort struct {
	Field Field
	Order Order
}

// DefaultSort lists the most recently received exhibits first.
func DefaultSort() Sort {
	return Sort{Field: FieldDateReceived, Order: OrderDesc}
}

// Filter narrows a collection. Zero values match everything.
type Filter struct {
	// Search is matched case-insensitively as a substring of the serial,
	// accused, officers, examiner and station. Descriptions are not searched.
	Search           string
	CollectionStatus *domain.CollectionStatus
	Remarks          *domain.Remarks
	// Station matches the whole station name, ignoring case.
	Station string
}

// Query combines a filter with a sort.
type Query struct {
	Filter Filter
	Sort   Sort
}

// Stats summarises a collection.
type Stats struct {
	Total       int `json:"total"`
	Collected   int `json:"collected"`
	Pending     int `json:"pending"`
	Exploited   int `json:"exploited"`
	Unexploited int `json:"unexploited"`
}

// Apply filters then sorts exhibits into a new slice of deep copies.
func Apply(exhibits []domain.Exhibit, q Query) []domain.Exhibit {
	out := FilterExhibits(exhibits, q.Filter)
	SortExhibits(out, q.Sort)
	return out
}

// FilterExhibits returns deep copies of the exhibits matching f, in input order.
func FilterExhibits(exhibits []domain.Exhibit, f Filter) []domain.Exhibit {
	// a Caser carries state and is not safe for concurrent use
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(f.Search))
	station := fold.String(strings.TrimSpace(f.Station))
	out := make([]domain.Exhibit, 0, len(exhibits))
	for i := range exhibits {
		e := &exhibits[i]
		if f.CollectionStatus != nil && e.CollectionStatus != *f.CollectionStatus {
			continue
		}
		if f.Remarks != nil && e.Remarks != *f.Remarks {
			continue
		}
		if station != "" && fold.String(e.Station) != station {
			continue
		}
		if needle != "" && !matchesSearch(fold, e, needle) {
			continue
		}
		out = append(out, e.Clone())
	}
	return out
}

func matchesSearch(fold cases.Caser, e *domain.Exhibit, needle string) bool {
	for _, haystack := range []string{
		e.SerialNumber,
		e.AccusedPerson,
		e.InvestigatingOfficer,
		e.Station,
		e.ReceivingOfficer,
		e.Examiner,
	} {
		if strings.Contains(fold.String(haystack), needle) {
			return true
		}
	}
	return false
}

// SortExhibits orders exhibits in place. Ties keep their relative order.
// An empty field falls back to DefaultSort; an empty order means ascending.
func SortExhibits(exhibits []domain.Exhibit, s Sort) {
	if s.Field == "" {
		s = DefaultSort()
	}
	less := lessFor(s.Field)
	if less == nil {
		return
	}
	desc := s.Order == OrderDesc
	sort.SliceStable(exhibits, func(i, j int) bool {
		if desc {
			return less(&exhibits[j], &exhibits[i])
		}
		return less(&exhibits[i], &exhibits[j])
	})
}

func lessFor(field Field) func(a, b *domain.Exhibit) bool {
	switch field {
	case FieldDateReceived:
		return func(a, b *domain.Exhibit) bool { return a.DateReceived.Before(b.DateReceived) }
	case FieldSerialNumber:
		return func(a, b *domain.Exhibit) bool { return a.SerialNumber < b.SerialNumber }
	case FieldStation:
		return func(a, b *domain.Exhibit) bool { return a.Station < b.Station }
	case FieldCollectionStatus:
		return func(a, b *domain.Exhibit) bool { return a.CollectionStatus < b.CollectionStatus }
	default:
		return nil
	}
}

// Summarize counts exhibits by collection status and remarks.
func Summarize(exhibits []domain.Exhibit) Stats {
	stats := Stats{Total: len(exhibits)}
	for i := range exhibits {
		if exhibits[i].IsCollected() {
			stats.Collected++
		} else {
			stats.Pending++
		}
		if exhibits[i].Remarks == domain.RemarksExploited {
			stats.Exploited++
		} else {
			stats.Unexploited++
		}
	}
	return stats
}
