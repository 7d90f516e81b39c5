package projection

import (
	"strings"

	"exhibitcore/pkg/domain"
)

func isAll(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, "all")
}

// ParseStatus reads a collection status filter; "" and "all" mean no filter.
func ParseStatus(value string) (*domain.CollectionStatus, error) {
	if isAll(value) {
		return nil, nil
	}
	status, err := domain.ParseCollectionStatus(strings.TrimSpace(value))
	if err != nil {
		return nil, domain.ValidationError{Fields: []domain.FieldError{{Field: "status", Rule: "oneof"}}, Message: err.Error()}
	}
	return &status, nil
}

// ParseRemarks reads a remarks filter; "" and "all" mean no filter.
func ParseRemarks(value string) (*domain.Remarks, error) {
	if isAll(value) {
		return nil, nil
	}
	remarks, err := domain.ParseRemarks(strings.TrimSpace(value))
	if err != nil {
		return nil, domain.ValidationError{Fields: []domain.FieldError{{Field: "remarks", Rule: "oneof"}}, Message: err.Error()}
	}
	return &remarks, nil
}

// ParseSort reads a sort from transport strings. field may carry the order
// itself ("serialNumber-asc"); an explicit order wins over the suffix.
// Both empty yields DefaultSort.
func ParseSort(field, order string) (Sort, error) {
	field = strings.TrimSpace(field)
	order = strings.TrimSpace(order)
	if base, suffix, ok := strings.Cut(field, "-"); ok {
		field = base
		if order == "" {
			order = suffix
		}
	}
	if field == "" && order == "" {
		return DefaultSort(), nil
	}
	var s Sort
	if field == "" {
		s.Field = FieldDateReceived
	} else {
		for _, f := range []Field{FieldDateReceived, FieldSerialNumber, FieldStation, FieldCollectionStatus} {
			if strings.EqualFold(field, string(f)) {
				s.Field = f
			}
		}
		if s.Field == "" {
			return Sort{}, domain.ValidationError{Fields: []domain.FieldError{{Field: "sort", Rule: "oneof"}}, Message: "unknown sort field " + field}
		}
	}
	switch strings.ToLower(order) {
	case "", string(OrderAsc):
		s.Order = OrderAsc
	case string(OrderDesc):
		s.Order = OrderDesc
	default:
		return Sort{}, domain.ValidationError{Fields: []domain.FieldError{{Field: "order", Rule: "oneof"}}, Message: "unknown sort order " + order}
	}
	return s, nil
}

// ParseQuery builds a Query from the transport parameters shared by the
// HTTP API and the CLI.
func ParseQuery(search, status, remarks, station, sortField, order string) (Query, error) {
	var q Query
	var err error
	q.Filter.Search = search
	if !isAll(station) {
		q.Filter.Station = station
	}
	if q.Filter.CollectionStatus, err = ParseStatus(status); err != nil {
		return Query{}, err
	}
	if q.Filter.Remarks, err = ParseRemarks(remarks); err != nil {
		return Query{}, err
	}
	if q.Sort, err = ParseSort(sortField, order); err != nil {
		return Query{}, err
	}
	return q, nil
}
