package query

import (
	"strings"

	"roster/internal/model"
)

// Direction is the requested sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Order is one sort key.
type Order struct {
	Field string
	Desc  bool
}

// TieBreak is appended after every declared sort key so the order is total.
var TieBreak = Order{Field: model.FieldID}

// DefaultSort applies when the caller does not ask for one.
var DefaultSort = Order{Field: model.FieldCreatedAt, Desc: true}

// Filter is the caller-facing employee filter. Nil or empty fields impose nothing.
type Filter struct {
	Name       *string
	Class      *string
	Department *string
	IsActive   *bool
	AgeMin     *int
	AgeMax     *int
}

// SortRequest is the caller-facing sort.
type SortRequest struct {
	Field string
	Order Direction
}

// Spec is a normalized query: predicate plus declared sort. The total order is
// (Sort, TieBreak).
type Spec struct {
	Predicate Predicate
	Sort      Order
}

// Orders returns the full ordering including the tie-break.
func (s Spec) Orders() []Order {
	return []Order{s.Sort, TieBreak}
}

// WithPredicate returns a copy of s filtering on p instead.
func (s Spec) WithPredicate(p Predicate) Spec {
	s.Predicate = p
	return s
}

// Build turns a filter and sort request into a Spec. Sort fields are not
// validated here; the store rejects unknown ones.
func Build(f *Filter, s *SortRequest) Spec {
	return Spec{Predicate: buildPredicate(f), Sort: buildSort(s)}
}

// BuildSearch matches term against name, employee id, department and class.
func BuildSearch(term string) Spec {
	p := Universal()
	if term = strings.TrimSpace(term); term != "" {
		p = p.And(AnyContains(term, model.FieldName, model.FieldEmployeeID, model.FieldDepartment, model.FieldClass))
	}
	return Spec{Predicate: p, Sort: DefaultSort}
}

func buildPredicate(f *Filter) Predicate {
	p := Universal()
	if f == nil {
		return p
	}
	if present(f.Name) {
		p = p.And(Contains(model.FieldName, *f.Name))
	}
	if present(f.Class) {
		p = p.And(Eq(model.FieldClass, *f.Class))
	}
	if present(f.Department) {
		p = p.And(Eq(model.FieldDepartment, *f.Department))
	}
	if f.IsActive != nil {
		p = p.And(Eq(model.FieldIsActive, *f.IsActive))
	}
	if f.AgeMin != nil || f.AgeMax != nil {
		p = p.And(Range(model.FieldAge, intBound(f.AgeMin), intBound(f.AgeMax)))
	}
	return p
}

func buildSort(s *SortRequest) Order {
	if s == nil || s.Field == "" {
		return DefaultSort
	}
	return Order{Field: s.Field, Desc: strings.EqualFold(string(s.Order), string(Desc))}
}

func present(s *string) bool {
	return s != nil && *s != ""
}

func intBound(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}
