package query

import (
	"fmt"
	"strings"
	"time"

	"roster/internal/model"
)

// Op is the kind of a field constraint.
type Op string

const (
	OpEq          Op = "eq"
	OpContains    Op = "contains"
	OpRange       Op = "range"
	OpAnyContains Op = "any_contains"
)

// Constraint is a single field-level condition. Fields is only used by OpAnyContains.
type Constraint struct {
	Op     Op
	Field  string
	Fields []string
	Value  any
	Min    *float64
	Max    *float64
}

// Eq matches records whose field equals v.
func Eq(field string, v any) Constraint {
	return Constraint{Op: OpEq, Field: field, Value: v}
}

// Contains matches a case-insensitive substring of a text field.
func Contains(field, substr string) Constraint {
	return Constraint{Op: OpContains, Field: field, Value: substr}
}

// Range matches an inclusive numeric range. Either bound may be nil.
func Range(field string, min, max *float64) Constraint {
	return Constraint{Op: OpRange, Field: field, Min: min, Max: max}
}

// AnyContains matches when at least one of fields contains substr, case-insensitively.
func AnyContains(substr string, fields ...string) Constraint {
	return Constraint{Op: OpAnyContains, Fields: append([]string(nil), fields...), Value: substr}
}

// Predicate is an immutable conjunction of constraints. The zero value matches everything.
type Predicate struct {
	constraints []Constraint
}

// Universal returns the predicate that matches every record.
func Universal() Predicate { return Predicate{} }

// And returns a new predicate with cs appended; p is left untouched.
func (p Predicate) And(cs ...Constraint) Predicate {
	out := make([]Constraint, 0, len(p.constraints)+len(cs))
	out = append(out, p.constraints...)
	out = append(out, cs...)
	return Predicate{constraints: out}
}

// Constraints returns a copy of the constraints.
func (p Predicate) Constraints() []Constraint {
	return append([]Constraint(nil), p.constraints...)
}

// IsUniversal reports whether p carries no constraint.
func (p Predicate) IsUniversal() bool { return len(p.constraints) == 0 }

// Match evaluates p against rec in memory.
func (p Predicate) Match(rec *model.Employee) (bool, error) {
	for _, c := range p.constraints {
		ok, err := c.match(rec)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (c Constraint) match(rec *model.Employee) (bool, error) {
	switch c.Op {
	case OpEq:
		v, err := field(rec, c.Field)
		if err != nil {
			return false, err
		}
		return Compare(v, c.Value) == 0, nil
	case OpContains:
		v, err := field(rec, c.Field)
		if err != nil {
			return false, err
		}
		return containsFold(v, c.Value), nil
	case OpRange:
		v, err := field(rec, c.Field)
		if err != nil {
			return false, err
		}
		n, ok := toFloat(v)
		if !ok {
			return false, fmt.Errorf("field %q is not numeric", c.Field)
		}
		if c.Min != nil && n < *c.Min {
			return false, nil
		}
		if c.Max != nil && n > *c.Max {
			return false, nil
		}
		return true, nil
	case OpAnyContains:
		for _, f := range c.Fields {
			v, err := field(rec, f)
			if err != nil {
				return false, err
			}
			if containsFold(v, c.Value) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("unsupported constraint %q", c.Op)
}

func field(rec *model.Employee, name string) (any, error) {
	v, ok := rec.Field(name)
	if !ok {
		return nil, fmt.Errorf("unknown field %q", name)
	}
	return v, nil
}

func containsFold(v, substr any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	sub, _ := substr.(string)
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Compare orders two field values of the same type: strings, numbers, bools, times.
func Compare(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	switch av := a.(type) {
	case string:
		bv, _ := b.(string)
		return strings.Compare(av, bv)
	case bool:
		bv, _ := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Compare(bv)
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
