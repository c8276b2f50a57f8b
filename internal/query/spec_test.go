package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"roster/internal/model"
	"roster/internal/query"
)

func TestBuildIgnoresEmptyFilterFields(t *testing.T) {
	spec := query.Build(&query.Filter{Name: ptr(""), Class: ptr(""), Department: ptr("")}, nil)
	assert.True(t, spec.Predicate.IsUniversal())
	assert.Equal(t, query.DefaultSort, spec.Sort)
}

func TestBuildTranslatesFilter(t *testing.T) {
	spec := query.Build(&query.Filter{
		Name:     ptr("ann"),
		Class:    ptr("A"),
		IsActive: ptr(false),
		AgeMax:   ptr(40),
	}, nil)

	cs := spec.Predicate.Constraints()
	assert.Len(t, cs, 4)
	assert.Equal(t, query.Contains(model.FieldName, "ann"), cs[0])
	assert.Equal(t, query.Eq(model.FieldClass, "A"), cs[1])
	assert.Equal(t, query.Eq(model.FieldIsActive, false), cs[2])
	assert.Equal(t, query.OpRange, cs[3].Op)
	assert.Nil(t, cs[3].Min)
	assert.Equal(t, 40.0, *cs[3].Max)
}

func TestBuildSortDirectionIsCaseInsensitive(t *testing.T) {
	assert.True(t, query.Build(nil, &query.SortRequest{Field: model.FieldName, Order: "desc"}).Sort.Desc)
	assert.False(t, query.Build(nil, &query.SortRequest{Field: model.FieldName, Order: "asc"}).Sort.Desc)
	assert.Equal(t, []query.Order{{Field: model.FieldName}, query.TieBreak},
		query.Build(nil, &query.SortRequest{Field: model.FieldName}).Orders())
}

func TestPredicateAndDoesNotShareBacking(t *testing.T) {
	base := query.Universal().And(query.Eq(model.FieldClass, "A"))
	a := base.And(query.Eq(model.FieldIsActive, true))
	b := base.And(query.Eq(model.FieldIsActive, false))

	assert.Len(t, base.Constraints(), 1)
	assert.Equal(t, true, a.Constraints()[1].Value)
	assert.Equal(t, false, b.Constraints()[1].Value)
}

func TestPredicateMatch(t *testing.T) {
	e := &model.Employee{Name: "Ann Lee", Class: "A", Age: 30, IsActive: true, EmployeeID: "E-7"}

	cases := []struct {
		name string
		pred query.Predicate
		want bool
	}{
		{"universal", query.Universal(), true},
		{"contains folds case", query.Universal().And(query.Contains(model.FieldName, "LEE")), true},
		{"range inclusive", query.Universal().And(query.Range(model.FieldAge, ptr(30.0), ptr(30.0))), true},
		{"range excludes", query.Universal().And(query.Range(model.FieldAge, ptr(31.0), nil)), false},
		{"missing department is empty", query.Universal().And(query.Eq(model.FieldDepartment, "")), true},
		{"any contains", query.BuildSearch("e-7").Predicate, true},
		{"conjunction", query.Universal().And(query.Eq(model.FieldClass, "A"), query.Eq(model.FieldIsActive, false)), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.pred.Match(e)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
