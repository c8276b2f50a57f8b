package pgstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster/internal/model"
	"roster/internal/query"
)

func TestBuildWhere(t *testing.T) {
	lo, hi := 25.0, 40.0
	p := query.Universal().And(
		query.Eq(model.FieldDepartment, "Sales"),
		query.Contains(model.FieldName, "50%_off"),
		query.Range(model.FieldAge, &lo, &hi),
		query.AnyContains("ann", model.FieldName, model.FieldClass),
	)

	w, err := buildWhere(p)
	require.NoError(t, err)
	assert.Equal(t,
		" WHERE COALESCE(department, '') = $1 AND name ILIKE $2 AND age >= $3 AND age <= $4 AND (name ILIKE $5 OR class ILIKE $5)",
		w.sql())
	assert.Equal(t, []any{"Sales", `%50\%\_off%`, 25.0, 40.0, "%ann%"}, w.args)
}

func TestBuildWhereUniversal(t *testing.T) {
	w, err := buildWhere(query.Universal())
	require.NoError(t, err)
	assert.Empty(t, w.sql())
	assert.Empty(t, w.args)
}

func TestBuildWhereUnknownField(t *testing.T) {
	_, err := buildWhere(query.Universal().And(query.Eq("password", "x")))
	assert.Error(t, err)
}

func TestKeysetClause(t *testing.T) {
	after := &query.Position{ID: "id-5", Value: 30.0}
	cases := []struct {
		name string
		opts query.FindOptions
		want string
	}{
		{
			name: "ascending",
			opts: query.FindOptions{Sort: query.Order{Field: model.FieldAge}},
			want: "(age > $1 OR (age = $1 AND id > $2))",
		},
		{
			name: "descending keeps id ascending",
			opts: query.FindOptions{Sort: query.DefaultSort},
			want: "(created_at < $1 OR (created_at = $1 AND id > $2))",
		},
		{
			name: "reverse flips both comparisons",
			opts: query.FindOptions{Sort: query.DefaultSort, Reverse: true},
			want: "(created_at > $1 OR (created_at = $1 AND id < $2))",
		},
		{
			name: "reverse of ascending",
			opts: query.FindOptions{Sort: query.Order{Field: model.FieldAge}, Reverse: true},
			want: "(age < $1 OR (age = $1 AND id < $2))",
		},
		{
			name: "optional field compares coalesced value",
			opts: query.FindOptions{Sort: query.Order{Field: model.FieldDepartment}},
			want: "(COALESCE(department, '') > $1 OR (COALESCE(department, '') = $1 AND id > $2))",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := &where{}
			require.NoError(t, keysetClause(w, query.EffectiveOrders(tc.opts), after))
			assert.Equal(t, []string{tc.want}, w.clauses)
			assert.Equal(t, []any{30.0, "id-5"}, w.args)
		})
	}
}

func TestFindQuery(t *testing.T) {
	p := query.Universal().And(query.Eq(model.FieldIsActive, true))
	q, args, err := findQuery(p, query.FindOptions{
		Sort:    query.Order{Field: model.FieldAge},
		Reverse: true,
		Limit:   11,
		After:   &query.Position{ID: "id-5", Value: 30.0},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT "+employeeColumns+" FROM employees"+
		" WHERE is_active = $1 AND (age < $2 OR (age = $2 AND id < $3))"+
		" ORDER BY age DESC, id DESC LIMIT $4", q)
	assert.Equal(t, []any{true, 30.0, "id-5", 11}, args)

	q, args, err = findQuery(query.Universal(), query.FindOptions{Sort: query.DefaultSort})
	require.NoError(t, err)
	assert.Equal(t, "SELECT "+employeeColumns+" FROM employees ORDER BY created_at DESC, id ASC", q)
	assert.Empty(t, args)

	_, _, err = findQuery(query.Universal(), query.FindOptions{Sort: query.Order{Field: "salaryBand"}})
	assert.Error(t, err)
}
