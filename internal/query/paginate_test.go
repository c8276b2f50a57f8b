package query_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster/internal/apperr"
	"roster/internal/loader"
	"roster/internal/model"
	"roster/internal/query"
	"roster/internal/store/memstore"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// seed stores n employees; employee i is created i minutes after epoch.
func seed(t *testing.T, store *memstore.Employees, n int, mutate func(i int, e *model.Employee)) []*model.Employee {
	t.Helper()
	out := make([]*model.Employee, 0, n)
	for i := 0; i < n; i++ {
		e := &model.Employee{
			ID:         fmt.Sprintf("id-%03d", i),
			EmployeeID: fmt.Sprintf("E%03d", i),
			Name:       fmt.Sprintf("Employee %03d", i),
			Age:        20 + i%40,
			Class:      []string{"A", "B", "C"}[i%3],
			Subjects:   []string{"math"},
			IsActive:   true,
			CreatedBy:  "admin",
			CreatedAt:  epoch.Add(time.Duration(i) * time.Minute),
			UpdatedAt:  epoch.Add(time.Duration(i) * time.Minute),
		}
		if mutate != nil {
			mutate(i, e)
		}
		stored, err := store.Persist(context.Background(), e)
		require.NoError(t, err)
		out = append(out, stored)
	}
	return out
}

func newLoader(store query.RecordStore) *loader.Loader[model.Employee] {
	return loader.New[model.Employee](store.FindByID)
}

func ids(conn *query.Connection) []string {
	out := make([]string, 0, len(conn.Edges))
	for _, e := range conn.Edges {
		out = append(out, e.Node.ID)
	}
	return out
}

func TestPaginateForwardWalkVisitsEveryRecordOnce(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewEmployees()
	seed(t, store, 25, nil)
	p := query.NewPaginator(store, 10, 100)
	spec := query.Build(nil, &query.SortRequest{Field: model.FieldCreatedAt, Order: query.Asc})

	var (
		seen  []string
		after *string
		pages int
	)
	for {
		conn, err := p.Paginate(ctx, newLoader(store), spec, query.Window{First: ptr(10), After: after})
		require.NoError(t, err)
		pages++
		assert.Equal(t, int64(25), conn.TotalCount)
		assert.Equal(t, pages > 1, conn.PageInfo.HasPreviousPage, "page %d", pages)
		seen = append(seen, ids(conn)...)
		if !conn.PageInfo.HasNextPage {
			break
		}
		after = conn.PageInfo.EndCursor
	}

	assert.Equal(t, 3, pages)
	require.Len(t, seen, 25)
	for i, id := range seen {
		assert.Equal(t, fmt.Sprintf("id-%03d", i), id)
	}
}

func TestPaginateDefaultSortIsNewestFirst(t *testing.T) {
	store := memstore.NewEmployees()
	seed(t, store, 3, nil)
	p := query.NewPaginator(store, 10, 100)

	conn, err := p.Paginate(context.Background(), newLoader(store), query.Build(nil, nil), query.Window{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-002", "id-001", "id-000"}, ids(conn))
	assert.False(t, conn.PageInfo.HasNextPage)
	assert.False(t, conn.PageInfo.HasPreviousPage)
	require.NotNil(t, conn.PageInfo.StartCursor)
	assert.Equal(t, conn.Edges[0].Cursor, *conn.PageInfo.StartCursor)
	assert.Equal(t, conn.Edges[2].Cursor, *conn.PageInfo.EndCursor)
}

func TestPaginateClampsToCeiling(t *testing.T) {
	store := memstore.NewEmployees()
	seed(t, store, 150, nil)
	p := query.NewPaginator(store, 10, 100)

	conn, err := p.Paginate(context.Background(), newLoader(store), query.Build(nil, nil), query.Window{First: ptr(1000)})
	require.NoError(t, err)
	assert.Len(t, conn.Edges, 100)
	assert.True(t, conn.PageInfo.HasNextPage)
	assert.Equal(t, int64(150), conn.TotalCount)
}

func TestPaginateExactPageHasNoNext(t *testing.T) {
	store := memstore.NewEmployees()
	seed(t, store, 10, nil)
	p := query.NewPaginator(store, 10, 100)

	conn, err := p.Paginate(context.Background(), newLoader(store), query.Build(nil, nil), query.Window{First: ptr(10)})
	require.NoError(t, err)
	assert.Len(t, conn.Edges, 10)
	assert.False(t, conn.PageInfo.HasNextPage)
}

func TestPaginateZeroCountUsesDefault(t *testing.T) {
	store := memstore.NewEmployees()
	seed(t, store, 30, nil)
	p := query.NewPaginator(store, 10, 100)

	conn, err := p.Paginate(context.Background(), newLoader(store), query.Build(nil, nil), query.Window{First: ptr(0)})
	require.NoError(t, err)
	assert.Len(t, conn.Edges, 10)
}

func TestPaginateRejectsNegativeCount(t *testing.T) {
	store := memstore.NewEmployees()
	p := query.NewPaginator(store, 10, 100)

	_, err := p.Paginate(context.Background(), newLoader(store), query.Build(nil, nil), query.Window{First: ptr(-1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestPaginateDeletedCursorStartsFromBeginning(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewEmployees()
	seed(t, store, 12, nil)
	p := query.NewPaginator(store, 5, 100)
	spec := query.Build(nil, nil)

	first, err := p.Paginate(ctx, newLoader(store), spec, query.Window{First: ptr(5)})
	require.NoError(t, err)
	cursor := first.PageInfo.EndCursor
	require.NotNil(t, cursor)

	deleted, err := store.DeleteByID(ctx, first.Edges[4].Node.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	again, err := p.Paginate(ctx, newLoader(store), spec, query.Window{First: ptr(5), After: cursor})
	require.NoError(t, err)
	assert.Equal(t, ids(first)[:4], ids(again)[:4])
	assert.False(t, again.PageInfo.HasPreviousPage)
	assert.Equal(t, int64(11), again.TotalCount)
}

func TestPaginateBackward(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewEmployees()
	seed(t, store, 12, nil)
	p := query.NewPaginator(store, 10, 100)
	spec := query.Build(nil, &query.SortRequest{Field: model.FieldCreatedAt, Order: query.Asc})

	tail, err := p.Paginate(ctx, newLoader(store), spec, query.Window{Last: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-007", "id-008", "id-009", "id-010", "id-011"}, ids(tail))
	assert.True(t, tail.PageInfo.HasPreviousPage)
	assert.False(t, tail.PageInfo.HasNextPage)

	prev, err := p.Paginate(ctx, newLoader(store), spec, query.Window{Last: ptr(5), Before: tail.PageInfo.StartCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-002", "id-003", "id-004", "id-005", "id-006"}, ids(prev))
	assert.True(t, prev.PageInfo.HasPreviousPage)
	assert.True(t, prev.PageInfo.HasNextPage)

	head, err := p.Paginate(ctx, newLoader(store), spec, query.Window{Last: ptr(5), Before: prev.PageInfo.StartCursor})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-000", "id-001"}, ids(head))
	assert.False(t, head.PageInfo.HasPreviousPage)
	assert.True(t, head.PageInfo.HasNextPage)
}

func TestPaginateForwardWinsOverBackward(t *testing.T) {
	store := memstore.NewEmployees()
	seed(t, store, 6, nil)
	p := query.NewPaginator(store, 10, 100)
	spec := query.Build(nil, &query.SortRequest{Field: model.FieldCreatedAt, Order: query.Asc})

	conn, err := p.Paginate(context.Background(), newLoader(store), spec, query.Window{First: ptr(2), Last: ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, []string{"id-000", "id-001"}, ids(conn))
}

func TestPaginateTiesAreBrokenByID(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewEmployees()
	seed(t, store, 9, func(i int, e *model.Employee) {
		if i%2 == 0 {
			e.Department = ptr("Sales")
		}
	})
	p := query.NewPaginator(store, 10, 100)
	spec := query.Build(nil, &query.SortRequest{Field: model.FieldDepartment, Order: query.Asc})

	var got []string
	var after *string
	for {
		conn, err := p.Paginate(ctx, newLoader(store), spec, query.Window{First: ptr(2), After: after})
		require.NoError(t, err)
		got = append(got, ids(conn)...)
		if !conn.PageInfo.HasNextPage {
			break
		}
		after = conn.PageInfo.EndCursor
	}
	// Records without a department sort as "" and come first.
	assert.Equal(t, []string{
		"id-001", "id-003", "id-005", "id-007",
		"id-000", "id-002", "id-004", "id-006", "id-008",
	}, got)
}

func TestPaginateCursorSurvivesSortChange(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewEmployees()
	seed(t, store, 5, func(i int, e *model.Employee) { e.Name = fmt.Sprintf("N%d", 4-i) })
	p := query.NewPaginator(store, 10, 100)

	byCreated, err := p.Paginate(ctx, newLoader(store), query.Build(nil, &query.SortRequest{Field: model.FieldCreatedAt, Order: query.Asc}), query.Window{First: ptr(1)})
	require.NoError(t, err)
	require.Equal(t, []string{"id-000"}, ids(byCreated))

	// id-000 is named N4, the last one by name.
	byName, err := p.Paginate(ctx, newLoader(store), query.Build(nil, &query.SortRequest{Field: model.FieldName, Order: query.Asc}),
		query.Window{First: ptr(10), After: byCreated.PageInfo.EndCursor})
	require.NoError(t, err)
	assert.Empty(t, byName.Edges)
	assert.True(t, byName.PageInfo.HasPreviousPage)
}

func TestPaginateFilterAndTotalCount(t *testing.T) {
	store := memstore.NewEmployees()
	seed(t, store, 30, nil)
	p := query.NewPaginator(store, 10, 100)
	spec := query.Build(&query.Filter{Class: ptr("A"), AgeMin: ptr(25)}, nil)

	conn, err := p.Paginate(context.Background(), newLoader(store), spec, query.Window{First: ptr(3)})
	require.NoError(t, err)
	assert.Len(t, conn.Edges, 3)
	for _, e := range conn.Edges {
		assert.Equal(t, "A", e.Node.Class)
		assert.GreaterOrEqual(t, e.Node.Age, 25)
	}
	// Class A is every third record, ages 20..49: i in {6,9,...,27} has age >= 25.
	assert.Equal(t, int64(8), conn.TotalCount)
}

func TestPaginateErrors(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewEmployees()
	seed(t, store, 3, nil)
	p := query.NewPaginator(store, 10, 100)

	_, err := p.Paginate(ctx, newLoader(store), query.Build(nil, nil), query.Window{After: ptr("%%%not-base64")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = p.Paginate(ctx, newLoader(store), query.Build(nil, &query.SortRequest{Field: "shoeSize"}), query.Window{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindStore, apperr.KindOf(err))
}

func TestPaginatePrimesLoader(t *testing.T) {
	ctx := context.Background()
	store := memstore.NewEmployees()
	seed(t, store, 3, nil)
	p := query.NewPaginator(store, 10, 100)

	calls := 0
	records := loader.New[model.Employee](func(ctx context.Context, id string) (*model.Employee, error) {
		calls++
		return store.FindByID(ctx, id)
	})
	conn, err := p.Paginate(ctx, records, query.Build(nil, nil), query.Window{})
	require.NoError(t, err)

	rec, err := records.Load(ctx, conn.Edges[0].Node.ID)
	require.NoError(t, err)
	assert.Equal(t, conn.Edges[0].Node.ID, rec.ID)
	assert.Zero(t, calls)
}

func TestFetchCapsLimit(t *testing.T) {
	store := memstore.NewEmployees()
	seed(t, store, 120, nil)
	p := query.NewPaginator(store, 10, 100)

	rows, err := p.Fetch(context.Background(), query.BuildSearch("employee"), 500)
	require.NoError(t, err)
	assert.Len(t, rows, 100)

	rows, err = p.Fetch(context.Background(), query.BuildSearch("E00"), 0)
	require.NoError(t, err)
	assert.Len(t, rows, 10)
}
