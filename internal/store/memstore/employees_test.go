package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roster/internal/apperr"
	"roster/internal/model"
	"roster/internal/query"
)

func TestPersistVersioning(t *testing.T) {
	ctx := context.Background()
	s := NewEmployees()

	created, err := s.Persist(ctx, &model.Employee{ID: "a", EmployeeID: "E1", Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)

	created.Name = "Anna"
	updated, err := s.Persist(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	// created still carries version 1.
	_, err = s.Persist(ctx, created)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := s.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Name)
}

func TestPersistRejectsDuplicateEmployeeID(t *testing.T) {
	ctx := context.Background()
	s := NewEmployees()
	_, err := s.Persist(ctx, &model.Employee{ID: "a", EmployeeID: "E1"})
	require.NoError(t, err)

	_, err = s.Persist(ctx, &model.Employee{ID: "b", EmployeeID: "E1"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestPersistUpdateOfMissingRecord(t *testing.T) {
	_, err := NewEmployees().Persist(context.Background(), &model.Employee{ID: "x", EmployeeID: "E9", Version: 3})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStoredRecordsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewEmployees()
	rec := &model.Employee{ID: "a", EmployeeID: "E1", Subjects: []string{"math"}}
	_, err := s.Persist(ctx, rec)
	require.NoError(t, err)

	rec.Subjects[0] = "art"
	got, err := s.FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"math"}, got.Subjects)

	got.Subjects[0] = "music"
	again, _ := s.FindByID(ctx, "a")
	assert.Equal(t, []string{"math"}, again.Subjects)
}

func TestFindByUniqueField(t *testing.T) {
	ctx := context.Background()
	s := NewEmployees()
	_, err := s.Persist(ctx, &model.Employee{ID: "a", EmployeeID: "E1"})
	require.NoError(t, err)

	got, err := s.FindByUniqueField(ctx, model.FieldEmployeeID, "E1")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)

	got, err = s.FindByUniqueField(ctx, model.FieldEmployeeID, "E2")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.FindByUniqueField(ctx, model.FieldName, "x")
	assert.Error(t, err)
}

func TestFindAfterPositionReverse(t *testing.T) {
	ctx := context.Background()
	s := NewEmployees()
	for _, e := range []*model.Employee{
		{ID: "a", EmployeeID: "1", Age: 30},
		{ID: "b", EmployeeID: "2", Age: 30},
		{ID: "c", EmployeeID: "3", Age: 40},
	} {
		_, err := s.Persist(ctx, e)
		require.NoError(t, err)
	}

	rows, err := s.Find(ctx, query.Universal(), query.FindOptions{
		Sort:    query.Order{Field: model.FieldAge},
		Reverse: true,
		After:   &query.Position{ID: "c", Value: 40},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].ID)
	assert.Equal(t, "a", rows[1].ID)
}

func TestAverageOfEmptySetIsZero(t *testing.T) {
	avg, err := NewEmployees().AggregateAverage(context.Background(), query.Universal(), model.FieldAge)
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)
}
