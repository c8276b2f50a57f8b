package query

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"roster/internal/apperr"
	"roster/internal/metrics"
	"roster/internal/model"
)

// UnknownGroup labels records without a value for the grouped field.
const UnknownGroup = "Unknown"

// Stats summarises the employees matching a predicate.
type Stats struct {
	TotalEmployees    int64        `json:"totalEmployees"`
	ActiveEmployees   int64        `json:"activeEmployees"`
	InactiveEmployees int64        `json:"inactiveEmployees"`
	DepartmentCounts  []GroupCount `json:"departmentCounts"`
	ClassCounts       []GroupCount `json:"classCounts"`
	AverageAge        float64      `json:"averageAge"`
}

// Aggregator computes grouped counts and averages, independent of paging.
type Aggregator struct {
	store RecordStore
}

func NewAggregator(store RecordStore) *Aggregator {
	return &Aggregator{store: store}
}

// Stats runs the aggregates over pred concurrently.
func (a *Aggregator) Stats(ctx context.Context, pred Predicate) (*Stats, error) {
	var out Stats
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		out.TotalEmployees, err = a.count(ctx, pred)
		return err
	})
	g.Go(func() (err error) {
		out.ActiveEmployees, err = a.count(ctx, pred.And(Eq(model.FieldIsActive, true)))
		return err
	})
	g.Go(func() (err error) {
		out.InactiveEmployees, err = a.count(ctx, pred.And(Eq(model.FieldIsActive, false)))
		return err
	})
	g.Go(func() (err error) {
		out.DepartmentCounts, err = a.GroupCounts(ctx, pred, model.FieldDepartment)
		return err
	})
	g.Go(func() (err error) {
		out.ClassCounts, err = a.GroupCounts(ctx, pred, model.FieldClass)
		return err
	})
	g.Go(func() (err error) {
		out.AverageAge, err = a.Average(ctx, pred, model.FieldAge)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// GroupCounts returns (key, count) pairs sorted by count descending, ties by
// key. Records without a value are reported under UnknownGroup.
func (a *Aggregator) GroupCounts(ctx context.Context, pred Predicate, field string) ([]GroupCount, error) {
	done := metrics.StoreTimer("group_by")
	raw, err := a.store.AggregateGroupBy(ctx, pred, field)
	done()
	if err != nil {
		return nil, apperr.Store("group by "+field, err)
	}

	merged := make(map[string]int64, len(raw))
	for _, gc := range raw {
		key := gc.Key
		if key == "" {
			key = UnknownGroup
		}
		merged[key] += gc.Count
	}
	out := make([]GroupCount, 0, len(merged))
	for k, n := range merged {
		out = append(out, GroupCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// Average returns the mean of field over pred; an empty match set yields 0.
func (a *Aggregator) Average(ctx context.Context, pred Predicate, field string) (float64, error) {
	done := metrics.StoreTimer("average")
	avg, err := a.store.AggregateAverage(ctx, pred, field)
	done()
	if err != nil {
		return 0, apperr.Store("average "+field, err)
	}
	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return 0, nil
	}
	return avg, nil
}

func (a *Aggregator) count(ctx context.Context, pred Predicate) (int64, error) {
	done := metrics.StoreTimer("count")
	n, err := a.store.Count(ctx, pred)
	done()
	if err != nil {
		return 0, apperr.Store("count employees", err)
	}
	return n, nil
}
