// Package memstore keeps records in process memory. It backs tests and
// STORE_BACKEND=memory; data does not survive a restart.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"roster/internal/apperr"
	"roster/internal/model"
	"roster/internal/query"
)

// Employees is an in-memory query.RecordStore.
type Employees struct {
	mu   sync.RWMutex
	byID map[string]*model.Employee
}

func NewEmployees() *Employees {
	return &Employees{byID: make(map[string]*model.Employee)}
}

// Find returns matches in the requested order, strictly after opts.After.
func (s *Employees) Find(ctx context.Context, p query.Predicate, opts query.FindOptions) ([]*model.Employee, error) {
	orders := query.EffectiveOrders(opts)
	for _, o := range orders {
		if _, ok := (&model.Employee{}).Field(o.Field); !ok {
			return nil, fmt.Errorf("unknown sort field %q", o.Field)
		}
	}

	matched, err := s.match(p)
	if err != nil {
		return nil, err
	}
	sort.Slice(matched, func(i, j int) bool {
		return compareBy(orders, matched[i], matched[j]) < 0
	})

	out := make([]*model.Employee, 0, min(len(matched), max(opts.Limit, 0)))
	for _, rec := range matched {
		if opts.After != nil && !afterPosition(orders, rec, opts.After) {
			continue
		}
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
		out = append(out, rec.Clone())
	}
	return out, nil
}

func (s *Employees) Count(ctx context.Context, p query.Predicate) (int64, error) {
	matched, err := s.match(p)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (s *Employees) AggregateGroupBy(ctx context.Context, p query.Predicate, field string) ([]query.GroupCount, error) {
	matched, err := s.match(p)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	var order []string
	for _, rec := range matched {
		v, ok := rec.Field(field)
		if !ok {
			return nil, fmt.Errorf("unknown group field %q", field)
		}
		key := fmt.Sprint(v)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}
	out := make([]query.GroupCount, 0, len(order))
	for _, k := range order {
		out = append(out, query.GroupCount{Key: k, Count: counts[k]})
	}
	return out, nil
}

func (s *Employees) AggregateAverage(ctx context.Context, p query.Predicate, field string) (float64, error) {
	matched, err := s.match(p)
	if err != nil {
		return 0, err
	}
	if len(matched) == 0 {
		return 0, nil
	}
	var sum float64
	for _, rec := range matched {
		v, _ := rec.Field(field)
		switch n := v.(type) {
		case int:
			sum += float64(n)
		case float64:
			sum += n
		default:
			return 0, fmt.Errorf("field %q is not numeric", field)
		}
	}
	return sum / float64(len(matched)), nil
}

func (s *Employees) FindByID(ctx context.Context, id string) (*model.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id].Clone(), nil
}

func (s *Employees) FindByUniqueField(ctx context.Context, field string, value any) (*model.Employee, error) {
	if field != model.FieldID && field != model.FieldEmployeeID {
		return nil, fmt.Errorf("field %q is not unique", field)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.byID {
		v, _ := rec.Field(field)
		if query.Compare(v, value) == 0 {
			return rec.Clone(), nil
		}
	}
	return nil, nil
}

func (s *Employees) Persist(ctx context.Context, rec *model.Employee) (*model.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, other := range s.byID {
		if id != rec.ID && other.EmployeeID == rec.EmployeeID {
			return nil, apperr.AlreadyExists("employee ID")
		}
	}

	stored := rec.Clone()
	cur, exists := s.byID[rec.ID]
	switch {
	case rec.Version == 0:
		if exists {
			return nil, apperr.AlreadyExists("employee")
		}
	case !exists:
		return nil, apperr.NotFound("employee")
	case cur.Version != rec.Version:
		return nil, apperr.Conflict("employee was modified concurrently", nil)
	}
	stored.Version = rec.Version + 1
	s.byID[rec.ID] = stored
	return stored.Clone(), nil
}

func (s *Employees) DeleteByID(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return false, nil
	}
	delete(s.byID, id)
	return true, nil
}

func (s *Employees) match(p query.Predicate) ([]*model.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*model.Employee
	for _, rec := range s.byID {
		ok, err := p.Match(rec)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func compareBy(orders []query.Order, a, b *model.Employee) int {
	for _, o := range orders {
		av, _ := a.Field(o.Field)
		bv, _ := b.Field(o.Field)
		c := query.Compare(av, bv)
		if o.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// afterPosition reports whether rec comes strictly after pos in orders.
// orders is always (declared field, tie-break).
func afterPosition(orders []query.Order, rec *model.Employee, pos *query.Position) bool {
	keys := []any{pos.Value, pos.ID}
	for i, o := range orders {
		v, _ := rec.Field(o.Field)
		c := query.Compare(v, keys[i])
		if o.Desc {
			c = -c
		}
		if c != 0 {
			return c > 0
		}
	}
	return false
}
