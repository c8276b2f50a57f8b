package query

import (
	"context"

	"roster/internal/model"
)

// Position is the ordering key of one record under a Spec: the value of the
// declared sort field and the record id.
type Position struct {
	ID    string
	Value any
}

// FindOptions bounds a Find call. Reverse walks the total order backwards
// (declared direction and tie-break both flipped). After is exclusive in the
// walking direction.
type FindOptions struct {
	Sort    Order
	Reverse bool
	Limit   int
	After   *Position
}

// GroupCount is one bucket of a group-by aggregate. Key is empty for records
// without a value.
type GroupCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// RecordStore is the persistence the engine runs against.
type RecordStore interface {
	Find(ctx context.Context, p Predicate, opts FindOptions) ([]*model.Employee, error)
	Count(ctx context.Context, p Predicate) (int64, error)
	AggregateGroupBy(ctx context.Context, p Predicate, field string) ([]GroupCount, error)
	// AggregateAverage returns 0 when nothing matches.
	AggregateAverage(ctx context.Context, p Predicate, field string) (float64, error)
	// FindByID and FindByUniqueField return nil, nil when nothing matches.
	FindByID(ctx context.Context, id string) (*model.Employee, error)
	FindByUniqueField(ctx context.Context, field string, value any) (*model.Employee, error)
	// Persist inserts rec when Version is 0, otherwise updates it if the stored
	// version still equals rec.Version. The stored copy is returned.
	Persist(ctx context.Context, rec *model.Employee) (*model.Employee, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}

// EffectiveOrders resolves the orders a store must apply for opts.
func EffectiveOrders(opts FindOptions) []Order {
	orders := []Order{opts.Sort, TieBreak}
	if opts.Reverse {
		for i := range orders {
			orders[i].Desc = !orders[i].Desc
		}
	}
	return orders
}
