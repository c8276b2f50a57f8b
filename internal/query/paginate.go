package query

import (
	"context"

	"roster/internal/apperr"
	"roster/internal/loader"
	"roster/internal/metrics"
	"roster/internal/model"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Window is the caller's cursor window. Forward fields win over backward ones.
type Window struct {
	First  *int
	After  *string
	Last   *int
	Before *string
}

func (w Window) forward() bool {
	return w.First != nil || w.After != nil || (w.Last == nil && w.Before == nil)
}

// Edge is one record of a page with its cursor.
type Edge struct {
	Node   *model.Employee `json:"node"`
	Cursor string          `json:"cursor"`
}

// PageInfo is derived from the fetch; it is never set by callers.
type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

// Connection is one page of records.
type Connection struct {
	Edges      []Edge   `json:"edges"`
	PageInfo   PageInfo `json:"pageInfo"`
	TotalCount int64    `json:"totalCount"`
}

// Paginator runs cursor-windowed queries against a RecordStore.
type Paginator struct {
	store       RecordStore
	codec       CursorCodec
	defaultSize int
	maxSize     int
}

// NewPaginator creates a paginator. Non-positive sizes fall back to the defaults.
func NewPaginator(store RecordStore, defaultSize, maxSize int) *Paginator {
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if defaultSize > maxSize {
		defaultSize = maxSize
	}
	return &Paginator{store: store, defaultSize: defaultSize, maxSize: maxSize}
}

// PageSize clamps a requested count to the ceiling; nil or zero selects the default.
func (p *Paginator) PageSize(requested *int) (int, error) {
	if requested == nil || *requested == 0 {
		return p.defaultSize, nil
	}
	if *requested < 0 {
		return 0, apperr.Validation("page size must not be negative")
	}
	return min(*requested, p.maxSize), nil
}

// Paginate fetches one page of spec within w. It asks the store for one row
// more than the page size to learn whether the walk can continue. The flag for
// the opposite direction is only set when a cursor bound the query; no extra
// query verifies it.
func (p *Paginator) Paginate(ctx context.Context, records *loader.Loader[model.Employee], spec Spec, w Window) (*Connection, error) {
	forward := w.forward()
	requested, cursor, mode := w.Last, w.Before, "backward"
	if forward {
		requested, cursor, mode = w.First, w.After, "forward"
	}

	size, err := p.PageSize(requested)
	if err != nil {
		return nil, err
	}

	var pos *Position
	if cursor != nil && *cursor != "" {
		pos, err = p.codec.Resolve(ctx, records, *cursor, spec)
		if err != nil {
			return nil, err
		}
	}

	total, err := p.count(ctx, spec.Predicate)
	if err != nil {
		return nil, err
	}

	done := metrics.StoreTimer("find")
	rows, err := p.store.Find(ctx, spec.Predicate, FindOptions{
		Sort:    spec.Sort,
		Reverse: !forward,
		Limit:   size + 1,
		After:   pos,
	})
	done()
	if err != nil {
		return nil, apperr.Store("find employees", err)
	}

	more := len(rows) > size
	if more {
		rows = rows[:size]
	}
	if !forward {
		reverse(rows)
	}

	conn := &Connection{Edges: make([]Edge, 0, len(rows)), TotalCount: total}
	for _, rec := range rows {
		records.Prime(rec.ID, rec)
		conn.Edges = append(conn.Edges, Edge{Node: rec, Cursor: p.codec.Encode(rec)})
	}
	if forward {
		conn.PageInfo.HasNextPage = more
		conn.PageInfo.HasPreviousPage = pos != nil
	} else {
		conn.PageInfo.HasPreviousPage = more
		conn.PageInfo.HasNextPage = pos != nil
	}
	if n := len(conn.Edges); n > 0 {
		start, end := conn.Edges[0].Cursor, conn.Edges[n-1].Cursor
		conn.PageInfo.StartCursor = &start
		conn.PageInfo.EndCursor = &end
	}

	metrics.ObservePage(mode, len(conn.Edges))
	return conn, nil
}

// Fetch returns up to limit records of spec from the start of its order, used
// by flat listings such as search.
func (p *Paginator) Fetch(ctx context.Context, spec Spec, limit int) ([]*model.Employee, error) {
	size, err := p.PageSize(&limit)
	if err != nil {
		return nil, err
	}
	done := metrics.StoreTimer("find")
	rows, err := p.store.Find(ctx, spec.Predicate, FindOptions{Sort: spec.Sort, Limit: size})
	done()
	if err != nil {
		return nil, apperr.Store("find employees", err)
	}
	return rows, nil
}

func (p *Paginator) count(ctx context.Context, pred Predicate) (int64, error) {
	done := metrics.StoreTimer("count")
	n, err := p.store.Count(ctx, pred)
	done()
	if err != nil {
		return 0, apperr.Store("count employees", err)
	}
	return n, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
