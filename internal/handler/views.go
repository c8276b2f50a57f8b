package handler

import (
	"context"

	"roster/internal/loader"
	"roster/internal/model"
	"roster/internal/query"
)

type userSummary struct {
	ID       string     `json:"id"`
	Username string     `json:"username,omitempty"`
	Email    string     `json:"email,omitempty"`
	Role     model.Role `json:"role,omitempty"`
}

// employeeView replaces the provenance ids with user summaries.
type employeeView struct {
	*model.Employee
	CreatedBy *userSummary `json:"createdBy"`
	UpdatedBy *userSummary `json:"updatedBy,omitempty"`
}

type edgeView struct {
	Node   employeeView `json:"node"`
	Cursor string       `json:"cursor"`
}

type connectionView struct {
	Edges      []edgeView     `json:"edges"`
	PageInfo   query.PageInfo `json:"pageInfo"`
	TotalCount int64          `json:"totalCount"`
}

// presenter renders employees for one request, loading each referenced user once.
type presenter struct {
	users *loader.Loader[model.User]
}

func (h *Handler) presenter() *presenter {
	return &presenter{users: loader.New[model.User](h.users.UserByID)}
}

func (p *presenter) user(ctx context.Context, id string) (*userSummary, error) {
	u, err := p.users.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return &userSummary{ID: id}, nil
	}
	return &userSummary{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}, nil
}

func (p *presenter) employee(ctx context.Context, e *model.Employee) (employeeView, error) {
	v := employeeView{Employee: e}
	var err error
	if e.CreatedBy != "" {
		if v.CreatedBy, err = p.user(ctx, e.CreatedBy); err != nil {
			return v, err
		}
	}
	if e.UpdatedBy != nil && *e.UpdatedBy != "" {
		if v.UpdatedBy, err = p.user(ctx, *e.UpdatedBy); err != nil {
			return v, err
		}
	}
	return v, nil
}

func (p *presenter) employees(ctx context.Context, recs []*model.Employee) ([]employeeView, error) {
	out := make([]employeeView, 0, len(recs))
	for _, e := range recs {
		v, err := p.employee(ctx, e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (p *presenter) connection(ctx context.Context, conn *query.Connection) (connectionView, error) {
	out := connectionView{Edges: make([]edgeView, 0, len(conn.Edges)), PageInfo: conn.PageInfo, TotalCount: conn.TotalCount}
	for _, edge := range conn.Edges {
		v, err := p.employee(ctx, edge.Node)
		if err != nil {
			return out, err
		}
		out.Edges = append(out.Edges, edgeView{Node: v, Cursor: edge.Cursor})
	}
	return out, nil
}
