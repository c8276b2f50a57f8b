// Package policy decides what an actor may do with employee records. Reads are
// narrowed by rewriting the query predicate; writes are allowed or denied.
package policy

import (
	"roster/internal/apperr"
	"roster/internal/metrics"
	"roster/internal/model"
	"roster/internal/query"
)

// Operation is a protected employee operation.
type Operation string

const (
	OpList       Operation = "list"
	OpGet        Operation = "get"
	OpSearch     Operation = "search"
	OpStats      Operation = "stats"
	OpCreate     Operation = "create"
	OpUpdate     Operation = "update"
	OpDelete     Operation = "delete"
	OpAttendance Operation = "attendance"
)

type kind int

const (
	kindRead kind = iota
	kindReport
	kindWrite
)

var kinds = map[Operation]kind{
	OpList:       kindRead,
	OpGet:        kindRead,
	OpSearch:     kindRead,
	OpStats:      kindReport,
	OpCreate:     kindWrite,
	OpUpdate:     kindWrite,
	OpDelete:     kindWrite,
	OpAttendance: kindWrite,
}

type rule struct {
	allow      bool
	activeOnly bool
}

var table = map[model.Role]map[kind]rule{
	model.RoleAdmin: {
		kindRead:   {allow: true},
		kindReport: {allow: true},
		kindWrite:  {allow: true},
	},
	model.RoleEmployee: {
		kindRead: {allow: true, activeOnly: true},
	},
}

// Authorize returns pred narrowed for actor, or the denial.
func Authorize(actor *model.Actor, op Operation, pred query.Predicate) (query.Predicate, error) {
	r, err := lookup(actor, op)
	if err != nil {
		return query.Predicate{}, err
	}
	if r.activeOnly {
		pred = pred.And(query.Eq(model.FieldIsActive, true))
	}
	return pred, nil
}

// CheckVisible re-applies the read restriction to a record fetched by
// identifier. A hidden record is AccessDenied rather than NotFound.
func CheckVisible(actor *model.Actor, rec *model.Employee) error {
	r, err := lookup(actor, OpGet)
	if err != nil {
		return err
	}
	if r.activeOnly && !rec.IsActive {
		metrics.Denied(apperr.KindAccessDenied.String())
		return apperr.AccessDenied()
	}
	return nil
}

func lookup(actor *model.Actor, op Operation) (rule, error) {
	if actor == nil || actor.ID == "" || !actor.IsActive {
		metrics.Denied(apperr.KindAuthenticationRequired.String())
		return rule{}, apperr.AuthenticationRequired()
	}
	k, ok := kinds[op]
	if !ok {
		metrics.Denied(apperr.KindInsufficientRole.String())
		return rule{}, apperr.InsufficientRole("admin")
	}
	r, ok := table[actor.Role][k]
	if !ok || !r.allow {
		metrics.Denied(apperr.KindInsufficientRole.String())
		return rule{}, apperr.InsufficientRole("admin")
	}
	return r, nil
}
