// Package employee implements the employee operations: role-scoped reads over
// the query engine and version-checked writes that emit change events.
package employee

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"roster/internal/apperr"
	"roster/internal/attendance"
	"roster/internal/loader"
	"roster/internal/model"
	"roster/internal/policy"
	"roster/internal/query"
	"roster/internal/queue"
	"roster/internal/validate"
)

// Publisher receives change events after a write commits.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// Service coordinates policy, query engine and store for employee records.
type Service struct {
	store  query.RecordStore
	pager  *query.Paginator
	agg    *query.Aggregator
	events Publisher
	log    logrus.FieldLogger
	now    func() time.Time
}

// NewService wires a service. A nil publisher disables change events.
func NewService(store query.RecordStore, pager *query.Paginator, events Publisher, log logrus.FieldLogger) *Service {
	return &Service{
		store:  store,
		pager:  pager,
		agg:    query.NewAggregator(store),
		events: events,
		log:    log,
		now:    time.Now,
	}
}

// Loader returns a request-scoped record loader.
func (s *Service) Loader() *loader.Loader[model.Employee] {
	return loader.New[model.Employee](func(ctx context.Context, id string) (*model.Employee, error) {
		return s.store.FindByID(ctx, id)
	})
}

// List returns one page of the employees visible to actor.
func (s *Service) List(ctx context.Context, actor *model.Actor, records *loader.Loader[model.Employee],
	f *query.Filter, sort *query.SortRequest, w query.Window) (*query.Connection, error) {
	spec := query.Build(f, sort)
	pred, err := policy.Authorize(actor, policy.OpList, spec.Predicate)
	if err != nil {
		return nil, err
	}
	return s.pager.Paginate(ctx, records, spec.WithPredicate(pred), w)
}

// Search matches term against the text fields, newest first.
func (s *Service) Search(ctx context.Context, actor *model.Actor, term string, limit int) ([]*model.Employee, error) {
	spec := query.BuildSearch(term)
	pred, err := policy.Authorize(actor, policy.OpSearch, spec.Predicate)
	if err != nil {
		return nil, err
	}
	return s.pager.Fetch(ctx, spec.WithPredicate(pred), limit)
}

// Stats summarizes the whole collection. Reporting is ADMIN only.
func (s *Service) Stats(ctx context.Context, actor *model.Actor) (*query.Stats, error) {
	pred, err := policy.Authorize(actor, policy.OpStats, query.Universal())
	if err != nil {
		return nil, err
	}
	return s.agg.Stats(ctx, pred)
}

// Get fetches one employee by record id.
func (s *Service) Get(ctx context.Context, actor *model.Actor, records *loader.Loader[model.Employee], id string) (*model.Employee, error) {
	if _, err := policy.Authorize(actor, policy.OpGet, query.Universal()); err != nil {
		return nil, err
	}
	rec, err := records.Load(ctx, id)
	if err != nil {
		return nil, apperr.Store("find employee", err)
	}
	return visible(actor, rec)
}

// GetByEmployeeID fetches one employee by its business identifier.
func (s *Service) GetByEmployeeID(ctx context.Context, actor *model.Actor, records *loader.Loader[model.Employee], employeeID string) (*model.Employee, error) {
	if _, err := policy.Authorize(actor, policy.OpGet, query.Universal()); err != nil {
		return nil, err
	}
	rec, err := s.store.FindByUniqueField(ctx, model.FieldEmployeeID, employeeID)
	if err != nil {
		return nil, apperr.Store("find employee", err)
	}
	if rec != nil {
		records.Prime(rec.ID, rec)
	}
	return visible(actor, rec)
}

func visible(actor *model.Actor, rec *model.Employee) (*model.Employee, error) {
	if rec == nil {
		return nil, apperr.NotFound("employee")
	}
	if err := policy.CheckVisible(actor, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Create stores a new employee owned by actor.
func (s *Service) Create(ctx context.Context, actor *model.Actor, in CreateInput) (*model.Employee, error) {
	if _, err := policy.Authorize(actor, policy.OpCreate, query.Universal()); err != nil {
		return nil, err
	}
	in.normalize()
	if err := validate.Struct(&in); err != nil {
		return nil, err
	}
	existing, err := s.store.FindByUniqueField(ctx, model.FieldEmployeeID, in.EmployeeID)
	if err != nil {
		return nil, apperr.Store("check employee ID", err)
	}
	if existing != nil {
		return nil, apperr.AlreadyExists("employee ID")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperr.Store("generate id", err)
	}
	now := s.stamp()
	rec := &model.Employee{
		ID:          id.String(),
		EmployeeID:  in.EmployeeID,
		Name:        in.Name,
		Age:         in.Age,
		Class:       in.Class,
		Subjects:    in.Subjects,
		Attendance:  []model.Attendance{},
		Salary:      in.Salary,
		Department:  in.Department,
		Position:    in.Position,
		HireDate:    now,
		ContactInfo: in.ContactInfo.model(),
		IsActive:    true,
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.HireDate != nil {
		rec.HireDate = in.HireDate.UTC().Truncate(time.Millisecond)
	}
	if in.IsActive != nil {
		rec.IsActive = *in.IsActive
	}
	return s.persist(ctx, actor, rec, queue.EmployeeCreated)
}

// Update applies the set fields of in to the employee.
func (s *Service) Update(ctx context.Context, actor *model.Actor, id string, in UpdateInput) (*model.Employee, error) {
	if _, err := policy.Authorize(actor, policy.OpUpdate, query.Universal()); err != nil {
		return nil, err
	}
	in.normalize()
	if err := validate.Struct(&in); err != nil {
		return nil, err
	}
	if in.Subjects != nil && len(in.Subjects) == 0 {
		return nil, apperr.Validation("validation failed", "subjects must contain at least 1 item")
	}
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Version != nil && *in.Version != rec.Version {
		return nil, apperr.Conflict("employee was modified concurrently", nil)
	}
	in.apply(rec)
	return s.touch(ctx, actor, rec, queue.EmployeeUpdated)
}

// Delete removes the employee. It reports NotFound when there was nothing to delete.
func (s *Service) Delete(ctx context.Context, actor *model.Actor, id string) (bool, error) {
	if _, err := policy.Authorize(actor, policy.OpDelete, query.Universal()); err != nil {
		return false, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return false, err
	}
	ok, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return false, apperr.Store("delete employee", err)
	}
	if !ok {
		return false, apperr.NotFound("employee")
	}
	s.publish(ctx, actor, queue.EmployeeDeleted, id)
	return true, nil
}

// AddAttendance appends one attendance entry.
func (s *Service) AddAttendance(ctx context.Context, actor *model.Actor, id string, in attendance.Input) (*model.Employee, error) {
	if _, err := policy.Authorize(actor, policy.OpAttendance, query.Universal()); err != nil {
		return nil, err
	}
	entry, err := attendance.New(in)
	if err != nil {
		return nil, err
	}
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Attendance = append(rec.Attendance, entry)
	return s.touch(ctx, actor, rec, queue.AttendanceAdded)
}

// UpdateAttendance replaces one attendance entry of the employee.
func (s *Service) UpdateAttendance(ctx context.Context, actor *model.Actor, id, attendanceID string, in attendance.Input) (*model.Employee, error) {
	if _, err := policy.Authorize(actor, policy.OpAttendance, query.Universal()); err != nil {
		return nil, err
	}
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	i := rec.AttendanceByID(attendanceID)
	if i < 0 {
		return nil, apperr.NotFound("attendance record")
	}
	if err := attendance.Update(&rec.Attendance[i], in); err != nil {
		return nil, err
	}
	return s.touch(ctx, actor, rec, queue.AttendanceUpdated)
}

func (s *Service) load(ctx context.Context, id string) (*model.Employee, error) {
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Store("find employee", err)
	}
	if rec == nil {
		return nil, apperr.NotFound("employee")
	}
	return rec, nil
}

// touch stamps the mutating actor and writes rec back under its loaded version.
func (s *Service) touch(ctx context.Context, actor *model.Actor, rec *model.Employee, event string) (*model.Employee, error) {
	by := actor.ID
	rec.UpdatedBy = &by
	rec.UpdatedAt = s.stamp()
	return s.persist(ctx, actor, rec, event)
}

func (s *Service) persist(ctx context.Context, actor *model.Actor, rec *model.Employee, event string) (*model.Employee, error) {
	stored, err := s.store.Persist(ctx, rec)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			s.log.WithFields(logrus.Fields{"employee_id": rec.ID, "version": rec.Version}).Info("write rejected")
		}
		return nil, apperr.Store("persist employee", err)
	}
	s.publish(ctx, actor, event, stored.ID)
	return stored, nil
}

// publish is best effort; the write has already committed.
func (s *Service) publish(ctx context.Context, actor *model.Actor, eventType, employeeID string) {
	if s.events == nil {
		return
	}
	id, err := uuid.NewV7()
	if err != nil {
		s.log.WithError(err).Warn("change event id")
		return
	}
	ev := queue.Event{ID: id.String(), Type: eventType, EmployeeID: employeeID, ActorID: actor.ID, At: s.stamp()}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"type": eventType, "employee_id": employeeID}).Warn("publish change event")
	}
}

func (s *Service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}
