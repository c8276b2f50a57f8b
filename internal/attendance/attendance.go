// Package attendance builds and edits the attendance entries embedded in an employee.
package attendance

import (
	"math"
	"time"

	"github.com/google/uuid"

	"roster/internal/apperr"
	"roster/internal/model"
	"roster/internal/validate"
)

// Input is the payload for adding or replacing one day of attendance.
type Input struct {
	Date        *time.Time             `json:"date" validate:"required"`
	Status      model.AttendanceStatus `json:"status" validate:"required,oneof=PRESENT ABSENT LATE HALF_DAY"`
	CheckIn     *time.Time             `json:"checkIn"`
	CheckOut    *time.Time             `json:"checkOut"`
	HoursWorked *float64               `json:"hoursWorked" validate:"omitempty,gte=0,lte=24"`
}

// New validates in and returns a fresh entry.
func New(in Input) (model.Attendance, error) {
	if err := validate.Struct(&in); err != nil {
		return model.Attendance{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return model.Attendance{}, apperr.Store("generate id", err)
	}
	a := model.Attendance{ID: id.String()}
	if err := apply(&a, in); err != nil {
		return model.Attendance{}, err
	}
	return a, nil
}

// Update merges in into the entry. Date and status are replaced; check times
// and hours are replaced only when given.
func Update(a *model.Attendance, in Input) error {
	if err := validate.Struct(&in); err != nil {
		return err
	}
	return apply(a, in)
}

func apply(a *model.Attendance, in Input) error {
	a.Date = in.Date.UTC().Truncate(time.Millisecond)
	a.Status = in.Status
	if in.CheckIn != nil {
		a.CheckIn = utc(in.CheckIn)
	}
	if in.CheckOut != nil {
		a.CheckOut = utc(in.CheckOut)
	}
	if a.CheckIn != nil && a.CheckOut != nil && a.CheckOut.Before(*a.CheckIn) {
		return apperr.Validation("validation failed", "checkOut must not be before checkIn")
	}
	switch {
	case in.HoursWorked != nil:
		h := *in.HoursWorked
		a.HoursWorked = &h
	case in.CheckIn != nil || in.CheckOut != nil:
		a.HoursWorked = Hours(a.CheckIn, a.CheckOut)
	}
	return nil
}

// Hours is the time between check-in and check-out rounded to two decimals, or
// nil when either is missing.
func Hours(in, out *time.Time) *float64 {
	if in == nil || out == nil {
		return nil
	}
	h := math.Round(out.Sub(*in).Hours()*100) / 100
	return &h
}

func utc(t *time.Time) *time.Time {
	v := t.UTC().Truncate(time.Millisecond)
	return &v
}
