package model

import (
	"time"
)

// Role is the access level of an authenticated user.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// AttendanceStatus is the outcome recorded for one working day.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "PRESENT"
	StatusAbsent  AttendanceStatus = "ABSENT"
	StatusLate    AttendanceStatus = "LATE"
	StatusHalfDay AttendanceStatus = "HALF_DAY"
)

// Actor is the authenticated principal attached to a request.
type Actor struct {
	ID       string
	Role     Role
	IsActive bool
}

// User is an account that can log in and act on employees.
type User struct {
	ID           string     `json:"id" bson:"_id"`
	Username     string     `json:"username" bson:"username"`
	Email        string     `json:"email" bson:"email"`
	PasswordHash string     `json:"-" bson:"passwordHash"`
	Role         Role       `json:"role" bson:"role"`
	IsActive     bool       `json:"isActive" bson:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Actor returns the principal view of the user.
func (u *User) Actor() *Actor {
	return &Actor{ID: u.ID, Role: u.Role, IsActive: u.IsActive}
}

// ContactInfo holds optional contact details of an employee.
type ContactInfo struct {
	Email   *string `json:"email,omitempty" bson:"email,omitempty"`
	Phone   *string `json:"phone,omitempty" bson:"phone,omitempty"`
	Address *string `json:"address,omitempty" bson:"address,omitempty"`
}

// Attendance is one day of attendance owned by an employee.
type Attendance struct {
	ID          string           `json:"id" bson:"id"`
	Date        time.Time        `json:"date" bson:"date"`
	Status      AttendanceStatus `json:"status" bson:"status"`
	CheckIn     *time.Time       `json:"checkIn,omitempty" bson:"checkIn,omitempty"`
	CheckOut    *time.Time       `json:"checkOut,omitempty" bson:"checkOut,omitempty"`
	HoursWorked *float64         `json:"hoursWorked,omitempty" bson:"hoursWorked,omitempty"`
}

// Employee is the record managed by the service.
type Employee struct {
	ID          string       `json:"id"`
	EmployeeID  string       `json:"employeeId"`
	Name        string       `json:"name"`
	Age         int          `json:"age"`
	Class       string       `json:"class"`
	Subjects    []string     `json:"subjects"`
	Attendance  []Attendance `json:"attendance"`
	Salary      *float64     `json:"salary,omitempty"`
	Department  *string      `json:"department,omitempty"`
	Position    *string      `json:"position,omitempty"`
	HireDate    time.Time    `json:"hireDate"`
	ContactInfo *ContactInfo `json:"contactInfo,omitempty"`
	IsActive    bool         `json:"isActive"`
	CreatedBy   string       `json:"createdBy"`
	UpdatedBy   *string      `json:"updatedBy,omitempty"`
	Version     int64        `json:"version"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// AttendanceByID returns the index of the attendance entry with the given id, or -1.
func (e *Employee) AttendanceByID(id string) int {
	for i := range e.Attendance {
		if e.Attendance[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so stores never share slices or pointers with callers.
func (e *Employee) Clone() *Employee {
	if e == nil {
		return nil
	}
	out := *e
	out.Subjects = append([]string(nil), e.Subjects...)
	out.Attendance = make([]Attendance, len(e.Attendance))
	for i, a := range e.Attendance {
		out.Attendance[i] = a
		out.Attendance[i].CheckIn = cloneTime(a.CheckIn)
		out.Attendance[i].CheckOut = cloneTime(a.CheckOut)
		out.Attendance[i].HoursWorked = cloneFloat(a.HoursWorked)
	}
	out.Salary = cloneFloat(e.Salary)
	out.Department = cloneString(e.Department)
	out.Position = cloneString(e.Position)
	out.UpdatedBy = cloneString(e.UpdatedBy)
	if e.ContactInfo != nil {
		ci := ContactInfo{
			Email:   cloneString(e.ContactInfo.Email),
			Phone:   cloneString(e.ContactInfo.Phone),
			Address: cloneString(e.ContactInfo.Address),
		}
		out.ContactInfo = &ci
	}
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// AuditEntry records one change to an employee.
type AuditEntry struct {
	ID         string    `json:"id" bson:"_id"`
	Type       string    `json:"type" bson:"type"`
	EmployeeID string    `json:"employeeId" bson:"employeeId"`
	ActorID    string    `json:"actorId" bson:"actorId"`
	At         time.Time `json:"at" bson:"at"`
}
