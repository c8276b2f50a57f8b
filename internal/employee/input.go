package employee

import (
	"strings"
	"time"

	"roster/internal/model"
)

type ContactInput struct {
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" validate:"omitempty,max=30"`
	Address *string `json:"address" validate:"omitempty,max=200"`
}

func (c *ContactInput) model() *model.ContactInfo {
	if c == nil {
		return nil
	}
	info := &model.ContactInfo{Phone: trimmed(c.Phone), Address: trimmed(c.Address)}
	if e := trimmed(c.Email); e != nil {
		lower := strings.ToLower(*e)
		info.Email = &lower
	}
	return info
}

type CreateInput struct {
	EmployeeID  string        `json:"employeeId" validate:"required,max=50"`
	Name        string        `json:"name" validate:"required,min=2,max=100"`
	Age         int           `json:"age" validate:"required,gte=18,lte=100"`
	Class       string        `json:"class" validate:"required,max=100"`
	Subjects    []string      `json:"subjects" validate:"required,min=1,dive,required"`
	Salary      *float64      `json:"salary" validate:"omitempty,gte=0"`
	Department  *string       `json:"department" validate:"omitempty,max=100"`
	Position    *string       `json:"position" validate:"omitempty,max=100"`
	HireDate    *time.Time    `json:"hireDate"`
	ContactInfo *ContactInput `json:"contactInfo"`
	IsActive    *bool         `json:"isActive"`
}

func (in *CreateInput) normalize() {
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	in.Name = strings.TrimSpace(in.Name)
	in.Class = strings.TrimSpace(in.Class)
	in.Subjects = trimAll(in.Subjects)
	in.Department = trimmed(in.Department)
	in.Position = trimmed(in.Position)
}

// UpdateInput changes only the fields that are set. Version, when set, must
// match the stored version.
type UpdateInput struct {
	Name        *string       `json:"name" validate:"omitempty,min=2,max=100"`
	Age         *int          `json:"age" validate:"omitempty,gte=18,lte=100"`
	Class       *string       `json:"class" validate:"omitempty,min=1,max=100"`
	Subjects    []string      `json:"subjects" validate:"omitempty,dive,required"`
	Salary      *float64      `json:"salary" validate:"omitempty,gte=0"`
	Department  *string       `json:"department" validate:"omitempty,max=100"`
	Position    *string       `json:"position" validate:"omitempty,max=100"`
	ContactInfo *ContactInput `json:"contactInfo"`
	IsActive    *bool         `json:"isActive"`
	Version     *int64        `json:"version"`
}

func (in *UpdateInput) normalize() {
	in.Name = trimmed(in.Name)
	in.Class = trimmed(in.Class)
	in.Department = trimmed(in.Department)
	in.Position = trimmed(in.Position)
	if in.Subjects != nil {
		in.Subjects = trimAll(in.Subjects)
	}
}

func (in *UpdateInput) apply(e *model.Employee) {
	if in.Name != nil {
		e.Name = *in.Name
	}
	if in.Age != nil {
		e.Age = *in.Age
	}
	if in.Class != nil {
		e.Class = *in.Class
	}
	if in.Subjects != nil {
		e.Subjects = in.Subjects
	}
	if in.Salary != nil {
		s := *in.Salary
		e.Salary = &s
	}
	if in.Department != nil {
		e.Department = in.Department
	}
	if in.Position != nil {
		e.Position = in.Position
	}
	if in.ContactInfo != nil {
		e.ContactInfo = in.ContactInfo.model()
	}
	if in.IsActive != nil {
		e.IsActive = *in.IsActive
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
