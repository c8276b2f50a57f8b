package model

// Queryable employee fields. Names match the public API and the document store.
const (
	FieldID         = "id"
	FieldEmployeeID = "employeeId"
	FieldName       = "name"
	FieldAge        = "age"
	FieldClass      = "class"
	FieldDepartment = "department"
	FieldPosition   = "position"
	FieldSalary     = "salary"
	FieldIsActive   = "isActive"
	FieldHireDate   = "hireDate"
	FieldCreatedAt  = "createdAt"
	FieldUpdatedAt  = "updatedAt"
)

// Field returns the value of a queryable field. Optional fields yield their
// zero value when unset so that every store orders them the same way.
func (e *Employee) Field(name string) (any, bool) {
	switch name {
	case FieldID:
		return e.ID, true
	case FieldEmployeeID:
		return e.EmployeeID, true
	case FieldName:
		return e.Name, true
	case FieldAge:
		return e.Age, true
	case FieldClass:
		return e.Class, true
	case FieldDepartment:
		return deref(e.Department), true
	case FieldPosition:
		return deref(e.Position), true
	case FieldSalary:
		if e.Salary == nil {
			return float64(0), true
		}
		return *e.Salary, true
	case FieldIsActive:
		return e.IsActive, true
	case FieldHireDate:
		return e.HireDate, true
	case FieldCreatedAt:
		return e.CreatedAt, true
	case FieldUpdatedAt:
		return e.UpdatedAt, true
	}
	return nil, false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
