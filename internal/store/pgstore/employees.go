package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"roster/internal/apperr"
	"roster/internal/model"
	"roster/internal/query"
)

// columns maps queryable fields to SQL expressions. Optional text and numeric
// columns are coalesced so ordering and keyset comparison agree on NULLs.
var columns = map[string]string{
	model.FieldID:         "id",
	model.FieldEmployeeID: "employee_id",
	model.FieldName:       "name",
	model.FieldAge:        "age",
	model.FieldClass:      "class",
	model.FieldDepartment: "COALESCE(department, '')",
	model.FieldPosition:   "COALESCE(position, '')",
	model.FieldSalary:     "COALESCE(salary, 0)",
	model.FieldIsActive:   "is_active",
	model.FieldHireDate:   "hire_date",
	model.FieldCreatedAt:  "created_at",
	model.FieldUpdatedAt:  "updated_at",
}

const employeeColumns = `id, employee_id, name, age, class, subjects, attendance, salary, department, position,
	hire_date, contact_info, is_active, created_by, updated_by, version, created_at, updated_at`

// Employees is a query.RecordStore over the employees table.
type Employees struct {
	db *sql.DB
}

func NewEmployees(db *sql.DB) *Employees {
	return &Employees{db: db}
}

func column(field string) (string, error) {
	col, ok := columns[field]
	if !ok {
		return "", fmt.Errorf("unknown field %q", field)
	}
	return col, nil
}

type where struct {
	clauses []string
	args    []any
}

func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *where) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func buildWhere(p query.Predicate) (*where, error) {
	w := &where{}
	for _, c := range p.Constraints() {
		switch c.Op {
		case query.OpEq:
			col, err := column(c.Field)
			if err != nil {
				return nil, err
			}
			w.clauses = append(w.clauses, col+" = "+w.arg(c.Value))
		case query.OpContains:
			col, err := column(c.Field)
			if err != nil {
				return nil, err
			}
			w.clauses = append(w.clauses, col+" ILIKE "+w.arg(likePattern(c.Value)))
		case query.OpRange:
			col, err := column(c.Field)
			if err != nil {
				return nil, err
			}
			if c.Min != nil {
				w.clauses = append(w.clauses, col+" >= "+w.arg(*c.Min))
			}
			if c.Max != nil {
				w.clauses = append(w.clauses, col+" <= "+w.arg(*c.Max))
			}
		case query.OpAnyContains:
			ph := w.arg(likePattern(c.Value))
			ors := make([]string, 0, len(c.Fields))
			for _, f := range c.Fields {
				col, err := column(f)
				if err != nil {
					return nil, err
				}
				ors = append(ors, col+" ILIKE "+ph)
			}
			w.clauses = append(w.clauses, "("+strings.Join(ors, " OR ")+")")
		default:
			return nil, fmt.Errorf("unsupported constraint %q", c.Op)
		}
	}
	return w, nil
}

func likePattern(v any) string {
	s, _ := v.(string)
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// findQuery builds the SELECT behind Find.
func findQuery(p query.Predicate, opts query.FindOptions) (string, []any, error) {
	w, err := buildWhere(p)
	if err != nil {
		return "", nil, err
	}
	orders := query.EffectiveOrders(opts)
	orderBy := make([]string, len(orders))
	for i, o := range orders {
		col, err := column(o.Field)
		if err != nil {
			return "", nil, err
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		orderBy[i] = col + " " + dir
	}
	if opts.After != nil {
		if err := keysetClause(w, orders, opts.After); err != nil {
			return "", nil, err
		}
	}

	q := "SELECT " + employeeColumns + " FROM employees" + w.sql() + " ORDER BY " + strings.Join(orderBy, ", ")
	if opts.Limit > 0 {
		q += " LIMIT " + w.arg(opts.Limit)
	}
	return q, w.args, nil
}

// keysetClause bounds w to rows strictly after pos under orders, which are the
// declared sort followed by the id tie-break.
func keysetClause(w *where, orders []query.Order, pos *query.Position) error {
	key, err := column(orders[0].Field)
	if err != nil {
		return err
	}
	tie, err := column(orders[1].Field)
	if err != nil {
		return err
	}
	cmp := func(o query.Order) string {
		if o.Desc {
			return " < "
		}
		return " > "
	}
	v := w.arg(pos.Value)
	id := w.arg(pos.ID)
	w.clauses = append(w.clauses, fmt.Sprintf("(%s%s%s OR (%s = %s AND %s%s%s))",
		key, cmp(orders[0]), v, key, v, tie, cmp(orders[1]), id))
	return nil
}

// Find runs a keyset query: rows strictly after opts.After in the effective order.
func (s *Employees) Find(ctx context.Context, p query.Predicate, opts query.FindOptions) ([]*model.Employee, error) {
	q, args, err := findQuery(p, opts)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.Employee
	for rows.Next() {
		rec, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Employees) Count(ctx context.Context, p query.Predicate) (int64, error) {
	w, err := buildWhere(p)
	if err != nil {
		return 0, err
	}
	var n int64
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM employees"+w.sql(), w.args...).Scan(&n)
	return n, err
}

func (s *Employees) AggregateGroupBy(ctx context.Context, p query.Predicate, field string) ([]query.GroupCount, error) {
	col, err := column(field)
	if err != nil {
		return nil, err
	}
	w, err := buildWhere(p)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT CAST("+col+" AS TEXT) AS key, COUNT(*) FROM employees"+w.sql()+" GROUP BY 1", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []query.GroupCount{}
	for rows.Next() {
		var gc query.GroupCount
		if err := rows.Scan(&gc.Key, &gc.Count); err != nil {
			return nil, err
		}
		out = append(out, gc)
	}
	return out, rows.Err()
}

func (s *Employees) AggregateAverage(ctx context.Context, p query.Predicate, field string) (float64, error) {
	col, err := column(field)
	if err != nil {
		return 0, err
	}
	w, err := buildWhere(p)
	if err != nil {
		return 0, err
	}
	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, "SELECT AVG("+col+")::float8 FROM employees"+w.sql(), w.args...).Scan(&avg); err != nil {
		return 0, err
	}
	return avg.Float64, nil
}

func (s *Employees) FindByID(ctx context.Context, id string) (*model.Employee, error) {
	return s.FindByUniqueField(ctx, model.FieldID, id)
}

func (s *Employees) FindByUniqueField(ctx context.Context, field string, value any) (*model.Employee, error) {
	if field != model.FieldID && field != model.FieldEmployeeID {
		return nil, fmt.Errorf("field %q is not unique", field)
	}
	col, _ := column(field)
	row := s.db.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE "+col+" = $1", value)
	rec, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// Persist inserts a new record (Version 0) or updates one whose stored version
// still matches.
func (s *Employees) Persist(ctx context.Context, rec *model.Employee) (*model.Employee, error) {
	subjects, attendance, contact, err := encodeDocs(rec)
	if err != nil {
		return nil, err
	}

	var row *sql.Row
	if rec.Version == 0 {
		row = s.db.QueryRowContext(ctx, `
			INSERT INTO employees (id, employee_id, name, age, class, subjects, attendance, salary, department, position,
				hire_date, contact_info, is_active, created_by, updated_by, version, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6::jsonb,$7::jsonb,$8,$9,$10,$11,$12::jsonb,$13,$14,$15,1,$16,$17)
			RETURNING `+employeeColumns,
			rec.ID, rec.EmployeeID, rec.Name, rec.Age, rec.Class, subjects, attendance, rec.Salary, rec.Department,
			rec.Position, rec.HireDate, contact, rec.IsActive, rec.CreatedBy, rec.UpdatedBy, rec.CreatedAt, rec.UpdatedAt)
	} else {
		row = s.db.QueryRowContext(ctx, `
			UPDATE employees SET name = $3, age = $4, class = $5, subjects = $6::jsonb, attendance = $7::jsonb,
				salary = $8, department = $9, position = $10, contact_info = $11::jsonb, is_active = $12,
				updated_by = $13, updated_at = $14, version = version + 1
			WHERE id = $1 AND version = $2
			RETURNING `+employeeColumns,
			rec.ID, rec.Version, rec.Name, rec.Age, rec.Class, subjects, attendance, rec.Salary, rec.Department,
			rec.Position, contact, rec.IsActive, rec.UpdatedBy, rec.UpdatedAt)
	}

	stored, err := scanEmployee(row)
	switch {
	case err == nil:
		return stored, nil
	case isUniqueViolation(err):
		return nil, apperr.AlreadyExists("employee ID")
	case errors.Is(err, sql.ErrNoRows):
		cur, ferr := s.FindByID(ctx, rec.ID)
		if ferr != nil {
			return nil, ferr
		}
		if cur == nil {
			return nil, apperr.NotFound("employee")
		}
		return nil, apperr.Conflict("employee was modified concurrently", nil)
	}
	return nil, err
}

func (s *Employees) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (*model.Employee, error) {
	var (
		rec                            model.Employee
		subjects, attendance, contact  []byte
		salary                         sql.NullFloat64
		department, position, updateBy sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.Name, &rec.Age, &rec.Class, &subjects, &attendance,
		&salary, &department, &position, &rec.HireDate, &contact, &rec.IsActive, &rec.CreatedBy, &updateBy,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(subjects, &rec.Subjects); err != nil {
		return nil, fmt.Errorf("decode subjects: %w", err)
	}
	if err := json.Unmarshal(attendance, &rec.Attendance); err != nil {
		return nil, fmt.Errorf("decode attendance: %w", err)
	}
	if len(contact) > 0 {
		rec.ContactInfo = &model.ContactInfo{}
		if err := json.Unmarshal(contact, rec.ContactInfo); err != nil {
			return nil, fmt.Errorf("decode contact info: %w", err)
		}
	}
	if salary.Valid {
		rec.Salary = &salary.Float64
	}
	if department.Valid {
		rec.Department = &department.String
	}
	if position.Valid {
		rec.Position = &position.String
	}
	if updateBy.Valid {
		rec.UpdatedBy = &updateBy.String
	}
	return &rec, nil
}

func encodeDocs(rec *model.Employee) (subjects, attendance string, contact *string, err error) {
	subj := rec.Subjects
	if subj == nil {
		subj = []string{}
	}
	att := rec.Attendance
	if att == nil {
		att = []model.Attendance{}
	}
	b, err := json.Marshal(subj)
	if err != nil {
		return "", "", nil, err
	}
	subjects = string(b)
	if b, err = json.Marshal(att); err != nil {
		return "", "", nil, err
	}
	attendance = string(b)
	if rec.ContactInfo != nil {
		if b, err = json.Marshal(rec.ContactInfo); err != nil {
			return "", "", nil, err
		}
		c := string(b)
		contact = &c
	}
	return subjects, attendance, contact, nil
}
