// Package mongostore keeps employees, users and audit entries in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"roster/internal/apperr"
	"roster/internal/model"
	"roster/internal/query"
)

const sortKey = "_sortKey"

// optional fields are read through $ifNull so missing values order like the zero value.
var optional = map[string]any{
	model.FieldDepartment: "",
	model.FieldPosition:   "",
	model.FieldSalary:     0.0,
}

type employeeDoc struct {
	ID          string             `bson:"_id"`
	EmployeeID  string             `bson:"employeeId"`
	Name        string             `bson:"name"`
	Age         int                `bson:"age"`
	Class       string             `bson:"class"`
	Subjects    []string           `bson:"subjects"`
	Attendance  []model.Attendance `bson:"attendance"`
	Salary      *float64           `bson:"salary"`
	Department  *string            `bson:"department"`
	Position    *string            `bson:"position"`
	HireDate    time.Time          `bson:"hireDate"`
	ContactInfo *model.ContactInfo `bson:"contactInfo,omitempty"`
	IsActive    bool               `bson:"isActive"`
	CreatedBy   string             `bson:"createdBy"`
	UpdatedBy   *string            `bson:"updatedBy"`
	Version     int64              `bson:"version"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func toDoc(e *model.Employee) employeeDoc {
	subjects := e.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	attendance := e.Attendance
	if attendance == nil {
		attendance = []model.Attendance{}
	}
	return employeeDoc{
		ID: e.ID, EmployeeID: e.EmployeeID, Name: e.Name, Age: e.Age, Class: e.Class,
		Subjects: subjects, Attendance: attendance, Salary: e.Salary, Department: e.Department,
		Position: e.Position, HireDate: e.HireDate, ContactInfo: e.ContactInfo, IsActive: e.IsActive,
		CreatedBy: e.CreatedBy, UpdatedBy: e.UpdatedBy, Version: e.Version,
		CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
	}
}

func (d employeeDoc) model() *model.Employee {
	return &model.Employee{
		ID: d.ID, EmployeeID: d.EmployeeID, Name: d.Name, Age: d.Age, Class: d.Class,
		Subjects: d.Subjects, Attendance: d.Attendance, Salary: d.Salary, Department: d.Department,
		Position: d.Position, HireDate: d.HireDate, ContactInfo: d.ContactInfo, IsActive: d.IsActive,
		CreatedBy: d.CreatedBy, UpdatedBy: d.UpdatedBy, Version: d.Version,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

// Employees is a query.RecordStore over the employees collection.
type Employees struct {
	coll *mongo.Collection
}

func NewEmployees(db *mongo.Database) *Employees {
	return &Employees{coll: db.Collection("employees")}
}

// EnsureIndexes creates the unique and query indexes.
func (s *Employees) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "employeeId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "class", Value: 1}, {Key: "isActive", Value: 1}}},
		{Keys: bson.D{{Key: "department", Value: 1}, {Key: "isActive", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}},
	})
	return err
}

func path(field string) (string, error) {
	if _, ok := (&model.Employee{}).Field(field); !ok {
		return "", fmt.Errorf("unknown field %q", field)
	}
	if field == model.FieldID {
		return "_id", nil
	}
	return field, nil
}

// valueExpr is the aggregation expression reading field.
func valueExpr(field string) (any, error) {
	p, err := path(field)
	if err != nil {
		return nil, err
	}
	if zero, ok := optional[field]; ok {
		return bson.D{{Key: "$ifNull", Value: bson.A{"$" + p, zero}}}, nil
	}
	return "$" + p, nil
}

func buildFilter(p query.Predicate) (bson.D, error) {
	var and bson.A
	for _, c := range p.Constraints() {
		switch c.Op {
		case query.OpEq:
			f, err := path(c.Field)
			if err != nil {
				return nil, err
			}
			if zero, ok := optional[c.Field]; ok && c.Value == zero {
				and = append(and, bson.D{{Key: f, Value: bson.D{{Key: "$in", Value: bson.A{nil, zero}}}}})
				continue
			}
			and = append(and, bson.D{{Key: f, Value: c.Value}})
		case query.OpContains:
			f, err := path(c.Field)
			if err != nil {
				return nil, err
			}
			and = append(and, bson.D{{Key: f, Value: containsRegex(c.Value)}})
		case query.OpRange:
			f, err := path(c.Field)
			if err != nil {
				return nil, err
			}
			r := bson.D{}
			if c.Min != nil {
				r = append(r, bson.E{Key: "$gte", Value: *c.Min})
			}
			if c.Max != nil {
				r = append(r, bson.E{Key: "$lte", Value: *c.Max})
			}
			if len(r) > 0 {
				and = append(and, bson.D{{Key: f, Value: r}})
			}
		case query.OpAnyContains:
			var or bson.A
			for _, field := range c.Fields {
				f, err := path(field)
				if err != nil {
					return nil, err
				}
				or = append(or, bson.D{{Key: f, Value: containsRegex(c.Value)}})
			}
			and = append(and, bson.D{{Key: "$or", Value: or}})
		default:
			return nil, fmt.Errorf("unsupported constraint %q", c.Op)
		}
	}
	if len(and) == 0 {
		return bson.D{}, nil
	}
	return bson.D{{Key: "$and", Value: and}}, nil
}

func containsRegex(v any) primitive.Regex {
	s, _ := v.(string)
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func direction(desc bool) int {
	if desc {
		return -1
	}
	return 1
}

// pipeline sorts on a computed key so optional fields order like their zero
// value, then applies the keyset bound on (key, _id).
func pipeline(filter bson.D, opts query.FindOptions) (mongo.Pipeline, error) {
	orders := query.EffectiveOrders(opts)
	expr, err := valueExpr(orders[0].Field)
	if err != nil {
		return nil, err
	}

	pl := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$addFields", Value: bson.D{{Key: sortKey, Value: expr}}}},
	}
	if opts.After != nil {
		op := func(o query.Order) string {
			if o.Desc {
				return "$lt"
			}
			return "$gt"
		}
		pl = append(pl, bson.D{{Key: "$match", Value: bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: sortKey, Value: bson.D{{Key: op(orders[0]), Value: opts.After.Value}}}},
			bson.D{
				{Key: sortKey, Value: opts.After.Value},
				{Key: "_id", Value: bson.D{{Key: op(orders[1]), Value: opts.After.ID}}},
			},
		}}}}})
	}
	pl = append(pl, bson.D{{Key: "$sort", Value: bson.D{
		{Key: sortKey, Value: direction(orders[0].Desc)},
		{Key: "_id", Value: direction(orders[1].Desc)},
	}}})
	if opts.Limit > 0 {
		pl = append(pl, bson.D{{Key: "$limit", Value: opts.Limit}})
	}
	return append(pl, bson.D{{Key: "$project", Value: bson.D{{Key: sortKey, Value: 0}}}}), nil
}

func (s *Employees) Find(ctx context.Context, p query.Predicate, opts query.FindOptions) ([]*model.Employee, error) {
	filter, err := buildFilter(p)
	if err != nil {
		return nil, err
	}
	pl, err := pipeline(filter, opts)
	if err != nil {
		return nil, err
	}

	cur, err := s.coll.Aggregate(ctx, pl)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []employeeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*model.Employee, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (s *Employees) Count(ctx context.Context, p query.Predicate) (int64, error) {
	filter, err := buildFilter(p)
	if err != nil {
		return 0, err
	}
	return s.coll.CountDocuments(ctx, filter)
}

func (s *Employees) AggregateGroupBy(ctx context.Context, p query.Predicate, field string) ([]query.GroupCount, error) {
	filter, err := buildFilter(p)
	if err != nil {
		return nil, err
	}
	f, err := path(field)
	if err != nil {
		return nil, err
	}
	cur, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: "$" + f}, {Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		Key   any   `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]query.GroupCount, 0, len(rows))
	for _, r := range rows {
		key := ""
		if r.Key != nil {
			key = fmt.Sprint(r.Key)
		}
		out = append(out, query.GroupCount{Key: key, Count: r.Count})
	}
	return out, nil
}

func (s *Employees) AggregateAverage(ctx context.Context, p query.Predicate, field string) (float64, error) {
	filter, err := buildFilter(p)
	if err != nil {
		return 0, err
	}
	f, err := path(field)
	if err != nil {
		return 0, err
	}
	cur, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{{Key: "_id", Value: nil}, {Key: "avg", Value: bson.D{{Key: "$avg", Value: "$" + f}}}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		Avg *float64 `bson:"avg"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 || rows[0].Avg == nil {
		return 0, nil
	}
	return *rows[0].Avg, nil
}

func (s *Employees) FindByID(ctx context.Context, id string) (*model.Employee, error) {
	return s.FindByUniqueField(ctx, model.FieldID, id)
}

func (s *Employees) FindByUniqueField(ctx context.Context, field string, value any) (*model.Employee, error) {
	if field != model.FieldID && field != model.FieldEmployeeID {
		return nil, fmt.Errorf("field %q is not unique", field)
	}
	f, _ := path(field)
	var d employeeDoc
	err := s.coll.FindOne(ctx, bson.M{f: value}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d.model(), nil
}

func (s *Employees) Persist(ctx context.Context, rec *model.Employee) (*model.Employee, error) {
	doc := toDoc(rec)
	doc.Version = rec.Version + 1

	if rec.Version == 0 {
		if _, err := s.coll.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, apperr.AlreadyExists("employee ID")
			}
			return nil, err
		}
		return doc.model(), nil
	}

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID, "version": rec.Version}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.AlreadyExists("employee ID")
		}
		return nil, err
	}
	if res.MatchedCount == 0 {
		cur, err := s.FindByID(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		if cur == nil {
			return nil, apperr.NotFound("employee")
		}
		return nil, apperr.Conflict("employee was modified concurrently", nil)
	}
	return doc.model(), nil
}

func (s *Employees) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
