package mongostore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"roster/internal/apperr"
	"roster/internal/model"
)

// Users persists accounts in the users collection.
type Users struct {
	coll *mongo.Collection
}

func NewUsers(db *mongo.Database) *Users {
	return &Users{coll: db.Collection("users")}
}

func (s *Users) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

func (s *Users) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.coll.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.AlreadyExists("user")
	}
	return err
}

func (s *Users) UserByID(ctx context.Context, id string) (*model.User, error) {
	return s.one(ctx, bson.M{"_id": id})
}

func (s *Users) UserByLogin(ctx context.Context, login string) (*model.User, error) {
	return s.one(ctx, bson.M{"$or": bson.A{
		bson.M{"username": login},
		bson.M{"email": exactFold(login)},
	}})
}

func (s *Users) UserExists(ctx context.Context, username, email string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"$or": bson.A{
		bson.M{"username": exactFold(username)},
		bson.M{"email": exactFold(email)},
	}}, options.Count().SetLimit(1))
	return n > 0, err
}

func (s *Users) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"lastLogin": at, "updatedAt": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

func (s *Users) one(ctx context.Context, filter any) (*model.User, error) {
	var u model.User
	err := s.coll.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func exactFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

// Audit appends to the audit collection.
type Audit struct {
	coll *mongo.Collection
}

func NewAudit(db *mongo.Database) *Audit {
	return &Audit{coll: db.Collection("audit")}
}

// Record upserts on the entry id so redelivered events are harmless.
func (a *Audit) Record(ctx context.Context, e model.AuditEntry) error {
	_, err := a.coll.UpdateByID(ctx, e.ID, bson.M{"$setOnInsert": bson.M{
		"type":       e.Type,
		"employeeId": e.EmployeeID,
		"actorId":    e.ActorID,
		"at":         e.At,
	}}, options.Update().SetUpsert(true))
	return err
}
