package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/maxviazov/user-records-service/internal/model"
	"github.com/maxviazov/user-records-service/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// userDocument is the stored shape; model.User stays free of driver types.
type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Age       int                `bson:"age"`
	Email     string             `bson:"email"`
	Address   string             `bson:"address"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d userDocument) toModel() model.User {
	return model.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Age:       d.Age,
		Email:     d.Email,
		Address:   d.Address,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type userRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewUserRepository(db *mongo.Database, collection string) repository.UserRepository {
	return &userRepository{
		coll: db.Collection(collection),
		// mongo stores milliseconds; truncate so returned values round-trip
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the unique email index that backs the uniqueness invariant.
func EnsureIndexes(ctx context.Context, db *mongo.Database, collection string) error {
	_, err := db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

// buildFilter translates f into a query document. The search text is quoted so
// it matches literally; the "i" option makes it case-insensitive.
func buildFilter(f repository.UserFilter) bson.M {
	if f.MatchAll() {
		return bson.M{}
	}
	re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
	return bson.M{"$or": bson.A{
		bson.M{"name": re},
		bson.M{"email": re},
		bson.M{"address": re},
	}}
}

// mapError translates driver errors to repository sentinels.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrAlreadyExists
	default:
		return err
	}
}

func (r *userRepository) Find(ctx context.Context, f repository.UserFilter, w repository.Window) ([]model.User, error) {
	// ObjectIDs grow with insertion time, so _id order is stable across pages
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetSkip(w.Skip).
		SetLimit(int64(w.Limit))
	cur, err := r.coll.Find(ctx, buildFilter(f), opts)
	if err != nil {
		return nil, mapError(err)
	}
	defer cur.Close(ctx)

	out := make([]model.User, 0, w.Limit)
	for cur.Next(ctx) {
		var doc userDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (r *userRepository) Count(ctx context.Context, f repository.UserFilter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, buildFilter(f))
	if err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func (r *userRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	now := r.now()
	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Name:      u.Name,
		Age:       u.Age,
		Email:     u.Email,
		Address:   u.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return model.User{}, mapError(err)
	}
	return doc.toModel(), nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// a malformed id cannot name any stored document
		return model.User{}, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (model.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return model.User{}, mapError(err)
	}
	return doc.toModel(), nil
}

func (r *userRepository) Update(ctx context.Context, id string, p model.UserPatch) (model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.User{}, repository.ErrNotFound
	}
	set := bson.M{"updated_at": r.now()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Age != nil {
		set["age"] = *p.Age
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Address != nil {
		set["address"] = *p.Address
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		return model.User{}, mapError(err)
	}
	return doc.toModel(), nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return mapError(err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*userRepository)(nil)
