package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/Shrot8546/EventVgo/internal/mongodb"
)

const (
	usersCollection  = "users"
	eventsCollection = "events"
	ordersCollection = "orders"
)

type mongoRepository struct {
	conn *mongodb.Connector
}

// NewMongoRepository creates a Mongo-backed user repository. The database
// handle is resolved through the connector on every call, so a deployment
// whose database was unreachable at startup recovers on the next request.
func NewMongoRepository(conn *mongodb.Connector) Repository {
	return &mongoRepository{conn: conn}
}

// EnsureIndexes creates the unique indexes backing the clerkId and email
// invariants. Registered as the connector's onConnect hook; safe to run on
// every dial.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "clerkId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

func (r *mongoRepository) Create(ctx context.Context, u User) (User, error) {
	db, err := r.conn.Database(ctx)
	if err != nil {
		return User{}, err
	}

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}

	if _, err := db.Collection(usersCollection).InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return User{}, &DuplicateKeyError{Field: duplicateKeyField(err)}
		}
		return User{}, err
	}
	return u, nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return User{}, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoRepository) GetByClerkID(ctx context.Context, clerkID string) (User, error) {
	return r.findOne(ctx, bson.M{"clerkId": clerkID})
}

func (r *mongoRepository) Update(ctx context.Context, clerkID string, upd UpdateInput) (User, error) {
	db, err := r.conn.Database(ctx)
	if err != nil {
		return User{}, err
	}

	update := bson.M{"$set": bson.M{
		"username":  upd.Username,
		"firstName": upd.FirstName,
		"lastName":  upd.LastName,
		"photo":     upd.Photo,
		"updatedAt": time.Now().UTC(),
	}}

	var updated User
	err = db.Collection(usersCollection).FindOneAndUpdate(ctx, bson.M{"clerkId": clerkID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return updated, nil
}

// Delete removes the user and every reference to it. The two reference
// cleanups run concurrently, then the row itself is removed. The three writes
// are not transactional: a crash mid-way leaves the cleanup partially applied
// and the row intact for a redelivered webhook to finish.
func (r *mongoRepository) Delete(ctx context.Context, clerkID string) (User, error) {
	db, err := r.conn.Database(ctx)
	if err != nil {
		return User{}, err
	}

	u, err := r.findOne(ctx, bson.M{"clerkId": clerkID})
	if err != nil {
		return User{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(u.Events) == 0 {
			return nil
		}
		_, err := db.Collection(eventsCollection).UpdateMany(gctx,
			bson.M{"_id": bson.M{"$in": u.Events}},
			bson.M{"$pull": bson.M{"organizer": u.ID}})
		return err
	})
	g.Go(func() error {
		if len(u.Orders) == 0 {
			return nil
		}
		_, err := db.Collection(ordersCollection).UpdateMany(gctx,
			bson.M{"_id": bson.M{"$in": u.Orders}},
			bson.M{"$unset": bson.M{"buyer": ""}})
		return err
	})
	if err := g.Wait(); err != nil {
		return User{}, err
	}

	// A row that vanished between the lookup and this point still counts as
	// deleted; the copy loaded above is returned either way.
	if _, err := db.Collection(usersCollection).DeleteOne(ctx, bson.M{"_id": u.ID}); err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *mongoRepository) findOne(ctx context.Context, filter bson.M) (User, error) {
	db, err := r.conn.Database(ctx)
	if err != nil {
		return User{}, err
	}

	var u User
	err = db.Collection(usersCollection).FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// duplicateKeyField recovers the conflicting field from the server's
// duplicate-key message, which names the violated index (e.g. "clerkId_1").
func duplicateKeyField(err error) string {
	msg := err.Error()
	for _, field := range []string{"clerkId", "email"} {
		if strings.Contains(msg, field) {
			return field
		}
	}
	return "unknown"
}
