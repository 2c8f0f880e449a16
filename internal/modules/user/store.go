// README: User store backed by MongoDB.
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

type MongoStore struct {
	c *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{c: db.Collection("users")}
}

func (s *MongoStore) Create(ctx context.Context, u *User) error {
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return storeErr(err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id types.ID) (*User, error) {
	var u User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &u, nil
}

func (s *MongoStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &u, nil
}

func (s *MongoStore) ListByRegistrationStatus(ctx context.Context, st RegistrationStatus) ([]User, error) {
	cur, err := s.c.Find(ctx, bson.M{"registrationStatus": st},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, storeErr(err)
	}
	var out []User
	if err := cur.All(ctx, &out); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

// SetRegistrationStatus is last-write-wins: concurrent admin decisions for the
// same user are not merged.
func (s *MongoStore) SetRegistrationStatus(ctx context.Context, id types.ID, st RegistrationStatus) (*User, error) {
	after := options.After
	var u User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"registrationStatus": st, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(after),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &u, nil
}

// ClaimDriver atomically flips a driver from a non-BUSY truck status to BUSY.
// It is the serialization point for the one-mission-per-driver invariant:
// exactly one concurrent claim can observe a non-BUSY status.
func (s *MongoStore) ClaimDriver(ctx context.Context, id types.ID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":                        id,
			"role":                       RoleDriver,
			"truckDetails.currentStatus": bson.M{"$ne": TruckBusy},
		},
		bson.M{"$set": bson.M{"truckDetails.currentStatus": TruckBusy, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, storeErr(err)
	}
	return res.ModifiedCount == 1, nil
}

// ReleaseDriver reverts a driver to READY. The driver stays in the live
// registry; going offline is a separate, registry-level event.
func (s *MongoStore) ReleaseDriver(ctx context.Context, id types.ID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "role": RoleDriver, "truckDetails.currentStatus": TruckBusy},
		bson.M{"$set": bson.M{"truckDetails.currentStatus": TruckReady, "updatedAt": time.Now()}},
	)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

// EnsureIndexes creates the unique email index. Call once at startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
