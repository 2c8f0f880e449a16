// README: AidRequest store backed by MongoDB.
package dispatch

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
	return &MongoStore{c: db.Collection("aid_requests")}
}

func (s *MongoStore) Create(ctx context.Context, r *AidRequest) error {
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id types.ID) (*AidRequest, error) {
	var r AidRequest
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &r, nil
}

// UpdateStatus performs the conditional transition. The filter on the current
// status makes the read-modify-write a single atomic operation: concurrent
// callers race on the document and exactly one observes from-status. driverID,
// when non-empty, is recorded as the accepting driver.
func (s *MongoStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, driverID types.ID, at time.Time) (bool, error) {
	set := bson.M{"status": to, "updatedAt": at}
	if driverID != "" {
		set["driverId"] = driverID
	}
	switch to {
	case StatusAccepted:
		set["acceptedAt"] = at
	case StatusCompleted:
		set["completedAt"] = at
	case StatusCancelled:
		set["cancelledAt"] = at
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return false, storeErr(err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *MongoStore) ListByStatus(ctx context.Context, st Status) ([]AidRequest, error) {
	return s.list(ctx, bson.M{"status": st})
}

func (s *MongoStore) ListBySender(ctx context.Context, senderID types.ID) ([]AidRequest, error) {
	return s.list(ctx, bson.M{"senderId": senderID})
}

func (s *MongoStore) ListByDriver(ctx context.Context, driverID types.ID) ([]AidRequest, error) {
	return s.list(ctx, bson.M{"driverId": driverID, "status": bson.M{"$ne": StatusPending}})
}

func (s *MongoStore) list(ctx context.Context, filter bson.M) ([]AidRequest, error) {
	// Newest first: a display preference, not a correctness contract.
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, storeErr(err)
	}
	var out []AidRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
