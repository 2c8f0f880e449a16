// README: Notification store backed by MongoDB.
package notify

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

type MongoStore struct {
	c *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{c: db.Collection("notifications")}
}

func (s *MongoStore) Insert(ctx context.Context, n *Notification) error {
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return storeErr(err)
	}
	return nil
}

func (s *MongoStore) ListByUser(ctx context.Context, userID types.ID) ([]Notification, error) {
	cur, err := s.c.Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, storeErr(err)
	}
	var out []Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *MongoStore) MarkRead(ctx context.Context, id, userID types.ID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return false, storeErr(err)
	}
	return res.MatchedCount == 1, nil
}

// Delete removes a notification owned by userID. A missing id is not an
// error; dismissal is idempotent.
func (s *MongoStore) Delete(ctx context.Context, id, userID types.ID) error {
	if _, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "userId": userID}); err != nil {
		return storeErr(err)
	}
	return nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
