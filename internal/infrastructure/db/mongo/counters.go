package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionCounters = "counters"

// Counters hands out monotonically increasing numeric IDs per sequence.
type Counters struct {
	col *mongo.Collection
}

func NewCounters(db *mongo.Database) *Counters {
	return &Counters{col: db.Collection(collectionCounters)}
}

// Next atomically increments and returns the named sequence, starting at 1.
func (c *Counters) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := c.col.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return doc.Seq, nil
}
