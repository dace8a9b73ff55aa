package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eventix/ticketing/internal/core/domain"
)

const collectionAuthEvents = "auth_events"

// AuditRepository implements ports.AuditLog using MongoDB.
type AuditRepository struct {
	col       *mongo.Collection
	retention time.Duration
}

// NewAuditRepository creates an AuditRepository. Entries older than retention
// are expired by a TTL index; zero keeps them forever.
func NewAuditRepository(db *mongo.Database, retention time.Duration) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAuthEvents), retention: retention}
}

// Record appends an event to the auth_events collection.
func (r *AuditRepository) Record(ctx context.Context, event *domain.AuthEvent) error {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	doc := bson.M{
		"kind":        string(event.Kind),
		"type":        string(event.AccountType),
		"timestamp":   ts.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.AccountID != 0 {
		doc["account_id"] = event.AccountID
	}
	if event.Identifier != "" {
		doc["identifier"] = event.Identifier
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}

	_, err := r.col.InsertOne(ctx, doc)
	return err
}

// EnsureIndexes creates the lookup index and, when retention is set, the TTL index.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "account_id", Value: 1}, {Key: "timestamp", Value: -1}}},
	}
	if r.retention > 0 {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: "recorded_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(r.retention.Seconds())),
		})
	}
	_, err := r.col.Indexes().CreateMany(ctx, models)
	return err
}
