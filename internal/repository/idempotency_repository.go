package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AhmedAbdelmoaty/Assessment/internal/models"
)

// IdempotencyRepository records side-effecting operations keyed by
// (session, kind, key) so a replayed request returns the stored result
// instead of re-running its effects. A unique index backs the claim.
type IdempotencyRepository struct {
	Col *mongo.Collection
}

func NewIdempotencyRepository(db *mongo.Database) *IdempotencyRepository {
	return &IdempotencyRepository{Col: db.Collection("idempotency_ops")}
}

// EnsureIndexes creates the unique (session, kind, key) index.
func (r *IdempotencyRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "chat_session_id", Value: 1},
			{Key: "kind", Value: 1},
			{Key: "key", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Begin claims the operation. When the claim is fresh it returns (nil, true).
// When a prior run already exists it returns that record and false; a "done"
// record carries the stored result to replay.
func (r *IdempotencyRepository) Begin(ctx context.Context, sessionID, kind, key string) (*models.IdempotencyOp, bool, error) {
	op := &models.IdempotencyOp{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Kind:      kind,
		Key:       key,
		Status:    "pending",
		CreatedAt: time.Now(),
	}
	_, err := r.Col.InsertOne(ctx, op)
	if err == nil {
		return nil, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, false, err
	}
	var existing models.IdempotencyOp
	ferr := r.Col.FindOne(ctx, bson.M{
		"chat_session_id": sessionID,
		"kind":            kind,
		"key":             key,
	}).Decode(&existing)
	if ferr != nil {
		return nil, false, ferr
	}
	return &existing, false, nil
}

// Finish marks the claimed operation done and stores its result for replay.
func (r *IdempotencyRepository) Finish(ctx context.Context, sessionID, kind, key string, result []byte) error {
	_, err := r.Col.UpdateOne(ctx, bson.M{
		"chat_session_id": sessionID,
		"kind":            kind,
		"key":             key,
	}, bson.M{"$set": bson.M{"status": "done", "result": result}})
	return err
}
