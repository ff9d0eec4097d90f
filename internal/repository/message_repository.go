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

// MessageRepository is the append-only chat log. Messages are never edited
// or removed; ListBySession replays them in creation order.
type MessageRepository struct {
	Col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{Col: db.Collection("chat_messages")}
}

func (r *MessageRepository) Append(ctx context.Context, sessionID, sender, content string) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if _, err := r.Col.InsertOne(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.Col.Find(ctx, bson.M{"chat_session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var msgs []models.ChatMessage
	for cur.Next(ctx) {
		var m models.ChatMessage
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, cur.Err()
}
