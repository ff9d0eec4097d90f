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

type SessionRepository struct {
	Col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{Col: db.Collection("chat_sessions")}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.ChatSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	_, err := r.Col.InsertOne(ctx, session)
	return err
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindCurrentByUser returns the most recent non-ended session for the user,
// or nil when none exists.
func (r *SessionRepository) FindCurrentByUser(ctx context.Context, userID string) (*models.ChatSession, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}})
	var session models.ChatSession
	err := r.Col.FindOne(ctx, bson.M{
		"user_id": userID,
		"status":  bson.M{"$ne": models.StatusEnded},
	}, opts).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateState overwrites the stored blob plus its derived columns in one
// update, so no concurrent reader observes a partial write.
func (r *SessionRepository) UpdateState(ctx context.Context, id string, state *models.SessionState, status string, intakeDone bool) error {
	res, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"session_state": state,
		"status":        status,
		"intake_done":   intakeDone,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// End marks a session ended and stamps finished_at.
func (r *SessionRepository) End(ctx context.Context, id string) error {
	now := time.Now()
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":      models.StatusEnded,
		"finished_at": now,
	}})
	return err
}

// ListByUser returns the user's sessions, most recent first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]models.ChatSession, error) {
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.Col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var sessions []models.ChatSession
	for cur.Next(ctx) {
		var s models.ChatSession
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, cur.Err()
}
