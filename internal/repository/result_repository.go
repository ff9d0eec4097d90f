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

// ResultRepository archives one summary row per finished assessment for the
// dashboard's history view.
type ResultRepository struct {
	Col *mongo.Collection
}

func NewResultRepository(db *mongo.Database) *ResultRepository {
	return &ResultRepository{Col: db.Collection("assessments")}
}

func (r *ResultRepository) Create(ctx context.Context, result *models.AssessmentResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.FinishedAt.IsZero() {
		result.FinishedAt = time.Now()
	}
	_, err := r.Col.InsertOne(ctx, result)
	return err
}

func (r *ResultRepository) FindByUser(ctx context.Context, userID string) ([]models.AssessmentResult, error) {
	opts := options.Find().SetSort(bson.D{{Key: "finished_at", Value: -1}})
	cur, err := r.Col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var results []models.AssessmentResult
	for cur.Next(ctx) {
		var res models.AssessmentResult
		if err := cur.Decode(&res); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, cur.Err()
}

func (r *ResultRepository) FindBySession(ctx context.Context, sessionID string) (*models.AssessmentResult, error) {
	var res models.AssessmentResult
	err := r.Col.FindOne(ctx, bson.M{"chat_session_id": sessionID}).Decode(&res)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}
