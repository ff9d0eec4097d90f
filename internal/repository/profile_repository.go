package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AhmedAbdelmoaty/Assessment/internal/models"
)

type ProfileRepository struct {
	Col *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{Col: db.Collection("intake_profiles")}
}

// Upsert saves the user's intake answers, replacing any prior profile.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.IntakeProfile) error {
	profile.UpdatedAt = time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := r.Col.ReplaceOne(ctx, bson.M{"_id": profile.UserID}, profile, opts)
	return err
}

// FindByUser returns the saved profile, or nil when the user has none.
func (r *ProfileRepository) FindByUser(ctx context.Context, userID string) (*models.IntakeProfile, error) {
	var profile models.IntakeProfile
	err := r.Col.FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
