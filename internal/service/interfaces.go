package service

import (
	"context"

	"github.com/AhmedAbdelmoaty/Assessment/internal/assessment"
	"github.com/AhmedAbdelmoaty/Assessment/internal/models"
)

// Storage interfaces are satisfied by the mongo repositories. Tests swap in
// in-memory fakes.

type SessionStore interface {
	Create(ctx context.Context, session *models.ChatSession) error
	FindByID(ctx context.Context, id string) (*models.ChatSession, error)
	FindCurrentByUser(ctx context.Context, userID string) (*models.ChatSession, error)
	UpdateState(ctx context.Context, id string, state *models.SessionState, status string, intakeDone bool) error
	End(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.ChatSession, error)
}

type MessageStore interface {
	Append(ctx context.Context, sessionID, sender, content string) (*models.ChatMessage, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error)
}

type ProfileStore interface {
	Upsert(ctx context.Context, profile *models.IntakeProfile) error
	FindByUser(ctx context.Context, userID string) (*models.IntakeProfile, error)
}

type ResultStore interface {
	Create(ctx context.Context, result *models.AssessmentResult) error
	FindByUser(ctx context.Context, userID string) ([]models.AssessmentResult, error)
	FindBySession(ctx context.Context, sessionID string) (*models.AssessmentResult, error)
}

type IdempotencyStore interface {
	Begin(ctx context.Context, sessionID, kind, key string) (*models.IdempotencyOp, bool, error)
	Finish(ctx context.Context, sessionID, kind, key string, result []byte) error
}

// StateCache is satisfied by cache.SessionCache. All methods are best-effort.
type StateCache interface {
	Get(ctx context.Context, sessionID string) *models.SessionState
	Put(ctx context.Context, sessionID string, state *models.SessionState)
	Invalidate(ctx context.Context, sessionID string)
}

// Generator is satisfied by llm.Generator.
type Generator interface {
	Generate(ctx context.Context, lang string, criteria *assessment.Criteria, profile map[string]string) (*assessment.Generated, error)
	Narrate(ctx context.Context, lang string, correct, total int, statsLevel string, strengths, gaps []string) string
	Teach(ctx context.Context, lang string, topic *models.TeachingTopic, queue []models.TeachingTopic, profile map[string]string, transcript []models.TranscriptEntry, userMessage string) (string, error)
}

// Publisher is satisfied by event.EventPublisher.
type Publisher interface {
	Publish(eventType string, payload interface{}) error
}
