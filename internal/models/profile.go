package models

import "time"

// IntakeProfile is the saved intake answers for a user. Once a profile
// exists, new sessions skip the intake phase and start at assessment.
type IntakeProfile struct {
	UserID    string            `bson:"_id" json:"user_id"`
	Fields    map[string]string `bson:"fields" json:"fields"`
	Lang      string            `bson:"lang" json:"lang"`
	UpdatedAt time.Time         `bson:"updated_at" json:"updated_at"`
}

// AssessmentResult is the archived summary row written when an assessment
// reaches the report phase, queried by the dashboard.
type AssessmentResult struct {
	ID            string         `bson:"_id,omitempty" json:"id"`
	UserID        string         `bson:"user_id" json:"user_id"`
	SessionID     string         `bson:"chat_session_id" json:"chat_session_id"`
	CorrectCount  int            `bson:"correct_count" json:"correct_count"`
	Percent       int            `bson:"percent" json:"percent"`
	StatsLevel    string         `bson:"stats_level" json:"stats_level"`
	LevelsSummary map[string]int `bson:"levels_summary" json:"levels_summary"`
	FinishedAt    time.Time      `bson:"finished_at" json:"finished_at"`
}

// IdempotencyOp records a side-effecting operation so that replays of the
// same request key return the stored result instead of re-running effects.
type IdempotencyOp struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	SessionID string    `bson:"chat_session_id" json:"chat_session_id"`
	Kind      string    `bson:"kind" json:"kind"`
	Key       string    `bson:"key" json:"key"`
	Status    string    `bson:"status" json:"status"` // "pending" | "done"
	Result    []byte    `bson:"result,omitempty" json:"-"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
