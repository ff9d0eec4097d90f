package models

import "time"

// Session phases. The stored row status is derived from the state blob and
// may additionally be "ended" once a session is archived.
const (
	StepIntake     = "intake"
	StepAssessment = "assessment"
	StepReport     = "report"
	StepTeaching   = "teaching"
	StatusEnded    = "ended"
)

// StateMessage is the in-blob copy of a chat message, kept alongside the
// durable chat_messages collection so the UI can be hydrated even when the
// message collection read fails. Capped at MaxStateMessages entries.
type StateMessage struct {
	Sender  string `bson:"sender" json:"sender"`
	Content string `bson:"content" json:"content"`
	TS      int64  `bson:"ts" json:"ts"`
}

const MaxStateMessages = 200

// Report is the final assessment report payload.
type Report struct {
	Kind             string   `bson:"kind" json:"kind"`
	Message          string   `bson:"message" json:"message"`
	Strengths        []string `bson:"strengths" json:"strengths"`
	Gaps             []string `bson:"gaps" json:"gaps"`
	StrengthsDisplay []string `bson:"strengths_display" json:"strengths_display"`
	GapsDisplay      []string `bson:"gaps_display" json:"gaps_display"`
	StatsLevel       string   `bson:"stats_level" json:"stats_level"`
}

// SessionState is the full mutable session blob persisted as one document
// field. It is mutated only through the session service.
type SessionState struct {
	SessionID       string            `bson:"session_id" json:"session_id"`
	Lang            string            `bson:"lang" json:"lang"`
	CurrentStep     string            `bson:"current_step" json:"current_step"`
	IntakeStepIndex int               `bson:"intake_step_index" json:"intake_step_index"`
	OpeningShown    bool              `bson:"opening_shown" json:"opening_shown"`
	Intake          map[string]string `bson:"intake" json:"intake"`
	Assessment      AssessmentState   `bson:"assessment" json:"assessment"`
	Teaching        TeachingState     `bson:"teaching" json:"teaching"`
	Finished        bool              `bson:"finished" json:"finished"`
	Report          *Report           `bson:"report,omitempty" json:"report,omitempty"`
	Messages        []StateMessage    `bson:"messages" json:"messages"`
}

// NewSessionState returns the default initial state for a fresh session.
func NewSessionState(sessionID string) *SessionState {
	return &SessionState{
		SessionID:   sessionID,
		Lang:        "en",
		CurrentStep: StepIntake,
		Intake:      map[string]string{},
		Assessment:  NewAssessmentState(),
		Teaching:    NewTeachingState(),
		Messages:    []StateMessage{},
	}
}

// NormalizeSessionState merges a stored blob onto defaults, field by field.
// Missing or zero-valued fields fall back to the documented defaults so that
// partial blobs written by older builds never surface nil maps or slices.
func NormalizeSessionState(raw *SessionState, sessionID string) *SessionState {
	if raw == nil {
		return NewSessionState(sessionID)
	}
	s := *raw
	if sessionID != "" {
		s.SessionID = sessionID
	}
	if s.Lang == "" {
		s.Lang = "en"
	}
	if s.CurrentStep == "" {
		s.CurrentStep = StepIntake
	}
	if s.Intake == nil {
		s.Intake = map[string]string{}
	}
	if s.Messages == nil {
		s.Messages = []StateMessage{}
	}
	s.Assessment.normalize()
	s.Teaching.normalize()
	return &s
}

// AppendMessage appends to the in-blob message copy, trimming to the cap.
func (s *SessionState) AppendMessage(sender, content string, ts int64) {
	s.Messages = append(s.Messages, StateMessage{Sender: sender, Content: content, TS: ts})
	if len(s.Messages) > MaxStateMessages {
		s.Messages = s.Messages[len(s.Messages)-MaxStateMessages:]
	}
}

// DeriveStatus computes the coarse session phase from the state blob. Status
// is a view over the state, never independently settable.
func DeriveStatus(s *SessionState) string {
	if s == nil {
		return StepAssessment
	}
	switch s.CurrentStep {
	case StepIntake, StepAssessment, StepReport, StepTeaching:
		return s.CurrentStep
	}
	return StepAssessment
}

// DeriveIntakeDone reports whether the intake phase has been completed.
func DeriveIntakeDone(s *SessionState, totalSteps int) bool {
	if s == nil {
		return false
	}
	return s.CurrentStep != StepIntake || s.IntakeStepIndex >= totalSteps
}

// ChatSession is one assessment run for one user.
type ChatSession struct {
	ID         string        `bson:"_id,omitempty" json:"id"`
	UserID     string        `bson:"user_id" json:"user_id"`
	Status     string        `bson:"status" json:"status"`
	IntakeDone bool          `bson:"intake_done" json:"intake_done"`
	State      *SessionState `bson:"session_state,omitempty" json:"state,omitempty"`
	StartedAt  time.Time     `bson:"started_at" json:"started_at"`
	FinishedAt *time.Time    `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
}

// ChatMessage is one durable chat-log entry, persisted append-only and
// replayed verbatim on reload.
type ChatMessage struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	SessionID string    `bson:"chat_session_id" json:"chat_session_id"`
	Sender    string    `bson:"sender" json:"sender"`
	Content   string    `bson:"content" json:"content"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
