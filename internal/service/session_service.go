package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AhmedAbdelmoaty/Assessment/internal/event"
	"github.com/AhmedAbdelmoaty/Assessment/internal/models"
)

// SessionService owns the session lifecycle and is the only writer of the
// session state blob. All state mutation happens under the per-session lock,
// so concurrent requests for one session serialize while different sessions
// proceed independently.
type SessionService struct {
	Store    SessionStore
	Messages MessageStore
	Profiles ProfileStore
	Cache    StateCache
	Events   Publisher

	locks sync.Map // session id -> *sync.Mutex
}

func NewSessionService(store SessionStore, messages MessageStore, profiles ProfileStore, cache StateCache, events Publisher) *SessionService {
	return &SessionService{
		Store:    store,
		Messages: messages,
		Profiles: profiles,
		Cache:    cache,
		Events:   events,
	}
}

// Lock acquires the session's mutex and returns the unlock func.
func (s *SessionService) Lock(sessionID string) func() {
	m, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Resolve returns the session to operate on: the given session when an id is
// provided, otherwise the user's current session, creating one if needed.
func (s *SessionService) Resolve(ctx context.Context, userID, sessionID string) (*models.ChatSession, error) {
	if sessionID != "" {
		sess, err := s.Store.FindByID(ctx, sessionID)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSessionNotFound
		}
		if err != nil {
			return nil, err
		}
		if userID != "" && sess.UserID != userID {
			return nil, ErrSessionNotFound
		}
		return sess, nil
	}
	return s.GetOrCreateCurrent(ctx, userID, "")
}

// GetOrCreateCurrent returns the user's latest non-ended session, creating a
// fresh one when none exists. A new session starts at intake unless the user
// already has a saved intake profile, in which case the profile is copied in
// and the session starts directly at assessment.
func (s *SessionService) GetOrCreateCurrent(ctx context.Context, userID, lang string) (*models.ChatSession, error) {
	sess, err := s.Store.FindCurrentByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}
	return s.create(ctx, userID, lang)
}

// StartNew ends the user's current session, if any, and creates a fresh one.
// Any in-flight question of the old session is discarded with it.
func (s *SessionService) StartNew(ctx context.Context, userID, lang string) (*models.ChatSession, error) {
	cur, err := s.Store.FindCurrentByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cur != nil {
		if err := s.Store.End(ctx, cur.ID); err != nil {
			return nil, err
		}
		s.Cache.Invalidate(ctx, cur.ID)
		s.locks.Delete(cur.ID)
	}
	return s.create(ctx, userID, lang)
}

func (s *SessionService) create(ctx context.Context, userID, lang string) (*models.ChatSession, error) {
	state := models.NewSessionState("")
	if lang != "" {
		state.Lang = lang
	}

	if profile, perr := s.Profiles.FindByUser(ctx, userID); perr == nil && profile != nil && len(profile.Fields) > 0 {
		for k, v := range profile.Fields {
			state.Intake[k] = v
		}
		if profile.Lang != "" && lang == "" {
			state.Lang = profile.Lang
		}
		state.IntakeStepIndex = len(IntakeOrder)
		state.CurrentStep = models.StepAssessment
	}

	sess := &models.ChatSession{
		UserID:     userID,
		Status:     models.DeriveStatus(state),
		IntakeDone: models.DeriveIntakeDone(state, len(IntakeOrder)),
		State:      state,
	}
	if err := s.Store.Create(ctx, sess); err != nil {
		return nil, err
	}
	state.SessionID = sess.ID
	s.Cache.Put(ctx, sess.ID, state)

	if s.Events != nil {
		if err := s.Events.Publish(event.SessionStarted, map[string]string{
			"session_id": sess.ID,
			"user_id":    userID,
		}); err != nil {
			log.Printf("publish session.started failed: %v", err)
		}
	}
	return sess, nil
}

// LoadState returns the session's normalized state, reading through the
// cache. When the stored blob is missing or carries no messages, the message
// log is rehydrated from the chat_messages collection.
func (s *SessionService) LoadState(ctx context.Context, sessionID, userID string) (*models.SessionState, error) {
	if cached := s.Cache.Get(ctx, sessionID); cached != nil {
		return cached, nil
	}

	sess, err := s.Store.FindByID(ctx, sessionID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if userID != "" && sess.UserID != userID {
		return nil, ErrSessionNotFound
	}

	state := models.NormalizeSessionState(sess.State, sessionID)

	if sess.State == nil || len(state.Messages) == 0 {
		if history, herr := s.Messages.ListBySession(ctx, sessionID); herr == nil && len(history) > 0 {
			state.Messages = state.Messages[:0]
			for _, m := range history {
				state.AppendMessage(m.Sender, m.Content, m.CreatedAt.UnixMilli())
			}
		} else if herr != nil {
			log.Printf("hydrate messages for %s failed: %v", sessionID, herr)
		}
	}
	if sess.State == nil {
		if err := s.Persist(ctx, sessionID, state); err != nil {
			log.Printf("backfill empty session_state for %s failed: %v", sessionID, err)
		}
	} else {
		s.Cache.Put(ctx, sessionID, state)
	}
	return state, nil
}

// Persist writes the blob and its derived columns in one update, then
// refreshes the cache. Status and intake_done are always recomputed from the
// blob, never trusted from callers.
func (s *SessionService) Persist(ctx context.Context, sessionID string, state *models.SessionState) error {
	status := models.DeriveStatus(state)
	intakeDone := models.DeriveIntakeDone(state, len(IntakeOrder))
	if err := s.Store.UpdateState(ctx, sessionID, state, status, intakeDone); err != nil {
		return err
	}
	s.Cache.Put(ctx, sessionID, state)
	return nil
}

// AppendMessage dual-writes one chat turn: append-only into chat_messages
// and into the state blob's capped copy. The caller persists the blob.
func (s *SessionService) AppendMessage(ctx context.Context, state *models.SessionState, sender, content string) error {
	state.AppendMessage(sender, content, time.Now().UnixMilli())
	if _, err := s.Messages.Append(ctx, state.SessionID, sender, content); err != nil {
		return err
	}
	return nil
}

// CurrentView is the hydrated current-session payload for the UI.
type CurrentView struct {
	Session  *models.ChatSession  `json:"session"`
	State    *models.SessionState `json:"state"`
	Messages []models.ChatMessage `json:"messages"`
}

// Current returns the user's current session with its durable message log.
// When the message collection comes back empty the blob's capped copy fills
// in so reloads never lose the visible conversation.
func (s *SessionService) Current(ctx context.Context, userID string) (*CurrentView, error) {
	sess, err := s.GetOrCreateCurrent(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	state, err := s.LoadState(ctx, sess.ID, userID)
	if err != nil {
		return nil, err
	}

	msgs, merr := s.Messages.ListBySession(ctx, sess.ID)
	if merr != nil {
		log.Printf("list messages for %s failed: %v", sess.ID, merr)
	}
	if len(msgs) == 0 {
		for _, m := range state.Messages {
			if m.Content == "" {
				continue
			}
			msgs = append(msgs, models.ChatMessage{
				SessionID: sess.ID,
				Sender:    m.Sender,
				Content:   m.Content,
				CreatedAt: time.UnixMilli(m.TS),
			})
		}
	}

	sess.Status = models.DeriveStatus(state)
	sess.IntakeDone = models.DeriveIntakeDone(state, len(IntakeOrder))
	sess.State = state
	return &CurrentView{Session: sess, State: state, Messages: msgs}, nil
}

// History lists the user's past sessions, newest first.
func (s *SessionService) History(ctx context.Context, userID string, limit int64) ([]models.ChatSession, error) {
	return s.Store.ListByUser(ctx, userID, limit)
}
