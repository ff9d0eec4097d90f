package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AhmedAbdelmoaty/Assessment/internal/assessment"
	"github.com/AhmedAbdelmoaty/Assessment/internal/models"
	"github.com/AhmedAbdelmoaty/Assessment/internal/topics"
)

type fakeSessionStore struct {
	sessions map[string]*models.ChatSession
	seq      int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]*models.ChatSession{}}
}

func (f *fakeSessionStore) Create(_ context.Context, session *models.ChatSession) error {
	f.seq++
	if session.ID == "" {
		session.ID = fmt.Sprintf("sess-%d", f.seq)
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) FindByID(_ context.Context, id string) (*models.ChatSession, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return sess, nil
}

func (f *fakeSessionStore) FindCurrentByUser(_ context.Context, userID string) (*models.ChatSession, error) {
	var latest *models.ChatSession
	for _, s := range f.sessions {
		if s.UserID != userID || s.Status == models.StatusEnded {
			continue
		}
		if latest == nil || s.StartedAt.After(latest.StartedAt) {
			latest = s
		}
	}
	return latest, nil
}

func (f *fakeSessionStore) UpdateState(_ context.Context, id string, state *models.SessionState, status string, intakeDone bool) error {
	sess, ok := f.sessions[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	sess.State = state
	sess.Status = status
	sess.IntakeDone = intakeDone
	return nil
}

func (f *fakeSessionStore) End(_ context.Context, id string) error {
	sess, ok := f.sessions[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	sess.Status = models.StatusEnded
	now := time.Now()
	sess.FinishedAt = &now
	return nil
}

func (f *fakeSessionStore) ListByUser(_ context.Context, userID string, limit int64) ([]models.ChatSession, error) {
	var out []models.ChatSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeMessageStore struct {
	messages map[string][]models.ChatMessage
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{messages: map[string][]models.ChatMessage{}}
}

func (f *fakeMessageStore) Append(_ context.Context, sessionID, sender, content string) (*models.ChatMessage, error) {
	msg := models.ChatMessage{
		ID:        fmt.Sprintf("msg-%d", len(f.messages[sessionID])+1),
		SessionID: sessionID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now(),
	}
	f.messages[sessionID] = append(f.messages[sessionID], msg)
	return &msg, nil
}

func (f *fakeMessageStore) ListBySession(_ context.Context, sessionID string) ([]models.ChatMessage, error) {
	return f.messages[sessionID], nil
}

type fakeProfileStore struct {
	profiles map[string]*models.IntakeProfile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: map[string]*models.IntakeProfile{}}
}

func (f *fakeProfileStore) Upsert(_ context.Context, profile *models.IntakeProfile) error {
	f.profiles[profile.UserID] = profile
	return nil
}

func (f *fakeProfileStore) FindByUser(_ context.Context, userID string) (*models.IntakeProfile, error) {
	return f.profiles[userID], nil
}

type fakeResultStore struct {
	results []models.AssessmentResult
}

func (f *fakeResultStore) Create(_ context.Context, result *models.AssessmentResult) error {
	f.results = append(f.results, *result)
	return nil
}

func (f *fakeResultStore) FindByUser(_ context.Context, userID string) ([]models.AssessmentResult, error) {
	var out []models.AssessmentResult
	for _, r := range f.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResultStore) FindBySession(_ context.Context, sessionID string) (*models.AssessmentResult, error) {
	for i := range f.results {
		if f.results[i].SessionID == sessionID {
			return &f.results[i], nil
		}
	}
	return nil, nil
}

type fakeIdemStore struct {
	ops map[string]*models.IdempotencyOp
}

func newFakeIdemStore() *fakeIdemStore {
	return &fakeIdemStore{ops: map[string]*models.IdempotencyOp{}}
}

func idemKey(sessionID, kind, key string) string {
	return sessionID + "|" + kind + "|" + key
}

func (f *fakeIdemStore) Begin(_ context.Context, sessionID, kind, key string) (*models.IdempotencyOp, bool, error) {
	k := idemKey(sessionID, kind, key)
	if op, ok := f.ops[k]; ok {
		return op, false, nil
	}
	op := &models.IdempotencyOp{SessionID: sessionID, Kind: kind, Key: key, Status: "pending", CreatedAt: time.Now()}
	f.ops[k] = op
	return nil, true, nil
}

func (f *fakeIdemStore) Finish(_ context.Context, sessionID, kind, key string, result []byte) error {
	op, ok := f.ops[idemKey(sessionID, kind, key)]
	if !ok {
		return errors.New("op not found")
	}
	op.Status = "done"
	op.Result = result
	return nil
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) *models.SessionState  { return nil }
func (noopCache) Put(context.Context, string, *models.SessionState) {}
func (noopCache) Invalidate(context.Context, string)                {}

// fakeGenerator fabricates deterministic questions whose first choice is
// correct, and counts calls so tests can assert on replay paths.
type fakeGenerator struct {
	generateCalls int
	narrateCalls  int
	failGenerate  bool
	teachReply    string
	teachErr      error
}

func (g *fakeGenerator) Generate(_ context.Context, _ string, criteria *assessment.Criteria, _ map[string]string) (*assessment.Generated, error) {
	if g.failGenerate {
		return nil, errors.New("model unavailable")
	}
	g.generateCalls++

	cluster := ""
	for _, c := range topics.Clusters[topics.Level(criteria.Level)] {
		used := false
		for _, u := range criteria.UsedClusters {
			if u == c {
				used = true
				break
			}
		}
		if !used {
			cluster = c
			break
		}
	}

	correct := 0
	return &assessment.Generated{
		Kind:         "question",
		Level:        criteria.Level,
		Cluster:      cluster,
		Difficulty:   criteria.Difficulty,
		Prompt:       fmt.Sprintf("%s %s q%d #%d", criteria.Level, criteria.AttemptType, criteria.QuestionIndex, g.generateCalls),
		Choices:      []string{"right", "w1", "w2", "w3"},
		CorrectIndex: &correct,
	}, nil
}

func (g *fakeGenerator) Narrate(_ context.Context, _ string, correct, total int, statsLevel string, _, _ []string) string {
	g.narrateCalls++
	return fmt.Sprintf("narrative %d/%d %s", correct, total, statsLevel)
}

func (g *fakeGenerator) Teach(_ context.Context, _ string, _ *models.TeachingTopic, _ []models.TeachingTopic, _ map[string]string, _ []models.TranscriptEntry, _ string) (string, error) {
	return g.teachReply, g.teachErr
}

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(eventType string, _ interface{}) error {
	p.events = append(p.events, eventType)
	return nil
}

// env bundles the wired services over fakes for one test.
type env struct {
	sessions  *SessionService
	intake    *IntakeService
	assess    *AssessService
	report    *ReportService
	teach     *TeachService
	store     *fakeSessionStore
	messages  *fakeMessageStore
	profiles  *fakeProfileStore
	results   *fakeResultStore
	idems     *fakeIdemStore
	generator *fakeGenerator
	publisher *recordingPublisher
}

func newEnv() *env {
	store := newFakeSessionStore()
	messages := newFakeMessageStore()
	profiles := newFakeProfileStore()
	results := &fakeResultStore{}
	idems := newFakeIdemStore()
	generator := &fakeGenerator{teachReply: "let's begin"}
	publisher := &recordingPublisher{}

	sessions := NewSessionService(store, messages, profiles, noopCache{}, publisher)
	engine := assessment.NewEngine()
	return &env{
		sessions:  sessions,
		intake:    NewIntakeService(sessions, profiles),
		assess:    NewAssessService(sessions, engine, generator, idems, results, publisher),
		report:    NewReportService(sessions, generator, idems, publisher),
		teach:     NewTeachService(sessions, generator, publisher),
		store:     store,
		messages:  messages,
		profiles:  profiles,
		results:   results,
		idems:     idems,
		generator: generator,
		publisher: publisher,
	}
}
