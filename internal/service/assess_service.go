package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/AhmedAbdelmoaty/Assessment/internal/assessment"
	"github.com/AhmedAbdelmoaty/Assessment/internal/event"
	"github.com/AhmedAbdelmoaty/Assessment/internal/models"
)

// AssessService runs the adaptive assessment: it requests questions from the
// generator under the engine's criteria and grades submitted answers.
type AssessService struct {
	Sessions  *SessionService
	Engine    *assessment.Engine
	Generator Generator
	Idems     IdempotencyStore
	Results   ResultStore
	Events    Publisher
}

func NewAssessService(sessions *SessionService, engine *assessment.Engine, generator Generator, idems IdempotencyStore, results ResultStore, events Publisher) *AssessService {
	return &AssessService{
		Sessions:  sessions,
		Engine:    engine,
		Generator: generator,
		Idems:     idems,
		Results:   results,
		Events:    events,
	}
}

// QuestionView is a served question with the correct answer withheld.
type QuestionView struct {
	Kind           string   `json:"kind"`
	Level          string   `json:"level"`
	Cluster        string   `json:"cluster"`
	Prompt         string   `json:"prompt"`
	Choices        []string `json:"choices"`
	CorrectAnswer  string   `json:"correct_answer"`
	Rationale      string   `json:"rationale"`
	QuestionNumber int      `json:"questionNumber"`
	TotalQuestions int      `json:"totalQuestions"`
}

// AnswerView is the grading outcome returned to the client.
type AnswerView struct {
	Correct    bool   `json:"correct"`
	NextAction string `json:"nextAction"`
	Message    string `json:"message"`
	CanProceed bool   `json:"canProceed"`
}

// NextQuestion serves the session's next question. While a question is in
// flight it is re-served unchanged, so retried requests cannot burn the
// attempt slot or mint a second question.
func (s *AssessService) NextQuestion(ctx context.Context, userID, sessionID string) (*QuestionView, error) {
	sess, err := s.Sessions.Resolve(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	unlock := s.Sessions.Lock(sess.ID)
	defer unlock()

	state, err := s.Sessions.LoadState(ctx, sess.ID, userID)
	if err != nil {
		return nil, err
	}
	if state.CurrentStep != models.StepAssessment {
		return nil, ErrWrongPhase
	}

	if q := state.Assessment.CurrentQuestion; q != nil {
		return questionView(q, state.Assessment.QuestionIndexInAttempt), nil
	}

	criteria := s.Engine.NextCriteria(&state.Assessment)
	gen, err := s.Generator.Generate(ctx, state.Lang, criteria, profileForPrompts(state.Intake))
	if err != nil {
		return nil, err
	}
	q, err := s.Engine.AcceptQuestion(&state.Assessment, gen)
	if err != nil {
		return nil, err
	}

	if err := s.Sessions.AppendMessage(ctx, state, "assistant", renderQuestionMessage(q)); err != nil {
		return nil, err
	}
	if err := s.Sessions.Persist(ctx, sess.ID, state); err != nil {
		return nil, err
	}
	return questionView(q, criteria.QuestionIndex), nil
}

// SubmitAnswer grades the in-flight question and advances the state machine.
// Answers are idempotent per question id: replaying a submit for an already
// graded question returns the stored outcome without touching state.
func (s *AssessService) SubmitAnswer(ctx context.Context, userID, sessionID string, choiceIndex int) (*AnswerView, error) {
	sess, err := s.Sessions.Resolve(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	unlock := s.Sessions.Lock(sess.ID)
	defer unlock()

	state, err := s.Sessions.LoadState(ctx, sess.ID, userID)
	if err != nil {
		return nil, err
	}
	if state.CurrentStep != models.StepAssessment || state.Assessment.CurrentQuestion == nil {
		return nil, assessment.ErrNoActiveQuestion
	}
	qid := state.Assessment.CurrentQuestion.QID

	op, fresh, err := s.Idems.Begin(ctx, sess.ID, "answer", qid)
	if err != nil {
		return nil, err
	}
	if !fresh && op.Status == "done" && len(op.Result) > 0 {
		var view AnswerView
		if jerr := json.Unmarshal(op.Result, &view); jerr == nil {
			return &view, nil
		}
	}

	res, err := s.Engine.SubmitAnswer(&state.Assessment, choiceIndex)
	if err != nil {
		return nil, err
	}

	if err := s.Sessions.AppendMessage(ctx, state, "user", fmt.Sprintf("choice_%d", choiceIndex)); err != nil {
		return nil, err
	}

	switch res.Action {
	case assessment.ActionStop, assessment.ActionComplete:
		state.CurrentStep = models.StepReport
		s.archiveResult(ctx, sess, state)
		s.publishOutcome(sess.ID, userID, res.Action)
	}

	if err := s.Sessions.Persist(ctx, sess.ID, state); err != nil {
		return nil, err
	}

	view := &AnswerView{
		Correct:    res.Correct,
		NextAction: string(res.Action),
		CanProceed: res.Action != assessment.ActionStop,
	}
	if data, jerr := json.Marshal(view); jerr == nil {
		if ferr := s.Idems.Finish(ctx, sess.ID, "answer", qid, data); ferr != nil {
			log.Printf("finish answer op for %s failed: %v", sess.ID, ferr)
		}
	}
	return view, nil
}

func (s *AssessService) archiveResult(ctx context.Context, sess *models.ChatSession, state *models.SessionState) {
	if s.Results == nil {
		return
	}
	evidence := state.Assessment.Evidence
	correct := 0
	levels := map[string]int{}
	for _, e := range evidence {
		if e.Correct {
			correct++
			levels[e.Level]++
		}
	}
	percent := 0
	if len(evidence) > 0 {
		percent = correct * 100 / len(evidence)
	}
	result := &models.AssessmentResult{
		UserID:        sess.UserID,
		SessionID:     sess.ID,
		CorrectCount:  correct,
		Percent:       percent,
		StatsLevel:    StatsLevel(correct, len(evidence)),
		LevelsSummary: levels,
		FinishedAt:    time.Now(),
	}
	if err := s.Results.Create(ctx, result); err != nil {
		log.Printf("archive result for %s failed: %v", sess.ID, err)
	}
}

func (s *AssessService) publishOutcome(sessionID, userID string, action assessment.Action) {
	if s.Events == nil {
		return
	}
	eventType := event.AssessmentCompleted
	if action == assessment.ActionStop {
		eventType = event.AssessmentStopped
	}
	if err := s.Events.Publish(eventType, map[string]string{
		"session_id": sessionID,
		"user_id":    userID,
	}); err != nil {
		log.Printf("publish %s failed: %v", eventType, err)
	}
}

func questionView(q *models.Question, questionIndex int) *QuestionView {
	return &QuestionView{
		Kind:           "question",
		Level:          q.Level,
		Cluster:        q.Cluster,
		Prompt:         q.Prompt,
		Choices:        append([]string{}, q.Choices...),
		CorrectAnswer:  "__hidden__",
		QuestionNumber: questionIndex,
		TotalQuestions: 2,
	}
}

func renderQuestionMessage(q *models.Question) string {
	var b strings.Builder
	b.WriteString(q.Prompt)
	for i, c := range q.Choices {
		fmt.Fprintf(&b, "\n%c) %s", 'A'+i, c)
	}
	return b.String()
}
