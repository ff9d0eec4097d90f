package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/AhmedAbdelmoaty/Assessment/internal/assessment"
	"github.com/AhmedAbdelmoaty/Assessment/internal/event"
	"github.com/AhmedAbdelmoaty/Assessment/internal/models"
	"github.com/AhmedAbdelmoaty/Assessment/internal/prompts"
	"github.com/AhmedAbdelmoaty/Assessment/internal/topics"
)

const testUser = "user-1"

var intakeAnswers = map[string]string{
	"name_full":             "Sara Ahmed",
	"email":                 "sara@example.com",
	"phone_number":          "+20 123 456 7890",
	"country":               "Egypt",
	"age_band":              "25–34",
	"job_nature":            "Sales",
	"experience_years_band": "3–5y",
	"job_title_exact":       "Sales Analyst",
	"sector":                "Retail/E-commerce",
	"learning_reason":       "Promotion",
}

func strPtr(s string) *string { return &s }

func runIntake(t *testing.T, e *env) string {
	t.Helper()
	ctx := context.Background()

	view, err := e.intake.Next(ctx, testUser, "", "en", nil)
	if err != nil {
		t.Fatalf("opening: %v", err)
	}
	if view.StepKey != "__opening__" || !view.AutoNext {
		t.Fatalf("opening view = %+v", view)
	}
	sessionID := view.SessionID

	view, err = e.intake.Next(ctx, testUser, sessionID, "en", nil)
	if err != nil {
		t.Fatalf("first step: %v", err)
	}

	for !view.Done {
		answer, ok := intakeAnswers[view.StepKey]
		if !ok {
			t.Fatalf("unexpected step %q", view.StepKey)
		}
		view, err = e.intake.Next(ctx, testUser, sessionID, "en", strPtr(answer))
		if err != nil {
			t.Fatalf("step %q: %v", view.StepKey, err)
		}
		if view.Invalid {
			t.Fatalf("valid answer rejected: %+v", view)
		}
	}
	return sessionID
}

// serveAndAnswer pulls the next question and submits either the correct
// choice or a wrong one.
func serveAndAnswer(t *testing.T, e *env, sessionID string, correct bool) *AnswerView {
	t.Helper()
	ctx := context.Background()

	q, err := e.assess.NextQuestion(ctx, testUser, sessionID)
	if err != nil {
		t.Fatalf("NextQuestion: %v", err)
	}
	if q.CorrectAnswer != "__hidden__" {
		t.Fatalf("correct answer leaked: %q", q.CorrectAnswer)
	}

	idx := -1
	for i, c := range q.Choices {
		if c == "right" {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.Fatalf("correct choice missing from %v", q.Choices)
	}
	if !correct {
		idx = (idx + 1) % len(q.Choices)
	}

	view, err := e.assess.SubmitAnswer(ctx, testUser, sessionID, idx)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	return view
}

func TestIntakeWalkthrough(t *testing.T) {
	e := newEnv()
	sessionID := runIntake(t, e)

	sess := e.store.sessions[sessionID]
	if sess.Status != models.StepAssessment || !sess.IntakeDone {
		t.Fatalf("session after intake: status=%q intake_done=%v", sess.Status, sess.IntakeDone)
	}
	if sess.State.Intake["job_nature"] != "Sales" {
		t.Fatalf("intake answers not stored: %v", sess.State.Intake)
	}

	profile := e.profiles.profiles[testUser]
	if profile == nil || profile.Fields["sector"] != "Retail/E-commerce" {
		t.Fatalf("profile not saved: %+v", profile)
	}

	msgs := e.messages.messages[sessionID]
	if len(msgs) == 0 || msgs[len(msgs)-1].Sender != "assistant" {
		t.Fatalf("intake conversation not persisted: %d messages", len(msgs))
	}
}

func TestIntakeValidationReAsksSameStep(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	view, _ := e.intake.Next(ctx, testUser, "", "en", nil)
	sessionID := view.SessionID
	e.intake.Next(ctx, testUser, sessionID, "en", nil)

	cases := []struct {
		step   string
		answer string
	}{
		{"name_full", "Sara"},
		{"name_full", "   "},
	}
	for _, tc := range cases {
		got, err := e.intake.Next(ctx, testUser, sessionID, "en", strPtr(tc.answer))
		if err != nil {
			t.Fatalf("%q: %v", tc.answer, err)
		}
		if !got.Invalid || got.Message == "" {
			t.Fatalf("%q accepted for %s: %+v", tc.answer, tc.step, got)
		}
	}

	state := e.store.sessions[sessionID].State
	if state.IntakeStepIndex != 0 {
		t.Fatalf("step advanced past invalid answers: index=%d", state.IntakeStepIndex)
	}

	got, err := e.intake.Next(ctx, testUser, sessionID, "en", strPtr("Sara Ahmed"))
	if err != nil || got.Invalid {
		t.Fatalf("valid name rejected: %+v err=%v", got, err)
	}
	if got.StepKey != "email" {
		t.Fatalf("next step = %q, want email", got.StepKey)
	}
}

func TestProfileReuseSkipsIntake(t *testing.T) {
	e := newEnv()
	runIntake(t, e)

	sess, err := e.sessions.StartNew(context.Background(), testUser, "")
	if err != nil {
		t.Fatalf("StartNew: %v", err)
	}
	if sess.State.CurrentStep != models.StepAssessment {
		t.Fatalf("new session step = %q, want assessment", sess.State.CurrentStep)
	}
	if sess.State.Intake["job_title_exact"] != "Sales Analyst" {
		t.Fatalf("profile not copied in: %v", sess.State.Intake)
	}
	if !sess.IntakeDone {
		t.Fatal("intake_done not derived for profile reuse")
	}
}

func TestNextQuestionReservesInFlight(t *testing.T) {
	e := newEnv()
	sessionID := runIntake(t, e)
	ctx := context.Background()

	q1, err := e.assess.NextQuestion(ctx, testUser, sessionID)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	q2, err := e.assess.NextQuestion(ctx, testUser, sessionID)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if q1.Prompt != q2.Prompt {
		t.Fatalf("in-flight question changed: %q vs %q", q1.Prompt, q2.Prompt)
	}
	if e.generator.generateCalls != 1 {
		t.Fatalf("generator called %d times, want 1", e.generator.generateCalls)
	}

	state := e.store.sessions[sessionID].State
	if len(state.Assessment.StemsCurrentAttempt) != 1 {
		t.Fatalf("re-serve duplicated stems: %v", state.Assessment.StemsCurrentAttempt)
	}
}

func TestGeneratorFailureLeavesStateUnchanged(t *testing.T) {
	e := newEnv()
	sessionID := runIntake(t, e)
	e.generator.failGenerate = true

	_, err := e.assess.NextQuestion(context.Background(), testUser, sessionID)
	if err == nil {
		t.Fatal("expected error from failing generator")
	}

	a := e.store.sessions[sessionID].State.Assessment
	if a.CurrentQuestion != nil || len(a.StemsCurrentAttempt) != 0 || len(a.UsedClustersCurrentAttempt) != 0 {
		t.Fatalf("state mutated on failure: %+v", a)
	}

	e.generator.failGenerate = false
	if _, err := e.assess.NextQuestion(context.Background(), testUser, sessionID); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestAnswerReplayReturnsStoredOutcome(t *testing.T) {
	e := newEnv()
	sessionID := runIntake(t, e)
	ctx := context.Background()

	if _, err := e.assess.NextQuestion(ctx, testUser, sessionID); err != nil {
		t.Fatalf("NextQuestion: %v", err)
	}
	state := e.store.sessions[sessionID].State
	qid := state.Assessment.CurrentQuestion.QID

	// A previous submit was graded but its response was lost before the
	// state write landed.
	stored, _ := json.Marshal(&AnswerView{Correct: true, NextAction: "continue", CanProceed: true})
	e.idems.Begin(ctx, sessionID, "answer", qid)
	e.idems.Finish(ctx, sessionID, "answer", qid, stored)

	view, err := e.assess.SubmitAnswer(ctx, testUser, sessionID, 3)
	if err != nil {
		t.Fatalf("replayed submit: %v", err)
	}
	if !view.Correct || view.NextAction != "continue" {
		t.Fatalf("replay returned %+v, want stored outcome", view)
	}
	if len(state.Assessment.Evidence) != 0 {
		t.Fatal("replay re-graded the question")
	}
}

func TestSubmitAfterGradeIsRejected(t *testing.T) {
	e := newEnv()
	sessionID := runIntake(t, e)

	serveAndAnswer(t, e, sessionID, true)
	_, err := e.assess.SubmitAnswer(context.Background(), testUser, sessionID, 0)
	if !errors.Is(err, assessment.ErrNoActiveQuestion) {
		t.Fatalf("err = %v, want ErrNoActiveQuestion", err)
	}
}

func TestFullRunAllCorrectToAdvancedReport(t *testing.T) {
	e := newEnv()
	sessionID := runIntake(t, e)
	ctx := context.Background()

	actions := []string{"continue", "advance", "continue", "advance", "continue", "complete"}
	for i, want := range actions {
		view := serveAndAnswer(t, e, sessionID, true)
		if view.NextAction != want {
			t.Fatalf("answer %d: action %q, want %q", i+1, view.NextAction, want)
		}
		if !view.CanProceed {
			t.Fatalf("answer %d: canProceed false on %q", i+1, want)
		}
	}

	state := e.store.sessions[sessionID].State
	if state.CurrentStep != models.StepReport {
		t.Fatalf("step = %q, want report", state.CurrentStep)
	}
	if len(e.results.results) != 1 || e.results.results[0].CorrectCount != 6 {
		t.Fatalf("archived result wrong: %+v", e.results.results)
	}

	report, err := e.report.Build(ctx, testUser, sessionID)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if report.StatsLevel != "Advanced" {
		t.Fatalf("stats level = %q, want Advanced", report.StatsLevel)
	}
	if len(report.Gaps) != 0 {
		t.Fatalf("full pass produced gaps: %v", report.Gaps)
	}
	if len(report.Strengths) != 6 {
		t.Fatalf("strengths = %v, want all six clusters", report.Strengths)
	}

	// Replay: same report, no second narrative.
	again, err := e.report.Build(ctx, testUser, sessionID)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if again.Message != report.Message {
		t.Fatal("report changed on replay")
	}
	if e.generator.narrateCalls != 1 {
		t.Fatalf("narrative generated %d times, want 1", e.generator.narrateCalls)
	}

	found := false
	for _, ev := range e.publisher.events {
		if ev == event.AssessmentCompleted {
			found = true
		}
	}
	if !found {
		t.Fatalf("completed event not published: %v", e.publisher.events)
	}
}

func TestFailedRetryStopsAndPadsGaps(t *testing.T) {
	e := newEnv()
	sessionID := runIntake(t, e)
	ctx := context.Background()

	serveAndAnswer(t, e, sessionID, false)
	view := serveAndAnswer(t, e, sessionID, false)
	if view.NextAction != "retry_same_level" {
		t.Fatalf("after failed attempt: %q", view.NextAction)
	}
	serveAndAnswer(t, e, sessionID, false)
	view = serveAndAnswer(t, e, sessionID, false)
	if view.NextAction != "stop" || view.CanProceed {
		t.Fatalf("after failed retry: %+v", view)
	}

	report, err := e.report.Build(ctx, testUser, sessionID)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if report.StatsLevel != "Beginner" {
		t.Fatalf("stats level = %q, want Beginner", report.StatsLevel)
	}
	// Both L1 clusters failed plus all four unreached L2/L3 clusters.
	if len(report.Gaps) != 6 {
		t.Fatalf("gaps = %v, want all six clusters", report.Gaps)
	}
	for _, c := range topics.Clusters[topics.LevelL2] {
		if !containsStr(report.Gaps, c) {
			t.Fatalf("unreached cluster %q missing from gaps", c)
		}
	}

	found := false
	for _, ev := range e.publisher.events {
		if ev == event.AssessmentStopped {
			found = true
		}
	}
	if !found {
		t.Fatalf("stopped event not published: %v", e.publisher.events)
	}
}

func TestTeachingWalksQueueInCurriculumOrder(t *testing.T) {
	e := newEnv()
	sessionID := runIntake(t, e)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		serveAndAnswer(t, e, sessionID, true)
	}
	if _, err := e.report.Build(ctx, testUser, sessionID); err != nil {
		t.Fatalf("Build: %v", err)
	}

	reply, err := e.teach.Start(ctx, testUser, sessionID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if reply.Message == "" {
		t.Fatal("empty opening reply")
	}

	state := e.store.sessions[sessionID].State
	if state.CurrentStep != models.StepTeaching || state.Teaching.Mode != models.TeachingActive {
		t.Fatalf("teaching not activated: step=%q mode=%q", state.CurrentStep, state.Teaching.Mode)
	}
	queue := state.Teaching.TopicsQueue
	if len(queue) != 6 {
		t.Fatalf("queue length = %d, want 6", len(queue))
	}
	for i, cluster := range topics.CatalogOrder() {
		want := topics.Humanize(cluster, "en")
		if queue[i].Display != want {
			t.Fatalf("queue[%d] = %q, want %q", i, queue[i].Display, want)
		}
		if queue[i].Kind != "strength" {
			t.Fatalf("queue[%d].Kind = %q, want strength after a clean run", i, queue[i].Kind)
		}
	}

	// The tutor signals topic completion; the queue advances.
	e.generator.teachReply = "well done\n" + prompts.TopicDoneMarker
	msg, err := e.teach.Message(ctx, testUser, sessionID, "I think I got it")
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	if !msg.TopicDone || msg.NextTopic != queue[1].Display {
		t.Fatalf("advance reply = %+v", msg)
	}
	if strings.Contains(msg.Message, prompts.TopicDoneMarker) {
		t.Fatal("marker leaked into the reply")
	}
	state = e.store.sessions[sessionID].State
	if state.Teaching.CurrentTopicIndex != 1 {
		t.Fatalf("topic index = %d, want 1", state.Teaching.CurrentTopicIndex)
	}

	// Walk the remaining topics to completion.
	for i := 1; i < 6; i++ {
		msg, err = e.teach.Message(ctx, testUser, sessionID, "understood")
		if err != nil {
			t.Fatalf("topic %d: %v", i, err)
		}
	}
	if !msg.Completed {
		t.Fatalf("final reply not completed: %+v", msg)
	}
	state = e.store.sessions[sessionID].State
	if state.Teaching.Mode != models.TeachingIdle || !state.Finished {
		t.Fatalf("teaching not closed out: mode=%q finished=%v", state.Teaching.Mode, state.Finished)
	}
}

func TestTeachMessageGuards(t *testing.T) {
	e := newEnv()
	sessionID := runIntake(t, e)
	ctx := context.Background()

	if _, err := e.teach.Start(ctx, testUser, sessionID); !errors.Is(err, ErrNoTopics) {
		t.Fatalf("start before report: err = %v, want ErrNoTopics", err)
	}
	if _, err := e.teach.Message(ctx, testUser, sessionID, "hello"); !errors.Is(err, ErrTeachingInactive) {
		t.Fatalf("message before start: err = %v, want ErrTeachingInactive", err)
	}
	if _, err := e.teach.Message(ctx, testUser, sessionID, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("blank message: err = %v, want ErrEmptyMessage", err)
	}
}

func TestTeachGeneratorFailureFallsBack(t *testing.T) {
	e := newEnv()
	sessionID := runIntake(t, e)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		serveAndAnswer(t, e, sessionID, true)
	}
	e.report.Build(ctx, testUser, sessionID)

	e.teach.Start(ctx, testUser, sessionID)
	e.generator.teachErr = errors.New("model unavailable")
	msg, err := e.teach.Message(ctx, testUser, sessionID, "explain again")
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	if msg.Message == "" || msg.TopicDone {
		t.Fatalf("fallback reply = %+v", msg)
	}
}

func TestStartNewEndsCurrentSession(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	first, err := e.sessions.GetOrCreateCurrent(ctx, testUser, "en")
	if err != nil {
		t.Fatalf("GetOrCreateCurrent: %v", err)
	}
	second, err := e.sessions.StartNew(ctx, testUser, "en")
	if err != nil {
		t.Fatalf("StartNew: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("StartNew returned the old session")
	}
	if e.store.sessions[first.ID].Status != models.StatusEnded {
		t.Fatalf("old session status = %q, want ended", e.store.sessions[first.ID].Status)
	}

	cur, err := e.sessions.GetOrCreateCurrent(ctx, testUser, "")
	if err != nil {
		t.Fatalf("GetOrCreateCurrent after StartNew: %v", err)
	}
	if cur.ID != second.ID {
		t.Fatalf("current session = %s, want %s", cur.ID, second.ID)
	}
}

func TestLoadStateRejectsForeignSessions(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	sess, _ := e.sessions.GetOrCreateCurrent(ctx, testUser, "en")
	if _, err := e.sessions.LoadState(ctx, sess.ID, "someone-else"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	if _, err := e.sessions.LoadState(ctx, "missing", testUser); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("missing id: err = %v, want ErrSessionNotFound", err)
	}
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
