package assessment

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/AhmedAbdelmoaty/Assessment/internal/models"
	"github.com/AhmedAbdelmoaty/Assessment/internal/topics"
)

// Engine owns the adaptive state-machine rules: which level to probe, when
// to retry, when to advance and when to stop. It operates purely on the
// session's assessment sub-state and performs no I/O.
type Engine struct {
	rand *rand.Rand
}

// NewEngine creates an engine with its own shuffle source.
func NewEngine() *Engine {
	return &Engine{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NextCriteria returns the constraints the next question must satisfy:
// level, attempt type, clusters already used in this attempt and, on a
// retry, the stems of the failed attempt that must not be repeated.
func (e *Engine) NextCriteria(state *models.AssessmentState) *Criteria {
	attemptType := AttemptFirst
	var avoid []string
	if state.Attempts > 0 {
		attemptType = AttemptRetry
		avoid = append(avoid, state.LastAttemptStems[state.CurrentLevel]...)
	}
	difficulty := DifficultyEasy
	if state.QuestionIndexInAttempt == 2 {
		difficulty = DifficultyHarder
	}
	return &Criteria{
		Level:         state.CurrentLevel,
		AttemptType:   attemptType,
		QuestionIndex: state.QuestionIndexInAttempt,
		UsedClusters:  append([]string{}, state.UsedClustersCurrentAttempt...),
		AvoidStems:    avoid,
		Difficulty:    difficulty,
	}
}

// AcceptQuestion validates a generated question, shuffles its choices with a
// uniform permutation (remapping the correct index), mints a question id and
// installs it as the in-flight question. On a malformed question the state
// is left untouched and ErrInvalidQuestionSchema is returned so the caller
// can re-request.
func (e *Engine) AcceptQuestion(state *models.AssessmentState, gen *Generated) (*models.Question, error) {
	if state.CurrentQuestion != nil {
		return nil, ErrQuestionPending
	}
	if err := validateGenerated(gen); err != nil {
		return nil, err
	}

	choices, correct := ShuffleChoices(e.rand, gen.Choices, *gen.CorrectIndex)

	level := gen.Level
	if level == "" {
		level = state.CurrentLevel
	}
	difficulty := gen.Difficulty
	if difficulty == "" {
		if state.QuestionIndexInAttempt == 1 {
			difficulty = DifficultyEasy
		} else {
			difficulty = DifficultyHarder
		}
	}

	q := &models.Question{
		Level:        level,
		Cluster:      gen.Cluster,
		Difficulty:   difficulty,
		Prompt:       gen.Prompt,
		Choices:      choices,
		CorrectIndex: correct,
		QID:          fmt.Sprintf("%s-%s", state.CurrentLevel, uuid.NewString()),
	}
	state.CurrentQuestion = q

	// Stems recorded on first attempts feed retry avoidance later; a failed
	// retry ends the level, so retry stems are never consulted.
	if state.Attempts == 0 {
		state.StemsCurrentAttempt = append(state.StemsCurrentAttempt, q.Prompt)
	}
	if state.QuestionIndexInAttempt == 1 && q.Cluster != "" {
		if !contains(state.UsedClustersCurrentAttempt, q.Cluster) {
			state.UsedClustersCurrentAttempt = append(state.UsedClustersCurrentAttempt, q.Cluster)
		}
	}
	return q, nil
}

// SubmitAnswer grades the in-flight question and runs one state-machine
// transition. An attempt is exactly two questions; both wrong fails the
// attempt, anything else passes. A failed first attempt earns one retry at
// the same level; a failed retry is a hard stop. Passing the last level
// completes the assessment.
//
// The transition is pure relative to the session: it never calls out, so it
// cannot time out, and on any returned error the state is unchanged.
func (e *Engine) SubmitAnswer(state *models.AssessmentState, chosenIndex int) (*Result, error) {
	q := state.CurrentQuestion
	if q == nil {
		return nil, ErrNoActiveQuestion
	}
	if chosenIndex < 0 || chosenIndex >= len(q.Choices) {
		return nil, ErrInvalidChoice
	}

	correct := chosenIndex == q.CorrectIndex
	state.Evidence = append(state.Evidence, models.EvidenceEntry{
		Level:   q.Level,
		Cluster: q.Cluster,
		Correct: correct,
		QID:     q.QID,
	})
	state.CurrentQuestion = nil

	res := &Result{Correct: correct, Level: state.CurrentLevel}

	if state.QuestionIndexInAttempt == 1 {
		state.QuestionIndexInAttempt = 2
		res.Action = ActionContinue
		return res, nil
	}

	// Attempt complete: judge it on this attempt's pair, which is the last
	// two evidence entries at the current level. Exact while attempts are
	// two questions and evidence is never reordered.
	wrong := wrongInLastPair(state.Evidence, state.CurrentLevel)

	if wrong == 2 {
		if state.Attempts == 0 {
			state.Attempts = 1
			state.LastAttemptStems[state.CurrentLevel] = append([]string{}, state.StemsCurrentAttempt...)
			state.StemsCurrentAttempt = []string{}
			state.UsedClustersCurrentAttempt = []string{}
			state.QuestionIndexInAttempt = 1
			res.Action = ActionRetrySameLevel
			return res, nil
		}
		res.Action = ActionStop
		return res, nil
	}

	next, ok := topics.NextLevel(topics.Level(state.CurrentLevel))
	if !ok {
		res.Action = ActionComplete
		return res, nil
	}
	state.CurrentLevel = string(next)
	state.Attempts = 0
	state.StemsCurrentAttempt = []string{}
	state.UsedClustersCurrentAttempt = []string{}
	state.QuestionIndexInAttempt = 1
	res.Action = ActionAdvance
	res.Level = state.CurrentLevel
	return res, nil
}

func wrongInLastPair(evidence []models.EvidenceEntry, level string) int {
	wrong := 0
	seen := 0
	for i := len(evidence) - 1; i >= 0 && seen < 2; i-- {
		if evidence[i].Level != level {
			continue
		}
		seen++
		if !evidence[i].Correct {
			wrong++
		}
	}
	return wrong
}

func validateGenerated(gen *Generated) error {
	if gen == nil {
		return fmt.Errorf("%w: empty payload", ErrInvalidQuestionSchema)
	}
	if gen.Kind != "question" {
		return fmt.Errorf("%w: kind %q", ErrInvalidQuestionSchema, gen.Kind)
	}
	if gen.Prompt == "" {
		return fmt.Errorf("%w: missing prompt", ErrInvalidQuestionSchema)
	}
	if len(gen.Choices) < 2 {
		return fmt.Errorf("%w: %d choices", ErrInvalidQuestionSchema, len(gen.Choices))
	}
	if gen.CorrectIndex == nil {
		return fmt.Errorf("%w: missing correct_index", ErrInvalidQuestionSchema)
	}
	if *gen.CorrectIndex < 0 || *gen.CorrectIndex >= len(gen.Choices) {
		return fmt.Errorf("%w: correct_index %d out of range", ErrInvalidQuestionSchema, *gen.CorrectIndex)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
