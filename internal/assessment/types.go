package assessment

import "errors"

// Action is the engine's decision after grading an answer. Actions are normal
// return values, never errors.
type Action string

const (
	ActionContinue       Action = "continue"
	ActionRetrySameLevel Action = "retry_same_level"
	ActionAdvance        Action = "advance"
	ActionComplete       Action = "complete"
	ActionStop           Action = "stop"
)

// Attempt types used when requesting a question from the generator.
const (
	AttemptFirst = "first"
	AttemptRetry = "retry"
)

// Difficulty hints within a level: question 1 is easier, question 2 harder.
const (
	DifficultyEasy   = "easy"
	DifficultyHarder = "harder"
)

var (
	// ErrNoActiveQuestion means an answer was submitted with no question
	// pending. Client-ordering error; state is left unchanged.
	ErrNoActiveQuestion = errors.New("no active question")

	// ErrInvalidChoice means the submitted choice index is out of range.
	// Rejected before any evidence is recorded.
	ErrInvalidChoice = errors.New("choice index out of range")

	// ErrInvalidQuestionSchema means the generator returned a malformed
	// question. Retryable; the engine mutates nothing.
	ErrInvalidQuestionSchema = errors.New("invalid question schema")

	// ErrQuestionPending means a new question was offered while one is
	// already in flight. The pending question must be re-served instead.
	ErrQuestionPending = errors.New("question already in flight")
)

// Criteria describes the constraints the next generated question must
// satisfy.
type Criteria struct {
	Level         string   `json:"level"`
	AttemptType   string   `json:"attempt_type"` // "first" | "retry"
	QuestionIndex int      `json:"question_index"`
	UsedClusters  []string `json:"used_clusters_current_attempt"`
	AvoidStems    []string `json:"avoid_stems"`
	Difficulty    string   `json:"difficulty"`
}

// Generated is a question as returned by the generator, with choices in the
// generator's canonical order. CorrectIndex is a pointer so a missing or
// non-numeric field can be told apart from zero.
type Generated struct {
	Kind         string   `json:"kind"`
	Level        string   `json:"level"`
	Cluster      string   `json:"cluster"`
	Difficulty   string   `json:"difficulty"`
	Prompt       string   `json:"prompt"`
	Choices      []string `json:"choices"`
	CorrectIndex *int     `json:"correct_index"`
}

// Result is the outcome of grading one answer.
type Result struct {
	Correct bool   `json:"correct"`
	Action  Action `json:"next_action"`
	Level   string `json:"level"` // level after the transition
}
