package models

// Question is an in-flight MCQ served to the client. Choices are stored in
// their shuffled order and CorrectIndex always refers to that order.
type Question struct {
	Level        string   `bson:"level" json:"level"`
	Cluster      string   `bson:"cluster" json:"cluster"`
	Difficulty   string   `bson:"difficulty" json:"difficulty"`
	Prompt       string   `bson:"prompt" json:"prompt"`
	Choices      []string `bson:"choices" json:"choices"`
	CorrectIndex int      `bson:"correct_index" json:"correct_index"`
	QID          string   `bson:"qid" json:"qid"`
}

// EvidenceEntry is one permanent record of a graded answer. The evidence log
// is append-only and never truncated.
type EvidenceEntry struct {
	Level   string `bson:"level" json:"level"`
	Cluster string `bson:"cluster" json:"cluster"`
	Correct bool   `bson:"correct" json:"correct"`
	QID     string `bson:"qid" json:"qid"`
}

// AssessmentState is the adaptive state machine's mutable state. Each attempt
// at a level is exactly two questions; one retry is permitted per level.
type AssessmentState struct {
	CurrentLevel               string              `bson:"current_level" json:"current_level"`
	Attempts                   int                 `bson:"attempts" json:"attempts"`
	QuestionIndexInAttempt     int                 `bson:"question_index_in_attempt" json:"question_index_in_attempt"`
	UsedClustersCurrentAttempt []string            `bson:"used_clusters_current_attempt" json:"used_clusters_current_attempt"`
	StemsCurrentAttempt        []string            `bson:"stems_current_attempt" json:"stems_current_attempt"`
	LastAttemptStems           map[string][]string `bson:"last_attempt_stems" json:"last_attempt_stems"`
	CurrentQuestion            *Question           `bson:"current_question,omitempty" json:"current_question,omitempty"`
	Evidence                   []EvidenceEntry     `bson:"evidence" json:"evidence"`
}

// NewAssessmentState returns the initial state: level L1, first attempt,
// first question, empty evidence.
func NewAssessmentState() AssessmentState {
	return AssessmentState{
		CurrentLevel:               "L1",
		Attempts:                   0,
		QuestionIndexInAttempt:     1,
		UsedClustersCurrentAttempt: []string{},
		StemsCurrentAttempt:        []string{},
		LastAttemptStems:           map[string][]string{},
		Evidence:                   []EvidenceEntry{},
	}
}

// normalize fills defaults for fields missing from a stored blob.
func (a *AssessmentState) normalize() {
	if a.CurrentLevel == "" {
		a.CurrentLevel = "L1"
	}
	if a.QuestionIndexInAttempt < 1 || a.QuestionIndexInAttempt > 2 {
		a.QuestionIndexInAttempt = 1
	}
	if a.UsedClustersCurrentAttempt == nil {
		a.UsedClustersCurrentAttempt = []string{}
	}
	if a.StemsCurrentAttempt == nil {
		a.StemsCurrentAttempt = []string{}
	}
	if a.LastAttemptStems == nil {
		a.LastAttemptStems = map[string][]string{}
	}
	if a.Evidence == nil {
		a.Evidence = []EvidenceEntry{}
	}
}
