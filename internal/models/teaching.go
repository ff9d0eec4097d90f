package models

// Teaching modes.
const (
	TeachingIdle   = "idle"
	TeachingActive = "active"
)

// TeachingTopic is one entry in the teaching queue: a display name plus
// whether it was a strength (quick review) or a gap (deeper pass).
type TeachingTopic struct {
	Display string `bson:"display" json:"display"`
	Kind    string `bson:"kind" json:"kind"` // "strength" | "gap"
}

// TranscriptEntry is one turn of the teaching conversation kept in state for
// prompt context. The durable chat log is separate.
type TranscriptEntry struct {
	From string `bson:"from" json:"from"` // "user" | "tutor"
	Text string `bson:"text" json:"text"`
}

const (
	maxTranscriptEntries = 8
	maxTranscriptChars   = 4000
)

// TeachingState is the linear topic-queue walk that follows the report.
type TeachingState struct {
	Mode              string            `bson:"mode" json:"mode"`
	Lang              string            `bson:"lang" json:"lang"`
	TopicsQueue       []TeachingTopic   `bson:"topics_queue" json:"topics_queue"`
	CurrentTopicIndex int               `bson:"current_topic_index" json:"current_topic_index"`
	Transcript        []TranscriptEntry `bson:"transcript" json:"transcript"`
	ProfileContext    map[string]string `bson:"profile_context" json:"profile_context"`
}

// NewTeachingState returns an idle teaching state.
func NewTeachingState() TeachingState {
	return TeachingState{
		Mode:           TeachingIdle,
		Lang:           "ar",
		TopicsQueue:    []TeachingTopic{},
		Transcript:     []TranscriptEntry{},
		ProfileContext: map[string]string{},
	}
}

func (t *TeachingState) normalize() {
	if t.Mode == "" {
		t.Mode = TeachingIdle
	}
	if t.Lang == "" {
		t.Lang = "ar"
	}
	if t.TopicsQueue == nil {
		t.TopicsQueue = []TeachingTopic{}
	}
	if t.Transcript == nil {
		t.Transcript = []TranscriptEntry{}
	}
	if t.ProfileContext == nil {
		t.ProfileContext = map[string]string{}
	}
}

// CurrentTopic returns the topic under discussion, or nil when the queue is
// exhausted or empty.
func (t *TeachingState) CurrentTopic() *TeachingTopic {
	if t.CurrentTopicIndex < 0 || t.CurrentTopicIndex >= len(t.TopicsQueue) {
		return nil
	}
	return &t.TopicsQueue[t.CurrentTopicIndex]
}

// PushTranscript appends a turn, truncating long text and keeping only the
// most recent entries.
func (t *TeachingState) PushTranscript(from, text string) {
	if len(text) > maxTranscriptChars {
		text = text[:maxTranscriptChars]
	}
	t.Transcript = append(t.Transcript, TranscriptEntry{From: from, Text: text})
	if len(t.Transcript) > maxTranscriptEntries {
		t.Transcript = t.Transcript[len(t.Transcript)-maxTranscriptEntries:]
	}
}
