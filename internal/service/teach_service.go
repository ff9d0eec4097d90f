package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/AhmedAbdelmoaty/Assessment/internal/event"
	"github.com/AhmedAbdelmoaty/Assessment/internal/models"
	"github.com/AhmedAbdelmoaty/Assessment/internal/prompts"
	"github.com/AhmedAbdelmoaty/Assessment/internal/topics"
)

// TeachService walks the post-report teaching queue with the tutor model.
type TeachService struct {
	Sessions  *SessionService
	Generator Generator
	Events    Publisher
}

func NewTeachService(sessions *SessionService, generator Generator, events Publisher) *TeachService {
	return &TeachService{Sessions: sessions, Generator: generator, Events: events}
}

// TeachReply is one tutor turn.
type TeachReply struct {
	Message   string `json:"message"`
	TopicDone bool   `json:"topicDone,omitempty"`
	NextTopic string `json:"nextTopic,omitempty"`
	Completed bool   `json:"completed,omitempty"`
}

// Start activates teaching for a reported session. The topic queue is built
// once from the report's strengths and gaps, ordered by the curriculum, and
// then walked linearly.
func (s *TeachService) Start(ctx context.Context, userID, sessionID string) (*TeachReply, error) {
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

	teaching := &state.Teaching
	teaching.Lang = state.Lang

	var strengthsDisplay, gapsDisplay []string
	if state.Report != nil {
		strengthsDisplay = state.Report.StrengthsDisplay
		gapsDisplay = state.Report.GapsDisplay
	}
	if len(strengthsDisplay) == 0 && len(gapsDisplay) == 0 {
		return nil, ErrNoTopics
	}

	if len(teaching.TopicsQueue) == 0 {
		teaching.TopicsQueue = buildTopicQueue(strengthsDisplay, gapsDisplay, teaching.Lang)
	}
	if len(teaching.TopicsQueue) == 0 {
		return nil, ErrNoTopics
	}

	teaching.Mode = models.TeachingActive
	teaching.CurrentTopicIndex = 0
	teaching.ProfileContext = profileForPrompts(state.Intake)
	state.CurrentStep = models.StepTeaching

	first := teaching.CurrentTopic()
	seed := teachSeed(teaching.Lang, first)
	reply, terr := s.Generator.Teach(ctx, teaching.Lang, first, teaching.TopicsQueue, teaching.ProfileContext, nil, seed)
	if terr != nil || strings.TrimSpace(reply) == "" {
		if terr != nil {
			log.Printf("teach start for %s fell back: %v", sess.ID, terr)
		}
		reply = teachStartFallback(teaching.Lang)
	}
	reply, _ = stripTopicDone(reply)

	teaching.PushTranscript("tutor", reply)
	if err := s.Sessions.AppendMessage(ctx, state, "assistant", reply); err != nil {
		return nil, err
	}
	if err := s.Sessions.Persist(ctx, sess.ID, state); err != nil {
		return nil, err
	}

	if s.Events != nil {
		if err := s.Events.Publish(event.TeachingStarted, map[string]string{
			"session_id": sess.ID,
			"user_id":    userID,
		}); err != nil {
			log.Printf("publish teaching.started failed: %v", err)
		}
	}
	return &TeachReply{Message: reply}, nil
}

// Message handles one learner turn. When the tutor signals the current topic
// is understood, the queue advances; exhausting the queue completes the
// teaching session.
func (s *TeachService) Message(ctx context.Context, userID, sessionID, text string) (*TeachReply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

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
	teaching := &state.Teaching
	if teaching.Mode != models.TeachingActive {
		return nil, ErrTeachingInactive
	}

	current := teaching.CurrentTopic()
	if current == nil {
		done := teachCompletedMessage(teaching.Lang)
		return &TeachReply{Message: done, Completed: true}, nil
	}

	history := append([]models.TranscriptEntry{}, teaching.Transcript...)
	teaching.PushTranscript("user", text)
	if err := s.Sessions.AppendMessage(ctx, state, "user", text); err != nil {
		return nil, err
	}

	reply, terr := s.Generator.Teach(ctx, teaching.Lang, current, teaching.TopicsQueue, teaching.ProfileContext, history, text)
	if terr != nil || strings.TrimSpace(reply) == "" {
		if terr != nil {
			log.Printf("teach message for %s fell back: %v", sess.ID, terr)
		}
		reply = teachMessageFallback(teaching.Lang)
	}

	reply, topicDone := stripTopicDone(reply)
	out := &TeachReply{Message: reply, TopicDone: topicDone}
	if topicDone {
		teaching.CurrentTopicIndex++
		if next := teaching.CurrentTopic(); next != nil {
			out.NextTopic = next.Display
		} else {
			teaching.Mode = models.TeachingIdle
			state.Finished = true
			out.Completed = true
		}
	}

	teaching.PushTranscript("tutor", reply)
	if err := s.Sessions.AppendMessage(ctx, state, "assistant", reply); err != nil {
		return nil, err
	}
	if err := s.Sessions.Persist(ctx, sess.ID, state); err != nil {
		return nil, err
	}
	return out, nil
}

// buildTopicQueue orders the report's topics by the curriculum: every
// cluster in catalog order that appears in strengths or gaps, strengths
// taught as quick reviews and gaps in depth.
func buildTopicQueue(strengthsDisplay, gapsDisplay []string, lang string) []models.TeachingTopic {
	inStrengths := toSet(strengthsDisplay)
	inGaps := toSet(gapsDisplay)

	var queue []models.TeachingTopic
	for _, cluster := range topics.CatalogOrder() {
		display := topics.Humanize(cluster, lang)
		if inStrengths[display] {
			queue = append(queue, models.TeachingTopic{Display: display, Kind: "strength"})
		} else if inGaps[display] {
			queue = append(queue, models.TeachingTopic{Display: display, Kind: "gap"})
		}
	}
	return queue
}

func toSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, s := range list {
		set[s] = true
	}
	return set
}

// stripTopicDone removes the completion marker wherever the model put it.
func stripTopicDone(reply string) (string, bool) {
	if !strings.Contains(reply, prompts.TopicDoneMarker) {
		return reply, false
	}
	reply = strings.ReplaceAll(reply, prompts.TopicDoneMarker, "")
	return strings.TrimSpace(reply), true
}

func teachSeed(lang string, topic *models.TeachingTopic) string {
	if lang == "ar" {
		return fmt.Sprintf("ابدأ بالموضوع: %q (النوع: %s).", topic.Display, topic.Kind)
	}
	return fmt.Sprintf("Start with topic: %q (kind: %s).", topic.Display, topic.Kind)
}

func teachStartFallback(lang string) string {
	if lang == "ar" {
		return "هنبدأ شرح أول موضوع بشكل بسيط خطوة بخطوة."
	}
	return "Let's start with the first topic, step by step."
}

func teachMessageFallback(lang string) string {
	if lang == "ar" {
		return "تمام، خلّيني أوضّحها خطوة خطوة."
	}
	return "Okay, let me break it down step by step."
}

func teachCompletedMessage(lang string) string {
	if lang == "ar" {
		return "أنهينا كل المواضيع! أحسنت على مثابرتك."
	}
	return "We've covered all the topics! Great persistence."
}
