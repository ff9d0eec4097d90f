package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/AhmedAbdelmoaty/Assessment/internal/event"
	"github.com/AhmedAbdelmoaty/Assessment/internal/models"
	"github.com/AhmedAbdelmoaty/Assessment/internal/topics"
)

// ReportService assembles the final report from the evidence log.
type ReportService struct {
	Sessions  *SessionService
	Generator Generator
	Idems     IdempotencyStore
	Events    Publisher
}

func NewReportService(sessions *SessionService, generator Generator, idems IdempotencyStore, events Publisher) *ReportService {
	return &ReportService{Sessions: sessions, Generator: generator, Idems: idems, Events: events}
}

// StatsLevel maps the overall score to the coarse proficiency label.
func StatsLevel(correct, total int) string {
	if correct >= 5 {
		return "Advanced"
	}
	if correct >= 3 && total >= 4 {
		return "Intermediate"
	}
	return "Beginner"
}

// Build computes the report once per session and replays it afterwards. The
// strengths and gaps are the deduplicated clusters answered right and wrong;
// clusters of levels never reached count as gaps.
func (s *ReportService) Build(ctx context.Context, userID, sessionID string) (*models.Report, error) {
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
	if state.Report != nil {
		return state.Report, nil
	}

	op, fresh, err := s.Idems.Begin(ctx, sess.ID, "report", "final")
	if err != nil {
		return nil, err
	}
	if !fresh && op.Status == "done" && len(op.Result) > 0 {
		var report models.Report
		if jerr := json.Unmarshal(op.Result, &report); jerr == nil {
			state.Report = &report
			if perr := s.Sessions.Persist(ctx, sess.ID, state); perr != nil {
				log.Printf("restore report for %s failed: %v", sess.ID, perr)
			}
			return &report, nil
		}
	}

	lang := state.Lang
	evidence := state.Assessment.Evidence

	var strengths, gaps []string
	for _, e := range evidence {
		if e.Cluster == "" {
			continue
		}
		if e.Correct {
			strengths = appendUnique(strengths, e.Cluster)
		} else {
			gaps = appendUnique(gaps, e.Cluster)
		}
	}

	// Levels the assessment never reached are unknowns; count their
	// clusters as gaps so the teaching plan covers them.
	reached := topics.Level(state.Assessment.CurrentLevel)
	past := false
	for _, lvl := range topics.LevelOrder {
		if past {
			for _, c := range topics.Clusters[lvl] {
				gaps = appendUnique(gaps, c)
			}
		}
		if lvl == reached {
			past = true
		}
	}

	correct := 0
	for _, e := range evidence {
		if e.Correct {
			correct++
		}
	}
	total := len(evidence)
	statsLevel := StatsLevel(correct, total)

	strengthsDisplay := topics.DisplayList(strengths, lang)
	gapsDisplay := topics.DisplayList(gaps, lang)

	narrative := s.Generator.Narrate(ctx, lang, correct, total, statsLevel, strengthsDisplay, gapsDisplay)

	report := &models.Report{
		Kind:             "final_report",
		Message:          narrative,
		Strengths:        strengths,
		Gaps:             gaps,
		StrengthsDisplay: strengthsDisplay,
		GapsDisplay:      gapsDisplay,
		StatsLevel:       statsLevel,
	}

	state.Report = report
	state.Finished = true
	state.CurrentStep = models.StepReport
	if err := s.Sessions.AppendMessage(ctx, state, "assistant", report.Message); err != nil {
		return nil, err
	}
	if err := s.Sessions.Persist(ctx, sess.ID, state); err != nil {
		return nil, err
	}

	if data, jerr := json.Marshal(report); jerr == nil {
		if ferr := s.Idems.Finish(ctx, sess.ID, "report", "final", data); ferr != nil {
			log.Printf("finish report op for %s failed: %v", sess.ID, ferr)
		}
	}
	if s.Events != nil {
		if err := s.Events.Publish(event.ReportGenerated, map[string]string{
			"session_id":  sess.ID,
			"user_id":     userID,
			"stats_level": statsLevel,
		}); err != nil {
			log.Printf("publish report.generated failed: %v", err)
		}
	}
	return report, nil
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
