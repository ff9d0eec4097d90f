package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/AhmedAbdelmoaty/Assessment/internal/assessment"
	"github.com/AhmedAbdelmoaty/Assessment/internal/models"
	"github.com/AhmedAbdelmoaty/Assessment/internal/prompts"
)

// Generator produces assessment questions, report narratives and tutor
// replies through the chat completions client.
type Generator struct {
	Client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{Client: client}
}

// Generate asks for one multiple-choice question matching the criteria.
// The raw payload is returned as-is; the engine validates it.
func (g *Generator) Generate(ctx context.Context, lang string, criteria *assessment.Criteria, profile map[string]string) (*assessment.Generated, error) {
	system := prompts.QuestionPrompt(lang, criteria, profile)
	messages := []ChatCompletionMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: "Generate the question now."},
	}

	content, err := g.Client.Complete(ctx, messages, true)
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	var gen assessment.Generated
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &gen); err != nil {
		log.Printf("question payload parse failed: %v", err)
		return nil, fmt.Errorf("question generation returned invalid JSON: %w", err)
	}
	return &gen, nil
}

// Narrate writes the closing report message. On any failure it returns a
// plain local summary so report generation never blocks on the model.
func (g *Generator) Narrate(ctx context.Context, lang string, correct, total int, statsLevel string, strengths, gaps []string) string {
	system := prompts.ReportPrompt(lang, correct, total, statsLevel, strengths, gaps)
	messages := []ChatCompletionMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: "Write the closing message now."},
	}

	content, err := g.Client.Complete(ctx, messages, false)
	if err != nil || strings.TrimSpace(content) == "" {
		if err != nil {
			log.Printf("report narrative failed, using fallback: %v", err)
		}
		return fallbackNarrative(lang, correct, total, statsLevel)
	}
	return strings.TrimSpace(content)
}

// Teach produces the tutor's next reply for the current topic given the
// recent transcript and the learner's latest message.
func (g *Generator) Teach(ctx context.Context, lang string, topic *models.TeachingTopic, queue []models.TeachingTopic, profile map[string]string, transcript []models.TranscriptEntry, userMessage string) (string, error) {
	system := prompts.TeachPrompt(lang, topic, queue, profile)
	messages := make([]ChatCompletionMessage, 0, len(transcript)+2)
	messages = append(messages, ChatCompletionMessage{Role: "system", Content: system})
	for _, entry := range transcript {
		role := "assistant"
		if entry.From == "user" {
			role = "user"
		}
		messages = append(messages, ChatCompletionMessage{Role: role, Content: entry.Text})
	}
	messages = append(messages, ChatCompletionMessage{Role: "user", Content: userMessage})

	content, err := g.Client.Complete(ctx, messages, false)
	if err != nil {
		return "", fmt.Errorf("tutor reply failed: %w", err)
	}
	return strings.TrimSpace(content), nil
}

func fallbackNarrative(lang string, correct, total int, statsLevel string) string {
	if lang == "ar" {
		return fmt.Sprintf("أحسنت على إكمال التقييم. أجبت بشكل صحيح على %d من %d أسئلة، ومستواك الحالي في الإحصاء الوصفي هو %s. يمكنك الآن بدء جلسة التعلم لتقوية النقاط التي تحتاج تحسينًا.", correct, total, statsLevel)
	}
	return fmt.Sprintf("Well done on finishing the assessment. You answered %d of %d questions correctly, and your current descriptive statistics level is %s. You can now start the teaching session to work on the areas that need improvement.", correct, total, statsLevel)
}

// stripCodeFence tolerates models that wrap JSON in markdown fences.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
