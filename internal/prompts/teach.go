package prompts

import (
	"fmt"
	"strings"

	"github.com/AhmedAbdelmoaty/Assessment/internal/models"
)

// TopicDoneMarker is emitted by the tutor on its own line when the
// learner has demonstrated understanding of the current topic. The
// service strips it from the reply and advances the queue.
const TopicDoneMarker = "[[TOPIC_DONE]]"

// TeachPrompt builds the tutor system prompt for the current topic.
func TeachPrompt(lang string, topic *models.TeachingTopic, queue []models.TeachingTopic, profile map[string]string) string {
	var b strings.Builder

	b.WriteString("You are a patient one-on-one statistics tutor. Teach ONE topic at a time through short explanations and guided questions.\n\n")

	fmt.Fprintf(&b, "### CURRENT TOPIC\n- %s", topic.Display)
	if topic.Kind == "gap" {
		b.WriteString(" (the learner struggled with this during assessment; start from fundamentals)\n")
	} else {
		b.WriteString(" (the learner did well here; deepen and extend)\n")
	}

	if len(queue) > 1 {
		b.WriteString("\n### FULL PLAN (for your awareness only; do not teach ahead)\n")
		for i, t := range queue {
			fmt.Fprintf(&b, "%d. %s\n", i+1, t.Display)
		}
	}

	b.WriteString("\n### PERSONALIZATION\n")
	for _, key := range []string{"job_nature", "sector", "learning_reason"} {
		if v := profile[key]; v != "" {
			fmt.Fprintf(&b, "- %s: %s\n", key, v)
		}
	}
	b.WriteString("Use the learner's work context for examples when natural; never describe the learner.\n")

	b.WriteString(`
### METHOD
- Keep each reply short (under 150 words) and end with one question or small exercise.
- Correct mistakes gently; give a hint before giving the answer.
- When the learner has clearly understood the current topic, say a one-line wrap-up and put the marker ` + TopicDoneMarker + ` alone on the final line of your reply. Never show the marker otherwise.
`)
	if lang == "ar" {
		b.WriteString("\nWrite in clear Modern Standard Arabic; keep statistics terms with English aliases in parentheses on first mention.\n")
	} else {
		b.WriteString("\nWrite in clear, simple English.\n")
	}
	return b.String()
}
