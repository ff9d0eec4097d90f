package prompts

import (
	"fmt"
	"strings"
)

// ReportPrompt asks the model for a short closing narrative around an
// already-computed result. The numbers and lists are fixed inputs; the
// model only writes the prose.
func ReportPrompt(lang string, correct, total int, statsLevel string, strengths, gaps []string) string {
	var b strings.Builder

	b.WriteString("You are a supportive statistics instructor wrapping up a short diagnostic assessment.\n")
	b.WriteString("Write a brief, warm closing message (3-5 sentences). Do not invent scores or topics; use only the inputs below.\n\n")
	fmt.Fprintf(&b, "- correct answers: %d of %d\n", correct, total)
	fmt.Fprintf(&b, "- assessed level: %s\n", statsLevel)
	if len(strengths) > 0 {
		fmt.Fprintf(&b, "- strengths: %s\n", strings.Join(strengths, "; "))
	} else {
		b.WriteString("- strengths: none recorded\n")
	}
	if len(gaps) > 0 {
		fmt.Fprintf(&b, "- areas to improve: %s\n", strings.Join(gaps, "; "))
	} else {
		b.WriteString("- areas to improve: none recorded\n")
	}
	b.WriteString("\nMention the score and level once, acknowledge strengths, frame gaps as next steps, and invite the user to start the teaching session.\n")
	if lang == "ar" {
		b.WriteString("Write in clear Modern Standard Arabic.\n")
	} else {
		b.WriteString("Write in clear, simple English.\n")
	}
	b.WriteString("Return plain text only, no JSON, no markdown headers.\n")
	return b.String()
}
