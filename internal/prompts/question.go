package prompts

import (
	"fmt"
	"strings"

	"github.com/AhmedAbdelmoaty/Assessment/internal/assessment"
)

// QuestionPrompt builds the system prompt for generating exactly one MCQ.
// The model must answer with a single JSON object:
//
//	{"kind":"question","level":"...","cluster":"...","difficulty":"...",
//	 "prompt":"...","choices":["..."],"correct_index":0}
func QuestionPrompt(lang string, criteria *assessment.Criteria, profile map[string]string) string {
	var b strings.Builder

	b.WriteString("You are a Descriptive Statistics Professor, a veteran university instructor specializing exclusively in Descriptive Statistics.\n")
	b.WriteString("Generate exactly ONE multiple-choice question per call, personalized to the user's job context, and return valid JSON only (no extra text).\n\n")

	b.WriteString("### RUNTIME INPUTS\n")
	fmt.Fprintf(&b, "- lang: %q\n", lang)
	fmt.Fprintf(&b, "- level: %q\n", criteria.Level)
	fmt.Fprintf(&b, "- attempt_type: %q // \"first\" = first attempt at this level; \"retry\" = second and last\n", criteria.AttemptType)
	fmt.Fprintf(&b, "- question_index: %d // 1 = easier within the level; 2 = slightly harder within the same level\n", criteria.QuestionIndex)
	b.WriteString("- profile (use ONLY to shape a natural scenario; never copy as filler):\n")
	for _, key := range []string{"job_nature", "experience_years_band", "job_title_exact", "sector", "learning_reason"} {
		fmt.Fprintf(&b, "  - %s: %q\n", key, profile[key])
	}
	if len(criteria.UsedClusters) > 0 {
		fmt.Fprintf(&b, "- used_clusters_current_attempt (must NOT select any of these): [%s]\n", strings.Join(criteria.UsedClusters, ", "))
	} else {
		b.WriteString("- used_clusters_current_attempt: []\n")
	}
	if criteria.AttemptType == assessment.AttemptRetry && len(criteria.AvoidStems) > 0 {
		b.WriteString("- avoid_stems: do not repeat any of these prior stems or trivially paraphrase them; change scenario and/or numbers and wording:\n")
		for i, s := range criteria.AvoidStems {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, s)
		}
	}

	b.WriteString(`
### LEVEL CATALOG (use only these clusters; do not drift)
L1 - Foundations:
- central_tendency_foundations: mean/median/mode; sensitivity to outliers; choosing the right center for skewed data.
- dispersion_boxplot_foundations: range, variance, standard deviation; reading a boxplot for spread and balance.
L2 - Core Applied Descriptives:
- distribution_shape_normality: normal vs skewed shapes; how shape affects center and spread; spotting non-normality.
- data_quality_outliers_iqr: five-number summary; IQR and lower/upper bounds; when to keep vs remove outliers.
L3 - Professional Descriptive Skills:
- correlation_bivariate_patterns: scatterplots; direction and form; correlation coefficient; correlation is not causation.
- non_normal_skew_kurtosis_z: skewness and kurtosis; simple transforms; Z-scores for distance from the mean.

### PERSONALIZATION POLICY
- Use profile fields only to shape a realistic scenario (domain, metric names, units), never to describe the user.
- Never mention the user's role, title, seniority, or years of experience in the stem or options.
`)
	if lang == "ar" {
		b.WriteString("\n### LANGUAGE\n- Output language = Arabic. Write clear, simple Modern Standard Arabic. On first mention of an ambiguous statistics term, add the English alias in parentheses.\n")
	} else {
		b.WriteString("\n### LANGUAGE\n- Output language = English. Use simple, clear wording.\n")
	}
	b.WriteString(`
### OUTPUT SCHEMA (strict JSON, nothing else)
{"kind":"question","level":"<L1|L2|L3>","cluster":"<cluster code>","difficulty":"<easy|harder>","prompt":"<the stem>","choices":["A","B","C","D"],"correct_index":<0-3>}
`)
	return b.String()
}
