package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/psybot/psybot-api/internal/model"
	"github.com/psybot/psybot-api/internal/phq9"
)

const promptDateLayout = "02/01/2006"

// buildAssessmentPrompt renders the single-assessment prompt. The wording is
// presentation detail; the encoded facts (name, age, itemized responses with
// their anchors, total score, severity) are fixed and deterministic.
func buildAssessmentPrompt(patient *model.Patient, assessment *model.PHQ9Assessment, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "As an expert clinical psychologist, analyze the following PHQ-9 assessment:\n\n")
	fmt.Fprintf(&b, "Patient: %s\n", patient.FullName())
	fmt.Fprintf(&b, "Identification: %s\n", patient.Identification)
	fmt.Fprintf(&b, "Age: %d\n", phq9.Age(patient.DateOfBirth, now))
	fmt.Fprintf(&b, "Assessment date: %s\n\n", assessment.DateCreated.Format(promptDateLayout))

	b.WriteString("Item responses:\n")
	for i, r := range assessment.ResponseValues() {
		fmt.Fprintf(&b, "%d. %s: %d (%s)\n", i+1, phq9.Questions[i], r, phq9.AnswerLabel(r))
	}

	fmt.Fprintf(&b, "\nTotal score: %d/%d\n", assessment.TotalScore, phq9.MaxScore)
	fmt.Fprintf(&b, "Severity: %s\n\n", phq9.Severity(assessment.TotalScore))

	b.WriteString("Provide a detailed clinical analysis covering:\n")
	b.WriteString("1. Interpretation of the depression severity\n")
	b.WriteString("2. The most relevant individual symptoms\n")
	b.WriteString("3. Clinical recommendations\n")
	b.WriteString("4. Suggested follow-up\n")

	return b.String()
}

// buildTrendsPrompt renders the score-evolution prompt over the patient's
// full chronological timeline.
func buildTrendsPrompt(patient *model.Patient, points []model.TrendPoint, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "As an expert clinical psychologist, analyze the following sequence of PHQ-9 assessments:\n\n")
	fmt.Fprintf(&b, "Patient: %s\n", patient.FullName())
	fmt.Fprintf(&b, "Identification: %s\n", patient.Identification)
	fmt.Fprintf(&b, "Age: %d\n", phq9.Age(patient.DateOfBirth, now))
	fmt.Fprintf(&b, "Number of assessments: %d\n\n", len(points))

	b.WriteString("Assessment timeline:\n")
	for i, p := range points {
		fmt.Fprintf(&b, "Assessment %d (%s): total score %d/%d, severity %s\n",
			i+1, p.DateCreated.Format(promptDateLayout), p.TotalScore, phq9.MaxScore, p.SeverityLevel)
	}

	b.WriteString("\nProvide a trend analysis covering:\n")
	b.WriteString("1. Temporal evolution of the depression severity\n")
	b.WriteString("2. Patterns identified across the symptoms\n")
	b.WriteString("3. Interpretation of the patient's progression\n")
	b.WriteString("4. Recommendations for future treatment\n")
	b.WriteString("5. Indicators of improvement or worsening\n")

	return b.String()
}
