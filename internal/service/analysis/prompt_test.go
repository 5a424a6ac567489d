package analysis

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/psybot/psybot-api/internal/model"
)

func promptPatient() *model.Patient {
	return &model.Patient{
		ID:             uuid.New(),
		FirstName:      "Juan",
		LastName:       "Perez",
		Identification: "ABC123",
		DateOfBirth:    time.Date(1980, 12, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAssessmentPromptEncodesClinicalFacts(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assessment := &model.PHQ9Assessment{
		ID:          uuid.New(),
		Responses:   pq.Int64Array{2, 1, 2, 1, 2, 1, 2, 1, 2},
		TotalScore:  14,
		DateCreated: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	}

	prompt := buildAssessmentPrompt(promptPatient(), assessment, now)

	assert.Contains(t, prompt, "Juan Perez")
	assert.Contains(t, prompt, "ABC123")
	// Year subtraction: 2024 - 1980, even though the December birthday
	// has not happened yet.
	assert.Contains(t, prompt, "Age: 44")
	assert.Contains(t, prompt, "15/02/2024")
	assert.Contains(t, prompt, "Total score: 14/27")
	assert.Contains(t, prompt, "Severity: Moderate")
	assert.Contains(t, prompt, "Little interest or pleasure in doing things: 2 (More than half the days)")
	assert.Contains(t, prompt, "Feeling down, depressed, or hopeless: 1 (Several days)")
}

func TestAssessmentPromptIsDeterministic(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	patient := promptPatient()
	assessment := &model.PHQ9Assessment{
		ID:          uuid.New(),
		Responses:   pq.Int64Array{0, 0, 0, 0, 0, 0, 0, 0, 0},
		TotalScore:  0,
		DateCreated: now,
	}

	assert.Equal(t,
		buildAssessmentPrompt(patient, assessment, now),
		buildAssessmentPrompt(patient, assessment, now))
}

func TestTrendsPromptEncodesTimeline(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	points := []model.TrendPoint{
		{AssessmentID: uuid.New(), TotalScore: 23, SeverityLevel: "Severe", DateCreated: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{AssessmentID: uuid.New(), TotalScore: 5, SeverityLevel: "Mild", DateCreated: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	prompt := buildTrendsPrompt(promptPatient(), points, now)

	assert.Contains(t, prompt, "Number of assessments: 2")
	assert.Contains(t, prompt, "Assessment 1 (01/01/2024): total score 23/27, severity Severe")
	assert.Contains(t, prompt, "Assessment 2 (01/03/2024): total score 5/27, severity Mild")
}
