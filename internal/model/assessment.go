package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PHQ9Assessment is one completed 9-item questionnaire. TotalScore is always
// derived server-side from Responses, never accepted from the caller.
type PHQ9Assessment struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	PatientID   uuid.UUID     `db:"patient_id" json:"patient_id"`
	Responses   pq.Int64Array `db:"responses" json:"responses"`
	TotalScore  int           `db:"total_score" json:"total_score"`
	DateCreated time.Time     `db:"date_created" json:"date_created"`
}

// ResponseValues converts the stored array into plain ints for scoring.
func (a *PHQ9Assessment) ResponseValues() []int {
	out := make([]int, len(a.Responses))
	for i, v := range a.Responses {
		out[i] = int(v)
	}
	return out
}

type CreateAssessmentRequest struct {
	PatientID string `json:"patient_id"`
	Responses []int  `json:"responses"`
	// DateCreated allows back-dated entries; zero means "now".
	DateCreated *time.Time `json:"date_created,omitempty"`
}

// AssessmentResponse is the wire shape returned for a created or fetched
// assessment, with the severity label attached.
type AssessmentResponse struct {
	ID            uuid.UUID `json:"id"`
	PatientID     uuid.UUID `json:"patient_id"`
	Responses     []int     `json:"responses"`
	TotalScore    int       `json:"total_score"`
	SeverityLevel string    `json:"severity_level"`
	DateCreated   time.Time `json:"date_created"`
}
