package model

import (
	"time"

	"github.com/google/uuid"
)

// TrendPoint is one assessment in a patient's chronological score timeline.
type TrendPoint struct {
	AssessmentID  uuid.UUID `json:"id"`
	TotalScore    int       `json:"total_score"`
	SeverityLevel string    `json:"severity_level"`
	DateCreated   time.Time `json:"date_created"`
}

// PatientInfo is the demographic block embedded in analysis responses.
type PatientInfo struct {
	Name           string `json:"nombre"`
	Identification string `json:"identificacion"`
	Age            int    `json:"edad"`
}

type AnalyzeAssessmentRequest struct {
	AssessmentID string `json:"assessment_id" binding:"required"`
}

type AnalyzeTrendsRequest struct {
	PatientID string `json:"patient_id" binding:"required"`
}

// AssessmentAnalysis is the response for a single-assessment narrative.
type AssessmentAnalysis struct {
	PatientInfo      PatientInfo        `json:"patient_info"`
	AssessmentInfo   AssessmentResponse `json:"assessment_info"`
	ClinicalAnalysis string             `json:"clinical_analysis"`
}

// TrendAnalysis is the response for a patient's score-evolution narrative.
type TrendAnalysis struct {
	PatientInfo      PatientInfo  `json:"patient_info"`
	AssessmentsCount int          `json:"assessments_count"`
	AssessmentsData  []TrendPoint `json:"assessments_data"`
	TrendNarrative   string       `json:"trend_analysis"`
}
