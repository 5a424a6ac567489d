package api

import (
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireProvider(t *testing.T) {
	t.Helper()
	if os.Getenv("PSYBOT_GEMINI_APIKEY") == "" {
		t.Skip("PSYBOT_GEMINI_APIKEY not set, skipping provider-backed test")
	}
}

func TestAnalysisUnknownAssessment(t *testing.T) {
	requireServer(t)

	resp := makeRequest("POST", "/analysis/assessment", map[string]interface{}{
		"assessment_id": "00000000-0000-0000-0000-000000000000",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnalysisMissingAssessmentID(t *testing.T) {
	requireServer(t)

	resp := makeRequest("POST", "/analysis/assessment", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTrendsUnknownPatient(t *testing.T) {
	requireServer(t)

	resp := makeRequest("POST", "/analysis/trends", map[string]interface{}{
		"patient_id": "00000000-0000-0000-0000-000000000000",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTrendsPatientWithoutAssessments(t *testing.T) {
	requireServer(t)

	patientID := createTestPatient(t)

	resp := makeRequest("POST", "/analysis/trends", map[string]interface{}{
		"patient_id": patientID,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnalyzeAssessment(t *testing.T) {
	requireServer(t)
	requireProvider(t)

	patientID := createTestPatient(t)

	created := makeRequest("POST", "/assessments", map[string]interface{}{
		"patient_id": patientID,
		"responses":  []int{2, 2, 2, 2, 2, 1, 1, 1, 1},
	})
	require.True(t, created.IsSuccess(), created.Message)

	resp := makeRequest("POST", "/analysis/assessment", map[string]interface{}{
		"assessment_id": created.GetString("id"),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Message)
	assert.NotNil(t, resp.Data["patient_info"])
	assert.NotNil(t, resp.Data["assessment_info"])
	assert.NotEmpty(t, resp.Data["clinical_analysis"])
}

func TestAnalyzeTrends(t *testing.T) {
	requireServer(t)
	requireProvider(t)

	patientID := createTestPatient(t)

	for _, responses := range [][]int{
		{3, 3, 3, 2, 2, 2, 2, 2, 2},
		{1, 1, 1, 0, 0, 0, 0, 0, 0},
	} {
		created := makeRequest("POST", "/assessments", map[string]interface{}{
			"patient_id": patientID,
			"responses":  responses,
		})
		require.True(t, created.IsSuccess(), created.Message)
	}

	resp := makeRequest("POST", "/analysis/trends", map[string]interface{}{
		"patient_id": patientID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Message)
	assert.Equal(t, float64(2), resp.GetFloat("assessments_count"))
	assert.NotEmpty(t, resp.Data["trend_analysis"])
	assert.NotNil(t, resp.Data["assessments_data"])
}
