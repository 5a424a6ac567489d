package assessment

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/psybot/psybot-api/internal/model"
	"github.com/psybot/psybot-api/internal/service/assessment"
	apperrors "github.com/psybot/psybot-api/pkg/errors"
	"github.com/psybot/psybot-api/pkg/httputil"
)

type Handler struct {
	service assessment.AssessmentService
}

func NewHandler(service assessment.AssessmentService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	assessments := r.Group("/assessments")
	{
		assessments.POST("", h.CreateAssessment)
		assessments.GET("/:id", h.GetAssessment)
	}
	r.GET("/patients/:id/assessments", h.ListByPatient)
}

func (h *Handler) CreateAssessment(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	// The score is derived from the responses on the server. A payload that
	// tries to supply one is rejected outright rather than silently ignored.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}
	if _, ok := raw["total_score"]; ok {
		httputil.RespondWithError(c, apperrors.BadRequest("total_score is computed by the server and must not be supplied", nil))
		return
	}

	var req model.CreateAssessmentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}

	created, err := h.service.CreateAssessment(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithData(c, http.StatusCreated, created)
}

func (h *Handler) GetAssessment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid assessment ID", err))
		return
	}

	a, err := h.service.GetAssessment(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithData(c, http.StatusOK, a)
}

func (h *Handler) ListByPatient(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid patient ID", err))
		return
	}

	assessments, err := h.service.ListByPatient(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithData(c, http.StatusOK, assessments)
}
