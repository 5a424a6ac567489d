package analysis

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/psybot/psybot-api/internal/model"
	"github.com/psybot/psybot-api/internal/service/analysis"
	apperrors "github.com/psybot/psybot-api/pkg/errors"
	"github.com/psybot/psybot-api/pkg/httputil"
)

type Handler struct {
	service analysis.AnalysisService
}

func NewHandler(service analysis.AnalysisService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/analysis")
	{
		group.POST("/assessment", h.AnalyzeAssessment)
		group.POST("/trends", h.AnalyzeTrends)
	}
}

func (h *Handler) AnalyzeAssessment(c *gin.Context) {
	var req model.AnalyzeAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("assessment_id is required", err))
		return
	}

	id, err := uuid.Parse(req.AssessmentID)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid assessment ID", err))
		return
	}

	result, err := h.service.AnalyzeAssessment(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithData(c, http.StatusOK, result)
}

func (h *Handler) AnalyzeTrends(c *gin.Context) {
	var req model.AnalyzeTrendsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("patient_id is required", err))
		return
	}

	id, err := uuid.Parse(req.PatientID)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid patient ID", err))
		return
	}

	result, err := h.service.AnalyzeTrends(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithData(c, http.StatusOK, result)
}
