// Package analysis implements the trend aggregator and the narrative
// analysis gateway. The aggregator only supplies ordered numeric facts;
// interpretation is left entirely to the text-generation provider.
package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/psybot/psybot-api/internal/gemini"
	"github.com/psybot/psybot-api/internal/model"
	"github.com/psybot/psybot-api/internal/phq9"
	"github.com/psybot/psybot-api/internal/repository"
	apperrors "github.com/psybot/psybot-api/pkg/errors"
	"github.com/psybot/psybot-api/pkg/logger"
	"github.com/psybot/psybot-api/pkg/metrics"
)

// User-visible messages for provider failure paths.
const (
	msgProviderUnavailable = "Analysis service unavailable: the text-generation provider is not configured or not reachable."
	msgProviderFailed      = "Analysis could not be generated: the text-generation provider returned an error."
)

type AnalysisService interface {
	AnalyzeAssessment(ctx context.Context, assessmentID uuid.UUID) (*model.AssessmentAnalysis, error)
	AnalyzeTrends(ctx context.Context, patientID uuid.UUID) (*model.TrendAnalysis, error)
	Trends(ctx context.Context, patientID uuid.UUID) ([]model.TrendPoint, error)
}

type Service struct {
	patientRepo    repository.PatientRepository
	assessmentRepo repository.AssessmentRepository
	generator      gemini.Generator
	cache          *cache.Cache
	logger         *logger.Logger
	metrics        *metrics.Metrics
	now            func() time.Time
}

func NewService(
	patientRepo repository.PatientRepository,
	assessmentRepo repository.AssessmentRepository,
	generator gemini.Generator,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		patientRepo:    patientRepo,
		assessmentRepo: assessmentRepo,
		generator:      generator,
		cache:          cache.New(15*time.Minute, time.Hour),
		logger:         logger,
		metrics:        metrics,
		now:            time.Now,
	}
}

// Trends returns the patient's assessments ordered ascending by creation
// timestamp, ties broken by id, each annotated with its severity band.
func (s *Service) Trends(ctx context.Context, patientID uuid.UUID) ([]model.TrendPoint, error) {
	exists, err := s.patientRepo.Exists(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !exists {
		return nil, apperrors.NotFound("patient", nil)
	}

	assessments, err := s.assessmentRepo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(assessments) == 0 {
		return nil, apperrors.NotFound("assessments for patient", nil)
	}

	points := make([]model.TrendPoint, len(assessments))
	for i, a := range assessments {
		points[i] = model.TrendPoint{
			AssessmentID:  a.ID,
			TotalScore:    a.TotalScore,
			SeverityLevel: phq9.Severity(a.TotalScore),
			DateCreated:   a.DateCreated,
		}
	}

	// The repository already orders the rows; re-assert the invariant here
	// so the timeline stays deterministic regardless of the backing store.
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].DateCreated.Equal(points[j].DateCreated) {
			return points[i].AssessmentID.String() < points[j].AssessmentID.String()
		}
		return points[i].DateCreated.Before(points[j].DateCreated)
	})

	return points, nil
}

// AnalyzeAssessment builds the single-assessment prompt and delegates to
// the provider. A provider failure never affects stored domain state.
func (s *Service) AnalyzeAssessment(ctx context.Context, assessmentID uuid.UUID) (*model.AssessmentAnalysis, error) {
	assessment, err := s.assessmentRepo.Get(ctx, assessmentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("assessment", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	patient, err := s.patientRepo.Get(ctx, assessment.PatientID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	prompt := buildAssessmentPrompt(patient, assessment, s.now())
	narrative, err := s.generate(ctx, "assessment", "assessment:"+assessmentID.String(), prompt)
	if err != nil {
		return nil, err
	}

	return &model.AssessmentAnalysis{
		PatientInfo: s.patientInfo(patient),
		AssessmentInfo: model.AssessmentResponse{
			ID:            assessment.ID,
			PatientID:     assessment.PatientID,
			Responses:     assessment.ResponseValues(),
			TotalScore:    assessment.TotalScore,
			SeverityLevel: phq9.Severity(assessment.TotalScore),
			DateCreated:   assessment.DateCreated,
		},
		ClinicalAnalysis: narrative,
	}, nil
}

// AnalyzeTrends builds the timeline prompt over all of the patient's
// assessments and delegates to the provider.
func (s *Service) AnalyzeTrends(ctx context.Context, patientID uuid.UUID) (*model.TrendAnalysis, error) {
	patient, err := s.patientRepo.Get(ctx, patientID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	points, err := s.Trends(ctx, patientID)
	if err != nil {
		return nil, err
	}

	prompt := buildTrendsPrompt(patient, points, s.now())
	narrative, err := s.generate(ctx, "trends", trendsCacheKey(patientID, prompt), prompt)
	if err != nil {
		return nil, err
	}

	return &model.TrendAnalysis{
		PatientInfo:      s.patientInfo(patient),
		AssessmentsCount: len(points),
		AssessmentsData:  points,
		TrendNarrative:   narrative,
	}, nil
}

// trendsCacheKey ties the cached narrative to the exact timeline it was
// built from; a new assessment changes the prompt and therefore the key.
// Single-assessment narratives stay keyed by assessment id because
// assessments are immutable once stored.
func trendsCacheKey(patientID uuid.UUID, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "trends:" + patientID.String() + ":" + hex.EncodeToString(sum[:8])
}

func (s *Service) generate(ctx context.Context, kind, cacheKey, prompt string) (string, error) {
	if cached, ok := s.cache.Get(cacheKey); ok {
		if s.metrics != nil {
			s.metrics.AnalysisCacheHits.Inc()
		}
		return cached.(string), nil
	}

	if !s.generator.IsConfigured() {
		s.countProviderCall(kind, "unconfigured")
		return "", apperrors.ProviderUnavailable(msgProviderUnavailable)
	}

	var timer *prometheus.Timer
	if s.metrics != nil {
		timer = prometheus.NewTimer(s.metrics.ProviderLatency)
	}
	narrative, err := s.generator.Generate(ctx, prompt)
	if timer != nil {
		timer.ObserveDuration()
	}

	if err != nil {
		s.logger.Error(err, "text-generation provider call failed", "kind", kind)
		switch {
		case errors.Is(err, gemini.ErrNotConfigured), errors.Is(err, gemini.ErrUnavailable):
			s.countProviderCall(kind, "unavailable")
			return "", apperrors.ProviderUnavailable(msgProviderUnavailable)
		default:
			s.countProviderCall(kind, "error")
			return "", apperrors.ProviderFailed(msgProviderFailed, err)
		}
	}

	s.countProviderCall(kind, "success")
	s.cache.SetDefault(cacheKey, narrative)
	return narrative, nil
}

func (s *Service) countProviderCall(kind, status string) {
	if s.metrics != nil {
		s.metrics.ProviderCalls.WithLabelValues(kind, status).Inc()
	}
}

func (s *Service) patientInfo(patient *model.Patient) model.PatientInfo {
	return model.PatientInfo{
		Name:           patient.FullName(),
		Identification: patient.Identification,
		Age:            phq9.Age(patient.DateOfBirth, s.now()),
	}
}
