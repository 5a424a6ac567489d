package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/psybot/psybot-api/internal/email"
	"github.com/psybot/psybot-api/internal/model"
	"github.com/psybot/psybot-api/internal/phq9"
	"github.com/psybot/psybot-api/internal/repository"
	apperrors "github.com/psybot/psybot-api/pkg/errors"
	"github.com/psybot/psybot-api/pkg/logger"
	"github.com/psybot/psybot-api/pkg/metrics"
)

type AssessmentService interface {
	CreateAssessment(ctx context.Context, req *model.CreateAssessmentRequest) (*model.AssessmentResponse, error)
	GetAssessment(ctx context.Context, id uuid.UUID) (*model.AssessmentResponse, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.AssessmentResponse, error)
}

type Service struct {
	repo        repository.AssessmentRepository
	patientRepo repository.PatientRepository
	outboxRepo  repository.OutboxRepository
	alerts      email.Service
	logger      *logger.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewService(
	repo repository.AssessmentRepository,
	patientRepo repository.PatientRepository,
	outboxRepo repository.OutboxRepository,
	alerts email.Service,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		outboxRepo:  outboxRepo,
		alerts:      alerts,
		logger:      logger,
		metrics:     metrics,
		now:         time.Now,
	}
}

// CreateAssessment validates the submission, computes the total score and
// persists the assessment. Checks run in order and short-circuit on the
// first failure: patient reference present, patient exists, exactly nine
// responses, every response in [0,3].
func (s *Service) CreateAssessment(ctx context.Context, req *model.CreateAssessmentRequest) (*model.AssessmentResponse, error) {
	patientID, err := s.validatePatientRef(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	if err := s.validateResponses(req.Responses); err != nil {
		return nil, err
	}

	assessment := &model.PHQ9Assessment{
		ID:          uuid.New(),
		PatientID:   patientID,
		Responses:   toInt64Array(req.Responses),
		TotalScore:  phq9.Score(req.Responses),
		DateCreated: s.now(),
	}
	if req.DateCreated != nil && !req.DateCreated.IsZero() {
		assessment.DateCreated = *req.DateCreated
	}

	if err := s.repo.Create(ctx, assessment); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create assessment: %w", err))
	}

	if s.metrics != nil {
		s.metrics.AssessmentsCreated.Inc()
		s.metrics.AssessmentScores.Observe(float64(assessment.TotalScore))
	}

	resp := toResponse(assessment)
	s.emitEvent(ctx, model.EventAssessmentCreated, resp)
	s.alertOnSevere(ctx, assessment)

	return resp, nil
}

func (s *Service) GetAssessment(ctx context.Context, id uuid.UUID) (*model.AssessmentResponse, error) {
	assessment, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("assessment", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return toResponse(assessment), nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.AssessmentResponse, error) {
	exists, err := s.patientRepo.Exists(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !exists {
		return nil, apperrors.NotFound("patient", nil)
	}

	assessments, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	out := make([]*model.AssessmentResponse, len(assessments))
	for i, a := range assessments {
		out[i] = toResponse(a)
	}
	return out, nil
}

func (s *Service) validatePatientRef(ctx context.Context, raw string) (uuid.UUID, error) {
	if raw == "" {
		s.countValidationFailure("missing_patient_reference")
		return uuid.Nil, apperrors.Validation(apperrors.Field{
			Name: "patient_id", Message: "patient_id is required",
		})
	}

	patientID, err := uuid.Parse(raw)
	if err != nil {
		s.countValidationFailure("missing_patient_reference")
		return uuid.Nil, apperrors.Validation(apperrors.Field{
			Name: "patient_id", Message: "patient_id must be a valid UUID",
		})
	}

	exists, err := s.patientRepo.Exists(ctx, patientID)
	if err != nil {
		return uuid.Nil, apperrors.Internal(err)
	}
	if !exists {
		s.countValidationFailure("unknown_patient")
		return uuid.Nil, apperrors.NotFound("patient", nil)
	}

	return patientID, nil
}

func (s *Service) validateResponses(responses []int) error {
	if len(responses) != phq9.NumItems {
		s.countValidationFailure("wrong_response_count")
		return apperrors.Validation(apperrors.Field{
			Name:    "responses",
			Message: fmt.Sprintf("exactly %d responses are required, got %d", phq9.NumItems, len(responses)),
		})
	}

	for i, r := range responses {
		if r < phq9.MinResponse || r > phq9.MaxResponse {
			s.countValidationFailure("response_out_of_range")
			return apperrors.Validation(apperrors.Field{
				Name:    fmt.Sprintf("responses[%d]", i),
				Message: fmt.Sprintf("response must be in range [%d,%d], got %d", phq9.MinResponse, phq9.MaxResponse, r),
			})
		}
	}

	return nil
}

func (s *Service) alertOnSevere(ctx context.Context, assessment *model.PHQ9Assessment) {
	if s.alerts == nil {
		return
	}
	severity := phq9.Severity(assessment.TotalScore)
	if severity != phq9.SeveritySevere {
		return
	}

	patient, err := s.patientRepo.Get(ctx, assessment.PatientID)
	if err != nil {
		s.logger.Error(err, "failed to load patient for severe-score alert")
		return
	}
	if err := s.alerts.SendSevereScoreAlert(ctx, patient.FullName(), assessment.TotalScore, severity); err != nil {
		s.logger.Error(err, "failed to send severe-score alert",
			"patient_id", assessment.PatientID.String())
	}
}

func (s *Service) countValidationFailure(reason string) {
	if s.metrics != nil {
		s.metrics.ValidationFailures.WithLabelValues(reason).Inc()
	}
}

func (s *Service) emitEvent(ctx context.Context, eventType string, payload interface{}) {
	if s.outboxRepo == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = s.outboxRepo.Create(ctx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   data,
	})
}

func toInt64Array(responses []int) pq.Int64Array {
	out := make(pq.Int64Array, len(responses))
	for i, r := range responses {
		out[i] = int64(r)
	}
	return out
}

func toResponse(a *model.PHQ9Assessment) *model.AssessmentResponse {
	return &model.AssessmentResponse{
		ID:            a.ID,
		PatientID:     a.PatientID,
		Responses:     a.ResponseValues(),
		TotalScore:    a.TotalScore,
		SeverityLevel: phq9.Severity(a.TotalScore),
		DateCreated:   a.DateCreated,
	}
}
