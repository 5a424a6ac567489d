package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/psybot/psybot-api/internal/model"
	"github.com/psybot/psybot-api/internal/repository"
	apperrors "github.com/psybot/psybot-api/pkg/errors"
)

const maxNameLength = 100

const maxIdentificationLength = 20

type PatientService interface {
	CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	ListPatients(ctx context.Context) ([]*model.Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo       repository.PatientRepository
	outboxRepo repository.OutboxRepository
	now        func() time.Time
}

func NewService(repo repository.PatientRepository, outboxRepo repository.OutboxRepository) *Service {
	return &Service{
		repo:       repo,
		outboxRepo: outboxRepo,
		now:        time.Now,
	}
}

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	patient, err := s.buildPatient(req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicateIdentification) {
			return nil, apperrors.Conflict(
				fmt.Sprintf("identification %q is already registered", patient.Identification), err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create patient: %w", err))
	}

	s.emitEvent(ctx, model.EventPatientCreated, patient)
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return patient, nil
}

func (s *Service) ListPatients(ctx context.Context) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return patients, nil
}

// DeletePatient refuses to remove a patient that still has assessments;
// assessments hold non-owning references and are never cascade-deleted.
// The repository enforces the guard in the delete statement itself.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperrors.NotFound("patient", err)
		case errors.Is(err, repository.ErrHasAssessments):
			return apperrors.Conflict("patient has assessments and cannot be deleted", err)
		}
		return apperrors.Internal(err)
	}

	s.emitEvent(ctx, model.EventPatientDeleted, map[string]interface{}{"id": id})
	return nil
}

func (s *Service) buildPatient(req *model.CreatePatientRequest) (*model.Patient, error) {
	var fields []apperrors.Field

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	identification := strings.TrimSpace(req.Identification)

	if firstName == "" || len(firstName) > maxNameLength {
		fields = append(fields, apperrors.Field{Name: "first_name", Message: "required, at most 100 characters"})
	}
	if lastName == "" || len(lastName) > maxNameLength {
		fields = append(fields, apperrors.Field{Name: "last_name", Message: "required, at most 100 characters"})
	}
	if identification == "" || len(identification) > maxIdentificationLength {
		fields = append(fields, apperrors.Field{Name: "identification", Message: "required, at most 20 characters"})
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		fields = append(fields, apperrors.Field{Name: "date_of_birth", Message: "must be a date in YYYY-MM-DD format"})
	} else if dob.After(s.now()) {
		fields = append(fields, apperrors.Field{Name: "date_of_birth", Message: "must not be in the future"})
	}

	if len(fields) > 0 {
		return nil, apperrors.Validation(fields...)
	}

	return &model.Patient{
		ID:             uuid.New(),
		FirstName:      firstName,
		LastName:       lastName,
		Identification: identification,
		DateOfBirth:    dob,
		DateCreated:    s.now(),
	}, nil
}

func (s *Service) emitEvent(ctx context.Context, eventType string, payload interface{}) {
	if s.outboxRepo == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	// Outbox failures are not surfaced to the caller; the write already
	// succeeded and the relay is best-effort.
	_ = s.outboxRepo.Create(ctx, &model.OutboxEvent{
		EventType: eventType,
		Payload:   data,
	})
}
