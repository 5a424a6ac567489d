package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/psybot/psybot-api/internal/model"
)

// Sentinel errors surfaced by repositories. Services translate these into
// the API error taxonomy.
var (
	ErrNotFound                = errors.New("not found")
	ErrDuplicateIdentification = errors.New("identification already registered")
	ErrHasAssessments          = errors.New("patient has assessments")
)

type PatientRepository interface {
	// Create persists a patient; a colliding identification code fails
	// with ErrDuplicateIdentification, arbitrated by the unique index.
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]*model.Patient, error)
	// Delete removes the patient atomically with the no-assessments guard;
	// a patient that still has assessments fails with ErrHasAssessments.
	Delete(ctx context.Context, id uuid.UUID) error
}

type AssessmentRepository interface {
	Create(ctx context.Context, assessment *model.PHQ9Assessment) error
	Get(ctx context.Context, id uuid.UUID) (*model.PHQ9Assessment, error)
	// ListByPatient returns the patient's assessments ordered ascending by
	// creation timestamp, ties broken by id so the ordering is deterministic.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.PHQ9Assessment, error)
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
}
