package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/psybot/psybot-api/internal/model"
	"github.com/psybot/psybot-api/internal/repository"
	"github.com/psybot/psybot-api/pkg/metrics"
)

// Postgres error codes this repository translates into sentinels.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type patientRepository struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

func NewPatientRepository(db *sqlx.DB, m *metrics.Metrics) repository.PatientRepository {
	return &patientRepository{db: db, metrics: m}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) (err error) {
	defer func(start time.Time) { observe(r.metrics, "create_patient", start, err) }(time.Now())

	query := `
		INSERT INTO patients (id, first_name, last_name, identification, date_of_birth, date_created)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query,
		patient.ID,
		patient.FirstName,
		patient.LastName,
		patient.Identification,
		patient.DateOfBirth,
		patient.DateCreated,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return repository.ErrDuplicateIdentification
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (patient *model.Patient, err error) {
	defer func(start time.Time) { observe(r.metrics, "get_patient", start, err) }(time.Now())

	query := `SELECT * FROM patients WHERE id = $1`
	var row model.Patient
	err = r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &row, nil
}

func (r *patientRepository) Exists(ctx context.Context, id uuid.UUID) (exists bool, err error) {
	defer func(start time.Time) { observe(r.metrics, "patient_exists", start, err) }(time.Now())

	query := `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`
	if err = r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("failed to check patient existence: %w", err)
	}
	return exists, nil
}

func (r *patientRepository) List(ctx context.Context) (patients []*model.Patient, err error) {
	defer func(start time.Time) { observe(r.metrics, "list_patients", start, err) }(time.Now())

	query := `SELECT * FROM patients ORDER BY date_created DESC`
	if err = r.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// Delete removes the patient only while no assessments reference it; the
// guard and the delete run as one statement so a concurrent assessment
// cannot slip between them. An insert that commits after the statement's
// snapshot still trips the foreign key, which maps to the same sentinel.
func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	defer func(start time.Time) { observe(r.metrics, "delete_patient", start, err) }(time.Now())

	query := `
		DELETE FROM patients p
		WHERE p.id = $1
		  AND NOT EXISTS (SELECT 1 FROM phq9_assessments a WHERE a.patient_id = p.id)
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return repository.ErrHasAssessments
		}
		return fmt.Errorf("failed to delete patient: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		exists, existsErr := r.Exists(ctx, id)
		if existsErr != nil {
			return existsErr
		}
		if exists {
			return repository.ErrHasAssessments
		}
		return repository.ErrNotFound
	}
	return nil
}
