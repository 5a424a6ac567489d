package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/psybot/psybot-api/internal/model"
	"github.com/psybot/psybot-api/internal/repository"
	"github.com/psybot/psybot-api/pkg/metrics"
)

type assessmentRepository struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

func NewAssessmentRepository(db *sqlx.DB, m *metrics.Metrics) repository.AssessmentRepository {
	return &assessmentRepository{db: db, metrics: m}
}

func (r *assessmentRepository) Create(ctx context.Context, assessment *model.PHQ9Assessment) (err error) {
	defer func(start time.Time) { observe(r.metrics, "create_assessment", start, err) }(time.Now())

	query := `
		INSERT INTO phq9_assessments (id, patient_id, responses, total_score, date_created)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.db.ExecContext(ctx, query,
		assessment.ID,
		assessment.PatientID,
		assessment.Responses,
		assessment.TotalScore,
		assessment.DateCreated,
	)
	if err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

func (r *assessmentRepository) Get(ctx context.Context, id uuid.UUID) (assessment *model.PHQ9Assessment, err error) {
	defer func(start time.Time) { observe(r.metrics, "get_assessment", start, err) }(time.Now())

	query := `SELECT * FROM phq9_assessments WHERE id = $1`
	var row model.PHQ9Assessment
	err = r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return &row, nil
}

func (r *assessmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) (assessments []*model.PHQ9Assessment, err error) {
	defer func(start time.Time) { observe(r.metrics, "list_assessments", start, err) }(time.Now())

	// Ties on date_created are broken by id for a deterministic timeline.
	query := `
		SELECT * FROM phq9_assessments
		WHERE patient_id = $1
		ORDER BY date_created ASC, id ASC
	`
	if err = r.db.SelectContext(ctx, &assessments, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return assessments, nil
}

func (r *assessmentRepository) CountByPatient(ctx context.Context, patientID uuid.UUID) (count int, err error) {
	defer func(start time.Time) { observe(r.metrics, "count_assessments", start, err) }(time.Now())

	err = r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM phq9_assessments WHERE patient_id = $1`, patientID)
	if err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return count, nil
}
