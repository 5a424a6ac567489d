package assessment

import (
	"context"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psybot/psybot-api/internal/model"
	"github.com/psybot/psybot-api/internal/phq9"
	"github.com/psybot/psybot-api/internal/repository"
	apperrors "github.com/psybot/psybot-api/pkg/errors"
	"github.com/psybot/psybot-api/pkg/logger"
)

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (r *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (r *fakePatientRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := r.patients[id]
	return ok, nil
}

func (r *fakePatientRepo) List(context.Context) ([]*model.Patient, error) { return nil, nil }

func (r *fakePatientRepo) Delete(context.Context, uuid.UUID) error { return nil }

type fakeAssessmentRepo struct {
	assessments map[uuid.UUID]*model.PHQ9Assessment
}

func (r *fakeAssessmentRepo) Create(_ context.Context, a *model.PHQ9Assessment) error {
	r.assessments[a.ID] = a
	return nil
}

func (r *fakeAssessmentRepo) Get(_ context.Context, id uuid.UUID) (*model.PHQ9Assessment, error) {
	a, ok := r.assessments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (r *fakeAssessmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.PHQ9Assessment, error) {
	var out []*model.PHQ9Assessment
	for _, a := range r.assessments {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DateCreated.Equal(out[j].DateCreated) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].DateCreated.Before(out[j].DateCreated)
	})
	return out, nil
}

func (r *fakeAssessmentRepo) CountByPatient(_ context.Context, patientID uuid.UUID) (int, error) {
	n := 0
	for _, a := range r.assessments {
		if a.PatientID == patientID {
			n++
		}
	}
	return n, nil
}

type fakeOutbox struct {
	events []*model.OutboxEvent
}

func (o *fakeOutbox) Create(_ context.Context, e *model.OutboxEvent) error {
	o.events = append(o.events, e)
	return nil
}

func (o *fakeOutbox) GetPendingEvents(context.Context, int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (o *fakeOutbox) UpdateStatus(context.Context, uuid.UUID, model.OutboxStatus, *string) error {
	return nil
}

type fakeAlerts struct {
	sent []string
}

func (a *fakeAlerts) SendSevereScoreAlert(_ context.Context, patientName string, _ int, _ string) error {
	a.sent = append(a.sent, patientName)
	return nil
}

type fixture struct {
	svc       *Service
	patients  *fakePatientRepo
	repo      *fakeAssessmentRepo
	outbox    *fakeOutbox
	alerts    *fakeAlerts
	patientID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	patients := &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
	repo := &fakeAssessmentRepo{assessments: make(map[uuid.UUID]*model.PHQ9Assessment)}
	outbox := &fakeOutbox{}
	alerts := &fakeAlerts{}

	patientID := uuid.New()
	patients.patients[patientID] = &model.Patient{
		ID:             patientID,
		FirstName:      "Juan",
		LastName:       "Perez",
		Identification: "ABC123",
		DateOfBirth:    time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	svc := NewService(repo, patients, outbox, alerts, logger.NewLogger(nil), nil)
	return &fixture{svc: svc, patients: patients, repo: repo, outbox: outbox, alerts: alerts, patientID: patientID}
}

func TestCreateAssessmentComputesScore(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.CreateAssessment(context.Background(), &model.CreateAssessmentRequest{
		PatientID: f.patientID.String(),
		Responses: []int{2, 1, 2, 1, 2, 1, 2, 1, 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 14, resp.TotalScore)
	assert.Equal(t, phq9.SeverityModerate, resp.SeverityLevel)
	assert.Equal(t, f.patientID, resp.PatientID)
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.False(t, resp.DateCreated.IsZero())

	stored := f.repo.assessments[resp.ID]
	require.NotNil(t, stored)
	assert.Equal(t, 14, stored.TotalScore)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventAssessmentCreated, f.outbox.events[0].EventType)
}

func TestCreateAssessmentMissingPatientReference(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAssessment(context.Background(), &model.CreateAssessmentRequest{
		Responses: []int{1, 1, 1, 1, 1, 1, 1, 1, 1},
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode())
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "patient_id", appErr.Fields[0].Name)
}

func TestCreateAssessmentUnknownPatient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAssessment(context.Background(), &model.CreateAssessmentRequest{
		PatientID: uuid.New().String(),
		Responses: []int{1, 1, 1, 1, 1, 1, 1, 1, 1},
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode())
}

func TestCreateAssessmentWrongResponseCount(t *testing.T) {
	f := newFixture(t)

	for _, responses := range [][]int{
		{},
		{1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	} {
		_, err := f.svc.CreateAssessment(context.Background(), &model.CreateAssessmentRequest{
			PatientID: f.patientID.String(),
			Responses: responses,
		})
		require.Error(t, err, "len %d", len(responses))

		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, appErr.StatusCode())
		require.Len(t, appErr.Fields, 1)
		assert.Equal(t, "responses", appErr.Fields[0].Name)
	}
}

func TestCreateAssessmentResponseOutOfRange(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAssessment(context.Background(), &model.CreateAssessmentRequest{
		PatientID: f.patientID.String(),
		Responses: []int{1, 1, 1, 4, 1, 1, 1, 1, 1},
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "responses[3]", appErr.Fields[0].Name)

	_, err = f.svc.CreateAssessment(context.Background(), &model.CreateAssessmentRequest{
		PatientID: f.patientID.String(),
		Responses: []int{-1, 1, 1, 1, 1, 1, 1, 1, 1},
	})
	require.Error(t, err)

	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "responses[0]", appErr.Fields[0].Name)
}

func TestCreateAssessmentValidationShortCircuits(t *testing.T) {
	f := newFixture(t)

	// Unknown patient with malformed responses: the patient check wins.
	_, err := f.svc.CreateAssessment(context.Background(), &model.CreateAssessmentRequest{
		PatientID: uuid.New().String(),
		Responses: []int{9},
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode())
}

func TestCreateAssessmentBackdated(t *testing.T) {
	f := newFixture(t)

	backdated := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	resp, err := f.svc.CreateAssessment(context.Background(), &model.CreateAssessmentRequest{
		PatientID:   f.patientID.String(),
		Responses:   []int{1, 1, 1, 1, 1, 1, 1, 1, 1},
		DateCreated: &backdated,
	})
	require.NoError(t, err)
	assert.True(t, resp.DateCreated.Equal(backdated))
}

func TestCreateAssessmentSevereTriggersAlert(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAssessment(context.Background(), &model.CreateAssessmentRequest{
		PatientID: f.patientID.String(),
		Responses: []int{3, 3, 2, 3, 2, 3, 2, 2, 3}, // 23, Severe
	})
	require.NoError(t, err)
	require.Len(t, f.alerts.sent, 1)
	assert.Equal(t, "Juan Perez", f.alerts.sent[0])
}

func TestCreateAssessmentModerateDoesNotAlert(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAssessment(context.Background(), &model.CreateAssessmentRequest{
		PatientID: f.patientID.String(),
		Responses: []int{2, 1, 2, 1, 2, 1, 2, 1, 2},
	})
	require.NoError(t, err)
	assert.Empty(t, f.alerts.sent)
}

func TestGetAssessmentNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetAssessment(context.Background(), uuid.New())
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode())
}

func TestListByPatientOrdersChronologically(t *testing.T) {
	f := newFixture(t)

	dates := []time.Time{
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		d := d
		_, err := f.svc.CreateAssessment(context.Background(), &model.CreateAssessmentRequest{
			PatientID:   f.patientID.String(),
			Responses:   []int{1, 1, 1, 1, 1, 1, 1, 1, 1},
			DateCreated: &d,
		})
		require.NoError(t, err)
	}

	list, err := f.svc.ListByPatient(context.Background(), f.patientID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].DateCreated.Before(list[1].DateCreated))
	assert.True(t, list[1].DateCreated.Before(list[2].DateCreated))
}
