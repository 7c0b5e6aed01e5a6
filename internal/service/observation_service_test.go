package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumitrack/lumitrack-api/internal/dto"
	"github.com/lumitrack/lumitrack-api/internal/models"
	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
)

type fakeObservationRepo struct {
	created    []*models.Observation
	updatedID  string
	updated    *models.ObservationValue
	deletedID  string
	byID       map[string]*models.Observation
	listResult []models.Observation
}

func (f *fakeObservationRepo) ListByTarget(ctx context.Context, filter models.ObservationFilter) ([]models.Observation, error) {
	return f.listResult, nil
}

func (f *fakeObservationRepo) FindByID(ctx context.Context, id string) (*models.Observation, error) {
	if obs, ok := f.byID[id]; ok {
		return obs, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeObservationRepo) Create(ctx context.Context, observation *models.Observation) error {
	f.created = append(f.created, observation)
	return nil
}

func (f *fakeObservationRepo) UpdateValue(ctx context.Context, id string, value models.ObservationValue) error {
	f.updatedID = id
	f.updated = &value
	return nil
}

func (f *fakeObservationRepo) Delete(ctx context.Context, id string) error {
	f.deletedID = id
	return nil
}

func frequencyTarget() *models.Target {
	return &models.Target{ID: "target-1", DataType: models.DataTypeFrequency}
}

func durationTarget() *models.Target {
	return &models.Target{ID: "target-1", DataType: models.DataTypeDuration}
}

func TestObservationAddDurationParsesClockString(t *testing.T) {
	repo := &fakeObservationRepo{}
	svc := NewObservationService(repo, nil, zap.NewNop())

	obs, err := svc.Add(context.Background(), durationTarget(), dto.ObservationInput{
		Date:     "2024-03-09T10:00:00",
		Timezone: "America/New_York",
		Data:     "1:30",
	}, "user-1")
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, models.ValueKindDuration, obs.Value.Kind)
	assert.Equal(t, int64(90000), obs.Value.DurationMS)
	// 10:00 Eastern in March (EST->EDT after the second Sunday) is 14:00 or
	// 15:00 UTC; either way the stored date must be UTC.
	assert.Equal(t, time.UTC, obs.Date.Location())
	assert.Equal(t, 15, obs.Date.Hour())
}

func TestObservationAddRejectsMalformedClockString(t *testing.T) {
	repo := &fakeObservationRepo{}
	svc := NewObservationService(repo, nil, zap.NewNop())

	_, err := svc.Add(context.Background(), durationTarget(), dto.ObservationInput{
		Date: "2024-03-09",
		Data: "a:b",
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created, "malformed input must not reach storage")
}

func TestObservationAddRate(t *testing.T) {
	repo := &fakeObservationRepo{}
	svc := NewObservationService(repo, nil, zap.NewNop())

	obs, err := svc.Add(context.Background(), &models.Target{ID: "target-1", DataType: models.DataTypeRate}, dto.ObservationInput{
		Date:         "2024-03-09",
		Correct:      "3",
		Incorrect:    "1",
		CountingTime: "1:00",
	}, "user-1")
	require.NoError(t, err)
	require.NotNil(t, obs.Value.Rate)
	assert.Equal(t, float64(3), obs.Value.Rate.Correct)
	assert.Equal(t, float64(1), obs.Value.Rate.Incorrect)
	assert.Equal(t, int64(60000), obs.Value.Rate.CountingTimeMS)
}

func TestObservationAddPercentCorrectRejectsUnknownCategory(t *testing.T) {
	repo := &fakeObservationRepo{}
	svc := NewObservationService(repo, nil, zap.NewNop())

	_, err := svc.Add(context.Background(), &models.Target{ID: "target-1", DataType: models.DataTypePercentCorrect}, dto.ObservationInput{
		Date: "2024-03-09",
		Data: "mostly",
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestObservationAddTaskAnalysisSteps(t *testing.T) {
	repo := &fakeObservationRepo{}
	svc := NewObservationService(repo, nil, zap.NewNop())

	obs, err := svc.Add(context.Background(), &models.Target{ID: "target-1", DataType: models.DataTypeTaskAnalysis}, dto.ObservationInput{
		Date:  "2024-03-09",
		Steps: []string{"correct", "Approximation", "incorrect"},
	}, "user-1")
	require.NoError(t, err)
	require.Len(t, obs.Value.Steps, 3)
	assert.Equal(t, models.OutcomeApproximation, obs.Value.Steps[1])
}

func TestObservationEditWithIDReplacesValue(t *testing.T) {
	existing := &models.Observation{ID: "obs-1", TargetID: "target-1", DataType: models.DataTypeFrequency, Value: models.CountValue(4)}
	repo := &fakeObservationRepo{byID: map[string]*models.Observation{"obs-1": existing}}
	svc := NewObservationService(repo, nil, zap.NewNop())

	obs, err := svc.Edit(context.Background(), frequencyTarget(), "obs-1", dto.ObservationInput{Data: "7"}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "obs-1", repo.updatedID)
	assert.Equal(t, float64(7), obs.Value.Count)
	assert.Empty(t, repo.created)
}

func TestObservationEditWithoutIDStoresDelta(t *testing.T) {
	repo := &fakeObservationRepo{}
	svc := NewObservationService(repo, nil, zap.NewNop())

	obs, err := svc.Edit(context.Background(), frequencyTarget(), "", dto.ObservationInput{
		Date:     "2024-03-09",
		Data:     "5",
		OrigData: "3",
	}, "user-1")
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, float64(2), obs.Value.Count)
}

func TestObservationEditWithoutIDRequiresCountType(t *testing.T) {
	repo := &fakeObservationRepo{}
	svc := NewObservationService(repo, nil, zap.NewNop())

	_, err := svc.Edit(context.Background(), durationTarget(), "", dto.ObservationInput{
		Date:     "2024-03-09",
		Data:     "5",
		OrigData: "3",
	}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestObservationEditRejectsForeignTarget(t *testing.T) {
	existing := &models.Observation{ID: "obs-1", TargetID: "other-target", DataType: models.DataTypeFrequency}
	repo := &fakeObservationRepo{byID: map[string]*models.Observation{"obs-1": existing}}
	svc := NewObservationService(repo, nil, zap.NewNop())

	_, err := svc.Edit(context.Background(), frequencyTarget(), "obs-1", dto.ObservationInput{Data: "7"}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestObservationDelete(t *testing.T) {
	existing := &models.Observation{ID: "obs-1", TargetID: "target-1", DataType: models.DataTypeFrequency}
	repo := &fakeObservationRepo{byID: map[string]*models.Observation{"obs-1": existing}}
	svc := NewObservationService(repo, nil, zap.NewNop())

	err := svc.Delete(context.Background(), frequencyTarget(), "obs-1")
	require.NoError(t, err)
	assert.Equal(t, "obs-1", repo.deletedID)
}

func TestObservationListFormatsValues(t *testing.T) {
	repo := &fakeObservationRepo{listResult: []models.Observation{
		{ID: "obs-1", DataType: models.DataTypeDuration, Date: day(0), Value: models.DurationValue(90000), CreationDate: day(0)},
	}}
	svc := NewObservationService(repo, nil, zap.NewNop())

	rows, err := svc.List(context.Background(), durationTarget(), models.ObservationFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1:30", rows[0].Value)
}
