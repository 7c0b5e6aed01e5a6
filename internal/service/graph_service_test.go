package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumitrack/lumitrack-api/internal/models"
	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
)

type fakeGraphTargetRepo struct {
	target *models.Target
	err    error
}

func (f *fakeGraphTargetRepo) FindByID(ctx context.Context, id string) (*models.Target, error) {
	return f.target, f.err
}

type fakeGraphObservationRepo struct {
	observations []models.Observation
	err          error
}

func (f *fakeGraphObservationRepo) ListByTarget(ctx context.Context, filter models.ObservationFilter) ([]models.Observation, error) {
	return f.observations, f.err
}

func newGraphService(credit float64) *GraphService {
	return NewGraphService(&fakeGraphTargetRepo{}, &fakeGraphObservationRepo{}, nil, nil, zap.NewNop(), credit, 0)
}

func day(offset int) time.Time {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

// dailyObservations builds one observation per consecutive day.
func dailyObservations(dataType models.DataType, count int, value func(i int) models.ObservationValue) []models.Observation {
	observations := make([]models.Observation, 0, count)
	for i := 0; i < count; i++ {
		observations = append(observations, models.Observation{
			ID:           "obs",
			DataType:     dataType,
			Date:         day(i),
			Value:        value(i),
			CreationDate: day(i),
		})
	}
	return observations
}

func TestBuildSeriesFrequencySumsCoLocatedObservations(t *testing.T) {
	svc := newGraphService(0)

	observations := dailyObservations(models.DataTypeFrequency, 10, func(int) models.ObservationValue {
		return models.CountValue(1)
	})
	extra := models.Observation{
		DataType:     models.DataTypeFrequency,
		Date:         day(8).Add(2 * time.Hour),
		Value:        models.CountValue(1),
		CreationDate: day(8).Add(2 * time.Hour),
	}
	observations = append(observations[:9], append([]models.Observation{extra}, observations[9:]...)...)

	graph, err := svc.BuildSeries(models.DataTypeFrequency, observations, models.IntervalDay)
	require.NoError(t, err)
	require.Len(t, graph.Series, 1)
	require.Len(t, graph.Series[0].Data, 10)
	assert.Equal(t, "Date", graph.XAxisTitle)
	assert.Equal(t, "Count per Day", graph.YAxisTitle)
	assert.Nil(t, graph.YAxisMax)

	for i, point := range graph.Series[0].Data {
		if i == 8 {
			assert.Equal(t, float64(2), point.Y, "co-located bucket sums")
		} else {
			assert.Equal(t, float64(1), point.Y)
		}
	}
}

func TestBuildSeriesFrequencyMonthlyCollapse(t *testing.T) {
	svc := newGraphService(0)

	observations := dailyObservations(models.DataTypeFrequency, 10, func(int) models.ObservationValue {
		return models.CountValue(1)
	})
	observations = append(observations, models.Observation{
		DataType:     models.DataTypeFrequency,
		Date:         day(8).Add(time.Hour),
		Value:        models.CountValue(1),
		CreationDate: day(8).Add(time.Hour),
	})

	graph, err := svc.BuildSeries(models.DataTypeFrequency, observations, models.IntervalMonth)
	require.NoError(t, err)
	require.Len(t, graph.Series, 1)
	require.Len(t, graph.Series[0].Data, 1)
	assert.Equal(t, "Count per Month", graph.YAxisTitle)
	assert.Equal(t, float64(11), graph.Series[0].Data[0].Y)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), graph.Series[0].Data[0].X)
}

func TestBuildSeriesPercentCorrect(t *testing.T) {
	svc := newGraphService(0)

	observations := dailyObservations(models.DataTypePercentCorrect, 10, func(int) models.ObservationValue {
		return models.CategoryValue(models.OutcomeCorrect)
	})
	observations = append(observations, models.Observation{
		DataType:     models.DataTypePercentCorrect,
		Date:         day(8).Add(time.Hour),
		Value:        models.CategoryValue(models.OutcomeIncorrect),
		CreationDate: day(8).Add(time.Hour),
	})

	graph, err := svc.BuildSeries(models.DataTypePercentCorrect, observations, models.IntervalDay)
	require.NoError(t, err)
	require.Len(t, graph.Series, 1)
	require.Len(t, graph.Series[0].Data, 10)
	require.NotNil(t, graph.YAxisMax)
	assert.Equal(t, float64(100), *graph.YAxisMax)
	assert.Equal(t, "Percent Correct per Day", graph.YAxisTitle)

	for i, point := range graph.Series[0].Data {
		if i == 8 {
			assert.Equal(t, float64(50), point.Y)
		} else {
			assert.Equal(t, float64(100), point.Y)
		}
	}
}

func TestBuildSeriesPercentCorrectApproximationCredit(t *testing.T) {
	svc := newGraphService(0.5)

	observations := []models.Observation{
		{DataType: models.DataTypePercentCorrect, Date: day(0), Value: models.CategoryValue(models.OutcomeCorrect), CreationDate: day(0)},
		{DataType: models.DataTypePercentCorrect, Date: day(0).Add(time.Hour), Value: models.CategoryValue(models.OutcomeApproximation), CreationDate: day(0).Add(time.Hour)},
	}

	graph, err := svc.BuildSeries(models.DataTypePercentCorrect, observations, models.IntervalDay)
	require.NoError(t, err)
	require.Len(t, graph.Series[0].Data, 1)
	assert.Equal(t, float64(75), graph.Series[0].Data[0].Y)
}

func TestBuildSeriesDurationMostRecentWinsNotSum(t *testing.T) {
	svc := newGraphService(0)

	// Two observations in the same bucket with different values. Most
	// recent wins: 120000ms is 2 minutes. A sum would give 3.
	observations := []models.Observation{
		{DataType: models.DataTypeDuration, Date: day(0), Value: models.DurationValue(60000), CreationDate: day(0)},
		{DataType: models.DataTypeDuration, Date: day(0).Add(time.Hour), Value: models.DurationValue(120000), CreationDate: day(0).Add(time.Hour)},
		{DataType: models.DataTypeDuration, Date: day(1), Value: models.DurationValue(60000), CreationDate: day(1)},
	}

	graph, err := svc.BuildSeries(models.DataTypeDuration, observations, models.IntervalDay)
	require.NoError(t, err)
	require.Len(t, graph.Series, 1)
	require.Len(t, graph.Series[0].Data, 2)
	assert.Equal(t, "Duration(mins) per Day", graph.YAxisTitle)
	assert.Equal(t, float64(2), graph.Series[0].Data[0].Y)
	assert.Equal(t, float64(1), graph.Series[0].Data[1].Y)
}

func TestBuildSeriesDurationTieBreaksOnCreationDate(t *testing.T) {
	svc := newGraphService(0)

	// Same observation date, later creation date wins.
	observations := []models.Observation{
		{DataType: models.DataTypeDuration, Date: day(0), Value: models.DurationValue(60000), CreationDate: day(0)},
		{DataType: models.DataTypeDuration, Date: day(0), Value: models.DurationValue(180000), CreationDate: day(0).Add(time.Minute)},
	}

	graph, err := svc.BuildSeries(models.DataTypeDuration, observations, models.IntervalDay)
	require.NoError(t, err)
	require.Len(t, graph.Series[0].Data, 1)
	assert.Equal(t, float64(3), graph.Series[0].Data[0].Y)
}

func TestBuildSeriesRateTwinSeries(t *testing.T) {
	svc := newGraphService(0)

	observations := dailyObservations(models.DataTypeRate, 10, func(int) models.ObservationValue {
		return models.ObservationValue{Kind: models.ValueKindRate, Rate: &models.RateValue{Correct: 1, Incorrect: 1, CountingTimeMS: 60000}}
	})
	// A second observation in day 2's bucket must not shift the point:
	// the first observation of the bucket is the representative.
	observations = append(observations, models.Observation{
		DataType:     models.DataTypeRate,
		Date:         day(1).Add(time.Hour),
		Value:        models.ObservationValue{Kind: models.ValueKindRate, Rate: &models.RateValue{Correct: 2, Incorrect: 2, CountingTimeMS: 60000}},
		CreationDate: day(1).Add(time.Hour),
	})

	graph, err := svc.BuildSeries(models.DataTypeRate, observations, models.IntervalDay)
	require.NoError(t, err)
	require.Len(t, graph.Series, 2)
	assert.Equal(t, "Correct", graph.Series[0].Name)
	assert.Equal(t, "Incorrect", graph.Series[1].Name)
	assert.Equal(t, "Count per Minute (first)", graph.YAxisTitle)
	require.Len(t, graph.Series[0].Data, 10)
	require.Len(t, graph.Series[1].Data, 10)

	for _, series := range graph.Series {
		for _, point := range series.Data {
			assert.Equal(t, float64(1), point.Y)
		}
	}
}

func TestBuildSeriesTaskAnalysisPoolsStepsAcrossBucket(t *testing.T) {
	svc := newGraphService(0)

	allCorrect := []models.StepOutcome{models.OutcomeCorrect, models.OutcomeCorrect, models.OutcomeCorrect, models.OutcomeCorrect}
	observations := dailyObservations(models.DataTypeTaskAnalysis, 10, func(int) models.ObservationValue {
		return models.StepsValue(allCorrect)
	})
	observations = append(observations, models.Observation{
		DataType: models.DataTypeTaskAnalysis,
		Date:     day(8).Add(time.Hour),
		Value: models.StepsValue([]models.StepOutcome{
			models.OutcomeCorrect, models.OutcomeCorrect, models.OutcomeIncorrect, models.OutcomeIncorrect,
		}),
		CreationDate: day(8).Add(time.Hour),
	})

	graph, err := svc.BuildSeries(models.DataTypeTaskAnalysis, observations, models.IntervalDay)
	require.NoError(t, err)
	require.Len(t, graph.Series, 1)
	require.Len(t, graph.Series[0].Data, 10)
	require.NotNil(t, graph.YAxisMax)
	assert.Equal(t, float64(100), *graph.YAxisMax)

	for i, point := range graph.Series[0].Data {
		if i == 8 {
			assert.Equal(t, float64(75), point.Y, "4/4 plus 2/4 pools to 6 of 8 steps")
		} else {
			assert.Equal(t, float64(100), point.Y)
		}
	}
}

func TestBuildSeriesZeroObservations(t *testing.T) {
	svc := newGraphService(0)

	graph, err := svc.BuildSeries(models.DataTypeFrequency, nil, models.IntervalDay)
	require.NoError(t, err)
	assert.Empty(t, graph.Series)
	assert.Equal(t, "Date", graph.XAxisTitle)
}

func TestBuildSeriesUnknownDataType(t *testing.T) {
	svc := newGraphService(0)

	_, err := svc.BuildSeries(models.DataType("Latency"), nil, models.IntervalDay)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConfiguration.Code, appErr.Code)
}

func TestGetGraphReturnsNotFoundForMissingTarget(t *testing.T) {
	svc := NewGraphService(
		&fakeGraphTargetRepo{err: sql.ErrNoRows},
		&fakeGraphObservationRepo{},
		nil, nil, zap.NewNop(), 0, 0,
	)

	_, _, err := svc.GetGraph(context.Background(), "missing", models.IntervalDay)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
