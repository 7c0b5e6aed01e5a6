package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lumitrack/lumitrack-api/internal/models"
	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
)

type graphTargetRepository interface {
	FindByID(ctx context.Context, id string) (*models.Target, error)
}

type graphObservationRepository interface {
	ListByTarget(ctx context.Context, filter models.ObservationFilter) ([]models.Observation, error)
}

// GraphService assembles chartable series from a target's observation
// history. Aggregation is a pure function over a snapshot read once per
// request; the optional cache sits in front of the whole build.
type GraphService struct {
	targets             graphTargetRepository
	observations        graphObservationRepository
	cache               *CacheService
	metrics             *MetricsService
	logger              *zap.Logger
	approximationCredit float64
	cacheTTL            time.Duration
}

// NewGraphService constructs a graph service. approximationCredit is the
// partial credit in [0,1] granted to "approximation" outcomes when
// computing percent-correct buckets.
func NewGraphService(
	targets graphTargetRepository,
	observations graphObservationRepository,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
	approximationCredit float64,
	cacheTTL time.Duration,
) *GraphService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if approximationCredit < 0 {
		approximationCredit = 0
	}
	if approximationCredit > 1 {
		approximationCredit = 1
	}
	return &GraphService{
		targets:             targets,
		observations:        observations,
		cache:               cache,
		metrics:             metrics,
		logger:              logger,
		approximationCredit: approximationCredit,
		cacheTTL:            cacheTTL,
	}
}

// GetGraph loads a target's observations and builds its graph for the
// requested interval. The second return reports whether the graph was
// served from cache.
func (s *GraphService) GetGraph(ctx context.Context, targetID string, interval models.GraphInterval) (*models.Graph, bool, error) {
	cacheKey := fmt.Sprintf("graph:%s:%s", targetID, interval)
	if s.cache.Enabled() {
		var cached models.Graph
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	target, err := s.targets.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "target not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target")
	}

	observations, err := s.observations.ListByTarget(ctx, models.ObservationFilter{TargetID: targetID})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load observations")
	}

	start := time.Now()
	graph, err := s.BuildSeries(target.DataType, observations, interval)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.ObserveGraphBuild(string(target.DataType), time.Since(start))
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, graph, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache graph", zap.String("target_id", targetID), zap.Error(err))
		}
	}
	return graph, false, nil
}

// BuildSeries partitions the date-ascending observation sequence into
// interval buckets and combines each bucket per the data type's rule.
// Buckets with no observations are omitted, never zero-filled.
func (s *GraphService) BuildSeries(dataType models.DataType, observations []models.Observation, interval models.GraphInterval) (*models.Graph, error) {
	graph, err := s.buildSeries(dataType, observations, interval)
	if err != nil {
		return nil, err
	}
	if len(observations) == 0 {
		// No buckets means no series at all, not a series of zero points.
		graph.Series = []models.Series{}
	}
	return graph, nil
}

func (s *GraphService) buildSeries(dataType models.DataType, observations []models.Observation, interval models.GraphInterval) (*models.Graph, error) {
	buckets := partitionBuckets(observations, interval)

	switch dataType {
	case models.DataTypeFrequency, models.DataTypeMomentary, models.DataTypeWholeInterval, models.DataTypePartialInterval:
		return &models.Graph{
			Series:     []models.Series{{Name: string(dataType), Data: mapBuckets(buckets, sumCounts)}},
			XAxisTitle: "Date",
			YAxisTitle: "Count " + intervalSuffix(interval),
		}, nil

	case models.DataTypeDuration:
		// Most recent wins within a bucket, not a sum. The input is
		// ordered by date then creation_date ascending so the last
		// element of each bucket is the winner.
		return &models.Graph{
			Series:     []models.Series{{Name: string(dataType), Data: mapBuckets(buckets, latestDurationMinutes)}},
			XAxisTitle: "Date",
			YAxisTitle: "Duration(mins) " + intervalSuffix(interval),
		}, nil

	case models.DataTypePercentCorrect:
		credit := s.approximationCredit
		points := mapBuckets(buckets, func(bucket []models.Observation) float64 {
			return percentCorrect(bucket, credit)
		})
		max := 100.0
		return &models.Graph{
			Series:     []models.Series{{Name: string(dataType), Data: points}},
			XAxisTitle: "Date",
			YAxisTitle: "Percent Correct " + intervalSuffix(interval),
			YAxisMax:   &max,
		}, nil

	case models.DataTypeRate:
		correct := mapBuckets(buckets, func(bucket []models.Observation) float64 {
			return ratePerMinute(bucket, true)
		})
		incorrect := mapBuckets(buckets, func(bucket []models.Observation) float64 {
			return ratePerMinute(bucket, false)
		})
		return &models.Graph{
			Series: []models.Series{
				{Name: "Correct", Data: correct},
				{Name: "Incorrect", Data: incorrect},
			},
			XAxisTitle: "Date",
			YAxisTitle: "Count per Minute (first)",
		}, nil

	case models.DataTypeTaskAnalysis:
		points := mapBuckets(buckets, taskAnalysisPercent)
		max := 100.0
		return &models.Graph{
			Series:     []models.Series{{Name: string(dataType), Data: points}},
			XAxisTitle: "Date",
			YAxisTitle: "Percent Correct " + intervalSuffix(interval),
			YAxisMax:   &max,
		}, nil
	}

	s.logger.Error("unknown data type at aggregation time", zap.String("data_type", string(dataType)))
	return nil, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("no aggregation rule for data type %q", dataType))
}

type bucket struct {
	start        time.Time
	observations []models.Observation
}

// partitionBuckets groups observations by the UTC truncation of their date
// to the interval boundary, preserving ascending order.
func partitionBuckets(observations []models.Observation, interval models.GraphInterval) []bucket {
	var buckets []bucket
	index := make(map[time.Time]int)
	for _, obs := range observations {
		start := bucketStart(obs.Date, interval)
		i, ok := index[start]
		if !ok {
			i = len(buckets)
			index[start] = i
			buckets = append(buckets, bucket{start: start})
		}
		buckets[i].observations = append(buckets[i].observations, obs)
	}
	return buckets
}

func bucketStart(ts time.Time, interval models.GraphInterval) time.Time {
	ts = ts.UTC()
	switch interval {
	case models.IntervalWeek:
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		return day.AddDate(0, 0, -int(day.Weekday()))
	case models.IntervalMonth:
		return time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
	case models.IntervalYear:
		return time.Date(ts.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
}

func mapBuckets(buckets []bucket, combine func([]models.Observation) float64) []models.SeriesPoint {
	points := make([]models.SeriesPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, models.SeriesPoint{X: b.start, Y: combine(b.observations)})
	}
	return points
}

func sumCounts(bucket []models.Observation) float64 {
	var total float64
	for _, obs := range bucket {
		total += obs.Value.Count
	}
	return total
}

func latestDurationMinutes(bucket []models.Observation) float64 {
	latest := bucket[len(bucket)-1]
	return float64(latest.Value.DurationMS) / 60000
}

func percentCorrect(bucket []models.Observation, approximationCredit float64) float64 {
	var correct float64
	for _, obs := range bucket {
		switch obs.Value.Category {
		case models.OutcomeCorrect:
			correct++
		case models.OutcomeApproximation:
			correct += approximationCredit
		}
	}
	return correct / float64(len(bucket)) * 100
}

// ratePerMinute normalizes against the first observation's counting time,
// matching the "Count per Minute (first)" contract.
func ratePerMinute(bucket []models.Observation, wantCorrect bool) float64 {
	first := bucket[0]
	if first.Value.Rate == nil || first.Value.Rate.CountingTimeMS <= 0 {
		return 0
	}
	minutes := float64(first.Value.Rate.CountingTimeMS) / 60000
	if wantCorrect {
		return first.Value.Rate.Correct / minutes
	}
	return first.Value.Rate.Incorrect / minutes
}

// taskAnalysisPercent pools step outcomes across every observation in the
// bucket: a day with a fully correct trial and a half correct trial of
// four steps each scores 75.
func taskAnalysisPercent(bucket []models.Observation) float64 {
	var correct, total float64
	for _, obs := range bucket {
		for _, step := range obs.Value.Steps {
			total++
			if step == models.OutcomeCorrect {
				correct++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return correct / total * 100
}

func intervalSuffix(interval models.GraphInterval) string {
	switch interval {
	case models.IntervalWeek:
		return "per Week"
	case models.IntervalMonth:
		return "per Month"
	case models.IntervalYear:
		return "per Year"
	default:
		return "per Day"
	}
}
