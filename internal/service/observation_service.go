package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumitrack/lumitrack-api/internal/dto"
	"github.com/lumitrack/lumitrack-api/internal/models"
	"github.com/lumitrack/lumitrack-api/pkg/clock"
	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
)

type observationRepository interface {
	ListByTarget(ctx context.Context, filter models.ObservationFilter) ([]models.Observation, error)
	FindByID(ctx context.Context, id string) (*models.Observation, error)
	Create(ctx context.Context, observation *models.Observation) error
	UpdateValue(ctx context.Context, id string, value models.ObservationValue) error
	Delete(ctx context.Context, id string) error
}

// ObservationService validates raw data-entry submissions, normalizes them
// into typed values and persists them. Every write invalidates the target's
// cached graphs, and every failure surfaces to the caller.
type ObservationService struct {
	repo   observationRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewObservationService constructs an observation service.
func NewObservationService(repo observationRepository, cache *CacheService, logger *zap.Logger) *ObservationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObservationService{repo: repo, cache: cache, logger: logger}
}

// Add validates and stores a new observation for the target.
func (s *ObservationService) Add(ctx context.Context, target *models.Target, input dto.ObservationInput, userID string) (*models.Observation, error) {
	date, err := parseSubmissionDate(input.Date, input.Timezone)
	if err != nil {
		return nil, err
	}

	value, err := normalizeValue(target, input)
	if err != nil {
		return nil, err
	}

	observation := &models.Observation{
		TargetID:     target.ID,
		DataType:     target.DataType,
		Date:         date,
		Value:        value,
		CreatedBy:    userID,
		CreationDate: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, observation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store observation")
	}

	s.invalidateGraphs(ctx, target.ID)
	return observation, nil
}

// Edit replaces the value of an existing observation when observationID is
// set. Without an ID, the submission is an incremental counter adjustment:
// the stored value is the delta between the submitted count and the count
// the form was rendered with.
func (s *ObservationService) Edit(ctx context.Context, target *models.Target, observationID string, input dto.ObservationInput, userID string) (*models.Observation, error) {
	if observationID != "" {
		observation, err := s.repo.FindByID(ctx, observationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "observation not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load observation")
		}
		if observation.TargetID != target.ID {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "observation not found")
		}

		value, err := normalizeValue(target, input)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdateValue(ctx, observationID, value); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update observation")
		}
		observation.Value = value

		s.invalidateGraphs(ctx, target.ID)
		return observation, nil
	}

	if !isCountKind(target.DataType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "record id is required to edit this data type")
	}

	date, err := parseSubmissionDate(input.Date, input.Timezone)
	if err != nil {
		return nil, err
	}
	current, err := parseWholeNumber(input.Data)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid data value")
	}
	original, err := parseWholeNumber(input.OrigData)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid original data value")
	}

	observation := &models.Observation{
		TargetID:     target.ID,
		DataType:     target.DataType,
		Date:         date,
		Value:        models.CountValue(current - original),
		CreatedBy:    userID,
		CreationDate: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, observation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store observation")
	}

	s.invalidateGraphs(ctx, target.ID)
	return observation, nil
}

// Delete removes a single observation belonging to the target.
func (s *ObservationService) Delete(ctx context.Context, target *models.Target, observationID string) error {
	observation, err := s.repo.FindByID(ctx, observationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "observation not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load observation")
	}
	if observation.TargetID != target.ID {
		return appErrors.Clone(appErrors.ErrNotFound, "observation not found")
	}

	if err := s.repo.Delete(ctx, observationID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete observation")
	}

	s.invalidateGraphs(ctx, target.ID)
	return nil
}

// List returns the target's observations formatted for the data table,
// most convenient ordering first.
func (s *ObservationService) List(ctx context.Context, target *models.Target, filter models.ObservationFilter) ([]dto.ObservationRow, error) {
	filter.TargetID = target.ID
	observations, err := s.repo.ListByTarget(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list observations")
	}

	rows := make([]dto.ObservationRow, 0, len(observations))
	for _, obs := range observations {
		rows = append(rows, dto.ObservationRow{
			ID:           obs.ID,
			Date:         obs.Date.UTC().Format("2006-01-02"),
			Value:        FormatValue(obs.DataType, obs.Value),
			CreatedBy:    obs.CreatedBy,
			CreationDate: obs.CreationDate.UTC().Format(time.RFC3339),
		})
	}
	return rows, nil
}

// Raw returns the target's unformatted observations for graphing or export.
func (s *ObservationService) Raw(ctx context.Context, target *models.Target, filter models.ObservationFilter) ([]models.Observation, error) {
	filter.TargetID = target.ID
	observations, err := s.repo.ListByTarget(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list observations")
	}
	return observations, nil
}

func (s *ObservationService) invalidateGraphs(ctx context.Context, targetID string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("graph:%s:*", targetID)); err != nil {
		s.logger.Warn("failed to invalidate graph cache", zap.String("target_id", targetID), zap.Error(err))
	}
}

// FormatValue renders a typed value as the table cell string for its data
// type.
func FormatValue(dataType models.DataType, value models.ObservationValue) string {
	switch dataType {
	case models.DataTypeDuration:
		return clock.FormatMilliseconds(value.DurationMS)
	case models.DataTypeRate:
		if value.Rate == nil {
			return ""
		}
		return fmt.Sprintf("%s correct / %s incorrect per %s",
			trimFloat(value.Rate.Correct),
			trimFloat(value.Rate.Incorrect),
			clock.FormatMilliseconds(value.Rate.CountingTimeMS))
	case models.DataTypeTaskAnalysis:
		var correct int
		for _, step := range value.Steps {
			if step == models.OutcomeCorrect {
				correct++
			}
		}
		return fmt.Sprintf("%d/%d correct", correct, len(value.Steps))
	case models.DataTypePercentCorrect:
		return string(value.Category)
	default:
		return trimFloat(value.Count)
	}
}

// normalizeValue converts the raw submission into the typed value arm for
// the target's data type. The switch is exhaustive over the closed enum so
// a new data type fails loudly here rather than storing a mistyped value.
func normalizeValue(target *models.Target, input dto.ObservationInput) (models.ObservationValue, error) {
	switch target.DataType {
	case models.DataTypeFrequency, models.DataTypeMomentary, models.DataTypeWholeInterval, models.DataTypePartialInterval:
		count, err := parseWholeNumber(input.Data)
		if err != nil {
			return models.ObservationValue{}, appErrors.Clone(appErrors.ErrValidation, "invalid data value")
		}
		return models.CountValue(count), nil

	case models.DataTypeDuration:
		ms, err := clock.ParseClockString(input.Data)
		if err != nil {
			return models.ObservationValue{}, err
		}
		return models.DurationValue(ms), nil

	case models.DataTypeRate:
		correct, err := parseWholeNumber(input.Correct)
		if err != nil {
			return models.ObservationValue{}, appErrors.Clone(appErrors.ErrValidation, "invalid correct count")
		}
		incorrect, err := parseWholeNumber(input.Incorrect)
		if err != nil {
			return models.ObservationValue{}, appErrors.Clone(appErrors.ErrValidation, "invalid incorrect count")
		}
		countingTime, err := clock.ParseClockString(input.CountingTime)
		if err != nil {
			return models.ObservationValue{}, appErrors.Clone(appErrors.ErrValidation, "invalid counting time")
		}
		return models.ObservationValue{
			Kind: models.ValueKindRate,
			Rate: &models.RateValue{Correct: correct, Incorrect: incorrect, CountingTimeMS: countingTime},
		}, nil

	case models.DataTypeTaskAnalysis:
		if len(input.Steps) == 0 {
			return models.ObservationValue{}, appErrors.Clone(appErrors.ErrValidation, "step outcomes are required")
		}
		steps := make([]models.StepOutcome, 0, len(input.Steps))
		for _, raw := range input.Steps {
			outcome := models.StepOutcome(strings.ToLower(strings.TrimSpace(raw)))
			if !models.ValidOutcome(outcome) {
				return models.ObservationValue{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid step outcome %q", raw))
			}
			steps = append(steps, outcome)
		}
		return models.StepsValue(steps), nil

	case models.DataTypePercentCorrect:
		outcome := models.StepOutcome(strings.ToLower(strings.TrimSpace(input.Data)))
		if !models.ValidOutcome(outcome) {
			return models.ObservationValue{}, appErrors.Clone(appErrors.ErrValidation, "data must be correct, approximation or incorrect")
		}
		return models.CategoryValue(outcome), nil
	}

	return models.ObservationValue{}, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("no value shape for data type %q", target.DataType))
}

func isCountKind(dataType models.DataType) bool {
	switch dataType {
	case models.DataTypeFrequency, models.DataTypeMomentary, models.DataTypeWholeInterval, models.DataTypePartialInterval:
		return true
	}
	return false
}

// parseSubmissionDate interprets the submitted timestamp in the given IANA
// timezone and normalizes to UTC for storage.
func parseSubmissionDate(raw, timezone string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date is required")
	}

	loc := time.UTC
	if timezone != "" {
		parsed, err := time.LoadLocation(timezone)
		if err != nil {
			return time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown timezone %q", timezone))
		}
		loc = parsed
	}

	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be ISO-8601")
}

func parseWholeNumber(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("empty number")
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, err
	}
	return value, nil
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
