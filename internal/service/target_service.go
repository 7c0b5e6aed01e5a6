package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/lumitrack/lumitrack-api/internal/dto"
	"github.com/lumitrack/lumitrack-api/internal/models"
	"github.com/lumitrack/lumitrack-api/pkg/clock"
	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
)

type targetRepository interface {
	ListByProgram(ctx context.Context, programID string) ([]models.Target, error)
	FindByID(ctx context.Context, id string) (*models.Target, error)
	Create(ctx context.Context, target *models.Target) error
	Update(ctx context.Context, target *models.Target) error
	DeleteCascade(ctx context.Context, targetID string) error
}

type targetObservationReader interface {
	ListByTarget(ctx context.Context, filter models.ObservationFilter) ([]models.Observation, error)
}

// TargetService manages trackable targets under a program. The data type
// is fixed at creation; deleting a target removes its observations in the
// same transaction.
type TargetService struct {
	repo         targetRepository
	observations targetObservationReader
	audit        auditRecorder
	cache        *CacheService
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewTargetService constructs a target service.
func NewTargetService(repo targetRepository, observations targetObservationReader, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TargetService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TargetService{
		repo:         repo,
		observations: observations,
		audit:        audit,
		cache:        cache,
		validator:    validate,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// List returns a program's targets.
func (s *TargetService) List(ctx context.Context, programID string) ([]models.Target, error) {
	targets, err := s.repo.ListByProgram(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list targets")
	}
	return targets, nil
}

// Get loads one target and verifies it belongs to the program.
func (s *TargetService) Get(ctx context.Context, programID, targetID string) (*models.Target, error) {
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "target not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load target")
	}
	if target.ProgramID != programID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "target not found")
	}
	return target, nil
}

// Create adds a target under the program.
func (s *TargetService) Create(ctx context.Context, programID, userID string, req dto.CreateTargetRequest) (*models.Target, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid target payload")
	}

	dataType := models.DataType(req.DataType)
	if !dataType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown data type %q", req.DataType))
	}
	if dataType == models.DataTypeTaskAnalysis && len(req.Steps) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "task analysis targets need a step list")
	}

	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start date")
	}

	target := &models.Target{
		ProgramID:   programID,
		Name:        req.Name,
		DataType:    dataType,
		Description: req.Description,
		StartDate:   startDate,
		Steps:       pq.StringArray(req.Steps),
		CreatedBy:   userID,
	}
	if err := s.repo.Create(ctx, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create target")
	}
	return target, nil
}

// Update edits target attributes. The data type never changes.
func (s *TargetService) Update(ctx context.Context, programID, targetID string, req dto.UpdateTargetRequest) (*models.Target, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid target payload")
	}
	target, err := s.Get(ctx, programID, targetID)
	if err != nil {
		return nil, err
	}

	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start date")
	}
	masteredDate, err := parseOptionalDate(req.MasteredDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid mastered date")
	}

	target.Name = req.Name
	target.Description = req.Description
	target.StartDate = startDate
	target.MasteredDate = masteredDate
	if len(req.Steps) > 0 {
		target.Steps = pq.StringArray(req.Steps)
	}

	if err := s.repo.Update(ctx, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update target")
	}
	return target, nil
}

// Delete removes a target and all of its observations.
func (s *TargetService) Delete(ctx context.Context, programID, targetID, userID string) error {
	if _, err := s.Get(ctx, programID, targetID); err != nil {
		return err
	}
	if err := s.repo.DeleteCascade(ctx, targetID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete target")
	}

	if err := s.cache.Invalidate(ctx, fmt.Sprintf("graph:%s:*", targetID)); err != nil {
		s.logger.Warn("failed to invalidate graph cache", zap.String("target_id", targetID), zap.Error(err))
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &userID,
			Action:     models.AuditActionTargetDelete,
			Resource:   "target",
			ResourceID: &targetID,
		}); err != nil {
			s.logger.Warn("failed to record target delete audit log", zap.Error(err))
		}
	}
	return nil
}

// Summary renders the previous-day roll-up shown beside data entry
// widgets. The shape depends on the target's data type: Frequency sums
// yesterday's counts, Duration reports the most recent value overall and
// Percent Correct reports yesterday's correct ratio.
func (s *TargetService) Summary(ctx context.Context, target *models.Target) (*models.TargetSummary, error) {
	summary := &models.TargetSummary{TargetID: target.ID, DataType: target.DataType}

	today := s.now().Truncate(24 * time.Hour)
	yesterday := today.AddDate(0, 0, -1)

	switch target.DataType {
	case models.DataTypeFrequency:
		observations, err := s.observations.ListByTarget(ctx, models.ObservationFilter{
			TargetID: target.ID,
			DateFrom: &yesterday,
			DateTo:   &today,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load observations")
		}
		var total float64
		for _, obs := range observations {
			if obs.Date.Before(today) {
				total += obs.Value.Count
			}
		}
		summary.Previous = trimFloat(total)

	case models.DataTypeDuration:
		observations, err := s.observations.ListByTarget(ctx, models.ObservationFilter{TargetID: target.ID})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load observations")
		}
		if len(observations) == 0 {
			summary.Previous = "0:00"
			break
		}
		latest := observations[len(observations)-1]
		summary.Previous = clock.FormatMilliseconds(latest.Value.DurationMS)

	case models.DataTypePercentCorrect:
		observations, err := s.observations.ListByTarget(ctx, models.ObservationFilter{
			TargetID: target.ID,
			DateFrom: &yesterday,
			DateTo:   &today,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load observations")
		}
		var total, correct int
		for _, obs := range observations {
			if !obs.Date.Before(today) {
				continue
			}
			total++
			if obs.Value.Category == models.OutcomeCorrect {
				correct++
			}
		}
		if total == 0 {
			summary.Previous = "0%"
			break
		}
		summary.Previous = fmt.Sprintf("%s%%", trimFloat(float64(correct)/float64(total)*100))

	default:
		summary.Previous = "n/a"
	}

	return summary, nil
}
