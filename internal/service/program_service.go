package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lumitrack/lumitrack-api/internal/dto"
	"github.com/lumitrack/lumitrack-api/internal/models"
	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
)

type programRepository interface {
	ListByClient(ctx context.Context, clientID string) ([]models.Program, error)
	FindByID(ctx context.Context, id string) (*models.Program, error)
	Create(ctx context.Context, program *models.Program) error
	Update(ctx context.Context, program *models.Program) error
	DeleteCascade(ctx context.Context, programID string) error
}

// ProgramService manages intervention programs under a client. Membership
// is enforced upstream by the client-access middleware; parentage checks
// happen here so a program from another client can never be addressed.
type ProgramService struct {
	repo      programRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgramService constructs a program service.
func NewProgramService(repo programRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *ProgramService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns a client's programs.
func (s *ProgramService) List(ctx context.Context, clientID string) ([]models.Program, error) {
	programs, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	return programs, nil
}

// Get loads one program and verifies it belongs to the client.
func (s *ProgramService) Get(ctx context.Context, clientID, programID string) (*models.Program, error) {
	program, err := s.repo.FindByID(ctx, programID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	if program.ClientID != clientID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
	}
	return program, nil
}

// Create adds a program under the client.
func (s *ProgramService) Create(ctx context.Context, clientID, userID string, req dto.CreateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	program := &models.Program{
		ClientID:    clientID,
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   userID,
	}
	if err := s.repo.Create(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create program")
	}
	return program, nil
}

// Update edits a program's attributes.
func (s *ProgramService) Update(ctx context.Context, clientID, programID string, req dto.UpdateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid program payload")
	}
	program, err := s.Get(ctx, clientID, programID)
	if err != nil {
		return nil, err
	}
	program.Name = req.Name
	program.Description = req.Description
	if err := s.repo.Update(ctx, program); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update program")
	}
	return program, nil
}

// Delete removes a program with all its targets and observations.
func (s *ProgramService) Delete(ctx context.Context, clientID, programID, userID string) error {
	if _, err := s.Get(ctx, clientID, programID); err != nil {
		return err
	}
	if err := s.repo.DeleteCascade(ctx, programID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete program")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &userID,
			Action:     models.AuditActionProgramDelete,
			Resource:   "program",
			ResourceID: &programID,
		}); err != nil {
			s.logger.Warn("failed to record program delete audit log", zap.Error(err))
		}
	}
	return nil
}
