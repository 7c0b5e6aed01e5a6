package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lumitrack/lumitrack-api/internal/dto"
	"github.com/lumitrack/lumitrack-api/internal/models"
	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
)

type clientRepository interface {
	List(ctx context.Context, filter models.ClientFilter) ([]models.Client, int, error)
	FindByID(ctx context.Context, id string) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error
	DeleteCascade(ctx context.Context, clientID string) error
	ListMembers(ctx context.Context, clientID string) ([]models.ClientMemberDetail, error)
	GetMemberRole(ctx context.Context, clientID, userID string) (models.ClientRole, error)
	AddMember(ctx context.Context, member *models.ClientMember) error
	UpdateMemberRole(ctx context.Context, clientID, userID string, role models.ClientRole) error
	RemoveMember(ctx context.Context, clientID, userID string) error
	CountOwners(ctx context.Context, clientID string) (int, error)
}

type memberUserLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ClientService owns client records and the sharing rules around them.
// Membership roles gate every mutation: owners may do anything including
// delete, admins may edit and share, plain users are read-only.
type ClientService struct {
	repo      clientRepository
	users     memberUserLookup
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClientService constructs a client service.
func NewClientService(repo clientRepository, users memberUserLookup, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *ClientService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{repo: repo, users: users, audit: audit, validator: validate, logger: logger}
}

// RoleFor resolves the membership role a user holds on a client. Non-members
// get ErrForbidden.
func (s *ClientService) RoleFor(ctx context.Context, userID, clientID string) (models.ClientRole, error) {
	role, err := s.repo.GetMemberRole(ctx, clientID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrForbidden, "no access to this client")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve membership")
	}
	return role, nil
}

// List returns the clients visible to the user with pagination info.
func (s *ClientService) List(ctx context.Context, filter models.ClientFilter) ([]models.Client, *models.Pagination, error) {
	clients, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clients")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return clients, pagination, nil
}

// Get loads a single client the user is a member of.
func (s *ClientService) Get(ctx context.Context, userID, clientID string) (*models.Client, error) {
	if _, err := s.RoleFor(ctx, userID, clientID); err != nil {
		return nil, err
	}
	client, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}
	return client, nil
}

// Create registers a new client with the creator as its owner.
func (s *ClientService) Create(ctx context.Context, userID string, req dto.CreateClientRequest) (*models.Client, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid client payload")
	}
	dob, err := parseOptionalDate(req.DOB)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date of birth")
	}

	client := &models.Client{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		DOB:       dob,
		Gender:    req.Gender,
		CreatedBy: userID,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create client")
	}
	return client, nil
}

// Update edits a client record. Requires an editing role.
func (s *ClientService) Update(ctx context.Context, userID, clientID string, req dto.UpdateClientRequest) (*models.Client, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid client payload")
	}
	role, err := s.RoleFor(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}
	if !role.CanEdit() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "read-only access to this client")
	}

	client, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}

	dob, err := parseOptionalDate(req.DOB)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date of birth")
	}
	client.FirstName = req.FirstName
	client.LastName = req.LastName
	client.DOB = dob
	client.Gender = req.Gender

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update client")
	}
	return client, nil
}

// Delete removes a client and every descendant record. Owner only.
func (s *ClientService) Delete(ctx context.Context, userID, clientID string) error {
	role, err := s.RoleFor(ctx, userID, clientID)
	if err != nil {
		return err
	}
	if role != models.ClientRoleOwner {
		return appErrors.Clone(appErrors.ErrForbidden, "only an owner may delete a client")
	}

	if err := s.repo.DeleteCascade(ctx, clientID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete client")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &userID,
			Action:     models.AuditActionClientDelete,
			Resource:   "client",
			ResourceID: &clientID,
		}); err != nil {
			s.logger.Warn("failed to record client delete audit log", zap.Error(err))
		}
	}
	return nil
}

// Members lists the client's memberships. Any member may view them.
func (s *ClientService) Members(ctx context.Context, userID, clientID string) ([]models.ClientMemberDetail, error) {
	if _, err := s.RoleFor(ctx, userID, clientID); err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, clientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	return members, nil
}

// AddMember shares the client with another user by email. Requires an
// editing role.
func (s *ClientService) AddMember(ctx context.Context, userID, clientID string, req dto.AddMemberRequest) (*models.ClientMember, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid member payload")
	}
	role, err := s.RoleFor(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}
	if !role.CanEdit() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "read-only access to this client")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no user with that email")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up user")
	}

	if _, err := s.repo.GetMemberRole(ctx, clientID, user.ID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user is already a member")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}

	memberRole := models.ClientRole(req.Role)
	if memberRole == "" {
		memberRole = models.ClientRoleUser
	}
	if !memberRole.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid member role")
	}

	member := &models.ClientMember{
		ClientID:  clientID,
		UserID:    user.ID,
		Role:      memberRole,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add member")
	}
	return member, nil
}

// UpdateMemberRole changes a member's role. Demoting the last owner is
// rejected so a client can never end up ownerless.
func (s *ClientService) UpdateMemberRole(ctx context.Context, userID, clientID, memberID string, req dto.UpdateMemberRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid member payload")
	}
	role, err := s.RoleFor(ctx, userID, clientID)
	if err != nil {
		return err
	}
	if !role.CanEdit() {
		return appErrors.Clone(appErrors.ErrForbidden, "read-only access to this client")
	}

	currentRole, err := s.repo.GetMemberRole(ctx, clientID, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}

	newRole := models.ClientRole(req.Role)
	if currentRole == models.ClientRoleOwner && newRole != models.ClientRoleOwner {
		owners, err := s.repo.CountOwners(ctx, clientID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count owners")
		}
		if owners <= 1 {
			return appErrors.Clone(appErrors.ErrMustHaveOwner, "client must keep at least one owner")
		}
	}

	if err := s.repo.UpdateMemberRole(ctx, clientID, memberID, newRole); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update member role")
	}
	return nil
}

// RemoveMember detaches a member. A member may remove themselves; anyone
// else needs an editing role. Removing the last owner is rejected.
func (s *ClientService) RemoveMember(ctx context.Context, userID, clientID, memberID string) error {
	role, err := s.RoleFor(ctx, userID, clientID)
	if err != nil {
		return err
	}
	if memberID != userID && !role.CanEdit() {
		return appErrors.Clone(appErrors.ErrForbidden, "read-only access to this client")
	}

	memberRole, err := s.repo.GetMemberRole(ctx, clientID, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}

	if memberRole == models.ClientRoleOwner {
		owners, err := s.repo.CountOwners(ctx, clientID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count owners")
		}
		if owners <= 1 {
			return appErrors.Clone(appErrors.ErrMustHaveOwner, "client must keep at least one owner")
		}
	}

	if err := s.repo.RemoveMember(ctx, clientID, memberID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove member")
	}
	return nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
