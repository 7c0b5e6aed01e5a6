package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumitrack/lumitrack-api/internal/dto"
	"github.com/lumitrack/lumitrack-api/internal/models"
	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
)

type fakeClientRepo struct {
	clients     map[string]*models.Client
	roles       map[string]models.ClientRole // key "clientID/userID"
	owners      int
	deletedID   string
	added       *models.ClientMember
	updatedRole models.ClientRole
	removedID   string
}

func (f *fakeClientRepo) List(ctx context.Context, filter models.ClientFilter) ([]models.Client, int, error) {
	return nil, 0, nil
}

func (f *fakeClientRepo) FindByID(ctx context.Context, id string) (*models.Client, error) {
	if c, ok := f.clients[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeClientRepo) Create(ctx context.Context, client *models.Client) error {
	client.ID = "client-1"
	return nil
}

func (f *fakeClientRepo) Update(ctx context.Context, client *models.Client) error { return nil }

func (f *fakeClientRepo) DeleteCascade(ctx context.Context, clientID string) error {
	f.deletedID = clientID
	return nil
}

func (f *fakeClientRepo) ListMembers(ctx context.Context, clientID string) ([]models.ClientMemberDetail, error) {
	return nil, nil
}

func (f *fakeClientRepo) GetMemberRole(ctx context.Context, clientID, userID string) (models.ClientRole, error) {
	if role, ok := f.roles[clientID+"/"+userID]; ok {
		return role, nil
	}
	return "", sql.ErrNoRows
}

func (f *fakeClientRepo) AddMember(ctx context.Context, member *models.ClientMember) error {
	f.added = member
	return nil
}

func (f *fakeClientRepo) UpdateMemberRole(ctx context.Context, clientID, userID string, role models.ClientRole) error {
	f.updatedRole = role
	return nil
}

func (f *fakeClientRepo) RemoveMember(ctx context.Context, clientID, userID string) error {
	f.removedID = userID
	return nil
}

func (f *fakeClientRepo) CountOwners(ctx context.Context, clientID string) (int, error) {
	return f.owners, nil
}

type fakeUserLookup struct {
	users map[string]*models.User
}

func (f *fakeUserLookup) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type fakeAudit struct {
	logs []*models.AuditLog
}

func (f *fakeAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

func newClientService(repo *fakeClientRepo, users *fakeUserLookup) (*ClientService, *fakeAudit) {
	audit := &fakeAudit{}
	if users == nil {
		users = &fakeUserLookup{}
	}
	return NewClientService(repo, users, audit, nil, zap.NewNop()), audit
}

func TestClientDeleteRequiresOwner(t *testing.T) {
	repo := &fakeClientRepo{roles: map[string]models.ClientRole{"client-1/user-1": models.ClientRoleAdmin}}
	svc, _ := newClientService(repo, nil)

	err := svc.Delete(context.Background(), "user-1", "client-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deletedID)
}

func TestClientDeleteCascadesAndAudits(t *testing.T) {
	repo := &fakeClientRepo{roles: map[string]models.ClientRole{"client-1/user-1": models.ClientRoleOwner}}
	svc, audit := newClientService(repo, nil)

	err := svc.Delete(context.Background(), "user-1", "client-1")
	require.NoError(t, err)
	assert.Equal(t, "client-1", repo.deletedID)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionClientDelete, audit.logs[0].Action)
}

func TestClientNonMemberIsForbidden(t *testing.T) {
	repo := &fakeClientRepo{roles: map[string]models.ClientRole{}}
	svc, _ := newClientService(repo, nil)

	_, err := svc.Get(context.Background(), "stranger", "client-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestClientAddMemberDefaultsToUserRole(t *testing.T) {
	repo := &fakeClientRepo{roles: map[string]models.ClientRole{"client-1/user-1": models.ClientRoleOwner}}
	users := &fakeUserLookup{users: map[string]*models.User{"colleague@example.com": {ID: "user-2"}}}
	svc, _ := newClientService(repo, users)

	member, err := svc.AddMember(context.Background(), "user-1", "client-1", dto.AddMemberRequest{Email: "colleague@example.com"})
	require.NoError(t, err)
	assert.Equal(t, models.ClientRoleUser, member.Role)
	assert.Equal(t, "user-2", member.UserID)
}

func TestClientAddMemberRejectsReadOnlyCaller(t *testing.T) {
	repo := &fakeClientRepo{roles: map[string]models.ClientRole{"client-1/user-1": models.ClientRoleUser}}
	users := &fakeUserLookup{users: map[string]*models.User{"colleague@example.com": {ID: "user-2"}}}
	svc, _ := newClientService(repo, users)

	_, err := svc.AddMember(context.Background(), "user-1", "client-1", dto.AddMemberRequest{Email: "colleague@example.com"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestClientDemoteLastOwnerFails(t *testing.T) {
	repo := &fakeClientRepo{
		roles:  map[string]models.ClientRole{"client-1/user-1": models.ClientRoleOwner},
		owners: 1,
	}
	svc, _ := newClientService(repo, nil)

	err := svc.UpdateMemberRole(context.Background(), "user-1", "client-1", "user-1", dto.UpdateMemberRequest{Role: "admin"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMustHaveOwner.Code, appErrors.FromError(err).Code)
}

func TestClientDemoteOwnerSucceedsWithAnotherOwner(t *testing.T) {
	repo := &fakeClientRepo{
		roles: map[string]models.ClientRole{
			"client-1/user-1": models.ClientRoleOwner,
			"client-1/user-2": models.ClientRoleOwner,
		},
		owners: 2,
	}
	svc, _ := newClientService(repo, nil)

	err := svc.UpdateMemberRole(context.Background(), "user-1", "client-1", "user-2", dto.UpdateMemberRequest{Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, models.ClientRoleAdmin, repo.updatedRole)
}

func TestClientRemoveLastOwnerFails(t *testing.T) {
	repo := &fakeClientRepo{
		roles:  map[string]models.ClientRole{"client-1/user-1": models.ClientRoleOwner},
		owners: 1,
	}
	svc, _ := newClientService(repo, nil)

	err := svc.RemoveMember(context.Background(), "user-1", "client-1", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMustHaveOwner.Code, appErrors.FromError(err).Code)
}

func TestClientMemberMayRemoveSelf(t *testing.T) {
	repo := &fakeClientRepo{
		roles: map[string]models.ClientRole{
			"client-1/user-2": models.ClientRoleUser,
		},
	}
	svc, _ := newClientService(repo, nil)

	err := svc.RemoveMember(context.Background(), "user-2", "client-1", "user-2")
	require.NoError(t, err)
	assert.Equal(t, "user-2", repo.removedID)
}
