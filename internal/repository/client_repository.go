package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lumitrack/lumitrack-api/internal/models"
)

// ClientRepository manages persistence for clients and their memberships.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository constructs a new repository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// List returns the clients a user is a member of, sorted by name.
func (r *ClientRepository) List(ctx context.Context, filter models.ClientFilter) ([]models.Client, int, error) {
	base := `FROM clients c JOIN client_members m ON m.client_id = c.id`
	where := []string{"m.user_id = $1"}
	args := []interface{}{filter.UserID}

	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(LOWER(c.first_name) LIKE $%d OR LOWER(c.last_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT c.id, c.first_name, c.last_name, c.dob, c.gender, c.created_by, c.created_at, c.updated_at
%s WHERE %s ORDER BY c.last_name ASC, c.first_name ASC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}
	return clients, total, nil
}

// FindByID returns a client by identifier.
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*models.Client, error) {
	const query = `SELECT id, first_name, last_name, dob, gender, created_by, created_at, updated_at FROM clients WHERE id = $1 LIMIT 1`
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find client by id: %w", err)
	}
	return &client, nil
}

// Create inserts a new client and its owner membership in one transaction.
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create client: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertClient = `INSERT INTO clients (id, first_name, last_name, dob, gender, created_by, created_at, updated_at)
VALUES (:id, :first_name, :last_name, :dob, :gender, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertClient, client); err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	const insertOwner = `INSERT INTO client_members (client_id, user_id, role, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := tx.ExecContext(ctx, insertOwner, client.ID, client.CreatedBy, models.ClientRoleOwner, now); err != nil {
		return fmt.Errorf("create client owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create client: %w", err)
	}
	return nil
}

// Update modifies an existing client.
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	client.UpdatedAt = time.Now().UTC()
	const query = `UPDATE clients SET first_name = :first_name, last_name = :last_name, dob = :dob, gender = :gender, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, client); err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return nil
}

// DeleteCascade removes a client together with every descendant program,
// target and observation in a single transaction. All-or-nothing: no
// orphaned rows survive a successful return, and any failure rolls the
// whole cascade back.
func (r *ClientRepository) DeleteCascade(ctx context.Context, clientID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin client cascade: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	steps := []struct {
		name  string
		query string
	}{
		{"delete observations", `DELETE FROM observations WHERE target_id IN (SELECT t.id FROM targets t JOIN programs p ON t.program_id = p.id WHERE p.client_id = $1)`},
		{"delete targets", `DELETE FROM targets WHERE program_id IN (SELECT id FROM programs WHERE client_id = $1)`},
		{"delete programs", `DELETE FROM programs WHERE client_id = $1`},
		{"delete members", `DELETE FROM client_members WHERE client_id = $1`},
		{"delete client", `DELETE FROM clients WHERE id = $1`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, clientID); err != nil {
			return fmt.Errorf("client cascade %s: %w", step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit client cascade: %w", err)
	}
	return nil
}

// ListMembers returns all memberships for a client joined with user info.
func (r *ClientRepository) ListMembers(ctx context.Context, clientID string) ([]models.ClientMemberDetail, error) {
	const query = `SELECT m.client_id, m.user_id, m.role, m.created_at, u.email, u.full_name
FROM client_members m JOIN users u ON u.id = m.user_id
WHERE m.client_id = $1 ORDER BY m.created_at ASC`
	var members []models.ClientMemberDetail
	if err := r.db.SelectContext(ctx, &members, query, clientID); err != nil {
		return nil, fmt.Errorf("list client members: %w", err)
	}
	return members, nil
}

// GetMemberRole returns the membership role of a user on a client.
func (r *ClientRepository) GetMemberRole(ctx context.Context, clientID, userID string) (models.ClientRole, error) {
	const query = `SELECT role FROM client_members WHERE client_id = $1 AND user_id = $2 LIMIT 1`
	var role models.ClientRole
	if err := r.db.GetContext(ctx, &role, query, clientID, userID); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("get member role: %w", err)
	}
	return role, nil
}

// AddMember attaches a user to a client with the given role.
func (r *ClientRepository) AddMember(ctx context.Context, member *models.ClientMember) error {
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO client_members (client_id, user_id, role, created_at) VALUES (:client_id, :user_id, :role, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("add client member: %w", err)
	}
	return nil
}

// UpdateMemberRole changes a member's role on a client.
func (r *ClientRepository) UpdateMemberRole(ctx context.Context, clientID, userID string, role models.ClientRole) error {
	const query = `UPDATE client_members SET role = $3 WHERE client_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, clientID, userID, role); err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	return nil
}

// RemoveMember detaches a user from a client.
func (r *ClientRepository) RemoveMember(ctx context.Context, clientID, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM client_members WHERE client_id = $1 AND user_id = $2`, clientID, userID); err != nil {
		return fmt.Errorf("remove client member: %w", err)
	}
	return nil
}

// CountOwners returns how many owner memberships a client has.
func (r *ClientRepository) CountOwners(ctx context.Context, clientID string) (int, error) {
	const query = `SELECT COUNT(*) FROM client_members WHERE client_id = $1 AND role = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, clientID, models.ClientRoleOwner); err != nil {
		return 0, fmt.Errorf("count client owners: %w", err)
	}
	return count, nil
}
