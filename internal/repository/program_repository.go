package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lumitrack/lumitrack-api/internal/models"
)

// ProgramRepository manages persistence for intervention programs.
type ProgramRepository struct {
	db *sqlx.DB
}

// NewProgramRepository constructs a new repository.
func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// ListByClient returns the programs under a client, oldest first.
func (r *ProgramRepository) ListByClient(ctx context.Context, clientID string) ([]models.Program, error) {
	const query = `SELECT id, client_id, name, description, created_by, created_at, updated_at
FROM programs WHERE client_id = $1 ORDER BY created_at ASC`
	var programs []models.Program
	if err := r.db.SelectContext(ctx, &programs, query, clientID); err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	return programs, nil
}

// FindByID returns a program by identifier.
func (r *ProgramRepository) FindByID(ctx context.Context, id string) (*models.Program, error) {
	const query = `SELECT id, client_id, name, description, created_by, created_at, updated_at
FROM programs WHERE id = $1 LIMIT 1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find program by id: %w", err)
	}
	return &program, nil
}

// Create inserts a new program.
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	if program.ID == "" {
		program.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now
	const query = `INSERT INTO programs (id, client_id, name, description, created_by, created_at, updated_at)
VALUES (:id, :client_id, :name, :description, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("create program: %w", err)
	}
	return nil
}

// Update modifies an existing program.
func (r *ProgramRepository) Update(ctx context.Context, program *models.Program) error {
	program.UpdatedAt = time.Now().UTC()
	const query = `UPDATE programs SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, program); err != nil {
		return fmt.Errorf("update program: %w", err)
	}
	return nil
}

// DeleteCascade removes a program with its targets and observations in a
// single transaction.
func (r *ProgramRepository) DeleteCascade(ctx context.Context, programID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin program cascade: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	steps := []struct {
		name  string
		query string
	}{
		{"delete observations", `DELETE FROM observations WHERE target_id IN (SELECT id FROM targets WHERE program_id = $1)`},
		{"delete targets", `DELETE FROM targets WHERE program_id = $1`},
		{"delete program", `DELETE FROM programs WHERE id = $1`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, programID); err != nil {
			return fmt.Errorf("program cascade %s: %w", step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit program cascade: %w", err)
	}
	return nil
}
