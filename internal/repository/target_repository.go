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

// TargetRepository manages persistence for intervention targets.
type TargetRepository struct {
	db *sqlx.DB
}

// NewTargetRepository constructs a new repository.
func NewTargetRepository(db *sqlx.DB) *TargetRepository {
	return &TargetRepository{db: db}
}

// ListByProgram returns the targets under a program, oldest first.
func (r *TargetRepository) ListByProgram(ctx context.Context, programID string) ([]models.Target, error) {
	const query = `SELECT id, program_id, name, data_type, description, start_date, mastered_date, steps, created_by, created_at, updated_at
FROM targets WHERE program_id = $1 ORDER BY name ASC`
	var targets []models.Target
	if err := r.db.SelectContext(ctx, &targets, query, programID); err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	return targets, nil
}

// FindByID returns a target by identifier.
func (r *TargetRepository) FindByID(ctx context.Context, id string) (*models.Target, error) {
	const query = `SELECT id, program_id, name, data_type, description, start_date, mastered_date, steps, created_by, created_at, updated_at
FROM targets WHERE id = $1 LIMIT 1`
	var target models.Target
	if err := r.db.GetContext(ctx, &target, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find target by id: %w", err)
	}
	return &target, nil
}

// Create inserts a new target.
func (r *TargetRepository) Create(ctx context.Context, target *models.Target) error {
	if target.ID == "" {
		target.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	target.CreatedAt = now
	target.UpdatedAt = now
	const query = `INSERT INTO targets (id, program_id, name, data_type, description, start_date, mastered_date, steps, created_by, created_at, updated_at)
VALUES (:id, :program_id, :name, :data_type, :description, :start_date, :mastered_date, :steps, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, target); err != nil {
		return fmt.Errorf("create target: %w", err)
	}
	return nil
}

// Update modifies an existing target. The data type is immutable after
// creation so it is never part of the update set.
func (r *TargetRepository) Update(ctx context.Context, target *models.Target) error {
	target.UpdatedAt = time.Now().UTC()
	const query = `UPDATE targets SET name = :name, description = :description, start_date = :start_date, mastered_date = :mastered_date, steps = :steps, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, target); err != nil {
		return fmt.Errorf("update target: %w", err)
	}
	return nil
}

// DeleteCascade removes a target with its observations in a single
// transaction.
func (r *TargetRepository) DeleteCascade(ctx context.Context, targetID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin target cascade: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM observations WHERE target_id = $1`, targetID); err != nil {
		return fmt.Errorf("target cascade delete observations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM targets WHERE id = $1`, targetID); err != nil {
		return fmt.Errorf("target cascade delete target: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit target cascade: %w", err)
	}
	return nil
}
