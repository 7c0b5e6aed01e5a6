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

// ObservationRepository manages persistence for recorded observations.
type ObservationRepository struct {
	db *sqlx.DB
}

// NewObservationRepository constructs a new repository.
func NewObservationRepository(db *sqlx.DB) *ObservationRepository {
	return &ObservationRepository{db: db}
}

const observationColumns = `id, target_id, data_type, date, value, created_by, creation_date`

// ListByTarget returns observations for a target ordered by observation
// date then by creation date, both ascending. The stable order makes
// "most recent" well defined for aggregation. An optional date range
// narrows the result, and a positive PageSize applies limit/offset
// paging. Aggregation callers leave PageSize zero to read the full set.
func (r *ObservationRepository) ListByTarget(ctx context.Context, filter models.ObservationFilter) ([]models.Observation, error) {
	where := []string{"target_id = $1"}
	args := []interface{}{filter.TargetID}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	query := fmt.Sprintf(`SELECT %s FROM observations WHERE %s ORDER BY date ASC, creation_date ASC`,
		observationColumns, strings.Join(where, " AND "))
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, (page-1)*filter.PageSize)
	}

	var observations []models.Observation
	if err := r.db.SelectContext(ctx, &observations, query, args...); err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	return observations, nil
}

// FindByID returns an observation by identifier.
func (r *ObservationRepository) FindByID(ctx context.Context, id string) (*models.Observation, error) {
	query := fmt.Sprintf(`SELECT %s FROM observations WHERE id = $1 LIMIT 1`, observationColumns)
	var observation models.Observation
	if err := r.db.GetContext(ctx, &observation, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find observation by id: %w", err)
	}
	return &observation, nil
}

// FindLatestOnDate returns the most recently created observation for a
// target whose observation date falls within [dayStart, dayEnd).
func (r *ObservationRepository) FindLatestOnDate(ctx context.Context, targetID string, dayStart, dayEnd time.Time) (*models.Observation, error) {
	query := fmt.Sprintf(`SELECT %s FROM observations
WHERE target_id = $1 AND date >= $2 AND date < $3
ORDER BY creation_date DESC LIMIT 1`, observationColumns)
	var observation models.Observation
	if err := r.db.GetContext(ctx, &observation, query, targetID, dayStart, dayEnd); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find latest observation on date: %w", err)
	}
	return &observation, nil
}

// Create inserts a new observation.
func (r *ObservationRepository) Create(ctx context.Context, observation *models.Observation) error {
	if observation.ID == "" {
		observation.ID = uuid.NewString()
	}
	if observation.CreationDate.IsZero() {
		observation.CreationDate = time.Now().UTC()
	}
	const query = `INSERT INTO observations (id, target_id, data_type, date, value, created_by, creation_date)
VALUES (:id, :target_id, :data_type, :date, :value, :created_by, :creation_date)`
	if _, err := r.db.NamedExecContext(ctx, query, observation); err != nil {
		return fmt.Errorf("create observation: %w", err)
	}
	return nil
}

// UpdateValue replaces the stored value of an observation.
func (r *ObservationRepository) UpdateValue(ctx context.Context, id string, value models.ObservationValue) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE observations SET value = $2 WHERE id = $1`, id, value); err != nil {
		return fmt.Errorf("update observation value: %w", err)
	}
	return nil
}

// Delete removes a single observation.
func (r *ObservationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM observations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete observation: %w", err)
	}
	return nil
}
