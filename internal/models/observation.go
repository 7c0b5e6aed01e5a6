package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StepOutcome is the recorded result for one task-analysis step or one
// percent-correct trial.
type StepOutcome string

const (
	OutcomeCorrect       StepOutcome = "correct"
	OutcomeApproximation StepOutcome = "approximation"
	OutcomeIncorrect     StepOutcome = "incorrect"
)

// ValidOutcome reports whether the outcome is a known category.
func ValidOutcome(o StepOutcome) bool {
	switch o {
	case OutcomeCorrect, OutcomeApproximation, OutcomeIncorrect:
		return true
	}
	return false
}

// ValueKind tags which arm of ObservationValue is populated.
type ValueKind string

const (
	ValueKindCount    ValueKind = "count"
	ValueKindDuration ValueKind = "duration"
	ValueKindRate     ValueKind = "rate"
	ValueKindSteps    ValueKind = "steps"
	ValueKindCategory ValueKind = "category"
)

// RateValue is the structured payload for rate observations.
type RateValue struct {
	Correct        float64 `json:"correct"`
	Incorrect      float64 `json:"incorrect"`
	CountingTimeMS int64   `json:"counting_time"`
}

// ObservationValue is a tagged union: exactly one arm is meaningful,
// selected by Kind, which is in turn determined by the target's data type.
// Both the normalizer and the aggregator switch exhaustively on the tag so
// a new data type is a compile-visible change in both places.
type ObservationValue struct {
	Kind       ValueKind     `json:"kind"`
	Count      float64       `json:"count,omitempty"`
	DurationMS int64         `json:"duration_ms,omitempty"`
	Rate       *RateValue    `json:"rate,omitempty"`
	Steps      []StepOutcome `json:"steps,omitempty"`
	Category   StepOutcome   `json:"category,omitempty"`
}

// CountValue builds a count-kind value.
func CountValue(n float64) ObservationValue {
	return ObservationValue{Kind: ValueKindCount, Count: n}
}

// DurationValue builds a duration-kind value in milliseconds.
func DurationValue(ms int64) ObservationValue {
	return ObservationValue{Kind: ValueKindDuration, DurationMS: ms}
}

// StepsValue builds a task-analysis-kind value.
func StepsValue(steps []StepOutcome) ObservationValue {
	return ObservationValue{Kind: ValueKindSteps, Steps: steps}
}

// CategoryValue builds a categorical-kind value.
func CategoryValue(outcome StepOutcome) ObservationValue {
	return ObservationValue{Kind: ValueKindCategory, Category: outcome}
}

// Value implements driver.Valuer, storing the union as JSONB.
func (v ObservationValue) Value() (driver.Value, error) {
	return json.Marshal(v)
}

// Scan implements sql.Scanner for JSONB columns.
func (v *ObservationValue) Scan(src interface{}) error {
	switch raw := src.(type) {
	case []byte:
		return json.Unmarshal(raw, v)
	case string:
		return json.Unmarshal([]byte(raw), v)
	case nil:
		*v = ObservationValue{}
		return nil
	default:
		return fmt.Errorf("unsupported observation value source %T", src)
	}
}

// Observation is a single timestamped data point recorded against a target.
// Date is the semantic observation time normalized to UTC; CreationDate is
// the audit timestamp and breaks ties between same-date entries.
type Observation struct {
	ID           string           `db:"id" json:"id"`
	TargetID     string           `db:"target_id" json:"target_id"`
	DataType     DataType         `db:"data_type" json:"data_type"`
	Date         time.Time        `db:"date" json:"date"`
	Value        ObservationValue `db:"value" json:"value"`
	CreatedBy    string           `db:"created_by" json:"created_by"`
	CreationDate time.Time        `db:"creation_date" json:"creation_date"`
}

// ObservationFilter captures range criteria for listing observations.
type ObservationFilter struct {
	TargetID string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}
