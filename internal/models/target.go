package models

import (
	"time"

	"github.com/lib/pq"
)

// DataType is the fixed data-collection category of a target. It governs
// both the shape of stored observation values and the aggregation rule used
// when graphing. Immutable after target creation: changing it would
// invalidate every existing observation's value shape.
type DataType string

const (
	DataTypeFrequency       DataType = "Frequency"
	DataTypeRate            DataType = "Rate"
	DataTypeDuration        DataType = "Duration"
	DataTypePercentCorrect  DataType = "Percent Correct"
	DataTypeTaskAnalysis    DataType = "Task Analysis"
	DataTypeMomentary       DataType = "Momentary Time Sampling"
	DataTypeWholeInterval   DataType = "Whole Interval"
	DataTypePartialInterval DataType = "Partial Interval"
)

// DataTypes lists every supported data type.
var DataTypes = []DataType{
	DataTypeFrequency,
	DataTypeRate,
	DataTypeDuration,
	DataTypePercentCorrect,
	DataTypeTaskAnalysis,
	DataTypeMomentary,
	DataTypeWholeInterval,
	DataTypePartialInterval,
}

// Valid reports whether the data type is part of the closed enumeration.
func (d DataType) Valid() bool {
	for _, known := range DataTypes {
		if d == known {
			return true
		}
	}
	return false
}

// Target identifies a trackable behavior or skill under a program.
type Target struct {
	ID           string         `db:"id" json:"id"`
	ProgramID    string         `db:"program_id" json:"program_id"`
	Name         string         `db:"name" json:"name"`
	DataType     DataType       `db:"data_type" json:"data_type"`
	Description  string         `db:"description" json:"description,omitempty"`
	StartDate    *time.Time     `db:"start_date" json:"start_date,omitempty"`
	MasteredDate *time.Time     `db:"mastered_date" json:"mastered_date,omitempty"`
	Steps        pq.StringArray `db:"steps" json:"steps,omitempty"`
	CreatedBy    string         `db:"created_by" json:"created_by"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// TargetSummary is the previous-day roll-up shown next to data entry
// widgets, formatted per data type.
type TargetSummary struct {
	TargetID string   `json:"target_id"`
	DataType DataType `json:"data_type"`
	Previous string   `json:"previous"`
}
