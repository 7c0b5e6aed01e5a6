package dto

// CreateTargetRequest adds a target under a program. DataType is fixed at
// creation and cannot be changed afterwards. Steps lists the task-analysis
// step names and only applies to Task Analysis targets.
type CreateTargetRequest struct {
	Name        string   `json:"name" validate:"required"`
	DataType    string   `json:"data_type" validate:"required"`
	Description string   `json:"description,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	Steps       []string `json:"steps,omitempty"`
}

// UpdateTargetRequest edits target attributes. The data type is
// deliberately absent: it is immutable.
type UpdateTargetRequest struct {
	Name         string   `json:"name" validate:"required"`
	Description  string   `json:"description,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	MasteredDate string   `json:"mastered_date,omitempty"`
	Steps        []string `json:"steps,omitempty"`
}
