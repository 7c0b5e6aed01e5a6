package dto

// CreateProgramRequest adds a program under a client.
type CreateProgramRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// UpdateProgramRequest edits a program's attributes.
type UpdateProgramRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}
