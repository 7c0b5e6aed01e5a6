package dto

// CreateClientRequest is the payload for registering a new client record.
// DOB is an ISO-8601 date; the creator becomes the client's owner member.
type CreateClientRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	DOB       string `json:"dob,omitempty"`
	Gender    string `json:"gender,omitempty" validate:"omitempty,oneof=Male Female"`
}

// UpdateClientRequest modifies an existing client record.
type UpdateClientRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	DOB       string `json:"dob,omitempty"`
	Gender    string `json:"gender,omitempty" validate:"omitempty,oneof=Male Female"`
}

// AddMemberRequest shares a client with another user. Role defaults to
// "user" when omitted.
type AddMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role,omitempty" validate:"omitempty,oneof=owner admin user"`
}

// UpdateMemberRequest changes a member's role on a client.
type UpdateMemberRequest struct {
	Role string `json:"role" validate:"required,oneof=owner admin user"`
}
