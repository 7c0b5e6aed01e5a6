package models

import "time"

// ClientRole is the per-client membership role controlling what a user may
// do with a shared client record.
type ClientRole string

const (
	ClientRoleOwner ClientRole = "owner"
	ClientRoleAdmin ClientRole = "admin"
	ClientRoleUser  ClientRole = "user"
)

// Valid reports whether the role is one of the known membership roles.
func (r ClientRole) Valid() bool {
	switch r {
	case ClientRoleOwner, ClientRoleAdmin, ClientRoleUser:
		return true
	}
	return false
}

// CanEdit reports whether the role may modify the client and its records.
func (r ClientRole) CanEdit() bool {
	return r == ClientRoleOwner || r == ClientRoleAdmin
}

// Client represents a person whose behavior data is being tracked.
type Client struct {
	ID        string     `db:"id" json:"id"`
	FirstName string     `db:"first_name" json:"first_name"`
	LastName  string     `db:"last_name" json:"last_name"`
	DOB       *time.Time `db:"dob" json:"dob,omitempty"`
	Gender    string     `db:"gender" json:"gender,omitempty"`
	CreatedBy string     `db:"created_by" json:"created_by"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Name returns the client's display name.
func (c Client) Name() string {
	return c.FirstName + " " + c.LastName
}

// ClientMember links a user to a client with a membership role.
type ClientMember struct {
	ClientID  string     `db:"client_id" json:"client_id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Role      ClientRole `db:"role" json:"role"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// ClientMemberDetail joins membership with user identity for sharing views.
type ClientMemberDetail struct {
	ClientMember
	Email    string `db:"email" json:"email"`
	FullName string `db:"full_name" json:"full_name"`
}

// ClientFilter captures list criteria for clients visible to a user.
type ClientFilter struct {
	UserID   string
	Search   string
	Page     int
	PageSize int
}
