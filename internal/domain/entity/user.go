package entity

import "time"

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Team groups users into departments for team-scoped alert visibility.
type Team struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// User is a recipient of alerts. Email is always present; PhoneNumber is
// optional and only required when an SMS alert targets the user.
type User struct {
	ID          int64
	Email       string
	FirstName   string
	LastName    string
	Role        string
	TeamID      *int64
	PhoneNumber string
	Active      bool
	CreatedAt   time.Time
}

// IsAdmin reports whether the user may manage alerts and the scheduler.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// FullName returns the display name for operator-facing output.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// AlertRecipient binds an Alert to exactly one of a team or a user.
// It is consulted only when the alert's visibility is teams or users.
type AlertRecipient struct {
	ID      int64
	AlertID int64
	TeamID  *int64
	UserID  *int64
}

// Validate enforces the exactly-one-of invariant: a recipient row must
// reference a team or a user, never both and never neither.
func (r *AlertRecipient) Validate() error {
	if r.TeamID == nil && r.UserID == nil {
		return &ValidationError{Field: "recipient", Message: "either team or user must be set"}
	}
	if r.TeamID != nil && r.UserID != nil {
		return &ValidationError{Field: "recipient", Message: "only one of team or user may be set"}
	}
	return nil
}
