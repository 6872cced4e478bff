package models

// UserStatus marks whether a user may be assigned work.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User is an account member. Guests resolved through the external auth
// boundary appear here as ordinary users scoped to one task.
type User struct {
	ID        string     `json:"id"`
	AccountID string     `json:"account_id" validate:"required"`
	Email     string     `json:"email"      validate:"required,email"`
	Name      string     `json:"name"`
	Status    UserStatus `json:"status"`
}

// IsActive reports whether the user may perform tasks.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// Group is a named set of users. Membership is live: GROUP performers expand
// to the members present when the task becomes current.
type Group struct {
	ID        string   `json:"id"`
	AccountID string   `json:"account_id" validate:"required"`
	Name      string   `json:"name"       validate:"required"`
	UserIDs   []string `json:"user_ids"`
}
