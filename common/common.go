package common

type SessionContextKeyType string

const SessionContextKey SessionContextKeyType = "session"

// User is one row of the admin user list.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewUser carries the fields needed to create a user.
type NewUser struct {
	Name     string
	Email    string
	LoginID  string
	Password string
}
