package types

import "time"

// Session is the result of a successful sign-in.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      SessionUser
}

// SessionUser is the public profile of the signed-in user.
type SessionUser struct {
	ID    string
	Name  string
	Email string
}
