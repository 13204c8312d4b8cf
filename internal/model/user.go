package model

import "time"

// UserID identifies a signed-in user. It is the subject assigned by the
// identity provider on first sign-in.
type UserID string

// User is a person who has signed in at least once
type User struct {
	ID        UserID    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	LastLogin time.Time `json:"lastLogin"`
}

// DisplayName returns the name shown to other players
func (u *User) DisplayName() string {
	if u.Name == "" {
		return "Anonymous"
	}
	return u.Name
}
