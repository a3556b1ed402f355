package domain

import "time"

// User represents a registered user. The JSON form is the wire format shared
// by the service and the client; the password hash never leaves the service.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}
