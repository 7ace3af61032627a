package auth

import "time"

// User is an account holder. The password hash never leaves this package.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the minimal projection attached to authenticated requests.
// Downstream handlers only ever see id and email.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
