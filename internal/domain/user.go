package domain

import "time"

// User represents a registered customer or administrator
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName" db:"last_name"`
	IsAdmin      bool      `json:"isAdmin" db:"is_admin"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
