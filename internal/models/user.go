package models

import "time"

// User is an account record. PasswordHash never leaves the service.
type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Profile is the subset of user fields exposed to other users.
type Profile struct {
	ID       int    `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
}
