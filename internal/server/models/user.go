// Package models holds the records persisted by the server repositories.
package models

import "time"

// User is a registered identity. PasswordHash is an argon2id PHC string;
// the plaintext password is never stored.
type User struct {
	ID           int64     `db:"id"`
	UserName     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

// PublicUser is the projection of User that may leave the server.
type PublicUser struct {
	ID       int64  `json:"id"`
	UserName string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// Public strips credentials from u.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, UserName: u.UserName, Role: u.Role}
}
