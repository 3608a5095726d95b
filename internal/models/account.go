// Package models defines the data portal's persisted records and the views
// handed to callers.
package models

import "time"

// Credential is a registered account. PasswordHash holds an argon2id hash,
// never the password itself.
type Credential struct {
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

// User is the public view of an account.
type User struct {
	Email string `json:"email"`
}

// Session marks the signed-in user. Token is a signed session token whose
// subject is Email; callers pass the Session into every authenticated call.
type Session struct {
	User
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
