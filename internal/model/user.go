package model

import "time"

// User represents a registered account.
//
// Username and Email are stored lowercased and are each unique. PasswordHash
// holds the bcrypt output and is never serialised. GitHubID is non-zero only
// for accounts created through the GitHub OAuth login.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     int64     `json:"githubId,omitempty" db:"github_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
