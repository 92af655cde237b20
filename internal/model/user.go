// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account.
//
// PasswordHash holds the bcrypt output, never the cleartext password. The
// `json:"-"` tag keeps it out of every JSON encoding, so a User can never
// leak its credential even if a handler encodes it by mistake.
type User struct {
	ID           int64     `json:"id"          db:"id"`
	Username     string    `json:"username"    db:"username"` // UNIQUE in the users table
	PasswordHash string    `json:"-"           db:"password_hash"`
	DateJoined   time.Time `json:"date_joined" db:"date_joined"`
}

// UserBrief is the {id, username} pair used for follow edges and follower lists.
type UserBrief struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
