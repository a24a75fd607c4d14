package model

import "time"

// Operator is one response-desk account. Passwords are stored as argon2
// hashes only; the optional TOTP secret enables a per-operator second
// factor.
type Operator struct {
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	TOTPSecret   string    `bson:"totp_secret,omitempty" json:"-"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}
