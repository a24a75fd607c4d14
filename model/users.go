package model

import "time"

// User mirrors the profile documents owned by the surrounding product.
// This subsystem only ever reads it: the display name feeds the public
// tracker view and the contact fields feed the responder console.
type User struct {
	UserID      string    `bson:"user_id" json:"user_id"`
	DisplayName string    `bson:"display_name" json:"display_name"`
	Email       string    `bson:"email" json:"email"`
	Phone       string    `bson:"phone" json:"phone"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}
