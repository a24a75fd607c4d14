package model

import "time"

// BroadcastMessage is an operator-authored announcement. Records are
// append-only; nothing in this subsystem mutates or deletes them.
type BroadcastMessage struct {
	Message   string    `bson:"message" json:"message"`
	Region    string    `bson:"region" json:"region"` // empty = all regions
	SentBy    string    `bson:"sent_by" json:"sent_by"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
