package model

import "time"

// Session is one user's live-location-sharing episode. SessionID doubles
// as the public share token, so it is generated from a cryptographically
// strong source at activation and never regenerated by updates.
type Session struct {
	SessionID   string    `bson:"session_id" json:"session_id"`
	UserID      string    `bson:"user_id" json:"user_id"`
	IsActive    bool      `bson:"is_active" json:"is_active"`
	Latitude    float64   `bson:"latitude" json:"latitude"`
	Longitude   float64   `bson:"longitude" json:"longitude"`
	Address     string    `bson:"address" json:"address"`
	Region      string    `bson:"region" json:"region"`
	DeviceInfo  string    `bson:"device_info" json:"device_info"`
	ActivatedAt time.Time `bson:"activated_at" json:"activated_at"`
	LastPing    time.Time `bson:"last_ping" json:"last_ping"`
}
