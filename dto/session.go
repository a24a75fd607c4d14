package dto

import (
	"main/model"
	"time"
)

// LocationRequest carries a full position fix. Coordinates are pointers
// so a missing field is distinguishable from a zero value and rejected
// by binding rather than silently placing someone off the coast of
// Africa.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,coordinate"`
	Longitude *float64 `json:"longitude" binding:"required,coordinate"`
	Address   string   `json:"address"`
	Region    string   `json:"region"`
}

// PublicView is everything the unauthenticated tracker page may see.
// The owner's display name is the only profile field exposed; contact
// info and the owner's identity never leave the responder console.
type PublicView struct {
	SessionID   string    `json:"session_id"`
	DisplayName string    `json:"display_name"`
	IsActive    bool      `json:"is_active"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Address     string    `json:"address"`
	Region      string    `json:"region"`
	LastPing    time.Time `json:"last_ping"`
}

// SessionSummary is the responder console's row: the session plus enough
// of the owner's profile for a human to follow up by phone or SMS.
type SessionSummary struct {
	SessionID   string    `json:"session_id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Address     string    `json:"address"`
	Region      string    `json:"region"`
	DeviceInfo  string    `json:"device_info"`
	ActivatedAt time.Time `json:"activated_at"`
	LastPing    time.Time `json:"last_ping"`
}

func ToPublicView(session *model.Session, displayName string) *PublicView {
	return &PublicView{
		SessionID:   session.SessionID,
		DisplayName: displayName,
		IsActive:    session.IsActive,
		Latitude:    session.Latitude,
		Longitude:   session.Longitude,
		Address:     session.Address,
		Region:      session.Region,
		LastPing:    session.LastPing,
	}
}

func ToSessionSummary(session *model.Session, owner *model.User) SessionSummary {
	summary := SessionSummary{
		SessionID:   session.SessionID,
		UserID:      session.UserID,
		Latitude:    session.Latitude,
		Longitude:   session.Longitude,
		Address:     session.Address,
		Region:      session.Region,
		DeviceInfo:  session.DeviceInfo,
		ActivatedAt: session.ActivatedAt,
		LastPing:    session.LastPing,
	}

	if owner != nil {
		summary.DisplayName = owner.DisplayName
		summary.Email = owner.Email
		summary.Phone = owner.Phone
	}

	return summary
}
