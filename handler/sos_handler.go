package handler

import (
	"errors"

	"main/dto"
	"main/repository"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// ActivateHandler starts a sharing session for the authenticated user.
// Any prior active session of theirs ends as part of the same call.
func ActivateHandler(c *gin.Context, sosService *usecase.SOSService) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req dto.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.TrackError("sos", "invalid_activate_request")
		utils.BadRequest(c, "Latitude and longitude are required")
		return
	}

	deviceInfo := utils.DeviceSummary(c.Request.UserAgent())

	sessionID, err := sosService.Activate(userID.(string), *req.Latitude, *req.Longitude, req.Address, req.Region, deviceInfo)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCoordinates) {
			utils.BadRequest(c, "Latitude and longitude must be valid numbers")
			return
		}
		utils.TrackError("sos", "activation_failed")
		utils.ServiceUnavailable(c, "Failed to activate session, please retry")
		return
	}

	utils.Created(c, gin.H{
		"session_id": sessionID,
	})
}

// UpdateLocationHandler refreshes the caller's live position. 404 means
// no active session; the client is expected to re-activate.
func UpdateLocationHandler(c *gin.Context, sosService *usecase.SOSService) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req dto.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.TrackError("sos", "invalid_location_request")
		utils.BadRequest(c, "Latitude and longitude are required")
		return
	}

	lastPing, err := sosService.UpdateLocation(userID.(string), *req.Latitude, *req.Longitude, req.Address, req.Region)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidCoordinates):
			utils.BadRequest(c, "Latitude and longitude must be valid numbers")
		case errors.Is(err, repository.ErrNoActiveSession):
			utils.NotFound(c, "No active session")
		default:
			utils.TrackError("sos", "location_update_failed")
			utils.ServiceUnavailable(c, "Failed to update location, please retry")
		}
		return
	}

	utils.Success(c, gin.H{
		"last_ping": lastPing,
	})
}

// DeactivateHandler ends the caller's sharing. Idempotent: deactivating
// with nothing active still succeeds.
func DeactivateHandler(c *gin.Context, sosService *usecase.SOSService) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	if err := sosService.Deactivate(userID.(string)); err != nil {
		utils.TrackError("sos", "deactivation_failed")
		utils.ServiceUnavailable(c, "Failed to deactivate session, please retry")
		return
	}

	utils.Success(c, gin.H{
		"ok": true,
	})
}

// GetOwnSessionHandler returns the caller's current active session, if
// any, for client-side resume-on-reload.
func GetOwnSessionHandler(c *gin.Context, sosService *usecase.SOSService) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	session, err := sosService.OwnSession(userID.(string))
	if err != nil {
		utils.TrackError("sos", "own_session_fetch_failed")
		utils.ServiceUnavailable(c, "Failed to fetch session, please retry")
		return
	}

	utils.Success(c, gin.H{
		"session": session,
	})
}
