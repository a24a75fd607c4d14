package handler

import (
	"errors"
	"os"

	"main/dto"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
)

// HelpdeskBroadcastLimit caps the operator-facing broadcast listing.
const HelpdeskBroadcastLimit = 50

// HelpdeskLoginHandler exchanges an operator credential for a
// short-lived helpdesk token. All failure modes return the same 401.
func HelpdeskLoginHandler(c *gin.Context, operators usecase.OperatorStore) {
	var loginReq dto.HelpdeskLoginRequest
	if err := c.ShouldBindJSON(&loginReq); err != nil {
		utils.TrackAuthAttempt("failure", "helpdesk")
		utils.Unauthorized(c, "Invalid credentials")
		return
	}

	if !verifyHelpdeskCredentials(loginReq, operators) {
		utils.TrackAuthAttempt("failure", "helpdesk")
		utils.Unauthorized(c, "Invalid credentials")
		return
	}

	token, err := services.GenerateHelpdeskToken(loginReq.Username)
	if err != nil {
		utils.TrackError("auth", "helpdesk_token_generation")
		utils.InternalError(c, "Failed to generate token")
		return
	}

	utils.TrackAuthAttempt("success", "helpdesk")
	utils.Success(c, gin.H{
		"token": token,
	})
}

func verifyHelpdeskCredentials(loginReq dto.HelpdeskLoginRequest, operators usecase.OperatorStore) bool {
	// Per-operator accounts take precedence so broadcasts carry a real
	// audit trail in sent_by. Lookup errors and unknown usernames fall
	// back to the shared credential, which covers bootstrap before any
	// operator document exists.
	if operators != nil {
		if op, err := operators.FindOperator(loginReq.Username); err == nil && op != nil {
			if ok, err := services.VerifyPassword(op.PasswordHash, loginReq.Password); err != nil || !ok {
				return false
			}
			if op.TOTPSecret != "" && !totp.Validate(loginReq.TwoFactorCode, op.TOTPSecret) {
				return false
			}
			return true
		}
	}

	username := os.Getenv("HELPDESK_USERNAME")
	if username == "" || !services.ConstantTimeEquals(loginReq.Username, username) {
		return false
	}

	// Hashed credential preferred; plaintext comparison is a dev-mode
	// fallback only.
	if hash := os.Getenv("HELPDESK_PASSWORD_HASH"); hash != "" {
		if ok, err := services.VerifyPassword(hash, loginReq.Password); err != nil || !ok {
			return false
		}
	} else if password := os.Getenv("HELPDESK_PASSWORD"); password == "" ||
		!services.ConstantTimeEquals(loginReq.Password, password) {
		return false
	}

	// Optional second factor shared by the desk.
	if secret := os.Getenv("HELPDESK_TOTP_SECRET"); secret != "" {
		if !totp.Validate(loginReq.TwoFactorCode, secret) {
			return false
		}
	}

	return true
}

// ListHelpdeskSessionsHandler lists every active session, optionally
// narrowed by region. This is the one place owner contact details cross
// to a third party, which is the point of the feature.
func ListHelpdeskSessionsHandler(c *gin.Context, helpdeskService *usecase.HelpdeskService) {
	sessions, err := helpdeskService.ListActiveSessions(c.Query("region"))
	if err != nil {
		utils.TrackError("helpdesk", "session_list_failed")
		utils.ServiceUnavailable(c, "Failed to fetch sessions, please retry")
		return
	}

	utils.Success(c, gin.H{
		"sessions": sessions,
	})
}

// ListHelpdeskRegionsHandler enumerates regions currently in use.
func ListHelpdeskRegionsHandler(c *gin.Context, helpdeskService *usecase.HelpdeskService) {
	regions, err := helpdeskService.ListActiveRegions()
	if err != nil {
		utils.TrackError("helpdesk", "region_list_failed")
		utils.ServiceUnavailable(c, "Failed to fetch regions, please retry")
		return
	}

	utils.Success(c, gin.H{
		"regions": regions,
	})
}

// PublishBroadcastHandler appends an operator announcement.
func PublishBroadcastHandler(c *gin.Context, helpdeskService *usecase.HelpdeskService) {
	var req dto.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.TrackError("broadcast", "invalid_request")
		utils.BadRequest(c, "Message is required")
		return
	}

	operator, _ := c.Get("operator")
	sentBy, _ := operator.(string)

	broadcast, err := helpdeskService.PublishBroadcast(req.Message, req.Region, sentBy)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmptyBroadcast):
			utils.BadRequest(c, "Message cannot be empty")
		case errors.Is(err, usecase.ErrBroadcastTooLong):
			utils.BadRequest(c, "Message too long")
		default:
			utils.TrackError("broadcast", "publish_failed")
			utils.ServiceUnavailable(c, "Failed to publish broadcast, please retry")
		}
		return
	}

	utils.Created(c, gin.H{
		"ok":        true,
		"broadcast": broadcast,
	})
}

// ListHelpdeskBroadcastsHandler shows operators the recent log,
// optionally filtered to one region.
func ListHelpdeskBroadcastsHandler(c *gin.Context, helpdeskService *usecase.HelpdeskService) {
	broadcasts, err := helpdeskService.ListBroadcasts(HelpdeskBroadcastLimit, c.Query("region"))
	if err != nil {
		utils.TrackError("broadcast", "fetch_failed")
		utils.ServiceUnavailable(c, "Failed to fetch broadcasts, please retry")
		return
	}

	utils.Success(c, gin.H{
		"broadcasts": broadcasts,
	})
}
