package handler

import (
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// TrackHandler is the unauthenticated tracker read: the share token in
// the path is the only authorization factor. Unknown and long-dead
// tokens get the same 404, leaking nothing about past emergencies.
func TrackHandler(c *gin.Context, sosService *usecase.SOSService) {
	token := c.Param("sessionID")

	view, err := sosService.PublicView(token)
	if err != nil {
		utils.TrackError("tracker", "lookup_failed")
		utils.ServiceUnavailable(c, "Failed to fetch session, please retry")
		return
	}
	if view == nil {
		utils.NotFound(c, "Session not found")
		return
	}

	utils.Success(c, view)
}
