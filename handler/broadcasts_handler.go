package handler

import (
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// UserBroadcastLimit caps the end-user feed.
const UserBroadcastLimit = 20

// ListBroadcastsHandler returns recent operator announcements to an
// authenticated end user. Deliberately unfiltered by region: every user
// sees every broadcast (the region argument below is the extension
// point should that ever change).
func ListBroadcastsHandler(c *gin.Context, helpdeskService *usecase.HelpdeskService) {
	broadcasts, err := helpdeskService.ListBroadcasts(UserBroadcastLimit, "")
	if err != nil {
		utils.TrackError("broadcast", "fetch_failed")
		utils.ServiceUnavailable(c, "Failed to fetch broadcasts, please retry")
		return
	}

	utils.Success(c, gin.H{
		"broadcasts": broadcasts,
	})
}
