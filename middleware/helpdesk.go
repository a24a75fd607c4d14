package middleware

import (
	"strings"

	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// HelpdeskAuthMiddleware admits response-desk tokens only. An end-user
// token presented here fails the role check and gets the same uniform
// unauthorized response as garbage input.
func HelpdeskAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.TrackAuthAttempt("failure", "helpdesk")
			utils.Unauthorized(c, authFailureMessage)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		operator, err := services.ValidateHelpdeskToken(tokenString)
		if err != nil {
			utils.TrackAuthAttempt("failure", "helpdesk")
			utils.Unauthorized(c, authFailureMessage)
			c.Abort()
			return
		}

		utils.TrackAuthAttempt("success", "helpdesk")
		c.Set("operator", operator)
		c.Next()
	}
}
