package middleware

import (
	"strings"

	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// A single message for every end-user auth failure. Which half of the
// check failed is never revealed; a probing client learns nothing from
// the distinction between a malformed, expired, or wrong-domain token.
const authFailureMessage = "Missing or invalid token"

// AuthMiddleware admits end-user credentials only, delegating validation
// to the identity collaborator and storing the user ID in the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.TrackAuthAttempt("failure", "user")
			utils.Unauthorized(c, authFailureMessage)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		userID, err := services.Identity.VerifyUserToken(tokenString)
		if err != nil {
			utils.TrackAuthAttempt("failure", "user")
			utils.Unauthorized(c, authFailureMessage)
			c.Abort()
			return
		}

		utils.TrackAuthAttempt("success", "user")
		c.Set("user_id", userID)
		c.Next()
	}
}
