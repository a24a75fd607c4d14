package middleware

import "github.com/gin-gonic/gin"

// NoStoreMiddleware forbids intermediary caching. Live positions go
// stale in seconds, and a cached tracker response is worse than none.
func NoStoreMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
