package handler

import (
	"context"
	"time"

	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var startTime = time.Now()

// HealthHandler reports store reachability and basic system load.
func HealthHandler(c *gin.Context) {
	health := gin.H{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(startTime).Seconds()),
		"cpu_percent":    utils.GetCPUUsage(),
		"memory_percent": utils.GetMemoryUsage(),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := utils.MongoClient.Ping(ctx, readpref.Primary()); err != nil {
		health["status"] = "degraded"
		health["mongo"] = "unreachable"
	} else {
		health["mongo"] = "ok"
	}

	if services.GlobalTrackerCache != nil {
		if err := services.GlobalTrackerCache.Ping(); err != nil {
			health["redis"] = "unreachable"
		} else {
			health["redis"] = "ok"
		}
	} else {
		health["redis"] = "disabled"
	}

	utils.Success(c, health)
}
