package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trustmod/registry/internal/stats"
)

// Stats handles GET /stats with the cached registry statistics.
func Stats(c *gin.Context) {
	if stats.Registry == nil {
		c.JSON(http.StatusOK, gin.H{"message": "stats not initialized"})
		return
	}
	artifactCount, artifactBytes, packageCount, lastUpdated := stats.Registry.Get()
	c.JSON(http.StatusOK, gin.H{
		"artifact_count": artifactCount,
		"artifact_bytes": artifactBytes,
		"artifact_size":  stats.FormatBytes(artifactBytes),
		"package_count":  packageCount,
		"last_updated":   lastUpdated.Format(time.RFC3339),
	})
}

// Ping handles GET /ping.
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
