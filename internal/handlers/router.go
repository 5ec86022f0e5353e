package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trustmod/registry/internal/logging"
)

// NewRouter wires the registry routes. Everything under /package sits
// behind the token middleware.
func NewRouter(h *PackageHandler, authSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/ping", Ping)
	r.GET("/stats", Stats)

	pkg := r.Group("/package", TokenAuth(authSecret))
	pkg.POST("", h.Create)
	pkg.GET("/byName/:name", h.HistoryByName)
	pkg.DELETE("/byName/:name", h.DeleteByName)
	pkg.GET("/:id", h.Get)
	pkg.PUT("/:id", h.Update)
	pkg.DELETE("/:id", h.Delete)
	pkg.GET("/:id/rate", h.Rate)

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Log.Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
