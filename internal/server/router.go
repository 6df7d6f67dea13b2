// Package server assembles the hemma sync API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/hemma/internal/server/handler"
	"github.com/julianstephens/hemma/internal/server/metrics"
	"github.com/julianstephens/hemma/internal/server/middleware"
	"github.com/julianstephens/hemma/internal/server/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func NewRouter(svc *service.Service, st Pinger, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(), middleware.RequestLogger(), m.Middleware())

	h := handler.New(svc)

	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	public := router.Group("/api")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
		}
	}

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(svc.Tokens()))
	{
		protected.GET("/auth/profile", h.Profile)

		sync := protected.Group("/sync")
		{
			sync.GET("/download", h.Download)
			sync.POST("/upload", h.Upload)
			sync.DELETE("/reset", h.Reset)
		}
	}

	return router
}
