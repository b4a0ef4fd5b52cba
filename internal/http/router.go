// Package http собирает gin роутер: REST API, websocket и служебные ручки.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/http/handlers"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/http/middleware"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/ws"
)

// RegisterRoutes вешает все ручки на r. limiter может быть nil.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, wsHandler *ws.WSHandler, limiter middleware.Limiter) {
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if wsHandler != nil {
		r.GET("/ws", wsHandler.HandleWS())
	}

	api := r.Group("/api")
	if limiter != nil {
		api.Use(middleware.RateLimit(limiter, "api"))
	}
	api.POST("/auth/telegram", h.TelegramAuth)
	api.GET("/games", h.Games)
	api.GET("/sessions", h.OpenSessions)
	api.GET("/sessions/:id", h.Session)
	api.GET("/tournaments", h.ListTournaments)
	api.GET("/tournaments/history", h.TournamentHistory)
	api.GET("/tournaments/:id", h.Tournament)
	api.GET("/tournaments/:id/matches/:matchId", h.TournamentMatch)

	auth := api.Group("")
	auth.Use(middleware.JWTAuth())
	auth.GET("/me", h.Me)
	auth.GET("/history", h.MyHistory)
	auth.GET("/notifications", h.ListNotifications)
	auth.POST("/notifications/read", h.MarkNotificationsRead)
	auth.GET("/audit", h.MyAuditLog)
}

// CORS для фронта на другом домене
func CORS(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allowedOrigin == "" || origin == allowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
