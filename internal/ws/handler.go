package ws

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/logger"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/service"
)

// WSHandler поднимает websocket соединение для пользователя с валидным JWT
type WSHandler struct {
	hub      *Hub
	router   *Router
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewWSHandler(hub *Hub, router *Router, allowedOrigin string) *WSHandler {
	return &WSHandler{
		hub:    hub,
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
		log: logger.With("component", "ws_handler"),
	}
}

func (h *WSHandler) HandleWS() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "токен обязателен"})
			return
		}
		claims, err := service.ParseJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "неверный токен"})
			return
		}

		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warn("ws upgrade failed", "error", err, "user_id", claims.UserID)
			return
		}

		client := NewClient(h.hub, h.router, conn, claims.UserID, claims.Name)
		go client.Run()
	}
}
