package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
)

// Текущий профиль: баланс, статистика и последние транзакции
func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	stats, _ := h.Records.Stats(ctx, userID)
	transactions, _ := h.Transactions.GetTransactionHistory(ctx, userID, 50)
	sessionID, _ := h.Rooms.SessionOf(userID)

	c.JSON(http.StatusOK, gin.H{
		"user":           user,
		"stats":          stats,
		"transactions":   transactions,
		"active_session": sessionID,
	})
}

// История игр текущего пользователя
func (h *Handler) MyHistory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	ctx := c.Request.Context()
	games, err := h.Records.History(ctx, userID, limitParam(c, 50, 200))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get games"})
		return
	}
	stats, _ := h.Records.Stats(ctx, userID)
	c.JSON(http.StatusOK, gin.H{"games": games, "stats": stats})
}

func (h *Handler) ListNotifications(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	list, err := h.Notifications.List(c.Request.Context(), userID, limitParam(c, 50, 200))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *Handler) MarkNotificationsRead(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if err := h.Notifications.MarkRead(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// MyAuditLog - журнал действий пользователя: входы, партии, турниры
func (h *Handler) MyAuditLog(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if h.Audit == nil {
		c.JSON(http.StatusOK, gin.H{"logs": []*domain.AuditLog{}})
		return
	}
	logs, err := h.Audit.GetUserAuditLogs(c.Request.Context(), userID, limitParam(c, 50, 200))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get audit logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}
