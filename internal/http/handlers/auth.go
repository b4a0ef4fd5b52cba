package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/logger"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/service"
)

// TelegramAuth проверяет initData WebApp и выдает JWT
func (h *Handler) TelegramAuth(c *gin.Context) {
	var req struct {
		InitData string `json:"init_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data required"})
		return
	}

	values, ok := service.ValidateTelegramInitData(req.InitData, h.BotToken)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid init data"})
		return
	}
	user, err := service.UserFromInitData(values)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid init data"})
		return
	}

	ctx := c.Request.Context()
	if err := h.Users.Upsert(ctx, user); err != nil {
		logger.Error("failed to upsert user", "error", err, "tg_id", user.TgID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	token, err := service.IssueJWT(user.ID, user.DisplayName())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	if h.Audit != nil {
		h.Audit.LogLogin(ctx, user.ID, c.ClientIP(), c.Request.UserAgent())
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
