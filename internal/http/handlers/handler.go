package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/game"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/http/middleware"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/repository"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/room"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/tournament"
)

type UserStore interface {
	Upsert(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type TransactionReader interface {
	GetTransactionHistory(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error)
}

type RecordReader interface {
	History(ctx context.Context, userID int64, limit int) ([]*domain.GameRecord, error)
	Stats(ctx context.Context, userID int64) (repository.GameStats, error)
}

type NotificationReader interface {
	List(ctx context.Context, userID int64, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, userID int64) error
}

type Auditor interface {
	LogLogin(ctx context.Context, userID int64, ip, userAgent string)
	GetUserAuditLogs(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error)
}

// Handler - REST часть API. Игровые действия идут через websocket,
// здесь только чтение и вход.
type Handler struct {
	BotToken      string
	Users         UserStore
	Transactions  TransactionReader
	Records       RecordReader
	Notifications NotificationReader
	Audit         Auditor // может быть nil
	Registry      *game.Registry
	Rooms         *room.Manager
	Tournaments   *tournament.Manager
}

func getUserID(c *gin.Context) (int64, bool) {
	return middleware.UserID(c)
}

func limitParam(c *gin.Context, def, max int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Games - поддерживаемые типы игр
func (h *Handler) Games(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": h.Registry.Types()})
}
