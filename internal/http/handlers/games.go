package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/game"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/room"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/tournament"
)

// Открытые сессии типа game_type
func (h *Handler) OpenSessions(c *gin.Context) {
	gt := game.GameType(c.Query("game_type"))
	if _, err := h.Registry.Get(gt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown game type"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"game_type": gt, "sessions": h.Rooms.OpenSessions(gt)})
}

func (h *Handler) Session(c *gin.Context) {
	payload, err := h.Rooms.Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, room.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
		return
	}
	c.JSON(http.StatusOK, payload)
}

// Турниры в памяти, фильтр по status
func (h *Handler) ListTournaments(c *gin.Context) {
	status := domain.TournamentStatus(c.Query("status"))
	c.JSON(http.StatusOK, gin.H{"tournaments": h.Tournaments.List(status)})
}

func (h *Handler) TournamentHistory(c *gin.Context) {
	list, err := h.Tournaments.History(c.Request.Context(), limitParam(c, 20, 100))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get tournaments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tournaments": list})
}

func (h *Handler) Tournament(c *gin.Context) {
	t, err := h.Tournaments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, tournament.ErrTournamentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "tournament not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tournament"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) TournamentMatch(c *gin.Context) {
	m, err := h.Tournaments.MatchState(c.Request.Context(), c.Param("matchId"))
	if err != nil {
		if errors.Is(err, tournament.ErrMatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load match"})
		return
	}
	if m.TournamentID != c.Param("id") {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}
