package room

import (
	"context"
	"time"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/game"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/metrics"
)

const settleTimeout = 10 * time.Second

// outcome - копия завершенной сессии, снятая под блокировкой
type outcome struct {
	sessionID string
	gameType  game.GameType
	stake     int64
	status    domain.SessionStatus
	players   []game.Participant
	end       game.EndResult
	reason    string
}

func (o *outcome) loserOf(winnerID int64) *game.Participant {
	for i := range o.players {
		if o.players[i].ID != winnerID {
			return &o.players[i]
		}
	}
	return nil
}

func (o *outcome) opponentName(userID int64) string {
	for _, p := range o.players {
		if p.ID != userID {
			return p.Name
		}
	}
	return ""
}

// settle выполняется без блокировок: индекс игроков, снимок, рассылка
// game-over, движение ставок и записи истории
func (m *Manager) settle(ctx context.Context, o *outcome) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	m.mu.Lock()
	for _, p := range o.players {
		if m.userSession[p.ID] == o.sessionID {
			delete(m.userSession, p.ID)
		}
	}
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.Delete(ctx, o.sessionID); err != nil {
			m.log.Error("failed to delete session snapshot", "error", err, "session_id", o.sessionID)
		}
	}

	metrics.SessionsActive.Dec()
	m.gateway.Broadcast(domain.SessionChannel(o.sessionID), domain.EventGameOver, gameOverPayload(o.sessionID, o.end, o.reason))

	if o.status == domain.SessionAbandoned {
		metrics.SessionsFinished.WithLabelValues(string(o.gameType), "abandoned").Inc()
		m.broadcastLobby(o.gameType)
		return
	}

	if o.end.IsDraw {
		metrics.SessionsFinished.WithLabelValues(string(o.gameType), "draw").Inc()
	} else {
		metrics.SessionsFinished.WithLabelValues(string(o.gameType), "win").Inc()
		m.payWager(ctx, o)
	}
	m.record(ctx, o)
	m.log.Info("session finished", "session_id", o.sessionID, "reason", o.reason, "draw", o.end.IsDraw)
}

// payWager: сначала ставку отдает проигравший человек, и только после
// успешного списания победитель ее получает. Бот платит без баланса.
func (m *Manager) payWager(ctx context.Context, o *outcome) {
	if o.stake <= 0 || o.end.WinnerID == nil {
		return
	}
	winnerID := *o.end.WinnerID
	meta := map[string]interface{}{
		"session_id": o.sessionID,
		"game_type":  string(o.gameType),
		"reason":     o.reason,
	}

	loser := o.loserOf(winnerID)
	if loser == nil {
		return
	}
	if !loser.IsBot {
		if err := m.ledger.Debit(ctx, loser.ID, o.stake, domain.TxWagerLoss, meta); err != nil {
			// без списания выигрыш не начисляется
			m.log.Error("failed to debit wager", "error", err, "session_id", o.sessionID, "user_id", loser.ID)
			return
		}
	}

	for _, p := range o.players {
		if p.ID != winnerID || p.IsBot {
			continue
		}
		if err := m.ledger.Credit(ctx, p.ID, o.stake, domain.TxWagerWin, meta); err != nil {
			m.log.Error("failed to credit wager", "error", err, "session_id", o.sessionID, "user_id", p.ID)
		}
	}
}

func (m *Manager) record(ctx context.Context, o *outcome) {
	if m.recorder == nil {
		return
	}
	for _, p := range o.players {
		if p.IsBot {
			continue
		}
		result := domain.ResultLost
		switch {
		case o.end.IsDraw:
			result = domain.ResultDraw
		case o.end.WinnerID != nil && *o.end.WinnerID == p.ID:
			result = domain.ResultWon
		}
		rec := &domain.GameRecord{
			UserID:    p.ID,
			GameType:  string(o.gameType),
			Opponent:  o.opponentName(p.ID),
			Result:    result,
			Stake:     o.stake,
			SessionID: o.sessionID,
		}
		if err := m.recorder.RecordGame(ctx, rec); err != nil {
			m.log.Error("failed to record game", "error", err, "session_id", o.sessionID, "user_id", p.ID)
		}
	}
}
