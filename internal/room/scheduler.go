package room

import (
	"context"
	"time"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/metrics"
)

// scheduleBotCycle ставит ход бота в очередь. Вызывается под s.mu.
func (m *Manager) scheduleBotCycle(s *Session) {
	if s.bot.Pending() {
		return
	}
	id := s.ID
	s.bot.Schedule(m.cfg.BotCycleDelay, func(gen uint64) { m.botStep(id, gen, 0) })
}

// botStep делает один подход бота. Если ход не перешел (многошаговый ход,
// серия взятий), следующий подход планируется через BotStepDelay.
// Цикл останавливается на смене хода, пустом или отклоненном ходе и на
// BotCycleCap подходах подряд, после чего состояние рассылается один раз.
func (m *Manager) botStep(sessionID string, gen uint64, step int) {
	s := m.get(sessionID)
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.bot.Current(gen) || s.terminal() {
		s.mu.Unlock()
		return
	}
	s.bot.Stop()

	idx := s.turnIndex()
	if idx < 0 || !s.players[idx].IsBot {
		s.mu.Unlock()
		return
	}
	channel := domain.SessionChannel(sessionID)
	bot := s.players[idx]

	if step >= m.cfg.BotCycleCap {
		metrics.BotCycleCapHits.Inc()
		m.log.Warn("bot cycle cap reached", "session_id", sessionID, "game_type", s.GameType, "steps", step)
		payload := s.payload()
		s.mu.Unlock()
		m.gateway.Broadcast(channel, domain.EventGameState, payload)
		return
	}

	move := s.engine.BotMove(s.state, idx)
	if move.IsEmpty() {
		m.log.Warn("bot has no move", "session_id", sessionID, "game_type", s.GameType, "bot_id", bot.ID)
		payload := s.payload()
		s.mu.Unlock()
		m.gateway.Broadcast(channel, domain.EventGameState, payload)
		return
	}

	res, err := s.engine.ProcessMove(s.state, move, bot.ID, s.players)
	if err != nil {
		m.log.Warn("bot move rejected", "error", err, "session_id", sessionID, "game_type", s.GameType, "move", string(move))
		payload := s.payload()
		s.mu.Unlock()
		m.gateway.Broadcast(channel, domain.EventGameState, payload)
		return
	}
	metrics.MovesTotal.WithLabelValues(string(s.GameType), metrics.ActorKind(true)).Inc()
	s.state = res.State
	s.updatedAt = time.Now()

	if out := m.checkEndLocked(s); out != nil {
		payload := s.payload()
		s.mu.Unlock()
		m.gateway.Broadcast(channel, domain.EventGameState, payload)
		m.settle(context.Background(), out)
		return
	}

	m.saveSnapshot(s)
	if !res.TurnShouldSwitch && s.turnIndex() == idx {
		// промежуточные подходы не рассылаются, итог уходит один раз
		next := step + 1
		s.bot.Schedule(m.cfg.BotStepDelay, func(gen uint64) { m.botStep(sessionID, gen, next) })
		s.mu.Unlock()
		return
	}
	payload := s.payload()
	s.mu.Unlock()

	m.gateway.Broadcast(channel, domain.EventGameState, payload)
}
