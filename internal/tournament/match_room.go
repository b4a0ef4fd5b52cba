package tournament

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/game"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/metrics"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/sched"
)

// MatchRoom - живая партия матча сетки. В отличие от казуальной сессии
// ничья переигрывается, а итог уходит в сетку турнира.
type MatchRoom struct {
	mu sync.Mutex

	MatchID      string
	TournamentID string
	Round        int
	RoundLabel   string
	GameType     game.GameType

	engine   game.Engine
	players  []game.Participant
	state    game.State
	status   domain.MatchStatus
	joined   map[int64]bool
	grace    map[int64]*sched.Task
	replays  int
	winnerID int64
	reason   string
	// version растет при каждом изменении партии, триггер хода бота
	// несет версию, на которую был поставлен
	version  int64
	botTimer *time.Timer
	// подходы бота подряд без передачи хода
	botSteps int
}

type MatchStatePayload struct {
	TournamentID string             `json:"tournament_id"`
	MatchID      string             `json:"match_id"`
	Round        int                `json:"round"`
	RoundLabel   string             `json:"round_label"`
	GameType     game.GameType      `json:"game_type"`
	Status       domain.MatchStatus `json:"status"`
	Players      []game.Participant `json:"players"`
	State        any                `json:"state"`
	Turn         int64              `json:"turn"`
	Replays      int                `json:"replays"`
	WinnerID     int64              `json:"winner_id,omitempty"`
	Reason       string             `json:"reason,omitempty"`
}

type MatchCreatedPayload struct {
	TournamentID string           `json:"tournament_id"`
	MatchID      string           `json:"match_id"`
	Round        int              `json:"round"`
	RoundLabel   string           `json:"round_label"`
	GameType     game.GameType    `json:"game_type"`
	Opponent     game.Participant `json:"opponent"`
}

type ReplayPayload struct {
	TournamentID string            `json:"tournament_id"`
	MatchID      string            `json:"match_id"`
	Replay       int               `json:"replay"`
	MaxReplays   int               `json:"max_replays"`
	Match        MatchStatePayload `json:"match"`
}

// исход матча для игрока
const (
	OutcomeAdvanced   = "advanced"
	OutcomeEliminated = "eliminated"
)

type MatchResultPayload struct {
	TournamentID string `json:"tournament_id"`
	MatchID      string `json:"match_id"`
	Round        int    `json:"round"`
	WinnerID     int64  `json:"winner_id"`
	Reason       string `json:"reason"`
	Outcome      string `json:"outcome"`
}

type PresencePayload struct {
	MatchID      string `json:"match_id"`
	UserID       int64  `json:"user_id"`
	GraceSeconds int    `json:"grace_seconds,omitempty"`
}

// matchResult - копия завершенного матча, снятая под блокировкой комнаты
type matchResult struct {
	tournamentID string
	matchID      string
	round        int
	roundLabel   string
	gameType     game.GameType
	players      []game.Participant
	winnerID     int64
	reason       string
	record       *domain.MatchRoomRecord
	final        MatchStatePayload
}

func participantOf(p *domain.TournamentPlayer) game.Participant {
	return game.Participant{ID: p.ID, Name: p.Name, IsBot: p.IsBot}
}

func (r *MatchRoom) indexOf(userID int64) int {
	for i, p := range r.players {
		if p.ID == userID {
			return i
		}
	}
	return -1
}

func (r *MatchRoom) botTurn() bool {
	idx := r.indexOf(r.state.Turn())
	return idx >= 0 && r.players[idx].IsBot
}

func (r *MatchRoom) allHumansJoined() bool {
	for _, p := range r.players {
		if !p.IsBot && !r.joined[p.ID] {
			return false
		}
	}
	return true
}

func (r *MatchRoom) payload() MatchStatePayload {
	players := make([]game.Participant, len(r.players))
	for i, p := range r.players {
		p.ConnID = ""
		players[i] = p
	}
	return MatchStatePayload{
		TournamentID: r.TournamentID,
		MatchID:      r.MatchID,
		Round:        r.Round,
		RoundLabel:   r.RoundLabel,
		GameType:     r.GameType,
		Status:       r.status,
		Players:      players,
		State:        game.PublicView(r.state),
		Turn:         r.state.Turn(),
		Replays:      r.replays,
		WinnerID:     r.winnerID,
		Reason:       r.reason,
	}
}

func (r *MatchRoom) record() *domain.MatchRoomRecord {
	players, _ := json.Marshal(r.payload().Players)
	state, _ := json.Marshal(r.state)
	return &domain.MatchRoomRecord{
		MatchID:      r.MatchID,
		TournamentID: r.TournamentID,
		GameType:     string(r.GameType),
		Round:        r.Round,
		Players:      players,
		State:        state,
		Replays:      r.replays,
		Status:       r.status,
		WinnerID:     r.winnerID,
		Version:      r.version,
		UpdatedAt:    time.Now(),
	}
}

func (r *MatchRoom) stopTimers() {
	if r.botTimer != nil {
		r.botTimer.Stop()
		r.botTimer = nil
	}
	for _, t := range r.grace {
		t.Stop()
	}
}

func (r *MatchRoom) finalizeLocked(winnerID int64, reason string) *matchResult {
	r.stopTimers()
	r.status = domain.MatchFinished
	r.winnerID = winnerID
	r.reason = reason
	r.version++
	return &matchResult{
		tournamentID: r.TournamentID,
		matchID:      r.MatchID,
		round:        r.Round,
		roundLabel:   r.RoundLabel,
		gameType:     r.GameType,
		players:      append([]game.Participant(nil), r.players...),
		winnerID:     winnerID,
		reason:       reason,
		record:       r.record(),
		final:        r.payload(),
	}
}

func (m *Manager) room(matchID string) *MatchRoom {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[matchID]
}

// openRoom создает партию для матча с известными игроками. Повторный
// вызов для того же матча ничего не делает.
func (m *Manager) openRoom(t *domain.Tournament, mt *domain.Match) {
	engine, err := m.registry.Get(game.GameType(t.GameType))
	if err != nil {
		m.log.Error("failed to open match room", "error", err, "tournament_id", t.ID, "match_id", mt.ID)
		return
	}
	players := []game.Participant{participantOf(mt.Players[0]), participantOf(mt.Players[1])}
	r := &MatchRoom{
		MatchID:      mt.ID,
		TournamentID: t.ID,
		Round:        mt.Round,
		RoundLabel:   roundLabel(mt.Round, len(t.Rounds)),
		GameType:     engine.Type(),
		engine:       engine,
		players:      players,
		state:        engine.InitialState(players),
		status:       domain.MatchWaiting,
		joined:       make(map[int64]bool),
		grace:        make(map[int64]*sched.Task),
		version:      1,
	}

	m.mu.Lock()
	if _, ok := m.rooms[mt.ID]; ok {
		m.mu.Unlock()
		return
	}
	m.rooms[mt.ID] = r
	for _, p := range players {
		if !p.IsBot {
			m.userRooms[p.ID] = mt.ID
		}
	}
	m.mu.Unlock()

	r.mu.Lock()
	for _, p := range players {
		if !p.IsBot {
			m.startGraceLocked(r, p.ID)
		}
	}
	rec := r.record()
	r.mu.Unlock()

	m.persistRoom(rec)
	m.log.Info("match room opened", "tournament_id", t.ID, "match_id", mt.ID, "round", mt.Round)
	for i, p := range players {
		if p.IsBot {
			continue
		}
		m.gateway.Broadcast(domain.UserChannel(p.ID), domain.EventTournamentMatchCreated, MatchCreatedPayload{
			TournamentID: t.ID,
			MatchID:      mt.ID,
			Round:        mt.Round,
			RoundLabel:   r.RoundLabel,
			GameType:     r.GameType,
			Opponent:     players[1-i],
		})
	}
}

// startGraceLocked: игрок, который не зашел в матч или вышел из него,
// проигрывает по истечении JoinGrace
func (m *Manager) startGraceLocked(r *MatchRoom, userID int64) {
	t := r.grace[userID]
	if t == nil {
		t = &sched.Task{}
		r.grace[userID] = t
	}
	matchID := r.MatchID
	t.Schedule(m.cfg.JoinGrace, func(gen uint64) { m.graceExpired(matchID, userID, gen) })
}

func (m *Manager) stopGraceLocked(r *MatchRoom, userID int64) {
	if t := r.grace[userID]; t != nil {
		t.Stop()
	}
}

func (m *Manager) graceExpired(matchID string, userID int64, gen uint64) {
	r := m.room(matchID)
	if r == nil {
		return
	}
	r.mu.Lock()
	t := r.grace[userID]
	if t == nil || !t.Current(gen) || r.status == domain.MatchFinished {
		r.mu.Unlock()
		return
	}
	t.Stop()
	res := m.forfeitLocked(r, userID)
	r.mu.Unlock()

	m.log.Info("match grace expired", "match_id", matchID, "user_id", userID)
	if res != nil {
		m.afterFinalize(context.Background(), res)
	}
}

func (m *Manager) forfeitLocked(r *MatchRoom, userID int64) *matchResult {
	idx := r.indexOf(userID)
	if idx < 0 {
		return nil
	}
	return r.finalizeLocked(r.players[1-idx].ID, domain.ReasonForfeit)
}

// JoinMatch - игрок заходит в свой матч. Когда зашли все люди матча,
// партия становится ACTIVE.
func (m *Manager) JoinMatch(ctx context.Context, p game.Participant, matchID string) (*MatchStatePayload, error) {
	r := m.room(matchID)
	if r == nil {
		return nil, ErrMatchNotFound
	}

	r.mu.Lock()
	idx := r.indexOf(p.ID)
	if idx < 0 {
		r.mu.Unlock()
		return nil, ErrNotParticipant
	}
	r.players[idx].ConnID = p.ConnID
	channel := domain.MatchChannel(matchID)

	if r.status == domain.MatchFinished {
		payload := r.payload()
		r.mu.Unlock()
		m.gateway.Join(p.ConnID, channel)
		m.gateway.Emit(p.ConnID, domain.EventTournamentMatchState, payload)
		return &payload, nil
	}

	r.joined[p.ID] = true
	m.stopGraceLocked(r, p.ID)
	activated := false
	if r.status == domain.MatchWaiting && r.allHumansJoined() {
		r.status = domain.MatchActive
		r.version++
		activated = true
		if r.botTurn() {
			m.scheduleBotLocked(r, m.cfg.FirstMoveDelay)
		}
	}
	payload := r.payload()
	var rec *domain.MatchRoomRecord
	if activated {
		rec = r.record()
	}
	r.mu.Unlock()

	m.gateway.Join(p.ConnID, channel)
	if activated {
		m.persistRoom(rec)
		m.markMatchActive(r.TournamentID, matchID)
		m.log.Info("match started", "tournament_id", r.TournamentID, "match_id", matchID)
		m.gateway.Broadcast(channel, domain.EventTournamentMatchState, payload)
	} else {
		m.gateway.Emit(p.ConnID, domain.EventTournamentMatchState, payload)
	}
	return &payload, nil
}

// SubmitMove - ход человека в матче
func (m *Manager) SubmitMove(ctx context.Context, userID int64, matchID string, move game.Move) error {
	r := m.room(matchID)
	if r == nil {
		return ErrMatchNotFound
	}

	r.mu.Lock()
	if r.status == domain.MatchFinished {
		r.mu.Unlock()
		return ErrMatchFinished
	}
	if r.indexOf(userID) < 0 {
		r.mu.Unlock()
		return ErrNotParticipant
	}
	if r.status != domain.MatchActive {
		r.mu.Unlock()
		return ErrMatchNotActive
	}
	if r.state.Turn() != userID {
		r.mu.Unlock()
		metrics.MovesRejected.WithLabelValues(string(r.GameType)).Inc()
		return game.ErrNotYourTurn
	}
	res, err := r.engine.ProcessMove(r.state, move, userID, r.players)
	if err != nil {
		r.mu.Unlock()
		metrics.MovesRejected.WithLabelValues(string(r.GameType)).Inc()
		return err
	}
	metrics.MovesTotal.WithLabelValues(string(r.GameType), metrics.ActorKind(false)).Inc()
	fin, replayed := m.applyLocked(r, res.State)
	payload := r.payload()
	var rec *domain.MatchRoomRecord
	if fin == nil {
		rec = r.record()
	}
	r.mu.Unlock()

	m.publish(ctx, payload, rec, fin, replayed)
	return nil
}

// applyLocked принимает новое состояние и проверяет конец партии.
// Ничья при replays < MaxReplays начинает партию заново, на пределе
// победитель выбирается случайно.
func (m *Manager) applyLocked(r *MatchRoom, next game.State) (*matchResult, bool) {
	prev := r.state.Turn()
	r.state = next
	r.version++
	if r.botTurn() && next.Turn() == prev {
		r.botSteps++
	} else {
		r.botSteps = 0
	}

	end := r.engine.CheckEnd(r.state, r.players)
	if !end.IsGameOver {
		if !r.botTurn() {
			return nil, false
		}
		if r.botSteps >= m.botCycleCap() {
			metrics.BotCycleCapHits.Inc()
			m.log.Warn("bot cycle cap reached", "match_id", r.MatchID, "game_type", r.GameType, "steps", r.botSteps)
			if opp := r.opponentOf(r.state.Turn()); opp >= 0 {
				return r.finalizeLocked(r.players[opp].ID, domain.ReasonEngineError), false
			}
			return r.finalizeLocked(r.randomWinner(), domain.ReasonEngineError), false
		}
		m.scheduleBotLocked(r, m.cfg.BotMoveDelay)
		return nil, false
	}
	if end.IsDraw {
		if r.replays < m.cfg.MaxReplays {
			r.replays++
			r.state = r.engine.InitialState(r.players)
			r.version++
			r.botSteps = 0
			metrics.MatchReplays.Inc()
			if r.botTurn() {
				m.scheduleBotLocked(r, m.cfg.FirstMoveDelay)
			}
			return nil, true
		}
		return r.finalizeLocked(r.randomWinner(), domain.ReasonDrawLimit), false
	}
	if end.WinnerID == nil || r.indexOf(*end.WinnerID) < 0 {
		m.log.Error("engine ended game without winner", "match_id", r.MatchID, "game_type", r.GameType)
		return r.finalizeLocked(r.randomWinner(), domain.ReasonEngineError), false
	}
	return r.finalizeLocked(*end.WinnerID, domain.ReasonWin), false
}

func (m *Manager) botCycleCap() int {
	if m.cfg.BotCycleCap > 0 {
		return m.cfg.BotCycleCap
	}
	return defaultBotCycleCap
}

func (r *MatchRoom) randomWinner() int64 {
	return r.players[game.RandIntn(len(r.players))].ID
}

func (r *MatchRoom) opponentOf(userID int64) int {
	for i, p := range r.players {
		if p.ID != userID {
			return i
		}
	}
	return -1
}

func (m *Manager) publish(ctx context.Context, payload MatchStatePayload, rec *domain.MatchRoomRecord, fin *matchResult, replayed bool) {
	if fin != nil {
		m.afterFinalize(ctx, fin)
		return
	}
	m.persistRoom(rec)
	channel := domain.MatchChannel(payload.MatchID)
	if replayed {
		m.log.Info("match replay", "match_id", payload.MatchID, "replay", payload.Replays)
		m.gateway.Broadcast(channel, domain.EventReplay, ReplayPayload{
			TournamentID: payload.TournamentID,
			MatchID:      payload.MatchID,
			Replay:       payload.Replays,
			MaxReplays:   m.cfg.MaxReplays,
			Match:        payload,
		})
		return
	}
	m.gateway.Broadcast(channel, domain.EventTournamentMatchState, payload)
}

func (m *Manager) scheduleBotLocked(r *MatchRoom, delay time.Duration) {
	if r.botTimer != nil {
		r.botTimer.Stop()
	}
	matchID, version := r.MatchID, r.version
	r.botTimer = time.AfterFunc(delay, func() { m.botMove(matchID, version) })
}

// botMove - один ход бота по триггеру. Триггер с устаревшей версией
// игнорируется.
func (m *Manager) botMove(matchID string, version int64) {
	r := m.room(matchID)
	if r == nil {
		return
	}
	r.mu.Lock()
	if r.version != version || r.status != domain.MatchActive {
		r.mu.Unlock()
		return
	}
	r.botTimer = nil
	idx := r.indexOf(r.state.Turn())
	if idx < 0 || !r.players[idx].IsBot {
		r.mu.Unlock()
		return
	}
	bot := r.players[idx]

	move := r.engine.BotMove(r.state, idx)
	if move.IsEmpty() {
		r.mu.Unlock()
		m.log.Warn("bot has no move", "match_id", matchID, "game_type", r.GameType, "bot_id", bot.ID)
		return
	}
	res, err := r.engine.ProcessMove(r.state, move, bot.ID, r.players)
	if err != nil {
		r.mu.Unlock()
		m.log.Warn("bot move rejected", "error", err, "match_id", matchID, "game_type", r.GameType, "move", string(move))
		return
	}
	metrics.MovesTotal.WithLabelValues(string(r.GameType), metrics.ActorKind(true)).Inc()
	fin, replayed := m.applyLocked(r, res.State)
	payload := r.payload()
	var rec *domain.MatchRoomRecord
	if fin == nil {
		rec = r.record()
	}
	r.mu.Unlock()

	m.publish(context.Background(), payload, rec, fin, replayed)
}

// afterFinalize выполняется без блокировки комнаты: рассылка итога,
// уведомления, история и продвижение сетки
func (m *Manager) afterFinalize(ctx context.Context, res *matchResult) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	m.persistRoom(res.record)
	metrics.MatchesFinished.WithLabelValues(res.reason).Inc()

	m.mu.Lock()
	for _, p := range res.players {
		if m.userRooms[p.ID] == res.matchID {
			delete(m.userRooms, p.ID)
		}
	}
	m.mu.Unlock()

	m.gateway.Broadcast(domain.MatchChannel(res.matchID), domain.EventTournamentMatchState, res.final)
	m.log.Info("match finished", "tournament_id", res.tournamentID, "match_id", res.matchID, "winner_id", res.winnerID, "reason", res.reason)

	link := "/tournaments/" + res.tournamentID
	for i, p := range res.players {
		if p.IsBot {
			continue
		}
		opponent := res.players[1-i]
		won := p.ID == res.winnerID
		outcome, result := OutcomeEliminated, domain.ResultLost
		title, msg := "Вы выбыли", fmt.Sprintf("%s: поражение от %s", res.roundLabel, opponent.Name)
		if won {
			outcome, result = OutcomeAdvanced, domain.ResultWon
			title, msg = "Вы прошли дальше", fmt.Sprintf("%s: победа над %s", res.roundLabel, opponent.Name)
		}

		m.gateway.Broadcast(domain.UserChannel(p.ID), domain.EventTournamentMatchResult, MatchResultPayload{
			TournamentID: res.tournamentID,
			MatchID:      res.matchID,
			Round:        res.round,
			WinnerID:     res.winnerID,
			Reason:       res.reason,
			Outcome:      outcome,
		})
		if m.notifier != nil {
			if err := m.notifier.Notify(ctx, p.ID, title, msg, link); err != nil {
				m.log.Error("failed to notify player", "error", err, "match_id", res.matchID, "user_id", p.ID)
			}
		}
		if m.recorder != nil {
			rec := &domain.GameRecord{
				UserID:       p.ID,
				GameType:     string(res.gameType),
				Opponent:     opponent.Name,
				Result:       result,
				TournamentID: res.tournamentID,
			}
			if err := m.recorder.RecordGame(ctx, rec); err != nil {
				m.log.Error("failed to record game", "error", err, "match_id", res.matchID, "user_id", p.ID)
			}
		}
	}

	m.completeMatch(ctx, res.tournamentID, res.matchID, res.winnerID, res.reason)
}

// LeaveNotice - игрок ушел со страницы матча, запускается таймер возврата
func (m *Manager) LeaveNotice(userID int64, matchID string) error {
	r := m.room(matchID)
	if r == nil {
		return ErrMatchNotFound
	}
	r.mu.Lock()
	if err := r.checkPlayer(userID); err != nil {
		r.mu.Unlock()
		return err
	}
	m.leaveLocked(r, userID)
	r.mu.Unlock()

	m.gateway.Broadcast(domain.MatchChannel(matchID), domain.EventOpponentDisconnected, PresencePayload{
		MatchID:      matchID,
		UserID:       userID,
		GraceSeconds: int(m.cfg.JoinGrace / time.Second),
	})
	return nil
}

func (m *Manager) leaveLocked(r *MatchRoom, userID int64) {
	r.joined[userID] = false
	m.startGraceLocked(r, userID)
}

func (r *MatchRoom) checkPlayer(userID int64) error {
	if r.indexOf(userID) < 0 {
		return ErrNotParticipant
	}
	if r.status == domain.MatchFinished {
		return ErrMatchFinished
	}
	return nil
}

// ReturnNotice - игрок вернулся до истечения таймера
func (m *Manager) ReturnNotice(userID int64, connID, matchID string) error {
	r := m.room(matchID)
	if r == nil {
		return ErrMatchNotFound
	}
	r.mu.Lock()
	if err := r.checkPlayer(userID); err != nil {
		r.mu.Unlock()
		return err
	}
	idx := r.indexOf(userID)
	if connID != "" {
		r.players[idx].ConnID = connID
	}
	r.joined[userID] = true
	m.stopGraceLocked(r, userID)
	payload := r.payload()
	r.mu.Unlock()

	channel := domain.MatchChannel(matchID)
	if connID != "" {
		m.gateway.Join(connID, channel)
		m.gateway.Emit(connID, domain.EventTournamentMatchState, payload)
	}
	m.gateway.Broadcast(channel, domain.EventOpponentReconnected, PresencePayload{MatchID: matchID, UserID: userID})
	return nil
}

// ForfeitNotice - добровольная сдача матча
func (m *Manager) ForfeitNotice(ctx context.Context, userID int64, matchID string) error {
	r := m.room(matchID)
	if r == nil {
		return ErrMatchNotFound
	}
	r.mu.Lock()
	if err := r.checkPlayer(userID); err != nil {
		r.mu.Unlock()
		return err
	}
	res := m.forfeitLocked(r, userID)
	r.mu.Unlock()

	m.log.Info("player forfeited", "match_id", matchID, "user_id", userID)
	m.afterFinalize(ctx, res)
	return nil
}

// Disconnect вызывается транспортом при закрытии соединения
func (m *Manager) Disconnect(userID int64, connID string) {
	m.mu.RLock()
	matchID, ok := m.userRooms[userID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	r := m.room(matchID)
	if r == nil {
		return
	}

	r.mu.Lock()
	idx := r.indexOf(userID)
	if idx < 0 || r.status == domain.MatchFinished || r.players[idx].ConnID != connID {
		r.mu.Unlock()
		return
	}
	m.leaveLocked(r, userID)
	r.mu.Unlock()

	m.gateway.Broadcast(domain.MatchChannel(matchID), domain.EventOpponentDisconnected, PresencePayload{
		MatchID:      matchID,
		UserID:       userID,
		GraceSeconds: int(m.cfg.JoinGrace / time.Second),
	})
}

// MatchState - публичное состояние матча; если комнаты нет в памяти,
// берется сохраненная запись
func (m *Manager) MatchState(ctx context.Context, matchID string) (*MatchStatePayload, error) {
	if r := m.room(matchID); r != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		p := r.payload()
		return &p, nil
	}
	if m.repo == nil {
		return nil, ErrMatchNotFound
	}
	rec, err := m.repo.GetMatchRoom(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load match room: %w", err)
	}
	if rec == nil {
		return nil, ErrMatchNotFound
	}
	engine, err := m.registry.Get(game.GameType(rec.GameType))
	if err != nil {
		return nil, err
	}
	state, err := engine.DecodeState(rec.State)
	if err != nil {
		return nil, fmt.Errorf("decode match state: %w", err)
	}
	var players []game.Participant
	if err := json.Unmarshal(rec.Players, &players); err != nil {
		return nil, fmt.Errorf("decode match players: %w", err)
	}
	return &MatchStatePayload{
		TournamentID: rec.TournamentID,
		MatchID:      rec.MatchID,
		Round:        rec.Round,
		GameType:     engine.Type(),
		Status:       rec.Status,
		Players:      players,
		State:        game.PublicView(state),
		Turn:         state.Turn(),
		Replays:      rec.Replays,
		WinnerID:     rec.WinnerID,
	}, nil
}
