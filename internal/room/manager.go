// Package room ведет казуальные сессии 1 на 1: создание, добор бота,
// ходы, ходы ботов по таймеру, отключения и расчет ставок.
package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/config"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/game"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/logger"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/metrics"
)

var (
	ErrSessionNotFound   = errors.New("сессия не найдена")
	ErrSessionFull       = errors.New("в сессии нет свободных мест")
	ErrAlreadyInSession  = errors.New("игрок уже участвует в другой сессии")
	ErrNotParticipant    = errors.New("игрок не участвует в сессии")
	ErrInvalidStake      = errors.New("неверная ставка")
	ErrSessionClosed     = errors.New("сессия уже завершена")
	ErrInsufficientFunds = domain.ErrInsufficientFunds
)

const storeTimeout = 2 * time.Second

// SnapshotStore хранит снимки сессий вне процесса (redis)
type SnapshotStore interface {
	Save(ctx context.Context, snap *domain.SessionSnapshot) error
	Load(ctx context.Context, id string) (*domain.SessionSnapshot, error)
	Delete(ctx context.Context, id string) error
}

type Deps struct {
	Registry *game.Registry
	Gateway  domain.Gateway
	Ledger   domain.Ledger
	Recorder domain.Recorder
	Store    SnapshotStore // может быть nil
}

type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	userSession map[int64]string

	cfg      config.RoomConfig
	registry *game.Registry
	gateway  domain.Gateway
	ledger   domain.Ledger
	recorder domain.Recorder
	store    SnapshotStore
	log      *slog.Logger

	botSeq atomic.Int64
}

func NewManager(cfg config.RoomConfig, deps Deps) *Manager {
	if cfg.BotCycleCap <= 0 {
		cfg.BotCycleCap = 50
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		userSession: make(map[int64]string),
		cfg:         cfg,
		registry:    deps.Registry,
		gateway:     deps.Gateway,
		ledger:      deps.Ledger,
		recorder:    deps.Recorder,
		store:       deps.Store,
		log:         logger.With("component", "room"),
	}
}

func (m *Manager) get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// SessionOf возвращает id текущей сессии пользователя
func (m *Manager) SessionOf(userID int64) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.userSession[userID]
	return id, ok
}

// reserve закрепляет пользователя за сессией в индексе. Повторный вызов
// для той же сессии допустим.
func (m *Manager) reserve(userID int64, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.userSession[userID]; ok && cur != sessionID {
		return ErrAlreadyInSession
	}
	m.userSession[userID] = sessionID
	return nil
}

func (m *Manager) release(userID int64, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.userSession[userID] == sessionID {
		delete(m.userSession, userID)
	}
}

func (m *Manager) checkBalance(ctx context.Context, userID, stake int64) error {
	if stake == 0 {
		return nil
	}
	balance, err := m.ledger.Balance(ctx, userID)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	if balance < stake {
		return ErrInsufficientFunds
	}
	return nil
}

// CreateSession открывает сессию с одним игроком и запускает таймер добора бота
func (m *Manager) CreateSession(ctx context.Context, host game.Participant, gameType game.GameType, stake int64) (*StatePayload, error) {
	engine, err := m.registry.Get(gameType)
	if err != nil {
		return nil, err
	}
	if stake < 0 {
		return nil, ErrInvalidStake
	}
	if err := m.checkBalance(ctx, host.ID, stake); err != nil {
		return nil, err
	}

	s := newSession(uuid.NewString(), engine, stake, host)
	if err := m.reserve(host.ID, s.ID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	id := s.ID
	s.fill.Schedule(m.cfg.BotFillDelay, func(gen uint64) { m.fillWithBot(id, gen) })
	m.saveSnapshot(s)
	payload := s.payload()
	s.mu.Unlock()

	metrics.SessionsActive.Inc()
	m.log.Info("session created", "session_id", id, "game_type", gameType, "stake", stake, "user_id", host.ID)

	m.gateway.Join(host.ConnID, domain.SessionChannel(id))
	m.gateway.Emit(host.ConnID, domain.EventSessionCreated, payload)
	m.broadcastLobby(gameType)
	return &payload, nil
}

// JoinSession сажает второго игрока. Если пользователь уже участник,
// это переподключение: соединение перепривязывается, состояние не меняется.
func (m *Manager) JoinSession(ctx context.Context, p game.Participant, sessionID string) (*StatePayload, error) {
	s := m.get(sessionID)
	if s == nil {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	if s.indexOf(p.ID) >= 0 {
		payload, notify := m.reconnectLocked(s, p)
		s.mu.Unlock()
		notify()
		return payload, nil
	}
	if s.terminal() {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.status != domain.SessionOnePlayer {
		s.mu.Unlock()
		return nil, ErrSessionFull
	}
	stake := s.Stake
	s.mu.Unlock()

	if err := m.checkBalance(ctx, p.ID, stake); err != nil {
		return nil, err
	}
	if err := m.reserve(p.ID, sessionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	// пока проверяли баланс, место мог занять другой игрок или бот
	if s.status != domain.SessionOnePlayer {
		s.mu.Unlock()
		m.release(p.ID, sessionID)
		if s.terminal() {
			return nil, ErrSessionClosed
		}
		return nil, ErrSessionFull
	}
	s.addPlayer(p)
	m.saveSnapshot(s)
	payload := s.payload()
	s.mu.Unlock()

	m.log.Info("session started", "session_id", sessionID, "game_type", s.GameType, "user_id", p.ID)
	m.gateway.Join(p.ConnID, domain.SessionChannel(sessionID))
	m.gateway.Broadcast(domain.SessionChannel(sessionID), domain.EventGameStart, payload)
	m.broadcastLobby(s.GameType)
	return &payload, nil
}

// reconnectLocked перепривязывает соединение участника. Рассылка
// выполняется вызывающим через notify уже после снятия блокировки.
func (m *Manager) reconnectLocked(s *Session, p game.Participant) (*StatePayload, func()) {
	idx := s.indexOf(p.ID)
	prev := s.players[idx].ConnID
	s.players[idx].ConnID = p.ConnID
	payload := s.payload()
	channel := domain.SessionChannel(s.ID)

	rebind := func() {
		if prev != "" && prev != p.ConnID {
			m.gateway.Leave(prev, channel)
		}
		m.gateway.Join(p.ConnID, channel)
	}

	if s.terminal() {
		over := gameOverPayload(s.ID, *s.result, s.reason)
		return &payload, func() {
			rebind()
			m.gateway.Emit(p.ConnID, domain.EventGameOver, over)
		}
	}

	wasAbsent := s.absent[p.ID]
	delete(s.absent, p.ID)
	if wasAbsent && s.graceUser == p.ID {
		s.grace.Stop()
		s.graceUser = 0
	}
	m.saveSnapshot(s)
	m.log.Info("player reconnected", "session_id", s.ID, "user_id", p.ID, "was_absent", wasAbsent)

	return &payload, func() {
		rebind()
		m.gateway.Emit(p.ConnID, domain.EventGameState, payload)
		if wasAbsent {
			m.gateway.Broadcast(channel, domain.EventOpponentReconnected, PresencePayload{SessionID: s.ID, UserID: p.ID})
		}
	}
}

// fillWithBot срабатывает по таймеру добора. Если второй игрок успел
// зайти, gen уже не совпадает и бот не добавляется.
func (m *Manager) fillWithBot(sessionID string, gen uint64) {
	s := m.get(sessionID)
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.fill.Current(gen) || s.status != domain.SessionOnePlayer {
		s.mu.Unlock()
		return
	}
	s.fill.Stop()
	bot := game.NewBot(m.botSeq.Add(1))
	s.addPlayer(bot)
	if s.botTurn() {
		m.scheduleBotCycle(s)
	}
	m.saveSnapshot(s)
	payload := s.payload()
	s.mu.Unlock()

	m.log.Info("session filled with bot", "session_id", sessionID, "bot_id", bot.ID)
	m.gateway.Broadcast(domain.SessionChannel(sessionID), domain.EventGameStart, payload)
	m.broadcastLobby(s.GameType)
}

// SubmitMove проверяет очередь хода и передает ход движку
func (m *Manager) SubmitMove(ctx context.Context, userID int64, sessionID string, move game.Move) error {
	s := m.get(sessionID)
	if s == nil {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	if s.terminal() {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.indexOf(userID) < 0 {
		s.mu.Unlock()
		return ErrNotParticipant
	}
	if len(s.players) < 2 {
		s.mu.Unlock()
		return game.ErrNotEnoughSeat
	}
	if s.state.Turn() != userID {
		s.mu.Unlock()
		metrics.MovesRejected.WithLabelValues(string(s.GameType)).Inc()
		return game.ErrNotYourTurn
	}

	res, err := s.engine.ProcessMove(s.state, move, userID, s.players)
	if err != nil {
		s.mu.Unlock()
		metrics.MovesRejected.WithLabelValues(string(s.GameType)).Inc()
		return err
	}
	metrics.MovesTotal.WithLabelValues(string(s.GameType), metrics.ActorKind(false)).Inc()
	s.state = res.State
	s.updatedAt = time.Now()

	if out := m.checkEndLocked(s); out != nil {
		payload := s.payload()
		s.mu.Unlock()
		m.gateway.Broadcast(domain.SessionChannel(sessionID), domain.EventGameState, payload)
		m.settle(ctx, out)
		return nil
	}
	if s.botTurn() {
		m.scheduleBotCycle(s)
	}
	m.saveSnapshot(s)
	payload := s.payload()
	s.mu.Unlock()

	m.gateway.Broadcast(domain.SessionChannel(sessionID), domain.EventGameState, payload)
	return nil
}

// Roll - отдельная команда броска кубика, по сути ход {"action":"roll"}
func (m *Manager) Roll(ctx context.Context, userID int64, sessionID string) error {
	return m.SubmitMove(ctx, userID, sessionID, game.RollMove)
}

// checkEndLocked завершает сессию если движок сообщил конец игры
func (m *Manager) checkEndLocked(s *Session) *outcome {
	end := s.engine.CheckEnd(s.state, s.players)
	if !end.IsGameOver {
		return nil
	}
	reason := ReasonWin
	if end.IsDraw {
		reason = ReasonDraw
	}
	return s.finish(domain.SessionFinished, end, reason)
}

// LeaveSession - явный выход. Соперник побеждает сразу, без ожидания.
func (m *Manager) LeaveSession(ctx context.Context, userID int64, sessionID string) error {
	s := m.get(sessionID)
	if s == nil {
		return ErrSessionNotFound
	}
	s.mu.Lock()
	idx := s.indexOf(userID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotParticipant
	}
	if s.terminal() {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	connID := s.players[idx].ConnID

	var out *outcome
	if opp := s.opponentOf(idx); opp >= 0 {
		out = s.finish(domain.SessionFinished, winnerResult(s.players[opp].ID), ReasonLeave)
	} else {
		out = s.finish(domain.SessionAbandoned, game.EndResult{IsGameOver: true}, ReasonAbandoned)
	}
	s.mu.Unlock()

	m.log.Info("player left session", "session_id", sessionID, "user_id", userID)
	m.settle(ctx, out)
	m.gateway.Leave(connID, domain.SessionChannel(sessionID))
	return nil
}

// Disconnect вызывается транспортом при закрытии соединения connID
func (m *Manager) Disconnect(userID int64, connID string) {
	sessionID, ok := m.SessionOf(userID)
	if !ok {
		return
	}
	s := m.get(sessionID)
	if s == nil {
		return
	}

	s.mu.Lock()
	idx := s.indexOf(userID)
	// соединение уже перепривязано на новое, старое закрытие игнорируем
	if idx < 0 || s.terminal() || s.players[idx].ConnID != connID {
		s.mu.Unlock()
		return
	}

	opp := s.opponentOf(idx)
	oppPresent := opp >= 0 && (s.players[opp].IsBot || !s.absent[s.players[opp].ID])
	if !oppPresent {
		out := s.finish(domain.SessionAbandoned, game.EndResult{IsGameOver: true}, ReasonAbandoned)
		s.mu.Unlock()
		m.log.Info("session abandoned", "session_id", sessionID, "user_id", userID)
		m.settle(context.Background(), out)
		return
	}

	s.absent[userID] = true
	s.graceUser = userID
	s.grace.Schedule(m.cfg.DisconnectGrace, func(gen uint64) { m.graceExpired(sessionID, userID, gen) })
	s.updatedAt = time.Now()
	m.saveSnapshot(s)
	s.mu.Unlock()

	m.log.Info("player disconnected, grace started", "session_id", sessionID, "user_id", userID, "grace", m.cfg.DisconnectGrace)
	m.gateway.Broadcast(domain.SessionChannel(sessionID), domain.EventOpponentDisconnected, PresencePayload{
		SessionID:    sessionID,
		UserID:       userID,
		GraceSeconds: int(m.cfg.DisconnectGrace / time.Second),
	})
}

func (m *Manager) graceExpired(sessionID string, userID int64, gen uint64) {
	s := m.get(sessionID)
	if s == nil {
		return
	}
	s.mu.Lock()
	if !s.grace.Current(gen) || s.terminal() || !s.absent[userID] {
		s.mu.Unlock()
		return
	}
	opp := s.opponentOf(s.indexOf(userID))
	if opp < 0 {
		s.mu.Unlock()
		return
	}
	out := s.finish(domain.SessionFinished, winnerResult(s.players[opp].ID), ReasonDisconnect)
	s.mu.Unlock()

	m.log.Info("grace expired", "session_id", sessionID, "user_id", userID)
	m.settle(context.Background(), out)
}

// RequestState отправляет текущее состояние в соединение connID
func (m *Manager) RequestState(ctx context.Context, userID int64, connID, sessionID string) error {
	if s := m.get(sessionID); s != nil {
		s.mu.Lock()
		if s.indexOf(userID) < 0 {
			s.mu.Unlock()
			return ErrNotParticipant
		}
		payload := s.payload()
		s.mu.Unlock()
		m.gateway.Emit(connID, domain.EventGameState, payload)
		return nil
	}

	payload, err := m.Snapshot(ctx, sessionID)
	if err != nil {
		return err
	}
	m.gateway.Emit(connID, domain.EventGameState, payload)
	return nil
}

// Snapshot возвращает публичное состояние сессии. Если сессии нет в
// памяти, берется снимок из хранилища.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*StatePayload, error) {
	if s := m.get(sessionID); s != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		p := s.payload()
		return &p, nil
	}
	if m.store == nil {
		return nil, ErrSessionNotFound
	}
	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return nil, ErrSessionNotFound
	}
	return m.fromSnapshot(snap)
}

func (m *Manager) fromSnapshot(snap *domain.SessionSnapshot) (*StatePayload, error) {
	engine, err := m.registry.Get(snap.GameType)
	if err != nil {
		return nil, err
	}
	state, err := engine.DecodeState(snap.State)
	if err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &StatePayload{
		SessionID: snap.ID,
		GameType:  snap.GameType,
		Stake:     snap.Stake,
		Status:    snap.Status,
		Players:   publicPlayers(snap.Players),
		State:     game.PublicView(state),
		Turn:      state.Turn(),
		Result:    snap.Result,
	}, nil
}

// JoinLobby подписывает соединение на список открытых сессий
func (m *Manager) JoinLobby(connID string, gameType game.GameType) error {
	if _, err := m.registry.Get(gameType); err != nil {
		return err
	}
	m.gateway.Join(connID, domain.LobbyChannel(string(gameType)))
	m.gateway.Emit(connID, domain.EventLobbySessions, LobbyPayload{GameType: gameType, Sessions: m.OpenSessions(gameType)})
	return nil
}

func (m *Manager) LeaveLobby(connID string, gameType game.GameType) {
	m.gateway.Leave(connID, domain.LobbyChannel(string(gameType)))
}

// OpenSessions - сессии типа gameType, ожидающие второго игрока
func (m *Manager) OpenSessions(gameType game.GameType) []LobbyEntry {
	m.mu.RLock()
	candidates := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.GameType == gameType {
			candidates = append(candidates, s)
		}
	}
	m.mu.RUnlock()

	entries := make([]LobbyEntry, 0, len(candidates))
	for _, s := range candidates {
		s.mu.Lock()
		if s.status == domain.SessionOnePlayer {
			entries = append(entries, LobbyEntry{
				SessionID: s.ID,
				GameType:  s.GameType,
				Stake:     s.Stake,
				HostID:    s.players[0].ID,
				HostName:  s.players[0].Name,
				CreatedAt: s.createdAt,
			})
		}
		s.mu.Unlock()
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	return entries
}

func (m *Manager) broadcastLobby(gameType game.GameType) {
	m.gateway.Broadcast(domain.LobbyChannel(string(gameType)), domain.EventLobbySessions,
		LobbyPayload{GameType: gameType, Sessions: m.OpenSessions(gameType)})
}

// Sweep удаляет из памяти завершенные сессии старше Retention
func (m *Manager) Sweep(now time.Time) int {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	var expired []string
	for _, s := range all {
		s.mu.Lock()
		if s.terminal() && now.Sub(s.endedAt) >= m.cfg.Retention {
			expired = append(expired, s.ID)
		}
		s.mu.Unlock()
	}
	if len(expired) == 0 {
		return 0
	}

	m.mu.Lock()
	for _, id := range expired {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	m.log.Debug("sessions swept", "count", len(expired))
	return len(expired)
}

// saveSnapshot пишет снимок в хранилище. Вызывается под s.mu, чтобы
// записи одной сессии не обгоняли друг друга.
func (m *Manager) saveSnapshot(s *Session) {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.store.Save(ctx, s.snapshot()); err != nil {
		m.log.Error("failed to save session snapshot", "error", err, "session_id", s.ID)
	}
}

func winnerResult(id int64) game.EndResult {
	return game.EndResult{IsGameOver: true, WinnerID: &id}
}

func gameOverPayload(sessionID string, end game.EndResult, reason string) GameOverPayload {
	return GameOverPayload{SessionID: sessionID, WinnerID: end.WinnerID, IsDraw: end.IsDraw, Reason: reason}
}
