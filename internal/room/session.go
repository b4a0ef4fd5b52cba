package room

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/game"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/sched"
)

// причины завершения сессии
const (
	ReasonWin        = "win"
	ReasonDraw       = "draw"
	ReasonLeave      = "leave"
	ReasonDisconnect = "disconnect"
	ReasonAbandoned  = "abandoned"
)

// Session - казуальная партия 1 на 1. Все поля кроме неизменяемых
// (ID, GameType, Stake) читаются и пишутся только под mu.
type Session struct {
	mu sync.Mutex

	ID       string
	GameType game.GameType
	Stake    int64

	engine  game.Engine
	status  domain.SessionStatus
	players []game.Participant
	state   game.State
	result  *game.EndResult
	reason  string
	absent  map[int64]bool

	fill      sched.Task
	grace     sched.Task
	graceUser int64
	bot       sched.Task

	createdAt time.Time
	updatedAt time.Time
	endedAt   time.Time
}

func newSession(id string, engine game.Engine, stake int64, host game.Participant) *Session {
	now := time.Now()
	s := &Session{
		ID:        id,
		GameType:  engine.Type(),
		Stake:     stake,
		engine:    engine,
		status:    domain.SessionOnePlayer,
		players:   []game.Participant{host},
		absent:    make(map[int64]bool),
		createdAt: now,
		updatedAt: now,
	}
	s.state = engine.InitialState(s.players)
	return s
}

func (s *Session) terminal() bool {
	return s.status == domain.SessionFinished || s.status == domain.SessionAbandoned
}

func (s *Session) indexOf(userID int64) int {
	for i, p := range s.players {
		if p.ID == userID {
			return i
		}
	}
	return -1
}

// opponentOf возвращает индекс соперника или -1
func (s *Session) opponentOf(idx int) int {
	if len(s.players) < 2 || idx < 0 {
		return -1
	}
	return 1 - idx
}

// addPlayer добавляет второго участника и заново строит стартовое состояние
// по полному списку игроков
func (s *Session) addPlayer(p game.Participant) {
	s.fill.Stop()
	s.players = append(s.players, p)
	s.state = s.engine.InitialState(s.players)
	s.status = domain.SessionActive
	s.updatedAt = time.Now()
}

// turnIndex - индекс владельца хода, -1 если ход ни за кем
func (s *Session) turnIndex() int {
	return s.indexOf(s.state.Turn())
}

func (s *Session) botTurn() bool {
	idx := s.turnIndex()
	return idx >= 0 && s.players[idx].IsBot
}

func (s *Session) stopTimers() {
	s.fill.Stop()
	s.grace.Stop()
	s.bot.Stop()
}

// finish переводит сессию в терминальное состояние и возвращает
// данные для расчета, который выполняется уже без блокировки
func (s *Session) finish(status domain.SessionStatus, end game.EndResult, reason string) *outcome {
	s.stopTimers()
	s.status = status
	s.result = &end
	s.reason = reason
	s.endedAt = time.Now()
	s.updatedAt = s.endedAt
	return &outcome{
		sessionID: s.ID,
		gameType:  s.GameType,
		stake:     s.Stake,
		status:    status,
		players:   append([]game.Participant(nil), s.players...),
		end:       end,
		reason:    reason,
	}
}

// snapshot - полная копия, включая скрытое состояние, для redis
func (s *Session) snapshot() *domain.SessionSnapshot {
	raw, _ := json.Marshal(s.state)
	snap := &domain.SessionSnapshot{
		ID:        s.ID,
		GameType:  s.GameType,
		Stake:     s.Stake,
		Status:    s.status,
		Players:   append([]game.Participant(nil), s.players...),
		State:     raw,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	if s.result != nil {
		res := *s.result
		snap.Result = &res
	}
	return snap
}

// StatePayload - то, что видят клиенты: состояние без скрытых данных
type StatePayload struct {
	SessionID string               `json:"session_id"`
	GameType  game.GameType        `json:"game_type"`
	Stake     int64                `json:"stake"`
	Status    domain.SessionStatus `json:"status"`
	Players   []game.Participant   `json:"players"`
	State     any                  `json:"state"`
	Turn      int64                `json:"turn"`
	Result    *game.EndResult      `json:"result,omitempty"`
}

func (s *Session) payload() StatePayload {
	p := StatePayload{
		SessionID: s.ID,
		GameType:  s.GameType,
		Stake:     s.Stake,
		Status:    s.status,
		Players:   publicPlayers(s.players),
		State:     game.PublicView(s.state),
		Turn:      s.state.Turn(),
	}
	if s.result != nil {
		res := *s.result
		p.Result = &res
	}
	return p
}

// connID у игроков не уходит клиентам
func publicPlayers(players []game.Participant) []game.Participant {
	out := make([]game.Participant, len(players))
	for i, p := range players {
		p.ConnID = ""
		out[i] = p
	}
	return out
}

// LobbyEntry - открытая сессия в списке лобби
type LobbyEntry struct {
	SessionID string        `json:"session_id"`
	GameType  game.GameType `json:"game_type"`
	Stake     int64         `json:"stake"`
	HostID    int64         `json:"host_id"`
	HostName  string        `json:"host_name"`
	CreatedAt time.Time     `json:"created_at"`
}

type GameOverPayload struct {
	SessionID string `json:"session_id"`
	WinnerID  *int64 `json:"winner_id"`
	IsDraw    bool   `json:"is_draw"`
	Reason    string `json:"reason"`
}

type PresencePayload struct {
	SessionID    string `json:"session_id"`
	UserID       int64  `json:"user_id"`
	GraceSeconds int    `json:"grace_seconds,omitempty"`
}

type LobbyPayload struct {
	GameType game.GameType `json:"game_type"`
	Sessions []LobbyEntry  `json:"sessions"`
}
