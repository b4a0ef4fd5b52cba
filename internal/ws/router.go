package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/game"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/logger"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/metrics"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/room"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/tournament"
)

var (
	ErrUnknownCommand = errors.New("неизвестная команда")
	ErrBadPayload     = errors.New("неверный формат команды")
	ErrRateLimited    = errors.New("слишком много запросов")
)

// входящие команды
const (
	CmdJoinLobby            = "join-lobby"
	CmdLeaveLobby           = "leave-lobby"
	CmdCreateSession        = "create-session"
	CmdJoinSession          = "join-session"
	CmdSubmitMove           = "submit-move"
	CmdRoll                 = "roll"
	CmdLeaveSession         = "leave-session"
	CmdRequestState         = "request-current-state"
	CmdTournamentRegister   = "tournament-register"
	CmdTournamentUnregister = "tournament-unregister"
	CmdTournamentJoinMatch  = "tournament-join-match"
	CmdTournamentMove       = "tournament-submit-move"
	CmdTournamentLeave      = "tournament-leave-notice"
	CmdTournamentReturn     = "tournament-return-notice"
	CmdTournamentForfeit    = "tournament-forfeit-notice"
)

// Command - входящее сообщение {"type": ..., "payload": {...}}
type Command struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Caller - кто прислал команду
type Caller struct {
	ConnID string
	UserID int64
	Name   string
}

func (c Caller) participant() game.Participant {
	return game.Participant{ID: c.UserID, Name: c.Name, ConnID: c.ConnID}
}

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type handlerFunc func(ctx context.Context, c Caller, payload json.RawMessage) error

// Router разбирает команды и вызывает менеджеры. Ошибка валидации
// возвращается только отправителю событием error.
type Router struct {
	rooms       *room.Manager
	tournaments *tournament.Manager
	gateway     domain.Gateway
	limiter     Limiter
	handlers    map[string]handlerFunc
	log         *slog.Logger
}

func NewRouter(rooms *room.Manager, tournaments *tournament.Manager, gateway domain.Gateway, limiter Limiter) *Router {
	r := &Router{
		rooms:       rooms,
		tournaments: tournaments,
		gateway:     gateway,
		limiter:     limiter,
		log:         logger.With("component", "ws_router"),
	}
	r.handlers = map[string]handlerFunc{
		CmdJoinLobby:            r.joinLobby,
		CmdLeaveLobby:           r.leaveLobby,
		CmdCreateSession:        r.createSession,
		CmdJoinSession:          r.joinSession,
		CmdSubmitMove:           r.submitMove,
		CmdRoll:                 r.roll,
		CmdLeaveSession:         r.leaveSession,
		CmdRequestState:         r.requestState,
		CmdTournamentRegister:   r.tournamentRegister,
		CmdTournamentUnregister: r.tournamentUnregister,
		CmdTournamentJoinMatch:  r.tournamentJoinMatch,
		CmdTournamentMove:       r.tournamentMove,
		CmdTournamentLeave:      r.tournamentLeave,
		CmdTournamentReturn:     r.tournamentReturn,
		CmdTournamentForfeit:    r.tournamentForfeit,
	}
	return r
}

func (r *Router) Dispatch(ctx context.Context, c Caller, raw []byte) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil || cmd.Type == "" {
		metrics.WSCommands.WithLabelValues("invalid", "error").Inc()
		r.fail(c, cmd.Type, ErrBadPayload)
		return
	}
	h, ok := r.handlers[cmd.Type]
	if !ok {
		metrics.WSCommands.WithLabelValues("unknown", "error").Inc()
		r.fail(c, cmd.Type, ErrUnknownCommand)
		return
	}

	if r.limiter != nil {
		allowed, err := r.limiter.Allow(ctx, fmt.Sprintf("ws:%d", c.UserID))
		if err != nil {
			r.log.Warn("rate limiter unavailable", "error", err)
		}
		if !allowed {
			metrics.WSCommands.WithLabelValues(cmd.Type, "limited").Inc()
			r.fail(c, cmd.Type, ErrRateLimited)
			return
		}
	}

	ctx = logger.ContextWith(ctx, "user_id", c.UserID, "conn_id", c.ConnID, "command", cmd.Type)
	if err := h(ctx, c, cmd.Payload); err != nil {
		metrics.WSCommands.WithLabelValues(cmd.Type, "error").Inc()
		logger.WithContext(ctx).Debug("command rejected", "error", err)
		r.fail(c, cmd.Type, err)
		return
	}
	metrics.WSCommands.WithLabelValues(cmd.Type, "ok").Inc()
}

// Disconnect - соединение закрыто
func (r *Router) Disconnect(c Caller) {
	r.rooms.Disconnect(c.UserID, c.ConnID)
	r.tournaments.Disconnect(c.UserID, c.ConnID)
}

func (r *Router) fail(c Caller, command string, err error) {
	r.gateway.Emit(c.ConnID, domain.EventError, domain.ErrorPayload{Command: command, Message: err.Error()})
}

func decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return ErrBadPayload
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}

type lobbyRequest struct {
	GameType game.GameType `json:"game_type"`
}

type createRequest struct {
	GameType game.GameType `json:"game_type"`
	Stake    int64         `json:"stake"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type moveRequest struct {
	SessionID string          `json:"session_id"`
	Move      json.RawMessage `json:"move"`
}

type tournamentRequest struct {
	TournamentID string `json:"tournament_id"`
}

type matchRequest struct {
	MatchID string `json:"match_id"`
}

type matchMoveRequest struct {
	MatchID string          `json:"match_id"`
	Move    json.RawMessage `json:"move"`
}

func (r *Router) joinLobby(_ context.Context, c Caller, payload json.RawMessage) error {
	var req lobbyRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	return r.rooms.JoinLobby(c.ConnID, req.GameType)
}

func (r *Router) leaveLobby(_ context.Context, c Caller, payload json.RawMessage) error {
	var req lobbyRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	r.rooms.LeaveLobby(c.ConnID, req.GameType)
	return nil
}

func (r *Router) createSession(ctx context.Context, c Caller, payload json.RawMessage) error {
	var req createRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	_, err := r.rooms.CreateSession(ctx, c.participant(), req.GameType, req.Stake)
	return err
}

func (r *Router) joinSession(ctx context.Context, c Caller, payload json.RawMessage) error {
	var req sessionRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	_, err := r.rooms.JoinSession(ctx, c.participant(), req.SessionID)
	return err
}

func (r *Router) submitMove(ctx context.Context, c Caller, payload json.RawMessage) error {
	var req moveRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	return r.rooms.SubmitMove(ctx, c.UserID, req.SessionID, game.Move(req.Move))
}

func (r *Router) roll(ctx context.Context, c Caller, payload json.RawMessage) error {
	var req sessionRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	return r.rooms.Roll(ctx, c.UserID, req.SessionID)
}

func (r *Router) leaveSession(ctx context.Context, c Caller, payload json.RawMessage) error {
	var req sessionRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	return r.rooms.LeaveSession(ctx, c.UserID, req.SessionID)
}

func (r *Router) requestState(ctx context.Context, c Caller, payload json.RawMessage) error {
	var req sessionRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	return r.rooms.RequestState(ctx, c.UserID, c.ConnID, req.SessionID)
}

func (r *Router) tournamentRegister(ctx context.Context, c Caller, payload json.RawMessage) error {
	var req tournamentRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	return r.tournaments.Register(ctx, c.participant(), req.TournamentID)
}

func (r *Router) tournamentUnregister(ctx context.Context, c Caller, payload json.RawMessage) error {
	var req tournamentRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	return r.tournaments.Unregister(ctx, c.UserID, req.TournamentID)
}

func (r *Router) tournamentJoinMatch(ctx context.Context, c Caller, payload json.RawMessage) error {
	var req matchRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	_, err := r.tournaments.JoinMatch(ctx, c.participant(), req.MatchID)
	return err
}

func (r *Router) tournamentMove(ctx context.Context, c Caller, payload json.RawMessage) error {
	var req matchMoveRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	return r.tournaments.SubmitMove(ctx, c.UserID, req.MatchID, game.Move(req.Move))
}

func (r *Router) tournamentLeave(_ context.Context, c Caller, payload json.RawMessage) error {
	var req matchRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	return r.tournaments.LeaveNotice(c.UserID, req.MatchID)
}

func (r *Router) tournamentReturn(_ context.Context, c Caller, payload json.RawMessage) error {
	var req matchRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	return r.tournaments.ReturnNotice(c.UserID, c.ConnID, req.MatchID)
}

func (r *Router) tournamentForfeit(ctx context.Context, c Caller, payload json.RawMessage) error {
	var req matchRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	return r.tournaments.ForfeitNotice(ctx, c.UserID, req.MatchID)
}
