package ws

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/config"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/game"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/room"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/testutil"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/tournament"
)

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, error) { return false, nil }

func newRouter(t *testing.T, limiter Limiter) (*Router, *room.Manager, *testutil.Gateway) {
	t.Helper()
	gw := testutil.NewGateway()
	ledger := testutil.NewLedger(map[int64]int64{1: 100, 2: 100})
	registry := game.NewRegistry()
	rooms := room.NewManager(config.RoomConfig{
		BotFillDelay:    time.Hour,
		DisconnectGrace: time.Hour,
		BotStepDelay:    time.Hour,
		BotCycleDelay:   time.Hour,
		BotCycleCap:     50,
		Retention:       time.Minute,
	}, room.Deps{Registry: registry, Gateway: gw, Ledger: ledger, Recorder: &testutil.Recorder{}})
	tournaments := tournament.NewManager(config.TournamentConfig{
		FillDelay:  time.Hour,
		JoinGrace:  time.Hour,
		MaxReplays: 3,
	}, tournament.Deps{Registry: registry, Gateway: gw, Ledger: ledger, Recorder: &testutil.Recorder{}, Notifier: &testutil.Notifier{}})
	return NewRouter(rooms, tournaments, gw, limiter), rooms, gw
}

func caller(id int64) Caller {
	return Caller{ConnID: fmt.Sprintf("c%d", id), UserID: id, Name: fmt.Sprintf("user%d", id)}
}

func lastError(t *testing.T, gw *testutil.Gateway, c Caller) domain.ErrorPayload {
	t.Helper()
	ev, ok := gw.Last(c.ConnID, domain.EventError)
	require.True(t, ok, "no error event for %s", c.ConnID)
	return ev.Payload.(domain.ErrorPayload)
}

func TestRouter_SessionFlow(t *testing.T) {
	r, rooms, gw := newRouter(t, nil)
	ctx := context.Background()
	alice, bob := caller(1), caller(2)

	r.Dispatch(ctx, alice, []byte(`{"type":"create-session","payload":{"game_type":"tictactoe","stake":10}}`))
	ev, ok := gw.Last(alice.ConnID, domain.EventSessionCreated)
	require.True(t, ok)
	sessionID := ev.Payload.(room.StatePayload).SessionID
	got, ok := rooms.SessionOf(1)
	require.True(t, ok)
	assert.Equal(t, sessionID, got)

	r.Dispatch(ctx, bob, []byte(fmt.Sprintf(`{"type":"join-session","payload":{"session_id":%q}}`, sessionID)))
	_, ok = gw.Last(domain.SessionChannel(sessionID), domain.EventGameStart)
	require.True(t, ok)

	r.Dispatch(ctx, alice, []byte(fmt.Sprintf(`{"type":"submit-move","payload":{"session_id":%q,"move":{"cell":4}}}`, sessionID)))
	assert.Equal(t, 0, gw.Count(domain.EventError))

	r.Dispatch(ctx, alice, []byte(fmt.Sprintf(`{"type":"submit-move","payload":{"session_id":%q,"move":{"cell":0}}}`, sessionID)))
	errPayload := lastError(t, gw, alice)
	assert.Equal(t, CmdSubmitMove, errPayload.Command)
	assert.Equal(t, game.ErrNotYourTurn.Error(), errPayload.Message)

	// закрытие соединения доходит до менеджера сессий
	r.Disconnect(bob)
	assert.Equal(t, 1, gw.Count(domain.EventOpponentDisconnected))
}

func TestRouter_RejectsMalformedCommands(t *testing.T) {
	r, _, gw := newRouter(t, nil)
	ctx := context.Background()
	alice := caller(1)

	r.Dispatch(ctx, alice, []byte(`not json`))
	assert.Equal(t, ErrBadPayload.Error(), lastError(t, gw, alice).Message)

	r.Dispatch(ctx, alice, []byte(`{"type":"fly"}`))
	e := lastError(t, gw, alice)
	assert.Equal(t, "fly", e.Command)
	assert.Equal(t, ErrUnknownCommand.Error(), e.Message)

	r.Dispatch(ctx, alice, []byte(`{"type":"join-session"}`))
	assert.Equal(t, ErrBadPayload.Error(), lastError(t, gw, alice).Message)

	r.Dispatch(ctx, alice, []byte(`{"type":"join-session","payload":{"session_id":"missing"}}`))
	assert.Equal(t, room.ErrSessionNotFound.Error(), lastError(t, gw, alice).Message)

	r.Dispatch(ctx, alice, []byte(`{"type":"tournament-register","payload":{"tournament_id":"missing"}}`))
	e = lastError(t, gw, alice)
	assert.Equal(t, CmdTournamentRegister, e.Command)
	assert.Equal(t, tournament.ErrTournamentNotFound.Error(), e.Message)

	r.Dispatch(ctx, alice, []byte(`{"type":"join-lobby","payload":{"game_type":"backgammon"}}`))
	assert.Contains(t, lastError(t, gw, alice).Message, game.ErrUnknownGame.Error())
}

func TestRouter_RateLimited(t *testing.T) {
	r, rooms, gw := newRouter(t, denyAll{})
	alice := caller(1)
	r.Dispatch(context.Background(), alice, []byte(`{"type":"create-session","payload":{"game_type":"tictactoe"}}`))

	e := lastError(t, gw, alice)
	assert.Equal(t, ErrRateLimited.Error(), e.Message)
	_, ok := rooms.SessionOf(1)
	assert.False(t, ok)
}

func TestRouter_LobbySubscription(t *testing.T) {
	r, _, gw := newRouter(t, nil)
	alice := caller(1)
	r.Dispatch(context.Background(), alice, []byte(`{"type":"join-lobby","payload":{"game_type":"chess"}}`))
	assert.True(t, gw.InRoom(alice.ConnID, domain.LobbyChannel("chess")))
	_, ok := gw.Last(alice.ConnID, domain.EventLobbySessions)
	assert.True(t, ok)

	r.Dispatch(context.Background(), alice, []byte(`{"type":"leave-lobby","payload":{"game_type":"chess"}}`))
	assert.False(t, gw.InRoom(alice.ConnID, domain.LobbyChannel("chess")))
}
