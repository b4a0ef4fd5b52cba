package room

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/config"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/game"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/testutil"
)

type env struct {
	m      *Manager
	gw     *testutil.Gateway
	ledger *testutil.Ledger
	rec    *testutil.Recorder
	store  *memStore
}

func testConfig() config.RoomConfig {
	return config.RoomConfig{
		BotFillDelay:    time.Hour,
		DisconnectGrace: time.Hour,
		BotStepDelay:    5 * time.Millisecond,
		BotCycleDelay:   5 * time.Millisecond,
		BotCycleCap:     50,
		Retention:       time.Minute,
	}
}

func newEnv(t *testing.T, cfg config.RoomConfig, balances map[int64]int64) *env {
	t.Helper()
	e := &env{
		gw:     testutil.NewGateway(),
		ledger: testutil.NewLedger(balances),
		rec:    &testutil.Recorder{},
		store:  newMemStore(),
	}
	registry := game.NewRegistry()
	registry.Register(loopEngine{})
	e.m = NewManager(cfg, Deps{
		Registry: registry,
		Gateway:  e.gw,
		Ledger:   e.ledger,
		Recorder: e.rec,
		Store:    e.store,
	})
	return e
}

func human(id int64, conn string) game.Participant {
	return game.Participant{ID: id, ConnID: conn, Name: conn}
}

func cell(n int) game.Move {
	data, _ := json.Marshal(map[string]int{"cell": n})
	return game.Move(data)
}

func (e *env) session(t *testing.T, id string) *Session {
	t.Helper()
	s := e.m.get(id)
	require.NotNil(t, s)
	return s
}

func (e *env) status(t *testing.T, id string) domain.SessionStatus {
	s := e.session(t, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// startPair создает активную сессию крестиков-ноликов между 1 и 2
func (e *env) startPair(t *testing.T, stake int64) string {
	t.Helper()
	ctx := context.Background()
	created, err := e.m.CreateSession(ctx, human(1, "c1"), game.TypeTicTacToe, stake)
	require.NoError(t, err)
	_, err = e.m.JoinSession(ctx, human(2, "c2"), created.SessionID)
	require.NoError(t, err)
	return created.SessionID
}

func TestCreateSession_WaitsForOpponent(t *testing.T) {
	e := newEnv(t, testConfig(), nil)
	p, err := e.m.CreateSession(context.Background(), human(1, "c1"), game.TypeTicTacToe, 0)
	require.NoError(t, err)

	assert.Equal(t, domain.SessionOnePlayer, p.Status)
	assert.True(t, e.gw.InRoom("c1", domain.SessionChannel(p.SessionID)))
	_, ok := e.gw.Last("c1", domain.EventSessionCreated)
	assert.True(t, ok)

	id, ok := e.m.SessionOf(1)
	assert.True(t, ok)
	assert.Equal(t, p.SessionID, id)

	err = e.m.SubmitMove(context.Background(), 1, p.SessionID, cell(0))
	assert.ErrorIs(t, err, game.ErrNotEnoughSeat)
}

func TestCreateSession_Validation(t *testing.T) {
	e := newEnv(t, testConfig(), map[int64]int64{1: 10})
	ctx := context.Background()

	_, err := e.m.CreateSession(ctx, human(1, "c1"), "backgammon", 0)
	assert.ErrorIs(t, err, game.ErrUnknownGame)

	_, err = e.m.CreateSession(ctx, human(1, "c1"), game.TypeTicTacToe, -5)
	assert.ErrorIs(t, err, ErrInvalidStake)

	_, err = e.m.CreateSession(ctx, human(1, "c1"), game.TypeTicTacToe, 50)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = e.m.CreateSession(ctx, human(1, "c1"), game.TypeTicTacToe, 10)
	require.NoError(t, err)
	_, err = e.m.CreateSession(ctx, human(1, "c1"), game.TypeConnect4, 0)
	assert.ErrorIs(t, err, ErrAlreadyInSession)
}

func TestJoinSession_InsufficientBalance(t *testing.T) {
	e := newEnv(t, testConfig(), map[int64]int64{1: 100, 2: 5})
	p, err := e.m.CreateSession(context.Background(), human(1, "c1"), game.TypeTicTacToe, 10)
	require.NoError(t, err)

	_, err = e.m.JoinSession(context.Background(), human(2, "c2"), p.SessionID)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, domain.SessionOnePlayer, e.status(t, p.SessionID))
	_, ok := e.m.SessionOf(2)
	assert.False(t, ok)

	_, err = e.m.JoinSession(context.Background(), human(3, "c3"), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestJoinSession_StartsGame(t *testing.T) {
	e := newEnv(t, testConfig(), nil)
	id := e.startPair(t, 0)

	assert.Equal(t, domain.SessionActive, e.status(t, id))
	ev, ok := e.gw.Last(domain.SessionChannel(id), domain.EventGameStart)
	require.True(t, ok)
	start := ev.Payload.(StatePayload)
	assert.Len(t, start.Players, 2)
	assert.Equal(t, int64(1), start.Turn)
	for _, p := range start.Players {
		assert.Empty(t, p.ConnID)
	}

	_, err := e.m.JoinSession(context.Background(), human(3, "c3"), id)
	assert.ErrorIs(t, err, ErrSessionFull)
}

func TestSubmitMove_ConcurrentExactlyOneAccepted(t *testing.T) {
	e := newEnv(t, testConfig(), nil)
	id := e.startPair(t, 0)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 10; i++ {
		actor := int64(1 + i%2)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.m.SubmitMove(context.Background(), actor, id, cell(0)); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	s := e.session(t, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Equal(t, 1, s.state.(*game.GridState).Moves)
	assert.Equal(t, int64(2), s.state.Turn())
}

func TestSubmitMove_RejectsWrongTurn(t *testing.T) {
	e := newEnv(t, testConfig(), nil)
	id := e.startPair(t, 0)
	ctx := context.Background()

	assert.ErrorIs(t, e.m.SubmitMove(ctx, 2, id, cell(0)), game.ErrNotYourTurn)
	assert.ErrorIs(t, e.m.SubmitMove(ctx, 9, id, cell(0)), ErrNotParticipant)
	assert.ErrorIs(t, e.m.SubmitMove(ctx, 1, id, cell(42)), game.ErrInvalidMove)

	require.NoError(t, e.m.SubmitMove(ctx, 1, id, cell(0)))
	ev, ok := e.gw.Last(domain.SessionChannel(id), domain.EventGameState)
	require.True(t, ok)
	assert.Equal(t, int64(2), ev.Payload.(StatePayload).Turn)
}

func TestSubmitMove_WinSettlesWager(t *testing.T) {
	e := newEnv(t, testConfig(), map[int64]int64{1: 100, 2: 100})
	id := e.startPair(t, 10)
	ctx := context.Background()

	for _, mv := range []struct {
		actor int64
		cell  int
	}{{1, 0}, {2, 3}, {1, 1}, {2, 4}, {1, 2}} {
		require.NoError(t, e.m.SubmitMove(ctx, mv.actor, id, cell(mv.cell)))
	}

	assert.Equal(t, domain.SessionFinished, e.status(t, id))
	assert.ErrorIs(t, e.m.SubmitMove(ctx, 2, id, cell(5)), ErrSessionClosed)

	ev, ok := e.gw.Last(domain.SessionChannel(id), domain.EventGameOver)
	require.True(t, ok)
	over := ev.Payload.(GameOverPayload)
	require.NotNil(t, over.WinnerID)
	assert.Equal(t, int64(1), *over.WinnerID)
	assert.Equal(t, ReasonWin, over.Reason)

	assert.Len(t, e.ledger.Kinds(1, domain.TxWagerWin), 1)
	assert.Len(t, e.ledger.Kinds(2, domain.TxWagerLoss), 1)
	b1, _ := e.ledger.Balance(ctx, 1)
	b2, _ := e.ledger.Balance(ctx, 2)
	assert.Equal(t, int64(110), b1)
	assert.Equal(t, int64(90), b2)

	records := e.rec.All()
	require.Len(t, records, 2)
	for _, r := range records {
		if r.UserID == 1 {
			assert.Equal(t, domain.ResultWon, r.Result)
			assert.Equal(t, "c2", r.Opponent)
		} else {
			assert.Equal(t, domain.ResultLost, r.Result)
		}
	}

	_, ok = e.m.SessionOf(1)
	assert.False(t, ok)
	assert.False(t, e.store.has(id))
}

func TestBotFill_AddsBotWhenAlone(t *testing.T) {
	cfg := testConfig()
	cfg.BotFillDelay = 10 * time.Millisecond
	e := newEnv(t, cfg, nil)
	p, err := e.m.CreateSession(context.Background(), human(1, "c1"), game.TypeTicTacToe, 0)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return e.status(t, p.SessionID) == domain.SessionActive
	}, time.Second, 5*time.Millisecond)

	s := e.session(t, p.SessionID)
	s.mu.Lock()
	require.Len(t, s.players, 2)
	assert.True(t, s.players[1].IsBot)
	assert.Less(t, s.players[1].ID, int64(0))
	s.mu.Unlock()
	assert.Empty(t, e.m.OpenSessions(game.TypeTicTacToe))
}

func TestBotFill_RaceWithJoinAddsExactlyOne(t *testing.T) {
	for i := 0; i < 20; i++ {
		cfg := testConfig()
		cfg.BotFillDelay = 2 * time.Millisecond
		e := newEnv(t, cfg, nil)
		p, err := e.m.CreateSession(context.Background(), human(1, "c1"), game.TypeTicTacToe, 0)
		require.NoError(t, err)

		time.Sleep(2 * time.Millisecond)
		_, joinErr := e.m.JoinSession(context.Background(), human(2, "c2"), p.SessionID)

		time.Sleep(10 * time.Millisecond)
		s := e.session(t, p.SessionID)
		s.mu.Lock()
		require.Len(t, s.players, 2)
		assert.Equal(t, domain.SessionActive, s.status)
		if joinErr == nil {
			assert.Equal(t, int64(2), s.players[1].ID)
		} else {
			assert.ErrorIs(t, joinErr, ErrSessionFull)
			assert.True(t, s.players[1].IsBot)
		}
		s.mu.Unlock()
	}
}

func TestBotCycle_PlaysUntilHumanTurn(t *testing.T) {
	cfg := testConfig()
	cfg.BotFillDelay = time.Millisecond
	e := newEnv(t, cfg, nil)
	p, err := e.m.CreateSession(context.Background(), human(1, "c1"), game.TypeTicTacToe, 0)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return e.status(t, p.SessionID) == domain.SessionActive
	}, time.Second, time.Millisecond)

	require.NoError(t, e.m.SubmitMove(context.Background(), 1, p.SessionID, cell(4)))

	assert.Eventually(t, func() bool {
		s := e.session(t, p.SessionID)
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.state.Turn() == 1 && s.state.(*game.GridState).Moves == 2
	}, time.Second, 5*time.Millisecond)
}

func TestBotCycle_StopsAtCap(t *testing.T) {
	cfg := testConfig()
	cfg.BotFillDelay = time.Millisecond
	cfg.BotStepDelay = time.Millisecond
	cfg.BotCycleCap = 5
	e := newEnv(t, cfg, nil)
	p, err := e.m.CreateSession(context.Background(), human(1, "c1"), loopType, 0)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return e.status(t, p.SessionID) == domain.SessionActive
	}, time.Second, time.Millisecond)

	time.Sleep(10 * time.Millisecond)
	before := e.gw.Count(domain.EventGameState)
	require.NoError(t, e.m.SubmitMove(context.Background(), 1, p.SessionID, game.Move(`{"step":1}`)))

	steps := func() int {
		s := e.session(t, p.SessionID)
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.state.(*loopState).Steps
	}
	require.Eventually(t, func() bool { return steps() == 1+cfg.BotCycleCap }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1+cfg.BotCycleCap, steps())
	assert.Equal(t, domain.SessionActive, e.status(t, p.SessionID))
	// ход человека и итог цикла бота
	assert.Equal(t, before+2, e.gw.Count(domain.EventGameState))
}

func TestDisconnect_ReconnectInsideGrace(t *testing.T) {
	cfg := testConfig()
	cfg.DisconnectGrace = 80 * time.Millisecond
	e := newEnv(t, cfg, nil)
	id := e.startPair(t, 0)
	ctx := context.Background()
	require.NoError(t, e.m.SubmitMove(ctx, 1, id, cell(0)))

	// закрытие чужого соединения ничего не меняет
	e.m.Disconnect(1, "stale")
	assert.Equal(t, 0, e.gw.Count(domain.EventOpponentDisconnected))

	e.m.Disconnect(1, "c1")
	ev, ok := e.gw.Last(domain.SessionChannel(id), domain.EventOpponentDisconnected)
	require.True(t, ok)
	assert.Equal(t, int64(1), ev.Payload.(PresencePayload).UserID)

	p, err := e.m.JoinSession(ctx, human(1, "c1b"), id)
	require.NoError(t, err)
	board := p.State.(*game.GridState)
	assert.Equal(t, int8(1), board.Board[0])
	assert.Equal(t, 1, board.Moves)
	assert.Equal(t, 1, e.gw.Count(domain.EventOpponentReconnected))
	assert.True(t, e.gw.InRoom("c1b", domain.SessionChannel(id)))

	time.Sleep(2 * cfg.DisconnectGrace)
	assert.Equal(t, domain.SessionActive, e.status(t, id))
	require.NoError(t, e.m.SubmitMove(ctx, 2, id, cell(4)))
}

func TestDisconnect_GraceExpiredOpponentWins(t *testing.T) {
	cfg := testConfig()
	cfg.DisconnectGrace = 20 * time.Millisecond
	e := newEnv(t, cfg, map[int64]int64{1: 50, 2: 50})
	id := e.startPair(t, 20)
	ctx := context.Background()

	e.m.Disconnect(1, "c1")
	require.Eventually(t, func() bool {
		return e.status(t, id) == domain.SessionFinished
	}, time.Second, 5*time.Millisecond)

	p, err := e.m.JoinSession(ctx, human(1, "c1b"), id)
	require.NoError(t, err)
	require.NotNil(t, p.Result)
	require.NotNil(t, p.Result.WinnerID)
	assert.Equal(t, int64(2), *p.Result.WinnerID)

	ev, ok := e.gw.Last("c1b", domain.EventGameOver)
	require.True(t, ok)
	assert.Equal(t, ReasonDisconnect, ev.Payload.(GameOverPayload).Reason)

	// расчет идет в горутине таймера
	assert.Eventually(t, func() bool {
		b1, _ := e.ledger.Balance(ctx, 1)
		b2, _ := e.ledger.Balance(ctx, 2)
		return b1 == 30 && b2 == 70
	}, time.Second, 5*time.Millisecond)
}

func TestDisconnect_BothAbsentAbandons(t *testing.T) {
	e := newEnv(t, testConfig(), map[int64]int64{1: 50, 2: 50})
	id := e.startPair(t, 20)

	e.m.Disconnect(1, "c1")
	e.m.Disconnect(2, "c2")

	assert.Equal(t, domain.SessionAbandoned, e.status(t, id))
	assert.Empty(t, e.ledger.Txs)
	assert.Empty(t, e.rec.All())
	_, ok := e.m.SessionOf(2)
	assert.False(t, ok)
}

func TestDisconnect_AloneAbandons(t *testing.T) {
	e := newEnv(t, testConfig(), nil)
	p, err := e.m.CreateSession(context.Background(), human(1, "c1"), game.TypeTicTacToe, 0)
	require.NoError(t, err)

	e.m.Disconnect(1, "c1")
	assert.Equal(t, domain.SessionAbandoned, e.status(t, p.SessionID))
	assert.Empty(t, e.m.OpenSessions(game.TypeTicTacToe))
}

func TestLeaveSession_OpponentWinsImmediately(t *testing.T) {
	e := newEnv(t, testConfig(), map[int64]int64{1: 50, 2: 50})
	id := e.startPair(t, 20)
	ctx := context.Background()

	require.NoError(t, e.m.LeaveSession(ctx, 2, id))
	assert.Equal(t, domain.SessionFinished, e.status(t, id))
	assert.ErrorIs(t, e.m.LeaveSession(ctx, 2, id), ErrSessionClosed)
	assert.ErrorIs(t, e.m.LeaveSession(ctx, 7, id), ErrNotParticipant)

	ev, ok := e.gw.Last(domain.SessionChannel(id), domain.EventGameOver)
	require.True(t, ok)
	assert.Equal(t, ReasonLeave, ev.Payload.(GameOverPayload).Reason)
	assert.Len(t, e.ledger.Kinds(1, domain.TxWagerWin), 1)
	assert.Len(t, e.ledger.Kinds(2, domain.TxWagerLoss), 1)
	assert.False(t, e.gw.InRoom("c2", domain.SessionChannel(id)))
}

func TestSettlement_KeepsTotalBalance(t *testing.T) {
	e := newEnv(t, testConfig(), map[int64]int64{1: 100, 2: 100})
	id := e.startPair(t, 100)
	ctx := context.Background()

	// ставка потрачена на турнир посреди партии
	require.NoError(t, e.ledger.Debit(ctx, 2, 100, domain.TxTournamentFee, nil))
	require.NoError(t, e.m.LeaveSession(ctx, 2, id))
	assert.Equal(t, domain.SessionFinished, e.status(t, id))

	b1, _ := e.ledger.Balance(ctx, 1)
	b2, _ := e.ledger.Balance(ctx, 2)
	assert.Equal(t, int64(100), b1)
	assert.Equal(t, int64(0), b2)
	assert.Empty(t, e.ledger.Kinds(1, domain.TxWagerWin))
	assert.Empty(t, e.ledger.Kinds(2, domain.TxWagerLoss))
}

func TestSettlement_WinMovesStakeOnly(t *testing.T) {
	e := newEnv(t, testConfig(), map[int64]int64{1: 100, 2: 100})
	id := e.startPair(t, 100)
	ctx := context.Background()

	require.NoError(t, e.m.LeaveSession(ctx, 1, id))

	b1, _ := e.ledger.Balance(ctx, 1)
	b2, _ := e.ledger.Balance(ctx, 2)
	assert.Equal(t, int64(200), b1+b2)
	assert.Equal(t, int64(0), b1)
	assert.Equal(t, int64(200), b2)
}

func TestLobby_ListsOpenSessions(t *testing.T) {
	e := newEnv(t, testConfig(), nil)
	ctx := context.Background()
	require.NoError(t, e.m.JoinLobby("watcher", game.TypeTicTacToe))

	p, err := e.m.CreateSession(ctx, human(1, "c1"), game.TypeTicTacToe, 0)
	require.NoError(t, err)
	ev, ok := e.gw.Last(domain.LobbyChannel(string(game.TypeTicTacToe)), domain.EventLobbySessions)
	require.True(t, ok)
	listed := ev.Payload.(LobbyPayload).Sessions
	require.Len(t, listed, 1)
	assert.Equal(t, p.SessionID, listed[0].SessionID)
	assert.Equal(t, int64(1), listed[0].HostID)

	_, err = e.m.JoinSession(ctx, human(2, "c2"), p.SessionID)
	require.NoError(t, err)
	ev, _ = e.gw.Last(domain.LobbyChannel(string(game.TypeTicTacToe)), domain.EventLobbySessions)
	assert.Empty(t, ev.Payload.(LobbyPayload).Sessions)

	assert.ErrorIs(t, e.m.JoinLobby("watcher", "backgammon"), game.ErrUnknownGame)
}

func TestSnapshot_FallsBackToStore(t *testing.T) {
	e := newEnv(t, testConfig(), nil)
	id := e.startPair(t, 0)
	require.NoError(t, e.m.SubmitMove(context.Background(), 1, id, cell(8)))

	// процесс "перезапущен": в памяти сессии нет
	e.m.mu.Lock()
	delete(e.m.sessions, id)
	e.m.mu.Unlock()

	p, err := e.m.Snapshot(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, p.Status)
	assert.Equal(t, int64(2), p.Turn)
	assert.Equal(t, int8(1), p.State.(*game.GridState).Board[8])

	require.NoError(t, e.m.RequestState(context.Background(), 1, "c9", id))
	_, ok := e.gw.Last("c9", domain.EventGameState)
	assert.True(t, ok)

	_, err = e.m.Snapshot(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSweep_PrunesAfterRetention(t *testing.T) {
	e := newEnv(t, testConfig(), nil)
	id := e.startPair(t, 0)
	open := e.startPairWith(t, 3, 4)
	require.NoError(t, e.m.LeaveSession(context.Background(), 1, id))

	assert.Equal(t, 0, e.m.Sweep(time.Now()))
	assert.Equal(t, 1, e.m.Sweep(time.Now().Add(2*time.Minute)))
	assert.Nil(t, e.m.get(id))
	assert.NotNil(t, e.m.get(open))
}

func (e *env) startPairWith(t *testing.T, a, b int64) string {
	t.Helper()
	ctx := context.Background()
	created, err := e.m.CreateSession(ctx, human(a, "x"), game.TypeConnect4, 0)
	require.NoError(t, err)
	_, err = e.m.JoinSession(ctx, human(b, "y"), created.SessionID)
	require.NoError(t, err)
	return created.SessionID
}

// loopEngine никогда не передает ход от бота, чтобы проверить ограничитель цикла
const loopType game.GameType = "loop"

type loopState struct {
	Players [2]int64 `json:"players"`
	TurnID  int64    `json:"turn"`
	Steps   int      `json:"steps"`
}

func (s *loopState) Turn() int64 { return s.TurnID }

type loopEngine struct{}

func (loopEngine) Type() game.GameType { return loopType }

func (loopEngine) InitialState(players []game.Participant) game.State {
	st := &loopState{TurnID: players[0].ID}
	for i := 0; i < len(players) && i < 2; i++ {
		st.Players[i] = players[i].ID
	}
	return st
}

func (loopEngine) ProcessMove(s game.State, _ game.Move, actorID int64, _ []game.Participant) (game.MoveResult, error) {
	st := s.(*loopState)
	if st.TurnID != actorID {
		return game.MoveResult{State: s}, game.ErrNotYourTurn
	}
	next := *st
	next.Steps++
	if actorID == st.Players[0] {
		next.TurnID = st.Players[1]
		return game.MoveResult{State: &next, TurnShouldSwitch: true}, nil
	}
	return game.MoveResult{State: &next}, nil
}

func (loopEngine) CheckEnd(game.State, []game.Participant) game.EndResult {
	return game.EndResult{}
}

func (loopEngine) BotMove(game.State, int) game.Move { return game.Move(`{"step":1}`) }

func (loopEngine) DecodeState(raw []byte) (game.State, error) {
	var st loopState
	err := json.Unmarshal(raw, &st)
	return &st, err
}

type memStore struct {
	mu    sync.Mutex
	snaps map[string]*domain.SessionSnapshot
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[string]*domain.SessionSnapshot)}
}

func (s *memStore) Save(_ context.Context, snap *domain.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.ID] = snap
	return nil
}

func (s *memStore) Load(_ context.Context, id string) (*domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snaps[id], nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, id)
	return nil
}

func (s *memStore) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.snaps[id]
	return ok
}
