package game

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pair(a, b int64) []Participant {
	return []Participant{{ID: a, Name: "alice"}, {ID: b, Name: "bob"}}
}

func mv(format string, args ...any) Move {
	return Move(fmt.Sprintf(format, args...))
}

// фиксированный RandIntn на время теста
func withRand(t *testing.T, fn func(n int) int) {
	t.Helper()
	prev := RandIntn
	RandIntn = fn
	t.Cleanup(func() { RandIntn = prev })
}

func TestRegistry_AllTypes(t *testing.T) {
	r := NewRegistry()
	assert.Len(t, r.Types(), 8)
	for _, gt := range r.Types() {
		e, err := r.Get(gt)
		require.NoError(t, err)
		assert.Equal(t, gt, e.Type())
	}

	_, err := r.Get("backgammon")
	assert.ErrorIs(t, err, ErrUnknownGame)
}

func TestTicTacToe_RowWinStopsGame(t *testing.T) {
	e := TicTacToe{}
	players := pair(1, 2)
	s := e.InitialState(players)
	assert.Equal(t, int64(1), s.Turn())

	moves := []struct {
		actor int64
		cell  int
	}{{1, 0}, {2, 3}, {1, 1}, {2, 4}, {1, 2}}
	for _, m := range moves {
		res, err := e.ProcessMove(s, mv(`{"cell":%d}`, m.cell), m.actor, players)
		require.NoError(t, err)
		assert.True(t, res.TurnShouldSwitch)
		s = res.State
	}

	end := e.CheckEnd(s, players)
	require.True(t, end.IsGameOver)
	require.NotNil(t, end.WinnerID)
	assert.Equal(t, int64(1), *end.WinnerID)
	assert.False(t, end.IsDraw)

	_, err := e.ProcessMove(s, mv(`{"cell":5}`), 2, players)
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestTicTacToe_Rejections(t *testing.T) {
	e := TicTacToe{}
	players := pair(1, 2)
	s := e.InitialState(players)

	_, err := e.ProcessMove(s, mv(`{"cell":0}`), 2, players)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	_, err = e.ProcessMove(s, mv(`{"cell":0}`), 99, players)
	assert.ErrorIs(t, err, ErrNotPlayer)

	_, err = e.ProcessMove(s, mv(`{"cell":9}`), 1, players)
	assert.ErrorIs(t, err, ErrInvalidMove)

	_, err = e.ProcessMove(s, Move(`{}`), 1, players)
	assert.ErrorIs(t, err, ErrInvalidMove)

	res, err := e.ProcessMove(s, mv(`{"cell":4}`), 1, players)
	require.NoError(t, err)
	_, err = e.ProcessMove(res.State, mv(`{"cell":4}`), 2, players)
	assert.ErrorIs(t, err, ErrInvalidMove)

	// без соперника ходить нельзя
	alone := players[:1]
	_, err = e.ProcessMove(e.InitialState(alone), mv(`{"cell":0}`), 1, alone)
	assert.ErrorIs(t, err, ErrNotEnoughSeat)
}

func TestTicTacToe_Draw(t *testing.T) {
	e := TicTacToe{}
	players := pair(1, 2)
	s := e.InitialState(players)
	// x o x / x o o / o x x
	order := []int{0, 1, 2, 4, 3, 5, 7, 6, 8}
	actor := int64(1)
	for _, cell := range order {
		res, err := e.ProcessMove(s, mv(`{"cell":%d}`, cell), actor, players)
		require.NoError(t, err, "cell %d", cell)
		s = res.State
		actor = 3 - actor
	}
	end := e.CheckEnd(s, players)
	assert.True(t, end.IsGameOver)
	assert.True(t, end.IsDraw)
	assert.Nil(t, end.WinnerID)
}

func TestTicTacToe_BotTakesWinThenBlocks(t *testing.T) {
	e := TicTacToe{}
	players := pair(1, -1)
	st := e.InitialState(players).(*GridState)
	st.Board = []int8{2, 2, 0, 1, 1, 0, 0, 0, 0}
	st.TurnID = -1

	var m cellMove
	require.NoError(t, json.Unmarshal(e.BotMove(st, 1), &m))
	assert.Equal(t, 2, *m.Cell)

	st.Board = []int8{2, 0, 0, 1, 1, 0, 0, 0, 0}
	require.NoError(t, json.Unmarshal(e.BotMove(st, 1), &m))
	assert.Equal(t, 5, *m.Cell)
}

func TestConnect4_VerticalWin(t *testing.T) {
	e := Connect4{}
	players := pair(1, 2)
	s := e.InitialState(players)
	for i := 0; i < 3; i++ {
		res, err := e.ProcessMove(s, mv(`{"column":0}`), 1, players)
		require.NoError(t, err)
		res, err = e.ProcessMove(res.State, mv(`{"column":1}`), 2, players)
		require.NoError(t, err)
		s = res.State
	}
	assert.False(t, e.CheckEnd(s, players).IsGameOver)

	res, err := e.ProcessMove(s, mv(`{"column":0}`), 1, players)
	require.NoError(t, err)
	end := e.CheckEnd(res.State, players)
	require.True(t, end.IsGameOver)
	assert.Equal(t, int64(1), *end.WinnerID)
}

func TestConnect4_FullColumn(t *testing.T) {
	e := Connect4{}
	players := pair(1, 2)
	s := e.InitialState(players)
	actor := int64(1)
	for i := 0; i < connect4Rows; i++ {
		res, err := e.ProcessMove(s, mv(`{"column":3}`), actor, players)
		require.NoError(t, err)
		s = res.State
		actor = 3 - actor
	}
	_, err := e.ProcessMove(s, mv(`{"column":3}`), actor, players)
	assert.ErrorIs(t, err, ErrInvalidMove)
}

func TestGomoku_FiveInRow(t *testing.T) {
	e := Gomoku{}
	players := pair(1, 2)
	s := e.InitialState(players)
	for i := 0; i < 4; i++ {
		res, err := e.ProcessMove(s, mv(`{"row":7,"col":%d}`, i), 1, players)
		require.NoError(t, err)
		res, err = e.ProcessMove(res.State, mv(`{"row":0,"col":%d}`, i*2), 2, players)
		require.NoError(t, err)
		s = res.State
	}
	res, err := e.ProcessMove(s, mv(`{"row":7,"col":4}`), 1, players)
	require.NoError(t, err)
	end := e.CheckEnd(res.State, players)
	require.True(t, end.IsGameOver)
	assert.Equal(t, int64(1), *end.WinnerID)
}

func TestBotMoves_AreLegal(t *testing.T) {
	withRand(t, func(n int) int { return 0 })
	players := []Participant{{ID: -1, IsBot: true}, {ID: -2, IsBot: true}}
	for _, gt := range NewRegistry().Types() {
		e, _ := NewRegistry().Get(gt)
		t.Run(string(gt), func(t *testing.T) {
			s := e.InitialState(players)
			for ply := 0; ply < 30 && !e.CheckEnd(s, players).IsGameOver; ply++ {
				idx := 0
				if s.Turn() == players[1].ID {
					idx = 1
				}
				m := e.BotMove(s, idx)
				require.False(t, m.IsEmpty(), "ply %d", ply)
				res, err := e.ProcessMove(s, m, s.Turn(), players)
				require.NoError(t, err, "ply %d move %s", ply, string(m))
				s = res.State
			}
		})
	}
}

func TestBotMove_NotOnOpponentTurn(t *testing.T) {
	players := pair(1, -1)
	for _, gt := range NewRegistry().Types() {
		e, _ := NewRegistry().Get(gt)
		s := e.InitialState(players)
		assert.True(t, e.BotMove(s, 1).IsEmpty(), string(gt))
	}
}

func TestDecodeState_RoundTrip(t *testing.T) {
	players := pair(1, 2)
	for _, gt := range NewRegistry().Types() {
		e, _ := NewRegistry().Get(gt)
		s := e.InitialState(players)
		raw, err := json.Marshal(s)
		require.NoError(t, err)
		back, err := e.DecodeState(raw)
		require.NoError(t, err, string(gt))
		assert.Equal(t, s.Turn(), back.Turn(), string(gt))
	}
}

func TestShuffle_KeepsElements(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	Shuffle(items)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, items)
}

func TestMove_IsEmpty(t *testing.T) {
	assert.True(t, Move(nil).IsEmpty())
	assert.True(t, Move(" null ").IsEmpty())
	assert.True(t, Move("{}").IsEmpty())
	assert.False(t, RollMove.IsEmpty())
}
