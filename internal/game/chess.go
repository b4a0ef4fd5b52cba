package game

import (
	"encoding/json"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// после стольких полуходов партия считается ничьей
const chessPlyLimit = 300

// Chess - шахматы, правила и исход считает corentings/chess
type Chess struct{}

type ChessState struct {
	FEN     string   `json:"fen"`
	Moves   []string `json:"moves"`
	Players [2]int64 `json:"players"`
	TurnID  int64    `json:"turn"`
	Outcome string   `json:"outcome,omitempty"`
}

func (s *ChessState) Turn() int64 { return s.TurnID }

type chessMove struct {
	UCI string `json:"uci"`
}

func (Chess) Type() GameType { return TypeChess }

func (Chess) InitialState(players []Participant) State {
	ids := playerIDs(players)
	return &ChessState{
		FEN:     nchess.NewGame().FEN(),
		Moves:   []string{},
		Players: ids,
		TurnID:  ids[0],
	}
}

// replay восстанавливает партию из списка ходов в UCI
func (s *ChessState) replay() (*nchess.Game, error) {
	g := nchess.NewGame()
	for _, mv := range s.Moves {
		if err := g.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil, fmt.Errorf("chess: replay %q: %w", mv, err)
		}
	}
	return g, nil
}

func chessFrom(s State) (*ChessState, error) {
	st, ok := s.(*ChessState)
	if !ok || st == nil {
		return nil, fmt.Errorf("%w: неверное состояние", ErrInvalidMove)
	}
	return st, nil
}

func (e Chess) ProcessMove(s State, m Move, actorID int64, players []Participant) (MoveResult, error) {
	st, err := chessFrom(s)
	if err != nil {
		return MoveResult{State: s}, err
	}
	if e.CheckEnd(st, players).IsGameOver {
		return MoveResult{State: s}, ErrGameOver
	}
	if err := checkActor(st.TurnID, actorID, players); err != nil {
		return MoveResult{State: s}, err
	}

	var mv chessMove
	if err := decodeMove(m, &mv); err != nil {
		return MoveResult{State: s}, err
	}
	uci := strings.ToLower(strings.TrimSpace(mv.UCI))
	if uci == "" {
		return MoveResult{State: s}, fmt.Errorf("%w: пустой ход", ErrInvalidMove)
	}

	g, err := st.replay()
	if err != nil {
		return MoveResult{State: s}, err
	}
	if err := g.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return MoveResult{State: s}, fmt.Errorf("%w: %s", ErrInvalidMove, uci)
	}

	next := &ChessState{
		FEN:     g.FEN(),
		Moves:   append(append([]string(nil), st.Moves...), uci),
		Players: st.Players,
	}
	if g.Position().Turn() == nchess.White {
		next.TurnID = st.Players[0]
	} else {
		next.TurnID = st.Players[1]
	}
	if outcome := g.Outcome(); outcome != nchess.NoOutcome {
		next.Outcome = string(outcome)
	}
	return MoveResult{State: next, TurnShouldSwitch: true}, nil
}

func (Chess) CheckEnd(s State, _ []Participant) EndResult {
	st, err := chessFrom(s)
	if err != nil {
		return EndResult{}
	}
	switch nchess.Outcome(st.Outcome) {
	case nchess.WhiteWon:
		return winner(st.Players[0])
	case nchess.BlackWon:
		return winner(st.Players[1])
	case nchess.Draw:
		return draw()
	}
	if len(st.Moves) >= chessPlyLimit {
		return draw()
	}
	return EndResult{}
}

// бот ходит случайным допустимым ходом
func (Chess) BotMove(s State, idx int) Move {
	st, err := chessFrom(s)
	if err != nil || st.Outcome != "" || idx < 0 || idx > 1 || st.TurnID != st.Players[idx] {
		return nil
	}
	g, err := st.replay()
	if err != nil {
		return nil
	}
	moves := g.ValidMoves()
	if len(moves) == 0 {
		return nil
	}
	mv := moves[RandIntn(len(moves))]
	return encodeMove(chessMove{UCI: mv.String()})
}

func (Chess) DecodeState(raw []byte) (State, error) {
	var st ChessState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
