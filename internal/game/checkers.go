package game

import (
	"encoding/json"
	"fmt"
)

const (
	checkersSize = 8
	// ходов без взятия и без хода простой шашкой до ничьей
	checkersQuietLimit = 80
)

const (
	pieceNone int8 = iota
	pieceMan0
	pieceMan1
	pieceKing0
	pieceKing1
)

// Checkers - английские шашки: простые ходят и бьют только вперед,
// взятие обязательно, серия взятий продолжается той же шашкой.
type Checkers struct{}

type CheckersState struct {
	Board     []int8   `json:"board"`
	Players   [2]int64 `json:"players"`
	TurnID    int64    `json:"turn"`
	ChainFrom int      `json:"chain_from"`
	Quiet     int      `json:"quiet"`
	Moves     int      `json:"moves"`
}

func (s *CheckersState) Turn() int64 { return s.TurnID }

type checkersMove struct {
	From [2]int `json:"from"`
	To   [2]int `json:"to"`
}

type checkersStep struct {
	from, to, captured int
}

func (Checkers) Type() GameType { return TypeCheckers }

func (Checkers) InitialState(players []Participant) State {
	ids := playerIDs(players)
	st := &CheckersState{
		Board:     make([]int8, checkersSize*checkersSize),
		Players:   ids,
		TurnID:    ids[0],
		ChainFrom: -1,
	}
	for r := 0; r < checkersSize; r++ {
		for c := 0; c < checkersSize; c++ {
			if (r+c)%2 == 0 {
				continue
			}
			switch {
			case r < 3:
				st.Board[r*checkersSize+c] = pieceMan1
			case r > 4:
				st.Board[r*checkersSize+c] = pieceMan0
			}
		}
	}
	return st
}

func pieceSide(p int8) int {
	switch p {
	case pieceMan0, pieceKing0:
		return 0
	case pieceMan1, pieceKing1:
		return 1
	}
	return -1
}

func isKing(p int8) bool { return p == pieceKing0 || p == pieceKing1 }

func (s *CheckersState) clone() *CheckersState {
	c := *s
	c.Board = append([]int8(nil), s.Board...)
	return &c
}

func (s *CheckersState) sideOf(id int64) int {
	switch id {
	case s.Players[0]:
		return 0
	case s.Players[1]:
		return 1
	}
	return -1
}

func (s *CheckersState) at(r, c int) int8 {
	if r < 0 || r >= checkersSize || c < 0 || c >= checkersSize {
		return -1
	}
	return s.Board[r*checkersSize+c]
}

func (s *CheckersState) directions(p int8) [][2]int {
	if isKing(p) {
		return [][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	}
	if pieceSide(p) == 0 {
		return [][2]int{{-1, -1}, {-1, 1}}
	}
	return [][2]int{{1, -1}, {1, 1}}
}

func (s *CheckersState) capturesFrom(cell int) []checkersStep {
	p := s.Board[cell]
	side := pieceSide(p)
	if side < 0 {
		return nil
	}
	r, c := cell/checkersSize, cell%checkersSize
	var steps []checkersStep
	for _, d := range s.directions(p) {
		over := s.at(r+d[0], c+d[1])
		if over <= 0 || pieceSide(over) == side {
			continue
		}
		if s.at(r+2*d[0], c+2*d[1]) != pieceNone {
			continue
		}
		steps = append(steps, checkersStep{
			from:     cell,
			to:       (r+2*d[0])*checkersSize + c + 2*d[1],
			captured: (r+d[0])*checkersSize + c + d[1],
		})
	}
	return steps
}

// legalSteps возвращает все допустимые ходы стороны с учетом обязательного взятия
func (s *CheckersState) legalSteps(side int) []checkersStep {
	if s.ChainFrom >= 0 {
		return s.capturesFrom(s.ChainFrom)
	}
	var captures, quiet []checkersStep
	for cell, p := range s.Board {
		if pieceSide(p) != side {
			continue
		}
		captures = append(captures, s.capturesFrom(cell)...)
		if len(captures) > 0 {
			continue
		}
		r, c := cell/checkersSize, cell%checkersSize
		for _, d := range s.directions(p) {
			if s.at(r+d[0], c+d[1]) == pieceNone {
				quiet = append(quiet, checkersStep{from: cell, to: (r+d[0])*checkersSize + c + d[1], captured: -1})
			}
		}
	}
	if len(captures) > 0 {
		return captures
	}
	return quiet
}

func (s *CheckersState) apply(step checkersStep) (next *CheckersState, continues bool) {
	next = s.clone()
	p := next.Board[step.from]
	next.Board[step.from] = pieceNone
	next.Moves++

	promoted := false
	row := step.to / checkersSize
	if p == pieceMan0 && row == 0 {
		p, promoted = pieceKing0, true
	}
	if p == pieceMan1 && row == checkersSize-1 {
		p, promoted = pieceKing1, true
	}
	next.Board[step.to] = p

	if step.captured >= 0 || !isKing(s.Board[step.from]) {
		next.Quiet = 0
	} else {
		next.Quiet++
	}

	if step.captured >= 0 {
		next.Board[step.captured] = pieceNone
		// превращение в дамку завершает серию
		if !promoted && len(next.capturesFrom(step.to)) > 0 {
			next.ChainFrom = step.to
			return next, true
		}
	}

	next.ChainFrom = -1
	if next.TurnID == next.Players[0] {
		next.TurnID = next.Players[1]
	} else {
		next.TurnID = next.Players[0]
	}
	return next, false
}

func checkersFrom(s State) (*CheckersState, error) {
	st, ok := s.(*CheckersState)
	if !ok || st == nil {
		return nil, fmt.Errorf("%w: неверное состояние", ErrInvalidMove)
	}
	return st, nil
}

func (e Checkers) ProcessMove(s State, m Move, actorID int64, players []Participant) (MoveResult, error) {
	st, err := checkersFrom(s)
	if err != nil {
		return MoveResult{State: s}, err
	}
	if e.CheckEnd(st, players).IsGameOver {
		return MoveResult{State: s}, ErrGameOver
	}
	if err := checkActor(st.TurnID, actorID, players); err != nil {
		return MoveResult{State: s}, err
	}

	var mv checkersMove
	if err := decodeMove(m, &mv); err != nil {
		return MoveResult{State: s}, err
	}
	if st.at(mv.From[0], mv.From[1]) < 0 || st.at(mv.To[0], mv.To[1]) < 0 {
		return MoveResult{State: s}, fmt.Errorf("%w: клетка вне поля", ErrInvalidMove)
	}
	from := mv.From[0]*checkersSize + mv.From[1]
	to := mv.To[0]*checkersSize + mv.To[1]

	if st.ChainFrom >= 0 && from != st.ChainFrom {
		return MoveResult{State: s}, fmt.Errorf("%w: нужно продолжить взятие той же шашкой", ErrInvalidMove)
	}
	for _, step := range st.legalSteps(st.sideOf(actorID)) {
		if step.from == from && step.to == to {
			next, continues := st.apply(step)
			return MoveResult{State: next, TurnShouldSwitch: !continues}, nil
		}
	}
	return MoveResult{State: s}, fmt.Errorf("%w: недопустимый ход", ErrInvalidMove)
}

func (Checkers) CheckEnd(s State, _ []Participant) EndResult {
	st, err := checkersFrom(s)
	if err != nil || st.Players[1] == 0 {
		return EndResult{}
	}
	side := st.sideOf(st.TurnID)
	if len(st.legalSteps(side)) == 0 {
		return winner(st.Players[1-side])
	}
	if st.Quiet >= checkersQuietLimit {
		return draw()
	}
	return EndResult{}
}

func (e Checkers) BotMove(s State, idx int) Move {
	st, err := checkersFrom(s)
	if err != nil || idx < 0 || idx > 1 || st.TurnID != st.Players[idx] {
		return nil
	}
	steps := st.legalSteps(idx)
	if len(steps) == 0 {
		return nil
	}
	step := steps[RandIntn(len(steps))]
	return encodeMove(checkersMove{
		From: [2]int{step.from / checkersSize, step.from % checkersSize},
		To:   [2]int{step.to / checkersSize, step.to % checkersSize},
	})
}

func (Checkers) DecodeState(raw []byte) (State, error) {
	var st CheckersState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	if len(st.Board) != checkersSize*checkersSize {
		return nil, fmt.Errorf("checkers: board size %d", len(st.Board))
	}
	return &st, nil
}
