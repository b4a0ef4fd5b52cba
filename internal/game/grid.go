package game

import (
	"encoding/json"
	"fmt"
)

// GridState - общее состояние для игр "N в ряд" (крестики-нолики, 4 в ряд, гомоку).
// 0 - пусто, 1 - первый игрок, 2 - второй игрок.
type GridState struct {
	Rows    int      `json:"rows"`
	Cols    int      `json:"cols"`
	Need    int      `json:"need"`
	Board   []int8   `json:"board"`
	Players [2]int64 `json:"players"`
	TurnID  int64    `json:"turn"`
	Moves   int      `json:"moves"`
	Last    int      `json:"last"`
}

func (s *GridState) Turn() int64 { return s.TurnID }

func newGridState(rows, cols, need int, players []Participant) *GridState {
	ids := playerIDs(players)
	return &GridState{
		Rows:    rows,
		Cols:    cols,
		Need:    need,
		Board:   make([]int8, rows*cols),
		Players: ids,
		TurnID:  ids[0],
		Last:    -1,
	}
}

func (s *GridState) clone() *GridState {
	c := *s
	c.Board = append([]int8(nil), s.Board...)
	return &c
}

func (s *GridState) mark(id int64) int8 {
	switch id {
	case s.Players[0]:
		return 1
	case s.Players[1]:
		return 2
	}
	return 0
}

func (s *GridState) idOf(mark int8) int64 {
	if mark == 1 {
		return s.Players[0]
	}
	return s.Players[1]
}

func (s *GridState) at(r, c int) int8 {
	if r < 0 || r >= s.Rows || c < 0 || c >= s.Cols {
		return -1
	}
	return s.Board[r*s.Cols+c]
}

var gridDirections = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// длина непрерывной линии через клетку (r, c) в направлении (dr, dc)
func (s *GridState) lineLength(r, c, dr, dc int, mark int8) int {
	n := 1
	for i := 1; s.at(r+dr*i, c+dc*i) == mark; i++ {
		n++
	}
	for i := 1; s.at(r-dr*i, c-dc*i) == mark; i++ {
		n++
	}
	return n
}

func (s *GridState) winsAt(cell int, mark int8) bool {
	r, c := cell/s.Cols, cell%s.Cols
	for _, d := range gridDirections {
		if s.lineLength(r, c, d[0], d[1], mark) >= s.Need {
			return true
		}
	}
	return false
}

// winnerMark ищет линию длиной Need по всей доске
func (s *GridState) winnerMark() int8 {
	for cell, mark := range s.Board {
		if mark != 0 && s.winsAt(cell, mark) {
			return mark
		}
	}
	return 0
}

func (s *GridState) full() bool {
	for _, v := range s.Board {
		if v == 0 {
			return false
		}
	}
	return true
}

func (s *GridState) checkEnd() EndResult {
	if m := s.winnerMark(); m != 0 {
		return winner(s.idOf(m))
	}
	if s.full() {
		return draw()
	}
	return EndResult{}
}

// place ставит метку текущего игрока и передает ход
func (s *GridState) place(cell int) *GridState {
	next := s.clone()
	mark := next.mark(next.TurnID)
	next.Board[cell] = mark
	next.Moves++
	next.Last = cell
	if next.TurnID == next.Players[0] {
		next.TurnID = next.Players[1]
	} else {
		next.TurnID = next.Players[0]
	}
	return next
}

// wouldWin проверяет, выиграет ли метка, поставленная в cell
func (s *GridState) wouldWin(cell int, mark int8) bool {
	if s.Board[cell] != 0 {
		return false
	}
	s.Board[cell] = mark
	ok := s.winsAt(cell, mark)
	s.Board[cell] = 0
	return ok
}

func (s *GridState) emptyCells() []int {
	cells := make([]int, 0, len(s.Board))
	for i, v := range s.Board {
		if v == 0 {
			cells = append(cells, i)
		}
	}
	return cells
}

func gridFrom(s State) (*GridState, error) {
	st, ok := s.(*GridState)
	if !ok || st == nil {
		return nil, fmt.Errorf("%w: неверное состояние", ErrInvalidMove)
	}
	return st, nil
}

func decodeGrid(raw []byte) (State, error) {
	var st GridState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	if len(st.Board) != st.Rows*st.Cols {
		return nil, fmt.Errorf("grid: board size %d != %dx%d", len(st.Board), st.Rows, st.Cols)
	}
	return &st, nil
}

// validateGridTurn - общие проверки перед ходом в играх на сетке
func validateGridTurn(st *GridState, actorID int64, players []Participant) error {
	if st.checkEnd().IsGameOver {
		return ErrGameOver
	}
	return checkActor(st.TurnID, actorID, players)
}

// botTurn - ход за ботом с индексом idx и игра не закончена
func (s *GridState) botTurn(idx int) bool {
	if idx < 0 || idx > 1 || s.TurnID != s.Players[idx] {
		return false
	}
	return !s.checkEnd().IsGameOver
}
