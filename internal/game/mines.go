package game

import (
	"encoding/json"
	"fmt"
)

const (
	MinesCells     = 12
	MinesPerBoard  = 4
	minesMaxRounds = 5
)

// Mines - каждый игрок прячет 4 мины на своем поле из 12 клеток, затем
// по очереди открывают клетку на поле соперника. Подорвался один - он
// проиграл, подорвались оба или никто - следующий раунд, после 5 раундов ничья.
type Mines struct{}

type MinesPick struct {
	Cell    int  `json:"cell"`
	HitMine bool `json:"hit_mine"`
	Round   int  `json:"round"`
}

type MinesState struct {
	Players [2]int64            `json:"players"`
	TurnID  int64               `json:"turn"`
	Boards  [2][MinesCells]bool `json:"boards"`
	Placed  [2]bool             `json:"placed"`
	Round   int                 `json:"round"`
	Picks   [2][]MinesPick      `json:"picks"`
	Loser   int                 `json:"loser"`
}

func (s *MinesState) Turn() int64 { return s.TurnID }

func (s *MinesState) setupDone() bool { return s.Placed[0] && s.Placed[1] }

// Public скрывает расстановку мин
func (s *MinesState) Public() any {
	phase := "setup"
	if s.setupDone() {
		phase = "play"
	}
	return map[string]any{
		"players": s.Players,
		"turn":    s.TurnID,
		"phase":   phase,
		"placed":  s.Placed,
		"round":   s.Round,
		"picks":   s.Picks,
	}
}

type minesMove struct {
	Mines []int `json:"mines,omitempty"`
	Cell  *int  `json:"cell,omitempty"`
}

func (Mines) Type() GameType { return TypeMines }

func (Mines) InitialState(players []Participant) State {
	ids := playerIDs(players)
	return &MinesState{
		Players: ids,
		TurnID:  ids[0],
		Round:   1,
		Picks:   [2][]MinesPick{{}, {}},
		Loser:   -1,
	}
}

func minesFrom(s State) (*MinesState, error) {
	st, ok := s.(*MinesState)
	if !ok || st == nil {
		return nil, fmt.Errorf("%w: неверное состояние", ErrInvalidMove)
	}
	return st, nil
}

func (s *MinesState) clone() *MinesState {
	c := *s
	c.Picks = [2][]MinesPick{
		append([]MinesPick{}, s.Picks[0]...),
		append([]MinesPick{}, s.Picks[1]...),
	}
	return &c
}

func (e Mines) ProcessMove(s State, m Move, actorID int64, players []Participant) (MoveResult, error) {
	st, err := minesFrom(s)
	if err != nil {
		return MoveResult{State: s}, err
	}
	if e.CheckEnd(st, players).IsGameOver {
		return MoveResult{State: s}, ErrGameOver
	}
	if err := checkActor(st.TurnID, actorID, players); err != nil {
		return MoveResult{State: s}, err
	}

	var mv minesMove
	if err := decodeMove(m, &mv); err != nil {
		return MoveResult{State: s}, err
	}

	idx := 0
	if actorID == st.Players[1] {
		idx = 1
	}
	next := st.clone()

	// фаза расстановки
	if !st.setupDone() {
		if len(mv.Mines) != MinesPerBoard {
			return MoveResult{State: s}, fmt.Errorf("%w: нужно расставить %d мины", ErrInvalidMove, MinesPerBoard)
		}
		var board [MinesCells]bool
		for _, cell := range mv.Mines {
			if cell < 1 || cell > MinesCells || board[cell-1] {
				return MoveResult{State: s}, fmt.Errorf("%w: неверная клетка %d", ErrInvalidMove, cell)
			}
			board[cell-1] = true
		}
		next.Boards[idx] = board
		next.Placed[idx] = true
		next.TurnID = st.Players[1-idx]
		return MoveResult{State: next, TurnShouldSwitch: true}, nil
	}

	// игровая фаза - клетка на поле соперника
	if mv.Cell == nil || *mv.Cell < 1 || *mv.Cell > MinesCells {
		return MoveResult{State: s}, fmt.Errorf("%w: клетка вне поля", ErrInvalidMove)
	}
	for _, p := range st.Picks[idx] {
		if p.Cell == *mv.Cell {
			return MoveResult{State: s}, fmt.Errorf("%w: клетка уже открыта", ErrInvalidMove)
		}
	}
	hit := st.Boards[1-idx][*mv.Cell-1]
	next.Picks[idx] = append(next.Picks[idx], MinesPick{Cell: *mv.Cell, HitMine: hit, Round: st.Round})
	next.TurnID = st.Players[1-idx]

	// раунд закрывает второй игрок
	if idx == 1 {
		first := next.Picks[0][len(next.Picks[0])-1]
		switch {
		case first.HitMine && !hit:
			next.Loser = 0
		case hit && !first.HitMine:
			next.Loser = 1
		default:
			next.Round++
		}
	}
	return MoveResult{State: next, TurnShouldSwitch: true}, nil
}

func (Mines) CheckEnd(s State, _ []Participant) EndResult {
	st, err := minesFrom(s)
	if err != nil {
		return EndResult{}
	}
	if st.Loser >= 0 {
		return winner(st.Players[1-st.Loser])
	}
	if st.Round > minesMaxRounds {
		return draw()
	}
	return EndResult{}
}

// бот расставляет мины и выбирает клетки случайно
func (Mines) BotMove(s State, idx int) Move {
	st, err := minesFrom(s)
	if err != nil || idx < 0 || idx > 1 || st.TurnID != st.Players[idx] {
		return nil
	}
	if !st.setupDone() {
		cells := make([]int, MinesCells)
		for i := range cells {
			cells[i] = i + 1
		}
		Shuffle(cells)
		return encodeMove(minesMove{Mines: cells[:MinesPerBoard]})
	}

	opened := make(map[int]bool, len(st.Picks[idx]))
	for _, p := range st.Picks[idx] {
		opened[p.Cell] = true
	}
	var free []int
	for cell := 1; cell <= MinesCells; cell++ {
		if !opened[cell] {
			free = append(free, cell)
		}
	}
	if len(free) == 0 {
		return nil
	}
	cell := free[RandIntn(len(free))]
	return encodeMove(minesMove{Cell: &cell})
}

func (Mines) DecodeState(raw []byte) (State, error) {
	var st MinesState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
