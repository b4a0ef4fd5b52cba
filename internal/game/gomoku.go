package game

import "fmt"

const gomokuSize = 15

// Gomoku - пять в ряд на поле 15x15
type Gomoku struct{}

type pointMove struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

func (Gomoku) Type() GameType { return TypeGomoku }

func (Gomoku) InitialState(players []Participant) State {
	return newGridState(gomokuSize, gomokuSize, 5, players)
}

func (Gomoku) ProcessMove(s State, m Move, actorID int64, players []Participant) (MoveResult, error) {
	st, err := gridFrom(s)
	if err != nil {
		return MoveResult{State: s}, err
	}
	if err := validateGridTurn(st, actorID, players); err != nil {
		return MoveResult{State: s}, err
	}

	var mv pointMove
	if err := decodeMove(m, &mv); err != nil {
		return MoveResult{State: s}, err
	}
	if mv.Row == nil || mv.Col == nil || st.at(*mv.Row, *mv.Col) < 0 {
		return MoveResult{State: s}, fmt.Errorf("%w: точка вне поля", ErrInvalidMove)
	}
	cell := *mv.Row*st.Cols + *mv.Col
	if st.Board[cell] != 0 {
		return MoveResult{State: s}, fmt.Errorf("%w: точка занята", ErrInvalidMove)
	}

	return MoveResult{State: st.place(cell), TurnShouldSwitch: true}, nil
}

func (Gomoku) CheckEnd(s State, _ []Participant) EndResult {
	st, err := gridFrom(s)
	if err != nil {
		return EndResult{}
	}
	return st.checkEnd()
}

// бот: завершает свою пятерку, блокирует чужую, иначе ставит рядом с камнями
func (Gomoku) BotMove(s State, idx int) Move {
	st, err := gridFrom(s)
	if err != nil || !st.botTurn(idx) {
		return nil
	}
	own := int8(idx + 1)
	enemy := int8(2 - idx)
	probe := st.clone()

	empty := probe.emptyCells()
	if len(empty) == 0 {
		return nil
	}
	for _, mark := range []int8{own, enemy} {
		for _, cell := range empty {
			if probe.wouldWin(cell, mark) {
				return pointAt(st, cell)
			}
		}
	}

	if st.Moves == 0 {
		return pointAt(st, (st.Rows/2)*st.Cols+st.Cols/2)
	}

	// клетки рядом с уже стоящими камнями
	var near []int
cells:
	for _, cell := range empty {
		r, c := cell/st.Cols, cell%st.Cols
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if (dr != 0 || dc != 0) && st.at(r+dr, c+dc) > 0 {
					near = append(near, cell)
					continue cells
				}
			}
		}
	}
	if len(near) > 0 {
		return pointAt(st, near[RandIntn(len(near))])
	}
	return pointAt(st, empty[RandIntn(len(empty))])
}

func pointAt(st *GridState, cell int) Move {
	r, c := cell/st.Cols, cell%st.Cols
	return encodeMove(pointMove{Row: &r, Col: &c})
}

func (Gomoku) DecodeState(raw []byte) (State, error) { return decodeGrid(raw) }
