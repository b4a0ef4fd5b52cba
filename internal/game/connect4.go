package game

import "fmt"

const (
	connect4Rows = 6
	connect4Cols = 7
)

// Connect4 - фишка падает на нижнюю свободную клетку колонки
type Connect4 struct{}

type columnMove struct {
	Column *int `json:"column"`
}

func (Connect4) Type() GameType { return TypeConnect4 }

func (Connect4) InitialState(players []Participant) State {
	return newGridState(connect4Rows, connect4Cols, 4, players)
}

// dropCell возвращает клетку, куда упадет фишка, или -1 если колонка заполнена
func dropCell(st *GridState, col int) int {
	for r := st.Rows - 1; r >= 0; r-- {
		if st.Board[r*st.Cols+col] == 0 {
			return r*st.Cols + col
		}
	}
	return -1
}

func (Connect4) ProcessMove(s State, m Move, actorID int64, players []Participant) (MoveResult, error) {
	st, err := gridFrom(s)
	if err != nil {
		return MoveResult{State: s}, err
	}
	if err := validateGridTurn(st, actorID, players); err != nil {
		return MoveResult{State: s}, err
	}

	var mv columnMove
	if err := decodeMove(m, &mv); err != nil {
		return MoveResult{State: s}, err
	}
	if mv.Column == nil || *mv.Column < 0 || *mv.Column >= st.Cols {
		return MoveResult{State: s}, fmt.Errorf("%w: колонка вне поля", ErrInvalidMove)
	}
	cell := dropCell(st, *mv.Column)
	if cell < 0 {
		return MoveResult{State: s}, fmt.Errorf("%w: колонка заполнена", ErrInvalidMove)
	}

	return MoveResult{State: st.place(cell), TurnShouldSwitch: true}, nil
}

func (Connect4) CheckEnd(s State, _ []Participant) EndResult {
	st, err := gridFrom(s)
	if err != nil {
		return EndResult{}
	}
	return st.checkEnd()
}

func (Connect4) BotMove(s State, idx int) Move {
	st, err := gridFrom(s)
	if err != nil || !st.botTurn(idx) {
		return nil
	}
	own := int8(idx + 1)
	enemy := int8(2 - idx)
	probe := st.clone()

	var open []int
	for col := 0; col < st.Cols; col++ {
		if dropCell(probe, col) >= 0 {
			open = append(open, col)
		}
	}
	if len(open) == 0 {
		return nil
	}
	for _, mark := range []int8{own, enemy} {
		for _, col := range open {
			if probe.wouldWin(dropCell(probe, col), mark) {
				c := col
				return encodeMove(columnMove{Column: &c})
			}
		}
	}
	// центр чаще выгоднее
	center := st.Cols / 2
	if dropCell(probe, center) >= 0 && RandIntn(2) == 0 {
		return encodeMove(columnMove{Column: &center})
	}
	col := open[RandIntn(len(open))]
	return encodeMove(columnMove{Column: &col})
}

func (Connect4) DecodeState(raw []byte) (State, error) { return decodeGrid(raw) }
