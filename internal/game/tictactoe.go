package game

import "fmt"

// TicTacToe - классические крестики-нолики 3x3
type TicTacToe struct{}

type cellMove struct {
	Cell *int `json:"cell"`
}

func (TicTacToe) Type() GameType { return TypeTicTacToe }

func (TicTacToe) InitialState(players []Participant) State {
	return newGridState(3, 3, 3, players)
}

func (TicTacToe) ProcessMove(s State, m Move, actorID int64, players []Participant) (MoveResult, error) {
	st, err := gridFrom(s)
	if err != nil {
		return MoveResult{State: s}, err
	}
	if err := validateGridTurn(st, actorID, players); err != nil {
		return MoveResult{State: s}, err
	}

	var mv cellMove
	if err := decodeMove(m, &mv); err != nil {
		return MoveResult{State: s}, err
	}
	if mv.Cell == nil || *mv.Cell < 0 || *mv.Cell >= len(st.Board) {
		return MoveResult{State: s}, fmt.Errorf("%w: клетка вне поля", ErrInvalidMove)
	}
	if st.Board[*mv.Cell] != 0 {
		return MoveResult{State: s}, fmt.Errorf("%w: клетка занята", ErrInvalidMove)
	}

	return MoveResult{State: st.place(*mv.Cell), TurnShouldSwitch: true}, nil
}

func (TicTacToe) CheckEnd(s State, _ []Participant) EndResult {
	st, err := gridFrom(s)
	if err != nil {
		return EndResult{}
	}
	return st.checkEnd()
}

// бот: выигрывает если может, иначе блокирует, иначе центр/углы/любая клетка
func (TicTacToe) BotMove(s State, idx int) Move {
	st, err := gridFrom(s)
	if err != nil || !st.botTurn(idx) {
		return nil
	}
	own := int8(idx + 1)
	enemy := int8(2 - idx)

	probe := st.clone()
	for _, cell := range probe.emptyCells() {
		if probe.wouldWin(cell, own) {
			return encodeMove(cellMove{Cell: &cell})
		}
	}
	for _, cell := range probe.emptyCells() {
		if probe.wouldWin(cell, enemy) {
			return encodeMove(cellMove{Cell: &cell})
		}
	}
	for _, cell := range []int{4, 0, 2, 6, 8} {
		if st.Board[cell] == 0 {
			c := cell
			return encodeMove(cellMove{Cell: &c})
		}
	}
	empty := st.emptyCells()
	if len(empty) == 0 {
		return nil
	}
	cell := empty[RandIntn(len(empty))]
	return encodeMove(cellMove{Cell: &cell})
}

func (TicTacToe) DecodeState(raw []byte) (State, error) { return decodeGrid(raw) }
