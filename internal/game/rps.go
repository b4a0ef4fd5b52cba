package game

import (
	"encoding/json"
	"fmt"
)

const (
	rpsWinsNeeded = 2
	// после 5 раундов без победителя партия заканчивается по счету или ничьей
	rpsMaxRounds = 5
)

var rpsChoices = []string{"rock", "paper", "scissors"}

// RPS - камень-ножницы-бумага до двух побед. Игроки выбирают по очереди,
// выбор первого скрыт до хода второго.
type RPS struct{}

type RPSRound struct {
	Picks    [2]string `json:"picks"`
	WinnerID int64     `json:"winner_id,omitempty"`
}

type RPSState struct {
	Players [2]int64   `json:"players"`
	TurnID  int64      `json:"turn"`
	Pending [2]string  `json:"pending"`
	Wins    [2]int     `json:"wins"`
	History []RPSRound `json:"history"`
}

func (s *RPSState) Turn() int64 { return s.TurnID }

func (s *RPSState) Public() any {
	picked := [2]bool{s.Pending[0] != "", s.Pending[1] != ""}
	return map[string]any{
		"players": s.Players,
		"turn":    s.TurnID,
		"picked":  picked,
		"wins":    s.Wins,
		"round":   len(s.History) + 1,
		"history": s.History,
	}
}

type rpsMove struct {
	Choice string `json:"choice"`
}

func (RPS) Type() GameType { return TypeRPS }

func (RPS) InitialState(players []Participant) State {
	ids := playerIDs(players)
	return &RPSState{Players: ids, TurnID: ids[0], History: []RPSRound{}}
}

// decide определяет результат раунда для первого игрока: 1 победа, -1 поражение, 0 ничья
func decide(moveA, moveB string) int {
	if moveA == moveB {
		return 0
	}
	switch moveA {
	case "rock":
		if moveB == "scissors" {
			return 1
		}
	case "paper":
		if moveB == "rock" {
			return 1
		}
	case "scissors":
		if moveB == "paper" {
			return 1
		}
	}
	return -1
}

func rpsFrom(s State) (*RPSState, error) {
	st, ok := s.(*RPSState)
	if !ok || st == nil {
		return nil, fmt.Errorf("%w: неверное состояние", ErrInvalidMove)
	}
	return st, nil
}

func validChoice(c string) bool {
	for _, v := range rpsChoices {
		if v == c {
			return true
		}
	}
	return false
}

func (e RPS) ProcessMove(s State, m Move, actorID int64, players []Participant) (MoveResult, error) {
	st, err := rpsFrom(s)
	if err != nil {
		return MoveResult{State: s}, err
	}
	if e.CheckEnd(st, players).IsGameOver {
		return MoveResult{State: s}, ErrGameOver
	}
	if err := checkActor(st.TurnID, actorID, players); err != nil {
		return MoveResult{State: s}, err
	}

	var mv rpsMove
	if err := decodeMove(m, &mv); err != nil {
		return MoveResult{State: s}, err
	}
	if !validChoice(mv.Choice) {
		return MoveResult{State: s}, fmt.Errorf("%w: неверное значение хода", ErrInvalidMove)
	}

	next := *st
	next.History = append([]RPSRound(nil), st.History...)

	if actorID == st.Players[0] {
		next.Pending[0] = mv.Choice
		next.TurnID = st.Players[1]
		return MoveResult{State: &next, TurnShouldSwitch: true}, nil
	}

	// второй игрок закрывает раунд
	next.Pending[1] = mv.Choice
	round := RPSRound{Picks: next.Pending}
	switch decide(next.Pending[0], next.Pending[1]) {
	case 1:
		next.Wins[0]++
		round.WinnerID = st.Players[0]
	case -1:
		next.Wins[1]++
		round.WinnerID = st.Players[1]
	}
	next.History = append(next.History, round)
	next.Pending = [2]string{}
	next.TurnID = st.Players[0]
	return MoveResult{State: &next, TurnShouldSwitch: true}, nil
}

func (RPS) CheckEnd(s State, _ []Participant) EndResult {
	st, err := rpsFrom(s)
	if err != nil {
		return EndResult{}
	}
	for i, w := range st.Wins {
		if w >= rpsWinsNeeded {
			return winner(st.Players[i])
		}
	}
	if len(st.History) >= rpsMaxRounds {
		switch {
		case st.Wins[0] > st.Wins[1]:
			return winner(st.Players[0])
		case st.Wins[1] > st.Wins[0]:
			return winner(st.Players[1])
		}
		return draw()
	}
	return EndResult{}
}

// бот выбирает случайно, как и при таймауте хода
func (RPS) BotMove(s State, idx int) Move {
	st, err := rpsFrom(s)
	if err != nil || idx < 0 || idx > 1 || st.TurnID != st.Players[idx] {
		return nil
	}
	return encodeMove(rpsMove{Choice: rpsChoices[RandIntn(len(rpsChoices))]})
}

func (RPS) DecodeState(raw []byte) (State, error) {
	var st RPSState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
