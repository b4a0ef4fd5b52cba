package game

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	DiceTarget = 50
	// после стольких ходов побеждает тот, у кого больше очков
	DiceTurnLimit = 40
	// бот копит очки хода до этого порога
	diceBotHold = 15
)

// Dice - "свинья": игрок бросает кубик сколько хочет, единица сжигает очки хода,
// bank переносит очки хода в общий счет и передает ход.
type Dice struct{}

type DiceState struct {
	Players   [2]int64 `json:"players"`
	Scores    [2]int   `json:"scores"`
	TurnID    int64    `json:"turn"`
	TurnTotal int      `json:"turn_total"`
	LastRoll  int      `json:"last_roll"`
	Turns     int      `json:"turns"`
	Seed      uint64   `json:"seed"`
}

func (s *DiceState) Turn() int64 { return s.TurnID }

// сид не показываем клиентам, иначе броски предсказуемы
func (s *DiceState) Public() any {
	return map[string]any{
		"players":    s.Players,
		"scores":     s.Scores,
		"turn":       s.TurnID,
		"turn_total": s.TurnTotal,
		"last_roll":  s.LastRoll,
		"turns":      s.Turns,
		"target":     DiceTarget,
	}
}

type diceMove struct {
	Action string `json:"action"`
}

func (Dice) Type() GameType { return TypeDice }

func (Dice) InitialState(players []Participant) State {
	ids := playerIDs(players)
	seed := uint64(RandIntn(math.MaxInt32))<<32 | uint64(RandIntn(math.MaxInt32))
	return &DiceState{Players: ids, TurnID: ids[0], Seed: seed}
}

// nextRoll - splitmix64, бросок зависит только от сида в состоянии
func nextRoll(seed uint64) (int, uint64) {
	seed += 0x9E3779B97F4A7C15
	z := seed
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	return int(z%6) + 1, seed
}

func diceFrom(s State) (*DiceState, error) {
	st, ok := s.(*DiceState)
	if !ok || st == nil {
		return nil, fmt.Errorf("%w: неверное состояние", ErrInvalidMove)
	}
	return st, nil
}

func (s *DiceState) passTurn() {
	s.TurnTotal = 0
	s.Turns++
	if s.TurnID == s.Players[0] {
		s.TurnID = s.Players[1]
	} else {
		s.TurnID = s.Players[0]
	}
}

func (e Dice) ProcessMove(s State, m Move, actorID int64, players []Participant) (MoveResult, error) {
	st, err := diceFrom(s)
	if err != nil {
		return MoveResult{State: s}, err
	}
	if e.CheckEnd(st, players).IsGameOver {
		return MoveResult{State: s}, ErrGameOver
	}
	if err := checkActor(st.TurnID, actorID, players); err != nil {
		return MoveResult{State: s}, err
	}

	var mv diceMove
	if err := decodeMove(m, &mv); err != nil {
		return MoveResult{State: s}, err
	}

	next := *st
	idx := 0
	if actorID == st.Players[1] {
		idx = 1
	}

	switch mv.Action {
	case "roll":
		next.LastRoll, next.Seed = nextRoll(st.Seed)
		if next.LastRoll == 1 {
			next.passTurn()
			return MoveResult{State: &next, TurnShouldSwitch: true}, nil
		}
		next.TurnTotal += next.LastRoll
		return MoveResult{State: &next, TurnShouldSwitch: false}, nil
	case "bank":
		if st.TurnTotal == 0 {
			return MoveResult{State: s}, fmt.Errorf("%w: сначала нужно бросить кубик", ErrInvalidMove)
		}
		next.Scores[idx] += st.TurnTotal
		next.passTurn()
		return MoveResult{State: &next, TurnShouldSwitch: true}, nil
	}
	return MoveResult{State: s}, fmt.Errorf("%w: неизвестное действие %q", ErrInvalidMove, mv.Action)
}

func (Dice) CheckEnd(s State, _ []Participant) EndResult {
	st, err := diceFrom(s)
	if err != nil {
		return EndResult{}
	}
	for i, score := range st.Scores {
		if score >= DiceTarget {
			return winner(st.Players[i])
		}
	}
	if st.Turns >= DiceTurnLimit {
		switch {
		case st.Scores[0] > st.Scores[1]:
			return winner(st.Players[0])
		case st.Scores[1] > st.Scores[0]:
			return winner(st.Players[1])
		}
		return draw()
	}
	return EndResult{}
}

func (Dice) BotMove(s State, idx int) Move {
	st, err := diceFrom(s)
	if err != nil || idx < 0 || idx > 1 || st.TurnID != st.Players[idx] {
		return nil
	}
	if st.TurnTotal > 0 && (st.TurnTotal >= diceBotHold || st.Scores[idx]+st.TurnTotal >= DiceTarget) {
		return encodeMove(diceMove{Action: "bank"})
	}
	return encodeMove(diceMove{Action: "roll"})
}

func (Dice) DecodeState(raw []byte) (State, error) {
	var st DiceState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
