package game

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type GameType string

const (
	TypeTicTacToe GameType = "tictactoe"
	TypeConnect4  GameType = "connect4"
	TypeGomoku    GameType = "gomoku"
	TypeCheckers  GameType = "checkers"
	TypeChess     GameType = "chess"
	TypeDice      GameType = "dice"
	TypeRPS       GameType = "rps"
	TypeMines     GameType = "mines"
)

var (
	ErrNotYourTurn   = errors.New("сейчас не ваш ход")
	ErrInvalidMove   = errors.New("неверный ход")
	ErrGameOver      = errors.New("игра уже завершена")
	ErrNotPlayer     = errors.New("игрок не участвует в игре")
	ErrUnknownGame   = errors.New("неизвестный тип игры")
	ErrNotEnoughSeat = errors.New("недостаточно игроков")
)

// участник сессии, бот отличается только флагом
type Participant struct {
	ID     int64  `json:"id"`
	ConnID string `json:"conn_id,omitempty"`
	Name   string `json:"name"`
	IsBot  bool   `json:"is_bot"`
}

// состояние конкретной игры, для ядра непрозрачно кроме владельца хода
type State interface {
	Turn() int64
}

// скрывает приватные данные (мины, выбор в rps) перед отправкой клиентам
type Redactor interface {
	Public() any
}

// Move - сырой JSON хода от клиента или бота
type Move json.RawMessage

// RollMove - ход, который отправляет команда "roll"
var RollMove = Move(`{"action":"roll"}`)

func (m Move) IsEmpty() bool {
	trimmed := bytes.TrimSpace(m)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte("{}"))
}

func (m Move) MarshalJSON() ([]byte, error) {
	if m.IsEmpty() {
		return []byte("null"), nil
	}
	return json.RawMessage(m).MarshalJSON()
}

func (m *Move) UnmarshalJSON(data []byte) error {
	*m = append((*m)[:0], data...)
	return nil
}

type MoveResult struct {
	State            State
	TurnShouldSwitch bool
}

type EndResult struct {
	IsGameOver bool   `json:"is_game_over"`
	WinnerID   *int64 `json:"winner_id,omitempty"`
	IsDraw     bool   `json:"is_draw"`
}

// Engine - единый контракт для всех игр. Реализации не хранят состояние
// и работают только с переданным State.
type Engine interface {
	Type() GameType
	InitialState(players []Participant) State
	ProcessMove(s State, m Move, actorID int64, players []Participant) (MoveResult, error)
	CheckEnd(s State, players []Participant) EndResult
	BotMove(s State, idx int) Move
	DecodeState(raw []byte) (State, error)
}

// PublicView возвращает то, что можно показать всем участникам
func PublicView(s State) any {
	if r, ok := s.(Redactor); ok {
		return r.Public()
	}
	return s
}

func decodeMove(m Move, v any) error {
	if m.IsEmpty() {
		return fmt.Errorf("%w: пустой ход", ErrInvalidMove)
	}
	if err := json.Unmarshal(m, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMove, err)
	}
	return nil
}

func encodeMove(v any) Move {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return Move(data)
}

func winner(id int64) EndResult {
	return EndResult{IsGameOver: true, WinnerID: &id}
}

func draw() EndResult {
	return EndResult{IsGameOver: true, IsDraw: true}
}

// индекс участника по id, -1 если не найден
func indexOf(players []Participant, id int64) int {
	for i, p := range players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func opponentOf(players []Participant, id int64) int64 {
	for _, p := range players {
		if p.ID != id {
			return p.ID
		}
	}
	return 0
}

// общая проверка перед ходом: игрок в игре, его ход, соперник на месте
func checkActor(turn, actorID int64, players []Participant) error {
	if indexOf(players, actorID) < 0 {
		return ErrNotPlayer
	}
	if len(players) < 2 {
		return ErrNotEnoughSeat
	}
	if turn != actorID {
		return ErrNotYourTurn
	}
	return nil
}

func playerIDs(players []Participant) [2]int64 {
	var ids [2]int64
	for i := 0; i < len(players) && i < 2; i++ {
		ids[i] = players[i].ID
	}
	return ids
}
