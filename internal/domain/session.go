package domain

import (
	"encoding/json"
	"time"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/game"
)

type SessionStatus string

const (
	SessionEmpty     SessionStatus = "empty"
	SessionOnePlayer SessionStatus = "one_player"
	SessionActive    SessionStatus = "active"
	SessionFinished  SessionStatus = "finished"
	SessionAbandoned SessionStatus = "abandoned"
)

// SessionSnapshot - копия казуальной сессии для кэша и ответов клиентам
type SessionSnapshot struct {
	ID        string             `json:"id"`
	GameType  game.GameType      `json:"game_type"`
	Stake     int64              `json:"stake"`
	Status    SessionStatus      `json:"status"`
	Players   []game.Participant `json:"players"`
	State     json.RawMessage    `json:"state,omitempty"`
	Result    *game.EndResult    `json:"result,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
