package domain

import (
	"encoding/json"
	"time"
)

type TournamentStatus string

const (
	TournamentWaiting  TournamentStatus = "WAITING"
	TournamentActive   TournamentStatus = "ACTIVE"
	TournamentFinished TournamentStatus = "FINISHED"
)

type MatchStatus string

const (
	MatchPending  MatchStatus = "PENDING" // ждет победителей прошлого раунда
	MatchWaiting  MatchStatus = "WAITING" // игроки известны, люди еще не зашли
	MatchActive   MatchStatus = "ACTIVE"
	MatchFinished MatchStatus = "FINISHED"
)

// причины завершения матча
const (
	ReasonWin       = "win"
	ReasonForfeit   = "forfeit"
	ReasonDrawLimit = "draw_limit"
	ReasonBotBattle = "bot_battle"
	// движок не смог довести партию до корректного конца
	ReasonEngineError = "engine_error"
)

// допустимые размеры сетки
var TournamentCapacities = []int{4, 8, 16, 32}

type TournamentPlayer struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	IsBot        bool      `json:"is_bot"`
	RegisteredAt time.Time `json:"registered_at"`
}

type Match struct {
	ID       string               `json:"id"`
	Round    int                  `json:"round"`
	Index    int                  `json:"index"`
	Players  [2]*TournamentPlayer `json:"players"`
	Status   MatchStatus          `json:"status"`
	WinnerID int64                `json:"winner_id,omitempty"`
	Reason   string               `json:"reason,omitempty"`
}

// Ready - оба слота заполнены
func (m *Match) Ready() bool { return m.Players[0] != nil && m.Players[1] != nil }

// AllBots - матч между двумя ботами
func (m *Match) AllBots() bool {
	return m.Ready() && m.Players[0].IsBot && m.Players[1].IsBot
}

func (m *Match) Winner() *TournamentPlayer {
	for _, p := range m.Players {
		if p != nil && p.ID == m.WinnerID {
			return p
		}
	}
	return nil
}

type Round struct {
	Number  int      `json:"number"`
	Matches []*Match `json:"matches"`
}

// Complete - все матчи раунда завершены
func (r *Round) Complete() bool {
	for _, m := range r.Matches {
		if m.Status != MatchFinished {
			return false
		}
	}
	return true
}

type Tournament struct {
	ID                string              `db:"id" json:"id"`
	Name              string              `db:"name" json:"name"`
	GameType          string              `db:"game_type" json:"game_type"`
	Capacity          int                 `db:"capacity" json:"capacity"`
	EntryFee          int64               `db:"entry_fee" json:"entry_fee"`
	PrizePool         int64               `db:"prize_pool" json:"prize_pool"`
	Commission        int64               `db:"commission" json:"commission"`
	CommissionRate    float64             `db:"commission_rate" json:"commission_rate"`
	Status            TournamentStatus    `db:"status" json:"status"`
	Players           []*TournamentPlayer `db:"players" json:"players"`
	FirstRegisteredAt *time.Time          `db:"first_registered_at" json:"first_registered_at,omitempty"`
	Rounds            []*Round            `db:"bracket" json:"rounds"`
	WinnerID          int64               `db:"winner_id" json:"winner_id,omitempty"`
	Template          string              `db:"template" json:"template,omitempty"`
	Version           int64               `db:"version" json:"version"`
	CreatedAt         time.Time           `db:"created_at" json:"created_at"`
	StartedAt         *time.Time          `db:"started_at" json:"started_at,omitempty"`
	FinishedAt        *time.Time          `db:"finished_at" json:"finished_at,omitempty"`
}

func (t *Tournament) HasPlayer(userID int64) bool {
	return t.PlayerIndex(userID) >= 0
}

func (t *Tournament) PlayerIndex(userID int64) int {
	for i, p := range t.Players {
		if p.ID == userID {
			return i
		}
	}
	return -1
}

// FindMatch ищет матч по id во всех раундах
func (t *Tournament) FindMatch(matchID string) *Match {
	for _, r := range t.Rounds {
		for _, m := range r.Matches {
			if m.ID == matchID {
				return m
			}
		}
	}
	return nil
}

// MatchRoomRecord - сохраняемое состояние живой партии турнирного матча
type MatchRoomRecord struct {
	MatchID      string          `db:"match_id" json:"match_id"`
	TournamentID string          `db:"tournament_id" json:"tournament_id"`
	GameType     string          `db:"game_type" json:"game_type"`
	Round        int             `db:"round" json:"round"`
	Players      json.RawMessage `db:"players" json:"players"`
	State        json.RawMessage `db:"state" json:"state"`
	Replays      int             `db:"replays" json:"replays"`
	Status       MatchStatus     `db:"status" json:"status"`
	WinnerID     int64           `db:"winner_id" json:"winner_id,omitempty"`
	Version      int64           `db:"version" json:"version"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
