package domain

import "time"

type GameResult string

const (
	ResultWon  GameResult = "WON"
	ResultLost GameResult = "LOST"
	ResultDraw GameResult = "DRAW"
)

// GameRecord - итог завершенной партии для одного игрока
type GameRecord struct {
	ID           int64      `db:"id" json:"id"`
	UserID       int64      `db:"user_id" json:"user_id"`
	GameType     string     `db:"game_type" json:"game_type"`
	Opponent     string     `db:"opponent" json:"opponent"`
	Result       GameResult `db:"result" json:"result"`
	Stake        int64      `db:"stake" json:"stake"`
	SessionID    string     `db:"session_id" json:"session_id,omitempty"`
	TournamentID string     `db:"tournament_id" json:"tournament_id,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
