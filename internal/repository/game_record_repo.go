package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
)

type GameRecordRepository struct {
	db *pgxpool.Pool
}

func NewGameRecordRepository(db *pgxpool.Pool) *GameRecordRepository {
	return &GameRecordRepository{db: db}
}

func (r *GameRecordRepository) Create(ctx context.Context, rec *domain.GameRecord) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO game_records (user_id, game_type, opponent, result, stake, session_id, tournament_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, rec.UserID, rec.GameType, rec.Opponent, rec.Result, rec.Stake, rec.SessionID, rec.TournamentID,
	).Scan(&rec.ID, &rec.CreatedAt)
}

// история игр пользователя, новые сверху
func (r *GameRecordRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*domain.GameRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, game_type, opponent, result, stake, session_id, tournament_id, created_at
		FROM game_records
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanGameRecords(rows)
}

type GameStats struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

func (r *GameRecordRepository) GetUserStats(ctx context.Context, userID int64) (GameStats, error) {
	var s GameStats
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE result = 'WON'),
			COUNT(*) FILTER (WHERE result = 'LOST'),
			COUNT(*) FILTER (WHERE result = 'DRAW')
		FROM game_records WHERE user_id = $1
	`, userID).Scan(&s.Wins, &s.Losses, &s.Draws)
	return s, err
}

func scanGameRecords(rows pgx.Rows) ([]*domain.GameRecord, error) {
	var out []*domain.GameRecord
	for rows.Next() {
		var rec domain.GameRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.GameType, &rec.Opponent, &rec.Result,
			&rec.Stake, &rec.SessionID, &rec.TournamentID, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}
