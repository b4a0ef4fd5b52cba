package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
)

type TournamentRepository struct {
	db *pgxpool.Pool
}

func NewTournamentRepository(db *pgxpool.Pool) *TournamentRepository {
	return &TournamentRepository{db: db}
}

// Save - upsert с проверкой версии: запись из устаревшего снимка не
// перетирает более новую, асинхронные сохранения могут прийти не по порядку
func (r *TournamentRepository) Save(ctx context.Context, t *domain.Tournament) error {
	playersJSON, err := json.Marshal(t.Players)
	if err != nil {
		return err
	}
	bracketJSON, err := json.Marshal(t.Rounds)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO tournaments (id, name, game_type, capacity, entry_fee, prize_pool, commission,
			commission_rate, status, players, bracket, first_registered_at, winner_id, template,
			version, created_at, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			players = EXCLUDED.players,
			bracket = EXCLUDED.bracket,
			first_registered_at = EXCLUDED.first_registered_at,
			winner_id = EXCLUDED.winner_id,
			version = EXCLUDED.version,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at
		WHERE tournaments.version < EXCLUDED.version
	`, t.ID, t.Name, t.GameType, t.Capacity, t.EntryFee, t.PrizePool, t.Commission,
		t.CommissionRate, t.Status, playersJSON, bracketJSON, t.FirstRegisteredAt, t.WinnerID, t.Template,
		t.Version, t.CreatedAt, t.StartedAt, t.FinishedAt)
	return err
}

const tournamentColumns = `id, name, game_type, capacity, entry_fee, prize_pool, commission,
	commission_rate, status, players, bracket, first_registered_at, winner_id, template,
	version, created_at, started_at, finished_at`

// возвращает nil, nil если турнира нет
func (r *TournamentRepository) Get(ctx context.Context, id string) (*domain.Tournament, error) {
	rows, err := r.db.Query(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list, err := scanTournaments(rows)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

func (r *TournamentRepository) ListByStatus(ctx context.Context, status domain.TournamentStatus, limit int) ([]*domain.Tournament, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+tournamentColumns+`
		FROM tournaments
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTournaments(rows)
}

func scanTournaments(rows pgx.Rows) ([]*domain.Tournament, error) {
	var out []*domain.Tournament
	for rows.Next() {
		var t domain.Tournament
		var playersJSON, bracketJSON []byte
		if err := rows.Scan(&t.ID, &t.Name, &t.GameType, &t.Capacity, &t.EntryFee, &t.PrizePool, &t.Commission,
			&t.CommissionRate, &t.Status, &playersJSON, &bracketJSON, &t.FirstRegisteredAt, &t.WinnerID, &t.Template,
			&t.Version, &t.CreatedAt, &t.StartedAt, &t.FinishedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(playersJSON, &t.Players); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(bracketJSON, &t.Rounds); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// SaveMatchRoom - тот же версионный upsert для живой партии матча
func (r *TournamentRepository) SaveMatchRoom(ctx context.Context, m *domain.MatchRoomRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO match_rooms (match_id, tournament_id, game_type, round, players, state, replays,
			status, winner_id, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (match_id) DO UPDATE SET
			state = EXCLUDED.state,
			replays = EXCLUDED.replays,
			status = EXCLUDED.status,
			winner_id = EXCLUDED.winner_id,
			version = EXCLUDED.version,
			updated_at = now()
		WHERE match_rooms.version < EXCLUDED.version
	`, m.MatchID, m.TournamentID, m.GameType, m.Round, []byte(m.Players), nullableJSON(m.State), m.Replays,
		m.Status, m.WinnerID, m.Version)
	return err
}

func (r *TournamentRepository) GetMatchRoom(ctx context.Context, matchID string) (*domain.MatchRoomRecord, error) {
	var m domain.MatchRoomRecord
	var players, state []byte
	err := r.db.QueryRow(ctx, `
		SELECT match_id, tournament_id, game_type, round, players, state, replays, status, winner_id, version, updated_at
		FROM match_rooms WHERE match_id = $1
	`, matchID).Scan(&m.MatchID, &m.TournamentID, &m.GameType, &m.Round, &players, &state, &m.Replays,
		&m.Status, &m.WinnerID, &m.Version, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.Players = players
	m.State = state
	return &m, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
