package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert создает пользователя по tg_id или обновляет имя существующего
func (r *UserRepository) Upsert(ctx context.Context, u *domain.User) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO users (tg_id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (tg_id) DO UPDATE
		SET username = EXCLUDED.username, first_name = EXCLUDED.first_name
		RETURNING id, balance, created_at
	`, u.TgID, u.Username, u.FirstName).Scan(&u.ID, &u.Balance, &u.CreatedAt)
}

// возвращает nil, nil если пользователя нет
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, `
		SELECT id, tg_id, username, first_name, balance, created_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.Balance, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// TgIDByUserID нужен для отправки уведомлений в телеграм
func (r *UserRepository) TgIDByUserID(ctx context.Context, id int64) (int64, error) {
	var tgID int64
	err := r.db.QueryRow(ctx, `SELECT tg_id FROM users WHERE id = $1`, id).Scan(&tgID)
	return tgID, err
}
