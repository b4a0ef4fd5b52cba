package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
)

// отвечает за операции с базой данных для логов аудита
type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

const insertAuditSQL = `
	INSERT INTO audit_logs (user_id, action, category, details, ip, user_agent)
	VALUES ($1, $2, $3, $4, $5, $6)`

func auditDetails(entry *domain.AuditLog) []byte {
	if entry.Details == nil {
		return []byte("{}")
	}
	data, err := json.Marshal(entry.Details)
	if err != nil {
		return []byte("{}")
	}
	return data
}

func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	_, err := r.db.Exec(ctx, insertAuditSQL,
		entry.UserID, entry.Action, entry.Category, auditDetails(entry), entry.IP, entry.UserAgent)
	return err
}

// запись аудита в одной транзакции с движением баланса
func (r *AuditRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, entry *domain.AuditLog) error {
	_, err := tx.Exec(ctx, insertAuditSQL,
		entry.UserID, entry.Action, entry.Category, auditDetails(entry), entry.IP, entry.UserAgent)
	return err
}

func (r *AuditRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, action, category, details, ip, user_agent, created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		var entry domain.AuditLog
		var detailsJSON []byte
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.Category, &detailsJSON,
			&entry.IP, &entry.UserAgent, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &entry.Details); err != nil {
			entry.Details = make(map[string]interface{})
		}
		logs = append(logs, &entry)
	}
	return logs, rows.Err()
}
