package service

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/logger"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/repository"
)

// обрабатывает логирование аудита
type AuditService struct {
	repo *repository.AuditRepository
}

func NewAuditService(db *pgxpool.Pool) *AuditService {
	return &AuditService{repo: repository.NewAuditRepository(db)}
}

// Log пишет запись аудита, ошибка записи только логируется
func (s *AuditService) Log(ctx context.Context, userID int64, action, category string, details map[string]interface{}) {
	s.write(ctx, &domain.AuditLog{UserID: userID, Action: action, Category: category, Details: details})
}

func (s *AuditService) write(ctx context.Context, entry *domain.AuditLog) {
	if err := s.repo.Create(ctx, entry); err != nil {
		logger.Error("не удалось создать запись аудита", "error", err, "action", entry.Action, "user_id", entry.UserID)
	}
}

// логирует вход пользователя
func (s *AuditService) LogLogin(ctx context.Context, userID int64, ip, userAgent string) {
	s.write(ctx, &domain.AuditLog{
		UserID:    userID,
		Action:    domain.AuditActionLogin,
		Category:  domain.AuditCategoryAuth,
		IP:        ip,
		UserAgent: userAgent,
	})
}

// логирует итог партии
func (s *AuditService) LogGame(ctx context.Context, rec *domain.GameRecord) {
	s.Log(ctx, rec.UserID, domain.AuditActionGameEnd, domain.AuditCategoryGame, map[string]interface{}{
		"game_type":     rec.GameType,
		"result":        rec.Result,
		"stake":         rec.Stake,
		"opponent":      rec.Opponent,
		"session_id":    rec.SessionID,
		"tournament_id": rec.TournamentID,
	})
}

// логирует действие в турнире
func (s *AuditService) LogTournament(ctx context.Context, userID int64, action, tournamentID string) {
	s.Log(ctx, userID, action, domain.AuditCategoryTournament, map[string]interface{}{"tournament_id": tournamentID})
}

func (s *AuditService) GetUserAuditLogs(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	return s.repo.GetByUserID(ctx, userID, limit)
}
