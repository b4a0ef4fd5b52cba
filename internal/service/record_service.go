package service

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/repository"
)

// RecordService - запись итогов партий (domain.Recorder)
type RecordService struct {
	repo  *repository.GameRecordRepository
	audit *AuditService
}

func NewRecordService(db *pgxpool.Pool, audit *AuditService) *RecordService {
	return &RecordService{repo: repository.NewGameRecordRepository(db), audit: audit}
}

var _ domain.Recorder = (*RecordService)(nil)

func (s *RecordService) RecordGame(ctx context.Context, rec *domain.GameRecord) error {
	if err := s.repo.Create(ctx, rec); err != nil {
		return err
	}
	if s.audit != nil {
		s.audit.LogGame(ctx, rec)
	}
	return nil
}

func (s *RecordService) History(ctx context.Context, userID int64, limit int) ([]*domain.GameRecord, error) {
	return s.repo.GetByUser(ctx, userID, limit)
}

func (s *RecordService) Stats(ctx context.Context, userID int64) (repository.GameStats, error) {
	return s.repo.GetUserStats(ctx, userID)
}
