package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/repository"
)

var (
	ErrInsufficientFunds = domain.ErrInsufficientFunds
	ErrUserNotFound      = errors.New("пользователь не найден")
	ErrInvalidAmount     = errors.New("неверная сумма")
)

// BalanceService - реализация domain.Ledger поверх таблицы users
type BalanceService struct {
	db              *pgxpool.Pool
	transactionRepo *repository.TransactionRepository
	auditRepo       *repository.AuditRepository
}

func NewBalanceService(db *pgxpool.Pool) *BalanceService {
	return &BalanceService{
		db:              db,
		transactionRepo: repository.NewTransactionRepository(db),
		auditRepo:       repository.NewAuditRepository(db),
	}
}

var _ domain.Ledger = (*BalanceService)(nil)

// возвращает текущий баланс пользователя
func (s *BalanceService) Balance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return balance, nil
}

// списывает ставку или взнос
func (s *BalanceService) Debit(ctx context.Context, userID, amount int64, kind domain.TransactionKind, meta map[string]interface{}) error {
	return s.apply(ctx, userID, -amount, kind, meta)
}

// зачисляет выигрыш, приз или возврат взноса
func (s *BalanceService) Credit(ctx context.Context, userID, amount int64, kind domain.TransactionKind, meta map[string]interface{}) error {
	return s.apply(ctx, userID, amount, kind, meta)
}

// apply меняет баланс на delta, пишет транзакцию и аудит в одной транзакции БД
func (s *BalanceService) apply(ctx context.Context, userID, delta int64, kind domain.TransactionKind, meta map[string]interface{}) error {
	if delta == 0 {
		return ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// блокируем и проверяем баланс
	var balance int64
	err = tx.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if balance+delta < 0 {
		return ErrInsufficientFunds
	}

	var newBalance int64
	err = tx.QueryRow(ctx, `UPDATE users SET balance = balance + $1 WHERE id = $2 RETURNING balance`, delta, userID).Scan(&newBalance)
	if err != nil {
		return err
	}

	if err = s.transactionRepo.CreateWithTx(ctx, tx, &domain.Transaction{
		UserID: userID,
		Kind:   kind,
		Amount: delta,
		Meta:   meta,
	}); err != nil {
		return err
	}

	action := domain.AuditActionBalanceCredit
	if delta < 0 {
		action = domain.AuditActionBalanceDebit
	}
	if err = s.auditRepo.CreateWithTx(ctx, tx, &domain.AuditLog{
		UserID:   userID,
		Action:   action,
		Category: domain.AuditCategoryBalance,
		Details:  map[string]interface{}{"kind": kind, "change": delta, "balance": newBalance},
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// возвращает историю транзакций пользователя
func (s *BalanceService) GetTransactionHistory(ctx context.Context, userID int64, limit int) ([]*domain.Transaction, error) {
	return s.transactionRepo.GetByUserID(ctx, userID, limit)
}
