package domain

import (
	"errors"
	"time"
)

var ErrInsufficientFunds = errors.New("недостаточно средств")

type TransactionKind string

const (
	TxWagerWin         TransactionKind = "WAGER_WIN"
	TxWagerLoss        TransactionKind = "WAGER_LOSS"
	TxTournamentFee    TransactionKind = "TOURNAMENT_FEE"
	TxTournamentRefund TransactionKind = "TOURNAMENT_REFUND"
	TxTournamentPrize  TransactionKind = "TOURNAMENT_PRIZE"
)

// Transaction - запись в журнале движения баланса
type Transaction struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Kind      TransactionKind        `db:"kind" json:"kind"`
	Amount    int64                  `db:"amount" json:"amount"` // знак: + зачисление, - списание
	Meta      map[string]interface{} `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}
