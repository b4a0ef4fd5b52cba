package domain

import (
	"context"
	"fmt"
)

// Gateway доставляет события подключенным клиентам. room - имя канала
// (сессия, матч, лобби, турнир), connID - конкретное соединение.
type Gateway interface {
	Join(connID, room string)
	Leave(connID, room string)
	Broadcast(room, event string, payload any)
	Emit(connID, event string, payload any)
}

// Ledger - единственный способ менять баланс пользователя
type Ledger interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	Debit(ctx context.Context, userID, amount int64, kind TransactionKind, meta map[string]interface{}) error
	Credit(ctx context.Context, userID, amount int64, kind TransactionKind, meta map[string]interface{}) error
}

type Recorder interface {
	RecordGame(ctx context.Context, rec *GameRecord) error
}

// Notifier создает долговременное уведомление (в БД и, если есть, в телеграм)
type Notifier interface {
	Notify(ctx context.Context, userID int64, title, message, link string) error
}

// Каналы для Gateway
func SessionChannel(id string) string    { return "session:" + id }
func MatchChannel(id string) string      { return "match:" + id }
func TournamentChannel(id string) string { return "tournament:" + id }
func LobbyChannel(gameType string) string {
	return "lobby:" + gameType
}

// TournamentsChannel - общий канал списка турниров
const TournamentsChannel = "tournaments"

// UserChannel - все соединения одного пользователя
func UserChannel(userID int64) string { return fmt.Sprintf("user:%d", userID) }
