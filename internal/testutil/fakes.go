// Package testutil содержит in-memory реализации внешних зависимостей ядра
// для тестов room и tournament.
package testutil

import (
	"context"
	"sync"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
)

// Event - одно отправленное событие
type Event struct {
	Target  string // канал или connID
	Name    string
	Payload any
}

type Gateway struct {
	mu         sync.Mutex
	members    map[string]map[string]bool
	Broadcasts []Event
	Emits      []Event
}

func NewGateway() *Gateway {
	return &Gateway{members: make(map[string]map[string]bool)}
}

var _ domain.Gateway = (*Gateway)(nil)

func (g *Gateway) Join(connID, room string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.members[room] == nil {
		g.members[room] = make(map[string]bool)
	}
	g.members[room][connID] = true
}

func (g *Gateway) Leave(connID, room string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.members[room], connID)
}

func (g *Gateway) InRoom(connID, room string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.members[room][connID]
}

func (g *Gateway) Broadcast(room, event string, payload any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Broadcasts = append(g.Broadcasts, Event{Target: room, Name: event, Payload: payload})
}

func (g *Gateway) Emit(connID, event string, payload any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Emits = append(g.Emits, Event{Target: connID, Name: event, Payload: payload})
}

// Count считает отправленные события с именем name (broadcast и emit)
func (g *Gateway) Count(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, e := range g.Broadcasts {
		if e.Name == name {
			n++
		}
	}
	for _, e := range g.Emits {
		if e.Name == name {
			n++
		}
	}
	return n
}

// Last возвращает последнее событие name, отправленное в target
func (g *Gateway) Last(target, name string) (Event, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	all := append(append([]Event{}, g.Broadcasts...), g.Emits...)
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Target == target && all[i].Name == name {
			return all[i], true
		}
	}
	return Event{}, false
}

type Ledger struct {
	mu       sync.Mutex
	balances map[int64]int64
	Txs      []domain.Transaction
}

func NewLedger(balances map[int64]int64) *Ledger {
	l := &Ledger{balances: make(map[int64]int64)}
	for id, b := range balances {
		l.balances[id] = b
	}
	return l
}

var _ domain.Ledger = (*Ledger)(nil)

func (l *Ledger) Balance(_ context.Context, userID int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

func (l *Ledger) Debit(_ context.Context, userID, amount int64, kind domain.TransactionKind, meta map[string]interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[userID] < amount {
		return domain.ErrInsufficientFunds
	}
	l.balances[userID] -= amount
	l.Txs = append(l.Txs, domain.Transaction{UserID: userID, Kind: kind, Amount: -amount, Meta: meta})
	return nil
}

func (l *Ledger) Credit(_ context.Context, userID, amount int64, kind domain.TransactionKind, meta map[string]interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] += amount
	l.Txs = append(l.Txs, domain.Transaction{UserID: userID, Kind: kind, Amount: amount, Meta: meta})
	return nil
}

// Kinds возвращает транзакции пользователя указанного вида
func (l *Ledger) Kinds(userID int64, kind domain.TransactionKind) []domain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.Transaction
	for _, t := range l.Txs {
		if t.UserID == userID && t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

type Recorder struct {
	mu      sync.Mutex
	Records []domain.GameRecord
}

func (r *Recorder) RecordGame(_ context.Context, rec *domain.GameRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Records = append(r.Records, *rec)
	return nil
}

func (r *Recorder) All() []domain.GameRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.GameRecord(nil), r.Records...)
}

type Notification struct {
	UserID         int64
	Title, Message string
	Link           string
}

type Notifier struct {
	mu   sync.Mutex
	Sent []Notification
}

func (n *Notifier) Notify(_ context.Context, userID int64, title, message, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, Notification{UserID: userID, Title: title, Message: message, Link: link})
	return nil
}

func (n *Notifier) For(userID int64) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Notification
	for _, s := range n.Sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

// Auditor запоминает действия в турнирах
type Auditor struct {
	mu      sync.Mutex
	actions map[int64][]string
}

func (a *Auditor) LogTournament(_ context.Context, userID int64, action, _ string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.actions == nil {
		a.actions = make(map[int64][]string)
	}
	a.actions[userID] = append(a.actions[userID], action)
}

func (a *Auditor) Actions(userID int64) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.actions[userID]...)
}
