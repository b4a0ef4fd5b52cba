// Package tournament ведет турниры на выбывание: регистрацию со взносом,
// добор ботов по таймеру, сетку, матчи с переигровкой ничьих и выплату приза.
package tournament

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/config"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/game"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/logger"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/sched"
)

var (
	ErrTournamentNotFound = errors.New("турнир не найден")
	ErrInvalidCapacity    = errors.New("недопустимый размер турнира")
	ErrInvalidFee         = errors.New("неверный взнос")
	ErrRegistrationClosed = errors.New("регистрация закрыта")
	ErrAlreadyRegistered  = errors.New("игрок уже зарегистрирован")
	ErrNotRegistered      = errors.New("игрок не зарегистрирован")
	ErrFull               = errors.New("турнир заполнен")
	ErrMatchNotFound      = errors.New("матч не найден")
	ErrMatchFinished      = errors.New("матч уже завершен")
	ErrMatchNotActive     = errors.New("матч еще не начался")
	ErrNotParticipant     = errors.New("игрок не участвует в матче")
	ErrInsufficientFunds  = domain.ErrInsufficientFunds
)

const (
	persistTimeout     = 5 * time.Second
	defaultBotCycleCap = 50
)

// Repository - хранилище турниров и партий матчей
type Repository interface {
	Save(ctx context.Context, t *domain.Tournament) error
	Get(ctx context.Context, id string) (*domain.Tournament, error)
	ListByStatus(ctx context.Context, status domain.TournamentStatus, limit int) ([]*domain.Tournament, error)
	SaveMatchRoom(ctx context.Context, r *domain.MatchRoomRecord) error
	GetMatchRoom(ctx context.Context, matchID string) (*domain.MatchRoomRecord, error)
}

// Auditor пишет действия игроков в журнал аудита
type Auditor interface {
	LogTournament(ctx context.Context, userID int64, action, tournamentID string)
}

type Deps struct {
	Registry *game.Registry
	Gateway  domain.Gateway
	Ledger   domain.Ledger
	Recorder domain.Recorder
	Notifier domain.Notifier
	Repo     Repository // может быть nil
	Audit    Auditor    // может быть nil
}

// entry - турнир в памяти со своей блокировкой и таймером добора
type entry struct {
	mu   sync.Mutex
	t    *domain.Tournament
	fill sched.Task
}

type Manager struct {
	mu          sync.RWMutex
	tournaments map[string]*entry
	rooms       map[string]*MatchRoom
	userRooms   map[int64]string

	cfg      config.TournamentConfig
	registry *game.Registry
	gateway  domain.Gateway
	ledger   domain.Ledger
	recorder domain.Recorder
	notifier domain.Notifier
	audit    Auditor
	repo     Repository
	log      *slog.Logger

	botSeq atomic.Int64
}

func NewManager(cfg config.TournamentConfig, deps Deps) *Manager {
	return &Manager{
		tournaments: make(map[string]*entry),
		rooms:       make(map[string]*MatchRoom),
		userRooms:   make(map[int64]string),
		cfg:         cfg,
		registry:    deps.Registry,
		gateway:     deps.Gateway,
		ledger:      deps.Ledger,
		recorder:    deps.Recorder,
		notifier:    deps.Notifier,
		audit:       deps.Audit,
		repo:        deps.Repo,
		log:         logger.With("component", "tournament"),
	}
}

// CreateParams - параметры нового турнира
type CreateParams struct {
	Name     string
	GameType game.GameType
	Capacity int
	EntryFee int64
	Template string
}

// CreateTournament считает призовой фонд и комиссию от entryFee*capacity
func (m *Manager) CreateTournament(ctx context.Context, p CreateParams) (*domain.Tournament, error) {
	if _, err := m.registry.Get(p.GameType); err != nil {
		return nil, err
	}
	if !slices.Contains(domain.TournamentCapacities, p.Capacity) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, p.Capacity)
	}
	if p.EntryFee < 0 {
		return nil, ErrInvalidFee
	}
	if p.Name == "" {
		p.Name = fmt.Sprintf("%s, %d игроков", p.GameType, p.Capacity)
	}

	total := p.EntryFee * int64(p.Capacity)
	commission := int64(float64(total) * m.cfg.CommissionRate)
	t := &domain.Tournament{
		ID:             uuid.NewString(),
		Name:           p.Name,
		GameType:       string(p.GameType),
		Capacity:       p.Capacity,
		EntryFee:       p.EntryFee,
		PrizePool:      total - commission,
		Commission:     commission,
		CommissionRate: m.cfg.CommissionRate,
		Status:         domain.TournamentWaiting,
		Players:        []*domain.TournamentPlayer{},
		Template:       p.Template,
		Version:        1,
		CreatedAt:      time.Now(),
	}

	m.mu.Lock()
	m.tournaments[t.ID] = &entry{t: t}
	m.mu.Unlock()

	snap := cloneTournament(t)
	m.persist(snap)
	m.log.Info("tournament created", "tournament_id", t.ID, "game_type", t.GameType, "capacity", t.Capacity, "entry_fee", t.EntryFee)
	m.gateway.Broadcast(domain.TournamentsChannel, domain.EventTournamentUpdated, snap)
	return snap, nil
}

func (m *Manager) entry(id string) *entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tournaments[id]
}

// Register списывает взнос и добавляет игрока. Первая регистрация
// запускает таймер добора ботов, заполнение турнира запускает его сразу.
func (m *Manager) Register(ctx context.Context, p game.Participant, tournamentID string) error {
	e := m.entry(tournamentID)
	if e == nil {
		return ErrTournamentNotFound
	}

	e.mu.Lock()
	if err := canRegister(e.t, p.ID); err != nil {
		e.mu.Unlock()
		return err
	}
	fee := e.t.EntryFee
	e.mu.Unlock()

	meta := map[string]interface{}{"tournament_id": tournamentID}
	if fee > 0 {
		if err := m.ledger.Debit(ctx, p.ID, fee, domain.TxTournamentFee, meta); err != nil {
			return err
		}
	}

	e.mu.Lock()
	// пока списывали взнос, турнир мог заполниться или стартовать
	if err := canRegister(e.t, p.ID); err != nil {
		e.mu.Unlock()
		m.refund(ctx, p.ID, fee, meta)
		return err
	}
	now := time.Now()
	e.t.Players = append(e.t.Players, &domain.TournamentPlayer{ID: p.ID, Name: p.Name, RegisteredAt: now})
	if e.t.FirstRegisteredAt == nil {
		e.t.FirstRegisteredAt = &now
		e.fill.Schedule(m.cfg.FillDelay, func(gen uint64) { m.fillExpired(tournamentID, gen) })
	}
	full := len(e.t.Players) == e.t.Capacity
	if full {
		e.fill.Stop()
	}
	e.t.Version++
	snap := cloneTournament(e.t)
	e.mu.Unlock()

	m.persist(snap)
	m.auditLog(ctx, p.ID, domain.AuditActionTournamentRegister, tournamentID)
	m.log.Info("player registered", "tournament_id", tournamentID, "user_id", p.ID, "players", len(snap.Players))
	if p.ConnID != "" {
		m.gateway.Join(p.ConnID, domain.TournamentChannel(tournamentID))
	}
	m.broadcastUpdated(snap)

	if full {
		m.start(ctx, tournamentID, false)
	}
	return nil
}

func (m *Manager) auditLog(ctx context.Context, userID int64, action, tournamentID string) {
	if m.audit != nil {
		m.audit.LogTournament(ctx, userID, action, tournamentID)
	}
}

func canRegister(t *domain.Tournament, userID int64) error {
	if t.Status != domain.TournamentWaiting {
		return ErrRegistrationClosed
	}
	if t.HasPlayer(userID) {
		return ErrAlreadyRegistered
	}
	if len(t.Players) >= t.Capacity {
		return ErrFull
	}
	return nil
}

func (m *Manager) refund(ctx context.Context, userID, fee int64, meta map[string]interface{}) {
	if fee <= 0 {
		return
	}
	if err := m.ledger.Credit(ctx, userID, fee, domain.TxTournamentRefund, meta); err != nil {
		m.log.Error("failed to refund entry fee", "error", err, "user_id", userID, "meta", meta)
	}
}

// Unregister возвращает взнос. Если список опустел, таймер добора снимается.
func (m *Manager) Unregister(ctx context.Context, userID int64, tournamentID string) error {
	e := m.entry(tournamentID)
	if e == nil {
		return ErrTournamentNotFound
	}

	e.mu.Lock()
	if e.t.Status != domain.TournamentWaiting {
		e.mu.Unlock()
		return ErrRegistrationClosed
	}
	idx := e.t.PlayerIndex(userID)
	if idx < 0 {
		e.mu.Unlock()
		return ErrNotRegistered
	}
	e.t.Players = append(e.t.Players[:idx], e.t.Players[idx+1:]...)
	if len(e.t.Players) == 0 {
		e.t.FirstRegisteredAt = nil
		e.fill.Stop()
	}
	e.t.Version++
	fee := e.t.EntryFee
	snap := cloneTournament(e.t)
	e.mu.Unlock()

	m.refund(ctx, userID, fee, map[string]interface{}{"tournament_id": tournamentID})
	m.persist(snap)
	m.auditLog(ctx, userID, domain.AuditActionTournamentUnregister, tournamentID)
	m.log.Info("player unregistered", "tournament_id", tournamentID, "user_id", userID)
	m.broadcastUpdated(snap)
	return nil
}

func (m *Manager) fillExpired(tournamentID string, gen uint64) {
	e := m.entry(tournamentID)
	if e == nil {
		return
	}
	e.mu.Lock()
	if !e.fill.Current(gen) || e.t.Status != domain.TournamentWaiting {
		e.mu.Unlock()
		return
	}
	e.fill.Stop()
	e.mu.Unlock()

	m.log.Info("fill timer expired", "tournament_id", tournamentID)
	m.start(context.Background(), tournamentID, true)
}

// Get возвращает копию турнира; если его нет в памяти, читает из хранилища
func (m *Manager) Get(ctx context.Context, id string) (*domain.Tournament, error) {
	if e := m.entry(id); e != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
		return cloneTournament(e.t), nil
	}
	if m.repo == nil {
		return nil, ErrTournamentNotFound
	}
	t, err := m.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load tournament: %w", err)
	}
	if t == nil {
		return nil, ErrTournamentNotFound
	}
	return t, nil
}

// List - турниры в памяти; пустой status означает все
func (m *Manager) List(status domain.TournamentStatus) []*domain.Tournament {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.tournaments))
	for _, e := range m.tournaments {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	out := make([]*domain.Tournament, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if status == "" || e.t.Status == status {
			out = append(out, cloneTournament(e.t))
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// History - завершенные турниры из хранилища
func (m *Manager) History(ctx context.Context, limit int) ([]*domain.Tournament, error) {
	if m.repo == nil {
		return m.List(domain.TournamentFinished), nil
	}
	return m.repo.ListByStatus(ctx, domain.TournamentFinished, limit)
}

// EnsureOpen держит по одному открытому турниру на каждый шаблон
func (m *Manager) EnsureOpen(ctx context.Context, templates []config.TemplateConfig) int {
	open := make(map[string]bool)
	for _, t := range m.List(domain.TournamentWaiting) {
		if t.Template != "" {
			open[t.Template] = true
		}
	}

	created := 0
	for _, tpl := range templates {
		key := templateKey(tpl)
		if open[key] {
			continue
		}
		_, err := m.CreateTournament(ctx, CreateParams{
			GameType: game.GameType(tpl.GameType),
			Capacity: tpl.Capacity,
			EntryFee: tpl.EntryFee,
			Template: key,
		})
		if err != nil {
			m.log.Error("failed to create tournament from template", "error", err, "template", key)
			continue
		}
		open[key] = true
		created++
	}
	return created
}

func templateKey(tpl config.TemplateConfig) string {
	return fmt.Sprintf("%s:%d:%d", tpl.GameType, tpl.Capacity, tpl.EntryFee)
}

// Sweep выгружает из памяти завершенные турниры старше Retention вместе с их матчами
func (m *Manager) Sweep(now time.Time) int {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.tournaments))
	for _, e := range m.tournaments {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	expired := make(map[string]bool)
	for _, e := range entries {
		e.mu.Lock()
		if e.t.Status == domain.TournamentFinished && e.t.FinishedAt != nil && now.Sub(*e.t.FinishedAt) >= m.cfg.Retention {
			expired[e.t.ID] = true
		}
		e.mu.Unlock()
	}
	if len(expired) == 0 {
		return 0
	}

	m.mu.Lock()
	for id := range expired {
		delete(m.tournaments, id)
	}
	for matchID, r := range m.rooms {
		if expired[r.TournamentID] {
			delete(m.rooms, matchID)
		}
	}
	for userID, matchID := range m.userRooms {
		if _, ok := m.rooms[matchID]; !ok {
			delete(m.userRooms, userID)
		}
	}
	m.mu.Unlock()
	m.log.Debug("tournaments swept", "count", len(expired))
	return len(expired)
}

func (m *Manager) broadcastUpdated(t *domain.Tournament) {
	m.gateway.Broadcast(domain.TournamentChannel(t.ID), domain.EventTournamentUpdated, t)
	m.gateway.Broadcast(domain.TournamentsChannel, domain.EventTournamentUpdated, t)
}

// persist сохраняет снимок асинхронно. Порядок записей не важен:
// хранилище отбрасывает версии старше уже записанной.
func (m *Manager) persist(t *domain.Tournament) {
	if m.repo == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := m.repo.Save(ctx, t); err != nil {
			m.log.Error("failed to persist tournament", "error", err, "tournament_id", t.ID, "version", t.Version)
		}
	}()
}

func (m *Manager) persistRoom(rec *domain.MatchRoomRecord) {
	if m.repo == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := m.repo.SaveMatchRoom(ctx, rec); err != nil {
			m.log.Error("failed to persist match room", "error", err, "match_id", rec.MatchID, "version", rec.Version)
		}
	}()
}

// cloneTournament - глубокая копия через JSON, сетка и игроки не разделяются
func cloneTournament(t *domain.Tournament) *domain.Tournament {
	data, err := json.Marshal(t)
	if err != nil {
		return nil
	}
	var c domain.Tournament
	if err := json.Unmarshal(data, &c); err != nil {
		return nil
	}
	return &c
}
