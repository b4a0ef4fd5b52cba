package tournament

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/game"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/metrics"
)

type StartedPayload struct {
	TournamentID string          `json:"tournament_id"`
	Rounds       []*domain.Round `json:"rounds"`
}

type FinishedPayload struct {
	TournamentID string `json:"tournament_id"`
	WinnerID     int64  `json:"winner_id"`
	WinnerName   string `json:"winner_name"`
	Prize        int64  `json:"prize"`
}

// buildBracket: первый раунд - пары по порядку из уже перемешанного
// списка, остальные раунды - пустые заготовки вдвое меньше предыдущего
func buildBracket(players []*domain.TournamentPlayer) []*domain.Round {
	first := &domain.Round{Number: 1}
	for i := 0; i+1 < len(players); i += 2 {
		first.Matches = append(first.Matches, &domain.Match{
			ID:      uuid.NewString(),
			Round:   1,
			Index:   i / 2,
			Players: [2]*domain.TournamentPlayer{players[i], players[i+1]},
			Status:  domain.MatchWaiting,
		})
	}

	rounds := []*domain.Round{first}
	for size, num := len(players)/4, 2; size >= 1; size, num = size/2, num+1 {
		r := &domain.Round{Number: num}
		for j := 0; j < size; j++ {
			r.Matches = append(r.Matches, &domain.Match{
				ID:     uuid.NewString(),
				Round:  num,
				Index:  j,
				Status: domain.MatchPending,
			})
		}
		rounds = append(rounds, r)
	}
	return rounds
}

// roundWinners - победители в порядке матчей
func roundWinners(r *domain.Round) []*domain.TournamentPlayer {
	winners := make([]*domain.TournamentPlayer, 0, len(r.Matches))
	for _, mt := range r.Matches {
		if w := mt.Winner(); w != nil {
			winners = append(winners, w)
		}
	}
	return winners
}

// pairWinners раскладывает победителей по заготовкам следующего раунда:
// winners[0] с winners[1], winners[2] с winners[3] и т.д. Уже заполненные
// матчи не трогаются, поэтому повторный вызов ничего не меняет.
func pairWinners(winners []*domain.TournamentPlayer, next *domain.Round) []*domain.Match {
	var filled []*domain.Match
	for j, mt := range next.Matches {
		if mt.Ready() || 2*j+1 >= len(winners) {
			continue
		}
		mt.Players = [2]*domain.TournamentPlayer{winners[2*j], winners[2*j+1]}
		mt.Status = domain.MatchWaiting
		filled = append(filled, mt)
	}
	return filled
}

func roundLabel(round, total int) string {
	switch total - round {
	case 0:
		return "Финал"
	case 1:
		return "Полуфинал"
	case 2:
		return "1/4 финала"
	case 3:
		return "1/8 финала"
	}
	return fmt.Sprintf("Раунд %d", round)
}

func hasHuman(mt *domain.Match) bool {
	for _, p := range mt.Players {
		if p != nil && !p.IsBot {
			return true
		}
	}
	return false
}

// start формирует сетку. pad=true добирает недостающих игроков ботами
// (срабатывание таймера), иначе старт только при полном составе.
func (m *Manager) start(ctx context.Context, tournamentID string, pad bool) {
	e := m.entry(tournamentID)
	if e == nil {
		return
	}

	e.mu.Lock()
	if e.t.Status != domain.TournamentWaiting || (!pad && len(e.t.Players) < e.t.Capacity) {
		e.mu.Unlock()
		return
	}
	e.fill.Stop()
	now := time.Now()
	bots := 0
	for len(e.t.Players) < e.t.Capacity {
		bot := game.NewBot(m.botSeq.Add(1))
		e.t.Players = append(e.t.Players, &domain.TournamentPlayer{ID: bot.ID, Name: bot.Name, IsBot: true, RegisteredAt: now})
		bots++
	}

	order := append([]*domain.TournamentPlayer(nil), e.t.Players...)
	game.Shuffle(order)
	e.t.Rounds = buildBracket(order)
	e.t.Status = domain.TournamentActive
	e.t.StartedAt = &now
	e.t.Version++
	snap := cloneTournament(e.t)
	e.mu.Unlock()

	metrics.TournamentsActive.Inc()
	m.persist(snap)
	m.log.Info("tournament started", "tournament_id", tournamentID, "players", len(snap.Players), "bots", bots)
	m.gateway.Broadcast(domain.TournamentChannel(tournamentID), domain.EventTournamentStarted,
		StartedPayload{TournamentID: tournamentID, Rounds: snap.Rounds})
	m.broadcastUpdated(snap)

	for _, mt := range snap.Rounds[0].Matches {
		if hasHuman(mt) {
			m.openRoom(snap, mt)
		}
	}
	m.Advance(ctx, tournamentID)
}

// Advance продвигает сетку: досрочно решает матчи бот против бота,
// заполняет следующий раунд после завершения текущего и завершает турнир
// после финала. Можно вызывать сколько угодно раз: если делать нечего,
// ничего не меняется.
func (m *Manager) Advance(ctx context.Context, tournamentID string) {
	e := m.entry(tournamentID)
	if e == nil {
		return
	}

	e.mu.Lock()
	if e.t.Status != domain.TournamentActive {
		e.mu.Unlock()
		return
	}

	var (
		filled   []*domain.Match
		resolved int
		finished bool
	)
	for i, r := range e.t.Rounds {
		for _, mt := range r.Matches {
			if mt.Status != domain.MatchFinished && mt.AllBots() {
				mt.WinnerID = mt.Players[game.RandIntn(2)].ID
				mt.Status = domain.MatchFinished
				mt.Reason = domain.ReasonBotBattle
				resolved++
				metrics.MatchesFinished.WithLabelValues(domain.ReasonBotBattle).Inc()
			}
		}
		if !r.Complete() {
			break
		}
		if i == len(e.t.Rounds)-1 {
			now := time.Now()
			e.t.Status = domain.TournamentFinished
			e.t.WinnerID = r.Matches[0].WinnerID
			e.t.FinishedAt = &now
			finished = true
			break
		}
		filled = append(filled, pairWinners(roundWinners(r), e.t.Rounds[i+1])...)
	}

	if resolved == 0 && len(filled) == 0 && !finished {
		e.mu.Unlock()
		return
	}
	e.t.Version++
	snap := cloneTournament(e.t)
	e.mu.Unlock()

	m.persist(snap)
	m.broadcastUpdated(snap)
	m.log.Info("bracket advanced", "tournament_id", tournamentID, "bot_matches", resolved, "new_matches", len(filled), "finished", finished)

	for _, mt := range filled {
		cur := snap.FindMatch(mt.ID)
		if cur != nil && cur.Status != domain.MatchFinished && hasHuman(cur) {
			m.openRoom(snap, cur)
		}
	}
	if finished {
		m.settle(ctx, snap)
	}
}

// scheduleAdvance - повторная попытка на случай, если первая пришлась
// на момент, когда раунд еще не был закрыт
func (m *Manager) scheduleAdvance(tournamentID string) {
	time.AfterFunc(m.cfg.AdvanceRetry, func() { m.Advance(context.Background(), tournamentID) })
}

// completeMatch фиксирует победителя матча в сетке. Повторный вызов для
// уже завершенного матча ничего не делает.
func (m *Manager) completeMatch(ctx context.Context, tournamentID, matchID string, winnerID int64, reason string) {
	e := m.entry(tournamentID)
	if e == nil {
		return
	}
	e.mu.Lock()
	mt := e.t.FindMatch(matchID)
	if mt == nil || mt.Status == domain.MatchFinished {
		e.mu.Unlock()
		return
	}
	mt.Status = domain.MatchFinished
	mt.WinnerID = winnerID
	mt.Reason = reason
	e.t.Version++
	snap := cloneTournament(e.t)
	e.mu.Unlock()

	m.persist(snap)
	m.broadcastUpdated(snap)
	m.Advance(ctx, tournamentID)
	m.scheduleAdvance(tournamentID)
}

// markMatchActive - все люди матча зашли в комнату
func (m *Manager) markMatchActive(tournamentID, matchID string) {
	e := m.entry(tournamentID)
	if e == nil {
		return
	}
	e.mu.Lock()
	mt := e.t.FindMatch(matchID)
	if mt == nil || mt.Status != domain.MatchWaiting {
		e.mu.Unlock()
		return
	}
	mt.Status = domain.MatchActive
	e.t.Version++
	snap := cloneTournament(e.t)
	e.mu.Unlock()

	m.persist(snap)
	m.broadcastUpdated(snap)
}

// settle - выплата приза и уведомления. Вызывается один раз: только тот,
// кто перевел турнир в FINISHED, получает finished=true в Advance.
func (m *Manager) settle(ctx context.Context, t *domain.Tournament) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	metrics.TournamentsActive.Dec()
	metrics.TournamentsFinished.Inc()

	var winner *domain.TournamentPlayer
	for _, p := range t.Players {
		if p.ID == t.WinnerID {
			winner = p
		}
	}
	winnerName := ""
	if winner != nil {
		winnerName = winner.Name
		if !winner.IsBot && t.PrizePool > 0 {
			meta := map[string]interface{}{"tournament_id": t.ID}
			if err := m.ledger.Credit(ctx, winner.ID, t.PrizePool, domain.TxTournamentPrize, meta); err != nil {
				m.log.Error("failed to credit prize", "error", err, "tournament_id", t.ID, "user_id", winner.ID)
			}
		}
	}

	link := "/tournaments/" + t.ID
	for _, p := range t.Players {
		if p.IsBot {
			continue
		}
		m.auditLog(ctx, p.ID, domain.AuditActionTournamentFinish, t.ID)
		if m.notifier == nil {
			continue
		}
		title := "Турнир завершен"
		msg := fmt.Sprintf("Турнир «%s» завершен. Победитель: %s", t.Name, winnerName)
		if p.ID == t.WinnerID {
			title = "Победа в турнире"
			msg = fmt.Sprintf("Вы выиграли турнир «%s». Приз: %d", t.Name, t.PrizePool)
		}
		if err := m.notifier.Notify(ctx, p.ID, title, msg, link); err != nil {
			m.log.Error("failed to notify player", "error", err, "tournament_id", t.ID, "user_id", p.ID)
		}
	}

	payload := FinishedPayload{TournamentID: t.ID, WinnerID: t.WinnerID, WinnerName: winnerName, Prize: t.PrizePool}
	m.gateway.Broadcast(domain.TournamentChannel(t.ID), domain.EventTournamentFinished, payload)
	m.gateway.Broadcast(domain.TournamentsChannel, domain.EventTournamentFinished, payload)
	m.log.Info("tournament finished", "tournament_id", t.ID, "winner_id", t.WinnerID, "prize", t.PrizePool)
}
