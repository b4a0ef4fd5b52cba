package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_sessions_active",
		Help: "Casual sessions that are not finished yet",
	})
	SessionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_sessions_finished_total",
		Help: "Casual sessions finished, by game type and outcome",
	}, []string{"game_type", "outcome"})
	MovesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_moves_total",
		Help: "Accepted moves by game type and actor kind",
	}, []string{"game_type", "actor"})
	MovesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_moves_rejected_total",
		Help: "Rejected moves by game type",
	}, []string{"game_type"})
	BotCycleCapHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_bot_cycle_cap_hits_total",
		Help: "Bot turn cycles stopped by the safety cap",
	})

	TournamentsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tournaments_active",
		Help: "Tournaments in ACTIVE status",
	})
	TournamentsFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tournaments_finished_total",
		Help: "Tournaments that reached FINISHED",
	})
	MatchesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tournament_matches_finished_total",
		Help: "Tournament matches finished, by reason",
	}, []string{"reason"})
	MatchReplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tournament_match_replays_total",
		Help: "Draw replays started in tournament matches",
	})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections",
		Help: "Open websocket connections",
	})
	WSCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_commands_total",
		Help: "Inbound websocket commands by type and result",
	}, []string{"type", "result"})
)

// ActorKind - метка для MovesTotal
func ActorKind(isBot bool) string {
	if isBot {
		return "bot"
	}
	return "human"
}
