package domain

// исходящие события для клиентов
const (
	EventError                = "error"
	EventLobbySessions        = "lobby-sessions"
	EventSessionCreated       = "session-created"
	EventGameStart            = "game-start"
	EventGameState            = "game-state"
	EventGameOver             = "game-over"
	EventOpponentDisconnected = "opponent-disconnected"
	EventOpponentReconnected  = "opponent-reconnected"

	EventTournamentUpdated      = "tournament-updated"
	EventTournamentStarted      = "tournament-started"
	EventTournamentMatchCreated = "tournament-match-created"
	EventTournamentMatchState   = "tournament-match-state"
	EventReplay                 = "replay"
	EventTournamentMatchResult  = "tournament-match-result"
	EventTournamentFinished     = "tournament-finished"
)

// ErrorPayload - ответ на неудачную команду, только отправителю
type ErrorPayload struct {
	Command string `json:"command"`
	Message string `json:"message"`
}
