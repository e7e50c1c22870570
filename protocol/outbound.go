// File: protocol/outbound.go
package protocol

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Profile is the small record carried alongside a player id in the
// registration set, sourced from the auth token at register time.
type Profile struct {
	Name string `json:"name"`
}

// --- Registration updates ---

// WaitingOnPlayers is broadcast whenever the registration set changes while
// below minPlayers, or immediately after any register/unregister that does
// not yet warrant a countdown.
type WaitingOnPlayers struct {
	Type              string                 `json:"type"`
	Players           map[uuid.UUID]Profile `json:"players"`
	MinPlayersNeeded  int                    `json:"minPlayersNeeded"`
	MaxPlayersAllowed int                    `json:"maxPlayersAllowed"`
}

func NewWaitingOnPlayers(players map[uuid.UUID]Profile, min, max int) WaitingOnPlayers {
	return WaitingOnPlayers{Type: "waitingOnPlayers", Players: players, MinPlayersNeeded: min, MaxPlayersAllowed: max}
}

// GameStartingSoon is broadcast once per lobby tick while the countdown runs,
// and after any register/unregister that leaves at least minPlayers registered.
type GameStartingSoon struct {
	Type              string                 `json:"type"`
	Players           map[uuid.UUID]Profile `json:"players"`
	MinPlayersNeeded  int                    `json:"minPlayersNeeded"`
	MaxPlayersAllowed int                    `json:"maxPlayersAllowed"`
	SecondsLeft       int                    `json:"secondsLeft"`
}

func NewGameStartingSoon(players map[uuid.UUID]Profile, min, max, secsLeft int) GameStartingSoon {
	return GameStartingSoon{Type: "gameStartingSoon", Players: players, MinPlayersNeeded: min, MaxPlayersAllowed: max, SecondsLeft: secsLeft}
}

// GameStarting is broadcast exactly once, at the Registration->Initializing
// transition, freezing the player order for the upcoming match.
type GameStarting struct {
	Type        string                 `json:"type"`
	Players     map[uuid.UUID]Profile `json:"players"`
	PlayerOrder []uuid.UUID            `json:"playerOrder"`
}

func NewGameStarting(players map[uuid.UUID]Profile, order []uuid.UUID) GameStarting {
	return GameStarting{Type: "gameStarting", Players: players, PlayerOrder: order}
}

// --- Game updates (produced by the engine driver, forwarded verbatim) ---

type Init struct {
	Type           string          `json:"type"`
	GameState      json.RawMessage `json:"gameState"`
	TicksLeft      int             `json:"ticksLeft"`
	SecondsPerTick int             `json:"secondsPerTick"`
}

func NewInit(gameState json.RawMessage, ticksLeft, secondsPerTick int) Init {
	return Init{Type: "init", GameState: gameState, TicksLeft: ticksLeft, SecondsPerTick: secondsPerTick}
}

type NextState struct {
	Type           string                      `json:"type"`
	GameState      json.RawMessage             `json:"gameState"`
	ActionsTaken   map[uuid.UUID]PlayerAction `json:"actionsTaken"`
	TicksLeft      int                         `json:"ticksLeft"`
	SecondsPerTick int                         `json:"secondsPerTick"`
}

func NewNextState(gameState json.RawMessage, actions map[uuid.UUID]PlayerAction, ticksLeft, secondsPerTick int) NextState {
	return NextState{Type: "nextState", GameState: gameState, ActionsTaken: actions, TicksLeft: ticksLeft, SecondsPerTick: secondsPerTick}
}

type PlayerKilled struct {
	Type string    `json:"type"`
	ID   uuid.UUID `json:"id"`
}

func NewPlayerKilled(id uuid.UUID) PlayerKilled {
	return PlayerKilled{Type: "playerKilled", ID: id}
}

type GameEnded struct {
	Type         string                      `json:"type"`
	Winners      []uuid.UUID                 `json:"winners"`
	GameState    json.RawMessage             `json:"gameState"`
	ActionsTaken map[uuid.UUID]PlayerAction `json:"actionsTaken"`
}

func NewGameEnded(winners []uuid.UUID, gameState json.RawMessage, actions map[uuid.UUID]PlayerAction) GameEnded {
	return GameEnded{Type: "gameEnded", Winners: winners, GameState: gameState, ActionsTaken: actions}
}

// --- Query responses ---

type ServerStateResponse struct {
	Type  string      `json:"type"`
	State ServerState `json:"state"`
}

func NewServerStateResponse(s ServerState) ServerStateResponse {
	return ServerStateResponse{Type: "serverState", State: s}
}

type RegisteredPlayersResponse struct {
	Type        string                 `json:"type"`
	Players     map[uuid.UUID]Profile `json:"players"`
	PlayerOrder []uuid.UUID            `json:"playerOrder,omitempty"`
}

func NewRegisteredPlayersResponse(players map[uuid.UUID]Profile, order []uuid.UUID) RegisteredPlayersResponse {
	return RegisteredPlayersResponse{Type: "registeredPlayers", Players: players, PlayerOrder: order}
}
