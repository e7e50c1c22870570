// Package matchmsg holds the message types exchanged between the Session
// Coordinator and the Game Engine Driver. It exists as its own package,
// independent of both coordinator and enginedriver, purely so neither of
// those packages needs to import the other to construct these messages.
package matchmsg

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/lguibr/arenaserver/protocol"
)

// StartGame is sent Coordinator -> Driver once the lobby countdown reaches
// zero, carrying the frozen player order for the upcoming match.
type StartGame struct {
	PlayerOrder []uuid.UUID
}

// EngineInit is sent Driver -> Coordinator after a successful Init call.
type EngineInit struct {
	GameState      json.RawMessage
	TicksLeft      int
	SecondsPerTick int
}

// EngineNextState is sent Driver -> Coordinator after each tick's Update
// call, unless that tick ended the match (see EngineGameEnded).
type EngineNextState struct {
	GameState      json.RawMessage
	ActionsTaken   map[uuid.UUID]protocol.PlayerAction
	TicksLeft      int
	SecondsPerTick int
}

// EnginePlayerKilled is sent Driver -> Coordinator every time the scripted
// engine invokes notifyPlayerKilled.
type EnginePlayerKilled struct {
	ID uuid.UUID
}

// EngineGameEnded is sent Driver -> Coordinator when a match concludes,
// either because ticksLeft reached zero or at most one player remained.
type EngineGameEnded struct {
	Winners      []uuid.UUID
	GameState    json.RawMessage
	ActionsTaken map[uuid.UUID]protocol.PlayerAction
}

// EngineCrashed is sent Driver -> Coordinator when the interpreter fails
// MAX_TRIES times in a row, or a value-conversion failure is unrecoverable.
type EngineCrashed struct {
	Reason string
}
