// File: coordinator/messages.go
package coordinator

import (
	"github.com/google/uuid"

	"github.com/lguibr/arenaserver/protocol"
)

// SessionHandle is how the Coordinator addresses a Player or Viewer Session
// without importing the session package (which itself depends on
// Coordinator to issue operations). Session and Broadcaster both send
// through this interface; identity is pointer equality of the concrete type
// backing it, which is what disconnectPlayer's handle comparison relies on.
type SessionHandle interface {
	// Deliver hands a pre-serialized outbound frame to the session's own
	// mailbox/send-queue. It must never block; a session that cannot keep
	// up is dropped by the caller instead.
	Deliver(frame []byte) bool
	// Close terminates the session's socket with the given close code and
	// reason, used for fatal per-session and process-fatal notifications.
	Close(code int, reason string)
}

// ConnectPlayer is the connectPlayer(id, handle) operation.
type ConnectPlayer struct {
	ID     uuid.UUID
	Handle SessionHandle
}

type ConnectPlayerResult int

const (
	ConnectOk ConnectPlayerResult = iota
	ConnectNotRegistered
	ConnectAlreadyConnected
)

// DisconnectPlayer is the disconnectPlayer(id, handle) operation.
type DisconnectPlayer struct {
	ID     uuid.UUID
	Handle SessionHandle
}

// ConnectViewer is the connectViewer(handle) operation. Always accepted.
type ConnectViewer struct {
	Handle SessionHandle
}

// DisconnectViewer is the disconnectViewer(handle) operation.
type DisconnectViewer struct {
	Handle SessionHandle
}

// Register is the register(id, profile) operation.
type Register struct {
	ID      uuid.UUID
	Profile protocol.Profile
}

type RegisterResult int

const (
	RegisterSuccess RegisterResult = iota
	RegisterGameAlreadyStarted
	RegisterTooManyRegistered
)

// Unregister is the unregister(id) operation.
type Unregister struct {
	ID uuid.UUID
}

// GetRegisteredPlayers is sent via Engine.Ask; the reply is
// RegisteredPlayersSnapshot.
type GetRegisteredPlayers struct{}

type RegisteredPlayersSnapshot struct {
	Players     map[uuid.UUID]protocol.Profile
	PlayerOrder []uuid.UUID
}

// GetServerState is sent via Engine.Ask; the reply is protocol.ServerState.
type GetServerState struct{}

// lobbyTick is the self-message the 1Hz ticker goroutine sends to drive the
// lobby countdown algorithm.
type lobbyTick struct{}
