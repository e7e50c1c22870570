// File: protocol/actions.go
package protocol

import "github.com/google/uuid"

// Direction is the cardinal direction carried by move/attack actions.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// PlayerAction is the single variant submitted through doAction, carrying
// whichever payload the inbound message type implied plus the optional
// client-supplied correlation tag.
type PlayerAction struct {
	Type      string    `json:"type"`
	Direction Direction `json:"direction,omitempty"`
	Tag       string    `json:"tag,omitempty"`
}

const (
	ActionMove       = "move"
	ActionAttack     = "attack"
	ActionDropWeapon = "dropWeapon"
)

// PendingAction is one entry of the pending-action buffer: a player id paired
// with the action it submitted during the current tick window.
type PendingAction struct {
	PlayerID uuid.UUID
	Action   PlayerAction
}
