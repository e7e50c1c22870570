// File: protocol/inbound.go
package protocol

import "encoding/json"

// InboundEnvelope is the shape every inbound frame is first decoded into so
// the session can dispatch on Type before parsing the rest of the payload.
type InboundEnvelope struct {
	Type string `json:"type"`
}

// Inbound message type discriminators, shared by the player and viewer
// sessions (viewers only ever send the two query types).
const (
	InRegister             = "register"
	InUnregister           = "unregister"
	InGetServerState       = "getServerState"
	InGetRegisteredPlayers = "getRegisteredPlayers"
	InMove                 = "move"
	InAttack               = "attack"
	InDropWeapon           = "dropWeapon"
)

// MoveOrAttackPayload is the body of a move/attack inbound frame.
type MoveOrAttackPayload struct {
	Direction Direction `json:"direction"`
	Tag       string    `json:"tag,omitempty"`
}

// DropWeaponPayload is the body of a dropWeapon inbound frame.
type DropWeaponPayload struct {
	Tag string `json:"tag,omitempty"`
}

// ParseAction converts a decoded inbound envelope's raw type/body into the
// single PlayerAction variant doAction operates on. ok is false when typ is
// not one of the action message types.
func ParseAction(typ string, body []byte) (PlayerAction, bool, error) {
	switch typ {
	case InMove, InAttack:
		var p MoveOrAttackPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return PlayerAction{}, true, err
		}
		return PlayerAction{Type: typ, Direction: p.Direction, Tag: p.Tag}, true, nil
	case InDropWeapon:
		var p DropWeaponPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return PlayerAction{}, true, err
		}
		return PlayerAction{Type: typ, Tag: p.Tag}, true, nil
	default:
		return PlayerAction{}, false, nil
	}
}
