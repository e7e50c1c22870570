// File: coordinator/broadcaster.go
package coordinator

import (
	"fmt"

	"github.com/lguibr/arenaserver/actor"
)

// addRecipient/removeRecipient/broadcastFrame/closeAll are the messages the
// Coordinator sends its broadcaster child. Splitting fan-out into its own
// actor keeps the Coordinator's own mailbox free of the O(recipients) work
// of writing to every session, the same split the teacher draws between its
// GameActor (owns state) and BroadcasterActor (owns fan-out).
type addRecipient struct{ Handle SessionHandle }
type removeRecipient struct{ Handle SessionHandle }
type broadcastFrame struct{ Frame []byte }
type closeAllRecipients struct {
	Code   int
	Reason string
}

// broadcasterActor fans a pre-serialized frame out to every registered
// recipient without ever blocking on a slow one: Deliver is expected to be
// non-blocking itself (a buffered channel send with a default case), and a
// recipient that returns false from Deliver is dropped from the set.
type broadcasterActor struct {
	recipients map[SessionHandle]bool
}

func newBroadcasterProducer() actor.Producer {
	return func() actor.Actor {
		return &broadcasterActor{recipients: make(map[SessionHandle]bool)}
	}
}

func (b *broadcasterActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case actor.Started:
	case addRecipient:
		b.recipients[msg.Handle] = true
	case removeRecipient:
		delete(b.recipients, msg.Handle)
	case broadcastFrame:
		b.broadcast(msg.Frame)
	case closeAllRecipients:
		for h := range b.recipients {
			h.Close(msg.Code, msg.Reason)
		}
		b.recipients = make(map[SessionHandle]bool)
	case actor.Stopping:
		for h := range b.recipients {
			h.Close(4000, "server shutting down")
		}
	case actor.Stopped:
	default:
		fmt.Printf("broadcasterActor: unknown message type %T\n", msg)
	}
}

func (b *broadcasterActor) broadcast(frame []byte) {
	if len(b.recipients) == 0 {
		return
	}
	var dead []SessionHandle
	for h := range b.recipients {
		if !h.Deliver(frame) {
			dead = append(dead, h)
		}
	}
	for _, h := range dead {
		delete(b.recipients, h)
	}
}
