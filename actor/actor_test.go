// File: actor/actor_test.go
package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingActor captures every message it receives, guarded by a mutex,
// mirroring the MockActor pattern used to test the coordinator.
type recordingActor struct {
	mu       sync.Mutex
	received []interface{}
}

func (a *recordingActor) Receive(ctx Context) {
	a.mu.Lock()
	a.received = append(a.received, ctx.Message())
	a.mu.Unlock()

	if ping, ok := ctx.Message().(pingMessage); ok {
		ctx.Reply(pongMessage{N: ping.N * 2})
	}
}

func (a *recordingActor) snapshot() []interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]interface{}, len(a.received))
	copy(out, a.received)
	return out
}

type pingMessage struct{ N int }
type pongMessage struct{ N int }

func waitForCount(t *testing.T, a *recordingActor, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(a.snapshot()) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d messages, got %d", n, len(a.snapshot()))
}

func TestSpawn_SendsStarted(t *testing.T) {
	engine := NewEngine()
	rec := &recordingActor{}
	pid := engine.Spawn(NewProps(func() Actor { return rec }))
	require.NotNil(t, pid)

	waitForCount(t, rec, 1, time.Second)
	assert.IsType(t, Started{}, rec.snapshot()[0])
}

func TestSend_DeliversUserMessage(t *testing.T) {
	engine := NewEngine()
	rec := &recordingActor{}
	pid := engine.Spawn(NewProps(func() Actor { return rec }))

	engine.Send(pid, "hello", nil)

	waitForCount(t, rec, 2, time.Second)
	msgs := rec.snapshot()
	assert.Equal(t, "hello", msgs[1])
}

func TestAsk_RoundTrip(t *testing.T) {
	engine := NewEngine()
	rec := &recordingActor{}
	pid := engine.Spawn(NewProps(func() Actor { return rec }))

	reply, err := engine.Ask(pid, pingMessage{N: 21}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, pongMessage{N: 42}, reply)
}

func TestAsk_TimesOutWhenActorDoesNotReply(t *testing.T) {
	engine := NewEngine()
	rec := &recordingActor{}
	pid := engine.Spawn(NewProps(func() Actor { return rec }))

	_, err := engine.Ask(pid, "no reply for this", 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestAsk_UnknownActorReturnsNotFound(t *testing.T) {
	engine := NewEngine()
	_, err := engine.Ask(&PID{ID: "does-not-exist"}, "ping", 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrActorNotFound)
}

func TestStop_DeliversStoppingThenStopped(t *testing.T) {
	engine := NewEngine()
	rec := &recordingActor{}
	pid := engine.Spawn(NewProps(func() Actor { return rec }))
	waitForCount(t, rec, 1, time.Second)

	engine.Stop(pid)
	waitForCount(t, rec, 3, time.Second)

	msgs := rec.snapshot()
	assert.IsType(t, Stopping{}, msgs[1])
	assert.IsType(t, Stopped{}, msgs[2])
}
