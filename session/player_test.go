// File: session/player_test.go
package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/arenaserver/actor"
	"github.com/lguibr/arenaserver/config"
	"github.com/lguibr/arenaserver/coordinator"
	"github.com/lguibr/arenaserver/enginedriver"
	"github.com/lguibr/arenaserver/protocol"
)

func newTestPlayerSession(t *testing.T, state protocol.ServerState) (*PlayerSession, *actor.Engine, *actor.PID) {
	t.Helper()
	cfg := config.FastMatchConfig()
	engine := actor.NewEngine()
	coordPID := engine.Spawn(actor.NewProps(func() actor.Actor { return &recordingActor{} }))
	driver, _ := enginedriver.New(engine, coordPID, cfg)

	sess := NewPlayerSession(nil, uuid.New(), protocol.Profile{Name: "Ada"}, state, engine, coordPID, driver, cfg)
	return sess, engine, coordPID
}

// recordingActor is a minimal mock coordinator replying RegisterSuccess, true
// or an empty snapshot to Register, Unregister and GetRegisteredPlayers asks,
// mirroring the MockActor pattern used elsewhere in this repo.
type recordingActor struct{}

func (a *recordingActor) Receive(ctx actor.Context) {
	if ctx.RequestID() == "" {
		return
	}
	switch ctx.Message().(type) {
	case coordinator.Register:
		ctx.Reply(coordinator.RegisterSuccess)
	case coordinator.Unregister:
		ctx.Reply(true)
	case coordinator.GetRegisteredPlayers:
		ctx.Reply(coordinator.RegisteredPlayersSnapshot{})
	}
}

func decodeErrorFrame(t *testing.T, raw []byte) protocol.ErrorResponse {
	t.Helper()
	var e protocol.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &e))
	assert.Equal(t, "error", e.Type)
	return e
}

func TestDoAction_RejectsWhenGameNotRunning(t *testing.T) {
	sess, _, _ := newTestPlayerSession(t, protocol.Registration)

	sess.doAction(protocol.PlayerAction{Type: protocol.ActionMove, Direction: protocol.Up})

	select {
	case frame := <-sess.send:
		e := decodeErrorFrame(t, frame)
		assert.Equal(t, protocol.CannotSendAction, e.ErrorCode)
	case <-time.After(time.Second):
		t.Fatal("expected an error frame")
	}
}

func TestDoAction_RejectsWhenKilled(t *testing.T) {
	sess, _, _ := newTestPlayerSession(t, protocol.Running)
	sess.killed = true

	sess.doAction(protocol.PlayerAction{Type: protocol.ActionMove, Direction: protocol.Up})

	select {
	case frame := <-sess.send:
		e := decodeErrorFrame(t, frame)
		assert.Equal(t, protocol.CannotSendAction, e.ErrorCode)
	case <-time.After(time.Second):
		t.Fatal("expected an error frame")
	}
}

func TestDoAction_RejectsSecondActionWithinTick(t *testing.T) {
	sess, _, _ := newTestPlayerSession(t, protocol.Running)

	sess.doAction(protocol.PlayerAction{Type: protocol.ActionMove, Direction: protocol.Up})
	select {
	case <-sess.send:
		t.Fatal("expected no error on first accepted action")
	default:
	}

	sess.doAction(protocol.PlayerAction{Type: protocol.ActionMove, Direction: protocol.Down})
	select {
	case frame := <-sess.send:
		e := decodeErrorFrame(t, frame)
		assert.Equal(t, protocol.CannotSendAction, e.ErrorCode)
	case <-time.After(time.Second):
		t.Fatal("expected an error frame for the second action")
	}
}

func TestDoAction_AcceptsFirstActionWhenRunning(t *testing.T) {
	sess, _, _ := newTestPlayerSession(t, protocol.Running)

	sess.doAction(protocol.PlayerAction{Type: protocol.ActionMove, Direction: protocol.Up})

	select {
	case <-sess.send:
		t.Fatal("accepted action should not produce an error frame")
	default:
	}
	assert.True(t, sess.actionSentThisTick)
}

func TestApplyBroadcastSideEffects_GameStartingTransitionsToInitializing(t *testing.T) {
	sess, _, _ := newTestPlayerSession(t, protocol.Registration)
	frame, err := json.Marshal(protocol.NewGameStarting(nil, nil))
	require.NoError(t, err)

	sess.applyBroadcastSideEffects(frame)

	assert.Equal(t, protocol.Initializing, sess.serverState)
}

func TestApplyBroadcastSideEffects_InitResetsPerTickAndKilledFlags(t *testing.T) {
	sess, _, _ := newTestPlayerSession(t, protocol.Initializing)
	sess.actionSentThisTick = true
	sess.killed = true

	frame, err := json.Marshal(protocol.NewInit(nil, 5, 1))
	require.NoError(t, err)
	sess.applyBroadcastSideEffects(frame)

	assert.Equal(t, protocol.Running, sess.serverState)
	assert.False(t, sess.actionSentThisTick)
	assert.False(t, sess.killed)
}

func TestApplyBroadcastSideEffects_NextStateResetsPerTickFlag(t *testing.T) {
	sess, _, _ := newTestPlayerSession(t, protocol.Running)
	sess.actionSentThisTick = true

	frame, err := json.Marshal(protocol.NewNextState(nil, nil, 4, 1))
	require.NoError(t, err)
	sess.applyBroadcastSideEffects(frame)

	assert.False(t, sess.actionSentThisTick)
}

func TestApplyBroadcastSideEffects_PlayerKilledMarksOwnID(t *testing.T) {
	sess, _, _ := newTestPlayerSession(t, protocol.Running)

	otherFrame, err := json.Marshal(protocol.NewPlayerKilled(uuid.New()))
	require.NoError(t, err)
	sess.applyBroadcastSideEffects(otherFrame)
	assert.False(t, sess.killed)

	ownFrame, err := json.Marshal(protocol.NewPlayerKilled(sess.id))
	require.NoError(t, err)
	sess.applyBroadcastSideEffects(ownFrame)
	assert.True(t, sess.killed)
}

func TestApplyBroadcastSideEffects_GameEndedResetsToRegistration(t *testing.T) {
	sess, _, _ := newTestPlayerSession(t, protocol.Running)
	frame, err := json.Marshal(protocol.NewGameEnded(nil, nil, nil))
	require.NoError(t, err)

	sess.applyBroadcastSideEffects(frame)

	assert.Equal(t, protocol.Registration, sess.serverState)
}

func TestHandleInbound_RegisterSucceeds(t *testing.T) {
	sess, _, _ := newTestPlayerSession(t, protocol.Registration)

	sess.handleInbound([]byte(`{"type":"register","name":"Ada"}`))

	select {
	case <-sess.send:
		t.Fatal("successful register should not produce an error frame")
	default:
	}
}

func TestHandleInbound_UnknownTypeSendsError(t *testing.T) {
	sess, _, _ := newTestPlayerSession(t, protocol.Registration)

	sess.handleInbound([]byte(`{"type":"doBarrelRoll"}`))

	select {
	case frame := <-sess.send:
		e := decodeErrorFrame(t, frame)
		assert.Equal(t, protocol.UnknownError, e.ErrorCode)
	case <-time.After(time.Second):
		t.Fatal("expected an error frame")
	}
}

func TestHandleInbound_MalformedJSONSendsError(t *testing.T) {
	sess, _, _ := newTestPlayerSession(t, protocol.Registration)

	sess.handleInbound([]byte(`not json`))

	select {
	case frame := <-sess.send:
		e := decodeErrorFrame(t, frame)
		assert.Equal(t, protocol.JSONPayloadError, e.ErrorCode)
	case <-time.After(time.Second):
		t.Fatal("expected an error frame")
	}
}
