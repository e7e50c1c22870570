// File: session/viewer_test.go
package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/arenaserver/actor"
	"github.com/lguibr/arenaserver/config"
	"github.com/lguibr/arenaserver/protocol"
)

func newTestViewerSession(t *testing.T, state protocol.ServerState) *ViewerSession {
	t.Helper()
	cfg := config.FastMatchConfig()
	engine := actor.NewEngine()
	coordPID := engine.Spawn(actor.NewProps(func() actor.Actor { return &recordingActor{} }))
	return NewViewerSession(nil, state, engine, coordPID, cfg)
}

func TestViewer_ApplyBroadcastSideEffects_Transitions(t *testing.T) {
	sess := newTestViewerSession(t, protocol.Registration)

	startFrame, err := json.Marshal(protocol.NewGameStarting(nil, nil))
	require.NoError(t, err)
	sess.applyBroadcastSideEffects(startFrame)
	assert.Equal(t, protocol.Initializing, sess.serverState)

	initFrame, err := json.Marshal(protocol.NewInit(nil, 5, 1))
	require.NoError(t, err)
	sess.applyBroadcastSideEffects(initFrame)
	assert.Equal(t, protocol.Running, sess.serverState)

	endedFrame, err := json.Marshal(protocol.NewGameEnded(nil, nil, nil))
	require.NoError(t, err)
	sess.applyBroadcastSideEffects(endedFrame)
	assert.Equal(t, protocol.Registration, sess.serverState)
}

func TestViewer_HandleInbound_GetServerStateReturnsCachedState(t *testing.T) {
	sess := newTestViewerSession(t, protocol.Running)

	sess.handleInbound([]byte(`{"type":"getServerState"}`))

	select {
	case frame := <-sess.send:
		var resp protocol.ServerStateResponse
		require.NoError(t, json.Unmarshal(frame, &resp))
		assert.Equal(t, protocol.Running, resp.State)
	case <-time.After(time.Second):
		t.Fatal("expected a serverState response")
	}
}

func TestViewer_HandleInbound_ActionTypeRejected(t *testing.T) {
	sess := newTestViewerSession(t, protocol.Running)

	sess.handleInbound([]byte(`{"type":"move","direction":"up"}`))

	select {
	case frame := <-sess.send:
		var e protocol.ErrorResponse
		require.NoError(t, json.Unmarshal(frame, &e))
		assert.Equal(t, protocol.UnknownError, e.ErrorCode)
	case <-time.After(time.Second):
		t.Fatal("expected an error frame rejecting a player action")
	}
}

func TestViewer_HandleInbound_MalformedJSONSendsError(t *testing.T) {
	sess := newTestViewerSession(t, protocol.Running)

	sess.handleInbound([]byte(`not json`))

	select {
	case frame := <-sess.send:
		var e protocol.ErrorResponse
		require.NoError(t, json.Unmarshal(frame, &e))
		assert.Equal(t, protocol.JSONPayloadError, e.ErrorCode)
	case <-time.After(time.Second):
		t.Fatal("expected an error frame")
	}
}
