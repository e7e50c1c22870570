// File: enginedriver/driver_test.go
package enginedriver

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/arenaserver/actor"
	"github.com/lguibr/arenaserver/config"
	"github.com/lguibr/arenaserver/matchmsg"
	"github.com/lguibr/arenaserver/protocol"
)

const tickingScript = `
local state = {}

function Init(ctx, playerOrder)
  state = {}
  for _, id in ipairs(playerOrder) do
    state[id] = {health = 3}
  end
  return state
end

function Update(ctx, actions)
  return state
end
`

const crashingScript = `
function Init(ctx, playerOrder)
  error("boom")
end

function Update(ctx, actions)
  return {}
end
`

const killOnFirstTickScript = `
function Init(ctx, playerOrder)
  return {}
end

function Update(ctx, actions)
  local order = ctx.getPlayerOrder()
  ctx.notifyPlayerKilled(order[1])
  return {}
end
`

// recordingCoordinator captures every matchmsg sent to it by the driver.
type recordingCoordinator struct {
	mu       sync.Mutex
	received []interface{}
}

func (c *recordingCoordinator) Receive(ctx actor.Context) {
	c.mu.Lock()
	c.received = append(c.received, ctx.Message())
	c.mu.Unlock()
}

func (c *recordingCoordinator) snapshot() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]interface{}, len(c.received))
	copy(out, c.received)
	return out
}

func waitForMessageType(t *testing.T, c *recordingCoordinator, matches func(interface{}) bool, timeout time.Duration) interface{} {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, m := range c.snapshot() {
			if matches(m) {
				return m
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for matching message")
	return nil
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game.lua")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDriver_RunsMatchToCompletion(t *testing.T) {
	cfg := config.FastMatchConfig()
	cfg.LuaFile = writeScript(t, tickingScript)
	cfg.TicksPerGame = 2
	cfg.SecondsPerTick = 1

	engine := actor.NewEngine()
	coord := &recordingCoordinator{}
	coordPID := engine.Spawn(actor.NewProps(func() actor.Actor { return coord }))

	driver, producer := New(engine, coordPID, cfg)
	driverPID := engine.Spawn(actor.NewProps(producer))

	order := []uuid.UUID{uuid.New(), uuid.New()}
	engine.Send(driverPID, matchmsg.StartGame{PlayerOrder: order}, nil)

	waitForMessageType(t, coord, func(m interface{}) bool {
		_, ok := m.(matchmsg.EngineInit)
		return ok
	}, 2*time.Second)

	ended := waitForMessageType(t, coord, func(m interface{}) bool {
		_, ok := m.(matchmsg.EngineGameEnded)
		return ok
	}, 5*time.Second)

	endedMsg := ended.(matchmsg.EngineGameEnded)
	assert.ElementsMatch(t, order, endedMsg.Winners)

	assert.True(t, driver.SubmitAction(order[0], protocol.PlayerAction{Type: protocol.ActionMove}))
}

func TestDriver_EndsMatchEarlyWhenOnePlayerRemains(t *testing.T) {
	cfg := config.FastMatchConfig()
	cfg.LuaFile = writeScript(t, killOnFirstTickScript)
	cfg.TicksPerGame = 5
	cfg.SecondsPerTick = 1

	engine := actor.NewEngine()
	coord := &recordingCoordinator{}
	coordPID := engine.Spawn(actor.NewProps(func() actor.Actor { return coord }))

	_, producer := New(engine, coordPID, cfg)
	driverPID := engine.Spawn(actor.NewProps(producer))

	order := []uuid.UUID{uuid.New(), uuid.New()}
	engine.Send(driverPID, matchmsg.StartGame{PlayerOrder: order}, nil)

	waitForMessageType(t, coord, func(m interface{}) bool {
		_, ok := m.(matchmsg.EnginePlayerKilled)
		return ok
	}, 2*time.Second)

	ended := waitForMessageType(t, coord, func(m interface{}) bool {
		_, ok := m.(matchmsg.EngineGameEnded)
		return ok
	}, 3*time.Second)

	endedMsg := ended.(matchmsg.EngineGameEnded)
	assert.Equal(t, []uuid.UUID{order[1]}, endedMsg.Winners)
}

func TestDriver_CrashesAfterRepeatedScriptError(t *testing.T) {
	cfg := config.FastMatchConfig()
	cfg.LuaFile = writeScript(t, crashingScript)
	cfg.TicksPerGame = 5
	cfg.SecondsPerTick = 1

	engine := actor.NewEngine()
	coord := &recordingCoordinator{}
	coordPID := engine.Spawn(actor.NewProps(func() actor.Actor { return coord }))

	_, producer := New(engine, coordPID, cfg)
	driverPID := engine.Spawn(actor.NewProps(producer))

	order := []uuid.UUID{uuid.New()}
	engine.Send(driverPID, matchmsg.StartGame{PlayerOrder: order}, nil)

	waitForMessageType(t, coord, func(m interface{}) bool {
		_, ok := m.(matchmsg.EngineCrashed)
		return ok
	}, 2*time.Second)
}
