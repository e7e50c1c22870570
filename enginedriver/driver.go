// File: enginedriver/driver.go
package enginedriver

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/lguibr/arenaserver/actor"
	"github.com/lguibr/arenaserver/config"
	"github.com/lguibr/arenaserver/matchmsg"
	"github.com/lguibr/arenaserver/protocol"
)

// MaxTries bounds retries of a single Init or Update call before the match
// is considered unrecoverable.
const MaxTries = 5

type pendingAction struct {
	PlayerID uuid.UUID
	Action   protocol.PlayerAction
}

// Driver drives the sandboxed scripted engine on its own actor goroutine,
// owns the sole *lua.LState, and aggregates per-tick player actions from
// the pending-action buffer. Session actors reach it through SubmitAction,
// a plain channel send rather than an actor message, mirroring the spec's
// split between the actor mailbox system and the pending-action queue.
type Driver struct {
	engine         *actor.Engine
	coordinatorPID *actor.PID
	cfg            config.Config
	selfPID        *actor.PID

	L *lua.LState

	pendingCh chan pendingAction
}

// New builds a Driver and the actor.Producer that spawns it, returning
// both so the caller can keep a direct handle for SubmitAction while also
// registering it with the actor engine.
func New(engine *actor.Engine, coordinatorPID *actor.PID, cfg config.Config) (*Driver, actor.Producer) {
	d := &Driver{
		engine:         engine,
		coordinatorPID: coordinatorPID,
		cfg:            cfg,
		pendingCh:      make(chan pendingAction, 256),
	}
	return d, func() actor.Actor { return d }
}

// SubmitAction enqueues a player's action for the next tick's drain. It
// never blocks: a full or closed buffer is reported back to the caller
// instead, who maps it to CannotSendAction.
func (d *Driver) SubmitAction(id uuid.UUID, action protocol.PlayerAction) bool {
	select {
	case d.pendingCh <- pendingAction{PlayerID: id, Action: action}:
		return true
	default:
		return false
	}
}

func (d *Driver) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case actor.Started:
		d.selfPID = ctx.Self()
		if err := d.loadScript(); err != nil {
			d.crash(fmt.Sprintf("failed to load engine script %q: %v", d.cfg.LuaFile, err))
		}
	case matchmsg.StartGame:
		d.runMatch(msg.PlayerOrder)
	case actor.Stopping:
		if d.L != nil {
			d.L.Close()
		}
	case actor.Stopped:
	default:
		fmt.Printf("enginedriver: unhandled message type %T\n", msg)
	}
}

func (d *Driver) loadScript() error {
	L := lua.NewState()
	if err := L.DoFile(d.cfg.LuaFile); err != nil {
		L.Close()
		return err
	}
	if L.GetGlobal("Init").Type() != lua.LTFunction {
		L.Close()
		return fmt.Errorf("script does not define an Init function")
	}
	if L.GetGlobal("Update").Type() != lua.LTFunction {
		L.Close()
		return fmt.Errorf("script does not define an Update function")
	}
	d.L = L
	return nil
}

func (d *Driver) runMatch(order []uuid.UUID) {
	ec := newEngineContext(order, d.cfg.TicksPerGame, func(id uuid.UUID) {
		d.engine.Send(d.coordinatorPID, matchmsg.EnginePlayerKilled{ID: id}, d.selfPID)
	})

	gameState, err := d.callInit(ec, order)
	if err != nil {
		d.crash(err.Error())
		return
	}

	d.engine.Send(d.coordinatorPID, matchmsg.EngineInit{
		GameState:      gameState,
		TicksLeft:      ec.ticksLeft,
		SecondsPerTick: d.cfg.SecondsPerTick,
	}, d.selfPID)

	ticker := time.NewTicker(d.cfg.TickPeriod())
	defer ticker.Stop()

	for range ticker.C {
		ec.ticksLeft--

		actions := d.drainPending(ec)

		next, err := d.callUpdate(ec, actions)
		if err != nil {
			d.crash(err.Error())
			return
		}
		gameState = next

		remaining := ec.remainingSnapshot()
		if ec.ticksLeft <= 0 || len(remaining) <= 1 {
			d.engine.Send(d.coordinatorPID, matchmsg.EngineGameEnded{
				Winners:      remaining,
				GameState:    gameState,
				ActionsTaken: actions,
			}, d.selfPID)
			return
		}

		d.engine.Send(d.coordinatorPID, matchmsg.EngineNextState{
			GameState:      gameState,
			ActionsTaken:   actions,
			TicksLeft:      ec.ticksLeft,
			SecondsPerTick: d.cfg.SecondsPerTick,
		}, d.selfPID)
	}
}

func (d *Driver) drainPending(ec *engineContext) map[uuid.UUID]protocol.PlayerAction {
	actions := make(map[uuid.UUID]protocol.PlayerAction)
	for {
		select {
		case p := <-d.pendingCh:
			if !ec.isRemaining(p.PlayerID) {
				continue
			}
			if _, seen := actions[p.PlayerID]; seen {
				continue
			}
			actions[p.PlayerID] = p.Action
		default:
			return actions
		}
	}
}

func (d *Driver) crash(reason string) {
	d.engine.Send(d.coordinatorPID, matchmsg.EngineCrashed{Reason: reason}, d.selfPID)
}

func (d *Driver) bindContext(ec *engineContext) *lua.LTable {
	L := d.L
	tbl := L.NewTable()

	L.SetField(tbl, "notifyPlayerKilled", L.NewFunction(func(L *lua.LState) int {
		idStr := L.CheckString(1)
		if id, err := uuid.Parse(idStr); err == nil {
			ec.kill(id)
		}
		return 0
	}))
	L.SetField(tbl, "getPlayerOrder", L.NewFunction(func(L *lua.LState) int {
		L.Push(playerOrderToLua(L, ec.playerOrder))
		return 1
	}))
	L.SetField(tbl, "getPlayersRemaining", L.NewFunction(func(L *lua.LState) int {
		L.Push(playerOrderToLua(L, ec.remainingSnapshot()))
		return 1
	}))
	L.SetField(tbl, "getTicksLeft", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(ec.ticksLeft))
		L.Push(lua.LNumber(ec.ticksPerGame))
		return 2
	}))

	L.SetGlobal("ctx", tbl)
	return tbl
}

func (d *Driver) callInit(ec *engineContext, order []uuid.UUID) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxTries; attempt++ {
		gs, err := d.tryCallInit(ec, order)
		if err == nil {
			return gs, nil
		}
		lastErr = err
		fmt.Printf("enginedriver: Init attempt %d/%d failed: %v\n", attempt, MaxTries, err)
	}
	return nil, fmt.Errorf("Init failed after %d attempts: %w", MaxTries, lastErr)
}

func (d *Driver) tryCallInit(ec *engineContext, order []uuid.UUID) (gs json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic in Init: %v", r)
		}
	}()
	L := d.L
	d.bindContext(ec)
	if callErr := L.CallByParam(lua.P{
		Fn:      L.GetGlobal("Init"),
		NRet:    1,
		Protect: true,
	}, L.GetGlobal("ctx"), playerOrderToLua(L, order)); callErr != nil {
		return nil, callErr
	}
	ret := L.Get(-1)
	L.Pop(1)
	return gameStateToJSON(ret)
}

func (d *Driver) callUpdate(ec *engineContext, actions map[uuid.UUID]protocol.PlayerAction) (json.RawMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxTries; attempt++ {
		gs, err := d.tryCallUpdate(ec, actions)
		if err == nil {
			return gs, nil
		}
		lastErr = err
		fmt.Printf("enginedriver: Update attempt %d/%d failed: %v\n", attempt, MaxTries, err)
	}
	return nil, fmt.Errorf("Update failed after %d attempts: %w", MaxTries, lastErr)
}

func (d *Driver) tryCallUpdate(ec *engineContext, actions map[uuid.UUID]protocol.PlayerAction) (gs json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic in Update: %v", r)
		}
	}()
	L := d.L
	d.bindContext(ec)
	if callErr := L.CallByParam(lua.P{
		Fn:      L.GetGlobal("Update"),
		NRet:    1,
		Protect: true,
	}, L.GetGlobal("ctx"), actionsToLua(L, actions)); callErr != nil {
		return nil, callErr
	}
	ret := L.Get(-1)
	L.Pop(1)
	return gameStateToJSON(ret)
}
