// File: coordinator/coordinator.go
package coordinator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lguibr/arenaserver/actor"
	"github.com/lguibr/arenaserver/config"
	"github.com/lguibr/arenaserver/matchmsg"
	"github.com/lguibr/arenaserver/protocol"
)

// AskTimeout bounds every synchronous query a Session issues against the
// Coordinator (connectPlayer, register, getRegisteredPlayers, ...).
const AskTimeout = 2 * time.Second

// SetDriverPID is sent once, right after the engine driver actor is spawned,
// so the Coordinator can later signal it with StartGame. Spawning both
// actors up front and wiring the PID afterwards avoids a construction-time
// cycle between the two producers.
type SetDriverPID struct {
	PID *actor.PID
}

// ConnectPlayerReply is the Ask reply for ConnectPlayer.
type ConnectPlayerReply struct {
	Result ConnectPlayerResult
	State  protocol.ServerState
}

// ConnectViewerReply is the Ask reply for ConnectViewer.
type ConnectViewerReply struct {
	State protocol.ServerState
}

// Coordinator is the single-writer authority over registration, connection
// membership, lobby countdown, and match lifecycle. Every field below is
// touched only from within Receive, running on the actor's own goroutine.
type Coordinator struct {
	engine  *actor.Engine
	cfg     config.Config
	selfPID *actor.PID

	broadcasterPID *actor.PID
	driverPID      *actor.PID

	state        protocol.ServerState
	registration map[uuid.UUID]protocol.Profile
	connections  map[uuid.UUID]SessionHandle
	viewers      map[SessionHandle]bool
	playerOrder  []uuid.UUID
	secsLeft     int

	stopLobbyCh chan struct{}
}

// NewProducer returns an actor.Producer that builds a fresh Coordinator.
func NewProducer(engine *actor.Engine, cfg config.Config) actor.Producer {
	return func() actor.Actor {
		return &Coordinator{
			engine:       engine,
			cfg:          cfg,
			state:        protocol.Registration,
			registration: make(map[uuid.UUID]protocol.Profile),
			connections:  make(map[uuid.UUID]SessionHandle),
			viewers:      make(map[SessionHandle]bool),
			secsLeft:     cfg.LobbyWaitSeconds,
			stopLobbyCh:  make(chan struct{}),
		}
	}
}

func (c *Coordinator) Receive(ctx actor.Context) {
	if c.selfPID == nil {
		c.selfPID = ctx.Self()
	}

	switch msg := ctx.Message().(type) {
	case actor.Started:
		c.handleStarted(ctx)

	case SetDriverPID:
		c.driverPID = msg.PID

	case ConnectPlayer:
		c.handleConnectPlayer(ctx, msg)
	case DisconnectPlayer:
		c.handleDisconnectPlayer(msg)
	case ConnectViewer:
		c.handleConnectViewer(ctx, msg)
	case DisconnectViewer:
		c.handleDisconnectViewer(msg)
	case Register:
		c.handleRegister(ctx, msg)
	case Unregister:
		c.handleUnregister(ctx, msg)
	case GetRegisteredPlayers:
		c.handleGetRegisteredPlayers(ctx)
	case GetServerState:
		if ctx.RequestID() != "" {
			ctx.Reply(c.state)
		}

	case lobbyTick:
		c.runLobbyTick()

	case matchmsg.EngineInit:
		c.handleEngineInit(msg)
	case matchmsg.EngineNextState:
		c.handleEngineNextState(msg)
	case matchmsg.EnginePlayerKilled:
		c.handleEnginePlayerKilled(msg)
	case matchmsg.EngineGameEnded:
		c.handleEngineGameEnded(msg)
	case matchmsg.EngineCrashed:
		c.handleEngineCrashed(msg)

	case actor.Stopping:
		close(c.stopLobbyCh)
	case actor.Stopped:

	default:
		fmt.Printf("Coordinator: unhandled message type %T\n", msg)
	}
}

func (c *Coordinator) handleStarted(ctx actor.Context) {
	props := actor.NewProps(newBroadcasterProducer())
	c.broadcasterPID = c.engine.Spawn(props)

	go func() {
		ticker := time.NewTicker(c.cfg.LobbyTickPeriod())
		defer ticker.Stop()
		for {
			select {
			case <-c.stopLobbyCh:
				return
			case <-ticker.C:
				c.engine.Send(c.selfPID, lobbyTick{}, nil)
			}
		}
	}()
}

// --- connection/viewer membership ---

func (c *Coordinator) handleConnectPlayer(ctx actor.Context, msg ConnectPlayer) {
	reply := func(r ConnectPlayerResult) {
		if ctx.RequestID() != "" {
			ctx.Reply(ConnectPlayerReply{Result: r, State: c.state})
		}
	}

	if _, connected := c.connections[msg.ID]; connected {
		reply(ConnectAlreadyConnected)
		return
	}
	if !c.state.CanChangeRegistration() {
		if _, registered := c.registration[msg.ID]; !registered {
			reply(ConnectNotRegistered)
			return
		}
	}
	c.connections[msg.ID] = msg.Handle
	c.engine.Send(c.broadcasterPID, addRecipient{Handle: msg.Handle}, c.selfPID)
	reply(ConnectOk)
}

func (c *Coordinator) handleDisconnectPlayer(msg DisconnectPlayer) {
	if stored, ok := c.connections[msg.ID]; ok && stored == msg.Handle {
		delete(c.connections, msg.ID)
		c.engine.Send(c.broadcasterPID, removeRecipient{Handle: msg.Handle}, c.selfPID)
	}
}

func (c *Coordinator) handleConnectViewer(ctx actor.Context, msg ConnectViewer) {
	c.viewers[msg.Handle] = true
	c.engine.Send(c.broadcasterPID, addRecipient{Handle: msg.Handle}, c.selfPID)
	if ctx.RequestID() != "" {
		ctx.Reply(ConnectViewerReply{State: c.state})
	}
}

func (c *Coordinator) handleDisconnectViewer(msg DisconnectViewer) {
	delete(c.viewers, msg.Handle)
	c.engine.Send(c.broadcasterPID, removeRecipient{Handle: msg.Handle}, c.selfPID)
}

// --- registration ---

func (c *Coordinator) handleRegister(ctx actor.Context, msg Register) {
	result := func() RegisterResult {
		if !c.state.CanChangeRegistration() {
			return RegisterGameAlreadyStarted
		}
		if _, exists := c.registration[msg.ID]; exists {
			return RegisterSuccess // idempotent: no profile overwrite
		}
		if len(c.registration) >= c.cfg.MaxPlayersAllowed {
			return RegisterTooManyRegistered
		}
		wasBelowMin := len(c.registration) < c.cfg.MinPlayersNeeded
		c.registration[msg.ID] = msg.Profile
		if wasBelowMin && len(c.registration) >= c.cfg.MinPlayersNeeded {
			c.secsLeft = c.cfg.LobbyWaitSeconds
		}
		c.broadcastRegistrationUpdate()
		return RegisterSuccess
	}()
	if ctx.RequestID() != "" {
		ctx.Reply(result)
	}
}

func (c *Coordinator) handleUnregister(ctx actor.Context, msg Unregister) {
	ok := c.state.CanChangeRegistration()
	if ok {
		delete(c.registration, msg.ID)
		c.broadcastRegistrationUpdate()
	}
	if ctx.RequestID() != "" {
		ctx.Reply(ok)
	}
}

func (c *Coordinator) handleGetRegisteredPlayers(ctx actor.Context) {
	if ctx.RequestID() == "" {
		return
	}
	ctx.Reply(RegisteredPlayersSnapshot{
		Players:     c.registrationCopy(),
		PlayerOrder: append([]uuid.UUID(nil), c.playerOrder...),
	})
}

func (c *Coordinator) broadcastRegistrationUpdate() {
	players := c.registrationCopy()
	if len(players) < c.cfg.MinPlayersNeeded {
		c.broadcastJSON(protocol.NewWaitingOnPlayers(players, c.cfg.MinPlayersNeeded, c.cfg.MaxPlayersAllowed))
		return
	}
	c.broadcastJSON(protocol.NewGameStartingSoon(players, c.cfg.MinPlayersNeeded, c.cfg.MaxPlayersAllowed, c.secsLeft))
}

func (c *Coordinator) registrationCopy() map[uuid.UUID]protocol.Profile {
	cp := make(map[uuid.UUID]protocol.Profile, len(c.registration))
	for k, v := range c.registration {
		cp[k] = v
	}
	return cp
}

// --- lobby countdown ---

func (c *Coordinator) runLobbyTick() {
	if c.state != protocol.Registration || len(c.registration) < c.cfg.MinPlayersNeeded {
		return
	}
	c.secsLeft--
	if c.secsLeft > 0 {
		c.broadcastJSON(protocol.NewGameStartingSoon(c.registrationCopy(), c.cfg.MinPlayersNeeded, c.cfg.MaxPlayersAllowed, c.secsLeft))
		return
	}

	c.playerOrder = c.freezePlayerOrder()
	c.state = protocol.Initializing
	c.broadcastJSON(protocol.NewGameStarting(c.registrationCopy(), c.playerOrder))

	if c.driverPID != nil {
		c.engine.Send(c.driverPID, matchmsg.StartGame{PlayerOrder: c.playerOrder}, c.selfPID)
	} else {
		fmt.Println("Coordinator: no engine driver registered, match cannot start")
	}
}

func (c *Coordinator) freezePlayerOrder() []uuid.UUID {
	order := make([]uuid.UUID, 0, len(c.registration))
	for id := range c.registration {
		order = append(order, id)
	}
	return order
}

// --- engine-update handling ---

func (c *Coordinator) handleEngineInit(msg matchmsg.EngineInit) {
	c.state = protocol.Running
	c.broadcastJSON(protocol.NewInit(msg.GameState, msg.TicksLeft, msg.SecondsPerTick))
}

func (c *Coordinator) handleEngineNextState(msg matchmsg.EngineNextState) {
	c.broadcastJSON(protocol.NewNextState(msg.GameState, msg.ActionsTaken, msg.TicksLeft, msg.SecondsPerTick))
}

func (c *Coordinator) handleEnginePlayerKilled(msg matchmsg.EnginePlayerKilled) {
	c.broadcastJSON(protocol.NewPlayerKilled(msg.ID))
}

func (c *Coordinator) handleEngineGameEnded(msg matchmsg.EngineGameEnded) {
	c.registration = make(map[uuid.UUID]protocol.Profile)
	c.playerOrder = nil
	c.state = protocol.Registration
	c.secsLeft = c.cfg.LobbyWaitSeconds
	c.broadcastJSON(protocol.NewGameEnded(msg.Winners, msg.GameState, msg.ActionsTaken))
}

func (c *Coordinator) handleEngineCrashed(msg matchmsg.EngineCrashed) {
	c.state = protocol.FatalError
	c.playerOrder = nil
	fmt.Printf("Coordinator: engine crashed: %s\n", msg.Reason)

	errResp := protocol.NewError("the game engine has crashed", protocol.GameEngineCrash, msg.Reason, c.cfg.Debug)
	c.broadcastJSON(errResp)
	c.engine.Send(c.broadcasterPID, closeAllRecipients{
		Code:   protocol.GameEngineCrash.WebSocketCloseCode(),
		Reason: "game engine crashed",
	}, c.selfPID)
}

func (c *Coordinator) broadcastJSON(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		fmt.Printf("Coordinator: failed to marshal broadcast %T: %v\n", v, err)
		return
	}
	c.engine.Send(c.broadcasterPID, broadcastFrame{Frame: b}, c.selfPID)
}
