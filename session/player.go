// File: session/player.go
package session

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lguibr/arenaserver/actor"
	"github.com/lguibr/arenaserver/config"
	"github.com/lguibr/arenaserver/coordinator"
	"github.com/lguibr/arenaserver/enginedriver"
	"github.com/lguibr/arenaserver/protocol"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// PlayerSession is one accepted player WebSocket: a readPump/writePump pair
// (grounded in lab1702-netrek-web's Client) plus the per-session cached
// state doAction's ordered checks run against.
type PlayerSession struct {
	id      uuid.UUID
	profile protocol.Profile
	conn    *websocket.Conn
	cfg     config.Config

	engine         *actor.Engine
	coordinatorPID *actor.PID
	driver         *enginedriver.Driver

	send     chan []byte
	closeReq chan closeRequest

	mu                 sync.Mutex
	serverState        protocol.ServerState
	actionSentThisTick bool
	killed             bool

	closeOnce sync.Once
}

type closeRequest struct {
	Code   int
	Reason string
}

// NewPlayerSession builds a session for an already-upgraded connection.
// The caller is responsible for calling Run after a successful
// connectPlayer against the Coordinator.
func NewPlayerSession(
	conn *websocket.Conn,
	id uuid.UUID,
	profile protocol.Profile,
	initialState protocol.ServerState,
	engine *actor.Engine,
	coordinatorPID *actor.PID,
	driver *enginedriver.Driver,
	cfg config.Config,
) *PlayerSession {
	return &PlayerSession{
		id:             id,
		profile:        profile,
		conn:           conn,
		cfg:            cfg,
		engine:         engine,
		coordinatorPID: coordinatorPID,
		driver:         driver,
		send:           make(chan []byte, 64),
		closeReq:       make(chan closeRequest, 1),
		serverState:    initialState,
	}
}

// Run starts the read/write pumps and blocks until the connection ends.
func (s *PlayerSession) Run() {
	go s.writePump()
	s.readPump()
}

// Deliver implements coordinator.SessionHandle. It updates the session's
// cached state from the broadcast's "type" discriminator before queueing
// the raw frame for the write pump, never blocking the broadcaster.
func (s *PlayerSession) Deliver(frame []byte) bool {
	s.applyBroadcastSideEffects(frame)
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// Close implements coordinator.SessionHandle.
func (s *PlayerSession) Close(code int, reason string) {
	select {
	case s.closeReq <- closeRequest{Code: code, Reason: reason}:
	default:
	}
}

var _ coordinator.SessionHandle = (*PlayerSession)(nil)

func (s *PlayerSession) applyBroadcastSideEffects(frame []byte) {
	var peek protocol.InboundEnvelope
	if err := json.Unmarshal(frame, &peek); err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch peek.Type {
	case "gameStarting":
		s.serverState = protocol.Initializing
	case "init":
		s.serverState = protocol.Running
		s.actionSentThisTick = false
		s.killed = false
	case "nextState":
		s.actionSentThisTick = false
	case "playerKilled":
		var pk protocol.PlayerKilled
		if err := json.Unmarshal(frame, &pk); err == nil && pk.ID == s.id {
			s.killed = true
		}
	case "gameEnded":
		s.serverState = protocol.Registration
	}
}

func (s *PlayerSession) readPump() {
	defer func() {
		s.closeOnce.Do(func() {
			s.engine.Send(s.coordinatorPID, coordinator.DisconnectPlayer{ID: s.id, Handle: s}, nil)
		})
		s.conn.Close()
	}()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("session: player %s read error: %v", s.id, err)
			}
			return
		}
		s.handleInbound(raw)
	}
}

func (s *PlayerSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case req := <-s.closeReq:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(req.Code, req.Reason))
			return
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *PlayerSession) handleInbound(raw []byte) {
	var env protocol.InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.sendError(protocol.NewError("malformed message", protocol.JSONPayloadError, err.Error(), s.cfg.Debug))
		return
	}

	switch env.Type {
	case protocol.InRegister:
		s.handleRegister(raw)
	case protocol.InUnregister:
		s.handleUnregister()
	case protocol.InGetServerState:
		s.handleGetServerState()
	case protocol.InGetRegisteredPlayers:
		s.handleGetRegisteredPlayers()
	case protocol.InMove, protocol.InAttack, protocol.InDropWeapon:
		action, ok, err := protocol.ParseAction(env.Type, raw)
		if err != nil {
			s.sendError(protocol.NewError("malformed action payload", protocol.JSONPayloadError, err.Error(), s.cfg.Debug))
			return
		}
		if !ok {
			return
		}
		s.doAction(action)
	default:
		s.sendError(protocol.NewError("unrecognized message type", protocol.UnknownError, env.Type, s.cfg.Debug))
	}
}

type registerPayload struct {
	Name string `json:"name"`
}

func (s *PlayerSession) handleRegister(raw []byte) {
	var p registerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		s.sendError(protocol.NewError("malformed register payload", protocol.JSONPayloadError, err.Error(), s.cfg.Debug))
		return
	}
	reply, err := s.engine.Ask(s.coordinatorPID, coordinator.Register{
		ID:      s.id,
		Profile: s.profile,
	}, coordinator.AskTimeout)
	if err != nil {
		s.sendError(protocol.NewError("registration request timed out", protocol.FailedToRegister, err.Error(), s.cfg.Debug))
		return
	}
	result, _ := reply.(coordinator.RegisterResult)
	if result != coordinator.RegisterSuccess {
		s.sendError(protocol.NewError("registration failed", protocol.FailedToRegister, "game already started or registration full", s.cfg.Debug))
	}
}

func (s *PlayerSession) handleUnregister() {
	reply, err := s.engine.Ask(s.coordinatorPID, coordinator.Unregister{ID: s.id}, coordinator.AskTimeout)
	if err != nil {
		s.sendError(protocol.NewError("unregister request timed out", protocol.FailedToUnregister, err.Error(), s.cfg.Debug))
		return
	}
	ok, _ := reply.(bool)
	if !ok {
		s.sendError(protocol.NewError("unregister failed", protocol.FailedToUnregister, "game already started", s.cfg.Debug))
	}
}

func (s *PlayerSession) handleGetServerState() {
	s.mu.Lock()
	state := s.serverState
	s.mu.Unlock()
	s.sendJSON(protocol.NewServerStateResponse(state))
}

func (s *PlayerSession) handleGetRegisteredPlayers() {
	reply, err := s.engine.Ask(s.coordinatorPID, coordinator.GetRegisteredPlayers{}, coordinator.AskTimeout)
	if err != nil {
		s.sendError(protocol.NewError("query timed out", protocol.UnknownError, err.Error(), s.cfg.Debug))
		return
	}
	snap, _ := reply.(coordinator.RegisteredPlayersSnapshot)
	s.sendJSON(protocol.NewRegisteredPlayersResponse(snap.Players, snap.PlayerOrder))
}

// doAction implements the four ordered checks; first failing check wins.
func (s *PlayerSession) doAction(action protocol.PlayerAction) {
	s.mu.Lock()
	if s.killed {
		s.mu.Unlock()
		s.sendCannotSendAction("player has been killed")
		return
	}
	if s.serverState != protocol.Running {
		s.mu.Unlock()
		s.sendCannotSendAction("game has not started yet")
		return
	}
	if s.actionSentThisTick {
		s.mu.Unlock()
		s.sendCannotSendAction("already sent player action")
		return
	}
	s.mu.Unlock()

	if !s.driver.SubmitAction(s.id, action) {
		s.sendCannotSendAction("channel error")
		return
	}

	s.mu.Lock()
	s.actionSentThisTick = true
	s.mu.Unlock()
}

func (s *PlayerSession) sendCannotSendAction(why string) {
	s.sendError(protocol.NewError("action rejected", protocol.CannotSendAction, why, s.cfg.Debug))
}

func (s *PlayerSession) sendError(e protocol.ErrorResponse) {
	s.sendJSON(e)
}

func (s *PlayerSession) sendJSON(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case s.send <- b:
	default:
	}
}
