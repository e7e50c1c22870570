// File: session/viewer.go
package session

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lguibr/arenaserver/actor"
	"github.com/lguibr/arenaserver/config"
	"github.com/lguibr/arenaserver/coordinator"
	"github.com/lguibr/arenaserver/protocol"
)

// ViewerSession is a read-only connection: it may only query server state
// and the registered-players snapshot, and it receives the full broadcast
// stream without being able to submit actions or registration operations.
type ViewerSession struct {
	conn *websocket.Conn
	cfg  config.Config

	engine         *actor.Engine
	coordinatorPID *actor.PID

	send     chan []byte
	closeReq chan closeRequest

	mu          sync.Mutex
	serverState protocol.ServerState

	closeOnce sync.Once
}

func NewViewerSession(
	conn *websocket.Conn,
	initialState protocol.ServerState,
	engine *actor.Engine,
	coordinatorPID *actor.PID,
	cfg config.Config,
) *ViewerSession {
	return &ViewerSession{
		conn:           conn,
		cfg:            cfg,
		engine:         engine,
		coordinatorPID: coordinatorPID,
		send:           make(chan []byte, 64),
		closeReq:       make(chan closeRequest, 1),
		serverState:    initialState,
	}
}

func (s *ViewerSession) Run() {
	go s.writePump()
	s.readPump()
}

func (s *ViewerSession) Deliver(frame []byte) bool {
	s.applyBroadcastSideEffects(frame)
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

func (s *ViewerSession) Close(code int, reason string) {
	select {
	case s.closeReq <- closeRequest{Code: code, Reason: reason}:
	default:
	}
}

var _ coordinator.SessionHandle = (*ViewerSession)(nil)

func (s *ViewerSession) applyBroadcastSideEffects(frame []byte) {
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
	case "gameEnded":
		s.serverState = protocol.Registration
	}
}

func (s *ViewerSession) readPump() {
	defer func() {
		s.closeOnce.Do(func() {
			s.engine.Send(s.coordinatorPID, coordinator.DisconnectViewer{Handle: s}, nil)
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
				log.Printf("session: viewer read error: %v", err)
			}
			return
		}
		s.handleInbound(raw)
	}
}

func (s *ViewerSession) writePump() {
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

func (s *ViewerSession) handleInbound(raw []byte) {
	var env protocol.InboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.sendError(protocol.NewError("malformed message", protocol.JSONPayloadError, err.Error(), s.cfg.Debug))
		return
	}

	switch env.Type {
	case protocol.InGetServerState:
		s.mu.Lock()
		state := s.serverState
		s.mu.Unlock()
		s.sendJSON(protocol.NewServerStateResponse(state))
	case protocol.InGetRegisteredPlayers:
		reply, err := s.engine.Ask(s.coordinatorPID, coordinator.GetRegisteredPlayers{}, coordinator.AskTimeout)
		if err != nil {
			s.sendError(protocol.NewError("query timed out", protocol.UnknownError, err.Error(), s.cfg.Debug))
			return
		}
		snap, _ := reply.(coordinator.RegisteredPlayersSnapshot)
		s.sendJSON(protocol.NewRegisteredPlayersResponse(snap.Players, snap.PlayerOrder))
	default:
		s.sendError(protocol.NewError("viewers may only query state", protocol.UnknownError, env.Type, s.cfg.Debug))
	}
}

func (s *ViewerSession) sendError(e protocol.ErrorResponse) {
	s.sendJSON(e)
}

func (s *ViewerSession) sendJSON(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case s.send <- b:
	default:
	}
}
