// File: transport/websocket.go
package transport

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/lguibr/arenaserver/authtoken"
	"github.com/lguibr/arenaserver/coordinator"
	"github.com/lguibr/arenaserver/protocol"
	"github.com/lguibr/arenaserver/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	Subprotocols:    []string{Subprotocol},
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func writeUnauthorized(w http.ResponseWriter, reason string, debug bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	body, _ := json.Marshal(protocol.NewError("invalid or missing bearer token", protocol.InvalidJWTToken, reason, debug))
	_, _ = w.Write(body)
}

// handlePlay upgrades an authenticated player connection, registers it with
// the Coordinator, and runs its read/write pumps until the socket closes.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id, name, ok := s.verify(r, authtoken.AudiencePlayer)
	if !ok {
		writeUnauthorized(w, "missing, expired, or wrong-audience player token", s.cfg.Debug)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("transport: player upgrade failed: %v", err)
		return
	}

	sess := session.NewPlayerSession(conn, id, protocol.Profile{Name: name}, protocol.Registration, s.engine, s.coordinatorPID, s.driver, s.cfg)

	reply, err := s.engine.Ask(s.coordinatorPID, coordinator.ConnectPlayer{ID: id, Handle: sess}, coordinator.AskTimeout)
	if err != nil {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(4000, "connection request timed out"))
		conn.Close()
		return
	}
	connReply, _ := reply.(coordinator.ConnectPlayerReply)
	switch connReply.Result {
	case coordinator.ConnectOk:
	case coordinator.ConnectAlreadyConnected:
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(4000, "already connected"))
		conn.Close()
		return
	default:
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(4003, "not registered"))
		conn.Close()
		return
	}

	sess.Run()
}

// handleView upgrades an authenticated viewer connection and runs its
// read/write pumps until the socket closes.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	_, _, ok := s.verify(r, authtoken.AudienceViewer)
	if !ok {
		writeUnauthorized(w, "missing, expired, or wrong-audience viewer token", s.cfg.Debug)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("transport: viewer upgrade failed: %v", err)
		return
	}

	sess := session.NewViewerSession(conn, protocol.Registration, s.engine, s.coordinatorPID, s.cfg)

	if _, err := s.engine.Ask(s.coordinatorPID, coordinator.ConnectViewer{Handle: sess}, coordinator.AskTimeout); err != nil {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(4000, "connection request timed out"))
		conn.Close()
		return
	}

	sess.Run()
}
