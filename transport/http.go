// File: transport/http.go
package transport

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/lguibr/arenaserver/coordinator"
)

// handleHealthz is a trivial liveness probe, grounded in the teacher's
// HandleHealthCheck.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type stateSnapshot struct {
	State       interface{} `json:"state"`
	Players     interface{} `json:"players"`
	PlayerOrder interface{} `json:"playerOrder,omitempty"`
}

// handleState is a non-WebSocket snapshot of getServerState/
// getRegisteredPlayers for dashboards, queried the same way a session would
// via Engine.Ask, grounded in the teacher's HandleGetRooms.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stateReply, err := s.engine.Ask(s.coordinatorPID, coordinator.GetServerState{}, coordinator.AskTimeout)
	if err != nil {
		http.Error(w, "timed out querying server state", http.StatusGatewayTimeout)
		return
	}
	playersReply, err := s.engine.Ask(s.coordinatorPID, coordinator.GetRegisteredPlayers{}, coordinator.AskTimeout)
	if err != nil {
		http.Error(w, "timed out querying registered players", http.StatusGatewayTimeout)
		return
	}
	snap, _ := playersReply.(coordinator.RegisteredPlayersSnapshot)

	body, err := json.Marshal(stateSnapshot{
		State:       stateReply,
		Players:     snap.Players,
		PlayerOrder: snap.PlayerOrder,
	})
	if err != nil {
		http.Error(w, "failed to encode state snapshot", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleViewQR returns a PNG QR code encoding a viewer join URL, with the
// caller's token carried as a query-string fallback, grounded in
// Seednode-partybox's qrHandler.
func (s *Server) handleViewQR(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token query parameter", http.StatusBadRequest)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	url := scheme + "://" + r.Host + "/api/v1/view?token=" + strings.TrimSpace(token)

	const qrSize = 320
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}
