// File: transport/transport.go
package transport

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/lguibr/arenaserver/actor"
	"github.com/lguibr/arenaserver/authtoken"
	"github.com/lguibr/arenaserver/config"
	"github.com/lguibr/arenaserver/enginedriver"
)

// Subprotocol is the fixed WebSocket subprotocol name browser clients use to
// carry their bearer token, since they cannot set arbitrary Authorization
// headers on an upgrade request.
const Subprotocol = "arena.auth.v1"

// Server wires the Coordinator and Driver actors to the outside world:
// the two WebSocket endpoints plus the ambient HTTP routes.
type Server struct {
	engine         *actor.Engine
	coordinatorPID *actor.PID
	driver         *enginedriver.Driver
	cfg            config.Config
}

func New(engine *actor.Engine, coordinatorPID *actor.PID, driver *enginedriver.Driver, cfg config.Config) *Server {
	return &Server{engine: engine, coordinatorPID: coordinatorPID, driver: driver, cfg: cfg}
}

// Router builds the httprouter.Router serving every route this server
// exposes, grounded in Seednode-partybox's httprouter-based mux.
func (s *Server) Router() *httprouter.Router {
	r := httprouter.New()
	r.GET("/healthz", s.handleHealthz)
	r.GET("/api/v1/state", s.handleState)
	r.GET("/api/v1/view/qr", s.handleViewQR)
	r.GET("/api/v1/play", s.handlePlay)
	r.GET("/api/v1/view", s.handleView)
	return r
}

// extractToken applies the precedence order: Authorization header, then
// query-string fallback (for manual/mobile joins via the QR code), then the
// Sec-WebSocket-Protocol subprotocol list (the only option available to
// browser WebSocket clients).
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if tok := r.URL.Query().Get("token"); tok != "" {
		return tok
	}
	if h := r.Header.Get("Sec-WebSocket-Protocol"); h != "" {
		parts := strings.Split(h, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && parts[0] == Subprotocol {
			return parts[1]
		}
	}
	return ""
}

func (s *Server) verify(r *http.Request, aud authtoken.Audience) (id uuid.UUID, name string, ok bool) {
	raw := extractToken(r)
	if raw == "" {
		return uuid.UUID{}, "", false
	}
	subject, claims, err := authtoken.Verify([]byte(s.cfg.JWTSecret), raw, aud)
	if err != nil {
		return uuid.UUID{}, "", false
	}
	return subject, claims.Name, true
}
