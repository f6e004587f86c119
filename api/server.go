package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// wsUpgrader is anything that can take over an HTTP connection and speak the
// room protocol over it; transport/websocket.Server satisfies this.
type wsUpgrader interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

// Server is the HTTP entry point: a health check plus the WebSocket upgrade
// route handed off to the Session/Transport Adapter.
type Server struct {
	ws     wsUpgrader
	router *mux.Router
}

// NewServer builds a Server that upgrades "/ws" through ws.
func NewServer(ws wsUpgrader) *Server {
	s := &Server{ws: ws, router: mux.NewRouter()}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ws", s.ws.ServeHTTP)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
