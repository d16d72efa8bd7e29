package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/CallMeTrinity/sae501-api-server/game/config"
	"github.com/CallMeTrinity/sae501-api-server/game/service"
	"github.com/CallMeTrinity/sae501-api-server/store"
	"github.com/CallMeTrinity/sae501-api-server/transport/websocket"
)

// Server represents the REST API server.
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	rules   *config.Manager
	store   store.Store
	router  *mux.Router

	// joinBaseURL is the client URL a session QR code points at.
	joinBaseURL string
}

// NewServer creates a new API server.
func NewServer(gameService service.GameService, hub *websocket.Hub, rules *config.Manager, st store.Store, joinBaseURL string) *Server {
	s := &Server{
		service:     gameService,
		hub:         hub,
		rules:       rules,
		store:       st,
		router:      mux.NewRouter(),
		joinBaseURL: joinBaseURL,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session views
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}/votes", s.handleGetVotes).Methods("GET")
	api.HandleFunc("/sessions/{id}/qr", s.handleSessionQR).Methods("GET")

	// Question content
	api.HandleFunc("/questions", s.handleListQuestions).Methods("GET")
	api.HandleFunc("/answer", s.handleValidateAnswer).Methods("POST")

	// Suspects
	api.HandleFunc("/suspects", s.handleListSuspects).Methods("GET")
	api.HandleFunc("/suspects/{id}/hints", s.handleSuspectHints).Methods("GET")

	// Rule sets
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Session Handlers

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	// Lookup by join code goes against the durable snapshots, so a lobby
	// can be found before any realtime event touched it.
	if code := r.URL.Query().Get("code"); code != "" {
		rec, err := s.store.GetSessionByCode(r.Context(), code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusNotFound, "session not found")
				return
			}
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, rec)
		return
	}

	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleGetVotes(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"votes":         info.Votes,
		"vote_deadline": info.VoteDeadline,
	})
}

func (s *Server) handleSessionQR(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	joinURL := fmt.Sprintf("%s?session=%s", s.joinBaseURL, url.QueryEscape(sessionID))
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to render QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Question Handlers

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	questions, err := s.service.ActiveQuestions(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(questions) == 0 {
		respondError(w, http.StatusNotFound, "no questions available")
		return
	}
	respondJSON(w, http.StatusOK, questions)
}

func (s *Server) handleValidateAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     int    `json:"id"`
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == 0 || req.Answer == "" {
		respondError(w, http.StatusBadRequest, "Fields 'id' and 'answer' are required")
		return
	}

	check, err := s.service.ValidateAnswer(r.Context(), req.ID, req.Answer)
	if err != nil {
		if errors.Is(err, service.ErrQuestionNotFound) {
			respondError(w, http.StatusNotFound, "question not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, check)
}

// Suspect Handlers

func (s *Server) handleListSuspects(w http.ResponseWriter, r *http.Request) {
	suspects, err := s.service.Suspects(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, suspects)
}

func (s *Server) handleSuspectHints(w http.ResponseWriter, r *http.Request) {
	suspectID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid suspect id")
		return
	}

	hints, err := s.service.SuspectHints(r.Context(), suspectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, hints)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	names, err := s.rules.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, names)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	rules, err := s.rules.Load(name)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) && name == config.DefaultRules().Name {
			respondJSON(w, http.StatusOK, config.DefaultRules())
			return
		}
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, rules)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
