package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/growgrid/grid/engine"
	"github.com/wricardo/growgrid/grid/service"
	"github.com/wricardo/growgrid/transport/websocket"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// Server represents the REST API server
type Server struct {
	service service.GridService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gridService service.GridService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gridService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Grid operations
	api.HandleFunc("/sessions/{id}/grid", s.handleGetGrid).Methods("GET")
	api.HandleFunc("/sessions/{id}/cells/{x}/{y}", s.handleGetCell).Methods("GET")
	api.HandleFunc("/sessions/{id}/cells/{x}/{y}", s.handleSetCell).Methods("PUT")
	api.HandleFunc("/sessions/{id}/bulk-set", s.handleBulkSet).Methods("POST")
	api.HandleFunc("/sessions/{id}/insert", s.handleInsert).Methods("POST")
	api.HandleFunc("/sessions/{id}/area", s.handleArea).Methods("GET")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/growth", s.handleGetGrowth).Methods("GET")
	api.HandleFunc("/sessions/{id}/growth/chart", s.handleGrowthChart).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("./static/")))
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

// respondServiceError maps service and engine errors to HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrOutOfBounds):
		return http.StatusConflict
	case errors.Is(err, service.ErrGridTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrInvalidValue),
		errors.Is(err, service.ErrInvalidArea),
		errors.Is(err, service.ErrInvalidConfig),
		errors.Is(err, engine.ErrCoordinateOverflow),
		errors.Is(err, engine.ErrRaggedArray),
		errors.Is(err, engine.ErrEmptyArray):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes a JSON request body into v
func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// coords parses the {x} and {y} path variables
func coords(r *http.Request) (int, int, error) {
	vars := mux.Vars(r)
	x, err := strconv.Atoi(vars["x"])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x coordinate %q", vars["x"])
	}
	y, err := strconv.Atoi(vars["y"])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y coordinate %q", vars["y"])
	}
	return x, y, nil
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
	}

	if r.Body != nil {
		json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
	}

	configID := req.ConfigID
	if configID == "" && req.ConfigName != "" {
		configID = req.ConfigName
	}

	session, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[CREATE] session %s with config %s", session.ID, session.ConfigName)
	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	limit := total
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < total {
			limit = l
		}
	}
	sessions = sessions[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Grid Handlers

func (s *Server) handleGetGrid(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	view, err := s.service.GetGridView(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetCell(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	x, y, err := coords(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.GetCell(r.Context(), sessionID, x, y)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastGrowth(r, sessionID, result.Grown)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleSetCell(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	x, y, err := coords(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Value string `json:"value"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.SetCell(r.Context(), sessionID, x, y, req.Value)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastGrowth(r, sessionID, result.Grown)
	s.broadcastView(r, sessionID)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleBulkSet(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Writes []service.CellWrite `json:"writes"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Writes) == 0 {
		respondError(w, http.StatusBadRequest, "writes array is required and cannot be empty")
		return
	}

	result, err := s.service.BulkSet(r.Context(), sessionID, req.Writes)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[BULK] session %s applied %d/%d writes", sessionID, result.Applied, result.Requested)
	s.broadcastGrowth(r, sessionID, result.Grown)
	if result.Applied > 0 {
		s.broadcastView(r, sessionID)
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		LeftX   int      `json:"left_x"`
		BottomY int      `json:"bottom_y"`
		Rows    []string `json:"rows"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.InsertLayout(r.Context(), sessionID, req.LeftX, req.BottomY, req.Rows)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastView(r, sessionID)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleArea(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	query := r.URL.Query()

	opts := service.AreaOptions{Metric: service.AreaMetric(query.Get("metric"))}
	for name, dst := range map[string]*int{"x": &opts.Center.X, "y": &opts.Center.Y, "radius": &opts.Radius} {
		raw := query.Get(name)
		if raw == "" {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("%s parameter required", name))
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s %q", name, raw))
			return
		}
		*dst = v
	}

	result, err := s.service.GetArea(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	view, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastToSession(sessionID, view)
	}
	respondJSON(w, http.StatusOK, view)
}

// historyOptions parses page, limit and order query parameters
func historyOptions(r *http.Request) service.HistoryOptions {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}
	return opts
}

func (s *Server) handleGetGrowth(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	history, err := s.service.GetGrowthHistory(r.Context(), sessionID, historyOptions(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	config, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, config)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string `json:"config_id"`
		service.GridConfig
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	configID := req.ConfigID
	if configID == "" {
		configID = req.Name
	}
	if configID == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	if err := s.service.SaveConfig(r.Context(), configID, &req.GridConfig); err != nil {
		respondError(w, statusFor(err), fmt.Sprintf("Failed to save config: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "websocket disabled", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// broadcastGrowth pushes growth records to websocket clients
func (s *Server) broadcastGrowth(r *http.Request, sessionID string, grown []service.GrowthRecord) {
	if s.hub == nil {
		return
	}
	for _, rec := range grown {
		s.hub.BroadcastGrowth(sessionID, rec)
	}
	if len(grown) > 0 && r.Method == http.MethodGet {
		s.broadcastView(r, sessionID)
	}
}

// broadcastView pushes the current grid to websocket clients
func (s *Server) broadcastView(r *http.Request, sessionID string) {
	if s.hub == nil {
		return
	}
	view, err := s.service.GetGridView(r.Context(), sessionID)
	if err != nil {
		log.Printf("Warning: Failed to render grid for broadcast %s: %v", sessionID, err)
		return
	}
	s.hub.BroadcastToSession(sessionID, view)
}
