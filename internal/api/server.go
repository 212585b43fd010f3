package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bryanchriswhite/VRPlayer/internal/config"
	"github.com/bryanchriswhite/VRPlayer/internal/input"
	"github.com/bryanchriswhite/VRPlayer/internal/logger"
	"github.com/bryanchriswhite/VRPlayer/internal/output"
	"github.com/bryanchriswhite/VRPlayer/internal/overlay"
	"github.com/bryanchriswhite/VRPlayer/internal/player"
	"github.com/bryanchriswhite/VRPlayer/internal/projection"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Player is the part of the player the API drives.
type Player interface {
	Status() player.Status
	HandleKey(key string) error
	Dispatch(action input.Action) error
	CycleProjection() error
	ForceLayout(layout projection.Layout) error
	ForceKind(kind projection.Kind) error
	ToggleLayout() error
	SwapEyes() bool
	TogglePlay() error
	SeekBy(d time.Duration) error
	SeekFraction(f float64) error
	Open(uri string) error
	Look(dYaw, dPitch float64)
	Zoom(delta float64)
	Keymap() *input.Keymap
	Overlay() *overlay.Manager
}

// Server represents the HTTP API server
type Server struct {
	router    *mux.Router
	player    Player
	configMgr *config.Manager
	stream    *output.MJPEGOutput
	upgrader  websocket.Upgrader
	http      *http.Server
}

// NewServer creates a new API server. configMgr and stream may be nil.
func NewServer(p Player, configMgr *config.Manager, stream *output.MJPEGOutput) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		player:    p,
		configMgr: configMgr,
		stream:    stream,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // viewer page may be opened from another host
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/status", s.handleStatus).Methods("GET")

	// Projection and playback control
	api.HandleFunc("/projection", s.handleProjection).Methods("POST")
	api.HandleFunc("/playback", s.handlePlayback).Methods("POST")
	api.HandleFunc("/open", s.handleOpen).Methods("POST")
	api.HandleFunc("/eyes/swap", s.handleSwapEyes).Methods("POST")
	api.HandleFunc("/camera", s.handleCamera).Methods("POST")

	// Keys
	api.HandleFunc("/keys", s.handleGetKeys).Methods("GET")
	api.HandleFunc("/keys", s.handlePressKey).Methods("POST")

	// Configuration
	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")
	api.HandleFunc("/config/{key}", s.handleSetConfig).Methods("PUT")

	s.router.HandleFunc("/ws", s.handleWebSocket)

	if s.stream != nil {
		s.router.HandleFunc("/stream", s.stream.GetHTTPHandler()).Methods("GET")
		s.router.HandleFunc("/", s.stream.GetViewerHandler()).Methods("GET")
	}
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start serves on port until Shutdown is called.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.http = &http.Server{Addr: addr, Handler: s.Handler()}
	logger.WithComponent("api").Info().Str("addr", addr).Msgf("Starting server on http://localhost%s", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops a running server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps player errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, projection.ErrUnbound), errors.Is(err, player.ErrNoVideo):
		status = http.StatusConflict
	case errors.Is(err, player.ErrStopped):
		status = http.StatusServiceUnavailable
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("%v", err)
	}
	return nil
}

// HTTP Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.player.Status())
}

func (s *Server) respondStatus(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.player.Status())
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action string `json:"action"`
		Kind   string `json:"kind"`
		Layout string `json:"layout"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var err error
	switch req.Action {
	case "cycle":
		err = s.player.CycleProjection()
	case "toggle":
		err = s.player.ToggleLayout()
	case "force":
		err = s.forceProjection(req.Kind, req.Layout)
	default:
		err = badRequest("unknown projection action %q", req.Action)
	}
	s.respondStatus(w, err)
}

func (s *Server) forceProjection(kind, layout string) error {
	switch {
	case kind != "":
		k, err := projection.ParseKind(kind)
		if err != nil {
			return badRequest("%v", err)
		}
		return s.player.ForceKind(k)
	case layout != "":
		l, err := projection.ParseLayout(layout)
		if err != nil {
			return badRequest("%v", err)
		}
		return s.player.ForceLayout(l)
	default:
		return badRequest("force needs kind or layout")
	}
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action  string  `json:"action"`
		Seconds float64 `json:"seconds"`
		Decile  int     `json:"decile"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var err error
	switch req.Action {
	case "toggle":
		err = s.player.TogglePlay()
	case "seek":
		err = s.player.SeekBy(time.Duration(req.Seconds * float64(time.Second)))
	case "decile":
		if req.Decile < 0 || req.Decile > 9 {
			err = badRequest("decile %d out of range 0-9", req.Decile)
			break
		}
		err = s.player.SeekFraction(float64(req.Decile) / 10)
	default:
		err = badRequest("unknown playback action %q", req.Action)
	}
	s.respondStatus(w, err)
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URI string `json:"uri"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.URI == "" {
		writeError(w, badRequest("uri is required"))
		return
	}
	if err := s.player.Open(req.URI); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "loading", "uri": req.URI})
}

func (s *Server) handleSwapEyes(w http.ResponseWriter, r *http.Request) {
	s.player.SwapEyes()
	s.respondStatus(w, nil)
}

func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Yaw   float64 `json:"yaw"`
		Pitch float64 `json:"pitch"`
		Zoom  float64 `json:"zoom"`
		Reset bool    `json:"reset"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Reset {
		if err := s.player.Dispatch(input.ActionResetView); err != nil {
			writeError(w, err)
			return
		}
	}
	s.player.Look(req.Yaw, req.Pitch)
	s.player.Zoom(req.Zoom)
	s.respondStatus(w, nil)
}

func (s *Server) handleGetKeys(w http.ResponseWriter, r *http.Request) {
	type binding struct {
		Key    string `json:"key"`
		Action string `json:"action"`
	}
	pairs := s.player.Keymap().Bindings()
	out := make([]binding, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, binding{Key: p[0], Action: p[1]})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePressKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.respondStatus(w, s.player.HandleKey(req.Key))
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.configMgr == nil {
		http.Error(w, "configuration not available", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, s.configMgr.Get())
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	if s.configMgr == nil {
		http.Error(w, "configuration not available", http.StatusNotFound)
		return
	}
	key := mux.Vars(r)["key"]

	var req struct {
		Value string `json:"value"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.configMgr.SetValue(key, req.Value); err != nil {
		writeError(w, badRequest("%v", err))
		return
	}
	value, _ := s.configMgr.GetValue(key)
	writeJSON(w, http.StatusOK, map[string]interface{}{"key": key, "value": value})
}
