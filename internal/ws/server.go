package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/boothsync/backend/internal/asset"
	"github.com/boothsync/backend/internal/config"
	"github.com/boothsync/backend/internal/session"
	"github.com/gorilla/websocket"
)

// AssetTracker is notified when a completed session resolves an asset path,
// so the file's appearance on disk can be observed. Optional.
type AssetTracker interface {
	Track(path string) error
}

// HealthSource supplies the /api/health payload. Optional.
type HealthSource interface {
	Snapshot() (interface{}, error)
}

type Server struct {
	store           *session.Store
	machine         *session.Machine
	gate            *asset.Gate
	broadcaster     *Broadcaster
	tracker         AssetTracker
	health          HealthSource
	frontendDir     string
	dev             bool
	embeddedHandler http.Handler
	allowedOrigins  map[string]bool
	allowedHosts    map[string]bool
}

func NewServer(store *session.Store, machine *session.Machine, gate *asset.Gate, broadcaster *Broadcaster, cfg config.ServerConfig) *Server {
	s := &Server{
		store:          store,
		machine:        machine,
		gate:           gate,
		broadcaster:    broadcaster,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}

	for _, origin := range cfg.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

// SetAssetTracker wires the filesystem watcher. Must be called before
// SetupRoutes.
func (s *Server) SetAssetTracker(t AssetTracker) {
	s.tracker = t
}

// SetHealthSource wires the host metrics collector behind /api/health.
func (s *Server) SetHealthSource(h HealthSource) {
	s.health = h
}

// SetFrontend configures static frontend serving: a filesystem dir in dev
// mode, otherwise the embedded handler when present.
func (s *Server) SetFrontend(dir string, dev bool, embedded http.Handler) {
	s.frontendDir = dir
	s.dev = dev
	s.embeddedHandler = embedded
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/session/start", s.handleStart)
	mux.HandleFunc("/session/reset", s.handleReset)
	mux.HandleFunc("/session/status", s.handleStatus)
	mux.HandleFunc("/session/asset", s.handleAsset)
	mux.HandleFunc("/hook", s.handleHook)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/health", s.handleHealth)

	if s.dev && s.frontendDir != "" {
		log.Printf("Serving frontend from filesystem: %s", s.frontendDir)
		mux.Handle("/", http.FileServer(http.Dir(s.frontendDir)))
	} else if s.embeddedHandler != nil {
		log.Println("Serving embedded frontend")
		mux.Handle("/", s.embeddedHandler)
	}
}

type stateResponse struct {
	OK      bool       `json:"ok"`
	State   asset.View `json:"state"`
	Message string     `json:"message,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, conflict := s.machine.StartManual()
	if conflict {
		writeJSON(w, http.StatusConflict, stateResponse{
			OK:      false,
			State:   asset.BuildView(snap),
			Message: "Session already in progress",
		})
		return
	}

	s.broadcaster.QueueState()
	writeJSON(w, http.StatusOK, stateResponse{OK: true, State: asset.BuildView(snap)})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := s.machine.Reset()
	s.broadcaster.QueueState()
	writeJSON(w, http.StatusOK, stateResponse{OK: true, State: asset.BuildView(snap)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{
		OK:    true,
		State: asset.BuildView(s.store.Snapshot()),
	})
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	file, err := s.gate.Resolve(snap, r.URL.Query().Get("token"))
	if err != nil {
		if err == asset.ErrFileMissing {
			s.store.SetError("Asset file missing on disk.")
			s.broadcaster.QueueState()
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": err.Error()})
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": file.Name}))
	http.ServeFile(w, r, file.Path)
}

func (s *Server) handleHook(w http.ResponseWriter, r *http.Request) {
	raw := make(map[string]string)
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			raw[k] = vs[0]
		}
	}
	params := session.DecodeParams(raw)

	evt := session.Event{Type: params["event_type"], Params: params}
	if !evt.Recognized() {
		// Skip other events so the terminal stays quiet.
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "ignored": evt.Type})
		return
	}

	log.Println(strings.Repeat("-", 60))
	log.Printf("EVENT=%s", evt.Type)
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		log.Printf("%s = %s", k, params[k])
	}

	snap, _ := s.machine.HandleEvent(evt)
	if snap.Status == session.Completed {
		log.Printf("Session completed: %+v", snap)
		if s.tracker != nil && snap.AssetPath != "" {
			if err := s.tracker.Track(snap.AssetPath); err != nil {
				log.Printf("asset watch error: %v", err)
			}
		}
	}
	s.broadcaster.QueueState()

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "event_type": evt.Type})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	log.Printf("WebSocket client connected: %s", r.RemoteAddr)
	c := s.broadcaster.AddClient(conn)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			log.Printf("WebSocket client disconnected: %s", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		http.Error(w, "health not available", http.StatusServiceUnavailable)
		return
	}

	snap, err := s.health.Snapshot()
	if err != nil {
		http.Error(w, fmt.Sprintf("health: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// CORS wraps next with permissive cross-origin headers. The booth SPA is
// served from a different port than this backend, so every response carries
// the headers; with no configured origins, any origin is allowed.
func (s *Server) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if len(s.allowedOrigins) == 0 || s.allowedOrigins[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
		} else if len(s.allowedOrigins) == 0 {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}

func ListenAndServe(host string, port int, handler http.Handler) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, handler)
}
