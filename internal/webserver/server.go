package webserver

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/psidex/malsim/internal/graphs"
	"github.com/psidex/malsim/internal/graphs/graphology"
	"github.com/psidex/malsim/internal/metrics"
	"github.com/psidex/malsim/internal/session"
	"github.com/psidex/malsim/internal/sim"
)

//go:embed static/index.html
var static embed.FS

var index = template.Must(template.ParseFS(static, "static/index.html"))

// Config is the server's own configuration. Defaults is what a client's first message
// is merged onto.
type Config struct {
	Address         string
	Dark            bool
	MaxSessions     int
	ShutdownTimeout time.Duration
	Defaults        session.Config
}

// Server serves the browser frontend and one simulation session per websocket.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Registry
	upgrader websocket.Upgrader

	mu       *sync.Mutex
	sessions map[string]*session.Session
	// latest is the id of the most recently opened session still connected.
	latest string
}

// NewServer creates a server. A nil m uses a private registry.
func NewServer(cfg Config, logger *slog.Logger, m *metrics.Registry) *Server {
	if m == nil {
		m = metrics.NewRegistry()
	}
	return &Server{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		mu:       &sync.Mutex{},
		sessions: make(map[string]*session.Session),
	}
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("/ws", s.handleSession)
	mux.HandleFunc("GET /export.csv", s.handleLatestExport)
	mux.HandleFunc("GET /sessions", s.handleList)
	mux.HandleFunc("GET /sessions/{id}/export.csv", s.handleExport)
	mux.HandleFunc("GET /sessions/{id}/report.html", s.handleReport)
	mux.HandleFunc("GET /sessions/{id}/graph.json", s.handleGraph)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// ListenAndServe serves until ctx is done, then shuts down gracefully and closes every
// session.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", "address", s.cfg.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("Initiating graceful shutdown", "timeout", timeout)
	// Hijacked websocket connections are not closed by Shutdown.
	s.closeAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("Server shutdown complete")
	return nil
}

func (s *Server) register(sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		return fmt.Errorf("too many sessions (max %d)", s.cfg.MaxSessions)
	}
	s.sessions[sess.ID()] = sess
	s.latest = sess.ID()
	return nil
}

func (s *Server) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	if s.latest == id {
		s.latest = ""
	}
}

func (s *Server) session(id string) (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = s.latest
	}
	sess, ok := s.sessions[id]
	return sess, ok
}

// SessionCount returns the number of connected sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	sessions := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Pause()
	}
}

type indexData struct {
	Defaults session.Config
	Strains  []sim.Strain
	Dark     bool
	Canvas   sim.Canvas
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := index.Execute(w, indexData{
		Defaults: s.cfg.Defaults,
		Strains:  sim.Strains,
		Dark:     s.cfg.Dark,
		Canvas:   sim.DefaultCanvas,
	})
	if err != nil {
		s.logger.Error("index render err", "err", err)
	}
}

func (s *Server) writeCSV(w http.ResponseWriter, sess *session.Session) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sim.CSVFilename))
	if err := sess.Snapshot().Series.WriteCSV(w); err != nil {
		s.logger.Warn("csv write err", "session", sess.ID(), "err", err)
		return
	}
	s.metrics.RecordExport()
}

func (s *Server) handleLatestExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session("")
	if !ok {
		http.Error(w, "no active session", http.StatusNotFound)
		return
	}
	s.writeCSV(w, sess)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.writeCSV(w, sess)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	e := graphs.NewECharts(s.cfg.Dark)
	e.Observe(snapshotFrame(sess.Snapshot()))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := e.Render(w); err != nil {
		s.logger.Warn("report render err", "session", sess.ID(), "err", err)
	}
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, graphology.Serialize(snapshotFrame(sess.Snapshot()), s.cfg.Dark))
}

type sessionInfo struct {
	ID       string `json:"id"`
	State    string `json:"state"`
	Step     int    `json:"step"`
	Infected int    `json:"infected"`
	Total    int    `json:"total"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sessions := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	infos := make([]sessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		snap := sess.Snapshot()
		infos = append(infos, sessionInfo{
			ID:       snap.ID,
			State:    snap.State.String(),
			Step:     snap.Step,
			Infected: snap.Infected(),
			Total:    len(snap.Graph.Nodes),
		})
	}
	writeJSON(w, infos)
}

// snapshotFrame turns a snapshot into the frame renderers expect.
func snapshotFrame(snap session.Snapshot) graphs.Frame {
	return graphs.Frame{
		SessionID: snap.ID,
		Reset:     true,
		Step:      snap.Step,
		State:     snap.State.String(),
		Strain:    snap.Config.Strain,
		Graph:     snap.Graph,
		Series:    snap.Series,
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
