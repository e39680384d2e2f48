package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"eventboard/internal/board"
	"eventboard/internal/config"
	appLog "eventboard/internal/log"
	"eventboard/internal/render"
)

// Server serves the rendered host pages and the read-only APIs built on
// the board's latest snapshot.
type Server struct {
	cfg   *config.Config
	board *board.Board
	mux   *http.ServeMux

	// Open websocket streams, keyed by client id.
	streamsMu sync.Mutex
	streams   map[uuid.UUID]string

	done      chan struct{}
	closeOnce sync.Once
}

// embeddedStatic holds the CSS/JS assets served under /static/.
//
//go:embed all:static
var embeddedStatic embed.FS

// embeddedPages holds the host page templates, one per route.
//
//go:embed pages/*.html
var embeddedPages embed.FS

// Page names, also the basenames of the embedded templates.
const (
	PageIndex    = "index"
	PageUpcoming = "upcoming"
	PagePast     = "past"
	PageAbout    = "about"
)

var pageRoutes = map[string]string{
	"/":         PageIndex,
	"/upcoming": PageUpcoming,
	"/past":     PagePast,
	"/about":    PageAbout,
}

// Pages parses the embedded host pages. Each call returns fresh documents
// the caller owns.
func Pages() (map[string]*render.Document, error) {
	out := make(map[string]*render.Document, len(pageRoutes))
	for _, name := range pageRoutes {
		data, err := embeddedPages.ReadFile("pages/" + name + ".html")
		if err != nil {
			return nil, fmt.Errorf("web: read page %s: %w", name, err)
		}
		doc, err := render.ParseDocument(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("web: parse page %s: %w", name, err)
		}
		out[name] = doc
	}
	return out, nil
}

// NewServer constructs a new Server over b.
func NewServer(cfg *config.Config, b *board.Board) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		cfg:     cfg,
		board:   b,
		mux:     http.NewServeMux(),
		streams: make(map[uuid.UUID]string),
		done:    make(chan struct{}),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// HTTPServer returns an http.Server bound to cfg.Listen. Graceful shutdown
// is the caller's job: Shutdown the returned server, then Close s.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Close ends every open websocket stream. http.Server.Shutdown does not
// track hijacked connections, so callers shut those down here.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// StreamCount reports the number of connected websocket clients.
func (s *Server) StreamCount() int {
	s.streamsMu.Lock()
	defer s.streamsMu.Unlock()
	return len(s.streams)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/events.ics", s.handleICS)
	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.Handle("/static/", s.staticFileServer())

	for path, name := range pageRoutes {
		s.mux.HandleFunc(path, s.handlePage(path, name))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePage serves the latest serialized copy of a host page. "/" is a
// catch-all in ServeMux, so unknown paths are rejected here.
func (s *Server) handlePage(path, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}

		snap, ok := s.board.Snapshot()
		if !ok {
			http.Error(w, "events are still loading", http.StatusServiceUnavailable)
			return
		}
		body, ok := snap.Pages[name]
		if !ok {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

// staticFileServer serves the embedded assets from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static assets not available", http.StatusServiceUnavailable)
		})
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	RenderedAt time.Time     `json:"rendered_at"`
	LoadedAt   time.Time     `json:"loaded_at"`
	Origin     string        `json:"origin"`
	Live       []render.Card `json:"live"`
	Upcoming   []render.Card `json:"upcoming"`
	Past       []render.Card `json:"past"`
}

// handleEvents returns the buckets of the latest render pass as cards, so
// the JSON view always agrees with the served pages.
//
// GET /api/events
func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.board.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "events are still loading")
		return
	}

	r := s.board.Renderer()
	p := snap.Pass
	writeJSON(w, http.StatusOK, eventsResponse{
		RenderedAt: snap.RenderedAt,
		LoadedAt:   snap.LoadedAt,
		Origin:     snap.Origin,
		Live:       r.Cards(p.Buckets.Live, p.Now),
		Upcoming:   r.Cards(p.Buckets.Upcoming, p.Now),
		Past:       r.Cards(p.Buckets.Past, p.Now),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			// Upgraded connections outlive the request; log in the handler.
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}
