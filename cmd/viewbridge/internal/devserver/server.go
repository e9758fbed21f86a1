// Package devserver lets a remote host drive a ViewRegistry over a
// websocket, standing in for a native shell during development.
//
// Routes:
//
//	GET /ws                      host session (JSON messages)
//	GET /views                   registered view names and whether each is live
//	GET /placeholder/{name}.png  the not-found placeholder for name
//	GET /metrics                 Prometheus metrics
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/go-drift/viewbridge/pkg/platform"
)

// Placeholder image bounds.
const (
	defaultPlaceholderWidth  = 320
	defaultPlaceholderHeight = 48
	maxPlaceholderSize       = 2048
)

// Options configures a Server.
type Options struct {
	// Registry is the view registry hosts drive. Required.
	Registry *platform.ViewRegistry

	// Gatherer serves /metrics. Nil disables the route.
	Gatherer prometheus.Gatherer

	// Logger defaults to platform.Logger().
	Logger *zap.Logger
}

// Server is the dev server. It owns the platform dispatch function for its
// lifetime, so only one Server may run per process.
type Server struct {
	registry *platform.ViewRegistry
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	router   chi.Router
	upgrader websocket.Upgrader
	loop     *uiLoop
	sessions *xsync.Map[string, *session]
	wg       sync.WaitGroup
	nextID   int64
	mu       sync.Mutex
	closed   bool
}

// New creates a Server and installs its UI loop as the platform dispatch
// function.
func New(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, errors.New("devserver: Registry is required")
	}
	s := &Server{
		registry: opts.Registry,
		gatherer: opts.Gatherer,
		logger:   opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		loop:     newUILoop(),
		sessions: xsync.NewMap[string, *session](),
	}
	if s.logger == nil {
		s.logger = platform.Logger()
	}
	s.router = s.routes()
	platform.RegisterDispatch(s.loop.post)
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/ws", s.handleWS)
	r.Get("/views", s.handleViews)
	r.Get("/placeholder/{name}.png", s.handlePlaceholder)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on l until ctx is done, then closes the
// server.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(l) }()

	select {
	case err := <-errc:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return err
}

// Close drops every host session, disposing their views, and stops the UI
// loop. The registry itself is left open.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.sessions.Range(func(_ string, sess *session) bool {
		sess.conn.Close()
		return true
	})
	s.wg.Wait()
	platform.RegisterDispatch(nil)
	s.loop.stop()
}

// SessionCount returns the number of connected hosts.
func (s *Server) SessionCount() int {
	return s.sessions.Size()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		http.Error(w, "server closed", http.StatusServiceUnavailable)
		return
	}
	s.nextID++
	id := chimw.GetReqID(r.Context())
	if id == "" {
		id = strconv.FormatInt(s.nextID, 10)
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	sess := newSession(id, conn, s.registry, s.logger)
	s.sessions.Store(id, sess)
	defer s.sessions.Delete(id)
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		conn.Close()
	}
	s.logger.Debug("host connected", zap.String("session", id), zap.String("remote", r.RemoteAddr))

	go sess.writePump()
	sess.readPump()
	s.logger.Debug("host disconnected", zap.String("session", id))
}

type viewStatus struct {
	Name string `json:"name"`
	Live bool   `json:"live"`
}

func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	var live []string
	platform.DispatchAndWait(func() {
		live = s.registry.LiveNames()
	})
	isLive := make(map[string]bool, len(live))
	for _, name := range live {
		isLive[name] = true
	}

	names := s.registry.Names()
	out := make([]viewStatus, 0, len(names))
	for _, name := range names {
		out = append(out, viewStatus{Name: name, Live: isLive[name]})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.logger.Debug("writing /views failed", zap.Error(err))
	}
}

func (s *Server) handlePlaceholder(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	width, err := sizeParam(r, "w", defaultPlaceholderWidth)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	height, err := sizeParam(r, "h", defaultPlaceholderHeight)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	img := platform.RenderPlaceholder(name, width, height)
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		s.logger.Debug("writing placeholder failed", zap.Error(err))
	}
}

func sizeParam(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxPlaceholderSize {
		return 0, errors.New(key + " must be between 1 and " + strconv.Itoa(maxPlaceholderSize))
	}
	return n, nil
}
