package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jpalmerr/productboard/catalog"
	"github.com/jpalmerr/productboard/internal/coordinator"
	"github.com/jpalmerr/productboard/internal/httpserve"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "ProductBoard"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"
)

// Coordinator is the subset of the refresh coordinator the server drives.
type Coordinator interface {
	State() coordinator.State
	Subscribe() <-chan coordinator.State
	Unsubscribe(ch <-chan coordinator.State)

	ManualRefresh(ctx context.Context)
	TogglePolling() bool
	SetUserInteracting(interacting bool)
	SetVisible(visible bool)
	ClearError()

	Create(ctx context.Context, req catalog.ProductRequest) error
	Update(ctx context.Context, id string, req catalog.ProductRequest) error
	Delete(ctx context.Context, id string) error
}

// Option configures a [Server].
type Option func(*Server)

// WithGatherer exposes the metrics in g at GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// Server handles HTTP requests for the dashboard and its JSON API.
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	coord    Coordinator
	port     int
	assets   fs.FS
	title    string
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	addr     net.Addr
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - coord: Refresh coordinator providing state and accepting commands
//   - port: TCP port to listen on (0 picks a free port)
//   - assets: Embedded filesystem containing dashboard assets (nil serves a 500 at "/")
//   - title: Dashboard title (defaults to "ProductBoard" if empty)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(coord Coordinator, port int, assets fs.FS, title string, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		coord:  coord,
		port:   port,
		assets: assets,
		title:  title,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the chi router serving the dashboard and API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httpserve.LoggingMiddleware(s.logger))
	r.Use(httpserve.RecoverMiddleware(s.logger))

	r.Get("/", s.handleDashboard)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/sse", s.handleSSE)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/polling/toggle", s.handleTogglePolling)
		r.Post("/interaction", s.handleInteraction)
		r.Post("/visibility", s.handleVisibility)
		r.Delete("/error", s.handleClearError)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handleListProducts)
			r.Post("/", s.handleCreateProduct)
			r.Put("/{id}", s.handleUpdateProduct)
			r.Delete("/{id}", s.handleDeleteProduct)
		})
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	addr, err := httpserve.Serve(ctx, s.port, s.Handler(), s.logger)
	if err != nil {
		return err
	}
	s.addr = addr
	s.logger.Info("dashboard listening", "addr", addr.String())
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}
	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// stateView is the JSON shape of a coordinator snapshot.
type stateView struct {
	Products    []catalog.Product `json:"products"`
	Loading     bool              `json:"loading"`
	Error       *string           `json:"error"`
	IsPolling   bool              `json:"isPolling"`
	LastRefresh *time.Time        `json:"lastRefresh"`
	Interacting bool              `json:"interacting"`
	Visible     bool              `json:"visible"`
	Summary     catalog.Summary   `json:"summary"`
}

func newStateView(st coordinator.State) stateView {
	v := stateView{
		Products:    st.Products,
		Loading:     st.Loading,
		IsPolling:   st.IsPolling,
		Interacting: st.Interacting,
		Visible:     st.Visible,
		Summary:     catalog.Summarize(st.Products),
	}
	if v.Products == nil {
		v.Products = []catalog.Product{}
	}
	if st.Error != "" {
		msg := st.Error
		v.Error = &msg
	}
	if st.HasRefreshed() {
		t := st.LastRefresh
		v.LastRefresh = &t
	}
	return v
}

// handleState returns the current coordinator state as JSON.
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	httpserve.WriteJSON(w, http.StatusOK, newStateView(s.coord.State()))
}

// handleRefresh runs a manual foreground refresh and returns the new state.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.coord.ManualRefresh(r.Context())
	httpserve.WriteJSON(w, http.StatusOK, newStateView(s.coord.State()))
}

func (s *Server) handleTogglePolling(w http.ResponseWriter, _ *http.Request) {
	httpserve.WriteJSON(w, http.StatusOK, map[string]bool{"isPolling": s.coord.TogglePolling()})
}

type interactionRequest struct {
	Interacting bool `json:"interacting"`
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if err := httpserve.DecodeJSON(w, r, &req); err != nil {
		httpserve.WriteError(w, http.StatusBadRequest, catalog.CodeBadRequest, "Malformed request body")
		return
	}
	s.coord.SetUserInteracting(req.Interacting)
	w.WriteHeader(http.StatusNoContent)
}

type visibilityRequest struct {
	Visible bool `json:"visible"`
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := httpserve.DecodeJSON(w, r, &req); err != nil {
		httpserve.WriteError(w, http.StatusBadRequest, catalog.CodeBadRequest, "Malformed request body")
		return
	}
	s.coord.SetVisible(req.Visible)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearError(w http.ResponseWriter, _ *http.Request) {
	s.coord.ClearError()
	w.WriteHeader(http.StatusNoContent)
}

// handleSSE streams state snapshots via Server-Sent Events.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked Fprintf call would prevent
// the handler from detecting context cancellation or channel closure.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(st coordinator.State) error {
		data, err := json.Marshal(newStateView(st))
		if err != nil {
			return err
		}
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := s.coord.Subscribe()
	defer s.coord.Unsubscribe(ch)

	if err := writeAndFlush(s.coord.State()); err != nil {
		return
	}

	for {
		select {
		case st, ok := <-ch:
			if !ok {
				return
			}
			if err := writeAndFlush(st); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}
