package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/KaramelBytes/tableloom/internal/analysis"
	"github.com/KaramelBytes/tableloom/internal/dashboard"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server serves dashboards over HTTP. Dashboards are loaded once and shared
// read-only by all requests.
type Server struct {
	router     *chi.Mux
	log        *slog.Logger
	dashboards map[string]*dashboard.Dashboard
	order      []string
	templates  *template.Template
}

// New builds the router for the given dashboards.
func New(dashboards []*dashboard.Dashboard, log *slog.Logger) (*Server, error) {
	funcMap := template.FuncMap{
		"stat": func(f analysis.Float) string {
			if !f.Valid() {
				return ""
			}
			return f.String()
		},
		"add": func(a, b int) int { return a + b },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		router:     chi.NewRouter(),
		log:        log,
		dashboards: make(map[string]*dashboard.Dashboard, len(dashboards)),
		templates:  templates,
	}
	for _, d := range dashboards {
		name := d.Profile().Name
		if _, dup := s.dashboards[name]; dup {
			return nil, fmt.Errorf("dataset %q registered twice", name)
		}
		s.dashboards[name] = d
		s.order = append(s.order, name)
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/d/{dataset}", s.handleDashboard)

	s.router.Route("/api/datasets", func(r chi.Router) {
		r.Get("/", s.handleListDatasets)
		r.Route("/{dataset}", func(r chi.Router) {
			r.Get("/summary", s.handleSummary)
			r.Get("/values/{column}", s.handleValues)
			r.Get("/view", s.handleView)
			r.Get("/charts/{index}.svg", s.handleChart)
			r.Get("/export.csv", s.handleExport)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully,
// giving in-flight requests up to timeout to finish.
func (s *Server) Run(ctx context.Context, addr string, timeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, timeout)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, timeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelError),
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("server listening", "addr", ln.Addr().String(), "datasets", len(s.order))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down", "timeout", timeout)
	sctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// requestLogger logs one line per request through slog.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
