package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"wealthnav/internal/core"
	"wealthnav/internal/extract"
	applog "wealthnav/internal/log"
	"wealthnav/internal/middleware/ratelimit"
	"wealthnav/internal/middleware/security"
	"wealthnav/internal/middleware/trace"
	"wealthnav/internal/services"
	appweb "wealthnav/web"
)

// Deps are the collaborators the server renders and records through.
type Deps struct {
	Dashboard *services.DashboardService
	Snapshots *services.SnapshotService

	// Extractor enables screenshot upload; nil leaves manual entry only.
	Extractor   extract.Extractor
	Commentator extract.Commentator

	// Location decides which calendar day "today" is.
	Location *time.Location
	Logger   *applog.Logger

	// Ready reports whether the ledger store is reachable.
	Ready func(context.Context) error
}

type Server struct {
	http.Server
	templates *template.Template
	deps      Deps
	limiter   *ratelimit.Limiter
	logger    *applog.Logger
	now       func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		deps:    deps,
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		logger:  logger,
		now:     time.Now,
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/series", s.handleSeries)
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("POST /snapshots", s.handleCreateSnapshot)
	mux.HandleFunc("POST /extract", s.handleExtract)
	mux.HandleFunc("POST /confirm", s.handleConfirm)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	var h http.Handler = mux
	h = s.limiter.Middleware(security.ClientIP, nil)(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = applog.Middleware(logger, trace.FromRequest)(h)
	h = trace.Middleware(h)
	s.Handler = h
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// today is the current calendar day in the ledger's timezone.
func (s *Server) today() core.Date {
	return core.DateOf(s.now().In(s.deps.Location))
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusServiceUnavailable)
		return
	}
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.deps.Ready(ctx); err != nil {
			slog.WarnContext(ctx, "Readiness check failed", "error", err)
			http.Error(w, "ledger store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
