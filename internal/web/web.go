package web

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"evcal/internal/catalog"
	"evcal/internal/config"
	appLog "evcal/internal/log"
)

const responseCacheTTL = 30 * time.Second

// Server exposes the catalog over HTTP. It serves the last template
// snapshot handed to SetTemplates; occurrences are expanded per request
// and responses are cached briefly.
type Server struct {
	cfg     *config.Config
	builder *catalog.Builder
	loc     *time.Location
	router  chi.Router

	// now returns the naive current time; replaced in tests.
	now func() time.Time

	mu        sync.RWMutex
	templates []catalog.Template
	registry  *catalog.MemoryRegistry
	loadedAt  time.Time

	cacheMu sync.Mutex
	cache   map[string]cachedResponse
}

type cachedResponse struct {
	contentType string
	body        []byte
	storedAt    time.Time
}

// NewServer constructs a Server. loc is the zone "now" is read in; nil
// means time.Local.
func NewServer(cfg *config.Config, builder *catalog.Builder, loc *time.Location) *Server {
	s := &Server{
		cfg:      cfg,
		builder:  builder,
		loc:      loc,
		registry: catalog.NewMemoryRegistry(),
		cache:    make(map[string]cachedResponse),
	}
	s.now = func() time.Time { return catalog.NaiveNow(s.loc) }
	s.router = s.routes()
	return s
}

// SetTemplates replaces the template snapshot, republishes every
// occurrence and drops cached responses.
func (s *Server) SetTemplates(templates []catalog.Template) catalog.Result {
	reg := catalog.NewMemoryRegistry()
	res := s.builder.Publish(templates, reg)

	s.mu.Lock()
	s.templates = templates
	s.registry = reg
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.cacheMu.Lock()
	s.cache = make(map[string]cachedResponse)
	s.cacheMu.Unlock()

	appLog.Info("web: templates loaded",
		"templates", len(templates),
		"occurrences", reg.Len(),
		"skipped", len(res.Skipped),
		"fallbacks", len(res.Fallbacks),
	)
	return res
}

func (s *Server) snapshot() ([]catalog.Template, *catalog.MemoryRegistry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.templates, s.registry
}

// Handler returns the router wrapped with CORS and, when configured, HTTP
// Basic Auth.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(h)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/occurrences", s.handleOccurrences)
		r.Get("/occurrences/{token}", s.handleOccurrence)
		r.Get("/calendar/{year}/{month}", s.handleCalendar)
		r.Get("/templates/{id}", s.handleTemplate)
	})
	r.Get("/calendar.ics", s.handleFeed)
	return r
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="evcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

// cached serves the response stored under the request URL if it is fresher
// than responseCacheTTL. Otherwise render runs and a 200 result is stored.
func (s *Server) cached(w http.ResponseWriter, r *http.Request, render func() (int, string, []byte)) {
	key := r.URL.RequestURI()
	now := time.Now()

	s.cacheMu.Lock()
	c, ok := s.cache[key]
	s.cacheMu.Unlock()
	if ok && now.Sub(c.storedAt) < responseCacheTTL {
		w.Header().Set("X-Cache", "HIT")
		write(w, http.StatusOK, c.contentType, c.body)
		return
	}

	status, contentType, body := render()
	if status == http.StatusOK {
		s.cacheMu.Lock()
		s.cache[key] = cachedResponse{contentType: contentType, body: body, storedAt: now}
		s.cacheMu.Unlock()
	}
	w.Header().Set("X-Cache", "MISS")
	write(w, status, contentType, body)
}

func write(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
