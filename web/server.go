// Package web serves the comparison UI and its JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anneal-bench/anneal-bench/internal/sapi"
	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/compare"
	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

//go:embed templates/*.html static/*
var assets embed.FS

// Options configures a Server.
type Options struct {
	Runner   *compare.Runner
	Defaults compare.RunConfig

	// TemplateDir, when set, loads templates from disk instead of the
	// embedded copies. In gin debug mode they are re-parsed on every request.
	TemplateDir string

	// CatalogTimeout bounds the service calls made while rendering a page.
	CatalogTimeout time.Duration
}

// Server is the HTTP front end. It is an http.Handler.
type Server struct {
	runner         *compare.Runner
	sessions       *sessionStore
	router         *gin.Engine
	catalogTimeout time.Duration

	mu       sync.Mutex
	defaults compare.RunConfig
}

// NewServer builds the router.
func NewServer(opts Options) (*Server, error) {
	if opts.Runner == nil {
		return nil, errors.New("web: a runner is required")
	}
	if opts.CatalogTimeout <= 0 {
		opts.CatalogTimeout = 30 * time.Second
	}
	s := &Server{runner: opts.Runner, defaults: opts.Defaults, catalogTimeout: opts.CatalogTimeout}
	s.sessions = newSessionStore(s.Defaults)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.SetFuncMap(funcMap)
	if opts.TemplateDir != "" {
		pattern := filepath.Join(opts.TemplateDir, "*.html")
		if matches, _ := filepath.Glob(pattern); len(matches) == 0 {
			return nil, fmt.Errorf("web: no templates match %s", pattern)
		}
		r.LoadHTMLGlob(pattern)
	} else {
		tmpl, err := template.New("").Funcs(funcMap).ParseFS(assets, "templates/*.html")
		if err != nil {
			return nil, fmt.Errorf("web: parsing templates: %w", err)
		}
		r.SetHTMLTemplate(tmpl)
	}
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, err
	}
	r.StaticFS("/static", http.FS(static))

	r.Use(s.sessions.middleware())
	r.GET("/", s.index)
	r.POST("/run", s.startRun)
	r.POST("/cancel", s.cancelRun)
	r.GET("/results", s.results)

	api := r.Group("/api")
	api.GET("/solvers", s.apiSolvers)
	api.GET("/intersection", s.apiIntersection)
	api.GET("/anneal-range", s.apiAnnealRange)
	api.POST("/run", s.apiRun)
	api.GET("/run", s.apiRunStatus)
	api.POST("/cancel", s.apiCancel)
	api.GET("/config", s.apiExportConfig)
	api.PUT("/config", s.apiImportConfig)

	s.router = r
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Defaults returns the settings given to new sessions.
func (s *Server) Defaults() compare.RunConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaults
}

// SetDefaults changes the settings given to new sessions. Existing sessions
// keep theirs.
func (s *Server) SetDefaults(cfg compare.RunConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = cfg
}

func (s *Server) run(ctx context.Context, cfg compare.RunConfig) (*compare.Result, error) {
	return s.runner.Run(ctx, cfg)
}

// requestLogger logs every request through logrus.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		entry := logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
			"client":  c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request")
	}
}

// statusFor maps an error to the HTTP status the API reports.
func statusFor(err error) int {
	switch {
	case spinglass.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrSuperseded), errors.Is(err, context.Canceled):
		return http.StatusConflict
	case errors.Is(err, compare.ErrUnknownSolver), errors.Is(err, sapi.ErrSolverNotFound):
		return http.StatusNotFound
	case errors.Is(err, compare.ErrEmptyTopology), errors.Is(err, topology.ErrEmptyGraph),
		errors.Is(err, topology.ErrNoPlacement), errors.Is(err, topology.ErrTileMismatch):
		return http.StatusConflict
	case errors.Is(err, sapi.ErrUnauthorized), errors.Is(err, spinglass.ErrIncompleteRun):
		return http.StatusBadGateway
	case errors.Is(err, sapi.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	var pe *sapi.ProblemError
	if errors.As(err, &pe) || errors.Is(err, sapi.ErrCancelled) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// bannerFor returns the message shown in the blocking error banner.
func bannerFor(err error) string {
	switch {
	case errors.Is(err, sapi.ErrUnauthorized):
		return "The solver service rejected the API token. Set service.token, DWAVE_API_TOKEN or .secrets/dwave-api-token and restart."
	case errors.Is(err, sapi.ErrUnavailable):
		return "The solver service is unavailable. Check the endpoint and your network connection."
	}
	return err.Error()
}

// fieldErrors collects validation messages keyed by setting name.
func fieldErrors(err error) map[string]string {
	var ve *spinglass.ValidationError
	if errors.As(err, &ve) {
		return map[string]string{ve.Field: ve.Msg}
	}
	return nil
}

func abortJSON(c *gin.Context, err error) {
	code := statusFor(err)
	body := gin.H{"error": err.Error()}
	var ve *spinglass.ValidationError
	if errors.As(err, &ve) {
		body["field"] = ve.Field
	}
	c.AbortWithStatusJSON(code, body)
}
