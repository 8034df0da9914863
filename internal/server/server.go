// Package server is the HTTP shell around the scan pipeline. It owns
// request parsing, the response envelope and operational endpoints; all
// receipt understanding lives in internal/scanning.
package server

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/harina-project/harina/internal/scanning"
)

// Processor runs the receipt pipeline for one request.
type Processor interface {
	Process(ctx context.Context, req scanning.Request) (*scanning.Result, error)
}

// Categories exposes the taxonomy side channel the maintenance and health
// endpoints report on.
type Categories interface {
	Snapshot(ctx context.Context) string
	Sync(ctx context.Context) (string, error)
}

// DefaultModel is used when a request does not name one.
const DefaultModel = "gemini/gemini-2.5-flash"

// BasicAuth holds optional basic authentication credentials. Both fields
// empty disables authentication.
type BasicAuth struct {
	Username string
	Password string
}

// Server handles HTTP requests for receipt processing.
type Server struct {
	processor  Processor
	categories Categories
	metrics    *Metrics
	basicAuth  BasicAuth
	mux        *http.ServeMux
}

// NewServer creates a Server with a default mux.
func NewServer(processor Processor, categories Categories, metrics *Metrics, basicAuth BasicAuth) *Server {
	s := &Server{
		processor:  processor,
		categories: categories,
		metrics:    metrics,
		basicAuth:  basicAuth,
		mux:        http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials.
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}
	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}
	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// requireAuth middleware.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="Harina"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// corsMiddleware adds CORS headers and answers preflight requests.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /process", s.requireAuth(s.handleProcess))
	s.mux.HandleFunc("POST /process_base64", s.requireAuth(s.handleProcessBase64))
	s.mux.HandleFunc("POST /maintenance/refresh-categories", s.requireAuth(s.handleRefreshCategories))
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("GET /", s.handleRoot)
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.corsMiddleware(s.mux))
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.corsMiddleware(s.mux).ServeHTTP(w, r)
}
