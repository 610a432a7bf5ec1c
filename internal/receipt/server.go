package receipt

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
)

// Renderer produces the HTML presentation of a displayed record. Implemented
// by the export package; an interface here keeps the dependency pointing
// outward.
type Renderer interface {
	// Screen renders the interactive view with editing affordances.
	Screen(view *Record) ([]byte, error)
	// Print renders the inert, self-contained print document.
	Print(view *Record) ([]byte, error)
}

// BasicAuth holds basic authentication credentials.
type BasicAuth struct {
	Username string
	Password string
}

// Server is the HTTP collaborator surface over the core workflow.
type Server struct {
	service   *Service
	renderer  Renderer
	basicAuth BasicAuth
	mux       *http.ServeMux
}

// NewServer creates a Server with a default mux.
func NewServer(service *Service, renderer Renderer, basicAuth BasicAuth) *Server {
	return NewServerWithMux(service, renderer, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a Server with a custom mux for testing.
func NewServerWithMux(service *Service, renderer Renderer, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		service:   service,
		renderer:  renderer,
		basicAuth: basicAuth,
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials.
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // no auth required if not configured
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
			w.Header().Set("WWW-Authenticate", `Basic realm="Receipt Reform"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// corsMiddleware adds CORS headers and answers preflight requests.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all routes, most specific first.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/receipt/source", s.requireAuth(s.handleGetSource))
	s.mux.HandleFunc("GET /api/receipt/json", s.requireAuth(s.handleExportJSON))
	s.mux.HandleFunc("PATCH /api/receipt/date", s.requireAuth(s.handleEditDate))
	s.mux.HandleFunc("GET /api/receipt", s.requireAuth(s.handleGetReceipt))
	s.mux.HandleFunc("POST /api/receipt", s.requireAuth(s.handleUploadReceipt))
	s.mux.HandleFunc("DELETE /api/receipt", s.requireAuth(s.handleReset))
	s.mux.HandleFunc("GET /api/state", s.requireAuth(s.handleState))

	s.mux.HandleFunc("GET /export", s.requireAuth(s.handleExportDocument))

	s.mux.HandleFunc("GET /", s.requireAuth(s.handleIndex))
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
