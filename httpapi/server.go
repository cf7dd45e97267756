// Package httpapi exposes the flow manager over HTTP for applications that
// embed it server-side: a sign-in starter, the OAuth callback endpoint, a
// sign-out endpoint and a diagnostics report.
package httpapi

import (
	"net/http"

	"github.com/cropgenius/authflow/flows"
	"github.com/cropgenius/authflow/identity"
	"github.com/pkg/errors"
)

// Route patterns served by the API.
const (
	RouteLogin       = "/auth/login"
	RouteCallback    = "/auth/callback"
	RouteSignOut     = "/auth/signout"
	RouteDiagnostics = "/auth/diagnostics"
	RouteHealth      = "/healthz"
)

// Server routes sign-in traffic to a flow manager. It implements
// http.Handler so it can be mounted directly or under a parent mux.
type Server struct {
	mux    *http.ServeMux
	routes []string

	manager *flows.Manager
	client  identity.Client

	// fallbackRedirect is where the callback sends the user agent when the
	// consumed flow record carries no redirect target.
	fallbackRedirect string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithFallbackRedirect sets the post-sign-in destination used when the flow
// record has none. The default is "/".
func WithFallbackRedirect(target string) ServerOption {
	return func(s *Server) {
		s.fallbackRedirect = target
	}
}

// New initialises a Server around the flow manager and identity client.
func New(manager *flows.Manager, client identity.Client, options ...ServerOption) (*Server, error) {
	if manager == nil {
		return nil, errors.New("[httpapi.New] flow manager is required")
	}
	if client == nil {
		return nil, errors.New("[httpapi.New] identity client is required")
	}

	s := &Server{
		mux:              http.NewServeMux(),
		manager:          manager,
		client:           client,
		fallbackRedirect: "/",
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	return s, nil
}

func (s *Server) initRoutes() {
	s.registerRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.standardMiddleware()...))
	s.registerRouteFunc("GET "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.standardMiddleware()...))
	s.registerRouteFunc("POST "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.standardMiddleware()...)) // form_post response mode
	s.registerRouteFunc("POST "+RouteSignOut, ChainMiddleware(s.SignOutHandler(), s.standardMiddleware()...))
	s.registerRouteFunc("GET "+RouteDiagnostics, ChainMiddleware(s.DiagnosticsHandler(), s.standardMiddleware()...))
	s.registerRouteFunc("GET "+RouteHealth, s.HealthHandler())
}

func (s *Server) registerRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered route patterns.
func (s *Server) Routes() []string {
	return s.routes
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
