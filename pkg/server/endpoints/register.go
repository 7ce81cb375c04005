package endpoints

import (
	"github.com/gorilla/mux"

	"github.com/acgn-assistant/acgn-assistant/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterAuthEndpoints(srv)
	RegisterUsersEndpoints(srv)
	RegisterConversationsEndpoints(srv)
	RegisterMemoryEndpoints(srv)
	RegisterResourcesEndpoints(srv)
	RegisterRecommendationsEndpoints(srv)
	RegisterReportsEndpoints(srv)
	RegisterGuestbookEndpoints(srv)
	RegisterAdminEndpoints(srv)
	RegisterSystemEndpoints(srv)
}

// authed returns a subrouter under prefix whose routes require a valid
// bearer token
func authed(s *server.Server, prefix string) *mux.Router {
	r := s.Router.PathPrefix(prefix).Subrouter()
	r.Use(s.JWTMiddleware.Middleware)
	return r
}
