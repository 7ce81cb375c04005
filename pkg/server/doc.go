// Package server provides the HTTP server for the assistant API.
//
// The Server struct holds the configuration, the stores and the services
// endpoints share: token issuing, verification codes, the mail queue, the
// audit logger, the agent engine, recommendations, reports and web search.
// It uses gorilla/mux for routing; Handler wraps the router with request ids,
// access logging, panic recovery, proxy header handling and CORS.
//
// # Server Setup
//
//	srv, err := server.NewServer(cfg, db, logger, metrics, "0.0.0.0", "8000")
//	if err != nil {
//	    return err
//	}
//	endpoints.RegisterAll(srv)
//	return srv.Start()
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//   - /auth/... - registration, login, guest login and password reset
//   - /users/me, /profile - the caller's account
//   - /conversations/... - chat, including the SSE stream
//   - /memory, /resources, /recommendations, /reports, /guestbook
//   - /admin/... - user management, conversation review and audit logs
//   - /system/health, /system/info, /metrics
package server
