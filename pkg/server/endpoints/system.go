package endpoints

import (
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/acgn-assistant/acgn-assistant/pkg/db"
	"github.com/acgn-assistant/acgn-assistant/pkg/server"
)

// SystemInfo is the public, secret-free view of the running configuration
type SystemInfo struct {
	BuildTag            string `json:"build_tag"`
	AppName             string `json:"app_name"`
	Env                 string `json:"env"`
	Database            string `json:"database"`
	LLMProvider         string `json:"llm_provider"`
	LLMConfigured       bool   `json:"llm_configured"`
	LLMModel            string `json:"llm_model"`
	WebSearchProvider   string `json:"web_search_provider"`
	WebSearchConfigured bool   `json:"web_search_configured"`
}

var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width">
    <title>{{.AppName}}</title>
  </head>
  <body>
    <main>
      <h1>{{.AppName}}</h1>
      <p>The server is running.</p>
      <dl>
        <dt>Build</dt><dd>{{.BuildTag}}</dd>
        <dt>Environment</dt><dd>{{.Env}}</dd>
        <dt>Model</dt><dd>{{.LLMModel}}</dd>
      </dl>
      <p><a href="/system/health">health</a> | <a href="/system/info">info</a></p>
    </main>
  </body>
</html>
`))

// RegisterSystemEndpoints registers the status page, health, info and
// metrics. None of them need a token.
func RegisterSystemEndpoints(s *server.Server) {
	s.Router.HandleFunc("/", handleStatus(s)).Methods("GET")
	s.Router.HandleFunc("/system/health", handleHealth(s)).Methods("GET")
	s.Router.HandleFunc("/system/info", handleInfo(s)).Methods("GET")
	s.Router.Handle("/metrics", s.Metrics.Handler()).Methods("GET")
	s.Router.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func systemInfo(s *server.Server) SystemInfo {
	cfg := s.Config
	return SystemInfo{
		BuildTag:            server.BuildTag,
		AppName:             cfg.AppName,
		Env:                 cfg.Env,
		Database:            db.Kind(cfg.DatabaseURL),
		LLMProvider:         strings.ToLower(strings.TrimSpace(cfg.LLMProvider)),
		LLMConfigured:       s.Agent.LLMConfigured(),
		LLMModel:            s.Agent.Model(false),
		WebSearchProvider:   strings.TrimSpace(cfg.WebSearchProvider),
		WebSearchConfigured: cfg.WebSearchConfigured(),
	}
}

func handleStatus(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := systemInfo(s)
		if r.URL.Query().Get("format") == "json" || strings.Contains(r.Header.Get("Accept"), "application/json") {
			respondWithJSON(w, http.StatusOK, map[string]string{
				"status":    "ok",
				"app_name":  info.AppName,
				"build_tag": info.BuildTag,
			})
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := statusPage.Execute(w, info); err != nil {
			s.Logger.Warn("failed to render status page", zap.Error(err))
		}
	}
}

func handleHealth(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.HealthStore.CheckConnectivity(); err != nil {
			s.Logger.Error("database unreachable", zap.Error(err))
			respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleInfo(s *server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, systemInfo(s))
	}
}
