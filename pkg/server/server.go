package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/acgn-assistant/acgn-assistant/pkg/agent"
	"github.com/acgn-assistant/acgn-assistant/pkg/audit"
	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator"
	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator/guest"
	"github.com/acgn-assistant/acgn-assistant/pkg/authenticator/password"
	"github.com/acgn-assistant/acgn-assistant/pkg/config"
	"github.com/acgn-assistant/acgn-assistant/pkg/llm"
	"github.com/acgn-assistant/acgn-assistant/pkg/mailer"
	"github.com/acgn-assistant/acgn-assistant/pkg/metrics"
	"github.com/acgn-assistant/acgn-assistant/pkg/recommend"
	"github.com/acgn-assistant/acgn-assistant/pkg/report"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/middleware"
	"github.com/acgn-assistant/acgn-assistant/pkg/server/store"
	gormstore "github.com/acgn-assistant/acgn-assistant/pkg/server/store/gorm"
	"github.com/acgn-assistant/acgn-assistant/pkg/token"
	"github.com/acgn-assistant/acgn-assistant/pkg/verification"
	"github.com/acgn-assistant/acgn-assistant/pkg/websearch"
)

// BuildTag identifies the running build in /system/info
var BuildTag = "dev"

type Server struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Collector
	Router  *mux.Router
	DB      *gorm.DB

	UsersStore         store.UsersStore
	ProfilesStore      store.ProfilesStore
	ConversationsStore store.ConversationsStore
	MemoryStore        store.MemoryStore
	ResourcesStore     store.ResourcesStore
	ReportsStore       store.ReportsStore
	GuestbookStore     store.GuestbookStore
	AuditLogsStore     store.AuditLogsStore
	HealthStore        store.HealthStore

	Authenticators *authenticator.Registry
	Tokens         *token.Issuer
	Codes          *verification.Service
	Mail           *mailer.Queue
	Auditor        *audit.Auditor
	Agent          *agent.Engine
	Recommender    *recommend.Engine
	Reports        *report.Generator
	Search         websearch.Searcher

	JWTMiddleware *middleware.JWTAuthenticator
	AuthLimiter   *middleware.RateLimiter

	srv *http.Server
}

// NewServer wires every store and service on top of db
func NewServer(
	cfg *config.Config,
	db *gorm.DB,
	logger *zap.Logger,
	m *metrics.Collector,
	host string,
	port string,
) (*Server, error) {
	users := gormstore.NewUsersStore(db)
	profiles := gormstore.NewProfilesStore(db)
	conversations := gormstore.NewConversationsStore(db)
	memories := gormstore.NewMemoryStore(db)
	resources := gormstore.NewResourcesStore(db)
	reports := gormstore.NewReportsStore(db)

	sender, err := mailer.NewFromConfig(cfg, logger.Named("mailer"))
	if err != nil {
		return nil, err
	}

	terms, err := agent.NewTermCache(0, 0)
	if err != nil {
		return nil, err
	}
	recommender := recommend.New(resources, profiles)
	engine := agent.NewEngine(agent.Options{
		LLM:         llm.NewFromConfig(cfg, logger.Named("llm"), m),
		Profiles:    profiles,
		Memories:    memories,
		Recommender: recommender,
		Terms:       terms,
		Logger:      logger.Named("agent"),
		Metrics:     m,
	})

	registry := authenticator.NewRegistry()
	registry.Register(password.New(users, cfg))
	registry.Register(guest.New(users))

	tokens := token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL())
	jwt := middleware.NewJWTAuthenticator(tokens, users, cfg)
	jwt.Logger = logger.Named("auth")

	s := &Server{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Router:  mux.NewRouter(),
		DB:      db,

		UsersStore:         users,
		ProfilesStore:      profiles,
		ConversationsStore: conversations,
		MemoryStore:        memories,
		ResourcesStore:     resources,
		ReportsStore:       reports,
		GuestbookStore:     gormstore.NewGuestbookStore(db),
		AuditLogsStore:     gormstore.NewAuditLogsStore(db),
		HealthStore:        gormstore.NewHealthStore(db),

		Authenticators: registry,
		Tokens:         tokens,
		Codes:          verification.New(gormstore.NewVerificationCodesStore(db)),
		Mail:           mailer.NewQueue(sender, mailer.DefaultQueueSize, logger.Named("mailer"), m),
		Auditor:        audit.New(audit.NewLogger(), audit.NewStore(db), logger.Named("audit")),
		Agent:          engine,
		Recommender:    recommender,
		Reports:        report.NewGenerator(conversations, memories, reports),
		Search:         websearch.NewFromConfig(cfg),

		JWTMiddleware: jwt,
		AuthLimiter:   middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
	s.Router.Use(middleware.Metrics(m))

	s.srv = &http.Server{
		Handler:           s.Handler(),
		Addr:              net.JoinHostPort(host, port),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Streaming replies extend their own write deadline.
		WriteTimeout: 60 * time.Second,
	}
	return s, nil
}

// Handler wraps the router with request ids, access logs, panic recovery,
// proxy header resolution and CORS
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router
	h = handlers.CORS(
		handlers.AllowedOrigins(s.Config.CORSOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.AllowCredentials(),
	)(h)
	h = handlers.ProxyHeaders(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.Logger)),
		handlers.PrintRecoveryStack(!s.Config.IsProd()),
	)(h)
	h = middleware.Logger(s.Logger)(h)
	return middleware.RequestID(h)
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.Logger.Info("server listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then flushes queued mail and stops the
// agent's cache
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	if s.Mail != nil {
		s.Mail.Close()
	}
	if s.Agent != nil {
		s.Agent.Close()
	}
	return err
}
