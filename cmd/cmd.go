package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"direct-messenger-backend/internal/config"
	"direct-messenger-backend/internal/handlers"
	"direct-messenger-backend/internal/middleware"
	"direct-messenger-backend/internal/repository"
	"direct-messenger-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Run starts the messenger API server and blocks until SIGINT or SIGTERM
func Run() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	// Connect to database
	db, err := connectDB(context.Background(), cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	if cfg.Database.AutoMigrate {
		files, err := repository.MigrationFiles()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list migrations")
		}
		if err := repository.Migrate(context.Background(), db); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		log.Info().Int("files", len(files)).Msg("Database schema is up to date")
	}

	// Live event stream
	var (
		wsHub    *services.WSHub
		notifier services.Notifier
	)
	if cfg.Realtime.Enabled {
		wsHub = services.NewWSHub(cfg.Realtime.WriteTimeout, cfg.Realtime.PingInterval())
		notifier = wsHub
	}

	// Initialize services
	tokens := services.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	if !tokens.Enabled() {
		log.Warn().Msg("JWT secret is empty, requests are not authenticated")
	}
	accountService := services.NewAccountService(db, tokens, notifier)
	presenceService := services.NewPresenceService(db, notifier)
	chatService := services.NewChatService(db, notifier)
	messageService := services.NewMessageService(db, notifier)
	adminService := services.NewAdminService(db)

	// Initialize handlers
	deps := routerDeps{
		users:        handlers.NewUserHandler(accountService, presenceService),
		chats:        handlers.NewChatHandler(chatService),
		messages:     handlers.NewMessageHandler(messageService),
		admin:        handlers.NewAdminHandler(adminService),
		health:       handlers.NewHealthHandler(db),
		tokens:       tokens,
		queryTimeout: cfg.Database.QueryTimeout,
	}
	if wsHub != nil {
		deps.ws = handlers.NewWebSocketHandler(wsHub, tokens, cfg.Realtime.PongWait)
	}
	if cfg.Metrics.Enabled {
		deps.metricsPath = cfg.Metrics.Path
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      newRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not closed by Shutdown
	if wsHub != nil {
		wsHub.Close()
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	// Test database connection
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

type routerDeps struct {
	users        *handlers.UserHandler
	chats        *handlers.ChatHandler
	messages     *handlers.MessageHandler
	admin        *handlers.AdminHandler
	health       *handlers.HealthHandler
	ws           *handlers.WebSocketHandler
	tokens       middleware.TokenValidator
	queryTimeout time.Duration
	metricsPath  string
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.StoreTimeout(d.queryTimeout))

		// Public routes
		r.Post("/auth/register", d.users.Register)
		r.Post("/auth/login", d.users.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(d.tokens))

			r.Get("/users", d.users.GetUser)
			r.Put("/users", d.users.UpdateProfile)
			r.Put("/presence", d.users.UpdatePresence)

			r.Get("/chats", d.chats.GetChats)
			r.Post("/chats", d.chats.CreateChat)
			r.Get("/chats/{chat_id}/messages", d.messages.GetMessages)
			r.Post("/chats/{chat_id}/messages", d.messages.SendMessage)

			r.Get("/admin/users", d.admin.ListUsers)
			r.Put("/admin/block", d.admin.SetBlocked)
		})
	})

	// WebSocket route
	if d.ws != nil {
		r.Get("/ws", d.ws.HandleWebSocket)
	}

	r.Get("/healthz", d.health.Healthz)
	if d.metricsPath != "" {
		r.Handle(d.metricsPath, promhttp.Handler())
	}

	return r
}

// setupLogger configures zerolog logger
func setupLogger(level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
