package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"

	"github.com/anhbaysgalan1/turngame/internal/aidriver"
	"github.com/anhbaysgalan1/turngame/internal/aidriver/strategies"
	"github.com/anhbaysgalan1/turngame/internal/auth"
	"github.com/anhbaysgalan1/turngame/internal/config"
	"github.com/anhbaysgalan1/turngame/internal/database"
	"github.com/anhbaysgalan1/turngame/internal/engine/tictactoe"
	"github.com/anhbaysgalan1/turngame/internal/gamemanager"
	"github.com/anhbaysgalan1/turngame/internal/hub"
	"github.com/anhbaysgalan1/turngame/internal/lock"
	custommiddleware "github.com/anhbaysgalan1/turngame/internal/middleware"
	"github.com/anhbaysgalan1/turngame/internal/registry"
	"github.com/anhbaysgalan1/turngame/internal/repository"
	"github.com/anhbaysgalan1/turngame/internal/statemanager"
)

// GameServer wires C1-C8 together behind a thin chi router and websocket
// mount.
type GameServer struct {
	config          *config.Config
	db              *database.DB
	jwtManager      *auth.JWTManager
	authMiddleware  *auth.AuthMiddleware
	apiRateLimiter  *custommiddleware.RateLimiter
	authRateLimiter *custommiddleware.RateLimiter // guards /ws, where each handshake re-validates a JWT
	server          *http.Server

	registry     *registry.Registry
	repo         repository.Repository
	hub          *hub.Hub
	gameManager  *gamemanager.Manager
	stateManager *statemanager.Manager
}

// NewGameServer loads configuration, connects to Postgres, migrates the
// games table, wires the core packages and optional Redis fan-out, and
// returns a ready-to-Start server.
func NewGameServer() (*GameServer, error) {
	cfg := config.Load()

	db, err := database.NewConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&repository.GameRow{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.JWTTokenTTL)*time.Minute)
	authMiddleware := auth.NewAuthMiddleware(jwtManager)

	apiRateLimiter := custommiddleware.NewAPIRateLimiter()
	authRateLimiter := custommiddleware.NewAuthRateLimiter()

	reg := registry.New()
	if err := reg.Register(tictactoe.New()); err != nil {
		return nil, fmt.Errorf("failed to register tic-tac-toe engine: %w", err)
	}

	repo := repository.NewPostgres(db.DB)

	var h *hub.Hub
	if cfg.RedisURL != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisURL, Password: cfg.RedisPassword})
		h = hub.NewWithRedis(client)
		slog.Info("Subscriber hub wired with Redis cross-process fan-out", "addr", cfg.RedisURL)
	} else {
		h = hub.New()
	}

	ai := aidriver.New()
	ai.Register(strategies.New())

	gm := gamemanager.New(reg, repo)
	sm := statemanager.New(reg, repo, lock.New(), h, ai, statemanager.WithMaxAIIterations(cfg.MaxAIIterations))

	return &GameServer{
		config:          cfg,
		db:              db,
		jwtManager:      jwtManager,
		authMiddleware:  authMiddleware,
		apiRateLimiter:  apiRateLimiter,
		authRateLimiter: authRateLimiter,
		registry:        reg,
		repo:            repo,
		hub:             h,
		gameManager:     gm,
		stateManager:    sm,
	}, nil
}

func (s *GameServer) Start() error {
	router := s.setupRouter()

	s.server = &http.Server{
		Addr:    ":" + s.config.Port,
		Handler: router,
	}

	go func() {
		slog.Info("Starting game server", "port", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	return s.Shutdown()
}

func (s *GameServer) Shutdown() error {
	timeout := time.Duration(s.config.ShutdownTimeoutS) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	if err := s.db.Close(); err != nil {
		slog.Error("Failed to close database connection", "error", err)
	}

	s.apiRateLimiter.Close()
	s.authRateLimiter.Close()

	slog.Info("Server shutdown complete")
	return nil
}

func (s *GameServer) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(auth.SecurityHeaders)
	r.Use(s.apiRateLimiter.RateLimit)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.With(s.authRateLimiter.RateLimit).Get("/ws", s.serveWebSocket)

	gameHandler := newGameHandler(s.gameManager, s.stateManager, s.registry)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware.RequireAuth)
		r.Get("/api/engines", gameHandler.listEngines)
	})

	r.Route("/api/games", func(r chi.Router) {
		r.Use(s.authMiddleware.RequireAuth)
		r.Post("/", gameHandler.createGame)
		r.Get("/", gameHandler.listGames)
		r.Get("/{gameID}", gameHandler.getGame)
		r.Post("/{gameID}/join", gameHandler.joinGame)
		r.Post("/{gameID}/moves", gameHandler.submitMove)
		r.Post("/{gameID}/moves/validate", gameHandler.validateMove)
	})

	return r
}
