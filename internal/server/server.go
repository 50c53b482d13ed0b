package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"debandi-store/internal/config"
	custommiddleware "debandi-store/internal/middleware"
	"debandi-store/internal/ratelimit"
	"debandi-store/internal/repository"
	"debandi-store/internal/service"
	"debandi-store/internal/token"
	"debandi-store/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const limiterSweepInterval = 5 * time.Minute

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redis       *redis.Client
	stores      []*ratelimit.MemoryStore
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
}

// NewServer wires repositories, services, limiters and handlers into an
// http.Server. db is nil when the memory store driver is selected.
func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB) *Server {
	router := chi.NewRouter()

	s := &Server{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.Logging(logger))
	router.Use(custommiddleware.CORS(nil, cfg.Server.Env != "production"))
	router.Use(custommiddleware.ErrorHandling(logger))
	router.Use(custommiddleware.RateLimit(s.apiLimiter(), logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Repositories
	if cfg.Database.Driver == "memory" || db == nil {
		s.userRepo = repository.NewMemoryUserRepository()
		s.productRepo = repository.NewMemoryProductRepository()
	} else {
		s.userRepo = repository.NewUserRepository(db)
		s.productRepo = repository.NewProductRepository(db)
	}

	// Services
	tokenExpiry := time.Duration(cfg.JWT.ExpiryDays) * 24 * time.Hour
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, tokenExpiry)
	authService := service.NewAuthService(s.userRepo, tokens)
	productService := service.NewProductService(s.productRepo)

	// Per-endpoint limiters; registration is stricter than login
	loginLimiter := ratelimit.New(s.memoryStore(), cfg.RateLimit.LoginMaxAttempts, cfg.RateLimit.LoginWindow)
	registerLimiter := ratelimit.New(s.memoryStore(), cfg.RateLimit.RegisterMaxAttempts, cfg.RateLimit.RegisterWindow)

	// Handlers
	secureCookies := cfg.Server.Env == "production"
	authHandler := transport.NewAuthHandler(authService, loginLimiter, registerLimiter, tokenExpiry, secureCookies, logger)
	productHandler := transport.NewProductHandler(productService, logger)

	authMiddleware := custommiddleware.Auth(tokens, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	authHandler.RegisterRoutes(router)
	productHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Seed creates the default accounts and catalog when they are missing.
func (s *Server) Seed(ctx context.Context) error {
	return repository.SeedDefaults(ctx, s.userRepo, s.productRepo, s.logger)
}

// apiLimiter builds the general request limiter, shared across processes
// through Redis when configured.
func (s *Server) apiLimiter() *ratelimit.Limiter {
	cfg := s.config

	if cfg.Redis.Addr != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := ratelimit.NewRedisStore(s.redis, "ratelimit:api")
		return ratelimit.New(store, cfg.RateLimit.APIMaxRequests, cfg.RateLimit.APIWindow)
	}

	return ratelimit.New(s.memoryStore(), cfg.RateLimit.APIMaxRequests, cfg.RateLimit.APIWindow)
}

func (s *Server) memoryStore() *ratelimit.MemoryStore {
	store := ratelimit.NewMemoryStore(limiterSweepInterval)
	s.stores = append(s.stores, store)
	return store
}

// Close releases server resources: limiter sweeps, the redis client and
// the database pool.
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	for _, store := range s.stores {
		store.Stop()
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
