package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/centavo-io/centavo/internal/config"
	"github.com/centavo-io/centavo/internal/database"
	"github.com/centavo-io/centavo/internal/handlers"
	"github.com/centavo-io/centavo/internal/repositories"
	"github.com/centavo-io/centavo/internal/services"
	"github.com/centavo-io/centavo/internal/sync"
)

func main() {
	ctx := context.Background()

	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database connections
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create postgres pool: %v", err)
	}
	defer postgresPool.Close()

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to create redis client: %v", err)
	}
	defer redisClient.Close()

	// Repositories and services
	userRepo := repositories.NewPostgresUserRepository(postgresPool)
	tenantRepo := repositories.NewPostgresTenantRepository(postgresPool)
	membershipCache := repositories.NewRedisMembershipCache(redisClient, cfg.MembershipCacheTTL)

	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpiry)
	guard := services.NewTenantGuardService(tenantRepo, membershipCache)

	// Sync engine: one adapter per synchronizable entity type
	registry := sync.NewRegistry(sync.DefaultAdapters(sync.DefaultDeps())...)
	coordinator := sync.NewCoordinator(postgresPool, registry, guard)

	authHandler := handlers.NewAuthHandler(authService)
	tenantHandler := handlers.NewTenantHandler(tenantRepo, membershipCache)
	syncHandler := handlers.NewSyncHandler(coordinator)

	// Initialize HTTP Server
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// Health check endpoints
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	router.Route("/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(handlers.Authenticator(authService))

			r.Post("/tenants", tenantHandler.Create)
			r.Get("/tenants", tenantHandler.List)
			r.Post("/tenants/{tenantID}/members", tenantHandler.AddMember)

			r.Route("/tenants/{tenantID}/sync", func(r chi.Router) {
				r.Post("/pull", syncHandler.Pull)
				r.Post("/push", syncHandler.Push)
			})
		})
	})

	// Start Server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	// graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped gracefully")
}
