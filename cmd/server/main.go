package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bartab/backend/docs"
	"github.com/bartab/backend/internal/audit"
	"github.com/bartab/backend/internal/config"
	"github.com/bartab/backend/internal/database"
	"github.com/bartab/backend/internal/handlers"
	"github.com/bartab/backend/internal/ledger"
	"github.com/bartab/backend/internal/logger"
	mW "github.com/bartab/backend/internal/middleware"
	"github.com/bartab/backend/internal/services"
	"github.com/bartab/backend/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Bar Tab API
// @version 1.0
// @description Customer tabs for a bar: pending charges, confirmed purchases, payments and balances.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	configErr := config.Init()
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	if configErr != nil {
		log.Warn().Err(configErr).Msg("Config file not found, using environment and defaults")
	}

	docs.SwaggerInfo.Host = "localhost:" + cfg.Port

	ctx := logger.WithContext(context.Background(), log)
	customers, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open customer store")
	}
	defer func() {
		if err := customers.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close customer store")
		}
	}()
	log.Info().Str("driver", cfg.StoreDriver).Msg("Customer store ready")

	engine := ledger.NewEngine(ledger.WithDefaultOperator(cfg.Tab.DefaultOperator))
	tabService := services.NewTabService(customers, engine, audit.NewLogger(log), log, cfg)
	tabHandler := handlers.NewTabHandler(tabService, log)

	r := newRouter(cfg, log, tabHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (store.CustomerStore, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory, "":
		return store.NewMemoryStore(), nil

	case config.StorePostgres:
		db, err := database.OpenPostgres(ctx, database.GetConfig())
		if err != nil {
			return nil, err
		}
		pg := store.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate customers table: %w", err)
		}
		return pg, nil

	case config.StoreRedis:
		client, err := database.OpenRedis(ctx, database.GetRedisConfig())
		if err != nil {
			return nil, err
		}
		return store.NewRedisStore(client, cfg.RedisPrefix), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func newRouter(cfg *config.Config, log zerolog.Logger, tabHandler *handlers.TabHandler) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mW.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mW.OperatorHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mW.Operator(cfg.JWTSecret))
		tabHandler.Routes(r)
	})

	// Operator UI
	r.Handle("/*", mW.StaticFileServer(cfg.StaticDir))

	return r
}
