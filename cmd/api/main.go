package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/srgjo27/campsite_booking/internal/adapter/handler"
	"github.com/srgjo27/campsite_booking/internal/adapter/repository/postgres"
	"github.com/srgjo27/campsite_booking/internal/adapter/storage/redisdraft"
	"github.com/srgjo27/campsite_booking/internal/adapter/storage/sqlitedraft"
	"github.com/srgjo27/campsite_booking/internal/core/domain"
	"github.com/srgjo27/campsite_booking/internal/core/ports"
	"github.com/srgjo27/campsite_booking/internal/core/services"
	"github.com/srgjo27/campsite_booking/internal/platform/config"
	"github.com/srgjo27/campsite_booking/internal/platform/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := database.NewPostgresDB(cfg.Postgres())
	if err != nil {
		log.Fatalf("Failed to connect to db after retries: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	defer db.Close()

	bookingRepo := postgres.NewBookingRepository(db)
	if err := bookingRepo.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare schema: %v", err)
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	draftStore, purger, closeDrafts := openDraftStore(cfg, redisClient)
	defer closeDrafts()

	catalog := domain.DefaultCatalog()

	bookingService := services.NewBookingService(bookingRepo, catalog, redisClient,
		services.WithReferencePrefix(cfg.ReferencePrefix),
		services.WithCacheTTL(cfg.BookingCacheTTL),
	)
	registry := services.NewSessionRegistry(catalog, bookingService, draftStore)

	janitor := services.NewDraftJanitor(cfg.JanitorInterval,
		services.WithSessionEviction(registry, cfg.SessionIdle),
		services.WithStaleDraftPurge(purger, cfg.DraftTTL),
	)
	go janitor.RunBackgroundCleanup(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(
		handler.NewSessionHandler(registry, catalog),
		handler.NewBookingHandler(bookingService),
	)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	if err := registry.Flush(shutdownCtx); err != nil {
		log.Printf("Some drafts were not saved: %v", err)
	}

	log.Println("Server exiting")
}

// openDraftStore picks the configured draft backend. SQLite drafts do not
// expire on their own, so that store is also returned as the purger.
func openDraftStore(cfg config.Config, redisClient *redis.Client) (ports.DraftStore, ports.DraftPurger, func()) {
	if cfg.DraftStore == config.DraftStoreSQLite {
		store, err := sqlitedraft.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to open draft store: %v", err)
		}

		return store, store, func() {
			if err := store.Close(); err != nil {
				log.Printf("Failed to close draft store: %v", err)
			}
		}
	}

	return redisdraft.New(redisClient, cfg.DraftTTL), nil, func() {}
}
