package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/signcast/server/internal/config"
	"github.com/signcast/server/internal/handlers"
	custommw "github.com/signcast/server/internal/middleware"
	"github.com/signcast/server/internal/observability"
	"github.com/signcast/server/internal/repository"
	"github.com/signcast/server/internal/services"
)

const serviceVersion = "1.0.0"

// @title Signcast Fleet API
// @version 1.0
// @description Device fleet synchronization server for digital signage screens
// @BasePath /
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize telemetry
	ctx := context.Background()
	telemetry, err := observability.Initialize(ctx, observability.NewConfig("signcast-server", serviceVersion))
	if err != nil {
		log.Printf("Warning: telemetry initialization failed: %v", err)
	}

	// Initialize database
	var db *sql.DB
	if cfg.UsePostgres() {
		log.Println("Using PostgreSQL database")
		db, err = repository.NewPostgresDB(cfg.DatabaseURL)
	} else {
		log.Println("Using SQLite database")
		db, err = repository.NewSQLiteDB(cfg.DatabasePath)
	}
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	screenRepo := repository.NewScreenRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	syncStatusRepo := repository.NewSyncStatusRepository(db)

	// Metrics instruments
	httpMetrics, err := observability.NewHTTPMetrics()
	if err != nil {
		log.Fatalf("Failed to create HTTP metrics: %v", err)
	}
	fleetMetrics, err := observability.NewFleetMetrics()
	if err != nil {
		log.Fatalf("Failed to create fleet metrics: %v", err)
	}

	// Initialize services
	registry := services.NewConnectionRegistry()
	hub := services.NewScreenHub(registry)
	presence := services.NewPresenceTracker(screenRepo)
	screenService := services.NewScreenService(screenRepo)
	assetSync := services.NewAssetSyncService(syncStatusRepo, campaignRepo)
	syncService := services.NewScreenSyncService(
		screenRepo, campaignRepo, assetSync, registry, hub,
		cfg.Sync.DefaultAssetDurationSeconds, fleetMetrics,
	)

	// A screen's first connection gets a full push so it never plays a
	// stale configuration after reconnecting
	hub.OnPresenceChange(
		func(identity string) {
			presence.ScreenOnline(identity)
			fleetMetrics.RecordScreenOnline(context.Background())
			go pushToPrincipal(screenRepo, syncService, identity)
		},
		func(identity string) {
			presence.ScreenOffline(identity)
			fleetMetrics.RecordScreenOffline(context.Background())
		},
	)
	go hub.Run()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	wsHandler := handlers.NewWebSocketHandler(hub)
	screenHandler := handlers.NewScreenHandler(screenService, assetSync, registry)
	campaignHandler := handlers.NewCampaignHandler(campaignRepo, syncService)
	assetHandler := handlers.NewAssetHandler(assetRepo, cfg.AssetStorage.BasePath)
	syncHandler := handlers.NewSyncHandler(assetSync, syncService, fleetMetrics)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware("signcast-server"))
	r.Use(observability.MetricsMiddleware(httpMetrics))

	screenAuth := custommw.ScreenAuth(screenService, fleetMetrics)
	adminAuth := custommw.AdminAPIKeyAuth(cfg.Security.AdminAPIKey, cfg.Security.AdminAPIKeyHeader)

	// Routes
	r.Get("/health", healthHandler.HealthCheck)
	r.Get("/api/health", healthHandler.HealthCheck)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Screen self-registration is the only unauthenticated endpoint
	r.Post("/api/screens/register", screenHandler.Register)

	// Live channel (screen token)
	r.With(screenAuth).Get("/ws", wsHandler.HandleConnection)

	// Screen-facing sync API (screen token)
	r.Route("/api/sync", func(r chi.Router) {
		r.Use(screenAuth)
		r.Post("/status", syncHandler.ReportStatus)
		r.Get("/status", syncHandler.GetStatuses)
		r.Get("/campaigns", syncHandler.GetManifest)
		r.Get("/configuration", syncHandler.GetConfiguration)
	})

	// Asset downloads (screen token)
	r.With(screenAuth).Get("/api/assets/{id}/download", assetHandler.DownloadAsset)

	// Admin API (API key)
	r.Group(func(r chi.Router) {
		r.Use(adminAuth)

		r.Route("/api/screens", func(r chi.Router) {
			r.Get("/", screenHandler.ListScreens)
			r.Get("/{id}", screenHandler.GetScreen)
			r.Put("/{id}", screenHandler.UpdateScreen)
			r.Post("/{id}/approve", screenHandler.ApproveScreen)
			r.Post("/{id}/reject", screenHandler.RejectScreen)
			r.Get("/{id}/sync-status", screenHandler.GetScreenSyncStatus)
		})

		r.Route("/api/campaigns", func(r chi.Router) {
			r.Get("/", campaignHandler.ListCampaigns)
			r.Get("/{id}", campaignHandler.GetCampaign)
			r.Post("/{id}/push", campaignHandler.PushCampaign)
			r.Post("/{id}/screens/{screenId}", campaignHandler.AssignScreen)
			r.Delete("/{id}/screens/{screenId}", campaignHandler.UnassignScreen)
		})

		r.Get("/api/assets", assetHandler.ListAssets)
	})

	// Create server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Longer for asset downloads
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Signcast Fleet Server starting on %s", cfg.ServerAddress)
		log.Printf("Asset storage path: %s", cfg.AssetStorage.BasePath)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.Printf("Telemetry shutdown error: %v", err)
		}
	}

	log.Println("Server stopped")
}

// pushToPrincipal resolves the screen behind a connection identity and
// pushes its current state
func pushToPrincipal(screenRepo repository.ScreenRepo, syncService *services.ScreenSyncService, principalID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	screen, err := screenRepo.GetByPrincipalID(ctx, principalID)
	if err != nil || screen == nil {
		return
	}
	if err := syncService.SyncScreen(ctx, screen.ID); err != nil {
		log.Printf("Push on connect failed for screen %s: %v", screen.ID, err)
	}
}
