package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/signcast/server/internal/agent"
	"github.com/signcast/server/internal/models"
	"github.com/signcast/server/internal/observability"
)

func main() {
	serverURL := os.Getenv("SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:5000"
	}
	token := os.Getenv("SCREEN_TOKEN")
	if token == "" {
		log.Fatal("SCREEN_TOKEN is required")
	}
	cacheDir := os.Getenv("CACHE_DIR")
	if cacheDir == "" {
		cacheDir = "./cache"
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Fatalf("Failed to create cache directory: %v", err)
	}

	cache, err := agent.OpenCache(filepath.Join(cacheDir, "agent.db"))
	if err != nil {
		log.Fatalf("Failed to open cache: %v", err)
	}
	defer cache.Close()

	reporter := agent.NewStatusReporter(serverURL, token)
	syncer := agent.NewAssetSyncer(cache, reporter, serverURL, token, filepath.Join(cacheDir, "assets"))
	logger := observability.WithField("component", "agent")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := agent.NewHubClient(serverURL, token)
	client.OnConnected = func() {
		// Pushes missed while offline are gone; re-read the manifest
		go func() {
			if err := syncer.Resync(ctx); err != nil && ctx.Err() == nil {
				logger.Errorf("Resync after connect failed: %v", err)
			}
		}()
	}
	client.OnConfiguration = func(config models.ScreenConfiguration) {
		logger.Infof("Configuration received: %d campaigns for screen %s",
			len(config.Campaigns), config.ScreenName)
		if err := cache.ApplyConfiguration(ctx, config); err != nil && ctx.Err() == nil {
			logger.Errorf("Failed to store playback durations: %v", err)
		}
	}
	client.OnStartSync = func(manifest []models.CampaignSyncInfo) {
		go func() {
			if err := syncer.SyncCampaigns(ctx, manifest); err != nil && ctx.Err() == nil {
				logger.Errorf("Sync failed: %v", err)
			}
		}()
	}

	go func() {
		if err := client.Run(ctx); err != nil && ctx.Err() == nil {
			log.Fatalf("Hub client stopped: %v", err)
		}
	}()

	log.Printf("Signcast agent started, server %s, cache %s", serverURL, cacheDir)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down agent...")
	cancel()
}
