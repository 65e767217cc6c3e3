package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cwygoda/imagepress/internal/adapter/assetdir"
	"github.com/cwygoda/imagepress/internal/adapter/compressor"
	httpAdapter "github.com/cwygoda/imagepress/internal/adapter/http"
	"github.com/cwygoda/imagepress/internal/adapter/sqlite"
	"github.com/cwygoda/imagepress/internal/config"
	"github.com/cwygoda/imagepress/internal/domain"
	"github.com/cwygoda/imagepress/internal/worker"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found")
	}

	cfg := config.Load()

	log.Printf("starting imagepress on port %d", cfg.Port)
	log.Printf("database: %s", cfg.DBPath)
	log.Printf("output dir: %s", cfg.OutputDir)

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer repo.Close()

	// Initialize domain service
	svc := domain.NewJobService(repo)

	// Jobs left non-terminal by a previous crash will never resume
	if failed, err := svc.FailInterrupted(context.Background()); err != nil {
		log.Printf("warning: failed to recover interrupted jobs: %v", err)
	} else if failed > 0 {
		log.Printf("marked %d interrupted jobs as failed", failed)
	}

	// Initialize asset store and compressor
	assets, err := assetdir.New(cfg.OutputDir)
	if err != nil {
		log.Fatalf("failed to initialize asset store: %v", err)
	}
	comp := compressor.New(assets, cfg.PublicBaseURL, cfg.FetchTimeout)

	// Initialize processor and dispatcher
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proc := worker.NewProcessor(svc, comp, cfg.FetchConcurrency)
	disp := worker.NewDispatcher(ctx, svc, proc, cfg.MaxJobs)

	// Initialize HTTP server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := httpAdapter.NewServer(svc, disp, assets, addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("HTTP server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err.Error() != "http: Server closed" {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-sigCh
	log.Printf("received signal %v, shutting down", sig)

	// Stop accepting submissions first
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Give in-flight jobs a chance to reach a terminal state
	waitCtx, waitCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer waitCancel()
	if err := disp.Wait(waitCtx); err != nil {
		log.Printf("jobs still in flight at shutdown: %v", err)
	}
	cancel()

	log.Println("shutdown complete")
}
