package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/weststar/helimx/internal/alerts"
	"github.com/weststar/helimx/internal/api"
	"github.com/weststar/helimx/internal/config"
	"github.com/weststar/helimx/internal/directives"
	"github.com/weststar/helimx/internal/events"
	"github.com/weststar/helimx/internal/fleet"
	"github.com/weststar/helimx/internal/generation"
	"github.com/weststar/helimx/internal/storage/sqlite"
	"github.com/weststar/helimx/internal/websocket"
	"github.com/weststar/helimx/internal/workcards"
	"github.com/weststar/helimx/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("Server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Persistence
	kv, err := sqlite.Open(cfg.Storage.SQLitePath, log)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer kv.Close()

	// Event bus and websocket fan-out
	bus := events.NewBus(64)
	wsServer := websocket.NewServer(bus, log)
	wsServer.Start(ctx)
	defer wsServer.Stop()

	// Domain services
	fleetService := fleet.NewService(cfg.Fleet, log)

	directiveStore, err := directives.NewStore(ctx, kv, bus, log)
	if err != nil {
		return fmt.Errorf("failed to initialize directive store: %w", err)
	}

	workCardStore := workcards.NewStore(kv, directiveStore, bus,
		time.Duration(cfg.WorkCards.PollIntervalSeconds)*time.Second, log)
	workCardStore.Start(ctx)
	defer workCardStore.Stop()

	generationClient := generation.NewClient(cfg.Generation, log)
	generationService := generation.NewService(generationClient, fleetService, log)

	alertTrigger := alerts.NewTrigger(time.Duration(cfg.Alerts.DelaySeconds)*time.Second, bus, log)
	if cfg.Alerts.Enabled {
		alertTrigger.Start(ctx)
		defer alertTrigger.Stop()
	}

	// HTTP server
	router := api.NewRouter(fleetService, directiveStore, workCardStore,
		generationService, alertTrigger, wsServer, cfg, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening",
			logger.String("addr", addr),
			logger.String("generation_source", cfg.Generation.SourceType))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
