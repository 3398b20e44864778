package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rahulyhg/trackbook/internal/api/router"
	"github.com/rahulyhg/trackbook/internal/cache"
	"github.com/rahulyhg/trackbook/internal/config"
	"github.com/rahulyhg/trackbook/internal/core/repository"
	"github.com/rahulyhg/trackbook/internal/core/service"
	"github.com/rahulyhg/trackbook/internal/logger"
	"github.com/rahulyhg/trackbook/internal/protocol/server"
	"github.com/rahulyhg/trackbook/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the device TCP listener",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		return serve(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cfg *config.Config) error {
	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	if !cfg.DotEnvLoaded {
		logger.Info("no .env file found, using system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache.Initialize(cfg.RedisURL)
	defer cache.Close()

	trackRepo, closeRepo, err := newTrackRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	hub := stream.NewHub(cache.Client())
	defer hub.Close()

	recordingService := service.NewRecordingService(trackRepo, hub, service.Options{
		Policy:     cfg.StopOver,
		AutoStart:  cfg.AutoStart,
		SummaryTTL: cfg.SummaryTTL,
	})

	var tcpServer *server.TCPServer
	if cfg.TCPPort > 0 {
		tcpServer = server.NewTCPServer(cfg.TCPPort, recordingService)
		if err := tcpServer.Start(); err != nil {
			return err
		}
		defer tcpServer.Stop()
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router.NewRouter(recordingService, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", logger.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", logger.ErrorField(err))
	}
	// no more samples can arrive once both listeners are down
	if tcpServer != nil {
		tcpServer.Stop()
	}
	persistActiveRecordings(shutdownCtx, recordingService)
	return nil
}

func persistActiveRecordings(ctx context.Context, recordingService service.RecordingService) {
	stopped, err := recordingService.StopAll(ctx)
	if err != nil {
		logger.Error("failed to store live recordings", logger.ErrorField(err))
	}
	logger.Info("live recordings stored", logger.Int("count", len(stopped)))
}

func newTrackRepository(ctx context.Context, cfg *config.Config) (repository.TrackRepository, func(), error) {
	if cfg.Storage == "memory" {
		logger.Warn("using in-memory storage, tracks are lost on restart")
		return repository.NewInMemoryTrackRepository(), func() {}, nil
	}

	db, err := config.ConnectMongoDB(ctx, cfg.Mongo)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewMongoTrackRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warn("failed to create track indexes", logger.ErrorField(err))
	}
	closeFn := func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			logger.Warn("failed to disconnect MongoDB", logger.ErrorField(err))
		}
	}
	return repo, closeFn, nil
}
