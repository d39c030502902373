package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/embedd/internal/config"
	"github.com/hyperjump/embedd/internal/server"
	"github.com/hyperjump/embedd/internal/watcher"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the embedding HTTP API",
	Long: `Load the embedding engine and serve the HTTP API until interrupted.

When watch.artifacts is enabled (the default) and the onnx backend is in use, the
engine is reloaded whenever the model or tokenizer file changes on disk.`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, resolvedConfigPath, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := openLocal(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	// A failed load leaves the server up in the failed state; POST /api/v1/engine/init retries.
	if err := rt.svc.Init(ctx); err != nil {
		logger.Error("embedding engine failed to initialize", zap.Error(err))
	}

	if cfg.Watch.ArtifactsOrDefault() && cfg.Embedding.Backend == config.BackendONNX {
		w := watcher.NewWatcher(
			[]string{cfg.Embedding.ModelPath, cfg.Embedding.TokenizerPath},
			func() {
				logger.Info("model artifacts changed, reloading engine")
				if err := rt.svc.Reload(ctx); err != nil {
					logger.Error("engine reload failed", zap.Error(err))
				}
			},
			watcher.WithLogger(logger),
		)
		if err := w.Start(ctx); err != nil {
			logger.Warn("artifact watcher not started", zap.Error(err))
		} else {
			logger.Info("watching model artifacts", zap.Strings("files", w.Files()))
			defer w.Stop()
		}
	}

	srv := server.NewServer(rt.svc, &cfg.Server, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
