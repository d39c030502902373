package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/embedd/internal/cli"
	"github.com/hyperjump/embedd/internal/config"
	"github.com/hyperjump/embedd/internal/service"
	"github.com/hyperjump/embedd/internal/storage"
	"github.com/hyperjump/embedd/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/embedd/config.yaml"
	defaultServerURL  = "http://localhost:8090"
)

// Global flags
var (
	configPath string
	debugFlag  bool
	outputFlag string
)

var rootCmd = &cobra.Command{
	Use:          "embedd",
	Short:        "Batch text embedding engine",
	Long:         "embedd turns text into L2-normalized vectors with an ONNX encoder, locally or over HTTP.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the embedd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "embedd version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "text", "output format: text, compact, or json")
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads and validates the config named by --config and builds the logger.
func setup() (*config.Config, string, *zap.Logger, error) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", nil, err
	}
	cfg.Debug = cfg.Debug || debugFlag
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, resolved, logger, nil
}

// localService is a service with its run log, as opened by the direct (serverless) commands.
type localService struct {
	svc   *service.Service
	store *storage.SQLiteRunStore
}

// openLocal opens the run log and builds the service. When init is true the engine is
// loaded before returning.
func openLocal(ctx context.Context, cfg *config.Config, logger *zap.Logger, init bool) (*localService, error) {
	store, err := storage.NewSQLiteRunStore(cfg.Storage.RunsDatabasePath)
	if err != nil {
		return nil, err
	}
	svc, err := service.New(cfg.Embedding, service.WithLogger(logger), service.WithRunStore(store))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	rt := &localService{svc: svc, store: store}
	if init {
		if err := svc.Init(ctx); err != nil {
			rt.Close()
			return nil, err
		}
	}
	return rt, nil
}

func (rt *localService) Close() {
	_ = rt.svc.Close()
	_ = rt.store.Close()
}

func outputFormat() (cli.OutputFormat, error) {
	return cli.ParseOutputFormat(outputFlag)
}
