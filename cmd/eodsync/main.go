package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/eodsync/internal/ascentrade"
	"github.com/ternarybob/eodsync/internal/common"
	"github.com/ternarybob/eodsync/internal/eodhd"
	"github.com/ternarybob/eodsync/internal/updater"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("EODSync version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Initialize logger
	// 3. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("eodsync.toml"); err == nil {
			configFiles = append(configFiles, "eodsync.toml")
		} else if _, err := os.Stat("deployments/local/eodsync.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/eodsync.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		if len(configFiles) == 0 {
			tempLogger.Fatal().Err(err).Msg("Failed to load configuration: no config file found")
		} else {
			tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		}
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetFullVersion())
	common.InstallCrashHandler("logs")

	logger.Info().
		Strs("config_files", configFiles).
		Str("data_root", config.Data.Root).
		Str("backend_url", config.Backend.URL).
		Msg("Application configuration loaded")

	// The backend auth token lives in a file so it never enters the config
	// or the environment.
	token, err := os.ReadFile(config.Backend.TokenPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", config.Backend.TokenPath).Msg("Failed to read backend auth token")
		os.Exit(1)
	}

	backend := ascentrade.NewClient(
		config.Backend.URL,
		strings.TrimSpace(string(token)),
		ascentrade.WithLogger(logger),
		ascentrade.WithHTTPClient(&http.Client{Timeout: config.BackendTimeout()}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := backend.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Str("url", config.Backend.URL).Msg("Backend is not reachable")
		os.Exit(1)
	}
	logger.Info().Str("url", config.Backend.URL).Msg("Backend connection verified")

	marketOpts := []eodhd.ClientOption{
		eodhd.WithLogger(logger),
	}
	if config.EODHD.RateLimit > 0 {
		marketOpts = append(marketOpts, eodhd.WithRateLimit(config.EODHD.RateLimit))
	}
	if config.EODHD.BaseURL != "" {
		marketOpts = append(marketOpts, eodhd.WithBaseURL(config.EODHD.BaseURL))
	}
	market := eodhd.NewClient(config.EODHD.APIKey, marketOpts...)

	sync, err := updater.New(config, market, backend, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize updater")
		os.Exit(1)
	}

	// Cancel the run context on interrupt; the updater drains and stops.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	logger.Info().Msg("Starting EOD synchronization - Press Ctrl+C to stop")
	if err := sync.Run(ctx); err != nil && err != context.Canceled {
		logger.Error().Err(err).Msg("Synchronization stopped with error")
		os.Exit(1)
	}

	logger.Info().Msg("EODSync stopped")
}
