// ABOUTME: Entry point for the fold-broker credential service
// ABOUTME: Issues session tokens and brokers access keys and LLM provider keys

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/fold-broker/internal/accesskey"
	"github.com/2389/fold-broker/internal/auth"
	"github.com/2389/fold-broker/internal/config"
	"github.com/2389/fold-broker/internal/identity"
	"github.com/2389/fold-broker/internal/providerkey"
	"github.com/2389/fold-broker/internal/server"
	"github.com/2389/fold-broker/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  __      _     _       _               _
 / _| ___| | __| |     | |__  _ __ ___ | | _____ _ __
| |_ / _ \ |/ _' |_____| '_ \| '__/ _ \| |/ / _ \ '__|
|  _| (_) | | (_| |_____| |_) | | | (_) |   <  __/ |
|_|  \___/|_|\__,_|     |_.__/|_|  \___/|_|\_\___|_|
`

// getConfigPath returns the path to the broker config file.
// Priority: FOLD_BROKER_CONFIG env var > XDG_CONFIG_HOME/fold-broker/broker.yaml > ~/.config/fold-broker/broker.yaml
func getConfigPath() string {
	if envPath := os.Getenv("FOLD_BROKER_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "broker.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "fold-broker", "broker.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: fold-broker <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the broker server")
		fmt.Println("  init     Write a starter config file")
		fmt.Println("  health   Check broker health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	// Open the credential store
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = st.Close() }()

	// Wire services. The signing secret is read once here and injected;
	// nothing else touches the configuration afterwards.
	tokens := auth.NewJWTService([]byte(cfg.Auth.JWTSecret))
	validator := newValidator(cfg.Providers)

	srv := server.New(
		identity.NewService(st, tokens),
		accesskey.NewService(st, tokens),
		providerkey.NewService(st, validator),
		tokens,
	)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	green := color.New(color.FgGreen)
	green.Printf("  ➜ listening on http://%s\n\n", cfg.Server.HTTPAddr)
	logger.Info("broker started", "addr", cfg.Server.HTTPAddr, "db", cfg.Database.Path)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// newValidator builds the provider validator from config, applying base URL
// and timeout overrides when set.
func newValidator(cfg config.ProvidersConfig) *providerkey.Validator {
	var opts []providerkey.Option
	if cfg.Timeout > 0 {
		opts = append(opts, providerkey.WithTimeout(cfg.Timeout))
	}
	if cfg.GeminiBaseURL != "" {
		opts = append(opts, providerkey.WithBaseURL(providerkey.ProviderGemini, cfg.GeminiBaseURL))
	}
	if cfg.GPTBaseURL != "" {
		opts = append(opts, providerkey.WithBaseURL(providerkey.ProviderGPT, cfg.GPTBaseURL))
	}
	if cfg.ClaudeBaseURL != "" {
		opts = append(opts, providerkey.WithBaseURL(providerkey.ProviderClaude, cfg.ClaudeBaseURL))
	}
	return providerkey.NewValidator(opts...)
}

// setupLogger builds the process logger from the logging config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

const starterConfig = `server:
  http_addr: "127.0.0.1:8080"

database:
  path: "broker.db"

auth:
  jwt_secret: "${FOLD_BROKER_JWT_SECRET}"

providers:
  timeout: "10s"

logging:
  level: "info"
  format: "text"
`

// runInit writes a starter config file at the resolved config path.
func runInit() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(starterConfig), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("Wrote starter config to %s\n", configPath)
	fmt.Println("Set FOLD_BROKER_JWT_SECRET before starting the server.")
	return nil
}

// runHealth checks the broker's health endpoint.
func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("broker unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("broker unhealthy: status %d", resp.StatusCode)
	}

	color.New(color.FgGreen).Println("broker is healthy")
	return nil
}
