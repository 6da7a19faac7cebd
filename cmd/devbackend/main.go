package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"ticket-chat/auth"
	"ticket-chat/domain/event"
	"ticket-chat/infrastructure/httpapi"
	"ticket-chat/internal"
	"ticket-chat/moderation"
	"ticket-chat/repositories"
	"ticket-chat/runtime"
	"ticket-chat/runtime/workers"
	"ticket-chat/services"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/rs/cors"
	"github.com/samber/lo"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 5 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Dev backend terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Deferred cleanups (Badger lock, workers) always run before the exit code is returned.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)
	ctx := context.Background()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Moderation: words of the environment, the censored directory and the blacklist table
	blacklist := repositories.NewBlacklistRepository(db)
	words, err := censoredWords(config, blacklist, logger)
	if err != nil {
		return exitConfig, err
	}
	moderator, err := moderation.NewModerator(words, charReplacement, logger)
	if err != nil {
		return exitConfig, fmt.Errorf("moderator init failed: %w", err)
	}

	// 4. Setup Supervision & Orchestration
	registry := runtime.NewRegistry()
	censored := event.NewCensoredHandler(logger)
	orchestrator := runtime.NewOrchestrator(
		logger, workers.NewSupervisor(logger), registry,
		config.BufferSize, config.SinkTimeout, config.MetricInterval,
		censored,
	)

	userRepository := repositories.NewUserRepository(db)
	groupRepository := repositories.NewGroupRepository(db)
	messageRepository := repositories.NewMessageRepository(db, logger, nil)
	issuer := auth.NewTokenIssuer(config.JWTSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(userRepository, issuer, logger)
	messageService := services.NewMessageService(
		messageRepository, groupRepository, userRepository, moderator,
		orchestrator.Stored(), config.MaxContentLength, logger,
	)

	// 5. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	orchestratorDone := make(chan struct{})
	go func() {
		defer close(orchestratorDone)
		orchestrator.Start(ctx)
	}()

	// 6. HTTP Server Setup
	handler := httpapi.New(authService, messageService, registry, issuer, config.AnonKey, config.BufferSize, logger)
	c := cors.New(cors.Options{
		AllowedOrigins: internal.SplitList(config.AllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "apikey", "Prefer", "Accept"},
		MaxAge:         300,
	})
	address := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	server := &http.Server{
		Addr:              address,
		Handler:           c.Handler(handler.SetupRouter()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting dev backend", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 8. Final Cleanup (Graceful Shutdown)
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown incomplete", "error", err)
	}
	orchestrator.Stop()
	<-orchestratorDone
	logger.Info("Program stopped cleanly", "censored_total", censored.Total())

	return code, runErr
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath).
		WithLogger(runtime.NewBadgerLogger(logger))

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}

// censoredWords merges the banned words of every source, without duplicates.
func censoredWords(config internal.Config, blacklist repositories.BlacklistRepository, logger *slog.Logger) ([]string, error) {
	words := internal.SplitList(config.CensoredWords)

	if config.CensoredDir != "" {
		data, err := runtime.NewCensoredLoader(os.DirFS(config.CensoredDir)).LoadAll(".")
		if err != nil {
			return nil, fmt.Errorf("censored words loading failed: %w", err)
		}
		logger.Info("Censored words loaded", "languages", data.Languages, "count", len(data.Words))
		words = append(words, data.Words...)
	}

	stored, err := blacklist.GetWords()
	if err != nil {
		return nil, fmt.Errorf("blacklist reading failed: %w", err)
	}
	words = append(words, stored...)

	return lo.Uniq(words), nil
}
