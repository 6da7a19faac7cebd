package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"ticket-chat/contract"
	"ticket-chat/domain/chat"
	"ticket-chat/errors"
	"ticket-chat/infrastructure/hosted"
	"ticket-chat/infrastructure/unconfigured"
	"ticket-chat/runtime"
	"ticket-chat/services"
	"ticket-chat/session"
	chatui "ticket-chat/ui/chat"

	"github.com/Netflix/go-env"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// backend is the hosted client or its unconfigured stand-in.
type backend interface {
	contract.Backend
	contract.Authenticator
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// newLogger writes text records to w, unknown levels fall back to INFO.
func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logs.GetLevelFromString(level)}))
}

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	// The terminal belongs to the view, logs go to a file
	logFile, err := tea.LogToFile(config.LogFile, "chat")
	if err != nil {
		return exitConfig, fmt.Errorf("log file opening failed: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	logger := newLogger(logFile, config.LogLevel)

	// 2. Backend, selected once
	var current *session.Session
	backend := selectBackend(config, logger, func() string { return current.AccessToken() })

	// 3. Session
	sessions := services.NewSessionService(backend, config.RequestTimeout, logger)
	var notice string
	if config.Email != "" {
		current, err = sessions.SignIn(context.Background(), config.Email, config.Password)
		if err != nil {
			notice = errors.UserMessage(err)
			current = nil
		}
	}
	defer func() {
		if err := sessions.SignOut(context.Background(), current); err != nil {
			logger.Warn("Sign out incomplete", "error", err)
		}
	}()

	// 4. View
	model := chatui.New(chatui.Config{
		Session:      current,
		Notice:       notice,
		Groups:       services.NewGroupSelector(backend, config.RequestTimeout, logger),
		Chat:         services.NewChatService(backend, config.RequestTimeout, logger),
		Realtime:     runtime.NewRealtimeChannel(backend, config.RequestTimeout, logger),
		EventID:      chat.EventID(config.EventID),
		ReconnectMin: config.ReconnectMin,
		ReconnectMax: config.ReconnectMax,
		Log:          logger,
	})
	defer model.Close()

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return exitRuntime, fmt.Errorf("chat view failed: %w", err)
	}
	logger.Info("Chat closed")
	return exitOK, nil
}

// selectBackend falls back to the unconfigured backend when settings are missing or invalid.
func selectBackend(config Config, logger *slog.Logger, accessToken func() string) backend {
	client, err := hosted.New(config.Backend, logger.With("component", "hosted"),
		hosted.WithHeartbeat(config.RealtimeHeartbeat),
		hosted.WithAccessToken(accessToken),
	)
	if err != nil {
		logger.Warn("Hosted backend unavailable", "error", err)
		return unconfigured.Backend{}
	}
	logger.Info("Hosted backend selected", "url", config.Backend.URL)
	return client
}
