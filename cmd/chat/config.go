package main

import (
	"ticket-chat/internal"
	"time"
)

// Config of the terminal client.
// Without email the client starts on the sign-in prompt.
type Config struct {
	Backend           internal.BackendConfig
	Email             string        `env:"CHAT_EMAIL"`
	Password          string        `env:"CHAT_PASSWORD"`
	EventID           string        `env:"CHAT_EVENT_ID"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT,default=10s"`
	RealtimeHeartbeat time.Duration `env:"REALTIME_HEARTBEAT,default=25s"`
	ReconnectMin      time.Duration `env:"RECONNECT_MIN,default=1s"`
	ReconnectMax      time.Duration `env:"RECONNECT_MAX,default=30s"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	LogFile           string        `env:"LOG_FILE,default=chat.log"`
}
