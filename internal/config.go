package internal

import (
	"fmt"
	"strings"
	"time"
)

// BackendConfig locates the hosted backend.
// An empty URL or anon key selects the unconfigured backend.
type BackendConfig struct {
	URL     string `env:"CHAT_BACKEND_URL"`
	AnonKey string `env:"CHAT_BACKEND_ANON_KEY"`
}

func (c BackendConfig) Configured() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.AnonKey) != ""
}

// Config of the development backend.
type Config struct {
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=54321"`
	AnonKey           string        `env:"ANON_KEY,required=true"`
	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=1h"`
	AllowedOrigins    string        `env:"ALLOWED_ORIGINS,default=*"`
	CensoredWords     string        `env:"CENSORED_WORDS"`
	CensoredDir       string        `env:"CENSORED_DIR"`
	CharReplacement   string        `env:"CHARACTER_REPLACEMENT,default=*"`
	MaxContentLength  int           `env:"MAX_CONTENT_LENGTH,default=2000"`
	BufferSize        int           `env:"BUFFER_SIZE,default=256"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s"`
	MetricInterval    time.Duration `env:"METRIC_INTERVAL,default=30s"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

// SplitList splits a comma separated variable, dropping blanks.
func SplitList(str string) []string {
	var out []string
	for _, part := range strings.Split(str, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
