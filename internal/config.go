package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	ServerURL string `env:"SERVER_URL,required=true"`
	LogLevel  string `env:"LOG_LEVEL,required=true"`

	// Used for the first login only; later runs restore the stored session.
	Username string `env:"CHAT_USERNAME"`
	Password string `env:"CHAT_PASSWORD"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH"`

	HTTPTimeout       time.Duration `env:"HTTP_TIMEOUT"`
	KeepaliveInterval time.Duration `env:"KEEPALIVE_INTERVAL"`

	ReconnectBaseDelay   time.Duration `env:"RECONNECT_BASE_DELAY"`
	ReconnectMaxDelay    time.Duration `env:"RECONNECT_MAX_DELAY"`
	MaxReconnectAttempts int           `env:"MAX_RECONNECT_ATTEMPTS"`

	// Comma-separated keywords that flag a message preview as a mention.
	AlertKeywords string `env:"ALERT_KEYWORDS"`
}

// Keywords splits ALERT_KEYWORDS, dropping empty entries.
func (c Config) Keywords() []string {
	var out []string
	for _, raw := range strings.Split(c.AlertKeywords, ",") {
		if kw := strings.TrimSpace(raw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// Validate rejects combinations the engine cannot run with.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("SERVER_URL must be an http(s) URL, got %q", c.ServerURL)
	}
	if c.MaxReconnectAttempts < 0 {
		return fmt.Errorf("MAX_RECONNECT_ATTEMPTS must be >= 0, got %d", c.MaxReconnectAttempts)
	}
	return nil
}
