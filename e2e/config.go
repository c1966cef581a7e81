package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_SERVER_URL points at a running deployment; empty skips the suite.
	ServerURL string `envconfig:"E2E_SERVER_URL"`
	Username  string `envconfig:"E2E_USERNAME" default:"e2e-user"`
	Password  string `envconfig:"E2E_PASSWORD"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
