package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays cfg with the variables set in environ. Unset
// variables leave the current value alone.
func parseEnv(cfg *Config, environ []string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Environment: env.ToMap(environ)}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
