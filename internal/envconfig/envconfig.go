// Package envconfig loads binary configuration from the environment,
// optionally seeded from a dotenv file.
package envconfig

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Load reads dotenv file path into the process environment when path is
// non-empty, then fills cfg from the environment using its env tags.
// Variables already set in the environment win over the file.
func Load(path string, cfg any) error {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}

// Usage returns the variable help text for cfg.
func Usage(cfg any) string {
	text, err := cleanenv.GetDescription(cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
