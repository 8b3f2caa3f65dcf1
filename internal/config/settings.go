package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every runtime setting read from the environment.
const EnvPrefix = "YNAB_SYNC"

// Settings are runtime options read from YNAB_SYNC_* environment variables
// (optionally via a .env file). They are never persisted.
type Settings struct {
	ConfigPath              string        `mapstructure:"CONFIG"`
	LogLevel                string        `mapstructure:"LOG_LEVEL"`
	HTTPTimeout             time.Duration `mapstructure:"HTTP_TIMEOUT"`
	GoCardlessBaseURL       string        `mapstructure:"GOCARDLESS_BASE_URL"`
	GoCardlessRatePerSecond float64       `mapstructure:"GOCARDLESS_RATE_PER_SECOND"`
	YNABBaseURL             string        `mapstructure:"YNAB_BASE_URL"`
	YNABAPIKey              string        `mapstructure:"YNAB_API_KEY"`
	GoCardlessSecretID      string        `mapstructure:"GOCARDLESS_SECRET_ID"`
	GoCardlessSecretKey     string        `mapstructure:"GOCARDLESS_SECRET_KEY"`
}

// LoadSettings reads settings from the environment. envFiles are loaded
// first when present; a missing file is not an error. Variables already
// set in the environment win over .env values.
func LoadSettings(envFiles ...string) (Settings, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("CONFIG", DefaultPath())
	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("HTTP_TIMEOUT", 30*time.Second)
	v.SetDefault("GOCARDLESS_BASE_URL", "")
	v.SetDefault("GOCARDLESS_RATE_PER_SECOND", 4.0)
	v.SetDefault("YNAB_BASE_URL", "")
	v.SetDefault("YNAB_API_KEY", "")
	v.SetDefault("GOCARDLESS_SECRET_ID", "")
	v.SetDefault("GOCARDLESS_SECRET_KEY", "")

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("parsing settings: %w", err)
	}
	return s, nil
}

// Overrides returns the credential overrides carried by s.
func (s Settings) Overrides() Overrides {
	return Overrides{
		YNABAPIKey:          s.YNABAPIKey,
		GoCardlessSecretID:  s.GoCardlessSecretID,
		GoCardlessSecretKey: s.GoCardlessSecretKey,
	}
}

// Store returns a FileStore for the configured path with s's overrides.
func (s Settings) Store() *FileStore {
	return &FileStore{Path: s.ConfigPath, Overrides: s.Overrides()}
}
