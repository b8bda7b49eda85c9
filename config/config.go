package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/kjk/weatherlog/record"
	"github.com/kjk/weatherlog/summary"
)

// value of WEATHERLOG_NUMERIC_FIELD that disables summing
const numericFieldNone = "none"

const (
	CompressionZstd   = "zstd"
	CompressionBrotli = "br"
)

type Backup struct {
	Endpoint    string        `env:"ENDPOINT"`
	Access      string        `env:"ACCESS"`
	Secret      string        `env:"SECRET"`
	Bucket      string        `env:"BUCKET"`
	Region      string        `env:"REGION"`
	Prefix      string        `env:"PREFIX" envDefault:"weatherlog/"`
	Insecure    bool          `env:"INSECURE"`
	Compression string        `env:"COMPRESSION" envDefault:"zstd"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"1m"`
}

type Config struct {
	StorePath    string `env:"WEATHERLOG_STORE" envDefault:"data/store.txt"`
	NumericField string `env:"WEATHERLOG_NUMERIC_FIELD" envDefault:"high"`

	// Logging, disabled when LogDir is empty
	LogDir  string `env:"WEATHERLOG_LOG_DIR"`
	Verbose bool   `env:"WEATHERLOG_VERBOSE"`

	Backup Backup `envPrefix:"WEATHERLOG_BACKUP_"`
}

// Load reads configuration from environment, after loading
// optional .env file
func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from environment
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.StorePath == "" {
		return fmt.Errorf("WEATHERLOG_STORE can't be empty")
	}
	c.NumericField = strings.TrimSpace(c.NumericField)
	if strings.EqualFold(c.NumericField, numericFieldNone) {
		c.NumericField = summary.NoNumericField
	}
	if c.NumericField != summary.NoNumericField && !record.IsField(c.NumericField) {
		return fmt.Errorf("invalid WEATHERLOG_NUMERIC_FIELD '%s', must be one of %s or '%s'",
			c.NumericField, strings.Join(record.Fields, ", "), numericFieldNone)
	}
	return nil
}

// Validate checks settings only backup and restore need, so that
// a bad value doesn't break other commands
func (b *Backup) Validate() error {
	switch b.Compression {
	case CompressionZstd, CompressionBrotli:
	default:
		return fmt.Errorf("invalid WEATHERLOG_BACKUP_COMPRESSION '%s', must be '%s' or '%s'",
			b.Compression, CompressionZstd, CompressionBrotli)
	}
	if b.Timeout <= 0 {
		return fmt.Errorf("WEATHERLOG_BACKUP_TIMEOUT must be positive, got %s", b.Timeout)
	}
	return nil
}
