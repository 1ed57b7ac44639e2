package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"SERVER_PORT"`
		Mode            string `yaml:"mode" env:"SERVER_MODE"`
		ShutdownTimeout string `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	Operator struct {
		Secret          string `yaml:"secret" env:"OPERATOR_SECRET"`
		TokenExpiration string `yaml:"token_expiration" env:"OPERATOR_TOKEN_EXPIRATION"`
		Issuer          string `yaml:"issuer" env:"OPERATOR_ISSUER"`
		// PassphraseHash is a bcrypt hash; when set, `ferry token` asks for
		// the matching passphrase before issuing a token
		PassphraseHash string `yaml:"passphrase_hash" env:"OPERATOR_PASSPHRASE_HASH"`
	} `yaml:"operator"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Sources struct {
		ListingsDir         string   `yaml:"listings_dir" env:"SOURCES_LISTINGS_DIR"`
		FallbackListingsDir string   `yaml:"fallback_listings_dir" env:"SOURCES_FALLBACK_LISTINGS_DIR"`
		EvaluationsDir      string   `yaml:"evaluations_dir" env:"SOURCES_EVALUATIONS_DIR"`
		Seasons             []string `yaml:"seasons" env:"SOURCES_SEASONS"`
	} `yaml:"sources"`

	Matching struct {
		TitleThreshold       float64    `yaml:"title_threshold" env:"MATCHING_TITLE_THRESHOLD"`
		DescriptionThreshold float64    `yaml:"description_threshold" env:"MATCHING_DESCRIPTION_THRESHOLD"`
		MinTitleLength       int        `yaml:"min_title_length" env:"MATCHING_MIN_TITLE_LENGTH"`
		MinDescriptionLength int        `yaml:"min_description_length" env:"MATCHING_MIN_DESCRIPTION_LENGTH"`
		Workers              int        `yaml:"workers" env:"MATCHING_WORKERS"`
		DoNotMerge           []Override `yaml:"do_not_merge"`
	} `yaml:"matching"`

	Pipeline struct {
		SeasonWorkers int    `yaml:"season_workers" env:"PIPELINE_SEASON_WORKERS"`
		PrimarySchool string `yaml:"primary_school" env:"PIPELINE_PRIMARY_SCHOOL"`
		RunTimeout    string `yaml:"run_timeout" env:"PIPELINE_RUN_TIMEOUT"`

		// PersistAPIRuns is the default for runs triggered over HTTP
		PersistAPIRuns bool `yaml:"persist_api_runs" env:"PIPELINE_PERSIST_API_RUNS"`
	} `yaml:"pipeline"`
}

// Override is a manual do-not-merge pair of titles, optionally scoped to one
// course code.
type Override struct {
	Code   string   `yaml:"code"`
	Titles []string `yaml:"titles"`
}

// LoadConfig loads configuration from a file, an optional .env file and
// environment variables, in that order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ShutdownTimeout = "10s"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "ferry"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 10
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.Operator.TokenExpiration = "24h"
	config.Operator.Issuer = "ferry"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Sources.ListingsDir = "data/season_courses"
	config.Sources.EvaluationsDir = "data/parsed_evaluations"

	config.Matching.TitleThreshold = 0.35
	config.Matching.DescriptionThreshold = 0.25
	config.Matching.MinTitleLength = 8
	config.Matching.MinDescriptionLength = 32
	config.Matching.Workers = 8

	config.Pipeline.SeasonWorkers = 4
	config.Pipeline.PrimarySchool = "YC"
	config.Pipeline.RunTimeout = "30m"
	config.Pipeline.PersistAPIRuns = true
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	for name, value := range map[string]string{
		"operator token expiration":  config.Operator.TokenExpiration,
		"server shutdown timeout":    config.Server.ShutdownTimeout,
		"pipeline run timeout":       config.Pipeline.RunTimeout,
		"database conn max lifetime": config.Database.ConnMaxLifetime,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	m := config.Matching
	if m.TitleThreshold < 0 || m.TitleThreshold > 1 {
		return fmt.Errorf("matching title threshold must be within [0, 1], got %v", m.TitleThreshold)
	}
	if m.DescriptionThreshold < 0 || m.DescriptionThreshold > 1 {
		return fmt.Errorf("matching description threshold must be within [0, 1], got %v", m.DescriptionThreshold)
	}
	if m.MinTitleLength < 0 || m.MinDescriptionLength < 0 {
		return fmt.Errorf("matching minimum lengths must not be negative")
	}
	if m.Workers < 1 {
		return fmt.Errorf("matching workers must be at least 1, got %d", m.Workers)
	}
	for i, o := range m.DoNotMerge {
		if len(o.Titles) != 2 {
			return fmt.Errorf("do_not_merge[%d] must name exactly two titles, got %d", i, len(o.Titles))
		}
	}

	if config.Pipeline.SeasonWorkers < 1 {
		return fmt.Errorf("pipeline season workers must be at least 1, got %d", config.Pipeline.SeasonWorkers)
	}

	return nil
}

// RequireOperatorSecret reports an error when no signing secret is set. Only
// the commands that issue or check tokens need one.
func (c *Config) RequireOperatorSecret() error {
	if c.Operator.Secret == "" {
		return fmt.Errorf("operator secret is required (set OPERATOR_SECRET)")
	}
	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// Duration parses one of the duration strings of the config. The values are
// checked by validateConfig, so a parse failure falls back to def.
func Duration(value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}
