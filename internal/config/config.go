package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport kinds selectable via the transport config field.
const (
	TransportPsql   = "psql"   // shell out to the psql client
	TransportDirect = "direct" // connect with the pgx driver
	TransportHTTP   = "http"   // remote HTTP query API
)

// Default values for configuration fields.
const (
	DefaultMigrationsDir  = "./migrations"
	DefaultTransport      = TransportPsql
	DefaultHistoryTable   = "_schema_migrations"
	DefaultBootstrapTable = "profiles"
	DefaultConnectTimeout = 10 * time.Second
)

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	DatabaseURL    string
	MigrationsDir  string
	Transport      string
	HTTPEndpoint   string
	HTTPToken      string
	HistoryTable   string
	BootstrapTable string
	PreferIPv4     bool
	ConnectTimeout time.Duration
}

// yamlConfig is the raw YAML file representation with string durations.
type yamlConfig struct {
	DatabaseURL    string `yaml:"database_url"`
	MigrationsDir  string `yaml:"migrations_dir"`
	Transport      string `yaml:"transport"`
	HTTPEndpoint   string `yaml:"http_endpoint"`
	HTTPToken      string `yaml:"http_token"`
	HistoryTable   string `yaml:"history_table"`
	BootstrapTable string `yaml:"bootstrap_table"`
	PreferIPv4     bool   `yaml:"prefer_ipv4"`
	ConnectTimeout string `yaml:"connect_timeout"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		MigrationsDir:  DefaultMigrationsDir,
		Transport:      DefaultTransport,
		HistoryTable:   DefaultHistoryTable,
		BootstrapTable: DefaultBootstrapTable,
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	if raw.DatabaseURL != "" {
		cfg.DatabaseURL = raw.DatabaseURL
	}

	if raw.MigrationsDir != "" {
		cfg.MigrationsDir = raw.MigrationsDir
	}

	if raw.Transport != "" {
		cfg.Transport = raw.Transport
	}

	if raw.HTTPEndpoint != "" {
		cfg.HTTPEndpoint = raw.HTTPEndpoint
	}

	if raw.HTTPToken != "" {
		cfg.HTTPToken = raw.HTTPToken
	}

	if raw.HistoryTable != "" {
		cfg.HistoryTable = raw.HistoryTable
	}

	if raw.BootstrapTable != "" {
		cfg.BootstrapTable = raw.BootstrapTable
	}

	cfg.PreferIPv4 = raw.PreferIPv4

	if raw.ConnectTimeout != "" {
		d, err := time.ParseDuration(raw.ConnectTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing connect_timeout %q: %w", raw.ConnectTimeout, err)
		}

		cfg.ConnectTimeout = d
	}

	return cfg, nil
}

// MergeEnv overrides config fields from MIGRATE_* environment variables.
// A bare DATABASE_URL is honored as a fallback for the connection string.
func MergeEnv(cfg *Config) {
	if v := os.Getenv("MIGRATE_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	} else if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}

	if v := os.Getenv("MIGRATE_MIGRATIONS_DIR"); v != "" {
		cfg.MigrationsDir = v
	}

	if v := os.Getenv("MIGRATE_TRANSPORT"); v != "" {
		cfg.Transport = v
	}

	if v := os.Getenv("MIGRATE_HTTP_ENDPOINT"); v != "" {
		cfg.HTTPEndpoint = v
	}

	if v := os.Getenv("MIGRATE_HTTP_TOKEN"); v != "" {
		cfg.HTTPToken = v
	}
}

// Validate checks that the configuration is sufficient for the selected
// transport. It runs before any connection attempt so that missing settings
// are reported without touching the database.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportPsql, TransportDirect:
		if c.DatabaseURL == "" {
			return ErrDatabaseURLRequired
		}
	case TransportHTTP:
		if c.HTTPEndpoint == "" {
			return ErrEndpointRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTransport, c.Transport)
	}

	return nil
}
