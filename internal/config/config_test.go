package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentbase/migration-runner/internal/config"
)

func TestNew_returnsDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.New()

	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, config.DefaultMigrationsDir, cfg.MigrationsDir)
	assert.Equal(t, config.DefaultTransport, cfg.Transport)
	assert.Equal(t, config.DefaultHistoryTable, cfg.HistoryTable)
	assert.Equal(t, config.DefaultBootstrapTable, cfg.BootstrapTable)
	assert.Equal(t, config.DefaultConnectTimeout, cfg.ConnectTimeout)
	assert.False(t, cfg.PreferIPv4)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		content      string
		allowMissing bool
		writeFile    bool
		wantErr      bool
		errContains  string
		check        func(t *testing.T, cfg *config.Config)
	}{
		{
			name:      "valid file parses all fields",
			writeFile: true,
			content: `database_url: "postgres://localhost:5432/testdb"
migrations_dir: "./db/migrations"
transport: "direct"
http_endpoint: "https://db.example.com/query"
http_token: "secret"
history_table: "_applied"
bootstrap_table: "users"
prefer_ipv4: true
connect_timeout: "30s"
`,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "postgres://localhost:5432/testdb", cfg.DatabaseURL)
				assert.Equal(t, "./db/migrations", cfg.MigrationsDir)
				assert.Equal(t, config.TransportDirect, cfg.Transport)
				assert.Equal(t, "https://db.example.com/query", cfg.HTTPEndpoint)
				assert.Equal(t, "secret", cfg.HTTPToken)
				assert.Equal(t, "_applied", cfg.HistoryTable)
				assert.Equal(t, "users", cfg.BootstrapTable)
				assert.True(t, cfg.PreferIPv4)
				assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
			},
		},
		{
			name:      "partial file applies defaults",
			writeFile: true,
			content:   `database_url: "postgres://localhost/mydb"`,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, "postgres://localhost/mydb", cfg.DatabaseURL)
				assert.Equal(t, config.DefaultMigrationsDir, cfg.MigrationsDir)
				assert.Equal(t, config.DefaultTransport, cfg.Transport)
				assert.Equal(t, config.DefaultHistoryTable, cfg.HistoryTable)
			},
		},
		{
			name:      "empty file returns defaults",
			writeFile: true,
			content:   "",
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, config.DefaultMigrationsDir, cfg.MigrationsDir)
				assert.Equal(t, config.DefaultTransport, cfg.Transport)
			},
		},
		{
			name:         "missing file allowed returns defaults",
			allowMissing: true,
			check: func(t *testing.T, cfg *config.Config) {
				t.Helper()
				assert.Equal(t, config.DefaultMigrationsDir, cfg.MigrationsDir)
			},
		},
		{
			name:        "missing file not allowed returns error",
			wantErr:     true,
			errContains: "reading config file",
		},
		{
			name:        "invalid YAML returns error",
			writeFile:   true,
			content:     "database_url: [unclosed",
			wantErr:     true,
			errContains: "parsing config file",
		},
		{
			name:        "invalid connect_timeout returns error",
			writeFile:   true,
			content:     `connect_timeout: "not-a-duration"`,
			wantErr:     true,
			errContains: "parsing connect_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "migrate.yml")
			if tt.writeFile {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			}

			cfg, err := config.Load(path, tt.allowMissing)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)

				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestMergeEnv(t *testing.T) { //nolint:paralleltest // mutates process environment
	t.Setenv("MIGRATE_DATABASE_URL", "postgres://env-host/envdb")
	t.Setenv("MIGRATE_MIGRATIONS_DIR", "/env/migrations")
	t.Setenv("MIGRATE_TRANSPORT", "http")
	t.Setenv("MIGRATE_HTTP_ENDPOINT", "https://env.example.com/query")
	t.Setenv("MIGRATE_HTTP_TOKEN", "env-token")

	cfg := config.New()
	config.MergeEnv(cfg)

	assert.Equal(t, "postgres://env-host/envdb", cfg.DatabaseURL)
	assert.Equal(t, "/env/migrations", cfg.MigrationsDir)
	assert.Equal(t, config.TransportHTTP, cfg.Transport)
	assert.Equal(t, "https://env.example.com/query", cfg.HTTPEndpoint)
	assert.Equal(t, "env-token", cfg.HTTPToken)
}

func TestMergeEnv_bareDatabaseURLFallback(t *testing.T) { //nolint:paralleltest // mutates process environment
	t.Setenv("MIGRATE_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "postgres://bare-host/db")

	cfg := config.New()
	config.MergeEnv(cfg)

	assert.Equal(t, "postgres://bare-host/db", cfg.DatabaseURL)
}

func TestMergeEnv_prefixedWinsOverBare(t *testing.T) { //nolint:paralleltest // mutates process environment
	t.Setenv("MIGRATE_DATABASE_URL", "postgres://prefixed-host/db")
	t.Setenv("DATABASE_URL", "postgres://bare-host/db")

	cfg := config.New()
	config.MergeEnv(cfg)

	assert.Equal(t, "postgres://prefixed-host/db", cfg.DatabaseURL)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr error
	}{
		{
			name:    "psql without database URL",
			mutate:  func(_ *config.Config) {},
			wantErr: config.ErrDatabaseURLRequired,
		},
		{
			name: "psql with database URL",
			mutate: func(cfg *config.Config) {
				cfg.DatabaseURL = "postgres://localhost/db"
			},
		},
		{
			name: "direct without database URL",
			mutate: func(cfg *config.Config) {
				cfg.Transport = config.TransportDirect
			},
			wantErr: config.ErrDatabaseURLRequired,
		},
		{
			name: "http without endpoint",
			mutate: func(cfg *config.Config) {
				cfg.Transport = config.TransportHTTP
			},
			wantErr: config.ErrEndpointRequired,
		},
		{
			name: "http with endpoint",
			mutate: func(cfg *config.Config) {
				cfg.Transport = config.TransportHTTP
				cfg.HTTPEndpoint = "https://db.example.com/query"
			},
		},
		{
			name: "unknown transport",
			mutate: func(cfg *config.Config) {
				cfg.Transport = "carrier-pigeon"
			},
			wantErr: config.ErrUnknownTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.New()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
		})
	}
}
