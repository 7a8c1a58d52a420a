package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/maxviazov/user-records-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

// clearSecrets blanks every APP_* secret so the host environment cannot leak in.
func clearSecrets(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_MONGO_URI",
		"APP_POSTGRES_USER",
		"APP_POSTGRES_PASSWORD",
		"APP_POSTGRES_DB",
		"APP_STORAGE_DRIVER",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_PostgresFromYAMLAndEnv(t *testing.T) {
	clearSecrets(t)
	yaml := `
app:
  name: user-records-service
  version: 0.1.0
  env: test
  port: 18080

logger:
  level: info
  format: json

storage:
  driver: postgres

postgres:
  host: 127.0.0.1
  port: 5432
  sslmode: disable
  max_conns: 5
  migrate: false
`
	path := writeTempConfig(t, yaml)
	t.Setenv("APP_POSTGRES_USER", "testuser")
	t.Setenv("APP_POSTGRES_PASSWORD", "testpass")
	t.Setenv("APP_POSTGRES_DB", "testdb")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 18080, cfg.App.Port)
	assert.Equal(t, config.DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "testuser", cfg.Postgres.User)
	assert.Equal(t, "testpass", cfg.Postgres.Password)
	assert.Equal(t, "testdb", cfg.Postgres.DBName)
	assert.Equal(t, "127.0.0.1", cfg.Postgres.Host)
	assert.EqualValues(t, 5, cfg.Postgres.MaxConns)
	assert.False(t, cfg.Postgres.Migrate)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_PostgresMissingSecretsFails(t *testing.T) {
	clearSecrets(t)
	path := writeTempConfig(t, `
storage:
  driver: postgres
postgres:
  host: localhost
`)
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres config")
}

func TestLoad_MongoDefaults(t *testing.T) {
	clearSecrets(t)
	t.Setenv("APP_MONGO_URI", "mongodb://localhost:27017")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.DriverMongo, cfg.Storage.Driver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "users", cfg.Mongo.Database)
	assert.Equal(t, "users", cfg.Mongo.Collection)
	assert.Equal(t, 3001, cfg.App.Port)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
}

func TestLoad_MongoWithoutURIFails(t *testing.T) {
	clearSecrets(t)
	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo config")
}

func TestLoad_MemoryNeedsNoSecrets(t *testing.T) {
	clearSecrets(t)
	t.Setenv("APP_STORAGE_DRIVER", "memory")
	t.Setenv("APP_APP_PORT", "9090")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 9090, cfg.App.Port)
}

func TestLoad_UnknownDriverFails(t *testing.T) {
	clearSecrets(t)
	path := writeTempConfig(t, "storage:\n  driver: cassandra\n")
	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage config")
}

func TestLoad_MissingFileFails(t *testing.T) {
	clearSecrets(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
