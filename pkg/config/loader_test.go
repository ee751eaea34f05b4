package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad_Layering(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", `
db:
  host: base-host
  port: 5432
  user: app
  name: planning
server:
  port: ":8080"
jwt:
  secret: base-secret
`)
	writeConfig(t, dir, "staging.yaml", `
db:
  host: staging-host
jwt:
  secret: staging-secret
`)

	cfg, err := Load("staging", dir)
	require.NoError(t, err)

	// staging.yaml overrides only the keys it sets
	assert.Equal(t, "staging-host", cfg.DB.Host)
	assert.Equal(t, "staging-secret", cfg.JWT.Secret)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, "planning", cfg.DB.Name)
	assert.Equal(t, ":8080", cfg.Server.Port)
}

func TestLoad_MissingEnvFileIsFine(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", `
db:
  host: only-base
`)

	cfg, err := Load("nonexistent", dir)
	require.NoError(t, err)
	assert.Equal(t, "only-base", cfg.DB.Host)
}

func TestLoad_MissingBaseFails(t *testing.T) {
	_, err := Load("local", t.TempDir())
	assert.Error(t, err)
}

func TestLoad_EnvOverridesWin(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", `
db:
  host: file-host
  port: 5432
mq:
  url: amqp://file/
redis:
  addr: file:6379
jwt:
  secret: file-secret
planner:
  base_url: http://file:9000
`)

	t.Setenv("DB_HOST", "env-host")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("MQ_URL", "amqp://env/")
	t.Setenv("REDIS_ADDR", "env:6379")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("PLANNER_BASE_URL", "http://env:9000")

	cfg, err := Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.DB.Host)
	assert.Equal(t, 5433, cfg.DB.Port)
	assert.Equal(t, "amqp://env/", cfg.MQ.URL)
	assert.Equal(t, "env:6379", cfg.Redis.Addr)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, "http://env:9000", cfg.Planner.BaseURL)
}

func TestGetConfigEnv(t *testing.T) {
	t.Setenv("CONFIG_ENV", "")
	assert.Equal(t, "local", GetConfigEnv())

	t.Setenv("CONFIG_ENV", "prod")
	assert.Equal(t, "prod", GetConfigEnv())
}
