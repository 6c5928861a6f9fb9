package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cafeteria-system/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
# cafeteria config
database:
  host: db.local
  port: 5433
  user: cafeteria
  password: "secret"
  database: cafeteria
  sslmode: require
  max_conns: 20

rabbitmq:
  host: mq.local
  port: 5673
  user: guest
  password: 'guest'
  vhost: "/cafeteria"

http:
  port: 8080
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 20, cfg.Database.MaxConns)
	assert.Equal(t, "mq.local", cfg.Rabbit.Host)
	assert.Equal(t, 5673, cfg.Rabbit.Port)
	assert.Equal(t, "/cafeteria", cfg.Rabbit.VHost)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  user: cafeteria
  database: cafeteria

rabbitmq:
  host: localhost
  user: guest
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, 5672, cfg.Rabbit.Port)
	assert.Equal(t, "/", cfg.Rabbit.VHost)
	assert.Equal(t, 3000, cfg.HTTP.Port)
}

func TestLoadTLSFlag(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  user: cafeteria
  database: cafeteria

rabbitmq:
  host: mq.local
  user: guest
  tls: true
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Rabbit.UseTLS)
}

func TestLoadValuelessKeyKeepsSection(t *testing.T) {
	// An indented key with no value must not open a new section and
	// swallow the keys after it.
	path := writeConfig(t, `
database:
  host: db.local
  password:
  user: cafeteria
  database: cafeteria

rabbitmq:
  host: mq.local
  user: guest
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cafeteria", cfg.Database.User)
	assert.Equal(t, "", cfg.Database.Password)
	assert.Equal(t, "mq.local", cfg.Rabbit.Host)
}

func TestLoadRejectsIncompleteConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost

rabbitmq:
  host: localhost
  user: guest
`)

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
