package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  port: 9000
  read_timeout: 15s
database:
  driver: sqlite
  path: /tmp/claims-test.db
claims:
  page_size: 20
email:
  sender_email: noreply@example.com
realtime:
  allowed_origins:
    - https://qlkh.example.com
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/claims-test.db", cfg.Database.Path)
	assert.Equal(t, 20, cfg.Claims.PageSize)
	assert.Equal(t, "X-User-ID", cfg.Auth.UserIDHeader)
	assert.Equal(t, "noreply@example.com", cfg.Email.SenderEmail)
	assert.Equal(t, 587, cfg.Email.SMTPPort)
	assert.Equal(t, "claims", cfg.NATS.SubjectPrefix)
	assert.True(t, cfg.Realtime.Enabled)
	assert.Equal(t, []string{"https://qlkh.example.com"}, cfg.Realtime.AllowedOrigins)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SMTP_PASSWORD", "abcd efgh")
	t.Setenv("LARK_APP_ID", "cli_test")
	t.Setenv("LARK_APP_SECRET", "secret")
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "abcd efgh", cfg.Email.Password)
	assert.Equal(t, "cli_test", cfg.Lark.AppID)
	assert.Equal(t, "secret", cfg.Lark.AppSecret)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoad_InvalidDriver(t *testing.T) {
	_, err := Load(writeConfig(t, "database:\n  driver: postgres\n"))
	assert.ErrorContains(t, err, "unsupported database.driver")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadDefaults()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Claims.PageSize)
	assert.Equal(t, "data/claims.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadDefaults()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"mongo without uri", func(c *Config) { c.Database.Driver = DriverMongo }, "database.mongo.uri"},
		{"mongo ok", func(c *Config) {
			c.Database.Driver = DriverMongo
			c.Database.Mongo.URI = "mongodb://localhost:27017"
		}, ""},
		{"no identity header", func(c *Config) { c.Auth.UserIDHeader = "" }, "auth.user_id_header"},
		{"zero page size", func(c *Config) { c.Claims.PageSize = 0 }, "claims.page_size"},
		{"half lark credentials", func(c *Config) { c.Lark.AppID = "cli_x" }, "lark.app_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	cc := cfg.ToContainerConfig()
	require.NoError(t, cc.Validate())
	assert.Equal(t, cfg.Database.Path, cc.Database.Path)
	assert.Equal(t, 20, cc.Server.PageSize)
	assert.Equal(t, "X-User-Role", cc.Server.RoleHeader)
	assert.Equal(t, "noreply@example.com", cc.Email.SenderEmail)
	assert.Equal(t, []string{"https://qlkh.example.com"}, cc.Realtime.AllowedOrigins)
}
