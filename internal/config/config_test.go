package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  host: "0.0.0.0"

database:
  url: "postgres://crm:secret@db:5432/crm?sslmode=disable"
  max_open_conns: 50

ses:
  region: "eu-west-1"
  from_name: "Acme Sales"
  from_email: "sales@acme.io"
  enabled: true

sequencer:
  interval_seconds: 10
  batch_size: 25

calendar:
  calendar_id: "sales-team"
  start_hour: 8
  end_hour: 18
  buffer_minutes: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "postgres://crm:secret@db:5432/crm?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Equal(t, "eu-west-1", cfg.SES.Region)
	assert.Equal(t, "sales@acme.io", cfg.SES.FromEmail)
	assert.True(t, cfg.SES.Enabled)
	assert.Equal(t, 10, cfg.Sequencer.IntervalSeconds)
	assert.Equal(t, 25, cfg.Sequencer.BatchSize)
	assert.Equal(t, "sales-team", cfg.Calendar.CalendarID)
	assert.Equal(t, 8, cfg.Calendar.StartHour)
	assert.Equal(t, 18, cfg.Calendar.EndHour)
	assert.Equal(t, 10, cfg.Calendar.BufferMinutes)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8081
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "postgres://localhost:5432/crm?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "us-east-1", cfg.SES.Region)
	assert.Equal(t, 30, cfg.Sequencer.IntervalSeconds)
	assert.Equal(t, 100, cfg.Sequencer.BatchSize)
	assert.Equal(t, "primary", cfg.Calendar.CalendarID)
	assert.Equal(t, 9, cfg.Calendar.StartHour)
	assert.Equal(t, 17, cfg.Calendar.EndHour)
	assert.Equal(t, 15, cfg.Calendar.BufferMinutes)
	assert.Equal(t, 24, cfg.Calendar.ReminderLeadHours)
}

func TestLoadScoringOverridesMergeWithDefaults(t *testing.T) {
	path := writeConfig(t, `
scoring:
  weights:
    fit: 0.5
    engagement: 0.3
    deal_potential: 0.2
  stale_activity_days: 21
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Scoring.Weights.Fit)
	assert.Equal(t, 21, cfg.Scoring.StaleActivityDays)
	// Sections the file does not name keep the reference tuning.
	assert.Equal(t, 35, cfg.Scoring.Fit.PositionCLevel)
	assert.Equal(t, 30, cfg.Scoring.Engagement.TypeCap)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  url: "postgres://localhost:5432/crm"
`)

	t.Setenv("DATABASE_URL", "postgres://crm:pw@prod-db:5432/crm")
	t.Setenv("AWS_SES_ACCESS_KEY", "AKIATEST")
	t.Setenv("AWS_SES_SECRET_KEY", "shhh")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := LoadFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://crm:pw@prod-db:5432/crm", cfg.Database.URL)
	assert.Equal(t, "AKIATEST", cfg.SES.AccessKey)
	assert.True(t, cfg.SES.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestGetHostEnvOverride(t *testing.T) {
	t.Setenv("SERVER_HOST", "0.0.0.0")
	c := ServerConfig{Host: "localhost"}
	assert.Equal(t, "0.0.0.0", c.GetHost())
}
