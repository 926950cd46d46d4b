package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/crm-dashboard/internal/models"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("WEBHOOK_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "")
	t.Setenv("POLL_INTERVAL_SECONDS", "")
	t.Setenv("POLL_RETRY_SECONDS", "")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DIRECTORY_FILE", "")
	t.Setenv("MISSING_DATE_POLICY", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultWebhookURL, cfg.WebhookURL)
	assert.Equal(t, 180*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 5*time.Minute, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.PollRetry)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, models.MissingDateAbsent, cfg.MissingDates)
	assert.Len(t, cfg.Directory.Users, 6)
	assert.Len(t, cfg.Directory.StageOrder, 11)
	assert.Equal(t, 100000.0, cfg.Directory.Goals.MemberTarget)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("WEBHOOK_URL", "http://crm.local/hook")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "5")
	t.Setenv("POLL_INTERVAL_SECONDS", "0")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MISSING_DATE_POLICY", "NOW")
	t.Setenv("DISCARD_STALE_REFRESH", "true")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("DIRECTORY_FILE", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://crm.local/hook", cfg.WebhookURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Zero(t, cfg.PollInterval)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, models.MissingDateNow, cfg.MissingDates)
	assert.True(t, cfg.DiscardStale)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("DIRECTORY_FILE", "")
	t.Setenv("MISSING_DATE_POLICY", "guess")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("MISSING_DATE_POLICY", "")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestDirectoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "directory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
users:
  u-1: {name: Ana Lima, role: SDR/Closer}
goals:
  revenue_target: 90000
  contracts_target: 12
`), 0o600))

	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("MISSING_DATE_POLICY", "")
	t.Setenv("DIRECTORY_FILE", path)
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, models.UserConfig{Name: "Ana Lima", Role: models.RoleSDRCloser}, cfg.Directory.Users["u-1"])
	assert.Len(t, cfg.Directory.StageOrder, 11)
	assert.Equal(t, 90000.0, cfg.Directory.Goals.RevenueTarget)
	assert.Equal(t, 12, cfg.Directory.Goals.ContractsTarget)
}

func TestParseDirectoryValidation(t *testing.T) {
	_, err := ParseDirectory([]byte("users:\n  u-1: {name: Ana, role: Boss}\n"))
	assert.Error(t, err)

	_, err = ParseDirectory([]byte("users:\n  u-1: {role: SDR}\n"))
	assert.Error(t, err)

	_, err = ParseDirectory([]byte("goals: [1, 2]"))
	assert.Error(t, err)

	d, err := ParseDirectory([]byte("stage_order: [Novo, Ganho]"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Novo", "Ganho"}, d.StageOrder)
	assert.Len(t, d.Users, 6)
}
