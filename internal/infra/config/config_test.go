package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "playdeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, ":5001", cfg.Server.Addr)
	assert.Equal(t, 15, cfg.Server.PerPage)
	assert.Equal(t, "http://localhost:5001", cfg.Client.ServerURL)
	assert.Equal(t, time.Duration(0), cfg.Client.Timeout())
	assert.Equal(t, "mpv", cfg.Player.Backend)
	assert.True(t, cfg.Player.AutoplayEnabled())
	assert.False(t, cfg.Player.Controls)
	assert.Equal(t, 0, cfg.Player.Height)
	assert.Equal(t, time.Second, cfg.Progress.Interval())
	assert.Equal(t, 60.0, cfg.Progress.ThresholdPercent)
	assert.Equal(t, "bg-sky-800", cfg.Menu.TriggerClass)
	assert.Equal(t, "origin-top-right", cfg.Menu.MenuClass)
}

func TestLoad_FileValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
client:
  server_url: https://deck.example.com
  timeout_ms: 2500
player:
  autoplay: false
  settings:
    volume: 60
progress:
  interval_ms: 500
  threshold_percent: 75
menu:
  trigger_class: move-dropdown
`))
	require.NoError(t, err)

	assert.Equal(t, "https://deck.example.com", cfg.Client.ServerURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.Client.Timeout())
	assert.False(t, cfg.Player.AutoplayEnabled())
	assert.Equal(t, 60, cfg.Player.Settings["volume"])
	assert.Equal(t, 500*time.Millisecond, cfg.Progress.Interval())
	assert.Equal(t, 75.0, cfg.Progress.ThresholdPercent)
	assert.Equal(t, "move-dropdown", cfg.Menu.TriggerClass)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PLAYDECK_SERVER_URL", "http://10.0.0.5:5001")
	t.Setenv("PLAYDECK_MPV_PATH", "/opt/mpv/bin/mpv")

	cfg, err := Load(writeConfig(t, "client:\n  server_url: http://ignored:1\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:5001", cfg.Client.ServerURL)
	assert.Equal(t, "/opt/mpv/bin/mpv", cfg.Player.MPVPath)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [unclosed\n"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "unsupported backend",
			mutate:  func(c *Config) { c.Player.Backend = "vlc" },
			wantErr: true,
			errMsg:  "Backend",
		},
		{
			name:    "threshold above 100",
			mutate:  func(c *Config) { c.Progress.ThresholdPercent = 120 },
			wantErr: true,
			errMsg:  "ThresholdPercent",
		},
		{
			name:    "interval too short",
			mutate:  func(c *Config) { c.Progress.IntervalMs = 10 },
			wantErr: true,
			errMsg:  "IntervalMs",
		},
		{
			name:    "non-http server url",
			mutate:  func(c *Config) { c.Client.ServerURL = "ftp://deck.example.com" },
			wantErr: true,
			errMsg:  "http or https",
		},
		{
			name:    "empty trigger class",
			mutate:  func(c *Config) { c.Menu.TriggerClass = "" },
			wantErr: true,
			errMsg:  "TriggerClass",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr {
				require.Error(t, err, "expected validation to fail")
				assert.Contains(t, err.Error(), tt.errMsg,
					"error message should mention the problematic field")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestConfig_Filters(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
filters:
  duplicate_track_filter:
    enabled: true
  title_length_filter:
    enabled: false
    settings:
      max_title: 50
  video_url_filter:
    enabled: true
    settings:
      hosts: [youtu.be]
`))
	require.NoError(t, err)

	assert.True(t, cfg.IsFilterEnabled("duplicate_track_filter"))
	assert.False(t, cfg.IsFilterEnabled("title_length_filter"))
	assert.False(t, cfg.IsFilterEnabled("unknown"))

	enabled := cfg.EnabledFilters()
	assert.Len(t, enabled, 2)
	assert.Contains(t, enabled, "duplicate_track_filter")
	assert.Equal(t, []any{"youtu.be"}, enabled["video_url_filter"]["hosts"])
}
