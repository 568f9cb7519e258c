package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetadmin/internal/slots"
)

func TestParse_ExpandsEnvAndDefaults(t *testing.T) {
	t.Setenv("VETADMIN_TEST_TOKEN", "tok-123")
	cfg, err := Parse([]byte(`
backend:
  base_url: http://backend.local
  token: ${VETADMIN_TEST_TOKEN}
telegram:
  managers: [11, 22]
`))
	require.NoError(t, err)

	assert.Equal(t, "tok-123", cfg.Backend.Token)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout())
	assert.Equal(t, 1000, cfg.FetchAllLimit())
	assert.Equal(t, 30*time.Second, cfg.CacheTTL())
	assert.Equal(t, ":8080", cfg.ServerAddress())
	assert.Equal(t, DefaultSlotsPath, cfg.SlotsPath())
	assert.Equal(t, time.Local, cfg.Location())
	assert.Equal(t, ":9090", cfg.PrometheusAddress())
	assert.Equal(t, []int64{11, 22}, cfg.Telegram.Managers)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing base url", yaml: "backend: {}"},
		{name: "bad scheme", yaml: "backend: {base_url: ftp://x}"},
		{name: "telegram without token", yaml: "backend: {base_url: http://x}\ntelegram: {enabled: true}"},
		{name: "digest hour out of range", yaml: "backend: {base_url: http://x}\ntelegram: {digest_hour: 24}"},
		{name: "bad timezone", yaml: "backend: {base_url: http://x}\nslots: {timezone: Mars/Olympus}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend:\n  base_url: https://api.example.com\n  fetch_all_limit: 250\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.FetchAllLimit())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSlotsConfig_Build(t *testing.T) {
	cfg := &SlotsConfig{}
	policy, grid, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, slots.PolicyCoexist, policy)
	assert.Len(t, grid.Times, 13)

	cfg.Policy = "supersede"
	cfg.Grid.Start, cfg.Grid.End, cfg.Grid.StepMinutes = "10:00", "12:00", 30
	policy, grid, err = cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, slots.PolicySupersede, policy)
	assert.Len(t, grid.Times, 5)

	cfg.Grid.Times = []string{"08:00", "17:30"}
	_, grid, err = cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, "17:30:00", grid.Times[1].Value)

	_, _, err = (&SlotsConfig{Policy: "merge"}).Build()
	assert.Error(t, err)
}

func TestLoadSlotsConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadSlotsConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Policy)
}

func TestLoadSlotsConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid:\n  start: \"12:00\"\n"), 0o644))

	_, err := LoadSlotsConfig(path)
	assert.Error(t, err)
}

func TestWatchSlots_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slots.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy: coexist\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan string, 4)
	err := WatchSlots(ctx, path, 10*time.Millisecond, func(c *SlotsConfig) { updates <- c.Policy })
	require.NoError(t, err)
	assert.Equal(t, "coexist", <-updates)

	future := time.Now().Add(time.Second)
	require.NoError(t, os.WriteFile(path, []byte("policy: supersede\n"), 0o644))
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case p := <-updates:
		assert.Equal(t, "supersede", p)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload")
	}
}
