package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 0.8, cfg.Tracker.Threshold)
	assert.Equal(t, 16, cfg.Tracker.Window)
	assert.Equal(t, 8, cfg.UI.ScoreLength)
}

func TestSaveThenLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.Input.PortName = "Digital Piano"
	cfg.Tracker.Profile = "temperley"
	require.NoError(t, cfg.Save())

	_, err := os.Stat(filepath.Join(home, ".config", "go-keytrack", "config.json"))
	require.NoError(t, err)

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Digital Piano", got.Input.PortName)
	assert.Equal(t, "temperley", got.Profile().Name)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tracker": {"threshold": 0.6}}`), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.6, cfg.Tracker.Threshold)
	assert.Equal(t, 16, cfg.Tracker.Window)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"threshold":  `{"tracker": {"threshold": 1.5}}`,
		"zero":       `{"tracker": {"threshold": 0}}`,
		"negative":   `{"tracker": {"threshold": -0.1}}`,
		"window":     `{"tracker": {"window": 0}}`,
		"alternates": `{"tracker": {"alternates": 1}}`,
		"profile":    `{"tracker": {"profile": "bogus"}}`,
		"poll":       `{"ui": {"pollMillis": 0}}`,
		"score":      `{"ui": {"scoreLength": 0}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := LoadFile(path)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tracker":`), 0644))
	_, err := LoadFile(path)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}
