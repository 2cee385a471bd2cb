package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go-keytrack/keyfind"
)

// InputConfig selects the MIDI keyboard
type InputConfig struct {
	PortName string `json:"portName,omitempty"` // empty picks the first input port
}

// TrackerConfig tunes key analysis
type TrackerConfig struct {
	Threshold  float64 `json:"threshold"`
	Window     int     `json:"window"`
	Alternates int     `json:"alternates"`
	Profile    string  `json:"profile"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette     string `json:"palette,omitempty"` // path to a GIMP .gpl file
	PollMillis  int    `json:"pollMillis"`
	ScoreLength int    `json:"scoreLength"` // recent sonorities in the score view
}

// ServerConfig configures the HTTP state endpoint
type ServerConfig struct {
	Addr string `json:"addr"`
}

// Config is the main configuration structure
type Config struct {
	Input   InputConfig   `json:"input,omitempty"`
	Tracker TrackerConfig `json:"tracker"`
	UI      UIConfig      `json:"ui"`
	Server  ServerConfig  `json:"server"`
	Debug   bool          `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Tracker: TrackerConfig{
			Threshold:  0.8,
			Window:     16,
			Alternates: keyfind.MinAlternates,
			Profile:    keyfind.Krumhansl.Name,
		},
		UI: UIConfig{
			PollMillis:  10,
			ScoreLength: 8,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-keytrack"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
// Fields missing from the file keep their default values.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ErrInvalid is wrapped by every Validate failure
var ErrInvalid = errors.New("invalid config")

// Validate checks value ranges
func (c *Config) Validate() error {
	t := c.Tracker
	if t.Threshold <= 0 || t.Threshold > 1 {
		return fmt.Errorf("%w: tracker.threshold %.2f outside (0, 1]", ErrInvalid, t.Threshold)
	}
	if t.Window < 1 {
		return fmt.Errorf("%w: tracker.window must be at least 1", ErrInvalid)
	}
	if t.Alternates < keyfind.MinAlternates {
		return fmt.Errorf("%w: tracker.alternates must be at least %d", ErrInvalid, keyfind.MinAlternates)
	}
	if _, err := keyfind.ProfileByName(t.Profile); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.UI.PollMillis < 1 {
		return fmt.Errorf("%w: ui.pollMillis must be at least 1", ErrInvalid)
	}
	if c.UI.ScoreLength < 1 {
		return fmt.Errorf("%w: ui.scoreLength must be at least 1", ErrInvalid)
	}
	return nil
}

// Profile resolves the configured key profile
func (c *Config) Profile() keyfind.Profile {
	p, err := keyfind.ProfileByName(c.Tracker.Profile)
	if err != nil {
		return keyfind.Krumhansl
	}
	return p
}
