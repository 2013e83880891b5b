// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Content  ContentConfig  `yaml:"content"`
	Buttons  ButtonsConfig  `yaml:"buttons"`
	Sync     SyncConfig     `yaml:"sync"`
	Speech   SpeechConfig   `yaml:"speech"`
	Messages MessagesConfig `yaml:"messages"`
	OpLog    OpLogConfig    `yaml:"oplog"`
	Hooks    HooksConfig    `yaml:"hooks"`
}

// EngineConfig represents the audio engine control channel configuration.
type EngineConfig struct {
	// Endpoint is the engine's control FIFO. The engine itself is managed by
	// its own service unit; this daemon only writes commands to it.
	Endpoint       string `yaml:"endpoint" default:"/run/soundbox/engine.fifo" validate:"required"`
	WriteTimeoutMs int    `yaml:"write_timeout_ms" default:"5000" validate:"gte=0,lte=60000"`
	// StartupWaitSec bounds how long the daemon waits at boot for the
	// endpoint to appear before giving up (0 = don't wait).
	StartupWaitSec int `yaml:"startup_wait_sec" default:"30" validate:"gte=0,lte=600"`
}

// ContentConfig represents the on-device content library configuration.
type ContentConfig struct {
	Dir          string `yaml:"dir" default:"/home/soundbox/audiobooks" validate:"required"`
	PlaylistFile string `yaml:"playlist_file" default:"/run/soundbox/playlist.txt" validate:"required"`
	StateFile    string `yaml:"state_file" default:"/run/soundbox/playback.state" validate:"required"`
}

// ButtonsConfig represents the physical button configuration (BCM pin names).
type ButtonsConfig struct {
	Disabled      bool   `yaml:"disabled"`
	PlayPausePin  string `yaml:"play_pause_pin" default:"GPIO17"`
	NextPin       string `yaml:"next_pin" default:"GPIO27"`
	PrevPin       string `yaml:"prev_pin" default:"GPIO22"`
	MinIntervalMs int    `yaml:"min_interval_ms" default:"200" validate:"gte=0,lte=5000"`
}

// SyncConfig represents the removable-media synchronizer configuration.
type SyncConfig struct {
	PollIntervalSec int    `yaml:"poll_interval_sec" default:"5" validate:"gte=1,lte=300"`
	Mountpoint      string `yaml:"mountpoint" default:"/media/usb" validate:"required"`
	ManifestName    string `yaml:"manifest_name" default:"library.txt" validate:"required"`
	SentinelName    string `yaml:"sentinel_name" default:"Reboot.txt" validate:"required"`
	AddDirName      string `yaml:"add_dir_name" default:"Add" validate:"required"`
}

// SpeechConfig represents the announcement speech configuration.
type SpeechConfig struct {
	Disabled bool           `yaml:"disabled"`
	Type     string         `yaml:"type" default:"espeak"`
	Settings map[string]any `yaml:"settings"`
}

// MessagesConfig represents the spoken caregiver-facing messages.
type MessagesConfig struct {
	Rebooting string `yaml:"rebooting" default:"Rebooting now."`
	Added     string `yaml:"added" default:"New books added"`
	Deleted   string `yaml:"deleted" default:"Books deleted"`
}

// OpLogConfig represents the caregiver-facing operation log configuration.
type OpLogConfig struct {
	File string `yaml:"file" default:"/var/log/soundbox/operations.log" validate:"required"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for path fields.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only
	case err != nil:
		return nil, errors.Wrap(err, "failed to read config file")
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SOUNDBOX_ENGINE_ENDPOINT"); v != "" {
		c.Engine.Endpoint = v
	}
	if v := os.Getenv("SOUNDBOX_CONTENT_DIR"); v != "" {
		c.Content.Dir = v
	}
	if v := os.Getenv("SOUNDBOX_STATE_FILE"); v != "" {
		c.Content.StateFile = v
	}
	if v := os.Getenv("SOUNDBOX_MOUNTPOINT"); v != "" {
		c.Sync.Mountpoint = v
	}
	if v := os.Getenv("SOUNDBOX_OPLOG_FILE"); v != "" {
		c.OpLog.File = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// EngineWriteTimeout returns the bounded wait applied to control channel writes.
func (c *Config) EngineWriteTimeout() time.Duration {
	return time.Duration(c.Engine.WriteTimeoutMs) * time.Millisecond
}

// EngineStartupWait returns how long to wait for the engine endpoint at boot.
func (c *Config) EngineStartupWait() time.Duration {
	return time.Duration(c.Engine.StartupWaitSec) * time.Second
}

// ButtonMinInterval returns the per-button minimum press spacing.
func (c *Config) ButtonMinInterval() time.Duration {
	return time.Duration(c.Buttons.MinIntervalMs) * time.Millisecond
}

// PollInterval returns the removable-media poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Sync.PollIntervalSec) * time.Second
}
