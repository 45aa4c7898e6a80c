package config

import (
	"fmt"

	"github.com/streamclipper/streamclipper/logger"
	"github.com/streamclipper/streamclipper/server"
	"github.com/streamclipper/streamclipper/transcription/whisper"
)

// LibraryConfig locates the media library and the service's data directory.
type LibraryConfig struct {
	// Path is the media library root holding the per-session trees.
	Path string `yaml:"path" mapstructure:"path"`
	// DataDir holds history, app settings, and other non-media state.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
}

func (c *LibraryConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "./library"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
}

// CaptureConfig tunes the capture supervisor. All durations in seconds.
type CaptureConfig struct {
	FFmpegPath      string `yaml:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	SegmentDuration int    `yaml:"segment_duration" mapstructure:"segment_duration"`
	StopTimeout     int    `yaml:"stop_timeout" mapstructure:"stop_timeout"`
	StopGracePeriod int    `yaml:"stop_grace_period" mapstructure:"stop_grace_period"`
}

func (c *CaptureConfig) Validate() error {
	if c.SegmentDuration < 0 {
		return fmt.Errorf("capture.segment_duration must be non-negative (got: %d)", c.SegmentDuration)
	}
	if c.StopTimeout < 0 {
		return fmt.Errorf("capture.stop_timeout must be non-negative (got: %d)", c.StopTimeout)
	}
	return nil
}

// StreamCheckConfig tunes the liveness poller. All durations in seconds.
type StreamCheckConfig struct {
	Interval int `yaml:"interval" mapstructure:"interval"`
	Timeout  int `yaml:"timeout" mapstructure:"timeout"`
}

// Config is the full service configuration.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging     logger.Config     `yaml:"logging" mapstructure:"logging"`
	Server      server.Config     `yaml:"server" mapstructure:"server"`
	Library     LibraryConfig     `yaml:"library" mapstructure:"library"`
	Capture     CaptureConfig     `yaml:"capture" mapstructure:"capture"`
	Whisper     whisper.Config    `yaml:"whisper" mapstructure:"whisper"`
	StreamCheck StreamCheckConfig `yaml:"stream_check" mapstructure:"stream_check"`
}

// ApplyDefaults applies default values to all sections.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "streamclipper"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Library.ApplyDefaults()
	c.Whisper.ApplyDefaults()
}

// Validate validates all sections.
func (c *Config) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Capture.Validate(); err != nil {
		return err
	}
	return nil
}
