package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/vearutop/motionhdr"
	"gopkg.in/yaml.v3"
)

// Config represents the config file (~/.config/motionhdr/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	Injector  string         `yaml:"injector"`
	ExifTool  string         `yaml:"exiftool"`
	Timeout   *time.Duration `yaml:"timeout"`
	MaxPasses *int           `yaml:"max_passes"`
	TempDir   string         `yaml:"tmp_dir"`
	VideoMime string         `yaml:"video_mime"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	GainMap motionhdr.GainMapParams `yaml:"gain_map"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "motionhdr", "config.yaml")
}

// LoadConfig reads the config file. A missing file yields a zero Config unless
// the path was given explicitly.
func LoadConfig(path string, explicit bool) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyConfig applies config file defaults to flag variables
// when the corresponding flag was not explicitly set.
func applyConfig(c *cli.Command, cfg Config) {
	if cfg.Injector != "" && !c.IsSet("injector") {
		injectorName = cfg.Injector
	}
	if cfg.ExifTool != "" && !c.IsSet("exiftool") {
		exiftoolPath = cfg.ExifTool
	}
	if cfg.Timeout != nil && !c.IsSet("timeout") {
		toolTimeout = *cfg.Timeout
	}
	if cfg.MaxPasses != nil && !c.IsSet("max-passes") {
		maxPasses = *cfg.MaxPasses
	}
	if cfg.TempDir != "" && !c.IsSet("tmp-dir") {
		tmpDir = cfg.TempDir
	}
	if cfg.VideoMime != "" && !c.IsSet("video-mime") {
		videoMime = cfg.VideoMime
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	configParams = cfg.GainMap
}
