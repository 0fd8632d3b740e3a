// Package config loads engine configuration from YAML with sane defaults.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/profile"
	appErr "github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/errors"
	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/pkg/utils/logger"
)

const (
	defaultScratchRoot        = "/tmp/judge"
	defaultCompileTimeout     = 30 * time.Second
	defaultMemSampleInterval  = 25 * time.Millisecond
	defaultOutputMaxBytes     = 64 * 1024
	defaultCompileLogMaxBytes = 64 * 1024
	defaultMaxSourceBytes     = 256 * 1024
	defaultPEScoreFactor      = 0.8
)

// Config holds all engine settings.
type Config struct {
	// ScratchRoot is the directory under which task workspaces live.
	// The engine assumes exclusive write access to it.
	ScratchRoot string `yaml:"scratchRoot"`
	// CompileTimeout is the fixed compile ceiling, independent of the
	// problem's judging time limit.
	CompileTimeout time.Duration `yaml:"compileTimeout"`
	// MemSampleInterval is the process-tree memory sampling period.
	MemSampleInterval  time.Duration `yaml:"memSampleInterval"`
	OutputMaxBytes     int64         `yaml:"outputMaxBytes"`
	CompileLogMaxBytes int64         `yaml:"compileLogMaxBytes"`
	MaxSourceBytes     int64         `yaml:"maxSourceBytes"`
	// PEScoreFactor is the fraction of a case's points awarded on a
	// presentation error.
	PEScoreFactor float64       `yaml:"peScoreFactor"`
	Logger        logger.Config `yaml:"logger"`
	// Languages extend or override the built-in language table by ID.
	Languages []profile.LanguageProfile `yaml:"languages"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ScratchRoot:        defaultScratchRoot,
		CompileTimeout:     defaultCompileTimeout,
		MemSampleInterval:  defaultMemSampleInterval,
		OutputMaxBytes:     defaultOutputMaxBytes,
		CompileLogMaxBytes: defaultCompileLogMaxBytes,
		MaxSourceBytes:     defaultMaxSourceBytes,
		PEScoreFactor:      defaultPEScoreFactor,
		Logger:             logger.Config{Level: "info", Format: "console"},
	}
}

// Load reads a YAML config file and fills unset fields with defaults.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, appErr.Wrapf(err, appErr.InvalidParams, "read config failed: %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, appErr.Wrapf(err, appErr.InvalidParams, "parse config failed: %s", path)
	}
	return applyDefaults(cfg), nil
}

func applyDefaults(cfg Config) Config {
	def := Default()
	if cfg.ScratchRoot == "" {
		cfg.ScratchRoot = def.ScratchRoot
	}
	if cfg.CompileTimeout <= 0 {
		cfg.CompileTimeout = def.CompileTimeout
	}
	if cfg.MemSampleInterval <= 0 {
		cfg.MemSampleInterval = def.MemSampleInterval
	}
	if cfg.OutputMaxBytes <= 0 {
		cfg.OutputMaxBytes = def.OutputMaxBytes
	}
	if cfg.CompileLogMaxBytes <= 0 {
		cfg.CompileLogMaxBytes = def.CompileLogMaxBytes
	}
	if cfg.MaxSourceBytes <= 0 {
		cfg.MaxSourceBytes = def.MaxSourceBytes
	}
	if cfg.PEScoreFactor <= 0 || cfg.PEScoreFactor > 1 {
		cfg.PEScoreFactor = def.PEScoreFactor
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = def.Logger.Level
	}
	return cfg
}

// LanguageProfiles merges the built-in defaults with config overrides.
func (c Config) LanguageProfiles() []profile.LanguageProfile {
	return append(profile.DefaultProfiles(), c.Languages...)
}
