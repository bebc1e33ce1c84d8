// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the vuebridge server configuration from a YAML file
// with environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MaxConfigFileSize caps the config file the loader will accept.
	MaxConfigFileSize = 1 * 1024 * 1024

	// DefaultBackendExecutable is the backend binary name looked up next
	// to the running binary when no explicit path is configured.
	DefaultBackendExecutable = "vuels-backend"

	// DefaultBackendShutdownSeconds bounds the backend shutdown handshake.
	DefaultBackendShutdownSeconds = 3

	// DefaultLogLevel is used when the file and environment set none.
	DefaultLogLevel = "info"
)

// ErrInvalidConfig is returned for configuration that fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the vuebridge server settings.
//
// Thread Safety: Immutable after Load; safe for concurrent use.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// BackendExecutable is the wrapped language server binary. A bare name
	// is resolved next to the running binary; a path is used as-is.
	BackendExecutable string `yaml:"backend_executable"`

	// DebugAddr enables the debug HTTP endpoints when non-empty,
	// e.g. "127.0.0.1:6061". Disabled by default.
	DebugAddr string `yaml:"debug_addr"`

	// Watch enables filesystem watching of the project tree for changes
	// made outside the editor.
	Watch bool `yaml:"watch"`

	// BackendShutdownSeconds bounds the shutdown/exit handshake before
	// the backend process is killed.
	BackendShutdownSeconds int `yaml:"backend_shutdown_seconds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:               DefaultLogLevel,
		BackendExecutable:      DefaultBackendExecutable,
		Watch:                  true,
		BackendShutdownSeconds: DefaultBackendShutdownSeconds,
	}
}

// Load reads the configuration file at path, applies environment overrides,
// and validates the result.
//
// Description:
//
//	An empty path loads defaults plus environment overrides. A non-empty
//	path must exist and parse; a missing explicit file is an error rather
//	than a silent fallback.
//
// Outputs:
//   - *Config: never nil on success.
//   - error: wraps ErrInvalidConfig for validation failures.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if len(data) > MaxConfigFileSize {
			return nil, fmt.Errorf("%w: config file exceeds maximum size (%d > %d)",
				ErrInvalidConfig, len(data), MaxConfigFileSize)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	slog.Info("configuration loaded",
		slog.String("path", path),
		slog.String("log_level", cfg.LogLevel),
		slog.String("backend", cfg.BackendExecutable),
		slog.Bool("watch", cfg.Watch),
		slog.Bool("debug_http", cfg.DebugAddr != ""),
	)
	return cfg, nil
}

// SlogLevel converts the configured level name to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// BackendShutdownTimeout returns the shutdown bound as a duration.
func (c *Config) BackendShutdownTimeout() time.Duration {
	return time.Duration(c.BackendShutdownSeconds) * time.Second
}

func (c *Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level must be debug, info, warn, or error, got %q",
			ErrInvalidConfig, c.LogLevel)
	}
	if c.BackendExecutable == "" {
		return fmt.Errorf("%w: backend_executable must not be empty", ErrInvalidConfig)
	}
	if c.BackendShutdownSeconds <= 0 {
		return fmt.Errorf("%w: backend_shutdown_seconds must be positive, got %d",
			ErrInvalidConfig, c.BackendShutdownSeconds)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.LogLevel = envString("VUEBRIDGE_LOG_LEVEL", cfg.LogLevel)
	cfg.BackendExecutable = envString("VUEBRIDGE_BACKEND", cfg.BackendExecutable)
	cfg.DebugAddr = envString("VUEBRIDGE_DEBUG_ADDR", cfg.DebugAddr)
	cfg.Watch = envBool("VUEBRIDGE_WATCH", cfg.Watch)
	cfg.BackendShutdownSeconds = envInt("VUEBRIDGE_BACKEND_SHUTDOWN_SECONDS", cfg.BackendShutdownSeconds)
}

// envString reads a string environment variable with a default value.
func envString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// envBool reads a boolean environment variable with a default value.
func envBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

// envInt reads an integer environment variable with a default value.
func envInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
