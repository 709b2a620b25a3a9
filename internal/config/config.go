/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads shmsem settings from SHMSEM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/srediag/shmsem/internal/logger"
)

// Prefix is prepended to every variable name, e.g. SHMSEM_PATH.
const Prefix = "SHMSEM"

const (
	defaultPath             = "ipc_lock"
	defaultPollInterval     = 50 * time.Millisecond
	defaultMetricsAddr      = ":9464"
	defaultMetricsNamespace = "shmsem"
	defaultStressWorkers    = 8
	defaultStressIterations = 1000
	defaultChildSleep       = 10 * time.Second
	defaultParentDelay      = 5 * time.Second
)

// Config holds all shmsem configuration. Variables are named after fields
// via split_words, so Path is SHMSEM_PATH. No field may carry an envconfig
// tag: tagged fields also match the unprefixed name, e.g. PATH.
type Config struct {
	// Path of the region backing file.
	Path         string `split_words:"true" default:"ipc_lock"`
	InitialCount uint32 `split_words:"true" default:"0"`
	LogLevel     int    `split_words:"true" default:"3"`
	// PollInterval bounds a single kernel wait of a cancellable acquire.
	PollInterval time.Duration `split_words:"true" default:"50ms"`

	MetricsAddr      string `split_words:"true" default:":9464"`
	MetricsNamespace string `split_words:"true" default:"shmsem"`

	StressWorkers    int `split_words:"true" default:"8"`
	StressIterations int `split_words:"true" default:"1000"`

	// ChildSleep and ParentDelay shape the demo: the child sleeps before it
	// releases, the parent sleeps before it acquires.
	ChildSleep  time.Duration `split_words:"true" default:"10s"`
	ParentDelay time.Duration `split_words:"true" default:"5s"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Path:             defaultPath,
		InitialCount:     0,
		LogLevel:         logger.LevelWarn,
		PollInterval:     defaultPollInterval,
		MetricsAddr:      defaultMetricsAddr,
		MetricsNamespace: defaultMetricsNamespace,
		StressWorkers:    defaultStressWorkers,
		StressIterations: defaultStressIterations,
		ChildSleep:       defaultChildSleep,
		ParentDelay:      defaultParentDelay,
	}
}

// Load reads the configuration from the environment and verifies it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := VerifyConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// VerifyConfig is used to check whether the config is valid.
func VerifyConfig(config *Config) error {
	if config == nil {
		return errors.New("config is nil")
	}
	if config.Path == "" {
		return errors.New("path couldn't be empty")
	}
	if config.LogLevel < logger.LevelTrace || config.LogLevel > logger.LevelNoPrint {
		return fmt.Errorf("log level must be in [%d, %d], got %d", logger.LevelTrace, logger.LevelNoPrint, config.LogLevel)
	}
	if config.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", config.PollInterval)
	}
	if config.StressWorkers <= 0 {
		return fmt.Errorf("stress workers must be positive, got %d", config.StressWorkers)
	}
	if config.StressIterations <= 0 {
		return fmt.Errorf("stress iterations must be positive, got %d", config.StressIterations)
	}
	if config.ChildSleep < 0 || config.ParentDelay < 0 {
		return errors.New("demo delays couldn't be negative")
	}
	return nil
}
