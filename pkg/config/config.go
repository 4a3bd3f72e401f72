// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Defaults for a run started from the dataset root
const (
	DefaultInputDir      = "trim_meta"
	DefaultInputPattern  = "*.csv"
	DefaultWorkspaceRoot = "."
	DefaultOutputDir     = "copied_files_with_metadata"
	DefaultProgressEvery = 100
	DefaultWorkers       = 1
	DefaultSnapshot      = "snapshot.json"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse decodes data into cfg. Keys absent from data leave cfg unchanged.
	Parse(ctx context.Context, data []byte, cfg *Config) error

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config represents the complete configuration
type Config struct {
	InputDir      string `json:"input_dir" yaml:"input_dir"`
	InputPattern  string `json:"input_pattern" yaml:"input_pattern"`
	WorkspaceRoot string `json:"workspace_root" yaml:"workspace_root"`
	OutputDir     string `json:"output_dir" yaml:"output_dir"`
	ProgressEvery int    `json:"progress_every" yaml:"progress_every"`
	Workers       int    `json:"workers" yaml:"workers"`
	Snapshot      string `json:"snapshot" yaml:"snapshot"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		InputDir:      DefaultInputDir,
		InputPattern:  DefaultInputPattern,
		WorkspaceRoot: DefaultWorkspaceRoot,
		OutputDir:     DefaultOutputDir,
		ProgressEvery: DefaultProgressEvery,
		Workers:       DefaultWorkers,
		Snapshot:      DefaultSnapshot,
	}
}

// 🎯 Load reads path over the defaults and validates the result
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg := Default()
	if err := p.Parse(ctx, data, cfg); err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate fills empty values with defaults, cleans paths and rejects
// settings a run cannot use
func (cfg *Config) Validate() error {
	// Set defaults
	if cfg.InputDir == "" {
		cfg.InputDir = DefaultInputDir
	}
	if cfg.InputPattern == "" {
		cfg.InputPattern = DefaultInputPattern
	}
	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = DefaultWorkspaceRoot
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	if cfg.Snapshot == "" {
		cfg.Snapshot = DefaultSnapshot
	}

	if !doublestar.ValidatePattern(cfg.InputPattern) {
		return errors.Errorf("input_pattern %q is not a valid glob", cfg.InputPattern)
	}
	if cfg.ProgressEvery < 0 {
		return errors.Errorf("progress_every must not be negative, got %d", cfg.ProgressEvery)
	}
	if cfg.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}

	// Clean up paths
	cfg.InputDir = filepath.Clean(cfg.InputDir)
	cfg.WorkspaceRoot = filepath.Clean(cfg.WorkspaceRoot)
	cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	cfg.Snapshot = filepath.Clean(cfg.Snapshot)

	if samePath(cfg.InputDir, cfg.OutputDir) {
		return errors.Errorf("output_dir must differ from input_dir (%s)", cfg.InputDir)
	}

	return nil
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s/%s (workspace %s) -> %s", cfg.InputDir, cfg.InputPattern, cfg.WorkspaceRoot, cfg.OutputDir)
}
