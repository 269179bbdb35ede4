// Package config handles jbc.toml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "jbc.toml"

// Config represents a jbc.toml file.
type Config struct {
	Resolver  Resolver  `toml:"resolver"`
	Log       Log       `toml:"log"`
	Store     Store     `toml:"store"`
	Assembler Assembler `toml:"assembler"`

	// Dir is the directory containing the jbc.toml file (set at load time).
	Dir string `toml:"-"`
}

// Resolver configures branch offset resolution.
type Resolver struct {
	MaxPasses int `toml:"max-passes"`
}

// Log configures logging.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Store configures the snapshot store.
type Store struct {
	Path string `toml:"path"`
}

// Assembler configures defaults for assembled methods.
type Assembler struct {
	Class     string `toml:"class"`
	MaxStack  int    `toml:"max-stack"`
	MaxLocals int    `toml:"max-locals"`
}

// Default values applied when a field is absent.
const (
	DefaultMaxPasses = 64
	DefaultMaxStack  = 16
	DefaultStorePath = ".jbc/store.db"
	DefaultClass     = "Main"
)

// Default returns the configuration used when no jbc.toml exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load parses a jbc.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

// FindAndLoad walks up from startDir to find a jbc.toml file, then loads
// it. When none is found it returns Default.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

func (c *Config) validate() error {
	switch {
	case c.Resolver.MaxPasses < 0:
		return fmt.Errorf("resolver.max-passes must not be negative, got %d", c.Resolver.MaxPasses)
	case c.Assembler.MaxStack < 0 || c.Assembler.MaxStack > 0xFFFF:
		return fmt.Errorf("assembler.max-stack out of range: %d", c.Assembler.MaxStack)
	case c.Assembler.MaxLocals < 0 || c.Assembler.MaxLocals > 0xFFFF:
		return fmt.Errorf("assembler.max-locals out of range: %d", c.Assembler.MaxLocals)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Resolver.MaxPasses == 0 {
		c.Resolver.MaxPasses = DefaultMaxPasses
	}
	if c.Assembler.MaxStack == 0 {
		c.Assembler.MaxStack = DefaultMaxStack
	}
	if c.Assembler.Class == "" {
		c.Assembler.Class = DefaultClass
	}
	if c.Store.Path == "" {
		c.Store.Path = DefaultStorePath
	}
}

// StorePath returns the store path, resolved against the config directory
// when relative.
func (c *Config) StorePath() string {
	if filepath.IsAbs(c.Store.Path) || c.Dir == "" {
		return c.Store.Path
	}
	return filepath.Join(c.Dir, c.Store.Path)
}

// LogFile returns the log file path, or nil for stderr.
func (c *Config) LogFile() *string {
	if c.Log.File == "" {
		return nil
	}
	path := c.Log.File
	if !filepath.IsAbs(path) && c.Dir != "" {
		path = filepath.Join(c.Dir, path)
	}
	return &path
}
