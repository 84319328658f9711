package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/mira/goquery"
	"github.com/fwojciec/mira/rod"
	"gopkg.in/yaml.v3"
)

// Config holds settings shared by all commands. Values come from an
// optional YAML file, then flags and environment variables.
type Config struct {
	APIKey           string        `yaml:"api_key"`
	Model            string        `yaml:"model"`
	DB               string        `yaml:"db"`
	Store            string        `yaml:"store"`
	StoreDir         string        `yaml:"store_dir"`
	LogLevel         string        `yaml:"log_level"`
	LogFormat        string        `yaml:"log_format"`
	Addr             string        `yaml:"addr"`
	LoadTimeout      time.Duration `yaml:"load_timeout"`
	Loader           string        `yaml:"loader"`
	Extractor        string        `yaml:"extractor"`
	Stealth          bool          `yaml:"stealth"`
	MaxMarkupLength  int           `yaml:"max_markup_length"`
	MinContentLength int           `yaml:"min_content_length"`
	ImageRPS         float64       `yaml:"image_rps"`
}

// LoadConfig reads a YAML config file. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// Override copies the set fields of o into c.
func (c *Config) Override(o Config) {
	if o.APIKey != "" {
		c.APIKey = o.APIKey
	}
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.DB != "" {
		c.DB = o.DB
	}
	if o.Store != "" {
		c.Store = o.Store
	}
	if o.StoreDir != "" {
		c.StoreDir = o.StoreDir
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		c.LogFormat = o.LogFormat
	}
	if o.Addr != "" {
		c.Addr = o.Addr
	}
	if o.LoadTimeout > 0 {
		c.LoadTimeout = o.LoadTimeout
	}
	if o.Loader != "" {
		c.Loader = o.Loader
	}
	if o.Extractor != "" {
		c.Extractor = o.Extractor
	}
	if o.Stealth {
		c.Stealth = true
	}
	if o.MaxMarkupLength > 0 {
		c.MaxMarkupLength = o.MaxMarkupLength
	}
	if o.MinContentLength > 0 {
		c.MinContentLength = o.MinContentLength
	}
	if o.ImageRPS > 0 {
		c.ImageRPS = o.ImageRPS
	}
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.DB == "" {
		c.DB = defaultDBPath()
	}
	if c.Store == "" {
		c.Store = "sqlite"
	}
	if c.StoreDir == "" {
		c.StoreDir = filepath.Join(filepath.Dir(c.DB), "content")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.Addr == "" {
		c.Addr = "127.0.0.1:8080"
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = rod.DefaultLoadTimeout
	}
	if c.Loader == "" {
		c.Loader = "rod"
	}
	if c.Extractor == "" {
		c.Extractor = "readability"
	}
	if c.MinContentLength <= 0 {
		c.MinContentLength = goquery.DefaultMinContentLength
	}
	if c.ImageRPS <= 0 {
		c.ImageRPS = 4
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Loader {
	case "rod", "http":
	default:
		return fmt.Errorf("unknown loader %q (want rod or http)", c.Loader)
	}
	switch c.Extractor {
	case "readability", "trafilatura":
	default:
		return fmt.Errorf("unknown extractor %q (want readability or trafilatura)", c.Extractor)
	}
	switch c.Store {
	case "sqlite", "fs":
	default:
		return fmt.Errorf("unknown store %q (want sqlite or fs)", c.Store)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mira.db"
	}
	return filepath.Join(home, ".mira", "mira.db")
}
