package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/mira"
	"github.com/fwojciec/mira/pipeline"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *slog.Logger
	Config   *Config
	Loader   mira.PageLoader
	Pipeline *pipeline.Pipeline
	Store    mira.ContentStore
	Tokens   mira.TokenCounter
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	ConfigFile string `name:"config" short:"c" type:"path" env:"MIRA_CONFIG" help:"YAML config file"`
	APIKey     string `name:"api-key" env:"GEMINI_API_KEY" help:"Gemini API key; image analysis is skipped without it"`
	Model      string `env:"MIRA_MODEL" help:"Gemini model for image listing and captions"`
	DB         string `name:"db" type:"path" env:"MIRA_DB" help:"SQLite database for saved documents"`
	LogLevel   string `name:"log-level" env:"MIRA_LOG_LEVEL" help:"debug, info, warn or error"`
	LogFormat  string `name:"log-format" env:"MIRA_LOG_FORMAT" help:"text or json"`

	Extract ExtractCmd `cmd:"" help:"Extract readable text and image descriptions from a URL"`
	Serve   ServeCmd   `cmd:"" help:"Serve the extraction host over HTTP"`
	Show    ShowCmd    `cmd:"" help:"Print the saved document of a page"`
}

// PipelineFlags select how pages are loaded and parsed.
type PipelineFlags struct {
	Loader      string        `help:"Page loader: rod (headless Chrome) or http"`
	Extractor   string        `help:"Article extractor: readability or trafilatura"`
	Stealth     bool          `help:"Hide browser automation fingerprints (rod loader)"`
	LoadTimeout time.Duration `name:"load-timeout" help:"Time limit for loading one page"`
}

// ExtractCmd is the "extract" subcommand.
type ExtractCmd struct {
	URL string `arg:"" help:"Page URL"`

	PipelineFlags `embed:""`

	Output      string        `short:"o" type:"path" help:"Write the document to a file instead of stdout"`
	Save        bool          `help:"Save the document to the content store"`
	PageID      string        `name:"page-id" help:"Content store slot (defaults to the URL)"`
	CountTokens bool          `name:"count-tokens" help:"Report the document size in tokens"`
	Timeout     time.Duration `default:"2m" help:"Overall time limit"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `env:"MIRA_ADDR" help:"Listen address (default 127.0.0.1:8080)"`

	PipelineFlags `embed:""`

	Store    string `help:"Content store: sqlite or fs"`
	StoreDir string `name:"store-dir" type:"path" help:"Directory for the fs content store"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	PageID string `arg:"" help:"Page ID (the URL for documents saved by extract)"`
}

// config returns the flag-level settings as a Config.
func (c *CLI) config(command string) Config {
	cfg := Config{
		APIKey:    c.APIKey,
		Model:     c.Model,
		DB:        c.DB,
		LogLevel:  c.LogLevel,
		LogFormat: c.LogFormat,
	}
	var flags PipelineFlags
	switch command {
	case "extract":
		flags = c.Extract.PipelineFlags
	case "serve":
		flags = c.Serve.PipelineFlags
		cfg.Store = c.Serve.Store
		cfg.StoreDir = c.Serve.StoreDir
		cfg.Addr = c.Serve.Addr
	}
	cfg.Loader = flags.Loader
	cfg.Extractor = flags.Extractor
	cfg.Stealth = flags.Stealth
	cfg.LoadTimeout = flags.LoadTimeout
	return cfg
}
