package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/mira"
	"github.com/fwojciec/mira/fs"
	"github.com/fwojciec/mira/gemini"
	"github.com/fwojciec/mira/goquery"
	mirahttp "github.com/fwojciec/mira/http"
	"github.com/fwojciec/mira/pipeline"
	"github.com/fwojciec/mira/readability"
	"github.com/fwojciec/mira/rod"
	miraslog "github.com/fwojciec/mira/slog"
	"github.com/fwojciec/mira/sqlite"
	"github.com/fwojciec/mira/trafilatura"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// tokenizerModel is used for token counting; the local tokenizer does not
// know every serving model.
const tokenizerModel = "gemini-2.0-flash"

// Main represents the program.
type Main struct {
	// SQLite database, opened for commands that use the sqlite store.
	DB *sqlite.DB

	// Services for end-to-end testing. Nil fields are built from config.
	Loader mira.PageLoader
	Models mira.ModelProvider
	Images mira.ImageFetcher
	Store  mira.ContentStore
	Tokens mira.TokenCounter

	// RetryDelays overrides DefaultRetryDelays when non-nil.
	RetryDelays []time.Duration

	closers []io.Closer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close releases everything Run opened.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i].Close())
	}
	m.closers = nil
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("mira"),
		kong.Description("Extract the readable text of a web page, with descriptions of its main images."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'mira --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	command := strings.Fields(kongCtx.Command())[0]

	cfg := &Config{}
	if cli.ConfigFile != "" {
		if cfg, err = LoadConfig(cli.ConfigFile); err != nil {
			return err
		}
	}
	cfg.Override(cli.config(command))
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: logger,
		Config: cfg,
	}
	defer m.Close()

	switch command {
	case "extract":
		if err := m.wirePipeline(deps); err != nil {
			return err
		}
		if cli.Extract.Save {
			if err := m.wireStore(deps, cfg.Store, stderr); err != nil {
				return err
			}
		}
		if cli.Extract.CountTokens {
			deps.Tokens = m.Tokens
			if deps.Tokens == nil {
				tokens, err := gemini.NewTokenCounter(tokenizerModel)
				if err != nil {
					return fmt.Errorf("failed to create token counter: %w", err)
				}
				deps.Tokens = tokens
			}
		}
	case "serve":
		if err := m.wirePipeline(deps); err != nil {
			return err
		}
		if err := m.wireStore(deps, cfg.Store, stderr); err != nil {
			return err
		}
	case "show":
		if err := m.wireStore(deps, cfg.Store, stderr); err != nil {
			return err
		}
	}

	return kongCtx.Run(deps)
}

// wirePipeline builds the page loader and the pipeline.
func (m *Main) wirePipeline(deps *Dependencies) error {
	cfg, logger := deps.Config, deps.Logger

	images := m.Images
	if images == nil {
		limiter := mirahttp.NewDomainLimiter(cfg.ImageRPS, 2)
		images = miraslog.NewLoggingImageFetcher(mirahttp.NewImageFetcher(mirahttp.WithDomainLimiter(limiter)), logger)
	}

	loader := m.Loader
	if loader == nil {
		switch cfg.Loader {
		case "rod":
			manager, err := rod.NewBrowserManager()
			if err != nil {
				fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed, or use --loader http")
				return fmt.Errorf("failed to start browser: %w", err)
			}
			loader = rod.NewLoader(manager, rod.WithStealth(cfg.Stealth), rod.WithTimeout(cfg.LoadTimeout))
		case "http":
			fetcher := miraslog.NewLoggingFetcher(mirahttp.NewFetcher(mirahttp.WithTimeout(cfg.LoadTimeout)), logger)
			loader = goquery.NewPageLoader(fetcher, goquery.WithImageProbe(images, goquery.DefaultProbeLimit))
		}
		loader = miraslog.NewLoggingLoader(loader, logger)
		m.closers = append(m.closers, loader)
	}
	delays := m.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	deps.Loader = &retryLoader{next: loader, delays: delays, logger: logger}

	checker := goquery.NewReaderable(cfg.MinContentLength)
	var extractor mira.Extractor
	switch cfg.Extractor {
	case "trafilatura":
		extractor = trafilatura.NewExtractor(checker)
	default:
		extractor = readability.NewExtractor(checker)
	}

	models := m.Models
	if models == nil {
		models = gemini.NewProvider(cfg.Model)
	}

	deps.Pipeline = &pipeline.Pipeline{
		Sanitizer:       goquery.NewSanitizer(),
		Extractor:       extractor,
		Ranker:          goquery.NewRanker(),
		Models:          miraslog.NewLoggingModelProvider(models, logger),
		Images:          images,
		MaxMarkupLength: cfg.MaxMarkupLength,
		Logger:          logger,
	}
	return nil
}

// wireStore opens the content store of the given kind.
func (m *Main) wireStore(deps *Dependencies, kind string, stderr io.Writer) error {
	store := m.Store
	if store == nil {
		switch kind {
		case "fs":
			store = fs.NewContentStore(deps.Config.StoreDir)
		default:
			if err := os.MkdirAll(filepath.Dir(deps.Config.DB), 0755); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}
			m.DB = sqlite.NewDB(deps.Config.DB)
			if err := m.DB.Open(); err != nil {
				fmt.Fprintf(stderr, "Hint: Set MIRA_DB to use a different database path\n")
				return fmt.Errorf("failed to open database at %q: %w", deps.Config.DB, err)
			}
			m.closers = append(m.closers, m.DB)
			store = sqlite.NewContentStore(m.DB)
		}
	}
	deps.Store = miraslog.NewLoggingContentStore(store, deps.Logger)
	return nil
}
