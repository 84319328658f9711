package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/mira"
)

// State is the stage a run is in or ended in.
type State string

const (
	StateIdle       State = "idle"
	StateExtracting State = "extracting"
	StateListing    State = "listing"
	StateRanking    State = "ranking"
	StateCaptioning State = "captioning"
	StateAssembled  State = "assembled"
	StateAborted    State = "aborted"
	StateFailed     State = "failed"
)

// RunRequest is the input of one run.
type RunRequest struct {
	Page *mira.Page

	// APIKey is the model credential for this run only.
	// Without it the run skips image listing and captioning.
	APIKey string
}

// Result is the outcome of one run.
//
// Content is nil when the run was aborted. A failed run carries the
// page's visible text when it has one.
type Result struct {
	State   State
	Content *string
	Err     error
}

// Pipeline turns a loaded page into a plain-text document with image
// descriptions.
type Pipeline struct {
	Sanitizer mira.Sanitizer
	Extractor mira.Extractor
	Ranker    mira.ImageRanker
	Models    mira.ModelProvider
	Images    mira.ImageFetcher

	// MaxMarkupLength overrides DefaultMaxMarkupLength when positive.
	MaxMarkupLength int

	Logger *slog.Logger
}

// Run executes one extraction. Cancelling ctx aborts the run at the next
// stage boundary or in-flight model call; an aborted run returns no
// content. Run never panics.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (result Result) {
	logger := loggerOrDiscard(p.Logger)
	if req.Page != nil {
		logger = logger.With("url", req.Page.URL)
	}
	start := time.Now()
	state := StateIdle

	defer func() {
		if r := recover(); r != nil {
			result = failed(req.Page, mira.Errorf(mira.EINTERNAL, "panic in %s: %v", state, r))
		}
		logger.Info("run finished",
			"state", result.State,
			"duration", time.Since(start),
			"err", result.Err,
		)
	}()

	if req.Page == nil {
		return failed(nil, mira.Errorf(mira.EINVALID, "page required"))
	}
	page := req.Page

	state = StateExtracting
	snapshot, err := p.Sanitizer.Sanitize(page.HTML)
	if err != nil {
		return failed(page, fmt.Errorf("sanitize: %w", err))
	}

	parsed := true
	article, err := p.Extractor.Extract(page, snapshot)
	switch {
	case mira.ErrorCode(err) == mira.ENOTPARSEABLE:
		logger.Info("page not parseable, using visible text", "reason", mira.ErrorMessage(err))
		article = mira.FallbackArticle(page)
		parsed = false
	case err != nil:
		return failed(page, fmt.Errorf("extract: %w", err))
	}
	if ctx.Err() != nil {
		return aborted(ctx)
	}

	models := p.openModels(ctx, req.APIKey, logger)

	state = StateListing
	lister := &ImageLister{
		Generator:       models.Text,
		MaxMarkupLength: p.MaxMarkupLength,
		Logger:          logger,
	}
	locators, err := lister.List(ctx, snapshot.BodyHTML)
	if err != nil {
		return aborted(ctx)
	}

	var candidates []mira.ImageCandidate
	switch {
	case len(locators) > 0:
		candidates = mira.SelectLargest(listedCandidates(page, locators), mira.MaxImages)
	case parsed && p.Ranker != nil:
		state = StateRanking
		candidates, err = p.Ranker.Rank(article, page)
		if err != nil {
			return failed(page, fmt.Errorf("rank: %w", err))
		}
	}
	if ctx.Err() != nil {
		return aborted(ctx)
	}

	var images []mira.CaptionedImage
	if len(candidates) > 0 && models.Captions != nil && p.Images != nil {
		state = StateCaptioning
		captioner := &Captioner{
			Sessions: models.Captions,
			Images:   p.Images,
			Logger:   logger,
		}
		images = captioner.CaptionAll(ctx, candidates)
		if ctx.Err() != nil {
			return aborted(ctx)
		}
	}

	content := mira.Assemble(article, images)
	logger.Debug("document assembled",
		"parsed", parsed,
		"listed", len(locators),
		"images", len(images),
	)
	return Result{State: StateAssembled, Content: &content}
}

func (p *Pipeline) openModels(ctx context.Context, apiKey string, logger *slog.Logger) *mira.Models {
	if p.Models == nil || apiKey == "" {
		logger.Info("no model credential, skipping image analysis")
		return &mira.Models{}
	}
	models, err := p.Models.Open(ctx, apiKey)
	if err != nil || models == nil {
		logger.Warn("models unavailable, skipping image analysis", "err", err)
		return &mira.Models{}
	}
	return models
}

// listedCandidates sizes the locators a model listed using the page's
// own image measurements. No size filter applies to listed images.
func listedCandidates(page *mira.Page, locators []string) []mira.ImageCandidate {
	seen := make(map[string]bool)
	candidates := make([]mira.ImageCandidate, 0, len(locators))
	for _, locator := range locators {
		resolved := page.ResolveURL(locator)
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		w, h := page.ImageSize(locator)
		candidates = append(candidates, mira.ImageCandidate{
			Locator: resolved,
			Width:   w,
			Height:  h,
		})
	}
	return candidates
}

func aborted(ctx context.Context) Result {
	return Result{State: StateAborted, Err: context.Cause(ctx)}
}

func failed(page *mira.Page, err error) Result {
	r := Result{State: StateFailed, Err: err}
	if page != nil && page.BodyText != "" {
		text := page.BodyText
		r.Content = &text
	}
	return r
}
