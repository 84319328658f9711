package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/mira"
)

// DefaultMaxMarkupLength is the body markup length at and above which
// the vision listing is skipped.
const DefaultMaxMarkupLength = 200000

// listingMaxOutputTokens bounds the listing reply; a handful of URLs fits easily.
const listingMaxOutputTokens = 1024

const listingInstruction = "Give the src of the img tag of the image in the main body text, regard small icons. Express in json array.\n\n"

// ListingPrompt returns the prompt asking a model to list main-body images.
func ListingPrompt(markup string) string {
	return listingInstruction + markup
}

// ImageLister asks a text model which images of a page belong to its main
// body. Listing is best effort: every failure other than cancellation
// yields an empty result.
type ImageLister struct {
	Generator       mira.TextGenerator
	MaxMarkupLength int
	Logger          *slog.Logger
}

// List returns the image locators the model named, in order and without
// duplicates. It returns ctx.Err() when the context ends during the call
// so callers can tell cancellation from "no images".
func (l *ImageLister) List(ctx context.Context, markup string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := loggerOrDiscard(l.Logger)

	if l.Generator == nil {
		return nil, nil
	}

	limit := l.MaxMarkupLength
	if limit <= 0 {
		limit = DefaultMaxMarkupLength
	}
	if n := utf8.RuneCountInString(markup); n >= limit {
		logger.Info("image listing skipped", "markup_length", n, "limit", limit)
		return nil, nil
	}

	sampling := mira.DeterministicSampling()
	sampling.MaxOutputTokens = listingMaxOutputTokens

	text, err := l.Generator.GenerateText(ctx, ListingPrompt(markup), sampling)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		logger.Warn("image listing failed", "err", err)
		return nil, nil
	}

	locators, err := ParseLocatorList(text)
	if err != nil {
		logger.Warn("image listing unparseable", "err", err)
		return nil, nil
	}
	return locators, nil
}

// ParseLocatorList decodes a model reply holding a JSON array of image
// sources. Code fences and whitespace around and inside entries are
// ignored, objects with a "src" field are accepted, and duplicates are
// dropped. Returns EMALFORMED when no JSON array can be decoded.
func ParseLocatorList(text string) ([]string, error) {
	s := stripCodeFence(strings.TrimSpace(text))

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end < start {
		return nil, mira.Errorf(mira.EMALFORMED, "no JSON array in listing output")
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(s[start:end+1]), &items); err != nil {
		return nil, mira.Errorf(mira.EMALFORMED, "invalid JSON array in listing output: %v", err)
	}

	seen := make(map[string]bool)
	locators := make([]string, 0, len(items))
	for _, item := range items {
		locator := removeSpace(decodeLocator(item))
		if locator == "" || seen[locator] {
			continue
		}
		seen[locator] = true
		locators = append(locators, locator)
	}
	return locators, nil
}

func decodeLocator(item json.RawMessage) string {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s
	}
	var obj struct {
		Src string `json:"src"`
	}
	if err := json.Unmarshal(item, &obj); err == nil {
		return obj.Src
	}
	return ""
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func removeSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func loggerOrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
