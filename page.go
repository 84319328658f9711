package mira

import (
	"context"
	"net/url"
)

// Page is the live document a run starts from.
// Loaders build it once; the pipeline never mutates it.
type Page struct {
	URL   string
	Title string

	// HTML is the full serialized DOM, as rendered when the page was loaded.
	HTML string

	// BodyText is the visible text of the body (innerText).
	// It is the last-resort content when nothing better can be produced.
	BodyText string

	// Images maps absolute image URLs to their sizes in the document.
	Images map[string]ImageSize
}

// ImageSize holds the intrinsic and layout dimensions of an image element.
type ImageSize struct {
	NaturalWidth  int `json:"naturalWidth"`
	NaturalHeight int `json:"naturalHeight"`
	Width         int `json:"width"`
	Height        int `json:"height"`
}

// Dimensions returns the natural size, falling back to the layout size
// per dimension, then zero.
func (s ImageSize) Dimensions() (width, height int) {
	width = s.NaturalWidth
	if width == 0 {
		width = s.Width
	}
	height = s.NaturalHeight
	if height == 0 {
		height = s.Height
	}
	return width, height
}

// ImageSize returns the dimensions of the image at locator.
// Relative locators are resolved against the page URL.
// Unknown images report zero dimensions.
func (p *Page) ImageSize(locator string) (width, height int) {
	if p == nil || p.Images == nil {
		return 0, 0
	}
	if size, ok := p.Images[p.ResolveURL(locator)]; ok {
		return size.Dimensions()
	}
	if size, ok := p.Images[locator]; ok {
		return size.Dimensions()
	}
	return 0, 0
}

// ResolveURL resolves ref against the page URL. It returns ref unchanged
// when either side cannot be parsed.
func (p *Page) ResolveURL(ref string) string {
	if p == nil || p.URL == "" {
		return ref
	}
	base, err := url.Parse(p.URL)
	if err != nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// Snapshot is a sanitized, detached copy of a page's document.
// It is owned by a single run and discarded when the run ends.
type Snapshot struct {
	// HTML is the sanitized document.
	HTML string

	// BodyHTML is the inner markup of the sanitized body.
	BodyHTML string
}

// Sanitizer produces snapshots stripped of non-content nodes.
type Sanitizer interface {
	// Sanitize parses html into a fresh tree and removes style, script,
	// head, meta, link and noscript elements. Sanitizing an already
	// sanitized snapshot yields an identical snapshot.
	Sanitize(html string) (*Snapshot, error)
}

// PageLoader opens a URL and captures the resulting document.
type PageLoader interface {
	// Load navigates to pageURL and returns the captured page.
	// The context controls timeout and cancellation.
	Load(ctx context.Context, pageURL string) (*Page, error)

	// Close releases loader resources.
	Close() error
}
