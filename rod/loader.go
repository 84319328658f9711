package rod

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/mira"
)

// DefaultLoadTimeout bounds navigation and capture of a single page.
const DefaultLoadTimeout = 30 * time.Second

// captureScript serializes what the pipeline needs from the live document.
// img.src is already resolved against the document base.
const captureScript = `() => JSON.stringify({
	url: location.href,
	title: document.title,
	text: document.body ? document.body.innerText : "",
	images: Array.from(document.images).map((img) => ({
		src: img.src,
		naturalWidth: img.naturalWidth,
		naturalHeight: img.naturalHeight,
		width: img.width,
		height: img.height,
	})),
})`

var _ mira.PageLoader = (*Loader)(nil)

// Loader renders pages in Chrome. Unlike a plain HTTP fetch, the page it
// returns carries rendered visible text and measured image sizes.
//
// Loader is safe for concurrent use.
type Loader struct {
	manager *BrowserManager
	timeout time.Duration
	stealth bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTimeout bounds a single Load call.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.timeout = d
	}
}

// WithStealth hides automation fingerprints from the loaded pages.
func WithStealth(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.stealth = enabled
	}
}

// NewLoader creates a Loader drawing tabs from manager.
func NewLoader(manager *BrowserManager, opts ...LoaderOption) *Loader {
	l := &Loader{
		manager: manager,
		timeout: DefaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// capture is the decoded result of captureScript.
type capture struct {
	URL    string         `json:"url"`
	Title  string         `json:"title"`
	Text   string         `json:"text"`
	Images []capturedSize `json:"images"`
}

type capturedSize struct {
	Src string `json:"src"`
	mira.ImageSize
}

// Load navigates a fresh tab to pageURL, waits for the load event and
// captures the rendered document.
func (l *Loader) Load(ctx context.Context, pageURL string) (*mira.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	page, release, err := l.manager.OpenTab(l.stealth)
	if err != nil {
		return nil, err
	}
	defer release()

	page = page.Context(ctx)

	if err := page.Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", pageURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", pageURL, err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("serializing %s: %w", pageURL, err)
	}

	res, err := page.Eval(captureScript)
	if err != nil {
		return nil, fmt.Errorf("capturing %s: %w", pageURL, err)
	}
	var c capture
	if err := json.Unmarshal([]byte(res.Value.Str()), &c); err != nil {
		return nil, mira.Errorf(mira.EINTERNAL, "decoding capture of %s: %v", pageURL, err)
	}

	return newPage(pageURL, html, c), nil
}

// Close closes the browser.
func (l *Loader) Close() error {
	return l.manager.Close()
}

// newPage builds a Page from a capture. When an image appears more than
// once, its largest rendering wins.
func newPage(requested, html string, c capture) *mira.Page {
	p := &mira.Page{
		URL:      c.URL,
		Title:    c.Title,
		HTML:     html,
		BodyText: c.Text,
		Images:   make(map[string]mira.ImageSize, len(c.Images)),
	}
	if p.URL == "" || p.URL == "about:blank" {
		p.URL = requested
	}

	for _, img := range c.Images {
		if img.Src == "" {
			continue
		}
		prev, ok := p.Images[img.Src]
		if ok && area(prev) >= area(img.ImageSize) {
			continue
		}
		p.Images[img.Src] = img.ImageSize
	}
	return p
}

func area(s mira.ImageSize) int {
	w, h := s.Dimensions()
	return w * h
}
