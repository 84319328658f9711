package goquery

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/mira"
	_ "golang.org/x/image/webp"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// DefaultProbeLimit caps how many images a PageLoader downloads to learn
// their natural size.
const DefaultProbeLimit = 20

// Ensure PageLoader implements mira.PageLoader at compile time.
var _ mira.PageLoader = (*PageLoader)(nil)

// PageLoader builds pages from static HTML. Unlike rod.Loader it runs no
// JavaScript, so image sizes come from width/height attributes unless an
// image prober is configured.
type PageLoader struct {
	fetcher    mira.Fetcher
	images     mira.ImageFetcher
	probeLimit int
}

// PageLoaderOption configures a PageLoader.
type PageLoaderOption func(*PageLoader)

// WithImageProbe downloads up to limit images lacking size attributes and
// reads their natural size from the image header.
func WithImageProbe(images mira.ImageFetcher, limit int) PageLoaderOption {
	return func(l *PageLoader) {
		l.images = images
		l.probeLimit = limit
	}
}

// NewPageLoader creates a PageLoader that fetches HTML with fetcher.
func NewPageLoader(fetcher mira.Fetcher, opts ...PageLoaderOption) *PageLoader {
	l := &PageLoader{
		fetcher:    fetcher,
		probeLimit: DefaultProbeLimit,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches pageURL and parses it into a page.
func (l *PageLoader) Load(ctx context.Context, pageURL string) (*mira.Page, error) {
	rawHTML, err := l.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	page, err := ParsePage(pageURL, rawHTML)
	if err != nil {
		return nil, err
	}

	if l.images != nil {
		if err := l.probe(ctx, page); err != nil {
			return nil, err
		}
	}
	return page, nil
}

// Close releases the underlying fetcher.
func (l *PageLoader) Close() error {
	return l.fetcher.Close()
}

// probe fills in natural sizes for images the markup left unsized.
// Download and decode failures leave the image unsized.
func (l *PageLoader) probe(ctx context.Context, page *mira.Page) error {
	var pending []string
	for locator, size := range page.Images {
		if w, h := size.Dimensions(); w == 0 || h == 0 {
			pending = append(pending, locator)
		}
	}
	sort.Strings(pending)
	if len(pending) > l.probeLimit {
		pending = pending[:l.probeLimit]
	}

	sizes := make([]mira.ImageSize, len(pending))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, locator := range pending {
		g.Go(func() error {
			data, _, err := l.images.FetchImage(ctx, locator)
			if err != nil {
				return ctx.Err()
			}
			cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
			if err != nil {
				return nil
			}
			sizes[i] = mira.ImageSize{NaturalWidth: cfg.Width, NaturalHeight: cfg.Height}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, locator := range pending {
		if sizes[i].NaturalWidth == 0 {
			continue
		}
		size := page.Images[locator]
		size.NaturalWidth = sizes[i].NaturalWidth
		size.NaturalHeight = sizes[i].NaturalHeight
		page.Images[locator] = size
	}
	return nil
}

// ParsePage builds a page from static HTML: title, visible body text and
// attribute-declared image sizes keyed by absolute URL.
func ParsePage(pageURL, rawHTML string) (*mira.Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, mira.Errorf(mira.EINVALID, "failed to parse HTML: %v", err)
	}

	page := &mira.Page{
		URL:    pageURL,
		Title:  strings.TrimSpace(doc.Find("title").First().Text()),
		HTML:   rawHTML,
		Images: make(map[string]mira.ImageSize),
	}

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		src = strings.TrimSpace(src)
		if !ok || src == "" {
			return
		}
		locator := page.ResolveURL(src)
		if _, seen := page.Images[locator]; seen {
			return
		}
		page.Images[locator] = mira.ImageSize{
			Width:  dimensionAttr(img, "width"),
			Height: dimensionAttr(img, "height"),
		}
	})

	body := doc.Find("body").First()
	if body.Length() > 0 {
		page.BodyText = InnerText(body.Get(0))
	}
	return page, nil
}

var leadingDigits = regexp.MustCompile(`^\s*(\d+)`)

func dimensionAttr(sel *goquery.Selection, name string) int {
	v, ok := sel.Attr(name)
	if !ok {
		return 0
	}
	m := leadingDigits.FindStringSubmatch(v)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

var (
	spaceRun      = regexp.MustCompile(`\s+`)
	repeatedSpace = regexp.MustCompile(` {2,}`)
)

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true,
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"head": true, "title": true, "meta": true, "link": true,
}

// InnerText approximates the browser's innerText for a static tree: hidden
// and non-content elements are skipped, whitespace in text is collapsed and
// block elements start on their own line.
func InnerText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node, bool)
	walk = func(n *html.Node, pre bool) {
		switch n.Type {
		case html.TextNode:
			if pre {
				b.WriteString(n.Data)
				return
			}
			b.WriteString(spaceRun.ReplaceAllString(n.Data, " "))
			return
		case html.ElementNode:
			if skippedElements[n.Data] || hasAttr(n, "hidden") {
				return
			}
			if n.Data == "br" {
				b.WriteString("\n")
				return
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, pre || (n.Type == html.ElementNode && n.Data == "pre"))
		}
		if block {
			b.WriteString("\n")
		}
	}
	walk(n, false)

	var lines []string
	blank := false
	for _, line := range strings.Split(b.String(), "\n") {
		line = strings.TrimSpace(repeatedSpace.ReplaceAllString(line, " "))
		if line == "" {
			blank = len(lines) > 0
			continue
		}
		if blank {
			lines = append(lines, "")
			blank = false
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
