package trafilatura

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/fwojciec/mira"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements mira.Extractor at compile time.
var _ mira.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract the article from a sanitized
// snapshot. It honors the same readability gate as readability.Extractor
// and is selected with --extractor=trafilatura.
type Extractor struct {
	checker mira.ReadabilityChecker
}

// NewExtractor creates a new Extractor gated by checker.
func NewExtractor(checker mira.ReadabilityChecker) *Extractor {
	return &Extractor{checker: checker}
}

// Extract returns the article of page, parsed from snapshot.
// Returns ENOTPARSEABLE when the page is not readable or yields no article.
func (e *Extractor) Extract(page *mira.Page, snapshot *mira.Snapshot) (*mira.Article, error) {
	if page == nil || snapshot == nil {
		return nil, mira.Errorf(mira.EINVALID, "page and snapshot required")
	}

	if !e.checker.IsReadable(page.HTML) {
		return nil, mira.Errorf(mira.ENOTPARSEABLE, "page is not readable")
	}

	opts := trafilatura.Options{
		EnableFallback:  true,
		IncludeImages:   true,
		ExcludeComments: true,
	}
	if u, err := url.Parse(page.URL); err == nil && page.URL != "" {
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(strings.NewReader(snapshot.HTML), opts)
	if err != nil {
		return nil, mira.Errorf(mira.ENOTPARSEABLE, "trafilatura failed: %v", err)
	}
	if result == nil || strings.TrimSpace(result.ContentText) == "" {
		return nil, mira.Errorf(mira.ENOTPARSEABLE, "no article found")
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	return &mira.Article{
		Title:       result.Metadata.Title,
		TextContent: result.ContentText,
		Excerpt:     result.Metadata.Description,
		ContentHTML: contentHTML,
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
