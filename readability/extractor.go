package readability

import (
	"net/url"
	"strings"

	"github.com/fwojciec/mira"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements mira.Extractor at compile time.
var _ mira.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract the article from a sanitized
// snapshot. A readability heuristic over the original document gates the
// parse so pages without an article are rejected cheaply.
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

	var pageURL *url.URL
	if page.URL != "" {
		if u, err := url.Parse(page.URL); err == nil {
			pageURL = u
		}
	}

	article, err := readability.FromReader(strings.NewReader(snapshot.HTML), pageURL)
	if err != nil {
		return nil, mira.Errorf(mira.ENOTPARSEABLE, "readability failed: %v", err)
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return nil, mira.Errorf(mira.ENOTPARSEABLE, "no article found")
	}

	return &mira.Article{
		Title:       article.Title,
		TextContent: article.TextContent,
		Excerpt:     article.Excerpt,
		ContentHTML: article.Content,
	}, nil
}
