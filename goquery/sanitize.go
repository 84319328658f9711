package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/mira"
	"golang.org/x/net/html"
)

// Ensure Sanitizer implements mira.Sanitizer at compile time.
var _ mira.Sanitizer = (*Sanitizer)(nil)

// nonContentSelector matches elements that never carry readable content.
const nonContentSelector = "style, script, head, meta, link, noscript"

// Sanitizer strips non-content nodes from a copy of a document.
type Sanitizer struct{}

// NewSanitizer creates a new Sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{}
}

// Sanitize parses rawHTML into a fresh tree and removes style, script,
// head, meta, link and noscript elements.
func (s *Sanitizer) Sanitize(rawHTML string) (*mira.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, mira.Errorf(mira.EINVALID, "failed to parse HTML: %v", err)
	}

	doc.Find(nonContentSelector).Remove()

	// The parser drops whitespace ahead of an implied <head>, so whitespace
	// left directly under <html> would not survive a second pass.
	doc.Find("html").Contents().Each(func(_ int, sel *goquery.Selection) {
		n := sel.Get(0)
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) == "" {
			sel.Remove()
		}
	})

	full, err := doc.Html()
	if err != nil {
		return nil, mira.Errorf(mira.EINTERNAL, "failed to render snapshot: %v", err)
	}
	body, err := doc.Find("body").First().Html()
	if err != nil {
		return nil, mira.Errorf(mira.EINTERNAL, "failed to render snapshot body: %v", err)
	}

	return &mira.Snapshot{HTML: full, BodyHTML: body}, nil
}
