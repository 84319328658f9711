package mock

import "github.com/fwojciec/mira"

var (
	_ mira.Extractor          = (*Extractor)(nil)
	_ mira.ReadabilityChecker = (*ReadabilityChecker)(nil)
)

// Extractor is a mock implementation of mira.Extractor.
type Extractor struct {
	ExtractFn func(page *mira.Page, snapshot *mira.Snapshot) (*mira.Article, error)
}

func (e *Extractor) Extract(page *mira.Page, snapshot *mira.Snapshot) (*mira.Article, error) {
	return e.ExtractFn(page, snapshot)
}

// ReadabilityChecker is a mock implementation of mira.ReadabilityChecker.
type ReadabilityChecker struct {
	IsReadableFn func(html string) bool
}

func (c *ReadabilityChecker) IsReadable(html string) bool {
	return c.IsReadableFn(html)
}
