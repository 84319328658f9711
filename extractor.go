package mira

// Extractor decides whether a page is readable and extracts its article.
type Extractor interface {
	// Extract runs the readability heuristic over the page's original
	// document and, when it passes, extracts the article from the
	// sanitized snapshot. Returns ENOTPARSEABLE when the page is not
	// readable or no article could be extracted.
	Extract(page *Page, snapshot *Snapshot) (*Article, error)
}

// ReadabilityChecker is a cheap heuristic run before a full extraction.
type ReadabilityChecker interface {
	// IsReadable reports whether html probably contains enough
	// non-boilerplate text to be worth extracting.
	IsReadable(html string) bool
}
