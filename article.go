package mira

import "sort"

// MaxImages is the maximum number of images captioned per run.
const MaxImages = 3

// MinImageDimension is the smallest width and height a DOM-derived image
// may have to be selected. Anything smaller is treated as an icon or ad.
const MinImageDimension = 200

// Article is the readable content of a page.
type Article struct {
	Title       string
	TextContent string
	Excerpt     string

	// ContentHTML is the article markup. It is empty for articles built
	// from the page's plain text.
	ContentHTML string
}

// FallbackArticle returns the plain-text article for a page that could
// not be parsed: the page title and the body's visible text.
func FallbackArticle(p *Page) *Article {
	return &Article{
		Title:       p.Title,
		TextContent: p.BodyText,
	}
}

// ImageCandidate is an image considered for captioning.
// Width and Height are 0 when unknown.
type ImageCandidate struct {
	Locator string
	Width   int
	Height  int
}

// Area returns the pixel area of the image.
func (c ImageCandidate) Area() int {
	return c.Width * c.Height
}

// CaptionedImage is the outcome of captioning one candidate.
// A nil Description means captioning failed; the image is left out of
// the assembled document.
type CaptionedImage struct {
	Locator     string
	Description *string
}

// ImageRanker finds candidate images in an extracted article.
type ImageRanker interface {
	// Rank returns at most MaxImages candidates from the article markup,
	// sized from the page they were loaded with.
	Rank(article *Article, page *Page) ([]ImageCandidate, error)
}

// SelectLargest returns candidates unchanged when there are at most n of
// them. Otherwise it returns the n largest by area in descending order,
// keeping encounter order among equal areas.
func SelectLargest(candidates []ImageCandidate, n int) []ImageCandidate {
	if len(candidates) <= n {
		return candidates
	}
	sorted := make([]ImageCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Area() > sorted[j].Area()
	})
	return sorted[:n]
}
