package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/mira"
)

// Ensure Ranker implements mira.ImageRanker at compile time.
var _ mira.ImageRanker = (*Ranker)(nil)

// Ranker selects the largest images referenced by an article's markup.
// Sizes come from the page the article was extracted from, so images the
// page never rendered (or rendered small) are excluded.
type Ranker struct{}

// NewRanker creates a new Ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank returns up to mira.MaxImages candidates, largest first when there
// were more qualifying images than that.
func (r *Ranker) Rank(article *mira.Article, page *mira.Page) ([]mira.ImageCandidate, error) {
	if article == nil || strings.TrimSpace(article.ContentHTML) == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.ContentHTML))
	if err != nil {
		return nil, mira.Errorf(mira.EINVALID, "failed to parse article HTML: %v", err)
	}

	seen := make(map[string]bool)
	var candidates []mira.ImageCandidate
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		src = strings.TrimSpace(src)
		if !ok || src == "" {
			return
		}

		locator := page.ResolveURL(src)
		if seen[locator] {
			return
		}
		seen[locator] = true

		width, height := page.ImageSize(locator)
		if width < mira.MinImageDimension || height < mira.MinImageDimension {
			return
		}

		candidates = append(candidates, mira.ImageCandidate{
			Locator: locator,
			Width:   width,
			Height:  height,
		})
	})

	return mira.SelectLargest(candidates, mira.MaxImages), nil
}
