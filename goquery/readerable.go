package goquery

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/mira"
)

// Defaults for the readability heuristic.
const (
	DefaultMinContentLength = 100
	DefaultMinScore         = 20
)

var (
	unlikelyCandidates   = regexp.MustCompile(`(?i)-ad-|ai2html|banner|breadcrumbs|combx|comment|community|cover-wrap|disqus|extra|footer|gdpr|header|legends|menu|related|remark|replies|rss|shoutbox|sidebar|skyscraper|social|sponsor|supplemental|ad-break|agegate|pagination|pager|popup|yom-remote`)
	okMaybeItsACandidate = regexp.MustCompile(`(?i)and|article|body|column|content|main|shadow`)
)

// Ensure Readerable implements mira.ReadabilityChecker at compile time.
var _ mira.ReadabilityChecker = (*Readerable)(nil)

// Readerable decides whether a document is worth a full readability parse.
// It scores visible paragraph-like nodes whose text exceeds
// MinContentLength and reports true once the score passes MinScore.
type Readerable struct {
	MinContentLength int
	MinScore         float64
}

// NewReaderable creates a Readerable with the given minimum content length
// and the default minimum score.
func NewReaderable(minContentLength int) *Readerable {
	return &Readerable{
		MinContentLength: minContentLength,
		MinScore:         DefaultMinScore,
	}
}

// IsReadable reports whether rawHTML probably contains an article.
func (r *Readerable) IsReadable(rawHTML string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return false
	}

	nodes := doc.Find("p, pre, article")
	// Divs holding <br> separated text count as paragraphs too.
	doc.Find("div > br").Each(func(_ int, br *goquery.Selection) {
		nodes = nodes.AddSelection(br.Parent())
	})

	var score float64
	readable := false
	nodes.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !isVisible(sel) {
			return true
		}

		class, _ := sel.Attr("class")
		id, _ := sel.Attr("id")
		match := class + " " + id
		if unlikelyCandidates.MatchString(match) && !okMaybeItsACandidate.MatchString(match) {
			return true
		}

		if sel.Is("p") && sel.ParentsFiltered("li").Length() > 0 {
			return true
		}

		length := utf8.RuneCountInString(strings.TrimSpace(sel.Text()))
		if length < r.MinContentLength {
			return true
		}

		score += math.Sqrt(float64(length - r.MinContentLength))
		if score > r.MinScore {
			readable = true
			return false
		}
		return true
	})

	return readable
}

func isVisible(sel *goquery.Selection) bool {
	if style, ok := sel.Attr("style"); ok {
		compact := strings.ToLower(strings.ReplaceAll(style, " ", ""))
		if strings.Contains(compact, "display:none") {
			return false
		}
	}
	if _, hidden := sel.Attr("hidden"); hidden {
		return false
	}
	if ariaHidden, ok := sel.Attr("aria-hidden"); ok && ariaHidden == "true" {
		class, _ := sel.Attr("class")
		return strings.Contains(class, "fallbackImage")
	}
	return true
}
