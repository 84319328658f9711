package mira

import (
	"fmt"
	"strings"
)

// Assemble builds the final document: an optional title header, the
// article text, and an images section listing every successful caption
// in selection order. Failed captions are skipped and do not consume an
// index.
func Assemble(article *Article, images []CaptionedImage) string {
	var b strings.Builder
	if article.Title != "" {
		b.WriteString("Title: ")
		b.WriteString(article.Title)
		b.WriteString("\n\n---\n\n")
	}
	b.WriteString(article.TextContent)

	n := 0
	for _, img := range images {
		if img.Description == nil {
			continue
		}
		if n == 0 {
			b.WriteString("\n\n--- Images ---\n\n")
		}
		n++
		fmt.Fprintf(&b, "[Image %d]: %s\n\n", n, *img.Description)
	}
	return b.String()
}
