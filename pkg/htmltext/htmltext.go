package htmltext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// Extract pulls readable text out of an HTML document: one line per
// paragraph-level element, scripts and styles dropped. Used when a
// chapter is imported from an HTML export.
func Extract(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", errors.Wrap(err, "failed to parse html")
	}
	doc.Find("script, style").Remove()

	var lines []string
	doc.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		// no block elements, fall back to the whole document text
		return strings.TrimSpace(doc.Text()), nil
	}
	return strings.Join(lines, "\n\n"), nil
}
