package loader

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const textSelector = "h1, h2, h3, h4, h5, h6, p, li, td, pre"

// HTMLText keeps the readable blocks of a page, one per line.
func HTMLText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript").Remove()

	var content []string
	doc.Find(textSelector).Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			content = append(content, t)
		}
	})

	return strings.Join(content, "\n"), nil
}
