package portal

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kailas-cloud/transparencia/internal/domain/search"
)

// parseFilterOptions extracts every label bound to an input.
func parseFilterOptions(html string) ([]search.FilterOption, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	var options []search.FilterOption
	doc.Find("label[for]").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("for")
		options = append(options, search.FilterOption{
			For:   strings.TrimSpace(id),
			Label: strings.Join(strings.Fields(s.Text()), " "),
		})
	})
	return options, nil
}
