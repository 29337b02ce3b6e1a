// Package search holds the data read from the portal's search results page.
package search

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Summary is the part of the search response used to validate a query.
type Summary struct {
	TotalCount int
}

type resultPayload struct {
	TotalRegistros *int `json:"totalRegistros"`
}

// ParseSummary decodes the JSON body of the search results response.
func ParseSummary(body []byte) (Summary, error) {
	var p resultPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return Summary{}, fmt.Errorf("decode search response: %w", err)
	}
	if p.TotalRegistros == nil {
		return Summary{}, fmt.Errorf("search response without totalRegistros")
	}
	if *p.TotalRegistros < 0 {
		return Summary{}, fmt.Errorf("search response with negative totalRegistros %d", *p.TotalRegistros)
	}
	return Summary{TotalCount: *p.TotalRegistros}, nil
}

// FilterOption is a selectable label of the refinement panel.
type FilterOption struct {
	// For is the id of the input the label controls.
	For string
	// Label is the visible text.
	Label string
}

// MatchFilter returns the first option whose label matches filter case-insensitively.
// filter is used as a regular expression; when it does not compile it is
// matched as a literal substring.
func MatchFilter(options []FilterOption, filter string) (FilterOption, bool) {
	match := filterMatcher(filter)
	for _, opt := range options {
		if opt.For == "" {
			continue
		}
		if match(opt.Label) {
			return opt, true
		}
	}
	return FilterOption{}, false
}

func filterMatcher(filter string) func(string) bool {
	if re, err := regexp.Compile("(?i)" + filter); err == nil {
		return re.MatchString
	}
	needle := strings.ToLower(filter)
	return func(label string) bool {
		return strings.Contains(strings.ToLower(label), needle)
	}
}
