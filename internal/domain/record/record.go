// Package record holds the person and benefit records extracted from the portal.
package record

// PersonSummary is the fixed "dados tabelados" panel of a person page.
type PersonSummary struct {
	Name     string
	Document string
	Location string
}

// DebtDetail is one row of a detail ("Detalhar") table, label to value.
// Labels vary across benefit types.
type DebtDetail map[string]string

// BenefitRow is one line of a benefit category table.
type BenefitRow struct {
	AmountReceived string
	Details        []DebtDetail
}

// BenefitCategory groups the rows of one benefit panel.
type BenefitCategory struct {
	Name string
	Rows []BenefitRow
}

// CategoryPanel is a benefit panel as read from the person page,
// before its detail pages are fetched.
type CategoryPanel struct {
	Name string
	Rows []RowLink
}

// RowLink is a benefit row with the link to its detail page.
type RowLink struct {
	AmountReceived string
	DetailHref     string
}

// CollectionResult is the full answer for one query.
type CollectionResult struct {
	PersonSummary
	Benefits []BenefitCategory
}

// NewCollectionResult merges the person summary and the benefit tree.
// A nil benefit list becomes an empty one.
func NewCollectionResult(person PersonSummary, benefits []BenefitCategory) CollectionResult {
	if benefits == nil {
		benefits = []BenefitCategory{}
	}
	return CollectionResult{PersonSummary: person, Benefits: benefits}
}

// RowCount returns the number of benefit rows across all categories.
func (r CollectionResult) RowCount() int {
	n := 0
	for _, c := range r.Benefits {
		n += len(c.Rows)
	}
	return n
}
