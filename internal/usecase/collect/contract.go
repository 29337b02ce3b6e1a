package collect

import (
	"context"

	"github.com/kailas-cloud/transparencia/internal/browser"
	"github.com/kailas-cloud/transparencia/internal/domain/record"
	"github.com/kailas-cloud/transparencia/internal/domain/search"
)

// SessionOpener acquires one browser session per collection.
type SessionOpener interface {
	Acquire(ctx context.Context) (browser.Session, error)
}

// Navigator performs the search steps on the portal.
type Navigator interface {
	OpenHome(ctx context.Context) error
	AcceptConsent(ctx context.Context) error
	OpenPersonOverview(ctx context.Context) error
	SelectPhysicalPerson(ctx context.Context) error
	TypeTerm(ctx context.Context, term string) error
	OpenRefinePanel(ctx context.Context) error
	FilterOptions(ctx context.Context) ([]search.FilterOption, error)
	SelectFilter(ctx context.Context, opt search.FilterOption) error
	Submit(ctx context.Context) (search.Summary, error)
	DisplayedTerm(ctx context.Context) (string, error)
	OpenFirstResult(ctx context.Context) error
}

// PageReader reads the person page and its detail pages.
type PageReader interface {
	ReadPerson(ctx context.Context) (record.PersonSummary, error)
	ExpandBenefits(ctx context.Context) error
	ReadCategoryPanels(ctx context.Context) ([]record.CategoryPanel, error)
	// ReadDetail opens href on its own page, reads it and closes it.
	// Safe for concurrent use.
	ReadDetail(ctx context.Context, href string) ([]record.DebtDetail, error)
}

// Portal is a Navigator and PageReader bound to one session.
type Portal interface {
	Navigator
	PageReader
}

// PortalFactory binds a Portal to an acquired session.
type PortalFactory func(session browser.Session) Portal
