package collect

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/transparencia/internal/domain"
	"github.com/kailas-cloud/transparencia/internal/domain/query"
	"github.com/kailas-cloud/transparencia/internal/domain/search"
	logpkg "github.com/kailas-cloud/transparencia/internal/logger"
)

// navigate drives the portal from its home page to a submitted search.
func (s *Service) navigate(ctx context.Context, p Navigator, q query.Query) (search.Summary, error) {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"open_home", p.OpenHome},
		{"accept_consent", p.AcceptConsent},
		{"open_person_overview", p.OpenPersonOverview},
		{"select_physical_person", p.SelectPhysicalPerson},
		{"type_term", func(ctx context.Context) error { return p.TypeTerm(ctx, q.Term()) }},
		{"open_refine_panel", p.OpenRefinePanel},
	}
	for _, st := range steps {
		if err := step(ctx, st.name, func() error { return st.run(ctx) }); err != nil {
			return search.Summary{}, err
		}
	}

	log := logpkg.FromContext(ctx)

	if q.HasFilter() {
		if err := step(ctx, "apply_filter", func() error { return applyFilter(ctx, p, q.Filter()) }); err != nil {
			return search.Summary{}, err
		}
		log.Info("filter applied", zap.String("filter", q.Filter()))
	}

	var summary search.Summary
	err := step(ctx, "submit", func() error {
		var err error
		summary, err = p.Submit(ctx)
		return err
	})
	if err != nil {
		return search.Summary{}, err
	}
	log.Info("search submitted", zap.Int("total", summary.TotalCount))

	return summary, nil
}

func applyFilter(ctx context.Context, p Navigator, filter string) error {
	options, err := p.FilterOptions(ctx)
	if err != nil {
		return err
	}
	opt, ok := search.MatchFilter(options, filter)
	if !ok {
		return domain.NewFilterNotFound(filter)
	}
	return p.SelectFilter(ctx, opt)
}
