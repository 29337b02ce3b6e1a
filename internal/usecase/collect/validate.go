package collect

import (
	"context"

	"github.com/kailas-cloud/transparencia/internal/domain"
	"github.com/kailas-cloud/transparencia/internal/domain/query"
	"github.com/kailas-cloud/transparencia/internal/domain/search"
	logpkg "github.com/kailas-cloud/transparencia/internal/logger"
)

// validate turns an empty search into a NotFoundError and otherwise opens the
// first result.
func (s *Service) validate(ctx context.Context, p Navigator, q query.Query, summary search.Summary) error {
	if summary.TotalCount == 0 {
		if q.Kind() == query.Document {
			return domain.NewDocumentNotFound()
		}

		var term string
		err := step(ctx, "read_displayed_term", func() error {
			var err error
			term, err = p.DisplayedTerm(ctx)
			return err
		})
		if err != nil {
			return err
		}
		return domain.NewNameNotFound(term)
	}

	if err := step(ctx, "open_first_result", func() error { return p.OpenFirstResult(ctx) }); err != nil {
		return err
	}
	logpkg.FromContext(ctx).Info("parameter validated")
	return nil
}
