package collect

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/transparencia/internal/domain/record"
	"github.com/kailas-cloud/transparencia/internal/metrics"
)

// extract reads the person summary and the benefit tree of the open person page.
func (s *Service) extract(ctx context.Context, p PageReader) (record.PersonSummary, []record.BenefitCategory, error) {
	var person record.PersonSummary
	err := step(ctx, "read_person", func() error {
		var err error
		person, err = p.ReadPerson(ctx)
		return err
	})
	if err != nil {
		return record.PersonSummary{}, nil, err
	}

	if err := step(ctx, "expand_benefits", func() error { return p.ExpandBenefits(ctx) }); err != nil {
		return record.PersonSummary{}, nil, err
	}

	var panels []record.CategoryPanel
	err = step(ctx, "read_panels", func() error {
		var err error
		panels, err = p.ReadCategoryPanels(ctx)
		return err
	})
	if err != nil {
		return record.PersonSummary{}, nil, err
	}

	var benefits []record.BenefitCategory
	err = step(ctx, "read_details", func() error {
		var err error
		benefits, err = s.readDetails(ctx, p, panels)
		return err
	})
	if err != nil {
		return record.PersonSummary{}, nil, err
	}

	return person, benefits, nil
}

// readDetails fetches the detail page of every row, at most detailConcurrency
// at a time. Results keep the order of panels and rows. The first failure
// cancels the fetches not yet started.
func (s *Service) readDetails(
	ctx context.Context, p PageReader, panels []record.CategoryPanel,
) ([]record.BenefitCategory, error) {
	out := make([]record.BenefitCategory, len(panels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.detailConcurrency)

	for i, panel := range panels {
		out[i] = record.BenefitCategory{Name: panel.Name, Rows: make([]record.BenefitRow, len(panel.Rows))}
		for j, row := range panel.Rows {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				details, err := p.ReadDetail(gctx, row.DetailHref)
				if err != nil {
					metrics.DetailFetchesTotal.WithLabelValues("error").Inc()
					return fmt.Errorf("detail %s: %w", row.DetailHref, err)
				}
				metrics.DetailFetchesTotal.WithLabelValues("ok").Inc()
				if details == nil {
					details = []record.DebtDetail{}
				}
				out[i].Rows[j] = record.BenefitRow{AmountReceived: row.AmountReceived, Details: details}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
