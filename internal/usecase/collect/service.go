// Package collect runs one benefit collection: search, validate, extract, aggregate.
package collect

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/transparencia/internal/domain"
	"github.com/kailas-cloud/transparencia/internal/domain/outcome"
	"github.com/kailas-cloud/transparencia/internal/domain/query"
	"github.com/kailas-cloud/transparencia/internal/domain/record"
	logpkg "github.com/kailas-cloud/transparencia/internal/logger"
	"github.com/kailas-cloud/transparencia/internal/metrics"
)

// Service collects the benefit records of a person from the portal.
type Service struct {
	sessions          SessionOpener
	portal            PortalFactory
	detailConcurrency int
}

// New creates a collection service.
func New(sessions SessionOpener, portal PortalFactory) *Service {
	return &Service{sessions: sessions, portal: portal, detailConcurrency: 1}
}

// WithDetailConcurrency sets how many detail pages are read at once. Values below 1 mean 1.
func (s *Service) WithDetailConcurrency(n int) *Service {
	if n < 1 {
		n = 1
	}
	s.detailConcurrency = n
	return s
}

// Collect runs the whole pipeline for q. It never returns an error: every
// failure is classified into the outcome.
func (s *Service) Collect(ctx context.Context, q query.Query) outcome.Outcome {
	start := time.Now()
	ctx = logpkg.With(ctx, zap.String("query_kind", string(q.Kind())))

	var out outcome.Outcome
	result, err := s.collect(ctx, q)
	if err != nil {
		out = outcome.FromError(err)
	} else {
		out = outcome.OK(result)
	}

	metrics.CollectionsTotal.WithLabelValues(out.Label()).Inc()

	fields := []zap.Field{
		zap.String("outcome", out.Label()),
		zap.Duration("duration", time.Since(start)),
	}
	if out.Kind() == outcome.KindOK {
		fields = append(fields,
			zap.Int("categories", len(result.Benefits)),
			zap.Int("rows", result.RowCount()))
	}
	logpkg.FromContext(ctx).Info("collection finished", fields...)

	return out
}

func (s *Service) collect(ctx context.Context, q query.Query) (record.CollectionResult, error) {
	session, err := s.sessions.Acquire(ctx)
	if err != nil {
		return record.CollectionResult{}, fmt.Errorf("acquire browser session: %w", domain.Infrastructure(err))
	}
	ctx = logpkg.With(ctx, zap.String("session_id", session.ID()))
	defer func() {
		if rerr := session.Release(); rerr != nil {
			logpkg.FromContext(ctx).Warn("release browser session failed", zap.Error(rerr))
		}
	}()

	p := s.portal(session)

	summary, err := s.navigate(ctx, p, q)
	if err != nil {
		return record.CollectionResult{}, err
	}
	if err := s.validate(ctx, p, q, summary); err != nil {
		return record.CollectionResult{}, err
	}
	person, benefits, err := s.extract(ctx, p)
	if err != nil {
		return record.CollectionResult{}, err
	}

	return record.NewCollectionResult(person, benefits), nil
}

// step runs fn as a named, timed pipeline step. A done context stops the
// pipeline before the step starts. Errors not classified by the domain are
// tagged as infrastructure failures.
func step(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, domain.Infrastructure(err))
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	metrics.CollectionStepDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	log := logpkg.FromContext(ctx)
	if err != nil {
		log.Debug("step failed", zap.String("step", name), zap.Duration("duration", elapsed), zap.Error(err))
		return fmt.Errorf("%s: %w", name, domain.Infrastructure(err))
	}
	log.Debug("step done", zap.String("step", name), zap.Duration("duration", elapsed))
	return nil
}
