// Package batch drives the tours aggregation across every (city, keyword
// group) pair, one unit at a time with a pause between units.
package batch

import (
	"context"
	"fmt"

	"places-workers/internal/common/logger"
	"places-workers/internal/common/metrics"
	"places-workers/internal/models"
	"places-workers/internal/tours"
)

// UnitFetcher aggregates one search term. It is satisfied in-process by
// *tours.Service and over HTTP by *RemoteFetcher.
type UnitFetcher interface {
	Aggregate(ctx context.Context, city, keywords string) (*tours.Result, error)
}

type Progress struct {
	Completed int
	Total     int
	Percent   float64
	Term      models.SearchTerm
	Err       error
}

type ProgressFunc func(Progress)

type Runner struct {
	fetcher    UnitFetcher
	pacer      Pacer
	logger     logger.Logger
	onProgress ProgressFunc
}

type Option func(*Runner)

// WithProgress registers a callback invoked after every unit.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) { r.onProgress = fn }
}

func NewRunner(fetcher UnitFetcher, pacer Pacer, log logger.Logger, opts ...Option) *Runner {
	if pacer == nil {
		pacer = FixedDelay{Interval: DefaultInterval}
	}
	r := &Runner{
		fetcher: fetcher,
		pacer:   pacer,
		logger:  log.WithFields(map[string]interface{}{"component": "batch"}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func FoundMessage(term models.SearchTerm, n int) string {
	return fmt.Sprintf("Found %d results for %s with keywords \"%s\".", n, term.City, term.Keywords)
}

func FailedMessage(term models.SearchTerm) string {
	return fmt.Sprintf("Failed to fetch for %s with keywords \"%s\".", term.City, term.Keywords)
}

// Run splits the two inputs into lines and processes their cross product.
func (r *Runner) Run(ctx context.Context, citiesText, keywordsText string) (*Accumulator, error) {
	terms := BuildTerms(SplitLines(citiesText), SplitLines(keywordsText))
	acc := NewAccumulator()
	err := r.RunTerms(ctx, terms, acc)
	return acc, err
}

// RunTerms processes terms in order, appending into acc. A failed unit is
// recorded as a message and the run continues. Only context cancellation
// stops the run early.
func (r *Runner) RunTerms(ctx context.Context, terms []models.SearchTerm, acc *Accumulator) error {
	total := len(terms)
	acc.SetProgress(0)

	r.logger.Info("batch started", map[string]interface{}{"units": total})

	for i, term := range terms {
		if err := ctx.Err(); err != nil {
			acc.SetStatus(StatusCancelled)
			return err
		}

		acc.SetStatus(fmt.Sprintf("Processing: %s - %s...", term.City, term.Keywords))

		res, err := r.fetcher.Aggregate(ctx, term.City, term.Keywords)
		if err != nil {
			metrics.BatchUnits.WithLabelValues(metrics.OutcomeFailure).Inc()
			r.logger.Warn("batch unit failed", map[string]interface{}{
				"city":     term.City,
				"keywords": term.Keywords,
				"error":    err,
			})
			acc.AddMessage(FailedMessage(term))
		} else {
			metrics.BatchUnits.WithLabelValues(metrics.OutcomeSuccess).Inc()
			acc.Append(res.Records...)
			acc.AddWarnings(res.Warnings...)
			if n := len(res.Records); n > 0 {
				acc.AddMessage(FoundMessage(term, n))
			}
		}

		completed := i + 1
		pct := float64(completed) / float64(total) * 100
		acc.SetProgress(pct)
		if r.onProgress != nil {
			r.onProgress(Progress{Completed: completed, Total: total, Percent: pct, Term: term, Err: err})
		}

		if err := r.pacer.Wait(ctx); err != nil {
			acc.SetStatus(StatusCancelled)
			return err
		}
	}

	acc.SetStatus(StatusComplete)
	r.logger.Info("batch complete", map[string]interface{}{
		"units":   total,
		"records": acc.Len(),
	})
	return nil
}
