// Package tours aggregates tourist-activity listings for one city and
// keyword group: a paginated search followed by a concurrent detail fan-out.
package tours

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "places-workers/internal/common/errors"
	"places-workers/internal/common/logger"
	"places-workers/internal/common/metrics"
	"places-workers/internal/common/places"
	"places-workers/internal/models"
)

// Searcher walks every result page of a text search.
type Searcher interface {
	SearchAllPages(ctx context.Context, query string) ([]places.PlaceSummary, error)
}

// Result is the fully materialized outcome of one aggregation. Warnings
// carry best-effort failures that did not fail the call.
type Result struct {
	Records  []models.TourRecord `json:"records"`
	Warnings []models.Warning    `json:"warnings,omitempty"`
}

type Options struct {
	// DetailConcurrency caps in-flight detail lookups; 0 means no cap.
	DetailConcurrency int
}

type Service struct {
	search   Searcher
	details  places.DetailFetcher
	keywords KeywordRecorder
	opts     Options
	logger   logger.Logger
}

func NewService(search Searcher, details places.DetailFetcher, keywords KeywordRecorder, opts Options, log logger.Logger) *Service {
	return &Service{
		search:   search,
		details:  details,
		keywords: keywords,
		opts:     opts,
		logger:   log.WithFields(map[string]interface{}{"component": "tours"}),
	}
}

// BuildQuery renders the text query for a city and keyword group.
func BuildQuery(city, keywords string) string {
	return strings.TrimSpace("tourist attractions in " + city + " " + keywords)
}

// Aggregate returns one TourRecord per search hit, in search order. Any
// failed detail lookup fails the whole call.
func (s *Service) Aggregate(ctx context.Context, city, keywords string) (*Result, error) {
	if city == "" {
		return nil, apperrors.NewInvalidInputError("City is required")
	}

	result := &Result{}

	if keywords != "" && s.keywords != nil {
		if err := s.keywords.Record(keywords); err != nil {
			s.logger.Warn("failed to log keywords", map[string]interface{}{"error": err})
			result.Warnings = append(result.Warnings, models.Warning{
				Source:  "keyword_log",
				Message: err.Error(),
			})
		}
	}

	query := BuildQuery(city, keywords)
	summaries, err := s.search.SearchAllPages(ctx, query)
	if err != nil {
		return nil, apperrors.NewPlacesSearchFailedError(query, err)
	}

	records := make([]models.TourRecord, len(summaries))

	g, gctx := errgroup.WithContext(ctx)
	if s.opts.DetailConcurrency > 0 {
		g.SetLimit(s.opts.DetailConcurrency)
	}
	for i, summary := range summaries {
		g.Go(func() error {
			detail, err := s.details.FetchDetail(gctx, summary.PlaceID)
			if err != nil {
				return err
			}
			records[i] = models.TourRecord{
				CompanyName:     detail.Name,
				PlaceOfActivity: summary.Name,
				Address:         detail.FormattedAddress,
				Contact:         models.ResolveContact(detail.FormattedPhoneNumber, detail.Website),
				City:            city,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.NewPlacesDetailFailedError(err)
	}

	result.Records = records
	metrics.TourRecordsCollected.Add(float64(len(records)))

	s.logger.Info("tours aggregated", map[string]interface{}{
		"city":     city,
		"keywords": keywords,
		"records":  len(records),
	})
	return result, nil
}
