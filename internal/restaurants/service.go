// Package restaurants refreshes the restaurant directory from a single
// region search and serves the stored records.
package restaurants

import (
	"context"

	"github.com/google/uuid"

	apperrors "places-workers/internal/common/errors"
	"places-workers/internal/common/logger"
	"places-workers/internal/common/metrics"
	"places-workers/internal/common/places"
	"places-workers/internal/models"
)

// Searcher runs a single-page text search.
type Searcher interface {
	TextSearch(ctx context.Context, query string) ([]places.PlaceResult, error)
	PhotoURL(reference string) string
}

// RefreshReport summarizes one refresh. Per-record store failures are
// reported as warnings and do not fail the refresh.
type RefreshReport struct {
	Region   string           `json:"region"`
	Found    int              `json:"found"`
	Upserted int              `json:"upserted"`
	Warnings []models.Warning `json:"warnings,omitempty"`
}

type Service struct {
	search Searcher
	store  Store
	logger logger.Logger
	newID  func() string
}

func NewService(search Searcher, store Store, log logger.Logger) *Service {
	return &Service{
		search: search,
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "restaurants"}),
		newID:  func() string { return uuid.NewString() },
	}
}

func BuildQuery(region string) string {
	return "restaurants in " + region
}

// ToRecord maps a search result to a RestaurantRecord with a fresh id.
func (s *Service) ToRecord(p places.PlaceResult) models.RestaurantRecord {
	rec := models.RestaurantRecord{
		ID:   s.newID(),
		Name: p.Name,
		Contact: models.RestaurantContact{
			Phone:   p.FormattedPhoneNumber,
			Website: p.Website,
		},
	}
	if len(p.Photos) > 0 {
		url := s.search.PhotoURL(p.Photos[0].PhotoReference)
		rec.Photo = &url
	}
	if p.Geometry != nil {
		rec.Location = &models.RestaurantLocation{
			Address: p.FormattedAddress,
			Lat:     p.Geometry.Location.Lat,
			Lng:     p.Geometry.Location.Lng,
		}
	}
	return rec
}

func (s *Service) Refresh(ctx context.Context, region string) (*RefreshReport, error) {
	if region == "" {
		return nil, apperrors.NewInvalidInputError("Region is required")
	}

	query := BuildQuery(region)
	results, err := s.search.TextSearch(ctx, query)
	if err != nil {
		return nil, apperrors.NewPlacesSearchFailedError(query, err)
	}

	report := &RefreshReport{Region: region, Found: len(results)}
	for _, p := range results {
		rec := s.ToRecord(p)
		if err := s.store.Upsert(ctx, rec); err != nil {
			metrics.RestaurantUpserts.WithLabelValues(metrics.OutcomeFailure).Inc()
			s.logger.Error("restaurant upsert failed", map[string]interface{}{
				"name":  rec.Name,
				"error": err,
			})
			report.Warnings = append(report.Warnings, models.Warning{
				Source:  "restaurant_store",
				Message: err.Error(),
			})
			continue
		}
		metrics.RestaurantUpserts.WithLabelValues(metrics.OutcomeSuccess).Inc()
		report.Upserted++
	}

	s.logger.Info("restaurants refreshed", map[string]interface{}{
		"region":   region,
		"found":    report.Found,
		"upserted": report.Upserted,
		"warnings": len(report.Warnings),
	})
	return report, nil
}

// List returns every stored restaurant that has a location.
func (s *Service) List(ctx context.Context) ([]models.RestaurantRecord, error) {
	records, err := s.store.ListWithLocation(ctx)
	if err != nil {
		return nil, apperrors.NewRestaurantStoreFailedError(err)
	}
	return records, nil
}
