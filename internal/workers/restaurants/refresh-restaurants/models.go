package refreshrestaurants

import (
	"context"

	"places-workers/internal/models"
	"places-workers/internal/restaurants"
)

type Input struct {
	Region string `json:"region"`
}

type Output struct {
	Region   string           `json:"restaurantRegion"`
	Found    int              `json:"restaurantsFound"`
	Upserted int              `json:"restaurantsUpserted"`
	Warnings []models.Warning `json:"restaurantWarnings,omitempty"`
}

// Refresher is satisfied by *restaurants.Service.
type Refresher interface {
	Refresh(ctx context.Context, region string) (*restaurants.RefreshReport, error)
}
