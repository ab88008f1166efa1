package batch

import (
	"context"
	"time"

	commonhttp "places-workers/internal/common/http"
	"places-workers/internal/models"
	"places-workers/internal/tours"
)

// RemoteFetcher calls a running aggregation endpoint (POST /api/tours).
type RemoteFetcher struct {
	endpoint string
	client   *commonhttp.Client
}

func NewRemoteFetcher(endpoint string, timeout time.Duration) *RemoteFetcher {
	return &RemoteFetcher{
		endpoint: endpoint,
		client:   commonhttp.NewClient(timeout),
	}
}

func (f *RemoteFetcher) Aggregate(ctx context.Context, city, keywords string) (*tours.Result, error) {
	var records []models.TourRecord
	body := models.SearchTerm{City: city, Keywords: keywords}
	if err := f.client.PostJSON(ctx, f.endpoint, body, &records); err != nil {
		return nil, err
	}
	return &tours.Result{Records: records}, nil
}
