package aggregatetours

import (
	"context"

	"places-workers/internal/batch"
	"places-workers/internal/models"
)

// Input carries the two line-delimited lists of a batch run.
type Input struct {
	Cities   string `json:"cities"`
	Keywords string `json:"keywords"`
}

type Output struct {
	Records     []models.TourRecord `json:"tourRecords"`
	RecordCount int                 `json:"tourRecordCount"`
	Message     string              `json:"batchMessage"`
	Status      string              `json:"batchStatus"`
	Progress    float64             `json:"batchProgress"`
	Warnings    []models.Warning    `json:"batchWarnings,omitempty"`
}

// BatchRunner is satisfied by *batch.Runner.
type BatchRunner interface {
	Run(ctx context.Context, citiesText, keywordsText string) (*batch.Accumulator, error)
}
