package batch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"places-workers/internal/common/logger"
	"places-workers/internal/models"
	"places-workers/internal/tours"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Aggregate(ctx context.Context, city, keywords string) (*tours.Result, error) {
	args := m.Called(ctx, city, keywords)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tours.Result), args.Error(1)
}

// countingPacer records how often it was waited on.
type countingPacer struct {
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	return ctx.Err()
}

func rec(city, name string) models.TourRecord {
	return models.TourRecord{CompanyName: name, PlaceOfActivity: name, City: city, Contact: "N/A"}
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"Paris", "Rome", " Oslo "}, SplitLines("Paris\n\n  \nRome\r\n Oslo \n"))
	assert.Empty(t, SplitLines(""))
	assert.Empty(t, SplitLines("\n \n\t\n"))
}

func TestBuildTerms_CrossProductOrder(t *testing.T) {
	terms := BuildTerms([]string{"Paris", "Rome"}, []string{"museum", "food", "walk"})

	require.Len(t, terms, 6)
	assert.Equal(t, []models.SearchTerm{
		{City: "Paris", Keywords: "museum"},
		{City: "Paris", Keywords: "food"},
		{City: "Paris", Keywords: "walk"},
		{City: "Rome", Keywords: "museum"},
		{City: "Rome", Keywords: "food"},
		{City: "Rome", Keywords: "walk"},
	}, terms)
}

func TestRunner_Run_AccumulatesInOrderAndSurvivesFailure(t *testing.T) {
	fetcher := &MockFetcher{}
	fetcher.On("Aggregate", mock.Anything, "Paris", "museum").
		Return(&tours.Result{Records: []models.TourRecord{rec("Paris", "Louvre"), rec("Paris", "Orsay")}}, nil)
	fetcher.On("Aggregate", mock.Anything, "Paris", "food").
		Return(nil, errors.New("upstream 500"))
	fetcher.On("Aggregate", mock.Anything, "Rome", "museum").
		Return(&tours.Result{Records: []models.TourRecord{rec("Rome", "Vatican")}}, nil)
	fetcher.On("Aggregate", mock.Anything, "Rome", "food").
		Return(&tours.Result{Records: []models.TourRecord{}}, nil)

	pacer := &countingPacer{}
	var progress []float64
	runner := NewRunner(fetcher, pacer, logger.NewTestLogger(t), WithProgress(func(p Progress) {
		progress = append(progress, p.Percent)
		assert.Equal(t, 4, p.Total)
	}))

	acc, err := runner.Run(context.Background(), "Paris\nRome\n", "museum\n\nfood")
	require.NoError(t, err)

	assert.Equal(t, []models.TourRecord{
		rec("Paris", "Louvre"), rec("Paris", "Orsay"), rec("Rome", "Vatican"),
	}, acc.Records())
	assert.Equal(t, []string{
		`Found 2 results for Paris with keywords "museum".`,
		`Failed to fetch for Paris with keywords "food".`,
		`Found 1 results for Rome with keywords "museum".`,
	}, acc.Messages())
	assert.Equal(t, StatusComplete, acc.Status())
	assert.Equal(t, float64(100), acc.Progress())
	assert.Equal(t, []float64{25, 50, 75, 100}, progress)
	assert.Equal(t, 4, pacer.waits)

	fetcher.AssertNumberOfCalls(t, "Aggregate", 4)
}

func TestRunner_Run_SequentialCallOrder(t *testing.T) {
	var order []string
	fetcher := &MockFetcher{}
	fetcher.On("Aggregate", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			order = append(order, args.String(1)+"/"+args.String(2))
		}).
		Return(&tours.Result{}, nil)

	_, err := NewRunner(fetcher, NoDelay{}, logger.NewNoOpLogger()).
		Run(context.Background(), "A\nB", "x\ny")
	require.NoError(t, err)
	assert.Equal(t, []string{"A/x", "A/y", "B/x", "B/y"}, order)
}

func TestRunner_Run_EmptyInput(t *testing.T) {
	fetcher := &MockFetcher{}
	acc, err := NewRunner(fetcher, NoDelay{}, logger.NewNoOpLogger()).Run(context.Background(), "Paris", "")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, acc.Status())
	assert.Zero(t, acc.Len())
	fetcher.AssertNotCalled(t, "Aggregate", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunner_Run_WarningsCollected(t *testing.T) {
	fetcher := &MockFetcher{}
	fetcher.On("Aggregate", mock.Anything, "Paris", "museum").Return(&tours.Result{
		Records:  []models.TourRecord{rec("Paris", "Louvre")},
		Warnings: []models.Warning{{Source: "keyword_log", Message: "disk full"}},
	}, nil)

	acc, err := NewRunner(fetcher, NoDelay{}, logger.NewNoOpLogger()).Run(context.Background(), "Paris", "museum")
	require.NoError(t, err)
	require.Len(t, acc.Warnings(), 1)
	assert.Equal(t, "keyword_log", acc.Warnings()[0].Source)
}

func TestRunner_Run_CancelStopsBetweenUnits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fetcher := &MockFetcher{}
	fetcher.On("Aggregate", mock.Anything, "Paris", "museum").
		Run(func(mock.Arguments) { cancel() }).
		Return(&tours.Result{Records: []models.TourRecord{rec("Paris", "Louvre")}}, nil)

	acc, err := NewRunner(fetcher, FixedDelay{Interval: time.Hour}, logger.NewNoOpLogger()).
		Run(ctx, "Paris\nRome", "museum")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCancelled, acc.Status())
	assert.Equal(t, 1, acc.Len())
	fetcher.AssertNumberOfCalls(t, "Aggregate", 1)
}

func TestAccumulator_Clear(t *testing.T) {
	acc := NewAccumulator()
	acc.Append(rec("Paris", "Louvre"))
	acc.AddMessage("Found 1 results for Paris with keywords \"museum\".")

	acc.Clear()

	assert.Zero(t, acc.Len())
	assert.Equal(t, []string{MessageCleared}, acc.Messages())
	assert.Equal(t, "Results cleared.", acc.Message())
}

func TestFixedDelay_Waits(t *testing.T) {
	start := time.Now()
	require.NoError(t, FixedDelay{Interval: 20 * time.Millisecond}.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestTokenBucket_SpacesUnits(t *testing.T) {
	p := NewTokenBucket(20*time.Millisecond, 1)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, p.Wait(ctx))
	require.NoError(t, p.Wait(ctx))
	require.NoError(t, p.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestNewPacer(t *testing.T) {
	p, err := NewPacer("fixed", 0)
	require.NoError(t, err)
	assert.Equal(t, FixedDelay{Interval: DefaultInterval}, p)

	p, err = NewPacer("none", time.Second)
	require.NoError(t, err)
	assert.IsType(t, NoDelay{}, p)

	p, err = NewPacer("token_bucket", time.Second)
	require.NoError(t, err)
	assert.IsType(t, &TokenBucket{}, p)

	_, err = NewPacer("burst", time.Second)
	assert.Error(t, err)
}

func TestRemoteFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body models.SearchTerm
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body.City == "Nowhere" {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "Failed to fetch tourist attractions"})
			return
		}
		json.NewEncoder(w).Encode([]models.TourRecord{rec(body.City, body.Keywords)})
	}))
	defer srv.Close()

	f := NewRemoteFetcher(srv.URL, 5*time.Second)

	res, err := f.Aggregate(context.Background(), "Paris", "museum")
	require.NoError(t, err)
	assert.Equal(t, []models.TourRecord{rec("Paris", "museum")}, res.Records)

	_, err = f.Aggregate(context.Background(), "Nowhere", "")
	assert.Error(t, err)
}
