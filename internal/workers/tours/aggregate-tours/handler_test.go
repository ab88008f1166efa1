package aggregatetours

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"places-workers/internal/batch"
	"places-workers/internal/common/config"
	apperrors "places-workers/internal/common/errors"
	"places-workers/internal/common/logger"
	"places-workers/internal/models"
	"places-workers/internal/tours"
)

// ==========================
// Mocks
// ==========================

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, citiesText, keywordsText string) (*batch.Accumulator, error) {
	args := m.Called(ctx, citiesText, keywordsText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.Accumulator), args.Error(1)
}

type stubFetcher struct {
	results map[string][]models.TourRecord
	fail    map[string]bool
}

func (s *stubFetcher) Aggregate(ctx context.Context, city, keywords string) (*tours.Result, error) {
	key := city + "|" + keywords
	if s.fail[key] {
		return nil, errors.New("upstream failure")
	}
	return &tours.Result{Records: s.results[key]}, nil
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "tour-collection",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_AggregateTours",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Deadline:                 0,
		Variables:                string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

func createValidConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 1,
		Timeout:       time.Minute,
	}
}

func newTestHandler(t *testing.T, runner BatchRunner) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: createValidConfig(),
		Runner:       runner,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

// ==========================
// Handler Creation Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid configuration",
			opts:    HandlerOptions{CustomConfig: createValidConfig(), Runner: new(MockRunner)},
			wantErr: false,
		},
		{
			name:    "missing runner",
			opts:    HandlerOptions{CustomConfig: createValidConfig()},
			wantErr: true,
			errMsg:  "requires a batch runner",
		},
		{
			name: "invalid timeout",
			opts: HandlerOptions{
				CustomConfig: &Config{Enabled: true, MaxJobsActive: 1},
				Runner:       new(MockRunner),
			},
			wantErr: true,
			errMsg:  "timeout must be positive",
		},
		{
			name: "invalid max jobs",
			opts: HandlerOptions{
				CustomConfig: &Config{Enabled: true, Timeout: time.Second},
				Runner:       new(MockRunner),
			},
			wantErr: true,
			errMsg:  "max_jobs_active must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logger = logger.NewNoOpLogger()
			h, err := NewHandler(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, h)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, h)
		})
	}
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	appCfg := &config.Config{
		Workers: map[string]config.WorkerConfig{
			ConfigName: {Enabled: false, MaxJobsActive: 3, Timeout: 5000},
		},
	}

	cfg := createConfigFromAppConfig(appCfg, nil)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 3, cfg.MaxJobsActive)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	defaults := createConfigFromAppConfig(&config.Config{}, nil)
	assert.Equal(t, DefaultConfig(), defaults)

	custom := createValidConfig()
	assert.Same(t, custom, createConfigFromAppConfig(appCfg, custom))
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := newTestHandler(t, new(MockRunner))

	t.Run("valid", func(t *testing.T) {
		job := createMockJob(1, map[string]interface{}{
			"cities":   "Paris\nRome",
			"keywords": "boat tour",
		})
		input, err := h.parseInput(job)
		require.NoError(t, err)
		assert.Equal(t, "Paris\nRome", input.Cities)
		assert.Equal(t, "boat tour", input.Keywords)
	})

	t.Run("missing keywords", func(t *testing.T) {
		job := createMockJob(2, map[string]interface{}{"cities": "Paris"})
		_, err := h.parseInput(job)
		require.Error(t, err)
		stdErr, ok := apperrors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrCodeInvalidInput, stdErr.Code)
	})

	t.Run("wrong type", func(t *testing.T) {
		job := createMockJob(3, map[string]interface{}{"cities": 12, "keywords": "x"})
		_, err := h.parseInput(job)
		require.Error(t, err)
	})
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute_RunsCrossProduct(t *testing.T) {
	fetcher := &stubFetcher{
		results: map[string][]models.TourRecord{
			"Paris|boat": {{CompanyName: "Seine", City: "Paris", Contact: "N/A"}},
			"Rome|boat":  {{CompanyName: "Tiber", City: "Rome", Contact: "123"}},
		},
		fail: map[string]bool{"Rome|walk": true},
	}
	runner := batch.NewRunner(fetcher, batch.NoDelay{}, logger.NewNoOpLogger())
	h := newTestHandler(t, runner)

	out, err := h.Execute(context.Background(), &Input{Cities: "Paris\nRome", Keywords: "boat\nwalk"})
	require.NoError(t, err)

	assert.Equal(t, 2, out.RecordCount)
	assert.Equal(t, "Seine", out.Records[0].CompanyName)
	assert.Equal(t, "Tiber", out.Records[1].CompanyName)
	assert.Equal(t, batch.StatusComplete, out.Status)
	assert.Equal(t, 100.0, out.Progress)
	assert.Equal(t,
		"Found 1 results for Paris with keywords \"boat\".\n"+
			"Found 1 results for Rome with keywords \"boat\".\n"+
			"Failed to fetch for Rome with keywords \"walk\".",
		out.Message)
}

func TestHandler_Execute_PartialOnCancel(t *testing.T) {
	acc := batch.NewAccumulator()
	acc.Append(models.TourRecord{CompanyName: "Partial"})
	acc.SetStatus(batch.StatusCancelled)

	runner := new(MockRunner)
	runner.On("Run", mock.Anything, "Paris", "boat").Return(acc, context.DeadlineExceeded)

	h := newTestHandler(t, runner)
	out, err := h.Execute(context.Background(), &Input{Cities: "Paris", Keywords: "boat"})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, out)
	assert.Equal(t, 1, out.RecordCount)
	assert.Equal(t, batch.StatusCancelled, out.Status)
	runner.AssertExpectations(t)
}

func TestOutput_JSONVariables(t *testing.T) {
	out := Output{
		Records:     []models.TourRecord{{CompanyName: "A"}},
		RecordCount: 1,
		Message:     "Found 1 results for Paris with keywords \"boat\".",
		Status:      batch.StatusComplete,
		Progress:    100,
	}
	raw, err := json.Marshal(out)
	require.NoError(t, err)

	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &vars))
	assert.Contains(t, vars, "tourRecords")
	assert.Equal(t, "Automation Complete.", vars["batchStatus"])
	assert.NotContains(t, vars, "batchWarnings")
}
