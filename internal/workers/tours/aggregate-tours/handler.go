package aggregatetours

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"places-workers/internal/common/config"
	"places-workers/internal/common/errors"
	"places-workers/internal/common/logger"
	"places-workers/internal/common/metrics"
	"places-workers/internal/common/observability"
	"places-workers/internal/common/validation"
)

const (
	TaskType   = "tours.aggregate"
	ConfigName = "aggregate-tours"
)

type Handler struct {
	config    *Config
	runner    BatchRunner
	validator *validation.Validator
	errors    *errors.ErrorHandler
	obs       *observability.Observability
	logger    logger.Logger
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Runner        BatchRunner
	Validator     *validation.Validator
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", ConfigName, err)
	}
	if opts.Runner == nil {
		return nil, fmt.Errorf("%s requires a batch runner", ConfigName)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	validator := opts.Validator
	if validator == nil {
		validator = validation.MustNew()
	}

	return &Handler{
		config:    workerConfig,
		runner:    opts.Runner,
		validator: validator,
		errors:    errors.NewErrorHandler(log),
		obs:       opts.Observability,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		output, err = h.Execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
			h.obs.Record(ctx, TaskType, "completed", time.Since(start))
			return
		}
	}

	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.obs.Record(ctx, TaskType, "failed", time.Since(start))
	h.errors.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidInputError("Failed to parse job variables: " + err.Error())
	}

	result, err := h.validator.ValidateInput(validation.BatchRequest, variables)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("Input validation failed: %v", result.GetErrorMessages()))
	}

	return &Input{
		Cities:   variables["cities"].(string),
		Keywords: variables["keywords"].(string),
	}, nil
}

// Execute runs one batch. A cancelled or timed-out run still returns the
// records collected so far alongside the error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	acc, err := h.runner.Run(ctx, input.Cities, input.Keywords)
	if acc == nil {
		return nil, err
	}

	output := &Output{
		Records:     acc.Records(),
		RecordCount: acc.Len(),
		Message:     acc.Message(),
		Status:      acc.Status(),
		Progress:    acc.Progress(),
		Warnings:    acc.Warnings(),
	}
	return output, err
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	h.logger.Info("batch completed", map[string]interface{}{
		"jobKey":  job.GetKey(),
		"records": output.RecordCount,
		"status":  output.Status,
	})
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[ConfigName]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = config.GetDuration(workerCfg.Timeout)
			}
		}
	}
	return cfg
}
