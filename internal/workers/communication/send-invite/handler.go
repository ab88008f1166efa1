package sendinvite

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
	"places-workers/internal/models"
)

const (
	TaskType   = "invite.send"
	ConfigName = "send-invite"
)

type Handler struct {
	config    *Config
	sender    Sender
	validator *validation.Validator
	errors    *errors.ErrorHandler
	obs       *observability.Observability
	logger    logger.Logger
	now       func() time.Time
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Sender        Sender
	Validator     *validation.Validator
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", ConfigName, err)
	}
	if opts.Sender == nil {
		return nil, fmt.Errorf("%s requires an invite sender", ConfigName)
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
		sender:    opts.Sender,
		validator: validator,
		errors:    errors.NewErrorHandler(log),
		obs:       opts.Observability,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:       time.Now,
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
	var output *Output
	if err == nil {
		output, err = h.Execute(ctx, input)
	}
	if err != nil {
		stdErr := errors.Normalize(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.obs.Record(ctx, TaskType, "failed", time.Since(start))
		h.errors.HandleJobError(ctx, client, job, stdErr)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
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

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.Record(ctx, TaskType, "completed", time.Since(start))
}

func (h *Handler) parseInput(job entities.Job) (*models.Invite, error) {
	var input models.Invite
	if err := job.GetVariablesAs(&input); err != nil {
		return nil, errors.NewInvalidInputError("Failed to parse job variables: " + err.Error())
	}

	result, err := h.validator.ValidateInput(validation.InviteRequest, input)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, errors.NewInvalidInputError("Email and link are required")
	}
	return &input, nil
}

func (h *Handler) Execute(ctx context.Context, input *models.Invite) (*Output, error) {
	messageID, err := h.sender.Send(ctx, *input)
	if err != nil {
		return nil, err
	}
	return &Output{
		Sent:      true,
		MessageID: messageID,
		SentAt:    h.now().UTC(),
	}, nil
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
