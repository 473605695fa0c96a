// internal/workers/green-finance/generate-report/handler.go
package generatereport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"green-finance-risk/internal/common/config"
	"green-finance-risk/internal/common/errors"
	"green-finance-risk/internal/common/logger"
	"green-finance-risk/internal/common/metrics"
	"green-finance-risk/internal/common/observability"
	"green-finance-risk/internal/common/validation"
	"green-finance-risk/internal/companies"
	"green-finance-risk/internal/models"
	"green-finance-risk/internal/prediction"
)

const TaskType = "generate-green-finance-report"

// Runner executes the prediction pipeline.
type Runner interface {
	Execute(ctx context.Context, profile models.ImpactProfile, company models.CompanyContext) (*prediction.Result, error)
}

type Handler struct {
	config       *Config
	catalog      companies.Catalog
	pipeline     Runner
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Catalog       companies.Catalog
	Pipeline      Runner
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Pipeline == nil {
		return nil, fmt.Errorf("%s requires a prediction pipeline", TaskType)
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}
	loggerInstance = loggerInstance.With(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       workerConfig,
		catalog:      opts.Catalog,
		pipeline:     opts.Pipeline,
		errorHandler: errors.NewErrorHandler(loggerInstance),
		obs:          opts.Observability,
		logger:       loggerInstance,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing green finance report job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err, startTime)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err, startTime)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.obs.RecordJobProcessed(ctx, "completed")
	h.obs.RecordJobDuration(ctx, time.Since(startTime), "completed")
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("failed to parse job variables: %v", err))
	}

	subset := make(map[string]interface{}, len(inputVariables))
	for _, name := range inputVariables {
		if v, ok := variables[name]; ok && v != nil {
			subset[name] = v
		}
	}
	raw, err := json.Marshal(subset)
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	if err := validation.ValidateReportRequest(raw); err != nil {
		return nil, err
	}

	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewInvalidInputError(err.Error())
	}
	return &input, nil
}

// Execute resolves the company and runs the pipeline.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	company, err := companies.Resolve(ctx, h.catalog, *input)
	if err != nil {
		return nil, err
	}

	result, err := h.pipeline.Execute(ctx, input.Profile(), company)
	if err != nil {
		return nil, err
	}

	return &Output{
		RequestID:       result.RequestID,
		CompanyName:     company.CompanyName,
		RiskProbability: result.Estimate.Primary,
		RiskLevel:       result.Estimate.Level(),
		Probabilities:   result.Estimate.Probabilities,
		Report:          result.Report,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("Failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("Green finance report job completed", map[string]interface{}{
		"jobKey":          job.Key,
		"requestId":       output.RequestID,
		"riskProbability": output.RiskProbability,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, startTime time.Time) {
	code := errors.StageCode(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
	h.obs.RecordJobProcessed(ctx, "failed")
	h.obs.RecordJobDuration(ctx, time.Since(startTime), "failed")
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
