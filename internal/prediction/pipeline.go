package prediction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"green-finance-risk/internal/artifacts"
	apperrors "green-finance-risk/internal/common/errors"
	"green-finance-risk/internal/common/logger"
	"green-finance-risk/internal/common/metrics"
	"green-finance-risk/internal/common/observability"
	"green-finance-risk/internal/models"
)

// ReportGenerator turns a risk estimate and its inputs into report text.
type ReportGenerator interface {
	Generate(ctx context.Context, estimate models.RiskEstimate, company models.CompanyContext, profile models.ImpactProfile) (string, error)
}

// Result is everything one successful run produced.
type Result struct {
	RequestID string              `json:"requestId"`
	Estimate  models.RiskEstimate `json:"estimate"`
	Report    string              `json:"report"`
}

// Pipeline chains preprocess, predict and report for one request.
type Pipeline struct {
	store   *artifacts.Store
	reports ReportGenerator
	obs     *observability.Observability
	logger  logger.Logger
}

// NewPipeline wires the pipeline. obs may be nil.
func NewPipeline(store *artifacts.Store, reports ReportGenerator, obs *observability.Observability, log logger.Logger) *Pipeline {
	return &Pipeline{
		store:   store,
		reports: reports,
		obs:     obs,
		logger:  log.With(map[string]interface{}{"component": "pipeline"}),
	}
}

// Run returns the report text or a PREDICTION_FAILED error wrapping the
// failing stage's error.
func (p *Pipeline) Run(ctx context.Context, profile models.ImpactProfile, company models.CompanyContext) (string, error) {
	result, err := p.Execute(ctx, profile, company)
	if err != nil {
		return "", err
	}
	return result.Report, nil
}

// Execute is Run with the intermediate estimate and request id exposed.
func (p *Pipeline) Execute(ctx context.Context, profile models.ImpactProfile, company models.CompanyContext) (*Result, error) {
	result := &Result{RequestID: uuid.NewString()}
	log := p.logger.With(map[string]interface{}{
		"requestId":   result.RequestID,
		"companyName": company.CompanyName,
	})

	ctx, span := p.obs.StartStage(ctx, "run", attribute.String("requestId", result.RequestID))
	err := p.execute(ctx, log, result, profile, company)
	observability.EndStage(span, err)

	if err != nil {
		metrics.PipelineRuns.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.PipelineRuns.WithLabelValues("succeeded").Inc()
	metrics.RiskProbability.Observe(result.Estimate.Primary)
	log.Info("Prediction pipeline completed", map[string]interface{}{
		"riskProbability": result.Estimate.Primary,
		"riskLevel":       string(result.Estimate.Level()),
	})
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, log logger.Logger, result *Result, profile models.ImpactProfile, company models.CompanyContext) error {
	var (
		preprocessor *Preprocessor
		predictor    *Predictor
		features     models.ScaledFeatureVector
	)

	steps := []struct {
		stage apperrors.Stage
		run   func(ctx context.Context) error
	}{
		{apperrors.StageInput, func(context.Context) error {
			return profile.Validate()
		}},
		{apperrors.StageArtifacts, func(context.Context) error {
			var err error
			if preprocessor, err = NewPreprocessor(p.store); err != nil {
				return err
			}
			predictor, err = NewPredictor(p.store)
			return err
		}},
		{apperrors.StagePreprocess, func(context.Context) error {
			var err error
			features, err = preprocessor.Preprocess(profile)
			return err
		}},
		{apperrors.StagePredict, func(context.Context) error {
			var err error
			result.Estimate, err = predictor.Predict(features)
			return err
		}},
		{apperrors.StageReport, func(ctx context.Context) error {
			var err error
			result.Report, err = p.reports.Generate(ctx, result.Estimate, company, profile)
			return err
		}},
	}

	for _, step := range steps {
		if err := p.runStage(ctx, log, result.RequestID, step.stage, step.run); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, log logger.Logger, requestID string, stage apperrors.Stage, run func(context.Context) error) error {
	start := time.Now()
	ctx, span := p.obs.StartStage(ctx, string(stage), attribute.String("requestId", requestID))

	err := run(ctx)

	elapsed := time.Since(start)
	metrics.PipelineStageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	observability.EndStage(span, err)

	if err != nil {
		stageCode := apperrors.StageCode(err)
		metrics.PipelineStageFailures.WithLabelValues(string(stage), string(stageCode)).Inc()
		log.Error("Pipeline stage failed", map[string]interface{}{
			"stage":          string(stage),
			"errorCode":      string(apperrors.PipelineCode(stage)),
			"stageErrorCode": string(stageCode),
			"error":          err.Error(),
			"durationMs":     elapsed.Milliseconds(),
		})
		return apperrors.WrapStage(stage, err)
	}

	log.Info("Pipeline stage completed", map[string]interface{}{
		"stage":      string(stage),
		"durationMs": elapsed.Milliseconds(),
	})
	return nil
}
