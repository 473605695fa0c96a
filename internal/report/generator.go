package report

import (
	"context"
	"strings"
	"time"

	apperrors "green-finance-risk/internal/common/errors"
	"green-finance-risk/internal/common/logger"
	"green-finance-risk/internal/llm"
	"green-finance-risk/internal/models"
)

// Completer sends one prompt to a completion service.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator produces the diagnostic report. Responses are never cached.
type Generator struct {
	completer Completer
	initErr   error
	logger    logger.Logger
}

// NewGenerator builds the completion client from cfg. A client that cannot be
// built (missing API key, model or base URL) does not stop startup: every
// Generate call then fails with that API_ERROR.
func NewGenerator(cfg llm.Config, log logger.Logger) *Generator {
	client, err := llm.NewClient(cfg, log)
	if err != nil {
		g := NewGeneratorWithCompleter(nil, log)
		g.initErr = err
		g.logger.Warn("Completion client unavailable, report requests will fail", map[string]interface{}{
			"error": err.Error(),
		})
		return g
	}
	return NewGeneratorWithCompleter(client, log)
}

func NewGeneratorWithCompleter(completer Completer, log logger.Logger) *Generator {
	return &Generator{
		completer: completer,
		logger:    log.With(map[string]interface{}{"component": "report-generator"}),
	}
}

// Generate returns the report text. Failures are API_ERROR, or EMPTY_RESPONSE
// when the service answered with nothing usable.
func (g *Generator) Generate(ctx context.Context, estimate models.RiskEstimate, company models.CompanyContext, profile models.ImpactProfile) (string, error) {
	if g.initErr != nil {
		return "", g.initErr
	}

	start := time.Now()
	prompt := BuildPrompt(estimate, company, profile)

	text, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		if _, ok := apperrors.AsStandardError(err); !ok {
			err = apperrors.NewAPIError("Error during LLM inference. Check input data and model configuration", err, false)
		}
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", apperrors.NewEmptyResponseError()
	}

	g.logger.Info("LLM report generated successfully", map[string]interface{}{
		"companyName":  company.CompanyName,
		"promptChars":  len(prompt),
		"reportChars":  len(text),
		"durationMs":   time.Since(start).Milliseconds(),
		"riskCategory": string(estimate.Level()),
	})
	return text, nil
}
