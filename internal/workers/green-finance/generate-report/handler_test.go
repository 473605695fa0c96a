package generatereport

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"green-finance-risk/internal/common/config"
	"green-finance-risk/internal/common/errors"
	"green-finance-risk/internal/common/logger"
	"green-finance-risk/internal/companies"
	"green-finance-risk/internal/models"
	"green-finance-risk/internal/prediction"
)

// ==========================
// Mock Pipeline
// ==========================

type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Execute(ctx context.Context, profile models.ImpactProfile, company models.CompanyContext) (*prediction.Result, error) {
	args := m.Called(ctx, profile, company)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*prediction.Result), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

const catalogCSV = "company_name,country,industry_category,sector,industry,products_and_services,description\n" +
	"GreenTech Solutions,Germany,Energy,Renewable Energy,Solar Power,Solar panels,Supplies renewable power.\n"

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "green-finance-assessment",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_GenerateReport",
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
	return &Config{Enabled: true, MaxJobsActive: 2, Timeout: 30 * time.Second}
}

func createCatalog(t *testing.T) companies.Catalog {
	t.Helper()
	catalog, err := companies.ReadCSV(strings.NewReader(catalogCSV))
	require.NoError(t, err)
	return catalog
}

func createHandler(t *testing.T, pipeline Runner) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: createValidConfig(),
		Catalog:      createCatalog(t),
		Pipeline:     pipeline,
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
			opts:    HandlerOptions{CustomConfig: createValidConfig(), Pipeline: &MockPipeline{}},
			wantErr: false,
		},
		{
			name:    "missing pipeline",
			opts:    HandlerOptions{CustomConfig: createValidConfig()},
			wantErr: true,
			errMsg:  "requires a prediction pipeline",
		},
		{
			name: "invalid timeout",
			opts: HandlerOptions{
				CustomConfig: &Config{Enabled: true, MaxJobsActive: 1, Timeout: -time.Second},
				Pipeline:     &MockPipeline{},
			},
			wantErr: true,
			errMsg:  "timeout must be positive",
		},
		{
			name: "invalid max jobs active",
			opts: HandlerOptions{
				CustomConfig: &Config{Enabled: true, MaxJobsActive: 0, Timeout: time.Second},
				Pipeline:     &MockPipeline{},
			},
			wantErr: true,
			errMsg:  "max_jobs_active must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewHandler(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, handler)
				return
			}
			assert.NoError(t, err)
			require.NotNil(t, handler)
			assert.NotNil(t, handler.errorHandler)
		})
	}
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	appConfig := &config.Config{
		Workers: map[string]config.WorkerConfig{
			TaskType: {Enabled: false, MaxJobsActive: 9, Timeout: 45000},
		},
	}

	cfg := createConfigFromAppConfig(appConfig, nil)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 9, cfg.MaxJobsActive)
	assert.Equal(t, 45*time.Second, cfg.Timeout)

	assert.Equal(t, DefaultConfig(), createConfigFromAppConfig(nil, nil))

	custom := createValidConfig()
	assert.Same(t, custom, createConfigFromAppConfig(appConfig, custom))
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := createHandler(t, &MockPipeline{})

	tests := []struct {
		name      string
		variables map[string]interface{}
		check     func(t *testing.T, in *Input)
		wantCode  errors.ErrorCode
	}{
		{
			name: "company name with impact",
			variables: map[string]interface{}{
				"companyName": "GreenTech Solutions",
				"impact": map[string]interface{}{
					"community": 10, "environment": 20, "customers": 30, "governance": 40, "certificationCycle": 2,
				},
				"unrelatedProcessVariable": "ignored",
			},
			check: func(t *testing.T, in *Input) {
				assert.Equal(t, "GreenTech Solutions", in.CompanyName)
				require.NotNil(t, in.Impact)
				assert.Equal(t, 2, in.Impact.CertificationCycle)
				assert.Equal(t, 20.0, in.Impact.Environment)
			},
		},
		{
			name:      "defaults when impact omitted",
			variables: map[string]interface{}{"companyName": "GreenTech Solutions"},
			check: func(t *testing.T, in *Input) {
				assert.Nil(t, in.Impact)
				assert.Equal(t, models.DefaultImpactProfile(), in.Profile())
			},
		},
		{
			name:      "no company",
			variables: map[string]interface{}{"somethingElse": true},
			wantCode:  errors.ErrCodeInvalidInput,
		},
		{
			name: "score out of range",
			variables: map[string]interface{}{
				"companyName": "GreenTech Solutions",
				"impact": map[string]interface{}{
					"community": 150, "environment": 20, "customers": 30, "governance": 40, "certificationCycle": 2,
				},
			},
			wantCode: errors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := h.parseInput(createMockJob(1, tt.variables))
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			tt.check(t, in)
		})
	}
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute_CatalogCompany(t *testing.T) {
	pipeline := &MockPipeline{}
	h := createHandler(t, pipeline)

	estimate := models.NewRiskEstimate([]int{0, 1}, []float64{0.3, 0.7})
	pipeline.On("Execute", mock.Anything, models.DefaultImpactProfile(),
		mock.MatchedBy(func(c models.CompanyContext) bool { return c.Country == "Germany" })).
		Return(&prediction.Result{RequestID: "req-1", Estimate: estimate, Report: "OK report"}, nil)

	out, err := h.Execute(context.Background(), &Input{CompanyName: "GreenTech Solutions"})
	require.NoError(t, err)

	assert.Equal(t, "req-1", out.RequestID)
	assert.Equal(t, "GreenTech Solutions", out.CompanyName)
	assert.Equal(t, 0.7, out.RiskProbability)
	assert.Equal(t, models.RiskLevelHigh, out.RiskLevel)
	assert.Equal(t, []float64{0.3, 0.7}, out.Probabilities)
	assert.Equal(t, "OK report", out.Report)
	assert.False(t, out.GeneratedAt.IsZero())
	pipeline.AssertExpectations(t)
}

func TestHandler_Execute_InlineCompany(t *testing.T) {
	pipeline := &MockPipeline{}
	h := createHandler(t, pipeline)

	inline := models.CompanyContext{CompanyName: "Unlisted Ltd", Country: "Kenya"}
	pipeline.On("Execute", mock.Anything, mock.Anything, inline).
		Return(&prediction.Result{RequestID: "req-2", Estimate: models.NewRiskEstimate([]int{0, 1}, []float64{0.9, 0.1})}, nil)

	out, err := h.Execute(context.Background(), &Input{Company: &inline})
	require.NoError(t, err)
	assert.Equal(t, "Unlisted Ltd", out.CompanyName)
	assert.Equal(t, models.RiskLevelLow, out.RiskLevel)
}

func TestHandler_Execute_UnknownCompany(t *testing.T) {
	pipeline := &MockPipeline{}
	h := createHandler(t, pipeline)

	_, err := h.Execute(context.Background(), &Input{CompanyName: "Nobody"})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrCompanyNotFound))
	pipeline.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Execute_PipelineFailure(t *testing.T) {
	pipeline := &MockPipeline{}
	h := createHandler(t, pipeline)

	stageErr := errors.WrapStage(errors.StageReport, errors.NewEmptyResponseError())
	pipeline.On("Execute", mock.Anything, mock.Anything, mock.Anything).Return(nil, stageErr)

	_, err := h.Execute(context.Background(), &Input{CompanyName: "GreenTech Solutions"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEmptyResponse, errors.StageCode(err))
	assert.Equal(t, errors.ErrCodePredictionFailed, errors.CodeOf(err))
}
