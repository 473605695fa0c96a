package prediction

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"green-finance-risk/internal/artifacts"
	"green-finance-risk/internal/artifacts/artifactstest"
	apperrors "green-finance-risk/internal/common/errors"
	"green-finance-risk/internal/common/logger"
	"green-finance-risk/internal/llm"
	"green-finance-risk/internal/models"
	"green-finance-risk/internal/report"
)

type stubGenerator struct {
	report string
	err    error
	calls  int
	got    models.RiskEstimate
}

func (s *stubGenerator) Generate(_ context.Context, estimate models.RiskEstimate, _ models.CompanyContext, _ models.ImpactProfile) (string, error) {
	s.calls++
	s.got = estimate
	return s.report, s.err
}

func greenTech() models.CompanyContext {
	return models.CompanyContext{
		CompanyName:         "GreenTech Solutions",
		Country:             "Germany",
		IndustryCategory:    "Energy",
		Sector:              "Renewable Energy",
		Industry:            "Solar",
		ProductsAndServices: "Solar and wind power solutions",
		Description:         "Provides renewable power to industrial clients.",
	}
}

func uninitializedStore(t *testing.T) *artifacts.Store {
	cfg := artifactstest.WriteArtifacts(t, t.TempDir(), artifactstest.StandardScalerJSON, artifactstest.RandomForestJSON)
	return artifacts.NewStore(cfg, logger.NewNoOpLogger())
}

func TestPreprocessor_ScalesInFixedOrder(t *testing.T) {
	pre, err := NewPreprocessor(artifactstest.NewStore(t))
	require.NoError(t, err)

	vec, err := pre.Preprocess(models.DefaultImpactProfile())
	require.NoError(t, err)
	require.Len(t, vec, models.FeatureCount)
	assert.InDeltaSlice(t, []float64{-1, -0.8, -0.6, -0.4, -5.0 / 3.0}, []float64(vec), 1e-12)
}

func TestPreprocessor_DoesNotCheckBounds(t *testing.T) {
	pre, err := NewPreprocessor(artifactstest.NewStore(t))
	require.NoError(t, err)

	vec, err := pre.Preprocess(models.ImpactProfile{Community: 150, CertificationCycle: 20})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, vec[0], 1e-12)
}

func TestPredictor_ReturnsDistribution(t *testing.T) {
	store := artifactstest.NewStore(t)
	pre, err := NewPreprocessor(store)
	require.NoError(t, err)
	pred, err := NewPredictor(store)
	require.NoError(t, err)

	vec, err := pre.Preprocess(models.DefaultImpactProfile())
	require.NoError(t, err)

	est, err := pred.Predict(vec)
	require.NoError(t, err)

	want := models.RiskEstimate{
		Classes:       []int{0, 1},
		Probabilities: []float64{0.3, artifactstest.DefaultProfileRisk},
		Primary:       artifactstest.DefaultProfileRisk,
	}
	if diff := cmp.Diff(want, est, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("estimate mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, models.RiskLevelHigh, est.Level())
}

func TestPredictor_ShapeMismatch(t *testing.T) {
	pred, err := NewPredictor(artifactstest.NewStore(t))
	require.NoError(t, err)

	_, err = pred.Predict(models.ScaledFeatureVector{1, 2, 3})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, apperrors.ErrPredictionFailed))
	assert.Contains(t, err.Error(), "model expects 5")
}

func TestStages_BeforeInitialize(t *testing.T) {
	store := uninitializedStore(t)

	_, err := NewPreprocessor(store)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, apperrors.ErrArtifactNotLoaded))
	assert.Equal(t, apperrors.ErrCodeModelLoadingFailed, apperrors.CodeOf(err))

	_, err = NewPredictor(store)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, apperrors.ErrArtifactNotLoaded))

	gen := &stubGenerator{report: "OK report"}
	pipeline := NewPipeline(store, gen, nil, logger.NewNoOpLogger())
	report, err := pipeline.Run(context.Background(), models.DefaultImpactProfile(), greenTech())
	require.Error(t, err)
	assert.Empty(t, report)
	assert.True(t, stderrors.Is(err, apperrors.ErrArtifactNotLoaded))
	assert.Equal(t, apperrors.ErrCodeArtifactNotLoaded, apperrors.StageCode(err))
	assert.Zero(t, gen.calls, "report generator must not run")
}

func TestPipeline_EndToEnd(t *testing.T) {
	gen := &stubGenerator{report: "OK report"}
	pipeline := NewPipeline(artifactstest.NewStore(t), gen, nil, logger.NewTestLogger(t))

	profile := models.ImpactProfile{Community: 25.0, Environment: 30.0, Customers: 35.0, Governance: 40.0, CertificationCycle: 0}
	report, err := pipeline.Run(context.Background(), profile, greenTech())
	require.NoError(t, err)
	assert.Equal(t, "OK report", report)
	assert.Equal(t, 1, gen.calls)
	assert.InDelta(t, artifactstest.DefaultProfileRisk, gen.got.Primary, 1e-12)
}

func TestPipeline_ExecuteExposesEstimate(t *testing.T) {
	pipeline := NewPipeline(artifactstest.NewStore(t), &stubGenerator{report: "report"}, nil, logger.NewNoOpLogger())

	profile := models.ImpactProfile{Community: 100, Environment: 100, Customers: 100, Governance: 100, CertificationCycle: 10}
	res, err := pipeline.Execute(context.Background(), profile, greenTech())
	require.NoError(t, err)

	_, parseErr := uuid.Parse(res.RequestID)
	assert.NoError(t, parseErr)
	assert.InDelta(t, artifactstest.MaxProfileRisk, res.Estimate.Primary, 1e-12)
	assert.Equal(t, models.RiskLevelLow, res.Estimate.Level())
}

func TestPipeline_WrapsStageFailures(t *testing.T) {
	tests := []struct {
		name      string
		profile   models.ImpactProfile
		genErr    error
		wantStage apperrors.Stage
		wantInner apperrors.ErrorCode
		sentinel  error
	}{
		{
			name:      "invalid input",
			profile:   models.ImpactProfile{Community: -1},
			wantStage: apperrors.StageInput,
			wantInner: apperrors.ErrCodeInvalidInput,
			sentinel:  apperrors.ErrInvalidInput,
		},
		{
			name:      "empty completion",
			profile:   models.DefaultImpactProfile(),
			genErr:    apperrors.NewEmptyResponseError(),
			wantStage: apperrors.StageReport,
			wantInner: apperrors.ErrCodeEmptyResponse,
			sentinel:  apperrors.ErrAPI,
		},
		{
			name:      "unclassified generator failure",
			profile:   models.DefaultImpactProfile(),
			genErr:    fmt.Errorf("boom"),
			wantStage: apperrors.StageReport,
			wantInner: apperrors.ErrCodePredictionFailed,
			sentinel:  apperrors.ErrPredictionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{report: "ignored", err: tt.genErr}
			pipeline := NewPipeline(artifactstest.NewStore(t), gen, nil, logger.NewNoOpLogger())

			report, err := pipeline.Run(context.Background(), tt.profile, greenTech())
			require.Error(t, err)
			assert.Empty(t, report)

			se, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodePredictionFailed, se.Code)
			assert.Equal(t, tt.wantStage, se.Stage)
			assert.Equal(t, tt.wantInner, apperrors.StageCode(err))
			assert.True(t, stderrors.Is(err, tt.sentinel))
			if tt.genErr != nil {
				assert.True(t, stderrors.Is(err, tt.genErr))
			}
		})
	}
}

func TestPipeline_MissingAPIKeyFailsReportStage(t *testing.T) {
	generator := report.NewGenerator(llm.Config{BaseURL: "http://localhost", Model: "llama3-8b-8192"}, logger.NewNoOpLogger())
	pipeline := NewPipeline(artifactstest.NewStore(t), generator, nil, logger.NewTestLogger(t))

	out, err := pipeline.Run(context.Background(), models.DefaultImpactProfile(), greenTech())
	require.Error(t, err)
	assert.Empty(t, out)

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodePredictionFailed, stdErr.Code)
	assert.Equal(t, apperrors.StageReport, stdErr.Stage)
	assert.Equal(t, apperrors.ErrCodeAPIError, apperrors.StageCode(err))
	assert.True(t, stderrors.Is(err, apperrors.ErrAPI))
}
