package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same code", NewPreprocessingError(fmt.Errorf("bad shape")), ErrPreprocessingFailed, true},
		{"different code", NewPreprocessingError(nil), ErrPredictionFailed, false},
		{"empty response is an API error", NewEmptyResponseError(), ErrAPI, true},
		{"empty response matches itself", NewEmptyResponseError(), ErrEmptyResponse, true},
		{"API error is not an empty response", NewAPIError("boom", nil, false), ErrEmptyResponse, false},
		{"artifact missing is a model loading error", NewArtifactMissingError("/models/x.json"), ErrModelLoadingFailed, true},
		{"not loaded is not missing", NewArtifactNotLoadedError("scaler"), ErrArtifactMissing, false},
		{"wrapped with fmt", fmt.Errorf("outer: %w", NewEmptyResponseError()), ErrAPI, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stderrors.Is(tt.err, tt.target))
		})
	}
}

func TestStandardError_UnwrapReachesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewAPIError("Error during LLM inference", cause, true)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "API_ERROR")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "connection refused", err.Details)
	assert.True(t, err.Retryable)
	assert.Equal(t, StageReport, err.Stage)
}

func TestWrapStage(t *testing.T) {
	for _, stage := range []Stage{StageInput, StageArtifacts, StagePreprocess, StagePredict, StageReport} {
		t.Run(string(stage), func(t *testing.T) {
			inner := NewEmptyResponseError()
			wrapped := WrapStage(stage, inner)

			assert.Equal(t, ErrCodePredictionFailed, wrapped.Code)
			assert.Equal(t, stage, wrapped.Stage)
			assert.True(t, stderrors.Is(wrapped, ErrPredictionFailed))
			assert.True(t, stderrors.Is(wrapped, ErrEmptyResponse))
			assert.Equal(t, ErrCodeEmptyResponse, StageCode(wrapped))
			assert.Equal(t, "EMPTY_RESPONSE", wrapped.Metadata["stageErrorCode"])
		})
	}
}

func TestStageCode_PlainError(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, StageCode(fmt.Errorf("plain")))
	assert.Equal(t, ErrCodeInternal, CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, ErrCodeInternal, StageCode(nil))
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := WrapStage(StageReport, NewAPIError("Error during LLM inference", fmt.Errorf("503"), true))

	bpmn := ConvertToBPMNError(stdErr)
	require.NotNil(t, bpmn)
	assert.Equal(t, "PREDICTION_FAILED", bpmn.Code)
	assert.Equal(t, 0, bpmn.Retries)
	assert.Equal(t, "report", bpmn.ErrorVariables["stage"])
	assert.Equal(t, "API_ERROR", bpmn.ErrorVariables["stageErrorCode"])

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "PREDICTION_FAILED", vars["errorCode"])
	assert.Equal(t, "PREDICTION_FAILED", vars["originalErrorCode"])
	assert.NotEmpty(t, vars["timestamp"])
}

func TestConvertToBPMNError_CatalogRetries(t *testing.T) {
	bpmn := ConvertToBPMNError(NewCatalogUnavailableError(fmt.Errorf("dial tcp: refused")))
	assert.Equal(t, "CATALOG_UNAVAILABLE", bpmn.Code)
	assert.Equal(t, 2, bpmn.Retries)
	assert.True(t, IsRetryableErrorCode(ErrCodeCatalogUnavailable))
	assert.False(t, IsRetryableErrorCode(ErrCodeAPIError))
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeArtifactMissing:     "STARTUP",
		ErrCodeModelLoadingFailed:  "STARTUP",
		ErrCodePreprocessingFailed: "ML",
		ErrCodePredictionFailed:    "ML",
		ErrCodeAPIError:            "LLM",
		ErrCodeEmptyResponse:       "LLM",
		ErrCodeCompanyNotFound:     "CATALOG",
		ErrCodeInvalidInput:        "VALIDATION",
		ErrCodeInternal:            "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), string(code))
	}
}

func TestNormalize(t *testing.T) {
	plain := fmt.Errorf("boom")
	n := Normalize(plain)
	assert.Equal(t, ErrCodeInternal, n.Code)
	assert.Equal(t, "boom", n.Details)

	se := NewInvalidInputError("community out of range")
	assert.Same(t, se, Normalize(fmt.Errorf("ctx: %w", se)))
}

func TestWithMetadata(t *testing.T) {
	err := NewCompanyNotFoundError("Acme").WithMetadata(map[string]interface{}{"source": "csv"})
	assert.Equal(t, "csv", err.Metadata["source"])
	assert.Equal(t, "company: Acme", err.Details)
}
