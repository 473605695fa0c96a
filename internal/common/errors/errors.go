// Package errors provides the standardized failure taxonomy of the prediction pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Artifact store / startup
	ErrCodeArtifactMissing    ErrorCode = "ARTIFACT_MISSING"
	ErrCodeArtifactNotLoaded  ErrorCode = "ARTIFACT_NOT_LOADED"
	ErrCodeModelLoadingFailed ErrorCode = "MODEL_LOADING_FAILED"

	// Per-request pipeline stages
	ErrCodePreprocessingFailed ErrorCode = "PREPROCESSING_FAILED"
	ErrCodePredictionFailed    ErrorCode = "PREDICTION_FAILED"

	// Completion service
	ErrCodeAPIError      ErrorCode = "API_ERROR"
	ErrCodeEmptyResponse ErrorCode = "EMPTY_RESPONSE"

	// Boundary
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeCompanyNotFound    ErrorCode = "COMPANY_NOT_FOUND"
	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// parentCodes records subtype relations: a child code also matches its parent
// under errors.Is.
var parentCodes = map[ErrorCode]ErrorCode{
	ErrCodeEmptyResponse:   ErrCodeAPIError,
	ErrCodeArtifactMissing: ErrCodeModelLoadingFailed,
}

// Sentinels for errors.Is checks. They carry only a code.
var (
	ErrArtifactMissing     = &StandardError{Code: ErrCodeArtifactMissing}
	ErrArtifactNotLoaded   = &StandardError{Code: ErrCodeArtifactNotLoaded}
	ErrModelLoadingFailed  = &StandardError{Code: ErrCodeModelLoadingFailed}
	ErrPreprocessingFailed = &StandardError{Code: ErrCodePreprocessingFailed}
	ErrPredictionFailed    = &StandardError{Code: ErrCodePredictionFailed}
	ErrAPI                 = &StandardError{Code: ErrCodeAPIError}
	ErrEmptyResponse       = &StandardError{Code: ErrCodeEmptyResponse}
	ErrInvalidInput        = &StandardError{Code: ErrCodeInvalidInput}
	ErrCompanyNotFound     = &StandardError{Code: ErrCodeCompanyNotFound}
	ErrCatalogUnavailable  = &StandardError{Code: ErrCodeCatalogUnavailable}
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Stage     Stage                  `json:"stage,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	msg := fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.Cause
}

// Is matches another StandardError by code, walking the parent chain of e's code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	for code := e.Code; code != ""; code = parentCodes[code] {
		if code == t.Code {
			return true
		}
	}
	return false
}

// WithMetadata returns e after merging the given fields into its metadata.
func (e *StandardError) WithMetadata(fields map[string]interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{}, len(fields))
	}
	for k, v := range fields {
		e.Metadata[k] = v
	}
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, stage Stage, message string, cause error) *StandardError {
	e := &StandardError{
		Code:      code,
		Message:   message,
		Stage:     stage,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// NewArtifactMissingError reports a scaler or classifier file that does not exist.
func NewArtifactMissingError(path string) *StandardError {
	e := newError(ErrCodeArtifactMissing, StageArtifacts, "Model files not found in the specified path", nil)
	e.Details = fmt.Sprintf("path: %s", path)
	return e
}

// NewArtifactNotLoadedError reports a read from an empty artifact slot.
func NewArtifactNotLoadedError(slot string) *StandardError {
	e := newError(ErrCodeArtifactNotLoaded, StageArtifacts, "Artifact store has not been initialized", nil)
	e.Details = fmt.Sprintf("slot: %s", slot)
	return e
}

// NewModelLoadingError reports an artifact that exists but cannot be used.
func NewModelLoadingError(message string, cause error) *StandardError {
	return newError(ErrCodeModelLoadingFailed, StageArtifacts, message, cause)
}

// NewPreprocessingError reports a scaling transform failure.
func NewPreprocessingError(cause error) *StandardError {
	return newError(ErrCodePreprocessingFailed, StagePreprocess,
		"Preprocessing failed. Ensure input data format is correct", cause)
}

// NewPredictionError reports a classifier estimation failure.
func NewPredictionError(cause error) *StandardError {
	return newError(ErrCodePredictionFailed, StagePredict,
		"Prediction failed. Ensure input data format is correct", cause)
}

// NewAPIError reports a completion-service failure. Retryable marks transport
// level failures; the pipeline itself never retries them.
func NewAPIError(message string, cause error, retryable bool) *StandardError {
	e := newError(ErrCodeAPIError, StageReport, message, cause)
	e.Retryable = retryable
	return e
}

// NewEmptyResponseError reports a completion with no usable text.
func NewEmptyResponseError() *StandardError {
	return newError(ErrCodeEmptyResponse, StageReport,
		"LLM response is empty. Please check input format and prompt", nil)
}

// NewInvalidInputError reports a boundary validation failure.
func NewInvalidInputError(details string) *StandardError {
	e := newError(ErrCodeInvalidInput, StageInput, "Invalid prediction input", nil)
	e.Details = details
	return e
}

// NewCompanyNotFoundError reports an unknown company name.
func NewCompanyNotFoundError(name string) *StandardError {
	e := newError(ErrCodeCompanyNotFound, StageInput, "Company not found in catalog", nil)
	e.Details = fmt.Sprintf("company: %s", name)
	return e
}

// NewCatalogUnavailableError reports a company catalog backend failure.
func NewCatalogUnavailableError(cause error) *StandardError {
	e := newError(ErrCodeCatalogUnavailable, StageInput, "Company catalog unavailable", cause)
	e.Retryable = true
	return e
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeArtifactMissing:     "ARTIFACT_MISSING",
	ErrCodeArtifactNotLoaded:   "ARTIFACT_NOT_LOADED",
	ErrCodeModelLoadingFailed:  "MODEL_LOADING_FAILED",
	ErrCodePreprocessingFailed: "PREDICTION_FAILED",
	ErrCodePredictionFailed:    "PREDICTION_FAILED",
	ErrCodeAPIError:            "REPORT_GENERATION_FAILED",
	ErrCodeEmptyResponse:       "REPORT_GENERATION_FAILED",
	ErrCodeInvalidInput:        "INVALID_INPUT",
	ErrCodeCompanyNotFound:     "COMPANY_NOT_FOUND",
	ErrCodeCatalogUnavailable:  "CATALOG_UNAVAILABLE",
}

// GetRetryCount returns the job retry budget for a code. Pipeline failures are
// reported, not retried; only catalog outages get a second chance.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogUnavailable:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if stdErr.Stage != "" {
		vars["stage"] = string(stdErr.Stage)
	}
	if code, ok := stdErr.Metadata["stageErrorCode"]; ok {
		vars["stageErrorCode"] = code
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "ARTIFACT") || strings.Contains(codeStr, "MODEL"):
		return "STARTUP"
	case strings.Contains(codeStr, "PREPROCESSING") || strings.Contains(codeStr, "PREDICTION"):
		return "ML"
	case strings.Contains(codeStr, "API") || strings.Contains(codeStr, "RESPONSE"):
		return "LLM"
	case strings.Contains(codeStr, "COMPANY") || strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// CodeOf returns the code of the outermost StandardError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	if se, ok := AsStandardError(err); ok {
		return se.Code
	}
	return ErrCodeInternal
}
