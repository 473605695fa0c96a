package errors

import (
	stderrors "errors"
	"time"
)

// Stage names one step of the prediction pipeline.
type Stage string

const (
	StageInput      Stage = "input"
	StageArtifacts  Stage = "artifacts"
	StagePreprocess Stage = "preprocess"
	StagePredict    Stage = "predict"
	StageReport     Stage = "report"
)

// stageFailureCodes is the exhaustive stage -> pipeline-level mapping. Every
// stage failure surfaces to callers as PREDICTION_FAILED; the stage code stays
// reachable through Unwrap.
var stageFailureCodes = map[Stage]ErrorCode{
	StageInput:      ErrCodePredictionFailed,
	StageArtifacts:  ErrCodePredictionFailed,
	StagePreprocess: ErrCodePredictionFailed,
	StagePredict:    ErrCodePredictionFailed,
	StageReport:     ErrCodePredictionFailed,
}

// PipelineCode returns the pipeline-level code for a failing stage.
func PipelineCode(stage Stage) ErrorCode {
	if code, ok := stageFailureCodes[stage]; ok {
		return code
	}
	return ErrCodePredictionFailed
}

// AsStandardError extracts the outermost StandardError from err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// WrapStage re-signals a stage failure at pipeline level. The result always has
// the pipeline code and the original error as its cause.
func WrapStage(stage Stage, cause error) *StandardError {
	code := PipelineCode(stage)
	msg := "Prediction function encountered an error. Check inputs and model paths"
	e := &StandardError{
		Code:      code,
		Message:   msg,
		Stage:     stage,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
	if cause != nil {
		e.Details = cause.Error()
		if inner, ok := AsStandardError(cause); ok {
			e.Retryable = inner.Retryable
			e.Metadata = map[string]interface{}{"stageErrorCode": string(inner.Code)}
		}
	}
	return e
}

// StageCode returns the code of the innermost StandardError, i.e. the failure
// kind of the stage that actually broke.
func StageCode(err error) ErrorCode {
	code := ErrCodeInternal
	for err != nil {
		if se, ok := err.(*StandardError); ok {
			code = se.Code
		}
		err = stderrors.Unwrap(err)
	}
	return code
}
