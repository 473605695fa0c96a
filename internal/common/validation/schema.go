package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "green-finance-risk/internal/common/errors"
)

// ReportRequestSchema describes models.ReportRequest. Either companyName or an
// inline company record is required.
const ReportRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "anyOf": [
    {"required": ["companyName"]},
    {"required": ["company"]}
  ],
  "properties": {
    "companyName": {"type": "string", "minLength": 1},
    "company": {
      "type": "object",
      "required": ["companyName"],
      "properties": {
        "companyName":         {"type": "string", "minLength": 1},
        "country":             {"type": "string"},
        "industryCategory":    {"type": "string"},
        "sector":              {"type": "string"},
        "industry":            {"type": "string"},
        "productsAndServices": {"type": "string"},
        "description":         {"type": "string"}
      }
    },
    "impact": {
      "type": "object",
      "additionalProperties": false,
      "required": ["community", "environment", "customers", "governance", "certificationCycle"],
      "properties": {
        "community":          {"type": "number", "minimum": 0, "maximum": 100},
        "environment":        {"type": "number", "minimum": 0, "maximum": 100},
        "customers":          {"type": "number", "minimum": 0, "maximum": 100},
        "governance":         {"type": "number", "minimum": 0, "maximum": 100},
        "certificationCycle": {"type": "integer", "minimum": 0, "maximum": 10}
      }
    }
  }
}`

var reportRequestLoader = gojsonschema.NewStringLoader(ReportRequestSchema)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validate checks document against schema. A document that is not JSON is
// reported as a single root-level error.
func Validate(schema gojsonschema.JSONLoader, document []byte) *ValidationResult {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "INVALID_DOCUMENT",
		}}}
	}

	vr := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		vr.Errors = append(vr.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return vr
}

// ValidateReportRequest returns INVALID_INPUT listing every schema violation.
func ValidateReportRequest(document []byte) error {
	vr := Validate(reportRequestLoader, document)
	if vr.Valid {
		return nil
	}
	return apperrors.NewInvalidInputError(strings.Join(vr.GetErrorMessages(), "; "))
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}
