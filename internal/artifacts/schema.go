package artifacts

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const scalerSchema = `{
  "type": "object",
  "required": ["kind", "n_features"],
  "properties": {
    "kind": {"enum": ["standard", "minmax"]},
    "n_features": {"type": "integer", "minimum": 1},
    "feature_names": {"type": "array", "items": {"type": "string"}},
    "mean": {"type": "array", "items": {"type": "number"}},
    "scale": {"type": "array", "items": {"type": "number"}},
    "min": {"type": "array", "items": {"type": "number"}}
  },
  "oneOf": [
    {"properties": {"kind": {"enum": ["standard"]}}, "required": ["mean", "scale"]},
    {"properties": {"kind": {"enum": ["minmax"]}}, "required": ["min", "scale"]}
  ]
}`

const classifierSchema = `{
  "type": "object",
  "required": ["kind", "n_features", "classes"],
  "properties": {
    "kind": {"enum": ["random_forest", "logistic_regression"]},
    "n_features": {"type": "integer", "minimum": 1},
    "classes": {"type": "array", "items": {"type": "integer"}, "minItems": 2},
    "trees": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["children_left", "children_right", "feature", "threshold", "value"],
        "properties": {
          "children_left": {"type": "array", "items": {"type": "integer"}, "minItems": 1},
          "children_right": {"type": "array", "items": {"type": "integer"}, "minItems": 1},
          "feature": {"type": "array", "items": {"type": "integer"}},
          "threshold": {"type": "array", "items": {"type": "number"}},
          "value": {"type": "array", "items": {"type": "array", "items": {"type": "number", "minimum": 0}}}
        }
      }
    },
    "coef": {"type": "array", "items": {"type": "number"}},
    "intercept": {"type": "number"}
  },
  "oneOf": [
    {"properties": {"kind": {"enum": ["random_forest"]}}, "required": ["trees"]},
    {"properties": {"kind": {"enum": ["logistic_regression"]}}, "required": ["coef", "intercept"]}
  ]
}`

var (
	scalerSchemaLoader     = gojsonschema.NewStringLoader(scalerSchema)
	classifierSchemaLoader = gojsonschema.NewStringLoader(classifierSchema)
)

func validateDocument(loader gojsonschema.JSONLoader, data []byte) error {
	result, err := gojsonschema.Validate(loader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("artifact does not match schema: %s", strings.Join(errs, "; "))
	}

	return nil
}
