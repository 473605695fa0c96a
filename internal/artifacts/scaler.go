package artifacts

import (
	"encoding/json"
	"fmt"
	"math"
)

// Scaler is a fitted feature transform. Transform takes a samples x features
// matrix and returns a new matrix of the same shape.
type Scaler interface {
	Transform(x [][]float64) ([][]float64, error)
	NumFeatures() int
	Kind() string
}

const (
	ScalerKindStandard = "standard"
	ScalerKindMinMax   = "minmax"
)

type scalerDocument struct {
	Kind         string    `json:"kind"`
	NFeatures    int       `json:"n_features"`
	FeatureNames []string  `json:"feature_names,omitempty"`
	Mean         []float64 `json:"mean,omitempty"`
	Scale        []float64 `json:"scale,omitempty"`
	Min          []float64 `json:"min,omitempty"`
}

// StandardScaler computes (x - mean) / scale per column.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func (s *StandardScaler) Kind() string     { return ScalerKindStandard }
func (s *StandardScaler) NumFeatures() int { return len(s.Mean) }

func (s *StandardScaler) Transform(x [][]float64) ([][]float64, error) {
	return transformRows(x, len(s.Mean), func(j int, v float64) float64 {
		return (v - s.Mean[j]) / nonZero(s.Scale[j])
	})
}

// MinMaxScaler computes x * scale + min per column.
type MinMaxScaler struct {
	Min   []float64
	Scale []float64
}

func (s *MinMaxScaler) Kind() string     { return ScalerKindMinMax }
func (s *MinMaxScaler) NumFeatures() int { return len(s.Min) }

func (s *MinMaxScaler) Transform(x [][]float64) ([][]float64, error) {
	return transformRows(x, len(s.Min), func(j int, v float64) float64 {
		return v*s.Scale[j] + s.Min[j]
	})
}

func transformRows(x [][]float64, width int, f func(j int, v float64) float64) ([][]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("expected at least one sample")
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("sample %d has %d features, scaler expects %d", i, len(row), width)
		}
		scaled := make([]float64, width)
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("sample %d feature %d is not a finite number", i, j)
			}
			scaled[j] = f(j, v)
		}
		out[i] = scaled
	}
	return out, nil
}

// Constant columns are stored with a zero scale; treat them as unit scale.
func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

func decodeScaler(data []byte) (Scaler, error) {
	if err := validateDocument(scalerSchemaLoader, data); err != nil {
		return nil, err
	}

	var doc scalerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	if doc.FeatureNames != nil && len(doc.FeatureNames) != doc.NFeatures {
		return nil, fmt.Errorf("scaler lists %d feature names for %d features", len(doc.FeatureNames), doc.NFeatures)
	}

	switch doc.Kind {
	case ScalerKindStandard:
		if len(doc.Mean) != doc.NFeatures || len(doc.Scale) != doc.NFeatures {
			return nil, fmt.Errorf("standard scaler needs %d mean and scale values, got %d and %d",
				doc.NFeatures, len(doc.Mean), len(doc.Scale))
		}
		return &StandardScaler{Mean: doc.Mean, Scale: doc.Scale}, nil
	case ScalerKindMinMax:
		if len(doc.Min) != doc.NFeatures || len(doc.Scale) != doc.NFeatures {
			return nil, fmt.Errorf("minmax scaler needs %d min and scale values, got %d and %d",
				doc.NFeatures, len(doc.Min), len(doc.Scale))
		}
		return &MinMaxScaler{Min: doc.Min, Scale: doc.Scale}, nil
	default:
		return nil, fmt.Errorf("unsupported scaler kind %q", doc.Kind)
	}
}
