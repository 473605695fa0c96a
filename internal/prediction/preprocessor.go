// Package prediction runs the request-scoped part of the pipeline: scale the
// impact profile, estimate the risk probability and hand both to the report
// generator.
package prediction

import (
	"fmt"

	"green-finance-risk/internal/artifacts"
	apperrors "green-finance-risk/internal/common/errors"
	"green-finance-risk/internal/models"
)

// Preprocessor turns an ImpactProfile into a scaled feature vector.
type Preprocessor struct {
	scaler artifacts.Scaler
}

// NewPreprocessor binds the store's scaler. An uninitialized store yields
// MODEL_LOADING_FAILED wrapping ARTIFACT_NOT_LOADED.
func NewPreprocessor(store *artifacts.Store) (*Preprocessor, error) {
	scaler, err := store.Scaler()
	if err != nil {
		return nil, apperrors.NewModelLoadingError("Could not load the scaler for data preprocessing", err)
	}
	return &Preprocessor{scaler: scaler}, nil
}

// Preprocess scales the profile as a single sample. Range checks belong to the
// caller; only shape and finiteness are enforced here.
func (p *Preprocessor) Preprocess(profile models.ImpactProfile) (models.ScaledFeatureVector, error) {
	scaled, err := p.scaler.Transform([][]float64{profile.Features()})
	if err != nil {
		return nil, apperrors.NewPreprocessingError(err)
	}
	if len(scaled) != 1 || len(scaled[0]) != models.FeatureCount {
		return nil, apperrors.NewPreprocessingError(
			fmt.Errorf("scaler returned %d rows of width %d, want 1 x %d", len(scaled), rowWidth(scaled), models.FeatureCount))
	}
	return models.ScaledFeatureVector(scaled[0]), nil
}

func rowWidth(rows [][]float64) int {
	if len(rows) == 0 {
		return 0
	}
	return len(rows[0])
}
