package prediction

import (
	"fmt"

	"green-finance-risk/internal/artifacts"
	apperrors "green-finance-risk/internal/common/errors"
	"green-finance-risk/internal/models"
)

// Predictor estimates class probabilities for one scaled sample.
type Predictor struct {
	classifier artifacts.Classifier
}

// NewPredictor binds the store's classifier.
func NewPredictor(store *artifacts.Store) (*Predictor, error) {
	classifier, err := store.Classifier()
	if err != nil {
		return nil, apperrors.NewModelLoadingError("Could not load ML model. Please check model path and format", err)
	}
	return &Predictor{classifier: classifier}, nil
}

// Predict always returns the probability distribution, never a hard label.
func (p *Predictor) Predict(features models.ScaledFeatureVector) (models.RiskEstimate, error) {
	proba, err := p.classifier.PredictProba([][]float64{features})
	if err != nil {
		return models.RiskEstimate{}, apperrors.NewPredictionError(err)
	}
	classes := p.classifier.Classes()
	if len(proba) != 1 || len(proba[0]) != len(classes) {
		return models.RiskEstimate{}, apperrors.NewPredictionError(
			fmt.Errorf("classifier returned %d rows for %d classes", len(proba), len(classes)))
	}
	return models.NewRiskEstimate(classes, proba[0]), nil
}
