// Package artifactstest provides small trained artifacts for tests.
package artifactstest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"green-finance-risk/internal/artifacts"
	"green-finance-risk/internal/common/logger"
)

// StandardScalerJSON centres every score on 50 (scale 25) and the
// certification cycle on 5 (scale 3).
const StandardScalerJSON = `{
  "kind": "standard",
  "n_features": 5,
  "feature_names": ["impact_area_community", "impact_area_environment", "impact_area_customers", "impact_area_governance", "certification_cycle"],
  "mean": [50, 50, 50, 50, 5],
  "scale": [25, 25, 25, 25, 3]
}`

// RandomForestJSON is a two-tree forest. For the default profile
// (25, 30, 35, 40, 0) the high-risk probability is 0.7; for the all-maximum
// profile (100, 100, 100, 100, 10) it is 0.05.
const RandomForestJSON = `{
  "kind": "random_forest",
  "n_features": 5,
  "classes": [0, 1],
  "trees": [
    {
      "children_left":  [1, -1, -1],
      "children_right": [2, -1, -1],
      "feature":        [3, -2, -2],
      "threshold":      [0.0, -2, -2],
      "value":          [[11, 9], [2, 8], [9, 1]]
    },
    {
      "children_left":  [1, -1, 3, -1, -1],
      "children_right": [2, -1, 4, -1, -1],
      "feature":        [1, -2, 4, -2, -2],
      "threshold":      [-0.5, -2, 0.0, -2, -2],
      "value":          [[19, 11], [4, 6], [15, 5], [5, 5], [10, 0]]
    }
  ]
}`

// LogisticRegressionJSON weights every scaled feature by -1 with no intercept.
const LogisticRegressionJSON = `{
  "kind": "logistic_regression",
  "n_features": 5,
  "classes": [0, 1],
  "coef": [-1, -1, -1, -1, -1],
  "intercept": 0
}`

// Expected high-risk probabilities of RandomForestJSON.
const (
	DefaultProfileRisk = 0.7
	MaxProfileRisk     = 0.05
)

// WriteArtifacts writes the scaler and model documents into dir using the
// default file names and returns the matching config.
func WriteArtifacts(t testing.TB, dir, scalerJSON, modelJSON string) artifacts.Config {
	t.Helper()
	cfg := artifacts.Config{Dir: dir, ScalerFile: "scaler_object.json", ModelFile: "random_forest.json"}
	if scalerJSON != "" {
		if err := os.WriteFile(filepath.Join(dir, cfg.ScalerFile), []byte(scalerJSON), 0o600); err != nil {
			t.Fatalf("write scaler: %v", err)
		}
	}
	if modelJSON != "" {
		if err := os.WriteFile(filepath.Join(dir, cfg.ModelFile), []byte(modelJSON), 0o600); err != nil {
			t.Fatalf("write model: %v", err)
		}
	}
	return cfg
}

// NewStore returns a store initialized with the standard scaler and the
// random forest fixture.
func NewStore(t testing.TB) *artifacts.Store {
	t.Helper()
	cfg := WriteArtifacts(t, t.TempDir(), StandardScalerJSON, RandomForestJSON)
	store := artifacts.NewStore(cfg, logger.NewNoOpLogger())
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize store: %v", err)
	}
	return store
}
