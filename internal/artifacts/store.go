// Package artifacts holds the trained scaler and classifier used by the
// prediction pipeline. A Store is created once per process, initialized once
// at startup and only read afterwards.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "green-finance-risk/internal/common/errors"
	"green-finance-risk/internal/common/logger"
)

// Slot names.
const (
	SlotScaler = "scaler"
	SlotModel  = "ml_model"
)

// Config locates the artifact files.
type Config struct {
	Dir        string
	ScalerFile string
	ModelFile  string
}

// ScalerPath returns the full path of the scaler artifact.
func (c Config) ScalerPath() string { return filepath.Join(c.Dir, c.ScalerFile) }

// ModelPath returns the full path of the classifier artifact.
func (c Config) ModelPath() string { return filepath.Join(c.Dir, c.ModelFile) }

// Store is the model context shared by the preprocessor and the predictor.
type Store struct {
	config Config
	logger logger.Logger

	mu    sync.RWMutex
	slots map[string]interface{}
}

// NewStore returns an empty store. Nothing is read until Initialize.
func NewStore(config Config, log logger.Logger) *Store {
	return &Store{
		config: config,
		logger: log.With(map[string]interface{}{"component": "artifact-store"}),
		slots:  make(map[string]interface{}),
	}
}

// Initialize loads both artifacts. Either file missing yields ARTIFACT_MISSING,
// a file that cannot be decoded yields MODEL_LOADING_FAILED; in both cases the
// store is left exactly as it was. Callers run it once at startup.
func (s *Store) Initialize(ctx context.Context) error {
	scalerPath, modelPath := s.config.ScalerPath(), s.config.ModelPath()

	for _, path := range []string{scalerPath, modelPath} {
		if _, err := os.Stat(path); err != nil {
			stdErr := apperrors.NewArtifactMissingError(path)
			s.logger.Error("Error loading models", map[string]interface{}{
				"path":      path,
				"errorCode": string(stdErr.Code),
				"error":     err.Error(),
			})
			return stdErr
		}
	}

	if err := ctx.Err(); err != nil {
		return apperrors.NewModelLoadingError("Model loading cancelled", err)
	}

	scaler, err := loadFile(scalerPath, decodeScaler)
	if err != nil {
		return s.loadFailure("Could not load the scaler for data preprocessing", scalerPath, err)
	}
	classifier, err := loadFile(modelPath, decodeClassifier)
	if err != nil {
		return s.loadFailure("Could not load ML model. Please check model path and format", modelPath, err)
	}

	if scaler.NumFeatures() != classifier.NumFeatures() {
		return s.loadFailure("Scaler and ML model disagree on feature count", modelPath,
			fmt.Errorf("scaler has %d features, model has %d", scaler.NumFeatures(), classifier.NumFeatures()))
	}

	s.mu.Lock()
	s.slots[SlotScaler] = scaler
	s.slots[SlotModel] = classifier
	s.mu.Unlock()

	s.logger.Info("Models initialized successfully", map[string]interface{}{
		"scaler":     scaler.Kind(),
		"model":      classifier.Kind(),
		"features":   scaler.NumFeatures(),
		"scalerPath": scalerPath,
		"modelPath":  modelPath,
	})
	return nil
}

func (s *Store) loadFailure(msg, path string, cause error) error {
	stdErr := apperrors.NewModelLoadingError(msg, cause)
	s.logger.Error("Error loading models", map[string]interface{}{
		"path":      path,
		"errorCode": string(stdErr.Code),
		"error":     cause.Error(),
	})
	return stdErr
}

func loadFile[T any](path string, decode func([]byte) (T, error)) (T, error) {
	var zero T
	data, err := os.ReadFile(path)
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", path, err)
	}
	v, err := decode(data)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return v, nil
}

// Get returns the artifact stored under name, or ARTIFACT_NOT_LOADED.
func (s *Store) Get(name string) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.slots[name]
	if !ok {
		return nil, apperrors.NewArtifactNotLoadedError(name)
	}
	return v, nil
}

// Scaler returns the loaded scaler.
func (s *Store) Scaler() (Scaler, error) {
	v, err := s.Get(SlotScaler)
	if err != nil {
		return nil, err
	}
	return v.(Scaler), nil
}

// Classifier returns the loaded classifier.
func (s *Store) Classifier() (Classifier, error) {
	v, err := s.Get(SlotModel)
	if err != nil {
		return nil, err
	}
	return v.(Classifier), nil
}

// Loaded reports whether both slots are populated.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, hasScaler := s.slots[SlotScaler]
	_, hasModel := s.slots[SlotModel]
	return hasScaler && hasModel
}
