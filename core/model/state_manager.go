// Package model provides estimator interfaces and fitted-state tracking.
package model

import (
	"sync"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/carprice/pkg/errors"
)

// StateManager manages the fitted state of a model in a thread-safe manner.
// Every successful fit gets a fresh ID so log records of one fitted instance
// can be correlated.
type StateManager struct {
	mu sync.RWMutex

	fitted    bool
	id        uuid.UUID
	nFeatures int
	nSamples  int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// SetFitted marks the model as fitted and assigns a new estimator ID.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
	s.id = uuid.New()
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.id = uuid.Nil
	s.nFeatures = 0
	s.nSamples = 0
}

// ID returns the estimator ID of the current fit, or "" when not fitted.
func (s *StateManager) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.fitted {
		return ""
	}
	return s.id.String()
}

// SetDimensions sets the number of features and samples seen during fitting.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nFeatures = nFeatures
	s.nSamples = nSamples
}

// GetDimensions returns the number of features and samples seen during fitting.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples
}

// RequireFitted returns a NotFittedError if the model has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}
