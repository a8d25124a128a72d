package admin

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/agroscan/agroscan/internal/store"
)

// ErrRetrainInProgress is returned when a retrain is requested while one runs.
var ErrRetrainInProgress = errors.New("model retraining is already in progress")

// State is the lifecycle state of a model component.
type State string

const (
	StateReady      State = "ready"
	StateStale      State = "stale"
	StateRetraining State = "retraining"
)

// Component is one entry of the model status panel.
type Component struct {
	Name      string
	State     State
	UpdatedAt time.Time
}

// Label is the human-readable state shown in the panel.
func (c Component) Label() string {
	switch c.State {
	case StateRetraining:
		return "Retraining"
	case StateStale:
		return "Needs update"
	}
	if c.Name == "Feature Database" {
		return "Up to date"
	}
	return "Ready"
}

// Service tracks datasets and the simulated model lifecycle. No training
// happens; a retrain completes after a fixed duration.
type Service struct {
	datasets        store.Datasets
	retrainDuration time.Duration
	now             func() time.Time

	mu       sync.Mutex
	vgg      Component
	siamese  Component
	features Component
	timer    *time.Timer
}

// NewService creates the admin service with every component ready.
func NewService(datasets store.Datasets, retrainDuration time.Duration) *Service {
	now := time.Now()
	return &Service{
		datasets:        datasets,
		retrainDuration: retrainDuration,
		now:             time.Now,
		vgg:             Component{Name: "VGG16 Model", State: StateReady, UpdatedAt: now},
		siamese:         Component{Name: "Siamese Network", State: StateReady, UpdatedAt: now},
		features:        Component{Name: "Feature Database", State: StateReady, UpdatedAt: now},
	}
}

// Status returns the model components in display order.
func (s *Service) Status() []Component {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []Component{s.vgg, s.siamese, s.features}
}

// Retraining reports whether a retrain is running.
func (s *Service) Retraining() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Retrain marks every component as retraining and schedules completion.
func (s *Service) Retrain(requestedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		return ErrRetrainInProgress
	}

	now := s.now()
	for _, c := range []*Component{&s.vgg, &s.siamese, &s.features} {
		c.State = StateRetraining
		c.UpdatedAt = now
	}
	log.Printf("Model retraining started by %s", requestedBy)

	s.timer = time.AfterFunc(s.retrainDuration, s.finishRetrain)
	return nil
}

func (s *Service) finishRetrain() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, c := range []*Component{&s.vgg, &s.siamese, &s.features} {
		c.State = StateReady
		c.UpdatedAt = now
	}
	s.timer = nil
	log.Println("Model retraining complete")
}

// Close stops a pending retrain.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
