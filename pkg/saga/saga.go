package saga

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the current status of a saga
type Status string

const (
	StatusPending      Status = "pending"
	StatusRunning      Status = "running"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusCompensating Status = "compensating"
	StatusCompensated  Status = "compensated"
)

// StepStatus represents the status of a saga step
type StepStatus string

const (
	StepStatusRunning            StepStatus = "running"
	StepStatusCompleted          StepStatus = "completed"
	StepStatusFailed             StepStatus = "failed"
	StepStatusCompensated        StepStatus = "compensated"
	StepStatusCompensationFailed StepStatus = "compensation_failed"
)

// ExecuteFunc runs a step against the saga state
type ExecuteFunc[S any] func(ctx context.Context, state *S) error

// CompensateFunc undoes a completed step
type CompensateFunc[S any] func(ctx context.Context, state *S) error

// Step is a single step of a saga over state S
type Step[S any] struct {
	Name        string
	Description string
	Execute     ExecuteFunc[S]
	Compensate  CompensateFunc[S]

	// Timeout bounds one attempt; zero means no timeout
	Timeout time.Duration
	Retries int

	// Pivot marks the point of no return: once a pivot step has completed,
	// later failures no longer trigger compensation
	Pivot bool
}

// StepResult records the outcome of executing or compensating a step
type StepResult struct {
	StepName   string        `json:"step_name"`
	Status     StepStatus    `json:"status"`
	Attempts   int           `json:"attempts"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// Definition defines a saga with its ordered steps
type Definition[S any] struct {
	Name        string
	Description string
	Steps       []*Step[S]

	// Timeout bounds the whole saga; zero means no timeout
	Timeout time.Duration
}

// NewDefinition creates a new saga definition
func NewDefinition[S any](name, description string) *Definition[S] {
	return &Definition[S]{
		Name:        name,
		Description: description,
		Steps:       make([]*Step[S], 0),
	}
}

// AddStep adds a step to the saga definition
func (d *Definition[S]) AddStep(step *Step[S]) *Definition[S] {
	d.Steps = append(d.Steps, step)
	return d
}

// WithTimeout sets the overall saga timeout
func (d *Definition[S]) WithTimeout(timeout time.Duration) *Definition[S] {
	d.Timeout = timeout
	return d
}

// Validate checks that step names are unique and every step can execute
func (d *Definition[S]) Validate() error {
	seen := make(map[string]bool, len(d.Steps))
	pivots := 0
	for _, step := range d.Steps {
		if step.Name == "" {
			return fmt.Errorf("saga %s has a step without a name", d.Name)
		}
		if seen[step.Name] {
			return fmt.Errorf("saga %s has duplicate step %s", d.Name, step.Name)
		}
		if step.Execute == nil {
			return fmt.Errorf("saga %s step %s has no execute function", d.Name, step.Name)
		}
		if step.Pivot {
			pivots++
		}
		seen[step.Name] = true
	}
	if pivots > 1 {
		return fmt.Errorf("saga %s has %d pivot steps, at most one is allowed", d.Name, pivots)
	}
	return nil
}

// Instance records the progress of one saga run. The typed state lives with the caller;
// the instance only carries what is needed to inspect the run afterwards.
type Instance struct {
	ID           string            `json:"id"`
	DefinitionID string            `json:"definition_id"`
	Status       Status            `json:"status"`
	StepResults  []*StepResult     `json:"step_results"`
	CurrentStep  int               `json:"current_step"`
	PivotPassed  bool              `json:"pivot_passed"`
	Error        string            `json:"error,omitempty"`
	Labels       map[string]string `json:"labels,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`

	mu sync.RWMutex
}

// NewInstance creates a new saga instance
func NewInstance(definitionID string, labels map[string]string) *Instance {
	now := time.Now()
	if labels == nil {
		labels = make(map[string]string)
	}
	return &Instance{
		ID:           uuid.New().String(),
		DefinitionID: definitionID,
		Status:       StatusPending,
		StepResults:  make([]*StepResult, 0),
		Labels:       labels,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SetStatus updates the saga status
func (i *Instance) SetStatus(status Status) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Status = status
	i.UpdatedAt = time.Now()
}

// GetStatus returns the current saga status
func (i *Instance) GetStatus() Status {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.Status
}

// AddStepResult adds a step result to the saga
func (i *Instance) AddStepResult(result *StepResult) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.StepResults = append(i.StepResults, result)
	i.UpdatedAt = time.Now()
}

// SetLabel attaches a searchable key/value to the instance
func (i *Instance) SetLabel(key, value string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Labels[key] = value
	i.UpdatedAt = time.Now()
}

// SetError sets the saga error
func (i *Instance) SetError(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err != nil {
		i.Error = err.Error()
	}
	i.UpdatedAt = time.Now()
}

func (i *Instance) finish(status Status) {
	i.mu.Lock()
	defer i.mu.Unlock()
	now := time.Now()
	i.Status = status
	i.CompletedAt = &now
	i.UpdatedAt = now
}

// Complete marks the saga as completed
func (i *Instance) Complete() {
	i.finish(StatusCompleted)
}

// Fail marks the saga as failed without compensation
func (i *Instance) Fail(err error) {
	i.SetError(err)
	i.finish(StatusFailed)
}

// ToJSON serializes the saga instance to JSON
func (i *Instance) ToJSON() ([]byte, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return json.Marshal(i)
}

// FromJSON deserializes the saga instance from JSON
func FromJSON(data []byte) (*Instance, error) {
	var instance Instance
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("failed to unmarshal saga instance: %w", err)
	}
	return &instance, nil
}
