package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/prohmpiriya/event-inventory/pkg/telemetry"
)

// Logger is the structured logger used by the runner; *zap.SugaredLogger satisfies it
type Logger interface {
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// NoOpLogger is a no-op logger implementation
type NoOpLogger struct{}

func (l *NoOpLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (l *NoOpLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (l *NoOpLogger) Errorw(msg string, keysAndValues ...interface{}) {}

// StepError reports the step that stopped a saga and what happened afterwards
type StepError struct {
	Step string
	Err  error

	// Compensated is true when completed steps were rolled back
	Compensated bool

	// CompensationErrors holds failures of individual compensations; they never replace Err
	CompensationErrors []error
}

func (e *StepError) Error() string {
	if e.Compensated {
		return fmt.Sprintf("saga step %s failed and was compensated: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("saga step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// RunnerConfig holds configuration for the runner
type RunnerConfig struct {
	Store  Store
	Logger Logger
}

// Runner executes a saga definition over typed state
type Runner[S any] struct {
	def    *Definition[S]
	store  Store
	logger Logger
}

// NewRunner creates a runner for def
func NewRunner[S any](def *Definition[S], cfg *RunnerConfig) (*Runner[S], error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &RunnerConfig{}
	}

	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &NoOpLogger{}
	}

	return &Runner[S]{def: def, store: store, logger: logger}, nil
}

// Definition returns the saga definition
func (r *Runner[S]) Definition() *Definition[S] {
	return r.def
}

// Store returns the instance store
func (r *Runner[S]) Store() Store {
	return r.store
}

// Run executes every step in order against state.
// If a step fails before the pivot step has completed, completed steps are compensated in reverse order.
// If it fails after the pivot, nothing is compensated.
// The returned error is a *StepError when a step failed.
func (r *Runner[S]) Run(ctx context.Context, state *S, labels map[string]string) (*Instance, error) {
	instance := NewInstance(r.def.Name, labels)
	r.logger.Infow("Starting saga execution", "saga_id", instance.ID, "definition", r.def.Name)

	if err := r.store.Save(ctx, instance); err != nil {
		r.logger.Warnw("Failed to save saga instance", "saga_id", instance.ID, "error", err)
	}

	sagaCtx := ctx
	if r.def.Timeout > 0 {
		var cancel context.CancelFunc
		sagaCtx, cancel = context.WithTimeout(ctx, r.def.Timeout)
		defer cancel()
	}

	instance.SetStatus(StatusRunning)
	r.update(ctx, instance)

	for i, step := range r.def.Steps {
		instance.CurrentStep = i

		err := sagaCtx.Err()
		if err == nil {
			var result *StepResult
			result, err = r.executeStep(sagaCtx, step, instance, state)
			instance.AddStepResult(result)
			r.update(ctx, instance)
		}

		if err != nil {
			r.logger.Errorw("Step execution failed", "saga_id", instance.ID, "step", step.Name, "error", err)
			instance.SetError(err)
			// compensation runs on the caller's context so a saga timeout does not skip rollback
			return instance, r.handleFailure(ctx, instance, step, err, state)
		}

		if step.Pivot {
			instance.PivotPassed = true
		}
		r.logger.Infow("Step completed successfully", "saga_id", instance.ID, "step", step.Name)
	}

	instance.Complete()
	r.update(ctx, instance)
	r.logger.Infow("Saga completed successfully", "saga_id", instance.ID)
	return instance, nil
}

func (r *Runner[S]) handleFailure(ctx context.Context, instance *Instance, step *Step[S], err error, state *S) error {
	if instance.PivotPassed {
		r.logger.Warnw("Step failed after pivot, skipping compensation", "saga_id", instance.ID, "step", step.Name)
		instance.Fail(err)
		r.update(ctx, instance)
		return &StepError{Step: step.Name, Err: err}
	}

	compErrs := r.compensate(ctx, instance, state)
	return &StepError{Step: step.Name, Err: err, Compensated: true, CompensationErrors: compErrs}
}

func (r *Runner[S]) update(ctx context.Context, instance *Instance) {
	if err := r.store.Update(ctx, instance); err != nil {
		r.logger.Warnw("Failed to update saga instance", "saga_id", instance.ID, "status", instance.GetStatus(), "error", err)
	}
}

// executeStep executes a single step with timeout and retry logic
func (r *Runner[S]) executeStep(ctx context.Context, step *Step[S], instance *Instance, state *S) (*StepResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "saga."+r.def.Name+"."+step.Name)
	defer span.End()
	span.SetAttributes(attribute.String("saga_id", instance.ID))

	result := &StepResult{
		StepName:  step.Name,
		Status:    StepStatusRunning,
		StartedAt: time.Now(),
	}

	var lastError error
	maxAttempts := step.Retries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			r.logger.Infow("Retrying step", "saga_id", instance.ID, "step", step.Name, "attempt", attempt+1)
			select {
			case <-ctx.Done():
				lastError = ctx.Err()
				attempt = maxAttempts
				continue
			case <-time.After(time.Duration(attempt*100) * time.Millisecond):
			}
		}

		result.Attempts++
		lastError = r.attempt(ctx, step, state)
		if lastError == nil {
			result.Status = StepStatusCompleted
			result.FinishedAt = time.Now()
			result.Duration = result.FinishedAt.Sub(result.StartedAt)
			span.SetStatus(codes.Ok, "")
			return result, nil
		}
	}

	result.Status = StepStatusFailed
	result.Error = lastError.Error()
	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)
	span.RecordError(lastError)
	span.SetStatus(codes.Error, lastError.Error())
	return result, lastError
}

func (r *Runner[S]) attempt(ctx context.Context, step *Step[S], state *S) error {
	if step.Timeout <= 0 {
		return step.Execute(ctx, state)
	}
	stepCtx, cancel := context.WithTimeout(ctx, step.Timeout)
	defer cancel()
	return step.Execute(stepCtx, state)
}

// compensate runs compensation for all completed steps in reverse order.
// Failures are logged and collected; they never stop the remaining compensations.
func (r *Runner[S]) compensate(ctx context.Context, instance *Instance, state *S) []error {
	instance.SetStatus(StatusCompensating)
	r.update(ctx, instance)

	r.logger.Infow("Starting saga compensation", "saga_id", instance.ID, "completed_steps", len(instance.StepResults))

	steps := make(map[string]*Step[S], len(r.def.Steps))
	for _, s := range r.def.Steps {
		steps[s.Name] = s
	}

	var errs []error
	for i := len(instance.StepResults) - 1; i >= 0; i-- {
		stepResult := instance.StepResults[i]
		if stepResult.Status != StepStatusCompleted {
			continue
		}

		step := steps[stepResult.StepName]
		if step == nil || step.Compensate == nil {
			continue
		}

		if err := r.compensateStep(ctx, step, instance, state); err != nil {
			stepResult.Status = StepStatusCompensationFailed
			stepResult.Error = err.Error()
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.Name, err))
			r.logger.Errorw("Compensation failed", "saga_id", instance.ID, "step", step.Name, "error", err)
			continue
		}
		stepResult.Status = StepStatusCompensated
		r.logger.Infow("Step compensated", "saga_id", instance.ID, "step", step.Name)
	}

	instance.finish(StatusCompensated)
	r.update(ctx, instance)
	r.logger.Infow("Saga compensation completed", "saga_id", instance.ID, "failures", len(errs))
	return errs
}

// compensateStep executes compensation for a single step; a panic is reported as an error
func (r *Runner[S]) compensateStep(ctx context.Context, step *Step[S], instance *Instance, state *S) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "saga."+r.def.Name+"."+step.Name+".compensate")
	defer span.End()
	span.SetAttributes(attribute.String("saga_id", instance.ID))

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("compensation panicked: %v", p)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if step.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}
	return step.Compensate(ctx, state)
}

// AsStepError extracts a *StepError from err
func AsStepError(err error) (*StepError, bool) {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr, true
	}
	return nil, false
}

// GetInstance retrieves a saga instance by ID
func (r *Runner[S]) GetInstance(ctx context.Context, id string) (*Instance, error) {
	return r.store.Get(ctx, id)
}
