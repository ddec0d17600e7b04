package saga

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type flowState struct {
	Trail []string
}

func step(name string, execute ExecuteFunc[flowState], compensate CompensateFunc[flowState]) *Step[flowState] {
	return &Step[flowState]{Name: name, Execute: execute, Compensate: compensate}
}

func ok(name string) ExecuteFunc[flowState] {
	return func(ctx context.Context, s *flowState) error {
		s.Trail = append(s.Trail, name)
		return nil
	}
}

func undo(name string) CompensateFunc[flowState] {
	return func(ctx context.Context, s *flowState) error {
		s.Trail = append(s.Trail, "undo-"+name)
		return nil
	}
}

func failWith(err error) ExecuteFunc[flowState] {
	return func(ctx context.Context, s *flowState) error { return err }
}

func TestNewDefinition(t *testing.T) {
	def := NewDefinition[flowState]("test-saga", "A test saga")

	if def.Name != "test-saga" {
		t.Errorf("expected name 'test-saga', got '%s'", def.Name)
	}
	if len(def.Steps) != 0 {
		t.Errorf("expected 0 steps, got %d", len(def.Steps))
	}
	if def.Timeout != 0 {
		t.Errorf("expected no default timeout, got %v", def.Timeout)
	}

	def.WithTimeout(10 * time.Minute)
	if def.Timeout != 10*time.Minute {
		t.Errorf("expected timeout of 10 minutes, got %v", def.Timeout)
	}
}

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		steps   []*Step[flowState]
		wantErr bool
	}{
		{"valid", []*Step[flowState]{step("a", ok("a"), nil), step("b", ok("b"), nil)}, false},
		{"duplicate name", []*Step[flowState]{step("a", ok("a"), nil), step("a", ok("a"), nil)}, true},
		{"missing execute", []*Step[flowState]{step("a", nil, nil)}, true},
		{"missing name", []*Step[flowState]{step("", ok("a"), nil)}, true},
		{"two pivots", []*Step[flowState]{
			{Name: "a", Execute: ok("a"), Pivot: true},
			{Name: "b", Execute: ok("b"), Pivot: true},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := NewDefinition[flowState]("test", "")
			for _, s := range tt.steps {
				def.AddStep(s)
			}
			err := def.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInstanceToJSONAndFromJSON(t *testing.T) {
	instance := NewInstance("test-saga", map[string]string{"user_id": "123"})
	instance.SetStatus(StatusRunning)
	instance.SetLabel("booking_id", "b-1")

	jsonData, err := instance.ToJSON()
	if err != nil {
		t.Fatalf("failed to serialize: %v", err)
	}

	restored, err := FromJSON(jsonData)
	if err != nil {
		t.Fatalf("failed to deserialize: %v", err)
	}

	if restored.ID != instance.ID {
		t.Errorf("expected ID '%s', got '%s'", instance.ID, restored.ID)
	}
	if restored.Status != StatusRunning {
		t.Errorf("expected status 'running', got '%s'", restored.Status)
	}
	if restored.Labels["user_id"] != "123" || restored.Labels["booking_id"] != "b-1" {
		t.Errorf("unexpected labels %v", restored.Labels)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	instance := NewInstance("test-saga", nil)
	if err := store.Save(ctx, instance); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if err := store.Save(ctx, instance); !errors.Is(err, ErrSagaAlreadyExists) {
		t.Errorf("expected ErrSagaAlreadyExists, got %v", err)
	}

	if _, err := store.Get(ctx, "nonexistent"); !errors.Is(err, ErrSagaNotFound) {
		t.Errorf("expected ErrSagaNotFound, got %v", err)
	}

	instance.SetStatus(StatusRunning)
	if err := store.Update(ctx, instance); err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	retrieved, err := store.Get(ctx, instance.ID)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if retrieved.Status != StatusRunning {
		t.Errorf("expected status 'running', got '%s'", retrieved.Status)
	}

	// stored copies are independent of the caller's instance
	instance.SetStatus(StatusCompleted)
	retrieved, _ = store.Get(ctx, instance.ID)
	if retrieved.Status != StatusRunning {
		t.Errorf("expected stored status to stay 'running', got '%s'", retrieved.Status)
	}

	if err := store.Update(ctx, NewInstance("test", nil)); !errors.Is(err, ErrSagaNotFound) {
		t.Errorf("expected ErrSagaNotFound, got %v", err)
	}
}

func TestMemoryStoreQueries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	running1 := NewInstance("test-saga", map[string]string{"user_id": "1"})
	running1.Status = StatusRunning
	store.Save(ctx, running1)

	running2 := NewInstance("test-saga", map[string]string{"user_id": "2"})
	running2.Status = StatusRunning
	running2.CreatedAt = running1.CreatedAt.Add(time.Second)
	store.Save(ctx, running2)

	completed := NewInstance("test-saga", map[string]string{"user_id": "1"})
	completed.Status = StatusCompleted
	store.Save(ctx, completed)

	running, err := store.GetByStatus(ctx, StatusRunning, 0)
	if err != nil {
		t.Fatalf("failed to get by status: %v", err)
	}
	if len(running) != 2 {
		t.Fatalf("expected 2 running instances, got %d", len(running))
	}
	if running[0].ID != running1.ID {
		t.Errorf("expected oldest instance first")
	}

	limited, _ := store.GetByStatus(ctx, StatusRunning, 1)
	if len(limited) != 1 {
		t.Errorf("expected 1 instance with limit, got %d", len(limited))
	}

	byUser, err := store.GetByLabel(ctx, "user_id", "1", 0)
	if err != nil {
		t.Fatalf("failed to get by label: %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("expected 2 instances for user 1, got %d", len(byUser))
	}
}

func TestRunnerExecuteSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	def := NewDefinition[flowState]("booking-saga", "Booking saga").
		AddStep(step("reserve", ok("reserve"), undo("reserve"))).
		AddStep(step("pay", ok("pay"), nil)).
		AddStep(step("persist", ok("persist"), nil))

	runner, err := NewRunner(def, &RunnerConfig{Store: store})
	if err != nil {
		t.Fatalf("failed to create runner: %v", err)
	}

	state := &flowState{}
	instance, err := runner.Run(ctx, state, map[string]string{"user_id": "7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if instance.GetStatus() != StatusCompleted {
		t.Errorf("expected status 'completed', got '%s'", instance.GetStatus())
	}
	if instance.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}
	if got := len(instance.StepResults); got != 3 {
		t.Errorf("expected 3 step results, got %d", got)
	}
	want := []string{"reserve", "pay", "persist"}
	if len(state.Trail) != len(want) {
		t.Fatalf("expected trail %v, got %v", want, state.Trail)
	}
	for i := range want {
		if state.Trail[i] != want[i] {
			t.Errorf("trail[%d] = %s, want %s", i, state.Trail[i], want[i])
		}
	}

	stored, err := runner.GetInstance(ctx, instance.ID)
	if err != nil {
		t.Fatalf("failed to load stored instance: %v", err)
	}
	if stored.Status != StatusCompleted || stored.Labels["user_id"] != "7" {
		t.Errorf("unexpected stored instance: %s %v", stored.Status, stored.Labels)
	}
}

func TestRunnerCompensatesInReverseBeforePivot(t *testing.T) {
	ctx := context.Background()
	paymentErr := errors.New("card declined")

	def := NewDefinition[flowState]("booking-saga", "").
		AddStep(step("validate", ok("validate"), nil)).
		AddStep(step("reserve", ok("reserve"), undo("reserve"))).
		AddStep(step("hold", ok("hold"), undo("hold"))).
		AddStep(&Step[flowState]{Name: "pay", Execute: failWith(paymentErr), Compensate: undo("pay"), Pivot: true})

	runner, _ := NewRunner(def, nil)
	state := &flowState{}
	instance, err := runner.Run(ctx, state, nil)

	if !errors.Is(err, paymentErr) {
		t.Fatalf("expected payment error, got %v", err)
	}
	stepErr, isStepErr := AsStepError(err)
	if !isStepErr {
		t.Fatalf("expected *StepError, got %T", err)
	}
	if stepErr.Step != "pay" || !stepErr.Compensated {
		t.Errorf("unexpected step error: %+v", stepErr)
	}
	if instance.GetStatus() != StatusCompensated {
		t.Errorf("expected status 'compensated', got '%s'", instance.GetStatus())
	}

	want := []string{"validate", "reserve", "hold", "undo-hold", "undo-reserve"}
	if len(state.Trail) != len(want) {
		t.Fatalf("expected trail %v, got %v", want, state.Trail)
	}
	for i := range want {
		if state.Trail[i] != want[i] {
			t.Errorf("trail[%d] = %s, want %s", i, state.Trail[i], want[i])
		}
	}
}

func TestRunnerSkipsCompensationAfterPivot(t *testing.T) {
	ctx := context.Background()
	persistErr := errors.New("database unavailable")

	def := NewDefinition[flowState]("booking-saga", "").
		AddStep(step("reserve", ok("reserve"), undo("reserve"))).
		AddStep(&Step[flowState]{Name: "pay", Execute: ok("pay"), Pivot: true}).
		AddStep(step("persist", failWith(persistErr), nil))

	runner, _ := NewRunner(def, nil)
	state := &flowState{}
	instance, err := runner.Run(ctx, state, nil)

	stepErr, isStepErr := AsStepError(err)
	if !isStepErr {
		t.Fatalf("expected *StepError, got %v", err)
	}
	if stepErr.Compensated {
		t.Error("expected no compensation after pivot")
	}
	if instance.GetStatus() != StatusFailed {
		t.Errorf("expected status 'failed', got '%s'", instance.GetStatus())
	}
	if !instance.PivotPassed {
		t.Error("expected PivotPassed to be true")
	}
	for _, entry := range state.Trail {
		if entry == "undo-reserve" {
			t.Error("reserve must not be compensated after the pivot")
		}
	}
}

func TestRunnerCompensationFailureIsCollected(t *testing.T) {
	ctx := context.Background()
	releaseErr := errors.New("release failed")

	def := NewDefinition[flowState]("booking-saga", "").
		AddStep(step("first", ok("first"), undo("first"))).
		AddStep(step("second", ok("second"), func(ctx context.Context, s *flowState) error { return releaseErr })).
		AddStep(step("third", failWith(errors.New("boom")), nil))

	runner, _ := NewRunner(def, nil)
	state := &flowState{}
	instance, err := runner.Run(ctx, state, nil)

	stepErr, _ := AsStepError(err)
	if stepErr == nil || len(stepErr.CompensationErrors) != 1 {
		t.Fatalf("expected one compensation error, got %v", err)
	}
	if !errors.Is(stepErr.CompensationErrors[0], releaseErr) {
		t.Errorf("expected release error, got %v", stepErr.CompensationErrors[0])
	}
	// remaining compensations still run
	if state.Trail[len(state.Trail)-1] != "undo-first" {
		t.Errorf("expected first step to be compensated, trail %v", state.Trail)
	}

	statuses := map[string]StepStatus{}
	for _, r := range instance.StepResults {
		statuses[r.StepName] = r.Status
	}
	if statuses["second"] != StepStatusCompensationFailed {
		t.Errorf("expected second step compensation_failed, got %s", statuses["second"])
	}
	if statuses["first"] != StepStatusCompensated {
		t.Errorf("expected first step compensated, got %s", statuses["first"])
	}
}

func TestRunnerRetries(t *testing.T) {
	ctx := context.Background()
	var attempts int32

	def := NewDefinition[flowState]("retry-saga", "").
		AddStep(&Step[flowState]{
			Name:    "flaky",
			Retries: 2,
			Execute: func(ctx context.Context, s *flowState) error {
				if atomic.AddInt32(&attempts, 1) < 3 {
					return errors.New("temporary")
				}
				return nil
			},
		})

	runner, _ := NewRunner(def, nil)
	instance, err := runner.Run(ctx, &flowState{}, nil)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if instance.StepResults[0].Attempts != 3 {
		t.Errorf("expected step result to record 3 attempts, got %d", instance.StepResults[0].Attempts)
	}
}

func TestRunnerStepTimeout(t *testing.T) {
	ctx := context.Background()

	def := NewDefinition[flowState]("timeout-saga", "").
		AddStep(step("reserve", ok("reserve"), undo("reserve"))).
		AddStep(&Step[flowState]{
			Name:    "slow",
			Timeout: 20 * time.Millisecond,
			Execute: func(ctx context.Context, s *flowState) error {
				<-ctx.Done()
				return ctx.Err()
			},
		})

	runner, _ := NewRunner(def, nil)
	state := &flowState{}
	_, err := runner.Run(ctx, state, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if state.Trail[len(state.Trail)-1] != "undo-reserve" {
		t.Errorf("expected reserve to be compensated, trail %v", state.Trail)
	}
}

func TestRunnerCompensationPanicIsReported(t *testing.T) {
	ctx := context.Background()

	def := NewDefinition[flowState]("panic-saga", "").
		AddStep(step("reserve", ok("reserve"), func(ctx context.Context, s *flowState) error { panic("bad state") })).
		AddStep(step("pay", failWith(errors.New("declined")), nil))

	runner, _ := NewRunner(def, nil)
	_, err := runner.Run(ctx, &flowState{}, nil)

	stepErr, _ := AsStepError(err)
	if stepErr == nil || len(stepErr.CompensationErrors) != 1 {
		t.Fatalf("expected panic to be reported as compensation error, got %v", err)
	}
}

func TestNewRunnerRejectsInvalidDefinition(t *testing.T) {
	def := NewDefinition[flowState]("bad", "").AddStep(step("a", nil, nil))
	if _, err := NewRunner(def, nil); err == nil {
		t.Error("expected error for invalid definition")
	}
}

func TestMemoryStore_CapEvictsOldestFinished(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithMaxInstances(2))

	running := NewInstance("test-saga", nil)
	running.Status = StatusRunning
	if err := store.Save(ctx, running); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	base := time.Now().Add(-time.Hour)
	var finished []*Instance
	for i := 0; i < 3; i++ {
		instance := NewInstance("test-saga", nil)
		instance.Complete()
		at := base.Add(time.Duration(i) * time.Minute)
		instance.CompletedAt = &at
		finished = append(finished, instance)
		if err := store.Save(ctx, instance); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
	}

	if store.Count() != 2 {
		t.Fatalf("expected 2 instances, got %d", store.Count())
	}
	if _, err := store.Get(ctx, running.ID); err != nil {
		t.Errorf("running instance must survive eviction: %v", err)
	}
	if _, err := store.Get(ctx, finished[2].ID); err != nil {
		t.Errorf("newest finished instance must survive eviction: %v", err)
	}
	for _, old := range finished[:2] {
		if _, err := store.Get(ctx, old.ID); !errors.Is(err, ErrSagaNotFound) {
			t.Errorf("expected %s to be evicted, got %v", old.ID, err)
		}
	}
}

func TestMemoryStore_CapNeverDropsRunning(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithMaxInstances(1))

	first := NewInstance("test-saga", nil)
	second := NewInstance("test-saga", nil)
	store.Save(ctx, first)
	store.Save(ctx, second)

	if store.Count() != 2 {
		t.Fatalf("expected both unfinished instances to be kept, got %d", store.Count())
	}

	first.Complete()
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("failed to update: %v", err)
	}
	if store.Count() != 1 {
		t.Fatalf("expected finished instance to be evicted on update, got %d", store.Count())
	}
	if _, err := store.Get(ctx, second.ID); err != nil {
		t.Errorf("unfinished instance was evicted: %v", err)
	}
}

func TestMemoryStore_RetentionDropsExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(WithRetention(time.Minute))

	expired := NewInstance("test-saga", nil)
	expired.Complete()
	past := time.Now().Add(-time.Hour)
	expired.CompletedAt = &past
	store.Save(ctx, expired)

	fresh := NewInstance("test-saga", nil)
	fresh.Complete()
	store.Save(ctx, fresh)

	if _, err := store.Get(ctx, expired.ID); !errors.Is(err, ErrSagaNotFound) {
		t.Errorf("expected expired instance to be dropped, got %v", err)
	}
	if _, err := store.Get(ctx, fresh.ID); err != nil {
		t.Errorf("fresh instance was dropped: %v", err)
	}
}
