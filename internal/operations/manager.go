package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"seafoodpulse/internal/infrastructure"
	"seafoodpulse/pkg/contracts/domain"

	"github.com/google/uuid"
)

// Manager runs operations over the registered steps and keeps their state
// for the API.
type Manager struct {
	registry    *Registry
	config      *Config
	broadcaster *StatusBroadcaster
	tracer      *operationTracer
	metrics     *infrastructure.BusinessMetrics
	logger      *slog.Logger

	mu         sync.RWMutex
	operations map[string]*run
	finished   []string
}

type run struct {
	state  *OperationState
	mode   string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// NewManager creates a manager. hub and metrics may be nil.
func NewManager(hub WebSocketHub, registry *Registry, config *Config, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "operations")

	return &Manager{
		registry:    registry,
		config:      config,
		broadcaster: NewStatusBroadcaster(hub, logger),
		tracer:      newOperationTracer(metrics),
		metrics:     metrics,
		logger:      logger,
		operations:  make(map[string]*run),
	}
}

// Registry returns the step registry
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Config returns the manager configuration
func (m *Manager) Config() *Config {
	return m.config
}

// Execute runs an operation to completion and returns its final snapshot
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (domain.OperationSnapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r, steps, err := m.prepare(req, cancel)
	if err != nil {
		return domain.OperationSnapshot{}, err
	}
	m.run(ctx, r, steps)
	return r.state.Snapshot(), r.err
}

// Start launches an operation in the background and returns its ID. The
// operation outlives ctx; use Cancel to stop it.
func (m *Manager) Start(ctx context.Context, req OperationRequest) (string, error) {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	r, steps, err := m.prepare(req, cancel)
	if err != nil {
		cancel()
		return "", err
	}
	go func() {
		defer cancel()
		m.run(runCtx, r, steps)
	}()
	return r.state.ID, nil
}

// Wait blocks until the operation finishes or ctx is done
func (m *Manager) Wait(ctx context.Context, id string) (domain.OperationSnapshot, error) {
	r, err := m.lookup(id)
	if err != nil {
		return domain.OperationSnapshot{}, err
	}
	select {
	case <-r.done:
		return r.state.Snapshot(), r.err
	case <-ctx.Done():
		return r.state.Snapshot(), ctx.Err()
	}
}

// Get returns the snapshot of an operation
func (m *Manager) Get(id string) (domain.OperationSnapshot, error) {
	r, err := m.lookup(id)
	if err != nil {
		return domain.OperationSnapshot{}, err
	}
	return r.state.Snapshot(), nil
}

// List returns running and recently finished operations, newest first
func (m *Manager) List() []domain.OperationSnapshot {
	m.mu.RLock()
	snaps := make([]domain.OperationSnapshot, 0, len(m.operations))
	for _, r := range m.operations {
		snaps = append(snaps, r.state.Snapshot())
	}
	m.mu.RUnlock()

	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].StartedAt.Equal(snaps[j].StartedAt) {
			return snaps[i].ID < snaps[j].ID
		}
		return snaps[i].StartedAt.After(snaps[j].StartedAt)
	})
	return snaps
}

// Cancel stops a running operation
func (m *Manager) Cancel(id string) error {
	r, err := m.lookup(id)
	if err != nil {
		return err
	}
	if r.state.CurrentStatus().IsTerminal() {
		return ErrOperationFinished
	}
	m.logger.Info("operation cancel requested", slog.String("operation_id", id))
	infrastructure.RecordOperationCancellation(context.Background(), m.metrics, r.mode, "user_request")
	r.cancel()
	return nil
}

func (m *Manager) lookup(id string) (*run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.operations[id]
	if !ok {
		return nil, ErrOperationNotFound
	}
	return r, nil
}

// prepare resolves the steps and registers the operation
func (m *Manager) prepare(req OperationRequest, cancel context.CancelFunc) (*run, []Step, error) {
	steps, err := m.resolveSteps(req)
	if err != nil {
		return nil, nil, err
	}

	if req.ID == "" {
		req.ID = "op-" + uuid.NewString()
	}
	mode := req.Mode
	if mode == "" {
		mode = "full"
		if req.Step() != "" {
			mode = "partial"
		}
	}

	state := NewOperationState(req.ID)
	for k, v := range req.Parameters {
		state.Parameters[k] = v
	}
	for _, s := range steps {
		state.AddStep(NewStepState(s.ID(), s.Name()))
	}

	r := &run{state: state, mode: mode, cancel: cancel, done: make(chan struct{})}
	state.setNotify(func() { m.broadcaster.Publish(state) })

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.operations[req.ID]; exists {
		return nil, nil, ErrOperationExists
	}
	m.operations[req.ID] = r
	return r, steps, nil
}

func (m *Manager) resolveSteps(req OperationRequest) ([]Step, error) {
	if id := req.Step(); id != "" {
		step, err := m.registry.Get(id)
		if err != nil {
			return nil, &OperationError{Type: ErrorTypeNotFound, Step: id, Message: ErrStepNotFound.Message}
		}
		return []Step{step}, nil
	}
	steps := m.registry.List()
	if len(steps) == 0 {
		return nil, fmt.Errorf("no steps registered")
	}
	return steps, nil
}

func (m *Manager) run(ctx context.Context, r *run, steps []Step) {
	state := r.state
	defer func() {
		close(r.done)
		m.retire(state.ID)
	}()

	ctx, span := m.tracer.startOperation(ctx, state.ID, r.mode, len(steps))
	logger := m.logger.With(slog.String("operation_id", state.ID))

	state.Start()
	m.broadcaster.Publish(state)
	logger.InfoContext(ctx, "operation started",
		slog.String("mode", r.mode),
		slog.Int("steps", len(steps)))

	start := time.Now()
	err := m.executeSequential(ctx, state, steps, logger)

	switch {
	case ctx.Err() != nil:
		if GetErrorType(err) != ErrorTypeCancellation {
			err = NewCancellationError("")
		}
		state.Cancel()
		logger.WarnContext(ctx, "operation cancelled")
	case err != nil:
		state.Fail(err)
		logger.ErrorContext(ctx, "operation failed", slog.String("error", err.Error()))
	default:
		state.Complete()
		logger.InfoContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))
	}
	r.err = err

	m.tracer.endOperation(ctx, span, state.ID, r.mode, time.Since(start), err)
	m.broadcaster.Publish(state)
}

// executeSequential runs the steps in order. After a failure the remaining
// steps are skipped unless ContinueOnError is set. The first failure is
// returned.
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step, logger *slog.Logger) error {
	var firstErr error
	var failedStep string

	for _, step := range steps {
		st := state.Step(step.ID())

		if ctx.Err() != nil {
			st.Skip("operation cancelled")
			continue
		}
		if firstErr != nil && !m.config.ContinueOnError {
			st.Skip(fmt.Sprintf("previous step %s failed", failedStep))
			m.broadcaster.Publish(state)
			continue
		}
		if dep := unmetDependency(state, step); dep != "" {
			st.Skip(NewDependencyError(step.ID(), dep).Message)
			m.broadcaster.Publish(state)
			logger.WarnContext(ctx, "step skipped", slog.String("step", step.ID()), slog.String("dependency", dep))
			continue
		}
		if err := step.Validate(state); err != nil {
			st.Skip(err.Error())
			m.broadcaster.Publish(state)
			logger.InfoContext(ctx, "step skipped", slog.String("step", step.ID()), slog.String("reason", err.Error()))
			continue
		}

		if err := m.executeStep(ctx, state, step, logger); err != nil {
			if firstErr == nil {
				firstErr = err
				failedStep = step.ID()
			}
		}
	}
	return firstErr
}

// unmetDependency returns the first dependency that is part of this run and
// did not complete. Dependencies outside the run are assumed satisfied by
// earlier runs.
func unmetDependency(state *OperationState, step Step) string {
	for _, dep := range step.Dependencies() {
		ds := state.Step(dep)
		if ds != nil && ds.CurrentStatus() != domain.StepStatusCompleted {
			return dep
		}
	}
	return ""
}

// executeStep runs one step with its timeout, retrying retryable errors
func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step, logger *slog.Logger) error {
	st := state.Step(step.ID())
	timeout := m.config.StepTimeout(step.ID())
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	state.SetCurrentStep(step.ID())
	logger = logger.With(slog.String("step", step.ID()))
	maxAttempts := m.config.RetryConfig.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		st.Start()
		m.broadcaster.Publish(state)
		logger.InfoContext(ctx, "step started", slog.Int("attempt", attempt))

		spanCtx, span := m.tracer.startStep(stepCtx, state.ID, step.ID(), attempt)
		began := time.Now()
		err := step.Execute(spanCtx, state)
		duration := time.Since(began)
		m.tracer.endStep(spanCtx, span, step.ID(), duration, err)

		if err == nil {
			st.Complete("")
			m.broadcaster.Publish(state)
			logger.InfoContext(ctx, "step completed", slog.Duration("duration", duration))
			return nil
		}

		switch {
		case ctx.Err() != nil:
			cerr := NewCancellationError(step.ID())
			st.Fail(cerr)
			m.broadcaster.Publish(state)
			return cerr
		case errors.Is(stepCtx.Err(), context.DeadlineExceeded):
			terr := NewTimeoutError(step.ID(), timeout.String())
			terr.Cause = err
			st.Fail(terr)
			m.broadcaster.Publish(state)
			logger.ErrorContext(ctx, "step timed out", slog.Duration("timeout", timeout))
			return terr
		}

		if !IsRetryable(err) || attempt >= maxAttempts {
			st.Fail(err)
			m.broadcaster.Publish(state)
			logger.ErrorContext(ctx, "step failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			var opErr *OperationError
			if errors.As(err, &opErr) {
				return err
			}
			return NewExecutionError(step.ID(), err, false)
		}

		delay := m.config.RetryDelay(attempt)
		logger.WarnContext(ctx, "step retry",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))
		st.UpdateProgress(0, fmt.Sprintf("retrying after error: %v", err))
		m.broadcaster.Publish(state)

		select {
		case <-time.After(delay):
		case <-stepCtx.Done():
			var derr error = NewCancellationError(step.ID())
			if ctx.Err() == nil {
				derr = NewTimeoutError(step.ID(), timeout.String())
			}
			st.Fail(derr)
			m.broadcaster.Publish(state)
			return derr
		}
	}
}

// retire moves a finished operation into history, trimming the oldest
func (m *Manager) retire(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = append(m.finished, id)
	limit := m.config.HistoryLimit
	if limit <= 0 {
		return
	}
	for len(m.finished) > limit {
		delete(m.operations, m.finished[0])
		m.finished = m.finished[1:]
	}
}
