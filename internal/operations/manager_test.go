package operations

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "seafoodpulse/internal/errors"
	"seafoodpulse/pkg/contracts/domain"
)

type fakeStep struct {
	BaseStep
	run      func(ctx context.Context, state *OperationState) error
	validate func(state *OperationState) error
	calls    atomic.Int32
}

func newFakeStep(id string, run func(ctx context.Context, state *OperationState) error, deps ...string) *fakeStep {
	return &fakeStep{BaseStep: NewBaseStep(id, id, "test step "+id, deps...), run: run}
}

func (s *fakeStep) Execute(ctx context.Context, state *OperationState) error {
	s.calls.Add(1)
	if s.run == nil {
		return nil
	}
	return s.run(ctx, state)
}

func (s *fakeStep) Validate(state *OperationState) error {
	if s.validate == nil {
		return nil
	}
	return s.validate(state)
}

type recordingHub struct {
	mu    sync.Mutex
	snaps []domain.OperationSnapshot
}

func (h *recordingHub) BroadcastUpdate(eventType, step, status string, metadata interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if snap, ok := metadata.(domain.OperationSnapshot); ok && eventType == EventTypeSnapshot {
		h.snaps = append(h.snaps, snap)
	}
}

func (h *recordingHub) last() domain.OperationSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snaps[len(h.snaps)-1]
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastConfig() *Config {
	cfg := NewConfig()
	cfg.RetryConfig.InitialDelay = time.Millisecond
	cfg.RetryConfig.MaxDelay = 5 * time.Millisecond
	return cfg
}

func newTestManager(t *testing.T, cfg *Config, steps ...Step) (*Manager, *recordingHub) {
	t.Helper()
	reg := NewRegistry()
	for _, s := range steps {
		require.NoError(t, reg.Register(s))
	}
	hub := &recordingHub{}
	return NewManager(hub, reg, cfg, quietLogger(), nil), hub
}

func stepStatuses(snap domain.OperationSnapshot) map[string]domain.StepStatus {
	out := make(map[string]domain.StepStatus, len(snap.Steps))
	for _, s := range snap.Steps {
		out[s.ID] = s.Status
	}
	return out
}

func TestExecuteRunsStepsInOrder(t *testing.T) {
	var order []string
	record := func(id string) func(context.Context, *OperationState) error {
		return func(_ context.Context, state *OperationState) error {
			order = append(order, id)
			state.SetContext(id, true)
			return nil
		}
	}
	a := newFakeStep("a", record("a"))
	b := newFakeStep("b", func(ctx context.Context, state *OperationState) error {
		_, ok := state.GetContext("a")
		assert.True(t, ok, "context from earlier step is visible")
		return record("b")(ctx, state)
	}, "a")

	m, hub := newTestManager(t, fastConfig(), a, b)
	snap, err := m.Execute(context.Background(), OperationRequest{ID: "op-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, domain.OperationStatusCompleted, snap.Status)
	assert.Equal(t, 100, snap.Progress)
	assert.NotNil(t, snap.CompletedAt)
	require.Len(t, snap.Steps, 2)
	assert.Equal(t, "a", snap.Steps[0].ID)
	assert.Equal(t, domain.StepStatusCompleted, snap.Steps[1].Status)

	assert.Equal(t, domain.OperationStatusCompleted, hub.last().Status)
}

func TestExecuteRetriesRetryableErrors(t *testing.T) {
	var attempts int
	flaky := newFakeStep("flaky", func(context.Context, *OperationState) error {
		attempts++
		if attempts < 3 {
			return apperrors.NewNetworkError("connection reset", nil)
		}
		return nil
	})

	m, _ := newTestManager(t, fastConfig(), flaky)
	snap, err := m.Execute(context.Background(), OperationRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, snap.Steps[0].Attempts)
	assert.Contains(t, snap.ID, "op-")
}

func TestExecuteGivesUpAfterMaxAttempts(t *testing.T) {
	failing := newFakeStep("net", func(context.Context, *OperationState) error {
		return apperrors.NewNetworkError("unreachable", nil)
	})

	m, _ := newTestManager(t, fastConfig(), failing)
	snap, err := m.Execute(context.Background(), OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, int32(3), failing.calls.Load())
	assert.Equal(t, domain.OperationStatusFailed, snap.Status)
	assert.Equal(t, domain.StepStatusFailed, snap.Steps[0].Status)
	assert.NotEmpty(t, snap.Error)
}

func TestExecuteDoesNotRetryPermanentErrors(t *testing.T) {
	failing := newFakeStep("parse", func(context.Context, *OperationState) error {
		return apperrors.NewParsingError("bad workbook", nil)
	})

	m, _ := newTestManager(t, fastConfig(), failing)
	_, err := m.Execute(context.Background(), OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, int32(1), failing.calls.Load())
	assert.Equal(t, ErrorTypeExecution, GetErrorType(err))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestExecuteSkipsLaterStepsAfterFailure(t *testing.T) {
	boom := errors.New("boom")
	a := newFakeStep("a", func(context.Context, *OperationState) error { return boom })
	b := newFakeStep("b", nil)
	c := newFakeStep("c", nil)

	m, _ := newTestManager(t, fastConfig(), a, b, c)
	snap, err := m.Execute(context.Background(), OperationRequest{})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, map[string]domain.StepStatus{
		"a": domain.StepStatusFailed,
		"b": domain.StepStatusSkipped,
		"c": domain.StepStatusSkipped,
	}, stepStatuses(snap))
	assert.Zero(t, b.calls.Load())
	assert.Contains(t, snap.Steps[1].Message, "previous step a failed")
}

func TestExecuteContinueOnError(t *testing.T) {
	a := newFakeStep("a", func(context.Context, *OperationState) error { return errors.New("boom") })
	b := newFakeStep("b", nil, "a")
	c := newFakeStep("c", nil)

	cfg := fastConfig()
	cfg.ContinueOnError = true
	m, _ := newTestManager(t, cfg, a, b, c)

	snap, err := m.Execute(context.Background(), OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, map[string]domain.StepStatus{
		"a": domain.StepStatusFailed,
		"b": domain.StepStatusSkipped,
		"c": domain.StepStatusCompleted,
	}, stepStatuses(snap))
	assert.Equal(t, domain.OperationStatusFailed, snap.Status)
}

func TestExecuteValidationSkipsStep(t *testing.T) {
	a := newFakeStep("a", nil)
	a.validate = func(*OperationState) error { return errors.New("no input") }
	b := newFakeStep("b", nil)

	m, _ := newTestManager(t, fastConfig(), a, b)
	snap, err := m.Execute(context.Background(), OperationRequest{})
	require.NoError(t, err)

	assert.Equal(t, domain.StepStatusSkipped, snap.Steps[0].Status)
	assert.Equal(t, "no input", snap.Steps[0].Message)
	assert.Equal(t, domain.StepStatusCompleted, snap.Steps[1].Status)
	assert.Zero(t, a.calls.Load())
}

func TestExecuteSingleStep(t *testing.T) {
	a := newFakeStep("a", nil)
	b := newFakeStep("b", nil, "a")

	m, _ := newTestManager(t, fastConfig(), a, b)
	snap, err := m.Execute(context.Background(), OperationRequest{
		Parameters: map[string]any{ParamStep: "b"},
	})
	require.NoError(t, err)

	require.Len(t, snap.Steps, 1)
	assert.Equal(t, "b", snap.Steps[0].ID)
	assert.Zero(t, a.calls.Load())
	assert.Equal(t, int32(1), b.calls.Load())

	_, err = m.Execute(context.Background(), OperationRequest{
		Parameters: map[string]any{ParamStep: "missing"},
	})
	assert.Equal(t, ErrorTypeNotFound, GetErrorType(err))

	snap, err = m.Execute(context.Background(), OperationRequest{
		Parameters: map[string]any{ParamStep: FullPipeline},
	})
	require.NoError(t, err)
	assert.Len(t, snap.Steps, 2)
}

func TestExecuteStepTimeout(t *testing.T) {
	slow := newFakeStep("slow", func(ctx context.Context, _ *OperationState) error {
		<-ctx.Done()
		return ctx.Err()
	})

	cfg := fastConfig()
	cfg.SetStepTimeout("slow", 20*time.Millisecond)
	m, _ := newTestManager(t, cfg, slow)

	snap, err := m.Execute(context.Background(), OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, ErrorTypeTimeout, GetErrorType(err))
	assert.Equal(t, domain.OperationStatusFailed, snap.Status)
	assert.Equal(t, int32(1), slow.calls.Load())
}

func TestStartAndCancel(t *testing.T) {
	started := make(chan struct{})
	blocking := newFakeStep("blocking", func(ctx context.Context, _ *OperationState) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	after := newFakeStep("after", nil)

	m, _ := newTestManager(t, fastConfig(), blocking, after)
	id, err := m.Start(context.Background(), OperationRequest{ID: "op-cancel"})
	require.NoError(t, err)
	assert.Equal(t, "op-cancel", id)

	<-started
	snap, err := m.Get(id)
	require.NoError(t, err)
	assert.Equal(t, domain.OperationStatusRunning, snap.Status)
	assert.Equal(t, "blocking", snap.CurrentStep)

	require.NoError(t, m.Cancel(id))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err = m.Wait(ctx, id)
	assert.Equal(t, ErrorTypeCancellation, GetErrorType(err))
	assert.Equal(t, domain.OperationStatusCancelled, snap.Status)
	assert.Equal(t, domain.StepStatusSkipped, stepStatuses(snap)["after"])

	assert.ErrorIs(t, m.Cancel(id), ErrOperationFinished)
}

func TestStartRejectsDuplicateID(t *testing.T) {
	release := make(chan struct{})
	step := newFakeStep("wait", func(context.Context, *OperationState) error {
		<-release
		return nil
	})
	m, _ := newTestManager(t, fastConfig(), step)

	_, err := m.Start(context.Background(), OperationRequest{ID: "dup"})
	require.NoError(t, err)
	_, err = m.Start(context.Background(), OperationRequest{ID: "dup"})
	assert.ErrorIs(t, err, ErrOperationExists)
	close(release)

	_, err = m.Wait(context.Background(), "dup")
	assert.NoError(t, err)
}

func TestGetAndListOperations(t *testing.T) {
	m, _ := newTestManager(t, fastConfig(), newFakeStep("a", nil))

	_, err := m.Get("nope")
	assert.ErrorIs(t, err, ErrOperationNotFound)
	assert.ErrorIs(t, m.Cancel("nope"), ErrOperationNotFound)

	_, err = m.Execute(context.Background(), OperationRequest{ID: "first"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = m.Execute(context.Background(), OperationRequest{ID: "second"})
	require.NoError(t, err)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].ID)
	assert.Equal(t, "first", list[1].ID)
}

func TestHistoryLimit(t *testing.T) {
	cfg := fastConfig()
	cfg.HistoryLimit = 2
	m, _ := newTestManager(t, cfg, newFakeStep("a", nil))

	for _, id := range []string{"one", "two", "three"} {
		_, err := m.Execute(context.Background(), OperationRequest{ID: id})
		require.NoError(t, err)
	}

	_, err := m.Get("one")
	assert.ErrorIs(t, err, ErrOperationNotFound)
	assert.Len(t, m.List(), 2)
}

func TestProgressIsBroadcast(t *testing.T) {
	step := newFakeStep("a", func(_ context.Context, state *OperationState) error {
		state.ReportProgress("a", 40, "halfway there")
		return nil
	})
	m, hub := newTestManager(t, fastConfig(), step)

	_, err := m.Execute(context.Background(), OperationRequest{})
	require.NoError(t, err)

	hub.mu.Lock()
	defer hub.mu.Unlock()
	var seen bool
	for _, s := range hub.snaps {
		if s.Steps[0].Progress == 40 && s.Steps[0].Message == "halfway there" {
			seen = true
			assert.Equal(t, domain.OperationStatusRunning, s.Status)
			assert.Equal(t, 40, s.Progress)
		}
	}
	assert.True(t, seen)
}

func TestManagerWithoutHub(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newFakeStep("a", nil)))
	m := NewManager(nil, reg, nil, nil, nil)

	snap, err := m.Execute(context.Background(), OperationRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.OperationStatusCompleted, snap.Status)
}
