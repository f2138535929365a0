package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seafoodpulse/internal/operations"
	"seafoodpulse/pkg/contracts/domain"
	"seafoodpulse/pkg/contracts/events"
)

type event struct {
	eventType, subject, status string
	data                       interface{}
}

type channelHub struct{ events chan event }

func (h channelHub) BroadcastUpdate(eventType, subject, status string, data interface{}) {
	h.events <- event{eventType, subject, status, data}
}

type stubStep struct {
	operations.BaseStep
	run func(ctx context.Context, state *operations.OperationState) error
}

func (s *stubStep) Execute(ctx context.Context, state *operations.OperationState) error {
	return s.run(ctx, state)
}

func newOperationService(t *testing.T, hub Broadcaster, steps ...operations.Step) *OperationService {
	t.Helper()
	reg := operations.NewRegistry()
	for _, s := range steps {
		require.NoError(t, reg.Register(s))
	}
	mgr := operations.NewManager(nil, reg, operations.NewConfig(), quietLogger(), nil)
	return NewOperationService(mgr, hub, quietLogger())
}

func processingStub() *stubStep {
	return &stubStep{
		BaseStep: operations.NewBaseStep(operations.StepIDProcessing, operations.StepNameProcessing, "stub"),
		run: func(_ context.Context, state *operations.OperationState) error {
			state.Step(operations.StepIDProcessing).SetMetadata("records", 12)
			return nil
		},
	}
}

func TestOperationServiceAnnouncesRefresh(t *testing.T) {
	hub := channelHub{events: make(chan event, 4)}
	svc := newOperationService(t, hub, processingStub())

	snap, err := svc.Start(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)

	select {
	case ev := <-hub.events:
		assert.Equal(t, string(events.MessageTypeDataRefreshed), ev.eventType)
		assert.Equal(t, "market_records", ev.subject)
		data := ev.data.(map[string]interface{})
		assert.Equal(t, snap.ID, data["operation_id"])
		assert.Equal(t, 12, data["records"])
	case <-time.After(2 * time.Second):
		t.Fatal("no data:refreshed event")
	}

	got, err := svc.Get(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OperationStatusCompleted, got.Status)
	assert.Len(t, svc.List(context.Background()), 1)
}

func TestOperationServiceNoRefreshOnFailure(t *testing.T) {
	hub := channelHub{events: make(chan event, 4)}
	failing := &stubStep{
		BaseStep: operations.NewBaseStep(operations.StepIDProcessing, operations.StepNameProcessing, "stub"),
		run: func(context.Context, *operations.OperationState) error {
			return errors.New("workbook unreadable")
		},
	}
	svc := newOperationService(t, hub, failing)

	snap, err := svc.Start(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		got, _ := svc.Get(context.Background(), snap.ID)
		return got.Status == domain.OperationStatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case ev := <-hub.events:
		t.Fatalf("unexpected event %s", ev.eventType)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestOperationServiceCancelAndTypes(t *testing.T) {
	release := make(chan struct{})
	blocking := &stubStep{
		BaseStep: operations.NewBaseStep(operations.StepIDScraping, operations.StepNameScraping, "stub"),
		run: func(ctx context.Context, _ *operations.OperationState) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-release:
				return nil
			}
		},
	}
	defer close(release)
	svc := newOperationService(t, nil, blocking)

	types := svc.Types(context.Background())
	require.Len(t, types, 1)
	assert.Equal(t, operations.StepIDScraping, types[0].ID)

	snap, err := svc.Start(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(context.Background(), snap.ID))

	assert.Eventually(t, func() bool {
		got, _ := svc.Get(context.Background(), snap.ID)
		return got.Status == domain.OperationStatusCancelled
	}, 2*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, svc.Cancel(context.Background(), "op-missing"), operations.ErrOperationNotFound)
}
