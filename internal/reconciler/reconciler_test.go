package reconciler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hack4change/moncton/internal/reconciler"
	"github.com/hack4change/moncton/internal/syncrelay"
)

type mockSyncer struct {
	mu     sync.Mutex
	calls  int
	err    error
	called chan struct{}
}

func newMockSyncer(err error) *mockSyncer {
	return &mockSyncer{err: err, called: make(chan struct{}, 10)}
}

func (m *mockSyncer) FullSync(context.Context) (*syncrelay.FullSyncResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	m.called <- struct{}{}
	if m.err != nil {
		return nil, m.err
	}
	return &syncrelay.FullSyncResult{Profiles: &syncrelay.Tally{Success: 2}}, nil
}

func (m *mockSyncer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func waitCalled(t *testing.T, m *mockSyncer) {
	t.Helper()
	select {
	case <-m.called:
	case <-time.After(2 * time.Second):
		t.Fatal("full sync was not run")
	}
}

func TestReconcile_RunsOnEveryTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	syncer := newMockSyncer(nil)
	r := reconciler.New(syncer, time.Minute, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, 0, syncer.count())

	clock.Advance(time.Minute)
	waitCalled(t, syncer)

	clock.Advance(time.Minute)
	waitCalled(t, syncer)

	assert.Equal(t, 2, syncer.count())
}

func TestReconcile_KeepsRunningAfterFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	syncer := newMockSyncer(errors.New("notion unavailable"))
	r := reconciler.New(syncer, time.Minute, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	waitCalled(t, syncer)
	clock.Advance(time.Minute)
	waitCalled(t, syncer)

	assert.Equal(t, 2, syncer.count())
}

func TestReconcile_GracefulShutdown(t *testing.T) {
	r := reconciler.New(newMockSyncer(nil), time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		r.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reconciler did not shut down within 2 seconds after context cancellation")
	}
}
