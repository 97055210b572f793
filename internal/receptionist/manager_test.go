package receptionist

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/geecurly-receptionist/internal/kvstore"
	"github.com/wolfman30/geecurly-receptionist/internal/observability/metrics"
	"github.com/wolfman30/geecurly-receptionist/internal/transcript"
)

func newTestManager(t *testing.T, cfg ManagerConfig) (*Manager, *kvstore.Memory) {
	t.Helper()
	f, _, _ := newTestFlow(t)
	kv := kvstore.NewMemory()
	m := NewManager(f, kv, transcript.NewMemoryStore(), cfg, nil, metrics.NewChatMetrics(prometheus.NewRegistry()))
	return m, kv
}

func TestManagerCreateAndGet(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{DefaultLocation: "roysambu"})

	s := m.Create("  Kiambu ")
	assert.Equal(t, "kiambu", s.State().Home)

	fallback := m.Create("westlands")
	assert.Equal(t, "roysambu", fallback.State().Home)

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 2, m.Len())

	m.Remove(s.ID())
	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerUnknownDefaultFallsBackToFirstBranch(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{DefaultLocation: "mombasa"})
	assert.Equal(t, "kiambu", m.Create("").State().Home)
}

func TestManagerResetRemovesSessionMemory(t *testing.T) {
	m, kv := newTestManager(t, ManagerConfig{})
	ctx := context.Background()
	s := m.Create("kiambu")
	key := "session:" + s.ID() + ":" + MemoryKey

	_, err := s.Start(ctx)
	require.NoError(t, err)
	_, err = s.Send(ctx, "book")
	require.NoError(t, err)
	_, err = kv.Get(ctx, key)
	require.NoError(t, err)

	_, err = s.Reset(ctx)
	require.NoError(t, err)
	_, err = kv.Get(ctx, key)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestManagerSessionsDoNotShareMemory(t *testing.T) {
	m, kv := newTestManager(t, ManagerConfig{})
	ctx := context.Background()
	a, b := m.Create("kiambu"), m.Create("kiambu")

	_, err := a.Send(ctx, "book")
	require.NoError(t, err)

	_, err = kv.Get(ctx, "session:"+b.ID()+":"+MemoryKey)
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
	assert.Equal(t, StepGreeting, b.State().Step)
}

func TestManagerSweepEvictsIdleSessions(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{IdleTTL: time.Minute})
	idle := m.Create("kiambu")
	m.Create("roysambu")

	assert.Zero(t, m.Sweep(time.Now()))
	assert.Equal(t, 2, m.Sweep(time.Now().Add(2*time.Minute)))
	_, err := m.Get(idle.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, m.Len())
}

func TestManagerJanitorStopsWithContext(t *testing.T) {
	m, _ := newTestManager(t, ManagerConfig{IdleTTL: time.Nanosecond})
	m.Create("kiambu")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartJanitor(ctx, 10*time.Millisecond)

	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 10*time.Millisecond)
}
