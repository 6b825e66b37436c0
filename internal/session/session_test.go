package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psidex/malsim/internal/graphs"
	"github.com/psidex/malsim/internal/lib"
	"github.com/psidex/malsim/internal/metrics"
	"github.com/psidex/malsim/internal/sim"
)

// recorder is a WebsocketGraphProvider that keeps everything it is told.
type recorder struct {
	mu     sync.Mutex
	frames []graphs.Frame
	states []string
}

var _ graphs.WebsocketGraphProvider = (*recorder)(nil)

func (r *recorder) Observe(f graphs.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *recorder) NotifyState(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *recorder) NotifyExport(string) {}
func (r *recorder) NotifyError(string)  {}

func (r *recorder) snapshot() ([]graphs.Frame, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]graphs.Frame(nil), r.frames...), append([]string(nil), r.states...)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 1234
	cfg.TickInterval = lib.DurationFrom(10 * time.Millisecond)
	return cfg
}

// connectedSeed finds a seed whose generated graph is connected, so that certain
// infection is guaranteed to saturate it.
func connectedSeed(t *testing.T, size int, strain sim.Strain) uint64 {
	t.Helper()
	for seed := uint64(1); seed < 500; seed++ {
		g := sim.Generate(size, strain, sim.NewSource(seed))
		if _, connected := g.Diameter(); connected {
			return seed
		}
	}
	t.Fatal("no connected graph found")
	return 0
}

func TestNewPublishesResetFrame(t *testing.T) {
	rec := &recorder{}
	s := New(testConfig(), WithProviders(rec))

	frames, _ := rec.snapshot()
	require.Len(t, frames, 1)
	f := frames[0]
	assert.True(t, f.Reset)
	assert.Equal(t, s.ID(), f.SessionID)
	assert.Equal(t, 0, f.Step)
	assert.Equal(t, 1, f.Infected())
	assert.Len(t, f.Graph.Nodes, 20)
	assert.Equal(t, "idle", f.State)
	assert.Equal(t, sim.TimeSeries{{Step: 0, Infected: 1}}, f.Series)
}

func TestTickAppendsSamples(t *testing.T) {
	rec := &recorder{}
	s := New(testConfig(), WithProviders(rec))

	for i := 1; i <= 5; i++ {
		_, err := s.Tick()
		require.NoError(t, err)
	}

	snap := s.Snapshot()
	assert.Equal(t, 5, snap.Step)
	require.Len(t, snap.Series, 6)
	for i, sample := range snap.Series {
		assert.Equal(t, i, sample.Step)
		if i > 0 {
			assert.GreaterOrEqual(t, sample.Infected, snap.Series[i-1].Infected)
		}
	}

	frames, _ := rec.snapshot()
	require.Len(t, frames, 6)
	last := frames[5]
	assert.False(t, last.Reset)
	assert.Equal(t, 5, last.Step)
	for _, id := range last.NewlyInfected {
		assert.True(t, last.Graph.Nodes[id].Infected)
		assert.False(t, frames[4].Graph.Nodes[id].Infected)
	}
}

func TestSameSeedSameRun(t *testing.T) {
	a := New(testConfig())
	b := New(testConfig())

	seriesA, err := a.RunToCompletion(30)
	require.NoError(t, err)
	seriesB, err := b.RunToCompletion(30)
	require.NoError(t, err)

	assert.Equal(t, seriesA, seriesB)
	assert.Equal(t, a.Snapshot().Graph, b.Snapshot().Graph)
}

func TestRunToCompletionSaturates(t *testing.T) {
	cfg := testConfig()
	cfg.Strain = sim.Worm
	cfg.Probability = 1
	cfg.Seed = connectedSeed(t, cfg.NetworkSize, cfg.Strain)

	s := New(cfg)
	series, err := s.RunToCompletion(0)
	require.NoError(t, err)

	assert.Equal(t, cfg.NetworkSize, series.Last().Infected)
	assert.True(t, s.Snapshot().Graph.FullyInfected())
	assert.ErrorIs(t, s.Start(), ErrFinished)
	assert.Equal(t, Idle, s.State())
}

func TestStartPauseResume(t *testing.T) {
	rec := &recorder{}
	cfg := testConfig()
	cfg.Probability = 0.1
	cfg.Strain = sim.Trojan
	s := New(cfg, WithProviders(rec))
	defer s.Close()

	require.NoError(t, s.Start())
	assert.Equal(t, Running, s.State())
	require.NoError(t, s.Start(), "starting twice is a no-op")

	require.Eventually(t, func() bool { return s.Snapshot().Step >= 3 }, 2*time.Second, 5*time.Millisecond)

	s.Pause()
	assert.Equal(t, Idle, s.State())
	paused := s.Snapshot()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, paused.Step, s.Snapshot().Step, "no ticks while paused")
	assert.Equal(t, paused.Series, s.Snapshot().Series)

	if s.Snapshot().Graph.FullyInfected() {
		return
	}
	require.NoError(t, s.Start())
	require.Eventually(t, func() bool { return s.Snapshot().Step > paused.Step }, 2*time.Second, 5*time.Millisecond)
	s.Pause()

	resumed := s.Snapshot()
	assert.Equal(t, paused.Series, resumed.Series[:len(paused.Series)], "resuming continues the same series")

	_, states := rec.snapshot()
	assert.Equal(t, []string{"running", "idle", "running", "idle"}, states)
}

func TestDriverStopsOnFullInfection(t *testing.T) {
	rec := &recorder{}
	cfg := testConfig()
	cfg.Strain = sim.Worm
	cfg.Probability = 1
	cfg.NetworkSize = 10
	cfg.Seed = connectedSeed(t, cfg.NetworkSize, cfg.Strain)

	reg := metrics.NewRegistry()
	s := New(cfg, WithProviders(rec), WithMetrics(reg))
	defer s.Close()

	require.NoError(t, s.Start())
	require.Eventually(t, func() bool { return s.State() == Idle }, 2*time.Second, 5*time.Millisecond)

	snap := s.Snapshot()
	assert.True(t, snap.Graph.FullyInfected())
	assert.Equal(t, 10, snap.Infected())

	// No further ticks once absorbed.
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, snap.Step, s.Snapshot().Step)

	_, states := rec.snapshot()
	assert.Equal(t, []string{"running", "idle"}, states)
}

func TestTickAndConfigureWhileRunning(t *testing.T) {
	cfg := testConfig()
	cfg.Probability = 0.1
	cfg.TickInterval = lib.DurationFrom(time.Second)
	s := New(cfg)
	defer s.Close()

	require.NoError(t, s.Start())
	_, err := s.Tick()
	assert.ErrorIs(t, err, ErrRunning)
	assert.ErrorIs(t, s.Configure(cfg), ErrRunning)
	_, err = s.RunToCompletion(1)
	assert.ErrorIs(t, err, ErrRunning)
}

func TestConfigure(t *testing.T) {
	rec := &recorder{}
	s := New(testConfig(), WithProviders(rec))
	_, err := s.Tick()
	require.NoError(t, err)

	// Probability only: keep the graph and series.
	cfg := s.Config()
	cfg.Probability = 0.9
	require.NoError(t, s.Configure(cfg))
	assert.Equal(t, 1, s.Snapshot().Step)

	// Size change: regenerate.
	cfg.NetworkSize = 35
	require.NoError(t, s.Configure(cfg))
	snap := s.Snapshot()
	assert.Equal(t, 0, snap.Step)
	assert.Len(t, snap.Graph.Nodes, 35)

	frames, _ := rec.snapshot()
	assert.True(t, frames[len(frames)-1].Reset)
}

func TestReset(t *testing.T) {
	cfg := testConfig()
	cfg.Seed = 0
	s := New(cfg)
	_, err := s.RunToCompletion(5)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	s.Reset()
	snap := s.Snapshot()
	assert.Equal(t, Idle, snap.State)
	assert.Equal(t, 0, snap.Step)
	assert.Equal(t, sim.TimeSeries{{Step: 0, Infected: 1}}, snap.Series)
	assert.Len(t, snap.Graph.Nodes, cfg.NetworkSize)
}

func TestAddProviderGetsCurrentGraph(t *testing.T) {
	s := New(testConfig())
	_, _ = s.Tick()

	rec := &recorder{}
	s.AddProvider(rec)
	frames, _ := rec.snapshot()
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Reset)
	assert.Equal(t, 1, frames[0].Step)
}
