package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/psidex/malsim/internal/graphs"
	"github.com/psidex/malsim/internal/lib"
	"github.com/psidex/malsim/internal/metrics"
	"github.com/psidex/malsim/internal/sim"
)

// State is the driver state visible to callers. There is no separate paused state:
// pausing keeps the graph and series and a later Start resumes from them.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

var (
	// ErrRunning is returned by operations that need the driver to be idle.
	ErrRunning = errors.New("session is running")
	// ErrFinished is returned by Start once every node is infected.
	ErrFinished = errors.New("every node is already infected")
)

// Snapshot is a consistent copy of a session's state for renderers and exporters.
type Snapshot struct {
	ID     string
	Config Config
	State  State
	Step   int
	Graph  sim.Graph
	Series sim.TimeSeries
}

// Infected is the infected count of the latest sample.
func (s Snapshot) Infected() int {
	return s.Series.Last().Infected
}

type Session struct {
	// Set in New(...).
	id        string
	logger    *slog.Logger
	metrics   *metrics.Registry
	providers []graphs.GraphProvider
	// Guards everything below. Held for the whole of a tick, including observer
	// notification, so frames are published in order.
	mu     *sync.Mutex
	cfg    Config
	rnd    sim.Source
	graph  sim.Graph
	series sim.TimeSeries
	state  State
	// Set / reset by every Start().
	cancel chan struct{}
	wg     *sync.WaitGroup
}

// Option configures optional collaborators of a Session.
type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func WithMetrics(r *metrics.Registry) Option {
	return func(s *Session) { s.metrics = r }
}

// WithProviders registers observers that receive every frame.
func WithProviders(gp ...graphs.GraphProvider) Option {
	return func(s *Session) { s.providers = append(s.providers, gp...) }
}

// New creates a session and generates its first graph. cfg is not validated here;
// callers taking user input should call cfg.Validate first.
func New(cfg Config, opts ...Option) *Session {
	s := &Session{
		id:     uuid.NewString(),
		logger: lib.DiscardLogger(),
		mu:     &sync.Mutex{},
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id)
	if s.metrics != nil {
		s.metrics.SessionOpened()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.regenerate()

	return s
}

func (s *Session) ID() string {
	return s.id
}

// AddProvider registers another observer and sends it the current graph as a reset
// frame.
func (s *Session) AddProvider(gp graphs.GraphProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers = append(s.providers, gp)
	gp.Observe(s.frame(true, nil))
}

// regenerate must be called with mu held.
func (s *Session) regenerate() {
	s.rnd = sim.NewSource(s.cfg.Seed)
	s.graph = sim.Generate(s.cfg.NetworkSize, s.cfg.Strain, s.rnd)
	s.series = sim.NewTimeSeries(s.graph)

	s.logger.Info("Generated network",
		"nodes", len(s.graph.Nodes), "edges", len(s.graph.Edges), "strain", s.cfg.Strain)
	if s.metrics != nil {
		s.metrics.RecordGenerate(s.id, s.cfg.Strain.String(), s.series.Last().Infected)
	}
	s.publish(s.frame(true, nil))
}

// frame must be called with mu held.
func (s *Session) frame(reset bool, newlyInfected []int) graphs.Frame {
	return graphs.Frame{
		SessionID:     s.id,
		Reset:         reset,
		Step:          s.series.Last().Step,
		State:         s.state.String(),
		Strain:        s.cfg.Strain,
		Graph:         s.graph.Clone(),
		Series:        s.series.Clone(),
		NewlyInfected: newlyInfected,
	}
}

func (s *Session) publish(f graphs.Frame) {
	for _, p := range s.providers {
		p.Observe(f)
	}
}

// finished must be called with mu held.
func (s *Session) finished() bool {
	return s.graph.InfectedCount() == len(s.graph.Nodes)
}

// Start moves the session from Idle to Running; ticks then happen every TickInterval
// until Pause, Reset or full infection. Starting a running session does nothing.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Running {
		return nil
	}
	if s.finished() {
		return ErrFinished
	}

	s.state = Running
	s.cancel = make(chan struct{})
	s.wg = &sync.WaitGroup{}
	s.wg.Add(1)
	go s.drive(s.cancel, s.wg, s.cfg.TickInterval.Duration)

	s.logger.Info("Simulation started", "step", s.series.Last().Step)
	s.stateChanged()
	return nil
}

// Pause stops the driver and blocks until an in-flight tick has completed. The graph
// and series are kept. Pausing an idle session does nothing.
func (s *Session) Pause() {
	s.mu.Lock()
	wg := s.wg
	if s.state == Running {
		s.state = Idle
		close(s.cancel)
		s.logger.Info("Simulation paused", "step", s.series.Last().Step)
		s.stateChanged()
	}
	s.mu.Unlock()

	if wg != nil {
		wg.Wait()
	}
}

// Reset stops the driver and generates a new graph from the current configuration.
func (s *Session) Reset() {
	s.Pause()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.regenerate()
}

// Configure replaces the configuration. It is only allowed while idle. A different
// network size, strain or seed regenerates the graph; a new probability or tick
// interval applies from the next tick on.
func (s *Session) Configure(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Running {
		return ErrRunning
	}

	regen := cfg.NetworkSize != s.cfg.NetworkSize || cfg.Strain != s.cfg.Strain || cfg.Seed != s.cfg.Seed
	s.cfg = cfg
	if regen {
		s.regenerate()
	}
	return nil
}

// Tick advances the simulation by one step while idle. It is what the driver does on
// every timer fire, exposed for step-by-step and headless use.
func (s *Session) Tick() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Running {
		return 0, ErrRunning
	}
	return s.tick(), nil
}

// RunToCompletion ticks synchronously until every node is infected or maxSteps ticks
// have run. maxSteps <= 0 means no limit, which never returns if the probability is
// zero or the graph is disconnected.
func (s *Session) RunToCompletion(maxSteps int) (sim.TimeSeries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Running {
		return nil, ErrRunning
	}
	for steps := 0; !s.finished() && (maxSteps <= 0 || steps < maxSteps); steps++ {
		s.tick()
	}
	return s.series.Clone(), nil
}

// tick must be called with mu held. It returns the new infected count.
func (s *Session) tick() int {
	start := time.Now()

	before := s.graph
	next, infected := sim.Step(before, s.cfg.Params(), s.rnd)
	s.graph = next
	s.series = s.series.Append(infected)

	var newlyInfected []int
	for i := range next.Nodes {
		if next.Nodes[i].Infected && !before.Nodes[i].Infected {
			newlyInfected = append(newlyInfected, i)
		}
	}

	step := s.series.Last().Step
	s.logger.Debug("Tick", "step", step, "infected", infected, "new", len(newlyInfected))
	if s.metrics != nil {
		s.metrics.RecordTick(s.id, s.cfg.Strain.String(), infected, time.Since(start))
	}
	if len(newlyInfected) > 0 && s.finished() {
		s.logger.Info("Every node infected", "step", step, "nodes", len(next.Nodes))
		if s.metrics != nil {
			s.metrics.RecordFullInfection(s.cfg.Strain.String(), step)
		}
	}

	s.publish(s.frame(false, newlyInfected))
	return infected
}

// drive is the timer loop started by Start. Only one exists per run, so ticks never
// overlap; a slow tick simply delays the next one.
func (s *Session) drive(cancel <-chan struct{}, wg *sync.WaitGroup, interval time.Duration) {
	defer wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		// Pause may have won the race for the lock against this tick.
		if s.state != Running {
			s.mu.Unlock()
			return
		}
		s.tick()
		if s.finished() {
			s.state = Idle
			s.logger.Info("Simulation finished", "step", s.series.Last().Step)
			s.stateChanged()
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}

// stateChanged must be called with mu held.
func (s *Session) stateChanged() {
	if s.metrics != nil {
		s.metrics.RecordStateChange(s.state.String())
	}
	for _, p := range s.providers {
		if wp, ok := p.(graphs.WebsocketGraphProvider); ok {
			wp.NotifyState(s.state.String())
		}
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:     s.id,
		Config: s.cfg,
		State:  s.state,
		Step:   s.series.Last().Step,
		Graph:  s.graph.Clone(),
		Series: s.series.Clone(),
	}
}

// Close stops the driver. The session can still be read afterwards.
func (s *Session) Close() {
	s.Pause()
	if s.metrics != nil {
		s.metrics.SessionClosed(s.id)
	}
}
