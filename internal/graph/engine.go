// Package graph implements the force-directed layout engine behind the
// MindNexus graph view: model derivation from notes and AI links, a pure
// force simulator, a bounded scheduler, hit-testing and a render adapter.
package graph

import (
	"log/slog"
	"math/rand"
	"slices"
	"sync/atomic"
	"time"
)

// maxSteps is the full length of one layout run. After this many steps the
// positions freeze until the next submission.
const maxSteps = 100

const defaultStepInterval = 16 * time.Millisecond

// Config configures an Engine. The zero value is usable: default bounds,
// 16ms cadence, time-seeded randomness, no callbacks.
type Config struct {
	Bounds       Bounds
	StepInterval time.Duration
	Seed         int64 // 0 means time-seeded
	OnSelect     func(id string)
	OnFrame      func(Frame)
	Logger       *slog.Logger
}

type submission struct {
	notes   []Note
	aiLinks []AiLink
}

type selectReq struct {
	x, y float64
	resp chan string
}

// Engine owns one layout simulation. A single goroutine holds the node and
// link state; submissions, snapshots and selection all flow through it over
// channels, so the force code itself never takes a lock. Between steps the
// goroutine is parked in select, which keeps the host responsive however
// long a run takes.
type Engine struct {
	bounds   Bounds
	interval time.Duration
	onSelect func(string)
	onFrame  func(Frame)
	logger   *slog.Logger
	rng      *rand.Rand

	submitCh   chan submission
	snapshotCh chan chan Frame
	selectCh   chan selectReq

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewEngine starts the scheduling goroutine and returns the engine.
func NewEngine(cfg Config) *Engine {
	if cfg.StepInterval <= 0 {
		cfg.StepInterval = defaultStepInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e := &Engine{
		bounds:     cfg.Bounds.orDefault(),
		interval:   cfg.StepInterval,
		onSelect:   cfg.OnSelect,
		onFrame:    cfg.OnFrame,
		logger:     cfg.Logger,
		rng:        rand.New(rand.NewSource(seed)),
		submitCh:   make(chan submission),
		snapshotCh: make(chan chan Frame),
		selectCh:   make(chan selectReq),
		stopCh:     make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *Engine) run() {
	defer close(e.stopped)

	var (
		nodes []Node
		links []Link
		state = StateIdle
		step  int
	)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	frame := func() Frame {
		return Frame{
			Step:  step,
			State: state,
			Nodes: slices.Clone(nodes),
			Links: slices.Clone(links),
		}
	}
	emit := func() {
		if e.onFrame != nil {
			e.onFrame(frame())
		}
	}

	for {
		select {
		case <-e.stopCh:
			return

		case sub := <-e.submitCh:
			// New input cancels whatever run is in flight and starts
			// over. Nothing from the previous layout survives, positions
			// included.
			nodes, links = Build(sub.notes, sub.aiLinks, e.bounds, e.rng)
			step = 0
			state = StateRunning
			e.logger.Debug("layout restarted",
				slog.Int("nodes", len(nodes)),
				slog.Int("links", len(links)))
			emit()

		case <-ticker.C:
			if state != StateRunning {
				continue
			}
			Step(nodes, links, e.bounds)
			step++
			if step >= maxSteps || len(nodes) == 0 {
				state = StateConverged
				e.logger.Debug("layout converged", slog.Int("steps", step))
			}
			emit()

		case resp := <-e.snapshotCh:
			resp <- frame()

		case req := <-e.selectCh:
			id := hitTest(nodes, req.x, req.y)
			if id != "" && e.onSelect != nil {
				e.onSelect(id)
			}
			req.resp <- id
		}
	}
}

// Submit replaces the current model with one built from the given notes and
// suggestions and begins a fresh run. No-op after Close.
func (e *Engine) Submit(notes []Note, aiLinks []AiLink) {
	if e.closed.Load() {
		return
	}
	select {
	case e.submitCh <- submission{notes: notes, aiLinks: aiLinks}:
	case <-e.stopped:
	}
}

// Snapshot returns a copy of the current layout state. After Close it
// reports an idle empty frame.
func (e *Engine) Snapshot() Frame {
	if e.closed.Load() {
		return Frame{State: StateIdle}
	}
	resp := make(chan Frame, 1)
	select {
	case e.snapshotCh <- resp:
	case <-e.stopped:
		return Frame{State: StateIdle}
	}
	select {
	case f := <-resp:
		return f
	case <-e.stopped:
		return Frame{State: StateIdle}
	}
}

// SelectAt hit-tests a point against the node circles. On a hit the
// selection callback fires, once, before SelectAt returns the id. A miss
// fires nothing. Selection never perturbs the simulation.
func (e *Engine) SelectAt(x, y float64) (string, bool) {
	if e.closed.Load() {
		return "", false
	}
	req := selectReq{x: x, y: y, resp: make(chan string, 1)}
	select {
	case e.selectCh <- req:
	case <-e.stopped:
		return "", false
	}
	select {
	case id := <-req.resp:
		return id, id != ""
	case <-e.stopped:
		return "", false
	}
}

// Close stops the scheduling goroutine and waits for it to exit. Safe to
// call more than once.
func (e *Engine) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	close(e.stopCh)
	<-e.stopped
}
