// Package session runs one visitor's experience: the scroll-phase controller,
// the falling-words scene, the inspiration board and the input binding, all
// driven by a single fixed-rate frame loop.
package session

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/phoalbum/internal/event"
	"github.com/tomz197/phoalbum/internal/input"
	"github.com/tomz197/phoalbum/internal/logging"
	"github.com/tomz197/phoalbum/internal/loop/config"
	"github.com/tomz197/phoalbum/internal/physics"
	"github.com/tomz197/phoalbum/internal/store"
	"github.com/tomz197/phoalbum/internal/tier"
)

var (
	// ErrRunning is returned by Run when the loop is already running.
	ErrRunning = errors.New("session: already running")
	// ErrShutdown is returned by Manager.Start after Shutdown.
	ErrShutdown = errors.New("session: manager shut down")
)

// Options configures a session.
type Options struct {
	Viewport physics.Viewport // Zero uses the default view size

	// Store is loaded once at startup. Nil keeps the board in memory.
	Store store.Store
	// Saver writes content changes. Nil creates one for Store, owned and
	// closed by the session.
	Saver *store.Saver

	Clock      tier.Clock // Nil uses time.Now
	Seed       int64      // Zero seeds from the clock
	NoiseDrift bool       // Drift the board along a smooth noise field
	Logger     *log.Logger
}

// Command mutates the session on the loop goroutine.
type Command func(s *Session)

// Session owns both physics worlds and everything that feeds them.
//
// All mutation happens on the goroutine running Step (directly or through
// Run). Other goroutines use the exported input methods, which queue commands
// that are applied at the next frame boundary, and read state through
// Snapshot.
type Session struct {
	opts   Options
	logger *log.Logger
	clock  tier.Clock
	rng    *rand.Rand

	bus     *event.Bus
	ctrl    *tier.Controller
	binding *input.Binding
	words   *physics.World
	board   *physics.World
	drift   physics.Drifter

	saver    *store.Saver
	ownSaver bool
	items    []store.ContentItem

	viewport physics.Viewport
	doc      Document
	ready    bool

	wordsFalling bool // Trigger fired
	wordsSpawned bool
	driftAcc     time.Duration
	settleAt     time.Time
	tierEvents   []event.TierChangedPayload

	frame    uint64
	commands chan Command
	snapshot atomic.Pointer[Snapshot]
	running  atomic.Bool

	unsubscribe []func()
}

// New creates a session, loads the board and publishes a first snapshot.
func New(ctx context.Context, opts Options) *Session {
	if !opts.Viewport.Valid() {
		opts.Viewport = physics.Viewport{Width: config.ViewWidth, Height: config.ViewHeight}
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	seed := opts.Seed
	if seed == 0 {
		seed = clock().UnixNano()
	}

	s := &Session{
		opts:     opts,
		logger:   logging.For(opts.Logger, "session"),
		clock:    clock,
		rng:      rand.New(rand.NewSource(seed)),
		bus:      event.NewBus(),
		viewport: opts.Viewport,
		doc:      newDocument(opts.Viewport),
		commands: make(chan Command, config.CommandBuffer),
	}

	tcfg := tier.DefaultConfig()
	tcfg.ViewportHeight = opts.Viewport.Height
	s.ctrl = tier.New(tcfg, s.bus, clock, opts.Logger)
	s.binding = input.NewBinding(scrollSink{s}, nil, opts.Logger)

	pcfg := physics.DefaultConfig()
	s.words = physics.NewWorld(pcfg, rand.New(rand.NewSource(seed+1)))
	s.board = physics.NewWorld(pcfg, rand.New(rand.NewSource(seed+2)))
	s.binding.SetDragSink(s.board)

	if opts.NoiseDrift {
		s.drift = physics.NewNoiseDrift(seed, physics.DriftStrength, config.NoiseFrequency)
	} else {
		s.drift = physics.RandomDrift{Strength: physics.DriftStrength, Rand: s.rng}
	}

	s.saver = opts.Saver
	if s.saver == nil && opts.Store != nil {
		s.saver = store.NewSaver(opts.Store, opts.Logger)
		s.ownSaver = true
	}
	if opts.Store != nil {
		s.items = store.LoadItems(ctx, opts.Store, opts.Logger)
	} else {
		s.items = store.DefaultItems()
	}

	s.unsubscribe = append(s.unsubscribe,
		s.bus.Subscribe(event.TierChanged, s.onTierChanged),
	)

	s.build()
	s.publishSnapshot()
	return s
}

// Subscribe registers fn for events of type t. Handlers run on the loop
// goroutine and must not block or call back into the session synchronously.
func (s *Session) Subscribe(t event.Type, fn event.Handler) (unsubscribe func()) {
	return s.bus.Subscribe(t, fn)
}

// Snapshot returns the latest published frame.
func (s *Session) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Items returns a copy of the board content.
// Must be called from the loop goroutine or while the loop is stopped.
func (s *Session) Items() []store.ContentItem {
	return store.Clone(s.items)
}

// Enqueue schedules cmd for the next frame boundary. It never blocks; when the
// queue is full the command is dropped and false is returned.
func (s *Session) Enqueue(cmd Command) bool {
	select {
	case s.commands <- cmd:
		return true
	default:
		s.logger.Debug("command queue full, dropping input")
		return false
	}
}

// Run drives Step at the tick rate until ctx is done. The worlds are torn
// down on return; calling Run again rebuilds them from the current content.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer s.running.Store(false)

	if !s.ready {
		s.build()
	}
	defer s.teardown()

	s.logger.Info("session started", "items", len(s.items), "viewport", s.viewport)
	lastTime := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session stopped", "frames", s.frame)
			return nil
		default:
		}

		frameStart := time.Now()
		s.Step(frameStart.Sub(lastTime))
		lastTime = frameStart

		elapsed := time.Since(frameStart)
		if elapsed < config.TickTime {
			select {
			case <-ctx.Done():
			case <-time.After(config.TickTime - elapsed):
			}
		}
	}
}

// Step runs one frame: queued commands, mode updates, forces, integration and
// collisions for both worlds, then a new snapshot.
func (s *Session) Step(dt time.Duration) {
	s.drainCommands()
	now := s.clock()

	if !s.settleAt.IsZero() && !now.Before(s.settleAt) {
		s.settleAt = time.Time{}
		s.ctrl.SettleWorks()
	}

	s.updateWords()
	if s.wordsVisible() {
		if p, ok := s.binding.Repulsor(); ok && p.X > 0 && p.Y > 0 {
			s.words.ApplyPointRepulsion(p, physics.RepulsionRadius, physics.RepulsionStrength)
		}
		s.words.Step(dt)
	} else {
		s.words.AbandonDrag()
	}

	s.driftAcc += dt
	if s.driftAcc >= config.DriftPeriod {
		s.driftAcc %= config.DriftPeriod
		s.board.ApplyDrift(s.drift)
	}
	s.board.Step(dt)

	s.frame++
	s.publishSnapshot()
}

// Close releases the session's saver and subscriptions. The loop must have
// stopped.
func (s *Session) Close() {
	for _, unsub := range s.unsubscribe {
		unsub()
	}
	s.unsubscribe = nil
	if s.saver == nil {
		return
	}
	if s.ownSaver {
		s.saver.Close()
	} else {
		s.saver.Flush()
	}
}

func (s *Session) drainCommands() {
	for {
		select {
		case cmd := <-s.commands:
			cmd(s)
			s.applyTierEvents()
		default:
			return
		}
	}
}

// build populates both worlds for the current viewport.
func (s *Session) build() {
	s.words.SetViewport(s.viewport)
	s.words.SetMode(physics.ModeFalling, wordsLayout(s.viewport))
	s.wordsSpawned = false

	s.board.SetViewport(s.viewport)
	s.board.SetMode(physics.ModeIdle, physics.Layout{})
	changed := false
	for i := range s.items {
		b, filled := s.itemBody(&s.items[i])
		changed = changed || filled
		s.board.Add(b)
	}
	if changed {
		s.persist()
	}
	s.ready = true
}

// teardown abandons drags and empties both worlds.
func (s *Session) teardown() {
	s.binding.OnPointerLeave()
	s.binding.OnTouchEnd()
	s.words.AbandonDrag()
	s.board.AbandonDrag()
	s.words.Reset()
	s.board.Reset()
	s.driftAcc = 0
	s.ready = false
	if s.saver != nil {
		s.saver.Flush()
	}
}

func (s *Session) publishSnapshot() {
	snap := &Snapshot{
		Frame:        s.frame,
		Time:         s.clock(),
		Viewport:     s.viewport,
		Scroll:       s.ctrl.State(),
		WordsMode:    s.words.Mode(),
		WordsVisible: s.wordsVisible() && s.wordsSpawned,
		Layout:       s.words.Layout(),
		Document:     s.doc,
		Items:        len(s.items),
		Modal:        s.binding.Modal(),
	}
	if snap.WordsVisible {
		snap.Words = s.words.Snapshot(make([]physics.BodyState, 0, s.words.Len()))
	}
	snap.Board = s.board.Snapshot(make([]physics.BodyState, 0, s.board.Len()))
	s.snapshot.Store(snap)
}

// scrollSink routes binding deltas through the controller and scrolls the
// emulated Works page with whatever the controller passes through.
type scrollSink struct {
	s *Session
}

func (k scrollSink) OnDelta(delta float64) tier.Outcome {
	out := k.s.ctrl.OnDelta(delta)
	if !out.Consumed {
		st := k.s.ctrl.State()
		if st.Tier == tier.Works && !st.WorksLocked && !st.Overlay {
			k.s.scrollDocument(k.s.doc.Scroll + delta)
		}
	}
	return out
}

// scrollDocument moves the Works page and re-evaluates the Ideas marker.
func (s *Session) scrollDocument(top float64) {
	s.doc.Scroll = min(max(top, 0), s.doc.MaxScroll(s.viewport.Height))
	s.ctrl.SetDocumentScroll(s.doc.Scroll)
	s.updateIdeasMarker()
}

func (s *Session) updateIdeasMarker() {
	s.ctrl.UpdateIdeasMarker(s.doc.IdeasTop-s.doc.Scroll, s.doc.IdeasBottom-s.doc.Scroll, s.viewport.Height)
}

// onTierChanged only records the change; it runs inside the controller's
// publish and the reaction is applied once the command returns.
func (s *Session) onTierChanged(e event.Event) {
	if p, ok := e.Payload.(*event.TierChangedPayload); ok {
		s.tierEvents = append(s.tierEvents, *p)
	}
}

func (s *Session) applyTierEvents() {
	for len(s.tierEvents) > 0 {
		p := s.tierEvents[0]
		s.tierEvents = s.tierEvents[1:]

		works := tier.Works.String()
		switch {
		case p.To == works && p.From != works:
			s.doc.Scroll = 0
			if p.ScrollToIdeas {
				s.doc.Scroll = min(s.doc.IdeasTop, s.doc.MaxScroll(s.viewport.Height))
			}
			s.ctrl.SetDocumentScroll(s.doc.Scroll)
			s.updateIdeasMarker()
			if !p.Programmatic {
				s.settleAt = s.clock().Add(config.WorksSettle)
			}
		case p.From == works && p.To != works:
			s.board.AbandonDrag()
			s.doc.Scroll = 0
			s.settleAt = time.Time{}
		case p.To == works && p.ScrollToIdeas:
			s.scrollDocument(s.doc.IdeasTop)
		}
	}
	s.tierEvents = s.tierEvents[:0]
}
