package physics

import (
	"math"
	"math/rand"
	"time"
)

// Gravity presets in pixels per tick squared.
// Derived from the matter-js tuning (gravity.y 2.2 and -0.05 at scale 0.001).
var (
	GravityFalling  = Vec2{Y: 0.611}
	GravityFloating = Vec2{Y: -0.0139}
	GravityNone     = Vec2{}
)

// Config holds the world tunables.
type Config struct {
	// MaxStep clamps a single Step to avoid a spiral of death after long pauses.
	MaxStep time.Duration
	// MaxSubsteps bounds the substeps used to keep fast bodies from tunneling.
	MaxSubsteps int
	// Contacts enables body-body separation in addition to boundary collisions.
	Contacts bool
	// RecycleMargin expands the viewport for the Floating out-of-bounds check.
	RecycleMargin float64
	// GridMargin expands the viewport to size the broad-phase grid.
	GridMargin float64
}

// DefaultConfig returns the tuning used by the experience.
func DefaultConfig() Config {
	return Config{
		MaxStep:       time.Second / 30,
		MaxSubsteps:   8,
		Contacts:      true,
		RecycleMargin: 50,
		GridMargin:    200,
	}
}

// collisionEpsilon is the overlap tolerated after resolution (float rounding).
const collisionEpsilon = 1e-6

// World owns dynamic bodies and the static boundary set.
//
// World is not safe for concurrent use. It is driven from a single goroutine
// (the frame loop); other goroutines hand it work through the session's
// command queue. Add and Remove called while a step is running are deferred to
// the frame boundary.
type World struct {
	cfg Config
	rng *rand.Rand

	bodies     []*Body
	index      map[string]*Body
	boundaries []*Body

	gravity  Vec2
	mode     Mode
	layout   Layout
	viewport Viewport

	drag *dragState

	stepping      bool
	pendingAdd    []*Body
	pendingRemove []string

	grid *SpatialGrid
	time float64 // ticks simulated so far
}

// NewWorld creates an empty world in Idle mode with no boundaries.
// A nil rng is replaced by a time-seeded source.
func NewWorld(cfg Config, rng *rand.Rand) *World {
	if cfg.MaxStep <= 0 {
		cfg.MaxStep = time.Second / 30
	}
	if cfg.MaxSubsteps < 1 {
		cfg.MaxSubsteps = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &World{
		cfg:   cfg,
		rng:   rng,
		index: make(map[string]*Body),
		grid:  NewSpatialGrid(Rect{MaxX: 1, MaxY: 1}, 1),
	}
}

// Add inserts a dynamic body. During a step the insertion is queued and
// applied at the frame boundary. A body with a duplicate id replaces the old one.
func (w *World) Add(b *Body) {
	if b == nil {
		return
	}
	if w.stepping {
		w.pendingAdd = append(w.pendingAdd, b)
		return
	}
	w.insert(b)
}

func (w *World) insert(b *Body) {
	b.prev = b.Pos
	if _, exists := w.index[b.ID]; exists {
		w.remove(b.ID)
	}
	w.bodies = append(w.bodies, b)
	w.index[b.ID] = b
}

// Remove deletes a body by id. During a step the removal is queued.
func (w *World) Remove(id string) error {
	if _, ok := w.index[id]; !ok {
		return ErrBodyNotFound
	}
	if w.stepping {
		w.pendingRemove = append(w.pendingRemove, id)
		return nil
	}
	w.remove(id)
	return nil
}

func (w *World) remove(id string) {
	if _, ok := w.index[id]; !ok {
		return
	}
	delete(w.index, id)
	kept := w.bodies[:0]
	for _, b := range w.bodies {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	clear(w.bodies[len(kept):])
	w.bodies = kept
	if w.drag != nil && w.drag.body.ID == id {
		w.drag = nil
	}
}

// flushPending applies queued additions and removals.
func (w *World) flushPending() {
	for _, b := range w.pendingAdd {
		w.insert(b)
	}
	clear(w.pendingAdd)
	w.pendingAdd = w.pendingAdd[:0]
	for _, id := range w.pendingRemove {
		w.remove(id)
	}
	w.pendingRemove = w.pendingRemove[:0]
}

// Body returns the dynamic body with the given id.
func (w *World) Body(id string) (*Body, bool) {
	b, ok := w.index[id]
	return b, ok
}

// Bodies returns the dynamic bodies in insertion order. The slice is owned by
// the world and must not be retained across steps.
func (w *World) Bodies() []*Body {
	return w.bodies
}

// Len returns the number of dynamic bodies.
func (w *World) Len() int {
	return len(w.bodies)
}

// ApplyForce accumulates force on a body for the current step only.
func (w *World) ApplyForce(id string, f Vec2) error {
	b, ok := w.index[id]
	if !ok {
		return ErrBodyNotFound
	}
	b.force = b.force.Add(f)
	return nil
}

// SetGravity replaces the global gravity. It takes effect on the next step.
func (w *World) SetGravity(g Vec2) {
	w.gravity = g
}

// Gravity returns the current gravity.
func (w *World) Gravity() Vec2 {
	return w.gravity
}

// SetBoundaries atomically replaces the static body set. The list is copied
// and every entry is forced static. An empty list leaves the world unbounded.
func (w *World) SetBoundaries(list []*Body) {
	next := make([]*Body, 0, len(list))
	for _, b := range list {
		if b == nil {
			continue
		}
		nb := *b
		nb.Static = true
		nb.Vel = Vec2{}
		nb.AngularVel = 0
		nb.force = Vec2{}
		next = append(next, &nb)
	}
	w.boundaries = next
}

// Boundaries returns the active static bodies.
func (w *World) Boundaries() []*Body {
	return w.boundaries
}

// Viewport returns the current viewport.
func (w *World) Viewport() Viewport {
	return w.viewport
}

// Time returns the simulated time in ticks.
func (w *World) Time() float64 {
	return w.time
}

// Step advances the simulation by dt using semi-implicit Euler integration.
// Order within a step: pending add/remove, drag override, integration of
// gravity and buffered forces, Floating recycle, body contacts, boundary
// collisions. Force buffers are cleared at the end.
//
// With a degenerate viewport the boundary work is skipped but velocities
// are still integrated.
func (w *World) Step(dt time.Duration) {
	if dt <= 0 {
		return
	}
	if dt > w.cfg.MaxStep {
		dt = w.cfg.MaxStep
	}
	ticks := dt.Seconds() * ReferenceRate

	w.flushPending()
	w.stepping = true

	w.applyDrag()

	bounded := w.viewport.Valid()
	thin := math.Inf(1)
	if bounded {
		thin = w.thinnest()
	}
	n := w.substeps(ticks, thin)
	h := ticks / float64(n)
	for i := 0; i < n; i++ {
		w.integrate(h, thin/2)
		if bounded && w.mode == ModeFloating {
			w.recycle()
		}
		if w.cfg.Contacts {
			w.resolveContacts()
		}
		if bounded {
			w.ResolveCollisions()
		}
	}

	if bounded && w.mode == ModeFalling {
		w.catchFloor()
	}

	for _, b := range w.bodies {
		b.force = Vec2{}
	}
	w.time += ticks

	w.stepping = false
	w.flushPending()
}

// thinnest returns the smallest boundary extent, +Inf without boundaries.
func (w *World) thinnest() float64 {
	thin := math.Inf(1)
	for _, s := range w.boundaries {
		thin = math.Min(thin, math.Min(s.Width, s.Height))
	}
	if thin <= 0 {
		return math.Inf(1)
	}
	return thin
}

// substeps picks how many integration slices keep the fastest body from
// moving more than half the thinnest boundary per slice. Speeds beyond what
// MaxSubsteps covers are capped in integrate.
func (w *World) substeps(ticks, thin float64) int {
	if math.IsInf(thin, 1) || w.cfg.MaxSubsteps == 1 {
		return 1
	}

	var fastest float64
	for _, b := range w.bodies {
		if b.Static {
			continue
		}
		acc := w.gravity.Add(b.force.Scale(1 / b.Mass))
		v := b.Vel.Add(acc.Scale(ticks)).Len() * ticks
		fastest = math.Max(fastest, v)
	}

	n := int(math.Ceil(fastest / (thin / 2)))
	if n < 1 {
		n = 1
	}
	if n > w.cfg.MaxSubsteps {
		n = w.cfg.MaxSubsteps
	}
	return n
}

// integrate advances every free body by h ticks. No body moves further than
// maxMove in one slice; faster bodies have their speed capped so they cannot
// skip over a boundary.
func (w *World) integrate(h, maxMove float64) {
	maxSpeed := maxMove / h
	for _, b := range w.bodies {
		b.prev = b.Pos
		if b.Static || w.isDragged(b) {
			continue
		}
		acc := w.gravity.Add(b.force.Scale(1 / b.Mass))
		b.Vel = b.Vel.Add(acc.Scale(h))
		if b.FrictionAir > 0 {
			damp := math.Pow(1-b.FrictionAir, h)
			b.Vel = b.Vel.Scale(damp)
			b.AngularVel *= damp
		}
		if speed := b.Vel.Len(); speed > maxSpeed {
			b.Vel = b.Vel.Scale(maxSpeed / speed)
		}
		b.Pos = b.Pos.Add(b.Vel.Scale(h))
		b.Angle += b.AngularVel * h
	}
}

// Reset tears the world down: abandons any drag, drops bodies, boundaries,
// queued mutations and force buffers. The world can be reused afterwards.
func (w *World) Reset() {
	w.AbandonDrag()
	clear(w.bodies)
	w.bodies = w.bodies[:0]
	clear(w.index)
	w.boundaries = nil
	clear(w.pendingAdd)
	w.pendingAdd = w.pendingAdd[:0]
	w.pendingRemove = w.pendingRemove[:0]
	w.gravity = Vec2{}
	w.mode = ModeIdle
	w.stepping = false
	w.time = 0
}

// BodyAt returns the top-most body whose bounding box contains p.
// Later insertions are drawn on top.
func (w *World) BodyAt(p Vec2) (string, bool) {
	for i := len(w.bodies) - 1; i >= 0; i-- {
		b := w.bodies[i]
		if b.Bounds().Contains(p) {
			return b.ID, true
		}
	}
	return "", false
}
