package physics

// Mode is the global simulation mode.
type Mode int

const (
	ModeIdle     Mode = iota // Zero gravity in a closed box, kept alive by drift
	ModeFalling              // Strong gravity onto a floor and obstacle
	ModeFloating             // Slight negative gravity, off-screen bodies are recycled
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeFalling:
		return "falling"
	case ModeFloating:
		return "floating"
	default:
		return "unknown"
	}
}

// Air friction per mode.
const (
	FrictionFalling  = 0.02
	FrictionFloating = 0.015
	FrictionIdle     = 0.01
)

// Boundary geometry.
const (
	sideWallThickness = 50.0
	capThickness      = 100.0
	looseCapOffset    = 1000.0
	tightCapOffset    = 50.0
	boxThickness      = 100.0
)

// Layout carries the page-specific geometry the boundary set depends on.
type Layout struct {
	FloorY          float64 // Falling floor surface in viewport pixels
	RightWallOffset float64 // Pulls the right wall inward
	Obstacle        *Rect   // Optional Falling-mode obstacle
}

// BoundaryLayout builds the static bodies for a mode. A degenerate viewport
// yields no boundaries.
func BoundaryLayout(mode Mode, vp Viewport, l Layout) []*Body {
	if !vp.Valid() {
		return nil
	}
	w, h := vp.Width, vp.Height

	if mode == ModeIdle {
		return []*Body{
			NewStatic("floor", Vec2{w / 2, h + boxThickness/2}, w*2, boxThickness),
			NewStatic("ceiling", Vec2{w / 2, -boxThickness / 2}, w*2, boxThickness),
			NewStatic("left", Vec2{-boxThickness / 2, h / 2}, boxThickness, h*2),
			NewStatic("right", Vec2{w + boxThickness/2, h / 2}, boxThickness, h*2),
		}
	}

	capOffset := looseCapOffset
	if mode == ModeFloating {
		capOffset = tightCapOffset
	}
	out := []*Body{
		NewStatic("left", Vec2{-sideWallThickness / 2, h / 2}, sideWallThickness, h*2),
		NewStatic("right", Vec2{w + sideWallThickness/2 - l.RightWallOffset, h / 2}, sideWallThickness, h*2),
		NewStatic("top", Vec2{w / 2, -capOffset}, w*2, capThickness),
		NewStatic("bottom", Vec2{w / 2, h + capOffset}, w*2, capThickness),
	}
	if mode == ModeFalling {
		out = append(out, NewStatic("floor", Vec2{w / 2, l.FloorY + sideWallThickness/2}, w*2, sideWallThickness))
		if o := l.Obstacle; o != nil {
			c := Vec2{(o.MinX + o.MaxX) / 2, (o.MinY + o.MaxY) / 2}
			out = append(out, NewStatic("obstacle", c, o.MaxX-o.MinX, o.MaxY-o.MinY))
		}
	}
	return out
}

// Mode returns the current mode.
func (w *World) Mode() Mode {
	return w.mode
}

// Layout returns the current layout.
func (w *World) Layout() Layout {
	return w.layout
}

// SetMode switches mode: replaces the boundary set and gravity, then applies
// the one-time transition impulse to every dynamic body.
func (w *World) SetMode(mode Mode, l Layout) {
	w.mode = mode
	w.layout = l
	w.SetBoundaries(BoundaryLayout(mode, w.viewport, l))

	switch mode {
	case ModeFloating:
		w.gravity = GravityFloating
		for _, b := range w.bodies {
			b.FrictionAir = FrictionFloating
			if w.viewport.Valid() && w.offWorld(b) {
				w.teleport(b)
			}
			w.pushUp(b)
		}
	case ModeFalling:
		w.gravity = GravityFalling
		for _, b := range w.bodies {
			b.FrictionAir = FrictionFalling
			// Bodies that sank below the floor while floating are set back on it.
			if w.viewport.Valid() && w.belowFloor(b) {
				b.SetPosition(Vec2{b.Pos.X, l.FloorY - b.Height/2})
				b.Vel = Vec2{}
			}
		}
	default:
		w.gravity = GravityNone
		for _, b := range w.bodies {
			b.FrictionAir = FrictionIdle
		}
	}
}

// SetViewport records a new viewport size and rebuilds the boundaries for the
// current mode. Boundaries are always replaced, never resized in place.
func (w *World) SetViewport(vp Viewport) {
	w.viewport = vp
	w.SetBoundaries(BoundaryLayout(w.mode, vp, w.layout))
}

// SetLayout updates the page geometry and rebuilds the boundaries.
func (w *World) SetLayout(l Layout) {
	w.layout = l
	w.SetBoundaries(BoundaryLayout(w.mode, w.viewport, l))
}

// floorSlack is how far a body may sink into the Falling floor before it is
// lifted back onto it.
const floorSlack = 5.0

func (w *World) belowFloor(b *Body) bool {
	return b.Pos.Y > w.layout.FloorY-b.Height/2+floorSlack
}

// catchFloor lifts sunken Falling bodies onto the floor, keeping their
// horizontal velocity.
func (w *World) catchFloor() {
	for _, b := range w.bodies {
		if w.isDragged(b) || !w.belowFloor(b) {
			continue
		}
		b.SetPosition(Vec2{b.Pos.X, w.layout.FloorY - b.Height/2})
		b.Vel.Y = 0
	}
}

// offWorld reports whether b left the viewport expanded by the recycle margin.
func (w *World) offWorld(b *Body) bool {
	r := Rect{MaxX: w.viewport.Width, MaxY: w.viewport.Height}.Expand(w.cfg.RecycleMargin)
	return !r.Contains(b.Pos)
}

// recycle brings lost Floating bodies back into the central region.
func (w *World) recycle() {
	for _, b := range w.bodies {
		if w.isDragged(b) || !w.offWorld(b) {
			continue
		}
		w.teleport(b)
		w.pushUp(b)
	}
}

// teleport places b at a random point in the central 60% x 40% region.
func (w *World) teleport(b *Body) {
	vw, vh := w.viewport.Width, w.viewport.Height
	b.SetPosition(Vec2{
		X: vw*0.2 + w.rng.Float64()*vw*0.6,
		Y: vh*0.2 + w.rng.Float64()*vh*0.4,
	})
}

// pushUp gives b the upward-biased Floating impulse.
func (w *World) pushUp(b *Body) {
	b.Vel = Vec2{
		X: (w.rng.Float64() - 0.5) * 3,
		Y: -2 - w.rng.Float64()*2,
	}
	b.AngularVel = (w.rng.Float64() - 0.5) * 0.1
}
