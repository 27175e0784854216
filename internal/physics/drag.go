package physics

import "math"

// dragState tracks a manual drag. The two most recent pointer samples define
// the release fling.
type dragState struct {
	body   *Body
	offset Vec2 // pointer - body center at grab time
	prev   Vec2
	cur    Vec2
}

// BeginDrag grabs a body. grabOffset is the pointer position relative to the
// body center. While dragged the body follows the pointer and ignores forces.
// Starting a new drag releases the previous one without a fling.
func (w *World) BeginDrag(id string, grabOffset Vec2) error {
	b, ok := w.index[id]
	if !ok {
		return ErrBodyNotFound
	}
	if b.Static {
		return ErrStaticBody
	}
	p := b.Pos.Add(grabOffset)
	w.drag = &dragState{body: b, offset: grabOffset, prev: p, cur: p}
	b.Vel = Vec2{}
	return nil
}

// UpdateDrag records a new pointer sample. No-op when nothing is dragged.
func (w *World) UpdateDrag(pointer Vec2) {
	if w.drag == nil {
		return
	}
	w.drag.prev = w.drag.cur
	w.drag.cur = pointer
}

// EndDrag releases the dragged body. Its velocity becomes the vector between
// the last two pointer samples and normal integration resumes next step.
// Returns the fling velocity and whether a drag was active.
func (w *World) EndDrag() (Vec2, bool) {
	d := w.drag
	if d == nil {
		return Vec2{}, false
	}
	fling := d.cur.Sub(d.prev)
	d.body.SetPosition(w.dragTarget())
	w.drag = nil
	d.body.Vel = fling
	return fling, true
}

// AbandonDrag drops an in-progress drag and leaves the body at rest where it is.
// Used on teardown.
func (w *World) AbandonDrag() {
	if w.drag == nil {
		return
	}
	w.drag.body.Vel = Vec2{}
	w.drag = nil
}

// Dragging returns the id of the dragged body.
func (w *World) Dragging() (string, bool) {
	if w.drag == nil {
		return "", false
	}
	return w.drag.body.ID, true
}

func (w *World) isDragged(b *Body) bool {
	return w.drag != nil && w.drag.body == b
}

// applyDrag pins the dragged body to the pointer for this step.
func (w *World) applyDrag() {
	if w.drag == nil {
		return
	}
	b := w.drag.body
	b.SetPosition(w.dragTarget())
	b.Vel = Vec2{}
	b.force = Vec2{}
}

// dragTarget is where the pointer puts the dragged body. The body is kept
// inside the walls so a pointer far outside cannot park it beyond them.
func (w *World) dragTarget() Vec2 {
	d := w.drag
	p := d.cur.Sub(d.offset)
	if !w.viewport.Valid() {
		return p
	}
	a := w.arena()
	p.X = clampCenter(p.X, a.MinX, a.MaxX, d.body.Width)
	p.Y = clampCenter(p.Y, a.MinY, a.MaxY, d.body.Height)
	return p
}

// arena is the area enclosed by the mode's walls, floor and viewport top.
func (w *World) arena() Rect {
	a := Rect{MaxX: w.viewport.Width, MaxY: w.viewport.Height}
	if w.mode != ModeIdle {
		a.MaxX -= w.layout.RightWallOffset
	}
	if w.mode == ModeFalling && w.layout.FloorY > 0 {
		a.MaxY = math.Min(a.MaxY, w.layout.FloorY)
	}
	return a
}

// clampCenter keeps a span of size extent centered at c within [lo, hi].
func clampCenter(c, lo, hi, extent float64) float64 {
	lo += extent / 2
	hi -= extent / 2
	if lo > hi {
		return (lo + hi) / 2
	}
	return math.Max(lo, math.Min(hi, c))
}
