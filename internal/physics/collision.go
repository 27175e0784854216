package physics

import "math"

// maxResolvePasses bounds the boundary passes per body (corners touch two walls).
const maxResolvePasses = 3

// ResolveCollisions pushes every dynamic body fully outside every boundary it
// overlaps and reflects the velocity component along the collision normal,
// scaled by the body's restitution. Angular velocity is not affected.
func (w *World) ResolveCollisions() {
	if len(w.boundaries) == 0 {
		return
	}
	for _, b := range w.bodies {
		for pass := 0; pass < maxResolvePasses; pass++ {
			hit := false
			for _, s := range w.boundaries {
				if resolveAgainst(b, s) {
					hit = true
				}
			}
			if !hit {
				break
			}
		}
	}
}

// resolveAgainst separates b from the static body s. Returns true on contact.
func resolveAgainst(b, s *Body) bool {
	r := b.Bounds()
	sr := s.Bounds()
	dx, dy := r.Overlap(sr)
	if dx <= collisionEpsilon || dy <= collisionEpsilon {
		return false
	}

	// The entry side is the axis on which the body was still separated before
	// this integration slice. Bodies that started inside take the shortest way out.
	pr := RectFrom(b.prev, b.Width, b.Height)
	pdx, pdy := pr.Overlap(sr)
	var side pushSide
	switch {
	case pdx <= 0 && pdy > 0:
		side = pushRight
		if b.prev.X < s.Pos.X {
			side = pushLeft
		}
	case pdy <= 0 && pdx > 0:
		side = pushDown
		if b.prev.Y < s.Pos.Y {
			side = pushUp
		}
	default:
		side = shortestExit(r, sr)
	}

	switch side {
	case pushLeft:
		b.Pos.X = sr.MinX - b.Width/2
		if b.Vel.X > 0 {
			b.Vel.X = -b.Vel.X * b.Restitution
		}
	case pushRight:
		b.Pos.X = sr.MaxX + b.Width/2
		if b.Vel.X < 0 {
			b.Vel.X = -b.Vel.X * b.Restitution
		}
	case pushUp:
		b.Pos.Y = sr.MinY - b.Height/2
		if b.Vel.Y > 0 {
			b.Vel.Y = -b.Vel.Y * b.Restitution
		}
	case pushDown:
		b.Pos.Y = sr.MaxY + b.Height/2
		if b.Vel.Y < 0 {
			b.Vel.Y = -b.Vel.Y * b.Restitution
		}
	}
	return true
}

type pushSide int

const (
	pushLeft pushSide = iota
	pushRight
	pushUp
	pushDown
)

// shortestExit picks the direction that moves r out of s the least.
func shortestExit(r, s Rect) pushSide {
	side, best := pushLeft, r.MaxX-s.MinX
	if d := s.MaxX - r.MinX; d < best {
		side, best = pushRight, d
	}
	if d := r.MaxY - s.MinY; d < best {
		side, best = pushUp, d
	}
	if d := s.MaxY - r.MinY; d < best {
		side = pushDown
	}
	return side
}

// resolveContacts separates overlapping dynamic bodies using the spatial grid
// as broad phase. A dragged body behaves as if it had infinite mass.
func (w *World) resolveContacts() {
	if len(w.bodies) < 2 {
		return
	}

	var extent float64
	for _, b := range w.bodies {
		extent = math.Max(extent, math.Max(b.Width, b.Height))
	}
	area := Rect{MaxX: w.viewport.Width, MaxY: w.viewport.Height}.Expand(w.cfg.GridMargin)
	w.grid.Reset(area, extent)
	for i, b := range w.bodies {
		w.grid.Insert(b.Pos, i)
	}

	for i, a := range w.bodies {
		w.grid.QueryAround(a.Pos, func(j int) bool {
			if j <= i {
				return false // Skip self and already-checked pairs
			}
			w.separate(a, w.bodies[j])
			return false
		})
	}
}

func (w *World) separate(a, b *Body) {
	ar, br := a.Bounds(), b.Bounds()
	dx, dy := ar.Overlap(br)
	if dx <= collisionEpsilon || dy <= collisionEpsilon {
		return
	}

	invA, invB := 1/a.Mass, 1/b.Mass
	if w.isDragged(a) {
		invA = 0
	}
	if w.isDragged(b) {
		invB = 0
	}
	total := invA + invB
	if total == 0 {
		return
	}

	var n Vec2
	depth := dx
	if dx < dy {
		n = Vec2{X: 1}
		if b.Pos.X < a.Pos.X {
			n.X = -1
		}
	} else {
		depth = dy
		n = Vec2{Y: 1}
		if b.Pos.Y < a.Pos.Y {
			n.Y = -1
		}
	}

	a.Pos = a.Pos.Sub(n.Scale(depth * invA / total))
	b.Pos = b.Pos.Add(n.Scale(depth * invB / total))

	rel := b.Vel.Sub(a.Vel)
	vn := rel.X*n.X + rel.Y*n.Y
	if vn >= 0 {
		return // Already separating
	}
	e := math.Max(a.Restitution, b.Restitution)
	j := -(1 + e) * vn / total
	a.Vel = a.Vel.Sub(n.Scale(j * invA))
	b.Vel = b.Vel.Add(n.Scale(j * invB))
}
