// Package physics simulates labeled rectangular bodies (words and images)
// inside a set of static boundaries: gravity or buoyant drift, pointer
// repulsion, manual dragging and boundary collisions.
//
// Time is measured in ticks of a 60Hz reference frame so velocities read as
// "pixels per frame", matching the feel of the original tuning values.
package physics

import "math"

// ReferenceRate is the number of ticks per second. Step converts wall-clock
// durations into ticks using this rate.
const ReferenceRate = 60.0

// Vec2 is a 2D vector in viewport pixels (y grows downward).
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v * f.
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }

// Len returns the magnitude of v.
func (v Vec2) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y) }

// LenSq returns the squared magnitude of v.
// Use this when comparing distances to avoid the sqrt cost.
func (v Vec2) LenSq() float64 { return v.X*v.X + v.Y*v.Y }

// Normalize returns the unit vector of v, or the zero vector.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Distance calculates the Euclidean distance between two points.
func Distance(a, b Vec2) float64 {
	return b.Sub(a).Len()
}

// PointInCircle checks if a point is within radius of a target position.
func PointInCircle(p, c Vec2, radius float64) bool {
	return c.Sub(p).LenSq() <= radius*radius
}

// Viewport is the visible surface the world is laid out against.
type Viewport struct {
	Width, Height float64
}

// Valid reports whether the viewport has a positive area.
func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0
}

// Validate returns ErrDegenerateViewport for zero or negative sizes.
func (v Viewport) Validate() error {
	if !v.Valid() {
		return ErrDegenerateViewport
	}
	return nil
}

// Center returns the middle of the viewport.
func (v Viewport) Center() Vec2 {
	return Vec2{v.Width / 2, v.Height / 2}
}
