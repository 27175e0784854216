package physics

import (
	"hash/fnv"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Force strengths in pixels per tick squared (per unit mass).
const (
	RepulsionRadius   = 220.0
	RepulsionStrength = 0.556 // matter-js 0.002 at a 16.67ms step
	DriftStrength     = 0.139 // matter-js 0.0005 at a 16.67ms step
)

// ApplyPointRepulsion pushes bodies within radius of point away from it.
// The push falls off linearly to zero at radius and is scaled by mass so every
// body feels the same acceleration. Static and dragged bodies are skipped.
func (w *World) ApplyPointRepulsion(point Vec2, radius, strength float64) {
	if radius <= 0 {
		return
	}
	for _, b := range w.bodies {
		if b.Static || w.isDragged(b) {
			continue
		}
		d := b.Pos.Sub(point)
		distSq := d.LenSq()
		if distSq >= radius*radius || distSq == 0 {
			continue
		}
		dist := d.Len()
		mag := strength * (radius - dist) / radius * b.Mass
		b.force = b.force.Add(d.Scale(mag / dist))
	}
}

// Drifter produces the idle drift force for a body at simulated time t (ticks).
type Drifter interface {
	Force(b *Body, t float64) Vec2
}

// ApplyDrift adds the drifter's force to every free body for this step.
func (w *World) ApplyDrift(d Drifter) {
	if d == nil {
		return
	}
	for _, b := range w.bodies {
		if b.Static || w.isDragged(b) {
			continue
		}
		b.force = b.force.Add(d.Force(b, w.time))
	}
}

// RandomDrift applies a uniform random push in [-Strength/2, Strength/2] per axis.
type RandomDrift struct {
	Strength float64
	Rand     *rand.Rand
}

// Force implements Drifter.
func (r RandomDrift) Force(b *Body, _ float64) Vec2 {
	return Vec2{
		X: (r.Rand.Float64() - 0.5) * r.Strength * b.Mass,
		Y: (r.Rand.Float64() - 0.5) * r.Strength * b.Mass,
	}
}

// NoiseDrift samples a smooth opensimplex field so each body wanders along a
// continuous path instead of jittering.
type NoiseDrift struct {
	Strength  float64
	Frequency float64 // Field frequency in cycles per tick
	noise     opensimplex.Noise
}

// NewNoiseDrift creates a noise drift field from seed.
func NewNoiseDrift(seed int64, strength, frequency float64) *NoiseDrift {
	return &NoiseDrift{
		Strength:  strength,
		Frequency: frequency,
		noise:     opensimplex.NewNormalized(seed),
	}
}

// Force implements Drifter.
func (n *NoiseDrift) Force(b *Body, t float64) Vec2 {
	lane := bodyLane(b.ID)
	x := n.noise.Eval2(lane, t*n.Frequency) - 0.5
	y := n.noise.Eval2(lane+97.3, t*n.Frequency) - 0.5
	return Vec2{X: x * n.Strength * b.Mass, Y: y * n.Strength * b.Mass}
}

// bodyLane maps an id to a stable coordinate in the noise field.
func bodyLane(id string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return float64(h.Sum32()%10000) * 3.7
}
