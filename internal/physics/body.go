package physics

import (
	"math"
	"unicode/utf8"
)

// Density converts body area to mass.
const Density = 0.001

// Image bodies use a fixed box regardless of the source image.
const (
	ImageWidth  = 180.0
	ImageHeight = 120.0
)

// Kind is the cosmetic payload attached to a body. It is either Text or Image;
// consumers select on it with a type switch.
type Kind interface {
	kind()
}

// Text is a word label.
type Text struct {
	Content  string
	FontSize float64
}

// Image is a picture referenced by source (path, URL or data URL).
type Image struct {
	Source string
}

func (Text) kind()  {}
func (Image) kind() {}

// TextMetrics is the size heuristic for text bodies:
// width = runes * fontSize * CharWidth + PadX, height = fontSize * HeightScale + PadY.
type TextMetrics struct {
	CharWidth   float64
	PadX        float64
	HeightScale float64
	PadY        float64
}

var (
	// FallingText sizes the falling hero words.
	FallingText = TextMetrics{CharWidth: 0.6, PadX: 20, HeightScale: 1, PadY: 8}
	// BoardText sizes the inspiration board words.
	BoardText = TextMetrics{CharWidth: 0.6, PadX: 30, HeightScale: 1.1}
)

// Size returns the bounding box for content rendered at fontSize.
func (m TextMetrics) Size(content string, fontSize float64) (w, h float64) {
	n := float64(utf8.RuneCountInString(content))
	return n*fontSize*m.CharWidth + m.PadX, fontSize*m.HeightScale + m.PadY
}

// Body is a rectangular collidable. Position is the center of the bounding box.
// Static bodies never move and never receive forces.
type Body struct {
	ID   string
	Kind Kind

	Pos        Vec2
	Vel        Vec2
	Angle      float64
	AngularVel float64

	Width  float64
	Height float64
	Mass   float64

	FrictionAir float64
	Restitution float64
	Opacity     float64
	Static      bool

	force Vec2
	prev  Vec2 // position before the current integration, used to find the entry side
}

// NewTextBody creates a dynamic body sized for content at fontSize.
func NewTextBody(id, content string, fontSize float64, m TextMetrics) *Body {
	w, h := m.Size(content, fontSize)
	return newDynamic(id, Text{Content: content, FontSize: fontSize}, w, h)
}

// NewImageBody creates a dynamic body with the fixed image box.
func NewImageBody(id, source string) *Body {
	return newDynamic(id, Image{Source: source}, ImageWidth, ImageHeight)
}

func newDynamic(id string, k Kind, w, h float64) *Body {
	return &Body{
		ID:          id,
		Kind:        k,
		Width:       w,
		Height:      h,
		Mass:        math.Max(w*h*Density, 1e-6),
		FrictionAir: 0.01,
		Restitution: 0.6,
		Opacity:     1,
	}
}

// NewStatic creates a static rectangle centered at c.
func NewStatic(id string, c Vec2, w, h float64) *Body {
	return &Body{
		ID:     id,
		Pos:    c,
		prev:   c,
		Width:  w,
		Height: h,
		Static: true,
	}
}

// Bounds returns the axis-aligned bounding box. Rotation is ignored for collisions.
func (b *Body) Bounds() Rect {
	return RectFrom(b.Pos, b.Width, b.Height)
}

// SetPosition moves the body without imparting velocity.
func (b *Body) SetPosition(p Vec2) {
	b.Pos = p
	b.prev = p
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// RectFrom builds a rectangle from its center and size.
func RectFrom(c Vec2, w, h float64) Rect {
	return Rect{MinX: c.X - w/2, MinY: c.Y - h/2, MaxX: c.X + w/2, MaxY: c.Y + h/2}
}

// Overlap returns the penetration depth on each axis. Both are positive only
// when the rectangles intersect.
func (r Rect) Overlap(o Rect) (dx, dy float64) {
	dx = math.Min(r.MaxX, o.MaxX) - math.Max(r.MinX, o.MinX)
	dy = math.Min(r.MaxY, o.MaxY) - math.Max(r.MinY, o.MinY)
	return dx, dy
}

// Overlaps reports whether the rectangles intersect by more than eps on both axes.
func (r Rect) Overlaps(o Rect, eps float64) bool {
	dx, dy := r.Overlap(o)
	return dx > eps && dy > eps
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Expand grows the rectangle by m on every side.
func (r Rect) Expand(m float64) Rect {
	return Rect{MinX: r.MinX - m, MinY: r.MinY - m, MaxX: r.MaxX + m, MaxY: r.MaxY + m}
}
