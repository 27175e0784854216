package physics

// BodyState is the read-only view of a body handed to renderers.
type BodyState struct {
	ID      string
	Kind    Kind
	Pos     Vec2
	Angle   float64
	Opacity float64
	Width   float64
	Height  float64
	Dragged bool
}

// Content returns the text or image source carried by the body.
func (s BodyState) Content() string {
	switch k := s.Kind.(type) {
	case Text:
		return k.Content
	case Image:
		return k.Source
	default:
		return ""
	}
}

// Snapshot appends the state of every dynamic body to dst and returns it.
// Pass dst[:0] to reuse a buffer between frames.
func (w *World) Snapshot(dst []BodyState) []BodyState {
	for _, b := range w.bodies {
		dst = append(dst, BodyState{
			ID:      b.ID,
			Kind:    b.Kind,
			Pos:     b.Pos,
			Angle:   b.Angle,
			Opacity: b.Opacity,
			Width:   b.Width,
			Height:  b.Height,
			Dragged: w.isDragged(b),
		})
	}
	return dst
}
