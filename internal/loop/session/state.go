package session

import (
	"time"

	"github.com/tomz197/phoalbum/internal/loop/config"
	"github.com/tomz197/phoalbum/internal/physics"
	"github.com/tomz197/phoalbum/internal/tier"
)

// Document is the emulated Works page. All values are in page pixels; Scroll
// is the current scrollTop.
type Document struct {
	Scroll      float64
	Height      float64
	IdeasTop    float64 // Top of the Ideas section
	IdeasBottom float64
	BoardTop    float64 // Top of the inspiration board inside the page
}

// newDocument lays the page out for a viewport.
func newDocument(vp physics.Viewport) Document {
	top := vp.Height * config.IdeasTopRatio
	board := top + config.IdeasHeading
	return Document{
		Height:      board + vp.Height,
		IdeasTop:    top,
		IdeasBottom: board + vp.Height,
		BoardTop:    board,
	}
}

// MaxScroll is the largest scrollTop for a viewport of height h.
func (d Document) MaxScroll(h float64) float64 {
	return max(d.Height-h, 0)
}

// BoardOffset is the vertical distance from board coordinates to viewport
// coordinates at the current scroll position.
func (d Document) BoardOffset() float64 {
	return d.BoardTop - d.Scroll
}

// Snapshot is an immutable view of a session frame for renderers.
type Snapshot struct {
	Frame    uint64
	Time     time.Time
	Viewport physics.Viewport
	Scroll   tier.State

	Words        []physics.BodyState // Viewport coordinates
	WordsMode    physics.Mode
	WordsVisible bool
	Layout       physics.Layout

	Board    []physics.BodyState // Board coordinates, see Document.BoardOffset
	Document Document
	Items    int

	Modal bool
}

// BoardVisible reports whether any part of the board is on screen.
func (s *Snapshot) BoardVisible() bool {
	if s.Scroll.Tier != tier.Works {
		return false
	}
	off := s.Document.BoardOffset()
	return off < s.Viewport.Height && off+s.Viewport.Height > 0
}

// BoardAt returns the top-most board body under the viewport point p.
func (s *Snapshot) BoardAt(p physics.Vec2) (physics.BodyState, bool) {
	if !s.BoardVisible() {
		return physics.BodyState{}, false
	}
	local := physics.Vec2{X: p.X, Y: p.Y - s.Document.BoardOffset()}
	for i := len(s.Board) - 1; i >= 0; i-- {
		b := s.Board[i]
		if physics.RectFrom(b.Pos, b.Width, b.Height).Contains(local) {
			return b, true
		}
	}
	return physics.BodyState{}, false
}
