package session

import (
	"errors"
	"time"

	"github.com/tomz197/phoalbum/internal/physics"
	"github.com/tomz197/phoalbum/internal/store"
	"github.com/tomz197/phoalbum/internal/tier"
)

// The methods below are safe to call from any goroutine. Each one queues a
// command for the next frame and reports whether it was accepted.

// Wheel feeds a wheel deltaY. Positive scrolls forward.
func (s *Session) Wheel(deltaY float64) bool {
	return s.Enqueue(func(s *Session) {
		s.binding.OnWheel(deltaY)
	})
}

// TouchStart begins a swipe. points are the active touches in viewport pixels.
func (s *Session) TouchStart(points []physics.Vec2) bool {
	points = append([]physics.Vec2(nil), points...)
	return s.Enqueue(func(s *Session) {
		s.binding.OnTouchStart(points)
	})
}

// TouchMove continues a swipe.
func (s *Session) TouchMove(points []physics.Vec2) bool {
	points = append([]physics.Vec2(nil), points...)
	return s.Enqueue(func(s *Session) {
		s.binding.OnTouchMove(points)
	})
}

// TouchEnd finishes a swipe.
func (s *Session) TouchEnd() bool {
	return s.Enqueue(func(s *Session) {
		s.binding.OnTouchEnd()
	})
}

// PointerDown presses at p in viewport pixels. On the Works board or among
// the visible falling words the body under the pointer is grabbed, or bodyID
// when it is set.
func (s *Session) PointerDown(bodyID string, p physics.Vec2) bool {
	return s.Enqueue(func(s *Session) {
		local, world := s.pointerTarget(p)
		if world == nil {
			bodyID = ""
		} else {
			if world != s.board {
				s.board.AbandonDrag()
			}
			if world != s.words {
				s.words.AbandonDrag()
			}
			s.binding.SetDragSink(world)
			if bodyID == "" {
				bodyID, _ = world.BodyAt(local)
			}
		}
		if err := s.binding.OnPointerDown(bodyID, local); err != nil {
			s.logger.Debug("pointer down ignored", "id", bodyID, "err", err)
		}
	})
}

// PointerMove moves the pointer to p in viewport pixels.
func (s *Session) PointerMove(p physics.Vec2) bool {
	return s.Enqueue(func(s *Session) {
		local, _ := s.toBoard(p)
		s.binding.OnPointerMove(local)
	})
}

// PointerUp releases any dragged body with its fling velocity.
func (s *Session) PointerUp() bool {
	return s.Enqueue(func(s *Session) {
		s.binding.OnPointerUp()
	})
}

// PointerLeave forgets the pointer.
func (s *Session) PointerLeave() bool {
	return s.Enqueue(func(s *Session) {
		s.binding.OnPointerLeave()
	})
}

// Goto navigates directly to t (deep links, navigation entries).
func (s *Session) Goto(t tier.Tier) bool {
	return s.Enqueue(func(s *Session) {
		s.ctrl.GotoTier(t, tier.GotoOptions{})
	})
}

// Home is the home reset.
func (s *Session) Home() bool {
	return s.Enqueue(func(s *Session) {
		s.ctrl.Reset()
	})
}

// SettleWorks unlocks Works once the renderer finished its entry animation.
// Without it the session settles on its own after the animation length.
func (s *Session) SettleWorks() bool {
	return s.Enqueue(func(s *Session) {
		s.settleAt = time.Time{}
		s.ctrl.SettleWorks()
	})
}

// DocumentScroll sets the Works page scrollTop reported by a renderer with
// its own scroll container.
func (s *Session) DocumentScroll(top float64) bool {
	return s.Enqueue(func(s *Session) {
		s.scrollDocument(top)
	})
}

// IdeasMarker reports the Ideas section extent measured by the renderer.
func (s *Session) IdeasMarker(top, bottom float64) bool {
	return s.Enqueue(func(s *Session) {
		s.ctrl.UpdateIdeasMarker(top, bottom, s.viewport.Height)
	})
}

// Overlay opens or closes the About overlay.
func (s *Session) Overlay(open bool) bool {
	return s.Enqueue(func(s *Session) {
		s.ctrl.SetOverlay(open)
	})
}

// Modal opens or closes the add-item dialog.
func (s *Session) Modal(open bool) bool {
	return s.Enqueue(func(s *Session) {
		s.binding.SetModal(open)
	})
}

// Resize applies a new viewport. Boundaries are rebuilt for both worlds and
// the scroll range is recomputed. Degenerate sizes are ignored.
func (s *Session) Resize(vp physics.Viewport) bool {
	if err := vp.Validate(); err != nil {
		s.logger.Debug("resize ignored", "err", err)
		return false
	}
	return s.Enqueue(func(s *Session) {
		s.resize(vp)
	})
}

// TriggerWords starts the falling words.
func (s *Session) TriggerWords() bool {
	return s.Enqueue(func(s *Session) {
		s.triggerWords()
	})
}

// AddItem adds a text or image to the board.
func (s *Session) AddItem(t store.ItemType, content string) bool {
	return s.Enqueue(func(s *Session) {
		if _, err := s.addItem(t, content); err != nil {
			s.logger.Warn("add item rejected", "err", err)
		}
	})
}

// DeleteItem removes a board item by id.
func (s *Session) DeleteItem(id string) bool {
	return s.Enqueue(func(s *Session) {
		if err := s.deleteItem(id); err != nil {
			if errors.Is(err, physics.ErrBodyNotFound) {
				s.logger.Debug("delete ignored", "err", err)
				return
			}
			s.logger.Warn("delete failed", "err", err)
		}
	})
}

// toBoard maps a viewport point into board coordinates. onBoard is false
// unless the Works page is showing.
func (s *Session) toBoard(p physics.Vec2) (local physics.Vec2, onBoard bool) {
	if s.ctrl.State().Tier != tier.Works {
		return p, false
	}
	return physics.Vec2{X: p.X, Y: p.Y - s.doc.BoardOffset()}, true
}

// pointerTarget picks the world a press at p lands in: the board while the
// Works page shows, the falling words while they are on screen, else none.
func (s *Session) pointerTarget(p physics.Vec2) (physics.Vec2, *physics.World) {
	if local, onBoard := s.toBoard(p); onBoard {
		return local, s.board
	}
	if s.wordsVisible() && s.wordsSpawned {
		return p, s.words
	}
	return p, nil
}

func (s *Session) resize(vp physics.Viewport) {
	if vp == s.viewport {
		return
	}
	s.viewport = vp
	scroll := s.doc.Scroll
	s.doc = newDocument(vp)
	s.doc.Scroll = min(scroll, s.doc.MaxScroll(vp.Height))

	s.ctrl.Resize(vp.Height)
	s.words.SetViewport(vp)
	s.words.SetLayout(wordsLayout(vp))
	s.board.SetViewport(vp)
	if s.ctrl.State().Tier == tier.Works {
		s.ctrl.SetDocumentScroll(s.doc.Scroll)
		s.updateIdeasMarker()
	}
	s.logger.Debug("resized", "viewport", vp)
}
