// Package input turns device events into scroll deltas and drag operations.
package input

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/tomz197/phoalbum/internal/logging"
	"github.com/tomz197/phoalbum/internal/physics"
	"github.com/tomz197/phoalbum/internal/tier"
)

// TouchDeadZone is the smallest touch movement, in pixels, that scrolls.
const TouchDeadZone = 5.0

// ScrollSink consumes normalized deltas. Positive is forward.
type ScrollSink interface {
	OnDelta(delta float64) tier.Outcome
}

// DragSink is the part of the physics world the binding drives.
type DragSink interface {
	Body(id string) (*physics.Body, bool)
	BeginDrag(id string, grabOffset physics.Vec2) error
	UpdateDrag(pointer physics.Vec2)
	EndDrag() (physics.Vec2, bool)
	Dragging() (string, bool)
}

// Binding normalizes wheel, touch and pointer events. Wheel deltaY is used
// as is; a single-finger swipe yields the distance between successive samples,
// inverted so an upward swipe is forward. Multi-touch and all scroll input
// while the modal is open are ignored.
type Binding struct {
	scroll ScrollSink
	drag   DragSink
	logger *log.Logger

	modal bool

	touching bool
	touchY   float64

	pointer    physics.Vec2
	hasPointer bool
}

// NewBinding creates a binding. drag may be nil when no world is attached.
func NewBinding(scroll ScrollSink, drag DragSink, logger *log.Logger) *Binding {
	return &Binding{
		scroll: scroll,
		drag:   drag,
		logger: logging.For(logger, "input"),
	}
}

// SetDragSink attaches the world that receives drag operations.
func (b *Binding) SetDragSink(d DragSink) {
	b.drag = d
}

// SetModal records whether the add-item dialog is open.
func (b *Binding) SetModal(open bool) {
	b.modal = open
	if open {
		b.touching = false
	}
}

// Modal reports whether the add-item dialog is open.
func (b *Binding) Modal() bool {
	return b.modal
}

// OnWheel forwards deltaY. The bool is false when the event was ignored.
func (b *Binding) OnWheel(deltaY float64) (tier.Outcome, bool) {
	if b.modal || b.scroll == nil || deltaY == 0 {
		return tier.Outcome{}, false
	}
	return b.scroll.OnDelta(deltaY), true
}

// OnTouchStart begins a swipe. Anything but exactly one finger cancels it.
func (b *Binding) OnTouchStart(points []physics.Vec2) {
	if b.modal || len(points) != 1 {
		b.touching = false
		return
	}
	b.touching = true
	b.touchY = points[0].Y
}

// OnTouchMove turns finger movement into a delta. Movements inside the dead
// zone are dropped without moving the reference point.
func (b *Binding) OnTouchMove(points []physics.Vec2) (tier.Outcome, bool) {
	if b.modal || !b.touching || b.scroll == nil {
		return tier.Outcome{}, false
	}
	if len(points) != 1 {
		b.touching = false
		return tier.Outcome{}, false
	}
	y := points[0].Y
	delta := b.touchY - y
	if math.Abs(delta) < TouchDeadZone {
		return tier.Outcome{}, false
	}
	b.touchY = y
	return b.scroll.OnDelta(delta), true
}

// OnTouchEnd finishes the swipe.
func (b *Binding) OnTouchEnd() {
	b.touching = false
}

// OnPointerDown records the pointer and grabs bodyID when it is set. An empty
// id only moves the repulsion point.
func (b *Binding) OnPointerDown(bodyID string, point physics.Vec2) error {
	b.pointer, b.hasPointer = point, true
	if b.modal || bodyID == "" || b.drag == nil {
		return nil
	}
	body, ok := b.drag.Body(bodyID)
	if !ok {
		b.logger.Debug("pointer down on unknown body", "id", bodyID)
		return physics.ErrBodyNotFound
	}
	return b.drag.BeginDrag(bodyID, point.Sub(body.Pos))
}

// OnPointerMove updates the pointer and the drag target.
func (b *Binding) OnPointerMove(point physics.Vec2) {
	b.pointer, b.hasPointer = point, true
	if b.drag == nil {
		return
	}
	if _, ok := b.drag.Dragging(); ok {
		b.drag.UpdateDrag(point)
	}
}

// OnPointerUp releases the dragged body with its fling velocity.
func (b *Binding) OnPointerUp() {
	if b.drag == nil {
		return
	}
	if fling, ok := b.drag.EndDrag(); ok {
		b.logger.Debug("released", "fling", fling)
	}
}

// OnPointerLeave forgets the pointer so repulsion stops, and releases any
// drag as if the pointer went up.
func (b *Binding) OnPointerLeave() {
	b.hasPointer = false
	b.OnPointerUp()
}

// Repulsor returns the pointer position that repels bodies this frame. There
// is none while a body is dragged or the pointer has left.
func (b *Binding) Repulsor() (physics.Vec2, bool) {
	if !b.hasPointer {
		return physics.Vec2{}, false
	}
	if b.drag != nil {
		if _, ok := b.drag.Dragging(); ok {
			return physics.Vec2{}, false
		}
	}
	return b.pointer, true
}
