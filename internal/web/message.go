package web

import (
	"errors"
	"fmt"

	"github.com/tomz197/phoalbum/internal/event"
	"github.com/tomz197/phoalbum/internal/loop/session"
	"github.com/tomz197/phoalbum/internal/physics"
	"github.com/tomz197/phoalbum/internal/store"
	"github.com/tomz197/phoalbum/internal/tier"
)

// ErrBadMessage is returned for inbound messages that cannot be applied.
var ErrBadMessage = errors.New("bad message")

// Point is a pointer or touch position in viewport pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) vec() physics.Vec2 {
	return physics.Vec2{X: p.X, Y: p.Y}
}

// Message is an input message sent by a browser renderer. Which fields are
// read depends on Type.
type Message struct {
	Type string `json:"type"`

	DeltaY float64 `json:"deltaY,omitempty"` // wheel
	Points []Point `json:"points,omitempty"` // touchstart, touchmove
	X      float64 `json:"x,omitempty"`      // pointer*
	Y      float64 `json:"y,omitempty"`
	ID     string  `json:"id,omitempty"` // pointerdown, delete

	Tier string `json:"tier,omitempty"` // goto: tier name or deep-link path

	ItemType string `json:"itemType,omitempty"` // add
	Content  string `json:"content,omitempty"`

	Open bool `json:"open,omitempty"` // modal, overlay

	Width  float64 `json:"width,omitempty"` // resize
	Height float64 `json:"height,omitempty"`

	Top    float64 `json:"top,omitempty"` // scroll, ideas
	Bottom float64 `json:"bottom,omitempty"`
}

// apply queues the session command for m.
func apply(s *session.Session, m Message) error {
	ok := true
	switch m.Type {
	case "wheel":
		ok = s.Wheel(m.DeltaY)
	case "touchstart":
		ok = s.TouchStart(points(m.Points))
	case "touchmove":
		ok = s.TouchMove(points(m.Points))
	case "touchend":
		ok = s.TouchEnd()
	case "pointerdown":
		ok = s.PointerDown(m.ID, physics.Vec2{X: m.X, Y: m.Y})
	case "pointermove":
		ok = s.PointerMove(physics.Vec2{X: m.X, Y: m.Y})
	case "pointerup":
		ok = s.PointerUp()
	case "pointerleave":
		ok = s.PointerLeave()
	case "goto":
		t, found := tier.ParseTier(m.Tier)
		if !found {
			return fmt.Errorf("%w: unknown tier %q", ErrBadMessage, m.Tier)
		}
		ok = s.Goto(t)
	case "home":
		ok = s.Home()
	case "add":
		it := store.ContentItem{Type: store.ItemType(m.ItemType), Content: m.Content}
		if err := it.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrBadMessage, err)
		}
		ok = s.AddItem(it.Type, it.Content)
	case "delete":
		ok = s.DeleteItem(m.ID)
	case "modal":
		ok = s.Modal(m.Open)
	case "overlay":
		ok = s.Overlay(m.Open)
	case "resize":
		vp := physics.Viewport{Width: m.Width, Height: m.Height}
		if err := vp.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrBadMessage, err)
		}
		ok = s.Resize(vp)
	case "settle":
		ok = s.SettleWorks()
	case "scroll":
		ok = s.DocumentScroll(m.Top)
	case "ideas":
		ok = s.IdeasMarker(m.Top, m.Bottom)
	case "trigger":
		ok = s.TriggerWords()
	default:
		return fmt.Errorf("%w: unknown type %q", ErrBadMessage, m.Type)
	}
	if !ok {
		return fmt.Errorf("%s dropped: session busy", m.Type)
	}
	return nil
}

func points(ps []Point) []physics.Vec2 {
	out := make([]physics.Vec2, len(ps))
	for i, p := range ps {
		out[i] = p.vec()
	}
	return out
}

// Body is a body as sent to browsers.
type Body struct {
	ID      string  `json:"id"`
	Kind    string  `json:"kind"` // text or image
	Content string  `json:"content"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Angle   float64 `json:"angle"`
	Opacity float64 `json:"opacity"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Font    float64 `json:"fontSize,omitempty"`
	Dragged bool    `json:"dragged,omitempty"`
}

func bodies(states []physics.BodyState) []Body {
	out := make([]Body, 0, len(states))
	for _, b := range states {
		wb := Body{
			ID:      b.ID,
			Content: b.Content(),
			X:       b.Pos.X,
			Y:       b.Pos.Y,
			Angle:   b.Angle,
			Opacity: b.Opacity,
			Width:   b.Width,
			Height:  b.Height,
			Dragged: b.Dragged,
		}
		switch k := b.Kind.(type) {
		case physics.Text:
			wb.Kind = "text"
			wb.Font = k.FontSize
		case physics.Image:
			wb.Kind = "image"
		}
		out = append(out, wb)
	}
	return out
}

// Frame is the snapshot message streamed to browsers.
type Frame struct {
	Type  string `json:"type"` // "snapshot"
	Frame uint64 `json:"frame"`

	Tier          string  `json:"tier"`
	Current       string  `json:"current"` // Ideas while the marker is in view
	Section       string  `json:"section"`
	VirtualScroll float64 `json:"virtualScroll"`
	PageMax       float64 `json:"pageMax"`
	Progress      float64 `json:"progress"`
	IdeasActive   bool    `json:"ideasActive"`
	WorksLocked   bool    `json:"worksLocked"`
	Overlay       bool    `json:"overlay"`

	WordsMode    string  `json:"wordsMode"`
	WordsVisible bool    `json:"wordsVisible"`
	Words        []Body  `json:"words"`
	FloorY       float64 `json:"floorY"`

	Board      []Body  `json:"board"`
	BoardTop   float64 `json:"boardTop"`
	PageScroll float64 `json:"pageScroll"`
	Items      int     `json:"items"`
	Modal      bool    `json:"modal"`
}

func newFrame(snap *session.Snapshot) Frame {
	st := snap.Scroll
	return Frame{
		Type:          "snapshot",
		Frame:         snap.Frame,
		Tier:          st.Tier.String(),
		Current:       st.Current().String(),
		Section:       st.Section,
		VirtualScroll: st.VirtualScroll,
		PageMax:       st.PageMax,
		Progress:      st.Progress,
		IdeasActive:   st.IdeasActive,
		WorksLocked:   st.WorksLocked,
		Overlay:       st.Overlay,
		WordsMode:     snap.WordsMode.String(),
		WordsVisible:  snap.WordsVisible,
		Words:         bodies(snap.Words),
		FloorY:        snap.Layout.FloorY,
		Board:         bodies(snap.Board),
		BoardTop:      snap.Document.BoardTop,
		PageScroll:    snap.Document.Scroll,
		Items:         snap.Items,
		Modal:         snap.Modal,
	}
}

// Notice forwards a session event to the browser.
type Notice struct {
	Type    string `json:"type"` // "event"
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

func newNotice(e event.Event) Notice {
	return Notice{Type: "event", Event: e.Type.String(), Payload: e.Payload}
}

// Failure reports a rejected inbound message.
type Failure struct {
	Type  string `json:"type"` // "error"
	Error string `json:"error"`
}
