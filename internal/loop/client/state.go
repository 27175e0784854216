package client

import (
	"strings"
	"time"

	"github.com/tomz197/phoalbum/internal/input"
	"github.com/tomz197/phoalbum/internal/physics"
	"github.com/tomz197/phoalbum/internal/store"
)

// ClientState holds per-connection UI state. The page itself lives in the
// session; the client only keeps what the terminal needs on top of it.
type ClientState struct {
	Input   input.Input
	Running bool // Client loop running

	Pointer    physics.Vec2 // Last mouse position in viewport pixels
	HasPointer bool
	Pressed    bool // A mouse button is held

	Dialog *Dialog // Add-item dialog, nil when closed
	Help   bool    // About overlay

	status      string    // Transient message on the status line
	statusUntil time.Time // When status expires
	lastInput   time.Time
	isInactive  bool
	wasInactive bool
	delta       time.Duration // Frame delta time (client-side)
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{
		Running:   true,
		lastInput: time.Now(),
	}
}

// Dialog is the add-item text entry.
type Dialog struct {
	Text []byte
}

// Type guesses the item type from what was typed: paths and URLs are images.
func (d *Dialog) Type() store.ItemType {
	return itemTypeFor(string(d.Text))
}

// Backspace removes the last rune.
func (d *Dialog) Backspace() {
	s := []rune(string(d.Text))
	if len(s) == 0 {
		return
	}
	d.Text = []byte(string(s[:len(s)-1]))
}

func itemTypeFor(content string) store.ItemType {
	content = strings.TrimSpace(content)
	for _, prefix := range []string{"/", "http://", "https://", "data:image/"} {
		if strings.HasPrefix(content, prefix) {
			return store.TypeImage
		}
	}
	return store.TypeText
}

// setStatus shows msg on the status line for d.
func (s *ClientState) setStatus(msg string, d time.Duration) {
	s.status = msg
	s.statusUntil = time.Now().Add(d)
}

func (s *ClientState) statusText() string {
	if s.status == "" || time.Now().After(s.statusUntil) {
		return ""
	}
	return s.status
}
