package event

import "time"

// Type identifies an event published on the Bus.
type Type int

const (
	// TierChanged fires after a committed tier transition
	// Trigger: tier.Controller | Payload: *TierChangedPayload
	TierChanged Type = iota

	// ScrollChanged fires when the virtual scroll position moves
	// Trigger: tier.Controller | Payload: *ScrollChangedPayload
	ScrollChanged

	// SectionChanged tells the navigation UI which entry to highlight
	// Trigger: tier.Controller | Payload: *SectionChangedPayload
	SectionChanged

	// IdeasChanged fires when the Ideas marker enters or leaves the viewport band
	// Trigger: tier.Controller | Payload: *IdeasChangedPayload
	IdeasChanged

	// ModeChanged fires when the falling-words world switches simulation mode
	// Trigger: session | Payload: *ModeChangedPayload
	ModeChanged

	// ContentChanged fires when board items are added or deleted
	// Trigger: session | Payload: *ContentChangedPayload
	ContentChanged
)

var typeNames = [...]string{
	TierChanged:    "tier_changed",
	ScrollChanged:  "scroll_changed",
	SectionChanged: "section_changed",
	IdeasChanged:   "ideas_changed",
	ModeChanged:    "mode_changed",
	ContentChanged: "content_changed",
}

func (t Type) String() string {
	if int(t) >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// Event is a single published notification.
type Event struct {
	Type    Type
	Payload any
	Time    time.Time
}
