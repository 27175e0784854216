package event

// TierChangedPayload describes a committed tier transition.
type TierChangedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
	// Programmatic is set for direct navigation (deep links, home reset).
	Programmatic bool `json:"programmatic"`
	// ScrollToIdeas asks the renderer to bring the Ideas marker into view.
	ScrollToIdeas bool `json:"scrollToIdeas"`
}

// ScrollChangedPayload carries the new virtual scroll position.
type ScrollChangedPayload struct {
	VirtualScroll float64 `json:"virtualScroll"`
	PageMax       float64 `json:"pageMax"`
	Progress      float64 `json:"progress"` // VirtualScroll / PageMax, clamped to [0, 1]
}

// SectionChangedPayload carries the navigation entry name, e.g. "My Works".
type SectionChangedPayload struct {
	Section string `json:"section"`
}

// IdeasChangedPayload carries the derived Ideas flag.
type IdeasChangedPayload struct {
	Active bool `json:"active"`
}

// ModeChangedPayload carries the simulation mode name.
type ModeChangedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ContentChangedPayload summarizes a board content change.
type ContentChangedPayload struct {
	Added   string `json:"added,omitempty"`   // Item id, empty when nothing was added
	Removed string `json:"removed,omitempty"` // Item id, empty when nothing was removed
	Count   int    `json:"count"`
}
