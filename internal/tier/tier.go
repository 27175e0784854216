// Package tier interprets scroll and swipe deltas as a bounded virtual scroll
// position plus discrete page tiers with thresholds and a switch cooldown.
package tier

import (
	"math"
	"time"
)

// Tier is an ordered page stage. Ideas is never committed by deltas; it is
// derived from the Ideas marker position while in Works.
type Tier int

const (
	Home Tier = iota
	Phoalbum
	Videos
	Works
	Ideas
)

var tierNames = [...]string{
	Home:     "Home",
	Phoalbum: "Phoalbum",
	Videos:   "Videos",
	Works:    "Works",
	Ideas:    "Ideas",
}

func (t Tier) String() string {
	if t >= Home && t <= Ideas {
		return tierNames[t]
	}
	return "Unknown"
}

// ParseTier maps a tier name (case-sensitive, as printed by String) or a
// deep-link path ("/videos", "/ideas") to a Tier.
func ParseTier(s string) (Tier, bool) {
	switch s {
	case "/", "":
		return Home, true
	case "/videos":
		return Videos, true
	case "/ideas":
		return Ideas, true
	}
	for i, name := range tierNames {
		if name == s {
			return Tier(i), true
		}
	}
	return Home, false
}

// Navigation section names, as shown by the navbar.
const (
	SectionHome     = "Home"
	SectionPhoalbum = "Phoalbum"
	SectionVideos   = "Videos"
	SectionWorks    = "My Works"
	SectionIdeas    = "Some Idea"
	SectionAbout    = "About meee^"
)

// Config holds the tuned thresholds. Deltas are in wheel units (CSS pixels).
type Config struct {
	SwitchCooldown     time.Duration // Minimum time between committed transitions
	NavigationSuppress time.Duration // Input ignored after a programmatic jump
	OverlaySuppress    time.Duration // Input ignored after the About overlay closes

	ForwardThreshold      float64 // Home->Phoalbum, Phoalbum->Videos, Videos->Works
	PhoalbumBackThreshold float64 // Phoalbum->Home
	VideosBackThreshold   float64 // Videos->Phoalbum
	WorksExitThreshold    float64 // Works->Videos, only at the document top
	WorksTopTolerance     float64 // Document scrollTop still counted as "top"

	ScrollRatio     float64 // Page height fraction used as the scroll base
	MinScrollBase   float64
	ScrollExtension float64 // MaxVirtualScroll = base * ScrollExtension

	IdeasBandTop    float64 // Ideas band, as viewport fractions from the top
	IdeasBandBottom float64

	ViewportHeight float64 // Initial page height below the nav bar
}

// DefaultConfig returns the tuned values.
func DefaultConfig() Config {
	return Config{
		SwitchCooldown:     800 * time.Millisecond,
		NavigationSuppress: 1000 * time.Millisecond,
		OverlaySuppress:    1000 * time.Millisecond,

		ForwardThreshold:      15,
		PhoalbumBackThreshold: 15,
		VideosBackThreshold:   30,
		WorksExitThreshold:    100,
		WorksTopTolerance:     5,

		ScrollRatio:     0.28,
		MinScrollBase:   120,
		ScrollExtension: 2.2,

		IdeasBandTop:    0.25,
		IdeasBandBottom: 0.30,

		ViewportHeight: 800,
	}
}

// scrollBase returns pageMax for a page height; MaxVirtualScroll is
// base * ScrollExtension.
func (c Config) scrollBase(h float64) float64 {
	return math.Max(math.Round(h*c.ScrollRatio), c.MinScrollBase)
}

// Clock returns the current time.
type Clock func() time.Time

// Rejection says why a delta produced no transition.
type Rejection int

const (
	Accepted    Rejection = iota
	Cooldown              // Inside SWITCH_COOLDOWN of the last transition
	Threshold             // |delta| below the tier's threshold
	Suppressed            // Inside a navigation or overlay suppression window
	Overlay               // About overlay open
	Locked                // Works entry/exit animation still running
	PassThrough           // Works: left to native document scrolling
	Clamped               // Continuous scroll already at the boundary
)

var rejectionNames = [...]string{
	Accepted:    "accepted",
	Cooldown:    "cooldown",
	Threshold:   "threshold",
	Suppressed:  "suppressed",
	Overlay:     "overlay",
	Locked:      "locked",
	PassThrough: "pass-through",
	Clamped:     "clamped",
}

func (r Rejection) String() string {
	if r >= Accepted && r <= Clamped {
		return rejectionNames[r]
	}
	return "unknown"
}

// Outcome is the result of feeding one delta to the controller.
type Outcome struct {
	// Consumed is false when the delta should fall through to native
	// document scrolling (Works, overlay, suppression windows).
	Consumed bool
	// Changed is true when the tier or the virtual scroll moved.
	Changed bool
	Reason  Rejection
}

// State is a copy of the controller state for renderers.
type State struct {
	VirtualScroll float64
	Max           float64 // MaxVirtualScroll
	PageMax       float64 // Max / ScrollExtension
	Progress      float64 // Page-one progress p1 in [0, 1]
	Tier          Tier    // Committed tier, never Ideas
	IdeasActive   bool
	WorksLocked   bool // Entry/exit animation in progress
	Overlay       bool
	Section       string
}

// Current returns Ideas while the marker is in view, else the committed tier.
func (s State) Current() Tier {
	if s.Tier == Works && s.IdeasActive {
		return Ideas
	}
	return s.Tier
}

// GotoOptions tunes programmatic navigation.
type GotoOptions struct {
	// SuppressFor overrides the post-jump input suppression window.
	// Zero uses Config.NavigationSuppress; negative disables suppression.
	SuppressFor time.Duration
}
