package tier

import (
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/phoalbum/internal/event"
	"github.com/tomz197/phoalbum/internal/logging"
)

// Controller is the scroll-phase state machine. It is event driven and has
// no per-frame work. A Controller must be used from a single goroutine.
type Controller struct {
	cfg    Config
	pub    event.Publisher
	clock  Clock
	logger *log.Logger

	base          float64 // pageMax
	virtualScroll float64
	tier          Tier
	ideas         bool
	entering      bool // Works entry/exit animation running
	overlay       bool
	docScroll     float64

	lastSwitch    time.Time
	suppressUntil time.Time
	section       string
}

// New creates a controller at Home with virtual scroll 0. A nil publisher or
// clock falls back to a no-op publisher and time.Now.
func New(cfg Config, pub event.Publisher, clock Clock, logger *log.Logger) *Controller {
	if pub == nil {
		pub = event.Discard{}
	}
	if clock == nil {
		clock = time.Now
	}
	c := &Controller{
		cfg:     cfg,
		pub:     pub,
		clock:   clock,
		logger:  logging.For(logger, "tier"),
		section: SectionHome,
	}
	c.base = cfg.scrollBase(cfg.ViewportHeight)
	return c
}

// OnDelta feeds one normalized wheel/swipe delta. Positive is forward.
// Every delta is evaluated against the committed state; nothing is queued.
func (c *Controller) OnDelta(delta float64) Outcome {
	now := c.clock()

	if c.overlay {
		return Outcome{Reason: Overlay}
	}
	if now.Before(c.suppressUntil) {
		return Outcome{Reason: Suppressed}
	}

	switch c.tier {
	case Works:
		return c.worksDelta(delta, now)
	case Videos:
		return c.videosDelta(delta, now)
	case Phoalbum:
		return c.phoalbumDelta(delta, now)
	default:
		return c.homeDelta(delta, now)
	}
}

func (c *Controller) coolingDown(now time.Time) bool {
	return now.Sub(c.lastSwitch) < c.cfg.SwitchCooldown
}

func (c *Controller) worksDelta(delta float64, now time.Time) Outcome {
	if delta >= -c.cfg.WorksExitThreshold || c.docScroll > c.cfg.WorksTopTolerance {
		return Outcome{Reason: PassThrough}
	}
	if c.entering {
		return Outcome{Reason: Locked}
	}
	if c.coolingDown(now) {
		out := c.reject(Cooldown, delta)
		out.Consumed = false
		return out
	}
	c.entering = true // Locked until the exit animation settles
	c.commit(Videos, now, false)
	return Outcome{Consumed: true, Changed: true}
}

func (c *Controller) videosDelta(delta float64, now time.Time) Outcome {
	if c.coolingDown(now) {
		return c.reject(Cooldown, delta)
	}
	switch {
	case delta < -c.cfg.VideosBackThreshold:
		c.commit(Phoalbum, now, false)
	case delta > c.cfg.ForwardThreshold:
		c.entering = true
		c.docScroll = 0
		c.commit(Works, now, false)
	default:
		return c.reject(Threshold, delta)
	}
	return Outcome{Consumed: true, Changed: true}
}

func (c *Controller) phoalbumDelta(delta float64, now time.Time) Outcome {
	if c.coolingDown(now) {
		return c.reject(Cooldown, delta)
	}
	switch {
	case delta > c.cfg.ForwardThreshold:
		c.commit(Videos, now, false)
	case delta < -c.cfg.PhoalbumBackThreshold:
		c.commit(Home, now, false)
		c.setScroll(c.base)
	default:
		return c.reject(Threshold, delta)
	}
	return Outcome{Consumed: true, Changed: true}
}

func (c *Controller) homeDelta(delta float64, now time.Time) Outcome {
	if c.virtualScroll >= c.base && delta > c.cfg.ForwardThreshold {
		if c.coolingDown(now) {
			return c.reject(Cooldown, delta)
		}
		c.commit(Phoalbum, now, false)
		return Outcome{Consumed: true, Changed: true}
	}

	next := math.Min(math.Max(c.virtualScroll+delta, 0), c.base)
	if next == c.virtualScroll {
		return Outcome{Consumed: true, Reason: Clamped}
	}
	c.setScroll(next)
	// Reaching either end brakes, so one long gesture cannot also switch tiers.
	if next == 0 || next == c.base {
		c.lastSwitch = now
	}
	return Outcome{Consumed: true, Changed: true}
}

func (c *Controller) reject(reason Rejection, delta float64) Outcome {
	c.logger.Debug("delta rejected", "tier", c.tier, "delta", delta, "reason", reason)
	return Outcome{Consumed: true, Reason: reason}
}

// commit switches tier and publishes the change. A zero now leaves the
// cooldown clock untouched.
func (c *Controller) commit(to Tier, now time.Time, programmatic bool) {
	from := c.tier
	c.tier = to
	if !now.IsZero() {
		c.lastSwitch = now
	}
	if to != Works {
		c.setIdeas(false)
	}
	if from != to {
		c.logger.Info("tier changed", "from", from, "to", to, "programmatic", programmatic)
	}
	c.pub.Publish(event.TierChanged, &event.TierChangedPayload{
		From:         from.String(),
		To:           to.String(),
		Programmatic: programmatic,
	})
	c.publishSection()
}

func (c *Controller) setScroll(v float64) {
	if v == c.virtualScroll {
		return
	}
	c.virtualScroll = v
	c.pub.Publish(event.ScrollChanged, &event.ScrollChangedPayload{
		VirtualScroll: v,
		PageMax:       c.base,
		Progress:      c.Progress(),
	})
}

func (c *Controller) setIdeas(active bool) {
	if active == c.ideas {
		return
	}
	c.ideas = active
	c.pub.Publish(event.IdeasChanged, &event.IdeasChangedPayload{Active: active})
	c.publishSection()
}

func (c *Controller) publishSection() {
	s := c.State().Section
	if s == c.section {
		return
	}
	c.section = s
	c.pub.Publish(event.SectionChanged, &event.SectionChangedPayload{Section: s})
}

// GotoTier jumps straight to t, bypassing thresholds and cooldown, then
// ignores input for the suppression window. Ideas enters Works unlocked and
// asks the renderer to scroll the Ideas marker into view.
func (c *Controller) GotoTier(t Tier, opts GotoOptions) {
	now := c.clock()
	suppress := opts.SuppressFor
	if suppress == 0 {
		suppress = c.cfg.NavigationSuppress
	}
	if suppress > 0 {
		c.suppressUntil = now.Add(suppress)
	}

	target := t
	if t == Ideas {
		target = Works
	}
	if target >= Works {
		c.entering = false
		c.docScroll = 0
	}
	if target == Home {
		c.setScroll(0)
	} else {
		c.setScroll(c.base)
	}

	from := c.tier
	c.tier = target
	if target != Works {
		c.setIdeas(false)
	}
	c.logger.Info("navigated", "from", from, "to", t, "suppress", suppress)
	c.pub.Publish(event.TierChanged, &event.TierChangedPayload{
		From:          from.String(),
		To:            target.String(),
		Programmatic:  true,
		ScrollToIdeas: t == Ideas,
	})
	c.publishSection()
}

// Reset is the home reset (logo click): back to Home at virtual scroll 0.
func (c *Controller) Reset() {
	c.setScroll(0)
	c.entering = false
	if c.tier != Home || c.ideas {
		c.commit(Home, time.Time{}, true)
	}
}

// SettleWorks marks the Works entry or exit animation as finished.
func (c *Controller) SettleWorks() {
	c.entering = false
}

// SetDocumentScroll records the native document scrollTop used by the Works
// exit gesture.
func (c *Controller) SetDocumentScroll(top float64) {
	c.docScroll = top
}

// UpdateIdeasMarker reports the Ideas marker's vertical extent in viewport
// coordinates. Ideas is active while the marker intersects the band between
// IdeasBandTop and IdeasBandBottom of the viewport height. Outside Works the
// flag is always false.
func (c *Controller) UpdateIdeasMarker(top, bottom, viewportHeight float64) {
	if c.tier != Works || viewportHeight <= 0 {
		c.setIdeas(false)
		return
	}
	bandTop := viewportHeight * c.cfg.IdeasBandTop
	bandBottom := viewportHeight * c.cfg.IdeasBandBottom
	c.setIdeas(top <= bandBottom && bottom >= bandTop)
}

// SetOverlay records the About overlay state. Input is ignored while it is
// open; closing it suppresses input for OverlaySuppress.
func (c *Controller) SetOverlay(open bool) {
	if open == c.overlay {
		return
	}
	c.overlay = open
	if !open {
		c.suppressUntil = c.clock().Add(c.cfg.OverlaySuppress)
	}
	c.publishSection()
}

// Resize recomputes the scroll range for a new page height. Past Home the
// position stays frozen at the page boundary.
func (c *Controller) Resize(viewportHeight float64) {
	c.base = c.cfg.scrollBase(viewportHeight)
	if c.tier != Home {
		c.setScroll(c.base)
		return
	}
	c.setScroll(math.Min(c.virtualScroll, c.base))
}

// Progress returns page-one progress p1 = min(virtualScroll / pageMax, 1).
func (c *Controller) Progress() float64 {
	if c.base <= 0 {
		return 0
	}
	return math.Min(c.virtualScroll/c.base, 1)
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	s := State{
		VirtualScroll: c.virtualScroll,
		Max:           c.base * c.cfg.ScrollExtension,
		PageMax:       c.base,
		Progress:      c.Progress(),
		Tier:          c.tier,
		IdeasActive:   c.ideas,
		WorksLocked:   c.entering,
		Overlay:       c.overlay,
	}
	s.Section = sectionFor(s)
	return s
}

func sectionFor(s State) string {
	switch {
	case s.Overlay:
		return SectionAbout
	case s.IdeasActive:
		return SectionIdeas
	case s.Tier == Works:
		return SectionWorks
	case s.Tier == Videos:
		return SectionVideos
	case s.Tier == Phoalbum:
		return SectionPhoalbum
	default:
		return SectionHome
	}
}
