package tier

import (
	"math/rand"
	"testing"
	"time"

	"github.com/tomz197/phoalbum/internal/event"
	"github.com/tomz197/phoalbum/internal/logging"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

type recorder struct {
	clock  *fakeClock
	events []event.Event
}

func (r *recorder) Publish(t event.Type, payload any) {
	r.events = append(r.events, event.Event{Type: t, Payload: payload, Time: r.clock.Now()})
}

func (r *recorder) tierChanges() []*event.TierChangedPayload {
	var out []*event.TierChangedPayload
	for _, e := range r.events {
		if e.Type == event.TierChanged {
			out = append(out, e.Payload.(*event.TierChangedPayload))
		}
	}
	return out
}

func newTestController() (*Controller, *fakeClock, *recorder) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	rec := &recorder{clock: clock}
	c := New(DefaultConfig(), rec, clock.Now, logging.Discard())
	return c, clock, rec
}

// scrollToPageMax slides Home to the end of page one and waits out the brake.
func scrollToPageMax(c *Controller, clock *fakeClock) {
	for c.State().VirtualScroll < c.State().PageMax {
		c.OnDelta(50)
		clock.Advance(16 * time.Millisecond)
	}
	clock.Advance(DefaultConfig().SwitchCooldown + time.Millisecond)
}

func TestScrollBase(t *testing.T) {
	tests := []struct {
		height      float64
		wantPageMax float64
	}{
		{800, 224},
		{100, 120}, // Floor at MinScrollBase
		{0, 120},
		{1000, 280},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.ViewportHeight = tt.height
		c := New(cfg, nil, nil, logging.Discard())
		s := c.State()
		if s.PageMax != tt.wantPageMax {
			t.Errorf("height %v: PageMax = %v, want %v", tt.height, s.PageMax, tt.wantPageMax)
		}
		if want := tt.wantPageMax * 2.2; s.Max != want {
			t.Errorf("height %v: Max = %v, want %v", tt.height, s.Max, want)
		}
	}
}

func TestHomeSlidesAndClampsAtPageMax(t *testing.T) {
	c, clock, _ := newTestController()
	pageMax := c.State().PageMax

	prev := 0.0
	for c.State().VirtualScroll < pageMax {
		out := c.OnDelta(50)
		if !out.Consumed || !out.Changed {
			t.Fatalf("delta not applied: %+v", out)
		}
		s := c.State()
		if s.Tier != Home {
			t.Fatalf("tier = %v while sliding, want Home", s.Tier)
		}
		if s.VirtualScroll <= prev {
			t.Fatalf("virtual scroll not monotonic: %v after %v", s.VirtualScroll, prev)
		}
		if s.VirtualScroll > pageMax {
			t.Fatalf("virtual scroll %v beyond pageMax %v", s.VirtualScroll, pageMax)
		}
		prev = s.VirtualScroll
		clock.Advance(16 * time.Millisecond)
	}
	if c.State().VirtualScroll != pageMax {
		t.Errorf("virtual scroll = %v, want pageMax %v", c.State().VirtualScroll, pageMax)
	}
	if c.Progress() != 1 {
		t.Errorf("progress = %v, want 1", c.Progress())
	}
}

func TestHomeToPhoalbumAndBack(t *testing.T) {
	c, clock, rec := newTestController()
	scrollToPageMax(c, clock)
	pageMax := c.State().PageMax

	out := c.OnDelta(20)
	if !out.Changed || c.State().Tier != Phoalbum {
		t.Fatalf("after +20 at pageMax: tier = %v (%+v), want Phoalbum", c.State().Tier, out)
	}
	if c.State().VirtualScroll != pageMax {
		t.Errorf("virtual scroll = %v, want frozen at %v", c.State().VirtualScroll, pageMax)
	}

	// Frozen: forward deltas below the threshold do nothing.
	clock.Advance(time.Second)
	if out := c.OnDelta(10); out.Changed || out.Reason != Threshold {
		t.Errorf("+10 in Phoalbum: %+v, want Threshold rejection", out)
	}

	out = c.OnDelta(-20)
	if !out.Changed || c.State().Tier != Home {
		t.Fatalf("after -20 in Phoalbum: tier = %v, want Home", c.State().Tier)
	}
	if c.State().VirtualScroll != pageMax {
		t.Errorf("virtual scroll = %v, want reset to pageMax %v", c.State().VirtualScroll, pageMax)
	}

	changes := rec.tierChanges()
	if len(changes) != 2 || changes[0].To != "Phoalbum" || changes[1].To != "Home" {
		t.Errorf("tier events = %+v", changes)
	}
}

func TestBrakeAtPageMaxBlocksImmediateSwitch(t *testing.T) {
	c, clock, _ := newTestController()
	for c.State().VirtualScroll < c.State().PageMax {
		c.OnDelta(100)
	}
	clock.Advance(100 * time.Millisecond)

	if out := c.OnDelta(40); out.Reason != Cooldown || c.State().Tier != Home {
		t.Fatalf("switch right after reaching pageMax: %+v tier %v, want Cooldown", out, c.State().Tier)
	}
}

func TestRapidDeltasDoNotQueue(t *testing.T) {
	c, clock, rec := newTestController()
	scrollToPageMax(c, clock)

	c.OnDelta(20) // Home -> Phoalbum
	for i := 0; i < 7; i++ {
		clock.Advance(100 * time.Millisecond)
		if out := c.OnDelta(40); out.Changed {
			t.Fatalf("delta %d inside cooldown changed state", i)
		}
		if out := c.OnDelta(-40); out.Changed {
			t.Fatalf("delta %d inside cooldown changed state", i)
		}
	}
	if c.State().Tier != Phoalbum {
		t.Fatalf("tier = %v after rejected burst, want Phoalbum", c.State().Tier)
	}

	// Past the cooldown the next delta is evaluated against Phoalbum alone.
	clock.Advance(200 * time.Millisecond)
	c.OnDelta(40)
	if got := c.State().Tier; got != Videos {
		t.Errorf("tier = %v, want Videos", got)
	}
	if n := len(rec.tierChanges()); n != 2 {
		t.Errorf("%d tier changes, want 2", n)
	}
}

func TestCooldownProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c, clock, rec := newTestController()
	cooldown := DefaultConfig().SwitchCooldown

	for i := 0; i < 5000; i++ {
		clock.Advance(time.Duration(rng.Intn(300)) * time.Millisecond)
		c.SetDocumentScroll(float64(rng.Intn(10)))
		if rng.Intn(20) == 0 {
			c.SettleWorks()
		}
		c.OnDelta((rng.Float64() - 0.5) * 400)
	}

	var last time.Time
	count := 0
	for _, e := range rec.events {
		if e.Type != event.TierChanged {
			continue
		}
		if count > 0 && e.Time.Sub(last) < cooldown {
			t.Fatalf("tier changes %v apart, cooldown is %v", e.Time.Sub(last), cooldown)
		}
		last = e.Time
		count++
	}
	if count < 10 {
		t.Errorf("only %d tier changes in the random walk; the test is not exercising transitions", count)
	}
}

func TestClampingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	c, clock, _ := newTestController()

	for i := 0; i < 5000; i++ {
		clock.Advance(time.Duration(rng.Intn(1200)) * time.Millisecond)
		if rng.Intn(50) == 0 {
			c.Resize(float64(rng.Intn(1500)))
		}
		c.OnDelta((rng.Float64() - 0.5) * 1000)
		s := c.State()
		if s.VirtualScroll < 0 || s.VirtualScroll > s.Max {
			t.Fatalf("step %d: virtual scroll %v outside [0, %v]", i, s.VirtualScroll, s.Max)
		}
	}
}

func TestVideosThresholds(t *testing.T) {
	c, clock, _ := newTestController()
	c.GotoTier(Videos, GotoOptions{SuppressFor: -1})
	clock.Advance(time.Second)

	if out := c.OnDelta(-20); out.Reason != Threshold {
		t.Errorf("-20 in Videos: %+v, want Threshold", out)
	}
	if out := c.OnDelta(-40); !out.Changed || c.State().Tier != Phoalbum {
		t.Errorf("-40 in Videos: tier %v, want Phoalbum", c.State().Tier)
	}

	clock.Advance(time.Second)
	c.OnDelta(20) // Phoalbum -> Videos
	clock.Advance(time.Second)
	c.OnDelta(20) // Videos -> Works
	if s := c.State(); s.Tier != Works || !s.WorksLocked {
		t.Errorf("after forward in Videos: %+v, want locked Works", s)
	}
}

func TestWorksExit(t *testing.T) {
	c, clock, _ := newTestController()
	c.GotoTier(Videos, GotoOptions{SuppressFor: -1})
	clock.Advance(time.Second)
	c.OnDelta(20)
	clock.Advance(time.Second)

	// Entry animation still running.
	if out := c.OnDelta(-150); out.Consumed || out.Reason != Locked {
		t.Errorf("strong back gesture while locked: %+v", out)
	}
	c.SettleWorks()

	// Ordinary gestures fall through to the document.
	for _, d := range []float64{40, -40, -100} {
		if out := c.OnDelta(d); out.Consumed || out.Reason != PassThrough {
			t.Errorf("delta %v in Works: %+v, want pass-through", d, out)
		}
	}

	// Not at the top of the document.
	c.SetDocumentScroll(300)
	if out := c.OnDelta(-150); out.Consumed || c.State().Tier != Works {
		t.Errorf("strong back gesture mid-document: %+v", out)
	}

	c.SetDocumentScroll(4)
	out := c.OnDelta(-150)
	if !out.Changed || c.State().Tier != Videos {
		t.Fatalf("strong back gesture at top: %+v tier %v, want Videos", out, c.State().Tier)
	}
	if !c.State().WorksLocked {
		t.Error("exit animation should lock Works")
	}
}

func TestGotoTierSuppressesInput(t *testing.T) {
	c, clock, rec := newTestController()
	c.GotoTier(Ideas, GotoOptions{})

	s := c.State()
	if s.Tier != Works || s.WorksLocked {
		t.Fatalf("after goto Ideas: %+v, want unlocked Works", s)
	}
	if s.VirtualScroll != s.PageMax {
		t.Errorf("virtual scroll = %v, want %v", s.VirtualScroll, s.PageMax)
	}
	changes := rec.tierChanges()
	if len(changes) != 1 || !changes[0].ScrollToIdeas || !changes[0].Programmatic {
		t.Errorf("tier events = %+v", changes)
	}

	clock.Advance(900 * time.Millisecond)
	if out := c.OnDelta(-200); out.Reason != Suppressed || c.State().Tier != Works {
		t.Errorf("delta 900ms after jump: %+v", out)
	}

	clock.Advance(200 * time.Millisecond)
	if out := c.OnDelta(-200); !out.Changed || c.State().Tier != Videos {
		t.Errorf("delta 1100ms after jump: %+v tier %v", out, c.State().Tier)
	}
}

func TestGotoTierBypassesCooldown(t *testing.T) {
	c, _, _ := newTestController()
	c.GotoTier(Videos, GotoOptions{})
	c.GotoTier(Home, GotoOptions{})
	if s := c.State(); s.Tier != Home || s.VirtualScroll != 0 {
		t.Errorf("after goto Home: %+v", s)
	}
}

func TestIdeasMarker(t *testing.T) {
	c, _, rec := newTestController()
	const vh = 1000.0

	// Outside Works the marker is ignored.
	c.UpdateIdeasMarker(200, 400, vh)
	if c.State().IdeasActive {
		t.Fatal("Ideas active outside Works")
	}

	c.GotoTier(Works, GotoOptions{})
	tests := []struct {
		top, bottom float64
		want        bool
	}{
		{600, 900, false},
		{270, 900, true},
		{100, 260, true},
		{100, 240, false},
		{301, 500, false},
	}
	for _, tt := range tests {
		c.UpdateIdeasMarker(tt.top, tt.bottom, vh)
		if got := c.State().IdeasActive; got != tt.want {
			t.Errorf("marker [%v, %v]: active = %v, want %v", tt.top, tt.bottom, got, tt.want)
		}
	}

	c.UpdateIdeasMarker(280, 600, vh)
	if s := c.State(); s.Section != SectionIdeas || s.Current() != Ideas {
		t.Errorf("section = %q current = %v, want %q / Ideas", s.Section, s.Current(), SectionIdeas)
	}

	c.Reset()
	if c.State().IdeasActive {
		t.Error("Ideas still active after home reset")
	}

	var sections []string
	for _, e := range rec.events {
		if e.Type == event.SectionChanged {
			sections = append(sections, e.Payload.(*event.SectionChangedPayload).Section)
		}
	}
	if len(sections) == 0 || sections[len(sections)-1] != SectionHome {
		t.Errorf("section events = %v, want last %q", sections, SectionHome)
	}
}

func TestOverlayBlocksAndSuppresses(t *testing.T) {
	c, clock, _ := newTestController()

	c.SetOverlay(true)
	if s := c.State(); s.Section != SectionAbout {
		t.Errorf("section with overlay = %q", s.Section)
	}
	if out := c.OnDelta(50); out.Reason != Overlay || c.State().VirtualScroll != 0 {
		t.Errorf("delta with overlay open: %+v", out)
	}

	c.SetOverlay(false)
	clock.Advance(500 * time.Millisecond)
	if out := c.OnDelta(50); out.Reason != Suppressed {
		t.Errorf("delta 500ms after close: %+v, want Suppressed", out)
	}
	clock.Advance(600 * time.Millisecond)
	if out := c.OnDelta(50); !out.Changed {
		t.Errorf("delta 1100ms after close: %+v", out)
	}
}

func TestResizeClampsScroll(t *testing.T) {
	c, _, _ := newTestController()
	c.OnDelta(200)
	c.Resize(200) // pageMax drops to 120
	if s := c.State(); s.VirtualScroll != 120 || s.PageMax != 120 {
		t.Errorf("after shrink: %+v", s)
	}

	c.GotoTier(Phoalbum, GotoOptions{})
	c.Resize(1000)
	if s := c.State(); s.VirtualScroll != 280 {
		t.Errorf("Phoalbum after grow: virtual scroll %v, want frozen at pageMax 280", s.VirtualScroll)
	}
}

func TestResetFromWorks(t *testing.T) {
	c, _, rec := newTestController()
	c.GotoTier(Works, GotoOptions{})
	c.Reset()

	s := c.State()
	if s.Tier != Home || s.VirtualScroll != 0 || s.WorksLocked {
		t.Errorf("after reset: %+v", s)
	}
	last := rec.tierChanges()[len(rec.tierChanges())-1]
	if last.To != "Home" || !last.Programmatic {
		t.Errorf("last tier event = %+v", last)
	}
}

func TestParseTier(t *testing.T) {
	tests := map[string]Tier{
		"/videos":  Videos,
		"/ideas":   Ideas,
		"/":        Home,
		"Phoalbum": Phoalbum,
		"Works":    Works,
	}
	for in, want := range tests {
		got, ok := ParseTier(in)
		if !ok || got != want {
			t.Errorf("ParseTier(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
	if _, ok := ParseTier("/about"); ok {
		t.Error("ParseTier(/about) should fail")
	}
}
