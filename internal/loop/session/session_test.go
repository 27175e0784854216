package session

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tomz197/phoalbum/internal/event"
	"github.com/tomz197/phoalbum/internal/logging"
	"github.com/tomz197/phoalbum/internal/loop/config"
	"github.com/tomz197/phoalbum/internal/physics"
	"github.com/tomz197/phoalbum/internal/store"
	"github.com/tomz197/phoalbum/internal/tier"
)

const frame = time.Second / 60

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestSession(t *testing.T, st store.Store) (*Session, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := New(context.Background(), Options{
		Viewport: physics.Viewport{Width: 1200, Height: 800},
		Store:    st,
		Clock:    clock.Now,
		Seed:     42,
		Logger:   logging.Discard(),
	})
	t.Cleanup(s.Close)
	return s, clock
}

// step runs one frame and advances the clock by the same amount.
func step(s *Session, clock *fakeClock) *Snapshot {
	clock.Advance(frame)
	s.Step(frame)
	return s.Snapshot()
}

func TestNewSeedsDefaultBoard(t *testing.T) {
	mem := store.NewMemory()
	s, _ := newTestSession(t, mem)

	snap := s.Snapshot()
	want := len(store.DefaultItems())
	if snap.Items != want || len(snap.Board) != want {
		t.Fatalf("board has %d items / %d bodies, want %d", snap.Items, len(snap.Board), want)
	}
	for _, it := range s.Items() {
		if it.Type == store.TypeText && (it.FontSize == nil || it.Opacity == nil) {
			t.Errorf("item %q missing font size or opacity", it.Content)
		}
	}

	s.Close()
	saved, err := mem.Load(context.Background())
	if err != nil {
		t.Fatalf("load after close: %v", err)
	}
	if len(saved) != want {
		t.Errorf("saved %d items, want %d", len(saved), want)
	}
}

func TestWheelWalksHomeToPhoalbum(t *testing.T) {
	s, clock := newTestSession(t, nil)

	s.Wheel(300)
	snap := step(s, clock)
	if snap.Scroll.Tier != tier.Home || snap.Scroll.VirtualScroll != snap.Scroll.PageMax {
		t.Fatalf("after slide: tier %v scroll %.0f, want Home at %.0f",
			snap.Scroll.Tier, snap.Scroll.VirtualScroll, snap.Scroll.PageMax)
	}

	// Reaching the end of page one brakes; the next delta is too early.
	s.Wheel(40)
	if snap = step(s, clock); snap.Scroll.Tier != tier.Home {
		t.Fatalf("tier = %v right after the brake, want Home", snap.Scroll.Tier)
	}

	clock.Advance(900 * time.Millisecond)
	s.Wheel(40)
	if snap = step(s, clock); snap.Scroll.Tier != tier.Phoalbum {
		t.Fatalf("tier = %v, want Phoalbum", snap.Scroll.Tier)
	}
	if snap.Scroll.Section != tier.SectionPhoalbum {
		t.Errorf("section = %q, want %q", snap.Scroll.Section, tier.SectionPhoalbum)
	}
}

func TestGotoIdeasScrollsMarkerIntoView(t *testing.T) {
	s, clock := newTestSession(t, nil)

	s.Goto(tier.Ideas)
	snap := step(s, clock)
	if snap.Scroll.Current() != tier.Ideas {
		t.Fatalf("current = %v, want Ideas", snap.Scroll.Current())
	}
	if snap.Scroll.WorksLocked {
		t.Error("deep link should enter Works unlocked")
	}
	if snap.Document.Scroll != snap.Document.IdeasTop {
		t.Errorf("document scroll = %.0f, want Ideas top %.0f", snap.Document.Scroll, snap.Document.IdeasTop)
	}

	// Scrolling the page back to the top leaves the Ideas band.
	clock.Advance(1100 * time.Millisecond)
	s.Wheel(-2000)
	snap = step(s, clock)
	if snap.Scroll.Tier != tier.Works || snap.Scroll.IdeasActive {
		t.Fatalf("tier %v ideas %v, want Works without Ideas", snap.Scroll.Tier, snap.Scroll.IdeasActive)
	}
	if snap.Document.Scroll != 0 {
		t.Fatalf("document scroll = %.0f, want 0", snap.Document.Scroll)
	}

	// At the top a strong upward delta exits to Videos.
	s.Wheel(-150)
	if snap = step(s, clock); snap.Scroll.Tier != tier.Videos {
		t.Fatalf("tier = %v, want Videos", snap.Scroll.Tier)
	}
}

func TestWorksEntrySettlesAfterAnimation(t *testing.T) {
	s, clock := newTestSession(t, nil)

	s.Goto(tier.Videos)
	step(s, clock)
	clock.Advance(1100 * time.Millisecond)

	s.Wheel(40)
	snap := step(s, clock)
	if snap.Scroll.Tier != tier.Works || !snap.Scroll.WorksLocked {
		t.Fatalf("tier %v locked %v, want locked Works", snap.Scroll.Tier, snap.Scroll.WorksLocked)
	}

	clock.Advance(config.WorksSettle)
	if snap = step(s, clock); snap.Scroll.WorksLocked {
		t.Fatal("Works still locked after the entry animation")
	}
}

func TestWordsFloatThenFall(t *testing.T) {
	s, clock := newTestSession(t, nil)

	var modes []string
	s.Subscribe(event.ModeChanged, func(e event.Event) {
		modes = append(modes, e.Payload.(*event.ModeChangedPayload).To)
	})

	if snap := s.Snapshot(); snap.WordsVisible || len(snap.Words) != 0 {
		t.Fatal("words visible before the trigger")
	}

	s.TriggerWords()
	snap := step(s, clock)
	if !snap.WordsVisible || len(snap.Words) != len(HeroWords) {
		t.Fatalf("words visible %v count %d, want %d", snap.WordsVisible, len(snap.Words), len(HeroWords))
	}
	if snap.WordsMode != physics.ModeFloating {
		t.Fatalf("mode = %v at the top of page one, want floating", snap.WordsMode)
	}

	s.Wheel(300)
	if snap = step(s, clock); snap.WordsMode != physics.ModeFalling {
		t.Fatalf("mode = %v past the float threshold, want falling", snap.WordsMode)
	}
	if len(modes) != 2 || modes[0] != "floating" || modes[1] != "falling" {
		t.Errorf("mode events = %v, want [floating falling]", modes)
	}
}

func TestWordsSpawnOnlyOnHome(t *testing.T) {
	s, clock := newTestSession(t, nil)

	s.Goto(tier.Videos)
	s.TriggerWords()
	if snap := step(s, clock); snap.WordsVisible || len(snap.Words) != 0 {
		t.Fatal("words shown on Videos")
	}

	s.Home()
	if snap := step(s, clock); len(snap.Words) != len(HeroWords) {
		t.Fatalf("got %d words after returning home, want %d", len(snap.Words), len(HeroWords))
	}
}

func TestSpawnWordsLayout(t *testing.T) {
	s, _ := newTestSession(t, nil)
	vp := physics.Viewport{Width: 1000, Height: 800}
	bodies := spawnWords(s.rng, vp, HeroWords)

	minFont, maxFont := math.Inf(1), math.Inf(-1)
	for i, b := range bodies {
		fs := b.Kind.(physics.Text).FontSize
		minFont, maxFont = math.Min(minFont, fs), math.Max(maxFont, fs)

		column := vp.Width * config.WordsLeftColumn
		if i%2 == 1 {
			column = vp.Width * config.WordsRightColumn
		}
		if math.Abs(b.Pos.X-column) > config.WordsJitterX/2 {
			t.Errorf("word %d at x=%.1f, want within %.0f of %.0f", i, b.Pos.X, config.WordsJitterX/2, column)
		}
		if i < 2 && b.Pos.Y != config.WordsSpawnY {
			t.Errorf("word %d at y=%.1f, want %.0f", i, b.Pos.Y, config.WordsSpawnY)
		}
		if i >= 2 && b.Pos.Y >= config.WordsSpawnY {
			t.Errorf("word %d at y=%.1f, want stacked above the first row", i, b.Pos.Y)
		}
	}
	if minFont != config.WordsMinFont || maxFont != config.WordsMaxFont {
		t.Errorf("font range [%.0f, %.0f], want [%.0f, %.0f]", minFont, maxFont, config.WordsMinFont, config.WordsMaxFont)
	}
}

func TestWordsLayoutNarrowViewport(t *testing.T) {
	wide := wordsLayout(physics.Viewport{Width: 1200, Height: 800})
	if got := wide.Obstacle.MaxX - wide.Obstacle.MinX; got != config.ObstacleWidth {
		t.Errorf("wide obstacle width = %.0f, want %.0f", got, config.ObstacleWidth)
	}
	if wide.FloorY != 525 {
		t.Errorf("floor = %.0f, want 525", wide.FloorY)
	}

	narrow := wordsLayout(physics.Viewport{Width: 768, Height: 800})
	if got := narrow.Obstacle.MaxY - narrow.Obstacle.MinY; got != config.ObstacleNarrowHeight {
		t.Errorf("narrow obstacle height = %.0f, want %.0f", got, config.ObstacleNarrowHeight)
	}
}

func TestAddAndDeleteItems(t *testing.T) {
	mem := store.NewMemory()
	s, clock := newTestSession(t, mem)
	start := s.Snapshot().Items

	var changes []*event.ContentChangedPayload
	s.Subscribe(event.ContentChanged, func(e event.Event) {
		changes = append(changes, e.Payload.(*event.ContentChangedPayload))
	})

	s.AddItem(store.TypeText, "hello")
	s.AddItem(store.TypeText, "   ")
	snap := step(s, clock)
	if snap.Items != start+1 || len(snap.Board) != start+1 {
		t.Fatalf("items %d bodies %d, want %d", snap.Items, len(snap.Board), start+1)
	}
	if len(changes) != 1 || changes[0].Added == "" {
		t.Fatalf("content events = %+v, want one add", changes)
	}

	for _, it := range s.Items() {
		s.DeleteItem(it.ID)
	}
	s.DeleteItem("missing")
	if snap = step(s, clock); snap.Items != 0 || len(snap.Board) != 0 {
		t.Fatalf("items %d bodies %d after deleting all, want 0", snap.Items, len(snap.Board))
	}

	s.Close()
	saved, err := mem.Load(context.Background())
	if err != nil {
		t.Fatalf("emptied board should load as an empty list, got %v", err)
	}
	if len(saved) != 0 {
		t.Errorf("saved %d items, want 0", len(saved))
	}
}

func TestFitFontShrinksWideText(t *testing.T) {
	long := "为什么我们开始接受不好看的设计？"
	fs := fitFont(long, 160, 1000)
	w, _ := physics.BoardText.Size(long, fs)
	if w > 1000*config.BoardMaxWidthRatio+1e-9 {
		t.Errorf("width %.1f exceeds %.0f", w, 1000*config.BoardMaxWidthRatio)
	}
	if got := fitFont("RED", 120, 1000); got != 120 {
		t.Errorf("short text font = %.0f, want 120 unchanged", got)
	}
}

func TestDragOnBoard(t *testing.T) {
	s, clock := newTestSession(t, nil)

	s.Goto(tier.Works)
	step(s, clock)
	doc := s.Snapshot().Document
	s.DocumentScroll(doc.BoardTop)
	snap := step(s, clock)
	if off := snap.Document.BoardOffset(); off != 0 {
		t.Fatalf("board offset = %.0f, want 0", off)
	}

	target := snap.Board[0]
	s.PointerDown(target.ID, target.Pos)
	s.PointerMove(physics.Vec2{X: 600, Y: 400})
	snap = step(s, clock)

	var got physics.BodyState
	for _, b := range snap.Board {
		if b.ID == target.ID {
			got = b
		}
	}
	if !got.Dragged {
		t.Fatal("body not dragged")
	}
	if got.Pos.Sub(physics.Vec2{X: 600, Y: 400}).Len() > 1e-6 {
		t.Errorf("dragged body at %+v, want pinned to the pointer", got.Pos)
	}
	if b, ok := snap.BoardAt(physics.Vec2{X: 600, Y: 400}); !ok || b.ID == "" {
		t.Error("BoardAt found nothing under the pointer")
	}

	s.PointerUp()
	snap = step(s, clock)
	for _, b := range snap.Board {
		if b.Dragged {
			t.Fatalf("body %s still dragged after release", b.ID)
		}
	}
}

func TestDragFallingWord(t *testing.T) {
	s, clock := newTestSession(t, nil)

	s.TriggerWords()
	var snap *Snapshot
	for i := 0; i < 120; i++ {
		snap = step(s, clock)
	}
	if !snap.WordsVisible || len(snap.Words) == 0 {
		t.Fatal("words not on screen")
	}

	// A press with no id hit-tests the words.
	s.PointerDown("", snap.Words[0].Pos)
	step(s, clock)
	if _, ok := s.words.Dragging(); !ok {
		t.Fatal("press on a falling word grabbed nothing")
	}
	if _, ok := s.binding.Repulsor(); ok {
		t.Error("pointer still repels while a word is dragged")
	}
	s.PointerUp()
	snap = step(s, clock)

	small := snap.Words[0]
	for _, w := range snap.Words {
		if w.Width < small.Width {
			small = w
		}
	}
	for _, w := range snap.Words {
		if w.ID != small.ID {
			_ = s.words.Remove(w.ID)
		}
	}
	s.PointerDown(small.ID, small.Pos)
	s.PointerMove(physics.Vec2{X: 460, Y: 400})
	step(s, clock)
	s.PointerMove(physics.Vec2{X: 500, Y: 400})
	snap = step(s, clock)

	var got physics.BodyState
	for _, w := range snap.Words {
		if w.ID == small.ID {
			got = w
		}
	}
	if !got.Dragged || got.Pos.Sub(physics.Vec2{X: 500, Y: 400}).Len() > 1e-6 {
		t.Fatalf("word %s dragged=%v at %+v, want pinned to the pointer", small.ID, got.Dragged, got.Pos)
	}

	s.PointerUp()
	step(s, clock)
	if _, ok := s.words.Dragging(); ok {
		t.Fatal("word still dragged after release")
	}
	b, _ := s.words.Body(small.ID)
	if b.Vel.X <= 0 {
		t.Errorf("released word velocity %+v, want flung to the right", b.Vel)
	}
}

func TestHidingWordsAbandonsDrag(t *testing.T) {
	s, clock := newTestSession(t, nil)

	s.TriggerWords()
	snap := step(s, clock)
	w := snap.Words[0]
	s.PointerDown(w.ID, w.Pos)
	step(s, clock)
	if _, ok := s.words.Dragging(); !ok {
		t.Fatal("word not grabbed")
	}

	s.Goto(tier.Videos)
	step(s, clock)
	if _, ok := s.words.Dragging(); ok {
		t.Error("drag survived the words leaving the screen")
	}
}

func TestLeavingWorksAbandonsDrag(t *testing.T) {
	s, clock := newTestSession(t, nil)

	s.Goto(tier.Works)
	step(s, clock)
	s.DocumentScroll(s.Snapshot().Document.BoardTop)
	snap := step(s, clock)

	target := snap.Board[0]
	s.PointerDown(target.ID, target.Pos)
	step(s, clock)
	s.Home()
	snap = step(s, clock)
	for _, b := range snap.Board {
		if b.Dragged {
			t.Fatal("drag survived leaving Works")
		}
	}
}

func TestResizeRebuildsLayout(t *testing.T) {
	s, clock := newTestSession(t, nil)

	if s.Resize(physics.Viewport{Width: 0, Height: 600}) {
		t.Error("degenerate viewport accepted")
	}
	s.Resize(physics.Viewport{Width: 700, Height: 600})
	snap := step(s, clock)
	if snap.Viewport.Width != 700 || snap.Scroll.PageMax != 168 {
		t.Fatalf("viewport %+v pageMax %.0f, want 700 wide and 168", snap.Viewport, snap.Scroll.PageMax)
	}
	if got := snap.Layout.Obstacle.MaxX - snap.Layout.Obstacle.MinX; got != config.ObstacleNarrowWidth {
		t.Errorf("obstacle width = %.0f, want narrow %.0f", got, config.ObstacleNarrowWidth)
	}
}

func TestRunIsRestartable(t *testing.T) {
	s := New(context.Background(), Options{Seed: 7, Logger: logging.Discard()})
	defer s.Close()

	for round := 0; round < 2; round++ {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		start := s.Snapshot().Frame
		go func() { done <- s.Run(ctx) }()

		deadline := time.Now().Add(2 * time.Second)
		for s.Snapshot().Frame < start+3 {
			if time.Now().After(deadline) {
				t.Fatalf("round %d: loop did not advance", round)
			}
			time.Sleep(5 * time.Millisecond)
		}
		if err := s.Run(ctx); !errors.Is(err, ErrRunning) {
			t.Errorf("round %d: concurrent Run = %v, want ErrRunning", round, err)
		}

		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("round %d: Run = %v", round, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("round %d: Run did not stop", round)
		}
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(Options{Store: store.NewMemory(), Logger: logging.Discard()})

	_, stopA, err := m.Start(context.Background(), physics.Viewport{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("start a: %v", err)
	}
	_, _, err = m.Start(context.Background(), physics.Viewport{Width: 800, Height: 600})
	if err != nil {
		t.Fatalf("start b: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}

	stopA()
	stopA()
	if m.Len() != 1 {
		t.Fatalf("Len = %d after stop, want 1", m.Len())
	}

	if !m.Shutdown(2 * time.Second) {
		t.Fatal("shutdown timed out")
	}
	if _, _, err := m.Start(context.Background(), physics.Viewport{Width: 800, Height: 600}); !errors.Is(err, ErrShutdown) {
		t.Errorf("Start after shutdown = %v, want ErrShutdown", err)
	}
}
