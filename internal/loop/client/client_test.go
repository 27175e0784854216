package client

import (
	"bufio"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/tomz197/phoalbum/internal/input"
	"github.com/tomz197/phoalbum/internal/logging"
	"github.com/tomz197/phoalbum/internal/loop/config"
	"github.com/tomz197/phoalbum/internal/loop/session"
	"github.com/tomz197/phoalbum/internal/physics"
	"github.com/tomz197/phoalbum/internal/store"
	"github.com/tomz197/phoalbum/internal/tier"
)

func newTestClient(t *testing.T, cols, rows int) (*Client, *session.Session) {
	t.Helper()
	s := session.New(context.Background(), session.Options{
		Store:  store.NewMemory(),
		Seed:   7,
		Logger: logging.Discard(),
	})
	t.Cleanup(s.Close)
	c := NewClient(s, bufio.NewReader(strings.NewReader("")), io.Discard, ClientOptions{
		TermSizeFunc: func() (int, int, error) { return cols, rows, nil },
		Logger:       logging.Discard(),
	})
	s.Step(config.TickTime)
	return c, s
}

func noKeys() input.Input {
	return input.Input{Tier: -1}
}

func TestClampTermSize(t *testing.T) {
	tests := []struct {
		name                   string
		w, h                   int
		rw, rh, offCol, offRow int
	}{
		{"fits", 80, 24, 80, 24, 0, 0},
		{"too wide", 300, 24, config.MaxTermWidth, 24, 30, 0},
		{"too tall", 80, 100, 80, config.MaxTermHeight, 0, 10},
		{"empty", 0, 0, 1, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rw, rh, oc, or := clampTermSize(tt.w, tt.h)
			if rw != tt.rw || rh != tt.rh || oc != tt.offCol || or != tt.offRow {
				t.Errorf("clampTermSize(%d, %d) = %d, %d, %d, %d", tt.w, tt.h, rw, rh, oc, or)
			}
		})
	}
}

func TestNewClientSizesSession(t *testing.T) {
	_, s := newTestClient(t, 80, 24)
	want := physics.Viewport{Width: 800, Height: 480}
	if got := s.Snapshot().Viewport; got != want {
		t.Errorf("viewport = %+v, want %+v", got, want)
	}
}

func TestItemTypeFor(t *testing.T) {
	tests := []struct {
		in   string
		want store.ItemType
	}{
		{"hello", store.TypeText},
		{"/photos/a.webp", store.TypeImage},
		{"https://x.test/a.png", store.TypeImage},
		{" data:image/png;base64,AAAA", store.TypeImage},
		{"我是一个外星人", store.TypeText},
	}
	for _, tt := range tests {
		if got := itemTypeFor(tt.in); got != tt.want {
			t.Errorf("itemTypeFor(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDialogBackspaceRemovesRune(t *testing.T) {
	d := &Dialog{Text: []byte("ab我")}
	d.Backspace()
	if string(d.Text) != "ab" {
		t.Errorf("Text = %q, want %q", d.Text, "ab")
	}
	d.Text = nil
	d.Backspace()
	if len(d.Text) != 0 {
		t.Errorf("Text = %q, want empty", d.Text)
	}
}

func TestDialogAddsItem(t *testing.T) {
	c, s := newTestClient(t, 80, 24)
	before := s.Snapshot().Items

	open := noKeys()
	open.AddItem = true
	c.processInputFrom(open)
	s.Step(config.TickTime)
	if c.state.Dialog == nil || !s.Snapshot().Modal {
		t.Fatal("dialog did not open")
	}

	typed := noKeys()
	typed.Pressed = []byte("Pixel art")
	typed.Enter = true
	c.processInputFrom(typed)
	s.Step(config.TickTime)

	snap := s.Snapshot()
	if c.state.Dialog != nil || snap.Modal {
		t.Error("dialog still open after enter")
	}
	if snap.Items != before+1 {
		t.Fatalf("items = %d, want %d", snap.Items, before+1)
	}
	items := s.Items()
	if last := items[len(items)-1]; last.Content != "Pixel art" || last.Type != store.TypeText {
		t.Errorf("added item = %+v", last)
	}
}

func TestDialogSwallowsKeys(t *testing.T) {
	c, s := newTestClient(t, 80, 24)
	c.state.Dialog = &Dialog{}

	in := noKeys()
	in.Pressed = []byte("q3")
	in.Quit = true
	in.Tier = 3
	c.processInputFrom(in)
	s.Step(config.TickTime)

	if !c.state.Running {
		t.Error("q in the dialog quit the client")
	}
	if s.Snapshot().Scroll.Tier != tier.Home {
		t.Error("digit in the dialog navigated")
	}
	if string(c.state.Dialog.Text) != "q3" {
		t.Errorf("Text = %q", c.state.Dialog.Text)
	}

	esc := noKeys()
	esc.Escape = true
	c.processInputFrom(esc)
	if c.state.Dialog != nil {
		t.Error("escape did not close the dialog")
	}
}

func TestTierKeysNavigate(t *testing.T) {
	c, s := newTestClient(t, 80, 24)
	in := noKeys()
	in.Tier = 3 // Videos
	c.processInputFrom(in)
	s.Step(config.TickTime)
	if got := s.Snapshot().Scroll.Tier; got != tier.Videos {
		t.Errorf("tier = %s, want Videos", got)
	}

	home := noKeys()
	home.Home = true
	c.processInputFrom(home)
	s.Step(config.TickTime)
	if got := s.Snapshot().Scroll.Tier; got != tier.Home {
		t.Errorf("tier = %s, want Home", got)
	}
}

func TestInterruptQuits(t *testing.T) {
	c, _ := newTestClient(t, 80, 24)
	c.state.Dialog = &Dialog{}
	in := noKeys()
	in.Quit = true
	in.Interrupt = true
	c.processInputFrom(in)
	if c.state.Running {
		t.Error("ctrl+c did not stop the client")
	}
}

func TestRunStopsOnContext(t *testing.T) {
	c, _ := newTestClient(t, 80, 24)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
