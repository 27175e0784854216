package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tomz197/phoalbum/internal/logging"
)

func ptr(v float64) *float64 { return &v }

func sampleItems() []ContentItem {
	return []ContentItem{
		{ID: "a", Type: TypeText, Content: "Pixel", FontSize: ptr(42), Opacity: ptr(0.4)},
		{ID: "b", Type: TypeText, Content: "我是一个外星人"},
		{ID: "c", Type: TypeImage, Content: DefaultImage, Opacity: ptr(0.8)},
	}
}

func checkItems(t *testing.T, got, want []ContentItem) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d items, want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.ID != w.ID || g.Type != w.Type || g.Content != w.Content {
			t.Errorf("item %d = %+v, want %+v", i, g, w)
		}
		if (g.FontSize == nil) != (w.FontSize == nil) || (g.FontSize != nil && *g.FontSize != *w.FontSize) {
			t.Errorf("item %d fontSize mismatch", i)
		}
		if (g.Opacity == nil) != (w.Opacity == nil) || (g.Opacity != nil && *g.Opacity != *w.Opacity) {
			t.Errorf("item %d opacity mismatch", i)
		}
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	db, err := OpenSQLite(filepath.Join(dir, "items.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return map[string]Store{
		"json":   NewJSONFile(filepath.Join(dir, "items.json")),
		"sqlite": db,
		"memory": NewMemory(),
	}
}

func TestStoresRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Load(ctx); !errors.Is(err, ErrNoItems) {
				t.Fatalf("Load on fresh store: err = %v, want ErrNoItems", err)
			}

			if err := s.Save(ctx, sampleItems()); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			checkItems(t, got, sampleItems())

			// Full replace, and an empty list is distinct from nothing stored.
			if err := s.Save(ctx, nil); err != nil {
				t.Fatalf("Save empty: %v", err)
			}
			got, err = s.Load(ctx)
			if err != nil || len(got) != 0 {
				t.Errorf("Load after empty save = %v, %v; want empty list", got, err)
			}
		})
	}
}

func TestJSONFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewJSONFile(path).Load(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestJSONFileMatchesBrowserFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	raw := `[{"type":"text","content":"Pixel","fontSize":55.5,"opacity":0.5,"id":"x1"},{"type":"image","content":"/photos/a.webp"}]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	items, err := NewJSONFile(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(items) != 2 || items[0].ID != "x1" || *items[0].FontSize != 55.5 || items[1].ID != "" {
		t.Errorf("items = %+v", items)
	}
}

type failingStore struct{}

func (failingStore) Load(context.Context) ([]ContentItem, error) {
	return nil, ErrUnavailable
}

func (failingStore) Save(context.Context, []ContentItem) error {
	return ErrUnavailable
}

func TestLoadItemsDefaults(t *testing.T) {
	ctx := context.Background()
	for name, s := range map[string]Store{"empty": NewMemory(), "failing": failingStore{}} {
		items := LoadItems(ctx, s, logging.Discard())
		if len(items) != len(DefaultWords)+1 {
			t.Errorf("%s: %d items, want %d defaults", name, len(items), len(DefaultWords)+1)
		}
		if last := items[len(items)-1]; last.Type != TypeImage || last.Content != DefaultImage {
			t.Errorf("%s: last default = %+v", name, last)
		}
		for _, it := range items {
			if it.ID == "" {
				t.Errorf("%s: default item without id", name)
			}
		}
	}
}

func TestLoadItemsMigratesDefaultImage(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Save(ctx, []ContentItem{
		{Type: TypeText, Content: "Pixel"},
		{ID: "bad", Type: "video", Content: "x"},
	})

	items := LoadItems(ctx, m, logging.Discard())
	if len(items) != 2 {
		t.Fatalf("items = %+v, want Pixel plus the default image", items)
	}
	if items[0].ID == "" {
		t.Error("missing id not assigned")
	}
	if items[1].Content != DefaultImage {
		t.Errorf("migrated item = %+v", items[1])
	}

	stored, _ := m.Load(ctx)
	if len(stored) != 2 || m.Saves() != 2 {
		t.Errorf("migration not saved back: %+v (%d saves)", stored, m.Saves())
	}

	// A second load changes nothing.
	LoadItems(ctx, m, logging.Discard())
	if m.Saves() != 2 {
		t.Errorf("saves = %d after clean load, want 2", m.Saves())
	}
}

func TestLoadItemsKeepsEmptyBoardImage(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Save(ctx, []ContentItem{})

	items := LoadItems(ctx, m, logging.Discard())
	if len(items) != 1 || items[0].Content != DefaultImage {
		t.Errorf("items = %+v, want only the default image", items)
	}
}

type countingStore struct {
	mu    sync.Mutex
	last  []ContentItem
	saves int
	gate  chan struct{}
}

func (c *countingStore) Load(context.Context) ([]ContentItem, error) { return nil, ErrNoItems }

func (c *countingStore) Save(_ context.Context, items []ContentItem) error {
	if c.gate != nil {
		<-c.gate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = items
	c.saves++
	return nil
}

func TestSaverLatestWins(t *testing.T) {
	cs := &countingStore{gate: make(chan struct{})}
	sv := NewSaver(cs, logging.Discard())

	sv.Save(sampleItems()[:1])
	// The worker is now blocked in the first Save; these collapse into one.
	for i := 2; i <= 3; i++ {
		sv.Save(sampleItems()[:i])
	}
	close(cs.gate)
	sv.Close()

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if len(cs.last) != 3 {
		t.Errorf("last saved list has %d items, want 3", len(cs.last))
	}
	if cs.saves > 3 {
		t.Errorf("%d saves, want at most 3", cs.saves)
	}

	sv.Save(sampleItems()) // After Close: dropped, must not panic
}

func TestSaverCopiesItems(t *testing.T) {
	m := NewMemory()
	sv := NewSaver(m, logging.Discard())
	items := sampleItems()
	sv.Save(items)
	items[0].Content = "mutated"
	*items[0].FontSize = 1
	sv.Close()

	got, _ := m.Load(context.Background())
	checkItems(t, got, sampleItems())
}

func TestOpenEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	s, err := OpenEnv()
	if err != nil {
		t.Fatalf("OpenEnv: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("OpenEnv() = %T, want *Memory", s)
	}

	t.Setenv("STORE_DRIVER", "redis")
	if _, err := OpenEnv(); err == nil {
		t.Error("unknown driver opened")
	}
}
