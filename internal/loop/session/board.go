package session

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tomz197/phoalbum/internal/event"
	"github.com/tomz197/phoalbum/internal/loop/config"
	"github.com/tomz197/phoalbum/internal/physics"
	"github.com/tomz197/phoalbum/internal/store"
)

// itemBody creates the board body for it at a random spot with a random
// push. Missing font size and text opacity are chosen here and written back
// into it; filled reports whether that happened.
func (s *Session) itemBody(it *store.ContentItem) (b *physics.Body, filled bool) {
	vp := s.viewport
	switch it.Type {
	case store.TypeImage:
		b = physics.NewImageBody(it.ID, it.Content)
		// Images pick a fresh opacity on every load.
		b.Opacity = s.between(config.BoardImageMinOpacity, config.BoardImageMaxOpacity)
	default:
		if it.FontSize == nil {
			fs := fitFont(it.Content, s.between(config.BoardMinFont, config.BoardMaxFont), vp.Width)
			it.FontSize = &fs
			filled = true
		}
		if it.Opacity == nil {
			op := s.between(config.BoardTextMinOpacity, config.BoardTextMaxOpacity)
			it.Opacity = &op
			filled = true
		}
		b = physics.NewTextBody(it.ID, it.Content, *it.FontSize, physics.BoardText)
		b.Opacity = *it.Opacity
	}

	b.Restitution = config.BoardRestitution
	b.FrictionAir = physics.FrictionIdle
	b.SetPosition(physics.Vec2{X: s.rng.Float64() * vp.Width, Y: s.rng.Float64() * vp.Height})
	b.Vel = physics.Vec2{
		X: (s.rng.Float64() - 0.5) * config.BoardSpawnSpeed,
		Y: (s.rng.Float64() - 0.5) * config.BoardSpawnSpeed,
	}
	b.AngularVel = (s.rng.Float64() - 0.5) * config.BoardSpawnSpin
	return b, filled
}

func (s *Session) between(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// fitFont shrinks fontSize so the text box stays within the board width.
func fitFont(content string, fontSize, width float64) float64 {
	limit := width * config.BoardMaxWidthRatio
	w, _ := physics.BoardText.Size(content, fontSize)
	if limit <= physics.BoardText.PadX || w <= limit {
		return fontSize
	}
	n := float64(utf8.RuneCountInString(content))
	return max((limit-physics.BoardText.PadX)/(n*physics.BoardText.CharWidth), 1)
}

// addItem validates and places a new board item, then saves the board.
func (s *Session) addItem(t store.ItemType, content string) (store.ContentItem, error) {
	it := store.NewItem(t, content)
	if err := it.Validate(); err != nil {
		return store.ContentItem{}, fmt.Errorf("add item: %w", err)
	}
	b, _ := s.itemBody(&it)
	s.board.Add(b)
	s.items = append(s.items, it)
	s.logger.Info("item added", "id", it.ID, "type", it.Type, "items", len(s.items))
	s.contentChanged(it.ID, "")
	return it, nil
}

// deleteItem removes an item and its body, then saves the board. An emptied
// board is saved as an empty list so the defaults do not come back.
func (s *Session) deleteItem(id string) error {
	idx := -1
	for i := range s.items {
		if s.items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("delete item %q: %w", id, physics.ErrBodyNotFound)
	}
	if dragged, ok := s.board.Dragging(); ok && dragged == id {
		s.board.AbandonDrag()
	}
	if err := s.board.Remove(id); err != nil && !errors.Is(err, physics.ErrBodyNotFound) {
		return fmt.Errorf("delete item %q: %w", id, err)
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.logger.Info("item deleted", "id", id, "items", len(s.items))
	s.contentChanged("", id)
	return nil
}

func (s *Session) contentChanged(added, removed string) {
	s.persist()
	s.bus.Publish(event.ContentChanged, &event.ContentChangedPayload{
		Added:   added,
		Removed: removed,
		Count:   len(s.items),
	})
}

func (s *Session) persist() {
	if s.saver != nil {
		s.saver.Save(s.items)
	}
}
