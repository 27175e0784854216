// Package store persists the inspiration board's content items.
package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ItemType is the kind of a content item.
type ItemType string

const (
	TypeText  ItemType = "text"
	TypeImage ItemType = "image"
)

// DefaultImage is the image every board carries unless the user deletes it
// after the one-time migration added it.
const DefaultImage = "/photos/pintr-1.webp"

// DefaultWords seed an empty board.
var DefaultWords = []string{
	"Write a book?", "Pixel", "Video", "GREEN", "我是一个外星人",
	"为什么我们开始接受不好看的设计？", "Design", "Pixel",
	"about song???", "ios又更新啦？", "Design", "Design", "RED", "Design",
}

// ContentItem is one persisted board entry. FontSize and Opacity are filled
// in the first time the item becomes a body so they stay stable across loads.
type ContentItem struct {
	ID       string   `json:"id,omitempty" db:"id"`
	Type     ItemType `json:"type" db:"type"`
	Content  string   `json:"content" db:"content"`
	FontSize *float64 `json:"fontSize,omitempty" db:"font_size"`
	Opacity  *float64 `json:"opacity,omitempty" db:"opacity"`
}

// Validate reports whether the item can become a body.
func (it ContentItem) Validate() error {
	switch it.Type {
	case TypeText, TypeImage:
	default:
		return fmt.Errorf("item %q: unknown type %q", it.ID, it.Type)
	}
	if strings.TrimSpace(it.Content) == "" {
		return fmt.Errorf("item %q: empty content", it.ID)
	}
	return nil
}

// NewID returns a fresh item id.
func NewID() string {
	return uuid.NewString()
}

// NewItem builds an item with a fresh id.
func NewItem(t ItemType, content string) ContentItem {
	return ContentItem{ID: NewID(), Type: t, Content: content}
}

// DefaultItems returns the seed board: the default words plus the default image.
func DefaultItems() []ContentItem {
	items := make([]ContentItem, 0, len(DefaultWords)+1)
	for _, w := range DefaultWords {
		items = append(items, NewItem(TypeText, w))
	}
	return append(items, NewItem(TypeImage, DefaultImage))
}

// EnsureDefaultImage appends the default image when no item carries it.
// Reports whether the list changed.
func EnsureDefaultImage(items []ContentItem) ([]ContentItem, bool) {
	for _, it := range items {
		if it.Content == DefaultImage {
			return items, false
		}
	}
	return append(items, NewItem(TypeImage, DefaultImage)), true
}

// AssignIDs gives every item without an id a fresh one, in place. Reports
// whether any id was added.
func AssignIDs(items []ContentItem) bool {
	changed := false
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = NewID()
			changed = true
		}
	}
	return changed
}

// Clone returns a deep copy of items.
func Clone(items []ContentItem) []ContentItem {
	if items == nil {
		return nil
	}
	out := make([]ContentItem, len(items))
	for i, it := range items {
		out[i] = it
		if it.FontSize != nil {
			v := *it.FontSize
			out[i].FontSize = &v
		}
		if it.Opacity != nil {
			v := *it.Opacity
			out[i].Opacity = &v
		}
	}
	return out
}

func payloadSize(items []ContentItem) uint64 {
	var n uint64
	for _, it := range items {
		n += uint64(len(it.ID) + len(it.Type) + len(it.Content))
	}
	return n
}
