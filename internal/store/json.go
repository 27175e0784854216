package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// JSONFile stores the item list as one JSON array, like the browser's
// localStorage entry.
type JSONFile struct {
	path string
}

// NewJSONFile creates a store backed by the file at path.
func NewJSONFile(path string) *JSONFile {
	if path == "" {
		path = "inspiration_items.json"
	}
	return &JSONFile{path: path}
}

// Path returns the backing file path.
func (f *JSONFile) Path() string {
	return f.path
}

// Load reads the item list.
func (f *JSONFile) Load(ctx context.Context) ([]ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoItems
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrUnavailable, f.path, err)
	}

	var items []ContentItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnavailable, f.path, err)
	}
	if items == nil {
		items = []ContentItem{}
	}
	return items, nil
}

// Save writes the list to a temp file and renames it over the old one.
func (f *JSONFile) Save(ctx context.Context, items []ContentItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if items == nil {
		items = []ContentItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrUnavailable, err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".items-*.json")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write: %w", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", ErrUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("%w: rename: %w", ErrUnavailable, err)
	}
	return nil
}
