package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/tomz197/phoalbum/internal/config"
	"github.com/tomz197/phoalbum/internal/logging"
)

var (
	// ErrNoItems is returned by Load when nothing was ever saved.
	ErrNoItems = errors.New("no stored items")
	// ErrUnavailable wraps collaborator failures (I/O, database, decoding).
	ErrUnavailable = errors.New("store unavailable")
)

// Store loads and saves the full item list. Save replaces everything.
type Store interface {
	Load(ctx context.Context) ([]ContentItem, error)
	Save(ctx context.Context, items []ContentItem) error
}

// Open creates a store by driver name: "json", "sqlite" or "memory".
func Open(driver, path string) (Store, error) {
	switch driver {
	case "json", "":
		return NewJSONFile(path), nil
	case "sqlite":
		return OpenSQLite(path)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// OpenEnv opens the store named by STORE_DRIVER at STORE_PATH. The path
// defaults to phoalbum.json or phoalbum.db next to the binary.
func OpenEnv() (Store, error) {
	driver := config.GetEnv("STORE_DRIVER", "json")
	path := "phoalbum.json"
	if driver == "sqlite" {
		path = "phoalbum.db"
	}
	return Open(driver, config.GetEnv("STORE_PATH", path))
}

// LoadItems loads the board at startup. Nothing stored yields the default
// items; a failing store yields the defaults too and is only logged. Stored
// lists get the default-image migration and missing ids, and are saved back
// when that changed them.
func LoadItems(ctx context.Context, s Store, logger *log.Logger) []ContentItem {
	logger = logging.For(logger, "store")

	items, err := s.Load(ctx)
	switch {
	case errors.Is(err, ErrNoItems):
		logger.Info("no stored items, using defaults")
		return DefaultItems()
	case err != nil:
		logger.Warn("load failed, using defaults", "err", err)
		return DefaultItems()
	}

	valid := items[:0]
	for _, it := range items {
		if err := it.Validate(); err != nil {
			logger.Warn("dropping stored item", "err", err)
			continue
		}
		valid = append(valid, it)
	}
	items = valid

	changed := AssignIDs(items)
	items, migrated := EnsureDefaultImage(items)
	if changed || migrated {
		if err := s.Save(ctx, items); err != nil {
			logger.Warn("saving migrated items failed", "err", err)
		}
	}
	return items
}
