package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLite stores items in a SQLite database.
type SQLite struct {
	conn *sqlx.DB
}

// OpenSQLite opens or creates a SQLite database at the given path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "phoalbum.db"
	}
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &SQLite{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *SQLite) Close() error {
	return db.conn.Close()
}

func (db *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		font_size REAL,
		opacity REAL
	);

	CREATE TABLE IF NOT EXISTS store_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Load implements Store. A database that was never saved to reports ErrNoItems.
func (db *SQLite) Load(ctx context.Context) ([]ContentItem, error) {
	var saved string
	err := db.conn.GetContext(ctx, &saved, "SELECT value FROM store_meta WHERE key = 'saved'")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoItems
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	items := []ContentItem{}
	err = db.conn.SelectContext(ctx, &items,
		"SELECT id, type, content, font_size, opacity FROM items ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return items, nil
}

// Save implements Store (full replace).
func (db *SQLite) Save(ctx context.Context, items []ContentItem) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM items"); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO items
		(position, id, type, content, font_size, opacity)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer stmt.Close()

	for i, it := range items {
		if _, err := stmt.ExecContext(ctx, i, it.ID, string(it.Type), it.Content, it.FontSize, it.Opacity); err != nil {
			return fmt.Errorf("%w: insert %s: %w", ErrUnavailable, it.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO store_meta (key, value) VALUES ('saved', '1')"); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return tx.Commit()
}
