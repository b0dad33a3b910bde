package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tvrelay/work/types"
)

// ErrSourceNotFound is returned when no row matches a source id.
var ErrSourceNotFound = errors.New("source not found")

const sourceColumns = `id, name, url, channels, created_at, updated_at`

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type rowScanner interface {
	Scan(dest ...any) error
}

// LoadSources returns every persisted source, oldest first.
func (db *DB) LoadSources() ([]*types.Source, error) {
	rows, err := db.Query(`SELECT ` + sourceColumns + ` FROM sources ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	defer rows.Close()

	var sources []*types.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}

	return sources, nil
}

// GetSource loads one source by id.
func (db *DB) GetSource(id string) (*types.Source, error) {
	row := db.QueryRow(`SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id)

	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	return src, err
}

// SaveSource inserts src or replaces the row with the same id.
func (db *DB) SaveSource(src *types.Source) error {
	channels, err := json.Marshal(src.Channels)
	if err != nil {
		return fmt.Errorf("failed to encode channels: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO sources (`+sourceColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			url = excluded.url,
			channels = excluded.channels,
			updated_at = excluded.updated_at
	`, src.ID, src.Name, src.URL, string(channels), formatTime(src.CreatedAt), formatTime(src.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save source %s: %w", src.ID, err)
	}
	return nil
}

// DeleteSource removes a source. Deleting an unknown id is ErrSourceNotFound.
func (db *DB) DeleteSource(id string) error {
	res, err := db.Exec(`DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete source %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete source %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	return nil
}

func scanSource(row rowScanner) (*types.Source, error) {
	var (
		src                  types.Source
		channels             string
		createdAt, updatedAt string
	)

	if err := row.Scan(&src.ID, &src.Name, &src.URL, &channels, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan source: %w", err)
	}

	if err := json.Unmarshal([]byte(channels), &src.Channels); err != nil {
		return nil, fmt.Errorf("failed to decode channels of %s: %w", src.ID, err)
	}

	src.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	src.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &src, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
