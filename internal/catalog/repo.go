package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eidsvag/animere/internal/apperr"
)

// Run is one completed animation pipeline run.
type Run struct {
	ID           string
	Name         string
	Kind         string
	FrameCount   int
	TotalMS      int64
	Theme        string
	ArtifactPath string
	Checksum     string
	CreatedAt    time.Time
}

// Total returns the declared playback duration.
func (r Run) Total() time.Duration { return time.Duration(r.TotalMS) * time.Millisecond }

// Store defines the catalog operations. Consumers should depend on this
// interface rather than the concrete *DB type to facilitate testing.
type Store interface {
	InsertRun(r Run) error
	GetRun(id string) (*Run, error)
	ListRuns(limit, offset int, kind string) ([]Run, int, error)
	DeleteRun(id string) error
	DeleteRunsByName(name string) ([]string, error)
	GetFrame(key string) ([]byte, bool, error)
	PutFrame(key, kind string, svg []byte) error
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)

// InsertRun records a completed run.
func (db *DB) InsertRun(r Run) error {
	_, err := db.conn.Exec(`
		INSERT INTO runs (id, name, kind, frame_count, total_ms, theme, artifact_path, checksum, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Name, r.Kind, r.FrameCount, r.TotalMS, r.Theme, r.ArtifactPath, r.Checksum, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("catalog: insert run: %w", err)
	}
	return nil
}

// GetRun returns the run with the given id, or apperr.ErrNotFound.
func (db *DB) GetRun(id string) (*Run, error) {
	var r Run
	err := db.conn.QueryRow(`
		SELECT id, name, kind, frame_count, total_ms, theme, artifact_path, checksum, created_at
		FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &r.Name, &r.Kind, &r.FrameCount, &r.TotalMS, &r.Theme, &r.ArtifactPath, &r.Checksum, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get run: %w", err)
	}
	return &r, nil
}

// ListRuns returns runs newest first, with optional kind filter, plus the
// total matching count. limit <= 0 defaults to 50; limit is capped at 200.
func (db *DB) ListRuns(limit, offset int, kind string) ([]Run, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	args := []any{}
	if kind != "" {
		where = "WHERE kind = ?"
		args = append(args, kind)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM runs `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count runs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, kind, frame_count, total_ms, theme, artifact_path, checksum, created_at
		FROM runs %s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?
	`, where)
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Name, &r.Kind, &r.FrameCount, &r.TotalMS, &r.Theme,
			&r.ArtifactPath, &r.Checksum, &r.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// DeleteRun removes a run record. Deleting a missing run is not an error.
func (db *DB) DeleteRun(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("catalog: delete run: %w", err)
	}
	return nil
}

// DeleteRunsByName removes every run recorded under name and returns their
// artifact paths so the caller can remove the files as well.
func (db *DB) DeleteRunsByName(name string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT artifact_path FROM runs WHERE name = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("catalog: runs by name: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := db.conn.Exec(`DELETE FROM runs WHERE name = ?`, name); err != nil {
		return nil, fmt.Errorf("catalog: delete runs by name: %w", err)
	}
	return paths, nil
}

// GetFrame returns a cached rendered frame, with ok=false on a miss.
func (db *DB) GetFrame(key string) ([]byte, bool, error) {
	var svg []byte
	err := db.conn.QueryRow(`SELECT svg FROM frame_cache WHERE key = ?`, key).Scan(&svg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("catalog: get frame: %w", err)
	}
	return svg, true, nil
}

// PutFrame stores a rendered frame under its content key.
func (db *DB) PutFrame(key, kind string, svg []byte) error {
	_, err := db.conn.Exec(`
		INSERT INTO frame_cache (key, kind, svg, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET svg = excluded.svg
	`, key, kind, svg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("catalog: put frame: %w", err)
	}
	return nil
}
