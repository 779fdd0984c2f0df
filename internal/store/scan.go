package store

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// Identification sources recorded with each known song
const (
	SourceTags   = "tags"
	SourceSearch = "search"
)

// KnownSong is one identified library file
type KnownSong struct {
	URL       string    `json:"url"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Source    string    `json:"source"`
	ScannedAt time.Time `json:"scanned_at"`
}

// ScanRun is the recorded outcome of one library scan
type ScanRun struct {
	ID         int64     `json:"id"`
	Root       string    `json:"root"`
	Extension  string    `json:"extension"`
	FilesSeen  int       `json:"files_seen"`
	Identified int       `json:"identified"`
	Skipped    int       `json:"skipped"`
	DurationMS int64     `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
}

// ScanStats summarizes the scan index
type ScanStats struct {
	KnownFiles  int        `json:"known_files"`
	UniqueSongs int        `json:"unique_songs"`
	Duplicates  int        `json:"duplicates"`
	FromTags    int        `json:"from_tags"`
	FromSearch  int        `json:"from_search"`
	ScanRuns    int        `json:"scan_runs"`
	LastScan    *time.Time `json:"last_scan,omitempty"`
}

// Duplicate is a song identified at more than one path
type Duplicate struct {
	URL   string   `json:"url"`
	Paths []string `json:"paths"`
}

// ScanStore persists scan results in the database
type ScanStore struct {
	db      *sql.DB
	batchMu sync.Mutex // serializes scan writes
}

// NewScanStore creates a new ScanStore
func NewScanStore(db *sql.DB) *ScanStore {
	return &ScanStore{db: db}
}

// RecordScan replaces the index entries under root with the given scan
// results in a single transaction, so re-scans never leave stale rows
// for files that have been moved or deleted.
func (ss *ScanStore) RecordScan(root string, songs []KnownSong) error {
	ss.batchMu.Lock()
	defer ss.batchMu.Unlock()

	tx, err := ss.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Trailing separator keeps /music from matching /music2. Prefix match
	// without LIKE so wildcard characters in paths are inert.
	prefix := root
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}
	if _, err := tx.Exec(
		"DELETE FROM known_songs WHERE substr(path, 1, length(?)) = ?",
		prefix, prefix,
	); err != nil {
		return fmt.Errorf("failed to clear stale scan entries: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO known_songs (url, path, title, artist, source, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(url, path) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			source = excluded.source,
			scanned_at = excluded.scanned_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i := range songs {
		s := &songs[i]
		if s.ScannedAt.IsZero() {
			s.ScannedAt = now
		}
		if _, err := stmt.Exec(s.URL, s.Path, s.Title, s.Artist, s.Source, s.ScannedAt); err != nil {
			return fmt.Errorf("failed to record known song %s: %w", s.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// RecordScanRun appends a scan run to the history and fills in its ID
func (ss *ScanStore) RecordScanRun(run *ScanRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	result, err := ss.db.Exec(`
		INSERT INTO scan_runs (root, extension, files_seen, identified, skipped, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.Root,
		run.Extension,
		run.FilesSeen,
		run.Identified,
		run.Skipped,
		run.DurationMS,
		run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record scan run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get scan run ID: %w", err)
	}
	run.ID = id

	return nil
}

// Index returns the url to paths mapping over all known songs
func (ss *ScanStore) Index() (map[string][]string, error) {
	rows, err := ss.db.Query("SELECT url, path FROM known_songs ORDER BY url, path")
	if err != nil {
		return nil, fmt.Errorf("failed to query scan index: %w", err)
	}
	defer rows.Close()

	index := make(map[string][]string)
	for rows.Next() {
		var url, path string
		if err := rows.Scan(&url, &path); err != nil {
			return nil, fmt.Errorf("failed to scan index row: %w", err)
		}
		index[url] = append(index[url], path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read index rows: %w", err)
	}

	return index, nil
}

// Duplicates returns songs identified at more than one path
func (ss *ScanStore) Duplicates() ([]Duplicate, error) {
	rows, err := ss.db.Query(`
		SELECT url, path FROM known_songs
		WHERE url IN (
			SELECT url FROM known_songs GROUP BY url HAVING COUNT(*) > 1
		)
		ORDER BY url, path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicates: %w", err)
	}
	defer rows.Close()

	var duplicates []Duplicate
	for rows.Next() {
		var url, path string
		if err := rows.Scan(&url, &path); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate row: %w", err)
		}
		if len(duplicates) > 0 && duplicates[len(duplicates)-1].URL == url {
			last := &duplicates[len(duplicates)-1]
			last.Paths = append(last.Paths, path)
			continue
		}
		duplicates = append(duplicates, Duplicate{URL: url, Paths: []string{path}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read duplicate rows: %w", err)
	}

	return duplicates, nil
}

// Stats returns summary statistics over the scan index
func (ss *ScanStore) Stats() (*ScanStats, error) {
	stats := &ScanStats{}

	err := ss.db.QueryRow(`
		SELECT
			COUNT(*) as known_files,
			COUNT(DISTINCT url) as unique_songs,
			COALESCE(SUM(CASE WHEN source = 'tags' THEN 1 ELSE 0 END), 0) as from_tags,
			COALESCE(SUM(CASE WHEN source = 'search' THEN 1 ELSE 0 END), 0) as from_search
		FROM known_songs
	`).Scan(
		&stats.KnownFiles,
		&stats.UniqueSongs,
		&stats.FromTags,
		&stats.FromSearch,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan stats: %w", err)
	}
	stats.Duplicates = stats.KnownFiles - stats.UniqueSongs

	err = ss.db.QueryRow("SELECT COUNT(*) FROM scan_runs").Scan(&stats.ScanRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to count scan runs: %w", err)
	}

	// Select the column itself so the driver converts it to time.Time;
	// MAX(started_at) would come back as raw text.
	var lastScan sql.NullTime
	err = ss.db.QueryRow(
		"SELECT started_at FROM scan_runs ORDER BY started_at DESC, id DESC LIMIT 1",
	).Scan(&lastScan)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last scan time: %w", err)
	}
	if lastScan.Valid {
		stats.LastScan = &lastScan.Time
	}

	return stats, nil
}

// Runs returns the most recent scan runs, newest first
func (ss *ScanStore) Runs(limit int) ([]*ScanRun, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	rows, err := ss.db.Query(`
		SELECT id, root, extension, files_seen, identified, skipped, duration_ms, started_at
		FROM scan_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan runs: %w", err)
	}
	defer rows.Close()

	var runs []*ScanRun
	for rows.Next() {
		run := &ScanRun{}
		if err := rows.Scan(
			&run.ID,
			&run.Root,
			&run.Extension,
			&run.FilesSeen,
			&run.Identified,
			&run.Skipped,
			&run.DurationMS,
			&run.StartedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scan run rows: %w", err)
	}

	return runs, nil
}
