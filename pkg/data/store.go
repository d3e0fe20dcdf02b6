package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pashagolub/trackelo/pkg/logging"
)

// Error types for store operations
var (
	ErrStoreOperation = errors.New("store operation failed")
	ErrUnknownTrack   = errors.New("unknown track")
)

// Store is the SQLite-backed track catalog and comparison log. The
// comparisons table is append-only: the store exposes no update or delete
// of recorded results.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (creating if necessary) the database at path and applies
// the schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database %s: %v", ErrStoreOperation, path, err)
	}

	// WAL keeps readers unblocked while the TUI records results
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to enable WAL mode: %v", ErrStoreOperation, err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migration failed: %v", ErrStoreOperation, err)
	}

	logging.Debug("store opened", "path", path)

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tracks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		artist TEXT,
		album TEXT,
		added_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS comparisons (
		id TEXT PRIMARY KEY,
		winner_id TEXT NOT NULL,
		loser_id TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_comparisons_created ON comparisons(created_at);
	CREATE INDEX IF NOT EXISTS idx_comparisons_winner ON comparisons(winner_id);
	CREATE INDEX IF NOT EXISTS idx_comparisons_loser ON comparisons(loser_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	return nil
}

// AddTracks inserts or updates tracks in a single transaction and returns
// the number of rows written. Metadata of an existing id is refreshed;
// its comparison history is untouched.
func (s *Store) AddTracks(tracks []Track) (int, error) {
	if len(tracks) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to begin transaction: %v", ErrStoreOperation, err)
	}
	// Rollback is a no-op after a successful commit
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO tracks (id, title, artist, album, added_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album
	`)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to prepare statement: %v", ErrStoreOperation, err)
	}
	defer func() { _ = stmt.Close() }()

	var saved int
	for _, track := range tracks {
		if err := track.Validate(); err != nil {
			logging.Warn("skipping invalid track", "id", track.ID, "error", err)
			continue
		}

		addedAt := track.AddedAt
		if addedAt.IsZero() {
			addedAt = time.Now().UTC()
		}

		if _, err := stmt.Exec(track.ID, track.Title, track.Artist, track.Album, addedAt); err != nil {
			return saved, fmt.Errorf("%w: failed to save track %s: %v", ErrStoreOperation, track.ID, err)
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: failed to commit transaction: %v", ErrStoreOperation, err)
	}

	return saved, nil
}

// Tracks returns the full catalog ordered by id.
func (s *Store) Tracks() ([]Track, error) {
	rows, err := s.db.Query(`
		SELECT id, title, artist, album, added_at
		FROM tracks
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query tracks: %v", ErrStoreOperation, err)
	}
	defer func() { _ = rows.Close() }()

	var tracks []Track
	for rows.Next() {
		var t Track
		var artist, album sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &artist, &album, &t.AddedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan track: %v", ErrStoreOperation, err)
		}
		t.Artist = artist.String
		t.Album = album.String
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: track iteration failed: %v", ErrStoreOperation, err)
	}

	return tracks, nil
}

// TrackIDs returns all catalog ids ordered ascending. This is the id
// universe handed to the ranking engine.
func (s *Store) TrackIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM tracks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query track ids: %v", ErrStoreOperation, err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: failed to scan track id: %v", ErrStoreOperation, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: track id iteration failed: %v", ErrStoreOperation, err)
	}

	return ids, nil
}

// GetTrack retrieves a single track by id.
func (s *Store) GetTrack(id string) (*Track, error) {
	var t Track
	var artist, album sql.NullString
	err := s.db.QueryRow(`
		SELECT id, title, artist, album, added_at
		FROM tracks
		WHERE id = ?
	`, id).Scan(&t.ID, &t.Title, &artist, &album, &t.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTrack, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load track %s: %v", ErrStoreOperation, id, err)
	}
	t.Artist = artist.String
	t.Album = album.String

	return &t, nil
}

// RecordComparison validates and appends one comparison result, stamped
// with the current time.
func (s *Store) RecordComparison(winnerID, loserID string) (Comparison, error) {
	return s.RecordComparisonAt(winnerID, loserID, time.Now().UTC())
}

// RecordComparisonAt appends one comparison with a caller-supplied
// timestamp. Both tracks must exist in the catalog.
func (s *Store) RecordComparisonAt(winnerID, loserID string, at time.Time) (Comparison, error) {
	if err := ValidateOutcome(winnerID, loserID); err != nil {
		return Comparison{}, err
	}

	for _, id := range []string{winnerID, loserID} {
		var count int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM tracks WHERE id = ?`, id).Scan(&count); err != nil {
			return Comparison{}, fmt.Errorf("%w: failed to check track %s: %v", ErrStoreOperation, id, err)
		}
		if count == 0 {
			return Comparison{}, fmt.Errorf("%w: %s", ErrUnknownTrack, id)
		}
	}

	c := Comparison{
		ID:        uuid.NewString(),
		WinnerID:  winnerID,
		LoserID:   loserID,
		CreatedAt: at,
	}

	_, err := s.db.Exec(`
		INSERT INTO comparisons (id, winner_id, loser_id, created_at)
		VALUES (?, ?, ?, ?)
	`, c.ID, c.WinnerID, c.LoserID, c.CreatedAt)
	if err != nil {
		return Comparison{}, fmt.Errorf("%w: failed to record comparison: %v", ErrStoreOperation, err)
	}

	logging.Debug("comparison recorded", "winner", winnerID, "loser", loserID)

	return c, nil
}

// Comparisons returns the whole log ordered by timestamp, insertion order
// breaking ties. This is the snapshot the ranking engine consumes.
func (s *Store) Comparisons() ([]Comparison, error) {
	rows, err := s.db.Query(`
		SELECT id, winner_id, loser_id, created_at
		FROM comparisons
		ORDER BY created_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query comparisons: %v", ErrStoreOperation, err)
	}
	defer func() { _ = rows.Close() }()

	var comparisons []Comparison
	for rows.Next() {
		var c Comparison
		if err := rows.Scan(&c.ID, &c.WinnerID, &c.LoserID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan comparison: %v", ErrStoreOperation, err)
		}
		comparisons = append(comparisons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: comparison iteration failed: %v", ErrStoreOperation, err)
	}

	return comparisons, nil
}

// ComparisonCount returns the number of recorded comparisons.
func (s *Store) ComparisonCount() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM comparisons`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: failed to count comparisons: %v", ErrStoreOperation, err)
	}
	return count, nil
}

// CountsByTrack returns how many comparisons each track id has participated
// in, wins and losses combined. Tracks with no comparisons are absent.
func (s *Store) CountsByTrack() (map[string]int, error) {
	rows, err := s.db.Query(`
		SELECT track_id, COUNT(*) FROM (
			SELECT winner_id AS track_id FROM comparisons
			UNION ALL
			SELECT loser_id AS track_id FROM comparisons
		)
		GROUP BY track_id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query comparison counts: %v", ErrStoreOperation, err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("%w: failed to scan comparison count: %v", ErrStoreOperation, err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: count iteration failed: %v", ErrStoreOperation, err)
	}

	return counts, nil
}
