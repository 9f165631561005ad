package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"jukebox/src/features/stats"
	"jukebox/src/music"
)

// SqliteStats is a SQLite implementation of the stats.Store interface.
type SqliteStats struct {
	db *sql.DB
}

// NewSqliteStats opens (or creates) the play statistics database.
func NewSqliteStats(path string) (*SqliteStats, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SqliteStats{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS plays (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			track_index INTEGER NOT NULL,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			album TEXT,
			origin TEXT NOT NULL,
			played_at TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_plays_title_artist ON plays(title, artist);
	`)
	return err
}

// RecordPlay inserts one play into the history.
func (s *SqliteStats) RecordPlay(ctx context.Context, track music.Track, origin string, playedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plays (track_index, title, artist, album, origin, played_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, track.Index, track.Title, track.Artist, track.Album, origin, playedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

// TopSongs returns the most-played tracks, ties broken by recency.
func (s *SqliteStats) TopSongs(ctx context.Context, limit int) ([]stats.TopSong, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, artist, COUNT(*) AS plays, MAX(played_at) AS last_played
		FROM plays
		GROUP BY title, artist
		ORDER BY plays DESC, last_played DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top songs: %w", err)
	}
	defer rows.Close()

	var songs []stats.TopSong
	for rows.Next() {
		var song stats.TopSong
		if err := rows.Scan(&song.Title, &song.Artist, &song.PlayCount, &song.LastPlayed); err != nil {
			return nil, fmt.Errorf("failed to scan top song: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// TotalPlays returns the number of recorded plays.
func (s *SqliteStats) TotalPlays(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plays`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count plays: %w", err)
	}
	return count, nil
}

// PruneOldest deletes all but the newest keep rows.
func (s *SqliteStats) PruneOldest(ctx context.Context, keep int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM plays WHERE id NOT IN (
			SELECT id FROM plays ORDER BY id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("failed to prune play history: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SqliteStats) Close() error {
	return s.db.Close()
}
