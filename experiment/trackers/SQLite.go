package trackers

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	ts "github.com/samuelfneumann/goddpg/timestep"
)

// SQLite tracks episodic returns like Return, but saves them to a
// SQLite database instead of a gob file, so that returns from many
// runs can be collected into one queryable place.
//
// Each call to Save writes the completed episodes of one run under a
// run label, one row per episode.
type SQLite struct {
	episodeReturns
	db  *sql.DB
	run string
}

// NewSQLite creates and returns a new *SQLite Tracker which saves its
// data to the database at the argument path under the argument run
// label. The database and its schema are created if they do not exist.
func NewSQLite(ctx context.Context, path, run string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("newSQLite: database path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("newSQLite: could not open database: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("newSQLite: could not ping database: %v", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS episode_returns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run TEXT NOT NULL,
			episode INTEGER NOT NULL,
			episode_return REAL NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("newSQLite: could not create schema: %v", err)
	}

	return &SQLite{
		episodeReturns: newEpisodeReturns(),
		db:             db,
		run:            run,
	}, nil
}

// Track tracks the reward seen on a timestep, accumulating the return
// of each episode as in Return.Track
func (s *SQLite) Track(step ts.TimeStep) {
	s.track(step)
}

// Save writes the returns of all completed episodes to the database in
// a single transaction
func (s *SQLite) Save() error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save: could not begin transaction: %v", err)
	}

	for episode, ret := range s.returns {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO episode_returns (run, episode, episode_return)
			VALUES (?, ?, ?)
		`, s.run, episode, ret)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("save: could not insert episode %v: %v",
				episode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save: could not commit transaction: %v", err)
	}
	return nil
}

// Returns loads the episodic returns stored under the Tracker's run
// label, in episode order
func (s *SQLite) Returns(ctx context.Context) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT episode_return FROM episode_returns
		WHERE run = ? ORDER BY episode
	`, s.run)
	if err != nil {
		return nil, fmt.Errorf("returns: could not query returns: %v", err)
	}
	defer rows.Close()

	var returns []float64
	for rows.Next() {
		var ret float64
		if err := rows.Scan(&ret); err != nil {
			return nil, fmt.Errorf("returns: could not scan row: %v", err)
		}
		returns = append(returns, ret)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("returns: %v", err)
	}
	return returns, nil
}

// Close closes the underlying database
func (s *SQLite) Close() error {
	return s.db.Close()
}
