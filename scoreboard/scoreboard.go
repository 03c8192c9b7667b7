// Package scoreboard keeps a history of finished games in a SQLite file.
package scoreboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one finished game.
type Entry struct {
	ID       int64
	Score    int
	Merges   int
	Drops    int
	MaxTier  int
	Duration time.Duration
	PlayedAt time.Time
}

type Board struct {
	db   *sql.DB
	once sync.Once
}

// Open creates or opens the scoreboard at path.
func Open(path string) (*Board, error) {
	if path == "" {
		return nil, fmt.Errorf("empty scoreboard path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Board{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=2000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			score INTEGER NOT NULL,
			merges INTEGER NOT NULL,
			drops INTEGER NOT NULL,
			max_tier INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			played_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS games_score ON games(score DESC, id ASC);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}

// Record stores e and returns its row id. A zero PlayedAt is set to now.
func (b *Board) Record(ctx context.Context, e Entry) (int64, error) {
	if e.PlayedAt.IsZero() {
		e.PlayedAt = time.Now()
	}
	res, err := b.db.ExecContext(ctx,
		`INSERT INTO games(score,merges,drops,max_tier,duration_ms,played_at_ms) VALUES(?,?,?,?,?,?)`,
		e.Score, e.Merges, e.Drops, e.MaxTier, e.Duration.Milliseconds(), e.PlayedAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("record game: %w", err)
	}
	return res.LastInsertId()
}

// Top returns up to n games, highest score first. Ties go to the earlier game.
func (b *Board) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := b.db.QueryContext(ctx,
		`SELECT id,score,merges,drops,max_tier,duration_ms,played_at_ms FROM games ORDER BY score DESC, id ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("top games: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Best returns the highest scoring game, or false if none was recorded.
func (b *Board) Best(ctx context.Context) (Entry, bool, error) {
	row := b.db.QueryRowContext(ctx,
		`SELECT id,score,merges,drops,max_tier,duration_ms,played_at_ms FROM games ORDER BY score DESC, id ASC LIMIT 1`)
	e, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (Entry, error) {
	var (
		e          Entry
		durationMs int64
		playedAtMs int64
	)
	if err := s.Scan(&e.ID, &e.Score, &e.Merges, &e.Drops, &e.MaxTier, &durationMs, &playedAtMs); err != nil {
		return Entry{}, err
	}
	e.Duration = time.Duration(durationMs) * time.Millisecond
	e.PlayedAt = time.UnixMilli(playedAtMs)
	return e, nil
}

// Close releases the database. It is safe to call more than once.
func (b *Board) Close() error {
	var err error
	b.once.Do(func() {
		err = b.db.Close()
	})
	return err
}
