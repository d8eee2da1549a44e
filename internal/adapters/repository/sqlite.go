package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/spotrank/internal/domain/dedupe"
	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/tier"
	"github.com/okian/spotrank/pkg/logger"
)

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS spots (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	name_key TEXT NOT NULL UNIQUE,
	category TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS rankings (
	user_name TEXT NOT NULL,
	spot_id TEXT NOT NULL REFERENCES spots(id),
	position INTEGER NOT NULL,
	tier TEXT NOT NULL,
	score REAL NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	photo_url TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (user_name, spot_id)
);

CREATE INDEX IF NOT EXISTS rankings_user_position ON rankings(user_name, position);
`

// SQLiteStore persists spots and rankings in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

// OpenSQLite opens (or creates) the database at path and prepares the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repository: open database: %w", err)
	}
	// One writer keeps full replaces serialized and :memory: databases shared.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA foreign_keys = ON", "PRAGMA journal_mode=WAL", createTablesSQL} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("repository: prepare schema: %w", err)
		}
	}

	s := &SQLiteStore{db: db, opts: o}
	for _, seed := range o.seeds {
		if err := s.seed(ctx, seed); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FetchRankings returns the user's list, best first.
func (s *SQLiteStore) FetchRankings(ctx context.Context, user string) (items []model.RankedItem, err error) {
	defer func(start time.Time) { observe("fetch", start, err) }(time.Now())
	if err = validateUser(user); err != nil {
		return nil, err
	}
	return s.fetch(ctx, s.db, user)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) fetch(ctx context.Context, q querier, user string) ([]model.RankedItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT sp.name, r.tier, r.score, r.notes, r.photo_url
		FROM rankings r JOIN spots sp ON sp.id = r.spot_id
		WHERE r.user_name = ?
		ORDER BY r.position`, user)
	if err != nil {
		return nil, fmt.Errorf("repository: fetch rankings for %s: %w", user, err)
	}
	defer rows.Close()

	items := []model.RankedItem{}
	for rows.Next() {
		var (
			it       model.RankedItem
			tierText string
		)
		if err := rows.Scan(&it.Name, &tierText, &it.Score, &it.Notes, &it.PhotoURL); err != nil {
			return nil, fmt.Errorf("repository: scan ranking: %w", err)
		}
		it.Tier = tierOf(s.opts.bounds, tierText, it.Score)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: iterate rankings: %w", err)
	}
	return items, nil
}

// ReplaceRankings stores items as the user's complete list in one transaction.
func (s *SQLiteStore) ReplaceRankings(ctx context.Context, user string, items []model.RankedItem) (out []model.RankedItem, err error) {
	defer func(start time.Time) { observe("replace", start, err) }(time.Now())
	if err = validateUser(user); err != nil {
		return nil, err
	}
	if err = validateItems(items); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("repository: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	created, err := s.createdAt(ctx, tx, user)
	if err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM rankings WHERE user_name = ?`, user); err != nil {
		return nil, fmt.Errorf("repository: clear rankings for %s: %w", user, err)
	}

	now := s.opts.now().UnixNano()
	for pos, it := range items {
		var spotID string
		spotID, err = s.ensureSpot(ctx, tx, it.Name, "")
		if err != nil {
			return nil, err
		}
		c, ok := created[spotID]
		if !ok {
			c = now
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rankings (user_name, spot_id, position, tier, score, notes, photo_url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			user, spotID, pos, it.Tier.String(), it.Score, it.Notes, it.PhotoURL, c, now)
		if err != nil {
			return nil, fmt.Errorf("repository: insert ranking %q: %w", it.Name, err)
		}
	}

	if out, err = s.fetch(ctx, tx, user); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("repository: commit: %w", err)
	}

	s.opts.logger.Debug(ctx, "rankings replaced",
		logger.String("user", user),
		logger.Int("items", len(out)))
	return out, nil
}

func (s *SQLiteStore) createdAt(ctx context.Context, tx *sql.Tx, user string) (map[string]int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT spot_id, created_at FROM rankings WHERE user_name = ?`, user)
	if err != nil {
		return nil, fmt.Errorf("repository: read created_at: %w", err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var (
			id string
			c  int64
		)
		if err := rows.Scan(&id, &c); err != nil {
			return nil, fmt.Errorf("repository: scan created_at: %w", err)
		}
		out[id] = c
	}
	return out, rows.Err()
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ensureSpot returns the id of the spot called name, creating it when missing.
func (s *SQLiteStore) ensureSpot(ctx context.Context, q execQuerier, name, category string) (string, error) {
	key := dedupe.Key(name)
	var id string
	err := q.QueryRowContext(ctx, `SELECT id FROM spots WHERE name_key = ?`, key).Scan(&id)
	switch {
	case err == nil:
		return id, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("repository: look up spot %q: %w", name, err)
	}

	id = uuid.NewString()
	_, err = q.ExecContext(ctx,
		`INSERT INTO spots (id, name, name_key, category, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(name), key, category, s.opts.now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("repository: create spot %q: %w", name, err)
	}
	return id, nil
}

func (s *SQLiteStore) seed(ctx context.Context, seed Seed) error {
	if strings.TrimSpace(seed.Name) == "" {
		return nil
	}
	if _, err := s.ensureSpot(ctx, s.db, seed.Name, seed.Category); err != nil {
		return err
	}
	return nil
}

// ListKnownSpots returns catalog spots matching query.
func (s *SQLiteStore) ListKnownSpots(ctx context.Context, query string) (spots []model.Spot, err error) {
	defer func(start time.Time) { observe("catalog", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category FROM spots WHERE instr(name_key, ?) > 0 ORDER BY name_key`,
		dedupe.Key(query))
	if err != nil {
		return nil, fmt.Errorf("repository: list spots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sp model.Spot
		if err = rows.Scan(&sp.ID, &sp.Name, &sp.Category); err != nil {
			return nil, fmt.Errorf("repository: scan spot: %w", err)
		}
		spots = append(spots, sp)
	}
	return spots, rows.Err()
}

func tierOf(b tier.Bounds, stored string, score float64) tier.Tier {
	if t, err := tier.Parse(stored); err == nil {
		return t
	}
	return b.TierOf(score)
}
