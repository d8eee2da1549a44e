package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/spotrank/internal/domain/dedupe"
	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/pkg/logger"
)

type spotRecord struct {
	model.Spot
	CreatedAt time.Time
}

type rankingRecord struct {
	SpotID    string
	Score     float64
	Notes     string
	PhotoURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MemoryStore keeps spots and rankings in process memory. Like the hosted
// backend it stores only scores; tiers are derived from them on read.
type MemoryStore struct {
	mu       sync.RWMutex
	opts     options
	spots    map[string]*spotRecord // by dedupe.Key(name)
	spotByID map[string]*spotRecord
	rankings map[string][]rankingRecord // by user, best first
}

// NewMemoryStore creates an empty store, seeding the catalog if asked.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := &MemoryStore{
		opts:     o,
		spots:    make(map[string]*spotRecord),
		spotByID: make(map[string]*spotRecord),
		rankings: make(map[string][]rankingRecord),
	}
	for _, seed := range o.seeds {
		sp := s.spotLocked(seed.Name)
		if sp.Category == "" {
			sp.Category = seed.Category
		}
	}
	return s
}

// FetchRankings returns the user's list, best first.
func (s *MemoryStore) FetchRankings(ctx context.Context, user string) (items []model.RankedItem, err error) {
	defer func(start time.Time) { observe("fetch", start, err) }(time.Now())
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	if err = validateUser(user); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemsLocked(user), nil
}

// ReplaceRankings stores items as the user's complete list.
func (s *MemoryStore) ReplaceRankings(ctx context.Context, user string, items []model.RankedItem) (out []model.RankedItem, err error) {
	defer func(start time.Time) { observe("replace", start, err) }(time.Now())
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	if err = validateUser(user); err != nil {
		return nil, err
	}
	if err = validateItems(items); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.now()
	created := make(map[string]time.Time, len(s.rankings[user]))
	for _, r := range s.rankings[user] {
		created[r.SpotID] = r.CreatedAt
	}

	rows := make([]rankingRecord, 0, len(items))
	for _, it := range items {
		sp := s.spotLocked(it.Name)
		c, ok := created[sp.ID]
		if !ok {
			c = now
		}
		rows = append(rows, rankingRecord{
			SpotID:    sp.ID,
			Score:     it.Score,
			Notes:     it.Notes,
			PhotoURL:  it.PhotoURL,
			CreatedAt: c,
			UpdatedAt: now,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })
	s.rankings[user] = rows

	s.opts.logger.Debug(ctx, "rankings replaced",
		logger.String("user", user),
		logger.Int("items", len(rows)))
	return s.itemsLocked(user), nil
}

// ListKnownSpots returns catalog spots matching query.
func (s *MemoryStore) ListKnownSpots(ctx context.Context, query string) (spots []model.Spot, err error) {
	defer func(start time.Time) { observe("catalog", start, err) }(time.Now())
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	q := dedupe.Key(query)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, sp := range s.spots {
		if q == "" || strings.Contains(key, q) {
			spots = append(spots, sp.Spot)
		}
	}
	sort.Slice(spots, func(i, j int) bool { return dedupe.Key(spots[i].Name) < dedupe.Key(spots[j].Name) })
	return spots, nil
}

// Users returns every user holding a list, sorted.
func (s *MemoryStore) Users(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, 0, len(s.rankings))
	for u := range s.rankings {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// spotLocked gets or creates the spot called name. Caller holds s.mu for writing.
func (s *MemoryStore) spotLocked(name string) *spotRecord {
	key := dedupe.Key(name)
	if sp, ok := s.spots[key]; ok {
		return sp
	}
	sp := &spotRecord{
		Spot:      model.Spot{ID: uuid.NewString(), Name: strings.TrimSpace(name)},
		CreatedAt: s.opts.now(),
	}
	s.spots[key] = sp
	s.spotByID[sp.ID] = sp
	return sp
}

func (s *MemoryStore) itemsLocked(user string) []model.RankedItem {
	rows := s.rankings[user]
	items := make([]model.RankedItem, 0, len(rows))
	for _, r := range rows {
		sp := s.spotByID[r.SpotID]
		items = append(items, model.RankedItem{
			Name:     sp.Name,
			Tier:     s.opts.bounds.TierOf(r.Score),
			Score:    r.Score,
			Notes:    r.Notes,
			PhotoURL: r.PhotoURL,
		})
	}
	return items
}
