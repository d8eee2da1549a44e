// Package service runs ranking sessions for many users on top of a ranking
// store and implements the dependencies required by the HTTP API and the TUI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	activityqueue "github.com/okian/spotrank/internal/adapters/mq/queue"
	workerpool "github.com/okian/spotrank/internal/adapters/mq/worker"
	"github.com/okian/spotrank/internal/adapters/repository"
	"github.com/okian/spotrank/internal/domain/feed"
	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/ranklist"
	"github.com/okian/spotrank/internal/domain/scoring"
	"github.com/okian/spotrank/internal/domain/session"
	"github.com/okian/spotrank/internal/domain/tier"
	"github.com/okian/spotrank/internal/domain/types"
	"github.com/okian/spotrank/pkg/logger"
	"github.com/okian/spotrank/pkg/metrics"
)

// Step is the outcome of one user action.
type Step = types.Step

// userState is one user's canonical list and at most one open session.
type userState struct {
	mu      sync.Mutex
	list    *ranklist.List
	loaded  bool
	session *session.Session
}

// Service coordinates ranking sessions, commits and the activity feed.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	catalog    repository.Catalog
	bounds     tier.Bounds
	normalizer *scoring.Normalizer
	feed       *feed.Feed
	queue      *activityqueue.InMemoryQueue
	workerPool *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	feedSize    int

	// State
	users    map[string]*userState
	active   atomic.Int64
	started  bool
	cancelFn context.CancelFunc

	// Logging
	logger logger.Logger
}

// New constructs a Service. Without WithStore it ranks into a MemoryStore.
func New(opts ...Option) *Service {
	s := &Service{
		bounds:      tier.DefaultBounds(),
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		feedSize:    50,
		users:       make(map[string]*userState),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithBounds(s.bounds))
	}
	if s.catalog == nil {
		if c, ok := s.store.(repository.Catalog); ok {
			s.catalog = c
		}
	}
	s.normalizer = scoring.NewNormalizer(scoring.WithBounds(s.bounds))
	s.feed = feed.New(feed.WithSize(s.feedSize))
	return s
}

// Bounds returns the tier boundaries in use.
func (s *Service) Bounds() tier.Bounds {
	return s.bounds
}

// Start validates the configuration and starts the activity workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.bounds.Validate(); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	s.logger.Info(ctx, "starting ranking service...")

	s.queue = activityqueue.NewInMemoryQueue(activityqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.feed)
	// Workers outlive the Start call; Stop cancels them.
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelFn = cancel
	s.workerPool.Start(workerCtx)

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("feed_size", s.feedSize),
		logger.Float64("low_cut", s.bounds.LowCut),
		logger.Float64("high_cut", s.bounds.HighCut),
	)
	return nil
}

// Stop drains the activity queue and closes the store if it can be closed.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping ranking service...")

	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
	}
	if s.cancelFn != nil {
		s.cancelFn()
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(ctx, "closing store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "ranking service stopped")
}

// state returns the user's state, loading the list on first use.
// The returned state is locked; the caller must unlock it.
func (s *Service) state(ctx context.Context, user string) (*userState, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, fmt.Errorf("%w: empty user", ErrInvalidUser)
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, ErrNotStarted
	}
	st, ok := s.users[user]
	if !ok {
		st = &userState{
			list: ranklist.New(user, s.store,
				ranklist.WithNormalizer(s.normalizer),
				ranklist.WithLogger(s.logger.Named("ranklist"))),
		}
		s.users[user] = st
	}
	s.mu.Unlock()

	st.mu.Lock()
	if !st.loaded {
		if err := st.list.Load(ctx); err != nil {
			st.mu.Unlock()
			metrics.RecordErrorByComponent("service", "load")
			return nil, err
		}
		st.loaded = true
	}
	return st, nil
}

// BeginAdd opens an add session for c and moves it to tier selection.
func (s *Service) BeginAdd(ctx context.Context, user string, c model.Candidate) (Step, error) {
	st, err := s.state(ctx, user)
	if err != nil {
		return Step{}, err
	}
	defer st.mu.Unlock()

	if st.session != nil {
		return Step{Session: st.session.View()}, ErrSessionInProgress
	}

	sess := session.New(st.list.User(), st.list.Items())
	sess, err = session.Transition(s.bounds, sess, session.StartAdd{})
	if err != nil {
		return Step{}, err
	}
	sess, err = session.Transition(s.bounds, sess, session.SubmitCandidate{Candidate: c})
	if err != nil {
		s.reject(ctx, st.list.User(), err)
		return Step{}, err
	}

	s.open(st, &sess, "add")
	s.logger.Info(ctx, "ranking session started",
		logger.String("user", sess.User),
		logger.String("session_id", sess.ID),
		logger.String("candidate", sess.View().Candidate.Name))
	return Step{Session: sess.View()}, nil
}

// BeginEdit re-ranks an existing item. A nil notes keeps the current notes.
func (s *Service) BeginEdit(ctx context.Context, user, name string, notes *string) (Step, error) {
	st, err := s.state(ctx, user)
	if err != nil {
		return Step{}, err
	}
	defer st.mu.Unlock()

	if st.session != nil {
		return Step{Session: st.session.View()}, ErrSessionInProgress
	}

	sess := session.New(st.list.User(), st.list.Items())
	sess, err = session.Transition(s.bounds, sess, session.StartEdit{Name: name, Notes: notes})
	if err != nil {
		return Step{}, err
	}

	s.open(st, &sess, "edit")
	s.logger.Info(ctx, "ranking session started",
		logger.String("user", sess.User),
		logger.String("session_id", sess.ID),
		logger.String("editing", sess.EditingOf))
	return Step{Session: sess.View()}, nil
}

// SelectTier places the candidate in t. With no same-tier peers the item is
// committed immediately.
func (s *Service) SelectTier(ctx context.Context, user string, t tier.Tier) (Step, error) {
	return s.advance(ctx, user, session.SelectTier{Tier: t})
}

// Choose answers the pending comparison.
func (s *Service) Choose(ctx context.Context, user string, preferNew bool) (Step, error) {
	if preferNew {
		return s.advance(ctx, user, session.PreferNew{})
	}
	return s.advance(ctx, user, session.PreferExisting{})
}

// Retry re-runs a commit that the store rejected, without new comparisons.
func (s *Service) Retry(ctx context.Context, user string) (Step, error) {
	st, err := s.state(ctx, user)
	if err != nil {
		return Step{}, err
	}
	defer st.mu.Unlock()

	if st.session == nil {
		return Step{}, ErrNoActiveSession
	}
	if st.session.Phase() != session.PhaseCommitting {
		return Step{Session: st.session.View()},
			fmt.Errorf("%w: retry in %s", session.ErrInvalidTransition, st.session.Phase())
	}
	return s.commit(ctx, st)
}

// Cancel discards the user's session. The ranked list is not touched.
func (s *Service) Cancel(ctx context.Context, user string) error {
	st, err := s.state(ctx, user)
	if err != nil {
		return err
	}
	defer st.mu.Unlock()

	if st.session == nil {
		return ErrNoActiveSession
	}
	phase := st.session.Phase()
	if _, err := session.Transition(s.bounds, *st.session, session.Cancel{}); err != nil {
		return err
	}
	s.logger.Info(ctx, "ranking session cancelled",
		logger.String("user", st.session.User),
		logger.String("session_id", st.session.ID),
		logger.String("phase", string(phase)))
	s.close(st)
	metrics.RecordSessionCancelled(string(phase))
	return nil
}

// Delete removes name from the user's list and commits the rest.
func (s *Service) Delete(ctx context.Context, user, name string) ([]types.Entry, error) {
	st, err := s.state(ctx, user)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()

	if st.session != nil {
		return nil, ErrSessionInProgress
	}
	removed, ok := st.list.Find(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", session.ErrItemNotFound, name)
	}
	rest, _ := ranklist.Without(st.list.Items(), name)

	start := time.Now()
	items, err := st.list.Commit(ctx, rest)
	metrics.RecordCommitLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordPersistenceFailure()
		metrics.RecordErrorByComponent("service", "persistence")
		return nil, err
	}

	metrics.RecordSessionCommitted("delete", 0)
	s.publish(ctx, model.Activity{User: st.list.User(), Kind: model.ActivityRemoved, Item: removed})
	s.logger.Info(ctx, "ranked item removed",
		logger.String("user", st.list.User()),
		logger.String("item", removed.Name))
	return types.Entries(items), nil
}

// Rankings returns the user's ranked list.
func (s *Service) Rankings(ctx context.Context, user string) ([]types.Entry, error) {
	st, err := s.state(ctx, user)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()
	return types.Entries(st.list.Items()), nil
}

// Reload re-reads the user's list from the store.
func (s *Service) Reload(ctx context.Context, user string) ([]types.Entry, error) {
	st, err := s.state(ctx, user)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()

	if st.session != nil {
		return nil, ErrSessionInProgress
	}
	if err := st.list.Load(ctx); err != nil {
		return nil, err
	}
	return types.Entries(st.list.Items()), nil
}

// Current returns the user's open session.
func (s *Service) Current(ctx context.Context, user string) (session.View, error) {
	st, err := s.state(ctx, user)
	if err != nil {
		return session.View{}, err
	}
	defer st.mu.Unlock()

	if st.session == nil {
		return session.View{}, ErrNoActiveSession
	}
	return st.session.View(), nil
}

// Suggestions lists catalog spots matching query that the user has not ranked.
func (s *Service) Suggestions(ctx context.Context, user, query string, limit int) ([]model.Spot, error) {
	if s.catalog == nil {
		return []model.Spot{}, nil
	}
	// Without a user nothing is filtered.
	ranked := func(string) bool { return false }
	if strings.TrimSpace(user) != "" {
		st, err := s.state(ctx, user)
		if err != nil {
			return nil, err
		}
		list := st.list
		st.mu.Unlock()
		ranked = list.Contains
	}

	spots, err := s.catalog.ListKnownSpots(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list known spots: %w", err)
	}
	out := make([]model.Spot, 0, len(spots))
	for _, sp := range spots {
		if ranked(sp.Name) {
			continue
		}
		out = append(out, sp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Feed returns recent activity, newest first.
func (s *Service) Feed(limit int) []model.Activity {
	return s.feed.Recent(limit)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"feedSize":       s.feedSize,
		"users":          len(s.users),
		"activeSessions": s.active.Load(),
		"feedLength":     s.feed.Len(),
	}
	if s.started && s.queue != nil {
		stats["queueLength"] = s.queue.Len(context.Background())
	}
	return stats
}

// RefreshMetrics publishes gauges that are cheaper to compute periodically.
func (s *Service) RefreshMetrics(ctx context.Context) {
	s.mu.RLock()
	lists := make([]*ranklist.List, 0, len(s.users))
	for _, st := range s.users {
		lists = append(lists, st.list)
	}
	q := s.queue
	s.mu.RUnlock()

	counts := map[tier.Tier]int{}
	for _, l := range lists {
		for _, it := range l.Items() {
			counts[it.Tier]++
		}
	}
	for _, t := range tier.All {
		metrics.UpdateRankedItems(t.String(), counts[t])
	}
	metrics.UpdateActiveSessions(int(s.active.Load()))
	if q != nil {
		metrics.UpdateQueueSize(q.Len(ctx))
	}
}

// advance applies ev to the user's session and commits when it resolves.
func (s *Service) advance(ctx context.Context, user string, ev session.Event) (Step, error) {
	st, err := s.state(ctx, user)
	if err != nil {
		return Step{}, err
	}
	defer st.mu.Unlock()

	if st.session == nil {
		return Step{}, ErrNoActiveSession
	}
	next, err := session.Transition(s.bounds, *st.session, ev)
	if err != nil {
		return Step{Session: st.session.View()}, err
	}
	*st.session = next

	if next.Phase() == session.PhaseCommitting {
		return s.commit(ctx, st)
	}
	return Step{Session: next.View()}, nil
}

// commit persists the session's proposed list. On failure the session stays
// in Committing so the caller can Retry.
func (s *Service) commit(ctx context.Context, st *userState) (Step, error) {
	sess := *st.session
	pending, _ := sess.State.(session.Committing)

	start := time.Now()
	items, err := st.list.Commit(ctx, sess.Proposed())
	metrics.RecordCommitLatency(float64(time.Since(start).Microseconds()) / 1000)
	if err != nil {
		metrics.RecordPersistenceFailure()
		metrics.RecordErrorByComponent("service", "persistence")
		s.logger.Warn(ctx, "commit failed, session kept for retry",
			logger.String("user", sess.User),
			logger.String("session_id", sess.ID),
			logger.Int("index", pending.Index),
			logger.Error(err))
		return Step{Session: sess.View()}, err
	}

	done, err := session.Transition(s.bounds, sess, session.Committed{Items: items})
	if err != nil {
		return Step{Session: sess.View()}, err
	}
	s.close(st)

	kind, activity := "add", model.ActivityAdded
	if sess.EditingOf != "" {
		kind, activity = "edit", model.ActivityEdited
	}
	metrics.RecordSessionCommitted(kind, sess.Comparisons)

	out := Step{Session: done.View(), Rankings: types.Entries(items)}
	if idx := ranklist.IndexOf(items, pending.Item.Name); idx >= 0 {
		committed := items[idx]
		out.Committed = &committed
		out.Rank = idx + 1
	}
	if out.Committed != nil {
		s.publish(ctx, model.Activity{User: sess.User, Kind: activity, Item: *out.Committed, Rank: out.Rank})
	}

	s.logger.Info(ctx, "ranking committed",
		logger.String("user", sess.User),
		logger.String("session_id", sess.ID),
		logger.String("item", pending.Item.Name),
		logger.String("tier", pending.Item.Tier.String()),
		logger.Int("rank", out.Rank),
		logger.Int("comparisons", sess.Comparisons))
	return out, nil
}

func (s *Service) open(st *userState, sess *session.Session, kind string) {
	st.session = sess
	s.active.Add(1)
	metrics.RecordSessionStarted(kind)
	metrics.UpdateActiveSessions(int(s.active.Load()))
}

func (s *Service) close(st *userState) {
	if st.session == nil {
		return
	}
	st.session = nil
	s.active.Add(-1)
	metrics.UpdateActiveSessions(int(s.active.Load()))
}

func (s *Service) reject(ctx context.Context, user string, err error) {
	reason := "invalid"
	switch {
	case errors.Is(err, session.ErrEmptyName):
		reason = "empty_name"
	case errors.Is(err, session.ErrDuplicateItem):
		reason = "duplicate"
	}
	metrics.RecordRejectedCandidate(reason)
	s.logger.Debug(ctx, "candidate rejected", logger.String("user", user), logger.String("reason", reason))
}

// publish hands a to the activity workers. A full queue drops it.
func (s *Service) publish(ctx context.Context, a model.Activity) {
	a.ID = uuid.NewString()
	a.At = time.Now().UTC()

	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()

	if q == nil || !q.Enqueue(ctx, a) {
		s.logger.Warn(ctx, "activity dropped",
			logger.String("user", a.User),
			logger.String("kind", string(a.Kind)))
	}
}
