// Package remote talks to the hosted spots backend over its REST API and
// exposes it as a ranking store and spot catalog.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/spotrank/internal/domain/model"
	"github.com/okian/spotrank/internal/domain/tier"
	"github.com/okian/spotrank/pkg/logger"
	"github.com/okian/spotrank/pkg/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// Client is a rate-limited client for the rankings backend.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	bounds  tier.Bounds
	log     logger.Logger

	ownerMu sync.Mutex
	owner   string
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithToken sets the bearer token used for writes.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRate limits requests to rps per second. rps <= 0 disables the limit.
func WithRate(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithBounds sets the tier boundaries rows are classified with.
func WithBounds(b tier.Bounds) Option {
	return func(c *Client) { c.bounds = b }
}

// WithOwner names the user the token belongs to. Without it the owner is
// resolved from /api/users/me on the first write.
func WithOwner(user string) Option {
	return func(c *Client) { c.owner = strings.TrimSpace(user) }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		bounds:  tier.DefaultBounds(),
		log:     logger.Get().Named("remote"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rankingRow struct {
	SpotName string  `json:"spot_name"`
	Score    float64 `json:"score"`
	Notes    string  `json:"notes"`
	PhotoURL string  `json:"photo_url"`
}

type setRankingsRequest struct {
	Rankings []rankingRow `json:"rankings"`
}

type remoteSpot struct {
	ID       json.Number `json:"id"`
	Name     string      `json:"name"`
	Category string      `json:"category"`
}

type meResponse struct {
	Username string `json:"username"`
}

type rankingResponse struct {
	Rank     int        `json:"rank"`
	Score    float64    `json:"score"`
	Rating   string     `json:"rating"`
	Notes    string     `json:"notes"`
	PhotoURL string     `json:"photo_url"`
	Spot     remoteSpot `json:"spot"`
}

// FetchRankings returns the user's list, best first.
func (c *Client) FetchRankings(ctx context.Context, user string) ([]model.RankedItem, error) {
	var rows []rankingResponse
	path := "/api/rankings/user/" + url.PathEscape(user)
	if err := c.do(ctx, "fetch", http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	return c.items(rows), nil
}

// ReplaceRankings sends the full list. The backend writes to the token's
// owner, so any other user is refused with ErrNotOwner.
func (c *Client) ReplaceRankings(ctx context.Context, user string, items []model.RankedItem) ([]model.RankedItem, error) {
	owner, err := c.Owner(ctx)
	if err != nil {
		return nil, fmt.Errorf("replace rankings for %s: %w", user, err)
	}
	if user != owner {
		metrics.RecordStoreError("remote_replace")
		return nil, fmt.Errorf("%w: %q cannot write %q", ErrNotOwner, owner, user)
	}

	req := setRankingsRequest{Rankings: make([]rankingRow, len(items))}
	for i, it := range items {
		req.Rankings[i] = rankingRow{SpotName: it.Name, Score: it.Score, Notes: it.Notes, PhotoURL: it.PhotoURL}
	}
	var rows []rankingResponse
	if err := c.do(ctx, "replace", http.MethodPut, "/api/rankings", req, &rows); err != nil {
		return nil, fmt.Errorf("replace rankings for %s: %w", user, err)
	}
	return c.items(rows), nil
}

// Owner returns the user the token writes for.
func (c *Client) Owner(ctx context.Context) (string, error) {
	c.ownerMu.Lock()
	defer c.ownerMu.Unlock()
	if c.owner != "" {
		return c.owner, nil
	}
	if c.token == "" {
		return "", ErrNoOwner
	}
	var me meResponse
	if err := c.do(ctx, "owner", http.MethodGet, "/api/users/me", nil, &me); err != nil {
		return "", fmt.Errorf("resolve owner: %w", err)
	}
	if strings.TrimSpace(me.Username) == "" {
		return "", ErrNoOwner
	}
	c.owner = strings.TrimSpace(me.Username)
	return c.owner, nil
}

// ListKnownSpots searches the backend catalog.
func (c *Client) ListKnownSpots(ctx context.Context, query string) ([]model.Spot, error) {
	var rows []remoteSpot
	path := "/api/spots?q=" + url.QueryEscape(query)
	if err := c.do(ctx, "catalog", http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	spots := make([]model.Spot, len(rows))
	for i, r := range rows {
		spots[i] = model.Spot{ID: r.ID.String(), Name: r.Name, Category: r.Category}
	}
	return spots, nil
}

func (c *Client) items(rows []rankingResponse) []model.RankedItem {
	items := make([]model.RankedItem, len(rows))
	for i, r := range rows {
		t := c.tierOf(r)
		items[i] = model.RankedItem{
			Name:     r.Spot.Name,
			Tier:     t,
			Score:    r.Score,
			Notes:    r.Notes,
			PhotoURL: r.PhotoURL,
		}
	}
	return items
}

// tierOf classifies a row by its score under the client's bounds. The
// backend's own rating uses different cuts and only covers scores outside
// the axis.
func (c *Client) tierOf(r rankingResponse) tier.Tier {
	if r.Score >= 0 && r.Score <= tier.MaxScore {
		return c.bounds.TierOf(r.Score)
	}
	if t, err := tier.Parse(r.Rating); err == nil {
		return t
	}
	return c.bounds.TierOf(math.Max(0, math.Min(r.Score, tier.MaxScore)))
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency("remote_"+op, float64(time.Since(start).Microseconds())/1000)
		if err != nil {
			metrics.RecordStoreError("remote_" + op)
		}
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Warn(ctx, "backend rejected request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status", resp.StatusCode))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
