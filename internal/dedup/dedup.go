// Package dedup decides whether an incoming item already exists in storage.
//
// The gate is a best-effort pre-filter. The storage layer's unique constraints
// on guid and slug are the authoritative guarantee and catch what slips by,
// like two runs racing on the same item.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

// Defaults for the title overlap check.
const (
	DefaultThreshold = 0.9
	DefaultWindow    = 7 * 24 * time.Hour
)

// Store is the slice of storage the gate reads from.
type Store interface {
	ArticleByGUID(ctx context.Context, guid string) (newsdesk.Article, error)
	ArticleBySourceURL(ctx context.Context, url string) (newsdesk.Article, error)
	RecentTitles(ctx context.Context, since time.Time) ([]string, error)
}

// Reason names the check that flagged an item.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonGUID      Reason = "guid"
	ReasonSourceURL Reason = "source_url"
	ReasonTitle     Reason = "title"
)

// Verdict is the outcome of a check.
type Verdict struct {
	Duplicate bool
	Reason    Reason
	// Highest title overlap seen, only set when the title check ran.
	Overlap float64
}

type Config struct {
	// An overlap strictly above this is a duplicate.
	Threshold float64
	// How far back stored titles are compared.
	Window time.Duration
}

func DefaultConfig() Config {
	return Config{
		Threshold: DefaultThreshold,
		Window:    DefaultWindow,
	}
}

type Gate struct {
	store  Store
	config Config
	now    func() time.Time
}

type Option func(*Gate)

// WithClock swaps the clock used to compute the title window.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		g.now = now
	}
}

func NewGate(store Store, config Config, opts ...Option) *Gate {
	g := &Gate{
		store:  store,
		config: config,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// IsDuplicate reports whether the candidate already exists.
func (g *Gate) IsDuplicate(ctx context.Context, guid, title, sourceURL string) (bool, error) {
	v, err := g.Check(ctx, guid, title, sourceURL)
	if err != nil {
		return false, err
	}

	return v.Duplicate, nil
}

// Check runs the guid, source url and title checks in order, stopping at the first match.
func (g *Gate) Check(ctx context.Context, guid, title, sourceURL string) (Verdict, error) {
	if guid != "" {
		found, err := exists(g.store.ArticleByGUID(ctx, guid))
		if err != nil {
			return Verdict{}, fmt.Errorf("error checking guid: %w", err)
		}
		if found {
			return Verdict{Duplicate: true, Reason: ReasonGUID}, nil
		}
	}

	if sourceURL != "" {
		found, err := exists(g.store.ArticleBySourceURL(ctx, sourceURL))
		if err != nil {
			return Verdict{}, fmt.Errorf("error checking source url: %w", err)
		}
		if found {
			return Verdict{Duplicate: true, Reason: ReasonSourceURL}, nil
		}
	}

	titles, err := g.store.RecentTitles(ctx, g.now().Add(-g.config.Window))
	if err != nil {
		return Verdict{}, fmt.Errorf("error fetching recent titles: %w", err)
	}

	var best float64
	for _, stored := range titles {
		overlap := TitleOverlap(title, stored)
		if overlap > g.config.Threshold {
			return Verdict{Duplicate: true, Reason: ReasonTitle, Overlap: overlap}, nil
		}
		best = max(best, overlap)
	}

	return Verdict{Overlap: best}, nil
}

func exists(_ newsdesk.Article, err error) (bool, error) {
	if errors.Is(err, newsdesk.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// TitleOverlap is |a ∩ b| / max(|a|, |b|) over the case folded, whitespace split token sets.
func TitleOverlap(a, b string) float64 {
	ta, tb := tokens(a), tokens(b)
	longest := max(len(ta), len(tb))
	if longest == 0 {
		return 0
	}

	return float64(len(lo.Intersect(ta, tb))) / float64(longest)
}

func tokens(s string) []string {
	return lo.Uniq(strings.Fields(strings.ToLower(s)))
}
