// Package sources loads the catalog of feeds to ingest and applies tier
// weighting to per-source item limits.
package sources

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

// Catalog is the parsed sources file.
type Catalog struct {
	// Weight per tier name. Tiers missing here weigh 1.
	Tiers   map[string]float64 `yaml:"tiers"`
	Sources []newsdesk.Source  `yaml:"sources"`
}

// Load reads and validates the catalog at path.
func Load(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("error reading sources file: %w", err)
	}

	return Parse(raw)
}

func Parse(raw []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("error parsing sources file: %s", err)
	}
	if err := c.validate(); err != nil {
		return Catalog{}, err
	}

	return c, nil
}

func (c Catalog) validate() error {
	var errs []error
	for i, src := range c.Sources {
		if strings.TrimSpace(src.ID) == "" {
			errs = append(errs, fmt.Errorf("source %d: missing id", i))
		}
		if strings.TrimSpace(src.URL) == "" {
			errs = append(errs, fmt.Errorf("source %q: missing url", src.ID))
		}
		if !lo.Contains(newsdesk.Categories, src.Category) {
			errs = append(errs, fmt.Errorf("source %q: unknown category %q", src.ID, src.Category))
		}
		if src.Limit < 0 {
			errs = append(errs, fmt.Errorf("source %q: negative limit", src.ID))
		}
	}
	for _, dup := range lo.FindDuplicatesBy(c.Sources, func(src newsdesk.Source) string { return src.ID }) {
		errs = append(errs, fmt.Errorf("source %q: duplicate id", dup.ID))
	}
	for tier, weight := range c.Tiers {
		if weight <= 0 {
			errs = append(errs, fmt.Errorf("tier %q: weight must be positive", tier))
		}
	}

	return errors.Join(errs...)
}

// Weight of the tier, 1 when the tier isn't listed.
func (c Catalog) Weight(tier string) float64 {
	if w, ok := c.Tiers[tier]; ok {
		return w
	}
	return 1
}

// Active lists the active sources, heaviest tier first. Sources within a
// tier keep their file order.
func (c Catalog) Active() []newsdesk.Source {
	active := lo.Filter(c.Sources, func(src newsdesk.Source, _ int) bool { return src.Active })
	slices.SortStableFunc(active, func(a, b newsdesk.Source) int {
		wa, wb := c.Weight(a.Tier), c.Weight(b.Tier)
		switch {
		case wa > wb:
			return -1
		case wa < wb:
			return 1
		}
		return 0
	})

	return active
}

// Limit is base scaled by the source's tier weight, rounded up and never
// below 1. A source's own positive Limit wins.
func (c Catalog) Limit(src newsdesk.Source, base int) int {
	if src.Limit > 0 {
		return src.Limit
	}
	if base <= 0 {
		return 0
	}

	return max(1, int(math.Ceil(float64(base)*c.Weight(src.Tier))))
}

// Weighted is Active with each source's Limit set from its tier.
func (c Catalog) Weighted(base int) []newsdesk.Source {
	return lo.Map(c.Active(), func(src newsdesk.Source, _ int) newsdesk.Source {
		src.Limit = c.Limit(src, base)
		return src
	})
}

// ByID finds the source with id.
func (c Catalog) ByID(id string) (newsdesk.Source, bool) {
	return lo.Find(c.Sources, func(src newsdesk.Source) bool { return src.ID == id })
}

// HeadlineFeeds maps each category to the feed of its first active source.
func (c Catalog) HeadlineFeeds() map[string]string {
	feeds := make(map[string]string)
	for _, src := range c.Active() {
		if _, ok := feeds[src.Category]; !ok {
			feeds[src.Category] = src.URL
		}
	}

	return feeds
}
