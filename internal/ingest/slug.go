package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

const (
	maxSlugLen    = 80
	maxSlugSuffix = 1000
)

// Slugify lowercases title, folds accents away and joins the remaining ASCII
// letters and digits with single dashes.
func Slugify(title string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, title)
	if err != nil {
		folded = title
	}

	var (
		b    strings.Builder
		dash bool
	)
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return "article"
	}

	return slug
}

// uniqueSlug slugifies title and appends -1, -2, ... until the slug is free.
func (i *Ingester) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := Slugify(title)

	slug := base
	for n := 1; n <= maxSlugSuffix; n++ {
		_, err := i.repo.ArticleBySlug(ctx, slug)
		if errors.Is(err, newsdesk.ErrNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", fmt.Errorf("error checking slug: %w", err)
		}

		slug = fmt.Sprintf("%s-%d", base, n)
	}

	return "", fmt.Errorf("no free slug for %q", base)
}
