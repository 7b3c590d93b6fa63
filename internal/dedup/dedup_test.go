package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

type stubStore struct {
	guids  map[string]bool
	urls   map[string]bool
	titles []string
	err    error

	// Records the window start that was asked for
	since time.Time
	calls []string
}

func (s *stubStore) ArticleByGUID(_ context.Context, guid string) (newsdesk.Article, error) {
	s.calls = append(s.calls, "guid")
	if s.err != nil {
		return newsdesk.Article{}, s.err
	}
	if s.guids[guid] {
		return newsdesk.Article{ID: "a"}, nil
	}
	return newsdesk.Article{}, newsdesk.ErrNotFound
}

func (s *stubStore) ArticleBySourceURL(_ context.Context, url string) (newsdesk.Article, error) {
	s.calls = append(s.calls, "url")
	if s.urls[url] {
		return newsdesk.Article{ID: "a"}, nil
	}
	return newsdesk.Article{}, newsdesk.ErrNotFound
}

func (s *stubStore) RecentTitles(_ context.Context, since time.Time) ([]string, error) {
	s.calls = append(s.calls, "titles")
	s.since = since
	return s.titles, nil
}

func TestTitleOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "City Council Approves Budget", b: "city council approves budget", want: 1},
		{name: "one extra word", a: "City council approves budget", b: "City council approves new budget", want: 0.8},
		{name: "disjoint", a: "Storm hits coast", b: "Markets rally", want: 0},
		{name: "empty", a: "", b: "", want: 0},
		{name: "repeated tokens count once", a: "go go go", b: "go", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TitleOverlap(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCheck_GUIDShortCircuits(t *testing.T) {
	store := &stubStore{guids: map[string]bool{"g-1": true}}
	gate := NewGate(store, DefaultConfig())

	v, err := gate.Check(context.Background(), "g-1", "Anything", "https://a/1")
	require.NoError(t, err)
	assert.Equal(t, Verdict{Duplicate: true, Reason: ReasonGUID}, v)
	assert.Equal(t, []string{"guid"}, store.calls)
}

func TestCheck_SourceURL(t *testing.T) {
	store := &stubStore{urls: map[string]bool{"https://a/1": true}}
	gate := NewGate(store, DefaultConfig())

	v, err := gate.Check(context.Background(), "g-new", "Anything", "https://a/1")
	require.NoError(t, err)
	assert.Equal(t, ReasonSourceURL, v.Reason)
	assert.Equal(t, []string{"guid", "url"}, store.calls)
}

func TestCheck_EmptyKeysSkipLookups(t *testing.T) {
	store := &stubStore{}
	gate := NewGate(store, DefaultConfig())

	dup, err := gate.IsDuplicate(context.Background(), "", "Fresh title", "")
	require.NoError(t, err)
	assert.False(t, dup)
	assert.Equal(t, []string{"titles"}, store.calls)
}

func TestCheck_TitleThresholdIsStrict(t *testing.T) {
	store := &stubStore{titles: []string{"City council approves new budget"}}
	gate := NewGate(store, DefaultConfig())

	v, err := gate.Check(context.Background(), "", "City council approves budget", "")
	require.NoError(t, err)
	assert.False(t, v.Duplicate)
	assert.InDelta(t, 0.8, v.Overlap, 1e-9)

	// Exactly at the threshold is still not a duplicate
	gate = NewGate(store, Config{Threshold: 0.8, Window: DefaultWindow})
	v, err = gate.Check(context.Background(), "", "City council approves budget", "")
	require.NoError(t, err)
	assert.False(t, v.Duplicate)

	gate = NewGate(store, Config{Threshold: 0.79, Window: DefaultWindow})
	v, err = gate.Check(context.Background(), "", "City council approves budget", "")
	require.NoError(t, err)
	assert.True(t, v.Duplicate)
	assert.Equal(t, ReasonTitle, v.Reason)
}

func TestCheck_Window(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	store := &stubStore{}
	gate := NewGate(store, DefaultConfig(), WithClock(func() time.Time { return now }))

	_, err := gate.Check(context.Background(), "", "Title", "")
	require.NoError(t, err)
	assert.Equal(t, now.Add(-7*24*time.Hour), store.since)
}

func TestCheck_StoreError(t *testing.T) {
	store := &stubStore{err: errors.New("db down")}
	gate := NewGate(store, DefaultConfig())

	_, err := gate.Check(context.Background(), "g", "Title", "")
	require.Error(t, err)
}
