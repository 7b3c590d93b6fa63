package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRSSFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"
  xmlns:media="http://search.yahoo.com/mrss/"
  xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>Test RSS Feed</title>
    <description>A test RSS feed</description>
    <link>https://example.com</link>
    <item>
      <title>RSS Post One</title>
      <link>https://example.com/post-1</link>
      <guid>rss-guid-1</guid>
      <description>&lt;p&gt;First RSS post description&lt;/p&gt;</description>
      <pubDate>Mon, 01 Jan 2024 12:00:00 GMT</pubDate>
      <category>Politics</category>
      <media:content url="https://cdn.example.com/one.jpg" medium="image"/>
      <media:thumbnail url="https://cdn.example.com/one-thumb.jpg"/>
    </item>
    <item>
      <title>RSS Post Two</title>
      <link>https://example.com/post-2</link>
      <description>Second RSS post description</description>
      <content:encoded><![CDATA[<p><img src="https://cdn.example.com/two.png"/> Body</p>]]></content:encoded>
      <enclosure url="https://cdn.example.com/two.mp3" type="audio/mpeg" length="1"/>
    </item>
  </channel>
</rss>`

const testAtomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Test Atom Feed</title>
  <subtitle>A test Atom feed</subtitle>
  <link href="https://example.com" rel="alternate"/>
  <entry>
    <title>Atom Post One</title>
    <id>atom-id-1</id>
    <link href="https://example.com/atom-1" rel="alternate"/>
    <summary>First Atom post summary</summary>
    <content type="html">&lt;p&gt;Full atom body&lt;/p&gt;</content>
    <updated>2024-01-01T12:00:00Z</updated>
  </entry>
</feed>`

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestFetch_RSS(t *testing.T) {
	srv := serveFeed(t, testRSSFeed)

	feed := NewFetcher(nil).Fetch(context.Background(), srv.URL)

	assert.Equal(t, "Test RSS Feed", feed.Title)
	assert.Equal(t, "A test RSS feed", feed.Description)
	require.Len(t, feed.Items, 2)

	one := feed.Items[0]
	assert.Equal(t, "RSS Post One", one.Title)
	assert.Equal(t, "rss-guid-1", one.GUID)
	assert.Equal(t, "https://example.com/post-1", one.Link)
	assert.Equal(t, "Mon, 01 Jan 2024 12:00:00 GMT", one.Published)
	assert.Equal(t, []string{"Politics"}, one.Categories)
	require.Len(t, one.MediaContent, 1)
	assert.Equal(t, "https://cdn.example.com/one.jpg", one.MediaContent[0].URL)
	assert.Equal(t, "image", one.MediaContent[0].Medium)
	assert.Equal(t, "https://cdn.example.com/one-thumb.jpg", one.MediaThumbnail)

	// Missing guid and pubDate are tolerated
	two := feed.Items[1]
	assert.Equal(t, "https://example.com/post-2", two.GUID)
	assert.Equal(t, "", two.Published)
	assert.Contains(t, two.EncodedContent, "two.png")
	require.Len(t, two.Enclosures, 1)
	assert.Equal(t, "audio/mpeg", two.Enclosures[0].Type)
}

func TestFetch_Atom(t *testing.T) {
	srv := serveFeed(t, testAtomFeed)

	feed := NewFetcher(nil).Fetch(context.Background(), srv.URL)

	assert.Equal(t, "Test Atom Feed", feed.Title)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "atom-id-1", feed.Items[0].GUID)
	assert.Equal(t, "First Atom post summary", feed.Items[0].Description)
	assert.Contains(t, feed.Items[0].Content, "Full atom body")
	assert.Empty(t, feed.Items[0].EncodedContent)
	assert.NotEmpty(t, feed.Items[0].Published)
}

func TestFetch_FailuresComeBackEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "not a feed",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("this is not xml"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			feed := NewFetcher(nil).Fetch(context.Background(), srv.URL)
			assert.Empty(t, feed.Items)
			assert.Empty(t, feed.Title)
		})
	}
}
