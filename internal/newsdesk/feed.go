package newsdesk

type (
	// Feed is a normalized syndication document.
	Feed struct {
		Title       string
		Description string
		Link        string
		Items       []FeedItem
	}

	// FeedItem is one raw entry in a feed. Optional fields are empty strings when absent.
	FeedItem struct {
		Title     string
		Link      string
		Published string // As it appeared in the document
		GUID      string // Falls back to Link

		Description    string // Summary HTML
		EncodedContent string // content:encoded
		Content        string // Any other content body
		Categories     []string

		MediaContent   []Media
		Enclosures     []Media
		MediaThumbnail string
		Image          string
	}

	// Media is a reference to an attached media object.
	Media struct {
		URL    string
		Type   string
		Medium string
	}

	// NormalizedArticle is what the extractor derives from a FeedItem.
	NormalizedArticle struct {
		Text       string
		Image      string
		Category   string
		ReadTime   int
		SourceName string
	}
)
