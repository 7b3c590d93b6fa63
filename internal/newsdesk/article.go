package newsdesk

import "time"

type (
	// Article is a stored, publishable piece of content.
	Article struct {
		ID                string     `db:"id"`
		Title             string     `db:"title"`
		Slug              string     `db:"slug"`
		Content           string     `db:"content"`
		Excerpt           string     `db:"excerpt"`
		Image             *string    `db:"image"`
		Published         bool       `db:"published"`
		Featured          bool       `db:"featured"`
		CategoryID        string     `db:"category_id"`
		AuthorID          string     `db:"author_id"`
		SourceName        string     `db:"source_name"`
		SourceURL         string     `db:"source_url"`
		SourceID          string     `db:"source_id"`
		GUID              *string    `db:"guid"`
		AIRewritten       bool       `db:"ai_rewritten"`
		OriginalContent   string     `db:"original_content"`
		ReadTime          int        `db:"read_time"`
		SourcePublishedAt *time.Time `db:"source_published_at"`
		CreatedAt         time.Time  `db:"created_at"`
		PublishedAt       *time.Time `db:"published_at"`
	}

	// NewArticle holds the fields needed to create an article.
	//
	// An empty GUID is stored as NULL so that it never collides.
	NewArticle struct {
		Title             string
		Slug              string
		Content           string
		Excerpt           string
		Image             string
		Published         bool
		Featured          bool
		CategoryID        string
		AuthorID          string
		SourceName        string
		SourceURL         string
		SourceID          string
		GUID              string
		AIRewritten       bool
		OriginalContent   string
		ReadTime          int
		SourcePublishedAt *time.Time
		CreatedAt         time.Time
	}

	Category struct {
		ID   string `db:"id"`
		Slug string `db:"slug"`
		Name string `db:"name"`
	}

	// ArticlesArgs pages through articles, newest first.
	ArticlesArgs struct {
		Limit        int
		Offset       int
		CategorySlug string
	}

	UpdateRewriteArgs struct {
		Title   string
		Content string
		Excerpt string
	}
)

// Closed set of category slugs the classifier may return.
const (
	CategorySports        = "sports"
	CategoryBusiness      = "business"
	CategoryTechnology    = "technology"
	CategoryEntertainment = "entertainment"
	CategoryPolitics      = "politics"
	CategoryHealth        = "health"
	CategoryWorld         = "world"
	CategoryNews          = "news"
)

// Categories lists every known category slug. News is last since it is the fallback.
var Categories = []string{
	CategorySports,
	CategoryBusiness,
	CategoryTechnology,
	CategoryEntertainment,
	CategoryPolitics,
	CategoryHealth,
	CategoryWorld,
	CategoryNews,
}
