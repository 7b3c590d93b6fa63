package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	readability "github.com/go-shiori/go-readability"
)

// FullText fetches the linked page and returns its main content as plain text.
func FullText(ctx context.Context, client *http.Client, link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("error parsing link: %s", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %s", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	parser := readability.NewParser()
	article, err := parser.Parse(resp.Body, u)
	if err != nil {
		return "", fmt.Errorf("error parsing page: %s", err)
	}

	return PlainText(article.Content), nil
}
