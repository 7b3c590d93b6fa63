// Package classify asks the generation service which category an item belongs to.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jdholdren/newsdesk/internal/genai"
	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

// Keeps the prompt small; the opening of an item is enough to place it.
const maxContentChars = 1000

const systemPrompt = `You are a news desk editor. You sort news items into exactly one category.`

const promptTemplate = `Categorize this news item into exactly one of these categories: %s.

Title: %s

Content: %s

Respond with only the category name in lowercase, nothing else.`

type Classifier struct {
	gen genai.Generator
}

func New(gen genai.Generator) *Classifier {
	return &Classifier{gen: gen}
}

// Classify returns a category slug for the item. It never fails: anything
// that goes wrong yields [newsdesk.CategoryNews].
func (c *Classifier) Classify(ctx context.Context, title, content string) string {
	text, err := c.gen.Generate(ctx, genai.Request{
		System:      systemPrompt,
		Prompt:      fmt.Sprintf(promptTemplate, strings.Join(newsdesk.Categories, ", "), title, truncate(content, maxContentChars)),
		Temperature: 0.1,
		MaxTokens:   20,
	})
	if err != nil {
		slog.WarnContext(ctx, "error classifying, falling back", "error", err, "kind", genai.KindOf(err))
		return newsdesk.CategoryNews
	}

	category, ok := Parse(text)
	if !ok {
		slog.WarnContext(ctx, "unrecognized category in response, falling back", "response", text)
		return newsdesk.CategoryNews
	}

	return category
}

// Parse finds the known category slug that appears earliest in text.
func Parse(text string) (string, bool) {
	text = strings.ToLower(strings.TrimSpace(text))

	var (
		best    string
		bestPos = -1
	)
	for _, category := range newsdesk.Categories {
		pos := strings.Index(text, category)
		if pos < 0 {
			continue
		}
		if bestPos < 0 || pos < bestPos {
			best, bestPos = category, pos
		}
	}

	return best, bestPos >= 0
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n])
}
