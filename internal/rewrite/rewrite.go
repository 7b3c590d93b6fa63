// Package rewrite turns short news items into long form articles through the
// generation service.
//
// Rewriting is best effort. When every attempt fails the original text comes
// back as a fallback, so a caller always has something to store.
package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/jdholdren/newsdesk/internal/genai"
)

const excerptChars = 200

// Article is the source material for a rewrite.
type Article struct {
	Title       string
	Content     string
	Description string
	Category    string
}

// Result is a rewritten article, or the fallback built from the source.
type Result struct {
	Title   string
	Content string
	Excerpt string
	// False when this is the fallback.
	Rewritten bool
}

type Config struct {
	// Total tries per article, including the first.
	Attempts int
	// Wait after the first failure; doubles each time after.
	BaseDelay time.Duration
	// Articles rewritten concurrently by RewriteBatch.
	BatchSize int
	// Pause between batches.
	BatchPause time.Duration
}

func DefaultConfig() Config {
	return Config{
		Attempts:   3,
		BaseDelay:  time.Second,
		BatchSize:  5,
		BatchPause: time.Second,
	}
}

type Rewriter struct {
	gen     genai.Generator
	config  Config
	backoff func(base time.Duration) retry.Backoff
}

type Option func(*Rewriter)

// WithBackoff replaces the backoff curve between attempts.
func WithBackoff(f func(base time.Duration) retry.Backoff) Option {
	return func(r *Rewriter) {
		r.backoff = f
	}
}

func New(gen genai.Generator, config Config, opts ...Option) *Rewriter {
	if config.Attempts < 1 {
		config.Attempts = 1
	}
	if config.BatchSize < 1 {
		config.BatchSize = 1
	}
	// The exponential curve needs a positive base.
	if config.BaseDelay <= 0 {
		config.BaseDelay = DefaultConfig().BaseDelay
	}

	r := &Rewriter{
		gen:     gen,
		config:  config,
		backoff: retry.NewExponential,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Delay is the wait after the given zero based attempt fails: base × 2^attempt.
func Delay(base time.Duration, attempt int) time.Duration {
	return base << attempt
}

// Rewrite expands a into a long form article, falling back to the original text
// once all attempts are used up.
func (r *Rewriter) Rewrite(ctx context.Context, a Article) Result {
	var (
		req = genai.Request{
			System:      systemPrompt,
			Prompt:      prompt(a),
			Temperature: 0.7,
			MaxTokens:   4096,
		}
		b       = retry.WithMaxRetries(uint64(r.config.Attempts-1), r.backoff(r.config.BaseDelay))
		attempt int
		out     payload
	)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		defer func() { attempt++ }()

		text, err := r.gen.Generate(ctx, req)
		if err == nil {
			out, err = extractPayload(text)
		}
		if err == nil {
			return nil
		}

		l := slog.With("attempt", attempt+1, "attempts", r.config.Attempts, "error", err)
		if genai.IsRateLimited(err) {
			l.WarnContext(ctx, "rate limited while rewriting", "backoff", Delay(r.config.BaseDelay, attempt))
		} else {
			l.WarnContext(ctx, "error rewriting", "kind", genai.KindOf(err))
		}

		return retry.RetryableError(err)
	})
	if err != nil {
		slog.ErrorContext(ctx, "rewrite attempts exhausted, using original", "error", err)
		return Fallback(a)
	}

	res := Result{
		Title:     out.Title,
		Content:   out.Content,
		Excerpt:   out.Excerpt,
		Rewritten: true,
	}
	if issues := Validate(a, res); len(issues) > 0 {
		// Advisory only: the rewrite is still used
		slog.WarnContext(ctx, "rewritten article failed validation", "issues", issues)
	}

	return res
}

// Fallback is the record used when rewriting is impossible: the original
// title and text, with the start of the description as the excerpt.
func Fallback(a Article) Result {
	content := a.Content
	if content == "" {
		content = a.Description
	}
	desc := a.Description
	if desc == "" {
		desc = content
	}

	return Result{
		Title:   a.Title,
		Content: content,
		Excerpt: Excerpt(desc, excerptChars),
	}
}

// Excerpt cuts s to at most n characters.
func Excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n]) + "..."
}

const systemPrompt = `You are a senior news writer. You expand short news items into complete articles without inventing facts.`

func prompt(a Article) string {
	body := a.Content
	if body == "" {
		body = a.Description
	}

	return fmt.Sprintf(`Rewrite the following %s news item as a long form article.

Requirements:
- Make it roughly two to three times as long as the original.
- Keep every fact: names, dates, numbers and quotations must keep their meaning.
- Do not add facts that are not in the original.
- Structure it as an introduction, a body of several paragraphs, and a brief conclusion.
- Write a new headline and a one or two sentence excerpt.

Respond with only a JSON object of the form:
{"title": "...", "content": "...", "excerpt": "..."}

Original title: %s

Original text:
%s`, a.Category, a.Title, body)
}
