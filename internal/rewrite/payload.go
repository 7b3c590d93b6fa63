package rewrite

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jdholdren/newsdesk/internal/genai"
)

type payload struct {
	Title   string
	Content string
	Excerpt string
}

var errNoPayload = errors.New("no structured payload in response")

// Finds the first balanced JSON object in text carrying a title, content and
// excerpt. Models like to wrap their answer in prose or code fences.
func extractPayload(text string) (payload, error) {
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := closingBrace(text, start); end > 0 {
			candidate := text[start : end+1]
			if p, ok := parsePayload(candidate); ok {
				return p, nil
			}
		}

		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return payload{}, genai.InvalidResponse(errNoPayload)
}

func parsePayload(candidate string) (payload, bool) {
	if !gjson.Valid(candidate) {
		return payload{}, false
	}

	fields := gjson.GetMany(candidate, "title", "content", "excerpt")
	for _, f := range fields {
		if f.Type != gjson.String || strings.TrimSpace(f.String()) == "" {
			return payload{}, false
		}
	}

	return payload{
		Title:   strings.TrimSpace(fields[0].String()),
		Content: strings.TrimSpace(fields[1].String()),
		Excerpt: strings.TrimSpace(fields[2].String()),
	}, true
}

// Index of the brace closing the object opened at start, or -1.
func closingBrace(text string, start int) int {
	var (
		depth    int
		inString bool
		escaped  bool
	)
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}
