package rewrite

import (
	"fmt"
	"unicode/utf8"

	goaway "github.com/TwiN/go-away"
)

// Validate lists what is wrong with a rewrite of a. An empty list means it passed.
//
// The checks are advisory; callers log them and keep the rewrite.
func Validate(a Article, res Result) []string {
	var issues []string

	var (
		contentLen = utf8.RuneCountInString(res.Content)
		titleLen   = utf8.RuneCountInString(res.Title)
		excerptLen = utf8.RuneCountInString(res.Excerpt)
	)
	if contentLen <= 50 {
		issues = append(issues, fmt.Sprintf("content too short: %d chars", contentLen))
	}
	if titleLen <= 5 {
		issues = append(issues, fmt.Sprintf("title too short: %d chars", titleLen))
	}
	if excerptLen <= 20 {
		issues = append(issues, fmt.Sprintf("excerpt too short: %d chars", excerptLen))
	}

	original := a.Content
	if original == "" {
		original = a.Description
	}
	if originalLen := utf8.RuneCountInString(original); originalLen > 0 {
		ratio := float64(contentLen) / float64(originalLen)
		if ratio < 0.5 || ratio > 4 {
			issues = append(issues, fmt.Sprintf("length ratio out of range: %.2f", ratio))
		}
	}

	if goaway.IsProfane(res.Title) || goaway.IsProfane(res.Content) {
		issues = append(issues, "profanity detected")
	}

	return issues
}
