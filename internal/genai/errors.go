package genai

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// Kind groups generation failures by how a caller should react.
type Kind string

const (
	KindTransient       Kind = "transient"
	KindRateLimited     Kind = "rate_limited"
	KindInvalidResponse Kind = "invalid_response"
)

// Error is returned by everything in this package.
type Error struct {
	Kind   Kind
	Status int // HTTP status from the service, when there was one
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidResponse wraps err as a response that could not be used.
func InvalidResponse(err error) *Error {
	return &Error{Kind: KindInvalidResponse, Err: err}
}

// KindOf returns the kind of a generation error, or an empty kind for anything else.
func KindOf(err error) Kind {
	var gErr *Error
	if errors.As(err, &gErr) {
		return gErr.Kind
	}

	return ""
}

func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}

// Phrases services use when throttling, regardless of status code.
var rateLimitPhrases = []string{
	"rate limit",
	"rate_limit",
	"too many requests",
	"quota",
	"resource exhausted",
	"overloaded",
}

// Maps an error coming out of the sdk into an [Error].
func fromSDK(err error) *Error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests, 529: // 529 is anthropic's overloaded status
			return &Error{Kind: KindRateLimited, Status: apiErr.StatusCode, Err: err}
		}
		if mentionsRateLimit(err) {
			return &Error{Kind: KindRateLimited, Status: apiErr.StatusCode, Err: err}
		}
		return &Error{Kind: KindTransient, Status: apiErr.StatusCode, Err: err}
	}

	if mentionsRateLimit(err) {
		return &Error{Kind: KindRateLimited, Err: err}
	}
	return &Error{Kind: KindTransient, Err: err}
}

func mentionsRateLimit(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range rateLimitPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}

	return false
}
