// Package errors is the structured error handed across service boundaries:
// HTTP responses and Temporal application error details.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jdholdren/newsdesk/internal/newsdesk"
)

type Error struct {
	Status  int
	Err     error // The error this wraps
	Details []Detail
}

type Detail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s, details: %v", e.Status, e.message(), e.Details)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) message() string {
	if e.Err == nil {
		return http.StatusText(e.Status)
	}
	return e.Err.Error()
}

type transport struct {
	Message string   `json:"message"`
	Details []Detail `json:"details"`
	Status  int      `json:"status"`
}

func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(transport{
		Message: e.message(),
		Details: e.Details,
		Status:  e.Status,
	})
}

func (e *Error) UnmarshalJSON(byts []byte) error {
	t := transport{}
	if err := json.Unmarshal(byts, &t); err != nil {
		return err
	}

	e.Err = errors.New(t.Message)
	e.Details = t.Details
	e.Status = t.Status
	return nil
}

// E builds an Error from its arguments by type: a string or error becomes the
// message, an int the status, and Details are appended. Status defaults to 500.
func E(args ...any) *Error {
	ret := &Error{
		Status: http.StatusInternalServerError,
	}

	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			ret.Err = errors.New(arg)
		case error:
			ret.Err = arg
		case int:
			ret.Status = arg
		case Detail:
			ret.Details = append(ret.Details, arg)
		case []Detail:
			ret.Details = append(ret.Details, arg...)
		}
	}

	return ret
}

// FromDomain converts err into an Error, picking the status from the domain
// sentinels. Errors that already are an Error pass through.
func FromDomain(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	switch {
	case errors.Is(err, newsdesk.ErrNotFound):
		return E(http.StatusNotFound, err)
	case errors.Is(err, newsdesk.ErrConflict):
		return E(http.StatusConflict, err)
	}
	return E(http.StatusInternalServerError, "internal server error")
}
