package worker

import (
	"errors"

	"go.temporal.io/sdk/temporal"

	deskerrs "github.com/jdholdren/newsdesk/internal/errors"
)

// Application error type for errors carrying a deskerrs.Error in their details.
const errTypeDeskerr = "deskerr"

// Unwraps the application error from temporal into a deskerr if possible.
//
// Returns true if the error is convertible.
// Returns false otherwise.
func asDeskerr(err error, deskerr **deskerrs.Error) bool {
	if err == nil {
		return false
	}

	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) || !appErr.HasDetails() {
		return false
	}
	return appErr.Details(deskerr) == nil
}
