package jmapcal

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/emersion/go-jmapcal/internal"
)

// HTTPError wraps an HTTP error status. It implements error.
type HTTPError = internal.HTTPError

// MethodError is a method-level error returned by the server for a single
// call within a request. The Type field carries the server's error type token
// verbatim, e.g. "invalidArguments" or "stateMismatch".
type MethodError = internal.MethodError

func NewHTTPError(code int, cause error) error {
	return &internal.HTTPError{Code: code, Err: cause}
}

// IsNotFound returns true if the error is an HTTP 404 Not Found error.
func IsNotFound(err error) bool {
	return internal.IsNotFound(err)
}

// IsAuth returns true if the error is an HTTP 401 or 403 error. JMAP sends
// full credentials on every request, so these are always fatal: the caller
// must supply different credentials, retrying cannot succeed.
func IsAuth(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code == http.StatusUnauthorized || httpErr.Code == http.StatusForbidden
	}
	return false
}

// CapabilityError is returned when the server's session object lacks a
// required capability URN.
type CapabilityError struct {
	URN string
}

func (err *CapabilityError) Error() string {
	return fmt.Sprintf("jmapcal: server doesn't advertise the %q capability", err.URN)
}
