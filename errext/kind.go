// Package errext contains extensions for normal Go errors that are used in smdecode.
//
// Every failure that reaches the user is an [*Error] tagged with one of four
// kinds. Components create them with the New* helpers, and [AsInvalidSourceMap]
// folds anything untagged coming out of decoding into the InvalidSourceMap kind
// without re-wrapping errors that already carry a kind.
package errext

import (
	"errors"
	"fmt"

	"go.k6.io/smdecode/errext/exitcodes"
)

// Kind is the category of an [Error].
type Kind uint8

// The error kinds surfaced by smdecode.
const (
	KindUnknown Kind = iota
	InvalidInput
	NotFound
	Network
	InvalidSourceMap
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case NotFound:
		return "NotFound"
	case Network:
		return "Network"
	case InvalidSourceMap:
		return "InvalidSourceMap"
	default:
		return "Unknown"
	}
}

// Error is the single error type of the decode pipeline. Only the fields that
// make sense for its Kind are set: Locator for NotFound and Network, Status
// and StatusText for Network.
type Error struct {
	Kind       Kind
	Locator    string
	Status     int
	StatusText string
	Message    string
	Err        error
}

var (
	_ HasExitCode = &Error{}
	_ HasHint     = &Error{}
)

func (e *Error) Error() string {
	switch e.Kind {
	case InvalidInput:
		return "invalid input: " + e.message()
	case NotFound:
		return "sourcemap not found at: " + e.Locator
	case Network:
		if e.Status == 0 {
			return fmt.Sprintf("failed to fetch sourcemap from %s: %s", e.Locator, e.message())
		}
		return fmt.Sprintf("failed to fetch sourcemap from %s: %d %s", e.Locator, e.Status, e.StatusText)
	case InvalidSourceMap:
		return "invalid sourcemap: " + e.message()
	default:
		return e.message()
	}
}

func (e *Error) message() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode returns the status code used when the process exits.
func (e *Error) ExitCode() exitcodes.ExitCode {
	return exitcodes.Failure
}

// Hint returns a short suggestion for the user, depending on the kind.
func (e *Error) Hint() string {
	switch e.Kind {
	case InvalidInput:
		return "the column must be a non-negative integer and the line a positive integer"
	case NotFound:
		return "locators without a file extension get .js.map appended before lookup"
	case Network:
		return "the map is fetched exactly once, check that the URL is reachable"
	default:
		return ""
	}
}

// NewInvalidInput returns an InvalidInput error with a formatted message.
func NewInvalidInput(format string, args ...interface{}) error {
	return &Error{Kind: InvalidInput, Message: fmt.Sprintf(format, args...)}
}

// NewNotFound returns a NotFound error for locator. cause may be nil.
func NewNotFound(locator string, cause error) error {
	return &Error{Kind: NotFound, Locator: locator, Err: cause}
}

// NewNetwork returns a Network error for a response with a non-success status.
func NewNetwork(locator string, status int, statusText string) error {
	return &Error{Kind: Network, Locator: locator, Status: status, StatusText: statusText}
}

// NewNetworkFailure returns a Network error for a request that got no
// response at all.
func NewNetworkFailure(locator string, cause error) error {
	return &Error{Kind: Network, Locator: locator, Err: cause}
}

// InvalidSourceMapf returns an InvalidSourceMap error with a formatted message.
func InvalidSourceMapf(format string, args ...interface{}) error {
	return &Error{Kind: InvalidSourceMap, Message: fmt.Sprintf(format, args...)}
}

// AsInvalidSourceMap wraps err into an InvalidSourceMap error, unless it
// already carries a kind, in which case it is returned unchanged.
func AsInvalidSourceMap(err error) error {
	if err == nil {
		return nil
	}
	var kerr *Error
	if errors.As(err, &kerr) {
		return err
	}
	return &Error{Kind: InvalidSourceMap, Err: err}
}

// KindOf returns the kind of the first [*Error] in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.Kind
	}
	return KindUnknown
}
