package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Remote taxonomy
	ErrAuth                    = fmt.Errorf("authentication failed")
	ErrAuthorization           = fmt.Errorf("not authorized")
	ErrNetwork                 = fmt.Errorf("network failure")
	ErrRemoteRejection         = fmt.Errorf("request rejected by remote service")
	ErrSearch                  = fmt.Errorf("search failed")
	ErrMalformedProviderRecord = fmt.Errorf("malformed provider record")

	// Session errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNoSession        = fmt.Errorf("no stored session")

	// Orchestration errors
	ErrRefreshAfterMutation = fmt.Errorf("change saved but refresh failed")
	ErrServiceUnavailable   = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// RemoteError is a failed call to the playlist API or the search provider.
//
// Kind is one of the remote taxonomy sentinels, so callers classify with [errors.Is].
// Message is safe to show to a user; Err is the underlying cause, if any.
type RemoteError struct {
	Kind    error
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	msg := e.Kind.Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RemoteError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// DisplayMessage returns the user-facing message carried by err, or fallback when there is none.
func DisplayMessage(err error, fallback string) string {
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return fallback
}
