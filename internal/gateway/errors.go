package gateway

import (
	"errors"
	"fmt"
)

// ErrUnexpectedStatus is wrapped when the API answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status")

// RemoteFetchError reports a failed read: transport, status, decode or
// record validation.
type RemoteFetchError struct {
	Op     string
	ID     int
	Status int
	Cause  error
}

func (e *RemoteFetchError) Error() string {
	target := e.Op
	if e.ID > 0 {
		target = fmt.Sprintf("%s(%d)", e.Op, e.ID)
	}
	if e.Cause == nil {
		return fmt.Sprintf("gateway: %s failed", target)
	}
	return fmt.Sprintf("gateway: %s: %v", target, e.Cause)
}

func (e *RemoteFetchError) Unwrap() error {
	return e.Cause
}

// AsRemoteFetchError extracts a *RemoteFetchError from err's chain.
func AsRemoteFetchError(err error) (*RemoteFetchError, bool) {
	var rfe *RemoteFetchError
	if errors.As(err, &rfe) {
		return rfe, true
	}
	return nil, false
}
