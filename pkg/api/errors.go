package api

import (
	"errors"
	"fmt"
)

// ErrNotReady marks a transient service condition: the request was valid but
// the service has not finished background work yet. Callers may retry.
var ErrNotReady = errors.New("service not ready yet")

// Error codes returned in the robot's error envelope.
const (
	CodeNotReady       = "NOT_READY"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodePermission     = "PERMISSION_DENIED"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeLeaseInUse     = "LEASE_IN_USE"
)

// StatusError is a non-transient failure reported by a remote service.
type StatusError struct {
	Op      string // remote operation, e.g. "recording/stop"
	Code    string // machine-readable code from the error envelope
	Status  int    // HTTP status
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

// IsAuthError reports whether err is an authentication or permission failure.
func IsAuthError(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == CodeUnauthorized || se.Code == CodePermission
}
