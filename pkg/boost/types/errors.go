package types

import (
	"errors"
	"fmt"
)

// Sentinel errors of the optimizer error taxonomy.
var (
	// ErrDiscovery is matched by every *DiscoveryError.
	ErrDiscovery = errors.New("process discovery failed")

	// ErrNoHandle is returned when an operation needs a bound target and none is bound.
	ErrNoHandle = errors.New("no process handle available")

	// ErrPrivilege is returned when an elevated operation is attempted without access.
	ErrPrivilege = errors.New("elevated access required")

	// ErrNativeAPI is matched by every *NativeAPIError.
	ErrNativeAPI = errors.New("native api call failed")

	// ErrUnsupported is returned for operations the host platform cannot perform.
	ErrUnsupported = errors.New("operation not supported on this platform")
)

// DiscoveryError reports that a target could not be found, either because
// nothing matched or because enumeration itself failed.
type DiscoveryError struct {
	// Target is the name or package that was searched for.
	Target string

	// Err is the enumeration failure, nil when nothing matched.
	Err error
}

func (e *DiscoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("discover %s: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("discover %s: no matching process", e.Target)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// Is matches ErrDiscovery.
func (e *DiscoveryError) Is(target error) bool { return target == ErrDiscovery }

// NativeAPIError reports a failed OS call together with its platform error code.
type NativeAPIError struct {
	// Op names the failed call, e.g. "SetPriorityClass".
	Op string

	// Code is the platform error code (errno or GetLastError value), 0 if unknown.
	Code int

	// Err is the underlying error.
	Err error
}

func (e *NativeAPIError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: error code %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %v (error code %d)", e.Op, e.Err, e.Code)
}

func (e *NativeAPIError) Unwrap() error { return e.Err }

// Is matches ErrNativeAPI.
func (e *NativeAPIError) Is(target error) bool { return target == ErrNativeAPI }

// CodeString renders the code the way it appears in outcome details.
func (e *NativeAPIError) CodeString() string {
	return fmt.Sprintf("Error code: %d", e.Code)
}
