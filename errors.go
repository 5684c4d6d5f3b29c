// Package gridlaunch structured error types for better error handling
package gridlaunch

import (
	"errors"
	"fmt"
)

// ErrorType represents categories of errors. Every failure of a run falls
// into exactly one category and every category is terminal for the run.
type ErrorType int

const (
	// Wrong argument count, non-positive sizes, mismatched copies
	ErrTypeInvalidArg ErrorType = iota
	// Grid/block shape cannot cover the problem domain
	ErrTypeDecomposition
	// Host or device allocation failed
	ErrTypeAllocation
	// Kernel launch rejected or kernel faulted while running
	ErrTypeLaunch
	// Results did not match the reference
	ErrTypeNumerical
	// Device errors
	ErrTypeDevice
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Op      string      // Operation that failed
	Message string      // Human-readable message
	Err     error       // Underlying error if any
	Context interface{} // Additional context
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same type. Empty Op and
// Message fields on target act as wildcards, so
//
//	errors.Is(err, &Error{Type: ErrTypeLaunch})
//
// matches any launch failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Type != e.Type {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeInvalidArg:
		return "InvalidArguments"
	case ErrTypeDecomposition:
		return "DecompositionTooSmall"
	case ErrTypeAllocation:
		return "AllocationFailure"
	case ErrTypeLaunch:
		return "LaunchFailure"
	case ErrTypeNumerical:
		return "Numerical"
	case ErrTypeDevice:
		return "Device"
	default:
		return "Unknown"
	}
}

// Common error constructors

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &Error{
		Type:    ErrTypeInvalidArg,
		Op:      op,
		Message: message,
	}
}

// NewDecompositionError creates an error for a work decomposition that
// under-covers the problem domain. context carries the offending shape.
func NewDecompositionError(op string, message string, context interface{}) error {
	return &Error{
		Type:    ErrTypeDecomposition,
		Op:      op,
		Message: message,
		Context: context,
	}
}

// NewAllocationError creates a memory-related error
func NewAllocationError(op string, message string, err error) error {
	return &Error{
		Type:    ErrTypeAllocation,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewLaunchError creates a kernel launch or execution error
func NewLaunchError(op string, message string, err error) error {
	return &Error{
		Type:    ErrTypeLaunch,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewNumericalError creates a numerical error
func NewNumericalError(op string, message string, context interface{}) error {
	return &Error{
		Type:    ErrTypeNumerical,
		Op:      op,
		Message: message,
		Context: context,
	}
}

// NewDeviceError creates a device error
func NewDeviceError(op string, message string) error {
	return &Error{
		Type:    ErrTypeDevice,
		Op:      op,
		Message: message,
	}
}

// Common pre-defined errors

var (
	// ErrOutOfMemory indicates the pool limit would be exceeded
	ErrOutOfMemory = NewAllocationError("Malloc", "out of memory", nil)

	// ErrInvalidSize indicates invalid size parameter
	ErrInvalidSize = NewInvalidArgError("Malloc", "size must be positive")

	// ErrDoubleFree indicates double free attempt
	ErrDoubleFree = NewAllocationError("Free", "double free detected", nil)

	// ErrInvalidDevice indicates invalid device ID
	ErrInvalidDevice = NewInvalidArgError("SetDevice", "invalid device ID")

	// ErrStreamClosed indicates work submitted to a destroyed context
	ErrStreamClosed = NewDeviceError("Stream", "stream is closed")

	// ErrEventNotReady indicates an event that has not completed yet
	ErrEventNotReady = NewDeviceError("Event", "event not ready")
)

func isType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool { return isType(err, ErrTypeInvalidArg) }

// IsDecompositionError checks if an error reports an under-covering decomposition
func IsDecompositionError(err error) bool { return isType(err, ErrTypeDecomposition) }

// IsAllocationError checks if an error is a host or device allocation failure
func IsAllocationError(err error) bool { return isType(err, ErrTypeAllocation) }

// IsLaunchError checks if an error is a kernel launch failure
func IsLaunchError(err error) bool { return isType(err, ErrTypeLaunch) }

// IsNumericalError checks if an error is a numerical error
func IsNumericalError(err error) bool { return isType(err, ErrTypeNumerical) }

// IsDeviceError checks if an error is a device error
func IsDeviceError(err error) bool { return isType(err, ErrTypeDevice) }
