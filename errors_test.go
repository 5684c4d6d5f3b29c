package gridlaunch

import (
	"errors"
	"fmt"
	"testing"
)

func TestStructuredErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType ErrorType
		wantOp   string
		wantMsg  string
		checkFn  func(error) bool
	}{
		{
			name:     "Out Of Memory",
			err:      ErrOutOfMemory,
			wantType: ErrTypeAllocation,
			wantOp:   "Malloc",
			wantMsg:  "out of memory",
			checkFn:  IsAllocationError,
		},
		{
			name:     "Invalid Size",
			err:      ErrInvalidSize,
			wantType: ErrTypeInvalidArg,
			wantOp:   "Malloc",
			wantMsg:  "size must be positive",
			checkFn:  IsInvalidArgError,
		},
		{
			name:     "Double Free",
			err:      ErrDoubleFree,
			wantType: ErrTypeAllocation,
			wantOp:   "Free",
			wantMsg:  "double free detected",
			checkFn:  IsAllocationError,
		},
		{
			name:     "Invalid Device",
			err:      ErrInvalidDevice,
			wantType: ErrTypeInvalidArg,
			wantOp:   "SetDevice",
			wantMsg:  "invalid device ID",
			checkFn:  IsInvalidArgError,
		},
		{
			name:     "Stream Closed",
			err:      ErrStreamClosed,
			wantType: ErrTypeDevice,
			wantOp:   "Stream",
			wantMsg:  "stream is closed",
			checkFn:  IsDeviceError,
		},
		{
			name:     "Decomposition",
			err:      NewDecompositionError("Check", "too small", nil),
			wantType: ErrTypeDecomposition,
			wantOp:   "Check",
			wantMsg:  "too small",
			checkFn:  IsDecompositionError,
		},
		{
			name:     "Launch",
			err:      NewLaunchError("Kernel", "faulted", nil),
			wantType: ErrTypeLaunch,
			wantOp:   "Kernel",
			wantMsg:  "faulted",
			checkFn:  IsLaunchError,
		},
		{
			name:     "Numerical",
			err:      NewNumericalError("Verify", "mismatch", [2]int{1, 2}),
			wantType: ErrTypeNumerical,
			wantOp:   "Verify",
			wantMsg:  "mismatch",
			checkFn:  IsNumericalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := tt.err.(*Error)
			if !ok {
				t.Fatalf("Expected *Error, got %T", tt.err)
			}
			if e.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", e.Type, tt.wantType)
			}
			if e.Op != tt.wantOp {
				t.Errorf("Op = %v, want %v", e.Op, tt.wantOp)
			}
			if e.Message != tt.wantMsg {
				t.Errorf("Message = %v, want %v", e.Message, tt.wantMsg)
			}
			if !tt.checkFn(tt.err) {
				t.Errorf("Type check function returned false")
			}
			if !tt.checkFn(fmt.Errorf("wrapped: %w", tt.err)) {
				t.Errorf("Type check function does not see through wrapping")
			}
			if tt.err.Error() == "" {
				t.Error("Error string is empty")
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	baseErr := errors.New("base error")
	wrappedErr := NewAllocationError("Test", "wrapped error", baseErr)

	e, ok := wrappedErr.(*Error)
	if !ok {
		t.Fatal("Expected *Error")
	}
	if e.Unwrap() != baseErr {
		t.Errorf("Unwrap() = %v, want %v", e.Unwrap(), baseErr)
	}
	if !errors.Is(wrappedErr, baseErr) {
		t.Error("errors.Is() should return true for wrapped error")
	}
}

func TestErrorIsMatchesByType(t *testing.T) {
	err := fmt.Errorf("run: %w", NewLaunchError("Kernel", "faulted", nil))

	if !errors.Is(err, &Error{Type: ErrTypeLaunch}) {
		t.Error("expected wildcard match on type")
	}
	if !errors.Is(err, &Error{Type: ErrTypeLaunch, Op: "Kernel"}) {
		t.Error("expected match on type and op")
	}
	if errors.Is(err, &Error{Type: ErrTypeLaunch, Op: "Launch"}) {
		t.Error("unexpected match on different op")
	}
	if errors.Is(err, &Error{Type: ErrTypeAllocation}) {
		t.Error("unexpected match on different type")
	}
}

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{ErrTypeInvalidArg, "InvalidArguments"},
		{ErrTypeDecomposition, "DecompositionTooSmall"},
		{ErrTypeAllocation, "AllocationFailure"},
		{ErrTypeLaunch, "LaunchFailure"},
		{ErrTypeNumerical, "Numerical"},
		{ErrTypeDevice, "Device"},
		{ErrorType(999), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.errType.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}
