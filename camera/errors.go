package camera

import (
	"errors"
	"fmt"
)

// Reason classifies media-access failures shown to the user.
type Reason uint8

const (
	ReasonUnknown Reason = iota
	ReasonPermissionDenied
	ReasonNotFound
	ReasonInUse
	ReasonConstraints
)

func (r Reason) String() string {
	switch r {
	case ReasonPermissionDenied:
		return "permission_denied"
	case ReasonNotFound:
		return "not_found"
	case ReasonInUse:
		return "in_use"
	case ReasonConstraints:
		return "constraints"
	default:
		return "unknown"
	}
}

// Message is the fixed user-facing text for r.
func (r Reason) Message() string {
	switch r {
	case ReasonPermissionDenied:
		return "Camera permission denied. Please allow camera access and try again."
	case ReasonNotFound:
		return "No camera found on this device."
	case ReasonInUse:
		return "Camera is already in use by another application."
	case ReasonConstraints:
		return "Camera does not support the requested settings."
	default:
		return "Unable to access camera."
	}
}

// Error is a classified media failure. Name carries the platform error name
// (for example "NotAllowedError") when one is known.
type Error struct {
	Reason Reason
	Name   string
	Err    error
}

func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("camera: %s (%s)", e.Reason, e.Name)
	}
	return "camera: " + e.Reason.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the user-facing text.
func (e *Error) Message() string { return e.Reason.Message() }

// ErrNoActiveStream is returned by Capture when the camera is not open.
var ErrNoActiveStream = errors.New("camera: no active stream")

// ErrClosed is returned by operations on a closed Manager.
var ErrClosed = errors.New("camera: manager closed")

// ReasonForName maps platform media error names to a Reason.
func ReasonForName(name string) Reason {
	switch name {
	case "NotAllowedError", "PermissionDeniedError", "SecurityError":
		return ReasonPermissionDenied
	case "NotFoundError", "DevicesNotFoundError":
		return ReasonNotFound
	case "NotReadableError", "TrackStartError", "AbortError":
		return ReasonInUse
	case "OverconstrainedError", "ConstraintNotSatisfiedError":
		return ReasonConstraints
	default:
		return ReasonUnknown
	}
}

// NewError builds an *Error from a platform error name.
func NewError(name string) *Error {
	return &Error{Reason: ReasonForName(name), Name: name}
}

// MapError classifies err. An existing *Error passes through; anything else
// becomes ReasonUnknown wrapping err.
func MapError(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return &Error{Reason: ReasonUnknown, Err: err}
}
