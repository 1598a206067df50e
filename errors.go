package goOnboard

import (
	"errors"

	"github.com/MrEthical07/goOnboard/backend"
	"github.com/MrEthical07/goOnboard/camera"
	"github.com/MrEthical07/goOnboard/session"
)

var (
	// ErrRequestFailed covers network failures, malformed replies and
	// cancelled calls. The user sees a generic "try again" message.
	ErrRequestFailed = errors.New("request failed")
	// ErrSubmissionInFlight is returned when a wizard already has a call outstanding.
	ErrSubmissionInFlight = errors.New("submission already in flight")
	// ErrInvalidTransition is returned when an operation is not valid in the current step.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrCooldownActive is returned when a code is resent before the countdown reached zero.
	ErrCooldownActive = errors.New("resend cooldown active")
	// ErrNotAuthenticated is returned when an operation needs a signed-in session.
	ErrNotAuthenticated = errors.New("not authenticated")

	ErrEngineNotReady = errors.New("engine not initialized")
	ErrEngineClosed   = errors.New("engine closed")
	ErrScopeRequired  = errors.New("account scope required")
	ErrScopeInvalid   = errors.New("account scope invalid")

	// ErrSessionInvalid is returned when a session write would break an invariant.
	ErrSessionInvalid = session.ErrSessionInvalid
	// ErrStorageUnavailable is returned when the durable session slot cannot be reached.
	ErrStorageUnavailable = session.ErrStorageUnavailable

	// ErrCameraNoActiveStream is returned by Capture without an open camera.
	ErrCameraNoActiveStream = camera.ErrNoActiveStream

	// ErrBackendTransport is the backend client's transport sentinel.
	ErrBackendTransport = backend.ErrTransport
)
