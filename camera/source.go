// Package camera abstracts device camera access behind a small capability
// interface so the KYC wizard can run against browser uploads, native devices,
// or fakes without changing flow logic.
//
// A [Manager] owns at most one live [Stream] at a time. Acquiring a new stream
// always releases the previous one first.
package camera

import (
	"context"
	"image"
)

// FacingMode selects the preferred lens.
type FacingMode uint8

const (
	// FacingAny places no lens constraint on the request.
	FacingAny FacingMode = iota
	// FacingUser is the front ("selfie") camera.
	FacingUser
	// FacingEnvironment is the rear camera, used for documents.
	FacingEnvironment
)

func (f FacingMode) String() string {
	switch f {
	case FacingUser:
		return "user"
	case FacingEnvironment:
		return "environment"
	default:
		return "any"
	}
}

// Target names the submission field a capture fills.
type Target uint8

const (
	TargetNone Target = iota
	TargetIDDocument
	TargetSelfie
)

func (t Target) String() string {
	switch t {
	case TargetIDDocument:
		return "idDocument"
	case TargetSelfie:
		return "selfie"
	default:
		return "none"
	}
}

// Constraints describe a media request. The zero value is unconstrained.
type Constraints struct {
	Facing FacingMode
}

// Unconstrained reports whether c carries no preferences.
func (c Constraints) Unconstrained() bool {
	return c.Facing == FacingAny
}

// Source opens media streams. Implementations return *Error (or an error that
// MapError can classify) on failure.
type Source interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is a live media stream handle. Close must be idempotent.
type Stream interface {
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}
