package flows

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// Deps groups flow dependency sets. The root engine builds this once and hands
// it to New.
type Deps struct {
	SignIn   SignInDeps
	Recovery RecoveryDeps
	KYC      KYCDeps
}

// Hooks are the observability callbacks shared by every wizard.
type Hooks struct {
	Inc  func(id int)
	Emit func(ctx context.Context, event, userID string, err error)
}

func (h Hooks) inc(id int) {
	if h.Inc != nil && id >= 0 {
		h.Inc(id)
	}
}

func (h Hooks) emit(ctx context.Context, event, userID string, err error) {
	if h.Emit != nil && event != "" {
		h.Emit(ctx, event, userID, err)
	}
}

// Errors carries host-level sentinels so callers can match with errors.Is
// against the root package's exported values.
type Errors struct {
	RequestFailed      error
	SubmissionInFlight error
	InvalidTransition  error
	CooldownActive     error
	NotAuthenticated   error
}

var (
	errRequestFailed      = errors.New("request failed")
	errSubmissionInFlight = errors.New("submission already in flight")
	errInvalidTransition  = errors.New("invalid state transition")
	errCooldownActive     = errors.New("resend cooldown active")
	errNotAuthenticated   = errors.New("not authenticated")
)

func normalizeErrors(e Errors) Errors {
	if e.RequestFailed == nil {
		e.RequestFailed = errRequestFailed
	}
	if e.SubmissionInFlight == nil {
		e.SubmissionInFlight = errSubmissionInFlight
	}
	if e.InvalidTransition == nil {
		e.InvalidTransition = errInvalidTransition
	}
	if e.CooldownActive == nil {
		e.CooldownActive = errCooldownActive
	}
	if e.NotAuthenticated == nil {
		e.NotAuthenticated = errNotAuthenticated
	}
	return e
}

// Destination is where the caller should send the user next.
type Destination uint8

const (
	// Stay means no navigation.
	Stay Destination = iota
	// Dashboard is the main account area.
	Dashboard
	// KYCWizard is the identity-verification wizard.
	KYCWizard
)

func (d Destination) String() string {
	switch d {
	case Dashboard:
		return "dashboard"
	case KYCWizard:
		return "kyc"
	default:
		return ""
	}
}

// Navigation is the side effect of a terminal success. After is the delay the
// caller should wait before navigating.
type Navigation struct {
	To    Destination
	After time.Duration
}

// Pending reports whether n asks for a navigation.
func (n Navigation) Pending() bool {
	return n.To != Stay
}

// inflight enforces at most one outstanding backend call per wizard.
type inflight struct {
	busy atomic.Bool
}

func (g *inflight) enter(errBusy error) error {
	if !g.busy.CompareAndSwap(false, true) {
		return errBusy
	}
	return nil
}

func (g *inflight) leave() {
	g.busy.Store(false)
}

func (g *inflight) active() bool {
	return g.busy.Load()
}
