package flows

import (
	"github.com/MrEthical07/goOnboard/camera"
	"github.com/MrEthical07/goOnboard/session"
)

// Service is the centralized wizard factory built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	deps.SignIn = normalizeSignInDeps(deps.SignIn)
	deps.Recovery = normalizeRecoveryDeps(deps.Recovery)
	deps.KYC = normalizeKYCDeps(deps.KYC)
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with backend calls.
func (s Service) Initialized() bool {
	return s.deps.SignIn.Login != nil &&
		s.deps.Recovery.ForgotPassword != nil &&
		s.deps.KYC.Submit != nil
}

func (s Service) NewSignIn(store *session.Store) *SignIn {
	return NewSignIn(s.deps.SignIn, store)
}

func (s Service) NewRecovery() *Recovery {
	return NewRecovery(s.deps.Recovery)
}

func (s Service) NewKYC(store *session.Store, src camera.Source) *KYC {
	return NewKYC(s.deps.KYC, store, src)
}

// WithHooks returns a copy of s whose wizards report through h. The engine
// uses it to stamp each account scope onto its audit events.
func (s Service) WithHooks(h Hooks) Service {
	s.deps.SignIn.Hooks = h
	s.deps.Recovery.Hooks = h
	s.deps.KYC.Hooks = h
	return s
}
