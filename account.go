package goOnboard

import (
	"context"
	"sync"

	"github.com/MrEthical07/goOnboard/camera"
	"github.com/MrEthical07/goOnboard/internal/flows"
	"github.com/MrEthical07/goOnboard/session"
)

// Account is one browser's or device's view: its session slot plus the three
// wizards bound to it. Wizards are safe for concurrent use, and Account
// serializes wizard restarts.
type Account struct {
	engine   *Engine
	scope    string
	store    *session.Store
	svc      flows.Service
	src      camera.Source
	hydrated HydrateOutcome

	mu       sync.Mutex
	signIn   *flows.SignIn
	recovery *flows.Recovery
	kyc      *flows.KYC
}

func newAccount(e *Engine, scope string, store *session.Store, svc flows.Service, src camera.Source, hydrated HydrateOutcome) *Account {
	return &Account{
		engine:   e,
		scope:    scope,
		store:    store,
		svc:      svc,
		src:      src,
		hydrated: hydrated,
		signIn:   svc.NewSignIn(store),
		recovery: svc.NewRecovery(),
		kyc:      svc.NewKYC(store, src),
	}
}

func (a *Account) Scope() string { return a.scope }

// Hydrated reports what Open found in the durable slot.
func (a *Account) Hydrated() HydrateOutcome { return a.hydrated }

// Session returns the current session, if any.
func (a *Account) Session() (Session, bool) {
	return a.store.Current()
}

// LoggedIn reports whether a signed-in session exists.
func (a *Account) LoggedIn() bool {
	_, err := a.store.LoggedIn()
	return err == nil
}

func (a *Account) SignIn() *SignIn {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.signIn
}

func (a *Account) Recovery() *Recovery {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recovery
}

func (a *Account) KYC() *KYC {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.kyc
}

// RestartRecovery discards the current recovery ticket and starts over.
func (a *Account) RestartRecovery() *Recovery {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recovery = a.svc.NewRecovery()
	return a.recovery
}

// RestartKYC releases the current wizard's camera and starts a new wizard.
func (a *Account) RestartKYC() *KYC {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.kyc.Close()
	a.kyc = a.svc.NewKYC(a.store, a.src)
	return a.kyc
}

// UpdateUser replaces the stored profile without touching the login status.
func (a *Account) UpdateUser(ctx context.Context, p Profile) error {
	return a.store.UpdateUser(ctx, p)
}

// Logout clears the session and resets the sign-in wizard. Repeated calls leave
// the same cleared state.
func (a *Account) Logout(ctx context.Context) error {
	userID := ""
	if sess, ok := a.store.Current(); ok {
		userID = sess.UserID
	}
	if err := a.store.Logout(ctx); err != nil {
		a.engine.emitAudit(ctx, a.scope, auditEventLogout, userID, err)
		return err
	}

	a.mu.Lock()
	a.signIn = a.svc.NewSignIn(a.store)
	a.kyc.Close()
	a.kyc = a.svc.NewKYC(a.store, a.src)
	a.mu.Unlock()

	if userID != "" {
		a.engine.metrics.Inc(MetricLogout)
		a.engine.emitAudit(ctx, a.scope, auditEventLogout, userID, nil)
	}
	return nil
}

// Close releases the camera. The session slot is kept.
func (a *Account) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.kyc.Close()
}
