package flows

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/MrEthical07/goOnboard/backend"
	"github.com/MrEthical07/goOnboard/session"
)

// GenericErrorMessage is shown for network failures and malformed replies.
const GenericErrorMessage = "An error occurred. Please try again."

// InvalidCredentialsMessage is the fallback when a rejection carries no message.
const InvalidCredentialsMessage = "Invalid credentials"

// SignInState is the sign-in wizard state.
type SignInState uint8

const (
	SignInIdle SignInState = iota
	SignInSubmitting
	SignInSuccess
	SignInRequires2FA
	SignInFailed
)

func (s SignInState) String() string {
	switch s {
	case SignInSubmitting:
		return "submitting"
	case SignInSuccess:
		return "success"
	case SignInRequires2FA:
		return "requires_2fa"
	case SignInFailed:
		return "failed"
	default:
		return "idle"
	}
}

var signInTransitions = map[SignInState][]SignInState{
	SignInIdle:        {SignInSubmitting},
	SignInSubmitting:  {SignInSuccess, SignInRequires2FA, SignInFailed},
	SignInRequires2FA: {SignInSubmitting, SignInIdle},
	SignInFailed:      {SignInSubmitting, SignInIdle},
	SignInSuccess:     {SignInIdle},
}

func canSignIn(from, to SignInState) bool {
	for _, s := range signInTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SignInMetrics carries metric IDs used by the sign-in wizard. A negative ID
// disables the counter.
type SignInMetrics struct {
	Attempt     int
	Success     int
	Failure     int
	Requires2FA int
}

// SignInEvents carries audit event names used by the sign-in wizard.
type SignInEvents struct {
	Success   string
	Failure   string
	Challenge string
}

// SignInDeps captures sign-in dependencies.
type SignInDeps struct {
	Login   func(context.Context, backend.LoginRequest) (*backend.LoginResponse, error)
	Metrics SignInMetrics
	Events  SignInEvents
	Errors  Errors
	Hooks   Hooks
}

func normalizeSignInDeps(d SignInDeps) SignInDeps {
	d.Errors = normalizeErrors(d.Errors)
	return d
}

// SignInResult is the outcome of one submission.
type SignInResult struct {
	State       SignInState
	MaskedEmail string
	Message     string
	Navigation  Navigation
}

// SignIn is the sign-in wizard for one account scope.
type SignIn struct {
	deps  SignInDeps
	store *session.Store
	gate  inflight

	mu          sync.Mutex
	state       SignInState
	identifier  string
	password    string
	challenged  bool
	maskedEmail string
	message     string
}

// NewSignIn binds a sign-in wizard to store.
func NewSignIn(deps SignInDeps, store *session.Store) *SignIn {
	return &SignIn{deps: normalizeSignInDeps(deps), store: store}
}

// State returns the current wizard state.
func (f *SignIn) State() SignInState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// MaskedEmail returns the display value for a pending second-factor challenge.
func (f *SignIn) MaskedEmail() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maskedEmail
}

// Message returns the inline error of the last failure.
func (f *SignIn) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Reset returns the wizard to Idle and forgets any held credentials.
func (f *SignIn) Reset() error {
	if f.gate.active() {
		return f.deps.Errors.SubmissionInFlight
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != SignInIdle && !canSignIn(f.state, SignInIdle) {
		return f.deps.Errors.InvalidTransition
	}
	f.clearLocked()
	f.state = SignInIdle
	return nil
}

// SubmitCredentials validates and submits identifier/password.
func (f *SignIn) SubmitCredentials(ctx context.Context, identifier, password string) (SignInResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return f.result(), &FieldError{Field: "identifier", Message: "Email is required"}
	}
	if password == "" {
		return f.result(), &FieldError{Field: "password", Message: "Password is required"}
	}

	if err := f.gate.enter(f.deps.Errors.SubmissionInFlight); err != nil {
		return f.result(), err
	}
	defer f.gate.leave()

	f.mu.Lock()
	if !canSignIn(f.state, SignInSubmitting) {
		f.mu.Unlock()
		return f.result(), f.deps.Errors.InvalidTransition
	}
	f.clearLocked()
	f.identifier = identifier
	f.password = password
	f.state = SignInSubmitting
	f.mu.Unlock()

	return f.submit(ctx, backend.LoginRequest{Identifier: identifier, Password: password})
}

// SubmitSecondFactor resubmits the held credentials with a six-digit code. It
// is valid after a challenge, including after a rejected code.
func (f *SignIn) SubmitSecondFactor(ctx context.Context, code string) (SignInResult, error) {
	if err := validateOTP(code); err != nil {
		return f.result(), err
	}

	if err := f.gate.enter(f.deps.Errors.SubmissionInFlight); err != nil {
		return f.result(), err
	}
	defer f.gate.leave()

	f.mu.Lock()
	allowed := f.state == SignInRequires2FA || (f.state == SignInFailed && f.challenged)
	if !allowed {
		f.mu.Unlock()
		return f.result(), f.deps.Errors.InvalidTransition
	}
	req := backend.LoginRequest{Identifier: f.identifier, Password: f.password, OTP: code}
	f.message = ""
	f.state = SignInSubmitting
	f.mu.Unlock()

	return f.submit(ctx, req)
}

func (f *SignIn) submit(ctx context.Context, req backend.LoginRequest) (SignInResult, error) {
	f.deps.Hooks.inc(f.deps.Metrics.Attempt)

	resp, err := f.deps.Login(ctx, req)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err == nil && resp == nil {
		err = backend.ErrMalformedResponse
	}
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", f.deps.Errors.RequestFailed, err)
		f.fail(GenericErrorMessage)
		f.deps.Hooks.inc(f.deps.Metrics.Failure)
		f.deps.Hooks.emit(ctx, f.deps.Events.Failure, "", wrapped)
		return f.result(), wrapped
	}

	token := resp.Token()
	switch {
	case bool(resp.Status) && token != "":
		return f.succeed(ctx, resp)
	case bool(resp.Requires2FA) && token == "":
		masked := ""
		if resp.Data != nil {
			masked = resp.Data.EmailMasked
		}
		f.mu.Lock()
		if masked == "" {
			masked = maskEmail(f.identifier)
		}
		f.challenged = true
		f.maskedEmail = masked
		f.state = SignInRequires2FA
		f.mu.Unlock()
		f.deps.Hooks.inc(f.deps.Metrics.Requires2FA)
		f.deps.Hooks.emit(ctx, f.deps.Events.Challenge, "", nil)
		return f.result(), nil
	default:
		msg := strings.TrimSpace(resp.Message)
		if msg == "" {
			msg = InvalidCredentialsMessage
		}
		f.fail(msg)
		serr := &ServerError{Op: "login", Message: msg}
		f.deps.Hooks.inc(f.deps.Metrics.Failure)
		f.deps.Hooks.emit(ctx, f.deps.Events.Failure, "", serr)
		return f.result(), serr
	}
}

func (f *SignIn) succeed(ctx context.Context, resp *backend.LoginResponse) (SignInResult, error) {
	data := resp.Data
	sess := session.Session{
		UserID:       data.UserID,
		SessionToken: data.LoginCode,
		DisplayName:  data.Name,
		Email:        data.Email,

		VerificationLevel: session.LevelFromStatus(data.KYCStatus),
	}
	if sess.Email == "" {
		f.mu.Lock()
		if ValidEmail(f.identifier) {
			sess.Email = f.identifier
		}
		f.mu.Unlock()
	}

	if err := f.store.Login(ctx, sess); err != nil {
		f.fail(GenericErrorMessage)
		f.deps.Hooks.inc(f.deps.Metrics.Failure)
		f.deps.Hooks.emit(ctx, f.deps.Events.Failure, sess.UserID, err)
		return f.result(), err
	}

	f.mu.Lock()
	f.clearLocked()
	f.state = SignInSuccess
	f.mu.Unlock()

	f.deps.Hooks.inc(f.deps.Metrics.Success)
	f.deps.Hooks.emit(ctx, f.deps.Events.Success, sess.UserID, nil)

	res := f.result()
	res.Navigation = Navigation{To: destinationAfterLogin(sess.VerificationLevel)}
	return res, nil
}

// destinationAfterLogin sends users who still need KYC to the wizard.
func destinationAfterLogin(level session.VerificationLevel) Destination {
	if level.NeedsKYC() {
		return KYCWizard
	}
	return Dashboard
}

func (f *SignIn) fail(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = SignInFailed
	f.message = msg
}

func (f *SignIn) clearLocked() {
	f.identifier = ""
	f.password = ""
	f.challenged = false
	f.maskedEmail = ""
	f.message = ""
}

func (f *SignIn) result() SignInResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return SignInResult{State: f.state, MaskedEmail: f.maskedEmail, Message: f.message}
}
