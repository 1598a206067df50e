package flows

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goOnboard/backend"
)

// RecoveryStage is the password-recovery wizard state.
type RecoveryStage uint8

const (
	RecoveryEmailEntry RecoveryStage = iota
	RecoveryAwaitingCode
	RecoverySettingPassword
	RecoveryComplete
)

func (s RecoveryStage) String() string {
	switch s {
	case RecoveryAwaitingCode:
		return "awaiting_code"
	case RecoverySettingPassword:
		return "setting_password"
	case RecoveryComplete:
		return "complete"
	default:
		return "email_entry"
	}
}

var recoveryTransitions = map[RecoveryStage][]RecoveryStage{
	RecoveryEmailEntry:      {RecoveryAwaitingCode},
	RecoveryAwaitingCode:    {RecoverySettingPassword, RecoveryEmailEntry},
	RecoverySettingPassword: {RecoveryComplete, RecoveryAwaitingCode},
}

func canRecover(from, to RecoveryStage) bool {
	for _, s := range recoveryTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// RecoveryMetrics carries metric IDs used by the recovery wizard.
type RecoveryMetrics struct {
	CodeRequested   int
	CodeResent      int
	CodeVerified    int
	CodeRejected    int
	PasswordUpdated int
	Failure         int
}

// RecoveryEvents carries audit event names used by the recovery wizard.
type RecoveryEvents struct {
	CodeRequested   string
	CodeVerified    string
	PasswordUpdated string
	Failure         string
}

// RecoveryDeps captures recovery dependencies.
type RecoveryDeps struct {
	ForgotPassword          func(ctx context.Context, email string) (*backend.StatusResponse, error)
	VerifyForgotPasswordOTP func(ctx context.Context, email, code string) (*backend.StatusResponse, error)
	UpdatePassword          func(ctx context.Context, email, password string) (*backend.StatusResponse, error)

	ResendCooldown time.Duration
	Now            func() time.Time

	Metrics RecoveryMetrics
	Events  RecoveryEvents
	Errors  Errors
	Hooks   Hooks
}

func normalizeRecoveryDeps(d RecoveryDeps) RecoveryDeps {
	d.Errors = normalizeErrors(d.Errors)
	if d.ResendCooldown <= 0 {
		d.ResendCooldown = DefaultResendCooldown
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// RecoveryResult is the wizard view after an operation.
type RecoveryResult struct {
	Stage    RecoveryStage
	Email    string
	Cooldown int
	Message  string
}

// Recovery is the forgot-password wizard. Its ticket (email, stage, cooldown)
// lives only in memory.
type Recovery struct {
	deps     RecoveryDeps
	gate     inflight
	cooldown *Countdown

	mu      sync.Mutex
	stage   RecoveryStage
	email   string
	message string
}

// NewRecovery returns a wizard at EmailEntry.
func NewRecovery(deps RecoveryDeps) *Recovery {
	deps = normalizeRecoveryDeps(deps)
	return &Recovery{
		deps:     deps,
		cooldown: NewCountdown(deps.ResendCooldown, deps.Now),
	}
}

// Countdown exposes the resend gate for UIs.
func (f *Recovery) Countdown() *Countdown {
	return f.cooldown
}

// Stage returns the current stage.
func (f *Recovery) Stage() RecoveryStage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

// Result returns the current wizard view.
func (f *Recovery) Result() RecoveryResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return RecoveryResult{
		Stage:    f.stage,
		Email:    f.email,
		Cooldown: f.cooldown.Remaining(),
		Message:  f.message,
	}
}

// RequestCode asks the backend to email a code to email. Asking again for the
// same address while the resend countdown runs fails with CooldownActive.
func (f *Recovery) RequestCode(ctx context.Context, email string) (RecoveryResult, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return f.Result(), err
	}
	release, err := f.begin(RecoveryEmailEntry)
	if err != nil {
		return f.Result(), err
	}
	defer release()

	// going back to edit the address does not reopen the resend gate
	f.mu.Lock()
	same := strings.EqualFold(f.email, email)
	f.mu.Unlock()
	if left := f.cooldown.Remaining(); same && left > 0 {
		return f.Result(), fmt.Errorf("%w: %ds remaining", f.deps.Errors.CooldownActive, left)
	}

	f.deps.Hooks.inc(f.deps.Metrics.CodeRequested)
	if err := f.call(ctx, "forgot_password", func() (*backend.StatusResponse, error) {
		return f.deps.ForgotPassword(ctx, email)
	}); err != nil {
		return f.Result(), err
	}

	f.mu.Lock()
	f.email = email
	f.moveLocked(RecoveryAwaitingCode)
	f.cooldown.Start()
	f.mu.Unlock()
	f.deps.Hooks.emit(ctx, f.deps.Events.CodeRequested, "", nil)
	return f.Result(), nil
}

// ResendCode re-sends the code once the cooldown reached zero.
func (f *Recovery) ResendCode(ctx context.Context) (RecoveryResult, error) {
	release, err := f.begin(RecoveryAwaitingCode)
	if err != nil {
		return f.Result(), err
	}
	defer release()

	if left := f.cooldown.Remaining(); left > 0 {
		return f.Result(), fmt.Errorf("%w: %ds remaining", f.deps.Errors.CooldownActive, left)
	}

	f.mu.Lock()
	email := f.email
	f.mu.Unlock()

	f.deps.Hooks.inc(f.deps.Metrics.CodeResent)
	if err := f.call(ctx, "forgot_password", func() (*backend.StatusResponse, error) {
		return f.deps.ForgotPassword(ctx, email)
	}); err != nil {
		return f.Result(), err
	}
	f.cooldown.Start()
	f.deps.Hooks.emit(ctx, f.deps.Events.CodeRequested, "", nil)
	return f.Result(), nil
}

// VerifyCode checks the emailed code. A rejection is reported on the code field.
func (f *Recovery) VerifyCode(ctx context.Context, code string) (RecoveryResult, error) {
	if err := validateOTP(code); err != nil {
		return f.Result(), err
	}
	release, err := f.begin(RecoveryAwaitingCode)
	if err != nil {
		return f.Result(), err
	}
	defer release()

	f.mu.Lock()
	email := f.email
	f.mu.Unlock()

	resp, err := f.deps.VerifyForgotPasswordOTP(ctx, email, code)
	if err := f.transportError(ctx, resp, err); err != nil {
		return f.Result(), err
	}
	if !bool(resp.Status) {
		msg := strings.TrimSpace(resp.Message)
		if msg == "" {
			msg = "Invalid or expired code"
		}
		f.setMessage(msg)
		f.deps.Hooks.inc(f.deps.Metrics.CodeRejected)
		ferr := &FieldError{Field: "code", Message: msg}
		f.deps.Hooks.emit(ctx, f.deps.Events.Failure, "", ferr)
		return f.Result(), ferr
	}

	f.mu.Lock()
	f.moveLocked(RecoverySettingPassword)
	f.message = ""
	f.mu.Unlock()
	f.deps.Hooks.inc(f.deps.Metrics.CodeVerified)
	f.deps.Hooks.emit(ctx, f.deps.Events.CodeVerified, "", nil)
	return f.Result(), nil
}

// SetNewPassword validates both fields locally, then updates the password.
func (f *Recovery) SetNewPassword(ctx context.Context, password, confirm string) (RecoveryResult, error) {
	if err := validateNewPassword(password, confirm); err != nil {
		return f.Result(), err
	}
	release, err := f.begin(RecoverySettingPassword)
	if err != nil {
		return f.Result(), err
	}
	defer release()

	f.mu.Lock()
	email := f.email
	f.mu.Unlock()

	if err := f.call(ctx, "update_password", func() (*backend.StatusResponse, error) {
		return f.deps.UpdatePassword(ctx, email, password)
	}); err != nil {
		return f.Result(), err
	}

	f.mu.Lock()
	f.moveLocked(RecoveryComplete)
	f.mu.Unlock()
	f.cooldown.Stop()
	f.deps.Hooks.inc(f.deps.Metrics.PasswordUpdated)
	f.deps.Hooks.emit(ctx, f.deps.Events.PasswordUpdated, "", nil)
	return f.Result(), nil
}

// Back steps AwaitingCode to EmailEntry and SettingPassword to AwaitingCode.
func (f *Recovery) Back() (RecoveryResult, error) {
	if f.gate.active() {
		return f.Result(), f.deps.Errors.SubmissionInFlight
	}
	f.mu.Lock()
	var to RecoveryStage
	switch f.stage {
	case RecoveryAwaitingCode:
		to = RecoveryEmailEntry
	case RecoverySettingPassword:
		to = RecoveryAwaitingCode
	default:
		f.mu.Unlock()
		return f.Result(), f.deps.Errors.InvalidTransition
	}
	f.moveLocked(to)
	f.message = ""
	f.mu.Unlock()
	return f.Result(), nil
}

// begin takes the in-flight slot and checks the wizard is at stage.
func (f *Recovery) begin(stage RecoveryStage) (func(), error) {
	if err := f.gate.enter(f.deps.Errors.SubmissionInFlight); err != nil {
		return nil, err
	}
	f.mu.Lock()
	ok := f.stage == stage
	f.mu.Unlock()
	if !ok {
		f.gate.leave()
		return nil, f.deps.Errors.InvalidTransition
	}
	return f.gate.leave, nil
}

func (f *Recovery) call(ctx context.Context, op string, do func() (*backend.StatusResponse, error)) error {
	resp, err := do()
	if err := f.transportError(ctx, resp, err); err != nil {
		return err
	}
	if !bool(resp.Status) {
		msg := strings.TrimSpace(resp.Message)
		if msg == "" {
			msg = GenericErrorMessage
		}
		f.setMessage(msg)
		serr := &ServerError{Op: op, Message: msg}
		f.deps.Hooks.inc(f.deps.Metrics.Failure)
		f.deps.Hooks.emit(ctx, f.deps.Events.Failure, "", serr)
		return serr
	}
	f.setMessage("")
	return nil
}

func (f *Recovery) transportError(ctx context.Context, resp *backend.StatusResponse, err error) error {
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err == nil && resp == nil {
		err = backend.ErrMalformedResponse
	}
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%w: %v", f.deps.Errors.RequestFailed, err)
	f.setMessage(GenericErrorMessage)
	f.deps.Hooks.inc(f.deps.Metrics.Failure)
	f.deps.Hooks.emit(ctx, f.deps.Events.Failure, "", wrapped)
	return wrapped
}

func (f *Recovery) moveLocked(to RecoveryStage) {
	if canRecover(f.stage, to) {
		f.stage = to
	}
}

func (f *Recovery) setMessage(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = msg
}
