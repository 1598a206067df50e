package flows

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goOnboard/backend"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recoveryStub struct {
	forgot, verify, update int
	verifyOK               bool
	lastEmail, lastPass    string
}

func newRecoveryTest(t *testing.T) (*Recovery, *recoveryStub, *fakeClock) {
	t.Helper()
	stub := &recoveryStub{verifyOK: true}
	clock := newFakeClock()
	f := NewRecovery(RecoveryDeps{
		ForgotPassword: func(_ context.Context, email string) (*backend.StatusResponse, error) {
			stub.forgot++
			stub.lastEmail = email
			return &backend.StatusResponse{Status: true}, nil
		},
		VerifyForgotPasswordOTP: func(_ context.Context, email, code string) (*backend.StatusResponse, error) {
			stub.verify++
			if !stub.verifyOK {
				return &backend.StatusResponse{Status: false, Message: "Code expired"}, nil
			}
			return &backend.StatusResponse{Status: true}, nil
		},
		UpdatePassword: func(_ context.Context, email, password string) (*backend.StatusResponse, error) {
			stub.update++
			stub.lastPass = password
			return &backend.StatusResponse{Status: true}, nil
		},
		Now:    clock.Now,
		Errors: testErrors(),
	})
	return f, stub, clock
}

func TestRequestCodeRejectsMalformedEmailLocally(t *testing.T) {
	f, stub, _ := newRecoveryTest(t)
	for _, email := range []string{"", "plain", "a@b", "@example.com", "a b@example.com", "a@@b.co", "a@b .co"} {
		var ferr *FieldError
		if _, err := f.RequestCode(context.Background(), email); !errors.As(err, &ferr) || ferr.Field != "email" {
			t.Fatalf("email %q: expected field error, got %v", email, err)
		}
	}
	if stub.forgot != 0 {
		t.Fatalf("malformed emails must not reach the backend, got %d calls", stub.forgot)
	}
	if f.Stage() != RecoveryEmailEntry {
		t.Fatalf("stage must not change, got %v", f.Stage())
	}
}

func TestResendBlockedUntilCooldownReachesZero(t *testing.T) {
	f, stub, clock := newRecoveryTest(t)
	ctx := context.Background()

	res, err := f.RequestCode(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	if res.Stage != RecoveryAwaitingCode || res.Cooldown != 60 {
		t.Fatalf("unexpected result %+v", res)
	}

	if _, err := f.ResendCode(ctx); !errors.Is(err, testErrCooldown) {
		t.Fatalf("expected cooldown rejection, got %v", err)
	}
	clock.Advance(59*time.Second + 500*time.Millisecond)
	if got := f.Countdown().Remaining(); got != 1 {
		t.Fatalf("expected 1s remaining, got %d", got)
	}
	if _, err := f.ResendCode(ctx); !errors.Is(err, testErrCooldown) {
		t.Fatalf("expected cooldown rejection at 1s, got %v", err)
	}
	if stub.forgot != 1 {
		t.Fatalf("blocked resends must not call the backend, got %d", stub.forgot)
	}

	clock.Advance(time.Second)
	res, err = f.ResendCode(ctx)
	if err != nil {
		t.Fatalf("ResendCode: %v", err)
	}
	if stub.forgot != 2 || res.Cooldown != 60 {
		t.Fatalf("resend must call once and restart the countdown, calls=%d cooldown=%d", stub.forgot, res.Cooldown)
	}
}

func TestRequestCodeAfterBackHonorsCooldown(t *testing.T) {
	f, stub, clock := newRecoveryTest(t)
	ctx := context.Background()

	if _, err := f.RequestCode(ctx, "user@example.com"); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	if _, err := f.Back(); err != nil {
		t.Fatalf("Back: %v", err)
	}
	if _, err := f.RequestCode(ctx, "User@Example.com"); !errors.Is(err, testErrCooldown) {
		t.Fatalf("expected cooldown rejection for the same address, got %v", err)
	}
	if f.Stage() != RecoveryEmailEntry || stub.forgot != 1 {
		t.Fatalf("rejected request must not call or move, stage=%v calls=%d", f.Stage(), stub.forgot)
	}

	res, err := f.RequestCode(ctx, "other@example.com")
	if err != nil {
		t.Fatalf("a different address must be accepted: %v", err)
	}
	if res.Email != "other@example.com" || stub.forgot != 2 {
		t.Fatalf("unexpected result %+v calls=%d", res, stub.forgot)
	}

	f.Back()
	clock.Advance(61 * time.Second)
	if _, err := f.RequestCode(ctx, "other@example.com"); err != nil {
		t.Fatalf("request after cooldown: %v", err)
	}
	if stub.forgot != 3 {
		t.Fatalf("expected 3 backend calls, got %d", stub.forgot)
	}
}

func TestVerifyCodeRejectsMalformedAndSurfacesServerRejection(t *testing.T) {
	f, stub, _ := newRecoveryTest(t)
	ctx := context.Background()
	if _, err := f.RequestCode(ctx, "user@example.com"); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}

	for _, code := range []string{"12345", "abcdef", "1234567", ""} {
		var ferr *FieldError
		if _, err := f.VerifyCode(ctx, code); !errors.As(err, &ferr) || ferr.Field != "code" {
			t.Fatalf("code %q: expected field error, got %v", code, err)
		}
	}
	if stub.verify != 0 {
		t.Fatal("malformed codes must not reach the backend")
	}

	stub.verifyOK = false
	var ferr *FieldError
	if _, err := f.VerifyCode(ctx, "123456"); !errors.As(err, &ferr) || ferr.Message != "Code expired" {
		t.Fatalf("expected server rejection on code field, got %v", err)
	}
	if f.Stage() != RecoveryAwaitingCode {
		t.Fatalf("rejected code must keep AwaitingCode, got %v", f.Stage())
	}

	stub.verifyOK = true
	res, err := f.VerifyCode(ctx, "123456")
	if err != nil || res.Stage != RecoverySettingPassword {
		t.Fatalf("expected SettingPassword, got %+v err=%v", res, err)
	}
}

func TestSetNewPasswordValidatesBeforeCalling(t *testing.T) {
	f, stub, _ := newRecoveryTest(t)
	ctx := context.Background()
	if _, err := f.RequestCode(ctx, "user@example.com"); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	if _, err := f.VerifyCode(ctx, "123456"); err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}

	var ferr *FieldError
	if _, err := f.SetNewPassword(ctx, "short", "short"); !errors.As(err, &ferr) || ferr.Field != "password" {
		t.Fatalf("expected password length error, got %v", err)
	}
	if _, err := f.SetNewPassword(ctx, "longenough1", "longenough2"); !errors.As(err, &ferr) || ferr.Field != "confirmPassword" {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	if stub.update != 0 {
		t.Fatal("invalid passwords must not reach the backend")
	}
	if f.Stage() != RecoverySettingPassword {
		t.Fatalf("stage must stay SettingPassword, got %v", f.Stage())
	}

	res, err := f.SetNewPassword(ctx, "longenough1", "longenough1")
	if err != nil || res.Stage != RecoveryComplete {
		t.Fatalf("expected Complete, got %+v err=%v", res, err)
	}
	if stub.lastPass != "longenough1" || stub.lastEmail != "user@example.com" {
		t.Fatalf("unexpected update call %+v", stub)
	}
}

func TestRecoveryBackTransitions(t *testing.T) {
	f, _, _ := newRecoveryTest(t)
	ctx := context.Background()

	if _, err := f.Back(); !errors.Is(err, testErrTransition) {
		t.Fatalf("back from EmailEntry must fail, got %v", err)
	}
	if _, err := f.RequestCode(ctx, "user@example.com"); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	if _, err := f.VerifyCode(ctx, "123456"); err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if res, err := f.Back(); err != nil || res.Stage != RecoveryAwaitingCode {
		t.Fatalf("expected AwaitingCode, got %+v err=%v", res, err)
	}
	if res, err := f.Back(); err != nil || res.Stage != RecoveryEmailEntry {
		t.Fatalf("expected EmailEntry, got %+v err=%v", res, err)
	}
	if _, err := f.VerifyCode(ctx, "123456"); !errors.Is(err, testErrTransition) {
		t.Fatalf("verify from EmailEntry must fail, got %v", err)
	}
}

func TestRecoveryServerErrorPassesThrough(t *testing.T) {
	f := NewRecovery(RecoveryDeps{
		ForgotPassword: func(context.Context, string) (*backend.StatusResponse, error) {
			return &backend.StatusResponse{Status: false, Message: "Email not registered"}, nil
		},
		Errors: testErrors(),
	})
	var serr *ServerError
	res, err := f.RequestCode(context.Background(), "user@example.com")
	if !errors.As(err, &serr) || serr.Message != "Email not registered" {
		t.Fatalf("expected verbatim server error, got %v", err)
	}
	if res.Stage != RecoveryEmailEntry || res.Cooldown != 0 {
		t.Fatalf("failed request must not advance or start cooldown, got %+v", res)
	}
}

func TestCountdownTicksCloseAtZero(t *testing.T) {
	c := NewCountdown(time.Second, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var seen []int
	for left := range c.Ticks(ctx) {
		seen = append(seen, left)
	}
	if len(seen) != 1 || seen[0] != 0 {
		t.Fatalf("stopped countdown must emit a single zero, got %v", seen)
	}

	c.Start()
	seen = seen[:0]
	for left := range c.Ticks(ctx) {
		seen = append(seen, left)
	}
	if len(seen) < 2 || seen[0] != 1 || seen[len(seen)-1] != 0 {
		t.Fatalf("unexpected ticks %v", seen)
	}
}
