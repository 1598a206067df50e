package flows

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MrEthical07/goOnboard/backend"
	"github.com/MrEthical07/goOnboard/session"
	"github.com/MrEthical07/goOnboard/storage"
)

var (
	testErrRequestFailed = errors.New("test: request failed")
	testErrInFlight      = errors.New("test: in flight")
	testErrTransition    = errors.New("test: transition")
	testErrCooldown      = errors.New("test: cooldown")
	testErrNotAuth       = errors.New("test: not authenticated")
)

func testErrors() Errors {
	return Errors{
		RequestFailed:      testErrRequestFailed,
		SubmissionInFlight: testErrInFlight,
		InvalidTransition:  testErrTransition,
		CooldownActive:     testErrCooldown,
		NotAuthenticated:   testErrNotAuth,
	}
}

type loginStub struct {
	mu    sync.Mutex
	calls []backend.LoginRequest
	reply func(backend.LoginRequest) (*backend.LoginResponse, error)
}

func (s *loginStub) Login(_ context.Context, req backend.LoginRequest) (*backend.LoginResponse, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	return s.reply(req)
}

func (s *loginStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newSignInTest(t *testing.T, reply func(backend.LoginRequest) (*backend.LoginResponse, error)) (*SignIn, *loginStub, *session.Store) {
	t.Helper()
	stub := &loginStub{reply: reply}
	store := session.NewStore(storage.NewMemoryKV(), "onboard:session:test", 0)
	f := NewSignIn(SignInDeps{Login: stub.Login, Errors: testErrors()}, store)
	return f, stub, store
}

func strPtr(s string) *string { return &s }

func TestSignInSuccessNavigatesToDashboard(t *testing.T) {
	f, stub, store := newSignInTest(t, func(backend.LoginRequest) (*backend.LoginResponse, error) {
		return &backend.LoginResponse{Status: true, Data: &backend.LoginData{LoginCode: "abc"}}, nil
	})

	res, err := f.SubmitCredentials(context.Background(), "user@example.com", "correct")
	if err != nil {
		t.Fatalf("SubmitCredentials: %v", err)
	}
	if res.State != SignInSuccess {
		t.Fatalf("expected success, got %v", res.State)
	}
	if res.Navigation.To != Dashboard {
		t.Fatalf("expected dashboard navigation, got %v", res.Navigation.To)
	}
	sess, err := store.LoggedIn()
	if err != nil {
		t.Fatalf("expected logged-in session: %v", err)
	}
	if sess.SessionToken != "abc" || sess.Email != "user@example.com" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if stub.calls[0].OTP != "" {
		t.Fatal("first submission must not carry an otp")
	}
	if sess.VerificationLevel.NeedsKYC() {
		t.Fatalf("stored level %v disagrees with dashboard navigation", sess.VerificationLevel)
	}
}

func TestSignInNavigationMatchesStoredLevel(t *testing.T) {
	for _, status := range []*string{nil, strPtr(""), strPtr("unverified"), strPtr("pending"), strPtr("rejected"), strPtr("unknown")} {
		f, _, store := newSignInTest(t, func(backend.LoginRequest) (*backend.LoginResponse, error) {
			return &backend.LoginResponse{Status: true, Data: &backend.LoginData{LoginCode: "abc", KYCStatus: status}}, nil
		})
		res, err := f.SubmitCredentials(context.Background(), "user@example.com", "pw")
		if err != nil {
			t.Fatalf("SubmitCredentials: %v", err)
		}
		sess, _ := store.Current()
		if (res.Navigation.To == KYCWizard) != sess.VerificationLevel.NeedsKYC() {
			t.Fatalf("status %v: navigation %v but stored level %v", status, res.Navigation.To, sess.VerificationLevel)
		}
	}
}

func TestSignInRoutesUnverifiedToKYC(t *testing.T) {
	for _, level := range []string{"unverified", "rejected", ""} {
		f, _, _ := newSignInTest(t, func(backend.LoginRequest) (*backend.LoginResponse, error) {
			return &backend.LoginResponse{Status: true, Data: &backend.LoginData{LoginCode: "abc", KYCStatus: strPtr(level)}}, nil
		})
		res, err := f.SubmitCredentials(context.Background(), "user@example.com", "pw")
		if err != nil {
			t.Fatalf("level %q: %v", level, err)
		}
		if res.Navigation.To != KYCWizard {
			t.Fatalf("level %q: expected kyc navigation, got %v", level, res.Navigation.To)
		}
	}

	f, _, _ := newSignInTest(t, func(backend.LoginRequest) (*backend.LoginResponse, error) {
		return &backend.LoginResponse{Status: true, Data: &backend.LoginData{LoginCode: "abc", KYCStatus: strPtr("verified")}}, nil
	})
	res, _ := f.SubmitCredentials(context.Background(), "user@example.com", "pw")
	if res.Navigation.To != Dashboard {
		t.Fatalf("verified user must go to dashboard, got %v", res.Navigation.To)
	}
}

func TestSignInRequires2FACreatesNoSession(t *testing.T) {
	f, stub, store := newSignInTest(t, func(req backend.LoginRequest) (*backend.LoginResponse, error) {
		if req.OTP == "" {
			return &backend.LoginResponse{Status: true, Requires2FA: true}, nil
		}
		if req.OTP != "123456" {
			return &backend.LoginResponse{Status: false, Message: "Invalid code"}, nil
		}
		return &backend.LoginResponse{Status: true, Data: &backend.LoginData{LoginCode: "tok"}}, nil
	})
	ctx := context.Background()

	res, err := f.SubmitCredentials(ctx, "user@example.com", "correct")
	if err != nil {
		t.Fatalf("SubmitCredentials: %v", err)
	}
	if res.State != SignInRequires2FA {
		t.Fatalf("expected Requires2FA, got %v", res.State)
	}
	if res.MaskedEmail != "us**@example.com" {
		t.Fatalf("unexpected masked email %q", res.MaskedEmail)
	}
	if _, ok := store.Current(); ok {
		t.Fatal("no session may exist before the second factor")
	}

	var serr *ServerError
	if _, err := f.SubmitSecondFactor(ctx, "000000"); !errors.As(err, &serr) || serr.Message != "Invalid code" {
		t.Fatalf("expected server error, got %v", err)
	}
	if f.State() != SignInFailed {
		t.Fatalf("expected Failed after bad code, got %v", f.State())
	}

	res, err = f.SubmitSecondFactor(ctx, "123456")
	if err != nil {
		t.Fatalf("SubmitSecondFactor: %v", err)
	}
	if res.State != SignInSuccess {
		t.Fatalf("expected success, got %v", res.State)
	}
	last := stub.calls[len(stub.calls)-1]
	if last.Identifier != "user@example.com" || last.Password != "correct" || last.OTP != "123456" {
		t.Fatalf("second factor must resubmit held credentials, got %+v", last)
	}
}

func TestSignInSecondFactorRejectsMalformedCodeLocally(t *testing.T) {
	f, stub, _ := newSignInTest(t, func(backend.LoginRequest) (*backend.LoginResponse, error) {
		return &backend.LoginResponse{Requires2FA: true}, nil
	})
	ctx := context.Background()
	if _, err := f.SubmitCredentials(ctx, "user@example.com", "pw"); err != nil {
		t.Fatalf("SubmitCredentials: %v", err)
	}
	before := stub.count()

	for _, code := range []string{"", "12345", "1234567", "12a456", " 12345", "١٢٣٤٥٦"} {
		var ferr *FieldError
		if _, err := f.SubmitSecondFactor(ctx, code); !errors.As(err, &ferr) || ferr.Field != "code" {
			t.Fatalf("code %q: expected field error, got %v", code, err)
		}
	}
	if stub.count() != before {
		t.Fatal("malformed codes must not reach the backend")
	}
}

func TestSignInValidationAndFailures(t *testing.T) {
	f, stub, _ := newSignInTest(t, func(backend.LoginRequest) (*backend.LoginResponse, error) {
		return &backend.LoginResponse{Status: false}, nil
	})
	ctx := context.Background()

	var ferr *FieldError
	if _, err := f.SubmitCredentials(ctx, "   ", "pw"); !errors.As(err, &ferr) || ferr.Field != "identifier" {
		t.Fatalf("expected identifier field error, got %v", err)
	}
	if _, err := f.SubmitCredentials(ctx, "a@b.co", ""); !errors.As(err, &ferr) || ferr.Field != "password" {
		t.Fatalf("expected password field error, got %v", err)
	}
	if stub.count() != 0 {
		t.Fatal("validation failures must not call the backend")
	}

	res, err := f.SubmitCredentials(ctx, "a@b.co", "pw")
	var serr *ServerError
	if !errors.As(err, &serr) || res.Message != InvalidCredentialsMessage {
		t.Fatalf("expected fallback message, got %v / %q", err, res.Message)
	}
	if _, err := f.SubmitSecondFactor(ctx, "123456"); !errors.Is(err, testErrTransition) {
		t.Fatalf("second factor without challenge must be rejected, got %v", err)
	}
}

func TestSignInTransportFailureIsGeneric(t *testing.T) {
	f, _, store := newSignInTest(t, func(backend.LoginRequest) (*backend.LoginResponse, error) {
		return nil, backend.ErrTransport
	})
	res, err := f.SubmitCredentials(context.Background(), "a@b.co", "pw")
	if !errors.Is(err, testErrRequestFailed) {
		t.Fatalf("expected request failed, got %v", err)
	}
	if res.State != SignInFailed || res.Message != GenericErrorMessage {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, ok := store.Current(); ok {
		t.Fatal("failed login must not create a session")
	}
}

func TestSignInCancelledContextDropsLateResponse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f, _, store := newSignInTest(t, func(backend.LoginRequest) (*backend.LoginResponse, error) {
		cancel()
		return &backend.LoginResponse{Status: true, Data: &backend.LoginData{LoginCode: "late"}}, nil
	})
	if _, err := f.SubmitCredentials(ctx, "a@b.co", "pw"); !errors.Is(err, testErrRequestFailed) {
		t.Fatalf("expected request failed, got %v", err)
	}
	if _, ok := store.Current(); ok {
		t.Fatal("late response must be dropped")
	}
}

func TestSignInRejectsConcurrentSubmission(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	f, stub, _ := newSignInTest(t, func(backend.LoginRequest) (*backend.LoginResponse, error) {
		close(entered)
		<-release
		return &backend.LoginResponse{Status: true, Data: &backend.LoginData{LoginCode: "abc"}}, nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := f.SubmitCredentials(context.Background(), "a@b.co", "pw")
		done <- err
	}()
	<-entered

	if _, err := f.SubmitCredentials(context.Background(), "a@b.co", "pw"); !errors.Is(err, testErrInFlight) {
		t.Fatalf("expected in-flight rejection, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if stub.count() != 1 {
		t.Fatalf("expected exactly one backend call, got %d", stub.count())
	}
}

func TestSignInTransitionsTable(t *testing.T) {
	if canSignIn(SignInSuccess, SignInSubmitting) {
		t.Fatal("success must not resubmit without reset")
	}
	if !canSignIn(SignInRequires2FA, SignInSubmitting) {
		t.Fatal("challenge must allow resubmission")
	}
	if canSignIn(SignInIdle, SignInSuccess) {
		t.Fatal("idle cannot jump to success")
	}
}
