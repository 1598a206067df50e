package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goOnboard/backend"
	"github.com/MrEthical07/goOnboard/camera"
	"github.com/MrEthical07/goOnboard/session"
)

// DefaultRedirectDelay is how long the Submitted screen shows before navigating.
const DefaultRedirectDelay = 3 * time.Second

// KYCStep is the KYC wizard step.
type KYCStep uint8

const (
	KYCIdentityNumber KYCStep = iota
	KYCDocumentCapture
	KYCSelfieCapture
	KYCSubmitted
)

func (s KYCStep) String() string {
	switch s {
	case KYCDocumentCapture:
		return "document_capture"
	case KYCSelfieCapture:
		return "selfie_capture"
	case KYCSubmitted:
		return "submitted"
	default:
		return "identity_number"
	}
}

var kycTransitions = map[KYCStep][]KYCStep{
	KYCIdentityNumber:  {KYCDocumentCapture},
	KYCDocumentCapture: {KYCSelfieCapture, KYCIdentityNumber},
	KYCSelfieCapture:   {KYCSubmitted, KYCDocumentCapture},
}

func canKYC(from, to KYCStep) bool {
	for _, s := range kycTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IDType is the kind of identity document.
type IDType string

const (
	IDPassport          IDType = "passport"
	IDNationalOrLicense IDType = "national_id_or_license"
)

// ParseIDType accepts the wire values of IDType.
func ParseIDType(s string) (IDType, bool) {
	switch IDType(strings.ToLower(strings.TrimSpace(s))) {
	case IDPassport:
		return IDPassport, true
	case IDNationalOrLicense:
		return IDNationalOrLicense, true
	default:
		return "", false
	}
}

// KYCMetrics carries metric IDs used by the KYC wizard.
type KYCMetrics struct {
	CameraOpened int
	CameraFailed int
	Captured     int
	Submitted    int
	Failure      int
}

// KYCEvents carries audit event names used by the KYC wizard.
type KYCEvents struct {
	CameraFailed string
	Submitted    string
	Failure      string
}

// KYCDeps captures KYC dependencies.
type KYCDeps struct {
	Submit func(context.Context, backend.KYCSubmission) (*backend.StatusResponse, error)
	Status func(ctx context.Context, userID, loginCode string) (*backend.KYCStatusResponse, error)

	RedirectDelay time.Duration
	JPEGQuality   int

	Metrics KYCMetrics
	Events  KYCEvents
	Errors  Errors
	Hooks   Hooks
}

func normalizeKYCDeps(d KYCDeps) KYCDeps {
	d.Errors = normalizeErrors(d.Errors)
	if d.RedirectDelay < 0 {
		d.RedirectDelay = 0
	}
	return d
}

// KYCSnapshot is the observable wizard state.
type KYCSnapshot struct {
	Step        KYCStep
	IDType      IDType
	IDNumber    string
	HasDocument bool
	HasSelfie   bool
	Camera      camera.Session
	Message     string
}

// KYCResult is the outcome of a submission.
type KYCResult struct {
	Step       KYCStep
	Message    string
	Navigation Navigation
}

// KYC is the identity-verification wizard. It owns one camera.Manager, so at
// most one stream is live per wizard.
type KYC struct {
	deps  KYCDeps
	store *session.Store
	cam   *camera.Manager
	gate  inflight

	mu       sync.Mutex
	step     KYCStep
	idType   IDType
	idNumber string
	document []byte
	selfie   []byte
	message  string
}

// NewKYC binds a KYC wizard to store and the camera src.
func NewKYC(deps KYCDeps, store *session.Store, src camera.Source) *KYC {
	deps = normalizeKYCDeps(deps)
	f := &KYC{
		deps:  deps,
		store: store,
		cam:   camera.NewManager(src, deps.JPEGQuality),
	}
	f.cam.SetHooks(
		func(camera.Session) { deps.Hooks.inc(deps.Metrics.CameraOpened) },
		func(e *camera.Error) {
			deps.Hooks.inc(deps.Metrics.CameraFailed)
			deps.Hooks.emit(context.Background(), deps.Events.CameraFailed, "", e)
		},
	)
	return f
}

// Snapshot returns the current wizard state.
func (f *KYC) Snapshot() KYCSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return KYCSnapshot{
		Step:        f.step,
		IDType:      f.idType,
		IDNumber:    f.idNumber,
		HasDocument: len(f.document) > 0,
		HasSelfie:   len(f.selfie) > 0,
		Camera:      f.cam.State(),
		Message:     f.message,
	}
}

// Step returns the current step.
func (f *KYC) Step() KYCStep {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// SetIdentity records the document type and number.
func (f *KYC) SetIdentity(idType, idNumber string) error {
	t, ok := ParseIDType(idType)
	if !ok {
		return &FieldError{Field: "idType", Message: "Please select an ID type"}
	}
	idNumber = strings.TrimSpace(idNumber)
	if idNumber == "" {
		return &FieldError{Field: "idNumber", Message: "ID number is required"}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step == KYCSubmitted {
		return f.deps.Errors.InvalidTransition
	}
	f.idType = t
	f.idNumber = idNumber
	return nil
}

// Next advances one step. The identity step needs type and number; the document
// step needs a captured document.
func (f *KYC) Next() (KYCStep, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.step {
	case KYCIdentityNumber:
		if f.idType == "" {
			return f.step, &FieldError{Field: "idType", Message: "Please select an ID type"}
		}
		if f.idNumber == "" {
			return f.step, &FieldError{Field: "idNumber", Message: "ID number is required"}
		}
	case KYCDocumentCapture:
		if len(f.document) == 0 {
			return f.step, &FieldError{Field: "idDocument", Message: "Please capture your ID document"}
		}
	default:
		return f.step, f.deps.Errors.InvalidTransition
	}
	return f.moveLocked(f.step + 1)
}

// Back goes one step back and keeps captured images.
func (f *KYC) Back() (KYCStep, error) {
	if f.gate.active() {
		return f.Step(), f.deps.Errors.SubmissionInFlight
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != KYCDocumentCapture && f.step != KYCSelfieCapture {
		return f.step, f.deps.Errors.InvalidTransition
	}
	return f.moveLocked(f.step - 1)
}

func (f *KYC) moveLocked(to KYCStep) (KYCStep, error) {
	if !canKYC(f.step, to) {
		return f.step, f.deps.Errors.InvalidTransition
	}
	f.cam.Release()
	f.step = to
	f.message = ""
	return f.step, nil
}

// OpenCamera starts the stream for the current capture step: the rear camera
// for documents, the front camera for selfies.
func (f *KYC) OpenCamera(ctx context.Context) error {
	f.mu.Lock()
	step := f.step
	f.mu.Unlock()

	var (
		target camera.Target
		facing camera.FacingMode
	)
	switch step {
	case KYCDocumentCapture:
		target, facing = camera.TargetIDDocument, camera.FacingEnvironment
	case KYCSelfieCapture:
		target, facing = camera.TargetSelfie, camera.FacingUser
	default:
		return f.deps.Errors.InvalidTransition
	}

	if err := f.cam.Open(ctx, target, facing); err != nil {
		var cerr *camera.Error
		if errors.As(err, &cerr) {
			f.setMessage(cerr.Message())
		}
		return err
	}
	f.setMessage("")
	return nil
}

// Capture stores the current frame as JPEG in the field the camera was opened
// for. The camera is released either way.
func (f *KYC) Capture(ctx context.Context) (camera.Target, error) {
	data, target, err := f.cam.Capture(ctx)
	if err != nil {
		var cerr *camera.Error
		if errors.As(err, &cerr) {
			f.setMessage(cerr.Message())
		}
		return target, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	switch target {
	case camera.TargetIDDocument:
		f.document = data
	case camera.TargetSelfie:
		f.selfie = data
	}
	f.message = ""
	f.deps.Hooks.inc(f.deps.Metrics.Captured)
	return target, nil
}

// CancelCamera releases the stream without capturing.
func (f *KYC) CancelCamera() {
	f.cam.Release()
}

// Close releases the camera for good. Later OpenCamera calls fail.
func (f *KYC) Close() {
	f.cam.Close()
}

// Submit sends identity data and both images in one request. On failure the
// wizard stays on the selfie step with the images kept for a retry.
func (f *KYC) Submit(ctx context.Context) (KYCResult, error) {
	f.mu.Lock()
	sub := backend.KYCSubmission{
		IDType:     string(f.idType),
		IDNumber:   f.idNumber,
		IDDocument: f.document,
		Selfie:     f.selfie,
	}
	step := f.step
	f.mu.Unlock()

	switch {
	case sub.IDNumber == "":
		return f.result(), &FieldError{Field: "idNumber", Message: "ID number is required"}
	case len(sub.IDDocument) == 0:
		return f.result(), &FieldError{Field: "idDocument", Message: "Please capture your ID document"}
	case len(sub.Selfie) == 0:
		return f.result(), &FieldError{Field: "selfie", Message: "Please take a selfie"}
	}
	if step != KYCSelfieCapture {
		return f.result(), f.deps.Errors.InvalidTransition
	}

	sess, err := f.store.LoggedIn()
	if err != nil {
		return f.result(), f.deps.Errors.NotAuthenticated
	}
	sub.UserID = sess.UserID
	sub.LoginCode = sess.SessionToken

	if err := f.gate.enter(f.deps.Errors.SubmissionInFlight); err != nil {
		return f.result(), err
	}
	defer f.gate.leave()
	f.cam.Release()

	resp, err := f.deps.Submit(ctx, sub)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err == nil && resp == nil {
		err = backend.ErrMalformedResponse
	}
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", f.deps.Errors.RequestFailed, err)
		f.setMessage(GenericErrorMessage)
		f.deps.Hooks.inc(f.deps.Metrics.Failure)
		f.deps.Hooks.emit(ctx, f.deps.Events.Failure, sess.UserID, wrapped)
		return f.result(), wrapped
	}
	if !bool(resp.Status) {
		msg := strings.TrimSpace(resp.Message)
		if msg == "" {
			msg = "Verification submission failed. Please try again."
		}
		f.setMessage(msg)
		serr := &ServerError{Op: "kyc_submit", Message: msg}
		f.deps.Hooks.inc(f.deps.Metrics.Failure)
		f.deps.Hooks.emit(ctx, f.deps.Events.Failure, sess.UserID, serr)
		return f.result(), serr
	}

	f.mu.Lock()
	_, _ = f.moveLocked(KYCSubmitted)
	f.document = nil
	f.selfie = nil
	f.mu.Unlock()

	profile := sess.Profile()
	profile.VerificationLevel = session.LevelPending
	if err := f.store.UpdateUser(ctx, profile); err != nil {
		f.deps.Hooks.emit(ctx, f.deps.Events.Failure, sess.UserID, err)
	}

	f.deps.Hooks.inc(f.deps.Metrics.Submitted)
	f.deps.Hooks.emit(ctx, f.deps.Events.Submitted, sess.UserID, nil)

	res := f.result()
	res.Navigation = Navigation{To: Dashboard, After: f.deps.RedirectDelay}
	return res, nil
}

// Status fetches the backend verification level per document type.
func (f *KYC) Status(ctx context.Context) (map[string]session.VerificationLevel, error) {
	sess, err := f.store.LoggedIn()
	if err != nil {
		return nil, f.deps.Errors.NotAuthenticated
	}
	resp, err := f.deps.Status(ctx, sess.UserID, sess.SessionToken)
	if err == nil && resp == nil {
		err = backend.ErrMalformedResponse
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", f.deps.Errors.RequestFailed, err)
	}
	if !bool(resp.Status) {
		msg := strings.TrimSpace(resp.Message)
		if msg == "" {
			msg = GenericErrorMessage
		}
		return nil, &ServerError{Op: "kyc_status", Message: msg}
	}

	out := make(map[string]session.VerificationLevel, len(resp.Data))
	for doc, level := range resp.Data {
		out[doc] = session.ParseVerificationLevel(level)
	}
	return out, nil
}

func (f *KYC) setMessage(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = msg
}

func (f *KYC) result() KYCResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return KYCResult{Step: f.step, Message: f.message}
}
