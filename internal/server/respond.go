package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	goOnboard "github.com/MrEthical07/goOnboard"
	"github.com/MrEthical07/goOnboard/camera"
	"github.com/MrEthical07/goOnboard/proxy"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

var errBadBody = errors.New("malformed request body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps the error taxonomy onto HTTP statuses.
func errorStatus(err error) (int, errorBody) {
	var (
		ferr *goOnboard.FieldError
		serr *goOnboard.ServerError
		cerr *camera.Error
	)
	switch {
	case errors.As(err, &ferr):
		return http.StatusUnprocessableEntity, errorBody{Error: "invalid_field", Message: ferr.Message, Field: ferr.Field}
	case errors.As(err, &serr):
		return http.StatusBadRequest, errorBody{Error: "rejected", Message: serr.Message}
	case errors.As(err, &cerr):
		return http.StatusUnprocessableEntity, errorBody{Error: "camera_" + cerr.Reason.String(), Message: cerr.Message()}
	case errors.Is(err, goOnboard.ErrCooldownActive):
		return http.StatusTooManyRequests, errorBody{Error: "cooldown_active", Message: "Please wait before requesting another code"}
	case errors.Is(err, goOnboard.ErrSubmissionInFlight):
		return http.StatusConflict, errorBody{Error: "in_flight", Message: "A request is already in progress"}
	case errors.Is(err, goOnboard.ErrInvalidTransition):
		return http.StatusConflict, errorBody{Error: "invalid_transition", Message: "That action is not available right now"}
	case errors.Is(err, goOnboard.ErrCameraNoActiveStream):
		return http.StatusConflict, errorBody{Error: "camera_inactive", Message: "Open the camera first"}
	case errors.Is(err, goOnboard.ErrNotAuthenticated):
		return http.StatusUnauthorized, errorBody{Error: "not_authenticated", Message: "Please sign in"}
	case errors.Is(err, goOnboard.ErrRequestFailed), errors.Is(err, proxy.ErrRequestFailed):
		return http.StatusBadGateway, errorBody{Error: "request_failed", Message: goOnboard.GenericErrorMessage}
	case errors.Is(err, goOnboard.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, errorBody{Error: "storage_unavailable", Message: goOnboard.GenericErrorMessage}
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest, errorBody{Error: "bad_request", Message: "Malformed request"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal", Message: goOnboard.GenericErrorMessage}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := errorStatus(err)
	writeJSON(w, status, body)
}

// decodeJSON reads a small JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

type navigationView struct {
	To      string `json:"to"`
	AfterMs int64  `json:"afterMs,omitempty"`
}

func navigationOf(n goOnboard.Navigation) *navigationView {
	if !n.Pending() {
		return nil
	}
	return &navigationView{To: n.To.String(), AfterMs: n.After.Milliseconds()}
}

type signInView struct {
	State       string          `json:"state"`
	MaskedEmail string          `json:"maskedEmail,omitempty"`
	Message     string          `json:"message,omitempty"`
	Navigation  *navigationView `json:"navigation,omitempty"`
}

func signInOf(res goOnboard.SignInResult) signInView {
	return signInView{
		State:       res.State.String(),
		MaskedEmail: res.MaskedEmail,
		Message:     res.Message,
		Navigation:  navigationOf(res.Navigation),
	}
}

type recoveryView struct {
	Stage    string `json:"stage"`
	Email    string `json:"email,omitempty"`
	Cooldown int    `json:"cooldown"`
	Message  string `json:"message,omitempty"`
}

func recoveryOf(res goOnboard.RecoveryResult) recoveryView {
	return recoveryView{
		Stage:    res.Stage.String(),
		Email:    res.Email,
		Cooldown: res.Cooldown,
		Message:  res.Message,
	}
}

type cameraView struct {
	Active bool   `json:"active"`
	Facing string `json:"facing,omitempty"`
	Target string `json:"target,omitempty"`
}

type kycView struct {
	Step        string          `json:"step"`
	IDType      string          `json:"idType,omitempty"`
	IDNumber    string          `json:"idNumber,omitempty"`
	HasDocument bool            `json:"hasDocument"`
	HasSelfie   bool            `json:"hasSelfie"`
	Camera      cameraView      `json:"camera"`
	Message     string          `json:"message,omitempty"`
	Navigation  *navigationView `json:"navigation,omitempty"`
}

func kycOf(s goOnboard.KYCSnapshot) kycView {
	v := kycView{
		Step:        s.Step.String(),
		IDType:      string(s.IDType),
		IDNumber:    maskIDNumber(s.IDNumber),
		HasDocument: s.HasDocument,
		HasSelfie:   s.HasSelfie,
		Message:     s.Message,
	}
	if s.Camera.Active {
		v.Camera = cameraView{Active: true, Facing: s.Camera.Facing.String(), Target: s.Camera.Target.String()}
	}
	return v
}

// maskIDNumber keeps the last four characters.
func maskIDNumber(n string) string {
	r := []rune(n)
	if len(r) <= 4 {
		return n
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}

type sessionView struct {
	LoggedIn          bool   `json:"loggedIn"`
	UserID            string `json:"userId,omitempty"`
	DisplayName       string `json:"displayName,omitempty"`
	Email             string `json:"email,omitempty"`
	VerificationLevel string `json:"verificationLevel,omitempty"`
	NeedsKYC          bool   `json:"needsKyc,omitempty"`
}
