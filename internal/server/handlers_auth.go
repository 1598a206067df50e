package server

import (
	"errors"
	"net/http"

	goOnboard "github.com/MrEthical07/goOnboard"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type codeRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	signIn := accountFrom(r.Context()).acct.SignIn()
	// a finished or failed attempt starts over
	if st := signIn.State(); st == goOnboard.SignInSuccess || st == goOnboard.SignInFailed || st == goOnboard.SignInRequires2FA {
		if err := signIn.Reset(); err != nil {
			writeError(w, err)
			return
		}
	}

	res, err := signIn.SubmitCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signInOf(res))
}

func (s *Server) handleSecondFactor(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := accountFrom(r.Context()).acct.SignIn().SubmitSecondFactor(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signInOf(res))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := accountFrom(r.Context()).acct.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := accountFrom(r.Context()).acct.Session()
	if !ok || !sess.IsLoggedIn {
		writeJSON(w, http.StatusOK, sessionView{})
		return
	}
	writeJSON(w, http.StatusOK, sessionView{
		LoggedIn:          true,
		UserID:            sess.UserID,
		DisplayName:       sess.DisplayName,
		Email:             sess.Email,
		VerificationLevel: sess.VerificationLevel.String(),
		NeedsKYC:          sess.VerificationLevel.NeedsKYC(),
	})
}

// errorWithState writes err but keeps the wizard view for statuses the
// client renders inline.
func errorWithState(w http.ResponseWriter, err error, view any) {
	var ferr *goOnboard.FieldError
	if errors.As(err, &ferr) {
		writeError(w, err)
		return
	}
	status, body := errorStatus(err)
	writeJSON(w, status, struct {
		errorBody
		State any `json:"state"`
	}{body, view})
}
