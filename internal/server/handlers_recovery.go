package server

import (
	"errors"
	"net/http"
	"strconv"

	goOnboard "github.com/MrEthical07/goOnboard"
)

type emailRequest struct {
	Email string `json:"email"`
}

type passwordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s *Server) recoveryReply(w http.ResponseWriter, res goOnboard.RecoveryResult, err error) {
	if err != nil {
		if errors.Is(err, goOnboard.ErrCooldownActive) {
			w.Header().Set("Retry-After", strconv.Itoa(res.Cooldown))
		}
		errorWithState(w, err, recoveryOf(res))
		return
	}
	writeJSON(w, http.StatusOK, recoveryOf(res))
}

func (s *Server) handleRecoveryState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, recoveryOf(accountFrom(r.Context()).acct.Recovery().Result()))
}

func (s *Server) handleRecoveryRequest(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	acct := accountFrom(r.Context()).acct
	rec := acct.Recovery()
	if rec.Stage() == goOnboard.RecoveryComplete {
		rec = acct.RestartRecovery()
	}
	res, err := rec.RequestCode(r.Context(), req.Email)
	s.recoveryReply(w, res, err)
}

func (s *Server) handleRecoveryResend(w http.ResponseWriter, r *http.Request) {
	res, err := accountFrom(r.Context()).acct.Recovery().ResendCode(r.Context())
	s.recoveryReply(w, res, err)
}

func (s *Server) handleRecoveryVerify(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := accountFrom(r.Context()).acct.Recovery().VerifyCode(r.Context(), req.Code)
	s.recoveryReply(w, res, err)
}

func (s *Server) handleRecoveryPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := accountFrom(r.Context()).acct.Recovery().SetNewPassword(r.Context(), req.Password, req.ConfirmPassword)
	s.recoveryReply(w, res, err)
}

func (s *Server) handleRecoveryBack(w http.ResponseWriter, r *http.Request) {
	res, err := accountFrom(r.Context()).acct.Recovery().Back()
	s.recoveryReply(w, res, err)
}
