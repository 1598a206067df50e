package server

import (
	"net/http"

	"github.com/MrEthical07/goOnboard/proxy"
)

type einRequest struct {
	EIN string `json:"ein"`
}

func notConfigured(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "not_configured", Message: "This service is not available"})
}

func (s *Server) handleCreateVendor(w http.ResponseWriter, r *http.Request) {
	if s.vendors == nil {
		notConfigured(w)
		return
	}
	var req proxy.Vendor
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	created, err := s.vendors.CreateVendor(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleVerifyEIN(w http.ResponseWriter, r *http.Request) {
	if s.ein == nil {
		notConfigured(w)
		return
	}
	var req einRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	rec, err := s.ein.Verify(r.Context(), req.EIN)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
