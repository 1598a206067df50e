package server

import (
	"io"
	"net/http"

	goOnboard "github.com/MrEthical07/goOnboard"
)

type identityRequest struct {
	IDType   string `json:"idType"`
	IDNumber string `json:"idNumber"`
}

func (s *Server) kycState(w http.ResponseWriter, r *http.Request, err error) {
	view := kycOf(accountFrom(r.Context()).acct.KYC().Snapshot())
	if err != nil {
		errorWithState(w, err, view)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleKYCState(w http.ResponseWriter, r *http.Request) {
	s.kycState(w, r, nil)
}

func (s *Server) handleKYCIdentity(w http.ResponseWriter, r *http.Request) {
	var req identityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	err := accountFrom(r.Context()).acct.KYC().SetIdentity(req.IDType, req.IDNumber)
	s.kycState(w, r, err)
}

func (s *Server) handleKYCNext(w http.ResponseWriter, r *http.Request) {
	_, err := accountFrom(r.Context()).acct.KYC().Next()
	s.kycState(w, r, err)
}

func (s *Server) handleKYCBack(w http.ResponseWriter, r *http.Request) {
	_, err := accountFrom(r.Context()).acct.KYC().Back()
	s.kycState(w, r, err)
}

// handleKYCCapture takes one frame from the browser. The form carries either
// a "frame" image (JPEG or PNG) or an "error" naming the media failure the
// browser hit, which is replayed through the camera so the user sees the
// mapped message.
func (s *Server) handleKYCCapture(w http.ResponseWriter, r *http.Request) {
	e := accountFrom(r.Context())
	kyc := e.acct.KYC()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxFrameBytes)
	if err := r.ParseMultipartForm(s.maxFrameBytes); err != nil {
		writeError(w, errBadBody)
		return
	}
	defer r.MultipartForm.RemoveAll()

	if name := r.FormValue("error"); name != "" {
		if !capturing(kyc.Step()) {
			s.kycState(w, r, goOnboard.ErrInvalidTransition)
			return
		}
		e.frames.Fail(name)
		err := kyc.OpenCamera(r.Context())
		// a failure the camera never reached must not leak into the next capture
		e.frames.Clear()
		s.kycState(w, r, err)
		return
	}

	file, _, err := r.FormFile("frame")
	if err != nil {
		s.kycState(w, r, &goOnboard.FieldError{Field: "frame", Message: "Please capture a photo"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, errBadBody)
		return
	}
	if err := e.frames.PushEncoded(data); err != nil {
		s.kycState(w, r, &goOnboard.FieldError{Field: "frame", Message: "The photo could not be read"})
		return
	}

	if !kyc.Snapshot().Camera.Active {
		if err := kyc.OpenCamera(r.Context()); err != nil {
			s.kycState(w, r, err)
			return
		}
	}
	_, err = kyc.Capture(r.Context())
	s.kycState(w, r, err)
}

func capturing(step goOnboard.KYCStep) bool {
	return step == goOnboard.KYCDocumentCapture || step == goOnboard.KYCSelfieCapture
}

func (s *Server) handleKYCCancel(w http.ResponseWriter, r *http.Request) {
	accountFrom(r.Context()).acct.KYC().CancelCamera()
	s.kycState(w, r, nil)
}

func (s *Server) handleKYCSubmit(w http.ResponseWriter, r *http.Request) {
	kyc := accountFrom(r.Context()).acct.KYC()
	res, err := kyc.Submit(r.Context())
	view := kycOf(kyc.Snapshot())
	if err != nil {
		errorWithState(w, err, view)
		return
	}
	view.Message = res.Message
	view.Navigation = navigationOf(res.Navigation)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleKYCRestart(w http.ResponseWriter, r *http.Request) {
	accountFrom(r.Context()).acct.RestartKYC()
	s.kycState(w, r, nil)
}

func (s *Server) handleKYCStatus(w http.ResponseWriter, r *http.Request) {
	levels, err := accountFrom(r.Context()).acct.KYC().Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make(map[string]string, len(levels))
	for doc, level := range levels {
		out[doc] = level.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}
