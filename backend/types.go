package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Truthy decodes the backend's loosely typed status flag. It accepts JSON
// booleans, numbers (non-zero is true) and the strings "true", "success", "ok", "1".
type Truthy bool

func (t *Truthy) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*t = false
		return nil
	case bytes.Equal(data, []byte("true")):
		*t = true
		return nil
	case bytes.Equal(data, []byte("false")):
		*t = false
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "success", "ok", "1":
			*t = true
		default:
			*t = false
		}
		return nil
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return err
		}
		*t = n != 0
		return nil
	}
}

// LoginRequest is the body of POST /auth/login. OTP is sent only when set.
type LoginRequest struct {
	Identifier string `json:"email"`
	Password   string `json:"password"`
	OTP        string `json:"otp,omitempty"`
}

// LoginData is the session payload returned on success or on a 2FA challenge.
// KYCStatus is nil when the backend omitted the field.
type LoginData struct {
	LoginCode   string  `json:"login_code"`
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	EmailMasked string  `json:"email_masked"`
	KYCStatus   *string `json:"kyc_status"`
}

// LoginResponse is the decoded login reply.
type LoginResponse struct {
	Status      Truthy     `json:"status"`
	Requires2FA Truthy     `json:"requires_2fa"`
	Message     string     `json:"message"`
	Data        *LoginData `json:"data"`
}

// Token returns the session token, or "" when none was issued.
func (r *LoginResponse) Token() string {
	if r == nil || r.Data == nil {
		return ""
	}
	return r.Data.LoginCode
}

// StatusResponse is the generic {status, message} reply.
type StatusResponse struct {
	Status  Truthy `json:"status"`
	Message string `json:"message"`
}

// KYCSubmission is the multipart payload of POST /kyc/submit.
type KYCSubmission struct {
	UserID     string
	LoginCode  string
	IDType     string
	IDNumber   string
	IDDocument []byte
	Selfie     []byte
}

// KYCStatusResponse maps document type to the backend's verification status string.
type KYCStatusResponse struct {
	Status  Truthy            `json:"status"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data"`
}
