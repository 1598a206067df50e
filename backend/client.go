package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goOnboard/internal/httpjson"
	"go.uber.org/zap"
)

var (
	// ErrTransport wraps network failures, timeouts and cancellations.
	ErrTransport = httpjson.ErrTransport
	// ErrMalformedResponse is returned for undecodable 2xx bodies.
	ErrMalformedResponse = httpjson.ErrMalformed
	// ErrUnexpectedStatus is returned for non-2xx replies without a JSON body.
	ErrUnexpectedStatus = httpjson.ErrStatus
)

const (
	pathLogin           = "/auth/login"
	pathForgotPassword  = "/auth/forgot-password"
	pathVerifyForgotOTP = "/auth/verify-forgot-password-otp"
	pathUpdatePassword  = "/auth/update-password"
	pathKYCSubmit       = "/kyc/submit"
	pathKYCStatus       = "/kyc/status"
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the auth/verification backend. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	userAgent string
	caller    httpjson.Caller
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("backend: base URL required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend: invalid base URL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		base:      base,
		userAgent: cfg.UserAgent,
		caller: httpjson.Caller{
			HTTP:   httpClient,
			Logger: logger.Named("backend"),
		},
	}, nil
}

// SetObserver installs a per-call latency/outcome callback.
func (c *Client) SetObserver(obs httpjson.Observer) {
	c.caller.Observer = obs
}

// Login submits credentials, optionally with a second-factor code.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.postJSON(ctx, "login", pathLogin, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword asks the backend to email a reset code.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*StatusResponse, error) {
	var out StatusResponse
	body := map[string]string{"email": email}
	if err := c.postJSON(ctx, "forgot_password", pathForgotPassword, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyForgotPasswordOTP checks an emailed reset code.
func (c *Client) VerifyForgotPasswordOTP(ctx context.Context, email, code string) (*StatusResponse, error) {
	var out StatusResponse
	body := map[string]string{"email": email, "otp": code}
	if err := c.postJSON(ctx, "verify_forgot_password_otp", pathVerifyForgotOTP, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePassword sets the new password after a verified reset code.
func (c *Client) UpdatePassword(ctx context.Context, email, newPassword string) (*StatusResponse, error) {
	var out StatusResponse
	body := map[string]string{"email": email, "password": newPassword}
	if err := c.postJSON(ctx, "update_password", pathUpdatePassword, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitKYC sends identity metadata and both images in one multipart request.
func (c *Client) SubmitKYC(ctx context.Context, sub KYCSubmission) (*StatusResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"user_id", sub.UserID},
		{"login_code", sub.LoginCode},
		{"id_type", sub.IDType},
		{"id_number", sub.IDNumber},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, err
		}
	}
	if err := writeJPEGPart(w, "id_document", "id_document.jpg", sub.IDDocument); err != nil {
		return nil, err
	}
	if err := writeJPEGPart(w, "selfie", "selfie.jpg", sub.Selfie); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint(pathKYCSubmit, nil), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	c.decorate(req)

	var out StatusResponse
	if _, err := c.caller.Do(ctx, "kyc_submit", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// KYCStatus fetches the verification status per document type.
func (c *Client) KYCStatus(ctx context.Context, userID, loginCode string) (*KYCStatusResponse, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("login_code", loginCode)

	req, err := http.NewRequest(http.MethodGet, c.endpoint(pathKYCStatus, q), nil)
	if err != nil {
		return nil, err
	}
	c.decorate(req)

	var out KYCStatusResponse
	if _, err := c.caller.Do(ctx, "kyc_status", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, body, out any) error {
	req, err := httpjson.NewJSONRequest(http.MethodPost, c.endpoint(path, nil), body)
	if err != nil {
		return err
	}
	c.decorate(req)
	_, err = c.caller.Do(ctx, op, req, out)
	return err
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) decorate(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

func writeJPEGPart(w *multipart.Writer, field, filename string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}
