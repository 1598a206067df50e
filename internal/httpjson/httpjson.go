// Package httpjson is the shared request/decode path for the outbound JSON
// clients (backend and proxy).
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxBodyBytes caps how much of a response body is read.
const MaxBodyBytes = 1 << 20

// RequestIDHeader carries a per-call UUID for correlation with upstream logs.
const RequestIDHeader = "X-Request-ID"

var (
	// ErrTransport wraps connection, TLS, timeout and cancellation failures.
	ErrTransport = errors.New("transport failure")
	// ErrMalformed is returned when a body cannot be decoded.
	ErrMalformed = errors.New("malformed response")
	// ErrStatus is returned for a non-2xx reply without a decodable body.
	ErrStatus = errors.New("unexpected status")
)

// Observer receives one callback per completed call.
type Observer func(op string, elapsed time.Duration, err error)

// Caller executes requests with logging and decoding.
type Caller struct {
	HTTP     *http.Client
	Logger   *zap.Logger
	Observer Observer
}

// Do sends req and decodes the JSON body into out. A non-2xx reply whose body
// decodes into out is returned with a nil error and the status code so callers
// can surface business messages; a non-2xx reply without a decodable body is
// ErrStatus.
func (c Caller) Do(ctx context.Context, op string, req *http.Request, out any) (int, error) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	requestID := uuid.NewString()
	req = req.WithContext(ctx)
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	status, err := c.do(client, req, out)
	elapsed := time.Since(start)

	if c.Observer != nil {
		c.Observer(op, elapsed, err)
	}
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Int("status", status),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		logger.Warn("outbound call failed", append(fields, zap.Error(err))...)
	} else {
		logger.Debug("outbound call completed", fields...)
	}
	return status, err
}

func (c Caller) do(client *http.Client, req *http.Request, out any) (int, error) {
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if out == nil {
		if !ok {
			return resp.StatusCode, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
		}
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		if !ok {
			return resp.StatusCode, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
		}
		return resp.StatusCode, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return resp.StatusCode, nil
}

// NewJSONRequest builds a request with a JSON-encoded body.
func NewJSONRequest(method, url string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
