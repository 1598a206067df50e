package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goOnboard/internal/flows"
)

func newUpstreamServer(t *testing.T, h http.HandlerFunc) (string, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv.URL, &calls
}

func TestNormalizeEIN(t *testing.T) {
	valid := map[string]string{
		"12-3456789":   "123456789",
		"123456789":    "123456789",
		" 98-7654321 ": "987654321",
	}
	for in, want := range valid {
		got, err := NormalizeEIN(in)
		if err != nil || got != want {
			t.Fatalf("NormalizeEIN(%q) = %q, %v", in, got, err)
		}
	}

	for _, in := range []string{"", "12345678", "1234567890", "12-34567a9", "123-456789", "12 3456789"} {
		_, err := NormalizeEIN(in)
		var ferr *flows.FieldError
		if !errors.As(err, &ferr) || ferr.Field != "ein" {
			t.Fatalf("NormalizeEIN(%q): expected ein field error, got %v", in, err)
		}
	}
}

func TestEINVerifyInvalidMakesNoCall(t *testing.T) {
	base, calls := newUpstreamServer(t, func(w http.ResponseWriter, r *http.Request) {})
	c, err := NewEINClient(Config{BaseURL: base, APIKey: "k"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := c.Verify(context.Background(), "12-34"); err == nil {
		t.Fatal("expected field error")
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no upstream call, got %d", calls.Load())
	}
}

func TestEINVerifyFound(t *testing.T) {
	base, _ := newUpstreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/ein/123456789" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "secret-key" {
			t.Error("missing api key header")
		}
		_, _ = io.WriteString(w, `{"status":true,"data":{"legal_name":"Acme LLC","state":"DE","status":"active"}}`)
	})
	c, err := NewEINClient(Config{BaseURL: base, APIKey: "secret-key"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	rec, err := c.Verify(context.Background(), "12-3456789")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if rec.EIN != "12-3456789" || rec.LegalName != "Acme LLC" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestEINVerifyNotFoundPassesThrough(t *testing.T) {
	base, _ := newUpstreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"status":false,"message":"EIN not found"}`)
	})
	c, _ := NewEINClient(Config{BaseURL: base, APIKey: "k"})

	_, err := c.Verify(context.Background(), "123456789")
	var serr *flows.ServerError
	if !errors.As(err, &serr) || serr.Message != "EIN not found" {
		t.Fatalf("expected EIN not found server error, got %v", err)
	}
}

func TestEINVerifyTransportFailure(t *testing.T) {
	base, _ := newUpstreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	c, _ := NewEINClient(Config{BaseURL: base, APIKey: "k", Timeout: 20 * time.Millisecond})

	if _, err := c.Verify(context.Background(), "123456789"); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}

func TestCreateVendor(t *testing.T) {
	base, _ := newUpstreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/vendors" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer vendor-key" {
			t.Error("missing bearer key")
		}
		var v Vendor
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			t.Errorf("decode: %v", err)
		}
		if v.EIN != "123456789" || v.BusinessName != "Acme" {
			t.Errorf("unexpected vendor %+v", v)
		}
		_, _ = io.WriteString(w, `{"status":"success","data":{"vendor_id":"v-42","status":"pending"}}`)
	})
	c, err := NewVendorClient(Config{BaseURL: base + "/api/", APIKey: "vendor-key"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	got, err := c.CreateVendor(context.Background(), Vendor{
		Name:         "Ada",
		Email:        "ada@example.com",
		BusinessName: " Acme ",
		EIN:          "12-3456789",
	})
	if err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}
	if got.ID != "v-42" {
		t.Fatalf("unexpected vendor id %q", got.ID)
	}
}

func TestCreateVendorValidation(t *testing.T) {
	base, calls := newUpstreamServer(t, func(w http.ResponseWriter, r *http.Request) {})
	c, _ := NewVendorClient(Config{BaseURL: base, APIKey: "k"})

	cases := map[string]Vendor{
		"name":         {Email: "a@b.co", BusinessName: "x"},
		"email":        {Name: "a", Email: "nope", BusinessName: "x"},
		"businessName": {Name: "a", Email: "a@b.co"},
		"ein":          {Name: "a", Email: "a@b.co", BusinessName: "x", EIN: "12"},
	}
	for field, v := range cases {
		_, err := c.CreateVendor(context.Background(), v)
		var ferr *flows.FieldError
		if !errors.As(err, &ferr) || ferr.Field != field {
			t.Fatalf("expected %s field error, got %v", field, err)
		}
	}
	if calls.Load() != 0 {
		t.Fatalf("validation failures must not call upstream, got %d", calls.Load())
	}
}

func TestCreateVendorBusinessError(t *testing.T) {
	base, _ := newUpstreamServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"status":false,"message":"email already registered"}`)
	})
	c, _ := NewVendorClient(Config{BaseURL: base, APIKey: "k"})

	_, err := c.CreateVendor(context.Background(), Vendor{Name: "a", Email: "a@b.co", BusinessName: "x"})
	var serr *flows.ServerError
	if !errors.As(err, &serr) || serr.Message != "email already registered" {
		t.Fatalf("expected passthrough server error, got %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewVendorClient(Config{BaseURL: "https://vendors.example.com"}); err == nil {
		t.Fatal("expected missing API key to fail")
	}
	if _, err := NewEINClient(Config{BaseURL: "vendors.example.com", APIKey: "k"}); err == nil {
		t.Fatal("expected relative URL to fail")
	}
}
