package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/goOnboard/jwt"
)

func newTestManager(t *testing.T) *jwt.Manager {
	t.Helper()
	m, err := jwt.NewManager(jwt.Config{
		TTL:           time.Hour,
		SigningMethod: jwt.MethodHS256,
		Secret:        []byte("middleware-test-secret"),
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func visitorEcho(seen *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vid, _ := VisitorFromContext(r.Context())
		*seen = vid
	})
}

func TestVisitorIssuesCookie(t *testing.T) {
	var seen string
	h := Visitor(newTestManager(t), CookieConfig{Secure: true}, nil)(visitorEcho(&seen))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("expected visitor id in context")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != DefaultCookieName || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie attributes %+v", c)
	}
}

func TestVisitorReusesValidCookie(t *testing.T) {
	m := newTestManager(t)
	token, err := m.CreateVisitor("visitor-7")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var seen string
	h := Visitor(m, CookieConfig{}, nil)(visitorEcho(&seen))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "visitor-7" {
		t.Fatalf("expected visitor-7, got %q", seen)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("valid cookie must not be reissued")
	}
}

func TestVisitorReplacesForgedCookie(t *testing.T) {
	var seen string
	h := Visitor(newTestManager(t), CookieConfig{}, nil)(visitorEcho(&seen))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "forged.token.value"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen == "" {
		t.Fatal("expected a fresh visitor id")
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Fatal("forged cookie must be replaced")
	}
}

func TestVisitorWithoutManager(t *testing.T) {
	var seen string
	h := Visitor(nil, CookieConfig{}, nil)(visitorEcho(&seen))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError || seen != "" {
		t.Fatalf("expected 500 without reaching handler, got %d", rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	if got := clientIP("10.0.0.1:5123"); got != "10.0.0.1" {
		t.Fatalf("unexpected ip %q", got)
	}
	if got := clientIP("10.0.0.2"); got != "10.0.0.2" {
		t.Fatalf("unexpected ip %q", got)
	}
}
