package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/MrEthical07/goOnboard/jwt"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCookieName is used when CookieConfig.Name is empty.
const DefaultCookieName = "onboard_visitor"

type visitorContextKey struct{}

// CookieConfig controls the visitor cookie attributes.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// VisitorFromContext returns the visitor ID set by [Visitor].
func VisitorFromContext(ctx context.Context) (string, bool) {
	vid, ok := ctx.Value(visitorContextKey{}).(string)
	return vid, ok && vid != ""
}

// WithVisitor stores vid in ctx. Handlers normally get it from [Visitor].
func WithVisitor(ctx context.Context, vid string) context.Context {
	return context.WithValue(ctx, visitorContextKey{}, vid)
}

// Visitor reads the visitor cookie and verifies it with m. A missing, expired
// or forged cookie is replaced by a fresh visitor ID, so every request that
// reaches next carries one.
func Visitor(m *jwt.Manager, cfg CookieConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	if cfg.Name == "" {
		cfg.Name = DefaultCookieName
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				http.Error(w, "visitor cookie unavailable", http.StatusInternalServerError)
				return
			}

			if c, err := r.Cookie(cfg.Name); err == nil && c.Value != "" {
				claims, err := m.ParseVisitor(c.Value)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(WithVisitor(r.Context(), claims.VID)))
					return
				}
				logger.Debug("visitor cookie rejected", zap.Error(err))
			}

			vid := uuid.NewString()
			token, err := m.CreateVisitor(vid)
			if err != nil {
				logger.Error("visitor cookie signing failed", zap.Error(err))
				http.Error(w, "visitor cookie unavailable", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     cfg.Name,
				Value:    token,
				Path:     cfg.Path,
				Domain:   cfg.Domain,
				Expires:  time.Now().Add(m.TTL()),
				MaxAge:   int(m.TTL() / time.Second),
				Secure:   cfg.Secure,
				HttpOnly: true,
				SameSite: cfg.SameSite,
			})
			next.ServeHTTP(w, r.WithContext(WithVisitor(r.Context(), vid)))
		})
	}
}
