// Package server is the onboarding site's HTTP surface: a chi router that
// drives one Account per visitor cookie, plus the two proxy routes, a health
// probe and the Prometheus endpoint.
package server

import (
	"context"
	"net/http"
	"time"

	goOnboard "github.com/MrEthical07/goOnboard"
	"github.com/MrEthical07/goOnboard/jwt"
	"github.com/MrEthical07/goOnboard/metrics/export/prometheus"
	"github.com/MrEthical07/goOnboard/middleware"
	"github.com/MrEthical07/goOnboard/proxy"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	defaultMaxAccounts   = 10000
	defaultMaxFrameBytes = 8 << 20
	maxJSONBytes         = 64 << 10
)

// Config wires the server. Engine and Visitors are required; Vendors and EIN
// are optional and their routes answer 503 when unset.
type Config struct {
	Engine   *goOnboard.Engine
	Visitors *jwt.Manager
	Cookie   middleware.CookieConfig
	Vendors  *proxy.VendorClient
	EIN      *proxy.EINClient
	Logger   *zap.Logger

	// MaxAccounts caps the in-memory account registry; the least recently
	// used account is closed when the cap is hit.
	MaxAccounts   int
	MaxFrameBytes int64
}

type Server struct {
	engine   *goOnboard.Engine
	visitors *jwt.Manager
	cookie   middleware.CookieConfig
	vendors  *proxy.VendorClient
	ein      *proxy.EINClient
	logger   *zap.Logger
	accounts *registry

	maxFrameBytes int64
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAccounts <= 0 {
		cfg.MaxAccounts = defaultMaxAccounts
	}
	if cfg.MaxFrameBytes <= 0 {
		cfg.MaxFrameBytes = defaultMaxFrameBytes
	}

	return &Server{
		engine:        cfg.Engine,
		visitors:      cfg.Visitors,
		cookie:        cfg.Cookie,
		vendors:       cfg.Vendors,
		ein:           cfg.EIN,
		logger:        logger.Named("server"),
		accounts:      newRegistry(cfg.Engine, cfg.MaxAccounts, logger),
		maxFrameBytes: cfg.MaxFrameBytes,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", prometheus.New(s.engine, prometheus.Gauge{
		Name:  "onboard_accounts_open",
		Help:  "Visitor accounts held in memory.",
		Value: func() uint64 { return uint64(s.accounts.Len()) },
	}).Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.AuditContext)

		r.Post("/vendors", s.handleCreateVendor)
		r.Post("/ein/verify", s.handleVerifyEIN)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Visitor(s.visitors, s.cookie, s.logger))
			r.Use(s.withAccount)

			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", s.handleLogin)
				r.Post("/2fa", s.handleSecondFactor)
				r.Post("/logout", s.handleLogout)
				r.Get("/session", s.handleSession)
			})

			r.Route("/recovery", func(r chi.Router) {
				r.Get("/", s.handleRecoveryState)
				r.Post("/request", s.handleRecoveryRequest)
				r.Post("/resend", s.handleRecoveryResend)
				r.Post("/verify", s.handleRecoveryVerify)
				r.Post("/password", s.handleRecoveryPassword)
				r.Post("/back", s.handleRecoveryBack)
			})

			r.Route("/kyc", func(r chi.Router) {
				r.Use(requireSession)
				r.Get("/", s.handleKYCState)
				r.Post("/identity", s.handleKYCIdentity)
				r.Post("/next", s.handleKYCNext)
				r.Post("/back", s.handleKYCBack)
				r.Post("/capture", s.handleKYCCapture)
				r.Post("/cancel", s.handleKYCCancel)
				r.Post("/submit", s.handleKYCSubmit)
				r.Post("/restart", s.handleKYCRestart)
				r.Get("/status", s.handleKYCStatus)
			})
		})
	})

	return r
}

// Close releases every open account.
func (s *Server) Close() {
	s.accounts.closeAll()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	latency, err := s.engine.Ping(ctx)
	if err != nil {
		s.logger.Warn("session storage unhealthy", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"storageLatency": latency.String(),
	})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}
