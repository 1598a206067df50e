package goOnboard

import (
	"errors"
	"net/http"
	"time"

	"github.com/MrEthical07/goOnboard/backend"
	"github.com/MrEthical07/goOnboard/internal/flows"
	"github.com/MrEthical07/goOnboard/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an Engine. Configure it during initialization, call Build
// once, and discard it.
type Builder struct {
	config Config
	kv     storage.KV
	redis  redis.UniversalClient

	httpClient *http.Client
	auditSink  AuditSink
	logger     *zap.Logger
	now        func() time.Time

	built bool
}

func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStorage sets the durable session storage. It takes precedence over WithRedis.
func (b *Builder) WithStorage(kv storage.KV) *Builder {
	b.kv = kv
	return b
}

// WithRedis stores sessions in Redis.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient overrides the backend HTTP client. Config.Backend.Timeout is
// ignored when set.
func (b *Builder) WithHTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock replaces time.Now for cooldowns and audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. Without WithStorage
// or WithRedis, sessions live in process memory only.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	// -------- SESSION STORAGE --------
	kv := b.kv
	if kv == nil && b.redis != nil {
		kv = storage.NewRedisKV(b.redis)
	}
	if kv == nil {
		logger.Warn("no durable session storage configured, sessions are kept in memory")
		kv = storage.NewMemoryKV()
	}

	engine := &Engine{
		config:  cloneConfig(cfg),
		kv:      kv,
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink, now)

	// -------- BACKEND CLIENT --------
	client, err := backend.New(backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.Timeout,
		UserAgent:  cfg.Backend.UserAgent,
		HTTPClient: b.httpClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	client.SetObserver(func(op string, elapsed time.Duration, err error) {
		engine.metrics.Observe(MetricBackendLatency, elapsed)
		if err != nil {
			engine.metrics.Inc(MetricBackendFailure)
		}
	})
	engine.backend = client

	// -------- FLOWS --------
	errs := flows.Errors{
		RequestFailed:      ErrRequestFailed,
		SubmissionInFlight: ErrSubmissionInFlight,
		InvalidTransition:  ErrInvalidTransition,
		CooldownActive:     ErrCooldownActive,
		NotAuthenticated:   ErrNotAuthenticated,
	}
	engine.flows = flows.New(flows.Deps{
		SignIn: flows.SignInDeps{
			Login: client.Login,
			Metrics: flows.SignInMetrics{
				Attempt:     int(MetricSignInAttempt),
				Success:     int(MetricSignInSuccess),
				Failure:     int(MetricSignInFailure),
				Requires2FA: int(MetricSignInRequires2FA),
			},
			Events: flows.SignInEvents{
				Success:   auditEventSignInSuccess,
				Failure:   auditEventSignInFailure,
				Challenge: auditEventSignInChallenge,
			},
			Errors: errs,
		},
		Recovery: flows.RecoveryDeps{
			ForgotPassword:          client.ForgotPassword,
			VerifyForgotPasswordOTP: client.VerifyForgotPasswordOTP,
			UpdatePassword:          client.UpdatePassword,
			ResendCooldown:          cfg.Recovery.ResendCooldown,
			Now:                     now,
			Metrics: flows.RecoveryMetrics{
				CodeRequested:   int(MetricRecoveryCodeRequested),
				CodeResent:      int(MetricRecoveryCodeResent),
				CodeVerified:    int(MetricRecoveryCodeVerified),
				CodeRejected:    int(MetricRecoveryCodeRejected),
				PasswordUpdated: int(MetricRecoveryPasswordUpdated),
				Failure:         int(MetricRecoveryFailure),
			},
			Events: flows.RecoveryEvents{
				CodeRequested:   auditEventRecoveryRequested,
				CodeVerified:    auditEventRecoveryVerified,
				PasswordUpdated: auditEventRecoveryCompleted,
				Failure:         auditEventRecoveryFailure,
			},
			Errors: errs,
		},
		KYC: flows.KYCDeps{
			Submit:        client.SubmitKYC,
			Status:        client.KYCStatus,
			RedirectDelay: cfg.KYC.RedirectDelay,
			JPEGQuality:   cfg.KYC.JPEGQuality,
			Metrics: flows.KYCMetrics{
				CameraOpened: int(MetricKYCCameraOpened),
				CameraFailed: int(MetricKYCCameraFailed),
				Captured:     int(MetricKYCCaptured),
				Submitted:    int(MetricKYCSubmitted),
				Failure:      int(MetricKYCFailure),
			},
			Events: flows.KYCEvents{
				CameraFailed: auditEventKYCCameraFailed,
				Submitted:    auditEventKYCSubmitted,
				Failure:      auditEventKYCFailure,
			},
			Errors: errs,
		},
	})

	b.built = true

	return engine, nil
}
