package goOnboard

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goOnboard/backend"
	"github.com/MrEthical07/goOnboard/camera"
	"github.com/MrEthical07/goOnboard/internal/flows"
	"github.com/MrEthical07/goOnboard/session"
	"github.com/MrEthical07/goOnboard/storage"
	"go.uber.org/zap"
)

const (
	auditEventSignInSuccess     = "sign_in_success"
	auditEventSignInFailure     = "sign_in_failure"
	auditEventSignInChallenge   = "sign_in_2fa_required"
	auditEventRecoveryRequested = "recovery_code_requested"
	auditEventRecoveryVerified  = "recovery_code_verified"
	auditEventRecoveryCompleted = "recovery_password_updated"
	auditEventRecoveryFailure   = "recovery_failure"
	auditEventKYCCameraFailed   = "kyc_camera_failed"
	auditEventKYCSubmitted      = "kyc_submitted"
	auditEventKYCFailure        = "kyc_failure"
	auditEventSessionDiscarded  = "session_discarded"
	auditEventLogout            = "logout"
)

// Engine is the DI root. Build it once with [Builder] and open one [Account]
// per browser or device.
type Engine struct {
	config  Config
	kv      storage.KV
	backend *backend.Client
	flows   flows.Service
	audit   *auditDispatcher
	metrics *Metrics
	logger  *zap.Logger
	closed  atomic.Bool
}

// Open hydrates the persisted session for scope and returns an Account with
// fresh wizards. src backs the KYC camera; nil makes every camera open fail
// with "not found".
func (e *Engine) Open(ctx context.Context, scope string, src camera.Source) (*Account, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return nil, ErrScopeRequired
	}
	if len(scope) > e.config.Session.MaxScopeLen || strings.ContainsAny(scope, " \t\r\n") {
		return nil, ErrScopeInvalid
	}

	store := session.NewStore(e.kv, e.sessionKey(scope), e.config.Session.TTL)
	outcome, err := store.Hydrate(ctx)
	if err != nil {
		e.logger.Warn("session hydrate failed", zap.String("scope", scope), zap.Error(err))
		return nil, err
	}
	switch outcome {
	case session.HydrateRestored:
		e.metrics.Inc(MetricSessionHydrated)
	case session.HydrateDiscarded:
		e.metrics.Inc(MetricSessionDiscarded)
		e.emitAudit(ctx, scope, auditEventSessionDiscarded, "", errors.New("corrupt session entry"))
	}

	svc := e.flows.WithHooks(flows.Hooks{
		Inc: func(id int) { e.metrics.Inc(MetricID(id)) },
		Emit: func(ctx context.Context, event, userID string, err error) {
			e.emitAudit(ctx, scope, event, userID, err)
		},
	})
	return newAccount(e, scope, store, svc, src, outcome), nil
}

// Close stops the audit dispatcher. Accounts opened earlier keep working but
// no new ones can be opened.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closed.Store(true)
	if e.audit != nil {
		e.audit.Close()
	}
}

// Ping checks the session storage when it supports health checks.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}
	if p, ok := e.kv.(interface {
		Ping(context.Context) (time.Duration, error)
	}); ok {
		return p.Ping(ctx)
	}
	return 0, nil
}

func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the validated configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

func (e *Engine) sessionKey(scope string) string {
	return e.config.Session.KeyPrefix + ":" + scope
}

func (e *Engine) emitAudit(ctx context.Context, scope, event, userID string, err error) {
	e.audit.Record(ctx, scope, event, userID, err)
}
