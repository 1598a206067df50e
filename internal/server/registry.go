package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	goOnboard "github.com/MrEthical07/goOnboard"
	"github.com/MrEthical07/goOnboard/camera"
	"github.com/MrEthical07/goOnboard/middleware"
	"go.uber.org/zap"
)

// visitorAccount pairs an Account with the frame source its KYC camera reads.
type visitorAccount struct {
	acct     *goOnboard.Account
	frames   *camera.ImageSource
	lastSeen time.Time
}

type registry struct {
	engine *goOnboard.Engine
	max    int
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*visitorAccount
}

func newRegistry(engine *goOnboard.Engine, max int, logger *zap.Logger) *registry {
	return &registry{
		engine:  engine,
		max:     max,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*visitorAccount),
	}
}

// get returns the account for vid, opening and hydrating it on first use.
func (r *registry) get(ctx context.Context, vid string) (*visitorAccount, error) {
	r.mu.Lock()
	if e, ok := r.entries[vid]; ok {
		e.lastSeen = r.now()
		r.mu.Unlock()
		return e, nil
	}
	r.mu.Unlock()

	frames := camera.NewImageSource()
	acct, err := r.engine.Open(ctx, vid, frames)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[vid]; ok {
		// lost the race; keep the first one
		acct.Close()
		e.lastSeen = r.now()
		return e, nil
	}
	if len(r.entries) >= r.max {
		r.evictLocked()
	}
	e := &visitorAccount{acct: acct, frames: frames, lastSeen: r.now()}
	r.entries[vid] = e
	return e, nil
}

func (r *registry) evictLocked() {
	var (
		oldestID string
		oldest   *visitorAccount
	)
	for id, e := range r.entries {
		if oldest == nil || e.lastSeen.Before(oldest.lastSeen) {
			oldestID, oldest = id, e
		}
	}
	if oldest == nil {
		return
	}
	oldest.acct.Close()
	delete(r.entries, oldestID)
	r.logger.Debug("account evicted", zap.String("visitor", oldestID))
}

func (r *registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *registry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		e.acct.Close()
		delete(r.entries, id)
	}
}

type accountContextKey struct{}

func accountFrom(ctx context.Context) *visitorAccount {
	e, _ := ctx.Value(accountContextKey{}).(*visitorAccount)
	return e
}

// withAccount resolves the visitor's account. It must run after middleware.Visitor.
func (s *Server) withAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vid, ok := middleware.VisitorFromContext(r.Context())
		if !ok {
			writeError(w, goOnboard.ErrScopeRequired)
			return
		}
		e, err := s.accounts.get(r.Context(), vid)
		if err != nil {
			s.logger.Warn("account open failed", zap.Error(err))
			writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), accountContextKey{}, e)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if e := accountFrom(r.Context()); e == nil || !e.acct.LoggedIn() {
			writeError(w, goOnboard.ErrNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
