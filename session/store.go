package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrEthical07/goOnboard/storage"
)

// ErrStorageUnavailable is returned when the durable slot cannot be read or written.
var ErrStorageUnavailable = errors.New("session storage unavailable")

// ErrNotLoggedIn is returned by operations that need a signed-in Session.
var ErrNotLoggedIn = errors.New("not logged in")

// HydrateOutcome reports what Hydrate found in the durable slot.
type HydrateOutcome uint8

const (
	// HydrateEmpty means no entry existed.
	HydrateEmpty HydrateOutcome = iota
	// HydrateRestored means a valid Session was loaded.
	HydrateRestored
	// HydrateDiscarded means a corrupt entry was found and deleted.
	HydrateDiscarded
	// HydrateSkipped means the Store was already hydrated.
	HydrateSkipped
)

// Store holds at most one Session and mirrors it into a [storage.KV] slot.
// It is safe for concurrent use.
type Store struct {
	kv  storage.KV
	key string
	ttl time.Duration

	mu       sync.RWMutex
	current  *Session
	hydrated bool
}

// NewStore binds a Store to a single durable key. A zero ttl persists without expiry.
func NewStore(kv storage.KV, key string, ttl time.Duration) *Store {
	return &Store{
		kv:  kv,
		key: key,
		ttl: ttl,
	}
}

// Key returns the durable slot key.
func (s *Store) Key() string {
	return s.key
}

// Hydrate loads the persisted Session. It runs at most once per Store; later
// calls return HydrateSkipped. A corrupt entry is deleted and reported as
// HydrateDiscarded, never as an error.
func (s *Store) Hydrate(ctx context.Context) (HydrateOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hydrated {
		return HydrateSkipped, nil
	}

	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.hydrated = true
			s.current = nil
			return HydrateEmpty, nil
		}
		return HydrateEmpty, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		s.hydrated = true
		s.current = nil
		if delErr := s.kv.Delete(ctx, s.key); delErr != nil {
			return HydrateDiscarded, fmt.Errorf("%w: %v", ErrStorageUnavailable, delErr)
		}
		return HydrateDiscarded, nil
	}

	s.hydrated = true
	s.current = sess
	return HydrateRestored, nil
}

// Login replaces any current Session with sess, marks it logged in and persists it.
// On a storage failure the in-memory state is left unchanged.
func (s *Store) Login(ctx context.Context, sess Session) error {
	sess.IsLoggedIn = true
	if err := sess.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, &sess); err != nil {
		return err
	}
	s.hydrated = true
	s.current = &sess
	return nil
}

// Logout clears the Session in memory and in durable storage. Calling it on an
// already cleared Store is a no-op apart from the idempotent delete.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	s.hydrated = true
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// UpdateUser replaces the stored profile without changing the login status or token.
func (s *Store) UpdateUser(ctx context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Session{}
	if s.current != nil {
		next = *s.current
	}
	next.UserID = p.UserID
	next.DisplayName = p.DisplayName
	next.Email = p.Email
	next.VerificationLevel = p.VerificationLevel
	if err := next.Validate(); err != nil {
		return err
	}

	if err := s.persist(ctx, &next); err != nil {
		return err
	}
	s.current = &next
	return nil
}

// Current returns a copy of the Session, if any.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// LoggedIn returns the current Session when it is signed in.
func (s *Store) LoggedIn() (Session, error) {
	sess, ok := s.Current()
	if !ok || !sess.IsLoggedIn {
		return Session{}, ErrNotLoggedIn
	}
	return sess, nil
}

func (s *Store) persist(ctx context.Context, sess *Session) error {
	data, err := Encode(sess)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}
	if err := s.kv.Set(ctx, s.key, data, s.ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
