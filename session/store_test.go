package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goOnboard/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testKey = "onboard:session:test"

func newRedisStoreTest(t *testing.T) (*Store, *redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(storage.NewRedisKV(rdb), testKey, 0)
	return store, rdb, func() {
		rdb.Close()
		mr.Close()
	}
}

func testSession() Session {
	return Session{
		UserID:            "u-1",
		SessionToken:      "abc",
		DisplayName:       "Ada",
		Email:             "user@example.com",
		VerificationLevel: LevelPending,
	}
}

func TestLoginPersistsAndHydrates(t *testing.T) {
	store, rdb, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Login(ctx, testSession()); err != nil {
		t.Fatalf("login: %v", err)
	}
	cur, ok := store.Current()
	if !ok || !cur.IsLoggedIn {
		t.Fatalf("expected logged-in session, got %+v ok=%v", cur, ok)
	}

	fresh := NewStore(storage.NewRedisKV(rdb), testKey, 0)
	outcome, err := fresh.Hydrate(ctx)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if outcome != HydrateRestored {
		t.Fatalf("expected HydrateRestored, got %v", outcome)
	}
	got, ok := fresh.Current()
	if !ok || got != cur {
		t.Fatalf("hydrated session mismatch: got %+v want %+v", got, cur)
	}

	outcome, err = fresh.Hydrate(ctx)
	if err != nil || outcome != HydrateSkipped {
		t.Fatalf("expected second hydrate to be skipped, got %v err=%v", outcome, err)
	}
}

func TestHydrateDiscardsCorruptEntry(t *testing.T) {
	store, rdb, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := rdb.Set(ctx, testKey, "{not-a-session", 0).Err(); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	outcome, err := store.Hydrate(ctx)
	if err != nil {
		t.Fatalf("hydrate must not surface decode failures, got %v", err)
	}
	if outcome != HydrateDiscarded {
		t.Fatalf("expected HydrateDiscarded, got %v", outcome)
	}
	if _, ok := store.Current(); ok {
		t.Fatal("expected no session after corrupt hydrate")
	}
	if rdb.Exists(ctx, testKey).Val() != 0 {
		t.Fatal("expected corrupt entry to be deleted")
	}
}

func TestHydrateEmpty(t *testing.T) {
	store := NewStore(storage.NewMemoryKV(), testKey, 0)
	outcome, err := store.Hydrate(context.Background())
	if err != nil || outcome != HydrateEmpty {
		t.Fatalf("expected HydrateEmpty, got %v err=%v", outcome, err)
	}
	if _, err := store.LoggedIn(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestLogoutIdempotent(t *testing.T) {
	store, rdb, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := store.Login(ctx, testSession()); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := store.Logout(ctx); err != nil {
		t.Fatalf("first logout: %v", err)
	}
	afterOnce, okOnce := store.Current()
	existsOnce := rdb.Exists(ctx, testKey).Val()

	if err := store.Logout(ctx); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	afterTwice, okTwice := store.Current()
	existsTwice := rdb.Exists(ctx, testKey).Val()

	if okOnce || okTwice || afterOnce != afterTwice || existsOnce != 0 || existsTwice != 0 {
		t.Fatalf("logout not idempotent: once=(%+v,%v,%d) twice=(%+v,%v,%d)",
			afterOnce, okOnce, existsOnce, afterTwice, okTwice, existsTwice)
	}
}

func TestLoginRejectsVerifiedWithoutToken(t *testing.T) {
	store := NewStore(storage.NewMemoryKV(), testKey, 0)
	sess := testSession()
	sess.SessionToken = ""
	sess.VerificationLevel = LevelVerified

	if err := store.Login(context.Background(), sess); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}
	if _, ok := store.Current(); ok {
		t.Fatal("invalid login must not create a session")
	}
}

func TestUpdateUserKeepsLoginStatus(t *testing.T) {
	store := NewStore(storage.NewMemoryKV(), testKey, time.Hour)
	ctx := context.Background()

	if err := store.Login(ctx, testSession()); err != nil {
		t.Fatalf("login: %v", err)
	}
	err := store.UpdateUser(ctx, Profile{
		UserID:            "u-1",
		DisplayName:       "Ada L.",
		Email:             "ada@example.com",
		VerificationLevel: LevelVerified,
	})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}

	cur, ok := store.Current()
	if !ok || !cur.IsLoggedIn || cur.SessionToken != "abc" {
		t.Fatalf("update must keep login status and token, got %+v", cur)
	}
	if cur.DisplayName != "Ada L." || cur.VerificationLevel != LevelVerified {
		t.Fatalf("profile not replaced: %+v", cur)
	}
}

func TestUpdateUserWithoutSessionStaysLoggedOut(t *testing.T) {
	store := NewStore(storage.NewMemoryKV(), testKey, 0)
	if err := store.UpdateUser(context.Background(), Profile{UserID: "u-2"}); err != nil {
		t.Fatalf("update user: %v", err)
	}
	cur, ok := store.Current()
	if !ok || cur.IsLoggedIn {
		t.Fatalf("expected stored logged-out profile, got %+v ok=%v", cur, ok)
	}
}

type failingKV struct{ storage.KV }

func (failingKV) Set(context.Context, string, []byte, time.Duration) error {
	return storage.ErrUnavailable
}

func TestLoginStorageFailureLeavesStateUnchanged(t *testing.T) {
	store := NewStore(failingKV{storage.NewMemoryKV()}, testKey, 0)
	err := store.Login(context.Background(), testSession())
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if _, ok := store.Current(); ok {
		t.Fatal("failed login must not set a session")
	}
}
