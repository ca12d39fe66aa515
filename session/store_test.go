package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(rdb, "asn"), mr
}

func testSession(now time.Time) *Session {
	return &Session{
		SessionID:        "sid-1",
		UserID:           "u1",
		Level:            1,
		PendingRequestID: "req-1",
		CreatedAt:        now.Unix(),
		ExpiresAt:        now.Add(30 * time.Minute).Unix(),
	}
}

func TestStoreSaveAndGet(t *testing.T) {
	store, _ := newTestStore(t)

	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	in := testSession(now)

	if err := store.Save(ctx, in, 30*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out, err := store.Get(ctx, "sid-1", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out == nil {
		t.Fatal("expected a session")
	}
	if *out != *in {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}
}

func TestStoreGetExpiredDeletesOnRead(t *testing.T) {
	store, _ := newTestStore(t)

	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	if err := store.Save(ctx, testSession(now), 30*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out, err := store.Get(ctx, "sid-1", now.Add(31*time.Minute))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out != nil {
		t.Fatal("expected the expired session to read as absent")
	}

	existed, err := store.Delete(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if existed {
		t.Fatal("expected the expired session to already be deleted")
	}
}

func TestStoreGetUnknownSession(t *testing.T) {
	store, _ := newTestStore(t)

	out, err := store.Get(context.Background(), "no-such-sid", time.Unix(1700000000, 0))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if out != nil {
		t.Fatal("expected absent")
	}
}

func TestStoreDeleteIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)

	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	if err := store.Save(ctx, testSession(now), 30*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	existed, err := store.Delete(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !existed {
		t.Fatal("expected the first delete to report a record")
	}

	existed, err = store.Delete(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if existed {
		t.Fatal("expected the second delete to be a no-op")
	}
}

func TestStoreFailsClosed(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	if err := store.Save(ctx, testSession(now), time.Minute); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if _, err := store.Get(ctx, "sid-1", now); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if _, err := store.Delete(ctx, "sid-1"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
