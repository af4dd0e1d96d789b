package session

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemoryStoreSweepsExpiredOnPut(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	for i := 0; i < 200; i++ {
		s := &Session{ID: fmt.Sprintf("anon-%d", i), ExpiresAt: now.Add(time.Hour)}
		if err := store.Put(ctx, s); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	if store.Len() != 200 {
		t.Fatalf("expected 200 sessions, got %d", store.Len())
	}

	now = now.Add(2 * time.Hour)
	if err := store.Put(ctx, &Session{ID: "fresh", UserID: 1, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected expired sessions to be swept, got %d", store.Len())
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Fatalf("expected fresh session, got %v", err)
	}
}

func TestMemoryStoreSweepIsThrottled(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.Put(ctx, &Session{ID: "short", ExpiresAt: now.Add(time.Second)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	now = now.Add(10 * time.Second)
	if err := store.Put(ctx, &Session{ID: "other", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected no sweep within the interval, got %d sessions", store.Len())
	}

	now = now.Add(sweepInterval)
	if err := store.Put(ctx, &Session{ID: "later", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected expired session swept, got %d sessions", store.Len())
	}
}
