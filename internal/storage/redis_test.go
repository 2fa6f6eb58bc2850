package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/LexFlowLab/lexflow/backend/internal/draft"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client)
	if err != nil {
		t.Fatalf("unexpected store error: %v", err)
	}
	return store, server
}

func TestNewRedisStoreRequiresClient(t *testing.T) {
	if _, err := NewRedisStore(nil); err == nil {
		t.Fatalf("expected an error for a missing client")
	}
}

func TestRedisStoreMissingCaseYieldsNil(t *testing.T) {
	store, _ := newTestRedisStore(t)

	state, err := store.Load(context.Background(), draft.CaseID("case-missing"))
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if state != nil {
		t.Fatalf("expected nil state for a missing case, got %+v", state)
	}
}

func TestRedisStorePersistAndLoad(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()
	caseID := draft.CaseID("case-1")
	state := sampleState()

	if err := store.Persist(ctx, caseID, state); err != nil {
		t.Fatalf("unexpected persist error: %v", err)
	}

	loaded, err := store.Load(ctx, caseID)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if loaded == nil {
		t.Fatalf("expected a persisted state")
	}
	if loaded.Content != state.Content {
		t.Fatalf("expected content %q, got %q", state.Content, loaded.Content)
	}
	if len(loaded.History) != 1 || len(loaded.Comments) != 1 || len(loaded.ChangeLog) != 1 {
		t.Fatalf("expected full state round trip, got %+v", loaded)
	}
}

func TestRedisStoreCorruptPayloadSurfacesError(t *testing.T) {
	store, server := newTestRedisStore(t)

	if err := server.Set(draftKeyPrefix+"case-1", "not-json"); err != nil {
		t.Fatalf("unexpected seed error: %v", err)
	}
	if _, err := store.Load(context.Background(), draft.CaseID("case-1")); err == nil {
		t.Fatalf("expected a decode error for a corrupt payload")
	}
}
