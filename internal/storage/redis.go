package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/LexFlowLab/lexflow/backend/internal/draft"
)

const draftKeyPrefix = "draft-state:"

var errMissingRedisClient = errors.New("storage: redis client is required")

// RedisStore implements draft.Store on a Redis string value per case.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore validates the client and returns a RedisStore.
func NewRedisStore(client *redis.Client) (*RedisStore, error) {
	if client == nil {
		return nil, errMissingRedisClient
	}
	return &RedisStore{client: client}, nil
}

func draftKey(caseID draft.CaseID) string {
	return draftKeyPrefix + caseID.String()
}

// Load reads the case's slot. A missing key yields (nil, nil).
func (s *RedisStore) Load(ctx context.Context, caseID draft.CaseID) (*draft.PersistedDraftState, error) {
	payload, err := s.client.Get(ctx, draftKey(caseID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load draft state: %w", err)
	}

	var state draft.PersistedDraftState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("storage: decode draft state: %w", err)
	}
	return &state, nil
}

// Persist replaces the case's slot with the full state.
func (s *RedisStore) Persist(ctx context.Context, caseID draft.CaseID, state draft.PersistedDraftState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("storage: encode draft state: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(caseID), payload, 0).Err(); err != nil {
		return fmt.Errorf("storage: persist draft state: %w", err)
	}
	return nil
}
