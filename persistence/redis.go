package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/projecthive/hive/types"
)

const runKeyPrefix = "hive:run:"

// DefaultRunTTL is how long a stored snapshot lives when the config leaves
// it unset.
const DefaultRunTTL = 24 * time.Hour

// RedisRunStore keeps run snapshots as JSON values under hive:run:<id>
// with a TTL.
type RedisRunStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisRunStore wraps an existing client. A non-positive TTL selects
// DefaultRunTTL.
func NewRedisRunStore(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisRunStore {
	if ttl <= 0 {
		ttl = DefaultRunTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRunStore{
		client: client,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "redis_run_store")),
	}
}

// SaveRun stores the snapshot, resetting its TTL.
func (s *RedisRunStore) SaveRun(ctx context.Context, state types.RunState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return types.NewError(types.ErrStorage, "marshal run snapshot").WithCause(err)
	}
	if err := s.client.Set(ctx, runKeyPrefix+state.RunID, data, s.ttl).Err(); err != nil {
		return types.NewError(types.ErrStorage, "save run snapshot").WithCause(err).WithRetryable(true)
	}
	return nil
}

// GetRun retrieves one snapshot.
func (s *RedisRunStore) GetRun(ctx context.Context, runID string) (types.RunState, error) {
	data, err := s.client.Get(ctx, runKeyPrefix+runID).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.RunState{}, types.NewError(types.ErrRunNotFound, "run "+runID+" not found")
	}
	if err != nil {
		return types.RunState{}, types.NewError(types.ErrStorage, "load run snapshot").WithCause(err).WithRetryable(true)
	}
	var state types.RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return types.RunState{}, types.NewError(types.ErrStorage, "decode run snapshot").WithCause(err)
	}
	return state, nil
}

// ListRuns scans hive:run:* and returns the decoded snapshots, newest
// first. Snapshots that expire mid-scan are skipped.
func (s *RedisRunStore) ListRuns(ctx context.Context) ([]types.RunState, error) {
	var out []types.RunState
	iter := s.client.Scan(ctx, 0, runKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, types.NewError(types.ErrStorage, "load run snapshot").WithCause(err).WithRetryable(true)
		}
		var state types.RunState
		if err := json.Unmarshal(data, &state); err != nil {
			s.logger.Warn("skipping undecodable run snapshot", zap.String("key", iter.Val()), zap.Error(err))
			continue
		}
		out = append(out, state)
	}
	if err := iter.Err(); err != nil {
		return nil, types.NewError(types.ErrStorage, "scan run snapshots").WithCause(err).WithRetryable(true)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// DeleteRun removes one snapshot. Deleting a missing run is not an error.
func (s *RedisRunStore) DeleteRun(ctx context.Context, runID string) error {
	if err := s.client.Del(ctx, runKeyPrefix+runID).Err(); err != nil {
		return types.NewError(types.ErrStorage, "delete run snapshot").WithCause(err).WithRetryable(true)
	}
	return nil
}
