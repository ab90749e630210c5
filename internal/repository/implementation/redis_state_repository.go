package implementation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-studybot-be/internal/model"
	"ai-studybot-be/internal/pkg/logger"
	"ai-studybot-be/internal/repository/contract"
)

// stateTTL bounds how long an idle conversation survives. Matches the
// ephemeral semantics of the file store: stale state simply expires.
const stateTTL = 24 * time.Hour

// RedisStateRepository is an optional backend for deployments that already
// run Redis. Same contract as the file store, addressed by user id.
type RedisStateRepository struct {
	client *redis.Client
	logger logger.ILogger
}

func NewRedisStateRepository(redisURL string, log logger.ILogger) (contract.IStateRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisStateRepository{client: redis.NewClient(opts), logger: log}, nil
}

func (r *RedisStateRepository) stateKey(userID int64) string {
	return fmt.Sprintf("studybot:state:%d", userID)
}

func (r *RedisStateRepository) Load(ctx context.Context, userID int64) *model.UserState {
	data, err := r.client.Get(ctx, r.stateKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("state", "Failed to read state from redis, starting fresh", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
		return &model.UserState{}
	}

	var state model.UserState
	if err := json.Unmarshal(data, &state); err != nil {
		r.logger.Warn("state", "State record was corrupt, resetting state", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return &model.UserState{}
	}
	return &state
}

func (r *RedisStateRepository) Save(ctx context.Context, userID int64, state *model.UserState) {
	data, err := json.Marshal(state)
	if err != nil {
		r.logger.Error("state", "Failed to encode state", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}
	if err := r.client.Set(ctx, r.stateKey(userID), data, stateTTL).Err(); err != nil {
		r.logger.Error("state", "Failed to persist state", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}
