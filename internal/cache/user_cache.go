package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"marketChat/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	userKeyPrefix  = "market_chat:user:"
	DefaultUserTTL = 10 * time.Minute
)

type UserSource interface {
	GetUserById(ctx context.Context, userID string) (*models.User, error)
}

// UserCache is a cache-aside decorator over the identity lookup. Redis
// failures degrade to direct lookups; they never fail the request.
type UserCache struct {
	source UserSource
	redis  *redis.Client
	ttl    time.Duration
	log    *zap.SugaredLogger
}

func NewUserCache(source UserSource, redis *redis.Client, ttl time.Duration, log *zap.SugaredLogger) *UserCache {
	if ttl <= 0 {
		ttl = DefaultUserTTL
	}
	return &UserCache{
		source: source,
		redis:  redis,
		ttl:    ttl,
		log:    log,
	}
}

func userKey(userID string) string {
	return userKeyPrefix + userID
}

func (uc *UserCache) GetUserById(ctx context.Context, userID string) (*models.User, error) {
	raw, err := uc.redis.Get(ctx, userKey(userID)).Bytes()
	switch {
	case err == nil:
		var user models.User
		if jsonErr := json.Unmarshal(raw, &user); jsonErr == nil {
			return &user, nil
		}
		uc.log.Warnw("Dropping undecodable cached user", "user_id", userID)
	case !errors.Is(err, redis.Nil):
		uc.log.Warnw("User cache read failed", "user_id", userID, "error", err)
	}

	user, err := uc.source.GetUserById(ctx, userID)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(user)
	if err != nil {
		return user, nil
	}
	if err := uc.redis.Set(ctx, userKey(userID), encoded, uc.ttl).Err(); err != nil {
		uc.log.Warnw("User cache write failed", "user_id", userID, "error", err)
	}
	return user, nil
}
