package session

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/templui/projectdesk/internal/model"
)

const (
	sessionKeyPrefix     = "session:"
	userSessionKeyPrefix = "user_sessions:"
)

// RedisStore keeps each session in a hash that expires with the session, plus
// a per-user set of ids used to revoke all sessions of a user.
type RedisStore struct {
	Redis *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Redis: client}
}

func (s *RedisStore) Create(ctx context.Context, sess *model.Session) error {
	key := sessionKeyPrefix + sess.ID

	data := map[string]interface{}{
		"userId":    sess.UserID,
		"ipAddress": sess.IP,
		"userAgent": sess.UserAgent,
		"created":   sess.CreatedAt.Unix(),
		"expires":   sess.ExpiresAt.Unix(),
	}

	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}

	pipe := s.Redis.TxPipeline()
	pipe.HSet(ctx, key, data)
	pipe.Expire(ctx, key, ttl)
	pipe.SAdd(ctx, userSessionKeyPrefix+sess.UserID, sess.ID)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Get(ctx context.Context, id string) (*model.Session, error) {
	vals, err := s.Redis.HGetAll(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, ErrSessionNotFound
	}

	createdUnix, _ := strconv.ParseInt(vals["created"], 10, 64)
	expUnix, _ := strconv.ParseInt(vals["expires"], 10, 64)

	sess := &model.Session{
		ID:        id,
		UserID:    vals["userId"],
		IP:        vals["ipAddress"],
		UserAgent: vals["userAgent"],
		CreatedAt: time.Unix(createdUnix, 0).UTC(),
		ExpiresAt: time.Unix(expUnix, 0).UTC(),
	}

	if sess.IsExpired(time.Now()) {
		_ = s.Delete(ctx, id)
		return nil, ErrSessionNotFound
	}

	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	key := sessionKeyPrefix + id
	userID, err := s.Redis.HGet(ctx, key, "userId").Result()
	if err != nil && err != redis.Nil {
		return err
	}

	pipe := s.Redis.TxPipeline()
	pipe.Del(ctx, key)
	if userID != "" {
		pipe.SRem(ctx, userSessionKeyPrefix+userID, id)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) DeleteByUser(ctx context.Context, userID, exceptID string) error {
	setKey := userSessionKeyPrefix + userID
	ids, err := s.Redis.SMembers(ctx, setKey).Result()
	if err != nil {
		return err
	}

	pipe := s.Redis.TxPipeline()
	for _, id := range ids {
		if id == exceptID {
			continue
		}
		pipe.Del(ctx, sessionKeyPrefix+id)
		pipe.SRem(ctx, setKey, id)
	}
	_, err = pipe.Exec(ctx)
	return err
}
