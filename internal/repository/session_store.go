package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"skyline/internal/domain/models"
	"skyline/internal/domain/repository"
)

// RedisSessionStore keeps replay sessions keyed by (user_id, gid). Sessions
// expire after ttl so an abandoned stream never pins registry state. A per-user
// set indexes active sessions for the concurrency limit.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisSessionStore creates the registry with the given session TTL.
func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) repository.SessionStore {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func (s *RedisSessionStore) key(userID, gid string) string {
	return fmt.Sprintf("replay:session:%s:%s", userID, gid)
}

func (s *RedisSessionStore) userKey(userID string) string {
	return "replay:user:" + userID
}

func (s *RedisSessionStore) Put(ctx context.Context, sess *models.ReplaySession) error {
	sess.UpdatedAt = time.Now()
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(sess.UserID, sess.GID), raw, s.ttl).Err(); err != nil {
		return err
	}
	if err := s.rdb.SAdd(ctx, s.userKey(sess.UserID), sess.GID).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, s.userKey(sess.UserID), s.ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, userID, gid string) (*models.ReplaySession, error) {
	raw, err := s.rdb.Get(ctx, s.key(userID, gid)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess models.ReplaySession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *RedisSessionStore) SetState(ctx context.Context, userID, gid, state string) error {
	sess, err := s.Get(ctx, userID, gid)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("no session for user %s game %s", userID, gid)
	}
	sess.State = state
	return s.Put(ctx, sess)
}

func (s *RedisSessionStore) SetCursor(ctx context.Context, userID, gid string, cursor int) error {
	sess, err := s.Get(ctx, userID, gid)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("no session for user %s game %s", userID, gid)
	}
	sess.Cursor = cursor
	return s.Put(ctx, sess)
}

func (s *RedisSessionStore) Delete(ctx context.Context, userID, gid string) error {
	if err := s.rdb.Del(ctx, s.key(userID, gid)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return s.rdb.SRem(ctx, s.userKey(userID), gid).Err()
}

// ActiveCount counts a user's running or paused sessions. Closed sessions
// keep their key until the TTL so a finished replay can be re-opened at its
// cursor, but they must not consume the concurrency cap. Index members whose
// session key already expired are pruned.
func (s *RedisSessionStore) ActiveCount(ctx context.Context, userID string) (int, error) {
	gids, err := s.rdb.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, gid := range gids {
		sess, err := s.Get(ctx, userID, gid)
		if err != nil {
			return 0, err
		}
		if sess == nil {
			_ = s.rdb.SRem(ctx, s.userKey(userID), gid).Err()
			continue
		}
		if sess.State != models.SessionClosed {
			count++
		}
	}
	return count, nil
}
