package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"rehabdocs/internal/auth/models"
	id "rehabdocs/pkg/domain"
	"rehabdocs/pkg/platform/sentinel"
)

// RedisStore keeps sessions in Redis with a TTL matching the session expiry,
// so logout survives process restarts and expired sessions vanish on their
// own. Keys: session:<id>, plus a per-user set for bulk revocation.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type sessionRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Device    string    `json:"device,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func sessionKey(sessionID id.SessionID) string {
	return "session:" + uuid.UUID(sessionID).String()
}

func userSessionsKey(userID id.UserID) string {
	return "user_sessions:" + uuid.UUID(userID).String()
}

func (s *RedisStore) Create(ctx context.Context, sess *models.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return sentinel.ErrExpired
	}
	raw, err := json.Marshal(sessionRecord{
		ID:        uuid.UUID(sess.ID).String(),
		UserID:    uuid.UUID(sess.UserID).String(),
		Role:      sess.Role,
		Device:    sess.Device,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(sess.ID), raw, ttl)
	pipe.SAdd(ctx, userSessionsKey(sess.UserID), uuid.UUID(sess.ID).String())
	pipe.Expire(ctx, userSessionsKey(sess.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	sid, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	uid, err := uuid.Parse(rec.UserID)
	if err != nil {
		return nil, fmt.Errorf("parse session user id: %w", err)
	}
	sess := &models.Session{
		ID:        id.SessionID(sid),
		UserID:    id.UserID(uid),
		Role:      rec.Role,
		Device:    rec.Device,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}
	if sess.Expired(time.Now()) {
		return nil, sentinel.ErrExpired
	}
	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID id.SessionID) error {
	sess, err := s.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrExpired) {
			// Already unusable, deleting the key is still worthwhile.
			_ = s.client.Del(ctx, sessionKey(sessionID)).Err()
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, userSessionsKey(sess.UserID), uuid.UUID(sessionID).String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteByUser(ctx context.Context, userID id.UserID) error {
	members, err := s.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, member := range members {
		pipe.Del(ctx, "session:"+member)
	}
	pipe.Del(ctx, userSessionsKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}
