// Package session stores login sessions in Redis, keyed by the session ID
// embedded in JWT claims. A per-user set tracks all live sessions so they
// can be revoked together.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionManager interface defines methods for session management
type SessionManager interface {
	CreateSession(ctx context.Context, userID int64, sessionID string, username string, ttl time.Duration, ipAddress string, userAgent string) error
	// GetSession returns (nil, nil) when the session does not exist or has
	// expired.
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteAllUserSessions(ctx context.Context, userID int64) error
}

// RedisSessionManager implements SessionManager using Redis
type RedisSessionManager struct {
	client *redis.Client
}

// NewSessionManager creates a new session manager with Redis client
func NewSessionManager(client *redis.Client) SessionManager {
	return &RedisSessionManager{client: client}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func userSessionsKey(userID int64) string {
	return fmt.Sprintf("user_sessions:%d", userID)
}

// CreateSession stores the session and registers it in the user's session
// set. The set's TTL runs an hour past the session TTL so a stale set never
// outlives a rotation cycle.
func (m *RedisSessionManager) CreateSession(ctx context.Context, userID int64, sessionID string, username string, ttl time.Duration, ipAddress string, userAgent string) error {
	now := time.Now()
	data, err := json.Marshal(&model.Session{
		SessionID: sessionID,
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := m.client.TxPipeline()
	pipe.Set(ctx, sessionKey(sessionID), data, ttl)
	pipe.SAdd(ctx, userSessionsKey(userID), sessionID)
	pipe.Expire(ctx, userSessionsKey(userID), ttl+time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// GetSession retrieves a session from Redis
func (m *RedisSessionManager) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	data, err := m.client.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// DeleteSession removes a single session. Deleting a session that no longer
// exists is not an error.
func (m *RedisSessionManager) DeleteSession(ctx context.Context, sessionID string) error {
	sess, err := m.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	pipe := m.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, userSessionsKey(sess.UserID), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteAllUserSessions revokes every live session of one user
func (m *RedisSessionManager) DeleteAllUserSessions(ctx context.Context, userID int64) error {
	setKey := userSessionsKey(userID)

	sessionIDs, err := m.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}

	keys := make([]string, 0, len(sessionIDs)+1)
	for _, id := range sessionIDs {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, setKey)

	if err := m.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("删除用户会话失败", zap.Int64("user_id", userID), zap.Error(err))
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}
