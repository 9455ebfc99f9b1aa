package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewSessionManager(client), mr
}

func TestCreateAndGetSession(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.CreateSession(ctx, 123, "sid-1", "alice", time.Hour, "192.168.1.1", "Mozilla/5.0"))

	sess, err := manager.GetSession(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "sid-1", sess.SessionID)
	assert.Equal(t, int64(123), sess.UserID)
	assert.Equal(t, "alice", sess.Username)
	assert.Equal(t, "192.168.1.1", sess.IPAddress)
	assert.Equal(t, "Mozilla/5.0", sess.UserAgent)
}

func TestGetSessionMissingReturnsNil(t *testing.T) {
	manager, _ := newTestManager(t)

	sess, err := manager.GetSession(context.Background(), "no-such-session")
	assert.NoError(t, err)
	assert.Nil(t, sess)
}

func TestDeleteSession(t *testing.T) {
	manager, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.CreateSession(ctx, 123, "sid-1", "alice", time.Hour, "", ""))
	require.NoError(t, manager.DeleteSession(ctx, "sid-1"))

	sess, err := manager.GetSession(ctx, "sid-1")
	assert.NoError(t, err)
	assert.Nil(t, sess)

	// the tracking set must not keep pointing at the deleted session
	members, err := mr.SMembers("user_sessions:123")
	if err == nil {
		assert.NotContains(t, members, "sid-1")
	}
}

func TestDeleteSessionMissingIsNoop(t *testing.T) {
	manager, _ := newTestManager(t)
	assert.NoError(t, manager.DeleteSession(context.Background(), "no-such-session"))
}

func TestDeleteAllUserSessions(t *testing.T) {
	manager, mr := newTestManager(t)
	ctx := context.Background()

	for _, sid := range []string{"sid-1", "sid-2", "sid-3"} {
		require.NoError(t, manager.CreateSession(ctx, 123, sid, "alice", time.Hour, "", ""))
	}
	// a different user's session must survive
	require.NoError(t, manager.CreateSession(ctx, 456, "other-sid", "bob", time.Hour, "", ""))

	require.NoError(t, manager.DeleteAllUserSessions(ctx, 123))

	for _, sid := range []string{"sid-1", "sid-2", "sid-3"} {
		sess, err := manager.GetSession(ctx, sid)
		assert.NoError(t, err)
		assert.Nil(t, sess, sid)
	}
	assert.False(t, mr.Exists("user_sessions:123"))

	other, err := manager.GetSession(ctx, "other-sid")
	require.NoError(t, err)
	assert.NotNil(t, other)
}

func TestDeleteAllUserSessionsNoSessions(t *testing.T) {
	manager, _ := newTestManager(t)
	assert.NoError(t, manager.DeleteAllUserSessions(context.Background(), 999))
}

func TestSessionExpiry(t *testing.T) {
	manager, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.CreateSession(ctx, 123, "sid-1", "alice", 2*time.Second, "", ""))

	sess, err := manager.GetSession(ctx, "sid-1")
	require.NoError(t, err)
	require.NotNil(t, sess)

	mr.FastForward(3 * time.Second)

	sess, err = manager.GetSession(ctx, "sid-1")
	assert.NoError(t, err)
	assert.Nil(t, sess)
}
