package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/config"
	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/jwt"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/session"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
)

func newAuthTestService(t *testing.T) (AuthService, jwt.JWTManager) {
	t.Helper()
	if config.GlobalConfig == nil {
		config.GlobalConfig = &config.Config{}
	}
	config.GlobalConfig.JWT = config.JWTConfig{
		Secret:             "test-secret",
		AccessTokenExpire:  time.Hour,
		RefreshTokenExpire: 7 * 24 * time.Hour,
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db := newServiceTestDB(t)
	jwtManager := jwt.NewJWTManager("test-secret", time.Hour, 7*24*time.Hour)
	svc := NewAuthService(
		repository.NewUserRepository(db),
		jwtManager,
		session.NewSessionManager(client),
	)
	return svc, jwtManager
}

func TestRegisterAndLogin(t *testing.T) {
	svc, jwtManager := newAuthTestService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.Positive(t, resp.UserID)
	require.NotNil(t, resp.Token)
	assert.Equal(t, "bearer", resp.Token.TokenType)
	assert.Equal(t, int64(3600), resp.Token.ExpiresIn)
	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.NotEmpty(t, resp.Token.RefreshToken)

	// The access token's session is live in Redis.
	claims, err := jwtManager.ValidateToken(resp.Token.AccessToken)
	require.NoError(t, err)
	sess, err := svc.ValidateSession(ctx, claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, sess.UserID)

	login, err := svc.Login(ctx, &LoginRequest{Username: "alice", Password: "password123"}, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, login.UserID)
	assert.NotEqual(t, resp.Token.AccessToken, login.Token.AccessToken)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newAuthTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Username: "bob", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, &RegisterRequest{Username: "bob", Password: "otherpass456"})
	assert.ErrorIs(t, err, apperrors.ErrUsernameExists)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &RegisterRequest{Username: "carol", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, &LoginRequest{Username: "carol", Password: "wrongpass"}, "", "")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrInvalidCredentials, appErr.Code)

	// Unknown usernames produce the same error, no account probing.
	_, err = svc.Login(ctx, &LoginRequest{Username: "nobody", Password: "whatever1"}, "", "")
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrInvalidCredentials, appErr.Code)
}

func TestRefreshTokenIssuesFreshPair(t *testing.T) {
	svc, jwtManager := newAuthTestService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterRequest{Username: "dave", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, resp.Token.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, refreshed.UserID)
	assert.NotEmpty(t, refreshed.Token.AccessToken)
	assert.NotEmpty(t, refreshed.Token.RefreshToken)
	assert.NotEqual(t, resp.Token.RefreshToken, refreshed.Token.RefreshToken)

	// An access token is not accepted as a refresh token.
	_, err = svc.RefreshToken(ctx, resp.Token.AccessToken)
	require.Error(t, err)

	// The new access session validates.
	claims, err := jwtManager.ValidateToken(refreshed.Token.AccessToken)
	require.NoError(t, err)
	_, err = svc.ValidateSession(ctx, claims.SessionID)
	assert.NoError(t, err)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	svc, jwtManager := newAuthTestService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterRequest{Username: "erin", Password: "password123"})
	require.NoError(t, err)
	claims, err := jwtManager.ValidateToken(resp.Token.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims.SessionID))

	_, err = svc.ValidateSession(ctx, claims.SessionID)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	assert.Error(t, svc.Logout(ctx, ""))
}
