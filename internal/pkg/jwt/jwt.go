// Package jwt signs and validates the HS256 tokens the auth flow hands out.
// Each token carries a session ID that must also resolve in Redis, so a
// token alone is never enough after logout.
package jwt

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "lifehub"

// Token types stored in the Type claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims represents JWT claims with user information
type Claims struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
	jwt.RegisteredClaims
}

// JWTManager interface defines methods for JWT token management
type JWTManager interface {
	GenerateAccessToken(userID int64, username string) (string, error)
	GenerateRefreshToken(userID int64, username string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// DefaultJWTManager implements the JWTManager interface
type DefaultJWTManager struct {
	secret             []byte
	accessTokenExpire  time.Duration
	refreshTokenExpire time.Duration
}

// NewJWTManager creates a new JWT manager with configuration
func NewJWTManager(secret string, accessExpire, refreshExpire time.Duration) JWTManager {
	return &DefaultJWTManager{
		secret:             []byte(secret),
		accessTokenExpire:  accessExpire,
		refreshTokenExpire: refreshExpire,
	}
}

// GenerateAccessToken issues an access token with a fresh session ID
func (m *DefaultJWTManager) GenerateAccessToken(userID int64, username string) (string, error) {
	return m.sign(userID, username, TypeAccess, m.accessTokenExpire)
}

// GenerateRefreshToken issues a refresh token with its own session ID
func (m *DefaultJWTManager) GenerateRefreshToken(userID int64, username string) (string, error) {
	return m.sign(userID, username, TypeRefresh, m.refreshTokenExpire)
}

func (m *DefaultJWTManager) sign(userID int64, username, tokenType string, expire time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Username:  username,
		SessionID: newSessionID(),
		Type:      tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expire)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ValidateToken parses a token, checks the signature and expiry, and returns
// its claims.
func (m *DefaultJWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("session_%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
