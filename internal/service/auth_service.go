package service

import (
	"context"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/config"
	apperrors "github.com/TheBreeze12/lifehub-backend-sub000/internal/errors"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/model"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/jwt"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/session"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// sessionTTL is the Redis session lifetime, matched to the refresh token.
const sessionTTL = time.Hour * 24 * 7

// RegisterRequest represents the registration request data
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

// LoginRequest represents the login request data
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is the bearer token envelope returned on register/login/refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthResponse carries the user id together with the token pair.
type AuthResponse struct {
	UserID int64      `json:"userId"`
	Token  *TokenPair `json:"token"`
}

// AuthService interface defines methods for authentication operations
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest, ipAddress, userAgent string) (*AuthResponse, error)
	Logout(ctx context.Context, sessionID string) error
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)
	ValidateSession(ctx context.Context, sessionID string) (*model.Session, error)
}

// authService implements the AuthService interface
type authService struct {
	userRepo       repository.UserRepository
	jwtManager     jwt.JWTManager
	sessionManager session.SessionManager
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	jwtManager jwt.JWTManager,
	sessionManager session.SessionManager,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		jwtManager:     jwtManager,
		sessionManager: sessionManager,
	}
}

// Register creates a new user account with encrypted password
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	existingUser, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "查询用户失败")
	}
	if existingUser != nil {
		return nil, apperrors.ErrUsernameExists
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "密码加密失败")
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: string(passwordHash),
		HealthGoal:   model.GoalUnset,
		Status:       1,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "创建用户失败")
	}

	return s.issueTokens(ctx, user.ID, user.Username, "", "")
}

// Login authenticates a user and returns a fresh token pair
func (s *authService) Login(ctx context.Context, req *LoginRequest, ipAddress, userAgent string) (*AuthResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabase, "查询用户失败")
	}
	if user == nil {
		return nil, apperrors.New(apperrors.ErrInvalidCredentials, "用户名或密码错误")
	}
	if user.Status != 1 {
		return nil, apperrors.ErrUserDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.New(apperrors.ErrInvalidCredentials, "用户名或密码错误")
	}

	return s.issueTokens(ctx, user.ID, user.Username, ipAddress, userAgent)
}

// Logout invalidates the current session
func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.New(apperrors.ErrInvalidParam, "缺少会话标识")
	}
	if err := s.sessionManager.DeleteSession(ctx, sessionID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCache, "删除会话失败")
	}
	return nil
}

// RefreshToken validates a refresh token and issues a fresh token pair.
// The old session stays valid until its TTL expires.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrUnauthorized, "无效的刷新token")
	}
	if claims.Type != jwt.TypeRefresh {
		return nil, apperrors.New(apperrors.ErrUnauthorized, "该token不是刷新token")
	}

	sess, err := s.sessionManager.GetSession(ctx, claims.SessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCache, "查询会话失败")
	}
	if sess == nil {
		return nil, apperrors.ErrSessionNotFound
	}

	return s.issueTokens(ctx, claims.UserID, claims.Username, sess.IPAddress, sess.UserAgent)
}

// ValidateSession checks a session id against Redis
func (s *authService) ValidateSession(ctx context.Context, sessionID string) (*model.Session, error) {
	sess, err := s.sessionManager.GetSession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCache, "查询会话失败")
	}
	if sess == nil {
		return nil, apperrors.ErrSessionNotFound
	}
	return sess, nil
}

// issueTokens generates an access/refresh pair and registers the access
// token's session in Redis. 刷新token与会话共用7天有效期。
func (s *authService) issueTokens(ctx context.Context, userID int64, username, ipAddress, userAgent string) (*AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(userID, username)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "生成访问token失败")
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(userID, username)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "生成刷新token失败")
	}

	// The session id lives inside the signed token; parse it back out.
	claims, err := s.jwtManager.ValidateToken(accessToken)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "校验生成的token失败")
	}
	refreshClaims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "校验生成的token失败")
	}

	for _, sid := range []string{claims.SessionID, refreshClaims.SessionID} {
		if err := s.sessionManager.CreateSession(ctx, userID, sid, username, sessionTTL, ipAddress, userAgent); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCache, "创建会话失败")
		}
	}

	return &AuthResponse{
		UserID: userID,
		Token: &TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "bearer",
			ExpiresIn:    int64(config.GlobalConfig.JWT.AccessTokenExpire.Seconds()),
		},
	}, nil
}
