package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/api"
	"github.com/BaSui01/assetflow/config"
	"github.com/BaSui01/assetflow/types"
)

// =============================================================================
// 🔐 令牌签发与校验
// =============================================================================

// TokenIssuer 签发并校验 HS256 访问令牌
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer 创建令牌签发器
func NewTokenIssuer(cfg config.AuthConfig) (*TokenIssuer, error) {
	if cfg.Secret == "" {
		return nil, types.NewConfigurationError("auth: secret is required")
	}
	if cfg.TokenTTL <= 0 {
		return nil, types.NewConfigurationError("auth: token ttl must be positive")
	}
	return &TokenIssuer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}, nil
}

// Issue 为 userID 签发令牌，返回令牌及过期时间
func (t *TokenIssuer) Issue(userID string) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, types.NewError(types.ErrInternalError, "failed to sign token").WithCause(err)
	}
	return signed, expiresAt, nil
}

// Verify 校验令牌并返回其中的用户标识
func (t *TokenIssuer) Verify(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "token expired"
		}
		return "", types.NewError(types.ErrUnauthorized, msg).WithCause(err)
	}
	if claims.Subject == "" {
		return "", types.NewError(types.ErrUnauthorized, "token has no subject")
	}
	return claims.Subject, nil
}

// =============================================================================
// 🔑 登录 Handler
// =============================================================================

// AuthHandler 用 API Key 换取访问令牌
type AuthHandler struct {
	issuer  *TokenIssuer
	apiKeys [][]byte
	logger  *zap.Logger
}

// NewAuthHandler 创建登录处理器
func NewAuthHandler(issuer *TokenIssuer, apiKeys []string, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}
	return &AuthHandler{
		issuer:  issuer,
		apiKeys: keys,
		logger:  logger.With(zap.String("component", "auth")),
	}
}

// HandleLogin 处理登录请求
// @Summary 登录
// @Description 使用 API Key 换取 JWT 访问令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body api.LoginRequest true "登录请求"
// @Success 200 {object} api.LoginResponse "访问令牌"
// @Failure 400 {object} Response "无效请求"
// @Failure 401 {object} Response "认证失败"
// @Router /v1/auth/login [post]
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !DecodeRequest(w, r, &req, h.logger) {
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "user_id is required"), h.logger)
		return
	}
	if !h.validKey(req.APIKey) {
		WriteError(w, types.NewError(types.ErrUnauthorized, "invalid api key"), h.logger)
		return
	}

	token, expiresAt, err := h.issuer.Issue(userID)
	if err != nil {
		WriteAnyError(w, err, h.logger)
		return
	}

	h.logger.Info("token issued", zap.String("user_id", userID), zap.Time("expires_at", expiresAt))
	WriteSuccess(w, api.LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
	})
}

// validKey 常量时间比较，遍历全部候选
func (h *AuthHandler) validKey(key string) bool {
	candidate := []byte(key)
	match := 0
	for _, k := range h.apiKeys {
		match |= subtle.ConstantTimeCompare(candidate, k)
	}
	return len(candidate) > 0 && match == 1
}
