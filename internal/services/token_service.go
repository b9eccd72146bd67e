package services

import (
	"errors"
	"time"

	"github.com/Sergecodes/rmusiclines-sub000/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// 令牌作用域
const (
	ScopeAccess     = "access"
	ScopeRefresh    = "refresh"
	ScopeActivation = "activation" // 邮箱/账号激活，3 天有效
)

// TokenService 签发和校验 HS256 令牌。
// ver 声明绑定用户的 TokenVersion，改名/改邮箱后旧令牌整体失效
type TokenService struct {
	Secret        []byte
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ActivationTTL time.Duration
}

func NewTokenService(cfg config.Config) *TokenService {
	return &TokenService{
		Secret:        []byte(cfg.TokenSecret),
		Issuer:        cfg.TokenIssuer,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		ActivationTTL: cfg.ActivationTTL,
	}
}

// TokenClaims 解析后的业务声明
type TokenClaims struct {
	UserID  uint
	Scope   string
	Version int
	Subject string // activation 令牌携带业务负载（用户名）
}

func (t *TokenService) sign(userID uint, scope string, version int, subject string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss":   t.Issuer,
		"uid":   float64(userID),
		"scope": scope,
		"ver":   float64(version),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	if subject != "" {
		claims["sub"] = subject
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.Secret)
}

// CreateAccessToken 常规访问令牌
func (t *TokenService) CreateAccessToken(userID uint, version int) (string, error) {
	return t.sign(userID, ScopeAccess, version, "", t.AccessTTL)
}

// CreateRefreshToken 刷新令牌
func (t *TokenService) CreateRefreshToken(userID uint, version int) (string, error) {
	return t.sign(userID, ScopeRefresh, version, "", t.RefreshTTL)
}

// CreateActivationToken ACTIVATION 作用域令牌，subject 放用户名
func (t *TokenService) CreateActivationToken(userID uint, version int, username string) (string, error) {
	return t.sign(userID, ScopeActivation, version, username, t.ActivationTTL)
}

// Parse 校验签名和时效，返回业务声明。
// 过期 → ErrExpiredToken，其余问题 → ErrInvalidToken
func (t *TokenService) Parse(tokenStr string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.Secret, nil
	}, jwt.WithIssuer(t.Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	uid, ok := claims["uid"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}
	scope, _ := claims["scope"].(string)
	ver, _ := claims["ver"].(float64)
	sub, _ := claims["sub"].(string)

	return &TokenClaims{
		UserID:  uint(uid),
		Scope:   scope,
		Version: int(ver),
		Subject: sub,
	}, nil
}

// ParseScoped 解析并要求特定作用域
func (t *TokenService) ParseScoped(tokenStr, scope string) (*TokenClaims, error) {
	claims, err := t.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Scope != scope {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
