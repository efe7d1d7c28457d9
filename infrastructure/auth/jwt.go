package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ridwanabdusalam/lens-eye-metadata-vault/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken   = errors.New("missing bearer token")
	ErrInvalidToken   = errors.New("invalid jwt")
	ErrMissingSubject = errors.New("token has no subject")
	ErrSecretEmpty    = errors.New("jwt secret is empty")
)

// Principal 是通过校验的调用方
type Principal struct {
	ID    string
	Email string
	Role  string
}

type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type JWTVerifier struct {
	secret   []byte
	audience string
	now      func() time.Time
}

// Default 由 main 初始化，中间件从这里取
var Default *JWTVerifier

func InitAuth() error {
	if config.AppConfig == nil {
		return errors.New("app config is not initialized")
	}
	verifier, err := NewJWTVerifier(config.AppConfig.Auth.JWTSecret, config.AppConfig.Auth.Audience)
	if err != nil {
		return err
	}
	Default = verifier
	return nil
}

func NewJWTVerifier(secret, audience string) (*JWTVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSecretEmpty
	}
	return &JWTVerifier{
		secret:   []byte(secret),
		audience: strings.TrimSpace(audience),
		now:      time.Now,
	}, nil
}

// BearerToken 从 Authorization 头里取出 token
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

func (v *JWTVerifier) Verify(token string) (Principal, error) {
	if strings.TrimSpace(token) == "" {
		return Principal{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims accessClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return Principal{}, ErrMissingSubject
	}

	return Principal{ID: subject, Email: claims.Email, Role: claims.Role}, nil
}

// IssueToken 签发测试和本地调试用的 token
func (v *JWTVerifier) IssueToken(subject, email string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := accessClaims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
