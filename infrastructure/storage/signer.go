package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSigningSecretEmpty = errors.New("storage signing secret is empty")
	ErrInvalidSignature   = errors.New("invalid signed url token")
)

type signedURLClaims struct {
	URL string `json:"url"`
	jwt.RegisteredClaims
}

type URLSigner struct {
	secret []byte
	now    func() time.Time
}

func NewURLSigner(secret string) (*URLSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSigningSecretEmpty
	}
	return &URLSigner{secret: []byte(secret), now: time.Now}, nil
}

func (s *URLSigner) Sign(objectKey string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := signedURLClaims{
		URL: objectKey,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign object url failed: %w", err)
	}
	return token, nil
}

// Verify 校验签名、过期时间以及 token 是否属于该对象
func (s *URLSigner) Verify(objectKey, token string) error {
	var claims signedURLClaims
	_, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if claims.URL != objectKey {
		return fmt.Errorf("%w: token issued for another object", ErrInvalidSignature)
	}
	return nil
}
