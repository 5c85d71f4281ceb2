package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"visiverse/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or subject checks.
var ErrInvalidToken = errors.New("invalid token")

// AuthService turns authenticated credentials into signed API tokens.
type AuthService struct {
	auth   Authenticator
	secret []byte
	ttl    time.Duration
}

func NewAuthService(auth Authenticator, cfg TokenConfig) *AuthService {
	return &AuthService{auth: auth, secret: cfg.Secret, ttl: cfg.TTL}
}

// SignUp registers a new user.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (*models.User, error) {
	return s.auth.Register(ctx, username, password)
}

// GenerateToken validates credentials and returns a JWT whose subject is the username.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.auth.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	return s.issueToken(u.Username, time.Now())
}

// ParseToken parses a JWT and returns the username it was issued to.
func (s *AuthService) ParseToken(accessToken string) (string, error) {
	token, err := jwt.ParseWithClaims(accessToken, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// issueToken signs a token for username valid from now for the configured TTL.
func (s *AuthService) issueToken(username string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	})
	return token.SignedString(s.secret)
}
