package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"visiverse/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var testTokens = TokenConfig{Secret: []byte("test-secret"), TTL: time.Hour}

// mockAuthenticator is a lightweight in-test mock for Authenticator.
type mockAuthenticator struct {
	RegisterFn     func(username, password string) (*models.User, error)
	AuthenticateFn func(username, password string) (*models.User, error)

	registerCalls     []string
	authenticateCalls []string
}

func (m *mockAuthenticator) Register(ctx context.Context, username, password string) (*models.User, error) {
	m.registerCalls = append(m.registerCalls, username)
	return m.RegisterFn(username, password)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	m.authenticateCalls = append(m.authenticateCalls, username)
	return m.AuthenticateFn(username, password)
}

// --- SignUp tests ---

func TestAuthService_SignUp_DelegatesToAuthenticator(t *testing.T) {
	mock := &mockAuthenticator{
		RegisterFn: func(username, password string) (*models.User, error) {
			return &models.User{Username: username, PasswordHash: "$argon2id$..."}, nil
		},
	}
	svc := NewAuthService(mock, testTokens)

	u, err := svc.SignUp(context.Background(), "alice", "s3cr3t")
	if err != nil {
		t.Fatalf("SignUp returned error: %v", err)
	}
	if u.Username != "alice" {
		t.Fatalf("expected username alice, got %q", u.Username)
	}
	if len(mock.registerCalls) != 1 {
		t.Fatalf("expected 1 Register call, got %d", len(mock.registerCalls))
	}
}

func TestAuthService_SignUp_PropagatesError(t *testing.T) {
	dup := errors.New("duplicate")
	mock := &mockAuthenticator{
		RegisterFn: func(username, password string) (*models.User, error) {
			return nil, dup
		},
	}
	svc := NewAuthService(mock, testTokens)

	_, err := svc.SignUp(context.Background(), "carl", "pass123")
	if !errors.Is(err, dup) {
		t.Fatalf("expected authenticator error, got %v", err)
	}
}

// --- GenerateToken tests ---

func TestAuthService_GenerateToken_Success(t *testing.T) {
	mock := &mockAuthenticator{
		AuthenticateFn: func(username, password string) (*models.User, error) {
			if username != "diana" || password != "letmein" {
				t.Fatalf("unexpected credentials %q/%q", username, password)
			}
			return &models.User{Username: "diana"}, nil
		},
	}
	svc := NewAuthService(mock, testTokens)

	token, err := svc.GenerateToken(context.Background(), "diana", "letmein")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected non-empty token")
	}

	username, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if username != "diana" {
		t.Fatalf("expected subject diana, got %q", username)
	}
}

func TestAuthService_GenerateToken_InvalidCredentials(t *testing.T) {
	invalid := errors.New("invalid username or password")
	mock := &mockAuthenticator{
		AuthenticateFn: func(username, password string) (*models.User, error) {
			return nil, invalid
		},
	}
	svc := NewAuthService(mock, testTokens)

	token, err := svc.GenerateToken(context.Background(), "eve", "wrong")
	if !errors.Is(err, invalid) {
		t.Fatalf("expected authenticator error, got: %v", err)
	}
	if token != "" {
		t.Fatalf("expected no token, got %q", token)
	}
}

// --- ParseToken tests ---

func TestAuthService_ParseToken_Malformed(t *testing.T) {
	svc := NewAuthService(&mockAuthenticator{}, testTokens)
	_, err := svc.ParseToken("not-a-jwt")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthService_ParseToken_InvalidSignature(t *testing.T) {
	other := NewAuthService(&mockAuthenticator{}, TokenConfig{Secret: []byte("different-key"), TTL: time.Hour})
	badToken, err := other.issueToken("frank", time.Now())
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}

	svc := NewAuthService(&mockAuthenticator{}, testTokens)
	if _, err := svc.ParseToken(badToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature verification error, got %v", err)
	}
}

func TestAuthService_ParseToken_Expired(t *testing.T) {
	svc := NewAuthService(&mockAuthenticator{}, testTokens)

	expiredToken, err := svc.issueToken("gina", time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}

	if _, err := svc.ParseToken(expiredToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected error for expired token, got %v", err)
	}
}

func TestAuthService_ParseToken_MissingExpiry(t *testing.T) {
	svc := NewAuthService(&mockAuthenticator{}, testTokens)

	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.RegisteredClaims{Subject: "harry"})
	tokenStr, err := tk.SignedString(testTokens.Secret)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := svc.ParseToken(tokenStr); err == nil {
		t.Fatalf("expected error for token without exp")
	}
}

func TestAuthService_ParseToken_EmptySubject(t *testing.T) {
	svc := NewAuthService(&mockAuthenticator{}, testTokens)

	tokenStr, err := svc.issueToken("", time.Now())
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}

	if _, err := svc.ParseToken(tokenStr); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty subject, got %v", err)
	}
}

func TestAuthService_ParseToken_UnexpectedAlg(t *testing.T) {
	svc := NewAuthService(&mockAuthenticator{}, testTokens)

	now := time.Now()

	// Generate RSA key for RS256 signing
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}

	tk := jwt.NewWithClaims(jwt.SigningMethodRS256, &jwt.RegisteredClaims{
		Subject:   "ivan",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now),
	})

	tokenStr, err := tk.SignedString(privateKey)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}

	if _, err := svc.ParseToken(tokenStr); err == nil {
		t.Fatalf("expected error due to unexpected signing method")
	}
}
