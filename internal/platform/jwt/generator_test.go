package jwtmw

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pricing_backend/internal/shared/authz"
)

const testSecret = "test-secret-key"

func newTestGenerator() *Generator {
	return NewGenerator(Config{
		Secret:             testSecret,
		AccessExpiry:       5 * time.Minute,
		VerificationExpiry: 72 * time.Hour,
	})
}

// TestGenerator_AccessTokenRoundTrip は発行したアクセストークンが検証でき、クレームが保持されることを検証します。
func TestGenerator_AccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		userID uint
		email  string
		role   authz.Role
	}{
		{"admin user", 1, "admin@example.com", authz.RoleAdmin},
		{"supplier with tagged email", 42, "sup+tag@example.com", authz.RoleSupplier},
		{"buyer with large id", 999999, "buyer@example.com", authz.RoleBuyer},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := newTestGenerator()
			tokenStr, err := gen.GenerateAccessToken(tt.userID, tt.email, tt.role)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			claims, err := gen.ParseAccessToken(tokenStr)
			if err != nil {
				t.Fatalf("failed to parse token: %v", err)
			}
			id, err := claims.UserID()
			if err != nil || id != tt.userID {
				t.Errorf("expected user id %d, got %d (err=%v)", tt.userID, id, err)
			}
			if claims.Email != tt.email {
				t.Errorf("expected email %q, got %q", tt.email, claims.Email)
			}
			if claims.Role != tt.role {
				t.Errorf("expected role %q, got %q", tt.role, claims.Role)
			}
			if claims.ExpiresAt == nil || claims.IssuedAt == nil {
				t.Error("expected exp and iat to be set")
			}
		})
	}
}

// TestGenerator_AccessToken_SigningMethod はトークンがHS256で署名されていることを検証します。
func TestGenerator_AccessToken_SigningMethod(t *testing.T) {
	t.Parallel()

	tokenStr, err := newTestGenerator().GenerateAccessToken(1, "a@example.com", authz.RoleBuyer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, _, err := jwt.NewParser().ParseUnverified(tokenStr, &AccessClaims{})
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if token.Method.Alg() != "HS256" {
		t.Errorf("expected HS256, got %s", token.Method.Alg())
	}
}

// TestGenerator_ParseAccessToken_Rejects は不正なトークンが ErrInvalidToken で拒否されることを検証します。
func TestGenerator_ParseAccessToken_Rejects(t *testing.T) {
	t.Parallel()

	gen := newTestGenerator()
	other := NewGenerator(Config{Secret: "other-secret", AccessExpiry: time.Minute, VerificationExpiry: time.Hour})

	expired := newTestGenerator()
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }

	wrongSecret, _ := other.GenerateAccessToken(1, "a@example.com", authz.RoleAdmin)
	expiredToken, _ := expired.GenerateAccessToken(1, "a@example.com", authz.RoleAdmin)
	verification, _ := gen.GenerateVerificationToken(1, "a@example.com")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{
		TokenType:        tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	noneToken, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"malformed token", "not.a.valid.token"},
		{"random string", "randomstring"},
		{"wrong secret", wrongSecret},
		{"expired token", expiredToken},
		{"verification token used as access", verification},
		{"unsigned token", noneToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gen.ParseAccessToken(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

// TestGenerator_VerificationTokenRoundTrip はメール認証トークンの発行と検証を検証します。
func TestGenerator_VerificationTokenRoundTrip(t *testing.T) {
	t.Parallel()

	gen := newTestGenerator()
	tokenStr, err := gen.GenerateVerificationToken(7, "new@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, email, err := gen.ParseVerificationToken(tokenStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 7 || email != "new@example.com" {
		t.Errorf("unexpected claims: id=%d email=%q", id, email)
	}
}

// TestGenerator_ParseVerificationToken_Rejects はアクセストークンや期限切れトークンを拒否することを検証します。
func TestGenerator_ParseVerificationToken_Rejects(t *testing.T) {
	t.Parallel()

	gen := newTestGenerator()
	access, _ := gen.GenerateAccessToken(7, "new@example.com", authz.RoleBuyer)

	expired := newTestGenerator()
	expired.now = func() time.Time { return time.Now().Add(-73 * time.Hour) }
	expiredToken, _ := expired.GenerateVerificationToken(7, "new@example.com")

	for name, tok := range map[string]string{
		"access token":  access,
		"expired token": expiredToken,
		"garbage":       "abc",
	} {
		t.Run(name, func(t *testing.T) {
			if _, _, err := gen.ParseVerificationToken(tok); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

// TestLoadConfig は環境変数とデフォルト値の読み込みを検証します。
func TestLoadConfig(t *testing.T) {
	t.Setenv(EnvKeyJWTSecret, "s3cret")
	t.Setenv("JWT_ACCESS_EXPIRY", "")
	t.Setenv("VERIFICATION_TOKEN_EXPIRY", "1h")

	cfg := LoadConfig()

	if cfg.Secret != "s3cret" {
		t.Errorf("expected secret to be loaded, got %q", cfg.Secret)
	}
	if cfg.AccessExpiry != 5*time.Minute {
		t.Errorf("expected default access expiry, got %v", cfg.AccessExpiry)
	}
	if cfg.VerificationExpiry != time.Hour {
		t.Errorf("expected 1h verification expiry, got %v", cfg.VerificationExpiry)
	}
}
