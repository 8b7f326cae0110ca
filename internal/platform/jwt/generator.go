package jwtmw

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"pricing_backend/internal/platform/config"
	"pricing_backend/internal/shared/authz"
)

// EnvKeyJWTSecret はJWT署名鍵を保持する環境変数名です。
const EnvKeyJWTSecret = "JWT_SECRET"

const (
	tokenTypeAccess       = "access"
	tokenTypeVerification = "email_verification"
)

var (
	// ErrInvalidToken はトークンの署名・期限・種別のいずれかが不正な場合に返されます。
	ErrInvalidToken = errors.New("invalid token")
)

// Config はトークン発行の設定です。
type Config struct {
	Secret             string
	AccessExpiry       time.Duration
	VerificationExpiry time.Duration
}

// LoadConfig は環境変数から設定を読み込みます。
func LoadConfig() Config {
	return Config{
		Secret:             config.GetEnv(EnvKeyJWTSecret, ""),
		AccessExpiry:       config.GetDuration("JWT_ACCESS_EXPIRY", 5*time.Minute),
		VerificationExpiry: config.GetDuration("VERIFICATION_TOKEN_EXPIRY", 72*time.Hour),
	}
}

// AccessClaims はアクセストークンのクレームです。
type AccessClaims struct {
	Email     string     `json:"email"`
	Role      authz.Role `json:"role"`
	TokenType string     `json:"token_type"`
	jwt.RegisteredClaims
}

// UserID は sub クレームをユーザーIDとして返します。
func (c *AccessClaims) UserID() (uint, error) {
	return parseSubject(c.Subject)
}

// verificationClaims はメール認証トークンのクレームです。
// メールアドレスを含めることで、発行時のユーザー情報に束縛します。
type verificationClaims struct {
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Generator はHS256でトークンを発行・検証します。
type Generator struct {
	secret             []byte
	accessExpiry       time.Duration
	verificationExpiry time.Duration
	now                func() time.Time
}

// NewGenerator は指定された設定でGeneratorを生成します。
func NewGenerator(cfg Config) *Generator {
	return &Generator{
		secret:             []byte(cfg.Secret),
		accessExpiry:       cfg.AccessExpiry,
		verificationExpiry: cfg.VerificationExpiry,
		now:                time.Now,
	}
}

// AccessExpiry はアクセストークンの有効期間を返します。
func (g *Generator) AccessExpiry() time.Duration {
	return g.accessExpiry
}

// GenerateAccessToken はユーザーの署名済みアクセストークンを生成します。
func (g *Generator) GenerateAccessToken(userID uint, email string, role authz.Role) (string, error) {
	now := g.now()
	claims := AccessClaims{
		Email:     email,
		Role:      role,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.accessExpiry)),
		},
	}
	return g.sign(claims)
}

// GenerateVerificationToken はメール認証用の署名済みトークンを生成します。
func (g *Generator) GenerateVerificationToken(userID uint, email string) (string, error) {
	now := g.now()
	claims := verificationClaims{
		Email:     email,
		TokenType: tokenTypeVerification,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.verificationExpiry)),
		},
	}
	return g.sign(claims)
}

// ParseAccessToken はアクセストークンを検証し、クレームを返します。
func (g *Generator) ParseAccessToken(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := g.parse(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseVerificationToken はメール認証トークンを検証し、ユーザーIDとメールアドレスを返します。
func (g *Generator) ParseVerificationToken(tokenStr string) (uint, string, error) {
	claims := &verificationClaims{}
	if err := g.parse(tokenStr, claims); err != nil {
		return 0, "", err
	}
	if claims.TokenType != tokenTypeVerification {
		return 0, "", ErrInvalidToken
	}
	id, err := parseSubject(claims.Subject)
	if err != nil {
		return 0, "", err
	}
	return id, claims.Email, nil
}

func (g *Generator) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (g *Generator) parse(tokenStr string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || !token.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

func parseSubject(sub string) (uint, error) {
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}
