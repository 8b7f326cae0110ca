package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"pricing_backend/internal/feature/auth/domain/entity"
	"pricing_backend/internal/shared/authz"
	"pricing_backend/internal/shared/validation"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 8

	// maxUsernameLength はユーザー名の最大文字数です。
	maxUsernameLength = 150

	// defaultMaxSessions はユーザーごとに保持するリフレッシュセッションの上限です。
	defaultMaxSessions = 5

	// dummyHash はユーザーが存在しない場合のタイミング攻撃緩和用ダミーハッシュです。
	dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーを永続化します。
	// メールアドレスまたはユーザー名が重複する場合は ErrUserAlreadyExists を返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail はメールアドレスに一致するユーザーを取得します。存在しない場合は ErrUserNotFound を返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByUsername はユーザー名に一致するユーザーを取得します。存在しない場合は ErrUserNotFound を返します。
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// FindByID はIDに一致するユーザーを取得します。存在しない場合は ErrUserNotFound を返します。
	FindByID(ctx context.Context, id uint) (*entity.User, error)

	// Activate は未有効のユーザーを有効化します。
	// 既に有効だった場合は false を返します（状態は変更されません）。
	Activate(ctx context.Context, id uint) (bool, error)
}

// TokenIssuer はアクセストークンとメール認証トークンの発行・検証を定義します。
type TokenIssuer interface {
	GenerateAccessToken(userID uint, email string, role authz.Role) (string, error)
	GenerateVerificationToken(userID uint, email string) (string, error)
	ParseVerificationToken(token string) (uint, string, error)
}

// VerificationMailer は認証メールの送信を定義します。
type VerificationMailer interface {
	SendVerification(ctx context.Context, to, username, link string) error
}

// Config はauthUsecaseの動作設定です。
type Config struct {
	// PublicBaseURL は認証リンクの組み立てに使う外部公開URLです（末尾スラッシュなし）。
	PublicBaseURL string
	// RefreshExpiry はリフレッシュセッションの有効期間です。
	RefreshExpiry time.Duration
	// MaxSessions はユーザーごとのセッション上限です。0 の場合は既定値を使います。
	MaxSessions int
}

// RegisterInput は新規登録の入力です。
type RegisterInput struct {
	Email    string
	Username string
	Password string
	Role     authz.Role
}

// LoginInput はログインの入力です。UserAgent と IPAddress はセッションに記録されます。
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// LoginResult はログイン成功時に返されるトークンとユーザー情報です。
type LoginResult struct {
	Access   string
	Refresh  string
	Username string
	Role     authz.Role
	Email    string
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users    UserRepository
	sessions SessionRepository
	tokens   TokenIssuer
	mailer   VerificationMailer
	cfg      Config

	now          func() time.Time
	newSessionID func() (string, error)
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserRepository, sessions SessionRepository, tokens TokenIssuer, mailer VerificationMailer, cfg Config) *authUsecase {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	if cfg.RefreshExpiry <= 0 {
		cfg.RefreshExpiry = 24 * time.Hour
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &authUsecase{
		users:        users,
		sessions:     sessions,
		tokens:       tokens,
		mailer:       mailer,
		cfg:          cfg,
		now:          time.Now,
		newSessionID: generateSessionID,
	}
}

// Register は未有効のユーザーを作成し、認証メールを送信します。
// メールの送信に失敗した場合、作成したユーザーは残したまま ErrVerificationMailFailed を返します。
func (u *authUsecase) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if in.Role == "" {
		in.Role = authz.RoleBuyer
	}

	if err := u.validateRegistration(ctx, in); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Email:    in.Email,
		Username: in.Username,
		Password: string(hashed),
		Role:     in.Role,
		IsActive: false,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			return nil, validation.FieldError("email", "user with this email or username already exists.")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := u.tokens.GenerateVerificationToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}
	link := fmt.Sprintf("%s/accounts/verify-email/%s/%s", u.cfg.PublicBaseURL, EncodeUID(user.ID), token)

	if err := u.mailer.SendVerification(ctx, user.Email, user.Username, link); err != nil {
		return user, fmt.Errorf("%w: %v", ErrVerificationMailFailed, err)
	}
	return user, nil
}

func (u *authUsecase) validateRegistration(ctx context.Context, in RegisterInput) error {
	verr := validation.New()

	if in.Email == "" {
		verr.Add("email", "this field is required")
	}
	if in.Username == "" {
		verr.Add("username", "this field is required")
	} else if len(in.Username) > maxUsernameLength {
		verr.Add("username", fmt.Sprintf("ensure this field has no more than %d characters", maxUsernameLength))
	}
	if err := validatePassword(in.Password); err != nil {
		verr.Add("password", err.Error())
	}
	if !in.Role.Valid() {
		verr.Add("role", fmt.Sprintf("%q is not a valid choice.", in.Role))
	}
	if !verr.Empty() {
		return verr
	}

	if _, err := u.users.FindByEmail(ctx, in.Email); err == nil {
		verr.Add("email", "user with this email already exists.")
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if _, err := u.users.FindByUsername(ctx, in.Username); err == nil {
		verr.Add("username", "A user with that username already exists.")
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	return verr.OrNil()
}

// VerifyEmail は認証リンクを検証し、ユーザーを有効化します。
//   - uid をデコードできない、またはユーザーが存在しない場合は ErrInvalidUID
//   - 既に有効なユーザーの場合は ErrAlreadyActive（状態は変更しない）
//   - トークンが不正・期限切れ・別ユーザー宛ての場合は ErrInvalidVerificationToken
func (u *authUsecase) VerifyEmail(ctx context.Context, uidb64, token string) (*entity.User, error) {
	id, err := DecodeUID(uidb64)
	if err != nil {
		return nil, ErrInvalidUID
	}
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidUID
		}
		return nil, err
	}
	if user.IsActive {
		return user, ErrAlreadyActive
	}

	tokenUserID, tokenEmail, err := u.tokens.ParseVerificationToken(token)
	if err != nil || tokenUserID != user.ID || tokenEmail != user.Email {
		return user, ErrInvalidVerificationToken
	}

	activated, err := u.users.Activate(ctx, user.ID)
	if err != nil {
		return user, fmt.Errorf("failed to activate user: %w", err)
	}
	if !activated {
		// 並行リクエストが先に有効化した
		return user, ErrAlreadyActive
	}
	user.IsActive = true
	return user, nil
}

// Login はユーザーを認証し、アクセストークンとリフレッシュトークンを発行します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *authUsecase) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	user, err := u.users.FindByEmail(ctx, NormalizeEmail(in.Email))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	passwordHash := dummyHash
	if err == nil {
		passwordHash = user.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(in.Password))
	if err != nil || compareErr != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserNotVerified
	}

	access, err := u.tokens.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	refresh, err := u.startSession(ctx, user.ID, in.UserAgent, in.IPAddress)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Access:   access,
		Refresh:  refresh,
		Username: user.Username,
		Role:     user.Role,
		Email:    user.Email,
	}, nil
}

// startSession はセッション数の上限を保ちながら新しいリフレッシュセッションを作成します。
func (u *authUsecase) startSession(ctx context.Context, userID uint, userAgent, ip string) (string, error) {
	count, err := u.sessions.CountByUserID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to count sessions: %w", err)
	}
	for ; count >= int64(u.cfg.MaxSessions); count-- {
		if err := u.sessions.DeleteOldestByUserID(ctx, userID); err != nil {
			return "", fmt.Errorf("failed to evict session: %w", err)
		}
	}

	id, err := u.newSessionID()
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	now := u.now()
	session := &entity.Session{
		ID:        id,
		UserID:    userID,
		UserAgent: userAgent,
		IPAddress: ip,
		CreatedAt: now,
		ExpiresAt: now.Add(u.cfg.RefreshExpiry),
	}
	if err := u.sessions.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// Logout は呼び出したユーザーのリフレッシュセッションを失効させます。
// アクセストークンは有効期限まで有効なままです。
func (u *authUsecase) Logout(ctx context.Context, userID uint, refresh string) error {
	session, err := u.sessions.FindByID(ctx, refresh)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return ErrInvalidRefreshToken
		}
		return err
	}
	if !session.BelongsTo(userID) || !session.IsValid(u.now()) {
		return ErrInvalidRefreshToken
	}
	if err := u.sessions.Revoke(ctx, session.ID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return ErrInvalidRefreshToken
		}
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// Refresh は有効なリフレッシュセッションから新しいアクセストークンを発行します。
// ロールは発行時点のユーザー情報から取得します。
func (u *authUsecase) Refresh(ctx context.Context, refresh string) (string, error) {
	session, err := u.sessions.FindByID(ctx, refresh)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", err
	}
	if !session.IsValid(u.now()) {
		return "", ErrInvalidRefreshToken
	}

	user, err := u.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", err
	}
	if !user.IsActive {
		return "", ErrInvalidRefreshToken
	}

	access, err := u.tokens.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return access, nil
}

// CreateSuperuser は有効化済みの管理者ユーザーを作成します（認証メールは送信しません）。
func (u *authUsecase) CreateSuperuser(ctx context.Context, email, username, password string) (*entity.User, error) {
	in := RegisterInput{
		Email:    NormalizeEmail(email),
		Username: strings.TrimSpace(username),
		Password: password,
		Role:     authz.RoleAdmin,
	}
	if err := u.validateRegistration(ctx, in); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &entity.User{
		Email:       in.Email,
		Username:    in.Username,
		Password:    string(hashed),
		Role:        authz.RoleAdmin,
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create superuser: %w", err)
	}
	return user, nil
}

// PurgeExpiredSessions は期限切れのセッションを削除し、削除件数を返します。
func (u *authUsecase) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return u.sessions.DeleteExpired(ctx)
}

// validatePassword はパスワードがセキュリティ要件を満たしているかチェックします。
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("ensure this field has at least %d characters", minPasswordLength)
	}
	return nil
}

// NormalizeEmail は前後の空白を除去し、ドメイン部を小文字化します。
// ローカル部は大文字小文字を区別するためそのまま残します。
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// EncodeUID はユーザーIDを認証リンク用のURLセーフなbase64文字列に変換します。
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

// DecodeUID は EncodeUID の逆変換です。パディング付きの入力も受け付けます。
func DecodeUID(uidb64 string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(uidb64, "="))
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidUID
	}
	return uint(id), nil
}

// generateSessionID は32バイトの乱数から64文字の16進文字列を生成します。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
