// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"pricing_backend/internal/feature/auth/domain/entity"
	"pricing_backend/internal/feature/auth/transport/http/dto"
	"pricing_backend/internal/feature/auth/usecase"
	"pricing_backend/internal/platform/http/response"
	jwtmw "pricing_backend/internal/platform/jwt"
	"pricing_backend/internal/platform/templates"
	"pricing_backend/internal/shared/authz"
	"pricing_backend/internal/shared/validation"
)

// 利用者に返すメッセージ
const (
	msgRegistered      = "User registered successfully. Please check your email to verify your account."
	msgNotVerified     = "Email not verified. Please verify your email before logging in."
	msgBadCredentials  = "invalid email or password"
	msgInvalidToken    = "Invalid token"
	msgInvalidRefresh  = "invalid refresh token"
	msgInvalidUID      = "Invalid user ID"
	msgAlreadyActive   = "This account is already active."
	msgLoggedOut       = "Successfully logged out."
	msgInternal        = "internal server error"
	msgVerificationErr = "Failed to send verification email."
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*entity.User, error)
	VerifyEmail(ctx context.Context, uidb64, token string) (*entity.User, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginResult, error)
	Logout(ctx context.Context, userID uint, refresh string) error
	Refresh(ctx context.Context, refresh string) (string, error)
}

// EventRecorder はアカウント操作の結果を記録します（Prometheusカウンタなど）。
type EventRecorder interface {
	AccountEvent(event, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) AccountEvent(string, string) {}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth     AuthUsecase
	events   EventRecorder
	loginURL string
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// events が nil の場合は記録しません。loginURL は有効化成功ページのリンク先です。
func NewAuthHandler(auth AuthUsecase, events EventRecorder, loginURL string) *AuthHandler {
	if events == nil {
		events = noopRecorder{}
	}
	return &AuthHandler{auth: auth, events: events, loginURL: loginURL}
}

// Register はユーザー登録APIエンドポイントを処理します。
// - バリデーションエラー・重複時は400（フィールド詳細付き）
// - 認証メールの送信失敗は400
// - 成功時は201
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		h.events.AccountEvent("register", "invalid")
		c.JSON(http.StatusBadRequest, response.Invalid(err))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Role:     authz.Role(req.Role),
	})
	if err != nil {
		var verr *validation.Error
		switch {
		case errors.As(err, &verr):
			slog.Warn("register rejected", "fields", verr.Fields, "remote_addr", c.ClientIP())
			h.events.AccountEvent("register", "invalid")
			c.JSON(http.StatusBadRequest, response.Invalid(err))
		case errors.Is(err, usecase.ErrVerificationMailFailed):
			slog.Error("verification email failed", "error", err, "email", req.Email, "remote_addr", c.ClientIP())
			h.events.AccountEvent("register", "mail_failed")
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: msgVerificationErr})
		default:
			slog.Error("register failed", "error", err, "remote_addr", c.ClientIP())
			h.events.AccountEvent("register", "error")
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: msgInternal})
		}
		return
	}

	slog.Info("user registered", "user_id", user.ID, "email", user.Email, "remote_addr", c.ClientIP())
	h.events.AccountEvent("register", "success")
	c.JSON(http.StatusCreated, dto.RegisterRes{
		Message:  msgRegistered,
		Email:    user.Email,
		Username: user.Username,
		Role:     string(user.Role),
	})
}

// VerifyEmail は認証リンクを処理し、結果をHTMLページで返します。
// uid が不正な場合のみJSONの400を返します。失敗ページは200で返します（再認証は状態を変えません）。
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	user, err := h.auth.VerifyEmail(c.Request.Context(), c.Param("uid"), c.Param("token"))
	switch {
	case err == nil:
		slog.Info("user activated", "user_id", user.ID, "remote_addr", c.ClientIP())
		h.events.AccountEvent("verify", "success")
		c.HTML(http.StatusOK, templates.ActivateSuccess, gin.H{"Username": user.Username, "LoginURL": h.loginURL})
	case errors.Is(err, usecase.ErrInvalidUID):
		slog.Warn("verification with invalid uid", "uid", c.Param("uid"), "remote_addr", c.ClientIP())
		h.events.AccountEvent("verify", "invalid")
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: msgInvalidUID})
	case errors.Is(err, usecase.ErrAlreadyActive):
		slog.Warn("verification for active user", "uid", c.Param("uid"), "remote_addr", c.ClientIP())
		h.events.AccountEvent("verify", "already_active")
		c.HTML(http.StatusOK, templates.ActivateFailure, gin.H{"Reason": msgAlreadyActive})
	case errors.Is(err, usecase.ErrInvalidVerificationToken):
		slog.Warn("verification with invalid token", "uid", c.Param("uid"), "remote_addr", c.ClientIP())
		h.events.AccountEvent("verify", "invalid")
		c.HTML(http.StatusOK, templates.ActivateFailure, gin.H{})
	default:
		slog.Error("verification failed", "error", err, "remote_addr", c.ClientIP())
		h.events.AccountEvent("verify", "error")
		c.HTML(http.StatusInternalServerError, templates.ActivateFailure, gin.H{})
	}
}

// Login はユーザーログインAPIエンドポイントを処理します。
// - 認証失敗時は401、未認証のメールアドレスは400（別メッセージ）
// - 成功時はアクセス/リフレッシュトークンとユーザー情報を200で返却
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		h.events.AccountEvent("login", "invalid")
		c.JSON(http.StatusBadRequest, response.Invalid(err))
		return
	}

	res, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotVerified):
			slog.Warn("login by unverified user", "email", req.Email, "remote_addr", c.ClientIP())
			h.events.AccountEvent("login", "unverified")
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: msgNotVerified})
		case errors.Is(err, usecase.ErrInvalidCredentials):
			// ユーザー列挙攻撃を防止するため、実際のエラーを公開しない
			slog.Warn("login failed", "email", req.Email, "remote_addr", c.ClientIP())
			h.events.AccountEvent("login", "denied")
			c.JSON(http.StatusUnauthorized, response.ErrorResponse{Error: msgBadCredentials})
		default:
			slog.Error("login error", "error", err, "remote_addr", c.ClientIP())
			h.events.AccountEvent("login", "error")
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: msgInternal})
		}
		return
	}

	slog.Info("user login successful", "email", res.Email, "remote_addr", c.ClientIP())
	h.events.AccountEvent("login", "success")
	c.JSON(http.StatusOK, dto.LoginRes{
		Access:   res.Access,
		Refresh:  res.Refresh,
		Username: res.Username,
		Role:     string(res.Role),
		Email:    res.Email,
	})
}

// Logout はリフレッシュトークンを失効させます。AuthRequired の後段で使います。
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("logout validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: msgInvalidToken})
		return
	}

	userID := c.GetUint(jwtmw.ContextUserID)
	if err := h.auth.Logout(c.Request.Context(), userID, req.Refresh); err != nil {
		if errors.Is(err, usecase.ErrInvalidRefreshToken) {
			slog.Warn("logout with invalid token", "user_id", userID, "remote_addr", c.ClientIP())
			h.events.AccountEvent("logout", "invalid")
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: msgInvalidToken})
			return
		}
		slog.Error("logout failed", "error", err, "user_id", userID, "remote_addr", c.ClientIP())
		h.events.AccountEvent("logout", "error")
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: msgInternal})
		return
	}

	slog.Info("user logged out", "user_id", userID, "remote_addr", c.ClientIP())
	h.events.AccountEvent("logout", "success")
	c.JSON(http.StatusOK, response.MessageResponse{Message: msgLoggedOut})
}

// Refresh はリフレッシュトークンから新しいアクセストークンを発行します。
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("refresh validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, response.Invalid(err))
		return
	}

	access, err := h.auth.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidRefreshToken) {
			slog.Warn("refresh with invalid token", "remote_addr", c.ClientIP())
			h.events.AccountEvent("refresh", "denied")
			c.JSON(http.StatusUnauthorized, response.ErrorResponse{Error: msgInvalidRefresh})
			return
		}
		slog.Error("refresh failed", "error", err, "remote_addr", c.ClientIP())
		h.events.AccountEvent("refresh", "error")
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: msgInternal})
		return
	}

	h.events.AccountEvent("refresh", "success")
	c.JSON(http.StatusOK, dto.AccessRes{Access: access})
}
