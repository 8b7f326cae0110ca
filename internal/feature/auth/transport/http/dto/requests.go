// Package dto はauthフィーチャーのHTTPリクエスト/レスポンスを定義します。
package dto

// RegisterReq は /accounts/register のリクエストボディです。
type RegisterReq struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Username string `json:"username" binding:"required,max=150"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=admin buyer supplier"`
}

// LoginReq は /accounts/login のリクエストボディです。
type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshReq は /accounts/logout と /accounts/token/refresh のリクエストボディです。
type RefreshReq struct {
	Refresh string `json:"refresh" binding:"required"`
}
